package service

import (
	"context"
	"errors"
	"testing"

	"inkwell/internal/models"
	"inkwell/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postRepoStub is a stub for repository.PostRepository. Unset functions
// behave like an empty store.
type postRepoStub struct {
	createFn      func(context.Context, *models.Post) error
	getByIDFn     func(context.Context, uint, uint) (*models.Post, error)
	getBySlugFn   func(context.Context, string, uint) (*models.Post, error)
	isLikedFn     func(context.Context, uint, uint) (bool, error)
	existsFn      func(context.Context, uint) (bool, error)
	slugExistsFn  func(context.Context, string, uint) (bool, error)
	titleExistsFn func(context.Context, string, uint) (bool, error)
	updateFn      func(context.Context, *models.Post) error
	updateImageFn func(context.Context, uint, string) error
	listFn        func(context.Context, repository.PostFilter, uint) ([]*models.Post, int64, error)
	countFn       func(context.Context) (int64, error)
	recentFn      func(context.Context, int) ([]models.PostSummary, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id, viewerID uint) (*models.Post, error) {
	if s.getByIDFn == nil {
		return nil, models.NewNotFoundError("Post", id)
	}
	return s.getByIDFn(ctx, id, viewerID)
}
func (s *postRepoStub) GetBySlug(ctx context.Context, slug string, viewerID uint) (*models.Post, error) {
	if s.getBySlugFn == nil {
		return nil, models.NewNotFoundError("Post", slug)
	}
	return s.getBySlugFn(ctx, slug, viewerID)
}
func (s *postRepoStub) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	if s.isLikedFn == nil {
		return false, nil
	}
	return s.isLikedFn(ctx, userID, postID)
}
func (s *postRepoStub) Exists(ctx context.Context, id uint) (bool, error) {
	if s.existsFn == nil {
		return false, nil
	}
	return s.existsFn(ctx, id)
}
func (s *postRepoStub) SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error) {
	if s.slugExistsFn == nil {
		return false, nil
	}
	return s.slugExistsFn(ctx, slug, excludeID)
}
func (s *postRepoStub) TitleExists(ctx context.Context, title string, excludeID uint) (bool, error) {
	if s.titleExistsFn == nil {
		return false, nil
	}
	return s.titleExistsFn(ctx, title, excludeID)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	if s.updateFn == nil {
		return nil
	}
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) UpdateImage(ctx context.Context, id uint, url string) error {
	if s.updateImageFn == nil {
		return nil
	}
	return s.updateImageFn(ctx, id, url)
}
func (s *postRepoStub) List(ctx context.Context, filter repository.PostFilter, viewerID uint) ([]*models.Post, int64, error) {
	if s.listFn == nil {
		return nil, 0, nil
	}
	return s.listFn(ctx, filter, viewerID)
}
func (s *postRepoStub) Count(ctx context.Context) (int64, error) {
	if s.countFn == nil {
		return 0, nil
	}
	return s.countFn(ctx)
}
func (s *postRepoStub) Recent(ctx context.Context, n int) ([]models.PostSummary, error) {
	if s.recentFn == nil {
		return nil, nil
	}
	return s.recentFn(ctx, n)
}

// likeRepoStub is a stub for repository.LikeRepository.
type likeRepoStub struct {
	createFn         func(context.Context, *models.Like) error
	deleteByTargetFn func(context.Context, uint, models.LikeTarget) error
	countFn          func(context.Context, models.LikeTarget) (int64, error)
}

func (s *likeRepoStub) Create(ctx context.Context, like *models.Like) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, like)
}
func (s *likeRepoStub) DeleteByTarget(ctx context.Context, userID uint, target models.LikeTarget) error {
	if s.deleteByTargetFn == nil {
		return nil
	}
	return s.deleteByTargetFn(ctx, userID, target)
}
func (s *likeRepoStub) CountForTarget(ctx context.Context, target models.LikeTarget) (int64, error) {
	if s.countFn == nil {
		return 0, nil
	}
	return s.countFn(ctx, target)
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn        func(context.Context, *models.Comment) error
	getByIDFn       func(context.Context, uint) (*models.Comment, error)
	existsFn        func(context.Context, uint) (bool, error)
	updateContentFn func(context.Context, uint, *uint, string) (*models.Comment, error)
	listByPostFn    func(context.Context, uint, int, int, uint) ([]*models.Comment, int64, error)
	listAllFn       func(context.Context) ([]*models.Comment, error)
	countFn         func(context.Context) (int64, error)
	recentFn        func(context.Context, int) ([]models.CommentSummary, error)
}

func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, c)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	if s.getByIDFn == nil {
		return nil, models.NewNotFoundError("Comment", id)
	}
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) Exists(ctx context.Context, id uint) (bool, error) {
	if s.existsFn == nil {
		return false, nil
	}
	return s.existsFn(ctx, id)
}
func (s *commentRepoStub) UpdateContent(ctx context.Context, id uint, ownerID *uint, content string) (*models.Comment, error) {
	if s.updateContentFn == nil {
		return nil, models.NewNotFoundError("Comment", id)
	}
	return s.updateContentFn(ctx, id, ownerID, content)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint, offset, limit int, viewerID uint) ([]*models.Comment, int64, error) {
	if s.listByPostFn == nil {
		return nil, 0, nil
	}
	return s.listByPostFn(ctx, postID, offset, limit, viewerID)
}
func (s *commentRepoStub) ListAll(ctx context.Context) ([]*models.Comment, error) {
	if s.listAllFn == nil {
		return nil, nil
	}
	return s.listAllFn(ctx)
}
func (s *commentRepoStub) Count(ctx context.Context) (int64, error) {
	if s.countFn == nil {
		return 0, nil
	}
	return s.countFn(ctx)
}
func (s *commentRepoStub) Recent(ctx context.Context, n int) ([]models.CommentSummary, error) {
	if s.recentFn == nil {
		return nil, nil
	}
	return s.recentFn(ctx, n)
}

// assertCode asserts that err is an AppError carrying code.
func assertCode(t *testing.T, err error, code string) *models.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn    func(context.Context, uint) (*models.User, error)
	getByEmailFn func(context.Context, string) (*models.User, error)
	createFn     func(context.Context, *models.User) error
	countFn      func(context.Context) (int64, error)
	recentFn     func(context.Context, int) ([]models.UserSummary, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	if s.getByIDFn == nil {
		return nil, models.NewNotFoundError("User", id)
	}
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.getByEmailFn == nil {
		return nil, models.NewNotFoundError("User", email)
	}
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) Create(ctx context.Context, u *models.User) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, u)
}
func (s *userRepoStub) Count(ctx context.Context) (int64, error) {
	if s.countFn == nil {
		return 0, nil
	}
	return s.countFn(ctx)
}
func (s *userRepoStub) Recent(ctx context.Context, n int) ([]models.UserSummary, error) {
	if s.recentFn == nil {
		return nil, nil
	}
	return s.recentFn(ctx, n)
}
