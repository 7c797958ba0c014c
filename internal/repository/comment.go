package repository

import (
	"context"
	"errors"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"gorm.io/gorm"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	Exists(ctx context.Context, id uint) (bool, error)
	UpdateContent(ctx context.Context, id uint, ownerID *uint, content string) (*models.Comment, error)
	ListByPost(ctx context.Context, postID uint, offset, limit int, viewerID uint) ([]*models.Comment, int64, error)
	ListAll(ctx context.Context) ([]*models.Comment, error)
	Count(ctx context.Context) (int64, error)
	Recent(ctx context.Context, n int) ([]models.CommentSummary, error)
}

type commentRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db, log: observability.NewRepoLogger("comments")}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	defer observability.TrackQuery("create", "comments")()

	if err := r.db.WithContext(ctx).Omit("Post", "User").Create(comment).Error; err != nil {
		if isForeignKeyError(err) {
			return models.NewNotFoundError("Post", comment.PostID)
		}
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]interface{}{"id": comment.ID, "post_id": comment.PostID})
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &comment, nil
}

func (r *commentRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// UpdateContent rewrites a comment's content. A non-nil ownerID joins the
// ownership predicate to the write, so a non-owner sees NotFound.
func (r *commentRepository) UpdateContent(ctx context.Context, id uint, ownerID *uint, content string) (*models.Comment, error) {
	defer observability.TrackQuery("update", "comments")()

	q := r.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", id)
	if ownerID != nil {
		q = q.Where("user_id = ?", *ownerID)
	}
	result := q.Update("content", content)
	if result.Error != nil {
		r.log.LogError(ctx, result.Error, "update")
		return nil, models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, models.NewNotFoundError("Comment", id)
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"id": id})
	return r.GetByID(ctx, id)
}

// ListByPost returns one page of a post's comments, newest first, with
// derived like fields and the author's public projection.
func (r *commentRepository) ListByPost(ctx context.Context, postID uint, offset, limit int, viewerID uint) ([]*models.Comment, int64, error) {
	defer observability.TrackQuery("list_by_post", "comments")()

	var total int64
	err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("post_id = ?", postID).
		Count(&total).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var comments []*models.Comment
	err = withCommentAggregates(r.db.WithContext(ctx), viewerID).
		Preload("User", publicUser).
		Where("comments.post_id = ?", postID).
		Order("comments.created_at DESC").
		Order("comments.id DESC").
		Offset(offset).
		Limit(limit).
		Find(&comments).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return comments, total, nil
}

// ListAll is the admin listing: every comment, most recently updated
// first, with author and post title.
func (r *commentRepository) ListAll(ctx context.Context) ([]*models.Comment, error) {
	defer observability.TrackQuery("list_all", "comments")()

	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Select("comments.*, COALESCE(posts.title, '') AS post_title, " +
			"(SELECT COUNT(*) FROM likes WHERE likes.comment_id = comments.id) AS likes_count").
		Joins("LEFT JOIN posts ON posts.id = comments.post_id").
		Preload("User", publicUser).
		Order("comments.updated_at DESC").
		Order("comments.id DESC").
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

func (r *commentRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Comment{}).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *commentRepository) Recent(ctx context.Context, n int) ([]models.CommentSummary, error) {
	var out []models.CommentSummary
	err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Select("comments.id, comments.content, users.username, posts.title AS post_title, comments.created_at").
		Joins("JOIN users ON users.id = comments.user_id").
		Joins("JOIN posts ON posts.id = comments.post_id").
		Order("comments.created_at DESC").
		Order("comments.id DESC").
		Limit(n).
		Scan(&out).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}
