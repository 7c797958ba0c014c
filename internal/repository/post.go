package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"gorm.io/gorm"
)

// ErrSlugTaken is wrapped by the Conflict returned when a write loses the
// race on the posts.slug unique index.
var ErrSlugTaken = errors.New("slug already taken")

// PostFilter narrows a post listing. Zero values disable each filter.
type PostFilter struct {
	Search   string
	From     *time.Time
	To       *time.Time
	Offset   int
	Limit    int
	Paginate bool
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint, viewerID uint) (*models.Post, error)
	GetBySlug(ctx context.Context, slug string, viewerID uint) (*models.Post, error)
	IsLiked(ctx context.Context, userID, postID uint) (bool, error)
	Exists(ctx context.Context, id uint) (bool, error)
	SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error)
	TitleExists(ctx context.Context, title string, excludeID uint) (bool, error)
	Update(ctx context.Context, post *models.Post) error
	UpdateImage(ctx context.Context, id uint, imageURL string) error
	List(ctx context.Context, filter PostFilter, viewerID uint) ([]*models.Post, int64, error)
	Count(ctx context.Context) (int64, error)
	Recent(ctx context.Context, n int) ([]models.PostSummary, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, log: observability.NewRepoLogger("posts")}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("create", "posts")()

	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		if mapped := postWriteError(err); mapped != nil {
			return mapped
		}
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]interface{}{"id": post.ID, "slug": post.Slug})
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint, viewerID uint) (*models.Post, error) {
	defer observability.TrackQuery("get_by_id", "posts")()

	var post models.Post
	err := withPostAggregates(r.db.WithContext(ctx), viewerID).
		Where("posts.id = ?", id).
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

func (r *postRepository) GetBySlug(ctx context.Context, slug string, viewerID uint) (*models.Post, error) {
	defer observability.TrackQuery("get_by_slug", "posts")()

	var post models.Post
	err := withPostAggregates(r.db.WithContext(ctx), viewerID).
		Where("posts.slug = ?", slug).
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", slug)
		}
		return nil, models.NewInternalError(err)
	}
	r.log.LogRead(ctx, map[string]interface{}{"slug": slug, "id": post.ID})
	return &post, nil
}

func (r *postRepository) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *postRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *postRepository) SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error) {
	return r.exists(ctx, "slug", slug, excludeID)
}

func (r *postRepository) TitleExists(ctx context.Context, title string, excludeID uint) (bool, error) {
	return r.exists(ctx, "title", title, excludeID)
}

func (r *postRepository) exists(ctx context.Context, column, value string, excludeID uint) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.Post{}).Where(column+" = ?", value)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// Update writes the editable columns of post. The image is changed only
// through UpdateImage.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("update", "posts")()

	result := r.db.WithContext(ctx).Model(&models.Post{ID: post.ID}).
		Select("title", "slug", "tags", "time_to_read", "content", "updated_at").
		Updates(post)
	if result.Error != nil {
		if mapped := postWriteError(result.Error); mapped != nil {
			return mapped
		}
		r.log.LogError(ctx, result.Error, "update")
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Post", post.ID)
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"id": post.ID, "slug": post.Slug})
	return nil
}

func (r *postRepository) UpdateImage(ctx context.Context, id uint, imageURL string) error {
	result := r.db.WithContext(ctx).Model(&models.Post{ID: id}).
		Update("featured_image", imageURL)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"id": id, "featured_image": imageURL})
	return nil
}

// List returns posts ordered by (created_at desc, id desc) with the derived
// fields filled, plus the total number of rows matching filter.
func (r *postRepository) List(ctx context.Context, filter PostFilter, viewerID uint) ([]*models.Post, int64, error) {
	defer observability.TrackQuery("list", "posts")()

	base := r.applyFilter(r.db.WithContext(ctx).Model(&models.Post{}), filter)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	q := withPostAggregates(base.Session(&gorm.Session{}), viewerID).
		Order("posts.created_at DESC").
		Order("posts.id DESC")
	if filter.Paginate {
		q = q.Offset(filter.Offset).Limit(filter.Limit)
	}

	var posts []*models.Post
	if err := q.Find(&posts).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return posts, total, nil
}

func (r *postRepository) applyFilter(q *gorm.DB, filter PostFilter) *gorm.DB {
	if term := strings.TrimSpace(filter.Search); term != "" {
		pattern := containsPattern(term)
		clause := fmt.Sprintf(
			"(LOWER(posts.title) LIKE ? ESCAPE '%[1]s' OR LOWER(posts.slug) LIKE ? ESCAPE '%[1]s' OR %[2]s)",
			likeEscape, tagMatch(q, "posts.tags"),
		)
		q = q.Where(clause, pattern, pattern, pattern)
	}
	if filter.From != nil {
		q = q.Where("posts.created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("posts.created_at <= ?", *filter.To)
	}
	return q
}

func (r *postRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *postRepository) Recent(ctx context.Context, n int) ([]models.PostSummary, error) {
	var out []models.PostSummary
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Select("id", "title", "slug", "created_at").
		Order("created_at DESC").
		Order("id DESC").
		Limit(n).
		Scan(&out).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

// postWriteError maps unique violations on posts to Conflicts and returns
// nil for anything else.
func postWriteError(err error) error {
	switch {
	case uniqueViolationOn(err, "posts", "slug"):
		observability.SlugCollisions.WithLabelValues("insert").Inc()
		return &models.AppError{
			Code:    models.CodeConflict,
			Message: "A post with this slug already exists",
			Field:   "slug",
			Err:     ErrSlugTaken,
		}
	case uniqueViolationOn(err, "posts", "title"):
		return models.NewConflictError("title", "A post with this title already exists")
	case isUniqueConstraintError(err):
		return models.NewConflictError("", "Post violates a uniqueness constraint")
	}
	return nil
}
