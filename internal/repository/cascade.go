package repository

import (
	"context"
	"errors"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"gorm.io/gorm"
)

// likeDeleteChunk bounds the IN list of a single likes delete.
const likeDeleteChunk = 500

// SweepResult counts rows removed by SweepOrphans.
type SweepResult struct {
	Likes    int64 `json:"likes"`
	Comments int64 `json:"comments"`
}

// CascadeRepository exposes the individual delete steps of the post and
// comment cascades. The caller owns the ordering; InTx only upgrades the
// ordered steps to a single transaction.
type CascadeRepository interface {
	InTx(ctx context.Context, fn func(tx CascadeRepository) error) error
	CommentIDsForPost(ctx context.Context, postID uint) ([]uint, error)
	DeleteLikesForPost(ctx context.Context, postID uint, commentIDs []uint) (int64, error)
	DeleteCommentsForPost(ctx context.Context, postID uint) (int64, error)
	DeletePost(ctx context.Context, postID uint) (int64, error)
	FindComment(ctx context.Context, commentID uint, ownerID *uint) (*models.Comment, error)
	DeleteLikesForComment(ctx context.Context, commentID uint) (int64, error)
	DeleteComment(ctx context.Context, commentID uint) (int64, error)
	SweepOrphans(ctx context.Context) (SweepResult, error)
}

type cascadeRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewCascadeRepository creates a new cascade repository
func NewCascadeRepository(db *gorm.DB) CascadeRepository {
	return &cascadeRepository{db: db, log: observability.NewRepoLogger("cascade")}
}

func (r *cascadeRepository) InTx(ctx context.Context, fn func(tx CascadeRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&cascadeRepository{db: tx, log: r.log})
	})
}

func (r *cascadeRepository) CommentIDsForPost(ctx context.Context, postID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("post_id = ?", postID).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

// DeleteLikesForPost removes likes on the post and likes on any of
// commentIDs. The comment ids are deleted in chunks.
func (r *cascadeRepository) DeleteLikesForPost(ctx context.Context, postID uint, commentIDs []uint) (int64, error) {
	defer observability.TrackQuery("cascade_delete", "likes")()

	db := r.db.WithContext(ctx)
	result := db.Where("post_id = ?", postID).Delete(&models.Like{})
	if result.Error != nil {
		return 0, models.NewInternalError(result.Error)
	}
	deleted := result.RowsAffected

	for start := 0; start < len(commentIDs); start += likeDeleteChunk {
		end := min(start+likeDeleteChunk, len(commentIDs))
		result = db.Where("comment_id IN ?", commentIDs[start:end]).Delete(&models.Like{})
		if result.Error != nil {
			return deleted, models.NewInternalError(result.Error)
		}
		deleted += result.RowsAffected
	}
	r.log.LogDelete(ctx, map[string]interface{}{"post_id": postID, "likes": deleted})
	return deleted, nil
}

func (r *cascadeRepository) DeleteCommentsForPost(ctx context.Context, postID uint) (int64, error) {
	defer observability.TrackQuery("cascade_delete", "comments")()

	result := r.db.WithContext(ctx).Where("post_id = ?", postID).Delete(&models.Comment{})
	if result.Error != nil {
		return 0, models.NewInternalError(result.Error)
	}
	r.log.LogDelete(ctx, map[string]interface{}{"post_id": postID, "comments": result.RowsAffected})
	return result.RowsAffected, nil
}

func (r *cascadeRepository) DeletePost(ctx context.Context, postID uint) (int64, error) {
	defer observability.TrackQuery("cascade_delete", "posts")()

	result := r.db.WithContext(ctx).Delete(&models.Post{}, postID)
	if result.Error != nil {
		if isForeignKeyError(result.Error) {
			return 0, models.NewConflictError("post", "Post still has dependent rows")
		}
		return 0, models.NewInternalError(result.Error)
	}
	r.log.LogDelete(ctx, map[string]interface{}{"id": postID})
	return result.RowsAffected, nil
}

// FindComment loads a comment, restricted to ownerID when it is non-nil.
// Both a missing comment and a foreign one are NotFound.
func (r *cascadeRepository) FindComment(ctx context.Context, commentID uint, ownerID *uint) (*models.Comment, error) {
	q := r.db.WithContext(ctx).Where("id = ?", commentID)
	if ownerID != nil {
		q = q.Where("user_id = ?", *ownerID)
	}
	var comment models.Comment
	if err := q.First(&comment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", commentID)
		}
		return nil, models.NewInternalError(err)
	}
	return &comment, nil
}

func (r *cascadeRepository) DeleteLikesForComment(ctx context.Context, commentID uint) (int64, error) {
	result := r.db.WithContext(ctx).Where("comment_id = ?", commentID).Delete(&models.Like{})
	if result.Error != nil {
		return 0, models.NewInternalError(result.Error)
	}
	return result.RowsAffected, nil
}

func (r *cascadeRepository) DeleteComment(ctx context.Context, commentID uint) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.Comment{}, commentID)
	if result.Error != nil {
		return 0, models.NewInternalError(result.Error)
	}
	r.log.LogDelete(ctx, map[string]interface{}{"id": commentID})
	return result.RowsAffected, nil
}

// SweepOrphans removes likes whose target (or the target's post) is gone,
// then comments whose post is gone. Such rows only exist on stores without
// enforced foreign keys or after a cascade was interrupted.
func (r *cascadeRepository) SweepOrphans(ctx context.Context) (SweepResult, error) {
	defer observability.TrackQuery("sweep", "likes")()

	var res SweepResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		likes := tx.Where(
			"(post_id IS NOT NULL AND NOT EXISTS (SELECT 1 FROM posts WHERE posts.id = likes.post_id)) OR " +
				"(comment_id IS NOT NULL AND NOT EXISTS (SELECT 1 FROM comments JOIN posts ON posts.id = comments.post_id WHERE comments.id = likes.comment_id))",
		).Delete(&models.Like{})
		if likes.Error != nil {
			return likes.Error
		}
		res.Likes = likes.RowsAffected

		comments := tx.Where("NOT EXISTS (SELECT 1 FROM posts WHERE posts.id = comments.post_id)").
			Delete(&models.Comment{})
		if comments.Error != nil {
			return comments.Error
		}
		res.Comments = comments.RowsAffected
		return nil
	})
	if err != nil {
		r.log.LogError(ctx, err, "sweep")
		return SweepResult{}, models.NewInternalError(err)
	}
	r.log.LogDelete(ctx, map[string]interface{}{"sweep_likes": res.Likes, "sweep_comments": res.Comments})
	return res, nil
}
