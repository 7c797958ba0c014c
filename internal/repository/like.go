package repository

import (
	"context"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"gorm.io/gorm"
)

// LikeRepository persists the like/unlike transitions. Both transitions
// are single conditional writes guarded by the unique indexes.
type LikeRepository interface {
	Create(ctx context.Context, like *models.Like) error
	DeleteByTarget(ctx context.Context, userID uint, target models.LikeTarget) error
	CountForTarget(ctx context.Context, target models.LikeTarget) (int64, error)
}

type likeRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewLikeRepository creates a new like repository
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db, log: observability.NewRepoLogger("likes")}
}

// Create inserts like. A second like by the same user on the same target
// loses on the unique index and comes back as Conflict; a target removed
// since the caller checked it comes back as NotFound.
func (r *likeRepository) Create(ctx context.Context, like *models.Like) error {
	defer observability.TrackQuery("create", "likes")()

	target := like.Target()
	err := r.db.WithContext(ctx).Omit("Post", "Comment").Create(like).Error
	switch {
	case err == nil:
		r.log.LogCreate(ctx, map[string]interface{}{"user_id": like.UserID, "target": target.String()})
		return nil
	case isUniqueConstraintError(err):
		return models.NewConflictError("target", "Already liked")
	case isForeignKeyError(err):
		return notFoundTarget(target)
	default:
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
}

// DeleteByTarget removes the user's like on target, or reports NotFound
// when there is none.
func (r *likeRepository) DeleteByTarget(ctx context.Context, userID uint, target models.LikeTarget) error {
	defer observability.TrackQuery("delete", "likes")()

	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where(targetColumn(target)+" = ?", target.ID).
		Delete(&models.Like{})
	if result.Error != nil {
		r.log.LogError(ctx, result.Error, "delete")
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Like", target.String())
	}
	r.log.LogDelete(ctx, map[string]interface{}{"user_id": userID, "target": target.String()})
	return nil
}

func (r *likeRepository) CountForTarget(ctx context.Context, target models.LikeTarget) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where(targetColumn(target)+" = ?", target.ID).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func targetColumn(target models.LikeTarget) string {
	if target.Kind == models.TargetComment {
		return "comment_id"
	}
	return "post_id"
}

func notFoundTarget(target models.LikeTarget) error {
	if target.Kind == models.TargetComment {
		return models.NewNotFoundError("Comment", target.ID)
	}
	return models.NewNotFoundError("Post", target.ID)
}
