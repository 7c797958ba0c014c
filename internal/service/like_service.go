package service

import (
	"context"

	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// LikeState is the terminal state of a like or unlike call.
type LikeState struct {
	Target     models.TargetKind `json:"target"`
	TargetID   uint              `json:"target_id"`
	Liked      bool              `json:"liked"`
	LikesCount int64             `json:"likes_count"`
}

// LikeService runs the per (user, target) like state machine.
type LikeService struct {
	likes    repository.LikeRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
	cache    *cache.Cache
}

// NewLikeService wires the like state machine.
func NewLikeService(likes repository.LikeRepository, posts repository.PostRepository, comments repository.CommentRepository, c *cache.Cache) *LikeService {
	return &LikeService{likes: likes, posts: posts, comments: comments, cache: c}
}

// Like moves (userID, target) from NotLiked to Liked. It fails with
// NotFound if the target does not exist and Conflict if already liked.
func (s *LikeService) Like(ctx context.Context, userID uint, target models.LikeTarget) (*LikeState, error) {
	span, ctx := observability.NewSpan(ctx, "like.like",
		attribute.String("like.target", target.String()),
	)
	defer span.End()

	state, err := s.transition(ctx, "like", userID, target, true)
	if err != nil {
		span.SetError(err)
	}
	return state, err
}

// Unlike moves (userID, target) from Liked to NotLiked. It fails with
// NotFound if there is no like to remove.
func (s *LikeService) Unlike(ctx context.Context, userID uint, target models.LikeTarget) (*LikeState, error) {
	span, ctx := observability.NewSpan(ctx, "like.unlike",
		attribute.String("like.target", target.String()),
	)
	defer span.End()

	state, err := s.transition(ctx, "unlike", userID, target, false)
	if err != nil {
		span.SetError(err)
	}
	return state, err
}

func (s *LikeService) transition(ctx context.Context, action string, userID uint, target models.LikeTarget, like bool) (state *LikeState, err error) {
	defer func() {
		observability.LikeTransitions.WithLabelValues(action, string(target.Kind), outcomeOf(err)).Inc()
	}()

	if userID == 0 {
		return nil, models.NewUnauthorizedError("authentication required")
	}
	if err := target.Validate(); err != nil {
		return nil, err
	}

	postSlug, err := s.resolveTarget(ctx, target, like)
	if err != nil {
		return nil, err
	}

	if like {
		err = s.likes.Create(ctx, models.NewLike(userID, target))
	} else {
		err = s.likes.DeleteByTarget(ctx, userID, target)
	}
	if err != nil {
		return nil, err
	}

	if postSlug != "" {
		s.cache.Invalidate(ctx, cache.PostSlugKey(postSlug))
	}

	count, err := s.likes.CountForTarget(ctx, target)
	if err != nil {
		return nil, err
	}
	return &LikeState{Target: target.Kind, TargetID: target.ID, Liked: like, LikesCount: count}, nil
}

// resolveTarget checks that a like target exists and returns the slug of
// a post target so its cached read can be dropped. Unlike skips the
// existence check; a missing like is already NotFound.
func (s *LikeService) resolveTarget(ctx context.Context, target models.LikeTarget, mustExist bool) (string, error) {
	switch target.Kind {
	case models.TargetPost:
		post, err := s.posts.GetByID(ctx, target.ID, 0)
		if err != nil {
			if !mustExist && models.IsNotFound(err) {
				return "", nil
			}
			return "", err
		}
		return post.Slug, nil
	default:
		if !mustExist {
			return "", nil
		}
		ok, err := s.comments.Exists(ctx, target.ID)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", models.NewNotFoundError("Comment", target.ID)
		}
		return "", nil
	}
}

func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	switch models.ErrorCode(err) {
	case models.CodeConflict:
		return "conflict"
	case models.CodeNotFound:
		return "not_found"
	case models.CodeValidation, models.CodeUnauth:
		return "rejected"
	default:
		return "error"
	}
}
