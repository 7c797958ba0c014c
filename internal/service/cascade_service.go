package service

import (
	"context"
	"log/slog"

	"inkwell/internal/blob"
	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// CascadeService removes posts and comments together with everything
// that references them, children first.
type CascadeService struct {
	steps repository.CascadeRepository
	posts repository.PostRepository
	blobs blob.Store
	cache *cache.Cache
}

// DeletedPost reports what a post deletion removed.
type DeletedPost struct {
	Post            *models.Post `json:"post"`
	DeletedComments int64        `json:"deleted_comments"`
	DeletedLikes    int64        `json:"deleted_likes"`
}

// DeletedComment reports what a comment deletion removed.
type DeletedComment struct {
	Comment      *models.Comment `json:"comment"`
	DeletedLikes int64           `json:"deleted_likes"`
}

// NewCascadeService wires the cascade controller.
func NewCascadeService(steps repository.CascadeRepository, posts repository.PostRepository, blobs blob.Store, c *cache.Cache) *CascadeService {
	return &CascadeService{steps: steps, posts: posts, blobs: blobs, cache: c}
}

// DeletePost resolves the post's comment ids, then deletes likes on the
// post and on those comments, then the comments, then the post. The
// featured image is released afterwards on a best-effort basis.
func (s *CascadeService) DeletePost(ctx context.Context, postID uint) (*DeletedPost, error) {
	span, ctx := observability.NewSpan(ctx, "cascade.delete_post", attribute.Int("post.id", int(postID)))
	defer span.End()

	post, err := s.posts.GetByID(ctx, postID, 0)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	out := &DeletedPost{Post: post}
	err = s.steps.InTx(ctx, func(tx repository.CascadeRepository) error {
		commentIDs, err := tx.CommentIDsForPost(ctx, postID)
		if err != nil {
			return err
		}
		if out.DeletedLikes, err = tx.DeleteLikesForPost(ctx, postID, commentIDs); err != nil {
			return err
		}
		if out.DeletedComments, err = tx.DeleteCommentsForPost(ctx, postID); err != nil {
			return err
		}
		n, err := tx.DeletePost(ctx, postID)
		if err != nil {
			return err
		}
		if n == 0 {
			return models.NewNotFoundError("Post", postID)
		}
		return nil
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	observability.CascadeDeletedRows.WithLabelValues("likes").Add(float64(out.DeletedLikes))
	observability.CascadeDeletedRows.WithLabelValues("comments").Add(float64(out.DeletedComments))
	observability.CascadeDeletedRows.WithLabelValues("posts").Inc()
	span.AddAttributes(
		attribute.Int64("cascade.likes", out.DeletedLikes),
		attribute.Int64("cascade.comments", out.DeletedComments),
	)
	slog.InfoContext(ctx, "post deleted",
		slog.Uint64("post_id", uint64(postID)),
		slog.Int64("likes", out.DeletedLikes),
		slog.Int64("comments", out.DeletedComments),
	)

	s.cache.Invalidate(ctx, cache.PostSlugKey(post.Slug), cache.DashboardKey)
	releaseBlob(ctx, s.blobs, post.FeaturedImage, postID)
	return out, nil
}

// DeleteComment removes the requester's own comment. A comment that does
// not exist or belongs to someone else is NotFound.
func (s *CascadeService) DeleteComment(ctx context.Context, commentID, requesterID uint) (*DeletedComment, error) {
	return s.deleteComment(ctx, commentID, &requesterID)
}

// DeleteCommentAdmin removes any comment without the ownership check.
func (s *CascadeService) DeleteCommentAdmin(ctx context.Context, commentID uint) (*DeletedComment, error) {
	return s.deleteComment(ctx, commentID, nil)
}

func (s *CascadeService) deleteComment(ctx context.Context, commentID uint, ownerID *uint) (*DeletedComment, error) {
	span, ctx := observability.NewSpan(ctx, "cascade.delete_comment",
		attribute.Int("comment.id", int(commentID)),
		attribute.Bool("comment.admin", ownerID == nil),
	)
	defer span.End()

	out := &DeletedComment{}
	err := s.steps.InTx(ctx, func(tx repository.CascadeRepository) error {
		comment, err := tx.FindComment(ctx, commentID, ownerID)
		if err != nil {
			return err
		}
		out.Comment = comment
		if out.DeletedLikes, err = tx.DeleteLikesForComment(ctx, commentID); err != nil {
			return err
		}
		n, err := tx.DeleteComment(ctx, commentID)
		if err != nil {
			return err
		}
		if n == 0 {
			return models.NewNotFoundError("Comment", commentID)
		}
		return nil
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	observability.CascadeDeletedRows.WithLabelValues("likes").Add(float64(out.DeletedLikes))
	s.invalidatePostOf(ctx, out.Comment.PostID)
	return out, nil
}

// SweepOrphans removes likes and comments whose parents are gone.
func (s *CascadeService) SweepOrphans(ctx context.Context) (repository.SweepResult, error) {
	span, ctx := observability.NewSpan(ctx, "cascade.sweep")
	defer span.End()

	res, err := s.steps.SweepOrphans(ctx)
	if err != nil {
		span.SetError(err)
		return res, err
	}
	observability.CascadeDeletedRows.WithLabelValues("likes").Add(float64(res.Likes))
	observability.CascadeDeletedRows.WithLabelValues("comments").Add(float64(res.Comments))
	slog.InfoContext(ctx, "orphan sweep finished", slog.Int64("likes", res.Likes), slog.Int64("comments", res.Comments))
	if res.Likes > 0 || res.Comments > 0 {
		s.cache.Invalidate(ctx, cache.DashboardKey)
	}
	return res, nil
}

func (s *CascadeService) invalidatePostOf(ctx context.Context, postID uint) {
	if !s.cache.Enabled() {
		return
	}
	post, err := s.posts.GetByID(ctx, postID, 0)
	if err != nil {
		return
	}
	s.cache.Invalidate(ctx, cache.PostSlugKey(post.Slug), cache.DashboardKey)
}
