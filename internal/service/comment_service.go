package service

import (
	"context"

	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const maxCommentLen = 5000

// CommentService handles comment writes and the per-post comment listing.
// Deletion lives on CascadeService because it removes likes first.
type CommentService struct {
	comments  repository.CommentRepository
	posts     repository.PostRepository
	cache     *cache.Cache
	sanitizer *Sanitizer
	pages     PageDefaults
}

// ListCommentsInput selects one page of a post's comments.
type ListCommentsInput struct {
	PageRequest
	PostID   uint
	ViewerID uint
}

// NewCommentService wires the comment service.
func NewCommentService(comments repository.CommentRepository, posts repository.PostRepository, c *cache.Cache, sanitizer *Sanitizer, pages PageDefaults) *CommentService {
	return &CommentService{comments: comments, posts: posts, cache: c, sanitizer: sanitizer, pages: pages}
}

// CreateComment attaches a comment by userID to postID.
func (s *CommentService) CreateComment(ctx context.Context, postID, userID uint, content string) (*models.Comment, error) {
	span, ctx := observability.NewSpan(ctx, "comment.create", attribute.Int("post.id", int(postID)))
	defer span.End()

	if userID == 0 {
		return nil, models.NewUnauthorizedError("authentication required")
	}
	text, err := s.cleanContent(content)
	if err != nil {
		return nil, err
	}

	post, err := s.posts.GetByID(ctx, postID, 0)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{PostID: postID, UserID: userID, Content: text}
	if err := s.comments.Create(ctx, comment); err != nil {
		span.SetError(err)
		return nil, err
	}
	s.cache.Invalidate(ctx, cache.PostSlugKey(post.Slug), cache.DashboardKey)
	return comment, nil
}

// UpdateComment rewrites the requester's own comment. Someone else's
// comment is reported as NotFound.
func (s *CommentService) UpdateComment(ctx context.Context, commentID, requesterID uint, content string) (*models.Comment, error) {
	span, ctx := observability.NewSpan(ctx, "comment.update", attribute.Int("comment.id", int(commentID)))
	defer span.End()

	text, err := s.cleanContent(content)
	if err != nil {
		return nil, err
	}
	comment, err := s.comments.UpdateContent(ctx, commentID, &requesterID, text)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	return comment, nil
}

// ListComments pages a post's comments newest first. An unknown post is
// NotFound rather than an empty page.
func (s *CommentService) ListComments(ctx context.Context, in ListCommentsInput) (models.Page[*models.Comment], error) {
	span, ctx := observability.NewSpan(ctx, "comment.list", attribute.Int("post.id", int(in.PostID)))
	defer span.End()

	page, limit, offset, err := in.resolve(s.pages.Comments, s.pages.Max)
	if err != nil {
		return models.Page[*models.Comment]{}, err
	}
	exists, err := s.posts.Exists(ctx, in.PostID)
	if err != nil {
		return models.Page[*models.Comment]{}, err
	}
	if !exists {
		return models.Page[*models.Comment]{}, models.NewNotFoundError("Post", in.PostID)
	}

	comments, total, err := s.comments.ListByPost(ctx, in.PostID, offset, limit, in.ViewerID)
	if err != nil {
		span.SetError(err)
		return models.Page[*models.Comment]{}, err
	}
	return models.NewPage(comments, page, limit, total), nil
}

// ListAllComments is the unpaged admin listing.
func (s *CommentService) ListAllComments(ctx context.Context) (models.Page[*models.Comment], error) {
	comments, err := s.comments.ListAll(ctx)
	if err != nil {
		return models.Page[*models.Comment]{}, err
	}
	return models.NewPage(comments, 0, 0, int64(len(comments))), nil
}

func (s *CommentService) cleanContent(raw string) (string, error) {
	if len(raw) > maxCommentLen {
		return "", models.NewValidationError("content", "Comment too long")
	}
	text := s.sanitizer.Comment(raw)
	if text == "" {
		return "", models.NewValidationError("content", "Comment content is required")
	}
	return text, nil
}
