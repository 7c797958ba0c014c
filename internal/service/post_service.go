package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"inkwell/internal/blob"
	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
)

const (
	maxTitleLen   = 300
	maxContentLen = 200000
)

// PostService owns post writes and the post-facing reads of the
// aggregation engine.
type PostService struct {
	posts     repository.PostRepository
	blobs     blob.Store
	slugs     *SlugAllocator
	cache     *cache.Cache
	sanitizer *Sanitizer
	pages     PageDefaults
	cacheTTL  time.Duration
}

// CreatePostInput is an admin's new post.
type CreatePostInput struct {
	Title      string
	Content    string
	Tags       []string
	TimeToRead *int
	Image      *blob.Upload
}

// UpdatePostInput is a partial update; nil fields are left unchanged.
type UpdatePostInput struct {
	Title      *string
	Content    *string
	Tags       *[]string
	TimeToRead *int
}

// ListPostsInput selects the all-posts listing. All disables paging.
type ListPostsInput struct {
	PageRequest
	All      bool
	ViewerID uint
}

// SearchPostsInput selects the search listing. Dates are RFC 3339 or
// YYYY-MM-DD; an end date without a time covers that whole day.
type SearchPostsInput struct {
	PageRequest
	Query     string
	StartDate string
	EndDate   string
	ViewerID  uint
}

// NewPostService wires a post service. c may wrap a nil redis client.
func NewPostService(
	posts repository.PostRepository,
	blobs blob.Store,
	slugs *SlugAllocator,
	c *cache.Cache,
	sanitizer *Sanitizer,
	pages PageDefaults,
	cacheTTL time.Duration,
) *PostService {
	return &PostService{
		posts:     posts,
		blobs:     blobs,
		slugs:     slugs,
		cache:     c,
		sanitizer: sanitizer,
		pages:     pages,
		cacheTTL:  cacheTTL,
	}
}

// CreatePost validates in, uploads the image, allocates a slug and stores
// the post. The uploaded image is released again if the insert fails.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	span, ctx := observability.NewSpan(ctx, "post.create")
	defer span.End()

	title := strings.TrimSpace(in.Title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	content, err := s.cleanContent(in.Content)
	if err != nil {
		return nil, err
	}
	if err := validateTimeToRead(in.TimeToRead); err != nil {
		return nil, err
	}
	if in.Image == nil || len(in.Image.Content) == 0 {
		return nil, models.NewValidationError("image", "Featured image is required")
	}

	taken, err := s.posts.TitleExists(ctx, title, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.NewConflictError("title", "A post with this title already exists")
	}

	slugValue, err := s.slugs.Allocate(ctx, title, 0)
	if err != nil {
		return nil, err
	}

	imageURL, err := s.upload(ctx, *in.Image)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	post := &models.Post{
		Title:         title,
		Slug:          slugValue,
		FeaturedImage: imageURL,
		Tags:          datatypes.JSONSlice[string](NormalizeTags(in.Tags)),
		TimeToRead:    in.TimeToRead,
		Content:       content,
	}

	err = s.posts.Create(ctx, post)
	if errors.Is(err, repository.ErrSlugTaken) {
		if post.Slug, err = s.slugs.Reallocate(ctx, title, 0); err == nil {
			err = s.posts.Create(ctx, post)
		}
	}
	if err != nil {
		span.SetError(err)
		s.releaseBlob(ctx, imageURL, 0)
		return nil, err
	}

	span.AddAttributes(attribute.Int("post.id", int(post.ID)), attribute.String("post.slug", post.Slug))
	s.cache.Invalidate(ctx, cache.DashboardKey)
	return post, nil
}

// UpdatePost applies in to post id. A changed title is re-checked for
// uniqueness and re-slugged; an unchanged title keeps the slug.
func (s *PostService) UpdatePost(ctx context.Context, id uint, in UpdatePostInput) (*models.Post, error) {
	span, ctx := observability.NewSpan(ctx, "post.update", attribute.Int("post.id", int(id)))
	defer span.End()

	post, err := s.posts.GetByID(ctx, id, 0)
	if err != nil {
		return nil, err
	}
	oldSlug := post.Slug
	titleChanged := false

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if err := validateTitle(title); err != nil {
			return nil, err
		}
		if title != post.Title {
			taken, err := s.posts.TitleExists(ctx, title, id)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, models.NewConflictError("title", "A post with this title already exists")
			}
			if post.Slug, err = s.slugs.Allocate(ctx, title, id); err != nil {
				return nil, err
			}
			post.Title = title
			titleChanged = true
		}
	}
	if in.Content != nil {
		content, err := s.cleanContent(*in.Content)
		if err != nil {
			return nil, err
		}
		post.Content = content
	}
	if in.Tags != nil {
		post.Tags = datatypes.JSONSlice[string](NormalizeTags(*in.Tags))
	}
	if in.TimeToRead != nil {
		if err := validateTimeToRead(in.TimeToRead); err != nil {
			return nil, err
		}
		post.TimeToRead = in.TimeToRead
	}

	err = s.posts.Update(ctx, post)
	if errors.Is(err, repository.ErrSlugTaken) && titleChanged {
		if post.Slug, err = s.slugs.Reallocate(ctx, post.Title, id); err == nil {
			err = s.posts.Update(ctx, post)
		}
	}
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	s.cache.Invalidate(ctx, cache.PostSlugKey(oldSlug), cache.PostSlugKey(post.Slug), cache.DashboardKey)
	return s.posts.GetByID(ctx, id, 0)
}

// UpdatePostImage replaces the featured image and releases the old blob.
func (s *PostService) UpdatePostImage(ctx context.Context, id uint, image blob.Upload) (*models.Post, error) {
	span, ctx := observability.NewSpan(ctx, "post.update_image", attribute.Int("post.id", int(id)))
	defer span.End()

	post, err := s.posts.GetByID(ctx, id, 0)
	if err != nil {
		return nil, err
	}
	if len(image.Content) == 0 {
		return nil, models.NewValidationError("image", "Featured image is required")
	}

	imageURL, err := s.upload(ctx, image)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	if err := s.posts.UpdateImage(ctx, id, imageURL); err != nil {
		s.releaseBlob(ctx, imageURL, id)
		return nil, err
	}

	s.releaseBlob(ctx, post.FeaturedImage, id)
	s.cache.Invalidate(ctx, cache.PostSlugKey(post.Slug))
	post.FeaturedImage = imageURL
	return post, nil
}

// GetPost is the single-post read. The viewer-independent part is served
// from cache; the viewer's like flag is always read fresh.
func (s *PostService) GetPost(ctx context.Context, slug string, viewerID uint) (*models.Post, error) {
	span, ctx := observability.NewSpan(ctx, "post.get", attribute.String("post.slug", slug))
	defer span.End()

	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, models.NewValidationError("slug", "slug is required")
	}

	var post models.Post
	err := s.cache.Aside(ctx, cache.PostSlugKey(slug), &post, s.cacheTTL, func() error {
		p, err := s.posts.GetBySlug(ctx, slug, 0)
		if err != nil {
			return err
		}
		post = *p
		return nil
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	post.IsLiked = false
	if viewerID != 0 {
		liked, err := s.posts.IsLiked(ctx, viewerID, post.ID)
		if err != nil {
			return nil, err
		}
		post.IsLiked = liked
	}
	return &post, nil
}

// ListPosts is the all-posts listing, newest first.
func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) (models.Page[*models.Post], error) {
	span, ctx := observability.NewSpan(ctx, "post.list", attribute.Bool("list.all", in.All))
	defer span.End()

	if in.All {
		posts, total, err := s.posts.List(ctx, repository.PostFilter{}, in.ViewerID)
		if err != nil {
			return models.Page[*models.Post]{}, err
		}
		return models.NewPage(posts, 0, 0, total), nil
	}

	page, limit, offset, err := in.resolve(s.pages.Posts, s.pages.Max)
	if err != nil {
		return models.Page[*models.Post]{}, err
	}
	posts, total, err := s.posts.List(ctx, repository.PostFilter{Paginate: true, Offset: offset, Limit: limit}, in.ViewerID)
	if err != nil {
		span.SetError(err)
		return models.Page[*models.Post]{}, err
	}
	return models.NewPage(posts, page, limit, total), nil
}

// SearchPosts filters by a case-insensitive term over title, slug and tags
// and by an optional creation date range, then pages the result.
func (s *PostService) SearchPosts(ctx context.Context, in SearchPostsInput) (models.Page[*models.Post], error) {
	span, ctx := observability.NewSpan(ctx, "post.search", attribute.String("search.query", in.Query))
	defer span.End()

	page, limit, offset, err := in.resolve(s.pages.Search, s.pages.Max)
	if err != nil {
		return models.Page[*models.Post]{}, err
	}
	from, err := parseDateBound("startDate", in.StartDate, false)
	if err != nil {
		return models.Page[*models.Post]{}, err
	}
	to, err := parseDateBound("endDate", in.EndDate, true)
	if err != nil {
		return models.Page[*models.Post]{}, err
	}

	filter := repository.PostFilter{
		Search:   in.Query,
		From:     from,
		To:       to,
		Offset:   offset,
		Limit:    limit,
		Paginate: true,
	}
	posts, total, err := s.posts.List(ctx, filter, in.ViewerID)
	if err != nil {
		span.SetError(err)
		return models.Page[*models.Post]{}, err
	}
	return models.NewPage(posts, page, limit, total), nil
}

func (s *PostService) cleanContent(raw string) (string, error) {
	if len(raw) > maxContentLen {
		return "", models.NewValidationError("content", "Content too long")
	}
	content := s.sanitizer.Post(raw)
	if content == "" {
		return "", models.NewValidationError("content", "Content is required")
	}
	return content, nil
}

func (s *PostService) upload(ctx context.Context, in blob.Upload) (string, error) {
	imageURL, err := s.blobs.Upload(ctx, in)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return "", err
		}
		return "", models.NewDependencyError("blob store", err)
	}
	return imageURL, nil
}

// releaseBlob deletes the blob behind imageURL. Failures are logged and
// counted but never returned.
func (s *PostService) releaseBlob(ctx context.Context, imageURL string, postID uint) {
	releaseBlob(ctx, s.blobs, imageURL, postID)
}

func releaseBlob(ctx context.Context, store blob.Store, imageURL string, postID uint) {
	ref := blob.RefFromURL(imageURL)
	if ref == "" {
		return
	}
	if err := store.Delete(ctx, ref); err != nil {
		observability.BlobReleaseFailures.Inc()
		slog.WarnContext(ctx, "blob release failed",
			slog.String("blob_ref", ref),
			slog.Uint64("post_id", uint64(postID)),
			slog.String("error", err.Error()),
		)
	}
}

func validateTitle(title string) error {
	if title == "" {
		return models.NewValidationError("title", "Title is required")
	}
	if len(title) > maxTitleLen {
		return models.NewValidationError("title", "Title too long (max 300 characters)")
	}
	return nil
}

func validateTimeToRead(v *int) error {
	if v != nil && *v <= 0 {
		return models.NewValidationError("timeToRead", "timeToRead must be a positive number of minutes")
	}
	return nil
}

// NormalizeTags trims every tag and drops empty ones, keeping order. A
// single element holding commas is split on them.
func NormalizeTags(tags []string) []string {
	if len(tags) == 1 && strings.Contains(tags[0], ",") {
		tags = strings.Split(tags[0], ",")
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func parseDateBound(field, raw string, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, models.NewValidationError(field, field+" must be YYYY-MM-DD or RFC 3339")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
