package service

import (
	"context"
	"fmt"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/slug"
	"inkwell/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// maxSlugAttempts bounds the suffix search. Every attempt embeds a fresh
// timestamp, so hitting it means the existence check itself is broken.
const maxSlugAttempts = 32

// SlugLookup is the part of the post store the allocator reads.
type SlugLookup interface {
	SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error)
}

// SlugAllocator derives unique post slugs from titles.
type SlugAllocator struct {
	posts SlugLookup
	now   func() time.Time
}

// NewSlugAllocator builds an allocator reading from posts.
func NewSlugAllocator(posts SlugLookup) *SlugAllocator {
	return &SlugAllocator{posts: posts, now: time.Now}
}

// Allocate returns the normalized title if no other post holds it, or the
// first free "<base>-<unixMillis>-<n>" candidate. excludeID is the post
// being renamed, or 0 on create.
func (a *SlugAllocator) Allocate(ctx context.Context, title string, excludeID uint) (string, error) {
	return a.allocate(ctx, title, excludeID, false)
}

// Reallocate skips the bare base and goes straight to a suffixed
// candidate. It is used after an insert lost the race for a slug.
func (a *SlugAllocator) Reallocate(ctx context.Context, title string, excludeID uint) (string, error) {
	return a.allocate(ctx, title, excludeID, true)
}

func (a *SlugAllocator) allocate(ctx context.Context, title string, excludeID uint, suffixed bool) (string, error) {
	span, ctx := observability.NewSpan(ctx, "slug.allocate",
		attribute.Int("post.exclude_id", int(excludeID)),
		attribute.Bool("slug.suffixed", suffixed),
	)
	defer span.End()

	base := slug.Make(title)
	if base == "" {
		err := models.NewValidationError("title", "Title must contain at least one letter or digit")
		span.SetError(err)
		return "", err
	}

	candidate := base
	for n := 0; n < maxSlugAttempts; n++ {
		if n > 0 || suffixed {
			candidate = fmt.Sprintf("%s-%d-%d", base, a.now().UnixMilli(), n)
		}
		if validation.IsReservedPostSlug(candidate) {
			continue
		}
		taken, err := a.posts.SlugExists(ctx, candidate, excludeID)
		if err != nil {
			span.SetError(err)
			return "", err
		}
		if !taken {
			span.AddAttributes(attribute.String("slug", candidate), attribute.Int("slug.attempts", n+1))
			return candidate, nil
		}
		observability.SlugCollisions.WithLabelValues("check").Inc()
	}

	err := models.NewConflictError("slug", "Could not allocate a unique slug")
	span.SetError(err)
	return "", err
}
