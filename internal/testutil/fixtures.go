package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"inkwell/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var seq atomic.Uint64

func next() uint64 { return seq.Add(1) }

// CreateUser inserts a user with a unique username and email.
func CreateUser(t testing.TB, db *gorm.DB) *models.User {
	t.Helper()
	n := next()
	u := &models.User{
		Username: fmt.Sprintf("user%d", n),
		Email:    fmt.Sprintf("user%d@example.com", n),
		Avatar:   fmt.Sprintf("https://cdn.example.com/avatars/%d.png", n),
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// PostOption customizes CreatePost.
type PostOption func(*models.Post)

// WithTags sets the post's tags.
func WithTags(tags ...string) PostOption {
	return func(p *models.Post) { p.Tags = datatypes.JSONSlice[string](tags) }
}

// WithSlug overrides the generated slug.
func WithSlug(slug string) PostOption {
	return func(p *models.Post) { p.Slug = slug }
}

// WithCreatedAt pins the creation time.
func WithCreatedAt(ts time.Time) PostOption {
	return func(p *models.Post) { p.CreatedAt = ts }
}

// CreatePost inserts a post titled title. The slug defaults to a unique
// value derived from the fixture sequence.
func CreatePost(t testing.TB, db *gorm.DB, title string, opts ...PostOption) *models.Post {
	t.Helper()
	n := next()
	p := &models.Post{
		Title:         title,
		Slug:          fmt.Sprintf("fixture-post-%d", n),
		FeaturedImage: fmt.Sprintf("https://cdn.example.com/blobs/img-%d.png", n),
		Tags:          datatypes.JSONSlice[string]{},
		Content:       "<p>body</p>",
	}
	for _, opt := range opts {
		opt(p)
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// CreateComment inserts a comment by user on post.
func CreateComment(t testing.TB, db *gorm.DB, postID, userID uint, content string) *models.Comment {
	t.Helper()
	c := &models.Comment{PostID: postID, UserID: userID, Content: content}
	require.NoError(t, db.Omit("Post", "User").Create(c).Error)
	return c
}

// CreateLike inserts a like by user on target.
func CreateLike(t testing.TB, db *gorm.DB, userID uint, target models.LikeTarget) *models.Like {
	t.Helper()
	l := models.NewLike(userID, target)
	require.NoError(t, db.Omit("Post", "Comment").Create(l).Error)
	return l
}

// CountRows counts rows of model matching the optional where clause.
func CountRows(t testing.TB, db *gorm.DB, model any, where ...any) int64 {
	t.Helper()
	q := db.Model(model)
	if len(where) > 0 {
		q = q.Where(where[0], where[1:]...)
	}
	var n int64
	require.NoError(t, q.Count(&n).Error)
	return n
}
