// Package seed provides helpers to create demo data for the blog
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"strings"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/slug"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var tagPool = []string{
	"go", "databases", "web", "devops", "testing", "design", "career",
	"frontend", "backend", "performance", "security", "tutorial",
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db    *gorm.DB
	faker *gofakeit.Faker
	now   time.Time
	seq   int
}

// NewFactory creates a Factory. A zero seed picks a random one.
func NewFactory(db *gorm.DB, seed int64) *Factory {
	return &Factory{db: db, faker: gofakeit.New(seed), now: time.Now().UTC()}
}

func (f *Factory) next() int {
	f.seq++
	return f.seq
}

// CreateUser persists a user with a unique username and email.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	n := f.next()
	user := &models.User{
		Username: fmt.Sprintf("%s%d", strings.ToLower(f.faker.Username()), n),
		Email:    fmt.Sprintf("%d.%s", n, strings.ToLower(f.faker.Email())),
		Avatar:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID()),
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost constructs a post without persisting it. Titles carry a
// sequence number so they and their slugs stay unique.
func (f *Factory) BuildPost(maxDays int, overrides ...func(*models.Post)) *models.Post {
	if maxDays <= 0 {
		maxDays = 90
	}
	title := fmt.Sprintf("%s %d", strings.TrimSuffix(f.faker.Sentence(5), "."), f.next())
	minutes := f.faker.Number(2, 15)

	paragraphs := make([]string, f.faker.Number(2, 5))
	for i := range paragraphs {
		paragraphs[i] = "<p>" + f.faker.Paragraph(1, 4, 12, " ") + "</p>"
	}

	post := &models.Post{
		Title:         title,
		Slug:          slug.Make(title),
		FeaturedImage: fmt.Sprintf("https://picsum.photos/seed/%s/1200/630", f.faker.UUID()),
		Tags:          datatypes.JSONSlice[string](f.tags()),
		TimeToRead:    &minutes,
		Content:       strings.Join(paragraphs, "\n"),
		CreatedAt:     f.faker.DateRange(f.now.AddDate(0, 0, -maxDays), f.now),
	}
	post.UpdatedAt = post.CreatedAt
	for _, override := range overrides {
		override(post)
	}
	return post
}

func (f *Factory) tags() []string {
	n := f.faker.Number(1, 3)
	seen := make(map[string]bool, n)
	out := make([]string, 0, n)
	for len(out) < n {
		tag := tagPool[f.faker.Number(0, len(tagPool)-1)]
		if !seen[tag] {
			seen[tag] = true
			out = append(out, tag)
		}
	}
	return out
}

// CreatePostsBatch persists posts in batches.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	return f.db.CreateInBatches(posts, 100).Error
}

// CreateComment persists a comment by user on post, dated after the post.
func (f *Factory) CreateComment(user *models.User, post *models.Post) (*models.Comment, error) {
	created := f.faker.DateRange(post.CreatedAt, f.now)
	comment := &models.Comment{
		PostID:    post.ID,
		UserID:    user.ID,
		Content:   f.faker.Sentence(f.faker.Number(4, 20)),
		CreatedAt: created,
		UpdatedAt: created,
	}
	if err := f.db.Omit("Post", "User").Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateLike persists a like by user on target.
func (f *Factory) CreateLike(user *models.User, target models.LikeTarget) error {
	return f.db.Omit("Post", "Comment").Create(models.NewLike(user.ID, target)).Error
}
