package seed

import (
	"fmt"
	"log/slog"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

// Options configure a seeding run.
type Options struct {
	Users              int
	Posts              int
	MaxCommentsPerPost int
	// LikeChance is the probability, in percent, that a user likes a
	// given post or comment.
	LikeChance int
	MaxDays    int
	Seed       int64
}

// DefaultOptions is a small but realistic data set.
var DefaultOptions = Options{Users: 20, Posts: 40, MaxCommentsPerPost: 6, LikeChance: 25, MaxDays: 120}

// Result counts what a run created.
type Result struct {
	Users    int
	Posts    int
	Comments int
	Likes    int
}

// Seeder fills the database with fake users, posts, comments and likes.
type Seeder struct {
	db *gorm.DB
}

// NewSeeder binds a Seeder to db.
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// ClearAll deletes every blog row, children first so no foreign key is
// ever left dangling.
func (s *Seeder) ClearAll() error {
	for _, model := range []any{&models.Like{}, &models.Comment{}, &models.Post{}, &models.User{}} {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	return nil
}

// Run seeds according to opts.
func (s *Seeder) Run(opts Options) (Result, error) {
	var res Result
	f := NewFactory(s.db, opts.Seed)

	users := make([]*models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		u, err := f.CreateUser()
		if err != nil {
			return res, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
	}
	res.Users = len(users)

	posts := make([]*models.Post, 0, opts.Posts)
	for i := 0; i < opts.Posts; i++ {
		posts = append(posts, f.BuildPost(opts.MaxDays))
	}
	if err := f.CreatePostsBatch(posts); err != nil {
		return res, fmt.Errorf("create posts: %w", err)
	}
	res.Posts = len(posts)

	if len(users) == 0 {
		return res, nil
	}

	for _, post := range posts {
		for _, u := range users {
			if f.faker.Number(1, 100) <= opts.LikeChance {
				if err := f.CreateLike(u, models.PostTarget(post.ID)); err != nil {
					return res, fmt.Errorf("like post: %w", err)
				}
				res.Likes++
			}
		}

		comments := 0
		if opts.MaxCommentsPerPost > 0 {
			comments = f.faker.Number(0, opts.MaxCommentsPerPost)
		}
		for i := 0; i < comments; i++ {
			author := users[f.faker.Number(0, len(users)-1)]
			c, err := f.CreateComment(author, post)
			if err != nil {
				return res, fmt.Errorf("create comment: %w", err)
			}
			res.Comments++

			for _, u := range users {
				if f.faker.Number(1, 100) <= opts.LikeChance {
					if err := f.CreateLike(u, models.CommentTarget(c.ID)); err != nil {
						return res, fmt.Errorf("like comment: %w", err)
					}
					res.Likes++
				}
			}
		}
	}

	slog.Info("seed finished",
		slog.Int("users", res.Users),
		slog.Int("posts", res.Posts),
		slog.Int("comments", res.Comments),
		slog.Int("likes", res.Likes),
	)
	return res, nil
}
