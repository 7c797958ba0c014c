// Package models contains data structures for the blog's content and engagement domain.
package models

import (
	"time"

	"gorm.io/datatypes"
)

// Post is the canonical content unit.
type Post struct {
	ID            uint                        `gorm:"primaryKey" json:"id"`
	Title         string                      `gorm:"size:300;not null;uniqueIndex:idx_posts_title" json:"title"`
	Slug          string                      `gorm:"size:400;not null;uniqueIndex:idx_posts_slug" json:"slug"`
	FeaturedImage string                      `gorm:"size:1024;not null" json:"featured_image"`
	Tags          datatypes.JSONSlice[string] `json:"tags"`
	TimeToRead    *int                        `json:"time_to_read,omitempty"`
	Content       string                      `gorm:"type:text;not null" json:"content"`
	// LikesCount is not persisted; computed at query time
	LikesCount int `gorm:"->;-:migration" json:"likes_count"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int `gorm:"->;-:migration" json:"comments_count"`
	// IsLiked indicates whether the requesting viewer liked this post (computed)
	IsLiked   bool      `gorm:"->;-:migration" json:"is_liked"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TagList returns the tags as a plain slice, never nil.
func (p *Post) TagList() []string {
	if p.Tags == nil {
		return []string{}
	}
	return []string(p.Tags)
}

// PostSummary is the projection used by dashboard listings.
type PostSummary struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}
