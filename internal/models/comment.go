package models

import "time"

// Comment is a reply attached to exactly one Post and authored by one user.
type Comment struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	PostID  uint   `gorm:"not null;index" json:"post_id"`
	Post    *Post  `gorm:"foreignKey:PostID;constraint:OnDelete:RESTRICT" json:"-"`
	UserID  uint   `gorm:"not null;index" json:"user_id"`
	User    *User  `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"user,omitempty"`
	Content string `gorm:"type:text;not null" json:"content"`
	// LikesCount is not persisted; computed at query time
	LikesCount int `gorm:"->;-:migration" json:"likes_count"`
	// IsLiked indicates whether the requesting viewer liked this comment (computed)
	IsLiked bool `gorm:"->;-:migration" json:"is_liked"`
	// PostTitle is filled by admin listings only
	PostTitle string    `gorm:"->;-:migration" json:"post_title,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommentSummary is the projection used by dashboard listings.
type CommentSummary struct {
	ID        uint      `json:"id"`
	Content   string    `json:"content"`
	Username  string    `json:"username"`
	PostTitle string    `json:"post_title"`
	CreatedAt time.Time `json:"created_at"`
}
