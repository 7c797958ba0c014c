package models

import "time"

// User is the local record of an identity issued by the auth provider.
// Only id, username and avatar leak into engagement reads.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:100;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email,omitempty"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	Avatar       string    `gorm:"size:1024" json:"avatar"`
	IsAdmin      bool      `gorm:"not null;default:false" json:"is_admin,omitempty"`
	CreatedAt    time.Time `gorm:"index" json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"-"`
}

// UserSummary is the projection used by dashboard listings.
type UserSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
