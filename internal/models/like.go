package models

import (
	"fmt"
	"time"
)

// TargetKind discriminates what a Like points at.
type TargetKind string

const (
	TargetPost    TargetKind = "post"
	TargetComment TargetKind = "comment"
)

// LikeTarget names exactly one likeable entity.
type LikeTarget struct {
	Kind TargetKind
	ID   uint
}

// PostTarget targets a post.
func PostTarget(id uint) LikeTarget { return LikeTarget{Kind: TargetPost, ID: id} }

// CommentTarget targets a comment.
func CommentTarget(id uint) LikeTarget { return LikeTarget{Kind: TargetComment, ID: id} }

// Validate rejects unknown kinds and zero ids.
func (t LikeTarget) Validate() error {
	if t.Kind != TargetPost && t.Kind != TargetComment {
		return NewValidationError("target", fmt.Sprintf("unknown like target %q", t.Kind))
	}
	if t.ID == 0 {
		return NewValidationError("target", "like target id is required")
	}
	return nil
}

func (t LikeTarget) String() string {
	return fmt.Sprintf("%s:%d", t.Kind, t.ID)
}

// Like is one user's endorsement of exactly one post or one comment.
// Exactly one of PostID and CommentID is set; build it with NewLike.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_likes_user_post;uniqueIndex:idx_likes_user_comment" json:"user_id"`
	PostID    *uint     `gorm:"uniqueIndex:idx_likes_user_post;check:chk_likes_single_target,(post_id IS NULL) <> (comment_id IS NULL)" json:"post_id,omitempty"`
	Post      *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:RESTRICT" json:"-"`
	CommentID *uint     `gorm:"uniqueIndex:idx_likes_user_comment" json:"comment_id,omitempty"`
	Comment   *Comment  `gorm:"foreignKey:CommentID;constraint:OnDelete:RESTRICT" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// NewLike builds a Like for target. The target must already be validated.
func NewLike(userID uint, target LikeTarget) *Like {
	id := target.ID
	like := &Like{UserID: userID}
	switch target.Kind {
	case TargetPost:
		like.PostID = &id
	case TargetComment:
		like.CommentID = &id
	}
	return like
}

// Target returns the discriminated target of a persisted like.
func (l *Like) Target() LikeTarget {
	if l.PostID != nil {
		return PostTarget(*l.PostID)
	}
	if l.CommentID != nil {
		return CommentTarget(*l.CommentID)
	}
	return LikeTarget{}
}
