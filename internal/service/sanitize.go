package service

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer cleans user supplied markup before it is stored.
type Sanitizer struct {
	post    *bluemonday.Policy
	comment *bluemonday.Policy
}

// NewSanitizer allows rich text in posts and plain text in comments.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{
		post:    bluemonday.UGCPolicy(),
		comment: bluemonday.StrictPolicy(),
	}
}

// Post returns sanitized post HTML.
func (s *Sanitizer) Post(html string) string {
	return strings.TrimSpace(s.post.Sanitize(html))
}

// Comment strips all markup from a comment.
func (s *Sanitizer) Comment(text string) string {
	return strings.TrimSpace(s.comment.Sanitize(text))
}
