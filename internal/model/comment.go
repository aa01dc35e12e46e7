package model

import (
	"strings"
	"time"
)

// Comment is a message in an item's thread.
type Comment struct {
	ID          string    `json:"id"`
	PostID      string    `json:"post_id"`
	AuthorID    string    `json:"author_id"`
	AuthorEmail string    `json:"author_email"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}

// CommentDraft holds the caller-supplied fields of a new comment.
type CommentDraft struct {
	PostID  string `json:"post_id"`
	Content string `json:"content"`
}

// Validate trims the content and rejects empty comments.
func (d *CommentDraft) Validate() error {
	d.Content = strings.TrimSpace(d.Content)
	if d.PostID == "" {
		return &ValidationError{Field: "post_id", Reason: "required"}
	}
	if d.Content == "" {
		return &ValidationError{Field: "content", Reason: "required"}
	}
	return nil
}
