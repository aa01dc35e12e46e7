package store

import (
	"context"
	"time"

	"github.com/erazemk/findit/internal/db"
	"github.com/erazemk/findit/internal/model"
)

// Collections exposes the items and comments tables through the method set
// the item board expects from its backend.
type Collections struct {
	DB *db.DB
}

// ListItems returns every item, newest first.
func (c *Collections) ListItems(ctx context.Context) ([]model.Item, error) {
	return ListItems(ctx, c.DB)
}

// InsertItem stores a new item authored by author.
func (c *Collections) InsertItem(ctx context.Context, author model.Principal, draft model.ItemDraft) (*model.Item, error) {
	return CreateItem(ctx, c.DB, author, draft)
}

// UpdateItem applies patch to an item. See UpdateItem.
func (c *Collections) UpdateItem(ctx context.Context, id string, patch model.ItemPatch, updatedAt time.Time) (*model.Item, error) {
	return UpdateItem(ctx, c.DB, id, patch, updatedAt)
}

// DeleteItem removes an item with its comments and photo.
func (c *Collections) DeleteItem(ctx context.Context, id string) (bool, error) {
	return DeleteItem(ctx, c.DB, id)
}

// InsertComment stores a new comment authored by author.
func (c *Collections) InsertComment(ctx context.Context, author model.Principal, draft model.CommentDraft) (*model.Comment, error) {
	return CreateComment(ctx, c.DB, author, draft)
}

// ListComments returns the comments on postID, oldest first.
func (c *Collections) ListComments(ctx context.Context, postID string) ([]model.Comment, error) {
	return ListComments(ctx, c.DB, postID)
}
