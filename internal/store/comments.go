package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/findit/internal/db"
	"github.com/erazemk/findit/internal/model"
)

const selectComment = `SELECT id, post_id, author_id, author_email, content, created_at FROM comments`

func scanComment(row rowScanner) (*model.Comment, error) {
	c := &model.Comment{}
	if err := row.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.AuthorEmail, &c.Content, &c.CreatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

// CreateComment adds a comment to an item's thread.
func CreateComment(ctx context.Context, database *db.DB, author model.Principal, draft model.CommentDraft) (*model.Comment, error) {
	id := uuid.NewString()
	_, err := database.ExecContext(ctx, database.Rebind(
		`INSERT INTO comments (id, post_id, author_id, author_email, content, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`),
		id, draft.PostID, author.ID, author.Email, draft.Content, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating comment: %w", err)
	}

	c, err := scanComment(database.QueryRowContext(ctx, database.Rebind(selectComment+` WHERE id = ?`), id))
	if err != nil {
		return nil, fmt.Errorf("reading new comment: %w", err)
	}
	return c, nil
}

// ListComments returns an item's comments, oldest first.
func ListComments(ctx context.Context, database *db.DB, postID string) ([]model.Comment, error) {
	rows, err := database.QueryContext(ctx, database.Rebind(
		selectComment+` WHERE post_id = ? ORDER BY created_at ASC`), postID)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning comment: %w", err)
		}
		comments = append(comments, *c)
	}
	return comments, rows.Err()
}
