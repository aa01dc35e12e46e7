package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/findit/internal/db"
	"github.com/erazemk/findit/internal/model"
)

const selectItem = `SELECT id, title, description, last_seen_location, date_lost, image_url,
       author_id, author_email, item_type, category, status, version, created_at, updated_at
FROM items`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*model.Item, error) {
	item := &model.Item{}
	var imageURL, category sql.NullString
	err := row.Scan(&item.ID, &item.Title, &item.Description, &item.LastSeenLocation, &item.DateLost, &imageURL,
		&item.AuthorID, &item.AuthorEmail, &item.ItemType, &category, &item.Status, &item.Version,
		&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	item.ImageURL = imageURL.String
	item.Category = category.String
	return item, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// CreateItem inserts a new item owned by author. The id and timestamps are
// assigned here and the stored record is returned.
func CreateItem(ctx context.Context, database *db.DB, author model.Principal, draft model.ItemDraft) (*model.Item, error) {
	id := uuid.NewString()
	now := time.Now().UTC()

	_, err := database.ExecContext(ctx, database.Rebind(
		`INSERT INTO items (id, title, description, last_seen_location, date_lost, image_url,
		                    author_id, author_email, item_type, category, status, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`),
		id, draft.Title, draft.Description, draft.LastSeenLocation, draft.DateLost, nullString(draft.ImageURL),
		author.ID, author.Email, draft.ItemType, nullString(draft.Category), draft.Status, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	return GetItem(ctx, database, id)
}

// GetItem returns an item by ID.
func GetItem(ctx context.Context, database *db.DB, id string) (*model.Item, error) {
	item, err := scanItem(database.QueryRowContext(ctx, database.Rebind(selectItem+` WHERE id = ?`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns every item, newest first.
func ListItems(ctx context.Context, database *db.DB) ([]model.Item, error) {
	rows, err := database.QueryContext(ctx, selectItem+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpdateItem applies the set fields of patch, stamps updatedAt, bumps the
// version and returns the stored record. Returns nil if the item does not exist.
func UpdateItem(ctx context.Context, database *db.DB, id string, patch model.ItemPatch, updatedAt time.Time) (*model.Item, error) {
	var sets []string
	var args []any
	set := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if patch.Title != nil {
		set("title", strings.TrimSpace(*patch.Title))
	}
	if patch.Description != nil {
		set("description", strings.TrimSpace(*patch.Description))
	}
	if patch.LastSeenLocation != nil {
		set("last_seen_location", strings.TrimSpace(*patch.LastSeenLocation))
	}
	if patch.DateLost != nil {
		set("date_lost", *patch.DateLost)
	}
	if patch.ImageURL != nil {
		set("image_url", nullString(strings.TrimSpace(*patch.ImageURL)))
	}
	if patch.ItemType != nil {
		set("item_type", *patch.ItemType)
	}
	if patch.Category != nil {
		set("category", nullString(*patch.Category))
	}
	if patch.Status != nil {
		set("status", *patch.Status)
	}
	set("updated_at", updatedAt.UTC())
	sets = append(sets, "version = version + 1")
	args = append(args, id)

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	previousImage, err := itemImageURL(ctx, tx, database, id)
	if err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx, database.Rebind(
		`UPDATE items SET `+strings.Join(sets, ", ")+` WHERE id = ?`), args...)
	if err != nil {
		return nil, fmt.Errorf("updating item: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return nil, nil
	}

	item, err := scanItem(tx.QueryRowContext(ctx, database.Rebind(selectItem+` WHERE id = ?`), id))
	if err != nil {
		return nil, fmt.Errorf("reading updated item: %w", err)
	}

	if previousImage != item.ImageURL {
		if err := deleteStoredImage(ctx, tx, database, previousImage); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing item update: %w", err)
	}
	return item, nil
}

// DeleteItem permanently deletes an item, its comments and its uploaded
// photo. It reports whether a row was removed.
func DeleteItem(ctx context.Context, database *db.DB, id string) (bool, error) {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	imageURL, err := itemImageURL(ctx, tx, database, id)
	if err != nil {
		return false, err
	}

	result, err := tx.ExecContext(ctx, database.Rebind(`DELETE FROM items WHERE id = ?`), id)
	if err != nil {
		return false, fmt.Errorf("deleting item: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting item: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	if err := deleteStoredImage(ctx, tx, database, imageURL); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing item delete: %w", err)
	}
	return true, nil
}

// itemImageURL returns the image_url of an item, or "" if it has none or
// does not exist.
func itemImageURL(ctx context.Context, tx *sql.Tx, database *db.DB, id string) (string, error) {
	var url sql.NullString
	err := tx.QueryRowContext(ctx, database.Rebind(`SELECT image_url FROM items WHERE id = ?`), id).Scan(&url)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading item image: %w", err)
	}
	return url.String, nil
}
