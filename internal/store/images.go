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
)

// imagePath prefixes the URL an uploaded image is served under.
const imagePath = "/images/"

// ImageURL returns the URL the image with the given ID is served under.
func ImageURL(id string) string {
	return imagePath + id
}

// ImageID returns the ID of an uploaded image from its URL. It reports false
// for external URLs.
func ImageID(url string) (string, bool) {
	id, ok := strings.CutPrefix(url, imagePath)
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

// CreateImage stores image data and returns its ID.
func CreateImage(ctx context.Context, database *db.DB, data []byte, mime, uploadedBy string) (string, error) {
	id := uuid.NewString()
	_, err := database.ExecContext(ctx, database.Rebind(
		`INSERT INTO images (id, data, mime, uploaded_by, created_at) VALUES (?, ?, ?, ?, ?)`),
		id, data, mime, nullString(uploadedBy), time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("storing image: %w", err)
	}
	return id, nil
}

// GetImage returns an image's data and MIME type.
func GetImage(ctx context.Context, database *db.DB, id string) ([]byte, string, error) {
	var data []byte
	var mime string
	err := database.QueryRowContext(ctx, database.Rebind(
		`SELECT data, mime FROM images WHERE id = ?`), id,
	).Scan(&data, &mime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting image: %w", err)
	}
	return data, mime, nil
}

// DeleteImage removes an image. Deleting a missing image is not an error.
func DeleteImage(ctx context.Context, database *db.DB, id string) error {
	if _, err := database.ExecContext(ctx, database.Rebind(`DELETE FROM images WHERE id = ?`), id); err != nil {
		return fmt.Errorf("deleting image: %w", err)
	}
	return nil
}

// deleteStoredImage removes the uploaded image behind url inside tx. External
// URLs are left alone.
func deleteStoredImage(ctx context.Context, tx *sql.Tx, database *db.DB, url string) error {
	id, ok := ImageID(url)
	if !ok {
		return nil
	}
	if _, err := tx.ExecContext(ctx, database.Rebind(`DELETE FROM images WHERE id = ?`), id); err != nil {
		return fmt.Errorf("deleting image: %w", err)
	}
	return nil
}
