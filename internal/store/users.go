package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/findit/internal/db"
	"github.com/erazemk/findit/internal/model"
)

// ErrEmailTaken is returned when registering an address that already has an account.
var ErrEmailTaken = errors.New("email already registered")

// CreateUser creates a new user. The email must already be normalized.
func CreateUser(ctx context.Context, database *db.DB, email, passwordHash string) (*model.User, error) {
	existing, err := GetUserByEmail(ctx, database, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	id := uuid.NewString()
	_, err = database.ExecContext(ctx, database.Rebind(
		`INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`),
		id, email, passwordHash, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return GetUser(ctx, database, id)
}

// GetUser returns a user by ID.
func GetUser(ctx context.Context, database *db.DB, id string) (*model.User, error) {
	u := &model.User{}
	err := database.QueryRowContext(ctx, database.Rebind(
		`SELECT id, email, password_hash, created_at FROM users WHERE id = ?`), id,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByEmail returns a user by (normalized) email address.
func GetUserByEmail(ctx context.Context, database *db.DB, email string) (*model.User, error) {
	u := &model.User{}
	err := database.QueryRowContext(ctx, database.Rebind(
		`SELECT id, email, password_hash, created_at FROM users WHERE email = ?`), email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return u, nil
}
