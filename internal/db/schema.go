package db

import (
	"fmt"
)

// sqliteSchema is the full SQLite schema, one statement per entry.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at    DATETIME NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS items (
    id                 TEXT PRIMARY KEY,
    title              TEXT NOT NULL,
    description        TEXT NOT NULL,
    last_seen_location TEXT NOT NULL,
    date_lost          TEXT NOT NULL,
    image_url          TEXT,
    author_id          TEXT NOT NULL REFERENCES users(id),
    author_email       TEXT NOT NULL,
    item_type          TEXT NOT NULL CHECK (item_type IN ('lost', 'found')),
    category           TEXT,
    status             TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'resolved', 'closed')),
    version            INTEGER NOT NULL DEFAULT 1,
    created_at         DATETIME NOT NULL,
    updated_at         DATETIME NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_items_created_at ON items(created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS comments (
    id           TEXT PRIMARY KEY,
    post_id      TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
    author_id    TEXT NOT NULL REFERENCES users(id),
    author_email TEXT NOT NULL,
    content      TEXT NOT NULL,
    created_at   DATETIME NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_post ON comments(post_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS images (
    id          TEXT PRIMARY KEY,
    data        BLOB NOT NULL,
    mime        TEXT NOT NULL,
    uploaded_by TEXT REFERENCES users(id),
    created_at  DATETIME NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
)`,
}

// postgresSchema mirrors sqliteSchema with Postgres types.
var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS items (
    id                 TEXT PRIMARY KEY,
    title              TEXT NOT NULL,
    description        TEXT NOT NULL,
    last_seen_location TEXT NOT NULL,
    date_lost          DATE NOT NULL,
    image_url          TEXT,
    author_id          TEXT NOT NULL REFERENCES users(id),
    author_email       TEXT NOT NULL,
    item_type          TEXT NOT NULL CHECK (item_type IN ('lost', 'found')),
    category           TEXT,
    status             TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'resolved', 'closed')),
    version            BIGINT NOT NULL DEFAULT 1,
    created_at         TIMESTAMPTZ NOT NULL,
    updated_at         TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_items_created_at ON items(created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS comments (
    id           TEXT PRIMARY KEY,
    post_id      TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
    author_id    TEXT NOT NULL REFERENCES users(id),
    author_email TEXT NOT NULL,
    content      TEXT NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_post ON comments(post_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS images (
    id          TEXT PRIMARY KEY,
    data        BYTEA NOT NULL,
    mime        TEXT NOT NULL,
    uploaded_by TEXT REFERENCES users(id),
    created_at  TIMESTAMPTZ NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at TIMESTAMPTZ NOT NULL
)`,
}

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *DB) error {
	statements := sqliteSchema
	if db.Dialect == Postgres {
		statements = postgresSchema
	}

	for i, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating schema (statement %d): %w", i+1, err)
		}
	}
	return nil
}
