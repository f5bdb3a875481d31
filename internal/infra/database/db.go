package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 5 * time.Minute
	defaultConnMaxIdleTime = 1 * time.Minute
)

// NewPostgresConnection creates and returns a new PostgreSQL database
// connection. It also pings the database to ensure connectivity.
func NewPostgresConnection(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	if err = db.Ping(); err != nil {
		db.Close() // Close the connection if ping fails
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// InitSchema creates the engine's tables if they do not exist yet. The
// content tables model the storage collaborator for deployments where the
// engine owns its own copy; the notification store is the engine's own
// durable state.
func InitSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS content_items (
		id BIGSERIAL PRIMARY KEY,
		item_type TEXT NOT NULL,
		bundle TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		url TEXT NOT NULL DEFAULT '',
		moderation_state TEXT NOT NULL DEFAULT 'draft',
		changed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		ignore_lifecycle BOOLEAN NOT NULL DEFAULT FALSE,
		field_values JSONB NOT NULL DEFAULT '{}'::jsonb
	);
	CREATE INDEX IF NOT EXISTS content_items_type_bundle_idx ON content_items (item_type, bundle);

	CREATE TABLE IF NOT EXISTS content_revisions (
		revision_id BIGSERIAL PRIMARY KEY,
		item_id BIGINT NOT NULL,
		item_type TEXT NOT NULL,
		moderation_state TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		author_id BIGINT NOT NULL DEFAULT 0,
		changed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS content_revisions_item_idx ON content_revisions (item_type, item_id, revision_id DESC);

	CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		locale TEXT NOT NULL DEFAULT 'en',
		blocked BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE TABLE IF NOT EXISTS item_owners (
		item_type TEXT NOT NULL,
		item_id BIGINT NOT NULL,
		user_id BIGINT NOT NULL,
		PRIMARY KEY (item_type, item_id, user_id)
	);

	CREATE TABLE IF NOT EXISTS scheduled_updates (
		id BIGSERIAL PRIMARY KEY,
		item_type TEXT NOT NULL,
		item_id BIGINT NOT NULL,
		field_name TEXT NOT NULL,
		update_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS lifecycle_notification_store (
		item_key TEXT PRIMARY KEY,
		data JSONB NOT NULL DEFAULT '{}'::jsonb,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}
