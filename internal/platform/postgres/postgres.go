package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Connect opens a *sql.DB, configures the pool, and verifies connectivity
// with a ping. The pool is created once at startup and injected into stores;
// Close it on shutdown.
func Connect(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the tables and unique indexes the stores rely on.
// Uniqueness of mobile, email, and registration number is enforced here, not
// re-checked application-side under concurrency.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	name TEXT NOT NULL,
	guardian_name TEXT NOT NULL,
	mobile_no TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL UNIQUE,
	date_of_birth TEXT NOT NULL,
	passout_percentage DOUBLE PRECISION NOT NULL,
	state TEXT NOT NULL,
	address TEXT NOT NULL,
	course_name TEXT NOT NULL,
	experience TEXT NOT NULL,
	college_name TEXT NOT NULL,
	photo_url TEXT NOT NULL DEFAULT '',
	qr_seed_url TEXT NOT NULL DEFAULT '',
	registration_number TEXT NOT NULL UNIQUE,
	role TEXT NOT NULL DEFAULT 'user',
	is_restricted BOOLEAN NOT NULL DEFAULT FALSE,
	password_hash TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS certificates (
	certificate_id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	payload JSONB NOT NULL,
	qr_image_data_url TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS certificates_user_id_idx ON certificates (user_id);

CREATE TABLE IF NOT EXISTS audit_events (
	id BIGSERIAL PRIMARY KEY,
	occurred_at TIMESTAMPTZ NOT NULL,
	user_id TEXT NOT NULL,
	actor TEXT NOT NULL,
	action TEXT NOT NULL,
	detail TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS audit_events_user_id_idx ON audit_events (user_id);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
