// Package storage persists client credentials in a local SQLite file.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dom/postboard/internal/client/storage/migrations"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// Rows of the metadata table holding the session.
const (
	keyToken = "token"
	keyUser  = "user"
)

// Credentials is the persisted session: the bearer token and the user it
// was issued for, as JSON. Either field is nil when its row is missing.
// Values read back are untrusted input.
type Credentials struct {
	Token []byte
	User  []byte
}

// Store keeps at most one set of credentials.
type Store interface {
	LoadCredentials(ctx context.Context) (Credentials, error)
	SaveCredentials(ctx context.Context, creds Credentials) error
	ClearCredentials(ctx context.Context) error
}

type SQLiteStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at dsn and migrates it.
// ":memory:" gives a private in-process store.
func Open(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open state db: %w", err)
	}
	// One connection keeps an in-memory database alive and serializes writers.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate state db: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}

	return goose.UpContext(ctx, db, ".")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) LoadCredentials(ctx context.Context) (Credentials, error) {
	var creds Credentials

	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM metadata WHERE key IN (?, ?)`, keyToken, keyUser)
	if err != nil {
		return creds, fmt.Errorf("failed to load credentials: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return Credentials{}, fmt.Errorf("failed to scan credentials: %w", err)
		}
		switch key {
		case keyToken:
			creds.Token = value
		case keyUser:
			creds.User = value
		}
	}
	if err := rows.Err(); err != nil {
		return Credentials{}, fmt.Errorf("failed to load credentials: %w", err)
	}

	return creds, nil
}

// SaveCredentials replaces the stored pair. Both rows are written in one
// transaction, so a failure leaves the previous pair in place.
func (s *SQLiteStore) SaveCredentials(ctx context.Context, creds Credentials) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, row := range []struct {
		key   string
		value []byte
	}{
		{keyToken, creds.Token},
		{keyUser, creds.User},
	} {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO metadata (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, row.key, row.value)
		if err != nil {
			return fmt.Errorf("failed to save %s: %w", row.key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit credentials: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ClearCredentials(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM metadata WHERE key IN (?, ?)`, keyToken, keyUser)
	if err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}
