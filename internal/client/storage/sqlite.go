package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/promstudy/promstudy/internal/client/migrations"
	"github.com/promstudy/promstudy/internal/dbx"
)

// SQLiteStore keeps session state in the session_state table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an already migrated database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// RunMigrations applies the embedded goose migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Open opens (creating if needed) the SQLite file at dsn and migrates it.
func Open(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	// SQLite serialises writers anyway; one connection also keeps
	// ":memory:" databases from splitting across the pool.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewSQLiteStore(db), nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	return get(ctx, s.db, key)
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	return set(ctx, s.db, key, value)
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	return del(ctx, s.db, key)
}

func (s *SQLiteStore) SetAll(ctx context.Context, values map[string][]byte) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for k, v := range values {
			if err := set(ctx, tx, k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLiteStore) DeleteAll(ctx context.Context, keys ...string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, k := range keys {
			if err := del(ctx, tx, k); err != nil {
				return err
			}
		}
		return nil
	})
}

func get(ctx context.Context, db dbx.DBTX, key string) ([]byte, error) {
	var value []byte
	err := db.QueryRowContext(ctx, `SELECT value FROM session_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get state[%s]: %w", key, err)
	}
	return value, nil
}

func set(ctx context.Context, db dbx.DBTX, key string, value []byte) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO session_state (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set state[%s]: %w", key, err)
	}
	return nil
}

func del(ctx context.Context, db dbx.DBTX, key string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM session_state WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete state[%s]: %w", key, err)
	}
	return nil
}
