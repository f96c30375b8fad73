package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Placeholder styles for SQLStore.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// SQLStore keeps values in the kv_store table created by the database
// package. Works with lib/pq and modernc sqlite.
type SQLStore struct {
	db        *sql.DB
	getSQL    string
	upsertSQL string
	deleteSQL string
}

// NewSQLStore creates a store using the placeholder style of dialect.
func NewSQLStore(db *sql.DB, dialect string) *SQLStore {
	p1, p2 := "?", "?"
	now := "CURRENT_TIMESTAMP"
	if dialect == DialectPostgres {
		p1, p2 = "$1", "$2"
		now = "NOW()"
	}
	return &SQLStore{
		db:     db,
		getSQL: `SELECT value FROM kv_store WHERE key = ` + p1,
		upsertSQL: `INSERT INTO kv_store (key, value, updated_at) VALUES (` + p1 + `, ` + p2 + `, ` + now + `)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = ` + now,
		deleteSQL: `DELETE FROM kv_store WHERE key = ` + p1,
	}
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, s.getSQL, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query kv %s: %w", key, err)
	}
	return []byte(value), nil
}

func (s *SQLStore) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, s.upsertSQL, key, string(value)); err != nil {
		return fmt.Errorf("upsert kv %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.deleteSQL, key); err != nil {
		return fmt.Errorf("delete kv %s: %w", key, err)
	}
	return nil
}
