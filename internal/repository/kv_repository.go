package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ptm/backend/internal/model"
)

var ErrNotFound = errors.New("not found")

type Entry struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// KVRepository stores opaque text values in the kv_entries table.
type KVRepository struct {
	db *sql.DB
}

func NewKVRepository(db *sql.DB) *KVRepository {
	return &KVRepository{db: db}
}

func (r *KVRepository) Get(ctx context.Context, key string) (*Entry, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT key, value, updated_at FROM kv_entries WHERE key = ?`,
		key,
	)
	return scanEntry(row)
}

func (r *KVRepository) Put(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key,
		value,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (r *KVRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (r *KVRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM kv_entries`); err != nil {
		return fmt.Errorf("delete all entries: %w", err)
	}
	return nil
}

func (r *KVRepository) Keys(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key FROM kv_entries ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keys: %w", err)
	}
	return keys, nil
}

// TotalBytes returns the byte size of every stored key and value, optionally
// leaving one key out of the sum.
func (r *KVRepository) TotalBytes(ctx context.Context, exceptKey string) (int, error) {
	var total sql.NullInt64
	if err := r.db.QueryRowContext(
		ctx,
		`SELECT SUM(LENGTH(CAST(key AS BLOB)) + LENGTH(CAST(value AS BLOB)))
		 FROM kv_entries WHERE key <> ?`,
		exceptKey,
	).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum bytes: %w", err)
	}
	return int(total.Int64), nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(s scanner) (*Entry, error) {
	entry := Entry{}
	var updatedAt string
	if err := s.Scan(&entry.Key, &entry.Value, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan entry: %w", err)
	}

	parsed, err := model.ParseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse entry updated_at: %w", err)
	}
	entry.UpdatedAt = parsed
	return &entry, nil
}
