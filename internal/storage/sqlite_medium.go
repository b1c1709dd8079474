package storage

import (
	"context"
	"database/sql"
	"errors"

	"ptm/backend/internal/repository"
)

// SQLiteMedium persists entries in the kv_entries table. The database must
// have been migrated with db.RunMigrations.
type SQLiteMedium struct {
	repo     *repository.KVRepository
	capacity int
}

func NewSQLiteMedium(database *sql.DB, capacity int) *SQLiteMedium {
	return &SQLiteMedium{
		repo:     repository.NewKVRepository(database),
		capacity: capacity,
	}
}

func (m *SQLiteMedium) GetItem(key string) (string, bool, error) {
	entry, err := m.repo.Get(context.Background(), key)
	if errors.Is(err, repository.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entry.Value, true, nil
}

func (m *SQLiteMedium) SetItem(key, value string) error {
	ctx := context.Background()
	if m.capacity > 0 {
		used, err := m.repo.TotalBytes(ctx, key)
		if err != nil {
			return err
		}
		needed := used + len(key) + len(value)
		if needed > m.capacity {
			return &QuotaError{Key: key, Needed: needed, Capacity: m.capacity}
		}
	}
	return m.repo.Put(ctx, key, value)
}

func (m *SQLiteMedium) RemoveItem(key string) error {
	return m.repo.Delete(context.Background(), key)
}

func (m *SQLiteMedium) Keys() ([]string, error) {
	return m.repo.Keys(context.Background())
}

func (m *SQLiteMedium) Clear() error {
	return m.repo.DeleteAll(context.Background())
}
