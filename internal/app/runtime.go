package app

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/gofrs/flock"

	"ptm/backend/internal/config"
	"ptm/backend/internal/db"
	"ptm/backend/internal/storage"
)

// Runtime is an App backed by the sqlite database named in the config.
type Runtime struct {
	*App
	database *sql.DB
	lock     *flock.Flock
}

// OpenDatabase locks and migrates the configured database without loading
// the stores.
func OpenDatabase(cfg config.Config) (*sql.DB, *flock.Flock, error) {
	lock, err := db.Lock(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, nil, err
	}

	if err := db.RunMigrations(database); err != nil {
		_ = database.Close()
		_ = lock.Unlock()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	return database, lock, nil
}

// Open builds the gateway and stores on top of the configured database.
// opts.SaveDelay and opts.TickInterval default to the config values.
func Open(cfg config.Config, opts Options) (*Runtime, error) {
	database, lock, err := OpenDatabase(cfg)
	if err != nil {
		return nil, err
	}

	if opts.SaveDelay == 0 {
		opts.SaveDelay = cfg.SaveDelay()
	}
	if opts.TickInterval == 0 {
		opts.TickInterval = cfg.TickInterval()
	}

	gateway := storage.New(
		storage.NewSQLiteMedium(database, cfg.CapacityBytes),
		cfg.Namespace,
		storage.WithVersion(cfg.Version),
	)
	return &Runtime{
		App:      New(gateway, opts),
		database: database,
		lock:     lock,
	}, nil
}

// Close stops the app, flushing pending writes, then releases the database.
func (r *Runtime) Close() error {
	r.App.Close()
	return errors.Join(r.database.Close(), r.lock.Unlock())
}

