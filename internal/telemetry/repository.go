package telemetry

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"

	"codeberg.org/mutker/bmcfanctl/internal/errors"
	"codeberg.org/mutker/bmcfanctl/internal/logger"

	_ "github.com/mattn/go-sqlite3"
)

type Repository interface {
	Store(ctx context.Context, snapshot *Snapshot) error
	Close() error
}

type sqliteRepository struct {
	db *sql.DB
	mu sync.Mutex
}

func NewRepository(cfg Config, log logger.Logger) (Repository, error) {
	errFactory := errors.New()

	if cfg.DBPath == "" {
		return nil, errFactory.New(ErrInvalidDBPath)
	}

	log.Debug().Str("db_path", cfg.DBPath).Msg("Initializing telemetry repository")

	// Ensure the directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	db, err := sql.Open("sqlite3", cfg.DBPath)
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	return &sqliteRepository{
		db: db,
	}, nil
}

func (r *sqliteRepository) Store(ctx context.Context, snapshot *Snapshot) error {
	errFactory := errors.New()

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errFactory.Wrap(ErrStorageAccess, err)
	}

	ts := snapshot.Timestamp.Unix()

	_, err = tx.ExecContext(ctx, `
        INSERT INTO fan_state (timestamp, mode, cpu_speed, peripheral_speed)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(timestamp) DO UPDATE SET
            mode = excluded.mode,
            cpu_speed = excluded.cpu_speed,
            peripheral_speed = excluded.peripheral_speed
    `, ts, snapshot.FanMode, snapshot.CPUSpeed, snapshot.PeripheralSpeed)
	if err != nil {
		tx.Rollback()
		return errFactory.Wrap(ErrStorageAccess, err)
	}

	for sensor, value := range snapshot.Readings {
		// No-data readings are stored as NULL so gaps stay visible.
		reading := sql.NullInt64{Int64: int64(value.Value), Valid: value.Valid}

		_, err = tx.ExecContext(ctx, `
            INSERT INTO readings (timestamp, sensor, reading)
            VALUES (?, ?, ?)
            ON CONFLICT(timestamp, sensor) DO UPDATE SET
                reading = excluded.reading
        `, ts, sensor, reading)
		if err != nil {
			tx.Rollback()
			return errFactory.Wrap(ErrStorageAccess, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrStorageAccess, err)
	}

	return nil
}

func (r *sqliteRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.db.Close(); err != nil {
		return errors.New().Wrap(ErrStorageClose, err)
	}
	return nil
}
