package telemetry

import (
	"database/sql"

	"codeberg.org/mutker/bmcfanctl/internal/errors"
)

// initSchema initializes the database schema for telemetry data
func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS fan_state (
            timestamp        INTEGER PRIMARY KEY,
            mode             TEXT NOT NULL,
            cpu_speed        INTEGER,
            peripheral_speed INTEGER
        );
        CREATE TABLE IF NOT EXISTS readings (
            timestamp INTEGER NOT NULL,
            sensor    TEXT NOT NULL,
            reading   INTEGER,
            PRIMARY KEY (timestamp, sensor)
        )
    `)
	if err != nil {
		return errors.New().Wrap(errors.ErrInitTelemetry, err)
	}

	return nil
}
