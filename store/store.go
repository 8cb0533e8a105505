// Package store persists qualifying grids and race results in SQLite.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"raceserver/logging"
	"raceserver/race"
)

var log *logrus.Logger

func init() {
	log = logging.GetLogger()
}

//go:embed migrations/*.sql
var migrations embed.FS

// Store records one event per server run.
type Store struct {
	db      *sql.DB
	eventID string
}

var _ race.Recorder = (*Store)(nil)

// New opens (or creates) the database, runs migrations and opens an event for mapName.
func New(ctx context.Context, dbPath, mapName string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite single-writer
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	s := &Store{db: db, eventID: uuid.NewString()}
	if _, err := db.ExecContext(ctx, "INSERT INTO events (id, map, started_at) VALUES (?, ?, ?)",
		s.eventID, mapName, time.Now().UnixMilli()); err != nil {
		db.Close()
		return nil, fmt.Errorf("create event: %w", err)
	}
	log.Debugf("Recording event %s", s.eventID)
	return s, nil
}

func runMigrations(db *sql.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return err
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return err
	}
	// m.Close would close db as well.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// EventID is the id of the event recorded by this run.
func (s *Store) EventID() string { return s.eventID }

func (s *Store) Close() error {
	return s.db.Close()
}

func nullableLap(st race.Standing) sql.NullInt64 {
	if !st.HasLap {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: st.BestLap.Milliseconds(), Valid: true}
}

func (s *Store) RecordQualifying(ctx context.Context, grid []race.Standing) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, st := range grid {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO qualifying (event_id, position, name, best_lap_ms, incidents) VALUES (?, ?, ?, ?, ?)",
			s.eventID, st.Position, st.Name, nullableLap(st), st.Incidents); err != nil {
			return fmt.Errorf("record qualifying: %w", err)
		}
	}
	return tx.Commit()
}

func (s *Store) RecordFinish(ctx context.Context, order []race.Standing) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, st := range order {
		var total time.Duration
		for _, l := range st.LapTimes {
			total += l
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO results (event_id, position, name, laps, best_lap_ms, total_ms, incidents) VALUES (?, ?, ?, ?, ?, ?, ?)",
			s.eventID, st.Position, st.Name, st.Laps, nullableLap(st), total.Milliseconds(), st.Incidents); err != nil {
			return fmt.Errorf("record result: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, "UPDATE events SET finished_at = ? WHERE id = ?", time.Now().UnixMilli(), s.eventID); err != nil {
		return fmt.Errorf("close event: %w", err)
	}
	return tx.Commit()
}
