package store

import (
	"context"
	"database/sql"
	"time"
)

// Result is one line of a finishing order.
type Result struct {
	Position  int    `json:"position"`
	Name      string `json:"name"`
	Laps      int    `json:"laps"`
	BestLapMs *int64 `json:"best_lap_ms"`
	TotalMs   int64  `json:"total_ms"`
	Incidents int    `json:"incidents"`
}

// Event is a finished event with its standings.
type Event struct {
	ID        string    `json:"id"`
	Map       string    `json:"map"`
	Started   time.Time `json:"started"`
	Finished  time.Time `json:"finished"`
	Standings []Result  `json:"standings"`
}

// Results lists finished events, newest first.
func (s *Store) Results(ctx context.Context) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, map, started_at, finished_at
		FROM events
		WHERE finished_at IS NOT NULL
		ORDER BY finished_at DESC`)
	if err != nil {
		return nil, err
	}
	var events []Event
	for rows.Next() {
		var e Event
		var started, finished int64
		if err := rows.Scan(&e.ID, &e.Map, &started, &finished); err != nil {
			rows.Close()
			return nil, err
		}
		e.Started, e.Finished = time.UnixMilli(started).UTC(), time.UnixMilli(finished).UTC()
		events = append(events, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range events {
		if events[i].Standings, err = s.standings(ctx, events[i].ID); err != nil {
			return nil, err
		}
	}
	return events, nil
}

func (s *Store) standings(ctx context.Context, eventID string) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT position, name, laps, best_lap_ms, total_ms, incidents
		FROM results
		WHERE event_id = ?
		ORDER BY position`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var r Result
		var best sql.NullInt64
		if err := rows.Scan(&r.Position, &r.Name, &r.Laps, &best, &r.TotalMs, &r.Incidents); err != nil {
			return nil, err
		}
		if best.Valid {
			v := best.Int64
			r.BestLapMs = &v
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Grid returns the qualifying order of the current event.
func (s *Store) Grid(ctx context.Context) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT position, name, best_lap_ms, incidents
		FROM qualifying
		WHERE event_id = ?
		ORDER BY position`, s.eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var r Result
		var best sql.NullInt64
		if err := rows.Scan(&r.Position, &r.Name, &best, &r.Incidents); err != nil {
			return nil, err
		}
		if best.Valid {
			v := best.Int64
			r.BestLapMs = &v
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
