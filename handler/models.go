package handler

import (
	"context"

	"raceserver/race"
	"raceserver/resources"
	"raceserver/store"
)

// SnapshotSource provides the live event state.
type SnapshotSource interface {
	Snapshot() race.Snapshot
}

// ModSource lists the client mods.
type ModSource interface {
	List() []resources.Mod
}

// ResultSource lists finished events and the current qualifying order.
type ResultSource interface {
	Results(ctx context.Context) ([]store.Event, error)
	Grid(ctx context.Context) ([]store.Result, error)
}

// ServerInfo is the static part of the status response.
type ServerInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Map         string `json:"map"`
	MaxPlayers  int    `json:"max_players"`
	MaxCars     int    `json:"max_cars"`
	Private     bool   `json:"private"`
	Version     string `json:"version"`
}

// StatusResponse is returned by /api/status.
type StatusResponse struct {
	ServerInfo
	Players   int    `json:"players"`
	State     string `json:"state"`
	StateID   int    `json:"state_id"`
	Countdown int    `json:"countdown"`
	JoinsOpen bool   `json:"joins_open"`
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status string `json:"status"`
}
