package handler

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// HTTPHandler serves the read-only status API.
type HTTPHandler struct {
	mux     *http.ServeMux
	events  SnapshotSource
	mods    ModSource
	results ResultSource

	infoMu sync.RWMutex
	info   ServerInfo

	PushInterval time.Duration
}

// NewHTTPHandler creates the handler. mods and results may be nil.
func NewHTTPHandler(info ServerInfo, events SnapshotSource, mods ModSource, results ResultSource) *HTTPHandler {
	h := &HTTPHandler{
		mux:          http.NewServeMux(),
		events:       events,
		mods:         mods,
		results:      results,
		info:         info,
		PushInterval: 500 * time.Millisecond,
	}
	h.mux.HandleFunc("GET /health", h.health)
	h.mux.HandleFunc("GET /api/status", h.status)
	h.mux.HandleFunc("GET /api/players", h.players)
	h.mux.HandleFunc("GET /api/mods", h.listMods)
	h.mux.HandleFunc("GET /api/results", h.listResults)
	h.mux.HandleFunc("GET /api/grid", h.grid)
	h.mux.HandleFunc("GET /ws", h.live)
	return h
}

// SetInfo replaces the server description after a config reload.
func (h *HTTPHandler) SetInfo(info ServerInfo) {
	h.infoMu.Lock()
	h.info = info
	h.infoMu.Unlock()
}

// ServeHTTP implements the http.Handler interface for HTTPHandler.
func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	h.mux.ServeHTTP(rec, r)
	logRequest(r, rec.status)
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debugf("%s -- %s -- write failed: %v", r.RemoteAddr, r.URL.Path, err)
	}
}

func (h *HTTPHandler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, HealthResponse{Status: "ok"})
}

func (h *HTTPHandler) statusResponse() StatusResponse {
	snap := h.events.Snapshot()
	h.infoMu.RLock()
	info := h.info
	h.infoMu.RUnlock()
	return StatusResponse{
		ServerInfo: info,
		Players:    len(snap.Participants),
		State:      snap.StateName,
		StateID:    int(snap.State),
		Countdown:  snap.Countdown,
		JoinsOpen:  snap.JoinsOpen,
	}
}

func (h *HTTPHandler) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, h.statusResponse())
}

func (h *HTTPHandler) players(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, h.events.Snapshot().Participants)
}

func (h *HTTPHandler) listMods(w http.ResponseWriter, r *http.Request) {
	if h.mods == nil {
		writeJSON(w, r, []any{})
		return
	}
	writeJSON(w, r, h.mods.List())
}

func (h *HTTPHandler) listResults(w http.ResponseWriter, r *http.Request) {
	if h.results == nil {
		logAndReturnError(w, r, "Results are not recorded on this server", http.StatusNotFound)
		return
	}
	events, err := h.results.Results(r.Context())
	if err != nil {
		logAndReturnError(w, r, "Error reading results", http.StatusInternalServerError, "Error reading results: "+err.Error())
		return
	}
	if events == nil {
		writeJSON(w, r, []any{})
		return
	}
	writeJSON(w, r, events)
}

func (h *HTTPHandler) grid(w http.ResponseWriter, r *http.Request) {
	if h.results == nil {
		logAndReturnError(w, r, "Results are not recorded on this server", http.StatusNotFound)
		return
	}
	grid, err := h.results.Grid(r.Context())
	if err != nil {
		logAndReturnError(w, r, "Error reading grid", http.StatusInternalServerError, "Error reading grid: "+err.Error())
		return
	}
	if grid == nil {
		writeJSON(w, r, []any{})
		return
	}
	writeJSON(w, r, grid)
}
