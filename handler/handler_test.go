package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"raceserver/race"
	"raceserver/resources"
	"raceserver/store"
)

type fakeEvents struct{ snap race.Snapshot }

func (f fakeEvents) Snapshot() race.Snapshot { return f.snap }

type fakeMods []resources.Mod

func (f fakeMods) List() []resources.Mod { return f }

type fakeResults struct {
	events []store.Event
	grid   []store.Result
	err    error
}

func (f fakeResults) Results(context.Context) ([]store.Event, error) { return f.events, f.err }

func (f fakeResults) Grid(context.Context) ([]store.Result, error) { return f.grid, f.err }

func newTestHandler(results ResultSource) *HTTPHandler {
	events := fakeEvents{snap: race.Snapshot{
		State:     race.Qualifying,
		StateName: race.Qualifying.String(),
		JoinsOpen: false,
		Participants: []race.ParticipantView{
			{ID: 0, Name: "alice", Laps: 2, BestLapMs: 61500, BestLap: "1:01.500"},
			{ID: 1, Name: "bob"},
		},
	}}
	mods := fakeMods{{Name: "track.zip", Size: 1024}}
	info := ServerInfo{Name: "Sunday Cup", Map: "/levels/test/info.json", MaxPlayers: 8, MaxCars: 1, Version: "1.0.0"}
	return NewHTTPHandler(info, events, mods, results)
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHandler_Status(t *testing.T) {
	h := newTestHandler(nil)
	rec := get(t, h, "/api/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d", rec.Code)
	}
	var got StatusResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Name != "Sunday Cup" || got.Players != 2 || got.State != "Qualifying" || got.StateID != 4 {
		t.Errorf("status = %+v", got)
	}

	h.SetInfo(ServerInfo{Name: "Renamed"})
	rec = get(t, h, "/api/status")
	if !strings.Contains(rec.Body.String(), `"name":"Renamed"`) {
		t.Errorf("reloaded info not served: %s", rec.Body.String())
	}
}

func TestHandler_HealthPlayersMods(t *testing.T) {
	h := newTestHandler(nil)

	if rec := get(t, h, "/health"); !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("health = %s", rec.Body.String())
	}

	var players []race.ParticipantView
	if err := json.NewDecoder(get(t, h, "/api/players").Body).Decode(&players); err != nil {
		t.Fatal(err)
	}
	if len(players) != 2 || players[0].BestLap != "1:01.500" {
		t.Errorf("players = %+v", players)
	}

	var mods []resources.Mod
	if err := json.NewDecoder(get(t, h, "/api/mods").Body).Decode(&mods); err != nil {
		t.Fatal(err)
	}
	if len(mods) != 1 || mods[0].Name != "track.zip" {
		t.Errorf("mods = %+v", mods)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/status", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status code = %d", rec.Code)
	}
}

func TestHandler_Results(t *testing.T) {
	if rec := get(t, newTestHandler(nil), "/api/results"); rec.Code != http.StatusNotFound {
		t.Errorf("without store: %d", rec.Code)
	}
	if rec := get(t, newTestHandler(fakeResults{err: errors.New("disk gone")}), "/api/results"); rec.Code != http.StatusInternalServerError {
		t.Errorf("failing store: %d", rec.Code)
	}
	rec := get(t, newTestHandler(fakeResults{}), "/api/results")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("empty results = %d %q", rec.Code, rec.Body.String())
	}
	rec = get(t, newTestHandler(fakeResults{events: []store.Event{{ID: "e1", Map: "m"}}}), "/api/results")
	if !strings.Contains(rec.Body.String(), `"id":"e1"`) {
		t.Errorf("results = %s", rec.Body.String())
	}
}

func TestHandler_Grid(t *testing.T) {
	if rec := get(t, newTestHandler(nil), "/api/grid"); rec.Code != http.StatusNotFound {
		t.Errorf("without store: %d", rec.Code)
	}
	if rec := get(t, newTestHandler(fakeResults{err: errors.New("locked")}), "/api/grid"); rec.Code != http.StatusInternalServerError {
		t.Errorf("failing store: %d", rec.Code)
	}
	rec := get(t, newTestHandler(fakeResults{}), "/api/grid")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("empty grid = %d %q", rec.Code, rec.Body.String())
	}
	best := int64(61500)
	rec = get(t, newTestHandler(fakeResults{grid: []store.Result{{Position: 1, Name: "alice", BestLapMs: &best}}}), "/api/grid")
	var got []store.Result
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Name != "alice" || got[0].BestLapMs == nil || *got[0].BestLapMs != best {
		t.Errorf("grid = %+v", got)
	}
}

func TestHandler_WebsocketPushesSnapshots(t *testing.T) {
	h := newTestHandler(nil)
	h.PushInterval = 20 * time.Millisecond
	srv := httptest.NewServer(h)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	for i := 0; i < 2; i++ {
		c.SetReadDeadline(time.Now().Add(2 * time.Second))
		var snap race.Snapshot
		if err := c.ReadJSON(&snap); err != nil {
			t.Fatal(err)
		}
		if snap.StateName != "Qualifying" || len(snap.Participants) != 2 {
			t.Errorf("snapshot = %+v", snap)
		}
	}
}
