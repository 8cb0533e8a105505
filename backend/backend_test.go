package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

func TestHeartbeat_PostsForm(t *testing.T) {
	var got atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/heartbeat" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Error(err)
		}
		got.Store(r.PostForm)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewBackendClient(srv.URL + "/")
	err := c.Heartbeat(context.Background(), Heartbeat{
		Key: "secret", Name: "Sunday Cup", Port: 30814, Players: 3, MaxPlayers: 8,
		Map: "/levels/gridmap_v2/info.json", Description: "club race", Version: "1.2.0", Mods: 2, ModsSize: 4096,
	})
	if err != nil {
		t.Fatal(err)
	}
	form := got.Load().(url.Values)
	for key, want := range map[string]string{
		"key": "secret", "name": "Sunday Cup", "port": "30814", "players": "3",
		"maxplayers": "8", "desc": "club race", "modlist": "2", "modstotalsize": "4096",
	} {
		if v := form[key]; len(v) != 1 || v[0] != want {
			t.Errorf("%s = %v, want %q", key, v, want)
		}
	}
}

func TestHeartbeat_RejectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	if err := NewBackendClient(srv.URL).Heartbeat(context.Background(), Heartbeat{}); err == nil {
		t.Fatal("expected an error for 401")
	}
}

func TestAnnounce_RepeatsUntilCancelled(t *testing.T) {
	var beats atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		beats.Add(1)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewBackendClient(srv.URL).Announce(ctx, 10*time.Millisecond, func() Heartbeat { return Heartbeat{Name: "x"} })
		close(done)
	}()
	deadline := time.Now().Add(2 * time.Second)
	for beats.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done
	if beats.Load() < 3 {
		t.Errorf("beats = %d, want at least 3", beats.Load())
	}
}

func TestLatestVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/version" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("3.4.1\n"))
	}))
	defer srv.Close()

	v, err := NewBackendClient(srv.URL).LatestVersion(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if v != "3.4.1" {
		t.Errorf("version = %q", v)
	}
}

func TestNewer(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"3.4.1", "3.4.0", true},
		{"v3.10", "3.9.9", true},
		{"3.4", "3.4.0", false},
		{"3.3.9", "3.4.0", false},
		{"3.4.1", "dev", false},
		{"garbage", "1.0", false},
		{"3.5.0-rc.1", "3.4.2", true},
		{"3.5.0-rc.1", "3.5.0", false},
		{" v4 ", "3.99.1", true},
	}
	for _, tt := range tests {
		if got := Newer(tt.a, tt.b); got != tt.want {
			t.Errorf("Newer(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
