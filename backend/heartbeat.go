package backend

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

// HeartbeatInterval is how often a public server re-announces itself.
const HeartbeatInterval = 30 * time.Second

// Heartbeat is the form posted to the server list.
type Heartbeat struct {
	Key         string
	Name        string
	Port        int
	Players     int
	MaxPlayers  int
	Map         string
	Description string
	Version     string
	Mods        int
	ModsSize    int64
}

func (h Heartbeat) Form() url.Values {
	v := url.Values{}
	v.Set("key", h.Key)
	v.Set("name", h.Name)
	v.Set("port", strconv.Itoa(h.Port))
	v.Set("players", strconv.Itoa(h.Players))
	v.Set("maxplayers", strconv.Itoa(h.MaxPlayers))
	v.Set("map", h.Map)
	v.Set("desc", h.Description)
	v.Set("version", h.Version)
	v.Set("modlist", strconv.Itoa(h.Mods))
	v.Set("modstotalsize", strconv.FormatInt(h.ModsSize, 10))
	return v
}

// Announce sends a heartbeat now and then every interval until ctx ends.
// build is called for every beat so the player count stays current.
func (c *Client) Announce(ctx context.Context, interval time.Duration, build func() Heartbeat) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	failing := false
	for {
		if err := c.Heartbeat(ctx, build()); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warnf("Server list: %v", err)
			failing = true
		} else if failing {
			log.Info("Server list: heartbeat accepted again")
			failing = false
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// CheckForUpdates logs a notice when the backend knows a newer release than current.
func (c *Client) CheckForUpdates(ctx context.Context, current string) {
	latest, err := c.LatestVersion(ctx)
	if err != nil {
		log.Debugf("Update check failed: %v", err)
		return
	}
	if Newer(latest, current) {
		log.Infof("An update is available: %s (running %s)", latest, current)
	}
}

// Newer reports whether version a is greater than b. Versions are read as semver with
// an optional "v"; unparseable versions are never newer.
func Newer(a, b string) bool {
	va, vb := canonical(a), canonical(b)
	if !semver.IsValid(va) || !semver.IsValid(vb) {
		return false
	}
	return semver.Compare(va, vb) > 0
}

func canonical(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "v") {
		s = "v" + s
	}
	return s
}
