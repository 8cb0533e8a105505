// Package resources manages the resource folder: client mods offered to players
// and the server side directory.
package resources

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"raceserver/logging"
)

var log *logrus.Logger

func init() {
	log = logging.GetLogger()
}

// Mod is one client mod archive.
type Mod struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Folder indexes <root>/Client.
type Folder struct {
	root string
	mu   sync.RWMutex
	mods []Mod
}

// Open creates the Client and Server directories when missing and indexes the client mods.
func Open(root string) (*Folder, error) {
	for _, dir := range []string{"Client", "Server"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("resource folder: %w", err)
		}
	}
	f := &Folder{root: root}
	if err := f.Rescan(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Folder) ClientDir() string { return filepath.Join(f.root, "Client") }
func (f *Folder) ServerDir() string { return filepath.Join(f.root, "Server") }

// List returns the indexed mods sorted by name.
func (f *Folder) List() []Mod {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]Mod(nil), f.mods...)
}

// TotalSize is the combined size of every client mod.
func (f *Folder) TotalSize() int64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var n int64
	for _, m := range f.mods {
		n += m.Size
	}
	return n
}

// Rescan rebuilds the index from disk.
func (f *Folder) Rescan() error {
	entries, err := os.ReadDir(f.ClientDir())
	if err != nil {
		return fmt.Errorf("read client mods: %w", err)
	}
	mods := make([]Mod, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !isMod(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		mods = append(mods, Mod{Name: e.Name(), Size: info.Size(), Modified: info.ModTime()})
	}
	sort.Slice(mods, func(i, j int) bool { return mods[i].Name < mods[j].Name })

	f.mu.Lock()
	f.mods = mods
	f.mu.Unlock()
	return nil
}

func isMod(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".zip")
}

// Watch keeps the index current until ctx is cancelled.
func (f *Folder) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(f.ClientDir()); err != nil {
		return fmt.Errorf("watch %s: %w", f.ClientDir(), err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !isMod(ev.Name) || ev.Op == fsnotify.Chmod {
				continue
			}
			if err := f.Rescan(); err != nil {
				log.Warnf("Resource rescan failed: %v", err)
				continue
			}
			log.Infof("Client mods changed (%s %s), %d mods loaded", ev.Op, filepath.Base(ev.Name), len(f.List()))
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warnf("Resource watcher: %v", err)
		}
	}
}
