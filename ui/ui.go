// Package ui draws the terminal console: server info, connected players and the log.
package ui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rivo/tview"

	"raceserver/race"
)

const refreshInterval = 500 * time.Millisecond

// Console is the interactive screen shown unless the server runs headless.
type Console struct {
	app     *tview.Application
	info    *tview.TextView
	players *tview.TextView
	logs    *tview.TextView
}

func New(title, addr, mapName string) *Console {
	c := &Console{app: tview.NewApplication()}

	header := tview.NewTextView().SetTextAlign(tview.AlignCenter).SetText(title)
	c.info = tview.NewTextView()
	c.info.SetBorder(true).SetTitle(" Server ")
	c.info.SetText(fmt.Sprintf("Listening on %s\nMap %s", addr, mapName))

	c.players = tview.NewTextView()
	c.players.SetBorder(true).SetTitle(" Players ")

	c.logs = tview.NewTextView().SetScrollable(true).SetMaxLines(1000)
	c.logs.SetBorder(true).SetTitle(" Log ")
	c.logs.SetChangedFunc(func() {
		c.logs.ScrollToEnd()
		c.app.Draw()
	})

	side := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(c.info, 5, 0, false).
		AddItem(c.players, 0, 1, false)
	body := tview.NewFlex().
		AddItem(c.logs, 0, 3, false).
		AddItem(side, 32, 0, false)
	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(header, 1, 0, false).
		AddItem(body, 0, 1, true)
	c.app.SetRoot(root, true)
	return c
}

// LogWriter receives the log output while the console runs.
func (c *Console) LogWriter() io.Writer {
	return tview.ANSIWriter(c.logs)
}

// Run draws until ctx is cancelled or the user presses Ctrl-C.
func (c *Console) Run(ctx context.Context, snapshot func() race.Snapshot) error {
	go func() {
		ticker := time.NewTicker(refreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				c.app.Stop()
				return
			case <-ticker.C:
				lines := PlayerLines(snapshot())
				c.app.QueueUpdateDraw(func() {
					c.players.SetText(strings.Join(lines, "\n"))
				})
			}
		}
	}()
	return c.app.Run()
}

// PlayerLines renders "[id] name" per participant, in id order.
func PlayerLines(s race.Snapshot) []string {
	lines := make([]string, 0, len(s.Participants)+1)
	lines = append(lines, tview.Escape(fmt.Sprintf("%s (%d)", s.StateName, len(s.Participants))))
	for _, p := range s.Participants {
		lines = append(lines, tview.Escape(fmt.Sprintf("[%d] %s", p.ID, p.Name)))
	}
	return lines
}
