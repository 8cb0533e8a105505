package race

import (
	"strings"
	"time"

	"raceserver/config"
)

// Settings are the event parameters taken from the configuration.
type Settings struct {
	Map             string
	MaxPlayers      int
	MaxCars         int
	MaxLaps         int
	LogChat         bool
	Qualifying      time.Duration
	JoinWindow      time.Duration
	LineUpTimeout   time.Duration
	FinishLinger    time.Duration
	Countdown       int
	ExpectedClients []string
}

func SettingsFrom(cfg *config.Config) Settings {
	expected := make([]string, 0, len(cfg.Race.ExpectedClients))
	for _, name := range cfg.Race.ExpectedClients {
		if name = strings.TrimSpace(name); name != "" {
			expected = append(expected, name)
		}
	}
	return Settings{
		Map:             cfg.General.Map,
		MaxPlayers:      cfg.General.MaxPlayers,
		MaxCars:         cfg.General.MaxCars,
		MaxLaps:         cfg.Race.MaxLaps,
		LogChat:         cfg.General.LogChat,
		Qualifying:      time.Duration(cfg.Race.QualifyingSeconds) * time.Second,
		JoinWindow:      time.Duration(cfg.Race.JoinWindowSeconds) * time.Second,
		LineUpTimeout:   time.Duration(cfg.Race.LineUpTimeoutSeconds) * time.Second,
		FinishLinger:    time.Duration(cfg.Race.FinishLingerSeconds) * time.Second,
		Countdown:       cfg.Race.Countdown,
		ExpectedClients: expected,
	}
}

func (s Settings) whitelisted(name string) bool {
	if len(s.ExpectedClients) == 0 {
		return true
	}
	for _, n := range s.ExpectedClients {
		if n == name {
			return true
		}
	}
	return false
}
