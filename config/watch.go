package config

import (
	"reflect"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Reload merges the live-reloadable fields of next into a copy of c.
// Every other field that differs is reported as requiring a restart.
func (c *Config) Reload(next *Config) (*Config, []string) {
	merged := *c
	merged.General.Name = next.General.Name
	merged.General.Description = next.General.Description
	merged.General.Private = next.General.Private
	merged.General.LogChat = next.General.LogChat
	merged.General.Debug = next.General.Debug
	merged.General.MaxCars = next.General.MaxCars

	var restart []string
	probe := merged
	check := func(name string, changed bool) {
		if changed {
			restart = append(restart, name)
		}
	}
	check("General.Port", probe.General.Port != next.General.Port)
	check("General.AuthKey", probe.General.AuthKey != next.General.AuthKey)
	check("General.MaxPlayers", probe.General.MaxPlayers != next.General.MaxPlayers)
	check("General.Map", probe.General.Map != next.General.Map)
	check("General.ResourceFolder", probe.General.ResourceFolder != next.General.ResourceFolder)
	check("Misc", probe.Misc != next.Misc)
	check("HTTP", probe.HTTP != next.HTTP)
	check("Telemetry", probe.Telemetry != next.Telemetry)
	check("Store", probe.Store != next.Store)
	check("Race", !reflect.DeepEqual(probe.Race, next.Race))
	check("Track", !reflect.DeepEqual(probe.Track, next.Track))
	return &merged, restart
}

// Watch re-reads path whenever it changes and hands the merged result to onChange.
// Invalid edits are logged and ignored.
func Watch(path string, current *Config, onChange func(*Config)) {
	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		log.Errorf("Config watch disabled: %v", err)
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		merged, err := applyChange(v, current, e.Name)
		if err != nil {
			log.Errorf("Ignoring config change: %v", err)
			return
		}
		current = merged
		onChange(merged)
	})
	v.WatchConfig()
}

// applyChange decodes the re-read file in v and merges it into current.
func applyChange(v *viper.Viper, current *Config, file string) (*Config, error) {
	for _, key := range unknownKeys(v) {
		log.Warnf("Ignoring unknown config key %q", key)
	}
	var next Config
	if err := decode(v, &next); err != nil {
		return nil, err
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	merged, restart := current.Reload(&next)
	for _, name := range restart {
		log.Warnf("%s changed in %s, restart required to apply", name, file)
	}
	return merged, nil
}
