package track

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"raceserver/config"
)

// Set is every descriptor configured for the current map.
type Set struct {
	Limits        *Limits
	LimitsPit     *Limits
	LimitsPitExit *Limits
	SpawnsPit     *Spawns
	SpawnsOdd     *Spawns
	SpawnsEven    *Spawns
	Checkpoints   []*Path
}

// LoadSet reads every file named in the [Track] section. Unset entries stay nil.
func LoadSet(cfg config.Track) (*Set, error) {
	s := &Set{}
	var err error
	if s.Limits, err = loadOptional[Limits](cfg.Limits); err != nil {
		return nil, err
	}
	if s.LimitsPit, err = loadOptional[Limits](cfg.LimitsPit); err != nil {
		return nil, err
	}
	if s.LimitsPitExit, err = loadOptional[Limits](cfg.LimitsPitExit); err != nil {
		return nil, err
	}
	if s.SpawnsPit, err = loadOptional[Spawns](cfg.SpawnsPit); err != nil {
		return nil, err
	}
	if s.SpawnsOdd, err = loadOptional[Spawns](cfg.SpawnsOdd); err != nil {
		return nil, err
	}
	if s.SpawnsEven, err = loadOptional[Spawns](cfg.SpawnsEven); err != nil {
		return nil, err
	}
	for _, file := range cfg.Checkpoints {
		var p Path
		if err := DecodeFile(file, &p); err != nil {
			return nil, err
		}
		s.Checkpoints = append(s.Checkpoints, &p)
	}
	return s, nil
}

func loadOptional[T any](path string) (*T, error) {
	if path == "" {
		return nil, nil
	}
	var v T
	if err := DecodeFile(path, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// DecodeFile decodes a descriptor, as YAML for .yaml/.yml files and JSON otherwise.
func DecodeFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read track file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, out)
	default:
		err = json.Unmarshal(data, out)
	}
	if err != nil {
		return fmt.Errorf("parse track file %s: %w", path, err)
	}
	return nil
}
