package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fragcore/arena/internal/geom"
)

// Box is an axis aligned box in map files.
type Box struct {
	Min Vec `yaml:"min"`
	Max Vec `yaml:"max"`
}

func (b Box) AABB() geom.AABB { return geom.FromPoints(b.Min.V(), b.Max.V()) }

// JumpPadPlacement launches actors from Begin towards End.
type JumpPadPlacement struct {
	Begin Vec `yaml:"begin"`
	End   Vec `yaml:"end"`
	Size  Vec `yaml:"size"`
}

// ItemPlacement is a static pickup on the map.
type ItemPlacement struct {
	Kind     ItemKind `yaml:"kind"`
	Position Vec      `yaml:"position"`
}

// ArenaMap is the gameplay layout of one level.
type ArenaMap struct {
	Name        string             `yaml:"name"`
	Geometry    []Box              `yaml:"geometry"`
	SpawnPoints []Vec              `yaml:"spawn_points"`
	DeathZones  []Box              `yaml:"death_zones"`
	JumpPads    []JumpPadPlacement `yaml:"jump_pads"`
	Items       []ItemPlacement    `yaml:"items"`
}

// DefaultArena returns the built-in map.
func DefaultArena() (*ArenaMap, error) {
	raw, err := defaultFiles.ReadFile("defaults/arena.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded arena: %w", err)
	}
	return ParseArena(raw)
}

// LoadArena loads a map file.
func LoadArena(path string) (*ArenaMap, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read arena %s: %w", path, err)
	}
	return ParseArena(raw)
}

func ParseArena(raw []byte) (*ArenaMap, error) {
	var m ArenaMap
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse arena: %w", err)
	}
	if len(m.SpawnPoints) == 0 {
		return nil, fmt.Errorf("arena %q: no spawn points", m.Name)
	}
	for i, jp := range m.JumpPads {
		if jp.Begin == jp.End {
			return nil, fmt.Errorf("arena %q: jump pad %d has no direction", m.Name, i)
		}
	}
	return &m, nil
}
