package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fragcore/arena/internal/data"
	"github.com/fragcore/arena/internal/match"
)

func TestDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Simulation.TickRate != time.Second/60 {
		t.Errorf("tick rate = %s, want %s", cfg.Simulation.TickRate, time.Second/60)
	}
	if cfg.Simulation.EventQueueSize != 256 {
		t.Errorf("event queue = %d, want 256", cfg.Simulation.EventQueueSize)
	}
	if cfg.Database.Enabled {
		t.Error("database enabled by default")
	}
	o, err := cfg.Match.Options()
	if err != nil {
		t.Fatalf("Options: %v", err)
	}
	if o != match.Default() {
		t.Errorf("options = %#v, want %#v", o, match.Default())
	}
	if len(cfg.Match.Bots) != 3 || !cfg.Match.WithPlayer {
		t.Errorf("match = %+v", cfg.Match)
	}
}

func TestParseOverrides(t *testing.T) {
	cfg, err := Parse([]byte(`
[simulation]
tick_rate = "20ms"

[match]
mode = "team_deathmatch"
time_limit = 300
team_frag_limit = 15
bots = ["parasite"]
with_player = false

[database]
enabled = true
conn_max_lifetime = "5m"
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Simulation.TickRate != 20*time.Millisecond {
		t.Errorf("tick rate = %s", cfg.Simulation.TickRate)
	}
	if cfg.Database.ConnMaxLifetime != 5*time.Minute || !cfg.Database.Enabled {
		t.Errorf("database = %+v", cfg.Database)
	}
	o, err := cfg.Match.Options()
	if err != nil {
		t.Fatalf("Options: %v", err)
	}
	want := match.TeamDeathMatch{TimeLimitSecs: 300, TeamFragLimit: 15}
	if o != want {
		t.Errorf("options = %#v, want %#v", o, want)
	}
	if len(cfg.Match.Bots) != 1 || cfg.Match.Bots[0] != data.BotParasite {
		t.Errorf("bots = %v", cfg.Match.Bots)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name, raw, want string
	}{
		{"mode", `[match]
mode = "racing"`, "unknown match mode"},
		{"bot", `[match]
bots = ["dragon"]`, "unknown bot kind"},
		{"tick", `[simulation]
tick_rate = "0s"`, "tick_rate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestLoadShippedConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config", "arena.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.StartTime == 0 {
		t.Error("start time not set")
	}
	if cfg.Scripting.Dir != "scripts" {
		t.Errorf("scripting dir = %q", cfg.Scripting.Dir)
	}
}

func TestPathOverride(t *testing.T) {
	t.Setenv(EnvPath, "")
	if got := Path("config/arena.toml"); got != "config/arena.toml" {
		t.Errorf("Path = %q", got)
	}
	dir := t.TempDir()
	p := filepath.Join(dir, "other.toml")
	if err := os.WriteFile(p, []byte(`[server]
name = "other"`), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvPath, p)
	cfg, err := Load(Path("config/arena.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Name != "other" {
		t.Errorf("name = %q", cfg.Server.Name)
	}
}
