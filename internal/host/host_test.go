package host

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/fragcore/arena/internal/config"
	"github.com/fragcore/arena/internal/geom"
	"github.com/fragcore/arena/internal/scripting"
	"github.com/fragcore/arena/internal/world"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Parse(nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cfg.Simulation.Seed = 42
	cfg.Save.Path = filepath.Join(t.TempDir(), "quick.sav")
	return cfg
}

func start(t *testing.T, cfg *config.Config) *Runtime {
	t.Helper()
	r, err := Start(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(r.Close)
	return r
}

func TestStartWithDefaults(t *testing.T) {
	r := start(t, testConfig(t))
	if r.DB != nil || r.Mixer != nil || r.Engine != nil {
		t.Fatal("optional services started while disabled")
	}
	if _, ok := r.brain.(world.DefaultBrain); !ok {
		t.Errorf("brain = %T, want world.DefaultBrain", r.brain)
	}
	l := r.Session.Level()
	if got := l.Actors().Len(); got != 4 {
		t.Errorf("actors = %d, want 4", got)
	}
	if n := r.Tick(100 * time.Millisecond); n != 6 {
		t.Errorf("ticks = %d, want 6", n)
	}
}

func TestStartWithScriptsAndAudio(t *testing.T) {
	cfg := testConfig(t)
	cfg.Scripting.Dir = filepath.Join("..", "..", "scripts")
	cfg.Audio.Enabled = true
	cfg.Audio.SoundsDir = t.TempDir()
	r := start(t, cfg)

	if _, ok := r.brain.(*scripting.BotBrain); !ok {
		t.Fatalf("brain = %T, want *scripting.BotBrain", r.brain)
	}
	if r.Mixer == nil {
		t.Fatal("mixer not created")
	}
	r.Tick(50 * time.Millisecond)
	if want := int(0.05 * float64(cfg.Audio.SampleRate)); len(r.samples) < want {
		t.Errorf("pulled %d samples, want at least %d", len(r.samples), want)
	}
	if r.Env().Audio != r.Mixer {
		t.Error("levels do not play through the mixer")
	}
}

func TestStartRejectsBadDataDir(t *testing.T) {
	cfg := testConfig(t)
	cfg.Data.Dir = filepath.Join(t.TempDir(), "missing")
	if _, err := Start(context.Background(), cfg, zap.NewNop()); err == nil {
		t.Fatal("Start succeeded with a missing data dir")
	}
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		log, err := NewLogger(config.LoggingConfig{Level: "debug", Format: format})
		if err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		if !log.Core().Enabled(zap.DebugLevel) {
			t.Errorf("%s: debug disabled", format)
		}
	}
	log, err := NewLogger(config.LoggingConfig{Level: "bogus"})
	if err != nil {
		t.Fatal(err)
	}
	if log.Core().Enabled(zap.DebugLevel) || !log.Core().Enabled(zap.InfoLevel) {
		t.Error("unknown level does not fall back to info")
	}
}

func TestTickLandsPlayerOnFloor(t *testing.T) {
	cfg := testConfig(t)
	cfg.Match.Bots = nil
	r := start(t, cfg)
	l := r.Session.Level()
	h, ok := l.Player()
	if !ok {
		t.Fatal("no player")
	}
	p, _ := l.Actors().Get(h)
	startY := p.Position.Y

	for i := 0; i < 30; i++ {
		r.Tick(100 * time.Millisecond)
	}

	p, ok = l.Actors().Get(h)
	if !ok {
		t.Fatal("player vanished")
	}
	if p.Position.Y >= startY {
		t.Errorf("player y = %.3f, want below spawn height %.3f", p.Position.Y, startY)
	}
	if p.Position.Y < 0 {
		t.Errorf("player y = %.3f, fell through the floor", p.Position.Y)
	}
	if !p.Grounded {
		t.Error("player not grounded after landing")
	}
}

func TestTickMovesBots(t *testing.T) {
	r := start(t, testConfig(t))
	l := r.Session.Level()
	before := make(map[string]geom.Vec3)
	l.Actors().Each(func(_ world.ActorHandle, a *world.Actor) {
		if a.IsBot() {
			before[a.Name] = a.Position
		}
	})

	for i := 0; i < 30; i++ {
		r.Tick(100 * time.Millisecond)
	}

	moved := 0
	l.Actors().Each(func(_ world.ActorHandle, a *world.Actor) {
		from, ok := before[a.Name]
		if !ok {
			return
		}
		d := a.Position.Sub(from)
		d.Y = 0
		if d.Len() > 0.5 {
			moved++
		}
	})
	if moved == 0 {
		t.Error("no bot moved in 3 seconds")
	}
}
