// Package host assembles a runnable match from configuration: data tables,
// the bot brain, audio, the optional results database and the session.
package host

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fragcore/arena/internal/audio"
	"github.com/fragcore/arena/internal/config"
	"github.com/fragcore/arena/internal/data"
	"github.com/fragcore/arena/internal/game"
	"github.com/fragcore/arena/internal/level"
	"github.com/fragcore/arena/internal/persist"
	"github.com/fragcore/arena/internal/physics"
	"github.com/fragcore/arena/internal/scene"
	"github.com/fragcore/arena/internal/scripting"
	"github.com/fragcore/arena/internal/world"
)

// Runtime is everything a host loop needs. Engine, Mixer, DB and Results
// are nil when their section is disabled.
type Runtime struct {
	Config  *config.Config
	Log     *zap.Logger
	Defs    *data.Definitions
	Arena   *data.ArenaMap
	Engine  *scripting.Engine
	Mixer   *audio.Mixer
	DB      *persist.DB
	Results *persist.MatchRepo
	Session *game.Session

	brain   world.Brain
	rand    *rand.Rand
	samples [][2]float64
}

// NewLogger builds the process logger: JSON in production format, colored
// console output otherwise.
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(cfg.Level)); err != nil {
		lvl = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(lvl)

	return zapCfg.Build()
}

// Start loads everything cfg points at and starts the first match.
func Start(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Runtime, error) {
	r := &Runtime{Config: cfg, Log: log, brain: world.DefaultBrain{}}

	var err error
	if cfg.Data.Dir == "" {
		r.Defs, err = data.Defaults()
	} else {
		r.Defs, err = data.LoadDefinitions(cfg.Data.Dir)
	}
	if err != nil {
		return nil, fmt.Errorf("load definitions: %w", err)
	}
	if cfg.Data.Map == "" {
		r.Arena, err = data.DefaultArena()
	} else {
		r.Arena, err = data.LoadArena(filepath.Join(cfg.Data.Dir, cfg.Data.Map))
	}
	if err != nil {
		return nil, fmt.Errorf("load arena: %w", err)
	}

	if cfg.Scripting.Dir != "" {
		r.Engine, err = scripting.NewEngine(cfg.Scripting.Dir, log.Named("lua"))
		if err != nil {
			return nil, fmt.Errorf("scripting: %w", err)
		}
		if r.Engine.HasFunction("bot_ai") {
			r.brain = scripting.NewBotBrain(r.Engine)
		} else {
			log.Warn("no bot_ai function in scripts, using built-in brain", zap.String("dir", cfg.Scripting.Dir))
		}
	}

	if cfg.Audio.Enabled {
		r.Mixer = audio.NewMixer(os.DirFS(cfg.Audio.SoundsDir), cfg.Audio.SampleRate, log.Named("audio"))
	}

	var store game.ResultStore
	if cfg.Database.Enabled {
		r.DB, err = persist.NewDB(ctx, cfg.Database, log.Named("db"))
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("database: %w", err)
		}
		if err := r.DB.Migrate(ctx); err != nil {
			r.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		r.Results = persist.NewMatchRepo(r.DB)
		store = r.Results
	}

	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	r.rand = rand.New(rand.NewSource(seed))

	options, err := cfg.Match.Options()
	if err != nil {
		r.Close()
		return nil, err
	}
	r.Session, err = game.NewSession(r.Defs, r.Arena, r.Env, game.Options{
		TickRate: cfg.Simulation.TickRate,
		SavePath: cfg.Save.Path,
		Match:    options,
		Level: level.Config{
			Bots:           cfg.Match.Bots,
			WithPlayer:     cfg.Match.WithPlayer,
			EventQueueSize: cfg.Simulation.EventQueueSize,
		},
	}, store, log)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("start session: %w", err)
	}
	return r, nil
}

// Env returns fresh collaborators for a level. Bot brain, audio sink and
// random source are shared between levels.
func (r *Runtime) Env() level.Env {
	env := level.Env{
		Physics: physics.NewWorld(),
		Scene:   scene.NewGraph(nil),
		Audio:   audio.Nop{},
		Brain:   r.brain,
		Rand:    r.rand,
		Log:     r.Log,
	}
	if r.Mixer != nil {
		env.Audio = r.Mixer
	}
	return env
}

// Tick advances the session by real time. With audio enabled the mix is
// pulled for the same span, centred on the player.
func (r *Runtime) Tick(real time.Duration) int {
	n := r.Session.Advance(real)
	if r.Mixer == nil {
		return n
	}
	l := r.Session.Level()
	if h, ok := l.Player(); ok {
		if a, ok := l.Actors().Get(h); ok {
			r.Mixer.SetListener(a.Position)
		}
	} else if s := l.Spectator(); s.Active {
		r.Mixer.SetListener(s.Position)
	}
	rate := r.Config.Audio.SampleRate
	if rate <= 0 {
		rate = audio.DefaultSampleRate
	}
	want := int(real.Seconds() * float64(rate))
	if cap(r.samples) < want {
		r.samples = make([][2]float64, want)
	}
	r.Mixer.Stream(r.samples[:want])
	return n
}

// Close releases the session and every connection Start opened.
func (r *Runtime) Close() {
	if r.Session != nil {
		r.Session.Close()
	}
	if r.Engine != nil {
		r.Engine.Close()
	}
	if r.DB != nil {
		r.DB.Close()
	}
}
