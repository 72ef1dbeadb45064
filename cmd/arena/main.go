package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fragcore/arena/internal/config"
	"github.com/fragcore/arena/internal/host"
	"github.com/fragcore/arena/internal/match"
)

const (
	// statusInterval is how often the standings are logged.
	statusInterval = 10 * time.Second
	topPlayers     = 5
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(config.Path("config/arena.toml"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := host.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rt, err := host.Start(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer rt.Close()

	log.Info("arena started",
		zap.String("server", cfg.Server.Name),
		zap.String("arena", rt.Arena.Name),
		zap.Stringer("match_id", rt.Session.MatchID()),
		zap.Duration("tick", cfg.Simulation.TickRate),
		zap.Bool("lua", rt.Engine != nil),
		zap.Bool("audio", rt.Mixer != nil),
		zap.Bool("database", rt.DB != nil))

	if rt.Results != nil {
		top, err := rt.Results.TopPlayers(ctx, topPlayers)
		if err != nil {
			log.Warn("load top players", zap.Error(err))
		}
		for i, p := range top {
			log.Info("all time top player",
				zap.Int("rank", i+1),
				zap.String("name", p.Name),
				zap.Int("kills", p.Kills),
				zap.Int("deaths", p.Deaths),
				zap.Int("matches", p.Matches))
		}
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Simulation.TickRate)
	defer ticker.Stop()
	status := time.NewTicker(statusInterval)
	defer status.Stop()

	last := time.Now()
	for {
		select {
		case now := <-ticker.C:
			rt.Tick(now.Sub(last))
			last = now
			if rt.Session.Done() {
				log.Info("session ended")
				return nil
			}
		case <-status.C:
			l := rt.Session.Level()
			log.Info("standings",
				zap.String("rules", match.Describe(l.Options())),
				zap.Float64("time", l.Time()),
				zap.String("leader", l.LeaderBoard().Headline(l.Options())),
				zap.Int("bots", l.Actors().CountBots()),
				zap.Uint64("dropped_physics_events", l.DroppedEvents()),
				zap.Bool("finished", rt.Session.Finished()))
		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()))
			if err := rt.Session.Save(); err != nil {
				log.Error("save on shutdown", zap.Error(err))
			}
			return nil
		}
	}
}
