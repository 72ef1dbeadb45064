package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/fragcore/arena/internal/config"
	"github.com/fragcore/arena/internal/host"
	"github.com/fragcore/arena/internal/watch"
)

const frameInterval = 33 * time.Millisecond

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
	// The viewer owns the terminal; only errors reach stderr.
	log, err := host.NewLogger(config.LoggingConfig{Level: "error", Format: "json"})
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

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	viewer := watch.New(screen, rt.Arena)

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	ticker := time.NewTicker(cfg.Simulation.TickRate)
	defer ticker.Stop()
	frames := time.NewTicker(frameInterval)
	defer frames.Stop()

	last := time.Now()
	for {
		select {
		case ev := <-eventChan:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if m, ok := watch.Command(ev); ok {
					rt.Session.Handle(m)
				}
			case *tcell.EventResize:
				screen.Sync()
			}
			if rt.Session.Done() {
				return nil
			}
		case now := <-ticker.C:
			rt.Tick(now.Sub(last))
			last = now
			if rt.Session.Done() {
				return nil
			}
		case <-frames.C:
			status := ""
			if rt.Session.Finished() {
				status = "match over: n new game, q quit"
			}
			viewer.Draw(rt.Session.Level(), status)
		}
	}
}
