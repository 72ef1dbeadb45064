// Package game owns the running level: it drives the fixed-step clock and
// handles the messages that replace or persist the level as a whole.
package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fragcore/arena/internal/core/clock"
	"github.com/fragcore/arena/internal/data"
	"github.com/fragcore/arena/internal/level"
	"github.com/fragcore/arena/internal/match"
	"github.com/fragcore/arena/internal/persist"
	"github.com/fragcore/arena/internal/savegame"
	"github.com/fragcore/arena/internal/world"
)

const (
	maxStepsPerAdvance = 8
	storeTimeout       = 5 * time.Second
)

// ErrNoSavePath is returned by Save and Load when no save path is set.
var ErrNoSavePath = errors.New("game: no save path configured")

// EnvFactory returns fresh collaborators for a new level. Each level owns
// its physics world and scene, so a failed load never disturbs the
// running one.
type EnvFactory func() level.Env

// ResultStore keeps finished match results.
type ResultStore interface {
	SaveResult(ctx context.Context, res persist.MatchResult) error
}

// Options configures a Session.
type Options struct {
	TickRate time.Duration
	SavePath string
	Match    match.Options
	Level    level.Config
}

type Session struct {
	log    *zap.Logger
	defs   *data.Definitions
	arena  *data.ArenaMap
	newEnv EnvFactory
	opts   Options
	store  ResultStore

	clock    *clock.FixedStep
	level    *level.Level
	matchID  uuid.UUID
	finished bool
	quit     bool
	pending  []world.Message
}

// NewSession starts the first match. store may be nil.
func NewSession(defs *data.Definitions, arena *data.ArenaMap, newEnv EnvFactory, opts Options, store ResultStore, log *zap.Logger) (*Session, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Match == nil {
		opts.Match = match.Default()
	}
	s := &Session{
		log:    log.Named("session"),
		defs:   defs,
		arena:  arena,
		newEnv: newEnv,
		opts:   opts,
		store:  store,
		clock:  clock.NewFixedStep(opts.TickRate, maxStepsPerAdvance),
	}
	if err := s.StartNewGame(opts.Match); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) Level() *level.Level    { return s.level }
func (s *Session) MatchID() uuid.UUID     { return s.matchID }
func (s *Session) Finished() bool         { return s.finished }
func (s *Session) Done() bool             { return s.quit }
func (s *Session) Now() clock.GameTime    { return s.clock.Now() }
func (s *Session) Send(m world.Message)   { s.level.Sender().Send(m) }
func (s *Session) Options() match.Options { return s.level.Options() }

// Advance runs as many fixed ticks as real covers. Each tick steps physics,
// updates the level and then handles the session messages the level
// produced. A finished match no longer ticks.
func (s *Session) Advance(real time.Duration) int {
	if s.quit {
		return 0
	}
	return s.clock.Advance(real, func(t clock.GameTime) {
		if s.finished || s.quit {
			return
		}
		s.level.StepPhysics(t.Delta)
		s.level.Update(t)
		s.handlePending()
	})
}

func (s *Session) onMessage(m world.Message) {
	s.pending = append(s.pending, m)
}

// handlePending runs outside the level's drain so the level can be
// replaced safely. Messages queued behind a restart or load are still
// handled, against the new level.
func (s *Session) handlePending() {
	for len(s.pending) > 0 {
		m := s.pending[0]
		s.pending = s.pending[1:]
		s.Handle(m)
	}
}

// Handle applies a session message immediately. Hosts use it for requests
// that must work while the match is frozen.
func (s *Session) Handle(m world.Message) {
	switch m := m.(type) {
	case world.StartNewGame:
		if err := s.StartNewGame(m.Options); err != nil {
			s.fail("start new game", err)
		}
	case world.SaveGame:
		if err := s.Save(); err != nil {
			s.fail("save", err)
		}
	case world.LoadGame:
		if err := s.Load(); err != nil {
			s.fail("load", err)
		}
	case world.QuitGame:
		s.Quit()
	case world.EndMatch:
		s.EndMatch()
	}
}

func (s *Session) fail(what string, err error) {
	s.log.Warn(what+" failed", zap.Error(err))
	s.level.Sender().Send(world.AddNotification{Text: fmt.Sprintf("Failed to %s: %v", what, err)})
}

// StartNewGame replaces the current level with a fresh one under options.
// On error the current level keeps running.
func (s *Session) StartNewGame(options match.Options) error {
	if options == nil {
		options = s.opts.Match
	}
	l, err := level.New(s.defs, s.arena, options, s.newEnv(), s.opts.Level)
	if err != nil {
		return fmt.Errorf("new level: %w", err)
	}
	s.swap(l, uuid.New())
	s.log.Info("match started",
		zap.Stringer("match_id", s.matchID),
		zap.String("rules", match.Describe(options)))
	return nil
}

// Save writes the current level to the save path.
func (s *Session) Save() error {
	if s.opts.SavePath == "" {
		return ErrNoSavePath
	}
	if err := savegame.SaveFile(s.opts.SavePath, s.level, s.matchID); err != nil {
		return err
	}
	s.log.Info("game saved", zap.String("path", s.opts.SavePath), zap.Stringer("match_id", s.matchID))
	s.level.Sender().Send(world.AddNotification{Text: "Game saved"})
	return nil
}

// Load replaces the current level with the one in the save file. The
// current level is untouched when the save cannot be read.
func (s *Session) Load() error {
	if s.opts.SavePath == "" {
		return ErrNoSavePath
	}
	l, id, err := savegame.LoadFile(s.opts.SavePath, s.defs, s.arena, s.newEnv(), s.opts.Level.EventQueueSize)
	if err != nil {
		return err
	}
	s.swap(l, id)
	s.log.Info("game loaded", zap.String("path", s.opts.SavePath), zap.Stringer("match_id", id))
	return nil
}

func (s *Session) swap(l *level.Level, id uuid.UUID) {
	if s.level != nil {
		s.level.Destroy()
	}
	l.SetSessionHandler(s.onMessage)
	s.level = l
	s.matchID = id
	s.finished = l.MatchOver()
	s.clock.Restore(l.Time())
}

// EndMatch freezes the match and stores its result.
func (s *Session) EndMatch() {
	if s.finished {
		return
	}
	s.finished = true
	lb := s.level.LeaderBoard()
	s.log.Info("match finished",
		zap.Stringer("match_id", s.matchID),
		zap.String("leader", lb.Headline(s.level.Options())))
	if s.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	res := persist.ResultFromLeaderBoard(s.matchID, s.level.Options(), lb, s.level.Time())
	if err := s.store.SaveResult(ctx, res); err != nil {
		s.log.Error("store match result", zap.Error(err))
	}
}

// Quit stops the session; Advance does nothing afterwards.
func (s *Session) Quit() {
	if !s.quit {
		s.log.Info("quit requested")
	}
	s.quit = true
}

// Close releases the current level.
func (s *Session) Close() {
	if s.level != nil {
		s.level.Destroy()
		s.level = nil
	}
}
