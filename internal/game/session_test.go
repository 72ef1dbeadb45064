package game

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/fragcore/arena/internal/audio"
	"github.com/fragcore/arena/internal/data"
	"github.com/fragcore/arena/internal/level"
	"github.com/fragcore/arena/internal/match"
	"github.com/fragcore/arena/internal/persist"
	"github.com/fragcore/arena/internal/physics"
	"github.com/fragcore/arena/internal/savegame"
	"github.com/fragcore/arena/internal/scene"
	"github.com/fragcore/arena/internal/world"
)

const tick = 10 * time.Millisecond

type idleBrain struct{}

func (idleBrain) Think(world.BotView) []world.BotCommand {
	return []world.BotCommand{{Kind: world.CommandIdle}}
}

type fakeStore struct {
	results []persist.MatchResult
}

func (f *fakeStore) SaveResult(_ context.Context, res persist.MatchResult) error {
	f.results = append(f.results, res)
	return nil
}

func newEnv() level.Env {
	ph := physics.NewWorld()
	ph.Gravity = 0
	return level.Env{
		Physics: ph,
		Scene:   scene.NewGraph(nil),
		Audio:   audio.Nop{},
		Brain:   idleBrain{},
		Rand:    rand.New(rand.NewSource(11)),
		Log:     zap.NewNop(),
	}
}

func newSession(t *testing.T, store ResultStore) *Session {
	t.Helper()
	defs, err := data.Defaults()
	if err != nil {
		t.Fatalf("Defaults: %v", err)
	}
	arena := &data.ArenaMap{
		Name:        "test",
		SpawnPoints: []data.Vec{{-10, 0, 0}, {10, 0, 0}},
	}
	s, err := NewSession(defs, arena, newEnv, Options{
		TickRate: tick,
		SavePath: filepath.Join(t.TempDir(), "quick.sav"),
		Level:    level.Config{Bots: []data.BotKind{data.BotMaw}, WithPlayer: true},
	}, store, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func run(s *Session, n int) {
	for i := 0; i < n; i++ {
		s.Advance(tick)
	}
}

func near(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}

func TestAdvanceRunsFixedTicks(t *testing.T) {
	s := newSession(t, nil)
	if n := s.Advance(35 * time.Millisecond); n != 3 {
		t.Fatalf("ticks = %d, want 3", n)
	}
	if got := s.Level().Time(); !near(got, 0.03) {
		t.Errorf("level time = %v, want 0.03", got)
	}
}

func TestSaveAndLoadRestoresLevel(t *testing.T) {
	s := newSession(t, nil)
	run(s, 10)
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	saved, id := s.Level().Time(), s.MatchID()

	run(s, 10)
	if err := s.StartNewGame(nil); err != nil {
		t.Fatalf("StartNewGame: %v", err)
	}
	if s.MatchID() == id {
		t.Fatal("new game kept the match id")
	}

	if err := s.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := s.Level().Time(); got != saved {
		t.Errorf("level time = %v, want %v", got, saved)
	}
	if got := s.Now().Elapsed; got != saved {
		t.Errorf("clock = %v, want %v", got, saved)
	}
	if s.MatchID() != id {
		t.Errorf("match id = %s, want %s", s.MatchID(), id)
	}
	if _, ok := s.Level().Player(); !ok {
		t.Error("player missing after load")
	}
}

func TestFailedLoadKeepsCurrentLevel(t *testing.T) {
	s := newSession(t, nil)
	if err := os.WriteFile(s.opts.SavePath, []byte("not a save"), 0o644); err != nil {
		t.Fatal(err)
	}
	before := s.Level()
	s.Send(world.LoadGame{})
	run(s, 2)

	if s.Level() != before {
		t.Fatal("level replaced by a failed load")
	}
	found := false
	for _, n := range s.Level().Notifications() {
		if strings.HasPrefix(n, "Failed to load") {
			found = true
		}
	}
	if !found {
		t.Errorf("no failure notification in %q", s.Level().Notifications())
	}
}

func TestStartNewGameMessage(t *testing.T) {
	s := newSession(t, nil)
	run(s, 5)
	id := s.MatchID()
	s.Send(world.StartNewGame{Options: match.TeamDeathMatch{TimeLimitSecs: 60, TeamFragLimit: 5}})
	run(s, 1)

	if s.MatchID() == id {
		t.Error("match id unchanged")
	}
	if s.Options().Mode() != match.ModeTeamDeathMatch {
		t.Errorf("mode = %s", s.Options().Mode())
	}
	if got := s.Level().Time(); got != 0 {
		t.Errorf("level time = %v, want 0", got)
	}
}

func TestEndMatchStoresResultOnce(t *testing.T) {
	store := &fakeStore{}
	s := newSession(t, store)
	run(s, 3)
	s.Send(world.EndMatch{})
	s.Send(world.EndMatch{})
	run(s, 1)

	if !s.Finished() {
		t.Fatal("match not finished")
	}
	if len(store.results) != 1 {
		t.Fatalf("stored results = %d, want 1", len(store.results))
	}
	if res := store.results[0]; res.ID != s.MatchID() || len(res.Scores) != 2 {
		t.Errorf("result = %+v", res)
	}

	frozen := s.Level().Time()
	run(s, 5)
	if s.Level().Time() != frozen {
		t.Error("finished match kept ticking")
	}
}

func TestQuitGameMessage(t *testing.T) {
	s := newSession(t, nil)
	s.Send(world.QuitGame{})
	run(s, 1)
	if !s.Done() {
		t.Fatal("session not done")
	}
	if n := s.Advance(time.Second); n != 0 {
		t.Errorf("ticks after quit = %d, want 0", n)
	}
}

func TestHandleRestartsFinishedMatch(t *testing.T) {
	s := newSession(t, nil)
	s.EndMatch()
	if n := s.Advance(tick); n != 1 || s.Level().Time() != 0 {
		t.Fatalf("frozen match advanced to %v", s.Level().Time())
	}
	s.Handle(world.StartNewGame{})
	if s.Finished() {
		t.Fatal("new match starts finished")
	}
	run(s, 2)
	if !near(s.Level().Time(), 0.02) {
		t.Errorf("level time = %v, want 0.02", s.Level().Time())
	}
}

func TestMessagesBehindRestartAreKept(t *testing.T) {
	s := newSession(t, nil)
	run(s, 3)
	old := s.MatchID()
	s.Send(world.StartNewGame{})
	s.Send(world.SaveGame{})
	run(s, 1)

	if s.MatchID() == old {
		t.Fatal("match not restarted")
	}
	f, err := os.Open(s.opts.SavePath)
	if err != nil {
		t.Fatalf("save queued behind the restart was dropped: %v", err)
	}
	defer f.Close()
	h, _, err := savegame.Decode(f)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if h.MatchID != s.MatchID() {
		t.Errorf("saved match %s, want the new match %s", h.MatchID, s.MatchID())
	}
}
