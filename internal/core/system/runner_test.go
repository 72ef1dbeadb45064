package system

import (
	"testing"

	"github.com/fragcore/arena/internal/core/clock"
)

func TestRunnerOrdersByPhase(t *testing.T) {
	r := NewRunner()
	var order []Phase
	for _, p := range []Phase{PhaseMessages, PhaseActors, PhaseRespawn, PhaseDeathZones, PhaseActors} {
		p := p
		r.Register(Func{P: p, Fn: func(clock.GameTime) { order = append(order, p) }})
	}
	r.Tick(clock.GameTime{Delta: 1.0 / 60})

	want := []Phase{PhaseRespawn, PhaseDeathZones, PhaseActors, PhaseActors, PhaseMessages}
	if len(order) != len(want) {
		t.Fatalf("ran %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("ran %v, want %v", order, want)
		}
	}
}

func TestTickPhaseRunsOnlyThatPhase(t *testing.T) {
	r := NewRunner()
	ran := map[Phase]int{}
	for _, p := range []Phase{PhaseWeapons, PhaseProjectiles} {
		p := p
		r.Register(Func{P: p, Fn: func(clock.GameTime) { ran[p]++ }})
	}
	r.TickPhase(PhaseProjectiles, clock.GameTime{})
	if ran[PhaseProjectiles] != 1 || ran[PhaseWeapons] != 0 {
		t.Fatalf("ran = %v", ran)
	}
}
