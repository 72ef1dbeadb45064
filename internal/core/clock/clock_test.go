package clock

import (
	"testing"
	"time"
)

func TestFixedStepCarriesRemainder(t *testing.T) {
	f := NewFixedStep(10*time.Millisecond, 100)
	ticks := 0
	f.Advance(25*time.Millisecond, func(GameTime) { ticks++ })
	if ticks != 2 {
		t.Fatalf("ticks = %d, want 2", ticks)
	}
	f.Advance(6*time.Millisecond, func(GameTime) { ticks++ })
	if ticks != 3 {
		t.Fatalf("ticks after remainder = %d, want 3", ticks)
	}
	if got := f.Now().Elapsed; got < 0.0299 || got > 0.0301 {
		t.Fatalf("elapsed = %f, want 0.03", got)
	}
}

func TestFixedStepCapsBacklog(t *testing.T) {
	f := NewFixedStep(10*time.Millisecond, 4)
	n := f.Advance(time.Second, func(GameTime) {})
	if n != 4 {
		t.Fatalf("ticks = %d, want 4", n)
	}
	if n := f.Advance(0, func(GameTime) {}); n != 0 {
		t.Fatalf("backlog not dropped: %d ticks", n)
	}
}
