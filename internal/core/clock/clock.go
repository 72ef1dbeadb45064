package clock

import "time"

// GameTime is the simulation clock passed to every update. Elapsed is the
// total simulated time in seconds, Delta the fixed step of the current tick.
type GameTime struct {
	Elapsed float64
	Delta   float64
}

// FixedStep converts wall-clock time into whole fixed ticks. Leftover time
// smaller than one step carries over to the next Advance call.
type FixedStep struct {
	step     float64
	acc      float64
	time     GameTime
	maxSteps int
}

// NewFixedStep returns an accumulator ticking at rate. maxSteps caps the
// number of ticks produced by one Advance so a long stall does not spiral.
func NewFixedStep(rate time.Duration, maxSteps int) *FixedStep {
	if rate <= 0 {
		rate = time.Second / 60
	}
	if maxSteps <= 0 {
		maxSteps = 8
	}
	step := rate.Seconds()
	return &FixedStep{step: step, maxSteps: maxSteps, time: GameTime{Delta: step}}
}

func (f *FixedStep) Step() float64 { return f.step }
func (f *FixedStep) Now() GameTime { return f.time }

// Advance adds real elapsed time and calls tick once per whole step.
// It returns the number of ticks run.
func (f *FixedStep) Advance(real time.Duration, tick func(GameTime)) int {
	f.acc += real.Seconds()
	n := 0
	for f.acc >= f.step && n < f.maxSteps {
		f.acc -= f.step
		f.time.Elapsed += f.step
		tick(f.time)
		n++
	}
	if n == f.maxSteps && f.acc >= f.step {
		// Drop the backlog instead of trying to catch up.
		f.acc = 0
	}
	return n
}

// Restore sets the elapsed simulation time, used after loading a save.
func (f *FixedStep) Restore(elapsed float64) {
	f.time.Elapsed = elapsed
	f.acc = 0
}
