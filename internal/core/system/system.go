package system

import "github.com/fragcore/arena/internal/core/clock"

// Phase defines execution ordering within a single tick. The order is
// load-bearing: death zones are tested before actors move, and messages are
// replayed only after every container finished its pass.
type Phase int

const (
	PhaseRespawn     Phase = iota // 0: respawn countdowns
	PhaseProximity                // 1: drain trigger-volume events
	PhaseSpectator                // 2: death-cam follow
	PhaseDeathZones               // 3: kill volumes
	PhaseWeapons                  // 4: recoil, laser sight
	PhaseProjectiles              // 5: movement, hits, lifetime
	PhaseItems                    // 6: pickups, expiry
	PhaseActors                   // 7: input and bot brains
	PhaseContacts                 // 8: drain contact events
	PhaseMatchEnd                 // 9: frag and time limits
	PhaseMessages                 // 10: replay queued messages
)

var phaseNames = [...]string{
	"respawn", "proximity", "spectator", "death_zones", "weapons",
	"projectiles", "items", "actors", "contacts", "match_end", "messages",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// System is one step of the tick.
type System interface {
	Phase() Phase
	Update(t clock.GameTime)
}

// Func adapts a plain function to System.
type Func struct {
	P  Phase
	Fn func(t clock.GameTime)
}

func (f Func) Phase() Phase            { return f.P }
func (f Func) Update(t clock.GameTime) { f.Fn(t) }
