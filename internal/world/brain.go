package world

import (
	"github.com/fragcore/arena/internal/data"
	"github.com/fragcore/arena/internal/geom"
)

// pointOfInterestMemory is how long a bot keeps chasing the place it was
// last shot from.
const pointOfInterestMemory = 10.0

// BotView is the read-only snapshot a Brain decides from.
type BotView struct {
	Name     string
	Kind     data.BotKind
	Position geom.Vec3
	Health   float64
	Armor    float64
	Ammo     int
	Time     float64
	Grounded bool

	HasTarget      bool
	TargetName     string
	TargetPosition geom.Vec3
	TargetDistance float64

	HasPointOfInterest bool
	PointOfInterest    geom.Vec3
	PointOfInterestAge float64

	ViewDistance   float64
	AttackDistance float64
}

// CommandKind enumerates what a bot can be told to do in one tick.
type CommandKind uint8

const (
	CommandIdle CommandKind = iota
	CommandMoveTo
	CommandStrafe
	CommandJump
	CommandShoot
	CommandWander
)

var commandNames = [...]string{"idle", "move_to", "strafe", "jump", "shoot", "wander"}

func (k CommandKind) String() string {
	if int(k) < len(commandNames) {
		return commandNames[k]
	}
	return "unknown"
}

// ParseCommandKind maps a command name to its kind.
func ParseCommandKind(s string) (CommandKind, bool) {
	for i, n := range commandNames {
		if n == s {
			return CommandKind(i), true
		}
	}
	return CommandIdle, false
}

// BotCommand is one instruction. Target is used by move_to and shoot, Side
// (-1 left, +1 right) by strafe.
type BotCommand struct {
	Kind   CommandKind
	Target geom.Vec3
	Side   float64
}

// Brain decides what a bot does this tick.
type Brain interface {
	Think(view BotView) []BotCommand
}

// DefaultBrain chases and shoots the visible target, investigates where it
// was last hurt from, and wanders otherwise.
type DefaultBrain struct{}

func (DefaultBrain) Think(view BotView) []BotCommand {
	if view.HasTarget {
		cmds := make([]BotCommand, 0, 2)
		if view.TargetDistance > view.AttackDistance {
			cmds = append(cmds, BotCommand{Kind: CommandMoveTo, Target: view.TargetPosition})
		} else {
			side := 1.0
			// Change strafe direction every two seconds.
			if int(view.Time/2)%2 == 1 {
				side = -1
			}
			cmds = append(cmds, BotCommand{Kind: CommandStrafe, Side: side})
		}
		if view.Ammo > 0 {
			cmds = append(cmds, BotCommand{Kind: CommandShoot, Target: view.TargetPosition})
		}
		return cmds
	}
	if view.HasPointOfInterest && view.PointOfInterestAge < pointOfInterestMemory {
		return []BotCommand{{Kind: CommandMoveTo, Target: view.PointOfInterest}}
	}
	return []BotCommand{{Kind: CommandWander}}
}
