package match

import (
	"fmt"

	"github.com/fragcore/arena/internal/visit"
)

// Team of an actor. The numeric value is the save id.
type Team uint8

const (
	TeamNone Team = iota
	TeamRed
	TeamBlue
)

func (t Team) String() string {
	switch t {
	case TeamRed:
		return "Red"
	case TeamBlue:
		return "Blue"
	}
	return "None"
}

// Opponent returns the other team; TeamNone has no opponent.
func (t Team) Opponent() Team {
	switch t {
	case TeamRed:
		return TeamBlue
	case TeamBlue:
		return TeamRed
	}
	return TeamNone
}

// VisitTeam saves or restores a team id, rejecting unknown ids.
func VisitTeam(v *visit.Visitor, name string, t *Team) error {
	id := int(*t)
	if err := v.Int(name, &id); err != nil {
		return err
	}
	if v.IsReading() {
		if id < int(TeamNone) || id > int(TeamBlue) {
			return fmt.Errorf("invalid team id %d", id)
		}
		*t = Team(id)
	}
	return nil
}
