// Package match describes the rules a level is played under.
package match

import (
	"fmt"

	"github.com/fragcore/arena/internal/visit"
)

// Mode identifies the game mode. The numeric value is the save id.
type Mode uint8

const (
	ModeDeathMatch Mode = iota
	ModeTeamDeathMatch
	ModeCaptureTheFlag
)

func (m Mode) String() string {
	switch m {
	case ModeDeathMatch:
		return "deathmatch"
	case ModeTeamDeathMatch:
		return "team_deathmatch"
	case ModeCaptureTheFlag:
		return "capture_the_flag"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// ParseMode accepts the config spelling of a mode.
func ParseMode(s string) (Mode, error) {
	for _, m := range []Mode{ModeDeathMatch, ModeTeamDeathMatch, ModeCaptureTheFlag} {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown match mode %q", s)
}

// Options is a closed sum type: exactly one of the mode structs below.
type Options interface {
	Mode() Mode
	// TimeLimit is in seconds.
	TimeLimit() float64
	isOptions()
}

type DeathMatch struct {
	TimeLimitSecs float64
	FragLimit     int
}

type TeamDeathMatch struct {
	TimeLimitSecs float64
	TeamFragLimit int
}

type CaptureTheFlag struct {
	TimeLimitSecs float64
	FlagLimit     int
}

func (DeathMatch) Mode() Mode     { return ModeDeathMatch }
func (TeamDeathMatch) Mode() Mode { return ModeTeamDeathMatch }
func (CaptureTheFlag) Mode() Mode { return ModeCaptureTheFlag }

func (o DeathMatch) TimeLimit() float64     { return o.TimeLimitSecs }
func (o TeamDeathMatch) TimeLimit() float64 { return o.TimeLimitSecs }
func (o CaptureTheFlag) TimeLimit() float64 { return o.TimeLimitSecs }

func (DeathMatch) isOptions()     {}
func (TeamDeathMatch) isOptions() {}
func (CaptureTheFlag) isOptions() {}

// Default is a ten minute, twenty frag death match.
func Default() Options {
	return DeathMatch{TimeLimitSecs: 600, FragLimit: 20}
}

// Describe returns the scoreboard header, e.g.
// "Death Match - Time Limit 00:10:00".
func Describe(o Options) string {
	secs := int(o.TimeLimit())
	h, m, s := secs/3600, (secs/60)%60, secs%60
	var name string
	switch o.Mode() {
	case ModeTeamDeathMatch:
		name = "Team Death Match"
	case ModeCaptureTheFlag:
		name = "Capture The Flag"
	default:
		name = "Death Match"
	}
	return fmt.Sprintf("%s - Time Limit %02d:%02d:%02d", name, h, m, s)
}

// Visit saves or restores *o. An unknown mode id fails the load.
func Visit(v *visit.Visitor, name string, o *Options) error {
	return v.Region(name, func() error {
		var (
			id    int
			limit float64
			goal  int
		)
		if !v.IsReading() {
			id = int((*o).Mode())
			limit = (*o).TimeLimit()
			switch opt := (*o).(type) {
			case DeathMatch:
				goal = opt.FragLimit
			case TeamDeathMatch:
				goal = opt.TeamFragLimit
			case CaptureTheFlag:
				goal = opt.FlagLimit
			}
		}
		if err := v.Int("ModeId", &id); err != nil {
			return err
		}
		if err := v.Float("TimeLimit", &limit); err != nil {
			return err
		}
		if err := v.Int("Limit", &goal); err != nil {
			return err
		}
		if !v.IsReading() {
			return nil
		}
		switch Mode(id) {
		case ModeDeathMatch:
			*o = DeathMatch{TimeLimitSecs: limit, FragLimit: goal}
		case ModeTeamDeathMatch:
			*o = TeamDeathMatch{TimeLimitSecs: limit, TeamFragLimit: goal}
		case ModeCaptureTheFlag:
			*o = CaptureTheFlag{TimeLimitSecs: limit, FlagLimit: goal}
		default:
			return fmt.Errorf("unknown match mode id %d", id)
		}
		return nil
	})
}
