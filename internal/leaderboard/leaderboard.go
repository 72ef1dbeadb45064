// Package leaderboard keeps per-actor and per-team scores of a match.
package leaderboard

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"

	"github.com/fragcore/arena/internal/match"
	"github.com/fragcore/arena/internal/visit"
)

// PersonalScore is one actor's tally.
type PersonalScore struct {
	Kills  int
	Deaths int
}

// KD formats the kill/death ratio, "N/A" before the first death.
func (s PersonalScore) KD() string {
	if s.Deaths == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", float64(s.Kills)/float64(s.Deaths))
}

// Entry is a named score as returned by Standings.
type Entry struct {
	Name string
	PersonalScore
}

// LeaderBoard maps actor names to scores. Entries appear on first
// reference; team totals survive actor removal.
type LeaderBoard struct {
	personal map[string]*PersonalScore
	teams    map[match.Team]int
}

func New() *LeaderBoard {
	return &LeaderBoard{
		personal: make(map[string]*PersonalScore),
		teams:    make(map[match.Team]int),
	}
}

// Names are compared in NFC so that visually identical names share a row.
func key(name string) string { return norm.NFC.String(name) }

// GetOrAdd returns the score of name, creating an empty one if needed.
func (lb *LeaderBoard) GetOrAdd(name string) *PersonalScore {
	k := key(name)
	s, ok := lb.personal[k]
	if !ok {
		s = &PersonalScore{}
		lb.personal[k] = s
	}
	return s
}

func (lb *LeaderBoard) RemoveActor(name string) { delete(lb.personal, key(name)) }

func (lb *LeaderBoard) AddFrag(name string)  { lb.GetOrAdd(name).Kills++ }
func (lb *LeaderBoard) AddDeath(name string) { lb.GetOrAdd(name).Deaths++ }

// ScoreOf returns the kills of name, zero for unknown names.
func (lb *LeaderBoard) ScoreOf(name string) int {
	if s, ok := lb.personal[key(name)]; ok {
		return s.Kills
	}
	return 0
}

// Score returns the full tally of name.
func (lb *LeaderBoard) Score(name string) (PersonalScore, bool) {
	s, ok := lb.personal[key(name)]
	if !ok {
		return PersonalScore{}, false
	}
	return *s, true
}

func (lb *LeaderBoard) AddTeamFrag(t match.Team)   { lb.teams[t]++ }
func (lb *LeaderBoard) TeamScore(t match.Team) int { return lb.teams[t] }

func (lb *LeaderBoard) Len() int { return len(lb.personal) }

// HighestPersonalScore returns the leader by kills, skipping except (pass
// "" to consider everyone). Ties go to the alphabetically first name.
func (lb *LeaderBoard) HighestPersonalScore(except string) (name string, kills int, ok bool) {
	skip := key(except)
	for n, s := range lb.personal {
		if except != "" && n == skip {
			continue
		}
		if !ok || s.Kills > kills || (s.Kills == kills && n < name) {
			name, kills, ok = n, s.Kills, true
		}
	}
	return name, kills, ok
}

// Standings lists every actor by kills descending, then deaths ascending,
// then name.
func (lb *LeaderBoard) Standings() []Entry {
	out := make([]Entry, 0, len(lb.personal))
	for n, s := range lb.personal {
		out = append(out, Entry{Name: n, PersonalScore: *s})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Kills != b.Kills {
			return a.Kills > b.Kills
		}
		if a.Deaths != b.Deaths {
			return a.Deaths < b.Deaths
		}
		return a.Name < b.Name
	})
	return out
}

// Headline is the leader summary shown above the table.
func (lb *LeaderBoard) Headline(o match.Options) string {
	switch o := o.(type) {
	case match.DeathMatch:
		if name, kills, ok := lb.HighestPersonalScore(""); ok {
			return fmt.Sprintf("%s leads with %d frags\nPlaying until %d frags", name, kills, o.FragLimit)
		}
		return fmt.Sprintf("Draw\nPlaying until %d frags", o.FragLimit)
	case match.TeamDeathMatch:
		red, blue := lb.TeamScore(match.TeamRed), lb.TeamScore(match.TeamBlue)
		leader := match.TeamBlue
		if red > blue {
			leader = match.TeamRed
		}
		return fmt.Sprintf("%s team leads\nRed %d - %d Blue\nPlaying until %d frags", leader, red, blue, o.TeamFragLimit)
	case match.CaptureTheFlag:
		return fmt.Sprintf("Red team leads\nRed 0 - 0 Blue\nPlaying until %d flags", o.FlagLimit)
	}
	return ""
}

// IsMatchOver reports whether the score limit of o is reached or elapsed
// seconds passed its time limit. A zero limit disables that check.
func (lb *LeaderBoard) IsMatchOver(o match.Options, elapsed float64) bool {
	if limit := o.TimeLimit(); limit > 0 && elapsed >= limit {
		return true
	}
	switch o := o.(type) {
	case match.DeathMatch:
		if o.FragLimit <= 0 {
			return false
		}
		_, kills, ok := lb.HighestPersonalScore("")
		return ok && kills >= o.FragLimit
	case match.TeamDeathMatch:
		if o.TeamFragLimit <= 0 {
			return false
		}
		return lb.TeamScore(match.TeamRed) >= o.TeamFragLimit || lb.TeamScore(match.TeamBlue) >= o.TeamFragLimit
	}
	// Flags are never captured yet, only the clock ends a CTF match.
	return false
}

const nameColumn = 20

// displayWidth counts East Asian wide and fullwidth runes as two cells.
func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}

// pad right-pads s with spaces to w display cells.
func pad(s string, w int) string {
	if d := w - displayWidth(s); d > 0 {
		return s + strings.Repeat(" ", d)
	}
	return s
}

// Table renders the full scoreboard as text: header, headline and one row
// per actor.
func (lb *LeaderBoard) Table(o match.Options) string {
	var b strings.Builder
	b.WriteString(match.Describe(o))
	b.WriteByte('\n')
	b.WriteString(lb.Headline(o))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s %6s %6s %6s\n", pad("Name", nameColumn), "Kills", "Deaths", "K/D")
	for _, e := range lb.Standings() {
		fmt.Fprintf(&b, "%s %6d %6d %6s\n", pad(e.Name, nameColumn), e.Kills, e.Deaths, e.KD())
	}
	return b.String()
}

func (lb *LeaderBoard) Visit(v *visit.Visitor, name string) error {
	return v.Region(name, func() error {
		entries := lb.Standings()
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
		err := visit.Slice(v, "PersonalScore", &entries, func(v *visit.Visitor, e *Entry) error {
			if err := v.String("Name", &e.Name); err != nil {
				return err
			}
			if err := v.Int("Kills", &e.Kills); err != nil {
				return err
			}
			return v.Int("Deaths", &e.Deaths)
		})
		if err != nil {
			return err
		}
		red, blue := lb.teams[match.TeamRed], lb.teams[match.TeamBlue]
		err = v.Region("TeamScore", func() error {
			if err := v.Int("Red", &red); err != nil {
				return err
			}
			return v.Int("Blue", &blue)
		})
		if err != nil {
			return err
		}
		if v.IsReading() {
			lb.personal = make(map[string]*PersonalScore, len(entries))
			for _, e := range entries {
				s := e.PersonalScore
				lb.personal[key(e.Name)] = &s
			}
			lb.teams = map[match.Team]int{match.TeamRed: red, match.TeamBlue: blue}
		}
		return nil
	})
}
