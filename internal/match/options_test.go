package match

import (
	"testing"

	"github.com/fragcore/arena/internal/visit"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		opts Options
		want string
	}{
		{DeathMatch{TimeLimitSecs: 600, FragLimit: 20}, "Death Match - Time Limit 00:10:00"},
		{TeamDeathMatch{TimeLimitSecs: 3725}, "Team Death Match - Time Limit 01:02:05"},
		{CaptureTheFlag{TimeLimitSecs: 59}, "Capture The Flag - Time Limit 00:00:59"},
	}
	for _, tt := range tests {
		if got := Describe(tt.opts); got != tt.want {
			t.Errorf("Describe(%#v) = %q, want %q", tt.opts, got, tt.want)
		}
	}
}

func TestVisitRoundTrip(t *testing.T) {
	var in Options = TeamDeathMatch{TimeLimitSecs: 300, TeamFragLimit: 50}
	w := visit.NewWriter()
	if err := Visit(w, "Options", &in); err != nil {
		t.Fatal(err)
	}
	var out Options
	if err := Visit(visit.NewReader(w.Root()), "Options", &out); err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Fatalf("round trip = %#v, want %#v", out, in)
	}
}

func TestVisitRejectsUnknownMode(t *testing.T) {
	w := visit.NewWriter()
	w.Region("Options", func() error {
		id, limit, goal := 9, 1.0, 1
		w.Int("ModeId", &id)
		w.Float("TimeLimit", &limit)
		return w.Int("Limit", &goal)
	})
	var out Options
	if err := Visit(visit.NewReader(w.Root()), "Options", &out); err == nil {
		t.Fatal("unknown mode id accepted")
	}
	if out != nil {
		t.Fatalf("options modified on failed load: %#v", out)
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("team_deathmatch"); err != nil || m != ModeTeamDeathMatch {
		t.Fatalf("ParseMode = %v, %v", m, err)
	}
	if _, err := ParseMode("king_of_the_hill"); err == nil {
		t.Fatal("unknown mode accepted")
	}
}
