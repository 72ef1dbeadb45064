// Package watch draws a running level top-down in a terminal: X to the
// right, Z downwards, with the standings beside the map.
package watch

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/text/width"

	"github.com/fragcore/arena/internal/data"
	"github.com/fragcore/arena/internal/geom"
	"github.com/fragcore/arena/internal/level"
	"github.com/fragcore/arena/internal/match"
	"github.com/fragcore/arena/internal/world"
)

const (
	sidebarWidth = 44
	// minMapWidth is the narrowest map that still gets a sidebar next to it.
	minMapWidth = 20
	margin      = 2.0
)

var (
	styleDefault = tcell.StyleDefault
	styleBorder  = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleZone    = tcell.StyleDefault.Foreground(tcell.ColorDarkRed)
	stylePad     = tcell.StyleDefault.Foreground(tcell.ColorAqua)
	styleItem    = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleShot    = tcell.StyleDefault.Foreground(tcell.ColorOrange)
	stylePlayer  = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleBot     = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleStatus  = tcell.StyleDefault.Foreground(tcell.ColorSilver)
)

// Viewer renders levels of one arena onto a screen.
type Viewer struct {
	screen tcell.Screen
	bounds geom.AABB

	// map viewport, recomputed on every Draw
	cols, rows int
}

// New sizes the viewport to everything placed on arena.
func New(screen tcell.Screen, arena *data.ArenaMap) *Viewer {
	return &Viewer{screen: screen, bounds: arenaBounds(arena)}
}

func arenaBounds(arena *data.ArenaMap) geom.AABB {
	var pts []geom.Vec3
	for _, p := range arena.SpawnPoints {
		pts = append(pts, p.V())
	}
	for _, b := range arena.Geometry {
		pts = append(pts, b.Min.V(), b.Max.V())
	}
	for _, b := range arena.DeathZones {
		pts = append(pts, b.Min.V(), b.Max.V())
	}
	for _, jp := range arena.JumpPads {
		pts = append(pts, jp.Begin.V(), jp.End.V())
	}
	for _, it := range arena.Items {
		pts = append(pts, it.Position.V())
	}
	if len(pts) == 0 {
		pts = append(pts, geom.Vec3{})
	}
	b := geom.FromPoints(pts...)
	pad := geom.V(margin, 0, margin)
	return geom.AABB{Min: b.Min.Sub(pad), Max: b.Max.Add(pad)}
}

func (v *Viewer) layout() (sidebarX int) {
	w, h := v.screen.Size()
	v.rows = h - 1
	if w-sidebarWidth >= minMapWidth {
		v.cols = w - sidebarWidth
		return v.cols
	}
	v.cols = w
	return -1
}

// Project maps a world position to a cell inside the map border.
func (v *Viewer) Project(p geom.Vec3) (x, y int, ok bool) {
	innerW, innerH := v.cols-2, v.rows-2
	if innerW <= 0 || innerH <= 0 {
		return 0, 0, false
	}
	spanX := v.bounds.Max.X - v.bounds.Min.X
	spanZ := v.bounds.Max.Z - v.bounds.Min.Z
	if spanX <= 0 || spanZ <= 0 {
		return 0, 0, false
	}
	fx := (p.X - v.bounds.Min.X) / spanX
	fz := (p.Z - v.bounds.Min.Z) / spanZ
	if fx < 0 || fx > 1 || fz < 0 || fz > 1 {
		return 0, 0, false
	}
	x = 1 + int(fx*float64(innerW-1)+0.5)
	y = 1 + int(fz*float64(innerH-1)+0.5)
	return x, y, true
}

// Draw renders l and shows the frame. status goes on the bottom line; an
// empty status shows the latest notification.
func (v *Viewer) Draw(l *level.Level, status string) {
	v.screen.Clear()
	sidebarX := v.layout()
	v.drawBorder()

	for _, z := range l.DeathZones() {
		v.fill(z.Bounds, '~', styleZone)
	}
	l.JumpPads().Each(func(_ world.JumpPadHandle, j *world.JumpPad) {
		v.plot(j.Bounds.Center(), '^', stylePad)
	})
	l.Items().Each(func(_ world.ItemHandle, it *world.Item) {
		if it.IsActive() {
			v.plot(it.Position, '+', styleItem)
		}
	})
	l.Projectiles().Each(func(_ world.ProjectileHandle, p *world.Projectile) {
		v.plot(p.Position, '*', styleShot)
	})
	l.Actors().Each(func(_ world.ActorHandle, a *world.Actor) {
		v.plot(a.Position, actorRune(a), actorStyle(a))
	})
	if s := l.Spectator(); s.Active {
		v.plot(s.Position, 'o', stylePlayer)
	}

	if sidebarX >= 0 {
		v.drawSidebar(sidebarX+1, l)
	}

	if status == "" {
		if n := l.Notifications(); len(n) > 0 {
			status = n[len(n)-1]
		}
	}
	_, h := v.screen.Size()
	v.text(0, h-1, styleStatus, status)
	v.screen.Show()
}

func actorRune(a *world.Actor) rune {
	if a.IsPlayer() {
		return '@'
	}
	for _, r := range a.Name {
		return unicode.ToUpper(r)
	}
	return 'B'
}

func actorStyle(a *world.Actor) tcell.Style {
	switch a.Team {
	case match.TeamRed:
		return styleDefault.Foreground(tcell.ColorRed).Bold(a.IsPlayer())
	case match.TeamBlue:
		return styleDefault.Foreground(tcell.ColorBlue).Bold(a.IsPlayer())
	}
	if a.IsPlayer() {
		return stylePlayer
	}
	return styleBot
}

func (v *Viewer) plot(p geom.Vec3, r rune, style tcell.Style) {
	if x, y, ok := v.Project(p); ok {
		v.screen.SetContent(x, y, r, nil, style)
	}
}

func (v *Viewer) fill(b geom.AABB, r rune, style tcell.Style) {
	x0, y0, ok0 := v.Project(b.Min)
	x1, y1, ok1 := v.Project(b.Max)
	if !ok0 || !ok1 {
		v.plot(b.Center(), r, style)
		return
	}
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			v.screen.SetContent(x, y, r, nil, style)
		}
	}
}

func (v *Viewer) drawBorder() {
	w, h := v.cols, v.rows
	if w < 2 || h < 2 {
		return
	}
	for x := 1; x < w-1; x++ {
		v.screen.SetContent(x, 0, tcell.RuneHLine, nil, styleBorder)
		v.screen.SetContent(x, h-1, tcell.RuneHLine, nil, styleBorder)
	}
	for y := 1; y < h-1; y++ {
		v.screen.SetContent(0, y, tcell.RuneVLine, nil, styleBorder)
		v.screen.SetContent(w-1, y, tcell.RuneVLine, nil, styleBorder)
	}
	v.screen.SetContent(0, 0, tcell.RuneULCorner, nil, styleBorder)
	v.screen.SetContent(w-1, 0, tcell.RuneURCorner, nil, styleBorder)
	v.screen.SetContent(0, h-1, tcell.RuneLLCorner, nil, styleBorder)
	v.screen.SetContent(w-1, h-1, tcell.RuneLRCorner, nil, styleBorder)
}

func (v *Viewer) drawSidebar(x int, l *level.Level) {
	o := l.Options()
	lb := l.LeaderBoard()
	lines := strings.Split(strings.TrimRight(lb.Table(o), "\n"), "\n")
	y := 0
	for _, line := range lines {
		if y >= v.rows {
			return
		}
		v.text(x, y, styleDefault, line)
		y++
	}
	if o.Mode() == match.ModeTeamDeathMatch && y+2 < v.rows {
		y++
		v.text(x, y, styleDefault.Foreground(tcell.ColorRed), "Red  "+strconv.Itoa(lb.TeamScore(match.TeamRed)))
		v.text(x, y+1, styleDefault.Foreground(tcell.ColorBlue), "Blue "+strconv.Itoa(lb.TeamScore(match.TeamBlue)))
		y += 2
	}
	if l.MatchOver() && y+1 < v.rows {
		v.text(x, y+1, stylePlayer, "MATCH OVER")
	}
}

// text draws s from (x, y), giving East Asian wide runes two cells.
func (v *Viewer) text(x, y int, style tcell.Style, s string) {
	for _, r := range s {
		v.screen.SetContent(x, y, r, nil, style)
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			x += 2
		default:
			x++
		}
	}
}
