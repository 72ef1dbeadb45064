package level

import (
	"github.com/fragcore/arena/internal/core/clock"
	"github.com/fragcore/arena/internal/core/system"
	"github.com/fragcore/arena/internal/physics"
	"github.com/fragcore/arena/internal/world"
)

// registerSystems wires one system per tick step. The runner orders them by
// phase, so registration order only matters within a phase.
func (l *Level) registerSystems() {
	l.runner.Register(&RespawnSystem{level: l})
	l.runner.Register(&ProximitySystem{level: l})
	l.runner.Register(&SpectatorSystem{level: l})
	l.runner.Register(&DeathZoneSystem{level: l})
	l.runner.Register(system.Func{P: system.PhaseWeapons, Fn: func(clock.GameTime) { l.weapons.Update(&l.ctx) }})
	l.runner.Register(system.Func{P: system.PhaseProjectiles, Fn: func(clock.GameTime) { l.projectiles.Update(&l.ctx) }})
	l.runner.Register(system.Func{P: system.PhaseItems, Fn: func(clock.GameTime) { l.items.Update(&l.ctx) }})
	l.runner.Register(system.Func{P: system.PhaseActors, Fn: func(clock.GameTime) { l.actors.Update(&l.ctx) }})
	l.runner.Register(&ContactSystem{level: l})
	l.runner.Register(&MatchEndSystem{level: l})
	l.runner.Register(&MessageSystem{level: l})
}

// respawnEpsilon absorbs float drift so that a countdown of n whole ticks
// fires on exactly the n-th tick.
const respawnEpsilon = 1e-6

// RespawnSystem counts down pending respawns and requests the spawn once a
// countdown runs out. Entries are removed in the tick they fire.
type RespawnSystem struct {
	level *Level
}

func (s *RespawnSystem) Phase() system.Phase { return system.PhaseRespawn }

func (s *RespawnSystem) Update(t clock.GameTime) {
	l := s.level
	kept := l.respawns[:0]
	for _, e := range l.respawns {
		e.TimeLeft -= t.Delta
		if e.TimeLeft > respawnEpsilon {
			kept = append(kept, e)
			continue
		}
		switch e.Kind {
		case RespawnBot:
			l.queue.Send(world.SpawnBot{Kind: e.Bot, Name: e.Name})
		case RespawnPlayer:
			l.queue.Send(world.SpawnPlayer{})
		}
	}
	l.respawns = kept
}

// ProximitySystem routes trigger volume events to jump pads and
// projectiles.
type ProximitySystem struct {
	level *Level
}

func (s *ProximitySystem) Phase() system.Phase { return system.PhaseProximity }

func (s *ProximitySystem) Update(_ clock.GameTime) {
	l := s.level
	l.events.DrainProximity(func(ev physics.ProximityEvent) {
		if l.jumpPads.HandleProximity(ev, &l.ctx) {
			return
		}
		l.projectiles.HandleProximity(ev, l.deathZones)
	})
}

// SpectatorSystem eases the death camera towards its target and ages
// visual effects.
type SpectatorSystem struct {
	level *Level
}

func (s *SpectatorSystem) Phase() system.Phase { return system.PhaseSpectator }

func (s *SpectatorSystem) Update(t clock.GameTime) {
	l := s.level
	if l.spectator.Active {
		l.spectator.Position = l.spectator.Position.Follow(l.spectator.Target, spectatorFollow)
		l.env.Scene.SetLocalPosition(l.spectator.Node, l.spectator.Position)
	}

	kept := l.effects[:0]
	for _, e := range l.effects {
		e.TimeLeft -= t.Delta
		if e.TimeLeft > 0 {
			kept = append(kept, e)
		}
	}
	l.effects = kept
}

// DeathZoneSystem requests a respawn for every actor inside a kill volume.
// An actor inside overlapping zones is reported once per zone; the respawn
// handler ignores handles that are already gone.
type DeathZoneSystem struct {
	level *Level
}

func (s *DeathZoneSystem) Phase() system.Phase { return system.PhaseDeathZones }

func (s *DeathZoneSystem) Update(_ clock.GameTime) {
	l := s.level
	l.actors.Each(func(h world.ActorHandle, a *world.Actor) {
		pos, ok := l.env.Physics.BodyPosition(a.Body)
		if !ok {
			pos = a.Position
		}
		for _, z := range l.deathZones {
			if z.Bounds.Contains(pos) {
				l.queue.Send(world.RespawnActor{Actor: h})
			}
		}
	})
}

// ContactSystem feeds contact events to actors for ground tracking and
// fall damage.
type ContactSystem struct {
	level *Level
}

func (s *ContactSystem) Phase() system.Phase { return system.PhaseContacts }

func (s *ContactSystem) Update(_ clock.GameTime) {
	l := s.level
	l.events.DrainContacts(func(ev physics.ContactEvent) {
		l.actors.HandleContact(ev, &l.ctx)
	})
}

// MatchEndSystem sends EndMatch once when a limit is reached.
type MatchEndSystem struct {
	level *Level
}

func (s *MatchEndSystem) Phase() system.Phase { return system.PhaseMatchEnd }

func (s *MatchEndSystem) Update(_ clock.GameTime) {
	l := s.level
	if l.matchOver || !l.leaderBoard.IsMatchOver(l.options, l.time) {
		return
	}
	l.matchOver = true
	l.log.Info("match over")
	l.queue.Send(world.EndMatch{})
}

// MessageSystem replays the message bus until it is empty.
type MessageSystem struct {
	level *Level
}

func (s *MessageSystem) Phase() system.Phase { return system.PhaseMessages }

func (s *MessageSystem) Update(_ clock.GameTime) {
	s.level.queue.Drain(s.level.handleMessage)
}
