package level

import (
	"github.com/fragcore/arena/internal/core/pool"
	"github.com/fragcore/arena/internal/data"
	"github.com/fragcore/arena/internal/match"
	"github.com/fragcore/arena/internal/visit"
	"github.com/fragcore/arena/internal/world"
)

// Visit saves or restores the whole level state. Map geometry is not part
// of the save; it is rebuilt from the arena by Attach.
func (l *Level) Visit(v *visit.Visitor, name string) error {
	return v.Region(name, func() error {
		if err := match.Visit(v, "Options", &l.options); err != nil {
			return err
		}
		if err := v.Float("Time", &l.time); err != nil {
			return err
		}
		if err := l.actors.Visit(v, "Actors"); err != nil {
			return err
		}
		if err := l.weapons.Visit(v, "Weapons"); err != nil {
			return err
		}
		if err := l.projectiles.Visit(v, "Projectiles"); err != nil {
			return err
		}
		if err := l.items.Visit(v, "Items"); err != nil {
			return err
		}
		if err := l.jumpPads.Visit(v, "JumpPads"); err != nil {
			return err
		}
		if err := visit.Slice(v, "DeathZones", &l.deathZones, func(v *visit.Visitor, z *world.DeathZone) error {
			return z.Visit(v, "DeathZone")
		}); err != nil {
			return err
		}
		if err := visit.Slice(v, "SpawnPoints", &l.spawnPoints, func(v *visit.Visitor, p *world.SpawnPoint) error {
			return p.Visit(v, "Position")
		}); err != nil {
			return err
		}
		if err := visit.Slice(v, "RespawnList", &l.respawns, func(v *visit.Visitor, e *RespawnEntry) error {
			return e.visit(v)
		}); err != nil {
			return err
		}
		if err := l.leaderBoard.Visit(v, "LeaderBoard"); err != nil {
			return err
		}
		if err := pool.VisitHandle(v, "Player", &l.player); err != nil {
			return err
		}
		if err := v.Region("Spectator", func() error {
			if err := v.Vec3("Position", &l.spectator.Position); err != nil {
				return err
			}
			if err := v.Vec3("Target", &l.spectator.Target); err != nil {
				return err
			}
			return v.Bool("Active", &l.spectator.Active)
		}); err != nil {
			return err
		}
		return v.Bool("MatchOver", &l.matchOver)
	})
}

// Load restores a level saved with Visit and attaches it to env. On error
// nothing created so far is kept alive in env.
func Load(v *visit.Visitor, name string, defs *data.Definitions, arena *data.ArenaMap, env Env, queueSize int) (*Level, error) {
	l := newLevel(defs, arena, nil, env, queueSize)
	if err := l.Visit(v, name); err != nil {
		return nil, err
	}
	if err := l.Attach(); err != nil {
		l.Destroy()
		return nil, err
	}
	return l, nil
}
