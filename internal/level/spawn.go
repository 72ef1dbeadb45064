package level

import (
	"fmt"
	"math"
	"math/rand"

	"go.uber.org/zap"

	"github.com/fragcore/arena/internal/data"
	"github.com/fragcore/arena/internal/geom"
	"github.com/fragcore/arena/internal/match"
	"github.com/fragcore/arena/internal/visit"
	"github.com/fragcore/arena/internal/world"
)

// RespawnKind tags a RespawnEntry. The numeric value is the save id.
type RespawnKind uint8

const (
	RespawnBot RespawnKind = iota
	RespawnPlayer
)

// RespawnEntry is a pending respawn. Bot and Name are meaningful for bot
// entries only.
type RespawnEntry struct {
	Kind     RespawnKind
	Name     string
	Bot      data.BotKind
	TimeLeft float64
}

func (e *RespawnEntry) visit(v *visit.Visitor) error {
	id := int(e.Kind)
	if err := v.Int("KindId", &id); err != nil {
		return err
	}
	if v.IsReading() {
		switch RespawnKind(id) {
		case RespawnBot, RespawnPlayer:
			e.Kind = RespawnKind(id)
		default:
			return fmt.Errorf("invalid respawn entry kind %d", id)
		}
	}
	if err := v.Float("TimeLeft", &e.TimeLeft); err != nil {
		return err
	}
	if e.Kind == RespawnPlayer {
		return nil
	}
	if err := v.String("Name", &e.Name); err != nil {
		return err
	}
	bot := int(e.Bot)
	if err := v.Int("BotKind", &bot); err != nil {
		return err
	}
	if v.IsReading() {
		kind, err := data.BotKindFromID(bot)
		if err != nil {
			return err
		}
		e.Bot = kind
	}
	return nil
}

// SelectSpawnPoint returns the index of the point farthest (by summed
// distance) from the given actor positions. Ties keep the first point.
// With no actors the choice is random.
func SelectSpawnPoint(points []world.SpawnPoint, actors []geom.Vec3, rnd *rand.Rand) int {
	if len(points) == 0 {
		return -1
	}
	if len(actors) == 0 {
		return rnd.Intn(len(points))
	}
	index, best := 0, -math.MaxFloat64
	for i, pt := range points {
		sum := 0.0
		for _, p := range actors {
			sum += pt.Position.Dist(p)
		}
		if sum > best {
			index, best = i, sum
		}
	}
	return index
}

func (l *Level) findSpawnPosition() geom.Vec3 {
	positions := make([]geom.Vec3, 0, l.actors.Len())
	l.actors.Each(func(_ world.ActorHandle, a *world.Actor) {
		positions = append(positions, a.SyncPosition(l.env.Physics))
	})
	i := SelectSpawnPoint(l.spawnPoints, positions, l.env.Rand)
	if i < 0 {
		return geom.Zero
	}
	return l.spawnPoints[i].Position
}

// pickTeam balances team sizes in team modes and returns TeamNone otherwise.
func (l *Level) pickTeam() match.Team {
	if _, ok := l.options.(match.DeathMatch); ok {
		return match.TeamNone
	}
	red, blue := 0, 0
	l.actors.Each(func(_ world.ActorHandle, a *world.Actor) {
		switch a.Team {
		case match.TeamRed:
			red++
		case match.TeamBlue:
			blue++
		}
	})
	if blue < red {
		return match.TeamBlue
	}
	return match.TeamRed
}

func (l *Level) spawnPlayer() (world.ActorHandle, bool) {
	if h, ok := l.Player(); ok {
		return h, true
	}
	a := world.NewPlayer(playerName, l.queue)
	a.Team = l.pickTeam()
	h, err := l.actors.Spawn(&l.ctx, a, l.findSpawnPosition().Add(geom.V(0, 1.5, 0)))
	if err != nil {
		l.log.Warn("spawn player failed", zap.Error(err))
		return world.ActorHandle(0), false
	}
	l.leaderBoard.GetOrAdd(playerName)
	for i, kind := range PlayerLoadout {
		l.giveNewWeapon(h, kind, i == len(PlayerLoadout)-1)
	}
	l.player = h
	l.spectator.Active = false
	return h, true
}

func (l *Level) spawnBot(kind data.BotKind, name string) (world.ActorHandle, bool) {
	h, ok := l.addBot(kind, l.findSpawnPosition(), name)
	if ok {
		a, _ := l.actors.Get(h)
		l.queue.Send(world.AddNotification{Text: fmt.Sprintf("Bot %s spawned!", a.Name)})
	}
	return h, ok
}

// addBot places a bot at position. An empty name is generated from the kind
// and the current actor count.
func (l *Level) addBot(kind data.BotKind, position geom.Vec3, name string) (world.ActorHandle, bool) {
	def := l.defs.Bot(kind)
	if def == nil {
		l.log.Warn("no bot definition", zap.Stringer("kind", kind))
		return world.ActorHandle(0), false
	}
	if name == "" {
		name = fmt.Sprintf("Bot %s %d", kind, l.actors.Len())
	}
	a := world.NewBot(def, name, l.queue)
	a.Team = l.pickTeam()
	h, err := l.actors.Spawn(&l.ctx, a, position)
	if err != nil {
		l.log.Warn("spawn bot failed", zap.String("name", name), zap.Error(err))
		return world.ActorHandle(0), false
	}
	l.leaderBoard.GetOrAdd(name)
	l.giveNewWeapon(h, def.Weapon, true)
	return h, true
}

// removeActor frees the actor and drops each of its weapons as a temporary
// pickup where it stood.
func (l *Level) removeActor(h world.ActorHandle) {
	a, ok := l.actors.Free(h, l.env.Physics, l.env.Scene)
	if !ok {
		return
	}
	for _, wh := range a.Weapons {
		if w, ok := l.weapons.Get(wh); ok {
			l.spawnItem(world.SpawnItem{
				Kind:         data.WeaponItem(w.Kind),
				Position:     a.Position,
				AdjustHeight: true,
				Lifetime:     droppedWeaponLifetime,
				HasLifetime:  true,
			})
		}
		l.projectiles.ResetOwner(wh)
		l.weapons.Free(wh, l.env.Scene)
	}
	if l.player == h {
		l.player = world.ActorHandle(0)
	}
}

// respawnActor counts the death, schedules the respawn and removes the
// actor. A dying player hands the view to the spectator camera, which drops
// to the floor below.
func (l *Level) respawnActor(h world.ActorHandle) {
	a, ok := l.actors.Get(h)
	if !ok {
		return
	}
	l.leaderBoard.AddDeath(a.Name)

	entry := RespawnEntry{Kind: RespawnPlayer, TimeLeft: RespawnTime}
	if a.IsBot() {
		entry = RespawnEntry{Kind: RespawnBot, Name: a.Name, Bot: a.Bot.Kind, TimeLeft: RespawnTime}
	} else {
		eye := a.CameraPosition(l.env.Scene)
		target, hit := l.pick(eye, eye.Sub(geom.V(0, 1000, 0)), a.Body)
		if hit {
			// Keep the camera above the floor.
			target.Y += 0.1
		}
		l.spectator.Position = eye
		l.spectator.Target = target
		l.spectator.Active = true
		l.env.Scene.SetLocalPosition(l.spectator.Node, eye)
	}

	l.removeActor(h)
	l.respawns = append(l.respawns, entry)
}
