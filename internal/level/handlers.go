package level

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/fragcore/arena/internal/audio"
	"github.com/fragcore/arena/internal/data"
	"github.com/fragcore/arena/internal/geom"
	"github.com/fragcore/arena/internal/match"
	"github.com/fragcore/arena/internal/physics"
	"github.com/fragcore/arena/internal/world"
)

// handleMessage applies one bus message. Handlers referring to handles that
// are no longer valid do nothing.
func (l *Level) handleMessage(m world.Message) {
	switch m := m.(type) {
	case world.GiveNewWeapon:
		l.giveNewWeapon(m.Actor, m.Kind, true)
	case world.AddBot:
		l.addBot(m.Kind, m.Position, m.Name)
	case world.RemoveActor:
		l.removeActor(m.Actor)
	case world.GiveItem:
		l.giveItem(m.Actor, m.Kind)
	case world.PickUpItem:
		l.pickUpItem(m.Actor, m.Item)
	case world.ShootWeapon:
		l.shootWeapon(m)
	case world.CreateProjectile:
		l.createProjectile(m)
	case world.ShowWeapon:
		if w, ok := l.weapons.Get(m.Weapon); ok {
			w.SetVisible(l.env.Scene, m.State)
		}
	case world.SpawnBot:
		l.spawnBot(m.Kind, m.Name)
	case world.DamageActor:
		l.damageActor(m)
	case world.CreateEffect:
		l.effects = append(l.effects, Effect{Kind: m.Kind, Position: m.Position, TimeLeft: effectLifetime})
	case world.SpawnPlayer:
		l.spawnPlayer()
	case world.SpawnItem:
		l.spawnItem(m)
	case world.RespawnActor:
		l.respawnActor(m.Actor)
	case world.PlaySound:
		l.env.Audio.PlaySound(audio.Request{
			Path:     m.Path,
			Position: m.Position,
			Gain:     m.Gain,
			Rolloff:  m.Rolloff,
			Radius:   m.Radius,
		})
	case world.AddNotification:
		l.notify(m.Text)
	case world.StartNewGame, world.SaveGame, world.LoadGame, world.QuitGame, world.EndMatch:
		if l.onSession != nil {
			l.onSession(m)
		}
	default:
		l.log.Warn("unhandled message", zap.String("type", fmt.Sprintf("%T", m)))
	}
}

// giveNewWeapon creates a weapon of kind in the hands of actor.
func (l *Level) giveNewWeapon(actor world.ActorHandle, kind data.WeaponKind, visible bool) {
	a, ok := l.actors.Get(actor)
	if !ok {
		return
	}
	def := l.defs.Weapon(kind)
	if def == nil {
		l.log.Warn("no weapon definition", zap.Stringer("kind", kind))
		return
	}
	w := world.NewWeapon(def, actor, l.queue)
	w.Visible = visible
	a.AddWeapon(l.weapons.Spawn(&l.ctx, w))
	l.queue.Send(world.AddNotification{Text: fmt.Sprintf("Actor picked up weapon %s", kind)})
}

// weaponOf returns the weapon of kind held by a.
func (l *Level) weaponOf(a *world.Actor, kind data.WeaponKind) (*world.Weapon, bool) {
	for _, h := range a.Weapons {
		if w, ok := l.weapons.Get(h); ok && w.Kind == kind {
			return w, true
		}
	}
	return nil, false
}

// giveItem applies the effect of an item of kind to actor: heal, a new
// weapon (or ammo for one already held), or ammo.
func (l *Level) giveItem(actor world.ActorHandle, kind data.ItemKind) {
	a, ok := l.actors.Get(actor)
	if !ok {
		return
	}
	def := l.defs.Item(kind)
	if def == nil {
		return
	}
	switch {
	case def.Heal > 0:
		a.Heal(def.Heal)
	case def.Weapon != nil:
		if w, ok := l.weaponOf(a, *def.Weapon); ok {
			w.AddAmmo(def.Ammo)
		} else {
			l.giveNewWeapon(actor, *def.Weapon, true)
		}
	case def.AmmoFor != nil:
		if w, ok := l.weaponOf(a, *def.AmmoFor); ok {
			w.AddAmmo(def.Ammo)
		}
	}
}

func (l *Level) pickUpItem(actor world.ActorHandle, item world.ItemHandle) {
	if !l.actors.Contains(actor) {
		return
	}
	it, ok := l.items.Get(item)
	if !ok || !it.IsActive() {
		return
	}
	l.queue.Send(world.AddNotification{Text: fmt.Sprintf("Actor picked up item %s", it.Kind)})
	it.PickUp(l.env.Scene)
	sound := it.Def.PickupSound
	if sound == "" {
		sound = pickupSound
	}
	l.queue.Send(world.PlaySound{
		Path:     sound,
		Position: it.Position,
		Gain:     1,
		Rolloff:  3,
		Radius:   2,
	})
	l.giveItem(actor, it.Kind)
}

func (l *Level) shootWeapon(m world.ShootWeapon) {
	w, ok := l.weapons.Get(m.Weapon)
	if !ok || !w.TryShoot(l.ctx.Time.Elapsed) {
		return
	}
	dir := w.ShotDirection(l.env.Scene)
	if m.HasDirection {
		dir = m.Direction
	}
	l.createProjectile(world.CreateProjectile{
		Kind:            w.Def.Projectile,
		Position:        w.ShotPosition,
		Direction:       dir.NormalizeOr(geom.Forward),
		InitialVelocity: m.InitialVelocity,
		Owner:           m.Weapon,
	})
}

func (l *Level) createProjectile(m world.CreateProjectile) {
	def := l.defs.Projectile(m.Kind)
	if def == nil {
		l.log.Warn("no projectile definition", zap.Stringer("kind", m.Kind))
		return
	}
	l.projectiles.Spawn(&l.ctx, world.NewProjectile(def, m.Position, m.Direction, m.InitialVelocity, m.Owner))
}

// damageActor hurts the target, credits the frag on the killing blow and
// schedules the respawn of the dead actor. A bot remembers where the
// attacker stood.
func (l *Level) damageActor(m world.DamageActor) {
	a, ok := l.actors.Get(m.Actor)
	if !ok {
		return
	}
	var who *world.Actor
	if m.Who.IsSome() {
		if who, ok = l.actors.Get(m.Who); !ok {
			return
		}
	}

	if who != nil {
		l.queue.Send(world.AddNotification{Text: fmt.Sprintf("%s dealt %v damage to %s!", who.Name, m.Amount, a.Name)})
		if a.IsBot() {
			a.Bot.SetPointOfInterest(who.Position, l.ctx.Time.Elapsed)
		}
	} else {
		l.queue.Send(world.AddNotification{Text: fmt.Sprintf("%s took %v damage!", a.Name, m.Amount)})
	}

	wasDead := a.IsDead()
	a.Damage(m.Amount)
	if wasDead || !a.IsDead() {
		return
	}
	if who != nil && m.Who != m.Actor {
		l.leaderBoard.AddFrag(who.Name)
		if _, tdm := l.options.(match.TeamDeathMatch); tdm && who.Team != match.TeamNone && who.Team != a.Team {
			l.leaderBoard.AddTeamFrag(who.Team)
		}
	}
	l.queue.Send(world.RespawnActor{Actor: m.Actor})
}

func (l *Level) spawnItem(m world.SpawnItem) {
	def := l.defs.Item(m.Kind)
	if def == nil {
		l.log.Warn("no item definition", zap.Stringer("kind", m.Kind))
		return
	}
	pos := m.Position
	if m.AdjustHeight {
		pos, _ = l.pick(pos, pos.Sub(geom.V(0, 1000, 0)), physics.NoBody)
	}
	it := world.NewItem(def, pos, l.queue)
	if m.HasLifetime {
		it.SetLifetime(m.Lifetime)
	}
	l.items.Spawn(&l.ctx, it)
}
