package world

import (
	"math"
	"math/rand"
	"testing"

	"go.uber.org/zap"

	"github.com/fragcore/arena/internal/core/clock"
	"github.com/fragcore/arena/internal/data"
	"github.com/fragcore/arena/internal/geom"
	"github.com/fragcore/arena/internal/physics"
	"github.com/fragcore/arena/internal/scene"
)

const tick = 1.0 / 60

func newTestContext(t *testing.T) (*UpdateContext, *Queue, *physics.World) {
	t.Helper()
	defs, err := data.Defaults()
	if err != nil {
		t.Fatalf("Defaults: %v", err)
	}
	ph := physics.NewWorld()
	ph.Gravity = 0
	q := NewQueue()
	ctx := &UpdateContext{
		Time:        clock.GameTime{Delta: tick},
		Physics:     ph,
		Scene:       scene.NewGraph(nil),
		Sender:      q,
		Defs:        defs,
		Rand:        rand.New(rand.NewSource(1)),
		Log:         zap.NewNop(),
		Actors:      NewActorContainer(),
		Weapons:     NewWeaponContainer(),
		Projectiles: NewProjectileContainer(),
		Items:       NewItemContainer(),
		JumpPads:    NewJumpPadContainer(),
	}
	return ctx, q, ph
}

func drain(q *Queue) []Message {
	var out []Message
	q.Drain(func(m Message) { out = append(out, m) })
	return out
}

func TestDamageIgnoresSign(t *testing.T) {
	a := NewCharacter("a", nil)
	b := NewCharacter("b", nil)
	a.Damage(5)
	b.Damage(-5)
	if a.Health != b.Health || a.Armor != b.Armor {
		t.Fatalf("Damage(5) = %v/%v, Damage(-5) = %v/%v", a.Health, a.Armor, b.Health, b.Armor)
	}
	if a.Armor != DefaultArmor-5 || a.Health != DefaultHealth {
		t.Fatalf("armor/health = %v/%v, want %v/%v", a.Armor, a.Health, DefaultArmor-5, DefaultHealth)
	}
}

func TestHealIsCapped(t *testing.T) {
	c := NewCharacter("c", nil)
	for i := 0; i < 100; i++ {
		c.Heal(37)
	}
	c.Heal(-1e9)
	if c.Health != MaxHealth {
		t.Fatalf("health = %v, want %v", c.Health, MaxHealth)
	}
}

func TestArmorSpillsIntoHealth(t *testing.T) {
	c := NewCharacter("c", nil)
	c.Armor = 10
	c.Health = 100
	c.Damage(15)
	if c.Armor != 0 || c.Health != 95 {
		t.Fatalf("armor/health = %v/%v, want 0/95", c.Armor, c.Health)
	}
	c.Damage(95)
	if !c.IsDead() {
		t.Fatalf("health %v should be dead", c.Health)
	}
}

func TestAddWeaponShowsOnlyNewest(t *testing.T) {
	q := NewQueue()
	c := NewCharacter("c", q)
	first := WeaponHandle(1<<32 | 0)
	second := WeaponHandle(1<<32 | 1)
	c.AddWeapon(first)
	drain(q)
	c.AddWeapon(second)

	msgs := drain(q)
	want := []ShowWeapon{{Weapon: first, State: false}, {Weapon: second, State: true}}
	if len(msgs) != len(want) {
		t.Fatalf("got %d messages, want %d: %v", len(msgs), len(want), msgs)
	}
	for i, m := range msgs {
		if m != Message(want[i]) {
			t.Errorf("message %d = %+v, want %+v", i, m, want[i])
		}
	}
	if c.CurrentWeaponHandle() != second {
		t.Fatalf("current = %v, want %v", c.CurrentWeaponHandle(), second)
	}

	c.RemoveWeapon(second)
	if c.CurrentWeaponHandle() != first {
		t.Fatalf("after remove current = %v, want %v", c.CurrentWeaponHandle(), first)
	}
	c.RemoveWeapon(first)
	if c.CurrentWeaponHandle().IsSome() {
		t.Fatal("empty weapon list still has a current weapon")
	}
}

func TestWeaponCooldownAndAmmo(t *testing.T) {
	def := &data.WeaponDefinition{Kind: data.WeaponM4, ShotSound: "sounds/m4.wav", Ammo: 2, FireInterval: 0.1, Recoil: 0.05}
	q := NewQueue()
	w := NewWeapon(def, ActorHandle(0), q)

	steps := []struct {
		at   float64
		want bool
	}{
		{0, true},
		{0.05, false},
		{0.1, true},
		{5, false}, // out of ammo
	}
	for _, s := range steps {
		if got := w.TryShoot(s.at); got != s.want {
			t.Fatalf("TryShoot(%v) = %v, want %v", s.at, got, s.want)
		}
	}
	if w.Ammo != 0 {
		t.Fatalf("ammo = %d, want 0", w.Ammo)
	}
	if n := q.Len(); n != 2 {
		t.Fatalf("queued %d sounds, want 2", n)
	}
	if w.Offset.Z != -def.Recoil {
		t.Fatalf("recoil offset = %v, want %v", w.Offset.Z, -def.Recoil)
	}
}

func TestWeaponRecoilEasesBack(t *testing.T) {
	def := &data.WeaponDefinition{Kind: data.WeaponM4, Ammo: 1, FireInterval: 0.1, Recoil: 0.05}
	tests := []struct {
		name  string
		from  geom.Vec3
		dest  geom.Vec3
		ticks int
		want  geom.Vec3
	}{
		{"one tick", geom.V(0, 0, -0.05), geom.Zero, 1, geom.V(0, 0, -0.04)},
		{"three ticks", geom.V(0, 0, -0.05), geom.Zero, 3, geom.V(0, 0, -0.0256)},
		{"towards rest offset", geom.Zero, geom.V(0, 0, 1), 2, geom.V(0, 0, 0.36)},
		{"at rest", geom.V(1, 2, 3), geom.V(1, 2, 3), 5, geom.V(1, 2, 3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWeapon(def, ActorHandle(0), nil)
			w.Offset = tt.from
			w.DestOffset = tt.dest
			for i := 0; i < tt.ticks; i++ {
				w.Update(nil)
			}
			if w.Offset.Dist(tt.want) > 1e-12 {
				t.Errorf("offset = %v, want %v", w.Offset, tt.want)
			}
		})
	}
}

func TestLaserSightFallsBackToOrigin(t *testing.T) {
	ctx, q, ph := newTestContext(t)
	owner, err := ctx.Actors.Spawn(ctx, NewPlayer("player", q), geom.Zero)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	wh := ctx.Weapons.Spawn(ctx, NewWeapon(ctx.Defs.Weapon(data.WeaponM4), owner, q))
	w, _ := ctx.Weapons.Get(wh)
	w.SetVisible(ctx.Scene, true)
	wall := ph.AddStaticBox(geom.AABB{Min: geom.V(-10, -10, 5), Max: geom.V(10, 10, 6)})

	steps := []struct {
		name   string
		before func()
		wantZ  float64
		origin bool
	}{
		{"wall ahead", func() {}, 5 - laserDotOffset, false},
		{"wall removed", func() { ph.RemoveBody(wall) }, 0, true},
		{"hidden", func() {
			ph.AddStaticBox(geom.AABB{Min: geom.V(-10, -10, 5), Max: geom.V(10, 10, 6)})
			w.SetVisible(ctx.Scene, false)
		}, 0, true},
	}
	for _, s := range steps {
		s.before()
		w.Update(ctx)
		if s.origin {
			if w.LaserDot != geom.Zero {
				t.Errorf("%s: laser dot = %v, want origin", s.name, w.LaserDot)
			}
			continue
		}
		if math.Abs(w.LaserDot.Z-s.wantZ) > 1e-9 {
			t.Errorf("%s: laser dot = %v, want z %v", s.name, w.LaserDot, s.wantZ)
		}
	}
}

func TestKinematicProjectileMovement(t *testing.T) {
	ctx, q, _ := newTestContext(t)
	def := *ctx.Defs.Projectile(data.ProjectileBullet)
	def.Lifetime = 10
	start := geom.V(0, 10, 0)
	h := ctx.Projectiles.Spawn(ctx, NewProjectile(&def, start, geom.Up, geom.V(1, 0, 0), WeaponHandle(0)))
	p, _ := ctx.Projectiles.Get(h)

	// Position gains the decaying initial velocity plus dir*speed each tick.
	tests := []struct {
		tick  int
		wantX float64
		wantV float64
	}{
		{1, 1, 0.85},
		{2, 1.85, 0.7225},
		{3, 2.5725, 0.614125},
	}
	for _, tt := range tests {
		ctx.Projectiles.Update(ctx)
		want := geom.V(tt.wantX, start.Y+float64(tt.tick)*def.Speed, 0)
		if p.Position.Dist(want) > 1e-9 {
			t.Fatalf("tick %d: position = %v, want %v", tt.tick, p.Position, want)
		}
		if math.Abs(p.InitialVelocity.X-tt.wantV) > 1e-9 {
			t.Fatalf("tick %d: initial velocity = %v, want x %v", tt.tick, p.InitialVelocity, tt.wantV)
		}
	}
	if ctx.Scene.LocalPosition(p.Model) != p.Position {
		t.Error("model not moved with the projectile")
	}
	for _, m := range drain(q) {
		if _, ok := m.(CreateEffect); ok {
			t.Fatalf("projectile in flight sent %+v", m)
		}
	}
}

func TestProjectileKilledByDeathZone(t *testing.T) {
	const (
		body   = physics.BodyID(7)
		zone   = physics.BodyID(3)
		pad = physics.BodyID(4)
	)
	zones := []DeathZone{{Sensor: zone}}
	tests := []struct {
		name string
		body physics.BodyID
		ev   physics.ProximityEvent
		dead bool
	}{
		{"enters zone", body, physics.ProximityEvent{Sensor: zone, Other: body, Entered: true}, true},
		{"leaves zone", body, physics.ProximityEvent{Sensor: zone, Other: body}, false},
		{"enters other sensor", body, physics.ProximityEvent{Sensor: pad, Other: body, Entered: true}, false},
		{"other body enters", body, physics.ProximityEvent{Sensor: zone, Other: 8, Entered: true}, false},
		{"bodiless projectile", physics.NoBody, physics.ProximityEvent{Sensor: zone, Other: physics.NoBody, Entered: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Projectile{Lifetime: 1, Body: tt.body}
			p.HandleProximity(tt.ev, zones)
			if p.IsDead() != tt.dead {
				t.Errorf("dead = %v, want %v", p.IsDead(), tt.dead)
			}
		})
	}
}

func TestLeavingGroundClearsGrounded(t *testing.T) {
	ctx, q, ph := newTestContext(t)
	ph.AddStaticBox(geom.AABB{Min: geom.V(-5, -1, -5), Max: geom.V(5, 0, 5)})
	sink := physics.NewEventSink(16)
	ph.SetEventSink(sink)
	h, err := ctx.Actors.Spawn(ctx, NewPlayer("player", q), geom.V(0, characterRadius, 0))
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	a, _ := ctx.Actors.Get(h)

	ph.Step(tick)
	sink.DrainContacts(func(ev physics.ContactEvent) { ctx.Actors.HandleContact(ev, ctx) })
	if !a.Grounded {
		t.Fatal("actor not grounded on the floor")
	}

	ph.SetBodyPosition(a.Body, geom.V(0, 3, 0))
	ph.Step(tick)
	ended := 0
	sink.DrainContacts(func(ev physics.ContactEvent) {
		if !ev.Started {
			ended++
			if ev.Normal == geom.Zero {
				t.Error("end of contact carries no normal")
			}
		}
		ctx.Actors.HandleContact(ev, ctx)
	})
	if ended != 1 {
		t.Fatalf("contact ends = %d, want 1", ended)
	}
	if a.Grounded {
		t.Error("actor still grounded in the air")
	}
}

func TestProjectileHitViaRayAndContactDamagesOnce(t *testing.T) {
	ctx, q, ph := newTestContext(t)
	target, err := ctx.Actors.Spawn(ctx, NewBot(ctx.Defs.Bot(data.BotMutant), "target", q), geom.V(0, 0, 5))
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	p := NewProjectile(ctx.Defs.Projectile(data.ProjectilePlasma), geom.V(0, 0, 5), geom.Forward, geom.Zero, WeaponHandle(0))
	p.LastPosition = geom.V(0, 0, 4)
	ctx.Projectiles.Spawn(ctx, p)
	ph.Step(0)

	ctx.Projectiles.Update(ctx)

	damage := 0
	effects := 0
	for _, m := range drain(q) {
		switch m := m.(type) {
		case DamageActor:
			if m.Actor != target {
				t.Fatalf("damaged %v, want %v", m.Actor, target)
			}
			damage++
		case CreateEffect:
			effects++
		}
	}
	if damage != 1 {
		t.Fatalf("DamageActor sent %d times, want 1", damage)
	}
	if effects != 1 {
		t.Fatalf("impact effects = %d, want 1", effects)
	}
	if ctx.Projectiles.Len() != 0 {
		t.Fatalf("dead projectile not freed, %d left", ctx.Projectiles.Len())
	}
}

func TestProjectileIgnoresOwner(t *testing.T) {
	ctx, q, ph := newTestContext(t)
	owner, err := ctx.Actors.Spawn(ctx, NewBot(ctx.Defs.Bot(data.BotMaw), "owner", q), geom.V(0, 0, 5))
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	weapon := ctx.Weapons.Spawn(ctx, NewWeapon(ctx.Defs.Weapon(data.WeaponPlasmaRifle), owner, q))
	p := NewProjectile(ctx.Defs.Projectile(data.ProjectilePlasma), geom.V(0, 0, 5), geom.Forward, geom.Zero, weapon)
	p.LastPosition = geom.V(0, 0, 4)
	h := ctx.Projectiles.Spawn(ctx, p)
	ph.Step(0)
	drain(q)

	ctx.Projectiles.Update(ctx)

	for _, m := range drain(q) {
		if d, ok := m.(DamageActor); ok {
			t.Fatalf("owner damaged by own projectile: %+v", d)
		}
	}
	if !ctx.Projectiles.Contains(h) {
		t.Fatal("projectile died on its owner")
	}
}

func TestProjectileExpiresAfterLifetime(t *testing.T) {
	ctx, q, _ := newTestContext(t)
	def := *ctx.Defs.Projectile(data.ProjectileBullet)
	def.Lifetime = 2.5 * tick
	h := ctx.Projectiles.Spawn(ctx, NewProjectile(&def, geom.V(0, 10, 0), geom.Up, geom.Zero, WeaponHandle(0)))

	for i := 0; i < 2; i++ {
		ctx.Projectiles.Update(ctx)
	}
	if !ctx.Projectiles.Contains(h) {
		t.Fatal("projectile freed early")
	}
	ctx.Projectiles.Update(ctx)
	if ctx.Projectiles.Contains(h) {
		t.Fatal("projectile outlived its lifetime")
	}
	var effect *CreateEffect
	for _, m := range drain(q) {
		if e, ok := m.(CreateEffect); ok {
			effect = &e
		}
	}
	if effect == nil {
		t.Fatal("no impact effect")
	}
	// Three ticks of 0.75 straight up from y=10.
	if want := geom.V(0, 10+3*def.Speed, 0); effect.Position.Dist(want) > 1e-9 {
		t.Fatalf("effect at %v, want %v", effect.Position, want)
	}
}

func TestItemReactivation(t *testing.T) {
	ctx, q, _ := newTestContext(t)
	def := *ctx.Defs.Item(data.ItemMedkit)
	def.ReactivationTime = 2 * tick
	h := ctx.Items.Spawn(ctx, NewItem(&def, geom.V(1, 0, 1), q))
	it, _ := ctx.Items.Get(h)
	it.PickUp(ctx.Scene)
	if _, ok := ctx.Items.Nearest(geom.V(1, 0, 1), PickupRadius); ok {
		t.Fatal("picked up item still offered")
	}

	ctx.Items.Update(ctx)
	if !it.PickedUp {
		t.Fatal("reactivated too early")
	}
	ctx.Items.Update(ctx)
	if it.PickedUp {
		t.Fatal("item did not reactivate")
	}
	if !ctx.Items.Contains(h) {
		t.Fatal("map item removed")
	}
	if !ctx.Scene.Visible(it.Model) {
		t.Fatal("reactivated item hidden")
	}
}

func TestDroppedItemExpires(t *testing.T) {
	ctx, q, _ := newTestContext(t)
	it := NewItem(ctx.Defs.Item(data.ItemAk47), geom.Zero, q)
	it.SetLifetime(tick)
	h := ctx.Items.Spawn(ctx, it)
	ctx.Items.Update(ctx)
	if ctx.Items.Contains(h) {
		t.Fatal("dropped item outlived its lifetime")
	}
}

func TestActorPicksUpNearbyItem(t *testing.T) {
	ctx, q, _ := newTestContext(t)
	actor, err := ctx.Actors.Spawn(ctx, NewPlayer("player", q), geom.V(0, 0, 0))
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	near := ctx.Items.Spawn(ctx, NewItem(ctx.Defs.Item(data.ItemMedkit), geom.V(1, 0, 0), q))
	ctx.Items.Spawn(ctx, NewItem(ctx.Defs.Item(data.ItemM4Ammo), geom.V(10, 0, 0), q))

	ctx.Actors.Update(ctx)

	var picks []PickUpItem
	for _, m := range drain(q) {
		if p, ok := m.(PickUpItem); ok {
			picks = append(picks, p)
		}
	}
	if len(picks) != 1 || picks[0].Actor != actor || picks[0].Item != near {
		t.Fatalf("pickups = %+v, want one for %v", picks, near)
	}
}

func TestJumpPadLaunchesActors(t *testing.T) {
	ctx, q, ph := newTestContext(t)
	actor, err := ctx.Actors.Spawn(ctx, NewPlayer("player", q), geom.Zero)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	ctx.JumpPads.Add(NewJumpPad(geom.Zero, geom.V(0, 2, 4), geom.V(2, 1, 2)))
	ctx.JumpPads.Attach(ph)
	sink := physics.NewEventSink(16)
	ph.SetEventSink(sink)
	ph.Step(tick)

	sink.DrainProximity(func(ev physics.ProximityEvent) {
		if !ctx.JumpPads.HandleProximity(ev, ctx) {
			t.Errorf("event %+v not claimed by a pad", ev)
		}
	})
	a, _ := ctx.Actors.Get(actor)
	if got, want := ph.BodyVelocity(a.Body), geom.V(0, 6, 12); got != want {
		t.Fatalf("velocity = %v, want %v", got, want)
	}
}

func TestHardLandingHurts(t *testing.T) {
	ctx, q, _ := newTestContext(t)
	actor, err := ctx.Actors.Spawn(ctx, NewPlayer("player", q), geom.Zero)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	a, _ := ctx.Actors.Get(actor)
	floor := physics.BodyID(999)

	ctx.Actors.HandleContact(physics.ContactEvent{A: a.Body, B: floor, Started: true, Normal: geom.Up, ImpactSpeed: 5}, ctx)
	if q.Len() != 0 {
		t.Fatalf("soft landing queued %d messages", q.Len())
	}
	if !a.Grounded {
		t.Fatal("actor not grounded after landing")
	}
	ctx.Actors.HandleContact(physics.ContactEvent{A: floor, B: a.Body, Started: true, Normal: geom.V(0, -1, 0), ImpactSpeed: 14}, ctx)
	msgs := drain(q)
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	d, ok := msgs[0].(DamageActor)
	if !ok || d.Actor != actor || d.Who.IsSome() || d.Amount != 10 {
		t.Fatalf("message = %+v, want fall damage 10", msgs[0])
	}
}

func TestDefaultBrain(t *testing.T) {
	tests := []struct {
		name string
		view BotView
		want []CommandKind
	}{
		{"wander", BotView{}, []CommandKind{CommandWander}},
		{"far target", BotView{HasTarget: true, TargetDistance: 20, AttackDistance: 10, Ammo: 5}, []CommandKind{CommandMoveTo, CommandShoot}},
		{"close target", BotView{HasTarget: true, TargetDistance: 5, AttackDistance: 10, Ammo: 5}, []CommandKind{CommandStrafe, CommandShoot}},
		{"no ammo", BotView{HasTarget: true, TargetDistance: 5, AttackDistance: 10}, []CommandKind{CommandStrafe}},
		{"fresh point of interest", BotView{HasPointOfInterest: true, PointOfInterestAge: 3}, []CommandKind{CommandMoveTo}},
		{"old point of interest", BotView{HasPointOfInterest: true, PointOfInterestAge: 30}, []CommandKind{CommandWander}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds := DefaultBrain{}.Think(tt.view)
			if len(cmds) != len(tt.want) {
				t.Fatalf("got %v, want %v", cmds, tt.want)
			}
			for i, c := range cmds {
				if c.Kind != tt.want[i] {
					t.Errorf("command %d = %s, want %s", i, c.Kind, tt.want[i])
				}
			}
		})
	}
}

func TestBotShootsVisibleEnemy(t *testing.T) {
	ctx, q, _ := newTestContext(t)
	bot, err := ctx.Actors.Spawn(ctx, NewBot(ctx.Defs.Bot(data.BotParasite), "bot", q), geom.Zero)
	if err != nil {
		t.Fatalf("spawn bot: %v", err)
	}
	enemy, err := ctx.Actors.Spawn(ctx, NewPlayer("player", q), geom.V(0, 0, 5))
	if err != nil {
		t.Fatalf("spawn player: %v", err)
	}
	weapon := ctx.Weapons.Spawn(ctx, NewWeapon(ctx.Defs.Weapon(data.WeaponAk47), bot, q))
	b, _ := ctx.Actors.Get(bot)
	b.AddWeapon(weapon)
	drain(q)

	ctx.Actors.Update(ctx)

	if b.Bot.Target != enemy {
		t.Fatalf("target = %v, want %v", b.Bot.Target, enemy)
	}
	var shots []ShootWeapon
	for _, m := range drain(q) {
		if s, ok := m.(ShootWeapon); ok {
			shots = append(shots, s)
		}
	}
	if len(shots) != 1 || shots[0].Weapon != weapon || !shots[0].HasDirection {
		t.Fatalf("shots = %+v, want one aimed shot", shots)
	}
	if shots[0].Direction.Z <= 0 {
		t.Fatalf("aimed away from the enemy: %v", shots[0].Direction)
	}
}
