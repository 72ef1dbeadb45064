package world

import (
	"fmt"

	"github.com/fragcore/arena/internal/core/pool"
	"github.com/fragcore/arena/internal/data"
	"github.com/fragcore/arena/internal/geom"
	"github.com/fragcore/arena/internal/physics"
	"github.com/fragcore/arena/internal/scene"
	"github.com/fragcore/arena/internal/visit"
)

const initialVelocityFollow = 0.15

// Projectile is a bullet or bolt in flight. Bullets are visual only and are
// resolved by ray sweeps; projectiles with a body also report contacts.
type Projectile struct {
	Kind            data.ProjectileKind
	Def             *data.ProjectileDefinition
	Dir             geom.Vec3
	InitialVelocity geom.Vec3
	Lifetime        float64
	Owner           WeaponHandle
	Position        geom.Vec3
	LastPosition    geom.Vec3

	Body  physics.BodyID
	Model scene.NodeID
}

// NewProjectile returns a live projectile at position. A zero direction
// defaults to up.
func NewProjectile(def *data.ProjectileDefinition, position, dir, initialVelocity geom.Vec3, owner WeaponHandle) Projectile {
	return Projectile{
		Kind:            def.Kind,
		Def:             def,
		Dir:             dir.NormalizeOr(geom.Up),
		InitialVelocity: initialVelocity,
		Lifetime:        def.Lifetime,
		Owner:           owner,
		Position:        position,
		LastPosition:    position,
	}
}

func (p *Projectile) IsDead() bool { return p.Lifetime <= 0 }
func (p *Projectile) Kill()        { p.Lifetime = 0 }

func (p *Projectile) currentPosition(ph physics.Physics) geom.Vec3 {
	if p.Body != physics.NoBody {
		if pos, ok := ph.BodyPosition(p.Body); ok {
			p.Position = pos
		}
	}
	return p.Position
}

// Update moves the projectile, resolves hits and counts down its lifetime.
// Hit actors are damaged through DamageActor messages, at most once each.
func (p *Projectile) Update(ctx *UpdateContext) {
	position := p.currentPosition(ctx.Physics)
	owner := ctx.weaponOwner(p.Owner)

	var (
		hits      []ActorHandle
		effectPos geom.Vec3
		hasEffect bool
	)
	hit := func(at geom.Vec3) {
		p.Kill()
		effectPos = at
		hasEffect = true
	}

	if !p.IsDead() {
		// Ray sweep between the last and the current position catches fast
		// projectiles passing through thin geometry within one tick.
		if ray, ok := geom.RayFromTwoPoints(p.LastPosition, position); ok {
			results := ctx.Physics.CastRay(physics.RayCastOptions{
				Ray:     ray,
				MaxLen:  1,
				Groups:  physics.GroupAll,
				Exclude: p.Body,
				Sort:    true,
			})
			for _, h := range results {
				if actor, ok := ctx.Actors.ByBody(h.Body); ok {
					if actor == owner {
						continue
					}
					hits = append(hits, actor)
					hit(h.Position)
					break
				}
				if h.Static {
					hit(h.Position)
					break
				}
			}
		}
	}

	if p.Def.Kinematic {
		total := p.InitialVelocity.Add(p.Dir.Scale(p.Def.Speed))
		if p.Body != physics.NoBody {
			for _, c := range ctx.Physics.ContactsWith(p.Body) {
				actor, isActor := ctx.Actors.ByBody(c.Body)
				if isActor && actor == owner {
					// Never hurt the shooter on spawn.
					continue
				}
				if isActor {
					hits = append(hits, actor)
				}
				hit(c.Position)
			}
			ctx.Physics.OffsetBody(p.Body, total)
			p.Position = position.Add(total)
		} else {
			p.Position = position.Add(total)
			ctx.Scene.SetLocalPosition(p.Model, p.Position)
		}
	}

	p.InitialVelocity = p.InitialVelocity.Follow(geom.Zero, initialVelocityFollow)

	p.Lifetime -= ctx.Time.Delta
	if p.IsDead() {
		at := p.Position
		if hasEffect {
			at = effectPos
		}
		ctx.Sender.Send(CreateEffect{Kind: EffectBulletImpact, Position: at})
	}

	for _, actor := range dedupActors(hits) {
		ctx.Sender.Send(DamageActor{Actor: actor, Who: owner, Amount: p.Def.Damage})
	}

	p.LastPosition = position
}

// HandleProximity kills a projectile that enters a death zone volume.
func (p *Projectile) HandleProximity(ev physics.ProximityEvent, zones []DeathZone) {
	if !ev.Entered || p.Body == physics.NoBody || ev.Other != p.Body {
		return
	}
	for _, z := range zones {
		if z.Sensor == ev.Sensor {
			p.Kill()
			return
		}
	}
}

// dedupActors removes repeated handles keeping first occurrence order.
func dedupActors(hs []ActorHandle) []ActorHandle {
	if len(hs) < 2 {
		return hs
	}
	out := hs[:0]
	for i, h := range hs {
		dup := false
		for _, prev := range hs[:i] {
			if prev == h {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, h)
		}
	}
	return out
}

func (p *Projectile) attach(ctx *UpdateContext) {
	if p.Def.HasBody {
		p.Body = ctx.Physics.AddBody(physics.BodyDesc{
			Shape:     physics.ShapeSphere,
			Radius:    p.Def.Radius,
			Position:  p.Position,
			Kinematic: true,
			Group:     physics.GroupProjectile,
			Mask:      projectileMask,
		})
	}
	p.Model = createNode(ctx.Scene, ctx.Log, scene.NodeDesc{
		Name:     p.Kind.String(),
		Model:    p.Def.Model,
		Position: p.Position,
		Visible:  true,
	})
}

func (p *Projectile) cleanUp(ph physics.Physics, sc scene.Scene) {
	if p.Body != physics.NoBody {
		ph.RemoveBody(p.Body)
		p.Body = physics.NoBody
	}
	sc.RemoveNode(p.Model)
	p.Model = scene.NoNode
}

func (p *Projectile) Visit(v *visit.Visitor, name string) error {
	return v.Region(name, func() error {
		id := int(p.Kind)
		if err := v.Int("KindId", &id); err != nil {
			return err
		}
		if v.IsReading() {
			kind, err := data.ProjectileKindFromID(id)
			if err != nil {
				return err
			}
			p.Kind = kind
		}
		if err := v.Float("Lifetime", &p.Lifetime); err != nil {
			return err
		}
		if err := v.Vec3("Direction", &p.Dir); err != nil {
			return err
		}
		if err := v.Vec3("Position", &p.Position); err != nil {
			return err
		}
		if err := v.Vec3("LastPosition", &p.LastPosition); err != nil {
			return err
		}
		if err := v.Vec3("InitialVelocity", &p.InitialVelocity); err != nil {
			return err
		}
		return pool.VisitHandle(v, "Owner", &p.Owner)
	})
}

// ProjectileContainer owns every projectile of a level.
type ProjectileContainer struct {
	pool *pool.Pool[Projectile]
}

func NewProjectileContainer() *ProjectileContainer {
	return &ProjectileContainer{pool: pool.New[Projectile]()}
}

func (c *ProjectileContainer) Add(p Projectile) ProjectileHandle          { return c.pool.Spawn(p) }
func (c *ProjectileContainer) Get(h ProjectileHandle) (*Projectile, bool) { return c.pool.Get(h) }
func (c *ProjectileContainer) Contains(h ProjectileHandle) bool           { return c.pool.Contains(h) }
func (c *ProjectileContainer) Len() int                                   { return c.pool.Len() }

func (c *ProjectileContainer) Each(fn func(ProjectileHandle, *Projectile)) { c.pool.Each(fn) }

// Spawn stores p and creates its body and model.
func (c *ProjectileContainer) Spawn(ctx *UpdateContext, p Projectile) ProjectileHandle {
	p.attach(ctx)
	return c.pool.Spawn(p)
}

// Attach resolves definitions of loaded projectiles and recreates their
// bodies and models.
func (c *ProjectileContainer) Attach(ctx *UpdateContext) error {
	var err error
	c.pool.Each(func(_ ProjectileHandle, p *Projectile) {
		if err != nil {
			return
		}
		def := ctx.Defs.Projectile(p.Kind)
		if def == nil {
			err = fmt.Errorf("no definition for projectile kind %s", p.Kind)
			return
		}
		p.Def = def
		p.attach(ctx)
	})
	return err
}

// Update runs every projectile, then frees the dead ones. Nothing is freed
// while the update pass is running.
func (c *ProjectileContainer) Update(ctx *UpdateContext) {
	c.pool.Each(func(_ ProjectileHandle, p *Projectile) { p.Update(ctx) })
	for _, p := range c.pool.Retain(func(_ ProjectileHandle, p *Projectile) bool { return !p.IsDead() }) {
		p.cleanUp(ctx.Physics, ctx.Scene)
	}
}

// HandleProximity forwards a sensor event to every projectile.
func (c *ProjectileContainer) HandleProximity(ev physics.ProximityEvent, zones []DeathZone) {
	c.pool.Each(func(_ ProjectileHandle, p *Projectile) { p.HandleProximity(ev, zones) })
}

// ResetOwner clears references to a weapon that is about to be freed.
func (c *ProjectileContainer) ResetOwner(w WeaponHandle) {
	c.pool.Each(func(_ ProjectileHandle, p *Projectile) {
		if p.Owner == w {
			p.Owner = WeaponHandle(0)
		}
	})
}

// Clear frees every projectile and releases its body and node.
func (c *ProjectileContainer) Clear(ph physics.Physics, sc scene.Scene) {
	for _, p := range c.pool.Retain(func(ProjectileHandle, *Projectile) bool { return false }) {
		p.cleanUp(ph, sc)
	}
}

func (c *ProjectileContainer) Visit(v *visit.Visitor, name string) error {
	return c.pool.Visit(v, name, func(v *visit.Visitor, p *Projectile) error { return p.Visit(v, "Projectile") })
}
