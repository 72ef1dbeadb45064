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

const (
	recoilFollow   = 0.2
	laserRange     = 100.0
	laserDotOffset = 0.2
)

// Weapon is a gun held by an actor.
type Weapon struct {
	Kind         data.WeaponKind
	Def          *data.WeaponDefinition
	Ammo         int
	Owner        ActorHandle
	LastShotTime float64
	Offset       geom.Vec3
	DestOffset   geom.Vec3
	// LaserDot is the laser sight contact point, or the origin when the
	// sight ray hits nothing.
	LaserDot     geom.Vec3
	ShotPosition geom.Vec3
	Visible      bool

	Model  scene.NodeID
	Sender Sender
}

// NewWeapon returns a loaded weapon ready to fire.
func NewWeapon(def *data.WeaponDefinition, owner ActorHandle, sender Sender) Weapon {
	return Weapon{
		Kind:  def.Kind,
		Def:   def,
		Ammo:  def.Ammo,
		Owner: owner,
		// Allow the first shot immediately.
		LastShotTime: -def.FireInterval,
		Sender:       sender,
	}
}

// TryShoot fires if there is ammo and the fire interval has passed since the
// last shot. It does not create a projectile.
func (w *Weapon) TryShoot(elapsed float64) bool {
	if w.Ammo <= 0 {
		return false
	}
	if elapsed-w.LastShotTime < w.Def.FireInterval {
		return false
	}
	w.Ammo--
	w.LastShotTime = elapsed
	w.Offset = geom.V(0, 0, -w.Def.Recoil)
	if w.Sender != nil && w.Def.ShotSound != "" {
		w.Sender.Send(PlaySound{
			Path:     w.Def.ShotSound,
			Position: w.ShotPosition,
			Gain:     1,
			Rolloff:  5,
			Radius:   3,
		})
	}
	return true
}

func (w *Weapon) AddAmmo(n int) {
	if n > 0 {
		w.Ammo += n
	}
}

// Update eases the recoil back, moves the model and refreshes the shot
// origin and laser sight.
func (w *Weapon) Update(ctx *UpdateContext) {
	w.Offset = w.Offset.Follow(w.DestOffset, recoilFollow)
	if w.Model == scene.NoNode {
		return
	}
	ctx.Scene.SetLocalPosition(w.Model, w.Offset)
	w.ShotPosition = ctx.Scene.WorldPosition(w.Model)
	w.updateLaserSight(ctx)
}

func (w *Weapon) updateLaserSight(ctx *UpdateContext) {
	w.LaserDot = geom.Zero
	if !w.Visible {
		return
	}
	exclude := physics.NoBody
	if a, ok := ctx.Actors.Get(w.Owner); ok {
		exclude = a.Body
	}
	begin := w.ShotPosition
	end := begin.Add(ctx.Scene.LookVector(w.Model).Scale(laserRange))
	if hit, ok := physics.FirstHit(ctx.Physics, begin, end, exclude); ok {
		w.LaserDot = hit.Position.Add(hit.Normal.NormalizeOr(geom.Zero).Scale(laserDotOffset))
	}
}

// ShotDirection is the unit look vector of the weapon.
func (w *Weapon) ShotDirection(sc scene.Scene) geom.Vec3 {
	if w.Model == scene.NoNode {
		return geom.Forward
	}
	return sc.LookVector(w.Model).NormalizeOr(geom.Forward)
}

func (w *Weapon) SetVisible(sc scene.Scene, visible bool) {
	w.Visible = visible
	sc.SetVisible(w.Model, visible)
}

func (w *Weapon) attach(ctx *UpdateContext, pivot scene.NodeID) {
	w.Model = createNode(ctx.Scene, ctx.Log, scene.NodeDesc{
		Name:    w.Kind.String(),
		Model:   w.Def.Model,
		Visible: w.Visible,
	})
	ctx.Scene.Link(w.Model, pivot)
}

func (w *Weapon) cleanUp(sc scene.Scene) {
	sc.RemoveNode(w.Model)
	w.Model = scene.NoNode
}

func (w *Weapon) Visit(v *visit.Visitor, name string) error {
	return v.Region(name, func() error {
		id := int(w.Kind)
		if err := v.Int("KindId", &id); err != nil {
			return err
		}
		if v.IsReading() {
			kind, err := data.WeaponKindFromID(id)
			if err != nil {
				return err
			}
			w.Kind = kind
		}
		if err := v.Int("Ammo", &w.Ammo); err != nil {
			return err
		}
		if err := pool.VisitHandle(v, "Owner", &w.Owner); err != nil {
			return err
		}
		if err := v.Vec3("Offset", &w.Offset); err != nil {
			return err
		}
		if err := v.Vec3("DestOffset", &w.DestOffset); err != nil {
			return err
		}
		if err := v.Float("LastShotTime", &w.LastShotTime); err != nil {
			return err
		}
		return v.Bool("Visible", &w.Visible)
	})
}

// WeaponContainer owns every weapon of a level.
type WeaponContainer struct {
	pool *pool.Pool[Weapon]
}

func NewWeaponContainer() *WeaponContainer {
	return &WeaponContainer{pool: pool.New[Weapon]()}
}

func (c *WeaponContainer) Add(w Weapon) WeaponHandle          { return c.pool.Spawn(w) }
func (c *WeaponContainer) Get(h WeaponHandle) (*Weapon, bool) { return c.pool.Get(h) }
func (c *WeaponContainer) Contains(h WeaponHandle) bool       { return c.pool.Contains(h) }
func (c *WeaponContainer) Len() int                           { return c.pool.Len() }

func (c *WeaponContainer) Each(fn func(WeaponHandle, *Weapon)) { c.pool.Each(fn) }

// Free removes the weapon and its scene node.
func (c *WeaponContainer) Free(h WeaponHandle, sc scene.Scene) bool {
	w, ok := c.pool.Get(h)
	if !ok {
		return false
	}
	w.cleanUp(sc)
	c.pool.Free(h)
	return true
}

// Spawn stores w and links its model to the owner's weapon pivot.
func (c *WeaponContainer) Spawn(ctx *UpdateContext, w Weapon) WeaponHandle {
	w.Sender = ctx.Sender
	w.attach(ctx, ownerPivot(ctx, w.Owner))
	return c.pool.Spawn(w)
}

func ownerPivot(ctx *UpdateContext, owner ActorHandle) scene.NodeID {
	if a, ok := ctx.Actors.Get(owner); ok {
		return a.WeaponPivot
	}
	return scene.NoNode
}

// Attach resolves definitions of loaded weapons and recreates their models.
// Actors must be attached first.
func (c *WeaponContainer) Attach(ctx *UpdateContext) error {
	var err error
	c.pool.Each(func(_ WeaponHandle, w *Weapon) {
		if err != nil {
			return
		}
		def := ctx.Defs.Weapon(w.Kind)
		if def == nil {
			err = fmt.Errorf("no definition for weapon kind %s", w.Kind)
			return
		}
		w.Def = def
		w.Sender = ctx.Sender
		w.attach(ctx, ownerPivot(ctx, w.Owner))
	})
	return err
}

// Clear frees every weapon.
func (c *WeaponContainer) Clear(sc scene.Scene) {
	for _, w := range c.pool.Retain(func(WeaponHandle, *Weapon) bool { return false }) {
		w.cleanUp(sc)
	}
}

func (c *WeaponContainer) Update(ctx *UpdateContext) {
	c.pool.Each(func(_ WeaponHandle, w *Weapon) { w.Update(ctx) })
}

func (c *WeaponContainer) Visit(v *visit.Visitor, name string) error {
	return c.pool.Visit(v, name, func(v *visit.Visitor, w *Weapon) error { return w.Visit(v, "Weapon") })
}
