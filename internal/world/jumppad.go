package world

import (
	"github.com/fragcore/arena/internal/core/pool"
	"github.com/fragcore/arena/internal/geom"
	"github.com/fragcore/arena/internal/physics"
	"github.com/fragcore/arena/internal/visit"
)

const jumpPadForceScale = 3.0

// JumpPad launches actors that enter its trigger volume.
type JumpPad struct {
	Bounds geom.AABB
	Force  geom.Vec3
	Sensor physics.BodyID
}

// NewJumpPad builds a pad at begin whose launch velocity points to end and
// grows with the distance between them.
func NewJumpPad(begin, end, size geom.Vec3) JumpPad {
	half := size.Scale(0.5)
	if half.IsZero() {
		half = geom.V(0.5, 0.25, 0.5)
	}
	return JumpPad{
		Bounds: geom.BoxAround(begin, half),
		Force:  end.Sub(begin).Scale(jumpPadForceScale),
	}
}

func (j *JumpPad) attach(p physics.Physics) {
	j.Sensor = p.AddBody(physics.BodyDesc{
		Shape:       physics.ShapeBox,
		HalfExtents: j.Bounds.HalfExtents(),
		Position:    j.Bounds.Center(),
		Sensor:      true,
		Group:       physics.GroupTrigger,
		Mask:        physics.GroupActor,
	})
}

func (j *JumpPad) Visit(v *visit.Visitor, name string) error {
	return v.Region(name, func() error {
		if err := v.Vec3("Min", &j.Bounds.Min); err != nil {
			return err
		}
		if err := v.Vec3("Max", &j.Bounds.Max); err != nil {
			return err
		}
		return v.Vec3("Force", &j.Force)
	})
}

// JumpPadContainer owns the jump pads of a level.
type JumpPadContainer struct {
	pool *pool.Pool[JumpPad]
}

func NewJumpPadContainer() *JumpPadContainer {
	return &JumpPadContainer{pool: pool.New[JumpPad]()}
}

func (c *JumpPadContainer) Add(j JumpPad) pool.Handle[JumpPad] { return c.pool.Spawn(j) }
func (c *JumpPadContainer) Len() int                           { return c.pool.Len() }

func (c *JumpPadContainer) Each(fn func(pool.Handle[JumpPad], *JumpPad)) { c.pool.Each(fn) }

// Attach creates the trigger bodies of every pad.
func (c *JumpPadContainer) Attach(p physics.Physics) {
	c.pool.Each(func(_ pool.Handle[JumpPad], j *JumpPad) { j.attach(p) })
}

// HandleProximity launches an actor entering a pad. It reports whether the
// event belonged to a pad.
func (c *JumpPadContainer) HandleProximity(ev physics.ProximityEvent, ctx *UpdateContext) bool {
	handled := false
	c.pool.Each(func(_ pool.Handle[JumpPad], j *JumpPad) {
		if handled || j.Sensor != ev.Sensor {
			return
		}
		handled = true
		if !ev.Entered {
			return
		}
		if _, ok := ctx.Actors.ByBody(ev.Other); ok {
			ctx.Physics.SetLinearVelocity(ev.Other, j.Force)
		}
	})
	return handled
}

func (c *JumpPadContainer) Visit(v *visit.Visitor, name string) error {
	return c.pool.Visit(v, name, func(v *visit.Visitor, j *JumpPad) error { return j.Visit(v, "JumpPad") })
}
