// Package physics defines the narrow physics contract the simulation core
// consumes: ray queries, body primitives and the contact/proximity event
// streams. The core never integrates or resolves collisions itself; the
// host steps the engine once per tick.
package physics

import "github.com/fragcore/arena/internal/geom"

// BodyID identifies a rigid body or collider. Zero means no body.
type BodyID uint32

const NoBody BodyID = 0

// Shape selects the collider geometry of a body.
type Shape uint8

const (
	ShapeSphere Shape = iota
	ShapeBox
)

// Group is a collision group bit.
type Group uint32

const (
	GroupStatic Group = 1 << iota
	GroupActor
	GroupProjectile
	GroupTrigger

	GroupAll Group = 0xFFFFFFFF
)

// BodyDesc describes a body to create.
type BodyDesc struct {
	Shape       Shape
	Radius      float64
	HalfExtents geom.Vec3
	Position    geom.Vec3
	// Static bodies never move. Sensors report proximity events only.
	Static bool
	Sensor bool
	// Kinematic bodies ignore gravity and collision response; code moves them.
	Kinematic bool
	Group     Group
	Mask      Group
}

// Hit is one ray cast result.
type Hit struct {
	Position geom.Vec3
	Normal   geom.Vec3
	Body     BodyID
	Static   bool
	// Toi is the ray parameter of the hit.
	Toi float64
}

// RayCastOptions configures CastRay. MaxLen is in units of |Ray.Dir|.
type RayCastOptions struct {
	Ray     geom.Ray
	MaxLen  float64
	Groups  Group
	Exclude BodyID
	Sort    bool
}

// Contact is a body currently touching another one. Normal points from
// that body towards the queried one.
type Contact struct {
	Body     BodyID
	Position geom.Vec3
	Normal   geom.Vec3
}

// ContactEvent reports a pair of bodies starting or stopping contact.
// Normal points from B towards A.
type ContactEvent struct {
	A, B        BodyID
	Started     bool
	Position    geom.Vec3
	Normal      geom.Vec3
	ImpactSpeed float64
}

// Other returns the body of the pair that is not id.
func (e ContactEvent) Other(id BodyID) (BodyID, bool) {
	switch id {
	case e.A:
		return e.B, true
	case e.B:
		return e.A, true
	}
	return NoBody, false
}

// ProximityEvent reports a body entering or leaving a sensor volume.
type ProximityEvent struct {
	Sensor  BodyID
	Other   BodyID
	Entered bool
}

// Physics is the collaborator interface. Step integrates one fixed tick and
// publishes the contact and proximity changes it caused.
type Physics interface {
	Step(dt float64)
	CastRay(opts RayCastOptions) []Hit
	AddBody(desc BodyDesc) BodyID
	RemoveBody(id BodyID)
	BodyPosition(id BodyID) (geom.Vec3, bool)
	SetBodyPosition(id BodyID, p geom.Vec3)
	OffsetBody(id BodyID, d geom.Vec3)
	BodyVelocity(id BodyID) geom.Vec3
	SetLinearVelocity(id BodyID, v geom.Vec3)
	ApplyImpulse(id BodyID, v geom.Vec3)
	ContactsWith(id BodyID) []Contact
	SetEventSink(sink *EventSink)
}

// FirstHit is a convenience for the common "closest hit" query.
func FirstHit(p Physics, from, to geom.Vec3, exclude BodyID) (Hit, bool) {
	ray, ok := geom.RayFromTwoPoints(from, to)
	if !ok {
		return Hit{}, false
	}
	hits := p.CastRay(RayCastOptions{Ray: ray, MaxLen: 1, Groups: GroupAll, Exclude: exclude, Sort: true})
	if len(hits) == 0 {
		return Hit{}, false
	}
	return hits[0], true
}
