package physics

import (
	"math"
	"sort"

	"github.com/fragcore/arena/internal/geom"
)

const contactSkin = 0.01

type body struct {
	id   BodyID
	desc BodyDesc
	pos  geom.Vec3
	vel  geom.Vec3
}

func (b *body) bounds() geom.AABB {
	if b.desc.Shape == ShapeBox {
		return geom.BoxAround(b.pos, b.desc.HalfExtents)
	}
	r := b.desc.Radius
	return geom.BoxAround(b.pos, geom.V(r, r, r))
}

// radius of the bounding sphere used for body-vs-body tests.
func (b *body) radius() float64 {
	if b.desc.Shape == ShapeBox {
		return b.desc.HalfExtents.Len()
	}
	return b.desc.Radius
}

type pairKey struct{ a, b BodyID }

func makePair(a, b BodyID) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a, b}
}

// touch is one touching pair; normal points from the pair's b body to a.
type touch struct {
	pos    geom.Vec3
	normal geom.Vec3
	speed  float64
}

// World is a small headless physics implementation: spheres and boxes,
// gravity, push-out against static boxes, sensor overlap and contact
// reporting. It exists so the simulation can run without a rendering engine
// and is deliberately simple; it is not a general rigid body solver.
type World struct {
	Gravity float64

	bodies   map[BodyID]*body
	order    []BodyID
	next     BodyID
	sink     *EventSink
	touching map[pairKey]touch
	overlaps map[pairKey]bool
	contacts map[BodyID][]Contact
}

func NewWorld() *World {
	return &World{
		Gravity:  9.81,
		bodies:   make(map[BodyID]*body, 64),
		touching: make(map[pairKey]touch),
		overlaps: make(map[pairKey]bool),
		contacts: make(map[BodyID][]Contact),
	}
}

func (w *World) SetEventSink(sink *EventSink) { w.sink = sink }

func (w *World) AddBody(desc BodyDesc) BodyID {
	if desc.Mask == 0 {
		desc.Mask = GroupAll
	}
	if desc.Group == 0 {
		desc.Group = GroupAll
	}
	w.next++
	id := w.next
	w.bodies[id] = &body{id: id, desc: desc, pos: desc.Position}
	w.order = append(w.order, id)
	return id
}

// AddStaticBox is shorthand for level geometry.
func (w *World) AddStaticBox(b geom.AABB) BodyID {
	return w.AddBody(BodyDesc{
		Shape:       ShapeBox,
		HalfExtents: b.HalfExtents(),
		Position:    b.Center(),
		Static:      true,
		Group:       GroupStatic,
	})
}

func (w *World) RemoveBody(id BodyID) {
	if _, ok := w.bodies[id]; !ok {
		return
	}
	delete(w.bodies, id)
	for i, o := range w.order {
		if o == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	for k := range w.touching {
		if k.a == id || k.b == id {
			delete(w.touching, k)
		}
	}
	for k := range w.overlaps {
		if k.a == id || k.b == id {
			delete(w.overlaps, k)
		}
	}
	delete(w.contacts, id)
}

func (w *World) Len() int { return len(w.bodies) }

func (w *World) BodyPosition(id BodyID) (geom.Vec3, bool) {
	b, ok := w.bodies[id]
	if !ok {
		return geom.Vec3{}, false
	}
	return b.pos, true
}

func (w *World) SetBodyPosition(id BodyID, p geom.Vec3) {
	if b, ok := w.bodies[id]; ok {
		b.pos = p
	}
}

func (w *World) OffsetBody(id BodyID, d geom.Vec3) {
	if b, ok := w.bodies[id]; ok {
		b.pos = b.pos.Add(d)
	}
}

func (w *World) BodyVelocity(id BodyID) geom.Vec3 {
	if b, ok := w.bodies[id]; ok {
		return b.vel
	}
	return geom.Vec3{}
}

func (w *World) SetLinearVelocity(id BodyID, v geom.Vec3) {
	if b, ok := w.bodies[id]; ok && !b.desc.Static {
		b.vel = v
	}
}

func (w *World) ApplyImpulse(id BodyID, v geom.Vec3) {
	if b, ok := w.bodies[id]; ok && !b.desc.Static {
		b.vel = b.vel.Add(v)
	}
}

func (w *World) ContactsWith(id BodyID) []Contact {
	cs := w.contacts[id]
	out := make([]Contact, len(cs))
	copy(out, cs)
	return out
}

func (w *World) CastRay(opts RayCastOptions) []Hit {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = math.Inf(1)
	}
	groups := opts.Groups
	if groups == 0 {
		groups = GroupAll
	}
	var hits []Hit
	for _, id := range w.order {
		b := w.bodies[id]
		if id == opts.Exclude || b.desc.Sensor || b.desc.Group&groups == 0 {
			continue
		}
		var (
			t      float64
			normal geom.Vec3
			ok     bool
		)
		if b.desc.Shape == ShapeBox {
			t, normal, ok = opts.Ray.IntersectAABB(b.bounds())
		} else {
			t, ok = opts.Ray.IntersectSphere(b.pos, b.desc.Radius)
			if ok {
				normal = opts.Ray.At(t).Sub(b.pos).NormalizeOr(geom.Up)
			}
		}
		if !ok || t > maxLen {
			continue
		}
		hits = append(hits, Hit{
			Position: opts.Ray.At(t),
			Normal:   normal,
			Body:     id,
			Static:   b.desc.Static,
			Toi:      t,
		})
	}
	if opts.Sort {
		sort.SliceStable(hits, func(i, j int) bool { return hits[i].Toi < hits[j].Toi })
	}
	return hits
}

func canCollide(a, b *body) bool {
	return a.desc.Group&b.desc.Mask != 0 && b.desc.Group&a.desc.Mask != 0
}

// Step integrates dynamic bodies by dt seconds and publishes contact and
// proximity changes to the event sink.
func (w *World) Step(dt float64) {
	for _, id := range w.order {
		b := w.bodies[id]
		if b.desc.Static || b.desc.Sensor || b.desc.Kinematic {
			continue
		}
		b.vel.Y -= w.Gravity * dt
		b.pos = b.pos.Add(b.vel.Scale(dt))
	}

	newTouch := make(map[pairKey]touch, len(w.touching))
	newOverlap := make(map[pairKey]bool, len(w.overlaps))
	for k := range w.contacts {
		delete(w.contacts, k)
	}

	for i, ida := range w.order {
		a := w.bodies[ida]
		if a.desc.Static {
			continue
		}
		if a.desc.Sensor {
			for _, idb := range w.order {
				b := w.bodies[idb]
				if b.desc.Static || b.desc.Sensor || !canCollide(a, b) {
					continue
				}
				if a.bounds().Intersects(b.bounds()) {
					newOverlap[pairKey{ida, idb}] = true
				}
			}
			continue
		}
		// Dynamic against static geometry.
		for _, ids := range w.order {
			s := w.bodies[ids]
			if !s.desc.Static || s.desc.Sensor || !canCollide(a, s) {
				continue
			}
			w.resolveStatic(a, s, newTouch)
		}
		// Dynamic against dynamic, each pair once.
		for _, idb := range w.order[i+1:] {
			b := w.bodies[idb]
			if b.desc.Static || b.desc.Sensor || !canCollide(a, b) {
				continue
			}
			d := a.pos.Sub(b.pos)
			if d.Len() > a.radius()+b.radius()+contactSkin {
				continue
			}
			n := d.NormalizeOr(geom.Up)
			t := touch{
				pos:    b.pos.Add(n.Scale(b.radius())),
				normal: n,
				speed:  math.Abs(a.vel.Sub(b.vel).Dot(n)),
			}
			key := makePair(ida, idb)
			if key.a != ida {
				t.normal = n.Scale(-1)
			}
			newTouch[key] = t
		}
	}

	for _, k := range sortedPairs(newTouch) {
		t := newTouch[k]
		w.contacts[k.a] = append(w.contacts[k.a], Contact{Body: k.b, Position: t.pos, Normal: t.normal})
		w.contacts[k.b] = append(w.contacts[k.b], Contact{Body: k.a, Position: t.pos, Normal: t.normal.Scale(-1)})
	}
	w.publish(newTouch, newOverlap)
	w.touching = newTouch
	w.overlaps = newOverlap
}

func (w *World) resolveStatic(a, s *body, out map[pairKey]touch) {
	box := s.bounds()
	r := a.radius()
	closest := box.ClosestPoint(a.pos)
	d := a.pos.Sub(closest)
	dist := d.Len()
	var (
		normal geom.Vec3
		pen    float64
	)
	if dist <= 1e-9 {
		normal = geom.Up
		pen = r + (box.Max.Y - a.pos.Y)
	} else {
		if dist > r+contactSkin {
			return
		}
		normal = d.Scale(1 / dist)
		pen = r - dist
	}
	speed := -a.vel.Dot(normal)
	key := makePair(a.id, s.id)
	stored := normal
	if key.a != a.id {
		stored = normal.Scale(-1)
	}
	out[key] = touch{pos: closest, normal: stored, speed: math.Max(speed, 0)}
	if a.desc.Kinematic || pen <= 0 {
		return
	}
	a.pos = a.pos.Add(normal.Scale(pen))
	if vn := a.vel.Dot(normal); vn < 0 {
		a.vel = a.vel.Sub(normal.Scale(vn))
	}
}

func (w *World) publish(newTouch map[pairKey]touch, newOverlap map[pairKey]bool) {
	if w.sink == nil {
		return
	}
	for _, k := range sortedPairs(newTouch) {
		if _, was := w.touching[k]; !was {
			t := newTouch[k]
			w.sink.PushContact(ContactEvent{A: k.a, B: k.b, Started: true, Position: t.pos, Normal: t.normal, ImpactSpeed: t.speed})
		}
	}
	for _, k := range sortedPairs(w.touching) {
		if _, still := newTouch[k]; !still {
			t := w.touching[k]
			w.sink.PushContact(ContactEvent{A: k.a, B: k.b, Started: false, Position: t.pos, Normal: t.normal})
		}
	}
	for _, k := range sortedKeys(newOverlap) {
		if !w.overlaps[k] {
			w.sink.PushProximity(ProximityEvent{Sensor: k.a, Other: k.b, Entered: true})
		}
	}
	for _, k := range sortedKeys(w.overlaps) {
		if !newOverlap[k] {
			w.sink.PushProximity(ProximityEvent{Sensor: k.a, Other: k.b, Entered: false})
		}
	}
}

func sortedPairs(m map[pairKey]touch) []pairKey {
	keys := make([]pairKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sortPairKeys(keys)
	return keys
}

func sortedKeys(m map[pairKey]bool) []pairKey {
	keys := make([]pairKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sortPairKeys(keys)
	return keys
}

func sortPairKeys(keys []pairKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].a != keys[j].a {
			return keys[i].a < keys[j].a
		}
		return keys[i].b < keys[j].b
	})
}
