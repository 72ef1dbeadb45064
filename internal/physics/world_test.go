package physics

import (
	"math"
	"testing"

	"github.com/fragcore/arena/internal/geom"
)

func newFloorWorld() (*World, *EventSink, BodyID) {
	w := NewWorld()
	sink := NewEventSink(16)
	w.SetEventSink(sink)
	floor := w.AddStaticBox(geom.AABB{Min: geom.V(-10, -1, -10), Max: geom.V(10, 0, 10)})
	return w, sink, floor
}

func TestBodyLandsOnFloor(t *testing.T) {
	w, sink, floor := newFloorWorld()
	ball := w.AddBody(BodyDesc{Shape: ShapeSphere, Radius: 0.5, Position: geom.V(0, 2, 0), Group: GroupActor})

	var started []ContactEvent
	for i := 0; i < 120; i++ {
		w.Step(1.0 / 60)
		sink.DrainContacts(func(e ContactEvent) {
			if e.Started {
				started = append(started, e)
			}
		})
	}

	pos, _ := w.BodyPosition(ball)
	if math.Abs(pos.Y-0.5) > 0.05 {
		t.Fatalf("resting height = %.3f, want ~0.5", pos.Y)
	}
	if len(started) != 1 {
		t.Fatalf("contact starts = %d, want 1", len(started))
	}
	if other, _ := started[0].Other(ball); other != floor {
		t.Fatalf("contact partner = %d, want floor %d", other, floor)
	}
	if started[0].ImpactSpeed <= 0 {
		t.Fatalf("impact speed = %v, want > 0", started[0].ImpactSpeed)
	}
	if cs := w.ContactsWith(ball); len(cs) != 1 || cs[0].Body != floor {
		t.Fatalf("ContactsWith = %+v, want floor", cs)
	}
}

func TestSensorReportsEnterAndExit(t *testing.T) {
	w := NewWorld()
	w.Gravity = 0
	sink := NewEventSink(16)
	w.SetEventSink(sink)
	pad := w.AddBody(BodyDesc{Shape: ShapeBox, HalfExtents: geom.V(1, 1, 1), Sensor: true, Static: false, Kinematic: true, Group: GroupTrigger})
	actor := w.AddBody(BodyDesc{Shape: ShapeSphere, Radius: 0.5, Position: geom.V(5, 0, 0), Group: GroupActor})

	w.SetLinearVelocity(actor, geom.V(-60, 0, 0))
	w.Step(1.0 / 12) // x = 0
	var evs []ProximityEvent
	sink.DrainProximity(func(e ProximityEvent) { evs = append(evs, e) })
	if len(evs) != 1 || !evs[0].Entered || evs[0].Sensor != pad || evs[0].Other != actor {
		t.Fatalf("after entering: %+v", evs)
	}

	w.Step(1.0 / 12) // x = -5
	evs = evs[:0]
	sink.DrainProximity(func(e ProximityEvent) { evs = append(evs, e) })
	if len(evs) != 1 || evs[0].Entered {
		t.Fatalf("after leaving: %+v", evs)
	}
}

func TestCastRaySortedAndExcludes(t *testing.T) {
	w := NewWorld()
	near := w.AddBody(BodyDesc{Shape: ShapeSphere, Radius: 1, Position: geom.V(0, 0, 5), Kinematic: true})
	far := w.AddBody(BodyDesc{Shape: ShapeSphere, Radius: 1, Position: geom.V(0, 0, 10), Kinematic: true})
	w.AddBody(BodyDesc{Shape: ShapeSphere, Radius: 1, Position: geom.V(0, 0, 7), Sensor: true})

	ray := geom.Ray{Origin: geom.Zero, Dir: geom.V(0, 0, 1)}
	hits := w.CastRay(RayCastOptions{Ray: ray, MaxLen: 100, Sort: true})
	if len(hits) != 2 {
		t.Fatalf("hits = %d, want 2 (sensor ignored)", len(hits))
	}
	if hits[0].Body != near || hits[1].Body != far {
		t.Fatalf("order = %d, %d; want %d, %d", hits[0].Body, hits[1].Body, near, far)
	}
	if math.Abs(hits[0].Toi-4) > 1e-9 {
		t.Fatalf("toi = %v, want 4", hits[0].Toi)
	}

	hits = w.CastRay(RayCastOptions{Ray: ray, MaxLen: 100, Exclude: near, Sort: true})
	if len(hits) != 1 || hits[0].Body != far {
		t.Fatalf("exclude failed: %+v", hits)
	}

	hits = w.CastRay(RayCastOptions{Ray: ray, MaxLen: 3})
	if len(hits) != 0 {
		t.Fatalf("MaxLen not honoured: %+v", hits)
	}
}

func TestFirstHitSegment(t *testing.T) {
	w := NewWorld()
	wall := w.AddStaticBox(geom.AABB{Min: geom.V(-1, -1, 2), Max: geom.V(1, 1, 2.1)})
	h, ok := FirstHit(w, geom.Zero, geom.V(0, 0, 4), NoBody)
	if !ok || h.Body != wall || !h.Static {
		t.Fatalf("FirstHit = %+v, %v", h, ok)
	}
	if h.Normal.Z != -1 {
		t.Fatalf("normal = %+v, want -Z", h.Normal)
	}
	if _, ok := FirstHit(w, geom.Zero, geom.V(0, 0, 1), NoBody); ok {
		t.Fatal("segment short of the wall reported a hit")
	}
}

func TestEventSinkDropsWhenFull(t *testing.T) {
	s := NewEventSink(2)
	for i := 0; i < 5; i++ {
		s.PushContact(ContactEvent{A: BodyID(i)})
	}
	if s.Dropped() != 3 {
		t.Fatalf("dropped = %d, want 3", s.Dropped())
	}
	if n := s.DrainContacts(func(ContactEvent) {}); n != 2 {
		t.Fatalf("drained = %d, want 2", n)
	}
	if n := s.DrainContacts(func(ContactEvent) {}); n != 0 {
		t.Fatalf("second drain = %d, want 0", n)
	}
}

func TestRemoveBodyEmitsNothingAndForgetsPairs(t *testing.T) {
	w, sink, _ := newFloorWorld()
	ball := w.AddBody(BodyDesc{Shape: ShapeSphere, Radius: 0.5, Position: geom.V(0, 0.5, 0), Group: GroupActor})
	w.Step(1.0 / 60)
	sink.DrainContacts(func(ContactEvent) {})
	w.RemoveBody(ball)
	w.Step(1.0 / 60)
	if n := sink.DrainContacts(func(ContactEvent) {}); n != 0 {
		t.Fatalf("events after removal = %d, want 0", n)
	}
	if w.Len() != 1 {
		t.Fatalf("Len = %d, want 1", w.Len())
	}
}
