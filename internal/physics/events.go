package physics

import "sync/atomic"

// EventSink carries contact and proximity events from the physics pass to
// the simulation over bounded channels. Producers never block: when a
// channel is full the event is dropped and counted. Consumers drain without
// waiting; an empty channel simply means no events this tick.
type EventSink struct {
	contacts  chan ContactEvent
	proximity chan ProximityEvent
	dropped   atomic.Uint64
}

func NewEventSink(size int) *EventSink {
	if size <= 0 {
		size = 256
	}
	return &EventSink{
		contacts:  make(chan ContactEvent, size),
		proximity: make(chan ProximityEvent, size),
	}
}

func (s *EventSink) PushContact(e ContactEvent) bool {
	select {
	case s.contacts <- e:
		return true
	default:
		s.dropped.Add(1)
		return false
	}
}

func (s *EventSink) PushProximity(e ProximityEvent) bool {
	select {
	case s.proximity <- e:
		return true
	default:
		s.dropped.Add(1)
		return false
	}
}

// DrainContacts delivers queued contact events to fn and returns the count.
func (s *EventSink) DrainContacts(fn func(ContactEvent)) int {
	n := 0
	for {
		select {
		case e := <-s.contacts:
			fn(e)
			n++
		default:
			return n
		}
	}
}

// DrainProximity delivers queued proximity events to fn and returns the count.
func (s *EventSink) DrainProximity(fn func(ProximityEvent)) int {
	n := 0
	for {
		select {
		case e := <-s.proximity:
			fn(e)
			n++
		default:
			return n
		}
	}
}

// Dropped returns how many events were discarded because a channel was full.
func (s *EventSink) Dropped() uint64 { return s.dropped.Load() }
