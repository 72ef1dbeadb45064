package pool

import (
	"strconv"

	"github.com/fragcore/arena/internal/visit"
)

type slot[T any] struct {
	value      T
	generation uint32
	alive      bool
}

// Pool is a slot arena with generational handles and a free list. It owns
// every value stored in it; everything else refers to values by Handle.
// Not safe for concurrent use: the simulation mutates pools from one goroutine.
type Pool[T any] struct {
	slots    []slot[T]
	freeList []uint32
	alive    int
}

func New[T any]() *Pool[T] {
	return &Pool[T]{
		slots:    make([]slot[T], 0, 64),
		freeList: make([]uint32, 0, 16),
	}
}

// Spawn stores v and returns its handle. Freed slots are reused first.
func (p *Pool[T]) Spawn(v T) Handle[T] {
	if n := len(p.freeList); n > 0 {
		idx := p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		s := &p.slots[idx]
		s.value = v
		s.alive = true
		p.alive++
		return newHandle[T](idx, s.generation)
	}
	idx := uint32(len(p.slots))
	p.slots = append(p.slots, slot[T]{value: v, generation: 1, alive: true})
	p.alive++
	return newHandle[T](idx, 1)
}

func (p *Pool[T]) slotOf(h Handle[T]) (*slot[T], bool) {
	idx := h.Index()
	if h.IsNone() || int(idx) >= len(p.slots) {
		return nil, false
	}
	s := &p.slots[idx]
	if !s.alive || s.generation != h.Generation() {
		return nil, false
	}
	return s, true
}

// Contains reports whether h still refers to a live value.
func (p *Pool[T]) Contains(h Handle[T]) bool {
	_, ok := p.slotOf(h)
	return ok
}

// Get returns the value behind h, or false if the slot was freed or reused.
func (p *Pool[T]) Get(h Handle[T]) (*T, bool) {
	s, ok := p.slotOf(h)
	if !ok {
		return nil, false
	}
	return &s.value, true
}

// Free releases the slot and bumps its generation so that every outstanding
// copy of h goes stale. Freeing a stale handle is a no-op.
func (p *Pool[T]) Free(h Handle[T]) (T, bool) {
	var zero T
	s, ok := p.slotOf(h)
	if !ok {
		return zero, false
	}
	v := s.value
	s.value = zero
	s.alive = false
	s.generation++
	if s.generation == 0 {
		s.generation = 1
	}
	p.freeList = append(p.freeList, h.Index())
	p.alive--
	return v, true
}

func (p *Pool[T]) Len() int { return p.alive }

// Each calls fn for every live value in slot order. Slots spawned during the
// walk are not visited; slots freed during the walk are skipped.
func (p *Pool[T]) Each(fn func(Handle[T], *T)) {
	n := len(p.slots)
	for i := 0; i < n; i++ {
		s := &p.slots[i]
		if !s.alive {
			continue
		}
		fn(newHandle[T](uint32(i), s.generation), &s.value)
	}
}

// Handles returns a snapshot of the live handles.
func (p *Pool[T]) Handles() []Handle[T] {
	out := make([]Handle[T], 0, p.alive)
	p.Each(func(h Handle[T], _ *T) { out = append(out, h) })
	return out
}

// Retain frees every value for which keep returns false and returns the
// freed values so the caller can release their external resources.
func (p *Pool[T]) Retain(keep func(Handle[T], *T) bool) []T {
	var removed []T
	for _, h := range p.Handles() {
		v, _ := p.Get(h)
		if !keep(h, v) {
			val, _ := p.Free(h)
			removed = append(removed, val)
		}
	}
	return removed
}

// Clear frees every live slot.
func (p *Pool[T]) Clear() {
	for _, h := range p.Handles() {
		p.Free(h)
	}
}

// Visit saves or restores the pool including slot generations, so handles
// stored elsewhere in a save stay valid after loading.
func (p *Pool[T]) Visit(v *visit.Visitor, name string, item func(v *visit.Visitor, value *T) error) error {
	return v.Region(name, func() error {
		n := len(p.slots)
		if err := v.Count("SlotCount", &n); err != nil {
			return err
		}
		if v.IsReading() {
			p.slots = make([]slot[T], n)
			p.freeList = p.freeList[:0]
			p.alive = 0
		}
		for i := range p.slots {
			s := &p.slots[i]
			err := v.Region("Slot"+strconv.Itoa(i), func() error {
				if err := v.Uint32("Generation", &s.generation); err != nil {
					return err
				}
				if err := v.Bool("Alive", &s.alive); err != nil {
					return err
				}
				if !s.alive {
					return nil
				}
				return v.Region("Value", func() error { return item(v, &s.value) })
			})
			if err != nil {
				return err
			}
		}
		if v.IsReading() {
			// Rebuild in reverse so the lowest index is reused first, matching
			// the order a fresh pool would hand slots out.
			for i := len(p.slots) - 1; i >= 0; i-- {
				if p.slots[i].alive {
					p.alive++
				} else {
					p.freeList = append(p.freeList, uint32(i))
				}
			}
		}
		return nil
	})
}

// VisitHandle stores a handle as its index and generation.
func VisitHandle[T any](v *visit.Visitor, name string, h *Handle[T]) error {
	return v.Region(name, func() error {
		idx, gen := h.Index(), h.Generation()
		if err := v.Uint32("Index", &idx); err != nil {
			return err
		}
		if err := v.Uint32("Generation", &gen); err != nil {
			return err
		}
		*h = newHandle[T](idx, gen)
		return nil
	})
}
