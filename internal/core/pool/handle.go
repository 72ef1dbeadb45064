package pool

import "fmt"

// Handle encodes a 32-bit slot index in the lower bits and a 32-bit generation
// in the upper bits. The type parameter only ties a handle to the pool of the
// entity kind it was issued by. Generations start at 1, so the zero Handle
// never refers to a live slot and doubles as "none".
type Handle[T any] uint64

func newHandle[T any](index, generation uint32) Handle[T] {
	return Handle[T](uint64(generation)<<32 | uint64(index))
}

func (h Handle[T]) Index() uint32      { return uint32(h) }
func (h Handle[T]) Generation() uint32 { return uint32(h >> 32) }
func (h Handle[T]) IsNone() bool       { return h == 0 }
func (h Handle[T]) IsSome() bool       { return h != 0 }

func (h Handle[T]) String() string {
	if h.IsNone() {
		return "none"
	}
	return fmt.Sprintf("%d:%d", h.Index(), h.Generation())
}
