package event

// Sender is the write side of a Queue handed to entities. Entities never
// mutate sibling containers directly; they describe the effect as a message
// and the owner of all containers replays it.
type Sender[M any] interface {
	Send(msg M)
}

// Queue is an unbounded FIFO drained once per tick. Messages sent while a
// drain is running are appended behind the current one and delivered in the
// same drain, so a drain always ends with the queue empty.
type Queue[M any] struct {
	items    []M
	head     int
	draining bool
}

func NewQueue[M any]() *Queue[M] {
	return &Queue[M]{items: make([]M, 0, 64)}
}

// Send appends msg to the back of the queue.
func (q *Queue[M]) Send(msg M) {
	q.items = append(q.items, msg)
}

// Len returns the number of undelivered messages.
func (q *Queue[M]) Len() int { return len(q.items) - q.head }

// Drain delivers every queued message to fn in FIFO order until the queue is
// empty and returns how many were delivered. A nested Drain from inside fn
// returns 0 and leaves delivery to the outer call.
func (q *Queue[M]) Drain(fn func(M)) int {
	if q.draining {
		return 0
	}
	q.draining = true
	defer func() { q.draining = false }()

	n := 0
	var zero M
	for q.head < len(q.items) {
		msg := q.items[q.head]
		q.items[q.head] = zero
		q.head++
		fn(msg)
		n++
	}
	q.items = q.items[:0]
	q.head = 0
	return n
}

// Reset drops every queued message.
func (q *Queue[M]) Reset() {
	var zero M
	for i := range q.items {
		q.items[i] = zero
	}
	q.items = q.items[:0]
	q.head = 0
}
