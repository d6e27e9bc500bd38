package stream

type itemState uint8

const (
	itemPending itemState = iota
	itemKeep
	itemSkip
)

type item[T any] struct {
	state itemState
	value T
}

// reorderQueue is a ring buffer of items addressed by a monotonically
// increasing sequence number. Items are appended in arrival order and
// removed from the front.
type reorderQueue[T any] struct {
	items []item[T]
	head  int
	n     int
	base  uint64 // sequence number of items[head]
}

// push appends a pending item and returns its sequence number.
func (q *reorderQueue[T]) push() uint64 {
	if q.n == len(q.items) {
		q.grow()
	}
	q.items[(q.head+q.n)%len(q.items)] = item[T]{}
	q.n++
	return q.base + uint64(q.n-1)
}

func (q *reorderQueue[T]) grow() {
	items := make([]item[T], max(8, 2*len(q.items)))
	for i := 0; i < q.n; i++ {
		items[i] = q.items[(q.head+i)%len(q.items)]
	}
	q.items = items
	q.head = 0
}

// at returns the item with sequence number seq, or nil if it is no longer
// (or not yet) queued.
func (q *reorderQueue[T]) at(seq uint64) *item[T] {
	if seq < q.base || seq >= q.base+uint64(q.n) {
		return nil
	}
	return &q.items[(q.head+int(seq-q.base))%len(q.items)]
}

func (q *reorderQueue[T]) front() *item[T] {
	if q.n == 0 {
		return nil
	}
	return &q.items[q.head]
}

func (q *reorderQueue[T]) pop() {
	q.items[q.head] = item[T]{}
	q.head = (q.head + 1) % len(q.items)
	q.n--
	q.base++
}

func (q *reorderQueue[T]) size() int { return q.n }

// reset drops every item. Sequence numbers handed out before stay invalid.
func (q *reorderQueue[T]) reset() {
	clear(q.items)
	q.base += uint64(q.n)
	q.head, q.n = 0, 0
}
