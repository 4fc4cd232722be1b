package indicator

// Ring is a fixed-capacity ring buffer. Push reports the value it evicted.
type Ring[T any] struct {
	buf   []T
	start int
	size  int
}

func NewRing[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

func (r *Ring[T]) Push(v T) (evicted T, ok bool) {
	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = v
		r.size++
		return evicted, false
	}
	evicted = r.buf[r.start]
	r.buf[r.start] = v
	r.start = (r.start + 1) % len(r.buf)
	return evicted, true
}

// Get indexes from the oldest element.
func (r *Ring[T]) Get(i int) (T, bool) {
	var zero T
	if i < 0 || i >= r.size {
		return zero, false
	}
	return r.buf[(r.start+i)%len(r.buf)], true
}

func (r *Ring[T]) Last() (T, bool) { return r.Get(r.size - 1) }

func (r *Ring[T]) Len() int   { return r.size }
func (r *Ring[T]) Cap() int   { return len(r.buf) }
func (r *Ring[T]) Full() bool { return r.size == len(r.buf) }

func (r *Ring[T]) Slice() []T {
	out := make([]T, r.size)
	for i := range out {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}

// extremeQueue is a monotonic deque of (sequence, value) pairs giving the
// max (or min) of the last n pushes in amortized O(1).
type extremeQueue struct {
	n    int
	max  bool
	seq  int
	idx  []int
	vals []float64
}

func newExtremeQueue(n int, max bool) *extremeQueue {
	if n <= 0 {
		n = 1
	}
	return &extremeQueue{n: n, max: max}
}

func (q *extremeQueue) push(v float64) {
	for len(q.vals) > 0 {
		last := q.vals[len(q.vals)-1]
		if (q.max && last > v) || (!q.max && last < v) {
			break
		}
		q.vals = q.vals[:len(q.vals)-1]
		q.idx = q.idx[:len(q.idx)-1]
	}
	q.vals = append(q.vals, v)
	q.idx = append(q.idx, q.seq)
	q.seq++
	for len(q.idx) > 0 && q.idx[0] <= q.seq-1-q.n {
		q.idx = q.idx[1:]
		q.vals = q.vals[1:]
	}
}

func (q *extremeQueue) value() float64 { return q.vals[0] }

func (q *extremeQueue) ready() bool { return q.seq >= q.n }
