package history

// Ring is a fixed-capacity circular buffer. Pushing beyond capacity
// overwrites the oldest value. Not safe for concurrent use.
type Ring[T any] struct {
	buf  []T
	pos  int // next write position
	full bool
}

// NewRing creates a ring holding at most capacity values (minimum 1).
func NewRing[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

// Push appends v, evicting the oldest value when full.
func (r *Ring[T]) Push(v T) {
	r.buf[r.pos] = v
	r.pos = (r.pos + 1) % len(r.buf)
	if r.pos == 0 && !r.full {
		r.full = true
	}
}

// Len returns the number of values held.
func (r *Ring[T]) Len() int {
	if r.full {
		return len(r.buf)
	}
	return r.pos
}

// Cap returns the capacity.
func (r *Ring[T]) Cap() int { return len(r.buf) }

// Last returns the newest value.
func (r *Ring[T]) Last() (T, bool) {
	var zero T
	if r.Len() == 0 {
		return zero, false
	}
	return r.buf[(r.pos-1+len(r.buf))%len(r.buf)], true
}

// Tail returns a copy of the newest n values, oldest first.
func (r *Ring[T]) Tail(n int) []T {
	count := r.Len()
	if n > count {
		n = count
	}
	if n <= 0 {
		return []T{}
	}
	out := make([]T, n)
	start := count - n
	for i := 0; i < n; i++ {
		out[i] = r.buf[r.index(start+i)]
	}
	return out
}

// Values returns a copy of all values, oldest first.
func (r *Ring[T]) Values() []T { return r.Tail(r.Len()) }

// index maps a logical position (0 = oldest) to a slot in buf.
func (r *Ring[T]) index(i int) int {
	if !r.full {
		return i
	}
	return (r.pos + i) % len(r.buf)
}
