package pool

import "sync"

// SlicePool keeps released values for reuse. At most limit values are kept,
// limit 0 keeps everything.
type SlicePool[T any] struct {
	mu    sync.Mutex
	s     []T
	limit int
}

func NewSlicePool[T any]() *SlicePool[T] {
	return new(SlicePool[T])
}

func NewSlicePoolSize[T any](size int) *SlicePool[T] {
	return &SlicePool[T]{s: make([]T, 0, size), limit: size}
}

func (p *SlicePool[T]) Acquire() (v T, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	l := len(p.s)
	if l == 0 {
		return v, false
	}

	v = p.s[l-1]
	var zero T
	p.s[l-1] = zero
	p.s = p.s[:l-1]
	return v, true
}

func (p *SlicePool[T]) Release(v T) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.limit > 0 && len(p.s) >= p.limit {
		return
	}
	p.s = append(p.s, v)
}

// Buffers pools byte slices for frame encoding. Slices grown beyond maxCap
// are dropped instead of pinning their memory.
type Buffers struct {
	pool   *SlicePool[[]byte]
	size   int
	maxCap int
}

func NewBuffers(count, size, maxCap int) *Buffers {
	return &Buffers{pool: NewSlicePoolSize[[]byte](count), size: size, maxCap: maxCap}
}

// Get returns an empty slice.
func (b *Buffers) Get() []byte {
	if buf, ok := b.pool.Acquire(); ok {
		return buf[:0]
	}
	return make([]byte, 0, b.size)
}

func (b *Buffers) Put(buf []byte) {
	if cap(buf) > b.maxCap {
		return
	}
	b.pool.Release(buf)
}
