package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlicePool(t *testing.T) {
	t.Parallel()
	a := assert.New(t)

	p := NewSlicePoolSize[int](2)
	_, ok := p.Acquire()
	a.False(ok)

	p.Release(1)
	p.Release(2)
	p.Release(3) // over the limit, dropped

	v, ok := p.Acquire()
	a.True(ok)
	a.Equal(2, v)
	v, ok = p.Acquire()
	a.True(ok)
	a.Equal(1, v)
	_, ok = p.Acquire()
	a.False(ok)
}

func TestBuffers(t *testing.T) {
	t.Parallel()
	a := assert.New(t)

	b := NewBuffers(4, 16, 64)
	buf := b.Get()
	a.Empty(buf)
	a.Equal(16, cap(buf))

	buf = append(buf, "payload"...)
	b.Put(buf)
	again := b.Get()
	a.Empty(again)
	a.Equal(16, cap(again))

	b.Put(make([]byte, 0, 128))
	fresh := b.Get()
	a.Equal(16, cap(fresh))
}
