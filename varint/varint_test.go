package varint_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ozontech/lumina/protoerr"
	"github.com/ozontech/lumina/varint"
)

type test struct {
	value uint64
	bytes []byte
}

func makeDDTests() []test {
	return []test{
		{0x00, []byte{0x00}},
		{0x7F, []byte{0x7F}},
		{0x80, []byte{0x80, 0x80}},
		{300, []byte{0x81, 0x2C}},
		{0x3FFF, []byte{0xBF, 0xFF}},
		{0x4000, []byte{0xC0, 0x00, 0x40, 0x00}},
		{0x1FFFFFFF, []byte{0xDF, 0xFF, 0xFF, 0xFF}},
		{0x20000000, []byte{0xFF, 0x20, 0x00, 0x00, 0x00}},
		{0xFFFFFFFF, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF}},
	}
}

func TestDD(t *testing.T) {
	t.Parallel()
	for _, tc := range makeDDTests() {
		tc := tc
		t.Run(fmt.Sprintf("0x%x", tc.value), func(t *testing.T) {
			t.Parallel()
			b, err := varint.AppendDD(nil, int64(tc.value))
			require.NoError(t, err)
			assert.Equal(t, tc.bytes, b)
			assert.Equal(t, len(tc.bytes), varint.SizeUint32(uint32(tc.value)))

			v, n, err := varint.DD(append(b, 0xAA))
			require.NoError(t, err)
			assert.Equal(t, uint32(tc.value), v)
			assert.Equal(t, len(tc.bytes), n)
		})
	}
}

func TestDDRange(t *testing.T) {
	t.Parallel()
	a := assert.New(t)

	b, err := varint.AppendDD([]byte{1}, -1)
	a.ErrorIs(err, protoerr.ErrIntegerRange)
	a.Equal([]byte{1}, b)

	_, err = varint.AppendDD(nil, 0x100000000)
	a.ErrorIs(err, protoerr.ErrIntegerRange)

	_, err = varint.AppendDW(nil, -1)
	a.ErrorIs(err, protoerr.ErrIntegerRange)

	_, err = varint.AppendDW(nil, 0x10000)
	a.ErrorIs(err, protoerr.ErrIntegerRange)
}

func TestDW(t *testing.T) {
	t.Parallel()
	tests := []test{
		{0x00, []byte{0x00}},
		{0x7F, []byte{0x7F}},
		{0x80, []byte{0x80, 0x80}},
		{0x3FFF, []byte{0xBF, 0xFF}},
		{0x4000, []byte{0xFF, 0x40, 0x00}},
		{0xFFFF, []byte{0xFF, 0xFF, 0xFF}},
	}
	for _, tc := range tests {
		b, err := varint.AppendDW(nil, int64(tc.value))
		require.NoError(t, err)
		assert.Equal(t, tc.bytes, b)

		v, n, err := varint.DW(b)
		require.NoError(t, err)
		assert.Equal(t, uint16(tc.value), v)
		assert.Equal(t, len(b), n)
	}
}

func TestDWRoundTripAll(t *testing.T) {
	t.Parallel()
	for v := 0; v <= math.MaxUint16; v++ {
		b := varint.AppendUint16(nil, uint16(v))
		got, n, err := varint.DW(b)
		if err != nil || int(got) != v || n != len(b) {
			t.Fatalf("dw %#x: got %#x (n=%d, err=%v)", v, got, n, err)
		}
	}
}

func TestDDRoundTripSampled(t *testing.T) {
	t.Parallel()
	for v := uint64(0); v <= math.MaxUint32; v += 0x10001 {
		for _, x := range []uint32{uint32(v), uint32(v) + 1, uint32(v) - 1} {
			b := varint.AppendUint32(nil, x)
			got, n, err := varint.DD(b)
			if err != nil || got != x || n != len(b) {
				t.Fatalf("dd %#x: got %#x (n=%d, err=%v)", x, got, n, err)
			}
		}
	}
}

func TestDQ(t *testing.T) {
	t.Parallel()
	values := []uint64{
		0, 1, 0x7F, 0x80, 0xFFFFFFFF, 0x100000000,
		0x1234567890ABCDEF, math.MaxUint64 - 1, math.MaxUint64,
	}
	for _, v := range values {
		b := varint.AppendDQ(nil, v)
		got, n, err := varint.DQ(b)
		require.NoError(t, err)
		assert.Equal(t, v, got)
		assert.Equal(t, len(b), n)
	}

	// low word first
	assert.Equal(t, []byte{0x01, 0x02}, varint.AppendDQ(nil, 0x200000001))
}

func TestTruncated(t *testing.T) {
	t.Parallel()
	a := assert.New(t)

	_, _, err := varint.DD(nil)
	a.ErrorIs(err, protoerr.ErrTruncated)

	_, _, err = varint.DD([]byte{0xC0, 0x00})
	a.ErrorIs(err, protoerr.ErrTruncated)

	_, _, err = varint.DW([]byte{0xFF, 0x00})
	a.ErrorIs(err, protoerr.ErrTruncated)

	_, _, err = varint.DQ([]byte{0x01})
	a.ErrorIs(err, protoerr.ErrTruncated)
}
