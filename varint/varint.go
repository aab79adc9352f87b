// Package varint implements the variable length integer packing used by the
// metadata server (pack_dw, pack_dd and pack_dq).
//
// The top bits of the first byte select how many bytes follow. Encoding always
// picks the shortest form which can hold the value.
//
//	dw (16 bit)   0xxxxxxx                 1 byte,  <= 0x7f
//	              10xxxxxx b               2 bytes, <= 0x3fff
//	              11...... b b             3 bytes, first byte discarded
//
//	dd (32 bit)   0xxxxxxx                 1 byte,  <= 0x7f
//	              10xxxxxx b               2 bytes, <= 0x3fff
//	              110xxxxx b b b           4 bytes, <= 0x1fffffff
//	              111..... b b b b         5 bytes, first byte discarded
//
//	dq (64 bit)   dd(low 32 bits) dd(high 32 bits)
package varint

import (
	"fmt"

	"github.com/ozontech/lumina/protoerr"
)

const (
	MaxDW = 0xFFFF
	MaxDD = 0xFFFFFFFF
)

type category struct {
	extra int
	mask  byte
}

var dwTable = [4]category{
	{0, 0xff}, {0, 0xff}, // 0b0xxxxxxx
	{1, 0x7f}, // 0b10xxxxxx
	{2, 0x00}, // 0b11xxxxxx
}

var ddTable = [8]category{
	{0, 0xff}, {0, 0xff}, {0, 0xff}, {0, 0xff}, // 0b0xxxxxxx
	{1, 0x7f}, {1, 0x7f}, // 0b10xxxxxx
	{3, 0x3f}, // 0b110xxxxx
	{4, 0x00}, // 0b111xxxxx
}

// AppendDW encodes v with the 16 bit scheme. Values outside [0, 0xFFFF] are
// rejected with protoerr.ErrIntegerRange.
func AppendDW(b []byte, v int64) ([]byte, error) {
	if v < 0 || v > MaxDW {
		return b, fmt.Errorf("dw %d: %w", v, protoerr.ErrIntegerRange)
	}
	return AppendUint16(b, uint16(v)), nil
}

// AppendDD encodes v with the 32 bit scheme. Values outside [0, 0xFFFFFFFF]
// are rejected with protoerr.ErrIntegerRange.
func AppendDD(b []byte, v int64) ([]byte, error) {
	if v < 0 || v > MaxDD {
		return b, fmt.Errorf("dd %d: %w", v, protoerr.ErrIntegerRange)
	}
	return AppendUint32(b, uint32(v)), nil
}

// AppendDQ encodes v with the 64 bit scheme. Every uint64 is in range.
func AppendDQ(b []byte, v uint64) []byte {
	return AppendUint64(b, v)
}

func AppendUint16(b []byte, v uint16) []byte {
	x := uint64(v)
	var n int
	switch {
	case x > 0x3FFF:
		x |= 0xFF0000
		n = 3
	case x > 0x7F:
		x |= 0x8000
		n = 2
	default:
		n = 1
	}
	return appendBE(b, x, n)
}

func AppendUint32(b []byte, v uint32) []byte {
	x := uint64(v)
	var n int
	switch {
	case x > 0x1FFFFFFF:
		x |= 0xFF00000000
		n = 5
	case x > 0x3FFF:
		x |= 0xC0000000
		n = 4
	case x > 0x7F:
		x |= 0x8000
		n = 2
	default:
		n = 1
	}
	return appendBE(b, x, n)
}

func AppendUint64(b []byte, v uint64) []byte {
	b = AppendUint32(b, uint32(v))
	return AppendUint32(b, uint32(v>>32))
}

func appendBE(b []byte, x uint64, n int) []byte {
	for i := n; i > 0; i-- {
		b = append(b, byte(x>>(8*(i-1))))
	}
	return b
}

// SizeUint32 returns the encoded length of v.
func SizeUint32(v uint32) int {
	switch {
	case v > 0x1FFFFFFF:
		return 5
	case v > 0x3FFF:
		return 4
	case v > 0x7F:
		return 2
	default:
		return 1
	}
}

// DW decodes one 16 bit code from the head of b and returns the number of
// bytes consumed.
func DW(b []byte) (uint16, int, error) {
	num, n, err := decode(b, dwTable[:], 6, "dw")
	return uint16(num), n, err
}

// DD decodes one 32 bit code from the head of b.
func DD(b []byte) (uint32, int, error) {
	num, n, err := decode(b, ddTable[:], 5, "dd")
	return uint32(num), n, err
}

// DQ decodes a low and a high 32 bit code from the head of b.
func DQ(b []byte) (uint64, int, error) {
	low, n1, err := DD(b)
	if err != nil {
		return 0, 0, err
	}
	high, n2, err := DD(b[n1:])
	if err != nil {
		return 0, 0, err
	}
	return uint64(high)<<32 | uint64(low), n1 + n2, nil
}

func decode(b []byte, table []category, shift uint, what string) (uint64, int, error) {
	if len(b) == 0 {
		return 0, 0, protoerr.Truncated(what, 1, 0)
	}
	c := table[b[0]>>shift]
	if len(b) < 1+c.extra {
		return 0, 0, protoerr.Truncated(what, 1+c.extra, len(b))
	}
	num := uint64(b[0] & c.mask)
	for i := 1; i <= c.extra; i++ {
		num = num<<8 | uint64(b[i])
	}
	return num, 1 + c.extra, nil
}
