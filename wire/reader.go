package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"github.com/ozontech/lumina/protoerr"
	"github.com/ozontech/lumina/varint"
)

// Reader decodes values from the head of a byte slice. A failed read never
// moves the cursor. Returned byte slices are copies and do not alias the input.
type Reader struct {
	b   []byte
	off int
}

func NewReader(b []byte) *Reader {
	return &Reader{b: b}
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int    { return len(r.b) - r.off }
func (r *Reader) Offset() int { return r.off }

// Rest returns a copy of the unread bytes and consumes them.
func (r *Reader) Rest() []byte {
	rest := bytes.Clone(r.b[r.off:])
	if rest == nil {
		rest = []byte{}
	}
	r.off = len(r.b)
	return rest
}

func (r *Reader) next(n int, what string) ([]byte, error) {
	if r.Len() < n {
		return nil, protoerr.Truncated(what, n, r.Len())
	}
	p := r.b[r.off : r.off+n]
	r.off += n
	return p, nil
}

// Bytes reads exactly n raw bytes.
func (r *Reader) Bytes(n int) ([]byte, error) {
	p, err := r.next(n, "bytes")
	if err != nil {
		return nil, err
	}
	return bytes.Clone(p), nil
}

func (r *Reader) Uint8() (uint8, error) {
	p, err := r.next(1, "u8")
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

func (r *Reader) Int8() (int8, error) {
	v, err := r.Uint8()
	return int8(v), err
}

func (r *Reader) Uint16(order binary.ByteOrder) (uint16, error) {
	p, err := r.next(2, "u16")
	if err != nil {
		return 0, err
	}
	return order.Uint16(p), nil
}

func (r *Reader) Int16(order binary.ByteOrder) (int16, error) {
	v, err := r.Uint16(order)
	return int16(v), err
}

func (r *Reader) Uint32(order binary.ByteOrder) (uint32, error) {
	p, err := r.next(4, "u32")
	if err != nil {
		return 0, err
	}
	return order.Uint32(p), nil
}

func (r *Reader) Int32(order binary.ByteOrder) (int32, error) {
	v, err := r.Uint32(order)
	return int32(v), err
}

func (r *Reader) Uint64(order binary.ByteOrder) (uint64, error) {
	p, err := r.next(8, "u64")
	if err != nil {
		return 0, err
	}
	return order.Uint64(p), nil
}

func (r *Reader) Int64(order binary.ByteOrder) (int64, error) {
	v, err := r.Uint64(order)
	return int64(v), err
}

func (r *Reader) DW() (uint16, error) {
	v, n, err := varint.DW(r.b[r.off:])
	if err != nil {
		return 0, err
	}
	r.off += n
	return v, nil
}

func (r *Reader) DD() (uint32, error) {
	v, n, err := varint.DD(r.b[r.off:])
	if err != nil {
		return 0, err
	}
	r.off += n
	return v, nil
}

func (r *Reader) DQ() (uint64, error) {
	v, n, err := varint.DQ(r.b[r.off:])
	if err != nil {
		return 0, err
	}
	r.off += n
	return v, nil
}

// EA reads an address written by Writer.EA.
func (r *Reader) EA() (uint64, error) {
	v, err := r.DQ()
	if err != nil {
		return 0, err
	}
	return v - 1, nil
}

// Count reads an array length. Every element takes at least one byte, so a
// count above the remaining length can not be honest and is reported as
// truncation before anything gets allocated for it.
func (r *Reader) Count() (int, error) {
	start := r.off
	n, err := r.DD()
	if err != nil {
		return 0, err
	}
	if int(n) > r.Len() {
		r.off = start
		return 0, protoerr.Truncated("array", int(n), r.Len())
	}
	return int(n), nil
}

// Buff reads a dd length prefixed byte buffer.
func (r *Reader) Buff() ([]byte, error) {
	start := r.off
	n, err := r.DD()
	if err != nil {
		return nil, err
	}
	p, err := r.Bytes(int(n))
	if err != nil {
		r.off = start
		return nil, fmt.Errorf("buff: %w", err)
	}
	return p, nil
}

// VarString reads a dd length prefixed UTF-8 string.
func (r *Reader) VarString() (string, error) {
	start := r.off
	p, err := r.Buff()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(p) {
		r.off = start
		return "", fmt.Errorf("string is not valid utf-8")
	}
	return string(p), nil
}

// CString reads up to and including the next zero byte.
func (r *Reader) CString() (string, error) {
	i := bytes.IndexByte(r.b[r.off:], 0)
	if i == -1 {
		return "", protoerr.Truncated("cstring", r.Len()+1, r.Len())
	}
	s := string(r.b[r.off : r.off+i])
	r.off += i + 1
	return s, nil
}
