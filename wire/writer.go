// Package wire holds the primitive encodings the message bodies are built from:
// fixed width integers in both byte orders, varints, length prefixed buffers
// and strings, null terminated strings and adjusted addresses.
package wire

import (
	"encoding/binary"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ozontech/lumina/varint"
)

// Writer appends encoded values to a byte slice. The first failure is kept and
// every later call is a no-op, check Err once the value is built.
type Writer struct {
	buf []byte
	err error
}

// NewWriter appends to b.
func NewWriter(b []byte) *Writer {
	return &Writer{buf: b}
}

func (w *Writer) Bytes() []byte { return w.buf }
func (w *Writer) Len() int      { return len(w.buf) }
func (w *Writer) Err() error    { return w.err }

func (w *Writer) Reset(b []byte) {
	w.buf = b[:0]
	w.err = nil
}

func (w *Writer) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

func (w *Writer) Raw(p []byte) {
	if w.err != nil {
		return
	}
	w.buf = append(w.buf, p...)
}

func (w *Writer) Uint8(v uint8) {
	if w.err != nil {
		return
	}
	w.buf = append(w.buf, v)
}

func (w *Writer) Int8(v int8) { w.Uint8(uint8(v)) }

func (w *Writer) Uint16(order binary.AppendByteOrder, v uint16) {
	if w.err != nil {
		return
	}
	w.buf = order.AppendUint16(w.buf, v)
}

func (w *Writer) Int16(order binary.AppendByteOrder, v int16) { w.Uint16(order, uint16(v)) }

func (w *Writer) Uint32(order binary.AppendByteOrder, v uint32) {
	if w.err != nil {
		return
	}
	w.buf = order.AppendUint32(w.buf, v)
}

func (w *Writer) Int32(order binary.AppendByteOrder, v int32) { w.Uint32(order, uint32(v)) }

func (w *Writer) Uint64(order binary.AppendByteOrder, v uint64) {
	if w.err != nil {
		return
	}
	w.buf = order.AppendUint64(w.buf, v)
}

func (w *Writer) Int64(order binary.AppendByteOrder, v int64) { w.Uint64(order, uint64(v)) }

func (w *Writer) DW(v uint16) {
	if w.err != nil {
		return
	}
	w.buf = varint.AppendUint16(w.buf, v)
}

func (w *Writer) DD(v uint32) {
	if w.err != nil {
		return
	}
	w.buf = varint.AppendUint32(w.buf, v)
}

func (w *Writer) DQ(v uint64) {
	if w.err != nil {
		return
	}
	w.buf = varint.AppendUint64(w.buf, v)
}

// EA writes an address as the dq of v+1, so BADADDR (all ones) is sent as 0.
func (w *Writer) EA(v uint64) { w.DQ(v + 1) }

// Count writes an array length prefix.
func (w *Writer) Count(n int) {
	if n < 0 || n > varint.MaxDD {
		w.fail(fmt.Errorf("array of %d elements does not fit dd", n))
		return
	}
	w.DD(uint32(n))
}

// Buff writes a dd length followed by the raw bytes.
func (w *Writer) Buff(p []byte) {
	w.Count(len(p))
	w.Raw(p)
}

// VarString writes a dd length prefixed UTF-8 string.
func (w *Writer) VarString(s string) {
	if !utf8.ValidString(s) {
		w.fail(fmt.Errorf("string %q is not valid utf-8", s))
		return
	}
	w.Count(len(s))
	if w.err != nil {
		return
	}
	w.buf = append(w.buf, s...)
}

// CString writes s followed by a zero byte. s must not contain zero bytes.
func (w *Writer) CString(s string) {
	if strings.IndexByte(s, 0) != -1 {
		w.fail(fmt.Errorf("cstring %q contains a null byte", s))
		return
	}
	if w.err != nil {
		return
	}
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
}
