// Package tsv writes one tab separated line per exchange:
//
//	start  server  op  duration_us  sent  found  missing  bytes_sent  bytes_received  result
//
// result is "ok" or the error class: transport, protocol, server, unsupported,
// truncated, range or error.
package tsv

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/ozontech/lumina/protoerr"
	"github.com/ozontech/lumina/types"
	"github.com/ozontech/lumina/utils/pool"
)

type Reporter struct {
	w    *bufio.Writer
	ch   chan types.Exchange
	bufs *pool.Buffers
}

func New(w io.Writer) *Reporter {
	return &Reporter{
		w:    bufio.NewWriter(w),
		ch:   make(chan types.Exchange, 64),
		bufs: pool.NewBuffers(1, 128, 4096),
	}
}

// Run writes lines until Close. After a write failure the remaining
// exchanges are drained so Report never blocks.
func (r *Reporter) Run() error {
	var err error
	for ex := range r.ch {
		if err != nil {
			continue
		}
		line := appendLine(r.bufs.Get(), ex)
		_, err = r.w.Write(line)
		r.bufs.Put(line)
	}
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return r.w.Flush()
}

func (r *Reporter) Close() error {
	close(r.ch)
	return nil
}

func (r *Reporter) Report(ex types.Exchange) {
	r.ch <- ex
}

const tabChar = '\t'

func appendLine(b []byte, ex types.Exchange) []byte {
	b = strconv.AppendInt(b, ex.Start.Unix(), 10)
	b = append(b, '.')
	ms := ex.Start.Nanosecond() / 1e6
	if ms < 100 {
		b = append(b, '0')
	}
	if ms < 10 {
		b = append(b, '0')
	}
	b = strconv.AppendInt(b, int64(ms), 10)
	b = append(b, tabChar)
	b = append(b, ex.Server...)
	b = append(b, tabChar)
	b = append(b, string(ex.Op)...)
	b = append(b, tabChar)
	b = strconv.AppendInt(b, ex.Duration.Microseconds(), 10)
	b = append(b, tabChar)
	b = strconv.AppendInt(b, int64(ex.Sent), 10)
	b = append(b, tabChar)
	b = strconv.AppendInt(b, int64(ex.Found), 10)
	b = append(b, tabChar)
	b = strconv.AppendInt(b, int64(ex.Missing), 10)
	b = append(b, tabChar)
	b = strconv.AppendInt(b, ex.BytesSent, 10)
	b = append(b, tabChar)
	b = strconv.AppendInt(b, ex.BytesReceived, 10)
	b = append(b, tabChar)
	b = append(b, Class(ex.Err)...)
	return append(b, '\n')
}

// Class names the kind of err.
func Class(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, protoerr.ErrTransport):
		return "transport"
	case errors.Is(err, protoerr.ErrProtocolViolation):
		return "protocol"
	case errors.Is(err, protoerr.ErrServer):
		return "server"
	case errors.Is(err, protoerr.ErrUnsupported):
		return "unsupported"
	case errors.Is(err, protoerr.ErrTruncated):
		return "truncated"
	case errors.Is(err, protoerr.ErrIntegerRange):
		return "range"
	default:
		return "error"
	}
}
