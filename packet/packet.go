// Package packet wraps message bodies into the wire envelope and reads them
// back.
//
//	0         4    5
//	┌─────────┬────┬──────────────────┐
//	│ length  │code│ payload ...      │
//	│ u32 BE  │ u8 │ length bytes     │
//	└─────────┴────┴──────────────────┘
package packet

import (
	"fmt"
	"io"

	"github.com/ozontech/lumina/consts"
	"github.com/ozontech/lumina/frameheader"
	"github.com/ozontech/lumina/protoerr"
	"github.com/ozontech/lumina/rpc"
)

type Frame struct {
	Code    rpc.Code
	Payload []byte
}

// AppendFrame appends the envelope of body to b.
func AppendFrame(b []byte, code rpc.Code, body []byte) []byte {
	l := len(b)
	b = append(b, make([]byte, frameheader.Size)...)
	frameheader.FrameHeader(b[l:]).Fill(len(body), code)
	return append(b, body...)
}

// AppendMessage appends the complete frame of m to b.
func AppendMessage(b []byte, m rpc.Message) ([]byte, error) {
	l := len(b)
	b = append(b, make([]byte, frameheader.Size)...)
	b, err := rpc.MarshalAppend(b, m)
	if err != nil {
		return b[:l], err
	}
	frameheader.FrameHeader(b[l:]).Fill(len(b)-l-frameheader.Size, m.Code())
	return b, nil
}

// WriteFrame writes header and body with a single Write call.
func WriteFrame(w io.Writer, code rpc.Code, body []byte) error {
	_, err := w.Write(AppendFrame(nil, code, body))
	if err != nil {
		return protoerr.Transport("write frame", "", err)
	}
	return nil
}

// ReadFrame reads exactly one frame. A short read is a transport error, a
// declared length above consts.MaxFrameSize is a protocol violation and leaves
// the stream unusable.
func ReadFrame(r io.Reader) (Frame, error) {
	header := frameheader.NewFrameHeader()
	if _, err := io.ReadFull(r, header); err != nil {
		return Frame{}, protoerr.Transport("read frame header", "", err)
	}
	length := header.Length()
	if length > consts.MaxFrameSize {
		return Frame{}, &protoerr.ProtocolViolationError{
			Reason: fmt.Sprintf("%s frame of %d bytes exceeds limit of %d", header.Code(), length, consts.MaxFrameSize),
		}
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Frame{}, protoerr.Transport("read frame payload", "", err)
	}
	return Frame{Code: header.Code(), Payload: payload}, nil
}

// ReadMessage reads one frame and decodes its body. The frame is always read
// completely, so a body decoding failure (unsupported code included) leaves
// the stream aligned on the next frame. The frame is returned in every case
// where it was read.
func ReadMessage(r io.Reader) (rpc.Message, Frame, error) {
	f, err := ReadFrame(r)
	if err != nil {
		return nil, f, err
	}
	m, err := rpc.Unmarshal(f.Code, f.Payload)
	return m, f, err
}

// WriteMessage frames m and writes it.
func WriteMessage(w io.Writer, m rpc.Message) error {
	b, err := AppendMessage(nil, m)
	if err != nil {
		return err
	}
	if _, err = w.Write(b); err != nil {
		return protoerr.Transport("write "+m.Code().String(), "", err)
	}
	return nil
}
