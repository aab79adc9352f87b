package packet

import (
	"fmt"

	"github.com/ozontech/lumina/consts"
	"github.com/ozontech/lumina/frameheader"
	"github.com/ozontech/lumina/protoerr"
)

// Framer splits a byte stream delivered in arbitrary chunks into frames, for
// captures where chunk boundaries have nothing to do with frame boundaries.
type Framer struct {
	currentHeader frameheader.FrameHeader
	header        frameheader.FrameHeader
	payloadLeft   int
	buf           []byte
	payload       []byte
}

type Status int

const (
	StatusFrameDone Status = iota
	StatusFrameDoneBufEmpty
	StatusHeaderIncomplete
	StatusPayloadIncomplete
)

func (p *Framer) Header() frameheader.FrameHeader {
	return p.header
}

// Next returns the next piece of payload available in the filled buffer.
func (p *Framer) Next() ([]byte, Status) {
	currentHeaderLen := len(p.currentHeader)
	if currentHeaderLen != frameheader.Size {
		bufLen := len(p.buf)
		needToFill := frameheader.Size - currentHeaderLen
		if bufLen < needToFill {
			p.currentHeader = append(p.currentHeader, p.buf...)
			p.buf = nil
			return nil, StatusHeaderIncomplete
		}

		p.currentHeader = append(p.currentHeader, p.buf[:needToFill]...)
		p.buf = p.buf[needToFill:]
		p.payloadLeft = p.currentHeader.Length()
		p.header = append(p.header[:0], p.currentHeader...)
	}

	bufLen := len(p.buf)
	if bufLen > p.payloadLeft {
		payload := p.buf[:p.payloadLeft]
		p.buf = p.buf[p.payloadLeft:]
		p.currentHeader = p.currentHeader[:0]
		return payload, StatusFrameDone
	}

	if bufLen == p.payloadLeft {
		p.currentHeader = p.currentHeader[:0]
		payload := p.buf
		p.buf = nil
		return payload, StatusFrameDoneBufEmpty
	}

	p.payloadLeft -= len(p.buf)
	payload := p.buf
	p.buf = nil
	return payload, StatusPayloadIncomplete
}

func (p *Framer) Fill(b []byte) {
	p.buf = b
}

// Feed consumes chunk and calls fn for every frame it completes. Frames passed
// to fn own their payload.
func (p *Framer) Feed(chunk []byte, fn func(Frame) error) error {
	p.Fill(chunk)
	for {
		b, status := p.Next()
		if status != StatusHeaderIncomplete && p.header.Length() > consts.MaxFrameSize {
			return &protoerr.ProtocolViolationError{
				Reason: fmt.Sprintf("frame of %d bytes exceeds limit of %d", p.header.Length(), consts.MaxFrameSize),
			}
		}

		switch status {
		case StatusHeaderIncomplete:
			return nil
		case StatusPayloadIncomplete:
			p.payload = append(p.payload, b...)
			return nil
		}

		p.payload = append(p.payload, b...)
		f := Frame{Code: p.header.Code(), Payload: append([]byte{}, p.payload...)}
		p.payload = p.payload[:0]
		if err := fn(f); err != nil {
			return err
		}
		if status == StatusFrameDoneBufEmpty {
			return nil
		}
	}
}

// Pending reports whether a partial frame is buffered.
func (p *Framer) Pending() bool {
	return len(p.currentHeader) != 0
}
