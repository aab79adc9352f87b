// Package rpc defines the bodies of the outer protocol messages and maps type
// codes to them.
//
// Codes 0x12..0x1f are declared by the server but have no known layout: they
// travel through the envelope untouched and decode to *Unsupported together
// with a protoerr.UnsupportedError.
package rpc

import (
	"bytes"
	"fmt"

	"github.com/ozontech/lumina/protoerr"
	"github.com/ozontech/lumina/wire"
)

func unsupported(code Code) error {
	return &protoerr.UnsupportedError{Layer: protoerr.LayerRPC, Code: uint64(code)}
}

// New returns an empty message of the given code.
func New(code Code) (Message, error) {
	switch code {
	case CodeOK:
		return new(OK), nil
	case CodeFail:
		return new(Fail), nil
	case CodeNotify:
		return new(Notify), nil
	case CodeHelo:
		return new(Helo), nil
	case CodePullMD:
		return new(PullMD), nil
	case CodePullMDResult:
		return new(PullMDResult), nil
	case CodePushMD:
		return new(PushMD), nil
	case CodePushMDResult:
		return new(PushMDResult), nil
	}
	return &Unsupported{Tag: code}, unsupported(code)
}

// MarshalAppend appends the body of m to b. On failure b is returned as is.
func MarshalAppend(b []byte, m Message) ([]byte, error) {
	if _, ok := m.(*Unsupported); ok || !m.Code().Implemented() {
		return b, unsupported(m.Code())
	}
	w := wire.NewWriter(b)
	m.marshalTo(w)
	if err := w.Err(); err != nil {
		return b, fmt.Errorf("marshal %s: %w", m.Code(), err)
	}
	return w.Bytes(), nil
}

// Marshal returns the body of m.
func Marshal(m Message) ([]byte, error) {
	return MarshalAppend(nil, m)
}

// Unmarshal decodes body according to code. For a code without schema it
// returns an *Unsupported holding a copy of body and a non-nil error.
// Bytes following the known fields are ignored.
func Unmarshal(code Code, body []byte) (Message, error) {
	m, err := New(code)
	if err != nil {
		m.(*Unsupported).Body = bytes.Clone(body)
		return m, err
	}
	if err := m.unmarshalFrom(wire.NewReader(body)); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", code, err)
	}
	return m, nil
}
