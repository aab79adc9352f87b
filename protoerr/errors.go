// Package protoerr holds the error kinds shared by every layer of the client.
//
// Local decode/encode failures are sentinels (ErrIntegerRange, ErrTruncated).
// Exchange level failures are typed errors carrying context, each of them
// also matches its sentinel through errors.Is.
package protoerr

import (
	"errors"
	"fmt"
)

var (
	ErrIntegerRange      = errors.New("integer out of range")
	ErrTruncated         = errors.New("truncated input")
	ErrUnsupported       = errors.New("unsupported variant")
	ErrProtocolViolation = errors.New("protocol violation")
	ErrServer            = errors.New("server error")
	ErrTransport         = errors.New("transport error")
)

// Layer names the protocol level an unsupported code was met on.
type Layer string

const (
	LayerRPC      Layer = "rpc"
	LayerMetadata Layer = "metadata"
	LayerTypeInfo Layer = "typeinfo"
)

type UnsupportedError struct {
	Layer Layer
	Code  uint64
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported %s code 0x%02x", e.Layer, e.Code)
}

func (e *UnsupportedError) Is(target error) bool { return target == ErrUnsupported }

// ProtocolViolationError reports a frame which is well-formed but not the one
// the current step of an exchange waits for.
type ProtocolViolationError struct {
	Expected string
	Got      string
	Reason   string
}

func (e *ProtocolViolationError) Error() string {
	if e.Reason != "" {
		return "protocol violation: " + e.Reason
	}
	return "protocol violation: expected " + e.Expected + ", got " + e.Got
}

func (e *ProtocolViolationError) Is(target error) bool { return target == ErrProtocolViolation }

// ServerError is an explicit RPC_FAIL answer.
type ServerError struct {
	Status  uint32
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server failure (status %d): %s", e.Status, e.Message)
}

func (e *ServerError) Is(target error) bool { return target == ErrServer }

type TransportError struct {
	Op   string
	Addr string
	Err  error
}

func (e *TransportError) Error() string {
	if e.Addr == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + " " + e.Addr + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// Transport wraps err as a TransportError unless it already is one.
func Transport(op, addr string, err error) error {
	if err == nil {
		return nil
	}
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return &TransportError{Op: op, Addr: addr, Err: err}
}

// Truncated builds an ErrTruncated error with the amounts involved.
func Truncated(what string, need, have int) error {
	return fmt.Errorf("%s: need %d bytes, have %d: %w", what, need, have, ErrTruncated)
}
