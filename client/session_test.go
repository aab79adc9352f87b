package client_test

import (
	"net"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ozontech/lumina/client"
	"github.com/ozontech/lumina/lumtest"
	"github.com/ozontech/lumina/protoerr"
	"github.com/ozontech/lumina/rpc"
)

func dialSession(t *testing.T, srv *lumtest.Server) *client.Session {
	t.Helper()
	conn, err := net.Dial("tcp", srv.Addr())
	require.NoError(t, err)
	s := client.NewSession(conn, srv.Addr(), zaptest.NewLogger(t))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// A rejected answer consumes its whole frame, the next exchange on the same
// session reads the right one.
func TestSessionStaysAligned(t *testing.T) {
	t.Parallel()
	a := assert.New(t)

	var calls atomic.Int32
	srv := newServer(t, lumtest.WithHandler(func(req rpc.Message) rpc.Message {
		if _, ok := req.(*rpc.PullMD); !ok {
			return nil
		}
		switch calls.Add(1) {
		case 1:
			return &rpc.Unsupported{Tag: rpc.CodeGetPop, Body: []byte("opaque body")}
		case 2:
			return &rpc.Fail{Status: 3, Message: "try later"}
		}
		return nil
	}))
	srv.Add(sig(9), info("nine"))

	s := dialSession(t, srv)
	require.NoError(t, s.Helo(client.Identity{}))

	sigs := []rpc.FuncSignature{rpc.NewSignature(sig(9))}

	_, err := s.Pull(sigs)
	var violation *protoerr.ProtocolViolationError
	require.ErrorAs(t, err, &violation)
	a.Equal("PULL_MD_RESULT", violation.Expected)

	_, err = s.Pull(sigs)
	var serverErr *protoerr.ServerError
	require.ErrorAs(t, err, &serverErr)
	a.Equal("try later", serverErr.Message)

	res, err := s.Pull(sigs)
	require.NoError(t, err)
	a.Equal([]uint32{0}, res.Found)
	a.Equal("nine", res.Results[0].Metadata.Name)

	sent, received := s.Stats()
	a.Positive(sent)
	a.Positive(received)
}

func TestSessionHeloExpectsOK(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		answer rpc.Message
		is     error
	}{
		{"notify", &rpc.Notify{Protocol: 2, Message: "hi"}, protoerr.ErrProtocolViolation},
		{"push result", &rpc.PushMDResult{Status: []uint32{}}, protoerr.ErrProtocolViolation},
		{"fail", &rpc.Fail{Status: 1, Message: "no"}, protoerr.ErrServer},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := newServer(t, lumtest.WithHandler(func(rpc.Message) rpc.Message { return tc.answer }))
			s := dialSession(t, srv)
			err := s.Helo(client.Identity{License: []byte{1}})
			require.ErrorIs(t, err, tc.is)
		})
	}
}

func TestSessionClosedConnection(t *testing.T) {
	t.Parallel()

	srv := newServer(t)
	s := dialSession(t, srv)
	require.NoError(t, s.Close())

	err := s.Helo(client.Identity{})
	require.ErrorIs(t, err, protoerr.ErrTransport)
}
