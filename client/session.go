package client

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/ozontech/lumina/consts"
	"github.com/ozontech/lumina/packet"
	"github.com/ozontech/lumina/protoerr"
	"github.com/ozontech/lumina/rpc"
	"github.com/ozontech/lumina/utils/pool"
)

// Identity is the license a session presents in its HELO.
type Identity struct {
	License   []byte
	ID        uint32
	Watermark uint16
}

var frameBuffers = pool.NewBuffers(16, consts.DefaultReadBufSize, 1<<20)

// Session runs request/response exchanges over one connection. It is
// half-duplex: every request waits for its complete answer frame before the
// next one is written. A Session is not safe for concurrent use.
type Session struct {
	conn io.ReadWriteCloser
	rw   *countingRW
	addr string
	log  *zap.Logger
}

func NewSession(conn io.ReadWriteCloser, addr string, log *zap.Logger) *Session {
	return &Session{
		conn: conn,
		rw:   &countingRW{rw: conn},
		addr: addr,
		log:  log.Named("session").With(zap.String("server", addr)),
	}
}

// Helo performs the handshake. The server has to answer RPC_OK.
func (s *Session) Helo(id Identity) error {
	license := id.License
	if license == nil {
		license = []byte{}
	}
	_, err := s.roundTrip(&rpc.Helo{
		Protocol:  rpc.ProtocolVersion,
		License:   license,
		ID:        id.ID,
		Watermark: id.Watermark,
		Reserved:  consts.HeloReserved,
	}, rpc.CodeOK)
	if err != nil {
		return fmt.Errorf("helo: %w", err)
	}
	s.log.Debug("handshake done")
	return nil
}

func (s *Session) Pull(sigs []rpc.FuncSignature) (*rpc.PullMDResult, error) {
	m, err := s.roundTrip(&rpc.PullMD{Unknown: []uint32{}, Signatures: sigs}, rpc.CodePullMDResult)
	if err != nil {
		return nil, fmt.Errorf("pull: %w", err)
	}
	return m.(*rpc.PullMDResult), nil
}

func (s *Session) Push(req *rpc.PushMD) (*rpc.PushMDResult, error) {
	m, err := s.roundTrip(req, rpc.CodePushMDResult)
	if err != nil {
		return nil, fmt.Errorf("push: %w", err)
	}
	return m.(*rpc.PushMDResult), nil
}

// Stats returns the bytes written to and read from the connection so far.
func (s *Session) Stats() (sent, received int64) {
	return s.rw.written, s.rw.read
}

func (s *Session) Close() error {
	return s.conn.Close()
}

func (s *Session) roundTrip(req rpc.Message, want rpc.Code) (rpc.Message, error) {
	buf, err := packet.AppendMessage(frameBuffers.Get(), req)
	if err != nil {
		frameBuffers.Put(buf)
		return nil, fmt.Errorf("encode %s: %w", req.Code(), err)
	}
	_, err = s.rw.Write(buf)
	frameBuffers.Put(buf)
	if err != nil {
		return nil, protoerr.Transport("write "+req.Code().String(), s.addr, err)
	}
	s.log.Debug("request sent", zap.Stringer("code", req.Code()), zap.Int("size", len(buf)))

	f, err := packet.ReadFrame(s.rw)
	if err != nil {
		return nil, fmt.Errorf("waiting for %s: %w", want, err)
	}
	s.log.Debug("response received", zap.Stringer("code", f.Code), zap.Int("size", len(f.Payload)))

	m, err := rpc.Unmarshal(f.Code, f.Payload)
	if f.Code == want {
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", f.Code, err)
		}
		return m, nil
	}
	return nil, s.unexpected(want, f.Code, m)
}

func (s *Session) unexpected(want, got rpc.Code, m rpc.Message) error {
	switch m := m.(type) {
	case *rpc.Fail:
		return &protoerr.ServerError{Status: m.Status, Message: m.Message}
	case *rpc.Notify:
		s.log.Warn("server notification",
			zap.Uint32("protocol", m.Protocol),
			zap.String("message", m.Message),
		)
		return &protoerr.ProtocolViolationError{
			Expected: want.String(),
			Got:      fmt.Sprintf("%s %q", got, m.Message),
		}
	}
	return &protoerr.ProtocolViolationError{Expected: want.String(), Got: got.String()}
}

type countingRW struct {
	rw      io.ReadWriter
	read    int64
	written int64
}

func (c *countingRW) Read(p []byte) (int, error) {
	n, err := c.rw.Read(p)
	c.read += int64(n)
	return n, err
}

func (c *countingRW) Write(p []byte) (int, error) {
	n, err := c.rw.Write(p)
	c.written += int64(n)
	return n, err
}
