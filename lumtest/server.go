// Package lumtest runs an in-process metadata server for tests. It answers
// HELO, PULL_MD and PUSH_MD from an in-memory signature table.
package lumtest

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ozontech/lumina/packet"
	"github.com/ozontech/lumina/rpc"
)

// Handler may replace the answer to a request. Returning nil keeps the
// default answer. An *rpc.Unsupported answer is written as a raw frame.
type Handler func(req rpc.Message) rpc.Message

type Opt func(*Server)

func WithHandler(h Handler) Opt {
	return func(s *Server) { s.handler = h }
}

// WithHeloFail makes the server refuse every handshake.
func WithHeloFail(status uint32, message string) Opt {
	return func(s *Server) { s.heloFail = &rpc.Fail{Status: status, Message: message} }
}

type Server struct {
	ln  net.Listener
	g   errgroup.Group
	log *zap.Logger

	handler  Handler
	heloFail *rpc.Fail

	mu     sync.Mutex
	funcs  map[string]rpc.FuncInfo
	helos  []rpc.Helo
	pulls  [][]rpc.FuncSignature
	pushes []rpc.PushMD
	conns  map[net.Conn]struct{}
	closed bool
}

// NewServer starts listening on a loopback port.
func NewServer(log *zap.Logger, opts ...Opt) (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	s := &Server{
		ln:    ln,
		log:   log.Named("lumtest"),
		funcs: make(map[string]rpc.FuncInfo),
		conns: make(map[net.Conn]struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	s.g.Go(s.serve)
	return s, nil
}

func (s *Server) Addr() string { return s.ln.Addr().String() }

func (s *Server) Host() string {
	return s.ln.Addr().(*net.TCPAddr).IP.String()
}

func (s *Server) Port() uint16 {
	return uint16(s.ln.Addr().(*net.TCPAddr).Port)
}

// Add makes the server know sig.
func (s *Server) Add(sig []byte, info rpc.FuncInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.funcs[string(sig)] = info
}

func (s *Server) Helos() []rpc.Helo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]rpc.Helo(nil), s.helos...)
}

// Pulls returns the signatures of every PULL_MD received.
func (s *Server) Pulls() [][]rpc.FuncSignature {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]rpc.FuncSignature(nil), s.pulls...)
}

func (s *Server) Pushes() []rpc.PushMD {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]rpc.PushMD(nil), s.pushes...)
}

// Close stops accepting, drops open connections and waits for the handlers.
func (s *Server) Close() error {
	s.mu.Lock()
	s.closed = true
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()

	err := s.ln.Close()
	if waitErr := s.g.Wait(); waitErr != nil {
		return waitErr
	}
	return err
}

func (s *Server) serve() error {
	for i := 0; ; i++ {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		if !s.track(conn) {
			_ = conn.Close()
			return nil
		}
		log := s.log.With(zap.String("conn", strconv.Itoa(i)))
		s.g.Go(func() error {
			defer s.untrack(conn)
			err := s.handleConn(conn, log)
			log.Debug("connection done", zap.Error(err))
			return nil
		})
	}
}

func (s *Server) track(c net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[c] = struct{}{}
	return true
}

func (s *Server) untrack(c net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, c)
	_ = c.Close()
}

func (s *Server) handleConn(conn net.Conn, log *zap.Logger) error {
	for {
		req, f, err := packet.ReadMessage(conn)
		if err != nil && f.Payload == nil {
			// the frame itself could not be read, the stream is lost
			return err
		}
		log.Debug("request", zap.Stringer("code", f.Code), zap.Error(err))

		var resp rpc.Message
		if err == nil && s.handler != nil {
			resp = s.handler(req)
		}
		if resp == nil {
			resp = s.answer(req, err)
		}

		if u, ok := resp.(*rpc.Unsupported); ok {
			err = packet.WriteFrame(conn, u.Tag, u.Body)
		} else {
			err = packet.WriteMessage(conn, resp)
		}
		if err != nil {
			return err
		}
	}
}

func (s *Server) answer(req rpc.Message, decodeErr error) rpc.Message {
	if decodeErr != nil {
		return &rpc.Fail{Status: 1, Message: decodeErr.Error()}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch req := req.(type) {
	case *rpc.Helo:
		s.helos = append(s.helos, *req)
		if s.heloFail != nil {
			return s.heloFail
		}
		return &rpc.OK{}
	case *rpc.PullMD:
		s.pulls = append(s.pulls, req.Signatures)
		res := &rpc.PullMDResult{Found: make([]uint32, len(req.Signatures)), Results: []rpc.FuncInfo{}}
		for i, sig := range req.Signatures {
			info, ok := s.funcs[string(sig.Signature)]
			if !ok {
				res.Found[i] = 1
				continue
			}
			res.Results = append(res.Results, info)
		}
		return res
	case *rpc.PushMD:
		s.pushes = append(s.pushes, *req)
		res := &rpc.PushMDResult{Status: make([]uint32, len(req.Records))}
		for i, rec := range req.Records {
			if _, ok := s.funcs[string(rec.Signature.Signature)]; !ok {
				res.Status[i] = 1
			}
			s.funcs[string(rec.Signature.Signature)] = rpc.FuncInfo{Metadata: rec.Metadata}
		}
		return res
	}
	return &rpc.Fail{Status: 2, Message: "unexpected " + req.Code().String()}
}
