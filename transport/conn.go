package transport

import (
	"net"
	"time"

	"github.com/ozontech/lumina/protoerr"
)

// Conn is a net.Conn whose reads and writes each get their own deadline.
// Errors, timeouts included, come back as *protoerr.TransportError.
type Conn struct {
	conn    net.Conn
	addr    string
	timeout time.Duration
}

// NewConn wraps conn. A zero timeout disables the deadlines.
func NewConn(conn net.Conn, addr string, timeout time.Duration) *Conn {
	return &Conn{conn: conn, addr: addr, timeout: timeout}
}

func (c *Conn) Addr() string { return c.addr }

func (c *Conn) Read(p []byte) (int, error) {
	if c.timeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return 0, protoerr.Transport("set read deadline", c.addr, err)
		}
	}
	n, err := c.conn.Read(p)
	if err != nil {
		return n, protoerr.Transport("read", c.addr, err)
	}
	return n, nil
}

func (c *Conn) Write(p []byte) (int, error) {
	if c.timeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
			return 0, protoerr.Transport("set write deadline", c.addr, err)
		}
	}
	n, err := c.conn.Write(p)
	if err != nil {
		return n, protoerr.Transport("write", c.addr, err)
	}
	return n, nil
}

func (c *Conn) Close() error {
	if err := c.conn.Close(); err != nil {
		return protoerr.Transport("close", c.addr, err)
	}
	return nil
}
