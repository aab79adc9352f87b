// Package transport opens the byte stream connections the client speaks over:
// plain TCP, TLS with the system roots or with a pinned certificate, each of
// them optionally through a SOCKS5 proxy.
package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/proxy"

	"github.com/ozontech/lumina/consts"
	"github.com/ozontech/lumina/protoerr"
)

type TLSMode string

const (
	TLSOff  TLSMode = "off"
	TLSOn   TLSMode = "on"
	TLSCert TLSMode = "cert"
)

func (m TLSMode) Valid() bool {
	switch m {
	case TLSOff, TLSOn, TLSCert:
		return true
	}
	return false
}

type Options struct {
	// Timeout bounds dialing and the TLS handshake, and every single read and write.
	Timeout time.Duration
	TLS     TLSMode
	// CertFile is the PEM file trusted in TLSCert mode.
	CertFile string
	// Proxy is a socks5:// URL, empty for direct connections.
	Proxy string
}

type Dialer struct {
	timeout time.Duration
	tls     *tls.Config
	dialer  proxy.ContextDialer
	log     *zap.Logger
}

func NewDialer(opts Options, log *zap.Logger) (*Dialer, error) {
	if opts.Timeout == 0 {
		opts.Timeout = consts.DefaultTimeout
	}
	if opts.TLS == "" {
		opts.TLS = TLSOff
	}
	d := &Dialer{
		timeout: opts.Timeout,
		log:     log.Named("transport"),
	}

	direct := &net.Dialer{Timeout: opts.Timeout}
	d.dialer = direct
	if opts.Proxy != "" {
		u, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		pd, err := proxy.FromURL(u, direct)
		if err != nil {
			return nil, fmt.Errorf("proxy %s: %w", u.Redacted(), err)
		}
		cd, ok := pd.(proxy.ContextDialer)
		if !ok {
			return nil, fmt.Errorf("proxy %s does not support contexts", u.Redacted())
		}
		d.dialer = cd
	}

	switch opts.TLS {
	case TLSOff:
	case TLSOn:
		d.tls = &tls.Config{MinVersion: tls.VersionTLS12}
	case TLSCert:
		pool, err := loadCertPool(opts.CertFile)
		if err != nil {
			return nil, err
		}
		d.tls = &tls.Config{MinVersion: tls.VersionTLS12, RootCAs: pool}
	default:
		return nil, fmt.Errorf("unknown tls mode %q", opts.TLS)
	}
	return d, nil
}

func loadCertPool(path string) (*x509.CertPool, error) {
	if path == "" {
		return nil, fmt.Errorf("tls mode %q requires a certificate file", TLSCert)
	}
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read certificate: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates in %s", path)
	}
	return pool, nil
}

// Dial connects to host:port. Every failure, the TLS handshake included, is
// a *protoerr.TransportError.
func (d *Dialer) Dial(ctx context.Context, host string, port uint16) (*Conn, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(int(port)))
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	raw, err := d.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, protoerr.Transport("dial", addr, err)
	}

	if d.tls != nil {
		conf := d.tls.Clone()
		conf.ServerName = host
		tlsConn := tls.Client(raw, conf)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			_ = raw.Close()
			return nil, protoerr.Transport("tls handshake", addr, err)
		}
		raw = tlsConn
	}
	d.log.Debug("connected", zap.String("addr", addr), zap.Bool("tls", d.tls != nil))
	return NewConn(raw, addr, d.timeout), nil
}

// UnmarshalYAML accepts the mode in any case and the YAML booleans a bare
// off/on turn into.
func (m *TLSMode) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var v interface{}
	if err := unmarshal(&v); err != nil {
		return err
	}
	switch v := v.(type) {
	case nil:
		*m = TLSOff
	case bool:
		*m = TLSOff
		if v {
			*m = TLSOn
		}
	case string:
		*m = TLSMode(strings.ToLower(v))
	default:
		return fmt.Errorf("tls mode must be a string, got %T", v)
	}
	return nil
}
