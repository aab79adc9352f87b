// Package client talks to the configured metadata servers: it pulls
// signatures from them in order and pushes resolved functions to the ones
// accepting pushes.
package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ozontech/lumina/config"
	"github.com/ozontech/lumina/protoerr"
	"github.com/ozontech/lumina/reconcile"
	"github.com/ozontech/lumina/report/noop"
	"github.com/ozontech/lumina/rpc"
	"github.com/ozontech/lumina/transport"
	"github.com/ozontech/lumina/types"
)

var ErrNoPushServers = errors.New("no server accepts pushes")

type Client struct {
	conf     config.Config
	dialers  []*transport.Dialer
	limiter  *rate.Limiter
	reporter types.ExchangeReporter
	log      *zap.Logger
}

type Opt func(*Client)

func WithLogger(log *zap.Logger) Opt {
	return func(c *Client) { c.log = log }
}

func WithReporter(r types.ExchangeReporter) Opt {
	return func(c *Client) { c.reporter = r }
}

func New(conf config.Config, opts ...Opt) (*Client, error) {
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	c := &Client{
		conf:     conf,
		limiter:  rate.NewLimiter(rate.Inf, 1),
		reporter: noop.New(),
		log:      zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	c.log = c.log.Named("client")
	if conf.ConnectRate > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(conf.ConnectRate), 1)
	}

	c.dialers = make([]*transport.Dialer, len(conf.Servers))
	for i, s := range conf.Servers {
		d, err := transport.NewDialer(conf.TransportOptions(s), c.log)
		if err != nil {
			return nil, fmt.Errorf("server %s: %w", s, err)
		}
		c.dialers[i] = d
	}
	return c, nil
}

func (c *Client) identity(s config.Server) Identity {
	if !s.SendLicense {
		return Identity{License: []byte{}}
	}
	return Identity{License: c.conf.License, ID: c.conf.LicenseID, Watermark: c.conf.Watermark}
}

// connect dials server i and performs the handshake. The returned session is
// owned by the caller.
func (c *Client) connect(ctx context.Context, i int) (*Session, error) {
	s := c.conf.Servers[i]
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	conn, err := c.dialers[i].Dial(ctx, s.Address, s.Port)
	if err != nil {
		return nil, err
	}
	sess := NewSession(conn, s.String(), c.log)
	if err := sess.Helo(c.identity(s)); err != nil {
		return nil, multierr.Append(err, sess.Close())
	}
	return sess, nil
}

// exchange runs fn over a fresh session with server i, closes the session on
// every path and reports the outcome.
func (c *Client) exchange(ctx context.Context, i int, ex *types.Exchange, fn func(*Session) error) (err error) {
	ex.Server = c.conf.Servers[i].String()
	ex.Start = time.Now()
	defer func() {
		ex.Duration = time.Since(ex.Start)
		ex.Err = err
		c.reporter.Report(*ex)
	}()

	sess, err := c.connect(ctx, i)
	if err != nil {
		return err
	}
	defer func() {
		ex.BytesSent, ex.BytesReceived = sess.Stats()
		if closeErr := sess.Close(); closeErr != nil {
			c.log.Warn("session close", zap.String("server", ex.Server), zap.Error(closeErr))
		}
	}()
	return fn(sess)
}

type PullResult struct {
	Scope   []reconcile.Entry
	Results []rpc.FuncInfo
	Found   []uint32
}

// Pull asks every server in order for the entries of scope no previous server
// resolved. A server answering out of protocol or with RPC_FAIL is skipped;
// the other errors are returned together once every server was tried. The
// result is valid even when the error is not nil.
func (c *Client) Pull(ctx context.Context, scope []reconcile.Entry) (PullResult, error) {
	var errs error
	for i, s := range c.conf.Servers {
		if reconcile.Resolved(scope) == len(scope) {
			break
		}
		merged, err := c.pullFrom(ctx, i, scope)
		switch {
		case err == nil:
			scope = merged
		case errors.Is(err, protoerr.ErrProtocolViolation), errors.Is(err, protoerr.ErrServer):
			c.log.Warn("server skipped", zap.Stringer("server", s), zap.Error(err))
		default:
			errs = multierr.Append(errs, fmt.Errorf("pull from %s: %w", s, err))
		}
		if ctx.Err() != nil {
			break
		}
	}
	results, found := reconcile.Summarize(scope)
	return PullResult{Scope: scope, Results: results, Found: found}, errs
}

func (c *Client) pullFrom(ctx context.Context, i int, scope []reconcile.Entry) ([]reconcile.Entry, error) {
	sigs, positions := reconcile.DownloadScope(scope)
	ex := types.Exchange{Op: types.OpPull, Sent: len(sigs)}

	var merged []reconcile.Entry
	err := c.exchange(ctx, i, &ex, func(sess *Session) error {
		res, err := sess.Pull(sigs)
		if err != nil {
			return err
		}
		merged, err = reconcile.Merge(scope, positions, res.Found, res.Results)
		if err != nil {
			return err
		}
		ex.Found = len(res.Results)
		ex.Missing = len(sigs) - ex.Found
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.log.Info("pulled",
		zap.String("server", ex.Server),
		zap.Int("requested", ex.Sent),
		zap.Int("found", ex.Found),
	)
	return merged, nil
}

type PushResult struct {
	Server string
	Status []uint32
	Err    error
}

// Push sends records to every server accepting pushes, all of them at once.
// addresses is parallel to records. Servers in anonymous mode get a random
// origin instead of origin.
func (c *Client) Push(ctx context.Context, origin reconcile.Origin, records []rpc.FuncMD, addresses []uint64) ([]PushResult, error) {
	if _, err := reconcile.PushRequest(origin, records, addresses); err != nil {
		return nil, err
	}

	var targets []int
	for i, s := range c.conf.Servers {
		if s.AllowPush {
			targets = append(targets, i)
		}
	}
	if len(targets) == 0 {
		return nil, ErrNoPushServers
	}

	results := make([]PushResult, len(targets))
	g := new(errgroup.Group)
	for j, i := range targets {
		j, i := j, i
		g.Go(func() error {
			results[j].Server = c.conf.Servers[i].String()
			results[j].Status, results[j].Err = c.pushTo(ctx, i, origin, records, addresses)
			return results[j].Err
		})
	}
	if err := g.Wait(); err == nil {
		return results, nil
	}

	var errs error
	for _, r := range results {
		if r.Err != nil {
			errs = multierr.Append(errs, fmt.Errorf("push to %s: %w", r.Server, r.Err))
		}
	}
	return results, errs
}

func (c *Client) pushTo(ctx context.Context, i int, origin reconcile.Origin, records []rpc.FuncMD, addresses []uint64) ([]uint32, error) {
	if c.conf.Servers[i].Anonymous {
		anon, err := AnonymousOrigin()
		if err != nil {
			return nil, err
		}
		origin = anon
	}
	req, err := reconcile.PushRequest(origin, records, addresses)
	if err != nil {
		return nil, err
	}

	ex := types.Exchange{Op: types.OpPush, Sent: len(records)}
	var status []uint32
	err = c.exchange(ctx, i, &ex, func(sess *Session) error {
		res, err := sess.Push(req)
		if err != nil {
			return err
		}
		status, err = reconcile.PushStatus(res, len(records))
		if err != nil {
			return err
		}
		for _, st := range status {
			if st != 0 {
				ex.Found++
			} else {
				ex.Missing++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return status, nil
}

type HeloResult struct {
	Server string
	Err    error
}

// Helo performs only the handshake with every server, one after another.
func (c *Client) Helo(ctx context.Context) []HeloResult {
	results := make([]HeloResult, len(c.conf.Servers))
	for i := range c.conf.Servers {
		ex := types.Exchange{Op: types.OpHelo}
		results[i].Err = c.exchange(ctx, i, &ex, func(*Session) error { return nil })
		results[i].Server = ex.Server
	}
	return results
}
