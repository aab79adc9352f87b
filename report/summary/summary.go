// Package summary prints per server totals once all exchanges are done.
package summary

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/ozontech/lumina/report/tsv"
	"github.com/ozontech/lumina/types"
)

type key struct {
	server string
	op     types.Op
}

type totals struct {
	exchanges int
	failed    int
	sent      int
	found     int
	missing   int
	bytes     uint64
	duration  time.Duration
	lastErr   error
}

type Reporter struct {
	w       io.Writer
	closeCh chan struct{}

	mu    sync.Mutex
	stats map[key]*totals
	start time.Time

	good func(string, ...interface{}) string
	bad  func(string, ...interface{}) string
}

type Opt func(*Reporter)

// WithColor highlights found counts in green and missing or failed ones in red.
func WithColor() Opt {
	return func(r *Reporter) {
		good := color.New(color.FgGreen)
		good.EnableColor()
		bad := color.New(color.FgRed)
		bad.EnableColor()
		r.good = good.Sprintf
		r.bad = bad.Sprintf
	}
}

func New(w io.Writer, opts ...Opt) *Reporter {
	r := &Reporter{
		w:       w,
		closeCh: make(chan struct{}),
		stats:   make(map[key]*totals),
		start:   time.Now(),
		good:    fmt.Sprintf,
		bad:     fmt.Sprintf,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Reporter) Run() error {
	<-r.closeCh
	return r.total()
}

func (r *Reporter) Close() error {
	close(r.closeCh)
	return nil
}

func (r *Reporter) Report(ex types.Exchange) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{ex.Server, ex.Op}
	t, ok := r.stats[k]
	if !ok {
		t = new(totals)
		r.stats[k] = t
	}
	t.exchanges++
	t.sent += ex.Sent
	t.found += ex.Found
	t.missing += ex.Missing
	t.bytes += uint64(ex.BytesSent + ex.BytesReceived)
	t.duration += ex.Duration
	if ex.Err != nil {
		t.failed++
		t.lastErr = ex.Err
	}
}

func (r *Reporter) total() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]key, 0, len(r.stats))
	for k := range r.stats {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].server != keys[j].server {
			return keys[i].server < keys[j].server
		}
		return keys[i].op < keys[j].op
	})

	for _, k := range keys {
		t := r.stats[k]
		_, err := fmt.Fprintf(r.w,
			"%s %s: exchanges=%d sent=%d found=%s missing=%s traffic=%s time=%s",
			k.op, k.server, t.exchanges, t.sent,
			r.good("%d", t.found), r.bad("%d", t.missing),
			humanize.Bytes(t.bytes), t.duration.Round(time.Millisecond),
		)
		if err != nil {
			return err
		}
		if t.lastErr != nil {
			_, err = fmt.Fprintf(r.w, " failed=%s (%s: %v)", r.bad("%d", t.failed), tsv.Class(t.lastErr), t.lastErr)
			if err != nil {
				return err
			}
		}
		if _, err = fmt.Fprintln(r.w); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(r.w, "total %s\n", time.Since(r.start).Round(time.Millisecond))
	return err
}
