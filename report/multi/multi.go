package multi

import (
	"golang.org/x/sync/errgroup"

	"github.com/ozontech/lumina/types"
)

type Multi struct {
	nested []types.Reporter
}

func NewMulti(nested ...types.Reporter) *Multi {
	return &Multi{nested}
}

func (m *Multi) Run() error {
	g := new(errgroup.Group)
	for i := range m.nested {
		r := m.nested[i]
		g.Go(r.Run)
	}
	return g.Wait()
}

func (m *Multi) Close() error {
	g := new(errgroup.Group)
	for i := range m.nested {
		r := m.nested[i]
		g.Go(r.Close)
	}
	return g.Wait()
}

func (m *Multi) Report(ex types.Exchange) {
	for _, r := range m.nested {
		r.Report(ex)
	}
}
