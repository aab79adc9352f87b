package noop

import (
	"github.com/ozontech/lumina/types"
)

type Noop struct {
	close chan struct{}
}

func New() *Noop {
	return &Noop{make(chan struct{})}
}

func (m *Noop) Run() error {
	<-m.close
	return nil
}

func (m *Noop) Close() error {
	close(m.close)
	return nil
}

func (m *Noop) Report(types.Exchange) {}
