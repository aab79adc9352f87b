package types

import (
	"time"
)

type Op string

const (
	OpHelo Op = "helo"
	OpPull Op = "pull"
	OpPush Op = "push"
)

// Exchange is the outcome of one operation against one server.
type Exchange struct {
	Server   string
	Op       Op
	Start    time.Time
	Duration time.Duration

	Sent    int // signatures pulled or records pushed
	Found   int // pull: resolved by this server, push: accepted
	Missing int

	BytesSent     int64
	BytesReceived int64

	Err error
}

type ExchangeReporter interface {
	Report(Exchange) // вызывается по завершении каждого обмена, может вызываться конкурентно
}

type Reporter interface {
	ExchangeReporter
	Run() error
	Close() error
}
