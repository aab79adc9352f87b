package consts

import "time"

const (
	DefaultTimeout     = 10 * time.Second
	DefaultPort        = 443
	DefaultReadBufSize = 4096

	// MaxFrameSize bounds the declared payload length of an incoming frame.
	// Nothing is allocated for a frame above it.
	MaxFrameSize = 64 << 20

	// HeloReserved is the value of the last RPC_HELO field, always zero.
	HeloReserved = 0
)
