package frameheader

import (
	"encoding/binary"
	"strconv"

	"github.com/ozontech/lumina/rpc"
)

// Size is the envelope header length: u32 big endian payload length and the
// message code. The length does not count the code byte.
const Size = 5

type FrameHeader []byte

func NewFrameHeader() FrameHeader { return make([]byte, Size) }

func (f FrameHeader) Fill(length int, code rpc.Code) {
	_ = f[4]
	f[0] = byte(length >> 24)
	f[1] = byte(length >> 16)
	f[2] = byte(length >> 8)
	f[3] = byte(length)
	f[4] = byte(code)
}

func (f FrameHeader) Length() int { return int(binary.BigEndian.Uint32(f)) }

func (f FrameHeader) SetLength(l int) {
	_ = f[3]
	binary.BigEndian.PutUint32(f, uint32(l))
}

func (f FrameHeader) Code() rpc.Code        { return rpc.Code(f[4]) }
func (f FrameHeader) SetCode(code rpc.Code) { f[4] = byte(code) }

func (f FrameHeader) String() string {
	return f.Code().String() +
		"/ length=" + strconv.FormatUint(uint64(f.Length()), 10)
}
