package packet_test

import (
	"bytes"
	"crypto/rand"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ozontech/lumina/packet"
	"github.com/ozontech/lumina/protoerr"
	"github.com/ozontech/lumina/rpc"
)

func TestNotifyLiteral(t *testing.T) {
	t.Parallel()
	b, err := packet.AppendMessage(nil, &rpc.Notify{Protocol: 2, Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x04, 0x0C, 0x02, 0x68, 0x69, 0x00}, b)
}

func TestFrameRoundTrip(t *testing.T) {
	t.Parallel()

	bodies := [][]byte{{}, {0x01}, bytes.Repeat([]byte{0xAB}, 70000)}
	for code := rpc.CodeOK; code <= rpc.CodeDebugCtl; code++ {
		for _, body := range bodies {
			buf := new(bytes.Buffer)
			require.NoError(t, packet.WriteFrame(buf, code, body))
			assert.Equal(t, len(body)+5, buf.Len())

			f, err := packet.ReadFrame(buf)
			require.NoError(t, err)
			assert.Equal(t, code, f.Code)
			assert.Equal(t, body, f.Payload)
			assert.Zero(t, buf.Len(), "frame must be consumed exactly")
		}
	}
}

func TestOKFrame(t *testing.T) {
	t.Parallel()
	buf := new(bytes.Buffer)
	require.NoError(t, packet.WriteMessage(buf, &rpc.OK{}))
	assert.Equal(t, []byte{0, 0, 0, 0, 0x0A}, buf.Bytes())

	m, f, err := packet.ReadMessage(buf)
	require.NoError(t, err)
	assert.Equal(t, &rpc.OK{}, m)
	assert.Equal(t, rpc.CodeOK, f.Code)
	assert.Empty(t, f.Payload)
}

func TestUnsupportedKeepsAlignment(t *testing.T) {
	t.Parallel()
	a := assert.New(t)

	buf := new(bytes.Buffer)
	a.NoError(packet.WriteFrame(buf, rpc.CodeGetPop, []byte{1, 2, 3, 4}))
	a.NoError(packet.WriteMessage(buf, &rpc.Notify{Protocol: 2, Message: "next"}))

	m, f, err := packet.ReadMessage(buf)
	a.ErrorIs(err, protoerr.ErrUnsupported)
	a.False(errors.Is(err, protoerr.ErrTransport))
	a.Equal(rpc.CodeGetPop, f.Code)
	a.Equal(&rpc.Unsupported{Tag: rpc.CodeGetPop, Body: []byte{1, 2, 3, 4}}, m)

	m, _, err = packet.ReadMessage(buf)
	a.NoError(err)
	a.Equal(&rpc.Notify{Protocol: 2, Message: "next"}, m)
}

func TestShortReadIsTransportError(t *testing.T) {
	t.Parallel()
	a := assert.New(t)

	_, err := packet.ReadFrame(bytes.NewReader([]byte{0, 0}))
	a.ErrorIs(err, protoerr.ErrTransport)
	a.ErrorIs(err, io.ErrUnexpectedEOF)

	_, err = packet.ReadFrame(bytes.NewReader([]byte{0, 0, 0, 3, 0x0A, 1}))
	a.ErrorIs(err, protoerr.ErrTransport)
	a.False(errors.Is(err, protoerr.ErrProtocolViolation))

	_, err = packet.ReadFrame(bytes.NewReader(nil))
	a.ErrorIs(err, io.EOF)
}

func TestOversizedFrame(t *testing.T) {
	t.Parallel()
	_, err := packet.ReadFrame(bytes.NewReader([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0F}))
	assert.ErrorIs(t, err, protoerr.ErrProtocolViolation)
}

func TestAppendMessageUnsupported(t *testing.T) {
	t.Parallel()
	b, err := packet.AppendMessage([]byte{9}, &rpc.Unsupported{Tag: rpc.CodeDumpMD})
	assert.ErrorIs(t, err, protoerr.ErrUnsupported)
	assert.Equal(t, []byte{9}, b)
}

func TestFramer(t *testing.T) {
	t.Parallel()
	a := assert.New(t)
	f := new(packet.Framer)

	payload1 := make([]byte, 512)
	_, err := rand.Read(payload1)
	a.NoError(err)
	payload2 := make([]byte, 512)
	_, err = rand.Read(payload2)
	a.NoError(err)

	p := packet.AppendFrame(nil, rpc.CodePullMD, payload1)
	firstFrameLen := len(p)
	p = packet.AppendFrame(p, rpc.CodePushMD, payload2)

	f.Fill(p[:1])
	b, status := f.Next()
	a.Nil(b)
	a.Equal(packet.StatusHeaderIncomplete, status)

	f.Fill(p[1:5])
	b, status = f.Next()
	a.Empty(b)
	a.Equal(packet.StatusPayloadIncomplete, status)

	header := f.Header()
	a.Equal(512, header.Length())
	a.Equal(rpc.CodePullMD, header.Code())

	f.Fill(p[5:7])
	b, status = f.Next()
	a.Equal(p[5:7], b)
	a.Equal(packet.StatusPayloadIncomplete, status)

	f.Fill(p[7 : firstFrameLen+11])
	b, status = f.Next()
	a.Equal(p[7:firstFrameLen], b)
	a.Equal(packet.StatusFrameDone, status)

	b, status = f.Next()
	a.Equal(p[firstFrameLen+5:firstFrameLen+11], b)
	a.Equal(packet.StatusPayloadIncomplete, status)
	a.Equal(rpc.CodePushMD, f.Header().Code())

	f.Fill(p[firstFrameLen+11:])
	b, status = f.Next()
	a.Equal(p[firstFrameLen+11:], b)
	a.Equal(packet.StatusFrameDoneBufEmpty, status)
	a.False(f.Pending())
}

func TestFramerFeed(t *testing.T) {
	t.Parallel()

	var stream []byte
	var want []packet.Frame
	for i, m := range []rpc.Message{
		&rpc.Helo{Protocol: 2, License: []byte("key")},
		&rpc.OK{},
		&rpc.PullMD{Signatures: []rpc.FuncSignature{rpc.NewSignature([]byte{1, 2, 3})}},
		&rpc.OK{},
		&rpc.Fail{Status: 1, Message: "nope"},
	} {
		var err error
		l := len(stream)
		stream, err = packet.AppendMessage(stream, m)
		require.NoError(t, err, i)
		want = append(want, packet.Frame{Code: m.Code(), Payload: append([]byte{}, stream[l+5:]...)})
	}

	for _, chunkSize := range []int{1, 2, 3, 7, 64, len(stream)} {
		f := new(packet.Framer)
		var got []packet.Frame
		for off := 0; off < len(stream); off += chunkSize {
			end := min(off+chunkSize, len(stream))
			err := f.Feed(stream[off:end], func(fr packet.Frame) error {
				got = append(got, fr)
				return nil
			})
			require.NoError(t, err)
		}
		assert.Equal(t, want, got, "chunk size %d", chunkSize)
		assert.False(t, f.Pending())
	}
}
