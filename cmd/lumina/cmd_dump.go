package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/ozontech/lumina/consts"
	"github.com/ozontech/lumina/packet"
	"github.com/ozontech/lumina/rpc"
)

type DumpCommand struct {
	File *os.File `arg:"" help:"Captured stream, - for stdin."`
}

func (c *DumpCommand) Run(log *zap.Logger) error {
	defer c.File.Close()
	n, err := dumpFrames(os.Stdout, c.File)
	log.Debug("dump done", zap.Int("frames", n))
	return err
}

// dumpFrames prints a line per frame of r and returns the number of frames.
func dumpFrames(w io.Writer, r io.Reader) (int, error) {
	var (
		framer packet.Framer
		total  uint64
		frames int
	)
	buf := make([]byte, consts.DefaultReadBufSize)
	for {
		n, readErr := r.Read(buf)
		total += uint64(n)
		err := framer.Feed(buf[:n], func(f packet.Frame) error {
			frames++
			_, err := fmt.Fprintf(w, "#%d %s %s: %s\n",
				frames, f.Code, humanize.Bytes(uint64(len(f.Payload))), describe(f))
			return err
		})
		if err != nil {
			return frames, err
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return frames, readErr
		}
	}
	if framer.Pending() {
		return frames, fmt.Errorf("stream ends inside a frame after %s", humanize.Bytes(total))
	}
	return frames, nil
}

func describe(f packet.Frame) string {
	m, err := rpc.Unmarshal(f.Code, f.Payload)
	if err != nil {
		return err.Error()
	}
	switch m := m.(type) {
	case *rpc.OK:
		return "ok"
	case *rpc.Fail:
		return fmt.Sprintf("status=%d message=%q", m.Status, m.Message)
	case *rpc.Notify:
		return fmt.Sprintf("protocol=%d message=%q", m.Protocol, m.Message)
	case *rpc.Helo:
		return fmt.Sprintf("protocol=%d license=%s id=%d watermark=%d",
			m.Protocol, humanize.Bytes(uint64(len(m.License))), m.ID, m.Watermark)
	case *rpc.PullMD:
		return fmt.Sprintf("flags=%d signatures=%d", m.Flags, len(m.Signatures))
	case *rpc.PullMDResult:
		return fmt.Sprintf("requested=%d found=%d", len(m.Found), len(m.Results))
	case *rpc.PushMD:
		return fmt.Sprintf("records=%d idb=%q input=%q host=%q md5=%x",
			len(m.Records), m.IDBPath, m.InputPath, m.Hostname, m.MD5)
	case *rpc.PushMDResult:
		return fmt.Sprintf("statuses=%d", len(m.Status))
	}
	return fmt.Sprintf("%T", m)
}
