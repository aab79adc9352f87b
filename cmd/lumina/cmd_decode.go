package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ozontech/lumina/mdproto"
)

type DecodeMDCommand struct {
	Hex string `arg:"" help:"Serialized metadata in hex, spaces allowed."`
}

func (c *DecodeMDCommand) Run() error {
	data, err := hex.DecodeString(strings.Join(strings.Fields(c.Hex), ""))
	if err != nil {
		return fmt.Errorf("decoding hex: %w", err)
	}
	messages, decodeErr := mdproto.Decode(data)
	if err := printRecords(os.Stdout, messages); err != nil {
		return err
	}
	return decodeErr
}

func printRecords(w io.Writer, messages []mdproto.Message) error {
	for i, m := range messages {
		var err error
		switch m := m.(type) {
		case *mdproto.TypeInfo:
			_, err = fmt.Fprintf(w, "#%d %s unk=%d type=%s", i, m.Cmd(), m.Unk, m.Type)
			if err == nil && m.Func != nil {
				_, err = fmt.Fprintf(w, " flags=0x%02x cc=%s return=%s argc=%d args=%x",
					m.Func.Flags, m.Func.CallingConv(), m.Func.ReturnType, m.Func.Argc, m.Func.Tail)
			} else if err == nil {
				_, err = fmt.Fprintf(w, " rest=%x", m.Rest)
			}
		case *mdproto.Unsupported:
			_, err = fmt.Fprintf(w, "#%d %s body=%x", i, m.Cmd(), m.Body)
		}
		if err != nil {
			return err
		}
		if _, err = fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
