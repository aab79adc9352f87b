package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	mangokong "github.com/alecthomas/mango-kong"
	"go.uber.org/zap"
)

var CLI struct {
	Pull     PullCommand       `cmd:"" help:"Resolve the functions of a list by their signatures."`
	Push     PushCommand       `cmd:"" help:"Send resolved functions to the servers accepting pushes."`
	Helo     HeloCommand       `cmd:"" help:"Check the handshake with every configured server."`
	DecodeMD DecodeMDCommand   `cmd:"" name:"decode-md" help:"Decode a serialized metadata blob."`
	Dump     DumpCommand       `cmd:"" help:"Print the frames of a captured byte stream."`
	Man      mangokong.ManFlag `help:"Write man page." hidden:""`
	Verbose  bool              `help:"Verbose output."`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	kongCtx := kong.Parse(
		&CLI,
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.Groups(map[string]string{
			"origin": `Push origin flags:`,
		}),
		kong.ConfigureHelp(kong.HelpOptions{
			Tree:    true,
			Compact: true,
		}),
		kong.Description(`metadata sharing client

lumina pulls function names and types from metadata servers by function signature
and pushes locally resolved functions back.
		`),
	)

	log := zap.NewNop()
	if CLI.Verbose {
		log = zap.Must(zap.NewDevelopment())
	}
	defer log.Sync() //nolint:errcheck

	err := kongCtx.Run(log)
	if err != nil {
		log.Debug("command failed", zap.Error(err))
	}
	kongCtx.FatalIfErrorf(err)
}
