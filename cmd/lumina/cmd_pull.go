package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ozontech/lumina/client"
	"github.com/ozontech/lumina/formats/funclist"
)

type PullCommand struct {
	ConfigFlags

	In  *os.File `arg:"" help:"Function list, one JSON object per line (- for stdin)."`
	Out string   `arg:"" optional:"" type:"path" help:"Where to write the merged list, stdout by default."`
}

func (c *PullCommand) Run(ctx context.Context, log *zap.Logger) error {
	defer c.In.Close()
	fs, err := funclist.ReadAll(c.In)
	if err != nil {
		return fmt.Errorf("reading %s: %w", c.In.Name(), err)
	}

	return c.withClient(ctx, log, func(ctx context.Context, cl *client.Client) error {
		res, pullErr := cl.Pull(ctx, funclist.Scope(fs))
		merged, err := funclist.Apply(fs, res.Scope)
		if err != nil {
			return multierr.Append(pullErr, err)
		}
		log.Info("pull done",
			zap.Int("functions", len(fs)),
			zap.Int("resolved", len(res.Results)),
		)
		return multierr.Append(pullErr, writeList(c.Out, merged))
	})
}

func writeList(path string, fs []funclist.Function) (err error) {
	if path == "" || path == "-" {
		return funclist.WriteAll(os.Stdout, fs)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() { err = multierr.Append(err, f.Close()) }()
	return funclist.WriteAll(f, fs)
}
