package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ozontech/lumina/client"
	"github.com/ozontech/lumina/formats/funclist"
	"github.com/ozontech/lumina/reconcile"
)

type PushCommand struct {
	ConfigFlags

	In *os.File `arg:"" help:"Function list, one JSON object per line (- for stdin)."`

	IDBPath   string `group:"origin" help:"Path of the analysis database."`
	InputPath string `group:"origin" help:"Path of the analysed input file."`
	InputMD5  string `group:"origin" name:"input-md5" help:"Hex MD5 of the analysed input file."`
	Hostname  string `group:"origin" help:"Host name to report, the local one by default."`
}

func (c *PushCommand) Validate() error {
	if c.InputMD5 == "" {
		return nil
	}
	b, err := hex.DecodeString(c.InputMD5)
	if err != nil || len(b) != 16 {
		return errors.New("--input-md5 must be 32 hex digits")
	}
	return nil
}

func (c *PushCommand) origin() reconcile.Origin {
	o := reconcile.Origin{
		IDBPath:   c.IDBPath,
		InputPath: c.InputPath,
		Hostname:  c.Hostname,
	}
	if o.Hostname == "" {
		o.Hostname, _ = os.Hostname()
	}
	md5, _ := hex.DecodeString(c.InputMD5) // checked by Validate
	copy(o.MD5[:], md5)
	return o
}

func (c *PushCommand) Run(ctx context.Context, log *zap.Logger) error {
	defer c.In.Close()
	fs, err := funclist.ReadAll(c.In)
	if err != nil {
		return fmt.Errorf("reading %s: %w", c.In.Name(), err)
	}
	records, addresses := funclist.Records(fs)
	if len(records) == 0 {
		return errors.New("no resolved functions to push")
	}

	return c.withClient(ctx, log, func(ctx context.Context, cl *client.Client) error {
		results, err := cl.Push(ctx, c.origin(), records, addresses)
		for _, r := range results {
			if r.Err != nil {
				continue
			}
			added := 0
			for _, st := range r.Status {
				if st != 0 {
					added++
				}
			}
			fmt.Printf("%s\tpushed=%d\tnew=%d\n", r.Server, len(r.Status), added)
		}
		return err
	})
}
