package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ozontech/lumina/client"
	"github.com/ozontech/lumina/config"
	"github.com/ozontech/lumina/report/multi"
	"github.com/ozontech/lumina/report/summary"
	"github.com/ozontech/lumina/report/tsv"
	"github.com/ozontech/lumina/types"
)

type ConfigFlags struct {
	Config string `required:"" type:"existingfile" help:"YAML configuration of servers and license."`
	Report string `help:"Write a TSV line per exchange to this file." type:"path"`
}

// withClient runs fn with a client built from the flags. Reporters run for
// the whole call and print their totals when fn returns.
func (f *ConfigFlags) withClient(ctx context.Context, log *zap.Logger, fn func(context.Context, *client.Client) error) (err error) {
	conf, err := config.Load(f.Config)
	if err != nil {
		return err
	}

	var summaryOpts []summary.Opt
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		summaryOpts = append(summaryOpts, summary.WithColor())
	}

	var reporter types.Reporter = summary.New(os.Stderr, summaryOpts...)
	if f.Report != "" {
		file, err := os.Create(f.Report)
		if err != nil {
			return fmt.Errorf("creating report file(%s): %w", f.Report, err)
		}
		defer func() { err = multierr.Append(err, file.Close()) }()
		reporter = multi.NewMulti(tsv.New(file), reporter)
	}

	g := new(errgroup.Group)
	g.Go(reporter.Run)
	defer func() {
		err = multierr.Combine(err, reporter.Close(), g.Wait())
	}()

	c, err := client.New(conf, client.WithLogger(log), client.WithReporter(reporter))
	if err != nil {
		return err
	}
	return fn(ctx, c)
}
