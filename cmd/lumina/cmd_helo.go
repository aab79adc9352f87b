package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ozontech/lumina/client"
)

type HeloCommand struct {
	ConfigFlags
}

func (c *HeloCommand) Run(ctx context.Context, log *zap.Logger) error {
	return c.withClient(ctx, log, func(ctx context.Context, cl *client.Client) error {
		failed := 0
		for _, r := range cl.Helo(ctx) {
			if r.Err != nil {
				failed++
				fmt.Printf("%s\tFAIL\t%v\n", r.Server, r.Err)
				continue
			}
			fmt.Printf("%s\tOK\n", r.Server)
		}
		if failed > 0 {
			return fmt.Errorf("%d servers refused the handshake", failed)
		}
		return nil
	})
}
