package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kiteready/internal/engine"
)

func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running Kite engine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			pid, err := engine.New(cfg, logger).StopDaemon(requestContext(cmd))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stopped Kite engine (pid %d)\n", pid)
			return nil
		},
	}
}
