package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newEnsureCommand(ctx *commandContext) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "ensure [file]",
		Short: "Check Kite readiness for a file and offer fixes",
		Long: "Check the Kite engine state for the given file (or $KITEREADY_ACTIVE_FILE)\n" +
			"and show a notification with a fix for anything that is not ready.\n" +
			"Choices are read from stdin until every notification is settled.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := sessionOptions{email: email}
			if len(args) == 1 {
				opts.file = args[0]
			}
			s, err := ctx.openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.close()

			reqCtx := requestContext(cmd)
			s.controller.Ensure(reqCtx)
			if err := s.serve(reqCtx); err != nil {
				return err
			}
			if s.console.Pending() == 0 {
				state, err := s.oracle.QueryState(reqCtx, s.editor.ActiveFilePath())
				if err == nil && state.Ready() {
					fmt.Fprintln(cmd.OutOrStdout(), "Kite is ready.")
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Kite account email used by the Login option")
	return cmd
}
