package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"kiteready/internal/config"
)

func newRemediationCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newInstallCommand(ctx),
		newStartCommand(ctx),
		newLoginCommand(ctx),
		newEnableCommand(ctx),
	}
}

// runRemediation starts a remediation through the controller so failures and
// follow-up checks surface as notifications, then serves them.
func runRemediation(ctx *commandContext, cmd *cobra.Command, opts sessionOptions, start func(context.Context, *session)) error {
	s, err := ctx.openSession(cmd, opts)
	if err != nil {
		return err
	}
	defer s.close()

	reqCtx := requestContext(cmd)
	start(reqCtx, s)
	return s.serve(reqCtx)
}

func newInstallCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Download and start the Kite engine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemediation(ctx, cmd, sessionOptions{}, func(reqCtx context.Context, s *session) {
				s.controller.Install(reqCtx)
			})
		},
	}
}

func newStartCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the installed Kite engine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemediation(ctx, cmd, sessionOptions{}, func(reqCtx context.Context, s *session) {
				s.controller.Launch(reqCtx)
			})
		},
	}
}

func newLoginCommand(ctx *commandContext) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to Kite",
		Long: "Log in to Kite through the local engine. The email comes from --email,\n" +
			"account.email or KITE_EMAIL, the password from KITE_PASSWORD; anything\n" +
			"missing is prompted for.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemediation(ctx, cmd, sessionOptions{email: email}, func(reqCtx context.Context, s *session) {
				s.controller.Login(reqCtx)
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Kite account email")
	return cmd
}

func newEnableCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "enable [dir]",
		Short: "Enable Kite for a directory",
		Long:  "Enable Kite for the given directory (default: the current directory).",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolveDirectory(args)
			if err != nil {
				return err
			}
			return runRemediation(ctx, cmd, sessionOptions{}, func(reqCtx context.Context, s *session) {
				s.controller.Whitelist(reqCtx, dir)
			})
		},
	}
}

func resolveDirectory(args []string) (string, error) {
	if len(args) == 0 {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("determine working directory: %w", err)
		}
		return wd, nil
	}
	expanded, err := config.ExpandPath(args[0])
	if err != nil {
		return "", fmt.Errorf("resolve directory: %w", err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("resolve directory: %w", err)
	}
	return abs, nil
}
