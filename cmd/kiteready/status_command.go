package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"kiteready/internal/engine"
	"kiteready/internal/preflight"
	"kiteready/internal/readiness"
)

const statusQueryLimit = 4

type pathStatus struct {
	Path  string `json:"path"`
	State string `json:"state,omitempty"`
	Ready bool   `json:"ready"`
	Error string `json:"error,omitempty"`
}

type checkStatus struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

type statusReport struct {
	Checks []checkStatus `json:"checks"`
	Paths  []pathStatus  `json:"paths"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status [file...]",
		Short: "Show environment checks and engine state",
		Long: "Run environment checks and report the engine state for each file.\n" +
			"Without files only the path-independent state is shown.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			reqCtx := requestContext(cmd)
			report := statusReport{}
			for _, result := range preflight.RunAll(reqCtx, cfg) {
				report.Checks = append(report.Checks, checkStatus(result))
			}
			report.Paths, err = queryStates(reqCtx, engine.New(cfg, logger), args)
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, report)
			}
			renderStatus(cmd, report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

// queryStates asks the oracle about every path concurrently. Query errors
// are reported per path; only context cancellation fails the whole call.
func queryStates(ctx context.Context, oracle readiness.Oracle, paths []string) ([]pathStatus, error) {
	if len(paths) == 0 {
		paths = []string{""}
	}
	results := make([]pathStatus, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(statusQueryLimit)
	for i, raw := range paths {
		g.Go(func() error {
			path := strings.TrimSpace(raw)
			if path != "" {
				if abs, err := filepath.Abs(path); err == nil {
					path = abs
				}
			}
			entry := pathStatus{Path: path}
			state, err := oracle.QueryState(gctx, path)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				entry.Error = readiness.Describe(err)
			} else {
				entry.State = state.String()
				entry.Ready = state.Ready()
			}
			results[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func renderStatus(cmd *cobra.Command, report statusReport) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	for _, line := range renderSectionHeader("Environment", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, check := range report.Checks {
		kind := statusOK
		if !check.Passed {
			kind = statusError
		}
		fmt.Fprintln(out, renderStatusLine(check.Name, kind, check.Detail, colorize))
	}
	fmt.Fprintln(out)

	for _, line := range renderSectionHeader("Readiness", colorize) {
		fmt.Fprintln(out, line)
	}
	rows := make([][]string, 0, len(report.Paths))
	for _, entry := range report.Paths {
		path := entry.Path
		if path == "" {
			path = "(no file)"
		}
		state := entry.State
		if entry.Error != "" {
			state = "error: " + entry.Error
		}
		rows = append(rows, []string{path, state, yesNo(entry.Ready)})
	}
	fmt.Fprintln(out, renderTable([]string{"Path", "State", "Ready"}, rows))
}
