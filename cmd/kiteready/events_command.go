package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"kiteready/internal/telemetry"
)

func newEventsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List recent readiness events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Telemetry.Enabled {
				return errors.New("event journal is disabled (set telemetry.enabled = true)")
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			journal, err := telemetry.OpenJournal(cfg, logger)
			if err != nil {
				return fmt.Errorf("open event journal: %w", err)
			}
			defer journal.Close()

			events, err := journal.List(requestContext(cmd), limit)
			if err != nil {
				return fmt.Errorf("list events: %w", err)
			}
			if jsonOutput {
				return writeJSON(cmd, events)
			}

			out := cmd.OutOrStdout()
			if len(events) == 0 {
				fmt.Fprintln(out, "No events recorded")
				return nil
			}
			rows := make([][]string, 0, len(events))
			for _, event := range events {
				rows = append(rows, []string{
					event.RecordedAt.Local().Format(time.DateTime),
					event.Name,
					formatAttrs(event.Attrs),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Recorded", "Event", "Details"}, rows))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of events to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func formatAttrs(attrs map[string]string) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+attrs[k])
	}
	return strings.Join(parts, " ")
}
