package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"kiteready/internal/config"
	"kiteready/internal/editor"
	"kiteready/internal/engine"
	"kiteready/internal/logging"
	"kiteready/internal/notifications"
	"kiteready/internal/readiness"
	"kiteready/internal/telemetry"
)

// session assembles one readiness controller with terminal adapters.
type session struct {
	cfg        *config.Config
	logger     *slog.Logger
	oracle     *engine.Oracle
	console    *notifications.Console
	ntfy       *notifications.Ntfy
	journal    *telemetry.Journal
	editor     readiness.EditorContext
	controller *readiness.Controller

	rawIn io.Reader
	input *bufio.Reader
	out   io.Writer
}

type sessionOptions struct {
	file  string
	email string
}

func (c *commandContext) openSession(cmd *cobra.Command, opts sessionOptions) (*session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	s := &session{
		cfg:     cfg,
		logger:  logger,
		oracle:  engine.New(cfg, logger),
		console: notifications.NewConsole(cmd.OutOrStdout()),
		ntfy:    notifications.NewNtfy(cfg, logger),
		rawIn:   cmd.InOrStdin(),
		out:     cmd.OutOrStdout(),
	}
	s.input = bufio.NewReader(s.rawIn)

	var notifier readiness.Notifier = s.console
	if s.ntfy != nil {
		notifier = notifications.NewTee(s.console, s.ntfy)
	}

	sinks := telemetry.Fanout{telemetry.NewLogSink(logger)}
	if cfg.Telemetry.Enabled {
		journal, err := telemetry.OpenJournal(cfg, logger)
		if err != nil {
			logging.WarnWithContext(logger, "event journal unavailable", "journal_open_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "readiness events are only logged"),
			)
		} else {
			s.journal = journal
			sinks = append(sinks, journal)
		}
	}

	s.editor = editor.FromEnv{}
	if strings.TrimSpace(opts.file) != "" {
		s.editor = editor.NewStatic(opts.file)
	}

	email := strings.TrimSpace(opts.email)
	if email == "" {
		email = cfg.Account.Email
	}
	creds := promptCredentials{
		email:    email,
		password: os.Getenv("KITE_PASSWORD"),
		readLine: s.readLine,
	}

	controller, err := readiness.New(readiness.Deps{
		Oracle:      s.oracle,
		Notifier:    notifier,
		Telemetry:   sinks,
		Editor:      s.editor,
		Credentials: creds,
		Logger:      logger,
	}, readiness.WithSettleDelay(cfg.SettleDelay()))
	if err != nil {
		s.close()
		return nil, err
	}
	s.controller = controller
	return s, nil
}

// serve reads notification choices until nothing is left open.
func (s *session) serve(ctx context.Context) error {
	s.controller.Wait()
	if s.console.Pending() == 0 {
		return nil
	}
	fmt.Fprintln(s.out, "Choose an option and press Enter.")
	return s.console.Serve(ctx, s.input, s.controller.Wait)
}

func (s *session) close() {
	if s.controller != nil {
		s.controller.Wait()
	}
	s.ntfy.Flush()
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			s.logger.Warn("close event journal", logging.Error(err))
		}
	}
}

// readLine prompts through the console once serving has attached stdin and
// reads stdin directly before that.
func (s *session) readLine(ctx context.Context, label string, secret bool) (string, error) {
	read := func() (string, error) {
		line, err := s.console.Prompt(ctx, label)
		if errors.Is(err, notifications.ErrNotServing) {
			fmt.Fprint(s.out, label)
			line, err = s.input.ReadString('\n')
			if errors.Is(err, io.EOF) && line != "" {
				err = nil
			}
		}
		return strings.TrimRight(line, "\r\n"), err
	}
	if !secret {
		return read()
	}
	line, err := withEchoDisabled(s.rawIn, read)
	fmt.Fprintln(s.out)
	return line, err
}
