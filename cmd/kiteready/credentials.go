package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"kiteready/internal/readiness"
)

// promptCredentials fills in whatever config and environment leave out by
// asking on the terminal.
type promptCredentials struct {
	email    string
	password string
	readLine func(ctx context.Context, label string, secret bool) (string, error)
}

func (p promptCredentials) Credentials(ctx context.Context) (readiness.Credentials, error) {
	email := strings.TrimSpace(p.email)
	if email == "" {
		line, err := p.readLine(ctx, "Kite email: ", false)
		if err != nil {
			return readiness.Credentials{}, fmt.Errorf("read email: %w", err)
		}
		email = strings.TrimSpace(line)
	}
	if email == "" {
		return readiness.Credentials{}, fmt.Errorf("%w: email is empty", readiness.ErrNoCredentials)
	}

	password := p.password
	if password == "" {
		line, err := p.readLine(ctx, fmt.Sprintf("Password for %s: ", email), true)
		if err != nil {
			return readiness.Credentials{}, fmt.Errorf("read password: %w", err)
		}
		password = line
	}
	if password == "" {
		return readiness.Credentials{}, fmt.Errorf("%w: password is empty", readiness.ErrNoCredentials)
	}
	return readiness.Credentials{Email: email, Password: password}, nil
}

// withEchoDisabled runs read with terminal echo off when in is a terminal.
func withEchoDisabled(in io.Reader, read func() (string, error)) (string, error) {
	file, ok := in.(*os.File)
	if !ok {
		return read()
	}
	fd := int(file.Fd())
	if !term.IsTerminal(fd) {
		return read()
	}
	state, err := term.GetState(fd)
	if err != nil {
		return read()
	}
	defer func() { _ = term.Restore(fd, state) }()
	if err := disableEcho(fd); err != nil {
		return read()
	}
	return read()
}
