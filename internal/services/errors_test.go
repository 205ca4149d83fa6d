package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"kiteready/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "engine", "install", "download failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"engine", "install", "download failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestCodeMapping(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{services.Wrap(services.ErrUnauthorized, "engine", "login", "rejected", nil), "unauthorized"},
		{services.Wrap(services.ErrValidation, "engine", "enable", "bad path", nil), "validation"},
		{services.Wrap(services.ErrConfiguration, "engine", "install", "no url", nil), "configuration"},
		{services.Wrap(services.ErrNotFound, "engine", "launch", "missing", nil), "not_found"},
		{services.Wrap(services.ErrTimeout, "engine", "ping", "slow", context.DeadlineExceeded), "timeout"},
		{services.Wrap(services.ErrExternalTool, "engine", "launch", "exec", nil), "external_tool"},
		{fmt.Errorf("plain"), "transient"},
	}
	for _, tc := range tests {
		if got := services.Code(tc.err); got != tc.want {
			t.Errorf("Code(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
