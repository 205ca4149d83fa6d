package readiness_test

import (
	"errors"
	"fmt"
	"testing"

	"kiteready/internal/readiness"
)

func TestStateOrderingAndNames(t *testing.T) {
	ordered := []readiness.State{
		readiness.Unsupported,
		readiness.Uninstalled,
		readiness.Installed,
		readiness.Running,
		readiness.Reachable,
		readiness.Authenticated,
		readiness.Whitelisted,
	}
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1] >= ordered[i] {
			t.Fatalf("%s should precede %s", ordered[i-1], ordered[i])
		}
	}
	for _, state := range ordered {
		parsed, err := readiness.ParseState(state.String())
		if err != nil {
			t.Fatalf("ParseState(%q): %v", state.String(), err)
		}
		if parsed != state {
			t.Fatalf("round trip mismatch: %s -> %s", state, parsed)
		}
		if state.Ready() != (state == readiness.Whitelisted) {
			t.Fatalf("unexpected Ready for %s", state)
		}
	}
	if _, err := readiness.ParseState("checking"); err == nil {
		t.Fatal("expected error for unknown state")
	}
	if readiness.State(-1).Valid() || readiness.State(7).Valid() {
		t.Fatal("out-of-range states should be invalid")
	}
}

func TestDescribe(t *testing.T) {
	if got := readiness.Describe(errors.New("plain failure")); got != "plain failure" {
		t.Fatalf("unexpected plain description %q", got)
	}
	wrapped := fmt.Errorf("install: %w", &diagnosticError{Code: "E1"})
	if got := readiness.Describe(wrapped); got != `{"code":"E1"}` {
		t.Fatalf("unexpected diagnostic description %q", got)
	}
	if got := readiness.Describe(nil); got != "" {
		t.Fatalf("expected empty description for nil, got %q", got)
	}
}
