package readiness

import (
	"fmt"
	"strings"
)

// State is the engine lifecycle stage reported by an Oracle. Values are
// ordered; each stage implies every earlier one is satisfied.
type State int

const (
	Unsupported State = iota
	Uninstalled
	Installed
	Running
	Reachable
	Authenticated
	Whitelisted
)

var stateNames = [...]string{
	Unsupported:   "unsupported",
	Uninstalled:   "uninstalled",
	Installed:     "installed",
	Running:       "running",
	Reachable:     "reachable",
	Authenticated: "authenticated",
	Whitelisted:   "whitelisted",
}

func (s State) String() string {
	if s.Valid() {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Valid reports whether s is one of the seven known stages.
func (s State) Valid() bool {
	return s >= Unsupported && s <= Whitelisted
}

// Ready reports whether no remediation is needed.
func (s State) Ready() bool {
	return s == Whitelisted
}

// ParseState converts a lowercase stage name back into a State.
func ParseState(value string) (State, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for i, name := range stateNames {
		if name == normalized {
			return State(i), nil
		}
	}
	return 0, fmt.Errorf("unknown lifecycle state %q", value)
}
