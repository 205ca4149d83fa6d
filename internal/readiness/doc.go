// Package readiness drives the Kite engine towards a usable state for the
// file the editor is looking at.
//
// The Controller asks an Oracle for the engine's lifecycle state, maps each
// non-ready state to a single notification with at most one remediation
// button, and feeds successful remediations back into a fresh state check.
// Failed remediations surface a Retry button that repeats the same step with
// the same parameters. Every collaborator (oracle, notifier, telemetry,
// editor, credential source) is injected, so the package never touches the
// network, the filesystem, or a terminal directly.
package readiness
