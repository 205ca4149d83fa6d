// Package main hosts the kiteready CLI entrypoint and command graph.
//
// The Cobra command tree wires the readiness controller to the local engine
// oracle, an interactive console notifier, the optional ntfy mirror and the
// telemetry sinks. Commands that can surface notifications keep reading
// choices from stdin until every notification is settled.
//
// Keep this package thin: behaviour belongs in internal packages, commands
// only assemble them.
package main
