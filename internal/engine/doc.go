// Package engine implements readiness.Oracle for a Kite engine running on
// the local machine.
//
// QueryState walks the lifecycle stages in order and stops at the first one
// that is not satisfied: platform support, an installed binary, a running
// process (lock file or pid file), a responding local API, a logged-in user,
// and finally permission for the requested file. Remediations download the
// engine, start it detached and record its pid in the pid file, log in through the local API, and add
// directories to the engine's whitelist.
//
// Failures are returned as *Error values whose Code comes from the
// services error markers, and which expose a compact diagnostic payload for
// user-facing notifications.
package engine
