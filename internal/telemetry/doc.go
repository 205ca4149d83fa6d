// Package telemetry records readiness events.
//
// LogSink writes each event as a structured log line. Journal persists
// events to a local SQLite database through a buffered channel drained by a
// background writer, so Record never waits on disk; when the buffer is full
// the event is counted as dropped. Fanout delivers one event to several
// sinks and contains sink panics. All sinks satisfy readiness.Telemetry.
package telemetry
