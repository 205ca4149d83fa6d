// Package logs reads kiteready's log file for `kiteready logs`: the last N
// lines, then optionally new lines as they are appended.
package logs
