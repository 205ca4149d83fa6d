// Package notifications presents readiness notifications to the user.
//
// Console renders notifications to a terminal and reads button choices from
// an input stream, which is how the kiteready CLI stands in for an editor's
// toast layer. Ntfy mirrors every notification to an ntfy topic so a phone
// or desktop subscriber sees the same messages; its handles are detached and
// its buttons are not actionable. Tee fans a notification out to a primary
// notifier plus any number of mirrors.
//
// All notifiers satisfy readiness.Notifier; the readiness package never
// imports this one.
package notifications
