package notifications_test

import (
	"bytes"
	"testing"

	"kiteready/internal/notifications"
	"kiteready/internal/readiness"
)

func TestTeeReturnsPrimaryHandle(t *testing.T) {
	var primaryOut, mirrorOut bytes.Buffer
	primary := notifications.NewConsole(&primaryOut)
	mirror := notifications.NewConsole(&mirrorOut)

	var nilNtfy *notifications.Ntfy
	tee := notifications.NewTee(primary, mirror, nil, nilNtfy)

	h := tee.ShowWarning(readiness.TitleNotLoggedIn, readiness.Options{Dismissable: true})
	tee.ShowError(readiness.TitleUnreachable, readiness.Options{Dismissable: true})

	if primary.Pending() != 2 || mirror.Pending() != 2 {
		t.Fatalf("expected both notifiers to show both notifications, got %d/%d", primary.Pending(), mirror.Pending())
	}
	h.Dismiss()
	if primary.Pending() != 1 {
		t.Fatalf("expected primary handle to dismiss on the primary, got %d", primary.Pending())
	}
	if mirror.Pending() != 2 {
		t.Fatalf("mirror should be unaffected, got %d", mirror.Pending())
	}
}
