package telemetry_test

import (
	"context"
	"os"
	"testing"

	"kiteready/internal/telemetry"
	"kiteready/internal/testsupport"
)

func TestJournalPersistsEvents(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	journal, err := telemetry.OpenJournal(cfg, nil)
	if err != nil {
		t.Fatalf("OpenJournal: %v", err)
	}
	journal.Record("kite_not_installed", nil)
	journal.Record("kite_install_failed", map[string]string{"error": `{"code":"E1"}`})
	if err := journal.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(cfg.Telemetry.JournalPath); err != nil {
		t.Fatalf("expected journal file: %v", err)
	}

	reopened, err := telemetry.OpenJournal(cfg, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	events, err := reopened.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	newest := events[0]
	if newest.Name != "kite_install_failed" {
		t.Fatalf("expected newest first, got %q", newest.Name)
	}
	if newest.Attrs["error"] != `{"code":"E1"}` {
		t.Fatalf("unexpected attrs: %v", newest.Attrs)
	}
	if newest.ID == "" || newest.ID == events[1].ID {
		t.Fatalf("expected distinct ids, got %q and %q", newest.ID, events[1].ID)
	}
	if events[1].Attrs != nil {
		t.Fatalf("expected nil attrs for event without attributes, got %v", events[1].Attrs)
	}
	if newest.RecordedAt.IsZero() {
		t.Fatal("expected timestamp")
	}
}

func TestJournalListHonoursLimit(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	journal, err := telemetry.OpenJournal(cfg, nil)
	if err != nil {
		t.Fatalf("OpenJournal: %v", err)
	}
	for range 5 {
		journal.Record("kite_ready", nil)
	}
	if err := journal.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := telemetry.OpenJournal(cfg, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	events, err := reopened.List(context.Background(), 3)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
}

func TestJournalDropsAfterClose(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	journal, err := telemetry.OpenJournal(cfg, nil)
	if err != nil {
		t.Fatalf("OpenJournal: %v", err)
	}
	if err := journal.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	journal.Record("kite_ready", nil)
	if journal.Dropped() != 1 {
		t.Fatalf("expected one dropped event, got %d", journal.Dropped())
	}
	if err := journal.Close(); err != nil {
		t.Fatalf("second Close should be a no-op: %v", err)
	}
}

func TestJournalCopiesAttrs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	journal, err := telemetry.OpenJournal(cfg, nil)
	if err != nil {
		t.Fatalf("OpenJournal: %v", err)
	}
	attrs := map[string]string{"path": "/work"}
	journal.Record("kite_whitelisted", attrs)
	attrs["path"] = "/changed"
	if err := journal.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := telemetry.OpenJournal(cfg, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	events, err := reopened.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(events) != 1 || events[0].Attrs["path"] != "/work" {
		t.Fatalf("expected recorded attrs to be isolated from caller mutation, got %+v", events)
	}
}
