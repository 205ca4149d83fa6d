package telemetry

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"kiteready/internal/config"
	"kiteready/internal/logging"
)

const (
	sqliteBusyCode      = 5
	busyRetryAttempts   = 5
	busyRetryBackoff    = 10 * time.Millisecond
	busyRetryMaxBackoff = 200 * time.Millisecond
	writeTimeout        = 5 * time.Second
	defaultListLimit    = 50

	// fixed width so recorded_at sorts lexically
	timestampLayout = "2006-01-02T15:04:05.000000000Z"
)

// Journal persists events to SQLite. Record enqueues without blocking; a
// single writer goroutine drains the queue until Close.
type Journal struct {
	db     *sql.DB
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	closed  bool
	queue   chan Event
	done    chan struct{}
	dropped atomic.Int64
	now     func() time.Time
}

// OpenJournal opens or creates the journal configured in cfg.
func OpenJournal(cfg *config.Config, logger *slog.Logger) (*Journal, error) {
	path := strings.TrimSpace(cfg.Telemetry.JournalPath)
	if path == "" {
		return nil, errors.New("telemetry.journal_path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	buffer := cfg.Telemetry.BufferSize
	if buffer <= 0 {
		buffer = 1
	}
	j := &Journal{
		db:     db,
		path:   path,
		logger: logging.NewComponentLogger(logger, "journal"),
		queue:  make(chan Event, buffer),
		done:   make(chan struct{}),
		now:    time.Now,
	}
	if err := j.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	go j.writeLoop()
	return j, nil
}

// Path returns the database location.
func (j *Journal) Path() string {
	return j.path
}

// Record enqueues an event. Events recorded after Close, or while the
// buffer is full, are dropped.
func (j *Journal) Record(event string, attrs map[string]string) {
	if j == nil {
		return
	}
	entry := Event{
		ID:         uuid.NewString(),
		Name:       event,
		Attrs:      cloneAttrs(attrs),
		RecordedAt: j.now().UTC(),
	}

	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		j.dropped.Add(1)
		return
	}
	select {
	case j.queue <- entry:
	default:
		j.dropped.Add(1)
	}
}

// Dropped reports how many events were discarded.
func (j *Journal) Dropped() int64 {
	return j.dropped.Load()
}

// Close flushes queued events and closes the database.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return nil
	}
	j.closed = true
	close(j.queue)
	j.mu.Unlock()

	<-j.done
	if n := j.Dropped(); n > 0 {
		logging.WarnWithContext(j.logger, "telemetry events dropped", "journal_dropped",
			logging.Int64("dropped", n),
			logging.String(logging.FieldErrorHint, "raise telemetry.buffer_size"),
			logging.String(logging.FieldImpact, "journal is missing events"),
		)
	}
	return j.db.Close()
}

func (j *Journal) writeLoop() {
	defer close(j.done)
	for entry := range j.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := j.insert(ctx, entry)
		cancel()
		if err != nil {
			logging.WarnWithContext(j.logger, "telemetry event not persisted", "journal_write_failed",
				logging.String(logging.FieldEventType, entry.Name),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check permissions on "+j.path),
				logging.String(logging.FieldImpact, "event missing from journal"),
			)
		}
	}
}

func (j *Journal) insert(ctx context.Context, entry Event) error {
	attrs := entry.Attrs
	if attrs == nil {
		attrs = map[string]string{}
	}
	encoded, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("encode attrs: %w", err)
	}
	return retryOnBusy(ctx, func() error {
		_, execErr := j.db.ExecContext(ctx,
			"INSERT INTO events (id, name, attrs, recorded_at) VALUES (?, ?, ?, ?)",
			entry.ID, entry.Name, string(encoded), entry.RecordedAt.Format(timestampLayout),
		)
		return execErr
	})
}

// List returns the newest events first. limit <= 0 uses a default.
func (j *Journal) List(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := j.db.QueryContext(ctx,
		"SELECT id, name, attrs, recorded_at FROM events ORDER BY recorded_at DESC, rowid DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e         Event
			attrs     string
			timestamp string
		)
		if err := rows.Scan(&e.ID, &e.Name, &attrs, &timestamp); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if err := json.Unmarshal([]byte(attrs), &e.Attrs); err != nil {
			return nil, fmt.Errorf("decode attrs for %s: %w", e.ID, err)
		}
		if len(e.Attrs) == 0 {
			e.Attrs = nil
		}
		if e.RecordedAt, err = time.Parse(timestampLayout, timestamp); err != nil {
			return nil, fmt.Errorf("parse timestamp for %s: %w", e.ID, err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// retryOnBusy retries op with doubling backoff while SQLite reports a lock.
func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryBackoff
	var err error
	for attempt := 1; ; attempt++ {
		if err = op(); err == nil || !isSQLiteBusy(err) || attempt == busyRetryAttempts {
			return err
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay = min(delay*2, busyRetryMaxBackoff)
	}
}
