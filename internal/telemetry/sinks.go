package telemetry

import (
	"log/slog"
	"sort"

	"kiteready/internal/logging"
	"kiteready/internal/readiness"
)

// LogSink writes events to a structured logger.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a LogSink. A nil logger discards events.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logging.NewComponentLogger(logger, "telemetry")}
}

func (s *LogSink) Record(event string, attrs map[string]string) {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]logging.Attr, 0, len(keys)+1)
	fields = append(fields, logging.String(logging.FieldEventType, event))
	for _, k := range keys {
		fields = append(fields, logging.String(k, attrs[k]))
	}
	s.logger.Info("telemetry event", logging.Args(fields...)...)
}

// Fanout records each event on every sink in order.
type Fanout []readiness.Telemetry

func (f Fanout) Record(event string, attrs map[string]string) {
	for _, sink := range f {
		if sink == nil {
			continue
		}
		recordSafely(sink, event, attrs)
	}
}

func recordSafely(sink readiness.Telemetry, event string, attrs map[string]string) {
	defer func() {
		_ = recover()
	}()
	sink.Record(event, cloneAttrs(attrs))
}

// Nop discards events.
type Nop struct{}

func (Nop) Record(string, map[string]string) {}

var (
	_ readiness.Telemetry = (*LogSink)(nil)
	_ readiness.Telemetry = Fanout(nil)
	_ readiness.Telemetry = Nop{}
	_ readiness.Telemetry = (*Journal)(nil)
)
