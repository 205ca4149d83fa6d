package telemetry

import "time"

// Event is one recorded telemetry signal.
type Event struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Attrs      map[string]string `json:"attrs,omitempty"`
	RecordedAt time.Time         `json:"recorded_at"`
}

func cloneAttrs(attrs map[string]string) map[string]string {
	if len(attrs) == 0 {
		return nil
	}
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}
