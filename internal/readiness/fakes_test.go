package readiness_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"kiteready/internal/readiness"
)

type fakeOracle struct {
	mu     sync.Mutex
	states []readiness.State
	errs   map[string][]error
	calls  []string
	paths  []string
	creds  []readiness.Credentials
	dirs   []string
}

func newFakeOracle(states ...readiness.State) *fakeOracle {
	return &fakeOracle{states: states, errs: map[string][]error{}}
}

// failNext queues err for the next invocation of op.
func (o *fakeOracle) failNext(op string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errs[op] = append(o.errs[op], err)
}

func (o *fakeOracle) next(op string) error {
	o.calls = append(o.calls, op)
	queue := o.errs[op]
	if len(queue) == 0 {
		return nil
	}
	err := queue[0]
	o.errs[op] = queue[1:]
	return err
}

func (o *fakeOracle) QueryState(_ context.Context, path string) (readiness.State, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.paths = append(o.paths, path)
	if err := o.next("query"); err != nil {
		return 0, err
	}
	if len(o.states) == 0 {
		return readiness.Whitelisted, nil
	}
	state := o.states[0]
	if len(o.states) > 1 {
		o.states = o.states[1:]
	}
	return state, nil
}

func (o *fakeOracle) InstallDaemon(context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.next("install")
}

func (o *fakeOracle) RunDaemon(context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.next("run")
}

func (o *fakeOracle) AuthenticateUser(_ context.Context, email, password string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.creds = append(o.creds, readiness.Credentials{Email: email, Password: password})
	return o.next("authenticate")
}

func (o *fakeOracle) EnableDirectory(_ context.Context, path string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dirs = append(o.dirs, path)
	return o.next("enable")
}

func (o *fakeOracle) callLog() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.calls...)
}

type shown struct {
	severity string
	title    string
	opts     readiness.Options
	handle   *fakeHandle
}

type fakeHandle struct {
	mu        sync.Mutex
	dismissed int
	callbacks []func()
}

func (h *fakeHandle) Dismiss() {
	h.mu.Lock()
	h.dismissed++
	first := h.dismissed == 1
	callbacks := h.callbacks
	h.mu.Unlock()
	if !first {
		return
	}
	for _, cb := range callbacks {
		cb()
	}
}

func (h *fakeHandle) OnDismiss(cb func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.callbacks = append(h.callbacks, cb)
}

func (h *fakeHandle) dismissCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dismissed
}

type fakeNotifier struct {
	mu    sync.Mutex
	shown []*shown
}

func (n *fakeNotifier) ShowError(title string, opts readiness.Options) readiness.Handle {
	return n.add("error", title, opts)
}

func (n *fakeNotifier) ShowWarning(title string, opts readiness.Options) readiness.Handle {
	return n.add("warning", title, opts)
}

func (n *fakeNotifier) add(severity, title string, opts readiness.Options) readiness.Handle {
	n.mu.Lock()
	defer n.mu.Unlock()
	s := &shown{severity: severity, title: title, opts: opts, handle: &fakeHandle{}}
	n.shown = append(n.shown, s)
	return s.handle
}

func (n *fakeNotifier) all() []*shown {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*shown(nil), n.shown...)
}

func (n *fakeNotifier) last() *shown {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.shown) == 0 {
		return nil
	}
	return n.shown[len(n.shown)-1]
}

// click presses the button labelled text on s.
func (s *shown) click(text string) bool {
	for _, b := range s.opts.Buttons {
		if b.Text == text {
			b.OnClick(s.handle)
			return true
		}
	}
	return false
}

type recordedEvent struct {
	name  string
	attrs map[string]string
}

type fakeTelemetry struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (t *fakeTelemetry) Record(event string, attrs map[string]string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, recordedEvent{name: event, attrs: attrs})
}

func (t *fakeTelemetry) names() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	names := make([]string, 0, len(t.events))
	for _, e := range t.events {
		names = append(names, e.name)
	}
	return names
}

func (t *fakeTelemetry) find(name string) (recordedEvent, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range t.events {
		if e.name == name {
			return e, true
		}
	}
	return recordedEvent{}, false
}

type fakeEditor string

func (e fakeEditor) ActiveFilePath() string { return string(e) }

type fakeCredentials struct {
	mu    sync.Mutex
	creds readiness.Credentials
	err   error
	asked int
}

func (f *fakeCredentials) Credentials(context.Context) (readiness.Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.asked++
	return f.creds, f.err
}

// manualTimer hands out channels the test fires explicitly.
type manualTimer struct {
	mu        sync.Mutex
	requested []time.Duration
	ch        chan time.Time
	armed     chan struct{}
}

func newManualTimer() *manualTimer {
	return &manualTimer{ch: make(chan time.Time), armed: make(chan struct{}, 8)}
}

func (m *manualTimer) after(d time.Duration) <-chan time.Time {
	m.mu.Lock()
	m.requested = append(m.requested, d)
	m.mu.Unlock()
	m.armed <- struct{}{}
	return m.ch
}

func (m *manualTimer) fire() {
	m.ch <- time.Now()
}

type diagnosticError struct {
	Code string `json:"code"`
}

func (e *diagnosticError) Error() string          { return "diagnostic " + e.Code }
func (e *diagnosticError) DiagnosticPayload() any { return e }

var errBoom = errors.New("boom")
