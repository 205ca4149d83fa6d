package notifications

import (
	"sync"

	"kiteready/internal/readiness"
)

// handle dismisses at most once and runs registered callbacks on that
// dismissal. Callbacks registered after dismissal run immediately.
type handle struct {
	mu        sync.Mutex
	once      sync.Once
	dismissed bool
	callbacks []func()
	onDismiss func()
}

func newHandle(onDismiss func()) *handle {
	return &handle{onDismiss: onDismiss}
}

func (h *handle) Dismiss() {
	h.once.Do(func() {
		h.mu.Lock()
		h.dismissed = true
		callbacks := h.callbacks
		h.callbacks = nil
		h.mu.Unlock()

		if h.onDismiss != nil {
			h.onDismiss()
		}
		for _, cb := range callbacks {
			cb()
		}
	})
}

func (h *handle) OnDismiss(cb func()) {
	if cb == nil {
		return
	}
	h.mu.Lock()
	if !h.dismissed {
		h.callbacks = append(h.callbacks, cb)
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()
	cb()
}

func (h *handle) isDismissed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dismissed
}

// detached is returned by notifiers that cannot observe dismissal.
type detached struct{}

func (detached) Dismiss()         {}
func (detached) OnDismiss(func()) {}

var _ readiness.Handle = (*handle)(nil)
var _ readiness.Handle = detached{}
