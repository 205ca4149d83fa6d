package notifications

import "kiteready/internal/readiness"

// Tee shows every notification on a primary notifier and copies it to each
// mirror. Only the primary's handle is returned.
type Tee struct {
	primary readiness.Notifier
	mirrors []readiness.Notifier
}

// NewTee builds a Tee. Nil mirrors are skipped.
func NewTee(primary readiness.Notifier, mirrors ...readiness.Notifier) *Tee {
	t := &Tee{primary: primary}
	for _, m := range mirrors {
		if m != nil {
			t.mirrors = append(t.mirrors, m)
		}
	}
	return t
}

func (t *Tee) ShowError(title string, opts readiness.Options) readiness.Handle {
	for _, m := range t.mirrors {
		m.ShowError(title, opts)
	}
	return t.primary.ShowError(title, opts)
}

func (t *Tee) ShowWarning(title string, opts readiness.Options) readiness.Handle {
	for _, m := range t.mirrors {
		m.ShowWarning(title, opts)
	}
	return t.primary.ShowWarning(title, opts)
}
