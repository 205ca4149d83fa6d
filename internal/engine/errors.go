package engine

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"kiteready/internal/services"
)

// Error describes a failed engine operation.
type Error struct {
	Code   string
	Op     string
	Status int
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("engine %s failed (%s, http %d): %s", e.Op, e.Code, e.Status, e.Detail)
	}
	return fmt.Sprintf("engine %s failed (%s): %s", e.Op, e.Code, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type diagnostic struct {
	Code   string `json:"code"`
	Op     string `json:"op"`
	Status int    `json:"status,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// DiagnosticPayload exposes the error for display as JSON.
func (e *Error) DiagnosticPayload() any {
	return diagnostic{Code: e.Code, Op: e.Op, Status: e.Status, Detail: e.Detail}
}

func newError(marker error, op string, status int, detail string, cause error) *Error {
	wrapped := services.Wrap(marker, "engine", op, detail, cause)
	if cause != nil {
		if detail == "" {
			detail = cause.Error()
		} else {
			detail += ": " + cause.Error()
		}
	}
	return &Error{
		Code:   services.Code(wrapped),
		Op:     op,
		Status: status,
		Detail: detail,
		Err:    wrapped,
	}
}

// statusMarker classifies an unexpected HTTP status.
func statusMarker(status int) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return services.ErrUnauthorized
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return services.ErrValidation
	case status == http.StatusNotFound:
		return services.ErrNotFound
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return services.ErrTimeout
	case status >= 500:
		return services.ErrTransient
	default:
		return services.ErrExternalTool
	}
}

// transportMarker classifies a failed HTTP round trip.
func transportMarker(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return services.ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return services.ErrTimeout
	}
	return services.ErrTransient
}
