package services_test

import (
	"context"
	"testing"

	"kiteready/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithAction(ctx, "install")
	ctx = services.WithRequestID(ctx, "req-123")

	if action, ok := services.ActionFromContext(ctx); !ok || action != "install" {
		t.Fatalf("unexpected action: %v %v", action, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestActionBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithAction(ctx, "")
	if _, ok := services.ActionFromContext(ctx); ok {
		t.Fatal("expected no action value")
	}
}

func TestRequestIDBlankPreservesContext(t *testing.T) {
	ctx := services.WithRequestID(context.Background(), "")
	if _, ok := services.RequestIDFromContext(ctx); ok {
		t.Fatal("expected no request id value")
	}
}
