package utils

import (
	"errors"
	"testing"
)

func TestAppErrorFormatsOpAndMessage(t *testing.T) {
	err := NewAppError("provider.fetch", "optical-primary not configured", nil)
	if got := err.Error(); got != "provider.fetch: optical-primary not configured" {
		t.Fatalf("unexpected message: %q", got)
	}

	wrapped := NewAppError("model.load", "read model file", errors.New("permission denied"))
	if got := wrapped.Error(); got != "model.load: read model file: permission denied" {
		t.Fatalf("unexpected wrapped message: %q", got)
	}
}

func TestAppErrorUnwrapsToSentinel(t *testing.T) {
	sentinel := errors.New("observation provider unavailable")
	err := NewAppError("provider.fetch", "optical-primary returned no samples", sentinel)

	if !errors.Is(err, sentinel) {
		t.Fatalf("sentinel not reachable through the wrapper")
	}

	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T", err)
	}
	if appErr.Op != "provider.fetch" {
		t.Fatalf("operation lost: %q", appErr.Op)
	}
}
