package logging

import (
	"errors"
	"testing"
)

func TestNewLoggerLevels(t *testing.T) {
	for _, lvl := range []string{"", "debug", "INFO", "warn", "error"} {
		if _, err := NewLogger(lvl); err != nil {
			t.Fatalf("NewLogger(%q): %v", lvl, err)
		}
	}
	if _, err := NewLogger("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestOperationErrorWraps(t *testing.T) {
	base := errors.New("boom")
	err := NewOperationError("assess.generate", "gemini", "req-1", base)
	if !errors.Is(err, base) {
		t.Fatal("expected errors.Is to reach the wrapped error")
	}
	if got := err.Error(); got != "assess.generate(gemini) request_id=req-1: boom" {
		t.Fatalf("unexpected message %q", got)
	}
	var opErr *OperationError
	if !errors.As(err, &opErr) || opErr.Operation != "assess.generate" || opErr.Engine != "gemini" {
		t.Fatalf("expected OperationError, got %T", err)
	}
	if NewOperationError("x", "", "", nil) != nil {
		t.Fatal("nil error must stay nil")
	}
	if got := NewOperationError("x", "", "", base).Error(); got != "x: boom" {
		t.Fatalf("unexpected message %q", got)
	}
}
