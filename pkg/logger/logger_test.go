package logger

import "testing"

func TestInitRejectsBadLevel(t *testing.T) {
	if err := Init("not-a-level", "json", "stdout"); err == nil {
		t.Fatal("expected error for invalid level")
	}
}

func TestInitReplacesNopLogger(t *testing.T) {
	if err := Init("debug", "console", "stdout"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if Log == nil {
		t.Fatal("Log is nil after Init")
	}
	// Helpers must not panic on the initialized logger.
	Debug("debug message")
	Info("info message")
}
