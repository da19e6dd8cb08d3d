package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewSlogAdapter_NilFallsBackToDefault(t *testing.T) {
	adapter := NewSlogAdapter(nil)
	if adapter.Logger() == nil {
		t.Fatal("adapter should wrap slog.Default() when given nil")
	}
}

func TestSlogAdapter_WritesThroughHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	var l PrintfLogger = NewSlogAdapter(logger)

	l.Infof("session %s started", "abc")
	l.Errorf("write failed: %v", "broken pipe")

	out := buf.String()
	for _, want := range []string{"level=INFO", `msg="session abc started"`, "level=ERROR", `msg="write failed: broken pipe"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDiscard(t *testing.T) {
	// Should not panic
	Discard().Info("dropped", "k", "v")
}
