package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestInitSetsDefaultLevel(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() {
		slog.SetDefault(original)
	})

	Init(false)
	logger := slog.Default()
	if logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("expected info to be disabled by default")
	}
	if !logger.Enabled(context.Background(), slog.LevelWarn) {
		t.Fatalf("expected warn to be enabled by default")
	}

	Init(true)
	logger = slog.Default()
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatalf("expected debug to be enabled with verbose")
	}
}

func TestNewWritesStructuredRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, false)

	logger.Info("hidden")
	logger.Error("error running major compaction on region", slog.String("region", "t1,,1.a."))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected info record to be filtered, got %q", out)
	}
	if !strings.Contains(out, `region=t1,,1.a.`) {
		t.Fatalf("expected region attribute, got %q", out)
	}
}
