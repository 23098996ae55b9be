package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"DEBUG":    slog.LevelDebug,
		"info":     slog.LevelInfo,
		"Warning":  slog.LevelWarn,
		"CRITICAL": slog.LevelError,
		"verbose":  slog.LevelInfo,
	}
	for name, want := range tests {
		if got := ParseLevel(name); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestMultiHandlerFansOut(t *testing.T) {
	var debugBuf, warnBuf bytes.Buffer
	multi := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&warnBuf, &slog.HandlerOptions{Level: slog.LevelWarn}),
	}}
	logger := slog.New(multi).With("table", "users")

	logger.Debug("reflecting")
	logger.Warn("skipping table")

	if !strings.Contains(debugBuf.String(), "reflecting") || !strings.Contains(debugBuf.String(), "skipping table") {
		t.Errorf("Debug handler should see both records: %s", debugBuf.String())
	}
	if strings.Contains(warnBuf.String(), "reflecting") {
		t.Errorf("Warn handler should drop debug records: %s", warnBuf.String())
	}
	if !strings.Contains(warnBuf.String(), "table=users") {
		t.Errorf("Attributes should reach every handler: %s", warnBuf.String())
	}
}

func TestSetupLoggerWithoutSeq(t *testing.T) {
	logger, closeFn := SetupLogger("warning", "")
	defer closeFn()
	if logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("Info should be disabled at warning level")
	}
}
