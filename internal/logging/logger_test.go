package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/ratchetapps/urlstash/internal/services"
)

type captureWriter struct {
	lines []string
}

func (w *captureWriter) Write(p []byte) (int, error) {
	w.lines = append(w.lines, string(p))
	return len(p), nil
}

func newCaptureLogger(t *testing.T) (*slog.Logger, *captureWriter) {
	t.Helper()
	writer := &captureWriter{}
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelDebug)
	return slog.New(newConsoleHandler(writer, lvl)), writer
}

func TestConsoleHandlerHoistsComponent(t *testing.T) {
	logger, writer := newCaptureLogger(t)
	NewComponentLogger(logger, "scanner").Info("batch ready", Int("candidates", 3))

	if len(writer.lines) != 1 {
		t.Fatalf("expected one line, got %d", len(writer.lines))
	}
	line := writer.lines[0]
	if !strings.Contains(line, " INFO scanner: batch ready") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "candidates=3") {
		t.Fatalf("missing attr in line: %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should be hoisted out of attrs: %q", line)
	}
}

func TestConsoleHandlerQuotesValues(t *testing.T) {
	logger, writer := newCaptureLogger(t)
	logger.Info("match", String("title", "My Scene"))
	if !strings.Contains(writer.lines[0], `title="My Scene"`) {
		t.Fatalf("expected quoted value, got %q", writer.lines[0])
	}
}

func TestConsoleHandlerLevelFilter(t *testing.T) {
	writer := &captureWriter{}
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelWarn)
	logger := slog.New(newConsoleHandler(writer, lvl))

	logger.Info("dropped")
	logger.Warn("kept")
	if len(writer.lines) != 1 || !strings.Contains(writer.lines[0], "kept") {
		t.Fatalf("expected only the warning, got %v", writer.lines)
	}
}

func TestWithContextAddsFields(t *testing.T) {
	logger, writer := newCaptureLogger(t)

	ctx := services.WithRequestID(context.Background(), "abc-123")
	ctx = services.WithSceneID(ctx, 42)

	WithContext(ctx, logger).Info("scene fetched")
	line := writer.lines[0]
	if !strings.Contains(line, "scene_id=42") || !strings.Contains(line, "correlation_id=abc-123") {
		t.Fatalf("missing context fields: %q", line)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNoopHandlerDiscards(t *testing.T) {
	logger := NewNop()
	logger.Error("nothing happens", Error(io.EOF))
}
