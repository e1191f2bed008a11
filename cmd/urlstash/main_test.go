package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ratchetapps/urlstash/internal/services"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, 0},
		{"interrupted", context.Canceled, exitInterrupted},
		{"wrapped interrupt", fmt.Errorf("scan: %w", context.Canceled), exitInterrupted},
		{"configuration", services.Wrap(services.ErrConfiguration, "config", "load", "invalid stash url", nil), exitFatal},
		{"unreachable", services.Wrap(services.ErrUnreachable, "stash", "query", "connection refused", nil), exitFatal},
		{"ordinary failure", errors.New("no staging database"), exitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Fatalf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable(
		[]tableColumn{{name: "Scene", alignRight: true}, {name: "Filename"}},
		[][]string{{"7"}},
	)
	if !strings.Contains(out, "SCENE") || !strings.Contains(out, "FILENAME") {
		t.Fatalf("missing headers in output:\n%s", out)
	}
	if !strings.Contains(out, "7") {
		t.Fatalf("missing cell value in output:\n%s", out)
	}
	if strings.Contains(out, "<nil>") {
		t.Fatalf("short row rendered a nil cell:\n%s", out)
	}
}

func TestRenderTableNoColumns(t *testing.T) {
	if out := renderTable(nil, [][]string{{"orphan"}}); out != "" {
		t.Fatalf("expected empty output, got %q", out)
	}
}
