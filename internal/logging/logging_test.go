package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/MrEthical07/noted/middleware"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := New("debug", "text", &buf)

	ctx := middleware.WithRequestID(context.Background(), "req-1")
	logger.InfoContext(ctx, "hello", "key", "value")

	out := buf.String()
	if !strings.Contains(out, "request_id=req-1") || !strings.Contains(out, "key=value") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestRequestIDNotDuplicated(t *testing.T) {
	var buf bytes.Buffer
	logger := New("info", "text", &buf)

	ctx := middleware.WithRequestID(context.Background(), "req-2")
	logger.InfoContext(ctx, "hello", "request_id", "req-2")

	if n := strings.Count(buf.String(), "request_id="); n != 1 {
		t.Fatalf("expected one request_id, got %d in %s", n, buf.String())
	}
}

func TestNewJSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New("warn", "json", &buf)

	logger.Info("dropped")
	logger.Warn("kept", "n", 1)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %q", buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if rec["msg"] != "kept" {
		t.Fatalf("unexpected record %v", rec)
	}
}
