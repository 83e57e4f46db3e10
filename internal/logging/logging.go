// Package logging builds the slog loggers used by the CLI and the demo.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/MrEthical07/noted/middleware"
)

// ParseLevel maps "debug", "info", "warn" and "error" to slog levels. Anything else
// is info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a text or JSON logger writing to w. Records logged with a context
// carrying a request id get a request_id attribute.
func New(level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(NewRequestIDHandler(handler))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// RequestIDHandler adds request_id from the record's context.
type RequestIDHandler struct {
	inner slog.Handler
}

// NewRequestIDHandler wraps inner.
func NewRequestIDHandler(inner slog.Handler) *RequestIDHandler {
	return &RequestIDHandler{inner: inner}
}

func (h *RequestIDHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *RequestIDHandler) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := middleware.RequestIDFromContext(ctx); ok && !hasAttr(r, "request_id") {
		r.AddAttrs(slog.String("request_id", id))
	}
	if err := h.inner.Handle(ctx, r); err != nil {
		return fmt.Errorf("request id handler: %w", err)
	}
	return nil
}

func (h *RequestIDHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &RequestIDHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *RequestIDHandler) WithGroup(name string) slog.Handler {
	return &RequestIDHandler{inner: h.inner.WithGroup(name)}
}

func hasAttr(r slog.Record, key string) bool {
	found := false
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			found = true
			return false
		}
		return true
	})
	return found
}
