// Package logger builds the process-wide slog logger. Existing log.Printf call sites are routed
// through it once New's result is installed with slog.SetDefault.
package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	otellog "go.opentelemetry.io/otel/log"
)

// Name is the instrumentation scope of records sent through the OTel bridge.
const Name = "account-identity"

// New returns a logger at level writing text to w. With a LoggerProvider every record also
// goes through the OpenTelemetry bridge. A nil w leaves only the bridge.
func New(w io.Writer, level slog.Level, provider otellog.LoggerProvider) *slog.Logger {
	var hs fanout
	if w != nil {
		hs = append(hs, slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	}
	if provider != nil {
		bridge := otelslog.NewHandler(Name, otelslog.WithLoggerProvider(provider))
		hs = append(hs, &levelHandler{level: level, next: bridge})
	}
	if len(hs) == 1 {
		return slog.New(hs[0])
	}
	return slog.New(hs)
}

// fanout passes each record to every handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

// levelHandler drops records below level before they reach next.
type levelHandler struct {
	level slog.Leveler
	next  slog.Handler
}

func (h *levelHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return l >= h.level.Level() && h.next.Enabled(ctx, l)
}

func (h *levelHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.next.Handle(ctx, r)
}

func (h *levelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelHandler{level: h.level, next: h.next.WithAttrs(attrs)}
}

func (h *levelHandler) WithGroup(name string) slog.Handler {
	return &levelHandler{level: h.level, next: h.next.WithGroup(name)}
}
