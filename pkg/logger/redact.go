package logger

import (
	"context"
	"log/slog"
	"strings"
)

// redactedValue replaces sensitive attribute values in log output.
const redactedValue = "[REDACTED]"

// defaultRedactedKeys covers the cardholder and auth data the checkout engine
// handles. Matching is case-insensitive on the attribute key.
var defaultRedactedKeys = []string{
	"card_number",
	"card_cvc",
	"card_cvv",
	"cvc",
	"cvv",
	"pan",
	"client_secret",
	"authorization",
	"bearer_token",
	"access_token",
}

// RedactingHandler wraps a slog.Handler and masks sensitive attribute values
// before they reach the underlying handler. Uses the decorator pattern so
// redaction only costs anything on records that are actually emitted.
type RedactingHandler struct {
	next slog.Handler
	keys map[string]struct{}
}

// NewRedactingHandler creates a redacting decorator around next. The default
// key set always applies; extra keys extend it.
func NewRedactingHandler(next slog.Handler, extraKeys ...string) slog.Handler {
	keys := make(map[string]struct{}, len(defaultRedactedKeys)+len(extraKeys))
	for _, k := range defaultRedactedKeys {
		keys[strings.ToLower(k)] = struct{}{}
	}
	for _, k := range extraKeys {
		if k != "" {
			keys[strings.ToLower(k)] = struct{}{}
		}
	}
	return &RedactingHandler{next: next, keys: keys}
}

func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle rewrites the record, replacing values of sensitive attributes. Group
// attributes are walked recursively so nested payloads are covered too.
func (h *RedactingHandler) Handle(ctx context.Context, rec slog.Record) error {
	out := slog.NewRecord(rec.Time, rec.Level, rec.Message, rec.PC)
	rec.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.redact(a))
		return true
	})
	return h.next.Handle(ctx, out)
}

func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		clean[i] = h.redact(a)
	}
	return &RedactingHandler{next: h.next.WithAttrs(clean), keys: h.keys}
}

func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{next: h.next.WithGroup(name), keys: h.keys}
}

func (h *RedactingHandler) redact(a slog.Attr) slog.Attr {
	if _, ok := h.keys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, redactedValue)
	}
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		clean := make([]slog.Attr, len(group))
		for i, g := range group {
			clean[i] = h.redact(g)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(clean...)}
	}
	return a
}
