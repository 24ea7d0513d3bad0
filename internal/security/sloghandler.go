package security

import (
	"context"
	"log/slog"
)

// RedactingHandler wraps a slog.Handler and applies a Redactor to every
// string-valued attribute and to the message itself before delegating.
// No secret reaches log output regardless of where the call originates.
type RedactingHandler struct {
	inner    slog.Handler
	redactor *Redactor
	attrs    []slog.Attr
}

var _ slog.Handler = (*RedactingHandler)(nil)

// NewRedactingHandler wraps inner with redaction.
func NewRedactingHandler(inner slog.Handler, redactor *Redactor) *RedactingHandler {
	return &RedactingHandler{inner: inner, redactor: redactor}
}

// Enabled delegates to the inner handler.
func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle redacts the record's message and attributes, then delegates.
func (h *RedactingHandler) Handle(ctx context.Context, record slog.Record) error {
	out := slog.NewRecord(record.Time, record.Level, h.redactor.Redact(record.Message), record.PC)
	out.AddAttrs(h.attrs...)
	record.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.redactAttr(a))
		return true
	})
	return h.inner.Handle(ctx, out)
}

// WithAttrs returns a handler with pre-redacted attributes.
func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = h.redactAttr(a)
	}
	return &RedactingHandler{
		inner:    h.inner.WithAttrs(redacted),
		redactor: h.redactor,
	}
}

// WithGroup returns a handler with the given group name.
func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{
		inner:    h.inner.WithGroup(name),
		redactor: h.redactor,
		attrs:    h.attrs,
	}
}

// redactAttr resolves an attribute and redacts its string representation.
func (h *RedactingHandler) redactAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	switch a.Value.Kind() {
	case slog.KindString:
		a.Value = slog.StringValue(h.redactor.Redact(a.Value.String()))
	case slog.KindGroup:
		attrs := a.Value.Group()
		redacted := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			redacted[i] = h.redactAttr(ga)
		}
		a.Value = slog.GroupValue(redacted...)
	case slog.KindAny:
		// Errors and other opaque values land here after Resolve.
		resolved := a.Value.String()
		if redacted := h.redactor.Redact(resolved); redacted != resolved {
			a.Value = slog.StringValue(redacted)
		}
	}
	return a
}
