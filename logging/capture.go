package logging

import (
	"context"
	"log/slog"
)

// CapturingHandler records every log record into a LogCollector under a
// fixed example name, then forwards it to the underlying handler when that
// handler is enabled for the record's level.
type CapturingHandler struct {
	underlying slog.Handler
	collector  *LogCollector
	example    string
	attrs      []slog.Attr
	groups     []string
}

// NewCapturingHandler wraps underlying so that records are also stored in
// collector under the given example name.
func NewCapturingHandler(underlying slog.Handler, collector *LogCollector, example string) *CapturingHandler {
	return &CapturingHandler{
		underlying: underlying,
		collector:  collector,
		example:    example,
	}
}

// Enabled returns true for every level: capture is independent of the
// level configured for output.
func (h *CapturingHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

// Handle captures r and passes it through.
func (h *CapturingHandler) Handle(ctx context.Context, r slog.Record) error {
	entry := LogEntry{
		Time:       r.Time,
		Level:      r.Level.String(),
		Message:    r.Message,
		Attributes: make(map[string]any, r.NumAttrs()+len(h.attrs)),
	}

	target := entry.Attributes
	for _, g := range h.groups {
		nested := make(map[string]any)
		target[g] = nested
		target = nested
	}
	for _, attr := range h.attrs {
		entry.Attributes[attr.Key] = resolveValue(attr.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		target[a.Key] = resolveValue(a.Value)
		return true
	})
	if len(entry.Attributes) == 0 {
		entry.Attributes = nil
	}

	h.collector.Add(h.example, entry)

	if !h.underlying.Enabled(ctx, r.Level) {
		return nil
	}
	return h.underlying.Handle(ctx, r)
}

// WithAttrs returns a CapturingHandler carrying the extra attributes.
// Returning the underlying handler instead would stop capture for loggers
// derived with With.
func (h *CapturingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)

	return &CapturingHandler{
		underlying: h.underlying.WithAttrs(attrs),
		collector:  h.collector,
		example:    h.example,
		attrs:      merged,
		groups:     h.groups,
	}
}

// WithGroup returns a CapturingHandler that nests later attributes under name.
func (h *CapturingHandler) WithGroup(name string) slog.Handler {
	groups := make([]string, 0, len(h.groups)+1)
	groups = append(groups, h.groups...)
	groups = append(groups, name)

	return &CapturingHandler{
		underlying: h.underlying.WithGroup(name),
		collector:  h.collector,
		example:    h.example,
		attrs:      h.attrs,
		groups:     groups,
	}
}

// resolveValue converts a slog.Value into a plain value suitable for
// YAML and JSON encoding.
func resolveValue(v slog.Value) any {
	v = v.Resolve()

	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return v.Int64()
	case slog.KindUint64:
		return v.Uint64()
	case slog.KindFloat64:
		return v.Float64()
	case slog.KindBool:
		return v.Bool()
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time()
	case slog.KindGroup:
		attrs := v.Group()
		group := make(map[string]any, len(attrs))
		for _, attr := range attrs {
			group[attr.Key] = resolveValue(attr.Value)
		}
		return group
	default:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return v.Any()
	}
}
