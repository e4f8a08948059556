package logging

import "log/slog"

// LoggerHook derives the logger handed to a single example from the
// runner's base logger.
type LoggerHook interface {
	LoggerForExample(base *slog.Logger, example string) *slog.Logger
}

// LoggerHookFunc adapts a function to LoggerHook.
type LoggerHookFunc func(base *slog.Logger, example string) *slog.Logger

// LoggerForExample calls f.
func (f LoggerHookFunc) LoggerForExample(base *slog.Logger, example string) *slog.Logger {
	return f(base, example)
}

// TaggingHook adds an "example" attribute and nothing else.
var TaggingHook LoggerHook = LoggerHookFunc(func(base *slog.Logger, example string) *slog.Logger {
	return base.With("example", example)
})

// CapturingLoggerHook creates loggers whose records are also stored in a
// LogCollector.
type CapturingLoggerHook struct {
	collector *LogCollector
}

// NewCapturingLoggerHook creates a hook that captures every example's logs
// into collector.
func NewCapturingLoggerHook(collector *LogCollector) *CapturingLoggerHook {
	return &CapturingLoggerHook{collector: collector}
}

// Collector returns the collector logs are captured into.
func (h *CapturingLoggerHook) Collector() *LogCollector {
	return h.collector
}

// LoggerForExample wraps base with a CapturingHandler bound to example.
func (h *CapturingLoggerHook) LoggerForExample(base *slog.Logger, example string) *slog.Logger {
	handler := NewCapturingHandler(base.Handler(), h.collector, example)
	return slog.New(handler).With("example", example)
}
