package logging

import (
	"sync"
	"time"
)

// LogEntry is one captured log record.
type LogEntry struct {
	Time       time.Time      `json:"time" yaml:"time"`
	Level      string         `json:"level" yaml:"level"`
	Message    string         `json:"message" yaml:"message"`
	Attributes map[string]any `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// LogCollector stores captured log entries grouped by example name.
// It is safe for concurrent use.
type LogCollector struct {
	mu   sync.RWMutex
	logs map[string][]LogEntry
}

// NewLogCollector creates an empty LogCollector.
func NewLogCollector() *LogCollector {
	return &LogCollector{
		logs: make(map[string][]LogEntry),
	}
}

// Add records an entry for the named example.
func (c *LogCollector) Add(example string, entry LogEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logs[example] = append(c.logs[example], entry)
}

// Logs returns a copy of the entries captured for the named example.
func (c *LogCollector) Logs(example string) []LogEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	logs, ok := c.logs[example]
	if !ok {
		return nil
	}
	out := make([]LogEntry, len(logs))
	copy(out, logs)
	return out
}

// All returns a copy of every captured entry keyed by example name.
func (c *LogCollector) All() map[string][]LogEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string][]LogEntry, len(c.logs))
	for name, logs := range c.logs {
		cp := make([]LogEntry, len(logs))
		copy(cp, logs)
		out[name] = cp
	}
	return out
}

// Clear removes every captured entry.
func (c *LogCollector) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logs = make(map[string][]LogEntry)
}
