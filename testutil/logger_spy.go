package testutil

import (
	"sync"
)

// LogEntry is one captured logger call.
type LogEntry struct {
	Level   string
	Message string
	Args    []any
}

// LoggerSpy captures log calls for assertions in tests. It satisfies the
// shell.Logger interface.
type LoggerSpy struct {
	mu      sync.Mutex
	entries []LogEntry
}

// NewLoggerSpy creates a new LoggerSpy.
func NewLoggerSpy() *LoggerSpy {
	return &LoggerSpy{entries: make([]LogEntry, 0)}
}

// Debug implements the shell.Logger interface.
func (s *LoggerSpy) Debug(msg string, args ...any) {
	s.record("DEBUG", msg, args)
}

// Info implements the shell.Logger interface.
func (s *LoggerSpy) Info(msg string, args ...any) {
	s.record("INFO", msg, args)
}

// Warn implements the shell.Logger interface.
func (s *LoggerSpy) Warn(msg string, args ...any) {
	s.record("WARN", msg, args)
}

// Error implements the shell.Logger interface.
func (s *LoggerSpy) Error(msg string, args ...any) {
	s.record("ERROR", msg, args)
}

// Entries returns a copy of all captured entries.
func (s *LoggerSpy) Entries() []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]LogEntry, len(s.entries))
	copy(copied, s.entries)

	return copied
}

// CountLevel returns how many entries were captured at the given level.
func (s *LoggerSpy) CountLevel(level string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, entry := range s.entries {
		if entry.Level == level {
			count++
		}
	}

	return count
}

// HasMessage reports whether any entry at the given level carries the
// message.
func (s *LoggerSpy) HasMessage(level string, msg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range s.entries {
		if entry.Level == level && entry.Message == msg {
			return true
		}
	}

	return false
}

func (s *LoggerSpy) record(level string, msg string, args []any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, LogEntry{Level: level, Message: msg, Args: args})
}
