package session

import (
	"fmt"
	"sync"
)

type logEntry struct {
	level string
	msg   string
	args  []any
}

// mockLogger records log calls for assertions.
type mockLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (m *mockLogger) record(level, msg string, args []any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, logEntry{level: level, msg: msg, args: args})
}

func (m *mockLogger) Info(msg string, args ...any)  { m.record("info", msg, args) }
func (m *mockLogger) Warn(msg string, args ...any)  { m.record("warn", msg, args) }
func (m *mockLogger) Error(msg string, args ...any) { m.record("error", msg, args) }

func (m *mockLogger) count(level string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if e.level == level {
			n++
		}
	}
	return n
}

func (m *mockLogger) String() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fmt.Sprint(m.entries)
}
