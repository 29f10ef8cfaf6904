package logger

import (
	"encoding/json"
	"sync"
)

// Entry is a parsed log line kept by Tail.
type Entry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Component string         `json:"component,omitempty"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Tail is an io.Writer that keeps the most recent zerolog entries in a ring.
type Tail struct {
	mu    sync.RWMutex
	buf   []Entry
	head  int
	count int
}

// NewTail creates a Tail holding up to size entries.
func NewTail(size int) *Tail {
	if size <= 0 {
		size = 1
	}
	return &Tail{buf: make([]Entry, size)}
}

// Write implements io.Writer. Lines that are not JSON objects are dropped.
func (t *Tail) Write(p []byte) (int, error) {
	var raw map[string]any
	if err := json.Unmarshal(p, &raw); err != nil {
		return len(p), nil //nolint:nilerr // console-formatted lines are not kept
	}

	entry := Entry{}
	entry.Timestamp, _ = raw["time"].(string)
	entry.Level, _ = raw["level"].(string)
	entry.Component, _ = raw["component"].(string)
	entry.Message, _ = raw["message"].(string)
	delete(raw, "time")
	delete(raw, "level")
	delete(raw, "component")
	delete(raw, "message")
	if len(raw) > 0 {
		entry.Fields = raw
	}

	t.mu.Lock()
	idx := (t.head + t.count) % len(t.buf)
	t.buf[idx] = entry
	if t.count < len(t.buf) {
		t.count++
	} else {
		t.head = (t.head + 1) % len(t.buf)
	}
	t.mu.Unlock()

	return len(p), nil
}

// Entries returns buffered entries from oldest to newest.
func (t *Tail) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Entry, t.count)
	for i := range out {
		out[i] = t.buf[(t.head+i)%len(t.buf)]
	}
	return out
}

// Len returns the number of buffered entries.
func (t *Tail) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.count
}
