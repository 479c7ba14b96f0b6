package storage

import "sync"

// SessionMarks is a set of markers that lives only as long as the
// process, the counterpart of browser session storage.
type SessionMarks struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

// NewSessionMarks returns an empty marker set.
func NewSessionMarks() *SessionMarks {
	return &SessionMarks{keys: make(map[string]struct{})}
}

// Has reports whether key was set during this session.
func (m *SessionMarks) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.keys[key]
	return ok
}

// Set records key.
func (m *SessionMarks) Set(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key] = struct{}{}
}
