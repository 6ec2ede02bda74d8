// Package kv provides durable key-value backends for the annotation store.
package kv

import "sync"

// Memory is a session-only KV. Reads and writes can be made to fail, which
// the tests use to exercise degraded persistence.
type Memory struct {
	mu      sync.Mutex
	data    map[string]string
	readErr error
	setErr  error
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return "", false, m.readErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

// FailReads makes every Get return err until called again with nil.
func (m *Memory) FailReads(err error) {
	m.mu.Lock()
	m.readErr = err
	m.mu.Unlock()
}

// FailWrites makes every Set return err until called again with nil.
func (m *Memory) FailWrites(err error) {
	m.mu.Lock()
	m.setErr = err
	m.mu.Unlock()
}

func (m *Memory) Close() error { return nil }
