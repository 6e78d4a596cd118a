package bootstrap

import (
	"fmt"
	"os"
	"sort"
	"sync"
)

// Sink receives the published environment entries.
type Sink interface {
	Set(name, value string) error
}

// SecretSink is implemented by sinks that treat secret values differently.
// The secrets phase publishes through SetSecret when the sink has it.
type SecretSink interface {
	Sink
	SetSecret(name, value string) error
}

// OSEnv publishes into the process environment.
type OSEnv struct{}

// Set implements Sink.
func (OSEnv) Set(name, value string) error {
	if err := os.Setenv(name, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", name, err)
	}
	return nil
}

// MapEnv collects entries in memory. The zero value is ready to use.
type MapEnv struct {
	mu      sync.Mutex
	entries map[string]string
}

// NewMapEnv creates an empty MapEnv.
func NewMapEnv() *MapEnv {
	return &MapEnv{}
}

// Set implements Sink.
func (m *MapEnv) Set(name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = map[string]string{}
	}
	m.entries[name] = value
	return nil
}

// Get returns the value of name and whether it was set.
func (m *MapEnv) Get(name string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[name]
	return v, ok
}

// Snapshot returns a copy of every entry.
func (m *MapEnv) Snapshot() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.entries))
	for k, v := range m.entries {
		out[k] = v
	}
	return out
}

// Keys returns the entry names in sorted order.
func (m *MapEnv) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
