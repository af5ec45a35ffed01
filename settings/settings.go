// Package settings holds per-client ClickHouse session settings and the
// connection file format.
package settings

import (
	"maps"
	"sync"
)

// DefaultDatabase is the database selected when none is configured.
const DefaultDatabase = "default"

// Settings is the mutable session state of one client: the selected
// database, HTTP compression and server settings sent with every query.
//
// Every change bumps Revision, so transports can tell when pooled
// connections were opened with stale state. Settings is safe for concurrent use.
type Settings struct {
	mu          sync.RWMutex
	database    string
	compression bool
	options     map[string]any
	revision    uint64
}

// New creates Settings for database, or DefaultDatabase if empty.
func New(database string) *Settings {
	if database == "" {
		database = DefaultDatabase
	}

	return &Settings{
		database: database,
		options:  make(map[string]any),
	}
}

// SetDatabase selects the database used by unqualified table names.
func (s *Settings) SetDatabase(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.database == name {
		return
	}
	s.database = name
	s.revision++
}

// Database returns the selected database.
func (s *Settings) Database() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.database
}

// Apply merges server settings, e.g. {"max_execution_time": 30}.
//
// A nil value removes the setting.
func (s *Settings) Apply(options map[string]any) {
	if len(options) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, v := range options {
		if v == nil {
			delete(s.options, k)
			continue
		}
		s.options[k] = v
	}
	s.revision++
}

// Set sets one server setting.
func (s *Settings) Set(key string, value any) {
	s.Apply(map[string]any{key: value})
}

// Get returns one server setting.
func (s *Settings) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.options[key]

	return v, ok
}

// Options returns a copy of the server settings.
func (s *Settings) Options() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return maps.Clone(s.options)
}

// EnableCompression turns HTTP compression of requests and responses on or off.
func (s *Settings) EnableCompression(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.compression == enabled {
		return
	}
	s.compression = enabled
	s.revision++
}

// Compression reports whether HTTP compression is enabled.
func (s *Settings) Compression() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.compression
}

// Revision returns a counter incremented by every change.
func (s *Settings) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.revision
}
