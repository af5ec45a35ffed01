package topology

import (
	"time"

	"github.com/arloliu/chorus/types"
)

// DrainConfig represents the drain mode configuration stored in NATS KV.
//
// This is the JSON structure that operations teams PUT to the KV store
// to take replicas out of rotation before maintenance.
type DrainConfig struct {
	// Drain lists the replicas currently being drained, as "host:port".
	Drain []types.HostAddress `json:"drain"`

	// Reason is a human-readable explanation for the drain.
	// Example: "OS Patching", "Disk replacement", "Upgrade to 24.8"
	Reason string `json:"reason,omitempty"`
}

// ContainsHost returns true if the given host is in the drain list.
//
// Parameters:
//   - host: The host to check
//
// Returns:
//   - bool: true if the host is being drained
func (d *DrainConfig) ContainsHost(host types.HostAddress) bool {
	for _, h := range d.Drain {
		if h == host {
			return true
		}
	}

	return false
}

// hostSet returns the drain list as a set.
func (d *DrainConfig) hostSet() map[types.HostAddress]struct{} {
	set := make(map[types.HostAddress]struct{}, len(d.Drain))
	for _, h := range d.Drain {
		set[h] = struct{}{}
	}

	return set
}

// WatcherConfig holds configuration for topology watchers.
type WatcherConfig struct {
	// Key is the NATS KV key to watch for drain configuration.
	// Default: "chorus.topology.drain"
	Key string

	// PollInterval is the fallback polling interval if watch fails.
	// Default: 5 seconds
	PollInterval time.Duration

	// InitialFetchTimeout is the timeout for the initial KV fetch.
	// Default: 10 seconds
	InitialFetchTimeout time.Duration

	// BufferSize is the capacity of the update channel.
	// Default: 32
	BufferSize int
}

// DefaultWatcherConfig returns a WatcherConfig with sensible defaults.
//
// Returns:
//   - WatcherConfig: Default configuration
func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{
		Key:                 "chorus.topology.drain",
		PollInterval:        5 * time.Second,
		InitialFetchTimeout: 10 * time.Second,
		BufferSize:          32,
	}
}

// WatcherOption configures a topology watcher.
type WatcherOption func(*WatcherConfig)

// WithKey sets the NATS KV key to watch.
//
// Parameters:
//   - key: The key name (e.g., "analytics.clickhouse.drain")
//
// Returns:
//   - WatcherOption: Configuration option
func WithKey(key string) WatcherOption {
	return func(c *WatcherConfig) {
		c.Key = key
	}
}

// WithPollInterval sets the fallback polling interval.
//
// If the NATS watch fails or disconnects, the watcher falls back to
// polling at this interval.
//
// Parameters:
//   - d: Polling interval duration
//
// Returns:
//   - WatcherOption: Configuration option
func WithPollInterval(d time.Duration) WatcherOption {
	return func(c *WatcherConfig) {
		c.PollInterval = d
	}
}

// WithInitialFetchTimeout sets the timeout for the initial KV fetch.
//
// Parameters:
//   - d: Timeout duration
//
// Returns:
//   - WatcherOption: Configuration option
func WithInitialFetchTimeout(d time.Duration) WatcherOption {
	return func(c *WatcherConfig) {
		c.InitialFetchTimeout = d
	}
}

// WithBufferSize sets the capacity of the update channel.
//
// Updates are dropped when the channel is full; IsDraining always reflects
// the latest state.
func WithBufferSize(n int) WatcherOption {
	return func(c *WatcherConfig) {
		if n > 0 {
			c.BufferSize = n
		}
	}
}
