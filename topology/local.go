package topology

import (
	"context"
	"sync"

	"github.com/arloliu/chorus"
	"github.com/arloliu/chorus/types"
)

// Local provides an in-memory topology watcher and operator.
//
// Unlike NATS, this implementation allows programmatic control
// of drain states, making it ideal for unit tests, demos and single-process
// deployments. It implements both TopologyWatcher (for observing) and
// TopologyOperator (for controlling drain states).
type Local struct {
	drained     map[types.HostAddress]struct{}
	drainReason string
	mu          sync.RWMutex

	updates       chan chorus.TopologyUpdate
	done          chan struct{}
	closed        bool
	updatesClosed bool
}

var (
	_ chorus.TopologyWatcher  = (*Local)(nil)
	_ chorus.TopologyOperator = (*Local)(nil)
)

// NewLocal creates a new in-memory topology watcher/operator.
//
// Parameters:
//   - opts: Optional configuration; only BufferSize applies
//
// Returns:
//   - *Local: A new local topology instance
func NewLocal(opts ...WatcherOption) *Local {
	config := DefaultWatcherConfig()
	for _, opt := range opts {
		opt(&config)
	}

	return &Local{
		drained: make(map[types.HostAddress]struct{}),
		updates: make(chan chorus.TopologyUpdate, config.BufferSize),
		done:    make(chan struct{}),
	}
}

// Watch returns a channel that receives topology updates.
//
// Updates are emitted when SetDrain changes a host's state. The channel is
// closed when Close() is called or the context is cancelled.
//
// Parameters:
//   - ctx: Context for cancellation
//
// Returns:
//   - <-chan chorus.TopologyUpdate: Channel of topology changes
func (l *Local) Watch(ctx context.Context) <-chan chorus.TopologyUpdate {
	go l.waitForClose(ctx)
	return l.updates
}

// SetDrain sets the drain state for a host.
//
// This method emits a TopologyUpdate if the state changes.
//
// Parameters:
//   - ctx: Accepted for interface compliance, not used
//   - host: The replica to update
//   - draining: true to enable drain mode, false to disable
//   - reason: Human-readable reason for the drain (only used when draining=true)
//
// Returns:
//   - error: Always nil for local implementation
func (l *Local) SetDrain(_ context.Context, host types.HostAddress, draining bool, reason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed || l.updatesClosed {
		return nil
	}

	_, current := l.drained[host]
	if current == draining {
		return nil
	}

	if draining {
		l.drained[host] = struct{}{}
		l.drainReason = reason
	} else {
		delete(l.drained, host)
		if len(l.drained) == 0 {
			l.drainReason = ""
		}
	}

	select {
	case l.updates <- chorus.TopologyUpdate{
		Host:      host,
		Available: !draining,
		DrainMode: draining,
	}:
	default:
		// Channel full, skip update
	}

	return nil
}

// IsDraining returns whether the specified host is currently in drain mode.
//
// Parameters:
//   - host: The host to check
//
// Returns:
//   - bool: true if the host is being drained
func (l *Local) IsDraining(host types.HostAddress) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, ok := l.drained[host]

	return ok
}

// Drained returns the draining hosts sorted ascending.
func (l *Local) Drained() []types.HostAddress {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return sortedHosts(l.drained)
}

// GetDrainReason returns the current drain reason, if any.
//
// Returns:
//   - string: The drain reason, or empty string if not draining
func (l *Local) GetDrainReason() string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.drainReason
}

// Close stops the watcher and releases resources.
func (l *Local) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}

	l.closed = true
	close(l.done)

	return nil
}

// waitForClose waits for context cancellation or close signal.
func (l *Local) waitForClose(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-l.done:
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.updatesClosed {
		l.updatesClosed = true
		close(l.updates)
	}
}

func sortedHosts(set map[types.HostAddress]struct{}) []types.HostAddress {
	hosts := make([]types.HostAddress, 0, len(set))
	for h := range set {
		hosts = append(hosts, h)
	}
	types.SortHosts(hosts)

	return hosts
}
