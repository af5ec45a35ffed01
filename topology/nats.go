package topology

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/chorus"
	"github.com/arloliu/chorus/types"
)

// NATS reads the replica drain list from a JetStream KV key.
//
// Every client watching the same key learns about a drained replica and
// leaves it at its next failover check, so one KV write takes a replica out
// of rotation for the whole fleet.
//
// The update channel is shared by all Watch calls and closed by Close or by
// cancellation of the first Watch context.
type NATS struct {
	kv     jetstream.KeyValue
	config WatcherConfig

	// Current drain state
	drained     map[types.HostAddress]struct{}
	drainReason string
	mu          sync.RWMutex

	// Lifecycle
	updates      chan chorus.TopologyUpdate
	done         chan struct{}
	closed       bool
	watchStarted bool
	closeOnce    sync.Once
}

// ErrMalformedDrainConfig is returned by SetDrain when the stored drain
// document is not valid JSON. The key is left untouched; delete or fix it first.
var ErrMalformedDrainConfig = errors.New("chorus/topology: malformed drain document")

var (
	_ chorus.TopologyWatcher  = (*NATS)(nil)
	_ chorus.TopologyOperator = (*NATS)(nil)
)

// NewNATS creates a drain watcher over kv. Nothing is read until Watch.
//
// Parameters:
//   - kv: Bucket holding the drain key
//   - opts: Watcher options (key, poll interval, buffer size)
//
// Returns:
//   - *NATS: The watcher
//   - error: Error if kv is nil
//
// Example:
//
//	nc, _ := nats.Connect("nats://localhost:4222")
//	js, _ := jetstream.New(nc)
//	kv, _ := js.KeyValue(ctx, "chorus-config")
//
//	watcher, _ := topology.NewNATS(kv,
//	    topology.WithKey("analytics.clickhouse.drain"),
//	    topology.WithPollInterval(10*time.Second),
//	)
func NewNATS(kv jetstream.KeyValue, opts ...WatcherOption) (*NATS, error) {
	if kv == nil {
		return nil, errors.New("chorus/topology: KeyValue store is nil")
	}

	config := DefaultWatcherConfig()
	for _, opt := range opts {
		opt(&config)
	}

	return &NATS{
		kv:      kv,
		config:  config,
		drained: make(map[types.HostAddress]struct{}),
		updates: make(chan chorus.TopologyUpdate, config.BufferSize),
		done:    make(chan struct{}),
	}, nil
}

// Watch starts following the drain key and returns the update channel.
//
// The current value is applied first, then every KV change; each change emits
// one TopologyUpdate per replica whose drain state flipped. If the KV watch
// can't be established the key is polled every PollInterval instead.
//
// Parameters:
//   - ctx: Stops the watch when cancelled; ignored after the first call
//
// Returns:
//   - <-chan chorus.TopologyUpdate: Per-replica drain transitions
func (n *NATS) Watch(ctx context.Context) <-chan chorus.TopologyUpdate {
	n.mu.Lock()
	if n.watchStarted {
		n.mu.Unlock()

		return n.updates
	}
	n.watchStarted = true
	n.mu.Unlock()

	go n.watchLoop(ctx)

	return n.updates
}

// SetDrain publishes a new drain list to the KV key.
//
// The list is read, modified and written back with optimistic concurrency, so
// two operators draining different hosts do not overwrite each other.
// Watchers (this one included) observe the change through the KV watch.
//
// Parameters:
//   - ctx: Context for the KV operations
//   - host: The replica to update
//   - draining: true to add the host to the drain list, false to remove it
//   - reason: Reason stored with the list when draining
//
// Returns:
//   - error: Error if the KV store could not be updated, or
//     ErrMalformedDrainConfig if the stored document can't be parsed
func (n *NATS) SetDrain(ctx context.Context, host types.HostAddress, draining bool, reason string) error {
	const maxAttempts = 5

	var lastErr error
	for range maxAttempts {
		var (
			config   DrainConfig
			revision uint64
		)

		entry, err := n.kv.Get(ctx, n.config.Key)
		switch {
		case errors.Is(err, jetstream.ErrKeyNotFound):
		case err != nil:
			return err
		default:
			revision = entry.Revision()
			if err := json.Unmarshal(entry.Value(), &config); err != nil {
				return fmt.Errorf("%w at %s: %w", ErrMalformedDrainConfig, n.config.Key, err)
			}
		}

		if config.ContainsHost(host) == draining {
			return nil
		}

		if draining {
			config.Drain = append(config.Drain, host)
			config.Reason = reason
		} else {
			kept := config.Drain[:0]
			for _, h := range config.Drain {
				if h != host {
					kept = append(kept, h)
				}
			}
			config.Drain = kept
			if len(kept) == 0 {
				config.Reason = ""
			}
		}

		data, err := json.Marshal(config)
		if err != nil {
			return err
		}

		if revision == 0 {
			_, lastErr = n.kv.Create(ctx, n.config.Key, data)
		} else {
			_, lastErr = n.kv.Update(ctx, n.config.Key, data, revision)
		}
		if lastErr == nil {
			return nil
		}
	}

	return lastErr
}

// Close stops the watch goroutine. Calling it again is a no-op.
func (n *NATS) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil
	}

	n.closed = true
	close(n.done)

	return nil
}

// IsDraining reports whether host is on the last applied drain list.
func (n *NATS) IsDraining(host types.HostAddress) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()

	_, ok := n.drained[host]

	return ok
}

// Drained returns the draining hosts sorted ascending.
func (n *NATS) Drained() []types.HostAddress {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return sortedHosts(n.drained)
}

// Config returns the options the watcher was built with.
func (n *NATS) Config() WatcherConfig {
	return n.config
}

// GetDrainReason returns the reason stored with the last applied drain list,
// or "" when no replica is draining. No KV read is made.
func (n *NATS) GetDrainReason() string {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return n.drainReason
}

// watchLoop applies the current value, then follows KV changes until stopped.
func (n *NATS) watchLoop(ctx context.Context) {
	defer n.closeOnce.Do(func() { close(n.updates) })

	n.fetchAndEmit(ctx)

	watcher, err := n.kv.Watch(ctx, n.config.Key)
	if err != nil {
		n.pollLoop(ctx)
		return
	}
	defer func() { _ = watcher.Stop() }()

	for {
		select {
		case <-ctx.Done():
			return
		case <-n.done:
			return
		case entry, ok := <-watcher.Updates():
			if !ok {
				// watcher channel closed, fall back to polling
				n.pollLoop(ctx)
				return
			}
			if entry == nil {
				// marks the end of the initial values
				continue
			}
			n.processEntry(entry)
		}
	}
}

// pollLoop re-reads the key every PollInterval; used when the KV watch is unavailable.
func (n *NATS) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(n.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-n.done:
			return
		case <-ticker.C:
			n.fetchAndEmit(ctx)
		}
	}
}

// fetchAndEmit reads the key once and applies it. A missing key means nothing is drained.
func (n *NATS) fetchAndEmit(ctx context.Context) {
	fetchCtx, cancel := context.WithTimeout(ctx, n.config.InitialFetchTimeout)
	defer cancel()

	entry, err := n.kv.Get(fetchCtx, n.config.Key)
	if err != nil {
		n.apply(DrainConfig{})
		return
	}

	n.processEntry(entry)
}

// processEntry applies one KV entry; deletes, purges and malformed JSON clear the list.
func (n *NATS) processEntry(entry jetstream.KeyValueEntry) {
	if entry.Operation() == jetstream.KeyValueDelete || entry.Operation() == jetstream.KeyValuePurge {
		n.apply(DrainConfig{})
		return
	}

	var config DrainConfig
	if err := json.Unmarshal(entry.Value(), &config); err != nil {
		n.apply(DrainConfig{})
		return
	}

	n.apply(config)
}

// apply replaces the drain state and emits one update per changed host,
// in host order.
func (n *NATS) apply(config DrainConfig) {
	next := config.hostSet()

	n.mu.Lock()
	defer n.mu.Unlock()

	n.drainReason = config.Reason

	changed := make(map[types.HostAddress]struct{})
	for h := range n.drained {
		if _, ok := next[h]; !ok {
			changed[h] = struct{}{}
		}
	}
	for h := range next {
		if _, ok := n.drained[h]; !ok {
			changed[h] = struct{}{}
		}
	}
	n.drained = next

	for _, h := range sortedHosts(changed) {
		_, draining := next[h]
		select {
		case n.updates <- chorus.TopologyUpdate{
			Host:      h,
			Available: !draining,
			DrainMode: draining,
		}:
		default:
			// Channel full, skip update (IsDraining stays accurate)
		}
	}
}
