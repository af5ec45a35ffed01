package policy

import (
	"math/rand/v2"
	"sync"

	"github.com/arloliu/chorus/internal/logging"
	"github.com/arloliu/chorus/internal/metrics"
	"github.com/arloliu/chorus/types"
)

// RandomSource picks an integer in [0, n).
//
// *rand.Rand from math/rand/v2 satisfies it. Implementations need not be safe
// for concurrent use; RandomFailover serialises calls to an injected source.
type RandomSource interface {
	IntN(n int) int
}

// globalSource draws from the concurrency-safe top-level math/rand/v2 functions.
type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// lockedSource serialises access to a source that may not be concurrency safe.
type lockedSource struct {
	mu  sync.Mutex
	src RandomSource
}

func (l *lockedSource) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.src.IntN(n)
}

// RandomFailover selects the active host uniformly at random among the
// reachable replicas of a health check.
//
// Random choice spreads clients across replicas instead of piling them on the
// first healthy host. Each RandomFailover owns its active host; nothing is
// shared between instances.
type RandomFailover struct {
	mu      sync.RWMutex
	active  types.HostAddress
	src     RandomSource
	metrics types.MetricsCollector
	logger  types.Logger
}

// FailoverOption configures a RandomFailover.
type FailoverOption func(*RandomFailover)

// WithRandomSource replaces the default random source.
//
// Tests use it to substitute a fixed sequence.
//
// Parameters:
//   - src: The random source
//
// Returns:
//   - FailoverOption: Configuration option
func WithRandomSource(src RandomSource) FailoverOption {
	return func(f *RandomFailover) {
		if src != nil {
			f.src = &lockedSource{src: src}
		}
	}
}

// WithInitialHost presets the active host.
//
// Parameters:
//   - host: The host to start with
//
// Returns:
//   - FailoverOption: Configuration option
func WithInitialHost(host types.HostAddress) FailoverOption {
	return func(f *RandomFailover) {
		f.active = host
	}
}

// WithFailoverMetrics sets the metrics collector.
func WithFailoverMetrics(m types.MetricsCollector) FailoverOption {
	return func(f *RandomFailover) {
		f.metrics = m
	}
}

// WithFailoverLogger sets the logger.
func WithFailoverLogger(l types.Logger) FailoverOption {
	return func(f *RandomFailover) {
		f.logger = l
	}
}

// NewRandomFailover creates a selector with no active host.
//
// Parameters:
//   - opts: Optional configuration options
//
// Returns:
//   - *RandomFailover: A new selector
func NewRandomFailover(opts ...FailoverOption) *RandomFailover {
	f := &RandomFailover{src: globalSource{}}

	for _, opt := range opts {
		opt(f)
	}

	f.metrics = metrics.OrNop(f.metrics)
	f.logger = logging.OrNop(f.logger)

	return f
}

// Select decides the active host from a health check result.
//
// Rules, in order:
//   - no reachable host: fails with *types.ClusterUnavailableError, whatever allowSwitch says
//   - single-host check: that host becomes active, no random draw
//   - allowSwitch false: the active host is left unchanged
//   - otherwise: a reachable host drawn uniformly at random becomes active
//
// Parameters:
//   - result: Output of the replica health checker
//   - allowSwitch: Whether the active host may change
//
// Returns:
//   - types.HostAddress: The active host after selection
//   - error: *types.ClusterUnavailableError if nothing is reachable
func (f *RandomFailover) Select(result *types.HealthCheckResult, allowSwitch bool) (types.HostAddress, error) {
	if result == nil || len(result.Reachable) == 0 {
		var unreachable map[types.HostAddress]error
		if result != nil {
			unreachable = result.Unreachable
		}
		f.metrics.IncClusterUnavailable()

		return "", &types.ClusterUnavailableError{Unreachable: unreachable}
	}

	if result.SingleHost {
		return f.promote(result.Reachable[0]), nil
	}

	if !allowSwitch {
		return f.Active(), nil
	}

	host := result.Reachable[f.src.IntN(len(result.Reachable))]

	return f.promote(host), nil
}

func (f *RandomFailover) promote(host types.HostAddress) types.HostAddress {
	f.mu.Lock()
	prev := f.active
	f.active = host
	f.mu.Unlock()

	if prev != host {
		f.metrics.IncFailoverTotal(prev, host)
		f.logger.Info("active host changed",
			"from", prev.String(),
			"to", host.String(),
		)
	}

	return host
}

// Active returns the current active host, or "" if none has been selected.
func (f *RandomFailover) Active() types.HostAddress {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.active
}

// SetActive overrides the active host without a health check.
func (f *RandomFailover) SetActive(host types.HostAddress) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.active = host
}
