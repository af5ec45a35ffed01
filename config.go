package chorus

import (
	"time"

	"github.com/arloliu/chorus/health"
	"github.com/arloliu/chorus/internal/logging"
	"github.com/arloliu/chorus/internal/metrics"
	"github.com/arloliu/chorus/policy"
	"github.com/arloliu/chorus/types"
)

// ClientConfig holds configuration for chorus clients.
type ClientConfig struct {
	HealthTimeout   time.Duration
	RandomSource    policy.RandomSource
	InitialHost     HostAddress
	TopologyWatcher TopologyWatcher
	Clock           func() time.Time
	Metrics         MetricsCollector
	Logger          types.Logger
}

// DefaultConfig returns a ClientConfig with sensible defaults.
//
// Defaults:
//   - HealthTimeout: 2s shared probe timeout
//   - RandomSource: nil (concurrency-safe math/rand/v2)
//   - TopologyWatcher: nil (no drain support)
//
// Returns:
//   - *ClientConfig: Configuration with default settings
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		HealthTimeout: health.DefaultTimeout,
		Clock:         time.Now,
		Metrics:       metrics.NewNopMetrics(),
		Logger:        logging.NewNopLogger(),
	}
}

// Option configures a ClientConfig.
type Option func(*ClientConfig)

// WithHealthTimeout sets the shared probe timeout used when the client
// resolves its active host lazily.
//
// Parameters:
//   - d: Probe timeout; non-positive values keep the default
//
// Returns:
//   - Option: Configuration option
func WithHealthTimeout(d time.Duration) Option {
	return func(c *ClientConfig) {
		if d > 0 {
			c.HealthTimeout = d
		}
	}
}

// WithRandomSource sets the random source used to pick among reachable hosts.
//
// Tests pass a fixed sequence to make failover deterministic.
//
// Parameters:
//   - src: The random source (e.g. rand.New(rand.NewPCG(1, 2)))
//
// Returns:
//   - Option: Configuration option
func WithRandomSource(src policy.RandomSource) Option {
	return func(c *ClientConfig) {
		c.RandomSource = src
	}
}

// WithActiveHost presets the active host, skipping the lazy health check.
//
// Parameters:
//   - host: The replica to use first
//
// Returns:
//   - Option: Configuration option
func WithActiveHost(host HostAddress) Option {
	return func(c *ClientConfig) {
		c.InitialHost = host
	}
}

// WithTopologyWatcher sets the topology watcher for drain mode support.
//
// Draining hosts are reported unreachable by health checks.
//
// Parameters:
//   - watcher: The topology watcher implementation
//
// Returns:
//   - Option: Configuration option
func WithTopologyWatcher(watcher TopologyWatcher) Option {
	return func(c *ClientConfig) {
		c.TopologyWatcher = watcher
	}
}

// WithClock sets the clock used for partition retention cutoffs.
//
// Parameters:
//   - now: Function returning the current time
//
// Returns:
//   - Option: Configuration option
func WithClock(now func() time.Time) Option {
	return func(c *ClientConfig) {
		if now != nil {
			c.Clock = now
		}
	}
}

// WithMetrics sets the metrics collector.
//
// If not set, a no-op collector is used that discards all metrics.
// Use contrib/metrics/vm.New() for VictoriaMetrics integration.
//
// Parameters:
//   - collector: The metrics collector implementation
//
// Returns:
//   - Option: Configuration option
//
// Example:
//
//	import vmmetrics "github.com/arloliu/chorus/contrib/metrics/vm"
//
//	collector := vmmetrics.New(vmmetrics.WithPrefix("myapp"))
//	client, _ := chorus.NewClient(transport,
//	    chorus.WithMetrics(collector),
//	)
func WithMetrics(collector MetricsCollector) Option {
	return func(c *ClientConfig) {
		c.Metrics = collector
	}
}

// WithLogger sets the structured logger.
//
// If not set, a no-op logger is used that discards all messages.
// contrib/logging/zap adapts a zap logger.
//
// Parameters:
//   - logger: The logger implementation
//
// Returns:
//   - Option: Configuration option
//
// Example:
//
//	logger, _ := zap.NewProduction()
//	client, _ := chorus.NewClient(transport,
//	    chorus.WithLogger(zaplog.New(logger)),
//	)
func WithLogger(logger types.Logger) Option {
	return func(c *ClientConfig) {
		c.Logger = logger
	}
}
