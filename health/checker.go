// Package health probes ClickHouse replicas and partitions them into
// reachable and unreachable sets.
package health

import (
	"context"
	"fmt"
	"time"

	"github.com/arloliu/chorus/internal/logging"
	"github.com/arloliu/chorus/internal/metrics"
	"github.com/arloliu/chorus/types"
)

// DefaultTimeout is the probe timeout used when a non-positive timeout is given.
const DefaultTimeout = 2 * time.Second

// Prober checks whether a single host answers.
//
// The probe must honor ctx: its deadline is the shared probe timeout.
// Implementations MUST be safe for concurrent use.
type Prober interface {
	Probe(ctx context.Context, host types.HostAddress) error
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context, host types.HostAddress) error

// Probe calls f(ctx, host).
func (f ProberFunc) Probe(ctx context.Context, host types.HostAddress) error {
	return f(ctx, host)
}

// DrainFilter reports hosts that operators have put in drain mode.
type DrainFilter interface {
	IsDraining(host types.HostAddress) bool
}

// Checker runs replica health checks.
type Checker struct {
	prober  Prober
	drain   DrainFilter
	metrics types.MetricsCollector
	logger  types.Logger
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithDrainFilter excludes draining hosts from probing.
//
// Draining hosts are reported unreachable with types.ErrHostDraining.
//
// Parameters:
//   - f: The drain filter
//
// Returns:
//   - CheckerOption: Configuration option
func WithDrainFilter(f DrainFilter) CheckerOption {
	return func(c *Checker) {
		c.drain = f
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m types.MetricsCollector) CheckerOption {
	return func(c *Checker) {
		c.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(l types.Logger) CheckerOption {
	return func(c *Checker) {
		c.logger = l
	}
}

// NewChecker creates a Checker that probes hosts with prober.
//
// Parameters:
//   - prober: The network probe primitive
//   - opts: Optional configuration options
//
// Returns:
//   - *Checker: A new checker
func NewChecker(prober Prober, opts ...CheckerOption) *Checker {
	c := &Checker{prober: prober}

	for _, opt := range opts {
		opt(c)
	}

	c.metrics = metrics.OrNop(c.metrics)
	c.logger = logging.OrNop(c.logger)

	return c
}

// Check probes hosts concurrently and partitions them by outcome.
//
// A candidate set of exactly one host is not a failover candidate: the host is
// reported reachable without being probed. Otherwise every host is probed in
// its own goroutine under one shared timeout, so the check takes at most
// about timeout regardless of the number of hosts. Individual probe failures
// are recorded in the result and never abort the check.
//
// Parameters:
//   - ctx: Parent context; cancelling it fails the outstanding probes
//   - hosts: Candidate hosts; duplicates are ignored
//   - timeout: Shared probe timeout (DefaultTimeout if not positive)
//
// Returns:
//   - *types.HealthCheckResult: The reachable and unreachable hosts
func (c *Checker) Check(ctx context.Context, hosts []types.HostAddress, timeout time.Duration) *types.HealthCheckResult {
	start := time.Now()
	result := types.NewHealthCheckResult()
	candidates := dedupe(hosts)

	if len(candidates) == 1 {
		result.Reachable = candidates
		result.SingleHost = true
		result.Elapsed = time.Since(start)
		c.metrics.SetReachableHosts(1)

		return result
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// buffered so probes finishing after the deadline never block
	outcomes := make(chan probeOutcome, len(candidates))
	waiting := make(map[types.HostAddress]struct{}, len(candidates))

	for _, host := range candidates {
		if c.drain != nil && c.drain.IsDraining(host) {
			result.Unreachable[host] = types.ErrHostDraining
			continue
		}

		waiting[host] = struct{}{}
		go func() {
			outcomes <- probeOutcome{host: host, err: c.probe(probeCtx, host)}
		}()
	}

collect:
	for len(waiting) > 0 {
		select {
		case o := <-outcomes:
			delete(waiting, o.host)
			if o.err != nil {
				result.Unreachable[o.host] = o.err
			} else {
				result.Reachable = append(result.Reachable, o.host)
			}
		case <-probeCtx.Done():
			for host := range waiting {
				result.Unreachable[host] = probeCtx.Err()
			}

			break collect
		}
	}

	types.SortHosts(result.Reachable)
	result.Elapsed = time.Since(start)
	c.metrics.SetReachableHosts(len(result.Reachable))

	return result
}

// probe runs one probe, converting panics and late answers into errors.
func (c *Checker) probe(ctx context.Context, host types.HostAddress) (err error) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = &probePanicError{host: host, value: r}
		}

		c.metrics.IncProbeTotal(host)
		c.metrics.ObserveProbeDuration(host, time.Since(start).Seconds())
		if err != nil {
			c.metrics.IncProbeError(host)
			c.logger.Debug("replica probe failed",
				"host", host.String(),
				"error", err.Error(),
			)
		}
	}()

	err = c.prober.Probe(ctx, host)
	if err == nil && ctx.Err() != nil {
		// answered, but not within the timeout
		err = ctx.Err()
	}

	return err
}

type probeOutcome struct {
	host types.HostAddress
	err  error
}

type probePanicError struct {
	host  types.HostAddress
	value any
}

func (e *probePanicError) Error() string {
	return fmt.Sprintf("chorus/health: probe of %s panicked: %v", e.host, e.value)
}

func dedupe(hosts []types.HostAddress) []types.HostAddress {
	seen := make(map[types.HostAddress]struct{}, len(hosts))
	out := make([]types.HostAddress, 0, len(hosts))

	for _, h := range hosts {
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}

	return out
}
