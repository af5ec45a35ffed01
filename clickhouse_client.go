package chorus

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/arloliu/chorus/health"
	"github.com/arloliu/chorus/internal/logging"
	"github.com/arloliu/chorus/internal/metrics"
	"github.com/arloliu/chorus/literal"
	"github.com/arloliu/chorus/partition"
	"github.com/arloliu/chorus/policy"
	"github.com/arloliu/chorus/queue"
	"github.com/arloliu/chorus/types"
)

// Client is the chorus client for a replicated ClickHouse cluster.
//
// It talks to one active replica at a time. The active replica is chosen
// lazily: the first operation that needs the network runs a health check over
// every known replica and picks a reachable one at random. FindActiveHost
// repeats the check on demand.
//
// Asynchronous CSV writes are queued until ExecuteAsync; IngestFiles refuses
// to run while that queue holds work.
//
// Every Client owns its active host and queue; nothing is shared between
// clients. All methods are safe for concurrent use.
//
// Lifecycle:
//   - Create with NewClient
//   - Close when done: the topology watcher is stopped and the transport closed
//   - A closed client returns ErrClientClosed
type Client struct {
	transport  Transport
	config     *ClientConfig
	checker    *health.Checker
	selector   *policy.RandomFailover
	queue      *queue.Coordinator
	partitions *partition.Manager
	resolve    singleflight.Group
	closed     atomic.Bool

	// hostMu orders selector changes with their transport.SetActiveHost calls
	hostMu sync.Mutex

	// Drain mode state
	drainMu       sync.RWMutex
	drained       map[HostAddress]struct{}
	topologyCtx   context.Context
	topologyClose context.CancelFunc
}

// NewClient creates a new chorus client over transport.
//
// If a TopologyWatcher is configured, it is started immediately; replicas in
// drain mode are treated as unreachable by every later health check.
//
// Parameters:
//   - transport: The HTTP transport (e.g. transport.ClickHouse)
//   - opts: Optional configuration options
//
// Returns:
//   - *Client: A new client
//   - error: types.ErrNilTransport if transport is nil
func NewClient(transport Transport, opts ...Option) (*Client, error) {
	if transport == nil {
		return nil, types.ErrNilTransport
	}

	config := DefaultConfig()
	for _, opt := range opts {
		opt(config)
	}

	config.Metrics = metrics.OrNop(config.Metrics)
	config.Logger = logging.OrNop(config.Logger)

	ctx, cancel := context.WithCancel(context.Background())

	c := &Client{
		transport:     transport,
		config:        config,
		drained:       make(map[HostAddress]struct{}),
		topologyCtx:   ctx,
		topologyClose: cancel,
	}

	c.checker = health.NewChecker(
		health.ProberFunc(transport.Probe),
		health.WithDrainFilter(c),
		health.WithMetrics(config.Metrics),
		health.WithLogger(config.Logger),
	)

	failoverOpts := []policy.FailoverOption{
		policy.WithFailoverMetrics(config.Metrics),
		policy.WithFailoverLogger(config.Logger),
	}
	if config.RandomSource != nil {
		failoverOpts = append(failoverOpts, policy.WithRandomSource(config.RandomSource))
	}
	if config.InitialHost != "" {
		failoverOpts = append(failoverOpts, policy.WithInitialHost(config.InitialHost))
		transport.SetActiveHost(config.InitialHost)
	}
	c.selector = policy.NewRandomFailover(failoverOpts...)

	c.queue = queue.NewCoordinator(transport,
		queue.WithBeforeDispatch(func(ctx context.Context) error {
			_, err := c.ensureActiveHost(ctx)
			return err
		}),
		queue.WithMetrics(config.Metrics),
		queue.WithLogger(config.Logger),
	)

	c.partitions = partition.NewManager(c,
		partition.WithClock(config.Clock),
		partition.WithMetrics(config.Metrics),
		partition.WithLogger(config.Logger),
	)

	if config.TopologyWatcher != nil {
		go c.watchTopology()
	}

	return c, nil
}

// watchTopology monitors topology updates and updates drain state.
func (c *Client) watchTopology() {
	updates := c.config.TopologyWatcher.Watch(c.topologyCtx)
	for update := range updates {
		c.drainMu.Lock()
		_, previousDrain := c.drained[update.Host]
		if update.DrainMode {
			c.drained[update.Host] = struct{}{}
		} else {
			delete(c.drained, update.Host)
		}
		c.drainMu.Unlock()

		// Record drain mode transitions
		if !previousDrain && update.DrainMode {
			c.config.Metrics.IncDrainModeEntered(update.Host)
			c.config.Metrics.SetHostDraining(update.Host, true)
			c.config.Logger.Warn("host entering drain mode",
				"host", update.Host.String(),
			)
		} else if previousDrain && !update.DrainMode {
			c.config.Metrics.IncDrainModeExited(update.Host)
			c.config.Metrics.SetHostDraining(update.Host, false)
			c.config.Logger.Info("host exiting drain mode",
				"host", update.Host.String(),
			)
		}
	}
}

// IsDraining returns whether host is currently in drain mode.
//
// Draining hosts are reported unreachable by health checks, so failover
// moves away from them. A client already using a draining host keeps it until
// the next FindActiveHost.
//
// Parameters:
//   - host: The host to check
//
// Returns:
//   - bool: true if the host is being drained
func (c *Client) IsDraining(host HostAddress) bool {
	c.drainMu.RLock()
	defer c.drainMu.RUnlock()

	_, ok := c.drained[host]

	return ok
}

// FindActiveHost health-checks every known replica and selects the active host.
//
// With allowSwitch set, a reachable replica is drawn at random and becomes the
// active host. Without it the active host is kept, which makes the call a
// read-only cluster probe. A single known replica is used without probing.
//
// Parameters:
//   - ctx: Context for the operation
//   - timeout: Shared probe timeout
//   - allowSwitch: Whether the active host may change
//
// Returns:
//   - *HealthCheckResult: The reachable and unreachable replicas
//   - HostAddress: The active host after the check
//   - error: *types.ClusterUnavailableError when no replica is reachable
func (c *Client) FindActiveHost(ctx context.Context, timeout time.Duration, allowSwitch bool) (*HealthCheckResult, HostAddress, error) {
	if c.closed.Load() {
		return nil, "", types.ErrClientClosed
	}

	hosts, err := c.transport.KnownHosts(ctx)
	if err != nil {
		return nil, "", err
	}
	if len(hosts) == 0 {
		return nil, "", types.ErrNoKnownHosts
	}

	result := c.checker.Check(ctx, hosts, timeout)

	host, err := c.selectActive(result, allowSwitch)
	if err != nil {
		c.config.Logger.Error("no reachable replica",
			"hosts", len(hosts),
			"error", err.Error(),
		)

		return result, "", err
	}

	c.config.Logger.Debug("replica health check",
		"reachable", len(result.Reachable),
		"unreachable", len(result.Unreachable),
		"active", host.String(),
		"elapsed", result.Elapsed.String(),
	)

	return result, host, nil
}

// selectActive runs the selector and hands a changed host to the transport
// in one step, so concurrent checks leave both agreeing on the last winner.
func (c *Client) selectActive(result *HealthCheckResult, allowSwitch bool) (HostAddress, error) {
	c.hostMu.Lock()
	defer c.hostMu.Unlock()

	prev := c.selector.Active()
	host, err := c.selector.Select(result, allowSwitch)
	if err != nil {
		return "", err
	}

	if host != "" && host != prev {
		c.transport.SetActiveHost(host)
	}

	return host, nil
}

// ActiveHost returns the active host, or "" before the first selection.
func (c *Client) ActiveHost() HostAddress {
	return c.selector.Active()
}

// SetActiveHost overrides the active host without a health check.
func (c *Client) SetActiveHost(host HostAddress) {
	c.hostMu.Lock()
	defer c.hostMu.Unlock()

	c.selector.SetActive(host)
	c.transport.SetActiveHost(host)
}

// ensureActiveHost returns the active host, selecting one first if needed.
//
// Concurrent callers share a single health check. The shared check is
// detached from the caller that started it and bounded by resolveTimeout;
// each caller still stops waiting when its own ctx ends.
func (c *Client) ensureActiveHost(ctx context.Context) (HostAddress, error) {
	if c.closed.Load() {
		return "", types.ErrClientClosed
	}
	if host := c.selector.Active(); host != "" {
		return host, nil
	}

	ch := c.resolve.DoChan("active", func() (any, error) {
		if host := c.selector.Active(); host != "" {
			return host, nil
		}

		resolveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.resolveTimeout())
		defer cancel()

		_, host, err := c.FindActiveHost(resolveCtx, c.config.HealthTimeout, true)

		return host, err
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return "", res.Err
	}

	host, _ := res.Val.(HostAddress)
	if host == "" {
		return "", types.ErrNoActiveHost
	}

	return host, nil
}

// resolveTimeout bounds a shared lazy selection: known-host lookup plus probes.
func (c *Client) resolveTimeout() time.Duration {
	return 2 * c.config.HealthTimeout
}

// Write runs a statement that returns no rows on the active host.
//
// Placeholders are resolved from bindings: :name is replaced by the value as
// a SQL literal, {name} by its raw text. Failures are not retried.
//
// Parameters:
//   - ctx: Context for the operation
//   - query: Statement text
//   - bindings: Placeholder values, may be nil
//
// Returns:
//   - error: *types.StatementError carrying the server's error payload
func (c *Client) Write(ctx context.Context, query string, bindings literal.Bindings) error {
	host, err := c.ensureActiveHost(ctx)
	if err != nil {
		return err
	}

	stmt := literal.Bind(query, bindings)

	start := time.Now()
	err = c.transport.Execute(ctx, host, stmt)
	c.config.Metrics.IncWriteTotal(host)
	c.config.Metrics.ObserveWriteDuration(host, time.Since(start).Seconds())
	if err != nil {
		c.config.Metrics.IncWriteError(host)

		return &types.StatementError{Host: host, Query: stmt, Cause: err}
	}

	return nil
}

// Select runs a query on the active host and returns every row.
//
// Parameters:
//   - ctx: Context for the operation
//   - query: Query text
//   - bindings: Placeholder values, may be nil
//
// Returns:
//   - RowSet: The result rows
//   - error: Error if the query failed
func (c *Client) Select(ctx context.Context, query string, bindings literal.Bindings) (RowSet, error) {
	host, err := c.ensureActiveHost(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := c.transport.Select(ctx, literal.Bind(query, bindings))
	c.config.Metrics.IncReadTotal(host)
	c.config.Metrics.ObserveReadDuration(host, time.Since(start).Seconds())
	if err != nil {
		c.config.Metrics.IncReadError(host)

		return nil, err
	}

	return rows, nil
}

// Insert writes rows with an INSERT ... VALUES statement.
//
// Row values are Go values accepted by literal.Of: integers, floats, strings,
// nil and slices of those. Nothing is sent when rows is empty.
//
// Parameters:
//   - ctx: Context for the operation
//   - table: Target table
//   - rows: Rows of values
//   - columns: Optional column list
//
// Returns:
//   - error: Conversion error or *types.StatementError
func (c *Client) Insert(ctx context.Context, table string, rows [][]any, columns []string) error {
	if len(rows) == 0 {
		return nil
	}

	encoded := make([]literal.Row, len(rows))
	for i, r := range rows {
		row, err := literal.RowOf(r...)
		if err != nil {
			return err
		}
		encoded[i] = row
	}

	return c.Write(ctx, literal.InsertStatement(table, columns, encoded), nil)
}

// WriteAsyncCSV queues a CSV file for insertion into table.
//
// Nothing is sent until ExecuteAsync. The handle reports the outcome after that.
//
// Parameters:
//   - ctx: Context for the operation
//   - table: Target table
//   - path: CSV file, streamed when the batch executes
//   - columns: Optional column list
//
// Returns:
//   - PendingHandle: Handle settled by ExecuteAsync
//   - error: Error if the submission can't be recorded
func (c *Client) WriteAsyncCSV(ctx context.Context, table string, path string, columns []string) (PendingHandle, error) {
	if _, err := c.ensureActiveHost(ctx); err != nil {
		return nil, err
	}

	return c.queue.Submit(ctx, literal.CSVInsertStatement(table, columns), path)
}

// ExecuteAsync runs every queued asynchronous write in submission order.
//
// The queue is empty afterwards, whatever the outcome.
func (c *Client) ExecuteAsync(ctx context.Context) error {
	if c.closed.Load() {
		return types.ErrClientClosed
	}

	return c.queue.Flush(ctx)
}

// PendingCount returns the number of queued asynchronous writes.
func (c *Client) PendingCount() int {
	return c.queue.Pending()
}

// IngestFiles inserts CSV files into table as one asynchronous batch.
//
// It fails with ErrQueueNotEmpty while earlier asynchronous writes are queued
// and with an *types.UnreadableInputError before any network I/O if a file
// can't be read. Every file is submitted, the batch is executed and each
// file's outcome inspected; failed files are reported together.
//
// Parameters:
//   - ctx: Context for the operation
//   - table: Target table
//   - files: CSV file paths
//   - columns: Optional column list
//
// Returns:
//   - BatchResult: Handle of every file
//   - error: Queue, input or per-file errors
func (c *Client) IngestFiles(ctx context.Context, table string, files []string, columns []string) (BatchResult, error) {
	if c.closed.Load() {
		return nil, types.ErrClientClosed
	}

	return c.queue.IngestFiles(ctx, table, files, columns)
}

// Partitions lists the parts of tables whose name contains table, oldest first.
//
// Parameters:
//   - ctx: Context for the operation
//   - table: Substring of the table name
//   - limit: Maximum number of parts; <= 0 means no limit
//
// Returns:
//   - []PartitionDescriptor: Parts ordered by max date
//   - error: Error if the query failed
func (c *Client) Partitions(ctx context.Context, table string, limit int) ([]PartitionDescriptor, error) {
	return c.partitions.List(ctx, table, limit)
}

// DropPartition drops one partition of table.
func (c *Client) DropPartition(ctx context.Context, table string, partitionID string) error {
	return c.partitions.Drop(ctx, table, partitionID)
}

// DropOldPartitions drops the MergeTree partitions of table whose newest data
// is older than local midnight daysAgo days ago.
//
// Parameters:
//   - ctx: Context for the operation
//   - table: Substring of the table name
//   - daysAgo: Retention in days
//   - batchSize: Maximum number of parts inspected (partition.DefaultBatchSize is customary)
//
// Returns:
//   - []string: Dropped partition ids, in drop order
//   - error: First drop error
func (c *Client) DropOldPartitions(ctx context.Context, table string, daysAgo int, batchSize int) ([]string, error) {
	return c.partitions.DropOld(ctx, table, daysAgo, batchSize)
}

// Settings returns the session settings of the transport.
func (c *Client) Settings() Settings {
	return c.transport.Settings()
}

// SetDatabase selects the database for unqualified table names.
func (c *Client) SetDatabase(name string) {
	c.transport.Settings().SetDatabase(name)
}

// Database returns the selected database.
func (c *Client) Database() string {
	return c.transport.Settings().Database()
}

// EnableHTTPCompression turns HTTP compression on or off.
func (c *Client) EnableHTTPCompression(enabled bool) {
	c.transport.Settings().EnableCompression(enabled)
}

// Close stops the topology watcher and closes the transport.
//
// Queued asynchronous writes are discarded. Close is idempotent.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	if c.topologyClose != nil {
		c.topologyClose()
	}

	if n := c.queue.Pending(); n > 0 {
		c.config.Logger.Warn("closing client with queued asynchronous writes",
			"pending", n,
		)
	}

	return c.transport.Close()
}
