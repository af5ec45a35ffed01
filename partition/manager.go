package partition

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/arloliu/chorus/internal/logging"
	"github.com/arloliu/chorus/internal/metrics"
	"github.com/arloliu/chorus/literal"
	"github.com/arloliu/chorus/types"
)

// DefaultBatchSize is the number of parts inspected by one retention sweep in
// the original client API. DropOld uses whatever batch size it is given.
const DefaultBatchSize = 100

const (
	listQuery = "SELECT * FROM system.parts WHERE like(table, :pattern) ORDER BY max_date"
	dropQuery = "ALTER TABLE {table} DROP PARTITION :partition"

	// engine family eligible for the retention sweep, matched case-insensitively
	mergeTreeFamily = "mergetree"
)

// Executor runs statements against the active host.
//
// Placeholders in query are resolved from bindings with literal.Bind semantics.
type Executor interface {
	Select(ctx context.Context, query string, bindings literal.Bindings) (types.RowSet, error)
	Write(ctx context.Context, query string, bindings literal.Bindings) error
}

// Manager lists and drops table partitions.
type Manager struct {
	exec    Executor
	now     func() time.Time
	metrics types.MetricsCollector
	logger  types.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now as the source of the current date.
//
// Parameters:
//   - now: Function returning the current time; its Location defines midnight
//
// Returns:
//   - Option: Configuration option
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(c types.MetricsCollector) Option {
	return func(m *Manager) {
		m.metrics = c
	}
}

// WithLogger sets the logger.
func WithLogger(l types.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// NewManager creates a Manager issuing statements through exec.
func NewManager(exec Executor, opts ...Option) *Manager {
	m := &Manager{
		exec: exec,
		now:  time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.metrics = metrics.OrNop(m.metrics)
	m.logger = logging.OrNop(m.logger)

	return m
}

// List returns the parts of every table whose name contains table, ordered by
// max_date ascending.
//
// Parameters:
//   - ctx: Context for the operation
//   - table: Substring of the table name
//   - limit: Maximum number of parts; limit <= 0 means no limit
//
// Returns:
//   - []types.PartitionDescriptor: Parts in server order
//   - error: Error if the query fails
func (m *Manager) List(ctx context.Context, table string, limit int) ([]types.PartitionDescriptor, error) {
	query := listQuery
	if limit > 0 {
		query += " LIMIT " + strconv.Itoa(limit)
	}

	rows, err := m.exec.Select(ctx, query, literal.Bindings{
		"pattern": literal.String("%" + table + "%"),
	})
	if err != nil {
		return nil, fmt.Errorf("list partitions of %s: %w", table, err)
	}

	parts := make([]types.PartitionDescriptor, 0, len(rows))
	for _, row := range rows {
		parts = append(parts, descriptor(row))
	}

	return parts, nil
}

// Drop removes one partition from table.
//
// Parameters:
//   - ctx: Context for the operation
//   - table: Table name, written verbatim into the statement
//   - partitionID: Partition identifier, bound as a string literal
//
// Returns:
//   - error: The executor's error, not retried
func (m *Manager) Drop(ctx context.Context, table string, partitionID string) error {
	err := m.exec.Write(ctx, dropQuery, literal.Bindings{
		"table":     literal.String(table),
		"partition": literal.String(partitionID),
	})
	if err != nil {
		return fmt.Errorf("drop partition %s of %s: %w", partitionID, table, err)
	}

	m.metrics.IncPartitionDropped(table)
	m.logger.Info("partition dropped",
		"table", table,
		"partition", partitionID,
	)

	return nil
}

// Cutoff returns local midnight daysAgo days before now.
func Cutoff(now time.Time, daysAgo int) time.Time {
	y, mo, d := now.Date()

	return time.Date(y, mo, d-daysAgo, 0, 0, 0, 0, now.Location())
}

// DropOld drops merge-tree partitions whose newest data is older than daysAgo days.
//
// The cutoff is the start of the day daysAgo days before today, not the
// current time of day minus daysAgo*24h. At most batchSize parts are
// inspected. A part qualifies when its engine name contains "mergetree" in any
// case and the calendar date of its max date is before the cutoff day, in
// whatever zone the server reported it. Qualifying partitions are dropped in
// discovery order, each partition once.
//
// Parameters:
//   - ctx: Context for the operation
//   - table: Substring of the table name
//   - daysAgo: Retention in days
//   - batchSize: Maximum number of parts to inspect; <= 0 means no limit
//
// Returns:
//   - []string: Identifiers of dropped partitions, in drop order
//   - error: First drop error; the partitions dropped before it are still returned
func (m *Manager) DropOld(ctx context.Context, table string, daysAgo int, batchSize int) ([]string, error) {
	cutoff := Cutoff(m.now(), daysAgo)

	parts, err := m.List(ctx, table, batchSize)
	if err != nil {
		return nil, err
	}

	candidates := Eligible(parts, cutoff)
	m.logger.Debug("retention sweep",
		"table", table,
		"cutoff", cutoff.Format(time.DateOnly),
		"inspected", len(parts),
		"eligible", len(candidates),
	)

	dropped := make([]string, 0, len(candidates))
	for _, id := range candidates {
		if err := m.Drop(ctx, table, id); err != nil {
			return dropped, err
		}
		dropped = append(dropped, id)
	}

	return dropped, nil
}

// calendarDay returns midnight of t's calendar date in loc.
//
// Date columns arrive as midnight in the server's zone; comparing them with a
// cutoff in another zone as instants would shift them by the zone offset.
func calendarDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()

	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// Eligible returns the partition identifiers that a retention sweep with the
// given cutoff drops, in discovery order and without duplicates.
func Eligible(parts []types.PartitionDescriptor, cutoff time.Time) []string {
	seen := make(map[string]struct{}, len(parts))
	ids := make([]string, 0, len(parts))

	for _, p := range parts {
		if !strings.Contains(strings.ToLower(p.Engine), mergeTreeFamily) {
			continue
		}
		if !calendarDay(p.MaxDate, cutoff.Location()).Before(cutoff) {
			continue
		}
		if _, ok := seen[p.Partition]; ok {
			continue
		}
		seen[p.Partition] = struct{}{}
		ids = append(ids, p.Partition)
	}

	return ids
}
