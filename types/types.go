// Package types provides shared types and errors for the chorus library.
//
// This is a "leaf" package with no imports from other chorus packages,
// allowing it to be imported by any package without causing import cycles.
package types

import (
	"fmt"
	"net"
	"sort"
	"time"
)

// HostAddress identifies a single ClickHouse replica, typically "host:port".
type HostAddress string

// String returns the string representation of the HostAddress.
func (h HostAddress) String() string {
	return string(h)
}

// Hostname returns the host part of the address without the port.
//
// If the address has no port, the whole address is returned.
func (h HostAddress) Hostname() string {
	host, _, err := net.SplitHostPort(string(h))
	if err != nil {
		return string(h)
	}

	return host
}

// HealthCheckResult is the outcome of one replica health check.
//
// A result is produced fresh on every check and is never persisted.
type HealthCheckResult struct {
	// Reachable lists the hosts that answered within the timeout, sorted ascending.
	Reachable []HostAddress

	// Unreachable maps every failed host to the reason it failed.
	Unreachable map[HostAddress]error

	// SingleHost is true when the candidate set had exactly one host.
	// In that case the host is reported reachable without being probed.
	SingleHost bool

	// Elapsed is the wall time spent checking.
	Elapsed time.Duration
}

// NewHealthCheckResult creates an empty result ready to be filled.
//
// Returns:
//   - *HealthCheckResult: An empty result with initialized maps
func NewHealthCheckResult() *HealthCheckResult {
	return &HealthCheckResult{
		Unreachable: make(map[HostAddress]error),
	}
}

// IsReachable reports whether host is in the reachable set.
func (r *HealthCheckResult) IsReachable(host HostAddress) bool {
	for _, h := range r.Reachable {
		if h == host {
			return true
		}
	}

	return false
}

// UnreachableHosts returns the unreachable hosts sorted ascending.
func (r *HealthCheckResult) UnreachableHosts() []HostAddress {
	hosts := make([]HostAddress, 0, len(r.Unreachable))
	for h := range r.Unreachable {
		hosts = append(hosts, h)
	}
	SortHosts(hosts)

	return hosts
}

// SortHosts sorts hosts in ascending order in place.
func SortHosts(hosts []HostAddress) {
	sort.Slice(hosts, func(i, j int) bool { return hosts[i] < hosts[j] })
}

// PendingHandle represents one asynchronous submission that has not been
// executed yet.
//
// Err is only meaningful once Done returns true, i.e. after the batch
// the submission belongs to has been executed.
type PendingHandle interface {
	// ID returns the query id sent to the server with this submission.
	ID() string

	// Done reports whether the submission has been executed.
	Done() bool

	// Err returns the execution error, or nil on success.
	Err() error
}

// BatchResult maps every submitted input file to its pending handle.
//
// The coordinator does not retain it; the caller owns the map once returned.
type BatchResult map[string]PendingHandle

// Failed returns the paths whose submission finished with an error.
func (b BatchResult) Failed() []string {
	var failed []string
	for path, h := range b {
		if h != nil && h.Done() && h.Err() != nil {
			failed = append(failed, path)
		}
	}
	sort.Strings(failed)

	return failed
}

// PartitionDescriptor describes one part row from system.parts.
type PartitionDescriptor struct {
	// Partition is the partition identifier used by ALTER TABLE ... DROP PARTITION.
	Partition string

	// Name is the part name.
	Name string

	// Database owning the table.
	Database string

	// Table owning the part.
	Table string

	// Engine is the storage engine name (e.g. "MergeTree", "ReplicatedMergeTree").
	Engine string

	// MinDate is the smallest date covered by the part.
	MinDate time.Time

	// MaxDate is the largest date covered by the part.
	MaxDate time.Time

	// Rows is the number of rows in the part, when reported.
	Rows uint64

	// Bytes is the on-disk size of the part, when reported.
	Bytes uint64

	// Active reports whether the part is active.
	Active bool
}

// Row is one materialized result row keyed by column name.
type Row map[string]any

// RowSet is a fully materialized query result in server order.
type RowSet []Row

// Rows returns all rows.
func (s RowSet) Rows() []Row {
	return s
}

// FetchOne returns the first row.
//
// Returns:
//   - Row: The first row, or nil
//   - bool: false if the set is empty
func (s RowSet) FetchOne() (Row, bool) {
	if len(s) == 0 {
		return nil, false
	}

	return s[0], true
}

// RowsAsTree indexes rows by the string form of the given column.
//
// Rows missing the column are skipped. Later rows win on duplicate keys.
//
// Parameters:
//   - key: The column whose value becomes the map key
//
// Returns:
//   - map[string]Row: Rows keyed by column value
func (s RowSet) RowsAsTree(key string) map[string]Row {
	tree := make(map[string]Row, len(s))
	for _, row := range s {
		v, ok := row[key]
		if !ok {
			continue
		}
		tree[toKey(v)] = row
	}

	return tree
}

func toKey(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case *string:
		if t == nil {
			return ""
		}
		return *t
	case []byte:
		return string(t)
	case interface{ String() string }:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}
