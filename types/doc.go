// Package types provides shared types and error definitions for the chorus library.
//
// This is a leaf package with zero chorus imports to prevent import cycles.
// All packages in chorus can safely import this package.
//
// # Types
//
// HostAddress identifies one replica, usually as "host:port":
//
//	host := types.HostAddress("10.0.0.1:8123")
//
// HealthCheckResult partitions candidate hosts into reachable and unreachable
// sets, RowSet holds a materialized query result and PartitionDescriptor
// describes one row of system.parts.
//
// # Errors
//
// Sentinel errors are provided for common failure scenarios:
//
//   - ErrClusterUnavailable: No candidate host is reachable
//   - ErrQueueNotEmpty: Batch ingestion attempted with unexecuted async writes
//   - ErrUnreadableInput: A batch input file cannot be read
//   - ErrStatementFailed: The server rejected a write or alter statement
//   - ErrClientClosed: Operation attempted on a closed client
//
// Typed errors (ClusterUnavailableError, UnreadableInputError, StatementError,
// BatchFileError) unwrap to their sentinel, so errors.Is works on both:
//
//	var unavailable *types.ClusterUnavailableError
//	if errors.As(err, &unavailable) {
//	    for host, cause := range unavailable.Unreachable {
//	        log.Printf("%s: %v", host, cause)
//	    }
//	}
package types
