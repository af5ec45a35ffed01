package chorus

import "github.com/arloliu/chorus/types"

// Type aliases for convenience - re-export from types package.
type (
	HostAddress         = types.HostAddress
	HealthCheckResult   = types.HealthCheckResult
	PendingHandle       = types.PendingHandle
	BatchResult         = types.BatchResult
	PartitionDescriptor = types.PartitionDescriptor
	Row                 = types.Row
	RowSet              = types.RowSet
	Logger              = types.Logger
	MetricsCollector    = types.MetricsCollector
)

// Re-export sentinel errors for convenience.
var (
	ErrClusterUnavailable = types.ErrClusterUnavailable
	ErrQueueNotEmpty      = types.ErrQueueNotEmpty
	ErrUnreadableInput    = types.ErrUnreadableInput
	ErrStatementFailed    = types.ErrStatementFailed
	ErrClientClosed       = types.ErrClientClosed
)
