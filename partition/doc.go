// Package partition manages the partitions of ClickHouse MergeTree tables.
//
// Partitions are read from system.parts. A retention sweep drops the
// partitions whose newest row is older than a number of days:
//
//	mgr := partition.NewManager(client)
//	dropped, err := mgr.DropOld(ctx, "events", 30, partition.DefaultBatchSize)
//
// Only engines of the MergeTree family are considered; tables using Log or
// Memory engines are never touched. Day boundaries are local midnight.
package partition
