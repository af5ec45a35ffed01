// Package topology provides replica drain signals for chorus clients.
//
// Operations teams take a ClickHouse replica out of rotation before
// maintenance by putting it in drain mode. Clients watching the drain
// signal treat drained replicas as unreachable during health checks, so the
// next failover check moves traffic to the remaining replicas.
//
// # Overview
//
// The package provides implementations of the [chorus.TopologyWatcher]
// and [chorus.TopologyOperator] interfaces:
//   - [chorus.TopologyWatcher]: Emits [chorus.TopologyUpdate] events when a
//     replica enters or leaves drain mode.
//   - [chorus.TopologyOperator]: Sets drain states programmatically.
//
// # NATS Topology
//
// [NATS] watches a NATS KV bucket for drain mode configuration:
//
//	nc, _ := nats.Connect("nats://localhost:4222")
//	js, _ := jetstream.New(nc)
//	kv, _ := js.KeyValue(ctx, "chorus-config")
//
//	watcher, _ := topology.NewNATS(kv,
//	    topology.WithKey("analytics.clickhouse.drain"),
//	)
//
//	client, _ := chorus.NewClient(transport,
//	    chorus.WithTopologyWatcher(watcher),
//	)
//
// # Drain Configuration Format
//
// The NATS KV value is a JSON object listing the drained replicas:
//
//	{
//	    "drain": ["10.0.0.12:8123"],
//	    "reason": "Disk replacement"
//	}
//
// Entries must match the addresses the transport reports as known hosts.
//
// # Lifecycle
//
// Drain mode requires explicit operator actions:
//   - Start maintenance: PUT the drain configuration to NATS KV
//   - End maintenance: DELETE the key (or PUT with empty drain list)
//
// There is no automatic expiry, so clients never resume traffic to a replica
// while maintenance is still in progress.
//
// # Local Topology
//
// [Local] provides an in-memory implementation:
//
//	local := topology.NewLocal()
//	_ = local.SetDrain(ctx, "10.0.0.12:8123", true, "maintenance")
//
//	// Later...
//	_ = local.SetDrain(ctx, "10.0.0.12:8123", false, "")
package topology
