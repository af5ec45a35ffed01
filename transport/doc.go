// Package transport implements chorus.Transport over the ClickHouse HTTP interface.
//
// Probes, statements and queries go through clickhouse-go with the HTTP
// protocol, one connection per replica. Connections are reopened lazily when
// the session settings (database, compression, server settings) change.
//
// Asynchronous CSV inserts are recorded without I/O and uploaded when the
// batch executes: each file is streamed from disk as the request body, gzip
// compressed when compression is enabled, with a fresh query_id per file.
//
// # Replica Discovery
//
// The replicas are either listed explicitly in the connection settings or
// found by resolving the configured host name to all of its addresses:
//
//	conn := &settings.Connection{Host: "clickhouse.internal", Port: 8123}
//	tr, err := transport.New(conn)
//	hosts, err := tr.KnownHosts(ctx) // e.g. [10.0.0.1:8123 10.0.0.2:8123]
package transport
