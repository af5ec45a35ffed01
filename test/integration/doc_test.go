// Package integration_test provides end-to-end integration tests for the chorus library.
//
// These tests run the client against a real ClickHouse server over HTTP.
//
// # Running Integration Tests
//
// Integration tests are skipped by default when using -short flag:
//
//	go test -short ./...           # Skips integration tests
//	go test ./test/integration/... # Runs integration tests
//
// ClickHouse tests require Docker and use testcontainers to start one
// ClickHouse server shared by the package. Set SKIP_INTEGRATION_TESTS=1 to
// skip the whole package.
//
// Topology tests use an embedded NATS server and need no container.
package integration_test
