package testutil

import (
	"context"
	"fmt"
	"net"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/clickhouse"

	"github.com/arloliu/chorus/settings"
)

const clickhouseHTTPPort = "8123/tcp"

// ClickHouseContainer wraps a ClickHouse test container.
type ClickHouseContainer struct {
	Container *clickhouse.ClickHouseContainer

	// Addr is the mapped HTTP endpoint, "host:port".
	Addr     string
	Username string
	Password string
	Database string
}

// ClickHouseOptions configures the ClickHouse container.
type ClickHouseOptions struct {
	// Image is the ClickHouse image to use. Defaults to "clickhouse/clickhouse-server:24.3-alpine".
	Image string
	// Database is the database to create. Defaults to "chorus_test".
	Database string
	// Username defaults to "chorus".
	Username string
	// Password defaults to "chorus".
	Password string
}

// DefaultClickHouseOptions returns default options for the ClickHouse container.
func DefaultClickHouseOptions() ClickHouseOptions {
	return ClickHouseOptions{
		Image:    "clickhouse/clickhouse-server:24.3-alpine",
		Database: "chorus_test",
		Username: "chorus",
		Password: "chorus",
	}
}

// StartClickHouse starts a ClickHouse container for testing.
//
// The caller terminates the container with Terminate; it is usually started
// once in TestMain and shared by every test of the package.
//
// Parameters:
//   - ctx: Context for container operations
//   - opts: Optional configuration (nil uses defaults)
//
// Returns:
//   - *ClickHouseContainer: Container with HTTP connection details
//   - error: Error if the container fails to start
func StartClickHouse(ctx context.Context, opts *ClickHouseOptions) (*ClickHouseContainer, error) {
	if opts == nil {
		defaultOpts := DefaultClickHouseOptions()
		opts = &defaultOpts
	}

	container, err := clickhouse.Run(ctx, opts.Image,
		clickhouse.WithDatabase(opts.Database),
		clickhouse.WithUsername(opts.Username),
		clickhouse.WithPassword(opts.Password),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start ClickHouse container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = testcontainers.TerminateContainer(container)
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, clickhouseHTTPPort)
	if err != nil {
		_ = testcontainers.TerminateContainer(container)
		return nil, fmt.Errorf("failed to get HTTP port: %w", err)
	}

	return &ClickHouseContainer{
		Container: container,
		Addr:      net.JoinHostPort(host, port.Port()),
		Username:  opts.Username,
		Password:  opts.Password,
		Database:  opts.Database,
	}, nil
}

// Terminate stops and removes the container.
func (c *ClickHouseContainer) Terminate(ctx context.Context) error {
	return c.Container.Terminate(ctx)
}

// Connection returns connection settings pointing at the container.
//
// The mapped address is listed explicitly so no DNS lookup is needed.
func (c *ClickHouseContainer) Connection() *settings.Connection {
	conn := &settings.Connection{
		Hosts:    []string{c.Addr},
		Username: c.Username,
		Password: c.Password,
		Database: c.Database,
	}
	conn.SetDefaults()

	return conn
}
