package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"reflect"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/arloliu/chorus"
	"github.com/arloliu/chorus/internal/logging"
	"github.com/arloliu/chorus/settings"
	"github.com/arloliu/chorus/types"
)

// ClickHouse is the reference chorus.Transport over the ClickHouse HTTP interface.
//
// Statements and queries use clickhouse-go with the HTTP protocol; one
// connection is kept per replica and reopened when the session settings
// change. Asynchronous CSV inserts are streamed from disk with net/http.
type ClickHouse struct {
	conn     *settings.Connection
	settings *settings.Settings
	resolver *net.Resolver
	http     *http.Client
	logger   types.Logger

	mu     sync.Mutex
	conns  map[types.HostAddress]*hostConn
	active atomic.Value // types.HostAddress

	batchMu sync.Mutex
	pending []*submission

	closed atomic.Bool
}

type hostConn struct {
	conn     driver.Conn
	revision uint64
}

var _ chorus.Transport = (*ClickHouse)(nil)

// Option configures a ClickHouse transport.
type Option func(*ClickHouse)

// WithLogger sets the logger.
func WithLogger(l types.Logger) Option {
	return func(t *ClickHouse) {
		t.logger = l
	}
}

// WithResolver replaces net.DefaultResolver for replica discovery.
func WithResolver(r *net.Resolver) Option {
	return func(t *ClickHouse) {
		if r != nil {
			t.resolver = r
		}
	}
}

// WithHTTPClient replaces the client used for CSV uploads.
func WithHTTPClient(c *http.Client) Option {
	return func(t *ClickHouse) {
		if c != nil {
			t.http = c
		}
	}
}

// New creates a transport for the cluster described by conn.
//
// No connection is opened until a replica is first used.
//
// Parameters:
//   - conn: Connection settings; defaults are applied to a copy
//   - opts: Optional configuration options
//
// Returns:
//   - *ClickHouse: A new transport
//   - error: Error if conn is invalid
func New(conn *settings.Connection, opts ...Option) (*ClickHouse, error) {
	if conn == nil {
		return nil, settings.ErrNoHost
	}

	c := *conn
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	t := &ClickHouse{
		conn:     &c,
		settings: c.NewSettings(),
		resolver: net.DefaultResolver,
		http:     &http.Client{Timeout: c.Timeout},
		logger:   logging.NewNopLogger(),
		conns:    make(map[types.HostAddress]*hostConn),
	}
	t.active.Store(types.HostAddress(""))

	for _, opt := range opts {
		opt(t)
	}
	t.logger = logging.OrNop(t.logger)

	return t, nil
}

// KnownHosts returns every replica of the cluster, sorted.
//
// An explicit host list is used as is, with the default port added where
// missing. Otherwise the configured host name is resolved and every address
// becomes a replica.
func (t *ClickHouse) KnownHosts(ctx context.Context) ([]types.HostAddress, error) {
	port := strconv.Itoa(t.conn.Port)

	var hosts []types.HostAddress
	if len(t.conn.Hosts) > 0 {
		for _, h := range t.conn.Hosts {
			if _, _, err := net.SplitHostPort(h); err != nil {
				h = net.JoinHostPort(h, port)
			}
			hosts = append(hosts, types.HostAddress(h))
		}
	} else {
		addrs, err := t.resolver.LookupHost(ctx, t.conn.Host)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", t.conn.Host, err)
		}
		for _, a := range addrs {
			hosts = append(hosts, types.HostAddress(net.JoinHostPort(a, port)))
		}
	}

	types.SortHosts(hosts)

	return hosts, nil
}

// Probe pings host.
func (t *ClickHouse) Probe(ctx context.Context, host types.HostAddress) error {
	conn, err := t.connFor(host)
	if err != nil {
		return err
	}

	return conn.Ping(ctx)
}

// Execute runs a statement on host.
func (t *ClickHouse) Execute(ctx context.Context, host types.HostAddress, query string) error {
	conn, err := t.connFor(host)
	if err != nil {
		return err
	}

	return conn.Exec(withQueryID(ctx), query)
}

// Select runs query on the active host and materializes every row.
//
// Values keep the Go types clickhouse-go scans them into.
func (t *ClickHouse) Select(ctx context.Context, query string) (types.RowSet, error) {
	host := t.activeHost()
	if host == "" {
		return nil, types.ErrNoActiveHost
	}

	conn, err := t.connFor(host)
	if err != nil {
		return nil, err
	}

	rows, err := conn.Query(withQueryID(ctx), query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns := rows.Columns()
	columnTypes := rows.ColumnTypes()

	var set types.RowSet
	for rows.Next() {
		dest := make([]any, len(columnTypes))
		for i, ct := range columnTypes {
			dest[i] = reflect.New(ct.ScanType()).Interface()
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		row := make(types.Row, len(columns))
		for i, name := range columns {
			row[name] = reflect.ValueOf(dest[i]).Elem().Interface()
		}
		set = append(set, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return set, nil
}

// SetActiveHost directs Select and async batches to host.
func (t *ClickHouse) SetActiveHost(host types.HostAddress) {
	t.active.Store(host)
}

// Settings returns the session settings.
func (t *ClickHouse) Settings() chorus.Settings {
	return t.settings
}

// SessionSettings returns the concrete session settings.
func (t *ClickHouse) SessionSettings() *settings.Settings {
	return t.settings
}

// Close closes every replica connection and discards queued submissions.
func (t *ClickHouse) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}

	t.batchMu.Lock()
	for _, sub := range t.pending {
		sub.handle.settle(types.ErrClientClosed)
	}
	t.pending = nil
	t.batchMu.Unlock()

	t.mu.Lock()
	defer t.mu.Unlock()

	var merr *multierror.Error
	for host, hc := range t.conns {
		if err := hc.conn.Close(); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("close %s: %w", host, err))
		}
	}
	clear(t.conns)

	return merr.ErrorOrNil()
}

func (t *ClickHouse) activeHost() types.HostAddress {
	host, _ := t.active.Load().(types.HostAddress)
	return host
}

// connFor returns the connection to host, reopening it if the session
// settings changed since it was opened.
func (t *ClickHouse) connFor(host types.HostAddress) (driver.Conn, error) {
	if t.closed.Load() {
		return nil, types.ErrClientClosed
	}

	revision := t.settings.Revision()

	t.mu.Lock()
	defer t.mu.Unlock()

	if hc, ok := t.conns[host]; ok {
		if hc.revision == revision {
			return hc.conn, nil
		}
		if err := hc.conn.Close(); err != nil {
			t.logger.Warn("failed to close stale connection",
				"host", host.String(),
				"error", err.Error(),
			)
		}
		delete(t.conns, host)
	}

	conn, err := clickhouse.Open(t.options(host))
	if err != nil {
		return nil, fmt.Errorf("could not connect to clickhouse on %s: %w", host, err)
	}

	t.conns[host] = &hostConn{conn: conn, revision: revision}
	t.logger.Debug("opened connection",
		"host", host.String(),
		"database", t.settings.Database(),
	)

	return conn, nil
}

func (t *ClickHouse) options(host types.HostAddress) *clickhouse.Options {
	opts := &clickhouse.Options{
		Protocol: clickhouse.HTTP,
		Addr:     []string{host.String()},
		Auth: clickhouse.Auth{
			Database: t.settings.Database(),
			Username: t.conn.Username,
			Password: t.conn.Password,
		},
		DialTimeout: t.conn.DialTimeout,
		ReadTimeout: t.conn.Timeout,
		Settings:    clickhouse.Settings(t.settings.Options()),
	}

	if t.settings.Compression() {
		opts.Compression = &clickhouse.Compression{Method: clickhouse.CompressionGZIP}
	}

	return opts
}

func withQueryID(ctx context.Context) context.Context {
	return clickhouse.Context(ctx, clickhouse.WithQueryID(uuid.NewString()))
}

// sortedSettings returns setting names in a stable order.
func sortedSettings(opts map[string]any) []string {
	names := make([]string, 0, len(opts))
	for k := range opts {
		names = append(names, k)
	}
	sort.Strings(names)

	return names
}

// HTTPError is a non-200 answer of the ClickHouse HTTP interface.
type HTTPError struct {
	StatusCode int

	// Message is the server's error payload, e.g. "Code: 27. DB::Exception: ...".
	Message string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return "clickhouse: HTTP " + strconv.Itoa(e.StatusCode) + ": " + e.Message
}

// IsHTTPError reports whether err carries an HTTPError with the given status.
func IsHTTPError(err error, status int) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.StatusCode == status
}
