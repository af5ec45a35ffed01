package testutil

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/arloliu/chorus"
	"github.com/arloliu/chorus/settings"
	"github.com/arloliu/chorus/types"
)

// Statement is one statement received by a FakeTransport.
type Statement struct {
	Host  types.HostAddress
	Query string
}

// FakeHandle is the pending handle returned by FakeTransport.SubmitAsyncCSV.
type FakeHandle struct {
	mu   sync.RWMutex
	id   string
	done bool
	err  error
}

// Compile-time assertion that FakeHandle implements types.PendingHandle.
var _ types.PendingHandle = (*FakeHandle)(nil)

// ID returns the query id of the submission.
func (h *FakeHandle) ID() string { return h.id }

// Done reports whether the batch holding the submission has run.
func (h *FakeHandle) Done() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.done
}

// Err returns the submission's outcome.
func (h *FakeHandle) Err() error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.err
}

func (h *FakeHandle) settle(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.done = true
	h.err = err
}

// Submission is one recorded SubmitAsyncCSV call.
type Submission struct {
	Query  string
	Path   string
	Host   types.HostAddress
	Handle *FakeHandle
}

// FakeTransport is an in-memory implementation of chorus.Transport.
//
// Hosts answer probes unless marked down or slow. Statements are recorded,
// and Select answers from canned results keyed by the exact query text.
type FakeTransport struct {
	mu       sync.RWMutex
	hosts    []types.HostAddress
	hostsErr error
	down     map[types.HostAddress]error
	slow     map[types.HostAddress]time.Duration
	active   types.HostAddress
	probes   map[types.HostAddress]int
	closed   bool
	settings *settings.Settings

	statements []Statement
	queries    []Statement
	execErrs   map[string]error
	results    map[string]types.RowSet
	selectErr  error

	nextID    int
	pending   []*Submission
	executed  []*Submission
	fileErrs  map[string]error
	batchErr  error
	batchRuns int

	// Hooks for custom behavior
	OnProbe   func(ctx context.Context, host types.HostAddress) error
	OnExecute func(host types.HostAddress, query string) error
	OnSelect  func(query string) (types.RowSet, error)
}

// Compile-time assertion that FakeTransport implements chorus.Transport.
var _ chorus.Transport = (*FakeTransport)(nil)

// NewFakeTransport creates a fake transport knowing hosts.
func NewFakeTransport(hosts ...types.HostAddress) *FakeTransport {
	return &FakeTransport{
		hosts:    slices.Clone(hosts),
		down:     make(map[types.HostAddress]error),
		slow:     make(map[types.HostAddress]time.Duration),
		probes:   make(map[types.HostAddress]int),
		settings: settings.New(settings.DefaultDatabase),
		execErrs: make(map[string]error),
		results:  make(map[string]types.RowSet),
		fileErrs: make(map[string]error),
	}
}

// ----------------------
// Configuration
// ----------------------

// SetHosts replaces the known host list.
func (f *FakeTransport) SetHosts(hosts ...types.HostAddress) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.hosts = slices.Clone(hosts)
}

// SetHostsError makes KnownHosts fail.
func (f *FakeTransport) SetHostsError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.hostsErr = err
}

// SetDown marks host as failing probes with err; a nil err brings it back.
func (f *FakeTransport) SetDown(host types.HostAddress, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err == nil {
		delete(f.down, host)
		return
	}
	f.down[host] = err
}

// SetSlow delays probes of host by d, or until the probe context ends.
func (f *FakeTransport) SetSlow(host types.HostAddress, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.slow[host] = d
}

// FailStatements makes every statement containing substr fail with err.
func (f *FakeTransport) FailStatements(substr string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.execErrs[substr] = err
}

// SetResult sets the rows returned for query.
func (f *FakeTransport) SetResult(query string, rows types.RowSet) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.results[query] = rows
}

// SetSelectError makes every Select fail with err.
func (f *FakeTransport) SetSelectError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.selectErr = err
}

// FailFile makes the submission streaming path fail with err.
func (f *FakeTransport) FailFile(path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fileErrs[path] = err
}

// SetBatchError makes ExecuteAsyncBatch fail as a whole.
func (f *FakeTransport) SetBatchError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.batchErr = err
}

// ----------------------
// chorus.Transport
// ----------------------

// Probe answers unless host is down; slow hosts wait for their delay.
func (f *FakeTransport) Probe(ctx context.Context, host types.HostAddress) error {
	f.mu.Lock()
	f.probes[host]++
	downErr := f.down[host]
	delay := f.slow[host]
	hook := f.OnProbe
	f.mu.Unlock()

	if hook != nil {
		return hook(ctx, host)
	}

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return downErr
}

// Execute records the statement and fails it if configured.
func (f *FakeTransport) Execute(_ context.Context, host types.HostAddress, query string) error {
	f.mu.Lock()
	f.statements = append(f.statements, Statement{Host: host, Query: query})
	hook := f.OnExecute
	var err error
	for substr, e := range f.execErrs {
		if strings.Contains(query, substr) {
			err = e
			break
		}
	}
	f.mu.Unlock()

	if hook != nil {
		return hook(host, query)
	}

	return err
}

// SubmitAsyncCSV records the submission without reading path.
func (f *FakeTransport) SubmitAsyncCSV(_ context.Context, query string, path string) (types.PendingHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	sub := &Submission{
		Query:  query,
		Path:   path,
		Host:   f.active,
		Handle: &FakeHandle{id: fmt.Sprintf("fake-%d", f.nextID)},
	}
	f.pending = append(f.pending, sub)

	return sub.Handle, nil
}

// ExecuteAsyncBatch settles every recorded submission in order.
func (f *FakeTransport) ExecuteAsyncBatch(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.batchRuns++
	batch := f.pending
	f.pending = nil

	if f.batchErr != nil {
		for _, sub := range batch {
			sub.Handle.settle(f.batchErr)
		}

		return f.batchErr
	}

	for _, sub := range batch {
		sub.Handle.settle(f.fileErrs[sub.Path])
		f.executed = append(f.executed, sub)
	}

	return nil
}

// Select records the query and returns its canned rows.
func (f *FakeTransport) Select(_ context.Context, query string) (types.RowSet, error) {
	f.mu.Lock()
	f.queries = append(f.queries, Statement{Host: f.active, Query: query})
	hook := f.OnSelect
	rows := f.results[query]
	err := f.selectErr
	f.mu.Unlock()

	if hook != nil {
		return hook(query)
	}
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// SetActiveHost remembers host as the target of Select and batches.
func (f *FakeTransport) SetActiveHost(host types.HostAddress) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.active = host
}

// KnownHosts returns the configured hosts.
func (f *FakeTransport) KnownHosts(_ context.Context) ([]types.HostAddress, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.hostsErr != nil {
		return nil, f.hostsErr
	}

	return slices.Clone(f.hosts), nil
}

// Settings returns the session settings.
func (f *FakeTransport) Settings() chorus.Settings {
	return f.settings
}

// Close marks the transport closed.
func (f *FakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true

	return nil
}

// ----------------------
// Test Helpers
// ----------------------

// SessionSettings returns the concrete settings for inspection.
func (f *FakeTransport) SessionSettings() *settings.Settings {
	return f.settings
}

// ActiveHost returns the host last passed to SetActiveHost.
func (f *FakeTransport) ActiveHost() types.HostAddress {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.active
}

// ProbeCount returns how often host was probed.
func (f *FakeTransport) ProbeCount(host types.HostAddress) int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.probes[host]
}

// TotalProbes returns the number of probes across all hosts.
func (f *FakeTransport) TotalProbes() int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	total := 0
	for _, n := range f.probes {
		total += n
	}

	return total
}

// Statements returns every executed statement in order.
func (f *FakeTransport) Statements() []Statement {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return slices.Clone(f.statements)
}

// Queries returns every Select query in order.
func (f *FakeTransport) Queries() []Statement {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return slices.Clone(f.queries)
}

// Pending returns the submissions not executed yet.
func (f *FakeTransport) Pending() []*Submission {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return slices.Clone(f.pending)
}

// Executed returns the submissions executed successfully or not, in order.
func (f *FakeTransport) Executed() []*Submission {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return slices.Clone(f.executed)
}

// BatchRuns returns the number of ExecuteAsyncBatch calls.
func (f *FakeTransport) BatchRuns() int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.batchRuns
}

// IsClosed returns whether Close was called.
func (f *FakeTransport) IsClosed() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.closed
}
