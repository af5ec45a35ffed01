package queue

import (
	"context"
	"errors"
	"os"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/arloliu/chorus/internal/logging"
	"github.com/arloliu/chorus/internal/metrics"
	"github.com/arloliu/chorus/literal"
	"github.com/arloliu/chorus/types"
)

// Submitter records asynchronous CSV submissions and executes them as a batch.
//
// SubmitAsyncCSV must not block on the network: it only records the work.
// ExecuteAsyncBatch runs every recorded submission in submission order and
// settles their handles.
type Submitter interface {
	SubmitAsyncCSV(ctx context.Context, query string, path string) (types.PendingHandle, error)
	ExecuteAsyncBatch(ctx context.Context) error
}

// Coordinator enforces the single-flight discipline of asynchronous writes.
//
// It counts submitted but not yet executed writes. Batch ingestion refuses to
// start while that count is non-zero. Submit, Flush and IngestFiles are
// serialised, so the count is consistent under concurrent use.
type Coordinator struct {
	mu             sync.Mutex
	submitter      Submitter
	pending        int
	beforeDispatch func(ctx context.Context) error
	metrics        types.MetricsCollector
	logger         types.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithBeforeDispatch sets a hook run by IngestFiles after input validation and
// before the first submission.
//
// The client uses it to make sure an active host exists. A hook error aborts
// the ingestion before any submission.
//
// Parameters:
//   - fn: The hook
//
// Returns:
//   - Option: Configuration option
func WithBeforeDispatch(fn func(ctx context.Context) error) Option {
	return func(c *Coordinator) {
		c.beforeDispatch = fn
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m types.MetricsCollector) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(l types.Logger) Option {
	return func(c *Coordinator) {
		c.logger = l
	}
}

// NewCoordinator creates a Coordinator over submitter with an empty queue.
//
// Parameters:
//   - submitter: The transport that records and executes submissions
//   - opts: Optional configuration options
//
// Returns:
//   - *Coordinator: A new coordinator
func NewCoordinator(submitter Submitter, opts ...Option) *Coordinator {
	c := &Coordinator{submitter: submitter}

	for _, opt := range opts {
		opt(c)
	}

	c.metrics = metrics.OrNop(c.metrics)
	c.logger = logging.OrNop(c.logger)

	return c
}

// Pending returns the number of submitted but not executed writes.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.pending
}

// Submit records one asynchronous CSV write.
//
// Parameters:
//   - ctx: Context for the operation
//   - query: The INSERT ... FORMAT CSV statement
//   - path: File streamed as the statement's data
//
// Returns:
//   - types.PendingHandle: Handle settled by the next Flush
//   - error: Error if the transport refused the submission
func (c *Coordinator) Submit(ctx context.Context, query string, path string) (types.PendingHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.submitLocked(ctx, query, path)
}

func (c *Coordinator) submitLocked(ctx context.Context, query string, path string) (types.PendingHandle, error) {
	h, err := c.submitter.SubmitAsyncCSV(ctx, query, path)
	if err != nil {
		return nil, err
	}

	c.pending++
	c.metrics.SetPendingQueueDepth(c.pending)

	return h, nil
}

// Flush executes every pending submission as one batch.
//
// The pending count is reset to zero on return whatever the outcome; failures
// of individual submissions are reported through their handles.
//
// Parameters:
//   - ctx: Context for the operation
//
// Returns:
//   - error: Error if the batch could not be executed at all
func (c *Coordinator) Flush(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.flushLocked(ctx)
}

func (c *Coordinator) flushLocked(ctx context.Context) error {
	defer func() {
		c.pending = 0
		c.metrics.SetPendingQueueDepth(0)
	}()

	c.metrics.IncBatchFlushTotal()

	return c.submitter.ExecuteAsyncBatch(ctx)
}

// IngestFiles streams CSV files into table as one asynchronous batch.
//
// Steps:
//  1. fail with types.ErrQueueNotEmpty if earlier submissions are pending
//  2. fail with *types.UnreadableInputError if any file can't be opened
//  3. run the before-dispatch hook
//  4. submit one INSERT ... FORMAT CSV per file, in the given order
//  5. flush the batch
//  6. inspect every file's outcome
//
// Steps 1 and 2 perform no network I/O. Every file is inspected in step 6 even
// after a failure; all failures are returned together as *types.BatchFileError
// values aggregated in a *multierror.Error.
//
// Parameters:
//   - ctx: Context for the operation
//   - table: Target table
//   - files: Paths of CSV files
//   - columns: Optional column list
//
// Returns:
//   - types.BatchResult: The handle of every submitted file
//   - error: Queue, input, dispatch or per-file error
func (c *Coordinator) IngestFiles(ctx context.Context, table string, files []string, columns []string) (types.BatchResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending != 0 {
		return nil, types.ErrQueueNotEmpty
	}

	for _, path := range files {
		if err := checkReadable(path); err != nil {
			return nil, err
		}
	}

	if c.beforeDispatch != nil {
		if err := c.beforeDispatch(ctx); err != nil {
			return nil, err
		}
	}

	query := literal.CSVInsertStatement(table, columns)
	result := make(types.BatchResult, len(files))
	order := make([]string, 0, len(files))

	for _, path := range files {
		h, err := c.submitLocked(ctx, query, path)
		if err != nil {
			// files recorded so far stay pending until the caller flushes
			return result, err
		}
		if _, dup := result[path]; !dup {
			order = append(order, path)
		}
		result[path] = h
	}

	if err := c.flushLocked(ctx); err != nil {
		return result, err
	}

	var merr *multierror.Error
	for _, path := range order {
		h := result[path]
		if h == nil || h.Err() == nil {
			continue
		}

		c.metrics.IncBatchFileError()
		c.logger.Warn("batch file insert failed",
			"table", table,
			"file", path,
			"query_id", h.ID(),
			"error", h.Err().Error(),
		)
		merr = multierror.Append(merr, &types.BatchFileError{Path: path, QueryID: h.ID(), Cause: h.Err()})
	}

	return result, merr.ErrorOrNil()
}

func checkReadable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return &types.UnreadableInputError{Path: path, Cause: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return &types.UnreadableInputError{Path: path, Cause: err}
	}
	if info.IsDir() {
		return &types.UnreadableInputError{Path: path, Cause: errIsDirectory}
	}

	return nil
}

var errIsDirectory = errors.New("is a directory")
