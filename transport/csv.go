package transport

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/arloliu/chorus/types"
)

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 4 << 10

// handle settles once, when the batch holding its submission runs.
type handle struct {
	id   string
	mu   sync.RWMutex
	done bool
	err  error
}

var _ types.PendingHandle = (*handle)(nil)

func (h *handle) ID() string { return h.id }

func (h *handle) Done() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.done
}

func (h *handle) Err() error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.err
}

func (h *handle) settle(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.done = true
	h.err = err
}

type submission struct {
	query  string
	path   string
	handle *handle
}

// SubmitAsyncCSV records an upload of path. The file is opened when the
// batch executes, not now.
func (t *ClickHouse) SubmitAsyncCSV(_ context.Context, query string, path string) (types.PendingHandle, error) {
	if t.closed.Load() {
		return nil, types.ErrClientClosed
	}

	sub := &submission{
		query:  query,
		path:   path,
		handle: &handle{id: uuid.NewString()},
	}

	t.batchMu.Lock()
	t.pending = append(t.pending, sub)
	t.batchMu.Unlock()

	return sub.handle, nil
}

// ExecuteAsyncBatch uploads every recorded submission to the active host,
// one after another in submission order.
//
// A failed upload settles its own handle and the batch continues. If ctx ends,
// the remaining handles settle with the context error, which is returned.
func (t *ClickHouse) ExecuteAsyncBatch(ctx context.Context) error {
	t.batchMu.Lock()
	batch := t.pending
	t.pending = nil
	t.batchMu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	host := t.activeHost()
	if host == "" {
		for _, sub := range batch {
			sub.handle.settle(types.ErrNoActiveHost)
		}

		return types.ErrNoActiveHost
	}

	for i, sub := range batch {
		if err := ctx.Err(); err != nil {
			for _, rest := range batch[i:] {
				rest.handle.settle(err)
			}

			return err
		}

		err := t.upload(ctx, host, sub)
		if err != nil {
			t.logger.Warn("async insert failed",
				"host", host.String(),
				"query_id", sub.handle.id,
				"path", sub.path,
				"error", err.Error(),
			)
		}
		sub.handle.settle(err)
	}

	t.logger.Debug("async batch executed",
		"host", host.String(),
		"submissions", len(batch),
	)

	return nil
}

// upload streams one CSV file as the body of an INSERT request.
func (t *ClickHouse) upload(ctx context.Context, host types.HostAddress, sub *submission) error {
	f, err := os.Open(sub.path)
	if err != nil {
		return err
	}
	defer f.Close()

	compress := t.settings.Compression()

	var body io.Reader = f
	if compress {
		pr, pw := io.Pipe()
		go func() {
			zw := gzip.NewWriter(pw)
			_, err := io.Copy(zw, f)
			if cerr := zw.Close(); err == nil {
				err = cerr
			}
			pw.CloseWithError(err)
		}()
		defer pr.Close()
		body = pr
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.insertURL(host, sub), body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/csv")
	req.Header.Set("X-ClickHouse-User", t.conn.Username)
	if t.conn.Password != "" {
		req.Header.Set("X-ClickHouse-Key", t.conn.Password)
	}
	if compress {
		req.Header.Set("Content-Encoding", "gzip")
	}

	resp, err := t.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &HTTPError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}

	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}

func (t *ClickHouse) insertURL(host types.HostAddress, sub *submission) string {
	params := url.Values{}
	params.Set("query", sub.query)
	params.Set("query_id", sub.handle.id)
	params.Set("database", t.settings.Database())

	opts := t.settings.Options()
	for _, name := range sortedSettings(opts) {
		params.Set(name, fmt.Sprint(opts[name]))
	}

	u := url.URL{
		Scheme:   "http",
		Host:     host.String(),
		Path:     "/",
		RawQuery: params.Encode(),
	}

	return u.String()
}
