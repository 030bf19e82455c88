// Package cloud talks to the remote JSON document store that mirrors the
// dashboard snapshot. One bin holds one document, replaced wholesale on push.
package cloud

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/sandeepkv93/lifeos/internal/model"
)

const (
	DefaultBaseURL = "https://api.jsonbin.io/v3"
	DefaultTimeout = 15 * time.Second

	masterKeyHeader = "X-Master-Key"
	requestIDHeader = "X-Request-Id"
	maxResponseSize = 4 << 20
)

var (
	ErrSync          = errors.New("cloud: sync failed")
	ErrNotConfigured = errors.New("cloud: bin id and api key are required")
)

// StatusError carries the HTTP status of a rejected call. It always wraps
// ErrSync.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("cloud: %s: unexpected status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("cloud: %s: unexpected status %d: %s", e.Op, e.Status, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrSync }

// Remote is what the sync orchestrator needs from a document store.
type Remote interface {
	Push(ctx context.Context, snap model.Snapshot) error
	Pull(ctx context.Context) (model.Patch, bool, error)
}

type Options struct {
	BaseURL string
	Timeout time.Duration
	HTTP    *http.Client
}

type Client struct {
	baseURL string
	cfg     model.CloudConfig
	http    *http.Client
}

func NewClient(cfg model.CloudConfig, opts Options) (*Client, error) {
	cfg = cfg.Normalized()
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	client := opts.HTTP
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: base, cfg: cfg, http: client}, nil
}

// Push replaces the remote document with snap.
func (c *Client) Push(ctx context.Context, snap model.Snapshot) error {
	body, err := sonic.ConfigStd.Marshal(snap.Normalized())
	if err != nil {
		return fmt.Errorf("%w: encode snapshot: %v", ErrSync, err)
	}
	_, err = c.do(ctx, "push", http.MethodPut, c.binURL(), body)
	return err
}

type envelope struct {
	Record sonic.NoCopyRawMessage `json:"record"`
}

// Pull fetches the latest remote document. It reports false when the bin
// holds no record, in which case local state must be left alone.
func (c *Client) Pull(ctx context.Context) (model.Patch, bool, error) {
	raw, err := c.do(ctx, "pull", http.MethodGet, c.binURL()+"/latest", nil)
	if err != nil {
		return model.Patch{}, false, err
	}
	var env envelope
	if err := sonic.ConfigStd.Unmarshal(raw, &env); err != nil {
		return model.Patch{}, false, fmt.Errorf("%w: decode envelope: %v", ErrSync, err)
	}
	record := bytes.TrimSpace(env.Record)
	if len(record) == 0 || bytes.Equal(record, []byte("null")) {
		return model.Patch{}, false, nil
	}
	var patch model.Patch
	if err := sonic.ConfigStd.Unmarshal(record, &patch); err != nil {
		return model.Patch{}, false, fmt.Errorf("%w: decode record: %v", ErrSync, err)
	}
	if err := patch.Validate(); err != nil {
		return model.Patch{}, false, fmt.Errorf("%w: invalid record: %v", ErrSync, err)
	}
	return patch, !patch.IsEmpty(), nil
}

func (c *Client) binURL() string {
	return c.baseURL + "/b/" + c.cfg.BinID
}

func (c *Client) do(ctx context.Context, op, method, url string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: build request: %v", ErrSync, op, err)
	}
	req.Header.Set(masterKeyHeader, c.cfg.APIKey)
	req.Header.Set(requestIDHeader, uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSync, op, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read response: %v", ErrSync, op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Op: op, Status: resp.StatusCode, Body: snippet(payload)}
	}
	return payload, nil
}

func snippet(body []byte) string {
	const max = 200
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
