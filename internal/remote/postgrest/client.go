// Package postgrest reads listings and likes from a PostgREST endpoint such
// as the REST API of a hosted Supabase project.
package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/pders01/corkboard/internal/config"
	"github.com/pders01/corkboard/internal/debuglog"
	"github.com/pders01/corkboard/internal/remote"
	"github.com/pders01/corkboard/internal/validation"
)

const (
	userAgent  = "corkboard/1.0 (listings client; github.com/pders01/corkboard)"
	timeout    = 30 * time.Second
	restPrefix = "/rest/v1/"

	mediaJSON   = "application/json"
	mediaObject = "application/vnd.pgrst.object+json"
)

type Client struct {
	baseURL    string
	apiKey     string
	client     *http.Client
	maxRetries int
	backoff    func() backoff.BackOff
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithMaxRetries sets how often a failed request is repeated. Zero disables
// retries.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithBackoff sets the delay policy between retries.
func WithBackoff(newBackOff func() backoff.BackOff) Option {
	return func(c *Client) { c.backoff = newBackOff }
}

// New creates a client for the API at baseURL, e.g.
// https://abcd.supabase.co. apiKey is sent as both apikey and bearer token.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		client:     &http.Client{Timeout: timeout},
		maxRetries: 3,
		backoff:    defaultBackOff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FromConfig validates the backend URL and builds a client with the
// configured timeout and retry count.
func FromConfig(cfg config.BackendConfig) (*Client, error) {
	validator := validation.NewBackendURLValidator()
	if cfg.AllowLocal {
		validator = validation.NewPermissiveBackendURLValidator()
	}
	base, err := validator.ValidateAndNormalize(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("backend url: %w", err)
	}

	opts := []Option{WithMaxRetries(cfg.MaxRetries)}
	if cfg.Timeout > 0 {
		opts = append(opts, WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	}
	return New(base, cfg.APIKey, opts...), nil
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.Multiplier = 2
	b.MaxElapsedTime = 30 * time.Second
	return b
}

// Query implements remote.Store. Rows with a null sort field go last for
// both directions.
func (c *Client) Query(ctx context.Context, collection string, order []remote.OrderTerm, filter remote.Filter) ([]remote.Row, error) {
	q := filterValues(filter)
	q.Set("select", "*")
	if len(order) > 0 {
		q.Set("order", orderParam(order))
	}

	body, err := c.do(ctx, request{method: http.MethodGet, path: collection, query: q, accept: mediaJSON})
	if err != nil {
		return nil, err
	}

	var rows []remote.Row
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decoding %s rows: %w", collection, err)
	}
	return rows, nil
}

// QueryOne implements remote.Store. It asks the server for exactly one row
// and maps the "0 rows" answer to remote.ErrNotFound.
func (c *Client) QueryOne(ctx context.Context, collection string, filter remote.Filter) (remote.Row, error) {
	q := filterValues(filter)
	q.Set("select", "*")

	body, err := c.do(ctx, request{method: http.MethodGet, path: collection, query: q, accept: mediaObject})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.noRows() {
			return nil, fmt.Errorf("%s %v: %w", collection, filter, remote.ErrNotFound)
		}
		return nil, err
	}
	return remote.Row(body), nil
}

func orderParam(order []remote.OrderTerm) string {
	parts := make([]string, len(order))
	for i, term := range order {
		dir := "asc"
		if term.Descending {
			dir = "desc"
		}
		parts[i] = term.Field + "." + dir + ".nullslast"
	}
	return strings.Join(parts, ",")
}

func filterValues(filter remote.Filter) url.Values {
	q := url.Values{}
	for field, value := range filter {
		q.Set(field, "eq."+value)
	}
	return q
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	accept string
	prefer string
}

// do sends req, retrying network errors, 5xx and 429 with backoff. Other
// error statuses are returned at once as *APIError.
func (c *Client) do(ctx context.Context, req request) ([]byte, error) {
	u := c.baseURL + restPrefix + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	var payload []byte
	if req.body != nil {
		var err error
		if payload, err = json.Marshal(req.body); err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
	}

	var out []byte
	attempt := 0
	operation := func() error {
		attempt++
		httpReq, err := http.NewRequestWithContext(ctx, req.method, u, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}
		c.setHeaders(httpReq, req)

		resp, err := c.client.Do(httpReq)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return fmt.Errorf("%s %s: %w", req.method, req.path, err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}

		if resp.StatusCode >= 400 {
			apiErr := newAPIError(resp, data)
			if apiErr.Temporary() {
				return apiErr
			}
			return backoff.Permanent(apiErr)
		}

		out = data
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.backoff(), uint64(max(c.maxRetries, 0))), ctx)
	notify := func(err error, wait time.Duration) {
		debuglog.WithFields(map[string]interface{}{"path": req.path, "attempt": attempt}).Warnf("retrying in %s: %v", wait, err)
	}
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) setHeaders(r *http.Request, req request) {
	r.Header.Set("User-Agent", userAgent)
	r.Header.Set("Accept", req.accept)
	if c.apiKey != "" {
		r.Header.Set("apikey", c.apiKey)
		r.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if req.body != nil {
		r.Header.Set("Content-Type", mediaJSON)
	}
	if req.prefer != "" {
		r.Header.Set("Prefer", req.prefer)
	}
}
