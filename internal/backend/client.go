// Package backend is a thin client for the hosted backend-as-a-service the
// storefront runs on: managed auth (/auth/v1), REST tables and functions
// (/rest/v1) and object storage (/storage/v1). It owns transport, headers and
// error classification; it holds no session state of its own.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront/internal/platform/metrics"
	"storefront/internal/platform/tracer"
)

const defaultTimeout = 10 * time.Second

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to one hosted backend project.
type Client struct {
	baseURL    string
	anonKey    string
	httpClient HTTPDoer
	timeout    time.Duration
	tracer     tracer.Tracer
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (tests use httptest servers).
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		c.httpClient = doer
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
// Ignored when WithHTTPClient is also given.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(c *Client) {
		c.tracer = t
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithClock overrides time.Now when converting expires_in to an expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New creates a client for the project at baseURL, authenticating anonymous
// requests with anonKey.
func New(baseURL, anonKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		timeout: defaultTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	if c.tracer == nil {
		c.tracer = tracer.NewNoop()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// BaseURL returns the project URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// request describes one round trip.
type request struct {
	op          string
	method      string
	path        string
	query       url.Values
	token       string
	body        any
	rawBody     io.Reader
	contentType string
	headers     map[string]string
	attrs       []tracer.Attribute
}

// response is a successful (2xx) reply.
type response struct {
	status int
	header http.Header
	body   []byte
}

// do executes req inside a span and classifies every failure.
func (c *Client) do(ctx context.Context, req request) (resp *response, err error) {
	ctx, span := c.tracer.Start(ctx, "backend."+req.op, append(req.attrs, tracer.String("http.method", req.method))...)
	start := time.Now()
	status := 0
	defer func() {
		span.SetAttributes(tracer.Int("http.status_code", status))
		span.End(err)
		if c.metrics != nil {
			c.metrics.ObserveBackendRequest(req.op, status, time.Since(start))
			if err != nil {
				c.metrics.IncrementBackendError(string(CategoryOf(err)))
			}
		}
	}()

	httpReq, err := c.newHTTPRequest(ctx, req)
	if err != nil {
		return nil, &Error{Category: CategoryInternal, Op: req.op, Message: "failed to build request", Err: err}
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &Error{Category: CategoryTimeout, Op: req.op, Message: "request timeout", Err: err}
		}
		return nil, &Error{Category: CategoryNetwork, Op: req.op, Message: "failed to execute request", Err: err}
	}
	defer httpResp.Body.Close()
	status = httpResp.StatusCode

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &Error{Category: CategoryNetwork, Op: req.op, Status: status, Message: "failed to read response", Err: err}
	}

	if status < 200 || status > 299 {
		be := classify(req.op, status, body)
		c.logger.DebugContext(ctx, "backend request failed",
			"op", req.op,
			"status", status,
			"category", be.Category,
			"code", be.Code,
		)
		return nil, be
	}
	return &response{status: status, header: httpResp.Header, body: body}, nil
}

func (c *Client) newHTTPRequest(ctx context.Context, req request) (*http.Request, error) {
	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	var body io.Reader
	contentType := req.contentType
	switch {
	case req.rawBody != nil:
		body = req.rawBody
	case req.body != nil:
		b, err := json.Marshal(req.body)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
		if contentType == "" {
			contentType = "application/json"
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("apikey", c.anonKey)
	token := req.token
	if token == "" {
		token = c.anonKey
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}
	return httpReq, nil
}

// decode unmarshals a success body into out. A nil out discards the body.
func decode(op string, resp *response, out any) error {
	if out == nil || len(resp.body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return &Error{Category: CategoryBadData, Op: op, Status: resp.status, Message: "failed to parse response", Err: err}
	}
	return nil
}
