// Package backlogapi is a thin client for the Backlog REST API v2.
//
// Every call is a single HTTP exchange: no retries, no caching. Resource
// methods return the raw JSON body; shape checking is left to the caller.
package backlogapi

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/go-querystring/query"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "backlogmcp/server/pkg/backlogapi"
	contentType         = "application/json"
	maxBodySize         = 32 << 20
)

// Body is a request payload that writes itself as JSON.
type Body interface {
	Encode(e *jx.Encoder)
}

// Client issues requests against a fixed base URL.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	tracer   trace.Tracer
	requests metric.Int64Counter
}

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	httpClient     *http.Client
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// WithHTTPClient sets the underlying HTTP client. Its Timeout is the only
// deadline applied to upstream calls.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *clientConfig) {
		if c != nil {
			cfg.httpClient = c
		}
	}
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(cfg *clientConfig) {
		if tp != nil {
			cfg.tracerProvider = tp
		}
	}
}

// WithMeterProvider overrides the global meter provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(cfg *clientConfig) {
		if mp != nil {
			cfg.meterProvider = mp
		}
	}
}

// NewClient creates a client. baseURL gets a trailing slash if it lacks one.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	cfg := clientConfig{
		httpClient:     http.DefaultClient,
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	c := &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: cfg.httpClient,
		tracer:     cfg.tracerProvider.Tracer(instrumentationName),
	}
	// A failed instrument registration leaves a no-op counter in place.
	c.requests, _ = cfg.meterProvider.Meter(instrumentationName).Int64Counter(
		"backlog.client.requests",
		metric.WithDescription("Upstream Backlog requests by method and status"),
	)
	return c
}

func (c *Client) headers() (http.Header, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	h := make(http.Header, 3)
	h.Set("Accept", contentType)
	h.Set("Content-Type", contentType)
	h.Set("X-Api-Key", c.apiKey)
	return h, nil
}

// buildURL joins path onto the base URL. path must already be escaped.
func (c *Client) buildURL(path string, q any) (string, error) {
	values := url.Values{}
	if q != nil {
		v, err := query.Values(q)
		if err != nil {
			return "", errors.Wrap(err, "encode query")
		}
		values = v
	}
	values.Set("apiKey", c.apiKey)
	return c.baseURL + strings.TrimPrefix(path, "/") + "?" + values.Encode(), nil
}

// Response is one successful exchange. Body is nil for 204 and 205.
type Response struct {
	Status int
	Body   jx.Raw
}

// Do performs one exchange. Only 2xx responses are returned without an
// error. q is encoded with go-querystring and may be nil.
func (c *Client) Do(ctx context.Context, method, path string, q any, body Body) (*Response, error) {
	header, err := c.headers()
	if err != nil {
		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, "backlog "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("backlog.path", path),
		),
	)
	defer span.End()

	raw, status, err := c.do(ctx, method, path, q, body, header)
	c.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.Int("status", status),
	))
	if status != 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", status))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return &Response{Status: status, Body: raw}, nil
}

func (c *Client) do(ctx context.Context, method, path string, q any, body Body, header http.Header) (jx.Raw, int, error) {
	u, err := c.buildURL(path, q)
	if err != nil {
		return nil, 0, err
	}

	var reader io.Reader
	if body != nil {
		e := &jx.Encoder{}
		body.Encode(e)
		reader = bytes.NewReader(e.Bytes())
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, 0, errors.Wrap(err, "build request")
	}
	req.Header = header

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, 0, &TransportError{Method: method, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, resp.StatusCode, &TransportError{Method: method, Err: errors.Wrap(err, "read body")}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, resp.StatusCode, &RateLimitError{RetryAfter: resp.Header.Get("Retry-After"), Body: data}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, resp.StatusCode, &RequestError{Method: method, Path: path, Status: resp.StatusCode, Body: data}
	case resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusResetContent:
		return nil, resp.StatusCode, nil
	}

	if err := jx.DecodeBytes(data).Validate(); err != nil {
		return nil, resp.StatusCode, &DecodeError{Status: resp.StatusCode, Err: err}
	}
	return jx.Raw(data), resp.StatusCode, nil
}
