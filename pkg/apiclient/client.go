package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrymomot/billingkit/pkg/logger"
	"github.com/dmitrymomot/billingkit/pkg/requestid"
)

const maxBodySize = 10 << 20

// Response is the envelope of a successful call. Data holds the raw body.
type Response struct {
	StatusCode int
	Header     http.Header
	Data       json.RawMessage
}

// Decode unmarshals the body into v. Failures wrap ErrMalformedBody.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedBody, err)
	}
	return nil
}

// Client issues JSON requests to the billing API.
// Non-2xx responses are returned as *ResponseError, transport failures as
// *NoResponseError, and failures to build a request as *RequestError.
type Client struct {
	baseURL    *url.URL
	resolver   Resolver
	httpClient *http.Client
	token      string
	headers    http.Header
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Its transport is used as is, so
// request IDs are only sent when it already wraps requestid.Transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithResolver replaces the resolver built from the config paths.
func WithResolver(r Resolver) Option {
	return func(c *Client) {
		if r != nil {
			c.resolver = r
		}
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		if key != "" && value != "" {
			c.headers.Set(key, value)
		}
	}
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client for cfg.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	c := &Client{
		baseURL:  base,
		resolver: NewPathResolver(cfg.Prefix, cfg.Paths),
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: requestid.NewTransport(http.DefaultTransport),
		},
		token:   cfg.Token,
		headers: make(http.Header),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(logger.Component("apiclient"))

	return c, nil
}

// URL returns the absolute URL of ep.
func (c *Client) URL(ep Endpoint) (string, error) {
	path, err := c.resolver.Resolve(ep.Resource)
	if err != nil {
		return "", err
	}
	elems := make([]string, 0, len(ep.Segments)+1)
	elems = append(elems, path)
	for _, s := range ep.Segments {
		switch s {
		case "", ".", "..":
			return "", fmt.Errorf("%w %q in %s", ErrInvalidSegment, s, ep)
		}
		elems = append(elems, url.PathEscape(s))
	}
	return c.baseURL.JoinPath(elems...).String(), nil
}

// Get fetches ep.
func (c *Client) Get(ctx context.Context, ep Endpoint) (*Response, error) {
	return c.do(ctx, http.MethodGet, ep, nil)
}

// Post sends body as JSON to ep.
func (c *Client) Post(ctx context.Context, ep Endpoint, body any) (*Response, error) {
	return c.do(ctx, http.MethodPost, ep, body)
}

func (c *Client) do(ctx context.Context, method string, ep Endpoint, body any) (*Response, error) {
	target, err := c.URL(ep)
	if err != nil {
		return nil, &RequestError{Method: method, Endpoint: ep.String(), Err: err}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, &RequestError{Method: method, Endpoint: ep.String(), Err: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, &RequestError{Method: method, Endpoint: ep.String(), Err: err}
	}
	for k, v := range c.headers {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NoResponseError{Method: method, URL: target, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &NoResponseError{Method: method, URL: target, Err: err}
	}

	c.logger.DebugContext(ctx, "billing api call",
		slog.String("method", method),
		logger.Resource(string(ep.Resource)),
		logger.StatusCode(resp.StatusCode),
		logger.Duration(time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ResponseError{
			Method:     method,
			URL:        target,
			StatusCode: resp.StatusCode,
			Body:       data,
			Detail:     detailOf(data),
			RequestID:  sentRequestID(req, resp),
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Data:       data,
	}, nil
}

// sentRequestID returns the request ID on the wire, which the transport may
// have added after req was built.
func sentRequestID(req *http.Request, resp *http.Response) string {
	if resp.Request != nil {
		if id := resp.Request.Header.Get(requestid.Header); id != "" {
			return id
		}
	}
	return req.Header.Get(requestid.Header)
}
