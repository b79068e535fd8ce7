// Package api is a typed client for the memory server's HTTP API.
//
// Every call attaches the current bearer credential when there is one and
// turns non-2xx responses into *Error. The client never retries and never
// mutates the credential it reads.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rcliao/synapse/internal/logging"
)

// Credentials supplies the bearer token for each request. An empty token
// means the request is sent without an Authorization header.
type Credentials interface {
	Get() string
}

// StaticCredentials is a fixed token, mostly useful in tests and scripts.
type StaticCredentials string

func (s StaticCredentials) Get() string { return string(s) }

// Client talks to the memory API.
type Client struct {
	baseURL string
	creds   Credentials
	http    *http.Client
	log     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets an overall per-request timeout. Zero means none.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = logging.OrNop(l) }
}

// New creates a client for the API rooted at baseURL. Request paths are
// appended to baseURL, so a base with a path prefix is preserved.
func New(baseURL string, creds Credentials, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	if creds == nil {
		creds = StaticCredentials("")
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		creds:   creds,
		http:    &http.Client{},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API root the client was created with.
func (c *Client) BaseURL() string { return c.baseURL }

// param is one query-string pair. Order is preserved on the wire.
type param struct {
	key   string
	value string
}

type params []param

// add appends key=value unless value is empty.
func (p params) add(key, value string) params {
	if value == "" {
		return p
	}
	return append(p, param{key: key, value: value})
}

func (p params) encode() string {
	if len(p) == 0 {
		return ""
	}
	parts := make([]string, 0, len(p))
	for _, kv := range p {
		parts = append(parts, url.QueryEscape(kv.key)+"="+url.QueryEscape(kv.value))
	}
	return "?" + strings.Join(parts, "&")
}

// request describes one API call. At most one of body and files is set.
type request struct {
	method string
	path   string
	query  params
	body   any
	files  []File
}

// do performs r and decodes a successful JSON response into out (when non-nil).
// A 204 response leaves out untouched and is never parsed.
func (c *Client) do(ctx context.Context, r request, out any) error {
	target := c.baseURL + r.path + r.query.encode()

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case r.files != nil:
		body, contentType = multipartBody(r.files)
	case r.body != nil:
		b, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", r.method, r.path, err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", r.method, r.path, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token := c.creds.Get(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed",
			zap.String("method", r.method),
			zap.String("path", r.path),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()

	c.log.Debug("request",
		zap.String("method", r.method),
		zap.String("path", r.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errorFromResponse(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", r.method, r.path, err)
	}
	return nil
}

// pathf builds a path with each argument escaped as a single segment.
func pathf(format string, ids ...string) string {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = url.PathEscape(id)
	}
	return fmt.Sprintf(format, args...)
}
