// package api implements the authenticated HTTP client for the scribe backend.
//
// Every feature service talks to the backend through [Client], which attaches
// the stored bearer token, normalizes response bodies (JSON, text, or empty),
// and transparently runs the refresh-and-replay protocol when an access token
// expires mid-session.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/scribeworks/scribe/internal/shared"
	"github.com/scribeworks/scribe/internal/tokens"
)

const defaultAuthRoot = "/auth"

// Options configures a Client. Zero values fall back to sensible defaults.
type Options struct {
	// BaseURL is the backend root, e.g. "https://api.scribe.example.com".
	BaseURL string

	// AuthRoot is the path prefix for the auth endpoints (default "/auth").
	AuthRoot string

	// HTTPClient defaults to [http.DefaultClient]. Timeouts belong to the
	// injected client; Client itself imposes none.
	HTTPClient *http.Client

	// Tokens defaults to an in-memory store.
	Tokens tokens.Store

	// OnUnauthorized runs exactly once per failed refresh, after the token
	// store has been cleared. The hosting application decides what "go log in
	// again" means; the client itself stays navigation-agnostic.
	OnUnauthorized func()

	// RateLimit caps outgoing requests per second. Zero disables limiting.
	RateLimit float64

	Logger *log.Logger
}

// Client issues requests against the backend with bearer authorization and a
// single refresh-and-replay retry on 401.
type Client struct {
	baseURL        string
	authRoot       string
	httpClient     *http.Client
	tokens         tokens.Store
	onUnauthorized func()
	limiter        *rate.Limiter
	logger         *log.Logger

	// refreshing coalesces concurrent refresh attempts into one HTTP call.
	refreshing singleflight.Group
}

// NewClient creates a Client from the given options.
func NewClient(opts Options) *Client {
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Tokens == nil {
		opts.Tokens = tokens.NewMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.AuthRoot == "" {
		opts.AuthRoot = defaultAuthRoot
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	return &Client{
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		authRoot:       opts.AuthRoot,
		httpClient:     opts.HTTPClient,
		tokens:         opts.Tokens,
		onUnauthorized: opts.OnUnauthorized,
		limiter:        limiter,
		logger:         opts.Logger,
	}
}

// Tokens returns the client's token store.
func (c *Client) Tokens() tokens.Store {
	return c.tokens
}

// AuthRoot returns the path prefix for the auth endpoints.
func (c *Client) AuthRoot() string {
	return c.authRoot
}

// Response is a normalized backend response: exactly one of JSON, Text, or
// Empty describes the body.
type Response struct {
	Status int
	JSON   json.RawMessage // set when the body was JSON
	Text   string          // set when the body was non-JSON text
	Empty  bool            // 204/205 or a 2xx with no body
}

// RequestOption adjusts how a single request is issued.
type RequestOption func(*requestOptions)

type requestOptions struct {
	skipAuth bool
	noRetry  bool
	headers  http.Header
}

// SkipAuth omits the Authorization header and exempts the request from the
// 401 refresh-retry policy. Used by the endpoints that establish or renew
// credentials themselves, which must never recurse into refresh handling.
func SkipAuth() RequestOption {
	return func(o *requestOptions) { o.skipAuth = true }
}

// NoRetry attaches the bearer token when one is stored but exempts the
// request from the 401 refresh-retry policy. Used by passive session checks
// where a 401 means "visitor", not "refresh and try again".
func NoRetry() RequestOption {
	return func(o *requestOptions) { o.noRetry = true }
}

// WithHeader sets a header on the request, overriding the JSON defaults.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = http.Header{}
		}
		o.headers.Set(key, value)
	}
}

// Do issues a request and decodes the normalized response into out.
//
// The request body may be nil, a []byte sent as-is, or any JSON-marshalable
// value. out may be nil (response discarded), a *string for text responses,
// or a pointer for JSON decoding. Empty 2xx responses leave out untouched.
func (c *Client) Do(ctx context.Context, method, endpoint string, body, out any, opts ...RequestOption) error {
	resp, err := c.Raw(ctx, method, endpoint, body, opts...)
	if err != nil {
		return err
	}
	return decode(resp, out)
}

// Get issues an authenticated GET request.
func (c *Client) Get(ctx context.Context, endpoint string, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodGet, endpoint, nil, out, opts...)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, endpoint string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPost, endpoint, body, out, opts...)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, endpoint string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPut, endpoint, body, out, opts...)
}

// Delete issues an authenticated DELETE request.
func (c *Client) Delete(ctx context.Context, endpoint string, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodDelete, endpoint, nil, out, opts...)
}

// Raw issues a request and returns the normalized response without decoding.
//
// A 401 on an auth'd request triggers one refresh-and-replay cycle; the
// replayed response goes through the same normalization as the original.
// Exactly one retry is attempted per request, so a request costs at most two
// HTTP calls.
func (c *Client) Raw(ctx context.Context, method, endpoint string, body any, opts ...RequestOption) (*Response, error) {
	options := requestOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	req := &request{
		id:       shared.GenerateID(),
		method:   method,
		endpoint: endpoint,
		body:     payload,
		headers:  options.headers,
	}

	resp, err := c.send(ctx, req, !options.skipAuth)
	if err == nil {
		return resp, nil
	}

	apiErr, ok := err.(*Error)
	if !ok || apiErr.Kind != KindUnauthorized || options.skipAuth || options.noRetry {
		return nil, err
	}

	c.logger.Debug("access token rejected, refreshing", "method", method, "endpoint", endpoint, "request_id", req.id)

	if err := c.refreshTokens(ctx); err != nil {
		return nil, newError(KindSessionExpired, http.StatusUnauthorized, "session expired, please log in again")
	}

	// A 401 on the replay is unrecoverable; it propagates as-is without
	// another refresh attempt.
	return c.send(ctx, req, true)
}

// request captures everything needed to issue (and replay) one HTTP call.
type request struct {
	id       string
	method   string
	endpoint string
	body     []byte
	headers  http.Header
}

// send performs one HTTP call and normalizes the result.
func (c *Client) send(ctx context.Context, req *request, attachToken bool) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, wrapError(KindTransport, "request canceled", err)
		}
	}

	var reader io.Reader
	if req.body != nil {
		reader = bytes.NewReader(req.body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.endpoint, reader)
	if err != nil {
		return nil, wrapError(KindTransport, "failed to create request", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", req.id)
	for key, values := range req.headers {
		httpReq.Header.Del(key)
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	if attachToken {
		if pair, ok := c.tokens.Pair(); ok {
			httpReq.Header.Set("Authorization", "Bearer "+pair.Access)
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, wrapError(KindTransport, "request failed", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("request", "method", req.method, "endpoint", req.endpoint, "status", resp.StatusCode, "request_id", req.id)

	if resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusResetContent {
		return &Response{Status: resp.StatusCode, Empty: true}, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wrapError(KindTransport, "failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		kind := KindValidation
		if resp.StatusCode == http.StatusUnauthorized {
			kind = KindUnauthorized
		}
		return nil, newError(kind, resp.StatusCode, errorMessage(resp.StatusCode, body))
	}

	if len(body) == 0 {
		return &Response{Status: resp.StatusCode, Empty: true}, nil
	}

	if isJSONContent(resp.Header.Get("Content-Type")) {
		if !json.Valid(body) {
			return nil, newError(KindDecode, resp.StatusCode, "invalid server response")
		}
		return &Response{Status: resp.StatusCode, JSON: body}, nil
	}

	return &Response{Status: resp.StatusCode, Text: string(body)}, nil
}

// encodeBody marshals a request body. []byte payloads (file uploads, raw
// passthrough) are sent untouched.
func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, wrapError(KindDecode, "failed to encode request body", err)
		}
		return data, nil
	}
}

// decode maps a normalized response onto the caller's output value.
func decode(resp *Response, out any) error {
	if out == nil || resp.Empty {
		return nil
	}

	if resp.JSON != nil {
		if err := json.Unmarshal(resp.JSON, out); err != nil {
			return wrapError(KindDecode, "invalid server response", err)
		}
		return nil
	}

	if target, ok := out.(*string); ok {
		*target = resp.Text
		return nil
	}
	return newError(KindDecode, resp.Status, fmt.Sprintf("expected JSON response, got %q", resp.Text))
}

// isJSONContent reports whether a Content-Type header denotes a JSON body.
func isJSONContent(contentType string) bool {
	mediaType := strings.TrimSpace(strings.Split(contentType, ";")[0])
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
