package connection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/catdesk-go/internal/infra/buildinfo"
	"github.com/yndnr/catdesk-go/internal/telemetry/logger"
)

// DefaultTimeout bounds a single request when Options.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// RequestIDHeader carries the per-request ULID.
const RequestIDHeader = "X-Request-ID"

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// TokenSource returns the bearer token to send, or "" to send none.
type TokenSource func() string

type bearerKey struct{}

// WithBearerToken makes requests sent with ctx carry token, taking
// precedence over the client's TokenSource. An empty token sends no
// Authorization header.
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerKey{}, token)
}

// Options configures an HTTPClient.
type Options struct {
	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration

	// RateLimit caps requests per second. Zero disables limiting.
	RateLimit float64

	// UserAgent overrides buildinfo.UserAgent().
	UserAgent string

	// Logger receives one debug line per request.
	Logger logger.Logger

	// Transport overrides http.DefaultTransport; tests use it.
	Transport http.RoundTripper
}

// HTTPClient provides HTTP communication with the catalog server.
type HTTPClient struct {
	baseURL   string
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
	logger    logger.Logger
	token     TokenSource
}

// NewHTTPClient creates a client for server. A server without a scheme is
// assumed to speak https.
func NewHTTPClient(server string, opts Options) *HTTPClient {
	baseURL := strings.TrimRight(strings.TrimSpace(server), "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "https://" + baseURL
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &HTTPClient{
		baseURL:   baseURL,
		client:    &http.Client{Timeout: timeout, Transport: opts.Transport},
		userAgent: opts.UserAgent,
		logger:    opts.Logger,
	}
	if c.userAgent == "" {
		c.userAgent = buildinfo.UserAgent()
	}
	if c.logger == nil {
		c.logger = logger.Default()
	}
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return c
}

// SetTokenSource installs the function consulted for the bearer token on
// every request.
func (c *HTTPClient) SetTokenSource(ts TokenSource) {
	c.token = ts
}

// BaseURL returns the base URL of the client.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, path string) (*http.Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with JSON body.
func (c *HTTPClient) Post(ctx context.Context, path string, body any) (*http.Response, error) {
	return c.Do(ctx, http.MethodPost, path, body)
}

// Put performs a PUT request with JSON body.
func (c *HTTPClient) Put(ctx context.Context, path string, body any) (*http.Response, error) {
	return c.Do(ctx, http.MethodPut, path, body)
}

// Delete performs a DELETE request.
func (c *HTTPClient) Delete(ctx context.Context, path string) (*http.Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil)
}

// Do sends a request, JSON-encoding body when it is non-nil. Transport
// failures are returned as-is; HTTP status is left for the caller.
func (c *HTTPClient) Do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	requestID := ulid.Make().String()
	ctx = logger.WithRequestID(ctx, requestID)
	c.addHeaders(req, c.bearer(ctx), requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	log := c.logger.WithContext(ctx).With("method", method, "path", path)
	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		log.Debug("http request failed", "error", err, "elapsed", time.Since(start))
		return nil, err
	}
	log.Debug("http request", "status", resp.StatusCode, "elapsed", time.Since(start))
	return resp, nil
}

// DoJSON sends a request and decodes a successful response into out.
func (c *HTTPClient) DoJSON(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.Do(ctx, method, path, body)
	if err != nil {
		return err
	}
	return ParseResponse(resp, out)
}

func (c *HTTPClient) bearer(ctx context.Context) string {
	if token, ok := ctx.Value(bearerKey{}).(string); ok {
		return token
	}
	if c.token != nil {
		return c.token()
	}
	return ""
}

// addHeaders adds authentication and common headers.
func (c *HTTPClient) addHeaders(req *http.Request, token, requestID string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(RequestIDHeader, requestID)
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// AsAPIError reports whether err is (or wraps) an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// ParseResponse parses a JSON response body into target. Numbers are kept
// as json.Number when target holds interface values.
func ParseResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var errResp struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if json.Unmarshal(data, &errResp) == nil {
			apiErr.Message = errResp.Message
			if apiErr.Message == "" {
				apiErr.Message = errResp.Error
			}
		}
		return apiErr
	}

	if target == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}
