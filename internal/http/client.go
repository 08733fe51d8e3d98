package http

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

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/fivetwenty-io/easemob/internal/constants"
	"github.com/fivetwenty-io/easemob/pkg/easemob"
)

// TokenManager supplies bearer tokens for authenticated requests.
type TokenManager interface {
	GetToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) error
	SetToken(token string, expiresAt time.Time)
}

// Logger is the logging surface used by the transport.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Client executes requests against <domain>/<org>/<app>.
type Client struct {
	baseURL      string
	httpClient   *retryablehttp.Client
	tokenManager TokenManager
	logger       Logger
	debug        bool
	userAgent    string
	limiter      *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request/response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithRetryConfig enables retries of 429, 5xx and connection errors.
func WithRetryConfig(maxRetries int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = maxRetries
		c.httpClient.RetryWaitMin = waitMin
		c.httpClient.RetryWaitMax = waitMax
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithTimeout bounds each attempt, including reading the response body.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.HTTPClient.Timeout = timeout
	}
}

// WithRateLimit caps outgoing requests at perSecond with the given burst.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil

			return
		}

		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewClient creates a client. A nil tokenManager sends every request
// unauthenticated.
func NewClient(baseURL string, tokenManager TokenManager, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = constants.DefaultRetryMax
	retryClient.RetryWaitMin = constants.DefaultRetryWaitMin
	retryClient.RetryWaitMax = constants.DefaultRetryWaitMax
	retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil

	client := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		httpClient:   retryClient,
		tokenManager: tokenManager,
		userAgent:    constants.DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.logger != nil {
		retryClient.Logger = &leveledLogger{logger: client.logger}
		retryClient.RequestLogHook = client.logRetry
	}

	return client
}

// SetTokenManager installs the token manager after construction. The token
// manager itself sends its exchange through this client.
func (c *Client) SetTokenManager(tokenManager TokenManager) {
	c.tokenManager = tokenManager
}

// BaseURL returns <domain>/<org>/<app>.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// URL resolves path against the base URL.
func (c *Client) URL(path string) string {
	return c.baseURL + "/" + strings.TrimPrefix(path, "/")
}

// MultipartFile is a single file part of a multipart form.
type MultipartFile struct {
	Field    string
	Filename string
	Content  io.Reader
}

// Request represents an HTTP request.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    interface{}
	Headers map[string]string

	// SkipAuth sends the request without an Authorization header.
	SkipAuth bool
	// KeepInternalFields disables stripping bookkeeping fields in Send.
	KeepInternalFields bool
	// SaveTo streams a successful response body to this file.
	SaveTo string
	// Multipart, when set, replaces Body with a multipart form.
	Multipart *MultipartFile
}

// Response represents an HTTP response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Do executes req. Any non-2xx status returns both the response and an
// *easemob.APIError; a transport failure returns an *easemob.APIError with
// status 0 and no response.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	if c.limiter != nil {
		err = c.limiter.Wait(ctx)
		if err != nil {
			return nil, easemob.NewTransportError(err)
		}
	}

	start := time.Now()

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"url":    httpReq.URL.String(),
		})
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if httpResp != nil {
			_ = httpResp.Body.Close()
		}

		return nil, easemob.NewTransportError(err)
	}

	defer func() {
		_ = httpResp.Body.Close()
	}()

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
	}

	success := httpResp.StatusCode >= 200 && httpResp.StatusCode < 300

	if success && req.SaveTo != "" {
		err = saveBody(httpResp.Body, req.SaveTo)
	} else {
		resp.Body, err = io.ReadAll(httpResp.Body)
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"status":   httpResp.StatusCode,
			"duration": time.Since(start).String(),
			"bytes":    len(resp.Body),
		})
	}

	if err != nil {
		return resp, easemob.NewTransportError(err)
	}

	if !success {
		return resp, easemob.NewAPIError(httpResp.StatusCode, resp.Body)
	}

	return resp, nil
}

func (c *Client) buildRequest(ctx context.Context, req *Request) (*retryablehttp.Request, error) {
	body, contentType, err := encodeBody(req)
	if err != nil {
		return nil, err
	}

	target := c.URL(req.Path)
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set(constants.HeaderAccept, constants.ContentTypeJSON)
	httpReq.Header.Set(constants.HeaderUserAgent, c.userAgent)

	if contentType != "" {
		httpReq.Header.Set(constants.HeaderContentType, contentType)
	}

	if !req.SkipAuth && c.tokenManager != nil {
		token, err := c.tokenManager.GetToken(ctx)
		if err != nil {
			return nil, err
		}

		httpReq.Header.Set(constants.HeaderAuthorization, "Bearer "+token)
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	return httpReq, nil
}

// encodeBody returns nil for a request without body so retryablehttp sends
// no Content-Length.
func encodeBody(req *Request) (interface{}, string, error) {
	if req.Multipart != nil {
		return encodeMultipart(req.Multipart)
	}

	if req.Body == nil {
		return nil, "", nil
	}

	data, err := json.Marshal(req.Body)
	if err != nil {
		return nil, "", fmt.Errorf("encoding request body: %w", err)
	}

	return bytes.NewReader(data), constants.ContentTypeJSON, nil
}

// Send executes req and decodes a 2xx JSON body, removing internal fields
// unless req.KeepInternalFields is set.
func (c *Client) Send(ctx context.Context, req *Request) (easemob.Result, error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	result, err := decodeResult(resp)
	if err != nil {
		return nil, err
	}

	if req.KeepInternalFields {
		return result, nil
	}

	return easemob.StripInternalFields(result), nil
}

func decodeResult(resp *Response) (easemob.Result, error) {
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return easemob.Result{}, nil
	}

	var result easemob.Result

	err := json.Unmarshal(resp.Body, &result)
	if err != nil {
		return nil, easemob.WrapAPIError(resp.StatusCode, "decoding response: "+err.Error(), err)
	}

	if result == nil {
		result = easemob.Result{}
	}

	return result, nil
}

func (c *Client) logRetry(_ retryablehttp.Logger, req *http.Request, attempt int) {
	if attempt == 0 {
		return
	}

	c.logger.Warn("Retrying HTTP request", map[string]interface{}{
		"method":  req.Method,
		"url":     req.URL.String(),
		"attempt": attempt,
	})
}
