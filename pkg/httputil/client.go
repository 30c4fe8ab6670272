package httputil

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/wonny/compsync/pkg/config"
	"github.com/wonny/compsync/pkg/logger"
)

const userAgent = "compsync/1.0"

// Client is an HTTP client wrapper with logging.
// Requests are attempted exactly once.
// ⭐ SSOT: every outbound HTTP request goes through this client
type Client struct {
	httpClient *http.Client
	logger     *logger.Logger
	headers    http.Header
}

// New creates a new HTTP client from config
// ⭐ SSOT: http.Client instances are only created here
func New(cfg *config.Config, log *logger.Logger) *Client {
	timeout := cfg.MetaTFT.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  log,
		headers: BuildHeaders(nil),
	}
}

// BuildHeaders creates HTTP headers with defaults
func BuildHeaders(custom map[string]string) http.Header {
	headers := http.Header{}
	headers.Set("User-Agent", userAgent)
	headers.Set("Accept", "application/json")

	for key, value := range custom {
		headers.Set(key, value)
	}

	return headers
}

// Get performs a GET request
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create GET request: %w", err)
	}

	return c.do(req)
}

// GetWithParams performs a GET request with query parameters appended to rawURL
func (c *Client) GetWithParams(ctx context.Context, rawURL string, params url.Values) (*http.Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}

	if len(params) > 0 {
		q := u.Query()
		for key, values := range params {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	return c.Get(ctx, u.String())
}

// do executes the request once with logging
func (c *Client) do(req *http.Request) (*http.Response, error) {
	startTime := time.Now()
	reqURL := req.URL.String()
	method := req.Method

	for key, values := range c.headers {
		if req.Header.Get(key) == "" {
			req.Header[key] = values
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"method": method,
		"url":    reqURL,
	}).Debug("HTTP request started")

	resp, err := c.httpClient.Do(req)

	duration := time.Since(startTime)

	if err != nil {
		c.logger.WithFields(map[string]interface{}{
			"method":   method,
			"url":      reqURL,
			"duration": duration,
			"error":    err.Error(),
		}).Error("HTTP request failed")
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"method":      method,
		"url":         reqURL,
		"status_code": resp.StatusCode,
		"duration":    duration,
	}).Debug("HTTP request completed")

	return resp, nil
}
