package platform

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog"

	"github.com/rflorenc/substrate-reconciler/internal/models"
)

// APIError is a non-2xx response from the management plane.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.Status, truncate(e.Body, 200))
}

// IsNotFound reports whether err is a 404 from the management plane.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Client is an authenticated JSON client for the management plane v3 API.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	attempts   uint
	retryDelay time.Duration
	log        zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithRetry sets how many times transport errors and 5xx responses are
// attempted. attempts below 1 are treated as 1.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(c *Client) {
		c.attempts = max(attempts, 1)
		c.retryDelay = delay
	}
}

// WithTimeout sets a per-request timeout. Zero means none.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithLogger sets the logger used for request tracing and retries.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// NewClient creates a Client for the given endpoint.
func NewClient(ep *models.Endpoint, opts ...Option) *Client {
	transport := &http.Transport{}
	if ep.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	} else if ep.CACert != "" {
		caCertPool := x509.NewCertPool()
		if caCertPool.AppendCertsFromPEM([]byte(ep.CACert)) {
			transport.TLSClientConfig = &tls.Config{RootCAs: caCertPool}
		}
	}
	c := &Client{
		baseURL:  ep.BaseURL(),
		username: ep.Username,
		password: ep.Password,
		httpClient: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Re-apply basic auth on redirects
				if len(via) > 0 {
					req.SetBasicAuth(ep.Username, ep.Password)
				}
				return nil
			},
		},
		attempts:   3,
		retryDelay: 500 * time.Millisecond,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do sends one request, retrying transport errors and 5xx responses. 4xx
// responses fail immediately.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var data []byte
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshaling body: %w", err)
		}
	}

	var body []byte
	err := retry.Do(
		func() error {
			var bodyReader io.Reader
			if data != nil {
				bodyReader = bytes.NewReader(data)
			}
			req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("creating request: %w", err))
			}
			req.SetBasicAuth(c.username, c.password)
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Accept", "application/json")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("%s %s: %w", method, path, err)
			}
			defer resp.Body.Close()

			body, err = io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("reading response: %w", err)
			}
			c.log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Msg("api call")

			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				apiErr := &APIError{Method: method, Path: path, Status: resp.StatusCode, Body: string(body)}
				if resp.StatusCode >= 500 {
					return apiErr
				}
				return retry.Unrecoverable(apiErr)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			c.log.Warn().Err(err).Uint("attempt", attempt+1).Msgf("retrying %s %s", method, path)
		}),
	)
	if err != nil {
		return body, err
	}
	return body, nil
}

// Get performs an authenticated GET request and returns the response body.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// GetJSON performs an authenticated GET and unmarshals the response into dest.
func (c *Client) GetJSON(ctx context.Context, path string, dest any) error {
	body, err := c.Get(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("parsing response of GET %s: %w", path, err)
	}
	return nil
}

// Post performs an authenticated POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, payload any) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, payload)
}

// PostJSON performs an authenticated POST and unmarshals the response into dest.
func (c *Client) PostJSON(ctx context.Context, path string, payload, dest any) error {
	body, err := c.Post(ctx, path, payload)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("parsing response of POST %s: %w", path, err)
	}
	return nil
}

// Put performs an authenticated PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, payload any) ([]byte, error) {
	return c.do(ctx, http.MethodPut, path, payload)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
