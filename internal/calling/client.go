// Package calling submits outbound-call requests to the calling provider.
package calling

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

	"github.com/jonathan/campaign-runner/internal/logging"
	"github.com/jonathan/campaign-runner/internal/types"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// CallPath is the call-creation endpoint relative to the API base URL.
const CallPath = "/api/calling"

// maxErrorBody caps how much of an error response is kept in messages.
const maxErrorBody = 512

// Options configures the client.
type Options struct {
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     logging.Logger
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() *Options {
	return &Options{Timeout: DefaultTimeout}
}

// Client places calls through the provider's call-creation endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     logging.Logger
}

// NewClient creates a client for the API at baseURL.
func NewClient(baseURL string, opts *Options) (*Client, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &Error{URL: baseURL, Message: "invalid API URL", Cause: err}
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	return &Client{
		endpoint:   strings.TrimRight(baseURL, "/") + CallPath,
		httpClient: httpClient,
		logger:     logger.With(logging.String("component", "calling")),
	}, nil
}

// callCreated is the subset of the provider's response the runner uses.
type callCreated struct {
	CallID string `json:"call_id"`
}

// Initiate sends exactly one call-creation request. It never retries. Any
// transport error, invalid request or non-2xx response is reported as an
// unsuccessful CallResponse; the call cannot be retracted once accepted.
func (c *Client) Initiate(ctx context.Context, req types.CallRequest) types.CallResponse {
	if req.CalleeInfo == nil {
		req.CalleeInfo = map[string]string{}
	}

	c.logger.Info("initiating call", logging.String("phone", req.PhoneNumber))

	callID, err := c.initiate(ctx, req)
	if err != nil {
		c.logger.Error("call initiation failed", err, logging.String("phone", req.PhoneNumber))
		return types.CallResponse{Success: false, Error: err.Error()}
	}

	c.logger.Info("call initiated", logging.String("phone", req.PhoneNumber), logging.String("call_id", callID))
	return types.CallResponse{Success: true, CallID: callID}
}

func (c *Client) initiate(ctx context.Context, req types.CallRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", &Error{URL: c.endpoint, Message: "invalid call request", Cause: err}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", &Error{URL: c.endpoint, Message: "failed to encode request", Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &Error{URL: c.endpoint, Message: "failed to create request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &Error{URL: c.endpoint, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{URL: c.endpoint, StatusCode: resp.StatusCode, Message: "failed to read response body", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &Error{
			URL:        c.endpoint,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP status %d: %s", resp.StatusCode, truncate(string(respBody), maxErrorBody)),
		}
	}

	// A 2xx means the provider accepted the call. An undecodable body only
	// loses the call id; transcript matching can still fall back to phone
	// number and time.
	var created callCreated
	if err := json.Unmarshal(respBody, &created); err != nil {
		c.logger.Warn("call accepted without a readable call id",
			logging.Int("status", resp.StatusCode), logging.Err(err))
		return "", nil
	}
	return created.CallID, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
