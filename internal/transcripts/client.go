// Package transcripts retrieves provider transcripts, reconciles them with
// the calls that produced them, and renders their conversation content.
package transcripts

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

// APIKeyHeader carries the static provider key.
const APIKeyHeader = "X-API-Key"

// Options configures the client.
type Options struct {
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     logging.Logger
	// OnListError is called whenever a listing fetch fails and is treated as empty.
	OnListError func(error)
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() *Options {
	return &Options{Timeout: DefaultTimeout}
}

// ContentClient downloads transcript payloads. Transcript URLs are
// self-contained, so it needs no account credentials.
type ContentClient struct {
	httpClient *http.Client
	logger     logging.Logger
}

// NewContentClient creates a ContentClient.
func NewContentClient(opts *Options) *ContentClient {
	if opts == nil {
		opts = DefaultOptions()
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

	return &ContentClient{
		httpClient: httpClient,
		logger:     logger.With(logging.String("component", "transcripts")),
	}
}

// Client talks to the transcript service.
type Client struct {
	*ContentClient
	listURL     string
	apiKey      string
	onListError func(error)
}

// NewClient creates a client listing transcripts for userUID under baseURL.
func NewClient(baseURL, userUID, apiKey string, opts *Options) (*Client, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &FetchError{URL: baseURL, Message: "invalid transcript API URL", Cause: err}
	}
	if userUID == "" {
		return nil, fmt.Errorf("user UID is required")
	}

	return &Client{
		ContentClient: NewContentClient(opts),
		listURL:       fmt.Sprintf("%s/api/users/%s/transcripts", strings.TrimRight(baseURL, "/"), url.PathEscape(userUID)),
		apiKey:        apiKey,
		onListError:   opts.OnListError,
	}, nil
}

// List returns every transcript currently visible to the account. It never
// fails: a transport, status or decoding error yields an empty slice, so
// callers cannot tell "none yet" from "fetch failed".
func (c *Client) List(ctx context.Context) []types.TranscriptRecord {
	records, err := c.fetchList(ctx)
	if err != nil {
		c.logger.Error("error fetching transcripts", err)
		if c.onListError != nil {
			c.onListError(err)
		}
		return []types.TranscriptRecord{}
	}
	if records == nil {
		return []types.TranscriptRecord{}
	}
	return records
}

func (c *Client) fetchList(ctx context.Context) ([]types.TranscriptRecord, error) {
	body, err := c.get(ctx, c.listURL, map[string]string{
		"Content-Type": "application/json",
		APIKeyHeader:   c.apiKey,
	})
	if err != nil {
		return nil, err
	}
	records, err := decodeListing(body)
	if err != nil {
		return nil, &FetchError{URL: c.listURL, Message: "failed to decode transcript listing", Cause: err}
	}
	return records, nil
}

// decodeListing accepts either a bare array or an object with a
// "transcripts" array.
func decodeListing(body []byte) ([]types.TranscriptRecord, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var records []types.TranscriptRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, err
		}
		return records, nil
	}

	var wrapped struct {
		Transcripts []types.TranscriptRecord `json:"transcripts"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Transcripts == nil {
		return []types.TranscriptRecord{}, nil
	}
	return wrapped.Transcripts, nil
}

// FetchContent downloads the raw line-delimited payload at transcriptURL.
func (c *ContentClient) FetchContent(ctx context.Context, transcriptURL string) (string, error) {
	parsed, err := url.Parse(transcriptURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", &FetchError{URL: transcriptURL, Message: "invalid transcript URL", Cause: err}
	}
	body, err := c.get(ctx, transcriptURL, map[string]string{"Accept": "text/plain"})
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Conversation downloads and renders the transcript at transcriptURL. Any
// failure yields an empty conversation.
func (c *ContentClient) Conversation(ctx context.Context, transcriptURL string) string {
	payload, err := c.FetchContent(ctx, transcriptURL)
	if err != nil {
		c.logger.Error("error fetching transcript content", err)
		return ""
	}
	return ExtractConversation(payload)
}

func (c *ContentClient) get(ctx context.Context, target string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &FetchError{URL: target, Message: "failed to create request", Cause: err}
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: target, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: target, StatusCode: resp.StatusCode, Message: "failed to read response body", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{
			URL:        target,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP status %d", resp.StatusCode),
		}
	}
	return body, nil
}
