// Package api provides the HTTP client for the streaming chat endpoint.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/google/uuid"

	apierrors "github.com/diogo/streamchat/internal/errors"
	"github.com/diogo/streamchat/internal/models"
)

// DefaultEndpoint is used when no endpoint is configured
const DefaultEndpoint = "http://localhost:8080/api/chat"

// maxErrorBody limits how much of a failed response is kept for diagnostics
const maxErrorBody = 4096

// ChatClientInterface defines the operations the chat pipeline needs
type ChatClientInterface interface {
	// StreamChat posts the history and returns the streamed response body.
	// The caller must close the returned body.
	StreamChat(ctx context.Context, history []models.Message) (io.ReadCloser, error)
	Endpoint() string
	Close()
	IsClosed() bool
}

// Client posts chat histories to an endpoint and hands back the body stream
type Client struct {
	httpClient tls_client.HttpClient
	endpoint   string
	timeout    time.Duration
	profile    profiles.ClientProfile
	headers    map[string]string
	logger     *slog.Logger
	mu         sync.RWMutex
	closed     bool
}

// Ensure Client implements ChatClientInterface
var _ ChatClientInterface = (*Client)(nil)

// ClientOption is a function that configures the client
type ClientOption func(*Client)

// WithEndpoint sets the chat endpoint URL
func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithTimeout sets an overall request timeout. Zero, the default, means the
// request and the stream may block until the transport resolves.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithClientProfile sets the TLS fingerprint profile used by the transport
func WithClientProfile(profile profiles.ClientProfile) ClientOption {
	return func(c *Client) {
		c.profile = profile
	}
}

// WithHeader adds a header sent with every request
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithLogger sets the logger used for request diagnostics
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient injects the underlying HTTP client (used by tests)
func WithHTTPClient(httpClient tls_client.HttpClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// ProfileFromName resolves a client profile such as "chrome_120"
func ProfileFromName(name string) (profiles.ClientProfile, bool) {
	profile, ok := profiles.MappedTLSClients[strings.ToLower(name)]
	return profile, ok
}

// NewClient creates a new Client
func NewClient(opts ...ClientOption) (*Client, error) {
	client := &Client{
		endpoint: DefaultEndpoint,
		profile:  profiles.Chrome_120,
		headers:  make(map[string]string),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.httpClient == nil {
		options := []tls_client.HttpClientOption{
			tls_client.WithTimeoutSeconds(int(client.timeout / time.Second)),
			tls_client.WithClientProfile(client.profile),
			tls_client.WithNotFollowRedirects(),
		}

		httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		client.httpClient = httpClient
	}

	return client, nil
}

// Endpoint returns the chat endpoint URL
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Close shuts down idle connections. Streams already handed out stay readable.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.httpClient.CloseIdleConnections()
}

// IsClosed returns whether the client is closed
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// StreamChat posts {"messages": history} and returns the response body
func (c *Client) StreamChat(ctx context.Context, history []models.Message) (io.ReadCloser, error) {
	if c.IsClosed() {
		return nil, apierrors.ErrClientClosed
	}

	payload, err := json.Marshal(models.NewChatRequest(history))
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("X-Request-ID", requestID)
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	c.logger.Debug("sending chat request",
		"endpoint", c.endpoint,
		"request_id", requestID,
		"messages", len(history),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apierrors.NewNetworkError("stream chat", c.endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body []byte
		if resp.Body != nil {
			body, _ = io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			_ = resp.Body.Close()
		}
		c.logger.Warn("chat request rejected",
			"endpoint", c.endpoint,
			"request_id", requestID,
			"status", resp.StatusCode,
		)
		return nil, apierrors.NewAPIErrorWithBody(resp.StatusCode, c.endpoint, errorMessage(resp.StatusCode, body), string(body))
	}

	if resp.Body == nil {
		return nil, apierrors.ErrNoBody
	}

	c.logger.Debug("chat stream opened",
		"request_id", requestID,
		"content_type", resp.Header.Get("Content-Type"),
	)

	return resp.Body, nil
}
