package provider

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// ErrUnsupportedExchange is returned for exchanges the provider has no
// endpoint for.
var ErrUnsupportedExchange = errors.New("provider: unsupported exchange")

// Streaming endpoints per exchange.
var streamURLs = map[string]string{
	"company": "wss://websockets.financialmodelingprep.com",
	"crypto":  "wss://crypto.financialmodelingprep.com",
	"forex":   "wss://forex.financialmodelingprep.com",
}

const defaultBaseURL = "https://financialmodelingprep.com"

// Client provides access to the Financial Modeling Prep REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
	limiter    *rate.Limiter

	maxRetries   int
	retryBackoff time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new REST API client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:       slog.Default(),
		limiter:      rate.NewLimiter(rate.Limit(10), 10),
		maxRetries:   3,
		retryBackoff: time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the retry configuration.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryBackoff = backoff
	}
}

// WithRateLimit caps outbound requests per second.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// StreamEndpoint returns the websocket URL for an exchange's tick feed.
func (c *Client) StreamEndpoint(exchange string) (string, error) {
	u, ok := streamURLs[exchange]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedExchange, exchange)
	}
	return u, nil
}

// Credential returns the API key feed listeners authenticate with.
func (c *Client) Credential() string {
	return c.apiKey
}
