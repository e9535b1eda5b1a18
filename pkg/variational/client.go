package variational

import (
	"context"
	"net/http"
	"strings"
	"time"
)

const (
	MainnetURL = "https://api.variational.io/v1"
	TestnetURL = "https://api.testnet.variational.io/v1"

	// RateLimitResetHeader carries the milliseconds until the rate-limit window resets.
	RateLimitResetHeader = "x-rate-limit-resets-in-ms"
	// RequestReceivedHeader carries the server receive time in epoch milliseconds.
	RequestReceivedHeader = "x-request-received-ms"

	defaultHTTPTimeout = 30 * time.Second
)

// RateLimitSignal names the response header announcing when a 429 may be
// retried. Relative headers hold milliseconds until reset; absolute headers
// hold the reset instant in epoch milliseconds.
type RateLimitSignal struct {
	Header   string
	Absolute bool
}

// Client issues signed requests against the Variational REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	signer     RequestSigner
	clock      func() time.Time
	sleep      func(context.Context, time.Duration) error

	retryRateLimits     bool
	maxRateLimitRetries int
	rateLimit           RateLimitSignal
	backoff             BackoffConfig
	jitterSource        func() float64
}

// ClientOption customises the Variational client.
type ClientOption func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithBaseURL points the client at another deployment, e.g. TestnetURL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/"); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithTestnet switches between the testnet and mainnet endpoints.
func WithTestnet(testnet bool) ClientOption {
	return func(c *Client) {
		if testnet {
			c.baseURL = TestnetURL
		} else {
			c.baseURL = MainnetURL
		}
	}
}

// WithRequestTimeout sets the per-attempt HTTP timeout.
func WithRequestTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			clone := *c.httpClient
			clone.Timeout = timeout
			c.httpClient = &clone
		}
	}
}

// WithRateLimitRetries toggles transparent retries on HTTP 429 (default on).
func WithRateLimitRetries(enabled bool) ClientOption {
	return func(c *Client) {
		c.retryRateLimits = enabled
	}
}

// WithMaxRateLimitRetries caps consecutive 429 retries per call. Zero means
// no cap, which is the default.
func WithMaxRateLimitRetries(n int) ClientOption {
	return func(c *Client) {
		if n >= 0 {
			c.maxRateLimitRetries = n
		}
	}
}

// WithRateLimitSignal changes which header announces the rate-limit reset.
func WithRateLimitSignal(signal RateLimitSignal) ClientOption {
	return func(c *Client) {
		if strings.TrimSpace(signal.Header) != "" {
			c.rateLimit = signal
		}
	}
}

// WithBackoff overrides the extra delay added on top of the reset floor.
func WithBackoff(cfg BackoffConfig) ClientOption {
	return func(c *Client) {
		c.backoff = cfg.normalised()
	}
}

// WithClock overrides the time source (primarily for testing).
func WithClock(clock func() time.Time) ClientOption {
	return func(c *Client) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithSleeper overrides how the client waits between retries.
func WithSleeper(sleep func(context.Context, time.Duration) error) ClientOption {
	return func(c *Client) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

// WithSigner replaces the HMAC signer, e.g. to delegate to a key vault.
func WithSigner(signer RequestSigner) ClientOption {
	return func(c *Client) {
		if signer != nil {
			c.signer = signer
		}
	}
}

// NewClient constructs a client authenticating with the given API key and
// hex-encoded secret.
func NewClient(key, secret string, opts ...ClientOption) (*Client, error) {
	signer, err := NewHMACSigner(key, secret)
	if err != nil {
		return nil, err
	}
	client := &Client{
		baseURL: MainnetURL,
		httpClient: &http.Client{
			Timeout: defaultHTTPTimeout,
		},
		signer:          signer,
		clock:           time.Now,
		sleep:           SleepContext,
		retryRateLimits: true,
		rateLimit:       RateLimitSignal{Header: RateLimitResetHeader},
		backoff:         DefaultBackoff(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// SleepContext waits for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
