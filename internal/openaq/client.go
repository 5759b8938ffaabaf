package openaq

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	defaultRetryDelay  = 5 * time.Second
	defaultMaxAttempts = 4
)

// ClientConfig configures a Client. Zero values get sensible defaults.
type ClientConfig struct {
	BaseURL string
	APIKey  string

	// RequestDelay paces successive requests regardless of outcome. It is
	// process-global: one limiter serves every caller of this client.
	RequestDelay time.Duration

	// RetryDelay is the base of the backoff schedule: attempt n sleeps
	// RetryDelay * 2^n before the next try.
	RetryDelay time.Duration

	// MaxAttempts bounds the total request count per Get call.
	MaxAttempts int

	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Client issues GET requests against the OpenAQ API, one in flight at a
// time, retrying 429 and network-level failures with exponential backoff.
type Client struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	limiter     *rate.Limiter
	retryDelay  time.Duration
	maxAttempts int
	log         zerolog.Logger

	// sleep is swapped out in tests to observe the backoff schedule.
	sleep func(context.Context, time.Duration) error
}

// NewClient builds a Client from cfg.
func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	limit := rate.Inf
	if cfg.RequestDelay > 0 {
		limit = rate.Every(cfg.RequestDelay)
	}

	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	return &Client{
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		httpClient:  httpClient,
		limiter:     rate.NewLimiter(limit, 1),
		retryDelay:  retryDelay,
		maxAttempts: maxAttempts,
		log:         cfg.Logger,
		sleep:       sleepCtx,
	}
}

// Get requests one endpoint and decodes the response envelope. 429 and
// network errors are retried up to the attempt budget; any other non-2xx
// status fails immediately.
func (c *Client) Get(ctx context.Context, endpoint string, params url.Values) (Envelope, error) {
	var (
		lastErr     error
		rateLimited bool
	)

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return Envelope{}, err
		}

		env, retryable, err := c.do(ctx, endpoint, params)
		if err == nil {
			return env, nil
		}
		if !retryable {
			return Envelope{}, err
		}

		_, rateLimited = err.(*tooManyRequests)
		lastErr = err

		if attempt == c.maxAttempts-1 {
			break
		}

		wait := backoffDelay(c.retryDelay, attempt)
		c.log.Warn().
			Str("endpoint", endpoint).
			Int("attempt", attempt+1).
			Dur("wait", wait).
			Bool("rate_limited", rateLimited).
			Msg("upstream request failed, retrying")

		if err := c.sleep(ctx, wait); err != nil {
			return Envelope{}, err
		}
	}

	if rateLimited {
		return Envelope{}, &RateLimitError{Endpoint: endpoint, Attempts: c.maxAttempts}
	}
	return Envelope{}, &TransientError{Endpoint: endpoint, Attempts: c.maxAttempts, Err: lastErr}
}

// do performs a single attempt. The bool reports whether the failure may be
// retried.
func (c *Client) do(ctx context.Context, endpoint string, params url.Values) (Envelope, bool, error) {
	u := c.baseURL + "/" + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Envelope{}, false, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Envelope{}, false, ctx.Err()
		}
		return Envelope{}, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var env Envelope
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			return Envelope{}, false, fmt.Errorf("decode %s response: %w", endpoint, err)
		}
		return env, false, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return Envelope{}, true, &tooManyRequests{}
	default:
		return Envelope{}, false, &StatusError{Endpoint: endpoint, Code: resp.StatusCode}
	}
}

// tooManyRequests is an internal marker for a single 429 attempt; callers
// only ever see RateLimitError after the budget is spent.
type tooManyRequests struct{}

func (e *tooManyRequests) Error() string { return "429 too many requests" }

// backoffDelay computes the sleep before the attempt after attempt n.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	return base * time.Duration(1<<attempt)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
