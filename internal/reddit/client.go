package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/revdoll6/reddit-niche-finder/internal/db/models"
	"github.com/revdoll6/reddit-niche-finder/internal/telemetry"
	"github.com/revdoll6/reddit-niche-finder/internal/util"
)

const (
	defaultBaseURL     = "https://oauth.reddit.com"
	defaultTimeoutSecs = 10
	maxRateRetries     = 3
)

// Client executes authenticated requests against the Reddit API for one
// owner's credentials. Every call is gated by the rate limiter and retried
// once after a 401 with a fresh token.
type Client struct {
	tokens    *TokenManager
	limiter   *Limiter
	cred      *models.Credential
	baseURL   string
	transport http.RoundTripper
	timeout   time.Duration

	// sleep is swapped in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient builds an executor bound to one credential set.
func NewClient(tokens *TokenManager, limiter *Limiter, cred *models.Credential) *Client {
	return &Client{
		tokens:  tokens,
		limiter: limiter,
		cred:    cred,
		baseURL: defaultBaseURL,
		timeout: defaultTimeoutSecs * time.Second,
		sleep:   sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetBaseURL overrides the API host, used by tests.
func (c *Client) SetBaseURL(u string) { c.baseURL = strings.TrimRight(u, "/") }

// SetTransport overrides the HTTP transport, used by tests.
func (c *Client) SetTransport(t http.RoundTripper) { c.transport = t }

// SetTimeout sets the per-request timeout, clamped between 1 and 60 seconds.
func (c *Client) SetTimeout(seconds int) {
	if seconds < 1 {
		seconds = 1
	}
	if seconds > 60 {
		seconds = 60
	}
	c.timeout = time.Duration(seconds) * time.Second
}

// Timeout returns the current per-request timeout in seconds.
func (c *Client) Timeout() int { return int(c.timeout.Seconds()) }

// EnforceRateLimit toggles limiter enforcement for this client. The bulk
// fetch job disables it and paces itself instead.
func (c *Client) EnforceRateLimit(enforce bool) { c.limiter.SetEnforce(enforce) }

// RateLimitStatus exposes the limiter's current window.
func (c *Client) RateLimitStatus() RateLimitStatus { return c.limiter.Status() }

// Get performs a rate-limited GET against the API.
func (c *Client) Get(ctx context.Context, endpoint string, params url.Values) (map[string]any, error) {
	return c.executeWithRateLimit(ctx, func() (map[string]any, error) {
		return c.request(ctx, http.MethodGet, endpoint, params, true)
	})
}

// Post performs a rate-limited form POST against the API.
func (c *Client) Post(ctx context.Context, endpoint string, params url.Values) (map[string]any, error) {
	return c.executeWithRateLimit(ctx, func() (map[string]any, error) {
		return c.request(ctx, http.MethodPost, endpoint, params, true)
	})
}

// executeWithRateLimit gates fn on the limiter. When the window is full it
// waits min(reset+1, backoff) with the backoff doubling each attempt, up to
// three waits before giving up with a RateLimitError.
func (c *Client) executeWithRateLimit(ctx context.Context, fn func() (map[string]any, error)) (map[string]any, error) {
	backoff := 2 * time.Second
	for attempt := 0; ; attempt++ {
		if c.limiter.TryAcquire() {
			return fn()
		}
		status := c.limiter.Status()
		if attempt >= maxRateRetries {
			return nil, &RateLimitError{ResetIn: status.ResetInSeconds}
		}
		wait := time.Duration(status.ResetInSeconds+1) * time.Second
		if backoff < wait {
			wait = backoff
		}
		log.Printf("rate limit reached, waiting %s before retry (attempt %d of %d)", wait, attempt+1, maxRateRetries)
		telemetry.APIRetries.WithLabelValues("rate_limit").Inc()
		if err := c.sleep(ctx, wait); err != nil {
			return nil, err
		}
		backoff *= 2
	}
}

// request performs one authenticated HTTP round trip. A 401 invalidates the
// cached token and retries exactly once; a second 401 is surfaced.
func (c *Client) request(ctx context.Context, method, endpoint string, params url.Values, allowReauth bool) (map[string]any, error) {
	token, err := c.tokens.GetToken(ctx, c.cred)
	if err != nil {
		return nil, err
	}

	endpoint = "/" + strings.TrimLeft(endpoint, "/")
	reqURL := c.baseURL + endpoint

	var body io.Reader
	if method == http.MethodGet {
		if len(params) > 0 {
			reqURL += "?" + params.Encode()
		}
	} else if len(params) > 0 {
		body = strings.NewReader(params.Encode())
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, reqURL, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token.Token)
	req.Header.Set("User-Agent", c.cred.UserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	httpClient := &http.Client{Transport: c.transport}
	resp, err := httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			telemetry.APIRequests.WithLabelValues(endpoint, "timeout").Inc()
			return nil, &TimeoutError{Seconds: c.Timeout()}
		}
		return nil, fmt.Errorf("reddit request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading reddit response: %w", err)
	}
	telemetry.APIRequests.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()

	if resp.StatusCode == http.StatusUnauthorized {
		c.tokens.Invalidate(c.cred.OwnerID)
		if allowReauth {
			log.Printf("reddit token rejected for owner %s, re-authenticating once", c.cred.OwnerID)
			telemetry.APIRetries.WithLabelValues("reauth").Inc()
			return c.request(ctx, method, endpoint, params, false)
		}
		return nil, &AuthError{Message: "request rejected after token refresh"}
	}

	var data map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil && resp.StatusCode == http.StatusOK {
			return nil, fmt.Errorf("decoding reddit response: %w", err)
		}
	}

	if resp.StatusCode != http.StatusOK {
		message := "Unknown error"
		if m, ok := data["message"].(string); ok && m != "" {
			message = m
		}
		log.Printf("reddit api error on %s: HTTP %d body=%s", endpoint, resp.StatusCode, util.TruncateBytes(raw))
		return nil, &UpstreamError{Status: resp.StatusCode, Message: message}
	}
	return data, nil
}
