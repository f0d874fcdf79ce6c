package reddit

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/revdoll6/reddit-niche-finder/internal/cache"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": {"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// seqTransport replays a fixed sequence of responses and records requests.
type seqTransport struct {
	responses []*http.Response
	requests  []*http.Request
	err       error
}

func (s *seqTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	if len(s.responses) == 0 {
		return jsonResponse(http.StatusOK, `{}`), nil
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

func newTestClient(t *testing.T, transport http.RoundTripper, maxPerMinute int) (*Client, *tokenTransport) {
	t.Helper()
	store := cache.New()
	tokens := &tokenTransport{}
	mgr := NewTokenManagerWithTransport(store, "https://token.example/exchange", tokens)
	limiter := NewLimiter(store, "owner-1", maxPerMinute)
	client := NewClient(mgr, limiter, testCredential())
	client.SetTransport(transport)
	return client, tokens
}

func TestGetReturnsDecodedBody(t *testing.T) {
	transport := &seqTransport{responses: []*http.Response{
		jsonResponse(http.StatusOK, `{"kind":"Listing","data":{"children":[]}}`),
	}}
	client, _ := newTestClient(t, transport, 60)

	data, err := client.Get(context.Background(), "/subreddits/search", nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if data["kind"] != "Listing" {
		t.Fatalf("expected listing, got %v", data)
	}

	req := transport.requests[0]
	if got := req.Header.Get("Authorization"); got != "Bearer tok-1" {
		t.Fatalf("expected bearer token, got %q", got)
	}
	if got := req.Header.Get("User-Agent"); got != "web:test:v1.0" {
		t.Fatalf("expected user agent, got %q", got)
	}
}

func TestUnauthorizedRetriesOnceWithFreshToken(t *testing.T) {
	transport := &seqTransport{responses: []*http.Response{
		jsonResponse(http.StatusUnauthorized, `{}`),
		jsonResponse(http.StatusOK, `{"kind":"Listing"}`),
	}}
	client, tokens := newTestClient(t, transport, 60)

	data, err := client.Get(context.Background(), "/subreddits/search", nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if data["kind"] != "Listing" {
		t.Fatalf("expected listing after reauth, got %v", data)
	}
	if len(transport.requests) != 2 {
		t.Fatalf("expected one retry, saw %d requests", len(transport.requests))
	}
	if tokens.calls != 2 {
		t.Fatalf("expected a fresh exchange after the 401, got %d", tokens.calls)
	}
}

func TestSecondUnauthorizedSurfacesAuthError(t *testing.T) {
	transport := &seqTransport{responses: []*http.Response{
		jsonResponse(http.StatusUnauthorized, `{}`),
		jsonResponse(http.StatusUnauthorized, `{}`),
	}}
	client, _ := newTestClient(t, transport, 60)

	_, err := client.Get(context.Background(), "/subreddits/search", nil)
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if len(transport.requests) != 2 {
		t.Fatalf("expected exactly one retry, saw %d requests", len(transport.requests))
	}
}

func TestNonOKBecomesUpstreamError(t *testing.T) {
	transport := &seqTransport{responses: []*http.Response{
		jsonResponse(http.StatusServiceUnavailable, `{"message":"reddit is down"}`),
	}}
	client, _ := newTestClient(t, transport, 60)

	_, err := client.Get(context.Background(), "/subreddits/search", nil)
	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upErr.Status != http.StatusServiceUnavailable || upErr.Message != "reddit is down" {
		t.Fatalf("unexpected upstream error: %+v", upErr)
	}
}

func TestDeadlineBecomesTimeoutError(t *testing.T) {
	transport := &seqTransport{err: context.DeadlineExceeded}
	client, _ := newTestClient(t, transport, 60)

	_, err := client.Get(context.Background(), "/subreddits/search", nil)
	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
}

func TestFullWindowBacksOffThenFails(t *testing.T) {
	transport := &seqTransport{}
	client, _ := newTestClient(t, transport, 1)

	var waits []time.Duration
	client.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	client.limiter.Record()

	_, err := client.Get(context.Background(), "/subreddits/search", nil)
	var rateErr *RateLimitError
	if !errors.As(err, &rateErr) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if len(waits) != maxRateRetries {
		t.Fatalf("expected %d backoff waits, got %d", maxRateRetries, len(waits))
	}
	if len(transport.requests) != 0 {
		t.Fatal("no request should reach the API while the window is full")
	}
	// Backoff doubles but never exceeds the window reset.
	if waits[0] != 2*time.Second {
		t.Fatalf("expected 2s first wait, got %s", waits[0])
	}
}

func TestSetTimeoutClamps(t *testing.T) {
	client, _ := newTestClient(t, &seqTransport{}, 60)

	client.SetTimeout(0)
	if client.Timeout() != 1 {
		t.Fatalf("expected clamp to 1s, got %d", client.Timeout())
	}
	client.SetTimeout(120)
	if client.Timeout() != 60 {
		t.Fatalf("expected clamp to 60s, got %d", client.Timeout())
	}
	client.SetTimeout(30)
	if client.Timeout() != 30 {
		t.Fatalf("expected 30s, got %d", client.Timeout())
	}
}
