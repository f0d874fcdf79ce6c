package reddit

import (
	"fmt"
	"strings"
)

// AuthError covers missing credentials and failed token exchanges. It is
// fatal to the current operation and never retried beyond the single
// post-401 re-authentication.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("reddit auth: %s: %v", e.Message, e.Err)
	}
	return "reddit auth: " + e.Message
}

func (e *AuthError) Unwrap() error { return e.Err }

// RateLimitError is returned once internal backoff retries are exhausted.
// ResetIn hints how many seconds until the window frees up.
type RateLimitError struct {
	ResetIn int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("reddit rate limit exceeded, retry in %d seconds", e.ResetIn)
}

// TimeoutError is surfaced immediately with no internal retry.
type TimeoutError struct {
	Seconds int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("reddit request timed out after %d seconds", e.Seconds)
}

// UpstreamError carries a non-200 response from the Reddit API.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("reddit api error: %s (HTTP %d)", e.Message, e.Status)
}

// ValidationError rejects bad input before any network call.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// FriendlyMessage translates known upstream failure substrings into messages
// fit for the dashboard. Unknown errors pass through unchanged. This lives at
// the boundary; the core surfaces raw errors.
func FriendlyMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "no such host"):
		return "Could not reach the Reddit API. Check your network connection."
	case strings.Contains(lower, "certificate"), strings.Contains(lower, "tls"):
		return "Secure connection to the Reddit API failed."
	case strings.Contains(lower, "invalid_grant"):
		return "Reddit rejected the credentials (invalid_grant). Reconnect your account."
	case strings.Contains(lower, "invalid_client"):
		return "Reddit client ID or secret is invalid."
	}
	return msg
}
