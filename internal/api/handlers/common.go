// Package handlers wires the HTTP surface: search, subreddit passthrough,
// audiences, settings and operational endpoints.
package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"gorm.io/gorm"

	"github.com/revdoll6/reddit-niche-finder/internal/reddit"
)

// ownerID identifies the caller. Authentication happens upstream; the proxy
// forwards the resolved user in X-User-ID, and a missing header falls back to
// the single-tenant default.
func ownerID(r *http.Request) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	return "default"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the client error taxonomy onto HTTP statuses. Anything
// unrecognized is a 500 with a generic body; the cause is logged server-side
// only.
func writeError(w http.ResponseWriter, err error) {
	var (
		validationErr *reddit.ValidationError
		authErr       *reddit.AuthError
		rateErr       *reddit.RateLimitError
		timeoutErr    *reddit.TimeoutError
		upstreamErr   *reddit.UpstreamError
	)
	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": validationErr.Message})
	case errors.As(err, &authErr):
		msg := reddit.FriendlyMessage(err)
		if msg == err.Error() {
			// No known translation; the bare message reads better than the
			// prefixed error string.
			msg = authErr.Message
		}
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": msg})
	case errors.As(err, &rateErr):
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":            "Rate limit exceeded. Please wait before making more requests.",
			"reset_in_seconds": rateErr.ResetIn,
		})
	case errors.As(err, &timeoutErr):
		writeJSON(w, http.StatusGatewayTimeout, map[string]any{
			"error": "The search request timed out. Please try again.",
		})
	case errors.As(err, &upstreamErr):
		writeJSON(w, upstreamErr.Status, map[string]any{"error": upstreamErr.Message})
	case errors.Is(err, gorm.ErrRecordNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Not found"})
	default:
		log.Printf("internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Internal server error"})
	}
}

// decodeBody parses a JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
