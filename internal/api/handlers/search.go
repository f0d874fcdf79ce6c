package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/revdoll6/reddit-niche-finder/internal/reddit"
	"github.com/revdoll6/reddit-niche-finder/internal/search"
)

// SearchHandler resolves a subreddit search through the orchestrator's cache
// layers and reports where the results came from.
func SearchHandler(orch *search.Orchestrator, clients *reddit.Factory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := ownerID(r)
		query := r.URL.Query().Get("query")
		if query == "" {
			query = r.URL.Query().Get("q")
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		client, err := clients.ClientFor(owner)
		if err != nil {
			// Session-cached results stay reachable even when credentials
			// have been removed since the original search.
			if res, ok := orch.FromSession(owner, strings.TrimSpace(query)); ok {
				writeJSON(w, http.StatusOK, map[string]any{
					"query":         res.Query,
					"results":       res.Results,
					"total_results": res.TotalResults,
					"timestamp":     res.Timestamp,
					"source":        "session",
				})
				return
			}
			writeError(w, err)
			return
		}

		res, source, err := orch.Search(r.Context(), client, owner, query, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"query":         res.Query,
			"results":       res.Results,
			"total_results": res.TotalResults,
			"timestamp":     res.Timestamp,
			"source":        source,
		})
	}
}

// StoreSessionHandler lets the dashboard push a result set into the session
// cache explicitly, e.g. after client-side filtering.
func StoreSessionHandler(orch *search.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var res search.Result
		if err := decodeBody(r, &res); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid request body"})
			return
		}
		if strings.TrimSpace(res.Query) == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Query is required"})
			return
		}
		orch.StoreSession(ownerID(r), &res)
		writeJSON(w, http.StatusOK, map[string]any{"status": "stored"})
	}
}

// SessionResultsHandler returns fresh session results for a query, if any.
func SessionResultsHandler(orch *search.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := strings.TrimSpace(r.URL.Query().Get("query"))
		res, ok := orch.FromSession(ownerID(r), query)
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "No cached results for query"})
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
