package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/revdoll6/reddit-niche-finder/internal/cache"
	"github.com/revdoll6/reddit-niche-finder/internal/reddit"
)

const (
	subredditInfoTTL  = time.Hour
	subredditPostsTTL = 15 * time.Minute
)

// SubredditInfoHandler proxies /r/{name}/about with a one hour cache.
func SubredditInfoHandler(clients *reddit.Factory, store *cache.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		key := "subreddit_info_" + name

		if v, ok := store.Get(key); ok {
			writeJSON(w, http.StatusOK, v)
			return
		}

		client, err := clients.ClientFor(ownerID(r))
		if err != nil {
			writeError(w, err)
			return
		}
		info, err := client.SubredditAbout(r.Context(), name)
		if err != nil {
			writeError(w, err)
			return
		}
		store.Set(key, info, subredditInfoTTL)
		writeJSON(w, http.StatusOK, info)
	}
}

// SubredditPostsHandler proxies one page of a subreddit listing with a
// fifteen minute cache keyed by name, sort and limit.
func SubredditPostsHandler(clients *reddit.Factory, store *cache.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		sort := r.URL.Query().Get("sort")
		if sort == "" {
			sort = "hot"
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 {
			limit = 25
		}
		key := "subreddit_posts_" + name + "_" + sort + "_" + strconv.Itoa(limit)

		if v, ok := store.Get(key); ok {
			writeJSON(w, http.StatusOK, v)
			return
		}

		client, err := clients.ClientFor(ownerID(r))
		if err != nil {
			writeError(w, err)
			return
		}
		listing, err := client.SubredditPosts(r.Context(), name, sort, limit, r.URL.Query().Get("after"))
		if err != nil {
			writeError(w, err)
			return
		}
		store.Set(key, listing, subredditPostsTTL)
		writeJSON(w, http.StatusOK, listing)
	}
}

// RateLimitStatusHandler exposes the caller's current request window.
func RateLimitStatusHandler(clients *reddit.Factory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, err := clients.ClientFor(ownerID(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, client.RateLimitStatus())
	}
}
