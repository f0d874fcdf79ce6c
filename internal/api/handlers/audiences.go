package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/revdoll6/reddit-niche-finder/internal/db"
	"github.com/revdoll6/reddit-niche-finder/internal/db/models"
	"github.com/revdoll6/reddit-niche-finder/internal/jobs"
)

type audienceRequest struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Subreddits  []map[string]any `json:"subreddits"`
}

// ListAudiencesHandler returns the caller's audiences.
func ListAudiencesHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		audiences, err := db.ListAudiences(database, ownerID(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"audiences": audiences})
	}
}

// CreateAudienceHandler persists a new audience and enqueues one bulk post
// fetch per member subreddit.
func CreateAudienceHandler(database *gorm.DB, runner *jobs.Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := ownerID(r)
		var req audienceRequest
		if err := decodeBody(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid request body"})
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Audience name is required"})
			return
		}
		if len(req.Subreddits) == 0 {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "At least one subreddit is required"})
			return
		}

		audience := &models.Audience{
			ID:          uuid.NewString(),
			OwnerID:     owner,
			Name:        strings.TrimSpace(req.Name),
			Description: strings.TrimSpace(req.Description),
		}

		members := make([]models.AudienceSubreddit, 0, len(req.Subreddits))
		seen := make(map[string]bool)
		for _, raw := range req.Subreddits {
			name, _ := raw["display_name"].(string)
			if name == "" {
				name, _ = raw["name"].(string)
			}
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true

			title, _ := raw["title"].(string)
			subscribers := 0
			if v, ok := raw["subscribers"].(float64); ok {
				subscribers = int(v)
			}
			snapshot, _ := json.Marshal(raw)
			members = append(members, models.AudienceSubreddit{
				Name:          name,
				Title:         title,
				Subscribers:   subscribers,
				SubredditData: string(snapshot),
			})
		}
		if len(members) == 0 {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "At least one subreddit is required"})
			return
		}

		if err := db.CreateAudience(database, audience, members); err != nil {
			writeError(w, err)
			return
		}

		for _, m := range members {
			runner.Enqueue(jobs.Request{
				AudienceID:    audience.ID,
				SubredditName: m.Name,
				OwnerID:       owner,
			})
		}

		created, err := db.GetAudience(database, owner, audience.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

// GetAudienceHandler returns one audience with its members.
func GetAudienceHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		audience, err := db.GetAudience(database, ownerID(r), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, audience)
	}
}

// DeleteAudienceHandler removes an audience and its fetch records.
func DeleteAudienceHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.DeleteAudience(database, ownerID(r), chi.URLParam(r, "id")); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
	}
}

// FetchStatusHandler reports per-subreddit fetch progress for an audience.
func FetchStatusHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := ownerID(r)
		id := chi.URLParam(r, "id")
		if _, err := db.GetAudience(database, owner, id); err != nil {
			writeError(w, err)
			return
		}

		records, err := db.FetchStatuses(database, id)
		if err != nil {
			writeError(w, err)
			return
		}

		statuses := make([]map[string]any, 0, len(records))
		allDone := len(records) > 0
		for _, rec := range records {
			if rec.FetchStatus != models.FetchStatusCompleted && rec.FetchStatus != models.FetchStatusFailed {
				allDone = false
			}
			statuses = append(statuses, map[string]any{
				"subreddit_name": rec.SubredditName,
				"fetch_status":   rec.FetchStatus,
				"fetched_at":     rec.FetchedAt,
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"audience_id": id,
			"complete":    allDone,
			"statuses":    statuses,
		})
	}
}

// AudiencePostsHandler returns the fetched post batches for an audience's
// completed subreddits.
func AudiencePostsHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := ownerID(r)
		id := chi.URLParam(r, "id")
		if _, err := db.GetAudience(database, owner, id); err != nil {
			writeError(w, err)
			return
		}

		records, err := db.CompletedPosts(database, id)
		if err != nil {
			writeError(w, err)
			return
		}

		posts := make(map[string]any, len(records))
		for _, rec := range records {
			var batch map[string]any
			if err := json.Unmarshal([]byte(rec.PostsData), &batch); err != nil {
				continue
			}
			posts[rec.SubredditName] = batch
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"audience_id": id,
			"posts":       posts,
		})
	}
}
