package handlers

import (
	"log"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/revdoll6/reddit-niche-finder/internal/db"
	"github.com/revdoll6/reddit-niche-finder/internal/db/models"
	"github.com/revdoll6/reddit-niche-finder/internal/reddit"
)

type settingsRequest struct {
	ClientID            string `json:"client_id"`
	ClientSecret        string `json:"client_secret"`
	Username            string `json:"username"`
	UserAgent           string `json:"user_agent"`
	RequestsPerMinute   int    `json:"requests_per_minute"`
	ConcurrentRequests  int    `json:"concurrent_requests"`
	RetryFailedRequests *bool  `json:"retry_failed_requests"`
}

// GetSettingsHandler returns the stored credentials (secret redacted to a
// presence flag) and rate limit settings.
func GetSettingsHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := ownerID(r)
		resp := map[string]any{
			"rate_limit": db.GetRateLimitSetting(database, owner),
		}

		cred, err := db.GetCredential(database, owner)
		if err != nil {
			resp["credentials"] = nil
			resp["has_secret"] = false
		} else {
			resp["credentials"] = cred
			resp["has_secret"] = cred.ClientSecret != ""
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// SaveSettingsHandler upserts credentials and rate limit settings in one
// call, matching the dashboard's single settings form.
func SaveSettingsHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := ownerID(r)
		var req settingsRequest
		if err := decodeBody(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid request body"})
			return
		}
		if strings.TrimSpace(req.ClientID) == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "client_id is required"})
			return
		}

		cred := &models.Credential{
			OwnerID:      owner,
			Provider:     "reddit",
			ClientID:     strings.TrimSpace(req.ClientID),
			ClientSecret: req.ClientSecret,
			Username:     strings.TrimSpace(req.Username),
			UserAgent:    userAgentOrDefault(req.UserAgent, req.Username),
		}
		if err := db.SaveCredential(database, cred); err != nil {
			writeError(w, err)
			return
		}

		setting := db.GetRateLimitSetting(database, owner)
		if req.RequestsPerMinute > 0 {
			setting.RequestsPerMinute = req.RequestsPerMinute
		}
		if req.ConcurrentRequests > 0 {
			setting.ConcurrentRequests = req.ConcurrentRequests
		}
		if req.RetryFailedRequests != nil {
			setting.RetryFailedRequests = *req.RetryFailedRequests
		}
		if err := database.Save(&setting).Error; err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"status": "saved"})
	}
}

// TestConnectionHandler verifies credentials against the live API. A body
// with credentials tests those; an empty body tests the stored set. Success
// is recorded on the stored credential row.
func TestConnectionHandler(database *gorm.DB, clients *reddit.Factory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := ownerID(r)
		var req settingsRequest
		_ = decodeBody(r, &req)

		var cred *models.Credential
		if strings.TrimSpace(req.ClientID) != "" {
			cred = &models.Credential{
				OwnerID:      owner,
				Provider:     "reddit",
				ClientID:     strings.TrimSpace(req.ClientID),
				ClientSecret: req.ClientSecret,
				Username:     strings.TrimSpace(req.Username),
				UserAgent:    userAgentOrDefault(req.UserAgent, req.Username),
			}
			if cred.ClientSecret == "" {
				if stored, err := db.GetCredential(database, owner); err == nil {
					cred.ClientSecret = stored.ClientSecret
				}
			}
		} else {
			stored, err := db.GetCredential(database, owner)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]any{"error": "API credentials not set"})
				return
			}
			cred = stored
		}

		client := clients.ClientForCredential(cred)
		if err := client.TestConnection(r.Context()); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"connected": false,
				"error":     reddit.FriendlyMessage(err),
			})
			return
		}

		if err := db.MarkConnected(database, owner); err != nil {
			log.Printf("recording connection test for %s: %v", owner, err)
		}
		writeJSON(w, http.StatusOK, map[string]any{"connected": true})
	}
}

func userAgentOrDefault(userAgent, username string) string {
	if ua := strings.TrimSpace(userAgent); ua != "" {
		return ua
	}
	if username != "" {
		return "web:niche-finder:v1.0 (by /u/" + username + ")"
	}
	return "web:niche-finder:v1.0"
}
