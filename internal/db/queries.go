package db

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/revdoll6/reddit-niche-finder/internal/db/models"
)

// GetCredential returns the owner's Reddit credentials, if stored.
func GetCredential(database *gorm.DB, ownerID string) (*models.Credential, error) {
	var cred models.Credential
	err := database.Where("owner_id = ? AND provider = ?", ownerID, "reddit").First(&cred).Error
	if err != nil {
		return nil, err
	}
	return &cred, nil
}

// SaveCredential upserts the owner's credentials. An empty incoming secret
// keeps the stored one, so the dashboard can resubmit the form without
// re-entering it.
func SaveCredential(database *gorm.DB, cred *models.Credential) error {
	existing, err := GetCredential(database, cred.OwnerID)
	if err == nil {
		if cred.ClientSecret == "" {
			cred.ClientSecret = existing.ClientSecret
		}
		cred.ID = existing.ID
		cred.CreatedAt = existing.CreatedAt
		return database.Save(cred).Error
	}
	return database.Create(cred).Error
}

// MarkConnected records a successful connection test on the credential row.
func MarkConnected(database *gorm.DB, ownerID string) error {
	now := time.Now()
	return database.Model(&models.Credential{}).
		Where("owner_id = ? AND provider = ?", ownerID, "reddit").
		Updates(map[string]any{"is_connected": true, "last_connected_at": now}).Error
}

// GetRateLimitSetting returns the owner's stored limits or defaults.
func GetRateLimitSetting(database *gorm.DB, ownerID string) models.RateLimitSetting {
	var setting models.RateLimitSetting
	err := database.Where("owner_id = ? AND provider = ?", ownerID, "reddit").First(&setting).Error
	if err != nil {
		return models.RateLimitSetting{
			OwnerID:             ownerID,
			Provider:            "reddit",
			RequestsPerMinute:   60,
			ConcurrentRequests:  5,
			RetryFailedRequests: true,
		}
	}
	return setting
}

// CreateAudience persists the audience, its subreddit members and one pending
// fetch record per member, all in a single transaction.
func CreateAudience(database *gorm.DB, audience *models.Audience, subreddits []models.AudienceSubreddit) error {
	return database.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(audience).Error; err != nil {
			return err
		}
		for i := range subreddits {
			subreddits[i].AudienceID = audience.ID
			if err := tx.Create(&subreddits[i]).Error; err != nil {
				return err
			}
			record := models.AudienceSubredditPosts{
				AudienceID:    audience.ID,
				SubredditName: subreddits[i].Name,
				FetchStatus:   models.FetchStatusPending,
			}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ListAudiences returns the owner's audiences with members preloaded.
func ListAudiences(database *gorm.DB, ownerID string) ([]models.Audience, error) {
	var audiences []models.Audience
	err := database.Preload("Subreddits").
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&audiences).Error
	return audiences, err
}

// GetAudience returns one audience owned by ownerID.
func GetAudience(database *gorm.DB, ownerID, id string) (*models.Audience, error) {
	var audience models.Audience
	err := database.Preload("Subreddits").
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&audience).Error
	if err != nil {
		return nil, err
	}
	return &audience, nil
}

// DeleteAudience removes the audience, its members and their fetch records.
func DeleteAudience(database *gorm.DB, ownerID, id string) error {
	return database.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND owner_id = ?", id, ownerID).Delete(&models.Audience{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("audience_id = ?", id).Delete(&models.AudienceSubreddit{}).Error; err != nil {
			return err
		}
		return tx.Where("audience_id = ?", id).Delete(&models.AudienceSubredditPosts{}).Error
	})
}

// FetchStatuses returns the per-subreddit fetch state for an audience.
func FetchStatuses(database *gorm.DB, audienceID string) ([]models.AudienceSubredditPosts, error) {
	var records []models.AudienceSubredditPosts
	err := database.Select("subreddit_name", "fetch_status", "fetched_at").
		Where("audience_id = ?", audienceID).
		Find(&records).Error
	return records, err
}

// CompletedPosts returns the completed fetch records for an audience,
// including their post batches.
func CompletedPosts(database *gorm.DB, audienceID string) ([]models.AudienceSubredditPosts, error) {
	var records []models.AudienceSubredditPosts
	err := database.Where("audience_id = ? AND fetch_status = ?", audienceID, models.FetchStatusCompleted).
		Find(&records).Error
	return records, err
}

// SetFetchStatus transitions the fetch record for (audience, subreddit).
func SetFetchStatus(database *gorm.DB, audienceID, subredditName, status string) error {
	return database.Model(&models.AudienceSubredditPosts{}).
		Where("audience_id = ? AND subreddit_name = ?", audienceID, subredditName).
		Update("fetch_status", status).Error
}

// CompleteFetch records a successful bulk fetch in one update.
func CompleteFetch(database *gorm.DB, audienceID, subredditName, postsData, newestPostID string) error {
	now := time.Now()
	return database.Model(&models.AudienceSubredditPosts{}).
		Where("audience_id = ? AND subreddit_name = ?", audienceID, subredditName).
		Updates(map[string]any{
			"posts_data":     postsData,
			"fetched_at":     now,
			"newest_post_id": newestPostID,
			"fetch_status":   models.FetchStatusCompleted,
		}).Error
}

// PendingFetches lists records still waiting on a fetch, oldest first. Used
// at startup to re-enqueue work interrupted by a restart.
func PendingFetches(database *gorm.DB) ([]models.AudienceSubredditPosts, error) {
	var records []models.AudienceSubredditPosts
	err := database.Where("fetch_status IN ?", []string{models.FetchStatusPending, models.FetchStatusInProgress}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}}).
		Find(&records).Error
	return records, err
}
