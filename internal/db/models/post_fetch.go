package models

import "time"

// Fetch status values for AudienceSubredditPosts. A record is created pending
// at audience-creation time and transitions in_progress -> completed|failed
// exactly once per fetch attempt.
const (
	FetchStatusPending    = "pending"
	FetchStatusInProgress = "in_progress"
	FetchStatusCompleted  = "completed"
	FetchStatusFailed     = "failed"
)

// AudienceSubredditPosts is the durable record of a bulk post fetch for one
// (audience, subreddit) pairing. PostsData holds the fetched post batch as
// JSON; NewestPostID is the fullname of the most recent post, kept for
// incremental refresh. A failed record is left in place for operator
// visibility, never auto-deleted.
type AudienceSubredditPosts struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	AudienceID    string     `gorm:"index:idx_audience_subreddit;not null" json:"audience_id"`
	SubredditName string     `gorm:"index:idx_audience_subreddit;not null" json:"subreddit_name"`
	PostsData     string     `gorm:"type:text" json:"-"`
	FetchedAt     *time.Time `json:"fetched_at,omitempty"`
	NewestPostID  string     `json:"newest_post_id,omitempty"`
	FetchStatus   string     `gorm:"default:'pending'" json:"fetch_status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
