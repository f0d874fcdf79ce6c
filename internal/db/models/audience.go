package models

import "time"

// Audience is a user-defined group of subreddits.
type Audience struct {
	ID          string    `gorm:"primaryKey" json:"id"` // UUID
	OwnerID     string    `gorm:"index" json:"owner_id"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Subreddits []AudienceSubreddit `gorm:"foreignKey:AudienceID" json:"subreddits,omitempty"`
}

// AudienceSubreddit is one subreddit member of an audience, stored with a
// cleaned snapshot of the metrics that were current when the audience was
// created. SubredditData holds the canonical JSON produced by the search
// layer, including the calculated_metrics bundle.
type AudienceSubreddit struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	AudienceID    string    `gorm:"index;not null" json:"audience_id"`
	Name          string    `gorm:"not null" json:"name"`
	Title         string    `json:"title"`
	Subscribers   int       `json:"subscribers"`
	SubredditData string    `gorm:"type:text" json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
