package models

import "time"

// RateLimitSetting stores per-owner rate limit configuration for a provider.
// ConcurrentRequests is advisory only; the limiter enforces RequestsPerMinute.
type RateLimitSetting struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	OwnerID             string    `gorm:"uniqueIndex:idx_owner_provider_rl;not null" json:"owner_id"`
	Provider            string    `gorm:"uniqueIndex:idx_owner_provider_rl;default:'reddit'" json:"provider"`
	RequestsPerMinute   int       `gorm:"default:60" json:"requests_per_minute"`
	ConcurrentRequests  int       `gorm:"default:5" json:"concurrent_requests"`
	RetryFailedRequests bool      `gorm:"default:true" json:"retry_failed_requests"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}
