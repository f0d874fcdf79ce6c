package models

import "time"

// Credential stores one owner's Reddit API credentials.
// The combination of (OwnerID, Provider) is unique: one credential set per
// provider per owner. ClientSecret is held server-side only and is never
// echoed back through the API.
type Credential struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	OwnerID         string `gorm:"uniqueIndex:idx_owner_provider;not null" json:"owner_id"`
	Provider        string `gorm:"uniqueIndex:idx_owner_provider;default:'reddit'" json:"provider"`
	ClientID        string `json:"client_id"`
	ClientSecret    string `json:"-"`
	Username        string `json:"username"`
	UserAgent       string `json:"user_agent"`
	IsConnected     bool   `gorm:"default:false" json:"is_connected"`
	LastConnectedAt *time.Time `json:"last_connected_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
