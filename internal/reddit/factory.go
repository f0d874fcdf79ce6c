package reddit

import (
	"errors"

	"gorm.io/gorm"

	"github.com/revdoll6/reddit-niche-finder/internal/cache"
	"github.com/revdoll6/reddit-niche-finder/internal/config"
	"github.com/revdoll6/reddit-niche-finder/internal/db/models"
)

// Factory builds per-owner clients from stored credentials and rate-limit
// settings. The token manager and the cache store are shared; the limiter is
// scoped to the owner.
type Factory struct {
	db       *gorm.DB
	tokens   *TokenManager
	store    *cache.Store
	defaults config.RedditConfig
}

func NewFactory(db *gorm.DB, tokens *TokenManager, store *cache.Store, defaults config.RedditConfig) *Factory {
	return &Factory{db: db, tokens: tokens, store: store, defaults: defaults}
}

// Tokens exposes the shared token manager.
func (f *Factory) Tokens() *TokenManager { return f.tokens }

// ClientFor loads the owner's credentials and settings and returns a bound
// client. Owners without stored credentials get an AuthError before any
// network traffic happens.
func (f *Factory) ClientFor(ownerID string) (*Client, error) {
	var cred models.Credential
	err := f.db.Where("owner_id = ? AND provider = ?", ownerID, "reddit").First(&cred).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &AuthError{Message: "API credentials not set"}
		}
		return nil, err
	}
	if cred.ClientID == "" || cred.ClientSecret == "" {
		return nil, &AuthError{Message: "API credentials not set"}
	}

	rpm := f.defaults.RequestsPerMinute
	var setting models.RateLimitSetting
	if err := f.db.Where("owner_id = ? AND provider = ?", ownerID, "reddit").First(&setting).Error; err == nil {
		if setting.RequestsPerMinute > 0 {
			rpm = setting.RequestsPerMinute
		}
	}

	limiter := NewLimiter(f.store, ownerID, rpm)
	client := NewClient(f.tokens, limiter, &cred)
	client.SetTimeout(f.defaults.TimeoutSeconds)
	return client, nil
}

// ClientForCredential binds a client directly to an unsaved credential, used
// by the settings connection test before anything is persisted.
func (f *Factory) ClientForCredential(cred *models.Credential) *Client {
	limiter := NewLimiter(f.store, cred.OwnerID, f.defaults.RequestsPerMinute)
	client := NewClient(f.tokens, limiter, cred)
	client.SetTimeout(f.defaults.TimeoutSeconds)
	return client
}
