package reddit

import (
	"context"
	"log"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/revdoll6/reddit-niche-finder/internal/cache"
	"github.com/revdoll6/reddit-niche-finder/internal/db/models"
)

const defaultTokenURL = "https://www.reddit.com/api/v1/access_token"

// AccessToken is the ephemeral bearer token for one owner. It has no
// lifecycle of its own: it lives in the cache until its reported expiry and
// is recreated on demand.
type AccessToken struct {
	Token     string
	ExpiresAt time.Time
}

// TokenManager performs the client-credentials exchange and caches the
// resulting token per owner with a TTL equal to the token's reported expiry.
type TokenManager struct {
	store     *cache.Store
	tokenURL  string
	transport http.RoundTripper
}

// NewTokenManager creates a manager backed by the shared cache store.
func NewTokenManager(store *cache.Store) *TokenManager {
	return &TokenManager{store: store, tokenURL: defaultTokenURL}
}

// NewTokenManagerWithTransport allows tests to stub the token endpoint.
func NewTokenManagerWithTransport(store *cache.Store, tokenURL string, transport http.RoundTripper) *TokenManager {
	return &TokenManager{store: store, tokenURL: tokenURL, transport: transport}
}

func tokenCacheKey(ownerID string) string { return "reddit_token_" + ownerID }

// userAgentTransport stamps the credential's User-Agent onto every request.
// Reddit rejects token exchanges that arrive with a default library agent.
type userAgentTransport struct {
	base  http.RoundTripper
	agent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", t.agent)
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

// GetToken returns a valid access token for the credential's owner,
// performing at most one network exchange per validity window.
func (m *TokenManager) GetToken(ctx context.Context, cred *models.Credential) (AccessToken, error) {
	if cred == nil || cred.ClientID == "" || cred.ClientSecret == "" {
		return AccessToken{}, &AuthError{Message: "API credentials not set"}
	}

	if v, ok := m.store.Get(tokenCacheKey(cred.OwnerID)); ok {
		if tok, ok := v.(AccessToken); ok && time.Now().Before(tok.ExpiresAt) {
			return tok, nil
		}
	}

	conf := &clientcredentials.Config{
		ClientID:     cred.ClientID,
		ClientSecret: cred.ClientSecret,
		TokenURL:     m.tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: &userAgentTransport{base: m.transport, agent: cred.UserAgent},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)

	tok, err := conf.Token(ctx)
	if err != nil {
		return AccessToken{}, &AuthError{Message: "token exchange failed", Err: err}
	}
	if tok.AccessToken == "" {
		return AccessToken{}, &AuthError{Message: "token response missing access_token"}
	}

	access := AccessToken{Token: tok.AccessToken, ExpiresAt: tok.Expiry}
	ttl := time.Until(tok.Expiry)
	if ttl <= 0 {
		// Some stubs omit expires_in; keep the token for a conservative hour.
		ttl = time.Hour
		access.ExpiresAt = time.Now().Add(ttl)
	}
	m.store.Set(tokenCacheKey(cred.OwnerID), access, ttl)
	log.Printf("obtained reddit token for owner %s (expires %s)", cred.OwnerID, access.ExpiresAt.Format(time.RFC3339))
	return access, nil
}

// Invalidate drops the cached token for an owner. Called after a 401 so the
// next GetToken performs a fresh exchange.
func (m *TokenManager) Invalidate(ownerID string) {
	m.store.Delete(tokenCacheKey(ownerID))
}
