package adapters

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// tokenRefreshMargin is how long before expiry a token is considered stale.
const tokenRefreshMargin = 5 * time.Second

// TokenFetcher obtains a new access token.
type TokenFetcher func(ctx context.Context) (*oauth2.Token, error)

// TokenCache holds one bearer token and refreshes it shortly before it expires.
// The lock is held during a refresh so concurrent callers wait for a single
// exchange instead of starting their own.
type TokenCache struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
	fetch     TokenFetcher
	now       func() time.Time
}

// NewTokenCache creates a TokenCache that uses fetch to obtain tokens.
func NewTokenCache(fetch TokenFetcher) *TokenCache {
	return &TokenCache{fetch: fetch, now: time.Now}
}

// NewClientCredentialsFetcher returns a TokenFetcher performing the OAuth client
// credentials grant with the credentials sent in the form body.
func NewClientCredentialsFetcher(tokenURL, clientID, clientSecret string, client *http.Client) TokenFetcher {
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	return func(ctx context.Context) (*oauth2.Token, error) {
		if client != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, client)
		}
		return cfg.Token(ctx)
	}
}

// Token returns a valid access token, refreshing it when now >= expiresAt - 5s.
// A token without expiry is reused until Invalidate is called.
func (c *TokenCache) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && (c.expiresAt.IsZero() || c.now().Before(c.expiresAt.Add(-tokenRefreshMargin))) {
		return c.token, nil
	}

	tok, err := c.fetch(ctx)
	if err != nil {
		return "", err
	}

	c.token = tok.AccessToken
	c.expiresAt = tok.Expiry
	return c.token, nil
}

// Invalidate drops the cached token, forcing the next call to refresh.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = ""
	c.expiresAt = time.Time{}
}
