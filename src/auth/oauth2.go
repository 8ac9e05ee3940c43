package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// TokenCache runs the OAuth2 client credentials flow and reuses tokens per client id
// until they expire.
type TokenCache struct {
	mu      sync.Mutex
	sources map[string]oauth2.TokenSource
}

func NewTokenCache() *TokenCache {
	return &TokenCache{sources: make(map[string]oauth2.TokenSource)}
}

// Token returns a valid access token for a. Token requests go through httpClient when it is not nil.
func (c *TokenCache) Token(ctx context.Context, httpClient *http.Client, a *OAuth2Auth) (*oauth2.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	ts, ok := c.sources[a.ClientID]
	if !ok {
		cfg := clientcredentials.Config{
			ClientID:     a.ClientID,
			ClientSecret: a.ClientSecret,
			TokenURL:     a.TokenURL,
		}
		if a.Scope != nil && *a.Scope != "" {
			cfg.Scopes = strings.Fields(*a.Scope)
		}
		// The source outlives this call, so it must not capture ctx.
		tsCtx := context.Background()
		if httpClient != nil {
			tsCtx = context.WithValue(tsCtx, oauth2.HTTPClient, httpClient)
		}
		ts = cfg.TokenSource(tsCtx)
		c.sources[a.ClientID] = ts
	}
	c.mu.Unlock()
	return ts.Token()
}

// Forget drops the cached token of clientID.
func (c *TokenCache) Forget(clientID string) {
	c.mu.Lock()
	delete(c.sources, clientID)
	c.mu.Unlock()
}

// Apply adds the credentials described by a to req. OAuth2 tokens come from the cache.
func (c *TokenCache) Apply(ctx context.Context, httpClient *http.Client, req *http.Request, a Auth) error {
	switch a := a.(type) {
	case nil:
		return nil
	case *ApiKeyAuth:
		if a.APIKey == "" {
			return errors.New("API key for ApiKeyAuth not found")
		}
		switch a.Location {
		case "query":
			q := req.URL.Query()
			q.Set(a.VarName, a.APIKey)
			req.URL.RawQuery = q.Encode()
		case "cookie":
			req.AddCookie(&http.Cookie{Name: a.VarName, Value: a.APIKey})
		default:
			req.Header.Set(a.VarName, a.APIKey)
		}
	case *BasicAuth:
		req.SetBasicAuth(a.Username, a.Password)
	case *OAuth2Auth:
		tok, err := c.Token(ctx, httpClient, a)
		if err != nil {
			return fmt.Errorf("oauth2 token: %w", err)
		}
		tok.SetAuthHeader(req)
	default:
		return fmt.Errorf("unsupported auth type %T", a)
	}
	return nil
}
