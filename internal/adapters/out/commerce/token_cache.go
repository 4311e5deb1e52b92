package commerce

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"pizzeria/internal/pkg/errs"

	"golang.org/x/sync/singleflight"
)

// DefaultTokenMargin is how long before expiry a cached token is already
// treated as stale.
const DefaultTokenMargin = time.Minute

// TokenCache caches the commerce API bearer token and refreshes it before
// it expires. Concurrent callers needing a refresh share one request. When
// a refresh fails the previous token keeps serving until its real expiry.
type TokenCache struct {
	tokenURL     string
	clientID     string
	clientSecret string
	margin       time.Duration
	httpClient   *http.Client

	group singleflight.Group

	mu        sync.Mutex
	token     string
	expiresAt time.Time

	now func() time.Time
}

// NewTokenCache creates a cache for the client-credentials token endpoint.
// A non-positive margin falls back to DefaultTokenMargin.
func NewTokenCache(tokenURL, clientID, clientSecret string, margin time.Duration) (*TokenCache, error) {
	if tokenURL == "" {
		return nil, errs.NewValueIsRequiredError("token url")
	}
	if clientID == "" {
		return nil, errs.NewValueIsRequiredError("client id")
	}
	if clientSecret == "" {
		return nil, errs.NewValueIsRequiredError("client secret")
	}
	if margin <= 0 {
		margin = DefaultTokenMargin
	}

	return &TokenCache{
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		margin:       margin,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		now:          time.Now,
	}, nil
}

// Token returns a bearer token that is valid for at least the configured
// margin. Safe for concurrent use.
func (c *TokenCache) Token(ctx context.Context) (string, error) {
	if token, ok := c.cached(); ok {
		return token, nil
	}

	value, err, _ := c.group.Do("token", func() (any, error) {
		// Another caller may have refreshed while we waited for the flight.
		if token, ok := c.cached(); ok {
			return token, nil
		}

		token, refreshErr := c.refresh(ctx)
		if refreshErr != nil {
			// A token inside the margin window is stale but still valid.
			if fallback, ok := c.unexpired(); ok {
				return fallback, nil
			}
			return "", refreshErr
		}
		return token, nil
	})
	if err != nil {
		return "", err
	}

	return value.(string), nil
}

func (c *TokenCache) cached() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token == "" || !c.now().Before(c.expiresAt.Add(-c.margin)) {
		return "", false
	}
	return c.token, true
}

func (c *TokenCache) unexpired() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token == "" || !c.now().Before(c.expiresAt) {
		return "", false
	}
	return c.token, true
}

func (c *TokenCache) refresh(ctx context.Context) (string, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errs.NewBackendUnavailableError("commerce token endpoint", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errs.NewBackendUnavailableError("commerce token endpoint",
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", errs.NewBackendUnavailableError("commerce token endpoint", err)
	}
	if body.AccessToken == "" {
		return "", errs.NewBackendUnavailableError("commerce token endpoint",
			fmt.Errorf("empty access token"))
	}

	c.mu.Lock()
	c.token = body.AccessToken
	c.expiresAt = c.now().Add(time.Duration(body.ExpiresIn) * time.Second)
	c.mu.Unlock()

	return body.AccessToken, nil
}
