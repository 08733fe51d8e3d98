package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fivetwenty-io/easemob/internal/constants"
	emhttp "github.com/fivetwenty-io/easemob/internal/http"
	"github.com/fivetwenty-io/easemob/pkg/easemob"
)

// UserTokenConfig configures a UserTokenManager.
type UserTokenConfig struct {
	Cache *easemob.CacheManager
	// Disabled skips the cache entirely.
	Disabled bool
	// TTL, when positive, replaces the lifetime returned by the server.
	TTL    time.Duration
	Logger easemob.Logger
}

// UserTokenManager exchanges usernames and passwords for user tokens and
// caches them under "UserAccessToken:<username>".
type UserTokenManager struct {
	doer   Doer
	config UserTokenConfig
	now    func() time.Time
}

// NewUserTokenManager creates a manager that exchanges through doer, which is
// expected to authenticate with the application token.
func NewUserTokenManager(doer Doer, config *UserTokenConfig) *UserTokenManager {
	cfg := UserTokenConfig{}
	if config != nil {
		cfg = *config
	}

	if cfg.Cache == nil {
		cfg.Cache = easemob.NewCacheManager(nil, nil)
	}

	return &UserTokenManager{doer: doer, config: cfg, now: time.Now}
}

type cachedUserToken struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// GetToken returns a cached token for username or performs a password grant.
func (m *UserTokenManager) GetToken(ctx context.Context, username, password string) (*easemob.UserToken, error) {
	if strings.TrimSpace(username) == "" {
		return nil, easemob.NewValidationError("username", "username is required")
	}

	if !m.config.Disabled {
		if token := m.loadCached(ctx, username); token != nil {
			return token, nil
		}
	}

	if password == "" {
		return nil, easemob.NewValidationError("password", "password is required")
	}

	resp, err := m.doer.Do(ctx, &emhttp.Request{
		Method: http.MethodPost,
		Path:   constants.APIPathUserToken,
		Body: map[string]string{
			"grant_type": constants.GrantTypePassword,
			"username":   username,
			"password":   password,
		},
	})
	if err != nil {
		return nil, &easemob.AuthError{Grant: constants.GrantTypePassword, Err: err}
	}

	var token easemob.UserToken

	err = json.Unmarshal(resp.Body, &token)
	if err != nil {
		return nil, &easemob.AuthError{
			Grant: constants.GrantTypePassword,
			Err:   fmt.Errorf("parsing user token response: %w", err),
		}
	}

	if token.AccessToken == "" {
		return nil, &easemob.AuthError{Grant: constants.GrantTypePassword, Err: easemob.ErrNoAccessToken}
	}

	if !m.config.Disabled {
		m.storeCached(ctx, username, &token)
	}

	return &token, nil
}

// Invalidate drops the cached token of username.
func (m *UserTokenManager) Invalidate(ctx context.Context, username string) error {
	err := m.config.Cache.Delete(ctx, userCacheKey(username))
	if err != nil {
		return fmt.Errorf("invalidating user token: %w", err)
	}

	return nil
}

func (m *UserTokenManager) loadCached(ctx context.Context, username string) *easemob.UserToken {
	data, err := m.config.Cache.Get(ctx, userCacheKey(username))
	if err != nil {
		return nil
	}

	var cached cachedUserToken

	err = json.Unmarshal(data, &cached)
	if err != nil || cached.AccessToken == "" {
		return nil
	}

	remaining := cached.ExpiresAt.Sub(m.now())
	if remaining <= 0 {
		return nil
	}

	return &easemob.UserToken{
		AccessToken: cached.AccessToken,
		ExpiresIn:   int64(remaining / time.Second),
	}
}

func (m *UserTokenManager) storeCached(ctx context.Context, username string, token *easemob.UserToken) {
	ttl := m.config.TTL
	if ttl <= 0 {
		ttl = time.Duration(token.ExpiresIn) * time.Second
	}

	if ttl <= 0 {
		return
	}

	data, err := json.Marshal(cachedUserToken{
		AccessToken: token.AccessToken,
		ExpiresAt:   m.now().Add(ttl),
	})
	if err != nil {
		return
	}

	err = m.config.Cache.Set(ctx, userCacheKey(username), data, ttl)
	if err != nil {
		loggerOrNop(m.config.Logger).Warn("Failed to cache user token", map[string]interface{}{
			"username": username,
			"error":    err.Error(),
		})
	}
}

func userCacheKey(username string) string {
	return constants.UserTokenCacheKeyPrefix + username
}
