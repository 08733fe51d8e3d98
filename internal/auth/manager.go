package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/fivetwenty-io/easemob/internal/constants"
	emhttp "github.com/fivetwenty-io/easemob/internal/http"
	"github.com/fivetwenty-io/easemob/pkg/easemob"
)

// Doer executes a request. *emhttp.Client satisfies it.
type Doer interface {
	Do(ctx context.Context, req *emhttp.Request) (*emhttp.Response, error)
}

// ClientCredentialsConfig configures a ClientCredentialsManager.
type ClientCredentialsConfig struct {
	ClientID     string
	ClientSecret string
	// CacheKey defaults to "AuthToken".
	CacheKey string
	// RenewalMargin defaults to 60s.
	RenewalMargin time.Duration
	// ExchangeTimeout bounds a shared refresh. Defaults to 30s.
	ExchangeTimeout time.Duration
	// Cache is written through on every exchange. Nil keeps tokens in memory only.
	Cache  *easemob.CacheManager
	Logger easemob.Logger
}

// ClientCredentialsManager obtains and renews the application token.
// Concurrent callers that find the token expired share one exchange.
type ClientCredentialsManager struct {
	doer   Doer
	config ClientCredentialsConfig
	store  *TokenStore
	group  singleflight.Group
	now    func() time.Time
}

// NewClientCredentialsManager creates a manager that exchanges through doer.
func NewClientCredentialsManager(doer Doer, config *ClientCredentialsConfig) *ClientCredentialsManager {
	cfg := ClientCredentialsConfig{}
	if config != nil {
		cfg = *config
	}

	if cfg.CacheKey == "" {
		cfg.CacheKey = constants.DefaultClientTokenCacheKey
	}

	if cfg.RenewalMargin <= 0 {
		cfg.RenewalMargin = constants.TokenRenewalMargin
	}

	if cfg.ExchangeTimeout <= 0 {
		cfg.ExchangeTimeout = constants.DefaultHTTPTimeout
	}

	if cfg.Cache == nil {
		cfg.Cache = easemob.NewCacheManager(nil, nil)
	}

	return &ClientCredentialsManager{
		doer:   doer,
		config: cfg,
		store:  NewTokenStore(),
		now:    time.Now,
	}
}

// GetToken returns a valid access token, exchanging credentials if needed.
func (m *ClientCredentialsManager) GetToken(ctx context.Context) (string, error) {
	if token := m.store.Get(); token.ValidAt(m.now(), m.config.RenewalMargin) {
		return token.AccessToken, nil
	}

	value, err := m.share(ctx, m.config.CacheKey, func(ctx context.Context) (interface{}, error) {
		if token := m.store.Get(); token.ValidAt(m.now(), m.config.RenewalMargin) {
			return token.AccessToken, nil
		}

		if token := m.loadCached(ctx); token != nil {
			m.store.Set(token)

			return token.AccessToken, nil
		}

		token, err := m.exchange(ctx)
		if err != nil {
			return "", err
		}

		return token.AccessToken, nil
	})
	if err != nil {
		return "", err
	}

	accessToken, _ := value.(string)

	return accessToken, nil
}

// RefreshToken exchanges credentials regardless of the current token.
func (m *ClientCredentialsManager) RefreshToken(ctx context.Context) error {
	_, err := m.share(ctx, "refresh:"+m.config.CacheKey, func(ctx context.Context) (interface{}, error) {
		return m.exchange(ctx)
	})

	return err
}

// share runs fn once per key for all concurrent callers. fn is detached from
// the caller's cancellation and bounded by ExchangeTimeout; each caller stops
// waiting when its own ctx is done.
func (m *ClientCredentialsManager) share(
	ctx context.Context,
	key string,
	fn func(ctx context.Context) (interface{}, error),
) (interface{}, error) {
	results := m.group.DoChan(key, func() (interface{}, error) {
		sharedCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.config.ExchangeTimeout)
		defer cancel()

		return fn(sharedCtx)
	})

	select {
	case <-ctx.Done():
		return nil, &easemob.AuthError{
			Grant: constants.GrantTypeClientCredentials,
			Err:   easemob.NewTransportError(ctx.Err()),
		}
	case result := <-results:
		return result.Val, result.Err //nolint:wrapcheck // *easemob.AuthError is returned as is
	}
}

// SetToken installs a token obtained elsewhere and writes it to the cache.
func (m *ClientCredentialsManager) SetToken(accessToken string, expiresAt time.Time) {
	token := &Token{AccessToken: accessToken, ExpiresAt: expiresAt}
	m.store.Set(token)
	m.storeCached(context.Background(), token)
}

// Token returns a copy of the current token, or nil.
func (m *ClientCredentialsManager) Token() *Token {
	return m.store.Get()
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	Application string `json:"application"`
}

func (m *ClientCredentialsManager) exchange(ctx context.Context) (*Token, error) {
	resp, err := m.doer.Do(ctx, &emhttp.Request{
		Method: http.MethodPost,
		Path:   constants.APIPathToken,
		Body: map[string]string{
			"grant_type":    constants.GrantTypeClientCredentials,
			"client_id":     m.config.ClientID,
			"client_secret": m.config.ClientSecret,
		},
		SkipAuth: true,
	})
	if err != nil {
		m.log().Error("Client credential exchange failed", map[string]interface{}{"error": err.Error()})

		return nil, &easemob.AuthError{Grant: constants.GrantTypeClientCredentials, Err: err}
	}

	var payload tokenResponse

	err = json.Unmarshal(resp.Body, &payload)
	if err != nil {
		return nil, &easemob.AuthError{
			Grant: constants.GrantTypeClientCredentials,
			Err:   fmt.Errorf("parsing token response: %w", err),
		}
	}

	if payload.AccessToken == "" {
		return nil, &easemob.AuthError{Grant: constants.GrantTypeClientCredentials, Err: easemob.ErrNoAccessToken}
	}

	token := &Token{
		AccessToken: payload.AccessToken,
		ExpiresIn:   payload.ExpiresIn,
		ExpiresAt:   m.now().Add(time.Duration(payload.ExpiresIn) * time.Second),
		Application: payload.Application,
	}

	m.store.Set(token)
	m.storeCached(ctx, token)

	m.log().Info("Obtained client credential", map[string]interface{}{
		"expires_at":  token.ExpiresAt.Format(time.RFC3339),
		"application": token.Application,
	})

	return token, nil
}

// loadCached returns the cached token when it decodes and is still usable.
func (m *ClientCredentialsManager) loadCached(ctx context.Context) *Token {
	data, err := m.config.Cache.Get(ctx, m.config.CacheKey)
	if err != nil {
		return nil
	}

	var token Token

	err = json.Unmarshal(data, &token)
	if err != nil {
		m.log().Warn("Discarding undecodable cached credential", map[string]interface{}{
			"key":   m.config.CacheKey,
			"error": err.Error(),
		})

		return nil
	}

	if !token.ValidAt(m.now(), m.config.RenewalMargin) {
		return nil
	}

	return &token
}

func (m *ClientCredentialsManager) storeCached(ctx context.Context, token *Token) {
	data, err := json.Marshal(token)
	if err != nil {
		return
	}

	var ttl time.Duration

	if !token.ExpiresAt.IsZero() {
		ttl = token.ExpiresAt.Sub(m.now())
		if ttl <= 0 {
			return
		}
	}

	err = m.config.Cache.Set(ctx, m.config.CacheKey, data, ttl)
	if err != nil {
		m.log().Warn("Failed to cache client credential", map[string]interface{}{
			"key":   m.config.CacheKey,
			"error": err.Error(),
		})
	}
}

func (m *ClientCredentialsManager) log() easemob.Logger {
	return loggerOrNop(m.config.Logger)
}

type nopLogger struct{}

func (nopLogger) Debug(string, map[string]interface{}) {}
func (nopLogger) Info(string, map[string]interface{})  {}
func (nopLogger) Warn(string, map[string]interface{})  {}
func (nopLogger) Error(string, map[string]interface{}) {}

func loggerOrNop(logger easemob.Logger) easemob.Logger {
	if logger == nil {
		return nopLogger{}
	}

	return logger
}
