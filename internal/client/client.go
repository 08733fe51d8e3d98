package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/fivetwenty-io/easemob/internal/auth"
	"github.com/fivetwenty-io/easemob/internal/http"
	"github.com/fivetwenty-io/easemob/pkg/easemob"
)

// Static errors for err113 compliance.
var (
	ErrConfigRequired           = errors.New("configuration is required")
	ErrNoTokenManagerConfigured = errors.New("no token manager configured")
)

// Client implements the easemob.Client interface.
type Client struct {
	httpClient   *http.Client
	tokenManager http.TokenManager
	cache        easemob.Cache
	logger       easemob.Logger

	users    *UsersClient
	messages *MessagesClient
	files    *FilesClient
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *easemob.Config) []http.Option {
	var httpOpts []http.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, http.WithTimeout(config.HTTPTimeout))
	}

	if config.RetryMax > 0 {
		httpOpts = append(httpOpts, http.WithRetryConfig(config.RetryMax, config.RetryWaitMin, config.RetryWaitMax))
	}

	if config.RateLimit > 0 {
		httpOpts = append(httpOpts, http.WithRateLimit(config.RateLimit, config.RateBurst))
	}

	return httpOpts
}

// New creates a client for the application named by config. Defaults are
// applied to config before it is validated.
func New(_ context.Context, config *easemob.Config) (*Client, error) {
	if config == nil {
		return nil, ErrConfigRequired
	}

	config.ApplyDefaults()

	err := config.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cache, err := easemob.NewCacheFromConfig(config.Cache)
	if err != nil {
		return nil, fmt.Errorf("creating credential cache: %w", err)
	}

	cacheManager := easemob.NewCacheManager(cache, nil)

	httpClient := http.NewClient(config.BaseURL(), nil, createHTTPClientOptions(config)...)

	tokenManager := auth.NewClientCredentialsManager(httpClient, &auth.ClientCredentialsConfig{
		ClientID:        config.ClientID,
		ClientSecret:    config.ClientSecret,
		CacheKey:        config.ClientTokenCacheKey,
		RenewalMargin:   config.RenewalMargin,
		ExchangeTimeout: config.HTTPTimeout,
		Cache:           cacheManager,
		Logger:          config.Logger,
	})
	httpClient.SetTokenManager(tokenManager)

	userTokens := auth.NewUserTokenManager(httpClient, &auth.UserTokenConfig{
		Cache:    cacheManager,
		Disabled: config.DisableUserTokenCache,
		TTL:      config.UserTokenTTL,
		Logger:   config.Logger,
	})

	client := newClient(httpClient, tokenManager, userTokens, config.Logger)
	client.cache = cache

	if config.Logger != nil {
		config.Logger.Debug("Easemob client created", map[string]interface{}{
			"base_url": config.BaseURL(),
			"cache":    cacheType(config.Cache),
		})
	}

	return client, nil
}

// NewWithTokenManager creates a client that authenticates with tokenManager
// instead of exchanging the configured client credentials.
func NewWithTokenManager(config *easemob.Config, tokenManager http.TokenManager) (*Client, error) {
	if config == nil {
		return nil, ErrConfigRequired
	}

	if tokenManager == nil {
		return nil, ErrNoTokenManagerConfigured
	}

	config.ApplyDefaults()

	cache, err := easemob.NewCacheFromConfig(config.Cache)
	if err != nil {
		return nil, fmt.Errorf("creating credential cache: %w", err)
	}

	httpClient := http.NewClient(config.BaseURL(), tokenManager, createHTTPClientOptions(config)...)

	userTokens := auth.NewUserTokenManager(httpClient, &auth.UserTokenConfig{
		Cache:    easemob.NewCacheManager(cache, nil),
		Disabled: config.DisableUserTokenCache,
		TTL:      config.UserTokenTTL,
		Logger:   config.Logger,
	})

	client := newClient(httpClient, tokenManager, userTokens, config.Logger)
	client.cache = cache

	return client, nil
}

func newClient(httpClient *http.Client, tokenManager http.TokenManager, userTokens *auth.UserTokenManager, logger easemob.Logger) *Client {
	return &Client{
		httpClient:   httpClient,
		tokenManager: tokenManager,
		logger:       logger,
		users:        NewUsersClient(httpClient, userTokens),
		messages:     NewMessagesClient(httpClient),
		files:        NewFilesClient(httpClient),
	}
}

// Users implements easemob.Client.Users.
func (c *Client) Users() easemob.UsersClient {
	return c.users
}

// Messages implements easemob.Client.Messages.
func (c *Client) Messages() easemob.MessagesClient {
	return c.messages
}

// Files implements easemob.Client.Files.
func (c *Client) Files() easemob.FilesClient {
	return c.files
}

// Token implements easemob.Client.Token.
func (c *Client) Token(ctx context.Context) (string, error) {
	token, err := c.tokenManager.GetToken(ctx)
	if err != nil {
		return "", fmt.Errorf("getting client token: %w", err)
	}

	return token, nil
}

// Close implements easemob.Client.Close.
func (c *Client) Close() error {
	closer, ok := c.cache.(interface{ Close() error })
	if !ok {
		return nil
	}

	err := closer.Close()
	if err != nil {
		return fmt.Errorf("closing credential cache: %w", err)
	}

	return nil
}

// BaseURL returns <domain>/<org>/<app>.
func (c *Client) BaseURL() string {
	return c.httpClient.BaseURL()
}

func cacheType(config *easemob.CacheConfig) string {
	if config == nil || config.Type == "" {
		return string(easemob.CacheTypeMemory)
	}

	return string(config.Type)
}
