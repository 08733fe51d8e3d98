package easemob

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/fivetwenty-io/easemob/internal/constants"
)

// EnvPrefix is the prefix of environment variables read by LoadConfig.
const EnvPrefix = "EASEMOB"

// Config configures an Easemob client.
//
// OrgName, AppName, ClientID and ClientSecret are required. Every other field
// has a default applied by ApplyDefaults.
//
// # Credentials
//
// The client credential is exchanged on the first authenticated call and kept
// in memory and in the configured Cache under ClientTokenCacheKey. It is
// renewed once it is within RenewalMargin of its expiry. Several processes
// sharing a NATS or Redis cache share one credential.
//
// # User tokens
//
// Per-user password tokens are cached under "UserAccessToken:<username>" for
// the lifetime the server returns, or for UserTokenTTL when it is positive.
// DisableUserTokenCache turns that cache off.
//
// # Retries and rate limiting
//
// Requests are not retried unless RetryMax is positive. RateLimit, when
// positive, caps outgoing requests per second with RateBurst as the bucket
// size.
type Config struct {
	// APIDomain is the scheme and host of the REST endpoint.
	APIDomain string `mapstructure:"api_domain"`
	// OrgName and AppName select the application: <domain>/<org>/<app>/.
	OrgName string `mapstructure:"org_name"`
	AppName string `mapstructure:"app_name"`

	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`

	// ClientTokenCacheKey is where the client credential is cached.
	ClientTokenCacheKey string `mapstructure:"client_token_cache_key"`
	// RenewalMargin is how early a credential is renewed before it expires.
	RenewalMargin time.Duration `mapstructure:"renewal_margin"`

	DisableUserTokenCache bool          `mapstructure:"disable_user_token_cache"`
	UserTokenTTL          time.Duration `mapstructure:"user_token_ttl"`

	HTTPTimeout  time.Duration `mapstructure:"http_timeout"`
	RetryMax     int           `mapstructure:"retry_max"`
	RetryWaitMin time.Duration `mapstructure:"retry_wait_min"`
	RetryWaitMax time.Duration `mapstructure:"retry_wait_max"`

	// RateLimit is requests per second; zero disables the limiter.
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`

	// Debug logs every request and response through Logger.
	Debug     bool   `mapstructure:"debug"`
	UserAgent string `mapstructure:"user_agent"`

	Cache *CacheConfig `mapstructure:"cache"`

	// Logger receives HTTP and token lifecycle logs. Nil disables logging.
	Logger Logger `mapstructure:"-"`
}

// ApplyDefaults fills unset optional fields.
func (c *Config) ApplyDefaults() {
	if c.APIDomain == "" {
		c.APIDomain = constants.DefaultAPIDomain
	}

	c.APIDomain = strings.TrimSuffix(c.APIDomain, "/")
	if !strings.HasPrefix(c.APIDomain, "http://") && !strings.HasPrefix(c.APIDomain, "https://") {
		c.APIDomain = "https://" + c.APIDomain
	}

	if c.ClientTokenCacheKey == "" {
		c.ClientTokenCacheKey = constants.DefaultClientTokenCacheKey
	}

	if c.RenewalMargin == 0 {
		c.RenewalMargin = constants.TokenRenewalMargin
	}

	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = constants.DefaultHTTPTimeout
	}

	if c.RetryWaitMin == 0 {
		c.RetryWaitMin = constants.DefaultRetryWaitMin
	}

	if c.RetryWaitMax == 0 {
		c.RetryWaitMax = constants.DefaultRetryWaitMax
	}

	if c.RateLimit > 0 && c.RateBurst <= 0 {
		c.RateBurst = 1
	}

	if c.UserAgent == "" {
		c.UserAgent = constants.DefaultUserAgent
	}

	if c.Cache == nil {
		c.Cache = DefaultCacheConfig()
	}
}

// Validate checks that the configuration can build a client.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.OrgName) == "":
		return ErrOrgNameRequired
	case strings.TrimSpace(c.AppName) == "":
		return ErrAppNameRequired
	case c.ClientID == "":
		return ErrClientIDRequired
	case c.ClientSecret == "":
		return ErrClientSecretRequired
	}

	if c.APIDomain != "" {
		parsed, err := url.Parse(c.APIDomain)
		if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return fmt.Errorf("%w: %q", ErrInvalidAPIDomain, c.APIDomain)
		}
	}

	durations := map[string]time.Duration{
		"renewal_margin": c.RenewalMargin,
		"user_token_ttl": c.UserTokenTTL,
		"http_timeout":   c.HTTPTimeout,
		"retry_wait_min": c.RetryWaitMin,
		"retry_wait_max": c.RetryWaitMax,
	}
	for name, value := range durations {
		if value < 0 {
			return fmt.Errorf("%w: %s", ErrNegativeDuration, name)
		}
	}

	if c.RetryMax < 0 {
		return NewValidationError("retry_max", "must not be negative")
	}

	if c.RateLimit < 0 {
		return NewValidationError("rate_limit", "must not be negative")
	}

	return nil
}

// BaseURL returns <domain>/<org>/<app> without a trailing slash.
func (c *Config) BaseURL() string {
	return strings.TrimSuffix(c.APIDomain, "/") + "/" + c.OrgName + "/" + c.AppName
}

// configKeys lists every key LoadConfig binds to an environment variable.
var configKeys = []string{
	"api_domain",
	"org_name",
	"app_name",
	"client_id",
	"client_secret",
	"client_token_cache_key",
	"renewal_margin",
	"disable_user_token_cache",
	"user_token_ttl",
	"http_timeout",
	"retry_max",
	"retry_wait_min",
	"retry_wait_max",
	"rate_limit",
	"rate_burst",
	"debug",
	"user_agent",
	"cache.type",
	"cache.memory.max_size",
	"cache.nats.url",
	"cache.nats.bucket",
	"cache.nats.ttl",
	"cache.nats.credentials_file",
	"cache.nats.timeout",
	"cache.redis.url",
	"cache.redis.addr",
	"cache.redis.password",
	"cache.redis.db",
	"cache.redis.key_prefix",
	"cache.redis.timeout",
	"cache.local.max_size",
	"cache.local.ttl",
}

// LoadConfig decodes a Config from v. Environment variables named
// EASEMOB_<KEY> (dots become underscores) override file values. Unknown keys
// are rejected.
func LoadConfig(v *viper.Viper) (*Config, error) {
	if v == nil {
		return nil, ErrConfigRequired
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, key := range configKeys {
		err := v.BindEnv(key)
		if err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	v.SetDefault("api_domain", constants.DefaultAPIDomain)
	v.SetDefault("client_token_cache_key", constants.DefaultClientTokenCacheKey)
	v.SetDefault("renewal_margin", constants.TokenRenewalMargin)
	v.SetDefault("http_timeout", constants.DefaultHTTPTimeout)
	v.SetDefault("retry_max", constants.DefaultRetryMax)
	v.SetDefault("cache.type", string(CacheTypeMemory))

	var config Config

	err := v.UnmarshalExact(&config)
	if err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}

	config.ApplyDefaults()

	return &config, nil
}
