package emclient

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/fivetwenty-io/easemob/internal/client"
	"github.com/fivetwenty-io/easemob/pkg/easemob"
)

// Static errors for err113 compliance.
var (
	ErrAccessTokenRequired      = errors.New("access token is required")
	ErrStaticTokenCannotRefresh = errors.New("static token cannot be refreshed")
)

// New creates a new Easemob client. Defaults are applied to config before it
// is validated.
func New(ctx context.Context, config *easemob.Config) (easemob.Client, error) {
	if config == nil {
		return nil, easemob.ErrConfigRequired
	}

	c, err := client.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return c, nil
}

// NewWithClientCredentials creates a client for org/app on the default domain.
func NewWithClientCredentials(ctx context.Context, orgName, appName, clientID, clientSecret string) (easemob.Client, error) {
	return New(ctx, &easemob.Config{
		OrgName:      orgName,
		AppName:      appName,
		ClientID:     clientID,
		ClientSecret: clientSecret,
	})
}

// NewFromViper decodes the configuration held by v, including EASEMOB_*
// environment overrides, and creates a client from it.
func NewFromViper(ctx context.Context, v *viper.Viper) (easemob.Client, error) {
	config, err := easemob.LoadConfig(v)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	return New(ctx, config)
}

// NewWithToken creates a client that sends accessToken on every request and
// never exchanges client credentials. OrgName and AppName are still required.
func NewWithToken(config *easemob.Config, accessToken string) (easemob.Client, error) {
	if config == nil {
		return nil, easemob.ErrConfigRequired
	}

	if accessToken == "" {
		return nil, ErrAccessTokenRequired
	}

	if config.OrgName == "" {
		return nil, easemob.ErrOrgNameRequired
	}

	if config.AppName == "" {
		return nil, easemob.ErrAppNameRequired
	}

	c, err := client.NewWithTokenManager(config, &staticTokenManager{token: accessToken})
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return c, nil
}

type staticTokenManager struct {
	mu    sync.RWMutex
	token string
}

func (m *staticTokenManager) GetToken(context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.token, nil
}

func (m *staticTokenManager) RefreshToken(context.Context) error {
	return ErrStaticTokenCannotRefresh
}

func (m *staticTokenManager) SetToken(token string, _ time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = token
}
