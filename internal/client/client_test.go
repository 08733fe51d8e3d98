package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/fivetwenty-io/easemob/internal/client"
	"github.com/fivetwenty-io/easemob/pkg/easemob"
)

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), nil)
	assert.True(t, errors.Is(err, ErrConfigRequired))

	_, err = New(context.Background(), &easemob.Config{AppName: "demo-app", ClientID: "id", ClientSecret: "secret"})
	assert.True(t, errors.Is(err, easemob.ErrOrgNameRequired))

	_, err = New(context.Background(), &easemob.Config{
		OrgName:      "demo-org",
		AppName:      "demo-app",
		ClientID:     "id",
		ClientSecret: "secret",
		Cache:        &easemob.CacheConfig{Type: "memcached"},
	})
	assert.True(t, errors.Is(err, easemob.ErrUnsupportedCacheType))

	_, err = NewWithTokenManager(newTestConfig("https://a1.easemob.com"), nil)
	assert.True(t, errors.Is(err, ErrNoTokenManagerConfigured))
}

//nolint:funlen
func TestNew_ExchangesClientCredentials(t *testing.T) {
	t.Parallel()

	var exchanges, sends atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		switch request.URL.Path {
		case testAppPath + "/token":
			exchanges.Add(1)
			assert.Empty(t, request.Header.Get("Authorization"))
			assert.Equal(t, map[string]interface{}{
				"grant_type":    "client_credentials",
				"client_id":     "client-id",
				"client_secret": "client-secret",
			}, decodeJSONBody(t, request))

			writeJSON(writer, http.StatusOK, map[string]interface{}{
				"access_token": "exchanged-token",
				"expires_in":   7200,
				"application":  "app-uuid",
			})

		case testAppPath + "/messages":
			sends.Add(1)
			assert.Equal(t, "Bearer exchanged-token", request.Header.Get("Authorization"))
			assert.Equal(t, "easemob-test/2.0", request.Header.Get("User-Agent"))

			writeJSON(writer, http.StatusOK, map[string]interface{}{
				"data": map[string]interface{}{"alice": "success"},
			})

		default:
			t.Errorf("unexpected request to %s", request.URL.Path)
			writer.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	config := newTestConfig(server.URL + "/")
	config.UserAgent = "easemob-test/2.0"

	client, err := New(context.Background(), config)
	require.NoError(t, err)

	defer func() { _ = client.Close() }()

	assert.Equal(t, server.URL+testAppPath, client.BaseURL())

	for range 3 {
		_, err = client.Messages().SendText(context.Background(), easemob.TargetUser, easemob.To("alice"), "hi", nil)
		require.NoError(t, err)
	}

	token, err := client.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "exchanged-token", token)

	assert.Equal(t, int32(1), exchanges.Load())
	assert.Equal(t, int32(3), sends.Load())
}

func TestNew_AuthFailureSurfaces(t *testing.T) {
	t.Parallel()

	var sends atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path == testAppPath+"/token" {
			writeJSON(writer, http.StatusUnauthorized, map[string]interface{}{
				"error":             "invalid_grant",
				"error_description": "client secret mismatch",
			})

			return
		}

		sends.Add(1)
		writer.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := New(context.Background(), newTestConfig(server.URL))
	require.NoError(t, err)

	_, err = client.Messages().SendText(context.Background(), easemob.TargetUser, easemob.To("alice"), "hi", nil)
	require.Error(t, err)
	assert.True(t, easemob.IsAuthError(err))
	assert.True(t, easemob.IsUnauthorized(err))
	assert.Equal(t, int32(0), sends.Load())
}

func TestClient_CloseWithoutRemoteCache(t *testing.T) {
	t.Parallel()

	config := newTestConfig("https://a1.easemob.com")
	config.Cache = &easemob.CacheConfig{Type: easemob.CacheTypeNone}

	client, err := New(context.Background(), config)
	require.NoError(t, err)
	assert.NoError(t, client.Close())
}
