package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/fivetwenty-io/easemob/internal/client"
	"github.com/fivetwenty-io/easemob/pkg/easemob"
)

const (
	testAppPath = "/demo-org/demo-app"
	testToken   = "app-token"
)

type staticTokenManager struct {
	mu    sync.Mutex
	token string
}

func (m *staticTokenManager) GetToken(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.token, nil
}

func (m *staticTokenManager) RefreshToken(context.Context) error {
	return nil
}

func (m *staticTokenManager) SetToken(token string, _ time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = token
}

func newTestConfig(serverURL string) *easemob.Config {
	return &easemob.Config{
		APIDomain:    serverURL,
		OrgName:      "demo-org",
		AppName:      "demo-app",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
	}
}

// newTestClient serves handler and returns a client authenticated with a
// static token against it.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewWithTokenManager(newTestConfig(server.URL), &staticTokenManager{token: testToken})
	require.NoError(t, err)

	return client
}

func writeJSON(writer http.ResponseWriter, status int, body interface{}) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	_ = json.NewEncoder(writer).Encode(body)
}

func decodeJSONBody(t *testing.T, request *http.Request) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}

	assert.NoError(t, json.NewDecoder(request.Body).Decode(&body))

	return body
}

func decodeInto(request *http.Request, out interface{}) error {
	return json.NewDecoder(request.Body).Decode(out)
}
