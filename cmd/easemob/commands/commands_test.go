package commands_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/easemob/cmd/easemob/commands"
	"github.com/fivetwenty-io/easemob/internal/constants"
	"github.com/fivetwenty-io/easemob/pkg/easemob"
)

// findSubcommand finds a subcommand by name within a cobra command.
func findSubcommand(cmd *cobra.Command, name string) *cobra.Command {
	for _, c := range cmd.Commands() {
		if c.Name() == name {
			return c
		}
	}

	return nil
}

func subcommandNames(cmd *cobra.Command) []string {
	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}

	return names
}

// appServer fakes the token, users, messages and chatfiles endpoints of
// demo-org/demo-app.
type appServer struct {
	*httptest.Server

	exchanges atomic.Int32
	lastBody  atomic.Value
}

func newAppServer(t *testing.T) *appServer {
	t.Helper()

	server := &appServer{}
	server.Server = httptest.NewServer(http.HandlerFunc(server.handle))
	t.Cleanup(server.Close)

	return server
}

func (s *appServer) handle(writer http.ResponseWriter, request *http.Request) {
	path := strings.TrimPrefix(request.URL.Path, "/demo-org/demo-app/")
	writer.Header().Set("Content-Type", "application/json")

	if strings.HasPrefix(request.Header.Get("Content-Type"), "application/json") {
		var body map[string]interface{}
		if json.NewDecoder(request.Body).Decode(&body) == nil {
			s.lastBody.Store(body)
		}
	}

	switch {
	case path == "token":
		s.exchanges.Add(1)
		_ = json.NewEncoder(writer).Encode(map[string]interface{}{
			"access_token": "cli-token",
			"expires_in":   3600,
		})
	case path == "users/alice" && request.Method == http.MethodGet:
		_ = json.NewEncoder(writer).Encode(map[string]interface{}{
			"entities": []map[string]interface{}{{"username": "alice", "uuid": "uuid-alice", "activated": true}},
		})
	case path == "users/alice/status":
		_ = json.NewEncoder(writer).Encode(map[string]interface{}{"data": map[string]string{"alice": "offline"}})
	case path == "messages":
		_ = json.NewEncoder(writer).Encode(map[string]interface{}{
			"data": map[string]string{"alice": "success", "bob": "success"},
		})
	case strings.HasPrefix(path, "chatfiles/"):
		writer.Header().Set("Content-Type", "application/octet-stream")
		_, _ = writer.Write([]byte("file-bytes"))
	default:
		writer.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(writer).Encode(map[string]string{
			"error":             "service_resource_not_found",
			"error_description": "Service resource not found",
		})
	}
}

func writeConfig(t *testing.T, apiDomain string) string {
	t.Helper()

	content := "api_domain: " + apiDomain + "\n" +
		"org_name: demo-org\n" +
		"app_name: demo-app\n" +
		"client_id: cli-id\n" +
		"client_secret: cli-secret\n" +
		"cache:\n  type: none\n"

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), constants.ConfigFilePerm))

	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := commands.NewRootCommand("1.2.3", "abc123", "2024-01-01")

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.Execute()

	return out.String(), err
}

func TestNewRootCommand(t *testing.T) {
	t.Parallel()

	root := commands.NewRootCommand("dev", "none", "unknown")
	assert.Equal(t, "easemob", root.Use)

	for _, flag := range []string{"config", "output", "verbose"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), "flag %s should exist", flag)
	}

	names := subcommandNames(root)
	for _, name := range []string{"version", "config", "token", "users", "messages", "files"} {
		assert.Contains(t, names, name)
	}

	users := findSubcommand(root, "users")
	require.NotNil(t, users)
	assert.ElementsMatch(t, []string{
		"create", "get", "status", "list", "delete", "password", "nickname", "notification", "token",
	}, subcommandNames(users))

	messages := findSubcommand(root, "messages")
	require.NotNil(t, messages)
	assert.ElementsMatch(t, []string{"text", "image", "audio", "video", "location", "command", "custom"}, subcommandNames(messages))

	files := findSubcommand(root, "files")
	require.NotNil(t, files)
	assert.ElementsMatch(t, []string{"upload", "download"}, subcommandNames(files))

	config := findSubcommand(root, "config")
	require.NotNil(t, config)
	assert.ElementsMatch(t, []string{"init", "show", "validate"}, subcommandNames(config))
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	out, err := run(t, "version", "--output", "json")
	require.NoError(t, err)

	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "1.2.3", info["version"])
	assert.Equal(t, "abc123", info["commit"])

	out, err = run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "1.2.3")

	_, err = run(t, "version", "--output", "xml")
	assert.ErrorIs(t, err, constants.ErrInvalidOutputType)
}

func TestConfigCommands(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "https://a1.easemob.com")

	out, err := run(t, "--config", path, "config", "show", "--output", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "org_name: demo-org")
	assert.Contains(t, out, "***")
	assert.NotContains(t, out, "cli-secret")

	out, err = run(t, "--config", path, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "https://a1.easemob.com/demo-org/demo-app")

	broken := filepath.Join(t.TempDir(), "broken.yml")
	require.NoError(t, os.WriteFile(broken, []byte("org_name: demo-org\nunknown_setting: 1\n"), constants.ConfigFilePerm))

	_, err = run(t, "--config", broken, "config", "show")
	assert.Error(t, err)
}

func TestConfigInitCommand(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "config.yml")
	args := []string{"--config", path, "config", "init",
		"--org", "init-org", "--app", "init-app", "--client-id", "init-id", "--client-secret", "init-secret"}

	out, err := run(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(constants.ConfigFilePerm), info.Mode().Perm())

	out, err = run(t, "--config", path, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "https://a1.easemob.com/init-org/init-app")

	_, err = run(t, args...)
	require.ErrorIs(t, err, commands.ErrConfigExists)

	_, err = run(t, append(args, "--force")...)
	require.NoError(t, err)

	_, err = run(t, "--config", filepath.Join(t.TempDir(), "bad.yml"), "config", "init",
		"--app", "init-app", "--client-id", "init-id", "--client-secret", "init-secret")
	require.ErrorIs(t, err, easemob.ErrOrgNameRequired)
}

func TestUsersCommands(t *testing.T) {
	t.Parallel()

	server := newAppServer(t)
	path := writeConfig(t, server.URL)

	out, err := run(t, "--config", path, "users", "get", "alice", "--output", "json")
	require.NoError(t, err)

	var user easemob.User
	require.NoError(t, json.Unmarshal([]byte(out), &user))
	assert.Equal(t, "uuid-alice", user.UUID)

	out, err = run(t, "--config", path, "users", "status", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "offline")

	out, err = run(t, "--config", path, "--color", "always", "users", "status", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "\x1b[2m")

	out, err = run(t, "--config", path, "--color", "never", "users", "status", "alice")
	require.NoError(t, err)
	assert.NotContains(t, out, "\x1b[")

	_, err = run(t, "--config", path, "--color", "rainbow", "users", "status", "alice")
	require.ErrorIs(t, err, commands.ErrInvalidColorMode)

	_, err = run(t, "--config", path, "users", "get", "nobody")
	require.Error(t, err)
	assert.True(t, easemob.IsNotFound(err))

	_, err = run(t, "--config", path, "users", "notification", "alice", "--style", "loud")
	assert.True(t, easemob.IsValidationError(err))

	assert.GreaterOrEqual(t, server.exchanges.Load(), int32(1))
}

func TestMessagesCommands(t *testing.T) {
	t.Parallel()

	server := newAppServer(t)
	path := writeConfig(t, server.URL)

	out, err := run(t, "--config", path, "messages", "text", "alice", "bob", "carol",
		"--msg", "hello", "--from", "ops", "--ext", "priority=high", "--output", "json")
	require.NoError(t, err)

	var result easemob.SendResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, []string{"carol"}, result.Missing)
	assert.Len(t, result.Results, 2)

	body, ok := server.lastBody.Load().(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "ops", body["from"])
	assert.Equal(t, map[string]interface{}{"priority": "high"}, body["ext"])
	assert.Equal(t, []interface{}{"alice", "bob", "carol"}, body["target"])

	_, err = run(t, "--config", path, "messages", "command", "alice", "--target-type", "robot", "--action", "x")
	assert.True(t, easemob.IsValidationError(err))

	_, err = run(t, "--config", path, "messages", "custom", "alice", "--event", "gift", "--field", "broken")
	assert.ErrorIs(t, err, commands.ErrInvalidKeyValue)
}

func TestMessagesMediaCommands(t *testing.T) {
	t.Parallel()

	server := newAppServer(t)
	path := writeConfig(t, server.URL)
	filesURL := server.URL + "/demo-org/demo-app/chatfiles/"

	_, err := run(t, "--config", path, "messages", "video", "alice",
		"--uuid", "video-uuid", "--thumb-uuid", "thumb-uuid", "--thumb-secret", "thumb-secret",
		"--filename", "clip.mp4", "--length", "10", "--file-length", "2048", "--output", "json")
	require.NoError(t, err)

	body, ok := server.lastBody.Load().(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, map[string]interface{}{
		"type":         "video",
		"url":          filesURL + "video-uuid",
		"thumb":        filesURL + "thumb-uuid",
		"thumb_secret": "thumb-secret",
		"filename":     "clip.mp4",
		"length":       float64(10),
		"file_length":  float64(2048),
	}, body["msg"])

	_, err = run(t, "--config", path, "messages", "audio", "alice", "bob", "--target-type", "group",
		"--uuid", "voice-uuid", "--secret", "voice-secret", "--filename", "hi.amr", "--length", "4", "--output", "json")
	require.NoError(t, err)

	body, ok = server.lastBody.Load().(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "chatgroups", body["target_type"])
	assert.Equal(t, map[string]interface{}{
		"type":     "audio",
		"url":      filesURL + "voice-uuid",
		"secret":   "voice-secret",
		"filename": "hi.amr",
		"length":   float64(4),
	}, body["msg"])

	_, err = run(t, "--config", path, "messages", "video", "alice", "--uuid", "video-uuid", "--filename", "clip.mp4")
	assert.True(t, easemob.IsValidationError(err))
}

func TestFilesDownloadCommand(t *testing.T) {
	t.Parallel()

	server := newAppServer(t)
	path := writeConfig(t, server.URL)
	dest := filepath.Join(t.TempDir(), "download.bin")

	out, err := run(t, "--config", path, "files", "download", "file-uuid", "--dest", dest)
	require.NoError(t, err)
	assert.Contains(t, out, dest)

	content, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "file-bytes", string(content))
}
