//go:build integration

package integration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCLIWorkflow_UserJourney(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingBinary(t)

	runner := NewCommandRunner(config, t)
	username := GenerateTestName("it-cli")

	defer runner.CleanupUser(username)

	// 1. Configuration comes from the environment
	stdout, stderr, err := runner.Run("config", "validate")
	require.NoError(t, err, "config validate failed: %s", stderr)
	assert.Contains(t, stdout, "Configuration is valid")

	// 2. Create the user
	_, stderr, err = runner.Run("users", "create", username, "--password", "Workflow-pass-1", "--nickname", "Workflow")
	require.NoError(t, err, "users create failed: %s", stderr)

	// 3. Read it back as JSON
	stdout, stderr, err = runner.Run("users", "get", username, "--output", "json")
	require.NoError(t, err, "users get failed: %s", stderr)

	var user map[string]interface{}
	AssertJSONOutput(t, stdout, &user)
	assert.Equal(t, username, user["username"])

	// 4. Send a message and check the recipient is reported
	stdout, stderr, err = runner.Run("messages", "text", username, "--msg", "hello from the CLI", "--output", "json")
	require.NoError(t, err, "messages text failed: %s", stderr)
	assert.Contains(t, stdout, username)

	// 5. Exchange a user token
	stdout, stderr, err = runner.Run("users", "token", username, "--password", "Workflow-pass-1")
	require.NoError(t, err, "users token failed: %s", stderr)
	assert.NotEmpty(t, stdout)

	// 6. Delete and confirm it is gone
	_, stderr, err = runner.Run("users", "delete", username)
	require.NoError(t, err, "users delete failed: %s", stderr)

	_, stderr, err = runner.Run("users", "get", username)
	require.Error(t, err)
	assert.NotEmpty(t, stderr)
}

func TestCLIWorkflow_InvalidInput(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingBinary(t)

	runner := NewCommandRunner(config, t)

	_, stderr, err := runner.Run("messages", "text", "anyone", "--msg", "x", "--target-type", "robots")
	require.Error(t, err)
	assert.Contains(t, stderr, "target_type")

	_, _, err = runner.Run("version", "--output", "xml")
	require.Error(t, err)
}
