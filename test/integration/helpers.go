//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestConfig holds configuration for integration tests
type TestConfig struct {
	OrgName      string
	AppName      string
	ClientID     string
	ClientSecret string
	BinaryPath   string
	Verbose      bool
}

// LoadTestConfig loads configuration from environment variables
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		OrgName:      os.Getenv("EASEMOB_ORG_NAME"),
		AppName:      os.Getenv("EASEMOB_APP_NAME"),
		ClientID:     os.Getenv("EASEMOB_CLIENT_ID"),
		ClientSecret: os.Getenv("EASEMOB_CLIENT_SECRET"),
		BinaryPath:   getBinaryPath(),
		Verbose:      os.Getenv("EASEMOB_TEST_VERBOSE") == "true",
	}
}

func getBinaryPath() string {
	if path := os.Getenv("EASEMOB_BINARY_PATH"); path != "" {
		return path
	}

	for _, candidate := range []string{"../../easemob", "./easemob", "../easemob"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "easemob"
}

// SkipIfMissingCredentials skips the test unless an application is configured.
func (config *TestConfig) SkipIfMissingCredentials(t *testing.T) {
	t.Helper()

	if config.OrgName == "" || config.AppName == "" || config.ClientID == "" || config.ClientSecret == "" {
		t.Skip("EASEMOB_ORG_NAME, EASEMOB_APP_NAME, EASEMOB_CLIENT_ID and EASEMOB_CLIENT_SECRET must be set")
	}
}

// SkipIfMissingBinary additionally skips when the CLI has not been built.
func (config *TestConfig) SkipIfMissingBinary(t *testing.T) {
	t.Helper()
	config.SkipIfMissingCredentials(t)

	if _, err := exec.LookPath(config.BinaryPath); err != nil {
		t.Skipf("easemob binary not found at %s, skipping integration test", config.BinaryPath)
	}
}

// CommandRunner runs the easemob CLI against the configured application.
type CommandRunner struct {
	config *TestConfig
	t      *testing.T
}

// NewCommandRunner creates a new command runner
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	return &CommandRunner{config: config, t: t}
}

// Run executes an easemob command and returns its output.
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	return runner.RunWithInput("", args...)
}

// RunWithInput executes an easemob command with stdin input.
func (runner *CommandRunner) RunWithInput(input string, args ...string) (stdout, stderr string, err error) {
	cmd := exec.Command(runner.config.BinaryPath, args...)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf
	cmd.Stdin = strings.NewReader(input)
	cmd.Env = append(os.Environ(), "HOME="+runner.t.TempDir())

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.BinaryPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// GenerateTestName creates a unique, lowercase username.
func GenerateTestName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// CleanupUser attempts to delete a test user.
func (runner *CommandRunner) CleanupUser(username string) {
	stdout, stderr, err := runner.Run("users", "delete", username)
	if err != nil && runner.config.Verbose {
		runner.t.Logf("Cleanup warning for %s: %s\nStderr: %s", username, stdout, stderr)
	}
}

// AssertJSONOutput decodes output as JSON into out.
func AssertJSONOutput(t *testing.T, output string, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(output), out), "output is not valid JSON:\n%s", output)
}
