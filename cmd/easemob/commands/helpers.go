package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/easemob/internal/constants"
	"github.com/fivetwenty-io/easemob/pkg/easemob"
	"github.com/fivetwenty-io/easemob/pkg/emclient"
)

// Common string constants used throughout the commands package.
const (
	NotAvailable = "N/A"
	Masked       = "***"

	configDirName  = ".easemob"
	configFileName = "config"
	configFileType = "yml"

	defaultJSONIndent = "  "

	colorAuto   = "auto"
	colorAlways = "always"
	colorNever  = "never"
)

// Common static errors used throughout the commands package.
var (
	ErrInvalidKeyValue  = errors.New("expected key=value")
	ErrInvalidTimeRange = errors.New("expected a range such as 22-7")
	ErrInvalidColorMode = errors.New("color must be auto, always or never")
)

// loadViper reads the configuration file selected by --config, or
// $HOME/.easemob/config.yml when it exists.
func loadViper(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()

	cfgFile, _ := cmd.Flags().GetString("config")
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)

		err := v.ReadInConfig()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", cfgFile, err)
		}

		return v, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return v, nil //nolint:nilerr // environment variables still apply
	}

	v.AddConfigPath(filepath.Join(home, configDirName))
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)

	err = v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	return v, nil
}

// loadConfig decodes the SDK configuration for cmd.
func loadConfig(cmd *cobra.Command) (*easemob.Config, error) {
	v, err := loadViper(cmd)
	if err != nil {
		return nil, err
	}

	config, err := easemob.LoadConfig(v)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose {
		config.Debug = true
		config.Logger = easemob.NewSlogLogger(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	return config, nil
}

// createClient builds a client from the configuration of cmd.
func createClient(cmd *cobra.Command) (easemob.Client, error) {
	config, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	client, err := emclient.New(cmd.Context(), config)
	if err != nil {
		if missingSetting(err) {
			return nil, fmt.Errorf("%w (%w)", err, constants.ErrNoConfigFile)
		}

		return nil, err
	}

	return client, nil
}

func missingSetting(err error) bool {
	for _, target := range []error{
		easemob.ErrOrgNameRequired,
		easemob.ErrAppNameRequired,
		easemob.ErrClientIDRequired,
		easemob.ErrClientSecretRequired,
	} {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}

func outputFormat(cmd *cobra.Command) string {
	format, _ := cmd.Flags().GetString("output")

	return strings.ToLower(format)
}

// render writes value as JSON or YAML, or calls table for table output.
func render(cmd *cobra.Command, value interface{}, table func(*tablewriter.Table)) error {
	out := cmd.OutOrStdout()

	switch outputFormat(cmd) {
	case constants.FormatJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", defaultJSONIndent)

		err := encoder.Encode(value)
		if err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}

		return nil

	case constants.FormatYAML:
		encoder := yaml.NewEncoder(out)

		err := encoder.Encode(value)
		if err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}

		return encoder.Close()

	case constants.FormatTable, "":
		writer := tablewriter.NewWriter(out)
		table(writer)

		err := writer.Render()
		if err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil

	default:
		return fmt.Errorf("%w: %s", constants.ErrInvalidOutputType, outputFormat(cmd))
	}
}

func validateColorMode(cmd *cobra.Command) error {
	mode, _ := cmd.Flags().GetString("color")

	switch strings.ToLower(mode) {
	case colorAuto, colorAlways, colorNever, "":
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidColorMode, mode)
	}
}

// paint colors text for table output. In auto mode color follows the
// terminal and NO_COLOR.
func paint(cmd *cobra.Command, text string, attrs ...color.Attribute) string {
	painter := color.New(attrs...)

	mode, _ := cmd.Flags().GetString("color")
	switch strings.ToLower(mode) {
	case colorAlways:
		painter.EnableColor()
	case colorNever:
		painter.DisableColor()
	}

	return painter.Sprint(text)
}

func statusBadge(cmd *cobra.Command, status string) string {
	switch status {
	case "online", "success":
		return paint(cmd, status, color.FgGreen)
	case "offline":
		return paint(cmd, status, color.Faint)
	case "missing":
		return paint(cmd, status, color.FgRed)
	default:
		return status
	}
}

func renderUser(cmd *cobra.Command, user *easemob.User) error {
	return render(cmd, user, func(table *tablewriter.Table) {
		table.Header("Property", "Value")
		_ = table.Append("Username", user.Username)
		_ = table.Append("UUID", user.UUID)
		_ = table.Append("Nickname", valueOrNA(user.Nickname))
		_ = table.Append("Activated", fmt.Sprintf("%t", user.Activated))
		_ = table.Append("Created", fmt.Sprintf("%d", user.Created))
	})
}

func renderUsers(cmd *cobra.Command, users []easemob.User, cursor string) error {
	view := easemob.UserList{Entities: users, Cursor: cursor, Count: len(users)}

	return render(cmd, view, func(table *tablewriter.Table) {
		table.Header("Username", "UUID", "Nickname", "Activated")

		for _, user := range users {
			_ = table.Append(user.Username, user.UUID, valueOrNA(user.Nickname), fmt.Sprintf("%t", user.Activated))
		}

		if cursor != "" {
			table.Footer("", "", "Cursor", cursor)
		}
	})
}

func renderProperties(cmd *cobra.Command, value interface{}, rows [][2]string) error {
	return render(cmd, value, func(table *tablewriter.Table) {
		table.Header("Property", "Value")

		for _, row := range rows {
			_ = table.Append(row[0], row[1])
		}
	})
}

func valueOrNA(value string) string {
	if value == "" {
		return NotAvailable
	}

	return value
}

func mask(secret string) string {
	if secret == "" {
		return NotAvailable
	}

	return Masked
}

// promptPassword reads a password from the terminal without echo.
func promptPassword(out io.Writer, prompt string) (string, error) {
	_, err := io.WriteString(out, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin)) //nolint:unconvert // syscall.Stdin is not an int on every platform
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	_, _ = io.WriteString(out, "\n")

	return string(passwordBytes), nil
}

// passwordFlag returns --password or prompts for it.
func passwordFlag(cmd *cobra.Command, prompt string) (string, error) {
	password, _ := cmd.Flags().GetString("password")
	if password != "" {
		return password, nil
	}

	password, err := promptPassword(cmd.ErrOrStderr(), prompt)
	if err != nil {
		return "", err
	}

	if password == "" {
		return "", constants.ErrPasswordRequired
	}

	return password, nil
}

// parseKeyValues turns ["a=1", "b=2"] into a map.
func parseKeyValues(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil //nolint:nilnil // no pairs is not an error
	}

	values := make(map[string]string, len(pairs))

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidKeyValue, pair)
		}

		values[strings.TrimSpace(key)] = value
	}

	return values, nil
}

func closeClient(cmd *cobra.Command, client easemob.Client) {
	err := client.Close()
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
	}
}
