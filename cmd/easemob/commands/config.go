package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/easemob/internal/constants"
	"github.com/fivetwenty-io/easemob/pkg/easemob"
)

// ErrConfigExists is returned by config init when the file is already present.
var ErrConfigExists = errors.New("configuration file already exists, use --force to overwrite")

// configFile is the on-disk layout written by config init.
type configFile struct {
	APIDomain    string `yaml:"api_domain,omitempty"`
	OrgName      string `yaml:"org_name"`
	AppName      string `yaml:"app_name"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// configView is the printable form of easemob.Config with secrets masked.
type configView struct {
	APIDomain             string `json:"api_domain"               yaml:"api_domain"`
	OrgName               string `json:"org_name"                 yaml:"org_name"`
	AppName               string `json:"app_name"                 yaml:"app_name"`
	BaseURL               string `json:"base_url"                 yaml:"base_url"`
	ClientID              string `json:"client_id"                yaml:"client_id"`
	ClientSecret          string `json:"client_secret"            yaml:"client_secret"`
	ClientTokenCacheKey   string `json:"client_token_cache_key"   yaml:"client_token_cache_key"`
	RenewalMargin         string `json:"renewal_margin"           yaml:"renewal_margin"`
	DisableUserTokenCache bool   `json:"disable_user_token_cache" yaml:"disable_user_token_cache"`
	UserTokenTTL          string `json:"user_token_ttl"           yaml:"user_token_ttl"`
	HTTPTimeout           string `json:"http_timeout"             yaml:"http_timeout"`
	RetryMax              int    `json:"retry_max"                yaml:"retry_max"`
	RateLimit             string `json:"rate_limit"               yaml:"rate_limit"`
	Cache                 string `json:"cache"                    yaml:"cache"`
}

func newConfigView(config *easemob.Config) configView {
	view := configView{
		APIDomain:             config.APIDomain,
		OrgName:               config.OrgName,
		AppName:               config.AppName,
		BaseURL:               config.BaseURL(),
		ClientID:              config.ClientID,
		ClientSecret:          mask(config.ClientSecret),
		ClientTokenCacheKey:   config.ClientTokenCacheKey,
		RenewalMargin:         config.RenewalMargin.String(),
		DisableUserTokenCache: config.DisableUserTokenCache,
		UserTokenTTL:          NotAvailable,
		HTTPTimeout:           config.HTTPTimeout.String(),
		RetryMax:              config.RetryMax,
		RateLimit:             "unlimited",
		Cache:                 string(easemob.CacheTypeMemory),
	}

	if config.UserTokenTTL > 0 {
		view.UserTokenTTL = config.UserTokenTTL.String()
	}

	if config.RateLimit > 0 {
		view.RateLimit = fmt.Sprintf("%g/s (burst %d)", config.RateLimit, config.RateBurst)
	}

	if config.Cache != nil && config.Cache.Type != "" {
		view.Cache = string(config.Cache.Type)
	}

	return view
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Create, show and validate the Easemob configuration assembled from the config file and environment",
	}

	cmd.AddCommand(newConfigInitCommand())
	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigValidateCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the effective configuration with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			view := newConfigView(config)

			return renderProperties(cmd, view, [][2]string{
				{"API Domain", view.APIDomain},
				{"Organization", valueOrNA(view.OrgName)},
				{"Application", valueOrNA(view.AppName)},
				{"Base URL", view.BaseURL},
				{"Client ID", valueOrNA(view.ClientID)},
				{"Client Secret", view.ClientSecret},
				{"Token Cache Key", view.ClientTokenCacheKey},
				{"Renewal Margin", view.RenewalMargin},
				{"User Token Cache", strconv.FormatBool(!view.DisableUserTokenCache)},
				{"User Token TTL", view.UserTokenTTL},
				{"HTTP Timeout", view.HTTPTimeout},
				{"Retry Max", strconv.Itoa(view.RetryMax)},
				{"Rate Limit", view.RateLimit},
				{"Cache", view.Cache},
			})
		},
	}
}

func newConfigValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		Long:  "Check that every required setting is present and well formed",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			err = config.Validate()
			if err != nil {
				return fmt.Errorf("configuration is invalid: %w", err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Configuration is valid for %s\n", config.BaseURL())

			return err
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	var (
		file  configFile
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file",
		Long:  "Write org, app and client credentials to --config, or to $HOME/.easemob/config.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file.ClientSecret == "" {
				secret, err := promptPassword(cmd.ErrOrStderr(), "Client secret: ")
				if err != nil {
					return err
				}

				file.ClientSecret = secret
			}

			config := &easemob.Config{
				APIDomain:    file.APIDomain,
				OrgName:      file.OrgName,
				AppName:      file.AppName,
				ClientID:     file.ClientID,
				ClientSecret: file.ClientSecret,
			}
			config.ApplyDefaults()

			err := config.Validate()
			if err != nil {
				return fmt.Errorf("configuration is invalid: %w", err)
			}

			path, err := configFilePath(cmd)
			if err != nil {
				return err
			}

			_, err = os.Stat(path)
			if err == nil && !force {
				return fmt.Errorf("%w: %s", ErrConfigExists, path)
			}

			err = os.MkdirAll(filepath.Dir(path), constants.ConfigDirPerm)
			if err != nil {
				return fmt.Errorf("failed to create config directory: %w", err)
			}

			data, err := yaml.Marshal(file)
			if err != nil {
				return fmt.Errorf("failed to marshal config to YAML: %w", err)
			}

			err = os.WriteFile(path, data, constants.ConfigFilePerm)
			if err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)

			return err
		},
	}

	cmd.Flags().StringVar(&file.APIDomain, "api-domain", "", "REST endpoint (default "+constants.DefaultAPIDomain+")")
	cmd.Flags().StringVar(&file.OrgName, "org", "", "organization name")
	cmd.Flags().StringVar(&file.AppName, "app", "", "application name")
	cmd.Flags().StringVar(&file.ClientID, "client-id", "", "client ID")
	cmd.Flags().StringVar(&file.ClientSecret, "client-secret", "", "client secret (prompted when omitted)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	return cmd
}

func configFilePath(cmd *cobra.Command) (string, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	if cfgFile != "" {
		return cfgFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, configDirName, configFileName+"."+configFileType), nil
}
