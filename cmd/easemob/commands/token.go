package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewTokenCommand creates the token command
func NewTokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Print the application access token",
		Long:  "Exchange the configured client credentials (or reuse a cached token) and print the access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd)
			if err != nil {
				return err
			}
			defer closeClient(cmd, client)

			token, err := client.Token(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get token: %w", err)
			}

			view := map[string]string{"access_token": token}

			return renderProperties(cmd, view, [][2]string{{"Access Token", token}})
		},
	}
}
