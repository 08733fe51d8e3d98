package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/easemob/pkg/easemob"
)

// NewFilesCommand creates the files command group
func NewFilesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "files",
		Aliases: []string{"file"},
		Short:   "Manage chat files",
		Long:    "Upload and download files referenced by media messages",
	}

	cmd.AddCommand(newFilesUploadCommand())
	cmd.AddCommand(newFilesDownloadCommand())

	return cmd
}

func newFilesUploadCommand() *cobra.Command {
	var restrict bool

	cmd := &cobra.Command{
		Use:   "upload PATH",
		Short: "Upload a chat file",
		Long:  "Upload a local file. With --restrict the file can only be downloaded with its share secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Clean(args[0])

			file, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", path, err)
			}

			defer func() { _ = file.Close() }()

			client, err := createClient(cmd)
			if err != nil {
				return err
			}
			defer closeClient(cmd, client)

			entity, err := client.Files().Upload(cmd.Context(), path, file, restrict)
			if err != nil {
				return fmt.Errorf("failed to upload file: %w", err)
			}

			return renderProperties(cmd, entity, [][2]string{
				{"UUID", entity.UUID},
				{"Type", valueOrNA(entity.Type)},
				{"Share Secret", valueOrNA(entity.ShareSecret)},
				{"URL", client.Files().URL(entity.UUID)},
			})
		},
	}

	cmd.Flags().BoolVar(&restrict, "restrict", true, "require the share secret to download")

	return cmd
}

func newFilesDownloadCommand() *cobra.Command {
	var (
		secret string
		dest   string
	)

	cmd := &cobra.Command{
		Use:   "download UUID",
		Short: "Download a chat file",
		Long:  "Download a chat file to --dest, or to a temporary file when --dest is omitted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd)
			if err != nil {
				return err
			}
			defer closeClient(cmd, client)

			path, err := client.Files().Download(cmd.Context(), easemob.FileRef{UUID: args[0], ShareSecret: secret}, dest)
			if err != nil {
				return fmt.Errorf("failed to download file: %w", err)
			}

			return renderProperties(cmd, map[string]string{"uuid": args[0], "path": path}, [][2]string{
				{"UUID", args[0]},
				{"Path", path},
			})
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "share secret of a restricted file")
	cmd.Flags().StringVarP(&dest, "dest", "d", "", "destination path")

	return cmd
}
