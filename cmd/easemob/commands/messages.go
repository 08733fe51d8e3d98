package commands

import (
	"fmt"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/easemob/pkg/easemob"
)

// NewMessagesCommand creates the messages command group
func NewMessagesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "messages",
		Aliases: []string{"message", "msg"},
		Short:   "Send messages",
		Long:    "Send text, media, location, command and custom messages to users, groups or chat rooms",
	}

	cmd.AddCommand(newMessagesTextCommand())
	cmd.AddCommand(newMessagesImageCommand())
	cmd.AddCommand(newMessagesAudioCommand())
	cmd.AddCommand(newMessagesVideoCommand())
	cmd.AddCommand(newMessagesLocationCommand())
	cmd.AddCommand(newMessagesCommandCommand())
	cmd.AddCommand(newMessagesCustomCommand())

	return cmd
}

// addSendFlags registers the flags shared by every send command.
func addSendFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("target-type", "t", "user", "recipient kind: user, group or room")
	cmd.Flags().String("from", "", "sender username (defaults to admin)")
	cmd.Flags().StringSlice("ext", nil, "extension attribute as key=value (repeatable)")
}

// sendMessage resolves the shared flags and sends message to args.
func sendMessage(cmd *cobra.Command, args []string, message easemob.Message) error {
	targetTypeFlag, _ := cmd.Flags().GetString("target-type")

	targetType, err := easemob.ParseTargetType(targetTypeFlag)
	if err != nil {
		return err
	}

	target := easemob.To(args[0])
	if len(args) > 1 {
		target = easemob.ToMany(args...)
	}

	from, _ := cmd.Flags().GetString("from")
	extPairs, _ := cmd.Flags().GetStringSlice("ext")

	ext, err := parseKeyValues(extPairs)
	if err != nil {
		return err
	}

	opts := &easemob.SendOptions{From: from}
	for key, value := range ext {
		if opts.Ext == nil {
			opts.Ext = map[string]interface{}{}
		}

		opts.Ext[key] = value
	}

	client, err := createClient(cmd)
	if err != nil {
		return err
	}
	defer closeClient(cmd, client)

	result, err := client.Messages().Send(cmd.Context(), targetType, target, message, opts)
	if err != nil {
		return fmt.Errorf("failed to send %s: %w", message.Type().Label(), err)
	}

	return renderSendResult(cmd, result)
}

func renderSendResult(cmd *cobra.Command, result *easemob.SendResult) error {
	return render(cmd, result, func(table *tablewriter.Table) {
		table.Header("Recipient", "Result")

		if result.Recipient != "" {
			_ = table.Append(result.Recipient, statusBadge(cmd, fmt.Sprint(result.Result)))

			return
		}

		recipients := make([]string, 0, len(result.Results))
		for recipient := range result.Results {
			recipients = append(recipients, recipient)
		}

		sort.Strings(recipients)

		for _, recipient := range recipients {
			_ = table.Append(recipient, statusBadge(cmd, fmt.Sprint(result.Results[recipient])))
		}

		for _, recipient := range result.Missing {
			_ = table.Append(recipient, statusBadge(cmd, "missing"))
		}
	})
}

func newMessagesTextCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "text TARGET... --msg TEXT",
		Short: "Send a text message",
		Long:  "Send a text message to one or more recipients",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, _ := cmd.Flags().GetString("msg")

			return sendMessage(cmd, args, easemob.TextMessage{Msg: text})
		},
	}

	addSendFlags(cmd)
	cmd.Flags().StringP("msg", "m", "", "message text")

	return cmd
}

func newMessagesImageCommand() *cobra.Command {
	var message easemob.ImageMessage

	cmd := &cobra.Command{
		Use:   "image TARGET... --uuid UUID --filename NAME",
		Short: "Send an image message",
		Long:  "Send an image previously uploaded with 'easemob files upload'",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendMessage(cmd, args, message)
		},
	}

	addSendFlags(cmd)
	cmd.Flags().StringVar(&message.File.UUID, "uuid", "", "uploaded file UUID")
	cmd.Flags().StringVar(&message.File.ShareSecret, "secret", "", "share secret of a restricted file")
	cmd.Flags().StringVar(&message.Filename, "filename", "", "display file name")
	cmd.Flags().IntVar(&message.Width, "width", 0, "image width in pixels")
	cmd.Flags().IntVar(&message.Height, "height", 0, "image height in pixels")

	return cmd
}

func newMessagesAudioCommand() *cobra.Command {
	var message easemob.AudioMessage

	cmd := &cobra.Command{
		Use:   "audio TARGET... --uuid UUID --filename NAME --length SECONDS",
		Short: "Send a voice message",
		Long:  "Send a voice clip previously uploaded with 'easemob files upload'",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendMessage(cmd, args, message)
		},
	}

	addSendFlags(cmd)
	cmd.Flags().StringVar(&message.File.UUID, "uuid", "", "uploaded file UUID")
	cmd.Flags().StringVar(&message.File.ShareSecret, "secret", "", "share secret of a restricted file")
	cmd.Flags().StringVar(&message.Filename, "filename", "", "display file name")
	cmd.Flags().IntVar(&message.Length, "length", 0, "duration in seconds")

	return cmd
}

func newMessagesVideoCommand() *cobra.Command {
	var message easemob.VideoMessage

	cmd := &cobra.Command{
		Use:   "video TARGET... --uuid UUID --thumb-uuid UUID --filename NAME --length SECONDS",
		Short: "Send a video message",
		Long:  "Send a video and its thumbnail, both previously uploaded with 'easemob files upload'",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendMessage(cmd, args, message)
		},
	}

	addSendFlags(cmd)
	cmd.Flags().StringVar(&message.File.UUID, "uuid", "", "uploaded video UUID")
	cmd.Flags().StringVar(&message.File.ShareSecret, "secret", "", "share secret of a restricted video")
	cmd.Flags().StringVar(&message.Thumb.UUID, "thumb-uuid", "", "uploaded thumbnail UUID")
	cmd.Flags().StringVar(&message.Thumb.ShareSecret, "thumb-secret", "", "share secret of a restricted thumbnail")
	cmd.Flags().StringVar(&message.Filename, "filename", "", "display file name")
	cmd.Flags().IntVar(&message.Length, "length", 0, "duration in seconds")
	cmd.Flags().Int64Var(&message.FileLength, "file-length", 0, "video size in bytes")

	return cmd
}

func newMessagesLocationCommand() *cobra.Command {
	var message easemob.LocationMessage

	cmd := &cobra.Command{
		Use:   "location TARGET... --lat LAT --lng LNG --addr ADDRESS",
		Short: "Send a location message",
		Long:  "Share a geographic position with one or more recipients",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendMessage(cmd, args, message)
		},
	}

	addSendFlags(cmd)
	cmd.Flags().Float64Var(&message.Lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&message.Lng, "lng", 0, "longitude")
	cmd.Flags().StringVar(&message.Addr, "addr", "", "address")

	return cmd
}

func newMessagesCommandCommand() *cobra.Command {
	var message easemob.CommandMessage

	cmd := &cobra.Command{
		Use:   "command TARGET... --action ACTION",
		Short: "Send a command message",
		Long:  "Send a transparent command message that clients handle without displaying it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendMessage(cmd, args, message)
		},
	}

	addSendFlags(cmd)
	cmd.Flags().StringVar(&message.Action, "action", "", "command action")

	return cmd
}

func newMessagesCustomCommand() *cobra.Command {
	var event string

	cmd := &cobra.Command{
		Use:   "custom TARGET... --event EVENT",
		Short: "Send a custom message",
		Long:  "Send an application defined event with optional --field key=value attributes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fieldPairs, _ := cmd.Flags().GetStringSlice("field")

			fields, err := parseKeyValues(fieldPairs)
			if err != nil {
				return err
			}

			return sendMessage(cmd, args, easemob.CustomMessage{Event: event, Exts: fields})
		},
	}

	addSendFlags(cmd)
	cmd.Flags().StringVar(&event, "event", "", "custom event name")
	cmd.Flags().StringSlice("field", nil, "custom event attribute as key=value (repeatable)")

	return cmd
}
