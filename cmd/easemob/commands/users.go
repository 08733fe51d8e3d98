package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/easemob/pkg/easemob"
)

// NewUsersCommand creates the users command group
func NewUsersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user"},
		Short:   "Manage IM users",
		Long:    "Register, inspect and manage Easemob IM users",
	}

	cmd.AddCommand(newUsersCreateCommand())
	cmd.AddCommand(newUsersGetCommand())
	cmd.AddCommand(newUsersStatusCommand())
	cmd.AddCommand(newUsersListCommand())
	cmd.AddCommand(newUsersDeleteCommand())
	cmd.AddCommand(newUsersPasswordCommand())
	cmd.AddCommand(newUsersNicknameCommand())
	cmd.AddCommand(newUsersNotificationCommand())
	cmd.AddCommand(newUsersTokenCommand())

	return cmd
}

func newUsersCreateCommand() *cobra.Command {
	var (
		nickname string
		open     bool
	)

	cmd := &cobra.Command{
		Use:   "create USERNAME",
		Short: "Create a user",
		Long:  "Create an IM user. With --open the user is created through open registration without a token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := passwordFlag(cmd, "Password: ")
			if err != nil {
				return err
			}

			client, err := createClient(cmd)
			if err != nil {
				return err
			}
			defer closeClient(cmd, client)

			request := &easemob.UserCreateRequest{
				Username: args[0],
				Password: password,
				Nickname: nickname,
			}

			var user *easemob.User
			if open {
				user, err = client.Users().Register(cmd.Context(), request)
			} else {
				user, err = client.Users().Create(cmd.Context(), request)
			}

			if err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}

			return renderUser(cmd, user)
		},
	}

	cmd.Flags().StringP("password", "p", "", "user password (prompted when omitted)")
	cmd.Flags().StringVar(&nickname, "nickname", "", "push notification nickname")
	cmd.Flags().BoolVar(&open, "open", false, "use open registration")

	return cmd
}

func newUsersGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get USERNAME",
		Short: "Get user details",
		Long:  "Display detailed information about a specific user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd)
			if err != nil {
				return err
			}
			defer closeClient(cmd, client)

			user, err := client.Users().Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get user: %w", err)
			}

			return renderUser(cmd, user)
		},
	}
}

func newUsersStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status USERNAME",
		Short: "Get online status",
		Long:  "Show whether a user is online or offline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd)
			if err != nil {
				return err
			}
			defer closeClient(cmd, client)

			status, err := client.Users().Status(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get user status: %w", err)
			}

			view := map[string]string{"username": args[0], "status": status}

			return renderProperties(cmd, view, [][2]string{
				{"Username", args[0]},
				{"Status", statusBadge(cmd, status)},
			})
		},
	}
}

func newUsersListCommand() *cobra.Command {
	var (
		limit  int
		cursor string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Long:  "List users page by page. Pass the printed cursor to --cursor for the next page",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd)
			if err != nil {
				return err
			}
			defer closeClient(cmd, client)

			list, err := client.Users().List(cmd.Context(), &easemob.UserListParams{Limit: limit, Cursor: cursor})
			if err != nil {
				return fmt.Errorf("failed to list users: %w", err)
			}

			return renderUsers(cmd, list.Entities, list.Cursor)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "page size")
	cmd.Flags().StringVar(&cursor, "cursor", "", "cursor from a previous page (requires --limit)")

	return cmd
}

func newUsersDeleteCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "delete [USERNAME]",
		Short: "Delete users",
		Long:  "Delete a single user, or with --limit the oldest N users",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && limit <= 0 {
				return easemob.NewValidationError("username", "a username or --limit is required")
			}

			client, err := createClient(cmd)
			if err != nil {
				return err
			}
			defer closeClient(cmd, client)

			if len(args) == 1 {
				user, err := client.Users().Delete(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("failed to delete user: %w", err)
				}

				return renderUser(cmd, user)
			}

			users, err := client.Users().DeleteBatch(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("failed to delete users: %w", err)
			}

			return renderUsers(cmd, users, "")
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "delete this many users instead of one")

	return cmd
}

func newUsersPasswordCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password USERNAME",
		Short: "Reset a user password",
		Long:  "Set a new password for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := passwordFlag(cmd, "New Password: ")
			if err != nil {
				return err
			}

			client, err := createClient(cmd)
			if err != nil {
				return err
			}
			defer closeClient(cmd, client)

			err = client.Users().SetPassword(cmd.Context(), args[0], password)
			if err != nil {
				return fmt.Errorf("failed to set password: %w", err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Password updated for %s\n", args[0])

			return err
		},
	}

	cmd.Flags().StringP("password", "p", "", "new password (prompted when omitted)")

	return cmd
}

func newUsersNicknameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "nickname USERNAME NICKNAME",
		Short: "Set a user nickname",
		Long:  "Set the nickname shown in push notifications",
		Args:  cobra.ExactArgs(2), //nolint:mnd // username and nickname
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd)
			if err != nil {
				return err
			}
			defer closeClient(cmd, client)

			user, err := client.Users().SetNickname(cmd.Context(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to set nickname: %w", err)
			}

			return renderUser(cmd, user)
		},
	}
}

func newUsersNotificationCommand() *cobra.Command {
	var (
		style      string
		noDisturb  string
		allowPush bool
	)

	cmd := &cobra.Command{
		Use:   "notification USERNAME",
		Short: "Configure push notifications",
		Long:  "Set the notification display style or a do-not-disturb window, for example --no-disturb 22-7",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if style == "" && noDisturb == "" && !allowPush {
				return easemob.NewValidationError("notification", "one of --style, --no-disturb or --allow is required")
			}

			displayStyle, err := parseDisplayStyle(style)
			if err != nil {
				return err
			}

			var setting *easemob.NoDisturbing

			if noDisturb != "" {
				start, end, err := parseHourRange(noDisturb)
				if err != nil {
					return err
				}

				setting = &easemob.NoDisturbing{Enabled: true, Start: start, End: end}
			} else if allowPush {
				setting = &easemob.NoDisturbing{}
			}

			client, err := createClient(cmd)
			if err != nil {
				return err
			}
			defer closeClient(cmd, client)

			var user *easemob.User

			if displayStyle != nil {
				user, err = client.Users().SetNotificationDisplayStyle(cmd.Context(), args[0], *displayStyle)
				if err != nil {
					return fmt.Errorf("failed to set notification style: %w", err)
				}
			}

			if setting != nil {
				user, err = client.Users().SetNotificationNoDisturbing(cmd.Context(), args[0], *setting)
				if err != nil {
					return fmt.Errorf("failed to set do-not-disturb: %w", err)
				}
			}

			return renderUser(cmd, user)
		},
	}

	cmd.Flags().StringVar(&style, "style", "", "display style: summary or detail")
	cmd.Flags().StringVar(&noDisturb, "no-disturb", "", "do-not-disturb hours as START-END")
	cmd.Flags().BoolVar(&allowPush, "allow", false, "turn do-not-disturb off")

	return cmd
}

func newUsersTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token USERNAME",
		Short: "Get a user access token",
		Long:  "Exchange a username and password for a user access token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := passwordFlag(cmd, "Password: ")
			if err != nil {
				return err
			}

			client, err := createClient(cmd)
			if err != nil {
				return err
			}
			defer closeClient(cmd, client)

			token, err := client.Users().Token(cmd.Context(), args[0], password)
			if err != nil {
				return fmt.Errorf("failed to get user token: %w", err)
			}

			return renderProperties(cmd, token, [][2]string{
				{"Username", args[0]},
				{"Access Token", token.AccessToken},
				{"Expires In", strconv.FormatInt(token.ExpiresIn, 10) + "s"},
			})
		},
	}

	cmd.Flags().StringP("password", "p", "", "user password (prompted when omitted)")

	return cmd
}

func parseDisplayStyle(value string) (*easemob.NotificationDisplayStyle, error) {
	var style easemob.NotificationDisplayStyle

	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return nil, nil //nolint:nilnil // style not requested
	case "summary":
		style = easemob.NotificationSummary
	case "detail":
		style = easemob.NotificationDetail
	default:
		return nil, easemob.NewValidationError("style", fmt.Sprintf("%q is not summary or detail", value))
	}

	return &style, nil
}

// parseHourRange parses "22-7" into its start and end hours.
func parseHourRange(value string) (int, int, error) {
	startText, endText, ok := strings.Cut(value, "-")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTimeRange, value)
	}

	start, err := strconv.Atoi(strings.TrimSpace(startText))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTimeRange, value)
	}

	end, err := strconv.Atoi(strings.TrimSpace(endText))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTimeRange, value)
	}

	return start, end, nil
}
