package easemob

import (
	"context"
	"io"
)

// Client is the entry point to the Easemob REST API. Build one with
// emclient.New.
type Client interface {
	Users() UsersClient
	Messages() MessagesClient
	Files() FilesClient

	// Token returns the current client credential, exchanging one if needed.
	Token(ctx context.Context) (string, error)
	// Close releases the credential cache connection, if any.
	Close() error
}

// UsersClient manages IM users.
type UsersClient interface {
	// Register creates a user through open registration, without a token.
	Register(ctx context.Context, request *UserCreateRequest) (*User, error)
	Create(ctx context.Context, request *UserCreateRequest) (*User, error)
	CreateBatch(ctx context.Context, requests []UserCreateRequest) ([]User, error)
	Get(ctx context.Context, username string) (*User, error)
	// Status returns "online" or "offline".
	Status(ctx context.Context, username string) (string, error)
	List(ctx context.Context, params *UserListParams) (*UserList, error)
	Delete(ctx context.Context, username string) (*User, error)
	// DeleteBatch removes up to limit users, oldest first.
	DeleteBatch(ctx context.Context, limit int) ([]User, error)
	SetPassword(ctx context.Context, username, newPassword string) error
	SetNickname(ctx context.Context, username, nickname string) (*User, error)
	SetNotificationDisplayStyle(ctx context.Context, username string, style NotificationDisplayStyle) (*User, error)
	SetNotificationNoDisturbing(ctx context.Context, username string, setting NoDisturbing) (*User, error)
	// Token exchanges a username and password for a user access token.
	Token(ctx context.Context, username, password string) (*UserToken, error)
}

// MessagesClient sends messages.
type MessagesClient interface {
	Send(ctx context.Context, targetType TargetType, target Target, message Message, opts *SendOptions) (*SendResult, error)

	SendText(ctx context.Context, targetType TargetType, target Target, text string, opts *SendOptions) (*SendResult, error)
	SendImage(ctx context.Context, targetType TargetType, target Target, message ImageMessage, opts *SendOptions) (*SendResult, error)
	SendAudio(ctx context.Context, targetType TargetType, target Target, message AudioMessage, opts *SendOptions) (*SendResult, error)
	SendVideo(ctx context.Context, targetType TargetType, target Target, message VideoMessage, opts *SendOptions) (*SendResult, error)
	SendLocation(ctx context.Context, targetType TargetType, target Target, message LocationMessage, opts *SendOptions) (*SendResult, error)
	SendCommand(ctx context.Context, targetType TargetType, target Target, action string, opts *SendOptions) (*SendResult, error)
	SendCustom(ctx context.Context, targetType TargetType, target Target, message CustomMessage, opts *SendOptions) (*SendResult, error)
}

// FilesClient uploads and downloads chat files.
type FilesClient interface {
	// Upload stores content as a chat file. With restrictAccess the file can
	// only be fetched with its share secret.
	Upload(ctx context.Context, filename string, content io.Reader, restrictAccess bool) (*FileEntity, error)
	// Download writes the file to dest, or to a new temporary file when dest
	// is empty, and returns the path written.
	Download(ctx context.Context, ref FileRef, dest string) (string, error)
	// URL returns the address media messages use to reference the file.
	URL(uuid string) string
}

// UserListParams pages through users.
type UserListParams struct {
	Limit  int
	Cursor string
}

// NotificationDisplayStyle controls how push notifications render.
type NotificationDisplayStyle int

const (
	// NotificationSummary shows "you have a new message".
	NotificationSummary NotificationDisplayStyle = 0
	// NotificationDetail shows the message content.
	NotificationDetail NotificationDisplayStyle = 1
)

// NoDisturbing configures a user's do-not-disturb window. Start and End are
// hours of the day, used only when Enabled.
type NoDisturbing struct {
	Enabled bool
	Start   int
	End     int
}
