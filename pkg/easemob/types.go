package easemob

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/easemob/internal/constants"
)

// Result is a decoded JSON response body.
type Result map[string]interface{}

// StripInternalFields returns a copy of r without the transport bookkeeping
// fields the API adds to every response. Stripping is idempotent.
func StripInternalFields(r Result) Result {
	if r == nil {
		return nil
	}

	stripped := make(Result, len(r))
	for key, value := range r {
		stripped[key] = value
	}

	for _, key := range constants.InternalResponseFields {
		delete(stripped, key)
	}

	return stripped
}

// Decode re-encodes the value stored under key into out.
func (r Result) Decode(key string, out interface{}) error {
	value, ok := r[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrFieldNotFound, key)
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}

	err = json.Unmarshal(data, out)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", key, err)
	}

	return nil
}

// TargetType is the kind of recipient a message is addressed to.
type TargetType string

const (
	// TargetUser addresses individual users.
	TargetUser TargetType = "user"

	// TargetGroup addresses chat groups.
	TargetGroup TargetType = "chatgroups"

	// TargetRoom addresses chat rooms.
	TargetRoom TargetType = "chatrooms"
)

var targetTypeLabels = map[TargetType]string{
	TargetUser:  "user",
	TargetGroup: "group",
	TargetRoom:  "chat room",
}

// ParseTargetType resolves a wire key or its short alias ("group", "room").
func ParseTargetType(value string) (TargetType, error) {
	normalized := TargetType(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := targetTypeLabels[normalized]; ok {
		return normalized, nil
	}

	switch normalized {
	case "users":
		return TargetUser, nil
	case "group", "groups", "chatgroup":
		return TargetGroup, nil
	case "room", "rooms", "chatroom":
		return TargetRoom, nil
	}

	return "", NewValidationError("target_type", fmt.Sprintf("%q is not one of user, group, room", value))
}

// Valid reports whether t is a known target type.
func (t TargetType) Valid() bool {
	_, ok := targetTypeLabels[t]

	return ok
}

// Label returns the display name of the target type.
func (t TargetType) Label() string {
	return targetTypeLabels[t]
}

// MessageType is the discriminator carried by every message payload.
type MessageType string

const (
	MessageText     MessageType = "text"
	MessageImage    MessageType = "image"
	MessageAudio    MessageType = "audio"
	MessageVideo    MessageType = "video"
	MessageLocation MessageType = "location"
	MessageCommand  MessageType = "command"
	MessageCustom   MessageType = "custom"
)

var messageTypeLabels = map[MessageType]string{
	MessageText:     "text message",
	MessageImage:    "image message",
	MessageAudio:    "voice message",
	MessageVideo:    "video message",
	MessageLocation: "location message",
	MessageCommand:  "command message",
	MessageCustom:   "custom message",
}

// ParseMessageType resolves a message type name.
func ParseMessageType(value string) (MessageType, error) {
	messageType := MessageType(strings.ToLower(strings.TrimSpace(value)))
	if !messageType.Valid() {
		return "", NewValidationError("message_type", fmt.Sprintf("%q is not a recognized message type", value))
	}

	return messageType, nil
}

// Valid reports whether t is a known message type.
func (t MessageType) Valid() bool {
	_, ok := messageTypeLabels[t]

	return ok
}

// Label returns the display name of the message type.
func (t MessageType) Label() string {
	return messageTypeLabels[t]
}

// Target is a single recipient identifier or an ordered list of them.
type Target struct {
	ids  []string
	list bool
}

// To addresses a single recipient.
func To(id string) Target {
	return Target{ids: []string{id}}
}

// ToMany addresses an ordered list of recipients.
func ToMany(ids ...string) Target {
	return Target{ids: append([]string(nil), ids...), list: true}
}

// ParseTarget accepts a string, a []string or a []interface{} of strings.
func ParseTarget(value interface{}) (Target, error) {
	switch typed := value.(type) {
	case string:
		return To(typed), nil
	case []string:
		return ToMany(typed...), nil
	case []interface{}:
		ids := make([]string, 0, len(typed))

		for _, item := range typed {
			id, ok := item.(string)
			if !ok {
				return Target{}, NewValidationError("target", fmt.Sprintf("list element %v is not a string", item))
			}

			ids = append(ids, id)
		}

		return ToMany(ids...), nil
	default:
		return Target{}, NewValidationError("target", fmt.Sprintf("unsupported shape %T", value))
	}
}

// IDs returns the recipient identifiers in order.
func (t Target) IDs() []string {
	return append([]string(nil), t.ids...)
}

// IsList reports whether the target was given as a list.
func (t Target) IsList() bool {
	return t.list
}

// Validate checks that the target is non-empty and has no blank identifiers.
func (t Target) Validate() error {
	if len(t.ids) == 0 {
		return NewValidationError("target", "at least one recipient is required")
	}

	for i, id := range t.ids {
		if strings.TrimSpace(id) == "" {
			return NewValidationError("target", fmt.Sprintf("recipient %d is empty", i))
		}
	}

	return nil
}

// MarshalJSON encodes a single target as a string and a list as an array.
func (t Target) MarshalJSON() ([]byte, error) {
	if !t.list && len(t.ids) == 1 {
		return json.Marshal(t.ids[0])
	}

	return json.Marshal(t.ids)
}

// FileRef points at a file previously uploaded to the chat file store.
type FileRef struct {
	UUID        string `json:"uuid"                   yaml:"uuid"`
	ShareSecret string `json:"share-secret,omitempty" yaml:"share_secret,omitempty"`
}

// User is an IM user entity.
type User struct {
	UUID      string `json:"uuid"               yaml:"uuid"`
	Type      string `json:"type"               yaml:"type"`
	Created   int64  `json:"created"            yaml:"created"`
	Modified  int64  `json:"modified"           yaml:"modified"`
	Username  string `json:"username"           yaml:"username"`
	Activated bool   `json:"activated"          yaml:"activated"`
	Nickname  string `json:"nickname,omitempty" yaml:"nickname,omitempty"`
}

// UserCreateRequest describes a user to register.
type UserCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Nickname string `json:"nickname,omitempty"`
}

// UserList is one page of users.
type UserList struct {
	Entities []User `json:"entities"         yaml:"entities"`
	Cursor   string `json:"cursor,omitempty" yaml:"cursor,omitempty"`
	Count    int    `json:"count"            yaml:"count"`
}

// UserToken is an access token issued to a single user.
type UserToken struct {
	AccessToken string `json:"access_token"   yaml:"access_token"`
	ExpiresIn   int64  `json:"expires_in"     yaml:"expires_in"`
	User        *User  `json:"user,omitempty" yaml:"user,omitempty"`
}

// FileEntity describes an uploaded chat file.
type FileEntity struct {
	UUID        string `json:"uuid"         yaml:"uuid"`
	Type        string `json:"type"         yaml:"type"`
	ShareSecret string `json:"share-secret" yaml:"share_secret"`
}

// Ref returns a FileRef for use in media messages.
func (f *FileEntity) Ref() FileRef {
	return FileRef{UUID: f.UUID, ShareSecret: f.ShareSecret}
}

// SendResult is the normalized outcome of a message send.
type SendResult struct {
	// Recipient and Result are set when the target was a single identifier.
	Recipient string      `json:"recipient,omitempty" yaml:"recipient,omitempty"`
	Result    interface{} `json:"result,omitempty"    yaml:"result,omitempty"`

	// Results holds every recipient's outcome for a list target.
	Results map[string]interface{} `json:"results,omitempty" yaml:"results,omitempty"`
	// Missing lists recipients of a list target the server did not report.
	Missing []string `json:"missing,omitempty" yaml:"missing,omitempty"`
}
