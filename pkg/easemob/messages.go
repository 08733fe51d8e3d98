package easemob

import "strings"

// Message is one of the message variants defined in this package.
type Message interface {
	Type() MessageType
	Validate() error

	isMessage()
}

// TextMessage is a plain text message.
type TextMessage struct {
	Msg string
}

// ImageMessage references an uploaded image.
type ImageMessage struct {
	File     FileRef
	Filename string
	Width    int
	Height   int
}

// AudioMessage references an uploaded voice clip. Length is in seconds.
type AudioMessage struct {
	File     FileRef
	Filename string
	Length   int
}

// VideoMessage references an uploaded video and its thumbnail.
type VideoMessage struct {
	Thumb      FileRef
	File       FileRef
	Filename   string
	Length     int
	FileLength int64
}

// LocationMessage shares a geographic position.
type LocationMessage struct {
	Lat  float64
	Lng  float64
	Addr string
}

// CommandMessage is a transparent command delivered to clients.
type CommandMessage struct {
	Action string
}

// CustomMessage carries an application defined event.
type CustomMessage struct {
	Event string
	Exts  map[string]string
}

func (TextMessage) Type() MessageType     { return MessageText }
func (ImageMessage) Type() MessageType    { return MessageImage }
func (AudioMessage) Type() MessageType    { return MessageAudio }
func (VideoMessage) Type() MessageType    { return MessageVideo }
func (LocationMessage) Type() MessageType { return MessageLocation }
func (CommandMessage) Type() MessageType  { return MessageCommand }
func (CustomMessage) Type() MessageType   { return MessageCustom }

func (TextMessage) isMessage()     {}
func (ImageMessage) isMessage()    {}
func (AudioMessage) isMessage()    {}
func (VideoMessage) isMessage()    {}
func (LocationMessage) isMessage() {}
func (CommandMessage) isMessage()  {}
func (CustomMessage) isMessage()   {}

// Validate implements Message.
func (m TextMessage) Validate() error {
	if m.Msg == "" {
		return NewValidationError("msg", "text message is empty")
	}

	return nil
}

// Validate implements Message.
func (m ImageMessage) Validate() error {
	if blank(m.File.UUID) {
		return NewValidationError("file", "image file reference is required")
	}

	if blank(m.Filename) {
		return NewValidationError("filename", "image filename is required")
	}

	return nil
}

// Validate implements Message.
func (m AudioMessage) Validate() error {
	if blank(m.File.UUID) {
		return NewValidationError("file", "audio file reference is required")
	}

	if blank(m.Filename) {
		return NewValidationError("filename", "audio filename is required")
	}

	if m.Length < 0 {
		return NewValidationError("length", "audio length must not be negative")
	}

	return nil
}

// Validate implements Message.
func (m VideoMessage) Validate() error {
	if blank(m.Thumb.UUID) {
		return NewValidationError("thumb", "video thumbnail reference is required")
	}

	if blank(m.File.UUID) {
		return NewValidationError("file", "video file reference is required")
	}

	if blank(m.Filename) {
		return NewValidationError("filename", "video filename is required")
	}

	if m.Length < 0 || m.FileLength < 0 {
		return NewValidationError("length", "video lengths must not be negative")
	}

	return nil
}

// Validate implements Message.
func (m LocationMessage) Validate() error {
	if m.Lat < -90 || m.Lat > 90 {
		return NewValidationError("lat", "latitude must be within [-90, 90]")
	}

	if m.Lng < -180 || m.Lng > 180 {
		return NewValidationError("lng", "longitude must be within [-180, 180]")
	}

	if blank(m.Addr) {
		return NewValidationError("addr", "address is required")
	}

	return nil
}

// Validate implements Message.
func (m CommandMessage) Validate() error {
	if blank(m.Action) {
		return NewValidationError("action", "command action is required")
	}

	return nil
}

// Validate implements Message.
func (m CustomMessage) Validate() error {
	if blank(m.Event) {
		return NewValidationError("customEvent", "custom event name is required")
	}

	return nil
}

// SendOptions carries the optional parts of a message send.
type SendOptions struct {
	// From is the sender; the platform uses "admin" when it is empty.
	From string
	// Ext holds extension attributes delivered alongside the message.
	Ext map[string]interface{}
}

func blank(value string) bool {
	return strings.TrimSpace(value) == ""
}
