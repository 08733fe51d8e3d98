package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fivetwenty-io/easemob/internal/constants"
	internalhttp "github.com/fivetwenty-io/easemob/internal/http"
	"github.com/fivetwenty-io/easemob/pkg/easemob"
)

// MessagesClient implements easemob.MessagesClient.
type MessagesClient struct {
	httpClient *internalhttp.Client
	fileURL    func(uuid string) string
}

// NewMessagesClient creates a new messages client.
func NewMessagesClient(httpClient *internalhttp.Client) *MessagesClient {
	return &MessagesClient{
		httpClient: httpClient,
		fileURL: func(uuid string) string {
			return httpClient.URL(filePath(uuid))
		},
	}
}

// Send implements easemob.MessagesClient.Send.
func (c *MessagesClient) Send(
	ctx context.Context,
	targetType easemob.TargetType,
	target easemob.Target,
	message easemob.Message,
	opts *easemob.SendOptions,
) (*easemob.SendResult, error) {
	body, err := ComposeMessage(targetType, target, message, opts, c.fileURL)
	if err != nil {
		return nil, err
	}

	result, err := c.httpClient.SendWithBody(ctx, http.MethodPost, constants.APIPathMessages, body, nil)
	if err != nil {
		return nil, fmt.Errorf("sending %s message: %w", message.Type(), err)
	}

	return normalizeSendResult(target, result)
}

// SendText implements easemob.MessagesClient.SendText.
func (c *MessagesClient) SendText(ctx context.Context, targetType easemob.TargetType, target easemob.Target, text string, opts *easemob.SendOptions) (*easemob.SendResult, error) {
	return c.Send(ctx, targetType, target, easemob.TextMessage{Msg: text}, opts)
}

// SendImage implements easemob.MessagesClient.SendImage.
func (c *MessagesClient) SendImage(ctx context.Context, targetType easemob.TargetType, target easemob.Target, message easemob.ImageMessage, opts *easemob.SendOptions) (*easemob.SendResult, error) {
	return c.Send(ctx, targetType, target, message, opts)
}

// SendAudio implements easemob.MessagesClient.SendAudio.
func (c *MessagesClient) SendAudio(ctx context.Context, targetType easemob.TargetType, target easemob.Target, message easemob.AudioMessage, opts *easemob.SendOptions) (*easemob.SendResult, error) {
	return c.Send(ctx, targetType, target, message, opts)
}

// SendVideo implements easemob.MessagesClient.SendVideo.
func (c *MessagesClient) SendVideo(ctx context.Context, targetType easemob.TargetType, target easemob.Target, message easemob.VideoMessage, opts *easemob.SendOptions) (*easemob.SendResult, error) {
	return c.Send(ctx, targetType, target, message, opts)
}

// SendLocation implements easemob.MessagesClient.SendLocation.
func (c *MessagesClient) SendLocation(ctx context.Context, targetType easemob.TargetType, target easemob.Target, message easemob.LocationMessage, opts *easemob.SendOptions) (*easemob.SendResult, error) {
	return c.Send(ctx, targetType, target, message, opts)
}

// SendCommand implements easemob.MessagesClient.SendCommand.
func (c *MessagesClient) SendCommand(ctx context.Context, targetType easemob.TargetType, target easemob.Target, action string, opts *easemob.SendOptions) (*easemob.SendResult, error) {
	return c.Send(ctx, targetType, target, easemob.CommandMessage{Action: action}, opts)
}

// SendCustom implements easemob.MessagesClient.SendCustom.
func (c *MessagesClient) SendCustom(ctx context.Context, targetType easemob.TargetType, target easemob.Target, message easemob.CustomMessage, opts *easemob.SendOptions) (*easemob.SendResult, error) {
	return c.Send(ctx, targetType, target, message, opts)
}

// ComposeMessage validates the inputs and builds the request body of a
// message send. fileURL resolves chat file UUIDs for media messages.
func ComposeMessage(
	targetType easemob.TargetType,
	target easemob.Target,
	message easemob.Message,
	opts *easemob.SendOptions,
	fileURL func(uuid string) string,
) (map[string]interface{}, error) {
	if !targetType.Valid() {
		return nil, easemob.NewValidationError("target_type", fmt.Sprintf("%q is not one of user, group, room", targetType))
	}

	err := target.Validate()
	if err != nil {
		return nil, err
	}

	msg, err := composeMsg(message, fileURL)
	if err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"target_type": string(targetType),
		"target":      target,
		"msg":         msg,
	}

	if opts != nil {
		if opts.From != "" {
			body["from"] = opts.From
		}

		if len(opts.Ext) > 0 {
			body["ext"] = opts.Ext
		}
	}

	return body, nil
}

//nolint:cyclop,funlen // one case per message variant
func composeMsg(message easemob.Message, fileURL func(string) string) (map[string]interface{}, error) {
	message = derefMessage(message)
	if message == nil {
		return nil, easemob.NewValidationError("message_type", "message is required")
	}

	err := message.Validate()
	if err != nil {
		return nil, err
	}

	msg := map[string]interface{}{"type": string(message.Type())}

	switch m := message.(type) {
	case easemob.TextMessage:
		msg["msg"] = m.Msg

	case easemob.ImageMessage:
		msg["url"] = fileURL(m.File.UUID)
		msg["filename"] = m.Filename
		msg["size"] = map[string]int{"width": m.Width, "height": m.Height}
		setIfPresent(msg, "secret", m.File.ShareSecret)

	case easemob.AudioMessage:
		msg["url"] = fileURL(m.File.UUID)
		msg["filename"] = m.Filename
		msg["length"] = m.Length
		setIfPresent(msg, "secret", m.File.ShareSecret)

	case easemob.VideoMessage:
		msg["url"] = fileURL(m.File.UUID)
		msg["thumb"] = fileURL(m.Thumb.UUID)
		msg["filename"] = m.Filename
		msg["length"] = m.Length
		msg["file_length"] = m.FileLength
		setIfPresent(msg, "secret", m.File.ShareSecret)
		setIfPresent(msg, "thumb_secret", m.Thumb.ShareSecret)

	case easemob.LocationMessage:
		msg["lat"] = m.Lat
		msg["lng"] = m.Lng
		msg["addr"] = m.Addr

	case easemob.CommandMessage:
		msg["action"] = m.Action

	case easemob.CustomMessage:
		msg["customEvent"] = m.Event
		if len(m.Exts) > 0 {
			msg["customExts"] = m.Exts
		}

	default:
		return nil, easemob.NewValidationError("message_type", fmt.Sprintf("%T: %v", message, easemob.ErrUnknownMessageType))
	}

	return msg, nil
}

//nolint:cyclop // one case per message variant
func derefMessage(message easemob.Message) easemob.Message {
	switch m := message.(type) {
	case *easemob.TextMessage:
		return derefOrNil(m)
	case *easemob.ImageMessage:
		return derefOrNil(m)
	case *easemob.AudioMessage:
		return derefOrNil(m)
	case *easemob.VideoMessage:
		return derefOrNil(m)
	case *easemob.LocationMessage:
		return derefOrNil(m)
	case *easemob.CommandMessage:
		return derefOrNil(m)
	case *easemob.CustomMessage:
		return derefOrNil(m)
	default:
		return message
	}
}

func derefOrNil[T easemob.Message](m *T) easemob.Message {
	if m == nil {
		return nil
	}

	return *m
}

func setIfPresent(msg map[string]interface{}, key, value string) {
	if value != "" {
		msg[key] = value
	}
}

// normalizeSendResult unwraps the per-recipient "data" map. A single target
// yields its own entry; a list target yields the whole map and the recipients
// the server did not report.
func normalizeSendResult(target easemob.Target, result easemob.Result) (*easemob.SendResult, error) {
	data, _ := result["data"].(map[string]interface{})
	ids := target.IDs()

	if !target.IsList() {
		recipient := ids[0]

		entry, ok := data[recipient]
		if !ok {
			return nil, fmt.Errorf("%w: %s", easemob.ErrMissingRecipient, recipient)
		}

		return &easemob.SendResult{Recipient: recipient, Result: entry}, nil
	}

	sendResult := &easemob.SendResult{Results: data}
	if sendResult.Results == nil {
		sendResult.Results = map[string]interface{}{}
	}

	for _, id := range ids {
		if _, ok := data[id]; !ok {
			sendResult.Missing = append(sendResult.Missing, id)
		}
	}

	return sendResult, nil
}
