package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/easemob/internal/auth"
	"github.com/fivetwenty-io/easemob/internal/constants"
	internalhttp "github.com/fivetwenty-io/easemob/internal/http"
	"github.com/fivetwenty-io/easemob/pkg/easemob"
)

// UsersClient implements easemob.UsersClient.
type UsersClient struct {
	httpClient *internalhttp.Client
	userTokens *auth.UserTokenManager
}

// NewUsersClient creates a new users client.
func NewUsersClient(httpClient *internalhttp.Client, userTokens *auth.UserTokenManager) *UsersClient {
	if userTokens == nil {
		userTokens = auth.NewUserTokenManager(httpClient, nil)
	}

	return &UsersClient{
		httpClient: httpClient,
		userTokens: userTokens,
	}
}

type userEnvelope struct {
	Entities []easemob.User `json:"entities"`
	Cursor   string         `json:"cursor"`
	Count    int            `json:"count"`
}

// Register implements easemob.UsersClient.Register.
func (c *UsersClient) Register(ctx context.Context, request *easemob.UserCreateRequest) (*easemob.User, error) {
	err := validateCreateRequest(request)
	if err != nil {
		return nil, err
	}

	result, err := c.httpClient.SendWithBody(ctx, http.MethodPost, constants.APIPathUsers,
		[]easemob.UserCreateRequest{*request}, &internalhttp.RequestOptions{SkipAuth: true})
	if err != nil {
		return nil, fmt.Errorf("registering user: %w", err)
	}

	return firstUser(result, "parsing registered user")
}

// Create implements easemob.UsersClient.Create.
func (c *UsersClient) Create(ctx context.Context, request *easemob.UserCreateRequest) (*easemob.User, error) {
	err := validateCreateRequest(request)
	if err != nil {
		return nil, err
	}

	result, err := c.httpClient.SendWithBody(ctx, http.MethodPost, constants.APIPathUsers, []easemob.UserCreateRequest{*request}, nil)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return firstUser(result, "parsing created user")
}

// CreateBatch implements easemob.UsersClient.CreateBatch.
func (c *UsersClient) CreateBatch(ctx context.Context, requests []easemob.UserCreateRequest) ([]easemob.User, error) {
	if len(requests) == 0 {
		return nil, easemob.NewValidationError("users", "at least one user is required")
	}

	for i := range requests {
		err := validateCreateRequest(&requests[i])
		if err != nil {
			return nil, err
		}
	}

	result, err := c.httpClient.SendWithBody(ctx, http.MethodPost, constants.APIPathUsers, requests, nil)
	if err != nil {
		return nil, fmt.Errorf("creating users: %w", err)
	}

	envelope, err := decodeEnvelope(result, "parsing created users")
	if err != nil {
		return nil, err
	}

	return envelope.Entities, nil
}

// Get implements easemob.UsersClient.Get.
func (c *UsersClient) Get(ctx context.Context, username string) (*easemob.User, error) {
	path, err := userPath(username)
	if err != nil {
		return nil, err
	}

	result, err := c.httpClient.SendWithQuery(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}

	return firstUser(result, "parsing user")
}

// Status implements easemob.UsersClient.Status.
func (c *UsersClient) Status(ctx context.Context, username string) (string, error) {
	path, err := userPath(username)
	if err != nil {
		return "", err
	}

	result, err := c.httpClient.SendWithQuery(ctx, http.MethodGet, path+"/status", nil, nil)
	if err != nil {
		return "", fmt.Errorf("getting user status: %w", err)
	}

	var data map[string]string

	err = result.Decode("data", &data)
	if err != nil && !errors.Is(err, easemob.ErrFieldNotFound) {
		return "", fmt.Errorf("parsing user status: %w", err)
	}

	status, ok := data[username]
	if !ok {
		return "", fmt.Errorf("%w: no entry for %s", constants.ErrUnexpectedStatusShape, username)
	}

	return status, nil
}

// List implements easemob.UsersClient.List.
func (c *UsersClient) List(ctx context.Context, params *easemob.UserListParams) (*easemob.UserList, error) {
	query := url.Values{}

	if params != nil && params.Limit > 0 {
		query.Set("limit", strconv.Itoa(params.Limit))

		if params.Cursor != "" {
			query.Set("cursor", params.Cursor)
		}
	}

	result, err := c.httpClient.SendWithQuery(ctx, http.MethodGet, constants.APIPathUsers, query, nil)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	envelope, err := decodeEnvelope(result, "parsing users list")
	if err != nil {
		return nil, err
	}

	return &easemob.UserList{
		Entities: envelope.Entities,
		Cursor:   envelope.Cursor,
		Count:    envelope.Count,
	}, nil
}

// Delete implements easemob.UsersClient.Delete.
func (c *UsersClient) Delete(ctx context.Context, username string) (*easemob.User, error) {
	path, err := userPath(username)
	if err != nil {
		return nil, err
	}

	result, err := c.httpClient.SendWithQuery(ctx, http.MethodDelete, path, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("deleting user: %w", err)
	}

	_ = c.userTokens.Invalidate(ctx, username)

	return firstUser(result, "parsing deleted user")
}

// DeleteBatch implements easemob.UsersClient.DeleteBatch.
func (c *UsersClient) DeleteBatch(ctx context.Context, limit int) ([]easemob.User, error) {
	if limit <= 0 {
		return nil, easemob.NewValidationError("limit", "must be positive")
	}

	result, err := c.httpClient.Dispatch(ctx, http.MethodDelete, constants.APIPathUsers, map[string]interface{}{"limit": limit}, nil)
	if err != nil {
		return nil, fmt.Errorf("deleting users: %w", err)
	}

	envelope, err := decodeEnvelope(result, "parsing deleted users")
	if err != nil {
		return nil, err
	}

	return envelope.Entities, nil
}

// SetPassword implements easemob.UsersClient.SetPassword.
func (c *UsersClient) SetPassword(ctx context.Context, username, newPassword string) error {
	path, err := userPath(username)
	if err != nil {
		return err
	}

	if newPassword == "" {
		return easemob.NewValidationError("password", constants.ErrPasswordRequired.Error())
	}

	_, err = c.httpClient.SendWithBody(ctx, http.MethodPut, path+"/password", map[string]string{"newpassword": newPassword}, nil)
	if err != nil {
		return fmt.Errorf("setting user password: %w", err)
	}

	// cache failures are not fatal
	_ = c.userTokens.Invalidate(ctx, username)

	return nil
}

// SetNickname implements easemob.UsersClient.SetNickname.
func (c *UsersClient) SetNickname(ctx context.Context, username, nickname string) (*easemob.User, error) {
	return c.update(ctx, username, map[string]interface{}{"nickname": nickname}, "setting user nickname")
}

// SetNotificationDisplayStyle implements easemob.UsersClient.SetNotificationDisplayStyle.
func (c *UsersClient) SetNotificationDisplayStyle(ctx context.Context, username string, style easemob.NotificationDisplayStyle) (*easemob.User, error) {
	if style != easemob.NotificationSummary && style != easemob.NotificationDetail {
		return nil, easemob.NewValidationError("notification_display_style", "must be 0 or 1")
	}

	return c.update(ctx, username, map[string]interface{}{"notification_display_style": int(style)}, "setting notification display style")
}

// SetNotificationNoDisturbing implements easemob.UsersClient.SetNotificationNoDisturbing.
func (c *UsersClient) SetNotificationNoDisturbing(ctx context.Context, username string, setting easemob.NoDisturbing) (*easemob.User, error) {
	body := map[string]interface{}{"notification_no_disturbing": setting.Enabled}

	if setting.Enabled {
		if !validHour(setting.Start) || !validHour(setting.End) {
			return nil, easemob.NewValidationError("notification_no_disturbing", "start and end must be hours within [0, 23]")
		}

		body["notification_no_disturbing_start"] = setting.Start
		body["notification_no_disturbing_end"] = setting.End
	}

	return c.update(ctx, username, body, "setting notification no-disturbing")
}

// Token implements easemob.UsersClient.Token.
func (c *UsersClient) Token(ctx context.Context, username, password string) (*easemob.UserToken, error) {
	token, err := c.userTokens.GetToken(ctx, username, password)
	if err != nil {
		return nil, fmt.Errorf("getting user token: %w", err)
	}

	return token, nil
}

func (c *UsersClient) update(ctx context.Context, username string, body map[string]interface{}, action string) (*easemob.User, error) {
	path, err := userPath(username)
	if err != nil {
		return nil, err
	}

	result, err := c.httpClient.SendWithBody(ctx, http.MethodPut, path, body, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}

	return firstUser(result, "parsing updated user")
}

func userPath(username string) (string, error) {
	if strings.TrimSpace(username) == "" {
		return "", easemob.NewValidationError("username", constants.ErrUsernameRequired.Error())
	}

	return constants.APIPathUsers + "/" + url.PathEscape(username), nil
}

func validateCreateRequest(request *easemob.UserCreateRequest) error {
	if request == nil || strings.TrimSpace(request.Username) == "" {
		return easemob.NewValidationError("username", constants.ErrUsernameRequired.Error())
	}

	if request.Password == "" {
		return easemob.NewValidationError("password", constants.ErrPasswordRequired.Error())
	}

	return nil
}

func validHour(hour int) bool {
	return hour >= 0 && hour <= 23
}

// decodeEnvelope reads the envelope fields present in result.
func decodeEnvelope(result easemob.Result, action string) (*userEnvelope, error) {
	var envelope userEnvelope

	fields := map[string]interface{}{
		"entities": &envelope.Entities,
		"cursor":   &envelope.Cursor,
		"count":    &envelope.Count,
	}

	for key, out := range fields {
		if _, ok := result[key]; !ok {
			continue
		}

		err := result.Decode(key, out)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", action, err)
		}
	}

	return &envelope, nil
}

func firstUser(result easemob.Result, action string) (*easemob.User, error) {
	envelope, err := decodeEnvelope(result, action)
	if err != nil {
		return nil, err
	}

	if len(envelope.Entities) == 0 {
		return nil, fmt.Errorf("%s: %w", action, constants.ErrEmptyResponseEntities)
	}

	return &envelope.Entities[0], nil
}
