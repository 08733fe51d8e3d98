package constants

import "errors"

// Configuration errors.
var (
	ErrNoConfigFile      = errors.New("no configuration found, create $HOME/.easemob/config.yml or set EASEMOB_* variables")
	ErrPasswordRequired  = errors.New("password is required")
	ErrUsernameRequired  = errors.New("username is required")
	ErrInvalidOutputType = errors.New("invalid output format")
)

// Operation errors.
var (
	ErrEmptyResponseEntities = errors.New("response contains no entities")
	ErrUnexpectedStatusShape = errors.New("unexpected status response shape")
	ErrUnsupportedParamsType = errors.New("unsupported query parameter type")
)
