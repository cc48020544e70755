package domain

import (
	"errors"
)

const (
	RoleUser      = "user"
	RoleModerator = "moderator"
)

var (
	MesaageUserNotAllowed       = "user not allowed"
	MessageFailedProcessRequest = "failed to process request"
	MessageFailedBodyRequest    = "failed to parse request body"
	MessageFailedGetToken       = "failed to get token"
	MessageFailedTokenInvalid   = "failed to token invalid"

	ErrParseUUID      = errors.New("failed to parse UUID")
	ErrUserNotAllowed = errors.New("user not allowed")
	ErrTokenNotFound  = errors.New("failed to token not found")
	ErrTokenInvalid   = errors.New("token invalid")
	ErrTokenExpired   = errors.New("token expired")

	ErrAuthRequired      = errors.New("authentication required")
	ErrRemoteWriteFailed = errors.New("remote write failed")
	ErrRemoteReadFailed  = errors.New("remote read failed")
	ErrNotFound          = errors.New("not found")
	ErrMalformedRecord   = errors.New("malformed record")
)

type (
	// Identity is the acting user as reported by the identity provider.
	Identity struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Role  string `json:"role,omitempty"`
	}
)
