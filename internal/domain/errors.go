package domain

import "errors"

var (
	ErrConnectionNotFound = errors.New("connection not found")
	ErrInvalidJoin        = errors.New("invalid join data")
	ErrUserAlreadyInRoom  = errors.New("user already in room")
	ErrUserNotFound       = errors.New("target user not found")
	ErrUnauthorized       = errors.New("role not allowed to perform this action")
	ErrInvalidMessage     = errors.New("invalid message")
	ErrUnknownType        = errors.New("unknown message type")
	ErrRateLimited        = errors.New("too many messages")
)

// Wire error codes sent in "error" envelopes.
const (
	CodeInvalidMessage = "invalid_message"
	CodeUnknownType    = "unknown_type"
	CodeInvalidJoin    = "invalid_join"
	CodeUserExists     = "user_exists"
	CodeUserNotFound   = "user_not_found"
	CodeUnauthorized   = "unauthorized"
	CodeRateLimited    = "rate_limited"
	CodeInternal       = "internal_error"
)

var codes = []struct {
	err  error
	code string
}{
	{ErrInvalidMessage, CodeInvalidMessage},
	{ErrUnknownType, CodeUnknownType},
	{ErrInvalidJoin, CodeInvalidJoin},
	{ErrUserAlreadyInRoom, CodeUserExists},
	{ErrUserNotFound, CodeUserNotFound},
	{ErrUnauthorized, CodeUnauthorized},
	{ErrRateLimited, CodeRateLimited},
}

// Code maps an error (possibly wrapped) to its wire code.
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}
