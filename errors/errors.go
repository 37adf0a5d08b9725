package errors

import "fmt"

var (
	ErrUserAlreadyExists  = fmt.Errorf("a user with this email already exists")
	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity requirements")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrMissingToken       = fmt.Errorf("no auth token")
	ErrInvalidToken       = fmt.Errorf("invalid token")

	ErrChannelNotFound     = fmt.Errorf("channel not found")
	ErrChannelNameRequired = fmt.Errorf("channel name is required")
	ErrChannelNameTaken    = fmt.Errorf("channel name already exists")
	ErrNotChannelMember    = fmt.Errorf("user is not a member of this channel")
	ErrPrivateChannel      = fmt.Errorf("this is a private channel, an invite is required")
	ErrEmptyMessage        = fmt.Errorf("message text is required")

	ErrEmptyWords = fmt.Errorf("no censored words loaded")

	ErrAvatarTooLarge        = fmt.Errorf("avatar exceeds the maximum allowed size")
	ErrUnsupportedAvatarType = fmt.Errorf("avatar must be a png, jpeg or webp image")
)
