// Package service orchestrates the domain rules over the persistence
// ports. Every operation runs inside exactly one transaction.
package service

import "errors"

// Expected business failures are sentinel values so the boundary layer
// can match them exhaustively. Anything else that escapes a service is
// an infrastructure failure and maps to a generic 500.
var (
	// registration and login
	ErrInvitationNotValid = errors.New("registration invitation is not valid")
	ErrUsernameExists     = errors.New("username already exists")
	ErrUsernameNotValid   = errors.New("username is not valid")
	ErrPasswordNotSafe    = errors.New("password is not safe")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")

	// channels
	ErrChannelNameNotValid  = errors.New("channel name is not valid")
	ErrChannelNameExists    = errors.New("channel name already exists")
	ErrChannelNotFound      = errors.New("channel not found")
	ErrChannelNotPublic     = errors.New("channel is not public")
	ErrAlreadyMember        = errors.New("user is already a member")
	ErrNotMember            = errors.New("user is not a member")
	ErrNotAuthorizedToWrite = errors.New("user is not authorized to write")
	ErrMessageEmpty         = errors.New("message content is empty")
	ErrUserIsOwner          = errors.New("channel owner cannot leave")

	// channel invitations
	ErrInviteeNotFound    = errors.New("invitee not found")
	ErrInviterNotMember   = errors.New("inviter has no membership")
	ErrForbiddenRole      = errors.New("role cannot be granted")
	ErrInvitationExists   = errors.New("invitation already exists")
	ErrInvitationNotFound = errors.New("invitation not found")
)
