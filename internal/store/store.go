// Package store declares the persistence ports the services depend on.
// Implementations live in internal/db; tests may substitute their own.
package store

import (
	"context"
	"errors"
	"time"

	"parlor/internal/models"
)

var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a uniqueness violation.
	ErrDuplicate = errors.New("duplicate entry")
)

type UsersRepository interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	CreateToken(ctx context.Context, t *models.AuthToken) error
	GetTokenByHash(ctx context.Context, tokenHash string) (*models.AuthToken, error)
	TouchToken(ctx context.Context, id string, lastUsedAt time.Time) error
	DeleteTokenByHash(ctx context.Context, tokenHash string) error
	// DeleteTokensBeyondLimit removes every token of the user except the
	// keep most-recently-used ones.
	DeleteTokensBeyondLimit(ctx context.Context, userID string, keep int) error
	CountTokens(ctx context.Context, userID string) (int, error)

	CreateRegistrationInvitation(ctx context.Context, inv *models.RegistrationInvitation) error
	GetRegistrationInvitation(ctx context.Context, code string) (*models.RegistrationInvitation, error)
	SetRegistrationInvitationStatus(ctx context.Context, code string, status models.InvitationStatus) error
}

type ChannelsRepository interface {
	CreateChannel(ctx context.Context, c *models.Channel) error
	GetChannel(ctx context.Context, id string) (*models.Channel, error)
	GetChannelByName(ctx context.Context, name string) (*models.Channel, error)
	ListJoinedChannels(ctx context.Context, userID string) ([]*models.Channel, error)
	SearchPublicChannels(ctx context.Context, nameFilter string) ([]*models.Channel, error)

	CreateMembership(ctx context.Context, m *models.Membership) error
	GetMembership(ctx context.Context, channelID, userID string) (*models.Membership, error)
	ListMemberships(ctx context.Context, channelID string) ([]*models.Membership, error)
	DeleteMembership(ctx context.Context, channelID, userID string) error

	CreateMessage(ctx context.Context, m *models.Message) error
	ListMessages(ctx context.Context, channelID string) ([]*models.Message, error)

	CreateInvitation(ctx context.Context, inv *models.ChannelInvitation) error
	// GetInvitation returns the oldest outstanding invitation directed at
	// invitee for the channel.
	GetInvitation(ctx context.Context, channelID, inviteeID string) (*models.ChannelInvitation, error)
	ListInvitationsForInvitee(ctx context.Context, inviteeID string) ([]*models.ChannelInvitation, error)
	DeleteInvitation(ctx context.Context, id string) error
}

// Tx exposes both repositories bound to one transactional handle.
type Tx interface {
	Users() UsersRepository
	Channels() ChannelsRepository
}

// TxManager runs fn against a single transaction, committing on nil
// return and rolling back on error. Partial writes from a failed
// operation are never visible.
type TxManager interface {
	Run(ctx context.Context, fn func(tx Tx) error) error
}
