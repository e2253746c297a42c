package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"parlor/internal/domain"
	"parlor/internal/ids"
	"parlor/internal/models"
	"parlor/internal/store"
)

// Notifier receives messages after their transaction has committed.
type Notifier interface {
	MessageCreated(msg *models.Message)
}

// ChannelDetails is a channel together with its membership list.
type ChannelDetails struct {
	Channel *models.Channel      `json:"channel"`
	Members []*models.Membership `json:"members"`
}

type ChannelsService struct {
	tm        store.TxManager
	notifier  Notifier
	sanitizer *bluemonday.Policy
	now       func() time.Time
}

func NewChannelsService(tm store.TxManager, notifier Notifier) *ChannelsService {
	return &ChannelsService{
		tm:        tm,
		notifier:  notifier,
		sanitizer: bluemonday.StrictPolicy(),
		now:       time.Now,
	}
}

// Create validates the name, inserts the channel and an OWNER membership
// for the creator in the same transaction.
func (s *ChannelsService) Create(ctx context.Context, name, ownerID string, isPublic bool) (string, error) {
	if !domain.ValidChannelName(name) {
		return "", ErrChannelNameNotValid
	}

	var channelID string
	err := s.tm.Run(ctx, func(tx store.Tx) error {
		channels := tx.Channels()

		if _, err := channels.GetChannelByName(ctx, name); err == nil {
			return ErrChannelNameExists
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		id, err := ids.New("chn")
		if err != nil {
			return err
		}
		now := s.now().UTC()
		if err := channels.CreateChannel(ctx, &models.Channel{
			ID:        id,
			Name:      name,
			OwnerID:   ownerID,
			IsPublic:  isPublic,
			CreatedAt: now,
		}); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return ErrChannelNameExists
			}
			return err
		}

		membershipID, err := ids.New("mem")
		if err != nil {
			return err
		}
		if err := channels.CreateMembership(ctx, &models.Membership{
			ID:        membershipID,
			UserID:    ownerID,
			ChannelID: id,
			Role:      models.RoleOwner,
			JoinedAt:  now,
		}); err != nil {
			return err
		}

		channelID = id
		return nil
	})
	if err != nil {
		return "", err
	}
	return channelID, nil
}

// Get returns channel metadata plus its membership list. Visibility is
// not restricted by membership; message access is.
func (s *ChannelsService) Get(ctx context.Context, channelID string) (*ChannelDetails, error) {
	var details *ChannelDetails
	err := s.tm.Run(ctx, func(tx store.Tx) error {
		channels := tx.Channels()

		channel, err := channels.GetChannel(ctx, channelID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrChannelNotFound
		}
		if err != nil {
			return err
		}

		members, err := channels.ListMemberships(ctx, channelID)
		if err != nil {
			return err
		}

		details = &ChannelDetails{Channel: channel, Members: members}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return details, nil
}

func (s *ChannelsService) ListJoined(ctx context.Context, userID string) ([]*models.Channel, error) {
	var channels []*models.Channel
	err := s.tm.Run(ctx, func(tx store.Tx) error {
		var err error
		channels, err = tx.Channels().ListJoinedChannels(ctx, userID)
		return err
	})
	return channels, err
}

// Search returns public channels whose name contains the filter,
// regardless of the caller's memberships.
func (s *ChannelsService) Search(ctx context.Context, nameFilter string) ([]*models.Channel, error) {
	var channels []*models.Channel
	err := s.tm.Run(ctx, func(tx store.Tx) error {
		var err error
		channels, err = tx.Channels().SearchPublicChannels(ctx, nameFilter)
		return err
	})
	return channels, err
}

func (s *ChannelsService) JoinPublic(ctx context.Context, channelID, userID string) error {
	return s.tm.Run(ctx, func(tx store.Tx) error {
		channels := tx.Channels()

		channel, err := channels.GetChannel(ctx, channelID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrChannelNotFound
		}
		if err != nil {
			return err
		}
		if !channel.IsPublic {
			return ErrChannelNotPublic
		}

		if _, err := channels.GetMembership(ctx, channelID, userID); err == nil {
			return ErrAlreadyMember
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		id, err := ids.New("mem")
		if err != nil {
			return err
		}
		err = channels.CreateMembership(ctx, &models.Membership{
			ID:        id,
			UserID:    userID,
			ChannelID: channelID,
			Role:      models.RoleMember,
			JoinedAt:  s.now().UTC(),
		})
		if errors.Is(err, store.ErrDuplicate) {
			return ErrAlreadyMember
		}
		return err
	})
}

// CreateMessage requires an existing membership with a writing role
// (VIEWER is read-only). The broadcast happens strictly after commit.
func (s *ChannelsService) CreateMessage(ctx context.Context, channelID, userID, content string) (*models.Message, error) {
	content = strings.TrimSpace(s.sanitizer.Sanitize(content))
	if content == "" {
		return nil, ErrMessageEmpty
	}

	var message *models.Message
	err := s.tm.Run(ctx, func(tx store.Tx) error {
		channels := tx.Channels()

		if _, err := channels.GetChannel(ctx, channelID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrChannelNotFound
			}
			return err
		}

		membership, err := channels.GetMembership(ctx, channelID, userID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotMember
		}
		if err != nil {
			return err
		}
		if !domain.RoleAtLeast(membership.Role, models.RoleMember) {
			return ErrNotAuthorizedToWrite
		}

		id, err := ids.New("msg")
		if err != nil {
			return err
		}
		message = &models.Message{
			ID:        id,
			ChannelID: channelID,
			SenderID:  userID,
			Content:   content,
			CreatedAt: s.now().UTC(),
		}
		return channels.CreateMessage(ctx, message)
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.MessageCreated(message)
	}
	return message, nil
}

// ListMessages requires membership; VIEWER may read.
func (s *ChannelsService) ListMessages(ctx context.Context, channelID, userID string) ([]*models.Message, error) {
	var messages []*models.Message
	err := s.tm.Run(ctx, func(tx store.Tx) error {
		channels := tx.Channels()

		if _, err := channels.GetChannel(ctx, channelID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrChannelNotFound
			}
			return err
		}
		if _, err := channels.GetMembership(ctx, channelID, userID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotMember
			}
			return err
		}

		var err error
		messages, err = channels.ListMessages(ctx, channelID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// CreateInvitation invites inviteeUsername at the given role. OWNER can
// never be granted, and the inviter's own rank must cover the role.
func (s *ChannelsService) CreateInvitation(ctx context.Context, channelID, inviterID, inviteeUsername string, role models.Role) (string, error) {
	if role == models.RoleOwner {
		return "", ErrForbiddenRole
	}

	var invitationID string
	err := s.tm.Run(ctx, func(tx store.Tx) error {
		channels := tx.Channels()

		if _, err := channels.GetChannel(ctx, channelID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrChannelNotFound
			}
			return err
		}

		invitee, err := tx.Users().GetUserByUsername(ctx, inviteeUsername)
		if errors.Is(err, store.ErrNotFound) {
			return ErrInviteeNotFound
		}
		if err != nil {
			return err
		}

		inviterMembership, err := channels.GetMembership(ctx, channelID, inviterID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrInviterNotMember
		}
		if err != nil {
			return err
		}
		if !domain.RoleAtLeast(inviterMembership.Role, role) {
			return ErrForbiddenRole
		}

		if _, err := channels.GetMembership(ctx, channelID, invitee.ID); err == nil {
			return ErrAlreadyMember
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		id, err := ids.New("cin")
		if err != nil {
			return err
		}
		err = channels.CreateInvitation(ctx, &models.ChannelInvitation{
			ID:        id,
			ChannelID: channelID,
			InviterID: inviterID,
			InviteeID: invitee.ID,
			Role:      role,
			CreatedAt: s.now().UTC(),
		})
		if errors.Is(err, store.ErrDuplicate) {
			return ErrInvitationExists
		}
		if err != nil {
			return err
		}

		invitationID = id
		return nil
	})
	if err != nil {
		return "", err
	}
	return invitationID, nil
}

// AcceptInvitation consumes the invitation and grants its role. The
// deletion commits even when the invitee already joined through another
// path: an invitation is consumed exactly once, whatever the outcome.
func (s *ChannelsService) AcceptInvitation(ctx context.Context, channelID, inviteeID string) error {
	return s.consumeInvitation(ctx, channelID, inviteeID, true)
}

// DeclineInvitation consumes the invitation without granting anything.
func (s *ChannelsService) DeclineInvitation(ctx context.Context, channelID, inviteeID string) error {
	return s.consumeInvitation(ctx, channelID, inviteeID, false)
}

func (s *ChannelsService) consumeInvitation(ctx context.Context, channelID, inviteeID string, accept bool) error {
	// ErrAlreadyMember must not roll the deletion back, so it is carried
	// out of the transaction instead of being returned from it.
	var outcome error
	err := s.tm.Run(ctx, func(tx store.Tx) error {
		channels := tx.Channels()

		inv, err := channels.GetInvitation(ctx, channelID, inviteeID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvitationNotFound
		}
		if err != nil {
			return err
		}

		if err := channels.DeleteInvitation(ctx, inv.ID); err != nil {
			return err
		}

		if _, err := channels.GetMembership(ctx, channelID, inviteeID); err == nil {
			outcome = ErrAlreadyMember
			return nil
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		if !accept {
			return nil
		}

		id, err := ids.New("mem")
		if err != nil {
			return err
		}
		return channels.CreateMembership(ctx, &models.Membership{
			ID:        id,
			UserID:    inviteeID,
			ChannelID: channelID,
			Role:      inv.Role,
			JoinedAt:  s.now().UTC(),
		})
	})
	if err != nil {
		return err
	}
	return outcome
}

// Leave removes the caller's membership. The OWNER role can never leave
// through this path; ownership transfer is unsupported.
func (s *ChannelsService) Leave(ctx context.Context, channelID, userID string) error {
	return s.tm.Run(ctx, func(tx store.Tx) error {
		channels := tx.Channels()

		if _, err := channels.GetChannel(ctx, channelID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrChannelNotFound
			}
			return err
		}

		membership, err := channels.GetMembership(ctx, channelID, userID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotMember
		}
		if err != nil {
			return err
		}
		if membership.Role == models.RoleOwner {
			return ErrUserIsOwner
		}

		return channels.DeleteMembership(ctx, channelID, userID)
	})
}

// ListInvitations returns the caller's pending channel invitations.
func (s *ChannelsService) ListInvitations(ctx context.Context, inviteeID string) ([]*models.ChannelInvitation, error) {
	var invitations []*models.ChannelInvitation
	err := s.tm.Run(ctx, func(tx store.Tx) error {
		var err error
		invitations, err = tx.Channels().ListInvitationsForInvitee(ctx, inviteeID)
		return err
	})
	return invitations, err
}
