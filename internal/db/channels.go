package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"parlor/internal/models"
	"parlor/internal/store"
)

// ChannelRepository implements store.ChannelsRepository over a *sql.DB
// or a *sql.Tx.
type ChannelRepository struct {
	q querier
}

func NewChannelRepository(q querier) *ChannelRepository {
	return &ChannelRepository{q: q}
}

func (r *ChannelRepository) CreateChannel(ctx context.Context, c *models.Channel) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO channels (id, name, owner_id, is_public, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.OwnerID, c.IsPublic, c.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("creating channel: %w", err)
	}
	return nil
}

func (r *ChannelRepository) GetChannel(ctx context.Context, id string) (*models.Channel, error) {
	return r.findChannel(ctx, `SELECT id, name, owner_id, is_public, created_at FROM channels WHERE id = ?`, id)
}

func (r *ChannelRepository) GetChannelByName(ctx context.Context, name string) (*models.Channel, error) {
	return r.findChannel(ctx, `SELECT id, name, owner_id, is_public, created_at FROM channels WHERE name = ?`, name)
}

func (r *ChannelRepository) findChannel(ctx context.Context, query string, args ...any) (*models.Channel, error) {
	var c models.Channel
	err := r.q.QueryRowContext(ctx, query, args...).Scan(&c.ID, &c.Name, &c.OwnerID, &c.IsPublic, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying channel: %w", err)
	}
	return &c, nil
}

func (r *ChannelRepository) ListJoinedChannels(ctx context.Context, userID string) ([]*models.Channel, error) {
	return r.listChannels(ctx,
		`SELECT c.id, c.name, c.owner_id, c.is_public, c.created_at
		   FROM channels c
		   JOIN memberships m ON m.channel_id = c.id
		  WHERE m.user_id = ?
	   ORDER BY c.name`,
		userID,
	)
}

func (r *ChannelRepository) SearchPublicChannels(ctx context.Context, nameFilter string) ([]*models.Channel, error) {
	// LIKE is case-insensitive for ASCII in sqlite.
	return r.listChannels(ctx,
		`SELECT id, name, owner_id, is_public, created_at
		   FROM channels
		  WHERE is_public = 1 AND name LIKE '%' || ? || '%'
	   ORDER BY name`,
		nameFilter,
	)
}

func (r *ChannelRepository) listChannels(ctx context.Context, query string, args ...any) ([]*models.Channel, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying channels: %w", err)
	}
	defer rows.Close()

	channels := make([]*models.Channel, 0)
	for rows.Next() {
		var c models.Channel
		if err := rows.Scan(&c.ID, &c.Name, &c.OwnerID, &c.IsPublic, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning channel: %w", err)
		}
		channels = append(channels, &c)
	}
	return channels, rows.Err()
}

func (r *ChannelRepository) CreateMembership(ctx context.Context, m *models.Membership) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO memberships (id, user_id, channel_id, role, joined_at) VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.UserID, m.ChannelID, m.Role, m.JoinedAt.UTC(),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("creating membership: %w", err)
	}
	return nil
}

func (r *ChannelRepository) GetMembership(ctx context.Context, channelID, userID string) (*models.Membership, error) {
	var m models.Membership
	err := r.q.QueryRowContext(ctx,
		`SELECT id, user_id, channel_id, role, joined_at FROM memberships WHERE channel_id = ? AND user_id = ?`,
		channelID, userID,
	).Scan(&m.ID, &m.UserID, &m.ChannelID, &m.Role, &m.JoinedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying membership: %w", err)
	}
	return &m, nil
}

func (r *ChannelRepository) ListMemberships(ctx context.Context, channelID string) ([]*models.Membership, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, user_id, channel_id, role, joined_at FROM memberships WHERE channel_id = ? ORDER BY joined_at`,
		channelID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying memberships: %w", err)
	}
	defer rows.Close()

	memberships := make([]*models.Membership, 0)
	for rows.Next() {
		var m models.Membership
		if err := rows.Scan(&m.ID, &m.UserID, &m.ChannelID, &m.Role, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scanning membership: %w", err)
		}
		memberships = append(memberships, &m)
	}
	return memberships, rows.Err()
}

func (r *ChannelRepository) DeleteMembership(ctx context.Context, channelID, userID string) error {
	result, err := r.q.ExecContext(ctx,
		`DELETE FROM memberships WHERE channel_id = ? AND user_id = ?`,
		channelID, userID,
	)
	if err != nil {
		return fmt.Errorf("deleting membership: %w", err)
	}
	return checkRowsAffected(result)
}

func (r *ChannelRepository) CreateMessage(ctx context.Context, m *models.Message) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO messages (id, channel_id, sender_id, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.ChannelID, m.SenderID, m.Content, m.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("creating message: %w", err)
	}
	return nil
}

func (r *ChannelRepository) ListMessages(ctx context.Context, channelID string) ([]*models.Message, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, channel_id, sender_id, content, created_at
		   FROM messages
		  WHERE channel_id = ?
	   ORDER BY created_at, rowid`,
		channelID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*models.Message, 0)
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ChannelID, &m.SenderID, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}

func (r *ChannelRepository) CreateInvitation(ctx context.Context, inv *models.ChannelInvitation) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO channel_invitations (id, channel_id, inviter_id, invitee_id, role, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.ChannelID, inv.InviterID, inv.InviteeID, inv.Role, inv.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("creating channel invitation: %w", err)
	}
	return nil
}

func (r *ChannelRepository) GetInvitation(ctx context.Context, channelID, inviteeID string) (*models.ChannelInvitation, error) {
	var inv models.ChannelInvitation
	err := r.q.QueryRowContext(ctx,
		`SELECT id, channel_id, inviter_id, invitee_id, role, created_at
		   FROM channel_invitations
		  WHERE channel_id = ? AND invitee_id = ?
	   ORDER BY created_at, rowid
	      LIMIT 1`,
		channelID, inviteeID,
	).Scan(&inv.ID, &inv.ChannelID, &inv.InviterID, &inv.InviteeID, &inv.Role, &inv.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying channel invitation: %w", err)
	}
	return &inv, nil
}

func (r *ChannelRepository) ListInvitationsForInvitee(ctx context.Context, inviteeID string) ([]*models.ChannelInvitation, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, channel_id, inviter_id, invitee_id, role, created_at
		   FROM channel_invitations
		  WHERE invitee_id = ?
	   ORDER BY created_at`,
		inviteeID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying channel invitations: %w", err)
	}
	defer rows.Close()

	invitations := make([]*models.ChannelInvitation, 0)
	for rows.Next() {
		var inv models.ChannelInvitation
		if err := rows.Scan(&inv.ID, &inv.ChannelID, &inv.InviterID, &inv.InviteeID, &inv.Role, &inv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning channel invitation: %w", err)
		}
		invitations = append(invitations, &inv)
	}
	return invitations, rows.Err()
}

func (r *ChannelRepository) DeleteInvitation(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM channel_invitations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting channel invitation: %w", err)
	}
	return checkRowsAffected(result)
}
