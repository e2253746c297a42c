package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"parlor/internal/models"
	"parlor/internal/store"
)

// UserRepository implements store.UsersRepository over a *sql.DB or a
// *sql.Tx.
type UserRepository struct {
	q querier
}

func NewUserRepository(q querier) *UserRepository {
	return &UserRepository{q: q}
}

func (r *UserRepository) CreateUser(ctx context.Context, u *models.User) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Username, u.PasswordHash, u.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return r.findUser(ctx, `SELECT id, username, password_hash, created_at FROM users WHERE id = ?`, id)
}

func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findUser(ctx, `SELECT id, username, password_hash, created_at FROM users WHERE username = ?`, username)
}

func (r *UserRepository) findUser(ctx context.Context, query string, args ...any) (*models.User, error) {
	var u models.User
	err := r.q.QueryRowContext(ctx, query, args...).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) CreateToken(ctx context.Context, t *models.AuthToken) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO auth_tokens (id, user_id, token_hash, created_at, last_used_at) VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.TokenHash, t.CreatedAt.UTC(), t.LastUsedAt.UTC(),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("creating token: %w", err)
	}
	return nil
}

func (r *UserRepository) GetTokenByHash(ctx context.Context, tokenHash string) (*models.AuthToken, error) {
	var t models.AuthToken
	err := r.q.QueryRowContext(ctx,
		`SELECT id, user_id, token_hash, created_at, last_used_at FROM auth_tokens WHERE token_hash = ?`,
		tokenHash,
	).Scan(&t.ID, &t.UserID, &t.TokenHash, &t.CreatedAt, &t.LastUsedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying token: %w", err)
	}
	return &t, nil
}

func (r *UserRepository) TouchToken(ctx context.Context, id string, lastUsedAt time.Time) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE auth_tokens SET last_used_at = ? WHERE id = ?`,
		lastUsedAt.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("touching token: %w", err)
	}
	return checkRowsAffected(result)
}

func (r *UserRepository) DeleteTokenByHash(ctx context.Context, tokenHash string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM auth_tokens WHERE token_hash = ?`, tokenHash)
	if err != nil {
		return fmt.Errorf("deleting token: %w", err)
	}
	return checkRowsAffected(result)
}

// DeleteTokensBeyondLimit keeps the keep most-recently-used tokens for
// the user and deletes the rest.
func (r *UserRepository) DeleteTokensBeyondLimit(ctx context.Context, userID string, keep int) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM auth_tokens
		 WHERE user_id = ?
		   AND id NOT IN (
		       SELECT id FROM auth_tokens
		        WHERE user_id = ?
		     ORDER BY last_used_at DESC, created_at DESC
		        LIMIT ?
		   )`,
		userID, userID, keep,
	)
	if err != nil {
		return fmt.Errorf("evicting tokens: %w", err)
	}
	return nil
}

func (r *UserRepository) CountTokens(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM auth_tokens WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting tokens: %w", err)
	}
	return count, nil
}

func (r *UserRepository) CreateRegistrationInvitation(ctx context.Context, inv *models.RegistrationInvitation) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO registration_invitations (code, inviter_id, status, created_at) VALUES (?, ?, ?, ?)`,
		inv.Code, inv.InviterID, inv.Status, inv.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("creating registration invitation: %w", err)
	}
	return nil
}

func (r *UserRepository) GetRegistrationInvitation(ctx context.Context, code string) (*models.RegistrationInvitation, error) {
	var inv models.RegistrationInvitation
	var inviterID sql.NullString
	err := r.q.QueryRowContext(ctx,
		`SELECT code, inviter_id, status, created_at FROM registration_invitations WHERE code = ?`,
		code,
	).Scan(&inv.Code, &inviterID, &inv.Status, &inv.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying registration invitation: %w", err)
	}
	if inviterID.Valid {
		inv.InviterID = &inviterID.String
	}
	return &inv, nil
}

func (r *UserRepository) SetRegistrationInvitationStatus(ctx context.Context, code string, status models.InvitationStatus) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE registration_invitations SET status = ? WHERE code = ?`,
		status, code,
	)
	if err != nil {
		return fmt.Errorf("updating registration invitation: %w", err)
	}
	return checkRowsAffected(result)
}
