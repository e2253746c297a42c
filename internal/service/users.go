package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"parlor/internal/domain"
	"parlor/internal/ids"
	"parlor/internal/models"
	"parlor/internal/store"
)

// AuthParams are the token and invitation lifecycle knobs. All values
// must be strictly positive.
type AuthParams struct {
	TokenTTL                  time.Duration
	TokenRollingTTL           time.Duration
	MaxTokensPerUser          int
	RegistrationInvitationTTL time.Duration
}

func (p AuthParams) validate() error {
	if p.TokenTTL <= 0 {
		return errors.New("token ttl must be positive")
	}
	if p.TokenRollingTTL <= 0 {
		return errors.New("token rolling ttl must be positive")
	}
	if p.MaxTokensPerUser <= 0 {
		return errors.New("max tokens per user must be positive")
	}
	if p.RegistrationInvitationTTL <= 0 {
		return errors.New("registration invitation ttl must be positive")
	}
	return nil
}

// Session is what a successful login hands back: the raw token value
// (never stored, never logged) and its owner.
type Session struct {
	Token string
	User  *models.User
}

type UsersService struct {
	tm     store.TxManager
	params AuthParams
	now    func() time.Time
}

func NewUsersService(tm store.TxManager, params AuthParams) (*UsersService, error) {
	if err := params.validate(); err != nil {
		return nil, fmt.Errorf("auth params: %w", err)
	}
	return &UsersService{tm: tm, params: params, now: time.Now}, nil
}

// Register redeems an invitation code and creates the user as one atomic
// unit: either both the user row and the accepted invitation land, or
// neither does.
func (s *UsersService) Register(ctx context.Context, code, username, password string) (string, error) {
	if !domain.ValidUsername(username) {
		return "", ErrUsernameNotValid
	}
	if !domain.SafePassword(password) {
		return "", ErrPasswordNotSafe
	}

	passwordHash, err := domain.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}

	var userID string
	err = s.tm.Run(ctx, func(tx store.Tx) error {
		users := tx.Users()

		inv, err := users.GetRegistrationInvitation(ctx, code)
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvitationNotValid
		}
		if err != nil {
			return err
		}
		if !domain.RegistrationInvitationValid(s.now(), inv, s.params.RegistrationInvitationTTL) {
			return ErrInvitationNotValid
		}

		if _, err := users.GetUserByUsername(ctx, username); err == nil {
			return ErrUsernameExists
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		id, err := ids.New("usr")
		if err != nil {
			return fmt.Errorf("generating user ID: %w", err)
		}
		user := &models.User{
			ID:           id,
			Username:     username,
			PasswordHash: passwordHash,
			CreatedAt:    s.now().UTC(),
		}
		if err := users.CreateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return ErrUsernameExists
			}
			return err
		}

		if err := users.SetRegistrationInvitationStatus(ctx, code, models.InvitationAccepted); err != nil {
			return err
		}

		userID = id
		return nil
	})
	if err != nil {
		return "", err
	}
	return userID, nil
}

// Login verifies credentials and mints a token, evicting the user's
// least-recently-used tokens beyond the per-user limit. The failure is
// the same regardless of whether the user exists.
func (s *UsersService) Login(ctx context.Context, username, password string) (*Session, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	tokenValue, err := newTokenValue()
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	var session *Session
	err = s.tm.Run(ctx, func(tx store.Tx) error {
		users := tx.Users()

		user, err := users.GetUserByUsername(ctx, username)
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidCredentials
		}
		if err != nil {
			return err
		}
		if !domain.VerifyPassword(password, user.PasswordHash) {
			return ErrInvalidCredentials
		}

		id, err := ids.New("tok")
		if err != nil {
			return fmt.Errorf("generating token ID: %w", err)
		}
		now := s.now().UTC()
		token := &models.AuthToken{
			ID:         id,
			UserID:     user.ID,
			TokenHash:  hashTokenValue(tokenValue),
			CreatedAt:  now,
			LastUsedAt: now,
		}
		if err := users.CreateToken(ctx, token); err != nil {
			return err
		}
		if err := users.DeleteTokensBeyondLimit(ctx, user.ID, s.params.MaxTokensPerUser); err != nil {
			return err
		}

		session = &Session{Token: tokenValue, User: user}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Authenticate resolves a raw token value to its user, refreshing the
// token's rolling window as a side effect. Called on every
// authenticated request.
func (s *UsersService) Authenticate(ctx context.Context, tokenValue string) (*models.User, error) {
	if tokenValue == "" {
		return nil, ErrInvalidToken
	}
	tokenHash := hashTokenValue(tokenValue)

	var user *models.User
	err := s.tm.Run(ctx, func(tx store.Tx) error {
		users := tx.Users()

		token, err := users.GetTokenByHash(ctx, tokenHash)
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidToken
		}
		if err != nil {
			return err
		}
		if domain.TokenExpired(s.now(), token, s.params.TokenTTL, s.params.TokenRollingTTL) {
			return ErrInvalidToken
		}

		if err := users.TouchToken(ctx, token.ID, s.now().UTC()); err != nil {
			return err
		}

		user, err = users.GetUserByID(ctx, token.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Logout revokes the token. Revoking an unknown token is not an error.
func (s *UsersService) Logout(ctx context.Context, tokenValue string) error {
	tokenHash := hashTokenValue(tokenValue)
	return s.tm.Run(ctx, func(tx store.Tx) error {
		err := tx.Users().DeleteTokenByHash(ctx, tokenHash)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	})
}

// CreateRegistrationInvitation mints a fresh one-time code. inviterID
// may be nil for codes issued out of band.
func (s *UsersService) CreateRegistrationInvitation(ctx context.Context, inviterID *string) (string, error) {
	code := uuid.NewString()
	inv := &models.RegistrationInvitation{
		Code:      code,
		InviterID: inviterID,
		Status:    models.InvitationPending,
		CreatedAt: s.now().UTC(),
	}
	err := s.tm.Run(ctx, func(tx store.Tx) error {
		return tx.Users().CreateRegistrationInvitation(ctx, inv)
	})
	if err != nil {
		return "", err
	}
	return code, nil
}

const tokenValueBytes = 32

func newTokenValue() (string, error) {
	b := make([]byte, tokenValueBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "tok_" + hex.EncodeToString(b), nil
}

func hashTokenValue(tokenValue string) string {
	h := sha256.Sum256([]byte(tokenValue))
	return hex.EncodeToString(h[:])
}
