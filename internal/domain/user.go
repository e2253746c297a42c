// Package domain holds the pure rules of the system: input validation,
// password hashing, and the expiry arithmetic for tokens and registration
// invitations. Nothing here performs I/O.
package domain

import (
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"parlor/internal/models"
)

const minUsernameLength = 4

// ValidUsername reports whether s is acceptable as a username.
func ValidUsername(s string) bool {
	return len(s) >= minUsernameLength
}

// SafePassword requires at least 8 characters with at least one letter
// and one digit.
func SafePassword(s string) bool {
	if len(s) < 8 {
		return false
	}
	var hasLetter, hasDigit bool
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	return string(b), err
}

func VerifyPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// TokenExpired reports whether tok is past its validity window at now.
// A token expires at min(CreatedAt+ttl, LastUsedAt+rollingTTL): the
// absolute ceiling bounds a token's total lifetime, while the rolling
// window closes on tokens that stop being used.
func TokenExpired(now time.Time, tok *models.AuthToken, ttl, rollingTTL time.Duration) bool {
	absolute := tok.CreatedAt.Add(ttl)
	rolling := tok.LastUsedAt.Add(rollingTTL)
	expiry := absolute
	if rolling.Before(absolute) {
		expiry = rolling
	}
	return !now.Before(expiry)
}

// RegistrationInvitationValid reports whether inv can still gate a
// registration at now: it must be pending and no older than ttl.
func RegistrationInvitationValid(now time.Time, inv *models.RegistrationInvitation, ttl time.Duration) bool {
	if inv.Status != models.InvitationPending {
		return false
	}
	age := now.Sub(inv.CreatedAt)
	return age >= 0 && age <= ttl
}
