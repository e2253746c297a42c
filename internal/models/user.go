package models

import "time"

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// AuthToken is an opaque bearer token held server-side. The raw value is
// shown to the client exactly once; only its SHA-256 hash is stored.
type AuthToken struct {
	ID         string
	UserID     string
	TokenHash  string
	CreatedAt  time.Time
	LastUsedAt time.Time
}

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRejected InvitationStatus = "rejected"
)

// RegistrationInvitation is a one-time code gating new-user registration.
// It is consumed (marked accepted) atomically with the user it creates.
type RegistrationInvitation struct {
	Code      string
	InviterID *string
	Status    InvitationStatus
	CreatedAt time.Time
}
