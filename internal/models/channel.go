package models

import (
	"fmt"
	"time"
)

type Channel struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"ownerId"`
	IsPublic  bool      `json:"isPublic"`
	CreatedAt time.Time `json:"createdAt"`
}

// Role is the closed set of membership roles, totally ordered by Rank.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
)

// ParseRole maps a role string to its Role. Unknown values are an input
// error, never a panic.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleOwner, RoleMember, RoleViewer:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Rank returns the role's position in the OWNER > MEMBER > VIEWER order.
// Unknown roles rank below every valid one.
func (r Role) Rank() int {
	switch r {
	case RoleOwner:
		return 3
	case RoleMember:
		return 2
	case RoleViewer:
		return 1
	default:
		return 0
	}
}

type Membership struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ChannelID string    `json:"channelId"`
	Role      Role      `json:"role"`
	JoinedAt  time.Time `json:"joinedAt"`
}

// ChannelInvitation is a directed, role-carrying, single-use invite from
// an existing member to a prospective member. It is deleted on accept or
// decline, never re-activated.
type ChannelInvitation struct {
	ID        string    `json:"id"`
	ChannelID string    `json:"channelId"`
	InviterID string    `json:"inviterId"`
	InviteeID string    `json:"inviteeId"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}
