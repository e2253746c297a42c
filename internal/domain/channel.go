package domain

import "parlor/internal/models"

const (
	minChannelNameLength = 4
	maxChannelNameLength = 64
)

// ValidChannelName requires 4-64 characters, all alphanumeric.
func ValidChannelName(name string) bool {
	if len(name) < minChannelNameLength || len(name) > maxChannelNameLength {
		return false
	}
	for _, r := range name {
		if !isAlphanumeric(r) {
			return false
		}
	}
	return true
}

func isAlphanumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// RoleAtLeast reports whether a ranks at or above b. It gates who may
// invite at which role and who may post.
func RoleAtLeast(a, b models.Role) bool {
	return a.Rank() >= b.Rank()
}
