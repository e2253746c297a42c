package domain

import (
	"strings"
	"testing"

	"parlor/internal/models"
)

func TestValidChannelName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"ab", false},
		{"abcd", true},
		{strings.Repeat("a", 64), true},
		{strings.Repeat("a", 65), false},
		{"abc!", false},
		{"general", true},
		{"Room42", true},
		{"two words", false},
	}
	for _, tt := range tests {
		if got := ValidChannelName(tt.name); got != tt.want {
			t.Errorf("ValidChannelName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRoleAtLeast(t *testing.T) {
	tests := []struct {
		a, b models.Role
		want bool
	}{
		{models.RoleOwner, models.RoleOwner, true},
		{models.RoleOwner, models.RoleViewer, true},
		{models.RoleMember, models.RoleMember, true},
		{models.RoleMember, models.RoleOwner, false},
		{models.RoleViewer, models.RoleMember, false},
		{models.RoleViewer, models.RoleViewer, true},
	}
	for _, tt := range tests {
		if got := RoleAtLeast(tt.a, tt.b); got != tt.want {
			t.Errorf("RoleAtLeast(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"owner", "member", "viewer"} {
		role, err := models.ParseRole(valid)
		if err != nil {
			t.Errorf("ParseRole(%q) error = %v", valid, err)
		}
		if string(role) != valid {
			t.Errorf("ParseRole(%q) = %v", valid, role)
		}
	}
	for _, invalid := range []string{"", "admin", "OWNER", "Member"} {
		if _, err := models.ParseRole(invalid); err == nil {
			t.Errorf("ParseRole(%q) expected an error", invalid)
		}
	}
}
