package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  name: Test\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Auth.MaxTokensPerUser != 3 {
		t.Errorf("max_tokens_per_user = %d, want 3", cfg.Auth.MaxTokensPerUser)
	}
	if cfg.Auth.RegistrationInvitationTTL.Std() != 24*time.Hour {
		t.Errorf("registration_invitation_ttl = %v, want 24h", cfg.Auth.RegistrationInvitationTTL.Std())
	}
	if cfg.Auth.TokenTTL.Std() != 30*24*time.Hour {
		t.Errorf("token_ttl = %v, want 720h", cfg.Auth.TokenTTL.Std())
	}
}

func TestLoadExplicitAuthValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
auth:
  token_ttl: 48h
  token_rolling_ttl: 12h
  max_tokens_per_user: 5
  registration_invitation_ttl: 1h
`))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Auth.TokenTTL.Std() != 48*time.Hour {
		t.Errorf("token_ttl = %v, want 48h", cfg.Auth.TokenTTL.Std())
	}
	if cfg.Auth.TokenRollingTTL.Std() != 12*time.Hour {
		t.Errorf("token_rolling_ttl = %v, want 12h", cfg.Auth.TokenRollingTTL.Std())
	}
	if cfg.Auth.MaxTokensPerUser != 5 {
		t.Errorf("max_tokens_per_user = %d, want 5", cfg.Auth.MaxTokensPerUser)
	}
}

func TestLoadRejectsNonPositiveValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"negative token ttl", "auth:\n  token_ttl: -1h\n"},
		{"negative rolling ttl", "auth:\n  token_rolling_ttl: -5m\n"},
		{"negative max tokens", "auth:\n  max_tokens_per_user: -1\n"},
		{"negative invitation ttl", "auth:\n  registration_invitation_ttl: -24h\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.yaml)); err == nil {
				t.Fatal("Load() expected an error")
			}
		})
	}
}

func TestLoadRejectsMalformedDuration(t *testing.T) {
	if _, err := Load(writeConfig(t, "auth:\n  token_ttl: soon\n")); err == nil {
		t.Fatal("Load() expected an error for a malformed duration")
	}
}
