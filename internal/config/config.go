package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
}

type ServerConfig struct {
	Name    string `yaml:"name"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	BaseURL string `yaml:"base_url"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type AuthConfig struct {
	TokenTTL                  Duration `yaml:"token_ttl"`
	TokenRollingTTL           Duration `yaml:"token_rolling_ttl"`
	MaxTokensPerUser          int      `yaml:"max_tokens_per_user"`
	RegistrationInvitationTTL Duration `yaml:"registration_invitation_ttl"`
}

// Duration parses yaml values like "24h" or "30m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"24h\"")
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PARLOR_DATABASE_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("PARLOR_BASE_URL"); v != "" {
		c.Server.BaseURL = v
	}
}

func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Name == "" {
		c.Server.Name = "Parlor Server"
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = fmt.Sprintf("http://%s:%d", c.Server.Host, c.Server.Port)
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/parlor.db"
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = Duration(30 * 24 * time.Hour)
	}
	if c.Auth.TokenRollingTTL == 0 {
		c.Auth.TokenRollingTTL = Duration(7 * 24 * time.Hour)
	}
	if c.Auth.MaxTokensPerUser == 0 {
		c.Auth.MaxTokensPerUser = 3
	}
	if c.Auth.RegistrationInvitationTTL == 0 {
		c.Auth.RegistrationInvitationTTL = Duration(24 * time.Hour)
	}
}

// validate runs after defaulting: every auth knob must end up strictly
// positive, so explicit non-positive values in the file fail the load.
func (c *Config) validate() error {
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}
	if c.Auth.TokenRollingTTL <= 0 {
		return fmt.Errorf("auth.token_rolling_ttl must be positive")
	}
	if c.Auth.MaxTokensPerUser <= 0 {
		return fmt.Errorf("auth.max_tokens_per_user must be positive")
	}
	if c.Auth.RegistrationInvitationTTL <= 0 {
		return fmt.Errorf("auth.registration_invitation_ttl must be positive")
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
