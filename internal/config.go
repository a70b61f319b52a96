package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/herald/internal/device"
	"github.com/starford/herald/internal/leadtime"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Vault  VaultConfig       `yaml:"vault"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Auth   AuthConfig        `yaml:"auth"`
	Device DeviceConfig      `yaml:"device"`
	Team   TeamConfig        `yaml:"team"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.Team.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig holds the Markdown vault location and how group records are
// found in it.
//
// GroupsFolder and GroupTag narrow discovery; both empty scans the whole
// vault. Settle is the quiet period after file changes before groups are
// rediscovered.
type VaultConfig struct {
	Path         string        `yaml:"path"`
	GroupsFolder string        `yaml:"groups_folder"`
	GroupTag     string        `yaml:"group_tag"`
	Watch        bool          `yaml:"watch"`
	Settle       time.Duration `yaml:"settle"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Settle, validation.Min(time.Duration(0))),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// DeviceConfig holds settings of this device that live in the config file
// rather than the local override store.
type DeviceConfig struct {
	// Identity is the person this device belongs to, e.g. "[[people/Alice]]".
	// The localIdentity device override wins over it.
	Identity string `yaml:"identity"`
}

// TeamConfig holds the shared team defaults that sit between device
// overrides and hardcoded fallbacks, plus the vault-wide reminder lead times.
type TeamConfig struct {
	device.TeamDefaults `yaml:",inline"`
	GlobalLeadTimes     []leadtime.LeadTime `yaml:"global_lead_times"`
}

// Validate validates the team configuration.
func (c *TeamConfig) Validate() error {
	if err := c.TeamDefaults.Validate(); err != nil {
		return fmt.Errorf("team: %w", err)
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.GlobalLeadTimes, validation.Each(validation.By(validLeadTime))),
	)
}

func validLeadTime(v any) error {
	lt, ok := v.(leadtime.LeadTime)
	if !ok || !lt.Valid() {
		return errors.New("must have a positive value and a unit of minutes, hours, days or weeks")
	}
	return nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path:   "./vault",
			Watch:  true,
			Settle: 500 * time.Millisecond,
		},
		SQLite: SQLiteConfig{
			Path: "./herald.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
