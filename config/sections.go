package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/rota/core/model"
)

// StoreConfig selects where the roster and the schedule live.
type StoreConfig struct {
	// Driver is "sqlite" or "memory".
	Driver string `json:"driver"`
	Path   string `json:"path"`
}

func (c *StoreConfig) SetDefaults() {
	if c.Driver == "" {
		c.Driver = "sqlite"
	}
	if c.Path == "" && c.Driver == "sqlite" {
		c.Path = "rota.db"
	}
}

func (c StoreConfig) Validate() error {
	switch c.Driver {
	case "sqlite":
		if c.Path == "" {
			return fmt.Errorf("path is required")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown driver %q", c.Driver)
	}
	return nil
}

// RosterConfig seeds the participants on first start. File is read with the
// rosterfile package; Participants are listed inline.
type RosterConfig struct {
	File         string              `json:"file"`
	Participants []model.Participant `json:"participants"`
}

func (c RosterConfig) Validate() error {
	for i, p := range c.Participants {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("participant %d: %w", i+1, err)
		}
	}
	return nil
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Addr         string        `json:"addr"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

func (c *HTTPConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 30 * time.Second
	}
}

func (c HTTPConfig) Validate() error {
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	return nil
}

// AuthConfig holds the admin password and the session lifetime.
type AuthConfig struct {
	// Password unlocks the mutating routes. Empty disables login unless
	// PasswordHash is set.
	Password string `json:"password"`
	// PasswordHash is a bcrypt hash that takes precedence over Password.
	PasswordHash string        `json:"password_hash"`
	TokenTTL     time.Duration `json:"token_ttl"`
}

func (c *AuthConfig) SetDefaults() {
	if c.TokenTTL == 0 {
		c.TokenTTL = 12 * time.Hour
	}
}
