// Package config loads the service configuration with koanf.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/rota/core/calendar"
	"github.com/kilianp07/rota/core/metrics"
	"github.com/kilianp07/rota/core/rotation"
	"github.com/kilianp07/rota/infra/mqtt"
)

type Config struct {
	Store    StoreConfig     `json:"store"`
	Rotation rotation.Config `json:"rotation"`
	Calendar calendar.Config `json:"calendar"`
	Roster   RosterConfig    `json:"roster"`
	HTTP     HTTPConfig      `json:"http"`
	Auth     AuthConfig      `json:"auth"`
	Metrics  metrics.Config  `json:"metrics"`
	MQTT     mqtt.Config     `json:"mqtt"`
	Audit    AuditConfig     `json:"audit"`
	Sentry   SentryConfig    `json:"sentry"`
}

// Load reads a YAML or JSON file, applies K_ prefixed environment overrides
// (K_HTTP__ADDR sets http.addr) and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies the defaults of every section.
func (c *Config) SetDefaults() {
	c.Store.SetDefaults()
	c.Rotation.SetDefaults()
	c.Calendar.SetDefaults()
	c.HTTP.SetDefaults()
	c.Auth.SetDefaults()
	c.MQTT.SetDefaults()
	c.Audit.SetDefaults()
	c.Sentry.SetDefaults()
}

// Validate checks every section and joins the errors.
func (c Config) Validate() error {
	var errs []error
	add := func(section string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", section, err))
		}
	}
	add("store", c.Store.Validate())
	add("rotation", c.Rotation.Validate())
	add("calendar", c.Calendar.Validate())
	add("roster", c.Roster.Validate())
	add("http", c.HTTP.Validate())
	add("mqtt", c.MQTT.Validate())
	add("audit", c.Audit.Validate())
	add("sentry", c.Sentry.Validate())
	return errors.Join(errs...)
}
