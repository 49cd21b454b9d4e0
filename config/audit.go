package config

import (
	"fmt"
)

// AuditConfig defines settings for the generation audit log and its rotation.
type AuditConfig struct {
	Enabled bool `json:"enabled"`
	// Backend selects the log store type: "jsonl" or "sqlite".
	Backend string `json:"backend"`
	// Path is the file location of the log store.
	Path string `json:"path"`
	// MaxSizeMB triggers rotation when the file exceeds this size in megabytes.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *AuditConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" {
		c.Path = "generations.jsonl"
	}
	if c.MaxSizeMB == 0 {
		c.MaxSizeMB = 10
	}
}

// Validate checks mandatory fields.
func (c AuditConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Backend != "jsonl" && c.Backend != "sqlite" {
		return fmt.Errorf("unknown audit backend %s", c.Backend)
	}
	if c.Path == "" {
		return fmt.Errorf("audit path is required")
	}
	return nil
}
