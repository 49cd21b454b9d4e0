package audit

import (
	"fmt"

	"github.com/kilianp07/rota/config"
	"github.com/kilianp07/rota/core/schedule"
)

// Open creates the audit log selected by cfg.Backend. A disabled audit
// configuration yields a nil log.
func Open(cfg config.AuditConfig) (schedule.AuditLog, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	switch cfg.Backend {
	case "jsonl":
		s, err := NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		s, err := NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown audit backend %q", cfg.Backend)
	}
}
