package rotation

import (
	"fmt"

	"github.com/kilianp07/rota/core/model"
)

// Short roster policies.
const (
	// ShortRosterReject fails the generation when the roster is smaller than
	// the catalog.
	ShortRosterReject = "reject"
	// ShortRosterWrap walks the ring anyway; the day group only keeps distinct
	// participants and the roles that cannot be filled are omitted.
	ShortRosterWrap = "wrap"
)

// Cursor policies.
const (
	// CursorPersisted continues from the stored cursor.
	CursorPersisted = "persisted"
	// CursorRandom picks a random starting position on every call.
	CursorRandom = "random"
)

// Config defines rotation settings.
type Config struct {
	// Seed initialises the tie-break random source. Zero seeds from the clock.
	Seed         int64         `json:"seed"`
	ShortRoster  string        `json:"short_roster"`
	CursorPolicy string        `json:"cursor_policy"`
	Catalog      model.Catalog `json:"catalog"`
}

// SetDefaults applies the default policies and catalog.
func (c *Config) SetDefaults() {
	if c.ShortRoster == "" {
		c.ShortRoster = ShortRosterReject
	}
	if c.CursorPolicy == "" {
		c.CursorPolicy = CursorPersisted
	}
	if len(c.Catalog.Roles) == 0 {
		c.Catalog = model.DefaultCatalog
	}
}

// Validate checks the policies and the catalog.
func (c Config) Validate() error {
	switch c.ShortRoster {
	case ShortRosterReject, ShortRosterWrap:
	default:
		return fmt.Errorf("unknown short_roster policy %q", c.ShortRoster)
	}
	switch c.CursorPolicy {
	case CursorPersisted, CursorRandom:
	default:
		return fmt.Errorf("unknown cursor_policy %q", c.CursorPolicy)
	}
	return c.Catalog.Validate()
}
