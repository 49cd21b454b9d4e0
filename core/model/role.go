package model

import "fmt"

// Catalog is the ordered list of session roles. The first MainCount roles are
// main roles; the remaining ones are table-topic roles.
type Catalog struct {
	Roles     []string `json:"roles"`
	MainCount int      `json:"main_count"`
}

// DefaultCatalog is the club's standard meeting agenda.
var DefaultCatalog = Catalog{
	Roles: []string{
		"TMOD",
		"GE",
		"TTM",
		"Timer",
		"Ah Counter",
		"Grammarian",
		"Speaker 1",
		"Speaker 2",
		"Speaker 3",
		"Evaluator 1",
		"Evaluator 2",
		"Evaluator 3",
		"TT Speaker 1",
		"TT Speaker 2",
		"TT Speaker 3",
	},
	MainCount: 12,
}

// Size returns the number of roles per session.
func (c Catalog) Size() int { return len(c.Roles) }

// Main returns the history-aware roles.
func (c Catalog) Main() []string { return c.Roles[:c.MainCount] }

// TableTopics returns the leftover roles.
func (c Catalog) TableTopics() []string { return c.Roles[c.MainCount:] }

// IsMain reports whether role belongs to the main partition.
func (c Catalog) IsMain(role string) bool {
	for _, r := range c.Main() {
		if r == role {
			return true
		}
	}
	return false
}

// Validate checks the partition point and role uniqueness.
func (c Catalog) Validate() error {
	if len(c.Roles) == 0 {
		return fmt.Errorf("catalog has no roles")
	}
	if c.MainCount < 0 || c.MainCount > len(c.Roles) {
		return fmt.Errorf("main_count %d out of range [0,%d]", c.MainCount, len(c.Roles))
	}
	seen := make(map[string]struct{}, len(c.Roles))
	for _, r := range c.Roles {
		if r == "" {
			return fmt.Errorf("empty role name")
		}
		if _, ok := seen[r]; ok {
			return fmt.Errorf("duplicate role %q", r)
		}
		seen[r] = struct{}{}
	}
	return nil
}
