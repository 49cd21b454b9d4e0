package rotation

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/kilianp07/rota/core/logger"
	"github.com/kilianp07/rota/core/model"
)

// Input is the snapshot a generation works on.
type Input struct {
	// Dates are the sessions to fill, already filtered against the stored
	// schedule by the caller.
	Dates  []model.SessionDate
	Roster []model.Participant
	// History is copied before use and never modified.
	History model.History
	// Cursor is the ring position of the first participant of the first
	// session. It is reduced modulo the roster size.
	Cursor int
	// RandomStart ignores Cursor and draws the start position uniformly.
	RandomStart bool
}

// Stats summarises how roles were filled during one generation.
type Stats struct {
	Days int `json:"days"`
	// Preferred counts main roles given to someone who never held them.
	Preferred int `json:"preferred"`
	// Forced counts main roles that had to be repeated.
	Forced     int `json:"forced"`
	TableTopic int `json:"table_topic"`
	// Omitted counts roles left empty because the group ran out of people.
	Omitted int `json:"omitted"`
}

// Assigned returns the number of filled role slots.
func (s Stats) Assigned() int { return s.Preferred + s.Forced + s.TableTopic }

// Output is the result of a generation.
type Output struct {
	// Entries follow the order of Input.Dates.
	Entries []model.AssignmentEntry
	// History is the input history plus every role assigned in Entries.
	History model.History
	// Start is the cursor used for the first session.
	Start int
	// Cursor is where the group of the next session would begin.
	Cursor int
	Stats  Stats
}

// Generator fills the role catalog for a sequence of sessions.
type Generator struct {
	catalog     model.Catalog
	shortRoster string
	log         logger.Logger

	mu   sync.Mutex
	rand *rand.Rand
}

// NewGenerator creates a Generator from cfg. Defaults are applied to a copy
// of cfg before validation.
func NewGenerator(cfg Config, log logger.Logger) (*Generator, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("rotation config: %w", err)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		catalog:     cfg.Catalog,
		shortRoster: cfg.ShortRoster,
		log:         log,
		rand:        rand.New(rand.NewSource(seed)),
	}, nil
}

// Catalog returns the role catalog used by the generator.
func (g *Generator) Catalog() model.Catalog { return g.catalog }

// Generate assigns the catalog roles for every session of in.Dates.
//
// An empty date list yields no entries and leaves the cursor untouched.
func (g *Generator) Generate(in Input) (Output, error) {
	ring, err := Ring(in.Roster)
	if err != nil {
		return Output{}, err
	}
	if len(in.Dates) == 0 {
		cursor := normalize(in.Cursor, len(ring))
		return Output{
			Entries: []model.AssignmentEntry{},
			History: in.History.Clone(),
			Start:   cursor,
			Cursor:  cursor,
		}, nil
	}
	size := g.catalog.Size()
	if len(ring) < size && g.shortRoster != ShortRosterWrap {
		return Output{}, fmt.Errorf("%w: %d participants for %d roles", ErrRosterTooSmall, len(ring), size)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	cursor := normalize(in.Cursor, len(ring))
	if in.RandomStart {
		cursor = g.rand.Intn(len(ring))
	}
	out := Output{
		Entries: make([]model.AssignmentEntry, 0, len(in.Dates)),
		History: in.History.Clone(),
		Start:   cursor,
	}
	for _, d := range in.Dates {
		var group []model.Participant
		group, cursor = nextGroup(ring, cursor, size)
		out.Entries = append(out.Entries, g.assignDay(d, group, out.History, &out.Stats))
	}
	out.Cursor = cursor
	out.Stats.Days = len(in.Dates)

	if g.log != nil {
		g.log.Debugw("rotation generated", map[string]any{
			"days":       out.Stats.Days,
			"roster":     len(ring),
			"start":      out.Start,
			"cursor":     out.Cursor,
			"preferred":  out.Stats.Preferred,
			"forced":     out.Stats.Forced,
			"tableTopic": out.Stats.TableTopic,
			"omitted":    out.Stats.Omitted,
		})
	}
	return out, nil
}

// assignDay fills one session from its group and records the picks in hist.
func (g *Generator) assignDay(d model.SessionDate, group []model.Participant, hist model.History, st *Stats) model.AssignmentEntry {
	entry := model.AssignmentEntry{
		Date:  d.Date,
		Day:   d.Day,
		Roles: make([]model.RoleAssignment, 0, g.catalog.Size()),
	}
	assigned := make(map[string]bool, len(group))
	assign := func(role string, p model.Participant) {
		entry.Roles = append(entry.Roles, model.RoleAssignment{Role: role, Participant: p})
		assigned[p.ID] = true
		hist.Add(p.ID, role)
	}

	for _, role := range g.catalog.Main() {
		var candidates, preferred []model.Participant
		for _, p := range group {
			if assigned[p.ID] {
				continue
			}
			candidates = append(candidates, p)
			if !hist.Has(p.ID, role) {
				preferred = append(preferred, p)
			}
		}
		if len(candidates) == 0 {
			st.Omitted++
			continue
		}
		pool := preferred
		if len(pool) == 0 {
			pool = candidates
			st.Forced++
		} else {
			st.Preferred++
		}
		assign(role, pool[g.rand.Intn(len(pool))])
	}

	var leftovers []model.Participant
	for _, p := range group {
		if !assigned[p.ID] {
			leftovers = append(leftovers, p)
		}
	}
	for i, role := range g.catalog.TableTopics() {
		if i >= len(leftovers) {
			st.Omitted++
			continue
		}
		assign(role, leftovers[i])
		st.TableTopic++
	}
	return entry
}
