package rotation

import (
	"fmt"
	"sort"

	"github.com/kilianp07/rota/core/model"
)

// Ring returns the roster sorted by participant id. The order only depends on
// the ids, never on the input order.
func Ring(roster []model.Participant) ([]model.Participant, error) {
	if len(roster) == 0 {
		return nil, ErrEmptyRoster
	}
	ring := make([]model.Participant, len(roster))
	copy(ring, roster)
	for _, p := range ring {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}
	sort.Slice(ring, func(i, j int) bool { return ring[i].ID < ring[j].ID })
	for i := 1; i < len(ring); i++ {
		if ring[i].ID == ring[i-1].ID {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateParticipant, ring[i].ID)
		}
	}
	return ring, nil
}

// normalize maps any cursor value onto [0, size).
func normalize(cursor, size int) int {
	return ((cursor % size) + size) % size
}

// nextGroup walks size steps around the ring from cursor and returns the
// distinct participants met, in walk order, together with the advanced cursor.
// Duplicates only occur when the ring is shorter than size.
func nextGroup(ring []model.Participant, cursor, size int) ([]model.Participant, int) {
	group := make([]model.Participant, 0, size)
	seen := make(map[string]struct{}, size)
	for i := 0; i < size; i++ {
		p := ring[cursor]
		cursor = (cursor + 1) % len(ring)
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		group = append(group, p)
	}
	return group, cursor
}
