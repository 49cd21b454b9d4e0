package schedule

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kilianp07/rota/core/calendar"
	"github.com/kilianp07/rota/core/model"
)

// MemoryStore keeps everything in memory for tests or lightweight usage.
type MemoryStore struct {
	mu           sync.Mutex
	participants map[string]model.Participant
	sessions     map[string]*model.AssignmentEntry
	nextID       int64
	cursor       int
	hasCursor    bool
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		participants: make(map[string]model.Participant),
		sessions:     make(map[string]*model.AssignmentEntry),
	}
}

func (s *MemoryStore) Participants(context.Context) ([]model.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Participant, 0, len(s.participants))
	for _, p := range s.participants {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) UpsertParticipants(_ context.Context, ps []model.Participant) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range ps {
		if err := p.Validate(); err != nil {
			return 0, err
		}
	}
	for _, p := range ps {
		s.participants[p.ID] = p
	}
	return len(ps), nil
}

func (s *MemoryStore) History(context.Context) (model.History, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := model.History{}
	for _, e := range s.sessions {
		h.Merge([]model.AssignmentEntry{*e})
	}
	return h, nil
}

func (s *MemoryStore) Dates(context.Context) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]struct{}, len(s.sessions))
	for d := range s.sessions {
		out[d] = struct{}{}
	}
	return out, nil
}

func (s *MemoryStore) Cursor(context.Context) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor, s.hasCursor, nil
}

func (s *MemoryStore) Commit(_ context.Context, entries []model.AssignmentEntry, cursor int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		for _, r := range e.Roles {
			if _, ok := s.participants[r.Participant.ID]; !ok {
				return 0, fmt.Errorf("participant %s: %w", r.Participant.ID, ErrNotFound)
			}
		}
	}
	inserted := 0
	for _, e := range entries {
		if _, exists := s.sessions[e.Date]; exists {
			continue
		}
		cp := e
		cp.Roles = make([]model.RoleAssignment, len(e.Roles))
		for i, r := range e.Roles {
			s.nextID++
			r.ID = s.nextID
			cp.Roles[i] = r
		}
		s.sessions[e.Date] = &cp
		inserted++
	}
	s.cursor = cursor
	s.hasCursor = true
	return inserted, nil
}

func (s *MemoryStore) Schedule(context.Context) ([]model.AssignmentEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.AssignmentEntry, 0, len(s.sessions))
	for _, e := range s.sessions {
		cp := *e
		cp.Roles = make([]model.RoleAssignment, len(e.Roles))
		for i, r := range e.Roles {
			if p, ok := s.participants[r.Participant.ID]; ok {
				r.Participant = p
			}
			cp.Roles[i] = r
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return calendar.Less(out[i].Date, out[j].Date) })
	return out, nil
}

func (s *MemoryStore) SetTheme(_ context.Context, date, theme string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[date]
	if !ok {
		return fmt.Errorf("session %s: %w", date, ErrNotFound)
	}
	e.Theme = theme
	return nil
}

func (s *MemoryStore) Reassign(_ context.Context, id int64, participantID string) (Reassignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.participants[participantID]
	if !ok {
		return Reassignment{}, fmt.Errorf("participant %s: %w", participantID, ErrNotFound)
	}
	for _, e := range s.sessions {
		for i := range e.Roles {
			if e.Roles[i].ID != id {
				continue
			}
			ra := Reassignment{ID: id, Date: e.Date, Role: e.Roles[i].Role, From: e.Roles[i].Participant.ID, To: p.ID}
			e.Roles[i].Participant = p
			return ra, nil
		}
	}
	return Reassignment{}, fmt.Errorf("assignment %d: %w", id, ErrNotFound)
}

func (s *MemoryStore) Close() error { return nil }
