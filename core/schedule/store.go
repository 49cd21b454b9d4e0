package schedule

import (
	"context"
	"errors"

	"github.com/kilianp07/rota/core/model"
)

var (
	// ErrNotFound is returned when a date, assignment or participant is unknown.
	ErrNotFound = errors.New("not found")
	// ErrInvalidDates is returned when a requested session date cannot be parsed.
	ErrInvalidDates = errors.New("invalid session dates")
)

// Reassignment describes a manual change of role holder.
type Reassignment struct {
	ID   int64
	Date string
	Role string
	From string
	To   string
}

// Store persists the roster, the schedule and the rotation cursor.
type Store interface {
	// Participants returns the roster.
	Participants(ctx context.Context) ([]model.Participant, error)
	// UpsertParticipants inserts or renames participants and returns how many
	// rows were written.
	UpsertParticipants(ctx context.Context, ps []model.Participant) (int, error)
	// History folds every stored assignment into a role history.
	History(ctx context.Context) (model.History, error)
	// Dates returns the scheduled session dates.
	Dates(ctx context.Context) (map[string]struct{}, error)
	// Cursor returns the stored rotation cursor; ok is false when none was
	// ever saved.
	Cursor(ctx context.Context) (cursor int, ok bool, err error)
	// Commit atomically stores the entries and the cursor. Entries whose date
	// already exists are skipped. It returns the number of inserted sessions.
	Commit(ctx context.Context, entries []model.AssignmentEntry, cursor int) (int, error)
	// Schedule returns every session in chronological order.
	Schedule(ctx context.Context) ([]model.AssignmentEntry, error)
	// SetTheme updates the theme of a session.
	SetTheme(ctx context.Context, date, theme string) error
	// Reassign gives an existing assignment to another participant.
	Reassign(ctx context.Context, id int64, participantID string) (Reassignment, error)
	Close() error
}
