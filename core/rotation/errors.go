package rotation

import "errors"

var (
	// ErrEmptyRoster is returned when no participant is available.
	ErrEmptyRoster = errors.New("roster is empty")
	// ErrRosterTooSmall is returned under the reject policy when the roster
	// cannot provide one distinct participant per role.
	ErrRosterTooSmall = errors.New("roster smaller than role catalog")
	// ErrDuplicateParticipant is returned when two roster entries share an id.
	ErrDuplicateParticipant = errors.New("duplicate participant id")
)
