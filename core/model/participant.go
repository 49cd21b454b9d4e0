package model

import (
	"errors"
	"fmt"
)

// ErrInvalidParticipant is returned when a participant fails validation.
var ErrInvalidParticipant = errors.New("invalid participant")

// Participant is a club member eligible for duty roles.
type Participant struct {
	ID   string `json:"rollNo" yaml:"roll_no"`
	Name string `json:"name" yaml:"name"`
}

// Validate checks that the participant carries an identity.
func (p Participant) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: roll number is required", ErrInvalidParticipant)
	}
	return nil
}

// SessionDate is a calendar date (DD.MM.YYYY) together with its day label.
type SessionDate struct {
	Date string `json:"date"`
	Day  string `json:"day"`
}

// RoleAssignment binds a role to the participant holding it on a session.
// ID is the storage row identifier and stays zero until persisted.
type RoleAssignment struct {
	ID          int64       `json:"id,omitempty"`
	Role        string      `json:"role"`
	Participant Participant `json:"student"`
}

// AssignmentEntry holds all role assignments for one session date.
type AssignmentEntry struct {
	Date  string           `json:"date"`
	Day   string           `json:"day"`
	Theme string           `json:"theme,omitempty"`
	Roles []RoleAssignment `json:"roles"`
}

// Session returns the session date the entry belongs to.
func (e AssignmentEntry) Session() SessionDate {
	return SessionDate{Date: e.Date, Day: e.Day}
}

// ParticipantIDs lists the participants of the entry in role order.
func (e AssignmentEntry) ParticipantIDs() []string {
	ids := make([]string, 0, len(e.Roles))
	for _, r := range e.Roles {
		ids = append(ids, r.Participant.ID)
	}
	return ids
}
