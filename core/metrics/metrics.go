package metrics

import "time"

// GenerationEvent summarises one scheduling run.
type GenerationEvent struct {
	RunID      string
	RosterSize int
	Days       int
	Skipped    int
	Preferred  int
	Forced     int
	TableTopic int
	Omitted    int
	Cursor     int
	Duration   time.Duration
	Time       time.Time
}

// MetricsSink records generation runs for observability purposes.
type MetricsSink interface {
	RecordGeneration(ev GenerationEvent) error
}

// ReassignmentEvent captures a manual change of the participant holding a role.
type ReassignmentEvent struct {
	AssignmentID int64
	Date         string
	Role         string
	From         string
	To           string
	Time         time.Time
}

// ReassignmentRecorder records manual reassignments.
type ReassignmentRecorder interface {
	RecordReassignment(ev ReassignmentEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordGeneration(GenerationEvent) error     { return nil }
func (NopSink) RecordReassignment(ReassignmentEvent) error { return nil }
