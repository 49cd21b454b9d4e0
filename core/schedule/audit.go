package schedule

import (
	"context"
	"time"

	"github.com/kilianp07/rota/core/model"
	"github.com/kilianp07/rota/core/rotation"
)

// GenerationRecord captures one scheduling run for auditing.
type GenerationRecord struct {
	RunID     string                  `json:"run_id"`
	Timestamp time.Time               `json:"timestamp"`
	Requested []string                `json:"requested"`
	Skipped   []string                `json:"skipped"`
	Start     int                     `json:"start"`
	Cursor    int                     `json:"cursor"`
	Stats     rotation.Stats          `json:"stats"`
	Entries   []model.AssignmentEntry `json:"entries"`
}

// AuditQuery filters generation records. Zero values match everything.
type AuditQuery struct {
	Start time.Time
	End   time.Time
	// Date keeps records that generated the given session date.
	Date string
}

// Match reports whether rec satisfies the query.
func (q AuditQuery) Match(rec GenerationRecord) bool {
	if !q.Start.IsZero() && rec.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && rec.Timestamp.After(q.End) {
		return false
	}
	if q.Date != "" {
		for _, e := range rec.Entries {
			if e.Date == q.Date {
				return true
			}
		}
		return false
	}
	return true
}

// AuditLog persists generation records and supports querying.
type AuditLog interface {
	Append(ctx context.Context, rec GenerationRecord) error
	Query(ctx context.Context, q AuditQuery) ([]GenerationRecord, error)
	Close() error
}
