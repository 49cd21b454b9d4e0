package schedule

import (
	"time"

	"github.com/kilianp07/rota/core/model"
)

// Generated is published on the event bus after new sessions were stored.
type Generated struct {
	RunID   string
	Entries []model.AssignmentEntry
	Cursor  int
	Time    time.Time
}
