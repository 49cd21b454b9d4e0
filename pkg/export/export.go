// Package export writes the stored schedule in exchange formats.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/kilianp07/rota/core/model"
)

// Formats lists the supported export formats.
var Formats = []string{"json", "csv"}

// Write encodes entries to w in the named format.
func Write(w io.Writer, format string, entries []model.AssignmentEntry) error {
	switch format {
	case "json":
		return WriteJSON(w, entries)
	case "csv":
		return WriteCSV(w, entries)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// WriteJSON writes the schedule to w as an indented JSON array.
func WriteJSON(w io.Writer, entries []model.AssignmentEntry) error {
	if entries == nil {
		entries = []model.AssignmentEntry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

// WriteCSV writes one row per role assignment, sessions in the given order.
func WriteCSV(w io.Writer, entries []model.AssignmentEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "day", "theme", "slot", "role", "roll_no", "name"}); err != nil {
		return err
	}
	for _, e := range entries {
		for i, r := range e.Roles {
			rec := []string{
				e.Date,
				e.Day,
				e.Theme,
				strconv.Itoa(i + 1),
				r.Role,
				r.Participant.ID,
				r.Participant.Name,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
