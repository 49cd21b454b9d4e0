// Package calendar turns date ranges into session dates.
//
// Dates use the DD.MM.YYYY layout throughout the application.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/kilianp07/rota/core/model"
)

// Layout is the textual format of session dates.
const Layout = "02.01.2006"

// Parse reads a DD.MM.YYYY date as midnight UTC.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// Format writes t as DD.MM.YYYY.
func Format(t time.Time) string { return t.Format(Layout) }

// Label returns the English weekday name of t.
func Label(t time.Time) string { return t.Weekday().String() }

// Session builds the SessionDate for t.
func Session(t time.Time) model.SessionDate {
	return model.SessionDate{Date: Format(t), Day: Label(t)}
}

// Less orders two date strings chronologically. Unparseable dates sort after
// valid ones and among themselves by string value.
func Less(a, b string) bool {
	ta, errA := Parse(a)
	tb, errB := Parse(b)
	switch {
	case errA == nil && errB == nil:
		if ta.Equal(tb) {
			return a < b
		}
		return ta.Before(tb)
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}

// Normalize validates the dates of in and fills missing day labels.
func Normalize(in []model.SessionDate) ([]model.SessionDate, error) {
	out := make([]model.SessionDate, 0, len(in))
	for _, d := range in {
		t, err := Parse(d.Date)
		if err != nil {
			return nil, err
		}
		sd := Session(t)
		if d.Day != "" {
			sd.Day = d.Day
		}
		out = append(out, sd)
	}
	return out, nil
}
