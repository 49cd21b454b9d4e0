package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/kilianp07/rota/core/model"
)

// Range is an inclusive date interval. An empty End means a single day.
type Range struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Reason string `json:"reason"`
}

// Config describes the sessions of a term.
type Config struct {
	Start string `json:"start"`
	End   string `json:"end"`
	// Weekdays restricts sessions to these English weekday names.
	Weekdays []string `json:"weekdays"`
	// Exclude removes exam weeks, holidays and other closures.
	Exclude []Range `json:"exclude"`
}

// SetDefaults schedules sessions on working days when none are configured.
func (c *Config) SetDefaults() {
	if len(c.Weekdays) == 0 {
		c.Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}
	}
}

// Validate checks the dates and weekday names.
func (c Config) Validate() error {
	if c.Start == "" && c.End == "" {
		return nil
	}
	start, err := Parse(c.Start)
	if err != nil {
		return fmt.Errorf("calendar start: %w", err)
	}
	end, err := Parse(c.End)
	if err != nil {
		return fmt.Errorf("calendar end: %w", err)
	}
	if end.Before(start) {
		return fmt.Errorf("calendar end %s before start %s", c.End, c.Start)
	}
	if _, err := weekdaySet(c.Weekdays); err != nil {
		return err
	}
	for _, r := range c.Exclude {
		if _, _, err := r.bounds(); err != nil {
			return err
		}
	}
	return nil
}

// Empty reports whether no term is configured.
func (c Config) Empty() bool { return c.Start == "" && c.End == "" }

// Expand lists the session dates of the term in chronological order.
func Expand(c Config) ([]model.SessionDate, error) {
	if c.Empty() {
		return nil, nil
	}
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	start, _ := Parse(c.Start)
	end, _ := Parse(c.End)
	days, _ := weekdaySet(c.Weekdays)

	var out []model.SessionDate
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if !days[d.Weekday()] || c.excluded(d) {
			continue
		}
		out = append(out, Session(d))
	}
	return out, nil
}

func (c Config) excluded(d time.Time) bool {
	for _, r := range c.Exclude {
		from, to, err := r.bounds()
		if err != nil {
			continue
		}
		if !d.Before(from) && !d.After(to) {
			return true
		}
	}
	return false
}

func (r Range) bounds() (time.Time, time.Time, error) {
	from, err := Parse(r.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("exclude start: %w", err)
	}
	if r.End == "" {
		return from, from, nil
	}
	to, err := Parse(r.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("exclude end: %w", err)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("exclude range %s-%s reversed", r.Start, r.End)
	}
	return from, to, nil
}

func weekdaySet(names []string) (map[time.Weekday]bool, error) {
	set := make(map[time.Weekday]bool, len(names))
	for _, n := range names {
		found := false
		for wd := time.Sunday; wd <= time.Saturday; wd++ {
			if strings.EqualFold(wd.String(), strings.TrimSpace(n)) {
				set[wd] = true
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown weekday %q", n)
		}
	}
	return set, nil
}
