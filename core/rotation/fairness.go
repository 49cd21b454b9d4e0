package rotation

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/rota/core/model"
)

// ParticipantLoad summarises the duties of one participant.
type ParticipantLoad struct {
	ID       string `json:"rollNo"`
	Name     string `json:"name"`
	Total    int    `json:"total"`
	Distinct int    `json:"distinct"`
	// Repeats counts assignments to a role the participant already held.
	Repeats     int      `json:"repeats"`
	MissingMain []string `json:"missingMain"`
}

// Report describes how evenly duties are spread over the roster.
type Report struct {
	Participants []ParticipantLoad `json:"participants"`
	Sessions     int               `json:"sessions"`
	MeanTotal    float64           `json:"meanTotal"`
	StdDevTotal  float64           `json:"stdDevTotal"`
	// MainCoverage is the share of (participant, main role) pairs already held.
	MainCoverage float64 `json:"mainCoverage"`
	MaxRepeats   int     `json:"maxRepeats"`
}

// Assess computes a Report over entries for the given roster. Assignments of
// participants missing from the roster are ignored.
func Assess(entries []model.AssignmentEntry, roster []model.Participant, catalog model.Catalog) Report {
	counts := make(map[string]map[string]int, len(roster))
	for _, p := range roster {
		counts[p.ID] = make(map[string]int)
	}
	for _, e := range entries {
		for _, r := range e.Roles {
			if c, ok := counts[r.Participant.ID]; ok {
				c[r.Role]++
			}
		}
	}

	rep := Report{Sessions: len(entries)}
	totals := make([]float64, 0, len(roster))
	held := 0
	for _, p := range roster {
		c := counts[p.ID]
		load := ParticipantLoad{ID: p.ID, Name: p.Name, Distinct: len(c), MissingMain: []string{}}
		for _, n := range c {
			load.Total += n
			load.Repeats += n - 1
		}
		for _, role := range catalog.Main() {
			if c[role] == 0 {
				load.MissingMain = append(load.MissingMain, role)
			} else {
				held++
			}
		}
		if load.Repeats > rep.MaxRepeats {
			rep.MaxRepeats = load.Repeats
		}
		totals = append(totals, float64(load.Total))
		rep.Participants = append(rep.Participants, load)
	}
	sort.Slice(rep.Participants, func(i, j int) bool { return rep.Participants[i].ID < rep.Participants[j].ID })

	switch len(totals) {
	case 0:
	case 1:
		rep.MeanTotal = totals[0]
	default:
		rep.MeanTotal, rep.StdDevTotal = stat.MeanStdDev(totals, nil)
	}
	if pairs := len(roster) * catalog.MainCount; pairs > 0 {
		rep.MainCoverage = float64(held) / float64(pairs)
	}
	return rep
}
