package rotation

import (
	"math"
	"testing"

	"github.com/kilianp07/rota/core/model"
)

func TestAssess(t *testing.T) {
	roster := []model.Participant{{ID: "A", Name: "Ann"}, {ID: "B", Name: "Bob"}, {ID: "C", Name: "Cid"}}
	cat := model.Catalog{Roles: []string{"Chair", "Timer", "Topic"}, MainCount: 2}
	entries := []model.AssignmentEntry{
		{Date: "1", Roles: []model.RoleAssignment{
			{Role: "Chair", Participant: roster[0]},
			{Role: "Timer", Participant: roster[1]},
			{Role: "Topic", Participant: roster[2]},
		}},
		{Date: "2", Roles: []model.RoleAssignment{
			{Role: "Chair", Participant: roster[0]},
			{Role: "Timer", Participant: model.Participant{ID: "gone"}},
		}},
	}
	rep := Assess(entries, roster, cat)
	if rep.Sessions != 2 {
		t.Fatalf("sessions %d", rep.Sessions)
	}
	if len(rep.Participants) != 3 {
		t.Fatalf("participants %d", len(rep.Participants))
	}
	a := rep.Participants[0]
	if a.ID != "A" || a.Total != 2 || a.Distinct != 1 || a.Repeats != 1 {
		t.Fatalf("unexpected load for A: %+v", a)
	}
	if len(a.MissingMain) != 1 || a.MissingMain[0] != "Timer" {
		t.Fatalf("unexpected missing roles %v", a.MissingMain)
	}
	if rep.MaxRepeats != 1 {
		t.Fatalf("max repeats %d", rep.MaxRepeats)
	}
	// totals 2,1,1
	if math.Abs(rep.MeanTotal-4.0/3.0) > 1e-9 {
		t.Fatalf("mean %.3f", rep.MeanTotal)
	}
	if math.Abs(rep.StdDevTotal-math.Sqrt(1.0/3.0)) > 1e-9 {
		t.Fatalf("stddev %.3f", rep.StdDevTotal)
	}
	// A: Chair, B: Timer, C: none -> 2 of 6 pairs
	if math.Abs(rep.MainCoverage-2.0/6.0) > 1e-9 {
		t.Fatalf("coverage %.3f", rep.MainCoverage)
	}
}

func TestAssessEmpty(t *testing.T) {
	rep := Assess(nil, nil, model.DefaultCatalog)
	if rep.MeanTotal != 0 || rep.StdDevTotal != 0 || rep.MainCoverage != 0 {
		t.Fatalf("expected zero report got %+v", rep)
	}
	rep = Assess(nil, []model.Participant{{ID: "A"}}, model.DefaultCatalog)
	if rep.StdDevTotal != 0 || len(rep.Participants[0].MissingMain) != 12 {
		t.Fatalf("unexpected single participant report %+v", rep)
	}
}
