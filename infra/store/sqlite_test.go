package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/rota/core/model"
	"github.com/kilianp07/rota/core/rotation"
	"github.com/kilianp07/rota/core/schedule"
)

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "rota.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func participants(n int) []model.Participant {
	out := make([]model.Participant, n)
	for i := range out {
		out[i] = model.Participant{ID: fmt.Sprintf("R%02d", i+1), Name: fmt.Sprintf("Student %d", i+1)}
	}
	return out
}

func TestSQLiteStore_Participants(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	n, err := s.UpsertParticipants(ctx, participants(3))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	_, err = s.UpsertParticipants(ctx, []model.Participant{{ID: "R02", Name: "Renamed"}})
	require.NoError(t, err)

	ps, err := s.Participants(ctx)
	require.NoError(t, err)
	require.Len(t, ps, 3)
	assert.Equal(t, "Renamed", ps[1].Name)

	_, err = s.UpsertParticipants(ctx, []model.Participant{{Name: "no id"}})
	assert.Error(t, err)
}

func TestSQLiteStore_CommitAndSchedule(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	_, err := s.UpsertParticipants(ctx, participants(2))
	require.NoError(t, err)

	_, ok, err := s.Cursor(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	entries := []model.AssignmentEntry{
		{Date: "10.03.2026", Day: "Tuesday", Roles: []model.RoleAssignment{
			{Role: "TMOD", Participant: model.Participant{ID: "R02"}},
			{Role: "GE", Participant: model.Participant{ID: "R01"}},
		}},
		{Date: "09.03.2026", Day: "Monday", Roles: []model.RoleAssignment{
			{Role: "TMOD", Participant: model.Participant{ID: "R01"}},
		}},
	}
	n, err := s.Commit(ctx, entries, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.Commit(ctx, entries[:1], 9)
	require.NoError(t, err)
	assert.Zero(t, n)

	cur, ok, err := s.Cursor(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 9, cur)

	sched, err := s.Schedule(ctx)
	require.NoError(t, err)
	require.Len(t, sched, 2)
	assert.Equal(t, "09.03.2026", sched[0].Date)
	assert.Equal(t, "Monday", sched[0].Day)
	require.Len(t, sched[1].Roles, 2)
	assert.Equal(t, "TMOD", sched[1].Roles[0].Role)
	assert.Equal(t, "Student 2", sched[1].Roles[0].Participant.Name)
	assert.NotZero(t, sched[1].Roles[0].ID)

	dates, err := s.Dates(ctx)
	require.NoError(t, err)
	assert.Len(t, dates, 2)

	h, err := s.History(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"GE", "TMOD"}, h.Roles("R01"))
}

func TestSQLiteStore_CommitUnknownParticipantRollsBack(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	_, err := s.UpsertParticipants(ctx, participants(1))
	require.NoError(t, err)
	entries := []model.AssignmentEntry{{Date: "09.03.2026", Day: "Monday", Roles: []model.RoleAssignment{
		{Role: "TMOD", Participant: model.Participant{ID: "R01"}},
		{Role: "GE", Participant: model.Participant{ID: "ghost"}},
	}}}
	_, err = s.Commit(ctx, entries, 1)
	assert.ErrorIs(t, err, schedule.ErrNotFound)

	dates, err := s.Dates(ctx)
	require.NoError(t, err)
	assert.Empty(t, dates)
	_, ok, err := s.Cursor(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStore_ThemeAndReassign(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	_, err := s.UpsertParticipants(ctx, participants(2))
	require.NoError(t, err)
	_, err = s.Commit(ctx, []model.AssignmentEntry{{Date: "09.03.2026", Day: "Monday", Roles: []model.RoleAssignment{
		{Role: "Timer", Participant: model.Participant{ID: "R01"}},
	}}}, 0)
	require.NoError(t, err)

	require.NoError(t, s.SetTheme(ctx, "09.03.2026", "Spring"))
	assert.ErrorIs(t, s.SetTheme(ctx, "31.12.2026", "x"), schedule.ErrNotFound)

	sched, err := s.Schedule(ctx)
	require.NoError(t, err)
	id := sched[0].Roles[0].ID

	ra, err := s.Reassign(ctx, id, "R02")
	require.NoError(t, err)
	assert.Equal(t, schedule.Reassignment{ID: id, Date: "09.03.2026", Role: "Timer", From: "R01", To: "R02"}, ra)

	_, err = s.Reassign(ctx, id+100, "R02")
	assert.ErrorIs(t, err, schedule.ErrNotFound)
	_, err = s.Reassign(ctx, id, "ghost")
	assert.ErrorIs(t, err, schedule.ErrNotFound)

	sched, err = s.Schedule(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Spring", sched[0].Theme)
	assert.Equal(t, "R02", sched[0].Roles[0].Participant.ID)
}

func TestSQLiteStore_PlannerRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "rota.db")
	s, err := NewSQLiteStore(path)
	require.NoError(t, err)

	gen, err := rotation.NewGenerator(rotation.Config{Seed: 5}, nil)
	require.NoError(t, err)
	p := schedule.NewPlanner(s, gen)
	seed, err := p.Seed(ctx, participants(16), []model.SessionDate{{Date: "02.03.2026"}, {Date: "03.03.2026"}})
	require.NoError(t, err)
	assert.Equal(t, 16, seed.Imported)
	require.NoError(t, s.Close())

	// Reopen and continue from the persisted cursor and history.
	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	p = schedule.NewPlanner(s, gen)
	res, err := p.Plan(ctx, []model.SessionDate{{Date: "04.03.2026"}})
	require.NoError(t, err)
	assert.Equal(t, seed.Plan.Cursor, res.Start)

	sched, err := s.Schedule(ctx)
	require.NoError(t, err)
	require.Len(t, sched, 3)
	for _, e := range sched {
		assert.Len(t, e.Roles, model.DefaultCatalog.Size())
	}
}
