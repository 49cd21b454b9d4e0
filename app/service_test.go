package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/rota/config"
	"github.com/kilianp07/rota/core/calendar"
	"github.com/kilianp07/rota/core/model"
	"github.com/kilianp07/rota/core/schedule"
)

func testConfig(t *testing.T, n int) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Store:    config.StoreConfig{Driver: "memory"},
		Calendar: calendar.Config{Start: "02.03.2026", End: "06.03.2026"},
		HTTP:     config.HTTPConfig{Addr: "127.0.0.1:0"},
		Auth:     config.AuthConfig{Password: "admin123"},
		Audit:    config.AuditConfig{Enabled: true, Path: filepath.Join(t.TempDir(), "generations.jsonl")},
	}
	cfg.Rotation.Seed = 9
	for i := 1; i <= n; i++ {
		cfg.Roster.Participants = append(cfg.Roster.Participants,
			model.Participant{ID: fmt.Sprintf("R%02d", i), Name: fmt.Sprintf("Student %d", i)})
	}
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestServiceSeedAndServe(t *testing.T) {
	ctx := context.Background()
	svc, err := New(testConfig(t, 16))
	require.NoError(t, err)
	defer func() { assert.NoError(t, svc.Close()) }()

	res, err := svc.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 16, res.Imported)
	assert.Len(t, res.Plan.Entries, 5)

	res, err = svc.Seed(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Imported)
	assert.Empty(t, res.Plan.Entries)

	srv := httptest.NewServer(svc.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/schedule")
	require.NoError(t, err)
	var entries []model.AssignmentEntry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	_ = resp.Body.Close()
	assert.Len(t, entries, 5)

	resp, err = http.Get(srv.URL + "/api/generations?date=04.03.2026")
	require.NoError(t, err)
	var recs []schedule.GenerationRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&recs))
	_ = resp.Body.Close()
	require.Len(t, recs, 1)
	assert.NotEmpty(t, recs[0].RunID)
}

func TestServiceRunStopsOnCancel(t *testing.T) {
	svc, err := New(testConfig(t, 15))
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	require.Eventually(t, func() bool {
		sched, err := svc.Planner.Schedule(context.Background())
		return err == nil && len(sched) == 5
	}, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

type recordingAnnouncer struct {
	events chan schedule.Generated
}

func (r *recordingAnnouncer) Run(ctx context.Context, events <-chan schedule.Generated) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			r.events <- ev
		}
	}
}

func (r *recordingAnnouncer) Disconnect() {}

func TestServiceRunAnnouncesSeededSchedule(t *testing.T) {
	svc, err := New(testConfig(t, 16))
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()
	rec := &recordingAnnouncer{events: make(chan schedule.Generated, 1)}
	svc.announcer = rec

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = svc.Run(ctx) }()

	select {
	case ev := <-rec.events:
		assert.Len(t, ev.Entries, 5)
		assert.NotEmpty(t, ev.RunID)
	case <-time.After(5 * time.Second):
		t.Fatal("seeded schedule was not announced")
	}
}

func TestServiceRunFailsOnSmallRoster(t *testing.T) {
	svc, err := New(testConfig(t, 4))
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()
	assert.Error(t, svc.Run(context.Background()))
}

func TestSeedRosterMergesFileAndInline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`participants:
  - roll_no: "A1"
    name: "Ada"
  - roll_no: "B2"
    name: "Bo"
`), 0o644))

	ps, err := SeedRoster(config.RosterConfig{
		File:         path,
		Participants: []model.Participant{{ID: "B2", Name: "Bob"}, {ID: "C3", Name: "Cy"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []model.Participant{{ID: "A1", Name: "Ada"}, {ID: "B2", Name: "Bob"}, {ID: "C3", Name: "Cy"}}, ps)

	_, err = SeedRoster(config.RosterConfig{File: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}

func TestOpenStore(t *testing.T) {
	st, err := OpenStore(config.StoreConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "rota.db")})
	require.NoError(t, err)
	require.NoError(t, st.Close())

	_, err = OpenStore(config.StoreConfig{Driver: "postgres"})
	assert.Error(t, err)
}
