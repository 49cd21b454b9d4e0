package audit

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/rota/config"
	"github.com/kilianp07/rota/core/model"
	"github.com/kilianp07/rota/core/schedule"
)

func record(runID string, ts time.Time, dates ...string) schedule.GenerationRecord {
	rec := schedule.GenerationRecord{RunID: runID, Timestamp: ts, Requested: dates, Skipped: []string{}}
	for _, d := range dates {
		rec.Entries = append(rec.Entries, model.AssignmentEntry{Date: d, Roles: []model.RoleAssignment{
			{Role: "TMOD", Participant: model.Participant{ID: "R01"}},
		}})
	}
	return rec
}

// exercise runs the same scenario against every backend.
func exercise(t *testing.T, store schedule.AuditLog) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, store.Append(ctx, record("a", base, "02.03.2026", "03.03.2026")))
	require.NoError(t, store.Append(ctx, record("b", base.Add(time.Hour), "04.03.2026")))

	all, err := store.Query(ctx, schedule.AuditQuery{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].RunID)
	assert.Len(t, all[0].Entries, 2)

	byDate, err := store.Query(ctx, schedule.AuditQuery{Date: "04.03.2026"})
	require.NoError(t, err)
	require.Len(t, byDate, 1)
	assert.Equal(t, "b", byDate[0].RunID)

	window, err := store.Query(ctx, schedule.AuditQuery{Start: base.Add(30 * time.Minute)})
	require.NoError(t, err)
	require.Len(t, window, 1)

	none, err := store.Query(ctx, schedule.AuditQuery{End: base.Add(-time.Minute)})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRotatingJSONLStore_Query(t *testing.T) {
	store, err := NewRotatingJSONLStore(filepath.Join(t.TempDir(), "audit", "generations.jsonl"), 1, 2, 1)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	exercise(t, store)
}

func TestRotatingJSONLStore_Rotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "generations.jsonl")
	store, err := NewRotatingJSONLStore(path, 1, 5, 1)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	// Each record carries enough sessions to push the file past 1 MB quickly.
	dates := make([]string, 400)
	for i := range dates {
		dates[i] = fmt.Sprintf("%02d.01.2030", i%28+1)
	}
	ts := time.Now()
	for i := 0; i < 60; i++ {
		require.NoError(t, store.Append(context.Background(), record(fmt.Sprint(i), ts.Add(time.Duration(i)*time.Second), dates...)))
	}
	backups, _ := filepath.Glob(backupPattern(path))
	assert.NotEmpty(t, backups, "expected rotated files")

	recs, err := store.Query(context.Background(), schedule.AuditQuery{})
	require.NoError(t, err)
	assert.Len(t, recs, 60, "rotated files are queried too")
	assert.Equal(t, "0", recs[0].RunID)
}

func TestSQLiteStore_Query(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	exercise(t, store)
}

func TestOpen(t *testing.T) {
	log, err := Open(config.AuditConfig{})
	require.NoError(t, err)
	assert.Nil(t, log)

	dir := t.TempDir()
	log, err = Open(config.AuditConfig{Enabled: true, Backend: "sqlite", Path: filepath.Join(dir, "a.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, log)
	require.NoError(t, log.Close())

	log, err = Open(config.AuditConfig{Enabled: true, Backend: "jsonl", Path: filepath.Join(dir, "a.jsonl")})
	require.NoError(t, err)
	assert.IsType(t, &RotatingJSONLStore{}, log)
	require.NoError(t, log.Close())

	_, err = Open(config.AuditConfig{Enabled: true, Backend: "kafka", Path: "x"})
	assert.Error(t, err)
}
