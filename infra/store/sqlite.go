// Package store persists the roster and the schedule in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/rota/core/calendar"
	"github.com/kilianp07/rota/core/model"
	"github.com/kilianp07/rota/core/schedule"
)

const schema = `
CREATE TABLE IF NOT EXISTS participants (
    roll_no TEXT PRIMARY KEY,
    name    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS days (
    date     TEXT PRIMARY KEY,
    day_name TEXT NOT NULL,
    theme    TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS assignments (
    id                  INTEGER PRIMARY KEY AUTOINCREMENT,
    date                TEXT NOT NULL REFERENCES days(date),
    slot                INTEGER NOT NULL,
    role                TEXT NOT NULL,
    participant_roll_no TEXT NOT NULL REFERENCES participants(roll_no)
);
CREATE INDEX IF NOT EXISTS assignments_date ON assignments(date);
CREATE TABLE IF NOT EXISTS rotation_state (
    id     INTEGER PRIMARY KEY CHECK (id = 1),
    cursor INTEGER NOT NULL
);`

// SQLiteStore implements schedule.Store on a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

var _ schedule.Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens or creates the database at path and ensures schema.
// Foreign keys are enforced on every connection.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Participants returns the roster ordered by roll number.
func (s *SQLiteStore) Participants(ctx context.Context) ([]model.Participant, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT roll_no, name FROM participants ORDER BY roll_no`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	res := []model.Participant{}
	for rows.Next() {
		var p model.Participant
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// UpsertParticipants inserts new participants and renames existing ones.
func (s *SQLiteStore) UpsertParticipants(ctx context.Context, ps []model.Participant) (int, error) {
	for _, p := range ps {
		if err := p.Validate(); err != nil {
			return 0, err
		}
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO participants (roll_no, name) VALUES (?, ?)
        ON CONFLICT(roll_no) DO UPDATE SET name = excluded.name`)
	if err != nil {
		return 0, err
	}
	defer func() { _ = stmt.Close() }()
	for _, p := range ps {
		if _, err := stmt.ExecContext(ctx, p.ID, p.Name); err != nil {
			return 0, fmt.Errorf("upsert %s: %w", p.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(ps), nil
}

// History folds every stored assignment into a role history.
func (s *SQLiteStore) History(ctx context.Context) (model.History, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT participant_roll_no, role FROM assignments`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	h := model.History{}
	for rows.Next() {
		var id, role string
		if err := rows.Scan(&id, &role); err != nil {
			return nil, err
		}
		h.Add(id, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return h, nil
}

// Dates returns every scheduled session date.
func (s *SQLiteStore) Dates(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT date FROM days`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	res := make(map[string]struct{})
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		res[d] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Cursor returns the persisted rotation cursor.
func (s *SQLiteStore) Cursor(ctx context.Context) (int, bool, error) {
	var c int
	err := s.db.QueryRowContext(ctx, `SELECT cursor FROM rotation_state WHERE id = 1`).Scan(&c)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return c, true, nil
}

// Commit stores the entries and the cursor in one transaction. Sessions whose
// date already exists are left untouched.
func (s *SQLiteStore) Commit(ctx context.Context, entries []model.AssignmentEntry, cursor int) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := checkParticipants(ctx, tx, entries); err != nil {
		return 0, err
	}
	insAssign, err := tx.PrepareContext(ctx,
		`INSERT INTO assignments (date, slot, role, participant_roll_no) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer func() { _ = insAssign.Close() }()

	inserted := 0
	for _, e := range entries {
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO days (date, day_name, theme) VALUES (?, ?, ?)`, e.Date, e.Day, e.Theme)
		if err != nil {
			return 0, fmt.Errorf("insert day %s: %w", e.Date, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			continue
		}
		for slot, r := range e.Roles {
			if _, err := insAssign.ExecContext(ctx, e.Date, slot, r.Role, r.Participant.ID); err != nil {
				return 0, fmt.Errorf("insert %s %s: %w", e.Date, r.Role, err)
			}
		}
		inserted++
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO rotation_state (id, cursor) VALUES (1, ?)
        ON CONFLICT(id) DO UPDATE SET cursor = excluded.cursor`, cursor); err != nil {
		return 0, fmt.Errorf("save cursor: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

func checkParticipants(ctx context.Context, tx *sql.Tx, entries []model.AssignmentEntry) error {
	seen := make(map[string]bool)
	for _, e := range entries {
		for _, r := range e.Roles {
			id := r.Participant.ID
			if seen[id] {
				continue
			}
			seen[id] = true
			var one int
			err := tx.QueryRowContext(ctx, `SELECT 1 FROM participants WHERE roll_no = ?`, id).Scan(&one)
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("participant %s: %w", id, schedule.ErrNotFound)
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// Schedule returns every session with its assignments, chronologically.
func (s *SQLiteStore) Schedule(ctx context.Context) ([]model.AssignmentEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT d.date, d.day_name, d.theme, a.id, a.role, p.roll_no, p.name
        FROM days d
        LEFT JOIN assignments a ON a.date = d.date
        LEFT JOIN participants p ON p.roll_no = a.participant_roll_no
        ORDER BY d.date, a.slot`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	byDate := make(map[string]*model.AssignmentEntry)
	var order []string
	for rows.Next() {
		var (
			date, day, theme string
			id               sql.NullInt64
			role, roll, name sql.NullString
		)
		if err := rows.Scan(&date, &day, &theme, &id, &role, &roll, &name); err != nil {
			return nil, err
		}
		e, ok := byDate[date]
		if !ok {
			e = &model.AssignmentEntry{Date: date, Day: day, Theme: theme, Roles: []model.RoleAssignment{}}
			byDate[date] = e
			order = append(order, date)
		}
		if id.Valid {
			e.Roles = append(e.Roles, model.RoleAssignment{
				ID:          id.Int64,
				Role:        role.String,
				Participant: model.Participant{ID: roll.String, Name: name.String},
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(order, func(i, j int) bool { return calendar.Less(order[i], order[j]) })
	res := make([]model.AssignmentEntry, len(order))
	for i, d := range order {
		res[i] = *byDate[d]
	}
	return res, nil
}

// SetTheme updates the theme of a session.
func (s *SQLiteStore) SetTheme(ctx context.Context, date, theme string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE days SET theme = ? WHERE date = ?`, theme, date)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %s: %w", date, schedule.ErrNotFound)
	}
	return nil
}

// Reassign gives assignment id to participantID.
func (s *SQLiteStore) Reassign(ctx context.Context, id int64, participantID string) (schedule.Reassignment, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return schedule.Reassignment{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM participants WHERE roll_no = ?`, participantID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return schedule.Reassignment{}, fmt.Errorf("participant %s: %w", participantID, schedule.ErrNotFound)
	}
	if err != nil {
		return schedule.Reassignment{}, err
	}
	ra := schedule.Reassignment{ID: id, To: participantID}
	err = tx.QueryRowContext(ctx, `SELECT date, role, participant_roll_no FROM assignments WHERE id = ?`, id).
		Scan(&ra.Date, &ra.Role, &ra.From)
	if errors.Is(err, sql.ErrNoRows) {
		return schedule.Reassignment{}, fmt.Errorf("assignment %d: %w", id, schedule.ErrNotFound)
	}
	if err != nil {
		return schedule.Reassignment{}, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE assignments SET participant_roll_no = ? WHERE id = ?`, participantID, id); err != nil {
		return schedule.Reassignment{}, err
	}
	if err := tx.Commit(); err != nil {
		return schedule.Reassignment{}, err
	}
	return ra, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
