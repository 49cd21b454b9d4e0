package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/rota/core/schedule"
)

// SQLiteStore persists generation records to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

var _ schedule.AuditLog = (*SQLiteStore)(nil)

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS generation_log (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        ts INTEGER,
        run_id TEXT,
        record TEXT
    );
    CREATE TABLE IF NOT EXISTS generation_dates (
        run_id TEXT,
        date TEXT
    );`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Append writes the record and indexes the dates it generated.
func (s *SQLiteStore) Append(ctx context.Context, rec schedule.GenerationRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO generation_log (ts, run_id, record) VALUES (?, ?, ?)`,
		rec.Timestamp.UnixNano(), rec.RunID, string(b)); err != nil {
		return err
	}
	for _, e := range rec.Entries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO generation_dates (run_id, date) VALUES (?, ?)`, rec.RunID, e.Date); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Query returns records matching q, oldest first.
func (s *SQLiteStore) Query(ctx context.Context, q schedule.AuditQuery) ([]schedule.GenerationRecord, error) {
	var args []any
	query := `SELECT record FROM generation_log WHERE 1=1`
	if !q.Start.IsZero() {
		query += ` AND ts >= ?`
		args = append(args, q.Start.UnixNano())
	}
	if !q.End.IsZero() {
		query += ` AND ts <= ?`
		args = append(args, q.End.UnixNano())
	}
	if q.Date != "" {
		query += ` AND run_id IN (SELECT run_id FROM generation_dates WHERE date = ?)`
		args = append(args, q.Date)
	}
	query += ` ORDER BY ts, id`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []schedule.GenerationRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var r schedule.GenerationRecord
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
