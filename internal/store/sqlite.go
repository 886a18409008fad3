package store

import (
	"context"
	"database/sql"
	"errors"

	_ "modernc.org/sqlite"
)

// SQLiteCounters keeps order-number counters in a local SQLite file.
// Used alongside the in-memory store so sequences survive restarts on
// single-node deployments without a Postgres.
type SQLiteCounters struct {
	db *sql.DB
}

func NewSQLiteCounters(path string) (*SQLiteCounters, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS sequence_counters (
		branch_code TEXT NOT NULL,
		year INTEGER NOT NULL,
		seq INTEGER NOT NULL,
		suffix TEXT NOT NULL DEFAULT 'A',
		PRIMARY KEY (branch_code, year)
	)`); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteCounters{db: db}, nil
}

func (s *SQLiteCounters) GetSequence(ctx context.Context, branchCode string, year int) (int, byte, error) {
	var seq int
	var suffix string
	err := s.db.QueryRowContext(ctx, `SELECT seq, suffix FROM sequence_counters WHERE branch_code=? AND year=?`, branchCode, year).Scan(&seq, &suffix)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 'A', nil
	}
	if err != nil {
		return 0, 0, err
	}
	if suffix == "" {
		suffix = "A"
	}
	return seq, suffix[0], nil
}

func (s *SQLiteCounters) SetSequence(ctx context.Context, branchCode string, year int, seq int, suffix byte) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO sequence_counters (branch_code, year, seq, suffix) VALUES (?,?,?,?)
		ON CONFLICT (branch_code, year) DO UPDATE SET seq=excluded.seq, suffix=excluded.suffix`, branchCode, year, seq, string(suffix))
	return err
}

func (s *SQLiteCounters) Close() error { return s.db.Close() }
