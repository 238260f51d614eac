package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/san-kum/rdsim/internal/rdsys"
)

const timeFormat = time.RFC3339Nano

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	metadata   TEXT NOT NULL,
	columns    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS samples (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	k      INTEGER NOT NULL,
	t      REAL NOT NULL,
	state  TEXT NOT NULL,
	PRIMARY KEY (run_id, k)
);
`

// SQLiteStore keeps runs in a single SQLite database. Metadata and states
// are stored as JSON text.
type SQLiteStore struct {
	sqlDB *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{sqlDB: sqlDB}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// sqliteMetadata keeps the seed as text: database/sql rejects uint64 values
// with the high bit set.
type sqliteMetadata struct {
	RunMetadata
	Seed string `json:"seed"`
}

func (s *SQLiteStore) Save(name string, tr *rdsys.Trajectory, metrics map[string]float64) (string, error) {
	if err := tr.Validate(); err != nil {
		return "", err
	}
	meta := newMetadata(name, tr, metrics)
	metaJSON, err := json.Marshal(sqliteMetadata{RunMetadata: meta, Seed: strconv.FormatUint(meta.Seed, 10)})
	if err != nil {
		return "", err
	}
	colJSON, err := json.Marshal(columns(meta.Species, meta.Cells))
	if err != nil {
		return "", err
	}

	tx, err := s.sqlDB.Begin()
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT INTO runs (id, created_at, metadata, columns) VALUES (?, ?, ?, ?)`,
		meta.ID, meta.Timestamp.Format(timeFormat), string(metaJSON), string(colJSON)); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO samples (run_id, k, t, state) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()
	for k := 0; k < tr.NSamples(); k++ {
		state, err := json.Marshal(tr.StateAt(k))
		if err != nil {
			return "", err
		}
		if _, err := stmt.Exec(meta.ID, k, tr.T[k], string(state)); err != nil {
			return "", fmt.Errorf("insert sample %d: %w", k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func decodeMetadata(raw string) (*RunMetadata, error) {
	var m sqliteMetadata
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, err
	}
	seed, err := strconv.ParseUint(m.Seed, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	meta := m.RunMetadata
	meta.Seed = seed
	return &meta, nil
}

func (s *SQLiteStore) List() ([]RunMetadata, error) {
	rows, err := s.sqlDB.Query(`SELECT metadata FROM runs ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]RunMetadata, 0)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		meta, err := decodeMetadata(raw)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *meta)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) Load(runID string) (*RunMetadata, error) {
	var raw string
	err := s.sqlDB.QueryRow(`SELECT metadata FROM runs WHERE id = ?`, runID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, err
	}
	return decodeMetadata(raw)
}

func (s *SQLiteStore) LoadSamples(runID string) (*Samples, error) {
	var colJSON string
	err := s.sqlDB.QueryRow(`SELECT columns FROM runs WHERE id = ?`, runID).Scan(&colJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, err
	}
	out := &Samples{}
	if err := json.Unmarshal([]byte(colJSON), &out.Columns); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.Query(`SELECT t, state FROM samples WHERE run_id = ? ORDER BY k`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			t     float64
			state string
		)
		if err := rows.Scan(&t, &state); err != nil {
			return nil, err
		}
		var row []float64
		if err := json.Unmarshal([]byte(state), &row); err != nil {
			return nil, err
		}
		out.T = append(out.T, t)
		out.Rows = append(out.Rows, row)
	}
	return out, rows.Err()
}
