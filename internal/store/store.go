// Package store persists processing runs in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/KaramelBytes/agsloom/internal/ags"
	"github.com/KaramelBytes/agsloom/internal/lithology"
	"github.com/KaramelBytes/agsloom/internal/run"
	"github.com/KaramelBytes/agsloom/internal/table"
	"github.com/KaramelBytes/agsloom/internal/triaxial"
)

// ErrRunNotFound is returned when a run ID has no stored record.
var ErrRunNotFound = errors.New("run not found")

// Store wraps a SQLite database holding runs, specimens and raw group rows.
type Store struct {
	db   *sql.DB
	path string
}

// RunInfo is one row of the runs table.
type RunInfo struct {
	ID            string
	CreatedAt     time.Time
	Files         int
	Specimens     int
	MatchStrategy string
}

// Open initializes the SQLite database at path, creating it if needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection serialises writers.
	db.SetMaxOpenConns(1)
	s := &Store{db: db, path: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	runsTable := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		file_count INTEGER NOT NULL,
		specimen_count INTEGER NOT NULL,
		match_strategy TEXT NOT NULL,
		manifest TEXT
	);
	`
	specimensTable := `
	CREATE TABLE IF NOT EXISTS specimens (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		row_index INTEGER NOT NULL,
		hole_id TEXT,
		spec_depth REAL,
		lithology TEXT,
		row_json TEXT NOT NULL,
		PRIMARY KEY (run_id, row_index)
	);
	CREATE INDEX IF NOT EXISTS idx_specimens_hole ON specimens(hole_id);
	`
	groupRowsTable := `
	CREATE TABLE IF NOT EXISTS group_rows (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		group_name TEXT NOT NULL,
		row_index INTEGER NOT NULL,
		row_json TEXT NOT NULL,
		PRIMARY KEY (run_id, group_name, row_index)
	);
	`
	for _, ddl := range []string{runsTable, specimensTable, groupRowsTable} {
		if _, err := s.db.Exec(ddl); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// storedRow is the JSON shape of one row; column order survives the trip.
type storedRow struct {
	Columns []string      `json:"columns"`
	Values  []table.Value `json:"values"`
}

// SaveRun writes the manifest, the specimen table and every group's rows in
// one transaction.
func (s *Store) SaveRun(ctx context.Context, m *run.Manifest, specimens *table.Table, groups ags.Registry) error {
	if m == nil {
		return errors.New("manifest is nil")
	}
	manifest, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, file_count, specimen_count, match_strategy, manifest) VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.CreatedAt.UnixNano(), len(m.Files), specimens.Len(), m.MatchStrategy, string(manifest),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if specimens != nil {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO specimens (run_id, row_index, hole_id, spec_depth, lithology, row_json) VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare specimens: %w", err)
		}
		defer stmt.Close()
		for i, r := range specimens.Rows {
			b, err := encodeRow(specimens.Columns, r)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, m.ID, i,
				nullString(r[triaxial.ColHole]), nullFloat(r[triaxial.ColDepth]), nullString(r[lithology.ColLithology]), b,
			); err != nil {
				return fmt.Errorf("insert specimen %d: %w", i, err)
			}
		}
	}

	gstmt, err := tx.PrepareContext(ctx,
		`INSERT INTO group_rows (run_id, group_name, row_index, row_json) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare group rows: %w", err)
	}
	defer gstmt.Close()
	for _, name := range groups.Names() {
		g := groups[name]
		for i, r := range g.Rows {
			b, err := encodeRow(g.Columns, r)
			if err != nil {
				return err
			}
			if _, err := gstmt.ExecContext(ctx, m.ID, name, i, b); err != nil {
				return fmt.Errorf("insert %s row %d: %w", name, i, err)
			}
		}
	}
	return tx.Commit()
}

// ListRuns returns stored runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, file_count, specimen_count, match_strategy FROM runs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()
	var out []RunInfo
	for rows.Next() {
		var ri RunInfo
		var created int64
		if err := rows.Scan(&ri.ID, &created, &ri.Files, &ri.Specimens, &ri.MatchStrategy); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		ri.CreatedAt = time.Unix(0, created)
		out = append(out, ri)
	}
	return out, rows.Err()
}

// LoadManifest returns the manifest recorded with a run.
func (s *Store) LoadManifest(ctx context.Context, runID string) (*run.Manifest, error) {
	var raw sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT manifest FROM runs WHERE id = ?`, runID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup run: %w", err)
	}
	m := &run.Manifest{ID: runID}
	if raw.Valid && raw.String != "" {
		if err := json.Unmarshal([]byte(raw.String), m); err != nil {
			return nil, fmt.Errorf("decode manifest: %w", err)
		}
	}
	return m, nil
}

// LoadSpecimens rebuilds the specimen table of a run.
func (s *Store) LoadSpecimens(ctx context.Context, runID string) (*table.Table, error) {
	return s.loadRows(ctx, triaxial.TableName,
		`SELECT row_json FROM specimens WHERE run_id = ? ORDER BY row_index`, runID)
}

// LoadGroup rebuilds one raw group table of a run.
func (s *Store) LoadGroup(ctx context.Context, runID, group string) (*table.Table, error) {
	return s.loadRows(ctx, group,
		`SELECT row_json FROM group_rows WHERE run_id = ? AND group_name = ? ORDER BY row_index`, runID, group)
}

func (s *Store) loadRows(ctx context.Context, name, query string, runID string, args ...any) (*table.Table, error) {
	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, runID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("lookup run: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	rows, err := s.db.QueryContext(ctx, query, append([]any{runID}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()
	out := table.New(name)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		var sr storedRow
		if err := json.Unmarshal([]byte(raw), &sr); err != nil {
			return nil, fmt.Errorf("decode row: %w", err)
		}
		r := make(table.Row, len(sr.Columns))
		for i, c := range sr.Columns {
			out.AddColumn(c)
			if i < len(sr.Values) {
				r[c] = sr.Values[i]
			}
		}
		out.Append(r)
	}
	return out, rows.Err()
}

func encodeRow(cols []string, r table.Row) (string, error) {
	sr := storedRow{Columns: cols, Values: make([]table.Value, len(cols))}
	for i, c := range cols {
		sr.Values[i] = r[c]
	}
	b, err := json.Marshal(sr)
	if err != nil {
		return "", fmt.Errorf("encode row: %w", err)
	}
	return string(b), nil
}

func nullString(v table.Value) sql.NullString {
	if v.IsBlank() {
		return sql.NullString{}
	}
	return sql.NullString{String: v.String(), Valid: true}
}

func nullFloat(v table.Value) sql.NullFloat64 {
	if f, ok := v.Float(); ok {
		return sql.NullFloat64{Float64: f, Valid: true}
	}
	return sql.NullFloat64{}
}
