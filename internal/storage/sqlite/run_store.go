// Package sqlite persists averaging-run bookkeeping: which runs happened,
// how many transects they loaded, and a summary row per averaged group.
package sqlite

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/esatel/adcpy/internal/average"
)

//go:embed schema.sql
var schemaSQL string

// RunStore records averaging runs in a sqlite database. It implements
// average.Recorder for one run at a time.
type RunStore struct {
	db      *sql.DB
	outpath string
	runID   string
}

// NewRunStore opens (creating if necessary) the run database at path.
// outpath is recorded with each run so products can be located later.
func NewRunStore(path, outpath string) (*RunStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialise run schema: %w", err)
	}
	return &RunStore{db: db, outpath: outpath}, nil
}

// Close releases the underlying database handle.
func (s *RunStore) Close() error { return s.db.Close() }

// RunID returns the identifier of the run opened by BeginRun.
func (s *RunStore) RunID() string { return s.runID }

// BeginRun inserts the run row and assigns it a fresh identifier.
func (s *RunStore) BeginRun(startedAt time.Time, transectCount int) error {
	s.runID = uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO avg_runs (run_id, started_unix_nanos, transect_count, outpath) VALUES (?, ?, ?, ?)`,
		s.runID, startedAt.UnixNano(), transectCount, s.outpath,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecordGroup inserts one group summary row for the open run.
func (s *RunStore) RecordGroup(r average.GroupResult) error {
	if s.runID == "" {
		return fmt.Errorf("no open run")
	}
	_, err := s.db.Exec(
		`INSERT INTO avg_groups
		 (run_id, group_index, transect_count, start_unix_nanos, end_unix_nanos,
		  distance_span_m, elevation_span_m, cells_filled, cells_total, discharge_m3s)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.runID, r.Index, r.TransectCount, r.Start.UnixNano(), r.End.UnixNano(),
		r.DistanceSpan, r.ElevationSpan, r.CellsFilled, r.CellsTotal, r.Discharge,
	)
	if err != nil {
		return fmt.Errorf("insert group %d: %w", r.Index, err)
	}
	return nil
}

// FinishRun stamps the run row with its end time and group counts.
func (s *RunStore) FinishRun(finishedAt time.Time, groupCount, failedGroups int) error {
	if s.runID == "" {
		return fmt.Errorf("no open run")
	}
	_, err := s.db.Exec(
		`UPDATE avg_runs SET finished_unix_nanos = ?, group_count = ?, failed_groups = ? WHERE run_id = ?`,
		finishedAt.UnixNano(), groupCount, failedGroups, s.runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// GroupCount returns how many group rows the given run recorded.
func (s *RunStore) GroupCount(runID string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM avg_groups WHERE run_id = ?`, runID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count groups: %w", err)
	}
	return n, nil
}
