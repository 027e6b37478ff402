// Package sqlite persists estimate runs in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/couchcryptid/heat-flex-etl/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id     TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL,
	buildings  INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS estimates (
	run_id               TEXT NOT NULL REFERENCES runs(run_id),
	building_id          TEXT NOT NULL,
	min_duration_minutes INTEGER NOT NULL,
	mean_tau_h           REAL,
	std_tau_h            REAL,
	intervals            INTEGER NOT NULL,
	fit_failures         INTEGER NOT NULL,
	computed_at          INTEGER NOT NULL,
	PRIMARY KEY (run_id, building_id, min_duration_minutes)
);
`

// ErrNoRuns is returned by LatestRun on an empty database.
var ErrNoRuns = errors.New("no runs recorded")

// Run describes one stored batch of estimates.
type Run struct {
	ID        string
	CreatedAt time.Time
	Buildings int
}

// Store records each pipeline run's estimates under a fresh run id.
// It implements pipeline.BatchLoader.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// LoadBatch stores the estimates as a new run.
func (s *Store) LoadBatch(ctx context.Context, estimates []domain.Estimate) error {
	_, err := s.InsertRun(ctx, estimates)
	return err
}

// InsertRun stores the estimates in one transaction and returns the new run.
func (s *Store) InsertRun(ctx context.Context, estimates []domain.Estimate) (Run, error) {
	buildings := make(map[string]struct{})
	for _, e := range estimates {
		buildings[e.BuildingID] = struct{}{}
	}
	run := Run{ID: uuid.New().String(), CreatedAt: time.Now().UTC(), Buildings: len(buildings)}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, created_at, buildings) VALUES (?, ?, ?)`,
		run.ID, run.CreatedAt.UnixNano(), run.Buildings,
	); err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO estimates (
			run_id, building_id, min_duration_minutes, mean_tau_h, std_tau_h,
			intervals, fit_failures, computed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Run{}, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range estimates {
		if _, err := stmt.ExecContext(ctx,
			run.ID, e.BuildingID, e.MinDurationMinutes, nullable(e.MeanTauHours), nullable(e.StdTauHours),
			e.Intervals, e.FitFailures, e.ComputedAt.UnixNano(),
		); err != nil {
			return Run{}, fmt.Errorf("insert estimate %s/%d: %w", e.BuildingID, e.MinDurationMinutes, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("commit: %w", err)
	}
	return run, nil
}

// LatestRun returns the most recently stored run.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	var (
		r       Run
		created int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, created_at, buildings FROM runs ORDER BY created_at DESC, rowid DESC LIMIT 1`,
	).Scan(&r.ID, &created, &r.Buildings)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNoRuns
	}
	if err != nil {
		return Run{}, fmt.Errorf("query latest run: %w", err)
	}
	r.CreatedAt = time.Unix(0, created).UTC()
	return r, nil
}

// Estimates returns a run's estimates ordered by building and duration.
// NULL time constants read back as NaN.
func (s *Store) Estimates(ctx context.Context, runID string) ([]domain.Estimate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT building_id, min_duration_minutes, mean_tau_h, std_tau_h,
		       intervals, fit_failures, computed_at
		FROM estimates
		WHERE run_id = ?
		ORDER BY building_id, min_duration_minutes`, runID)
	if err != nil {
		return nil, fmt.Errorf("query estimates: %w", err)
	}
	defer rows.Close()

	var out []domain.Estimate
	for rows.Next() {
		var (
			e         domain.Estimate
			mean, std sql.NullFloat64
			computed  int64
		)
		if err := rows.Scan(&e.BuildingID, &e.MinDurationMinutes, &mean, &std,
			&e.Intervals, &e.FitFailures, &computed); err != nil {
			return nil, fmt.Errorf("scan estimate: %w", err)
		}
		e.MeanTauHours = fromNullable(mean)
		e.StdTauHours = fromNullable(std)
		e.ComputedAt = time.Unix(0, computed).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func fromNullable(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
