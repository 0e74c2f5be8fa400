// Package store persists clustering runs and their point assignments in
// sqlite so results can be listed and reloaded later.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/banshee-data/dbscan/internal/cluster"
	"github.com/banshee-data/dbscan/internal/timeutil"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrRunNotFound is returned when a run id is not in the store.
var ErrRunNotFound = errors.New("run not found")

// Run is one persisted clustering run.
type Run struct {
	RunID         string            `json:"run_id"`
	CreatedAt     int64             `json:"created_at"` // unix nanos
	Source        string            `json:"source"`
	Eps           float64           `json:"eps"`
	MinPts        int               `json:"min_pts"`
	Metric        string            `json:"metric"`
	PointCount    int               `json:"point_count"`
	ClusterCount  int               `json:"cluster_count"`
	NoiseCount    int               `json:"noise_count"`
	DurationNanos int64             `json:"duration_ns"`
	Summaries     []cluster.Summary `json:"summaries,omitempty"`
}

// NewRun describes a finished clustering result as a Run ready to save.
func NewRun(source string, params cluster.Params, points []cluster.Point, res cluster.Result) *Run {
	return &Run{
		Source:        source,
		Eps:           params.Eps,
		MinPts:        params.MinPts,
		Metric:        params.Metric.String(),
		PointCount:    len(points),
		ClusterCount:  res.Clusters(),
		NoiseCount:    res.NoiseCount(),
		DurationNanos: int64(res.Duration),
		Summaries:     res.Summaries,
	}
}

// Params returns the clustering parameters the run was made with.
func (r *Run) Params() (cluster.Params, error) {
	m, err := cluster.ParseMetric(r.Metric)
	if err != nil {
		return cluster.Params{}, err
	}
	return cluster.Params{Eps: r.Eps, MinPts: r.MinPts, Metric: m}, nil
}

// Store wraps the run-history database.
type Store struct {
	db    *sql.DB
	clock timeutil.Clock
}

// Open opens (creating if needed) the database at path and migrates it to
// the latest schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows a single writer; one connection also keeps :memory:
	// databases from splitting across the pool.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	s := &Store{db: db, clock: timeutil.RealClock{}}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// SetClock replaces the clock that stamps newly saved runs.
func (s *Store) SetClock(clock timeutil.Clock) {
	s.clock = clock
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun persists run together with the final assignment of every point.
// If RunID is empty, a UUID is generated; if CreatedAt is zero, now is used.
func (s *Store) SaveRun(ctx context.Context, run *Run, points []cluster.Point) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = s.clock.Now().UnixNano()
	}

	var summary interface{}
	if len(run.Summaries) > 0 {
		b, err := json.Marshal(run.Summaries)
		if err != nil {
			return fmt.Errorf("marshal summaries: %w", err)
		}
		summary = string(b)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO dbscan_runs (
			run_id, created_at_ns, source, eps, min_pts, metric,
			point_count, cluster_count, noise_count, duration_ns, summary_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.CreatedAt, run.Source, run.Eps, run.MinPts, run.Metric,
		run.PointCount, run.ClusterCount, run.NoiseCount, run.DurationNanos, summary,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO dbscan_points (run_id, idx, x, y, cluster_id)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare point insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range points {
		if _, err := stmt.ExecContext(ctx, run.RunID, i, p.X, p.Y, p.ClusterID); err != nil {
			return fmt.Errorf("insert point %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

const runColumns = `run_id, created_at_ns, source, eps, min_pts, metric,
	point_count, cluster_count, noise_count, duration_ns, summary_json`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var summary sql.NullString
	err := row.Scan(
		&r.RunID, &r.CreatedAt, &r.Source, &r.Eps, &r.MinPts, &r.Metric,
		&r.PointCount, &r.ClusterCount, &r.NoiseCount, &r.DurationNanos, &summary,
	)
	if err != nil {
		return nil, err
	}
	if summary.Valid && summary.String != "" {
		if err := json.Unmarshal([]byte(summary.String), &r.Summaries); err != nil {
			return nil, fmt.Errorf("decode summaries for run %s: %w", r.RunID, err)
		}
	}
	return &r, nil
}

// GetRun returns a single run by id.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM dbscan_runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// ListRuns returns up to limit runs, newest first. A non-positive limit
// returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM dbscan_runs
		ORDER BY created_at_ns DESC, run_id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LoadPoints returns the clustered points of a run in their original order.
// Every returned point is marked visited.
func (s *Store) LoadPoints(ctx context.Context, runID string) ([]cluster.Point, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT x, y, cluster_id
		FROM dbscan_points
		WHERE run_id = ?
		ORDER BY idx`, runID)
	if err != nil {
		return nil, fmt.Errorf("query points: %w", err)
	}
	defer rows.Close()

	var points []cluster.Point
	for rows.Next() {
		p := cluster.Point{Visited: true}
		if err := rows.Scan(&p.X, &p.Y, &p.ClusterID); err != nil {
			return nil, fmt.Errorf("scan point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// DeleteRun removes a run and its points.
func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM dbscan_runs WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}
