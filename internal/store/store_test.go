package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/banshee-data/dbscan/internal/cluster"
	"github.com/banshee-data/dbscan/internal/timeutil"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func clusteredPoints(t *testing.T) ([]cluster.Point, cluster.Params, cluster.Result) {
	t.Helper()
	points := []cluster.Point{
		cluster.NewPoint(1.0, 1.0),
		cluster.NewPoint(1.1, 1.1),
		cluster.NewPoint(0.9, 0.9),
		cluster.NewPoint(10.0, 10.0),
		cluster.NewPoint(10.1, 10.1),
		cluster.NewPoint(9.9, 9.9),
		cluster.NewPoint(5.0, 5.0),
	}
	params := cluster.Params{Eps: 1.5, MinPts: 2, Metric: cluster.Manhattan}
	res, err := cluster.NewClusterer(params).Cluster(points)
	require.NoError(t, err)
	return points, params, res
}

func TestOpen_MigratesToLatest(t *testing.T) {
	s := openTestStore(t)

	version, dirty, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	// Running again is a no-op.
	require.NoError(t, s.MigrateUp())
}

func TestMigrateDown(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.MigrateDown())

	version, _, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)

	require.NoError(t, s.MigrateUp())
}

func TestSaveAndGetRun(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	points, params, res := clusteredPoints(t)

	run := NewRun("sample.csv", params, points, res)
	require.NoError(t, s.SaveRun(ctx, run, points))

	_, err := uuid.Parse(run.RunID)
	require.NoError(t, err, "generated run id should be a UUID")
	assert.NotZero(t, run.CreatedAt)

	got, err := s.GetRun(ctx, run.RunID)
	require.NoError(t, err)
	if diff := cmp.Diff(run, got); diff != "" {
		t.Errorf("run mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2, got.ClusterCount)
	assert.Equal(t, 1, got.NoiseCount)

	gotParams, err := got.Params()
	require.NoError(t, err)
	assert.Equal(t, params, gotParams)
}

func TestLoadPoints(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	points, params, res := clusteredPoints(t)

	run := NewRun("sample.csv", params, points, res)
	require.NoError(t, s.SaveRun(ctx, run, points))

	loaded, err := s.LoadPoints(ctx, run.RunID)
	require.NoError(t, err)
	if diff := cmp.Diff(points, loaded); diff != "" {
		t.Errorf("points mismatch (-want +got):\n%s", diff)
	}
	require.NoError(t, cluster.CheckInvariants(loaded, run.ClusterCount))
}

func TestGetRun_NotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = s.LoadPoints(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestListRuns(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	points, params, res := clusteredPoints(t)

	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	clock := timeutil.NewMockClock(base)
	s.SetClock(clock)
	for i := 0; i < 3; i++ {
		run := NewRun("sample.csv", params, points, res)
		require.NoError(t, s.SaveRun(ctx, run, points))
		assert.Equal(t, clock.Now().UnixNano(), run.CreatedAt)
		clock.Advance(time.Minute)
	}

	all, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Greater(t, all[0].CreatedAt, all[1].CreatedAt)
	assert.Greater(t, all[1].CreatedAt, all[2].CreatedAt)

	limited, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestDeleteRun(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	points, params, res := clusteredPoints(t)

	run := NewRun("sample.csv", params, points, res)
	require.NoError(t, s.SaveRun(ctx, run, points))
	require.NoError(t, s.DeleteRun(ctx, run.RunID))

	_, err := s.GetRun(ctx, run.RunID)
	assert.ErrorIs(t, err, ErrRunNotFound)

	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM dbscan_points WHERE run_id = ?`, run.RunID).Scan(&n))
	assert.Zero(t, n, "points should cascade with the run")

	assert.ErrorIs(t, s.DeleteRun(ctx, run.RunID), ErrRunNotFound)
}

func TestSaveRun_DuplicateID(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	points, params, res := clusteredPoints(t)

	run := NewRun("a.csv", params, points, res)
	require.NoError(t, s.SaveRun(ctx, run, points))

	dup := NewRun("b.csv", params, points, res)
	dup.RunID = run.RunID
	require.Error(t, s.SaveRun(ctx, dup, points))

	// The failed insert left nothing behind.
	got, err := s.GetRun(ctx, run.RunID)
	require.NoError(t, err)
	assert.Equal(t, "a.csv", got.Source)
}
