package main

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/banshee-data/dbscan/internal/cluster"
	"github.com/banshee-data/dbscan/internal/fsutil"
	"github.com/banshee-data/dbscan/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "1.0;1.0\n1.1;1.1\n0.9;0.9\n10.0;10.0\n10.1;10.1\n9.9;9.9\n5.0;5.0\nnot;a point\n"

func TestParseFlags_Defaults(t *testing.T) {
	o, versionOnly, err := parseFlags([]string{"-input", "points.csv"})
	require.NoError(t, err)
	assert.False(t, versionOnly)
	assert.Equal(t, "points.csv", o.Input)

	params, err := o.Config.Params()
	require.NoError(t, err)
	assert.Equal(t, cluster.DefaultParams(), params)
}

func TestParseFlags_Overrides(t *testing.T) {
	o, _, err := parseFlags([]string{"-eps", "1.5", "-minpts", "2", "-metric", "euclidean", "-delim", ","})
	require.NoError(t, err)

	params, err := o.Config.Params()
	require.NoError(t, err)
	assert.Equal(t, cluster.Params{Eps: 1.5, MinPts: 2, Metric: cluster.Euclidean}, params)
	assert.Equal(t, ',', o.Config.GetDelimiter())
}

func TestParseFlags_ConfigFileWithOverride(t *testing.T) {
	o, _, err := parseFlags([]string{"-config", "../../config/dbscan.defaults.json", "-minpts", "3"})
	require.NoError(t, err)
	assert.Equal(t, 3, o.Config.GetMinPts())
	assert.Equal(t, cluster.DefaultEps, o.Config.GetEps())
}

func TestParseFlags_Invalid(t *testing.T) {
	_, _, err := parseFlags([]string{"-minpts", "0"})
	assert.ErrorContains(t, err, "min_pts must be at least 1")

	_, _, err = parseFlags([]string{"-metric", "cosine"})
	assert.ErrorIs(t, err, cluster.ErrUnknownMetric)
}

func TestParseFlags_Version(t *testing.T) {
	_, versionOnly, err := parseFlags([]string{"-version"})
	require.NoError(t, err)
	assert.True(t, versionOnly)
}

func TestRun(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	fsys.AddFile("points.csv", []byte(sampleCSV))

	o, _, err := parseFlags([]string{
		"-input", "points.csv", "-eps", "1.5", "-minpts", "2",
		"-plots", "out/plots", "-html", "out/clusters.html",
	})
	require.NoError(t, err)

	out, err := run(context.Background(), o, fsys)
	require.NoError(t, err)

	assert.Equal(t, 2, out.Result.MaxClusterID)
	assert.Equal(t, 1, out.Result.NoiseCount())
	assert.Equal(t, 1, out.Skipped)
	assert.Len(t, out.Points, 7)
	assert.Contains(t, out.Plots, "out/plots/clusters.png")
	assert.Equal(t, "out/clusters.html", out.HTML)
	assert.True(t, fsys.Exists("out/clusters.html"))
	assert.Empty(t, out.RunID)
}

func TestRun_PersistsRun(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	fsys.AddFile("points.csv", []byte(sampleCSV))
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	o, _, err := parseFlags([]string{"-input", "points.csv", "-eps", "1.5", "-minpts", "2", "-db", dbPath})
	require.NoError(t, err)

	out, err := run(context.Background(), o, fsys)
	require.NoError(t, err)
	require.NotEmpty(t, out.RunID)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	r, err := st.GetRun(context.Background(), out.RunID)
	require.NoError(t, err)
	assert.Equal(t, "points.csv", r.Source)
	assert.Equal(t, 2, r.ClusterCount)
}

func TestRun_MissingInput(t *testing.T) {
	o, _, err := parseFlags([]string{"-input", "missing.csv"})
	require.NoError(t, err)
	_, err = run(context.Background(), o, fsutil.NewMemoryFileSystem())
	assert.Error(t, err)
}

func TestRun_AllNoise(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	fsys.AddFile("points.csv", []byte(sampleCSV))

	o, _, err := parseFlags([]string{"-input", "points.csv", "-eps", "2", "-minpts", "5"})
	require.NoError(t, err)

	out, err := run(context.Background(), o, fsys)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Result.MaxClusterID)
	assert.Equal(t, 7, out.Result.NoiseCount())
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, "127.0.0.1:0", http.NotFoundHandler())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}
