package dataset

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/banshee-data/dbscan/internal/cluster"
	"github.com/banshee-data/dbscan/internal/fsutil"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	input := strings.Join([]string{
		"1.0;1.0",
		"1.1; 1.1",
		"",
		"  0.9;0.9;extra;fields",
		"x;y",      // header
		"10",       // one field
		"NaN;1",    // non-finite
		"3;Inf",    // non-finite
		"-2.5e1;4", // exponent
		"5,5",      // wrong delimiter
	}, "\n")

	points, stats, err := Parse(strings.NewReader(input), ';')
	require.NoError(t, err)

	want := []cluster.Point{
		cluster.NewPoint(1.0, 1.0),
		cluster.NewPoint(1.1, 1.1),
		cluster.NewPoint(0.9, 0.9),
		cluster.NewPoint(-25, 4),
	}
	if diff := cmp.Diff(want, points); diff != "" {
		t.Errorf("points mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, Stats{Lines: 9, Points: 4, Skipped: 5}, stats)
}

func TestParse_RejectsNumericPrefix(t *testing.T) {
	points, stats, err := Parse(strings.NewReader("1.5abc;2\n3;4px\n6;7\n"), ';')
	require.NoError(t, err)
	assert.Equal(t, []cluster.Point{cluster.NewPoint(6, 7)}, points)
	assert.Equal(t, Stats{Lines: 3, Points: 1, Skipped: 2}, stats)
}

func TestParse_PointsStartUnexplored(t *testing.T) {
	points, _, err := Parse(strings.NewReader("1;2\n3;4\n"), ';')
	require.NoError(t, err)
	for _, p := range points {
		assert.Equal(t, cluster.Unexplored, p.ClusterID)
		assert.False(t, p.Visited)
	}
}

func TestParse_OtherDelimiter(t *testing.T) {
	points, stats, err := Parse(strings.NewReader("1,2\n3\t4\n"), ',')
	require.NoError(t, err)
	assert.Len(t, points, 1)
	assert.Equal(t, 1, stats.Skipped)
}

func TestParse_Empty(t *testing.T) {
	points, stats, err := Parse(strings.NewReader(""), ';')
	require.NoError(t, err)
	assert.Empty(t, points)
	assert.Equal(t, Stats{}, stats)
}

func TestParse_ReadError(t *testing.T) {
	boom := errors.New("boom")
	_, _, err := Parse(iotest.ErrReader(boom), ';')
	assert.ErrorIs(t, err, boom)
}

func TestLoad(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	fsys.AddFile("data/smile.csv", []byte("1;1\n2;2\nbad\n"))

	points, stats, err := Load(fsys, "data/smile.csv", DefaultDelimiter)
	require.NoError(t, err)
	assert.Len(t, points, 2)
	assert.Equal(t, 1, stats.Skipped)
}

func TestLoad_MissingFile(t *testing.T) {
	_, _, err := Load(fsutil.NewMemoryFileSystem(), "missing.csv", DefaultDelimiter)
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
