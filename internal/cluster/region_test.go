package cluster

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetric_Distance(t *testing.T) {
	t.Parallel()

	a := NewPoint(1, 2)
	b := NewPoint(4, 6)

	assert.InDelta(t, 7.0, Manhattan.Distance(a, b), 1e-12)
	assert.InDelta(t, 5.0, Euclidean.Distance(a, b), 1e-12)
	assert.Equal(t, Manhattan.Distance(a, b), Manhattan.Distance(b, a))
	assert.Equal(t, Euclidean.Distance(a, b), Euclidean.Distance(b, a))
	assert.Zero(t, Manhattan.Distance(a, a))
	assert.Zero(t, Euclidean.Distance(a, a))
}

func TestMetric_EuclideanNoOverflow(t *testing.T) {
	t.Parallel()

	a := NewPoint(-1e200, -1e200)
	b := NewPoint(1e200, 1e200)
	d := Euclidean.Distance(a, b)
	assert.False(t, math.IsInf(d, 0))
	assert.InEpsilon(t, 2e200*math.Sqrt2, d, 1e-12)
}

func TestParseMetric(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Metric
	}{
		{"", Manhattan},
		{"manhattan", Manhattan},
		{"L1", Manhattan},
		{" Euclidean ", Euclidean},
		{"l2", Euclidean},
	}
	for _, tt := range tests {
		got, err := ParseMetric(tt.in)
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}

	_, err := ParseMetric("chebyshev")
	assert.ErrorIs(t, err, ErrUnknownMetric)
}

func TestMetric_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "manhattan", Manhattan.String())
	assert.Equal(t, "euclidean", Euclidean.String())
	assert.Equal(t, "Metric(9)", Metric(9).String())
}

func TestRegionQuery_IncludesSelf(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(1))
	points := randomPoints(rng, 64)
	for _, metric := range []Metric{Manhattan, Euclidean} {
		for _, eps := range []float64{0, 0.01, 1, 10} {
			for i := range points {
				got := RegionQuery(points, points[i], eps, metric)
				assert.Contains(t, got, i, "metric=%s eps=%v", metric, eps)
			}
		}
	}
}

func TestRegionQuery_InclusiveRadius(t *testing.T) {
	t.Parallel()

	points := makePoints(
		[2]float64{0, 0},
		[2]float64{1, 1},   // Manhattan 2, Euclidean ~1.414
		[2]float64{2, 0},   // Manhattan 2, Euclidean 2
		[2]float64{2.5, 0}, // outside both
	)

	assert.Equal(t, []int{0, 1, 2}, RegionQuery(points, points[0], 2, Manhattan))
	assert.Equal(t, []int{0, 1, 2}, RegionQuery(points, points[0], 2, Euclidean))
	assert.Equal(t, []int{0, 1}, RegionQuery(points, points[0], 1.5, Euclidean))
	assert.Equal(t, []int{0}, RegionQuery(points, points[0], 1.5, Manhattan))
}

func TestRegionQuery_DoesNotMutate(t *testing.T) {
	t.Parallel()

	points := samplePoints()
	before := samplePoints()
	_ = RegionQuery(points, points[0], 100, Manhattan)
	assert.Equal(t, before, points)
}

func TestRegionQuery_Empty(t *testing.T) {
	t.Parallel()

	got := RegionQuery(nil, NewPoint(0, 0), 1, Manhattan)
	assert.Empty(t, got)
}
