package cluster

import (
	"time"

	"github.com/banshee-data/dbscan/internal/monitoring"
	"github.com/banshee-data/dbscan/internal/timeutil"
)

// Result is the outcome of one Clusterer run.
type Result struct {
	MaxClusterID int
	Duration     time.Duration
	Summaries    []Summary
}

// Clusters returns the number of clusters found.
func (r Result) Clusters() int { return r.MaxClusterID }

// NoiseCount returns the number of points left as noise.
func (r Result) NoiseCount() int {
	if len(r.Summaries) == 0 {
		return 0
	}
	return r.Summaries[0].Size
}

// Clusterer runs DBSCAN with a configurable parameter set and reports
// timing and per-cluster summaries.
type Clusterer struct {
	params Params
	clock  timeutil.Clock
}

// NewClusterer creates a clusterer with the given parameters.
func NewClusterer(params Params) *Clusterer {
	return &Clusterer{params: params, clock: timeutil.RealClock{}}
}

// NewDefaultClusterer creates a clusterer with DefaultParams.
func NewDefaultClusterer() *Clusterer {
	return NewClusterer(DefaultParams())
}

// Cluster runs DBSCAN over points in place.
func (c *Clusterer) Cluster(points []Point) (Result, error) {
	start := c.clock.Now()
	maxID, err := DBSCAN(points, c.params)
	if err != nil {
		return Result{}, err
	}
	res := Result{
		MaxClusterID: maxID,
		Duration:     c.clock.Since(start),
		Summaries:    Summarize(points, maxID),
	}

	monitoring.Debugf("[dbscan] eps=%g minPts=%d metric=%s points=%d clusters=%d noise=%d took=%s",
		c.params.Eps, c.params.MinPts, c.params.Metric, len(points), res.MaxClusterID, res.NoiseCount(), res.Duration)
	return res, nil
}

// GetParams returns the current clustering parameters.
func (c *Clusterer) GetParams() Params {
	return c.params
}

// SetParams updates the clustering parameters.
func (c *Clusterer) SetParams(params Params) {
	c.params = params
}

// SetClock replaces the clock used to time runs.
func (c *Clusterer) SetClock(clock timeutil.Clock) {
	c.clock = clock
}
