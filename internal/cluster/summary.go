package cluster

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the points that share one cluster id.
// Centroid and bounds are zero when Size is zero.
type Summary struct {
	ClusterID int     `json:"cluster_id"`
	Size      int     `json:"size"`
	CentroidX float64 `json:"centroid_x"`
	CentroidY float64 `json:"centroid_y"`
	MinX      float64 `json:"min_x"`
	MinY      float64 `json:"min_y"`
	MaxX      float64 `json:"max_x"`
	MaxY      float64 `json:"max_y"`
}

// Summarize returns one Summary per id in 0..maxClusterID, noise first.
func Summarize(points []Point, maxClusterID int) []Summary {
	if maxClusterID < 0 {
		return nil
	}
	summaries := make([]Summary, 0, maxClusterID+1)
	for id := Noise; id <= maxClusterID; id++ {
		members := FilterByCluster(points, id)
		s := Summary{ClusterID: id, Size: len(members)}
		if len(members) > 0 {
			xs := XCoordinates(members)
			ys := YCoordinates(members)
			s.CentroidX = stat.Mean(xs, nil)
			s.CentroidY = stat.Mean(ys, nil)
			s.MinX, s.MaxX = floats.Min(xs), floats.Max(xs)
			s.MinY, s.MaxY = floats.Min(ys), floats.Max(ys)
		}
		summaries = append(summaries, s)
	}
	return summaries
}
