package cluster

// RegionQuery returns the indices of all points within eps of q under the
// given metric, in dataset order. When q is itself an element of points its
// own index is included, which lets a point count towards its own MinPts.
//
// The scan is linear in len(points); no spatial index is used.
func RegionQuery(points []Point, q Point, eps float64, metric Metric) []int {
	neighbors := []int{}
	for i := range points {
		if metric.Distance(q, points[i]) <= eps {
			neighbors = append(neighbors, i)
		}
	}
	return neighbors
}
