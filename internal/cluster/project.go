package cluster

// FilterByCluster returns copies of the points whose ClusterID equals id.
// Pass Noise to select the noise points.
func FilterByCluster(points []Point, id int) []Point {
	result := make([]Point, 0)
	for _, p := range points {
		if p.ClusterID == id {
			result = append(result, p)
		}
	}
	return result
}

// XCoordinates returns the x coordinate of every point in order.
func XCoordinates(points []Point) []float64 {
	xs := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.X
	}
	return xs
}

// YCoordinates returns the y coordinate of every point in order.
func YCoordinates(points []Point) []float64 {
	ys := make([]float64, len(points))
	for i, p := range points {
		ys[i] = p.Y
	}
	return ys
}
