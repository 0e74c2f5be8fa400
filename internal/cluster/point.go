package cluster

import "fmt"

// Cluster id sentinels. Positive ids name clusters and start at 1.
const (
	Unexplored = -1
	Noise      = 0
)

// State is the explicit form of a point's (Visited, ClusterID) pair.
type State int

const (
	StateUnvisited State = iota
	StateNoise
	StateClustered
)

func (s State) String() string {
	switch s {
	case StateUnvisited:
		return "unvisited"
	case StateNoise:
		return "noise"
	case StateClustered:
		return "clustered"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Point is one record of the dataset arena. The algorithm addresses points
// by their index in the slice passed to DBSCAN and mutates them in place.
type Point struct {
	X, Y      float64
	ClusterID int  // Unexplored, Noise, or a cluster id >= 1
	Visited   bool // monotone false -> true
}

// NewPoint returns an unvisited, unexplored point.
func NewPoint(x, y float64) Point {
	return Point{X: x, Y: y, ClusterID: Unexplored}
}

// State reports the tagged state of the point.
// A point that was pulled into a cluster's seed set but has not been
// visited yet still reports StateClustered.
func (p Point) State() State {
	switch {
	case p.ClusterID > Noise:
		return StateClustered
	case p.ClusterID == Noise && p.Visited:
		return StateNoise
	default:
		return StateUnvisited
	}
}

// IsClustered reports whether the point belongs to a cluster.
func (p Point) IsClustered() bool { return p.ClusterID > Noise }

func (p Point) String() string {
	return fmt.Sprintf("(%g, %g) cluster=%d visited=%t", p.X, p.Y, p.ClusterID, p.Visited)
}

// markNoise labels an unexplored point as noise. Points already in a
// cluster are left alone.
func (p *Point) markNoise() {
	if p.ClusterID == Unexplored {
		p.ClusterID = Noise
	}
}

// join puts the point in cluster id whatever its current label. A border
// point held by an earlier cluster moves to id; it never becomes noise or
// unexplored again.
func (p *Point) join(id int) {
	if id > Noise {
		p.ClusterID = id
	}
}

// claim moves an unexplored or noise point into cluster id and reports
// whether it did. Points already in a cluster keep their id.
func (p *Point) claim(id int) bool {
	if p.ClusterID > Noise {
		return false
	}
	p.ClusterID = id
	return true
}

// Reset returns every point to the unvisited, unexplored state so the
// dataset can be clustered again with different parameters.
func Reset(points []Point) {
	for i := range points {
		points[i].ClusterID = Unexplored
		points[i].Visited = false
	}
}
