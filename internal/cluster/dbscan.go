package cluster

// worklist is the frontier of an expansion. Final membership does not
// depend on the pop order, so any discipline is acceptable.
type worklist interface {
	push(idx ...int)
	pop() int
	empty() bool
}

// stack pops the most recently pushed index first.
type stack []int

func (s *stack) push(idx ...int) { *s = append(*s, idx...) }
func (s *stack) empty() bool     { return len(*s) == 0 }
func (s *stack) pop() int {
	old := *s
	n := len(old) - 1
	v := old[n]
	*s = old[:n]
	return v
}

// queue pops the oldest index first.
type queue []int

func (q *queue) push(idx ...int) { *q = append(*q, idx...) }
func (q *queue) empty() bool     { return len(*q) == 0 }
func (q *queue) pop() int {
	v := (*q)[0]
	*q = (*q)[1:]
	return v
}

func newStack() worklist { return &stack{} }
func newQueue() worklist { return &queue{} }

// DBSCAN clusters points in place and returns the highest cluster id,
// which is also the number of clusters (0 if there are none).
//
// Points are scanned in index order. Every unvisited point seeds an
// expansion attempt; a point whose neighbourhood is smaller than MinPts is
// marked noise and may later be absorbed by a cluster that reaches it.
// A border point within eps of a later founding core point moves to that
// later cluster; one only reached through a later cluster's frontier stays
// where it is.
// Cluster ids are only consumed by successful expansions, so the ids in use
// are exactly 1..max.
//
// Points that are already visited are skipped, so running DBSCAN twice on
// the same slice is a no-op and returns the same maximum id. Call Reset to
// cluster again with different parameters.
//
// Invalid parameters are reported before any point is touched.
func DBSCAN(points []Point, params Params) (int, error) {
	if err := params.Validate(); err != nil {
		return 0, err
	}
	return run(points, params, newStack), nil
}

func run(points []Point, params Params, frontier func() worklist) int {
	maxClusterID := 0
	for i := range points {
		if points[i].ClusterID > maxClusterID {
			maxClusterID = points[i].ClusterID
		}
	}

	for i := range points {
		if points[i].Visited {
			continue
		}
		points[i].Visited = true

		if expandCluster(points, i, maxClusterID+1, params, frontier()) {
			maxClusterID++
		}
	}
	return maxClusterID
}

// expandCluster tries to grow cluster id from points[idx]. It reports false,
// and marks the point noise, when the point is not a core point.
func expandCluster(points []Point, idx, id int, params Params, seeds worklist) bool {
	neighbors := RegionQuery(points, points[idx], params.Eps, params.Metric)
	if len(neighbors) < params.MinPts {
		points[idx].markNoise()
		return false
	}

	// The whole neighbourhood of a core point joins, including border points
	// an earlier cluster took. Frontier points below only fill in gaps.
	for _, n := range neighbors {
		points[n].join(id)
		if n != idx {
			seeds.push(n)
		}
	}

	for !seeds.empty() {
		current := seeds.pop()

		if !points[current].Visited {
			points[current].Visited = true
			result := RegionQuery(points, points[current], params.Eps, params.Metric)
			if len(result) >= params.MinPts {
				// Duplicates are filtered by the visited check above.
				seeds.push(result...)
			}
		}

		points[current].claim(id)
	}
	return true
}
