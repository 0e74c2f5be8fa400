package cluster

import "fmt"

// CheckInvariants verifies the state a completed DBSCAN run leaves behind:
// every visited point is noise or in a cluster, no id exceeds maxClusterID,
// and every id in 1..maxClusterID is used by at least one point.
func CheckInvariants(points []Point, maxClusterID int) error {
	if maxClusterID < 0 {
		return fmt.Errorf("negative max cluster id %d", maxClusterID)
	}

	used := make([]bool, maxClusterID+1)
	for i, p := range points {
		switch {
		case p.ClusterID < Unexplored:
			return fmt.Errorf("point %d: invalid cluster id %d", i, p.ClusterID)
		case p.ClusterID == Unexplored && p.Visited:
			return fmt.Errorf("point %d: visited but still unexplored", i)
		case p.ClusterID > maxClusterID:
			return fmt.Errorf("point %d: cluster id %d exceeds max %d", i, p.ClusterID, maxClusterID)
		case p.ClusterID > Noise:
			used[p.ClusterID] = true
		}
	}

	for id := 1; id <= maxClusterID; id++ {
		if !used[id] {
			return fmt.Errorf("cluster id %d is unused", id)
		}
	}
	return nil
}
