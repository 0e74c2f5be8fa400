// Package cluster owns density-based clustering of 2-D points.
//
// Responsibilities: neighbourhood discovery (RegionQuery), the DBSCAN outer
// scan and breadth-first cluster expansion, and the per-point state machine
// (unvisited, noise, clustered).
// Key types: Point, Params, Metric, Clusterer.
//
// Dependency rule: cluster does no I/O. Loading, plotting and persistence
// live in internal/dataset, internal/report and internal/store.
package cluster
