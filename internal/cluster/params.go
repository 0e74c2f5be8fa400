package cluster

import (
	"errors"
	"fmt"
	"math"
)

// Constants for clustering configuration
const (
	// DefaultEps is the default neighbourhood radius.
	DefaultEps = 2.0
	// DefaultMinPts is the default neighbourhood size for a core point.
	DefaultMinPts = 5
)

var (
	ErrInvalidEps    = errors.New("eps must be a non-negative number")
	ErrInvalidMinPts = errors.New("minPts must be at least 1")
	ErrUnknownMetric = errors.New("unknown distance metric")
)

// Params holds the DBSCAN parameters.
type Params struct {
	Eps    float64 // Neighbourhood radius, inclusive
	MinPts int     // Neighbourhood size (self included) that makes a core point
	Metric Metric  // Distance function, Manhattan by default
}

// DefaultParams returns the parameters used by the command-line tool when
// nothing else is configured.
func DefaultParams() Params {
	return Params{
		Eps:    DefaultEps,
		MinPts: DefaultMinPts,
		Metric: Manhattan,
	}
}

// Validate checks the preconditions of DBSCAN.
func (p Params) Validate() error {
	if math.IsNaN(p.Eps) || p.Eps < 0 {
		return fmt.Errorf("%w, got %v", ErrInvalidEps, p.Eps)
	}
	if p.MinPts < 1 {
		return fmt.Errorf("%w, got %d", ErrInvalidMinPts, p.MinPts)
	}
	if !p.Metric.valid() {
		return fmt.Errorf("%w: %v", ErrUnknownMetric, p.Metric)
	}
	return nil
}
