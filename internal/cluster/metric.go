package cluster

import (
	"fmt"
	"math"
	"strings"
)

// Metric selects the distance function used for neighbourhood queries.
type Metric int

const (
	// Manhattan is |dx| + |dy|. It is the zero value and the default.
	Manhattan Metric = iota
	// Euclidean is sqrt(dx² + dy²).
	Euclidean
)

// ParseMetric maps a configuration name to a Metric. The empty string
// selects Manhattan.
func ParseMetric(name string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "manhattan", "l1":
		return Manhattan, nil
	case "euclidean", "l2":
		return Euclidean, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMetric, name)
	}
}

func (m Metric) String() string {
	switch m {
	case Manhattan:
		return "manhattan"
	case Euclidean:
		return "euclidean"
	default:
		return fmt.Sprintf("Metric(%d)", int(m))
	}
}

func (m Metric) valid() bool {
	return m == Manhattan || m == Euclidean
}

// Distance returns the distance between a and b under m.
func (m Metric) Distance(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	if m == Euclidean {
		// Hypot avoids overflow in the intermediate squares.
		return math.Hypot(dx, dy)
	}
	return math.Abs(dx) + math.Abs(dy)
}
