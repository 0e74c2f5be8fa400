// Package dataset loads 2-D points from delimited text.
//
// Each line holds one record whose first two fields are the x and y
// coordinates. Extra fields are ignored. Records that cannot be turned into
// two finite numbers are skipped and counted, never returned as an error,
// so the clustering core only ever sees valid points.
//
// A field must be a complete number. Trailing text such as "1.5abc" makes
// the record malformed rather than being read as 1.5, unlike parsers that
// accept a numeric prefix.
package dataset

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/dbscan/internal/cluster"
	"github.com/banshee-data/dbscan/internal/fsutil"
	"github.com/banshee-data/dbscan/internal/monitoring"
)

// DefaultDelimiter is the field separator of the sample files.
const DefaultDelimiter = ';'

// maxLineBytes bounds a single record.
const maxLineBytes = 1 << 20

// Stats counts the records seen while parsing.
type Stats struct {
	Lines   int // non-empty lines read
	Points  int // records turned into points
	Skipped int // malformed records dropped
}

// Parse reads points from r. Only read errors are returned.
func Parse(r io.Reader, delim rune) ([]cluster.Point, Stats, error) {
	var (
		points []cluster.Point
		stats  Stats
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		stats.Lines++

		p, ok := parseRecord(line, delim)
		if !ok {
			stats.Skipped++
			monitoring.Debugf("[dataset] skipping malformed record at line %d: %q", lineNo, line)
			continue
		}
		points = append(points, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, stats, fmt.Errorf("read records: %w", err)
	}

	stats.Points = len(points)
	return points, stats, nil
}

func parseRecord(line string, delim rune) (cluster.Point, bool) {
	fields := strings.SplitN(line, string(delim), 3)
	if len(fields) < 2 {
		return cluster.Point{}, false
	}
	x, ok := parseCoordinate(fields[0])
	if !ok {
		return cluster.Point{}, false
	}
	y, ok := parseCoordinate(fields[1])
	if !ok {
		return cluster.Point{}, false
	}
	return cluster.NewPoint(x, y), true
}

func parseCoordinate(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Load opens path through fsys and parses it.
func Load(fsys fsutil.FileSystem, path string, delim rune) ([]cluster.Point, Stats, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	points, stats, err := Parse(f, delim)
	if err != nil {
		return nil, stats, fmt.Errorf("parse %s: %w", path, err)
	}
	if stats.Skipped > 0 {
		monitoring.Logf("[dataset] %s: loaded %d points, skipped %d malformed records", path, stats.Points, stats.Skipped)
	}
	return points, stats, nil
}
