package report

import (
	"fmt"
	"image/color"
	"path/filepath"

	"github.com/banshee-data/dbscan/internal/cluster"
	"github.com/banshee-data/dbscan/internal/fsutil"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Plot dimensions match a 1000x1000 px figure at 96 dpi.
const (
	plotSize    = 10.4 * vg.Inch
	glyphRadius = 2
)

var (
	inputColor   = color.RGBA{R: 0x1f, G: 0x4e, B: 0xd8, A: 0xff}
	clusterColor = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	noiseColor   = color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}
)

func toXYs(points []cluster.Point) plotter.XYs {
	xys := make(plotter.XYs, len(points))
	for i, p := range points {
		xys[i].X = p.X
		xys[i].Y = p.Y
	}
	return xys
}

func newScatter(points []cluster.Point, c color.Color) (*plotter.Scatter, error) {
	s, err := plotter.NewScatter(toXYs(points))
	if err != nil {
		return nil, fmt.Errorf("failed to create scatter: %w", err)
	}
	s.GlyphStyle.Color = c
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	s.GlyphStyle.Radius = vg.Points(glyphRadius)
	return s, nil
}

func newPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Y"
	p.Add(plotter.NewGrid())
	return p
}

func savePNG(fsys fsutil.FileSystem, p *plot.Plot, path string) error {
	wt, err := p.WriterTo(plotSize, plotSize, "png")
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", path, err)
	}
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := wt.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// ClusterLabel names a cluster id for titles and legends.
func ClusterLabel(id int) string {
	if id == cluster.Noise {
		return "noise"
	}
	return fmt.Sprintf("cluster %d", id)
}

// WritePlots writes PNG scatter plots into dir and returns the paths written:
//   - points.png: every input point
//   - clusters.png: all points coloured by cluster id, noise in grey
//   - cluster_NN.png: one plot per non-empty id in 0..maxClusterID
func WritePlots(fsys fsutil.FileSystem, dir string, points []cluster.Point, maxClusterID int) ([]string, error) {
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	var written []string

	overview := newPlot("Sample points")
	s, err := newScatter(points, inputColor)
	if err != nil {
		return written, err
	}
	overview.Add(s)
	path := filepath.Join(dir, "points.png")
	if err := savePNG(fsys, overview, path); err != nil {
		return written, err
	}
	written = append(written, path)

	combined := newPlot(fmt.Sprintf("Clusters: %d", maxClusterID))
	combined.Legend.Top = true
	for id := cluster.Noise; id <= maxClusterID; id++ {
		members := cluster.FilterByCluster(points, id)
		if len(members) == 0 {
			continue
		}

		c := noiseColor
		if id != cluster.Noise {
			c = toRGBA(plotutil.Color(id - 1))
		}
		s, err := newScatter(members, c)
		if err != nil {
			return written, err
		}
		combined.Add(s)
		combined.Legend.Add(fmt.Sprintf("%s (%d)", ClusterLabel(id), len(members)), s)

		single := newPlot(fmt.Sprintf("Cluster ID: %d", id))
		one, err := newScatter(members, clusterColor)
		if err != nil {
			return written, err
		}
		single.Add(one)
		path := filepath.Join(dir, fmt.Sprintf("cluster_%02d.png", id))
		if err := savePNG(fsys, single, path); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	path = filepath.Join(dir, "clusters.png")
	if err := savePNG(fsys, combined, path); err != nil {
		return written, err
	}
	written = append(written, path)

	return written, nil
}

func toRGBA(c color.Color) color.RGBA {
	r, g, b, a := c.RGBA()
	return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
}
