package report

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"sync"

	"github.com/banshee-data/dbscan/internal/cluster"
	"github.com/banshee-data/dbscan/internal/fsutil"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// ChartOptions controls the HTML scatter chart.
type ChartOptions struct {
	Title      string
	Subtitle   string
	AssetsHost string // empty uses the go-echarts default CDN
}

func (o ChartOptions) title() string {
	if o.Title == "" {
		return "DBSCAN clusters"
	}
	return o.Title
}

// NewChart builds a scatter chart with one series per id in 0..maxClusterID.
// Empty ids are left out.
func NewChart(points []cluster.Point, maxClusterID int, o ChartOptions) *charts.Scatter {
	init := opts.Initialization{PageTitle: o.title(), Width: "1000px", Height: "1000px"}
	if o.AssetsHost != "" {
		init.AssetsHost = o.AssetsHost
	}

	subtitle := o.Subtitle
	if subtitle == "" {
		subtitle = fmt.Sprintf("points=%d clusters=%d", len(points), maxClusterID)
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(init),
		charts.WithTitleOpts(opts.Title{Title: o.title(), Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "X", Type: "value", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Y", Type: "value", NameLocation: "middle", NameGap: 30}),
	)

	for id := cluster.Noise; id <= maxClusterID; id++ {
		members := cluster.FilterByCluster(points, id)
		if len(members) == 0 {
			continue
		}
		data := make([]opts.ScatterData, 0, len(members))
		for _, p := range members {
			data = append(data, opts.ScatterData{Value: []interface{}{p.X, p.Y}})
		}
		size := 8
		if id == cluster.Noise {
			size = 5
		}
		scatter.AddSeries(ClusterLabel(id), data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: size}))
	}
	return scatter
}

// RenderChart writes the HTML chart to w.
func RenderChart(w io.Writer, points []cluster.Point, maxClusterID int, o ChartOptions) error {
	if err := NewChart(points, maxClusterID, o).Render(w); err != nil {
		return fmt.Errorf("failed to render clusters chart: %w", err)
	}
	return nil
}

// WriteChart renders the HTML chart into path, creating its directory.
func WriteChart(fsys fsutil.FileSystem, path string, points []cluster.Point, maxClusterID int, o ChartOptions) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := fsys.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := RenderChart(f, points, maxClusterID, o); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ChartHandler serves the chart of the most recently published result.
type ChartHandler struct {
	mu     sync.RWMutex
	points []cluster.Point
	maxID  int
	opts   ChartOptions
}

// NewChartHandler creates a handler with nothing published yet.
func NewChartHandler(o ChartOptions) *ChartHandler {
	return &ChartHandler{opts: o}
}

// Publish replaces the served result. The points are copied.
func (h *ChartHandler) Publish(points []cluster.Point, maxClusterID int) {
	snapshot := make([]cluster.Point, len(points))
	copy(snapshot, points)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.points = snapshot
	h.maxID = maxClusterID
}

func (h *ChartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.mu.RLock()
	points, maxID := h.points, h.maxID
	h.mu.RUnlock()

	if points == nil {
		http.Error(w, "no clustering result published", http.StatusServiceUnavailable)
		return
	}

	var buf bytes.Buffer
	if err := RenderChart(&buf, points, maxID, h.opts); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
