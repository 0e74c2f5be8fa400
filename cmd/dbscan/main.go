// Package main provides the dbscan command: it loads 2-D points from a
// delimited text file, clusters them with DBSCAN, and reports the result
// as log output, PNG plots, an HTML chart, and an optional sqlite history.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/dbscan/internal/api"
	"github.com/banshee-data/dbscan/internal/cluster"
	"github.com/banshee-data/dbscan/internal/config"
	"github.com/banshee-data/dbscan/internal/dataset"
	"github.com/banshee-data/dbscan/internal/fsutil"
	"github.com/banshee-data/dbscan/internal/monitoring"
	"github.com/banshee-data/dbscan/internal/report"
	"github.com/banshee-data/dbscan/internal/store"
	"github.com/banshee-data/dbscan/internal/version"
)

// Options holds everything one invocation needs.
type Options struct {
	ConfigPath string
	Input      string
	Listen     string
	ListRuns   int
	Config     *config.Config
}

// Outcome is what a run produced, for logging and tests.
type Outcome struct {
	Points  []cluster.Point
	Params  cluster.Params
	Result  cluster.Result
	Plots   []string
	HTML    string
	RunID   string
	Skipped int
}

func parseFlags(args []string) (Options, bool, error) {
	fs := flag.NewFlagSet("dbscan", flag.ContinueOnError)

	var (
		o           Options
		eps         = fs.Float64("eps", cluster.DefaultEps, "Neighbourhood radius (inclusive)")
		minPts      = fs.Int("minpts", cluster.DefaultMinPts, "Minimum neighbourhood size, self included, for a core point")
		metric      = fs.String("metric", "manhattan", "Distance metric: manhattan or euclidean")
		delim       = fs.String("delim", string(config.DefaultDelimiter), "Field delimiter of the input file")
		plotDir     = fs.String("plots", "", "Directory for PNG plots (empty disables)")
		htmlPath    = fs.String("html", "", "Path of the HTML chart (empty disables)")
		dbPath      = fs.String("db", "", "sqlite database for run history (empty disables)")
		verbose     = fs.Bool("verbose", false, "Enable verbose logging")
		showVersion = fs.Bool("version", false, "Print version and exit")
	)
	fs.StringVar(&o.ConfigPath, "config", "", "JSON config file; flags override its values")
	fs.StringVar(&o.Input, "input", "", "Path to the input points file")
	fs.StringVar(&o.Listen, "listen", "", "Serve the HTML chart on this address (e.g. :8080) until interrupted")
	fs.IntVar(&o.ListRuns, "runs", 0, "List the N most recent runs from -db and exit")

	if err := fs.Parse(args); err != nil {
		return o, false, err
	}
	if *showVersion {
		return o, true, nil
	}

	o.Config = config.EmptyConfig()
	if o.ConfigPath != "" {
		cfg, err := config.LoadConfig(o.ConfigPath)
		if err != nil {
			return o, false, err
		}
		o.Config = cfg
	}

	// Only flags given on the command line override the file.
	overrides := config.EmptyConfig()
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "eps":
			overrides.Eps = eps
		case "minpts":
			overrides.MinPts = minPts
		case "metric":
			overrides.Metric = metric
		case "delim":
			overrides.Delimiter = delim
		case "plots":
			overrides.PlotDir = plotDir
		case "html":
			overrides.HTMLPath = htmlPath
		case "db":
			overrides.DBPath = dbPath
		case "verbose":
			overrides.Verbose = verbose
		}
	})
	o.Config.Merge(overrides)

	if err := o.Config.Validate(); err != nil {
		return o, false, fmt.Errorf("invalid configuration: %w", err)
	}
	return o, false, nil
}

func main() {
	o, versionOnly, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("dbscan: %v", err)
	}
	if versionOnly {
		fmt.Println(version.String())
		return
	}
	monitoring.SetVerbose(o.Config.GetVerbose())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if o.ListRuns > 0 {
		if err := listRuns(ctx, o); err != nil {
			log.Fatalf("dbscan: %v", err)
		}
		return
	}

	if o.Input == "" {
		log.Fatal("dbscan: -input is required")
	}

	out, err := run(ctx, o, fsutil.OSFileSystem{})
	if err != nil {
		log.Fatalf("dbscan: %v", err)
	}

	if o.Listen != "" {
		if err := listen(ctx, o, out); err != nil {
			log.Fatalf("dbscan: %v", err)
		}
	}
}

// listen serves out, plus the run history when -db is set, until ctx ends.
func listen(ctx context.Context, o Options, out *Outcome) error {
	var runs api.RunStore
	if dbPath := o.Config.GetDBPath(); dbPath != "" {
		st, err := store.Open(dbPath)
		if err != nil {
			return err
		}
		defer st.Close()
		runs = st
	}

	s := api.NewServer(runs, report.ChartOptions{})
	s.Publish(o.Input, out.Params, out.Points, out.Result)
	return serve(ctx, o.Listen, api.LoggingMiddleware(s.ServeMux()))
}

// run loads the input, clusters it, and writes the configured outputs.
func run(ctx context.Context, o Options, fsys fsutil.FileSystem) (*Outcome, error) {
	cfg := o.Config
	params, err := cfg.Params()
	if err != nil {
		return nil, err
	}

	points, stats, err := dataset.Load(fsys, o.Input, cfg.GetDelimiter())
	if err != nil {
		return nil, err
	}
	monitoring.Logf("Loaded %d points from %s", len(points), o.Input)

	res, err := cluster.NewClusterer(params).Cluster(points)
	if err != nil {
		return nil, err
	}
	if err := cluster.CheckInvariants(points, res.MaxClusterID); err != nil {
		return nil, fmt.Errorf("clustering produced an inconsistent result: %w", err)
	}

	monitoring.Logf("Found max. cluster: %d (eps=%g minPts=%d metric=%s, %s)",
		res.MaxClusterID, params.Eps, params.MinPts, params.Metric, res.Duration)
	for _, s := range res.Summaries {
		monitoring.Logf("  %-12s size=%-6d centroid=(%.3f, %.3f)", report.ClusterLabel(s.ClusterID), s.Size, s.CentroidX, s.CentroidY)
	}

	out := &Outcome{Points: points, Params: params, Result: res, Skipped: stats.Skipped}

	if dir := cfg.GetPlotDir(); dir != "" && len(points) > 0 {
		plots, err := report.WritePlots(fsys, dir, points, res.MaxClusterID)
		if err != nil {
			return nil, err
		}
		out.Plots = plots
		monitoring.Logf("Wrote %d plots to %s", len(plots), dir)
	}

	if path := cfg.GetHTMLPath(); path != "" {
		if err := report.WriteChart(fsys, path, points, res.MaxClusterID, report.ChartOptions{}); err != nil {
			return nil, err
		}
		out.HTML = path
		monitoring.Logf("Wrote chart to %s", path)
	}

	if dbPath := cfg.GetDBPath(); dbPath != "" {
		st, err := store.Open(dbPath)
		if err != nil {
			return nil, err
		}
		defer st.Close()

		r := store.NewRun(o.Input, params, points, res)
		if err := st.SaveRun(ctx, r, points); err != nil {
			return nil, err
		}
		out.RunID = r.RunID
		monitoring.Logf("Saved run %s to %s", r.RunID, dbPath)
	}

	return out, nil
}

func listRuns(ctx context.Context, o Options) error {
	dbPath := o.Config.GetDBPath()
	if dbPath == "" {
		return errors.New("-runs requires -db")
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(ctx, o.ListRuns)
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Printf("%s  %s  %-20s eps=%-8g minPts=%-4d %-9s points=%-7d clusters=%-4d noise=%d\n",
			r.RunID, time.Unix(0, r.CreatedAt).Format(time.RFC3339), r.Source,
			r.Eps, r.MinPts, r.Metric, r.PointCount, r.ClusterCount, r.NoiseCount)
	}
	return nil
}

// serve runs h on addr until ctx is cancelled.
func serve(ctx context.Context, addr string, h http.Handler) error {
	server := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		monitoring.Logf("Serving results on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	log.Print("result server terminated")
	return nil
}
