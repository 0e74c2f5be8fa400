package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/banshee-data/dbscan/internal/cluster"
)

// DefaultConfigPath is the path to the canonical defaults file.
const DefaultConfigPath = "config/dbscan.defaults.json"

// DefaultDelimiter separates x and y in input records.
const DefaultDelimiter = ';'

// Config is the run configuration. Every field is optional; the Get*
// methods supply defaults for fields omitted from the JSON file, so
// partial configs are safe.
type Config struct {
	// Clustering params
	Eps    *float64 `json:"eps,omitempty"`
	MinPts *int     `json:"min_pts,omitempty"`
	Metric *string  `json:"metric,omitempty"` // "manhattan" or "euclidean"

	// Input params
	Delimiter *string `json:"delimiter,omitempty"` // single character

	// Output params (empty disables the output)
	PlotDir  *string `json:"plot_dir,omitempty"`
	HTMLPath *string `json:"html_path,omitempty"`
	DBPath   *string `json:"db_path,omitempty"`

	Verbose *bool `json:"verbose,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyConfig returns a Config with all fields set to nil.
func EmptyConfig() *Config {
	return &Config{}
}

// DefaultConfig returns a Config with every field populated from the
// built-in defaults.
func DefaultConfig() *Config {
	p := cluster.DefaultParams()
	return &Config{
		Eps:       ptrFloat64(p.Eps),
		MinPts:    ptrInt(p.MinPts),
		Metric:    ptrString(p.Metric.String()),
		Delimiter: ptrString(string(DefaultDelimiter)),
		PlotDir:   ptrString(""),
		HTMLPath:  ptrString(""),
		DBPath:    ptrString(""),
		Verbose:   ptrBool(false),
	}
}

// LoadConfig loads a Config from a JSON file.
// The file must have a .json extension and be at most 1MB.
func LoadConfig(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents up to the repository root.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *Config {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,    // from cmd/dbscan
		"../../" + DefaultConfigPath, // from internal/config
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	if c.Eps != nil {
		if math.IsNaN(*c.Eps) || math.IsInf(*c.Eps, 0) || *c.Eps < 0 {
			return fmt.Errorf("eps must be a finite non-negative number, got %v", *c.Eps)
		}
	}

	if c.MinPts != nil && *c.MinPts < 1 {
		return fmt.Errorf("min_pts must be at least 1, got %d", *c.MinPts)
	}

	if c.Metric != nil {
		if _, err := cluster.ParseMetric(*c.Metric); err != nil {
			return err
		}
	}

	if c.Delimiter != nil && *c.Delimiter != "" {
		r, size := utf8.DecodeRuneInString(*c.Delimiter)
		if size != len(*c.Delimiter) || r == utf8.RuneError {
			return fmt.Errorf("delimiter must be a single character, got %q", *c.Delimiter)
		}
		if r == '\n' || r == '\r' || r == '.' || r == '-' || r == '+' {
			return fmt.Errorf("delimiter %q conflicts with numeric records", *c.Delimiter)
		}
	}

	return nil
}

// Merge copies every non-nil field of other over c.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if other.Eps != nil {
		c.Eps = other.Eps
	}
	if other.MinPts != nil {
		c.MinPts = other.MinPts
	}
	if other.Metric != nil {
		c.Metric = other.Metric
	}
	if other.Delimiter != nil {
		c.Delimiter = other.Delimiter
	}
	if other.PlotDir != nil {
		c.PlotDir = other.PlotDir
	}
	if other.HTMLPath != nil {
		c.HTMLPath = other.HTMLPath
	}
	if other.DBPath != nil {
		c.DBPath = other.DBPath
	}
	if other.Verbose != nil {
		c.Verbose = other.Verbose
	}
}

// GetEps returns the eps value or the default.
func (c *Config) GetEps() float64 {
	if c.Eps == nil {
		return cluster.DefaultEps
	}
	return *c.Eps
}

// GetMinPts returns the min_pts value or the default.
func (c *Config) GetMinPts() int {
	if c.MinPts == nil {
		return cluster.DefaultMinPts
	}
	return *c.MinPts
}

// GetMetric returns the parsed metric or Manhattan when unset or invalid.
func (c *Config) GetMetric() cluster.Metric {
	if c.Metric == nil {
		return cluster.Manhattan
	}
	m, err := cluster.ParseMetric(*c.Metric)
	if err != nil {
		return cluster.Manhattan // default on parse error
	}
	return m
}

// GetDelimiter returns the delimiter rune or the default.
func (c *Config) GetDelimiter() rune {
	if c.Delimiter == nil || *c.Delimiter == "" {
		return DefaultDelimiter
	}
	r, _ := utf8.DecodeRuneInString(*c.Delimiter)
	return r
}

// GetPlotDir returns the plot output directory; empty disables PNG output.
func (c *Config) GetPlotDir() string {
	if c.PlotDir == nil {
		return ""
	}
	return *c.PlotDir
}

// GetHTMLPath returns the HTML chart path; empty disables HTML output.
func (c *Config) GetHTMLPath() string {
	if c.HTMLPath == nil {
		return ""
	}
	return *c.HTMLPath
}

// GetDBPath returns the run-history database path; empty disables persistence.
func (c *Config) GetDBPath() string {
	if c.DBPath == nil {
		return ""
	}
	return *c.DBPath
}

// GetVerbose returns the verbose value or the default.
func (c *Config) GetVerbose() bool {
	if c.Verbose == nil {
		return false
	}
	return *c.Verbose
}

// Params builds validated clustering parameters from the config.
func (c *Config) Params() (cluster.Params, error) {
	if err := c.Validate(); err != nil {
		return cluster.Params{}, err
	}
	p := cluster.Params{
		Eps:    c.GetEps(),
		MinPts: c.GetMinPts(),
		Metric: c.GetMetric(),
	}
	return p, p.Validate()
}
