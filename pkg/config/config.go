// Package config handles interpreting the kvbench.json suite file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/justjake/kvbench/pkg/container"
	"github.com/justjake/kvbench/pkg/workload"
)

// Format selects how results are printed to stdout.
type Format string

const (
	// FormatAuto prints a table on a terminal and plain lines otherwise.
	FormatAuto Format = "auto"
	// FormatLine prints one "label => min: ..; avg: ..; max: ..;" line per case.
	FormatLine Format = "line"
	// FormatTable prints a styled table per group.
	FormatTable Format = "table"
	// FormatMarkdown renders the markdown report in the terminal.
	FormatMarkdown Format = "markdown"
)

// Config holds the kvbench suite configuration.
type Config struct {
	// Iterations is the number of timed invocations per case. Must be at
	// least 1 when set. Default: 100.
	Iterations *int `json:"iterations,omitempty"`

	// Sizes lists element counts to benchmark. Default: [100, 100000].
	Sizes []int `json:"sizes,omitempty"`

	// Containers lists container kinds: "map", "bag", "swiss". Default: all.
	Containers []string `json:"containers,omitempty"`

	// Groups lists workload groups: "create", "read", "check". Default: all.
	Groups []string `json:"groups,omitempty"`

	// Format is the stdout format: "auto", "line", "table" or "markdown".
	// Default: "auto".
	Format Format `json:"format,omitempty"`

	// OutputDir, when set, receives results.json, BENCHMARK.md, bench.txt and
	// suite.dot in a per-run subdirectory.
	OutputDir string `json:"output_dir,omitempty"`

	// ContinueOnError records a failing case and moves on instead of
	// aborting the suite. Default: false.
	ContinueOnError bool `json:"continue_on_error,omitempty"`

	// Prometheus enables the metrics endpoint while the suite runs.
	Prometheus *PrometheusConfig `json:"prometheus,omitempty"`

	// OpenTelemetry enables tracing of suite and case spans.
	OpenTelemetry *OpenTelemetryConfig `json:"opentelemetry,omitempty"`

	filePath string
}

// DefaultIterations is used when iterations is unset.
const DefaultIterations = 100

// DefaultSizes are used when sizes is unset.
var DefaultSizes = []int{100, 100_000}

// ParseConfig parses a JSON configuration string and returns a Config.
func ParseConfig(jsonStr string) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal([]byte(jsonStr), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ReadConfigFile reads and parses a configuration file from the given path.
func ReadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := ParseConfig(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.filePath = path
	return cfg, nil
}

// FilePath returns the path the config was read from, if any.
func (c *Config) FilePath() string {
	return c.filePath
}

// Dir returns the directory containing the config file, or "." if the config
// was not read from a file.
func (c *Config) Dir() string {
	if c.filePath == "" {
		return "."
	}
	return filepath.Dir(c.filePath)
}

// GetIterations returns the iteration count, defaulting to DefaultIterations
// when unset. An explicit value is returned as is, even if Validate would
// reject it.
func (c *Config) GetIterations() int {
	if c.Iterations == nil {
		return DefaultIterations
	}
	return *c.Iterations
}

// GetSizes returns the element counts, defaulting to DefaultSizes.
func (c *Config) GetSizes() []int {
	if len(c.Sizes) == 0 {
		return DefaultSizes
	}
	return c.Sizes
}

// GetFormat returns the output format, defaulting to FormatAuto.
func (c *Config) GetFormat() Format {
	if c.Format == "" {
		return FormatAuto
	}
	return c.Format
}

// GetContainers returns the parsed container kinds, defaulting to all kinds.
func (c *Config) GetContainers() ([]container.Kind, error) {
	if len(c.Containers) == 0 {
		return container.Kinds(), nil
	}
	kinds := make([]container.Kind, 0, len(c.Containers))
	var errs []error
	for i, s := range c.Containers {
		k, err := container.ParseKind(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("containers[%d]: %w", i, err))
			continue
		}
		kinds = append(kinds, k)
	}
	return kinds, errors.Join(errs...)
}

// GetGroups returns the parsed workload groups, defaulting to all groups.
func (c *Config) GetGroups() ([]workload.GroupName, error) {
	if len(c.Groups) == 0 {
		return workload.GroupNames(), nil
	}
	groups := make([]workload.GroupName, 0, len(c.Groups))
	var errs []error
	for i, s := range c.Groups {
		g, err := workload.ParseGroupName(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("groups[%d]: %w", i, err))
			continue
		}
		groups = append(groups, g)
	}
	return groups, errors.Join(errs...)
}

// WorkloadOptions returns the catalogue selection described by the config.
func (c *Config) WorkloadOptions() (workload.Options, error) {
	kinds, kindErr := c.GetContainers()
	groups, groupErr := c.GetGroups()
	if err := errors.Join(kindErr, groupErr); err != nil {
		return workload.Options{}, err
	}
	return workload.Options{
		Sizes:  c.GetSizes(),
		Kinds:  kinds,
		Groups: groups,
	}, nil
}

// Validate verifies the configuration is valid.
// It does not stop at the first error; all errors are accumulated and returned together.
func (c *Config) Validate() error {
	var errs []error

	if c.Iterations != nil && *c.Iterations < 1 {
		errs = append(errs, fmt.Errorf("iterations must be at least 1, got %d", *c.Iterations))
	}

	for i, n := range c.Sizes {
		if n < 1 {
			errs = append(errs, fmt.Errorf("sizes[%d] must be at least 1, got %d", i, n))
		}
	}

	if _, err := c.WorkloadOptions(); err != nil {
		errs = append(errs, err)
	}

	switch c.GetFormat() {
	case FormatAuto, FormatLine, FormatTable, FormatMarkdown:
	default:
		errs = append(errs, fmt.Errorf("format must be one of auto, line, table, markdown; got %q", c.Format))
	}

	if c.Prometheus != nil {
		if err := c.Prometheus.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("prometheus: %w", err))
		}
	}

	if c.OpenTelemetry != nil {
		if err := c.OpenTelemetry.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("opentelemetry: %w", err))
		}
	}

	return errors.Join(errs...)
}
