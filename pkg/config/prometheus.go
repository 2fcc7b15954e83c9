package config

import (
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
)

// MetricLabelNames are the variable labels of kvbench metrics. Extra labels
// must not reuse them.
var MetricLabelNames = []string{"case", "stat", "status", "type"}

var labelNameRE = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PrometheusConfig configures Prometheus metrics export.
// If this config is present in the config file, Prometheus metrics are enabled.
type PrometheusConfig struct {
	// Listen is the address to listen on for the metrics HTTP server.
	// Format: "host:port" or ":port"
	// Default: ":9090"
	Listen string `json:"listen,omitempty"`

	// Path is the HTTP path for the metrics endpoint.
	// Default: "/metrics"
	Path string `json:"path,omitempty"`

	// ExtraLabels adds constant labels to all metrics.
	// Example: {"host": "ci-runner-3", "git_sha": "d2169b0"}
	ExtraLabels map[string]string `json:"extra_labels,omitempty"`
}

// GetListen returns the listen address, defaulting to ":9090".
func (c *PrometheusConfig) GetListen() string {
	if c.Listen == "" {
		return ":9090"
	}
	return c.Listen
}

// GetPath returns the metrics path, defaulting to "/metrics".
func (c *PrometheusConfig) GetPath() string {
	if c.Path == "" {
		return "/metrics"
	}
	return c.Path
}

// Validate validates the Prometheus configuration.
func (c *PrometheusConfig) Validate() error {
	var errs []error

	listen := c.GetListen()
	if !strings.Contains(listen, ":") {
		errs = append(errs, fmt.Errorf("listen address %q must contain a port (e.g., ':9090' or '0.0.0.0:9090')", listen))
	}

	path := c.GetPath()
	if !strings.HasPrefix(path, "/") {
		errs = append(errs, fmt.Errorf("path %q must start with '/'", path))
	}

	for _, k := range slices.Sorted(maps.Keys(c.ExtraLabels)) {
		switch {
		case !labelNameRE.MatchString(k):
			errs = append(errs, fmt.Errorf("extra label name %q is not a valid Prometheus label", k))
		case strings.HasPrefix(k, "__"):
			errs = append(errs, fmt.Errorf("extra label name %q: names starting with \"__\" are reserved", k))
		case slices.Contains(MetricLabelNames, k):
			errs = append(errs, fmt.Errorf("extra label name %q collides with a kvbench metric label", k))
		}
	}

	return errors.Join(errs...)
}

// ParsePrometheusListen parses a CLI listen argument in "host:port/path" format
// and returns a PrometheusConfig. If path is not specified, defaults to "/metrics".
func ParsePrometheusListen(listen string) *PrometheusConfig {
	if listen == "" {
		return nil
	}

	// Format: ":9090/metrics" or "0.0.0.0:9090/metrics" or ":9090"
	parts := strings.SplitN(listen, "/", 2)
	addr := parts[0]
	path := "/metrics"
	if len(parts) > 1 {
		path = "/" + parts[1]
	}

	return &PrometheusConfig{
		Listen: addr,
		Path:   path,
	}
}
