package config

import (
	"errors"
	"fmt"
)

// OpenTelemetryConfig configures OpenTelemetry tracing of suite runs.
// Spans cover whole cases; nothing is traced inside a timed invocation.
type OpenTelemetryConfig struct {
	// Enabled enables OpenTelemetry tracing. Default: false.
	Enabled bool `json:"enabled,omitempty"`

	// ServiceName is the service name to use in traces. Default: "kvbench".
	ServiceName string `json:"service_name,omitempty"`

	// OTLPEndpoint is the OTLP collector endpoint.
	// If not set, the OTEL_EXPORTER_OTLP_ENDPOINT environment variable is used.
	OTLPEndpoint string `json:"otlp_endpoint,omitempty"`

	// OTLPProtocol is the OTLP protocol to use: "grpc" or "http". Default: "grpc".
	OTLPProtocol string `json:"otlp_protocol,omitempty"`

	// SamplingRate is the sampling rate from 0.0 to 1.0. Default: 1.0 (sample all).
	SamplingRate *float64 `json:"sampling_rate,omitempty"`

	// ExtraAttributes are added to the trace resource.
	ExtraAttributes map[string]string `json:"extra_attributes,omitempty"`
}

// GetServiceName returns the service name, defaulting to "kvbench".
func (c *OpenTelemetryConfig) GetServiceName() string {
	if c.ServiceName == "" {
		return "kvbench"
	}
	return c.ServiceName
}

// GetOTLPProtocol returns the OTLP protocol, defaulting to "grpc".
func (c *OpenTelemetryConfig) GetOTLPProtocol() string {
	if c.OTLPProtocol == "" {
		return "grpc"
	}
	return c.OTLPProtocol
}

// GetSamplingRate returns the sampling rate, defaulting to 1.0.
func (c *OpenTelemetryConfig) GetSamplingRate() float64 {
	if c.SamplingRate == nil {
		return 1.0
	}
	return *c.SamplingRate
}

// Validate validates the OpenTelemetry configuration.
func (c *OpenTelemetryConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	var errs []error

	protocol := c.GetOTLPProtocol()
	if protocol != "grpc" && protocol != "http" {
		errs = append(errs, fmt.Errorf("otlp_protocol must be \"grpc\" or \"http\", got %q", protocol))
	}

	rate := c.GetSamplingRate()
	if rate < 0.0 || rate > 1.0 {
		errs = append(errs, fmt.Errorf("sampling_rate must be between 0.0 and 1.0, got %f", rate))
	}

	return errors.Join(errs...)
}
