package observability

import (
	"errors"

	"github.com/justjake/kvbench/pkg/bench"
)

// ErrorType classifies a run error for metric labels and span status.
func ErrorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, bench.ErrInvalidIterations):
		return "invalid_iterations"
	case errors.Is(err, bench.ErrClockAnomaly):
		return "clock_anomaly"
	case errors.As(err, new(*bench.InvocationError)):
		return "invocation"
	default:
		return "other"
	}
}
