package bench

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidIterations is returned when a run is requested with fewer than
	// one iteration.
	ErrInvalidIterations = errors.New("iterations must be at least 1")

	// ErrClockAnomaly matches any *ClockAnomalyError.
	ErrClockAnomaly = errors.New("clock went backwards")
)

// InvocationError reports that the operation failed during a timed call.
// The run is aborted and no Result is produced.
type InvocationError struct {
	Iteration int // 1-indexed
	Err       error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("invocation %d failed: %v", e.Iteration, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

// ClockAnomalyError reports a negative elapsed time for one invocation.
type ClockAnomalyError struct {
	Iteration int // 1-indexed
	Delta     time.Duration
}

func (e *ClockAnomalyError) Error() string {
	return fmt.Sprintf("invocation %d measured negative elapsed time %s", e.Iteration, e.Delta)
}

func (e *ClockAnomalyError) Is(target error) bool {
	return target == ErrClockAnomaly
}
