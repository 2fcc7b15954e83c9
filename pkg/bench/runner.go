// Package bench times repeated invocations of an operation and summarizes
// them as minimum, average and maximum elapsed time.
//
// A run is a single synchronous pass: each invocation finishes before the next
// one is timed, and the first failing invocation aborts the run. Nothing else
// (logging, metrics, observers) happens between the two clock reads.
package bench

import (
	"fmt"
	"time"
)

// Operation is a workload body. It receives the same argument value on every
// invocation.
type Operation[A any] func(args A) error

// Result summarizes one run. Min <= Avg <= Max always holds.
type Result struct {
	Min time.Duration `json:"min"`
	Avg time.Duration `json:"avg"`
	Max time.Duration `json:"max"`
}

// Milliseconds returns min, avg and max as fractional milliseconds.
func (r Result) Milliseconds() (minMs, avgMs, maxMs float64) {
	return ms(r.Min), ms(r.Avg), ms(r.Max)
}

func (r Result) String() string {
	return fmt.Sprintf("min=%s avg=%s max=%s", r.Min, r.Avg, r.Max)
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// SampleObserver is notified about a run as it progresses. Callbacks are
// invoked outside the timed window.
type SampleObserver interface {
	ObserveSample(label string, sample time.Duration)
	ObserveResult(label string, result Result)
	ObserveFailure(label string, err error)
}

// Runner carries the collaborators of a run. The zero value is ready to use
// and times with a MonotonicClock.
type Runner struct {
	Clock    Clock
	Observer SampleObserver
}

// NewRunner returns a Runner that reads time from clock.
func NewRunner(clock Clock) *Runner {
	return &Runner{Clock: clock}
}

// WithObserver returns a copy of r that reports to obs.
func (r *Runner) WithObserver(obs SampleObserver) *Runner {
	cp := Runner{Observer: obs}
	if r != nil {
		cp.Clock = r.Clock
	}
	return &cp
}

func (r *Runner) clock() Clock {
	if r == nil || r.Clock == nil {
		return NewMonotonicClock()
	}
	return r.Clock
}

func (r *Runner) observer() SampleObserver {
	if r == nil {
		return nil
	}
	return r.Observer
}

// Run invokes op(args) iterations times, timing each invocation separately.
func Run[A any](r *Runner, op Operation[A], iterations int, args A) (Result, error) {
	return run(r, "", op, iterations, args)
}

func run[A any](r *Runner, label string, op Operation[A], iterations int, args A) (Result, error) {
	if iterations < 1 {
		return Result{}, fmt.Errorf("%w: got %d", ErrInvalidIterations, iterations)
	}

	clock := r.clock()
	obs := r.observer()

	var (
		sum    time.Duration
		minDur time.Duration
		maxDur time.Duration
	)
	for i := 1; i <= iterations; i++ {
		start := clock.Now()
		err := op(args)
		end := clock.Now()

		if err != nil {
			err = &InvocationError{Iteration: i, Err: err}
			if obs != nil {
				obs.ObserveFailure(label, err)
			}
			return Result{}, err
		}

		delta := end - start
		if delta < 0 {
			err := &ClockAnomalyError{Iteration: i, Delta: delta}
			if obs != nil {
				obs.ObserveFailure(label, err)
			}
			return Result{}, err
		}

		// The first sample seeds both extremes; later ties keep it.
		if i == 1 || delta < minDur {
			minDur = delta
		}
		if i == 1 || delta > maxDur {
			maxDur = delta
		}
		sum += delta

		if obs != nil {
			obs.ObserveSample(label, delta)
		}
	}

	res := Result{
		Min: minDur,
		Avg: sum / time.Duration(iterations),
		Max: maxDur,
	}
	if obs != nil {
		obs.ObserveResult(label, res)
	}
	return res, nil
}
