package bench

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedClock returns readings in order and fails the test if it runs out.
type scriptedClock struct {
	t        *testing.T
	readings []time.Duration
	next     int
}

func (c *scriptedClock) Now() time.Duration {
	c.t.Helper()
	require.Less(c.t, c.next, len(c.readings), "clock read more times than scripted")
	d := c.readings[c.next]
	c.next++
	return d
}

// deltasClock produces start/end pairs so that each invocation measures the
// given delta.
func deltasClock(t *testing.T, deltas ...time.Duration) *scriptedClock {
	var readings []time.Duration
	var now time.Duration
	for _, d := range deltas {
		readings = append(readings, now, now+d)
		now += d + time.Microsecond
	}
	return &scriptedClock{t: t, readings: readings}
}

func noop(struct{}) error { return nil }

type recordingObserver struct {
	samples  []time.Duration
	results  []Result
	failures []error
}

func (o *recordingObserver) ObserveSample(_ string, d time.Duration) { o.samples = append(o.samples, d) }
func (o *recordingObserver) ObserveResult(_ string, r Result)        { o.results = append(o.results, r) }
func (o *recordingObserver) ObserveFailure(_ string, err error)      { o.failures = append(o.failures, err) }

func TestRun_Aggregates(t *testing.T) {
	clock := deltasClock(t, 3*time.Millisecond, 1*time.Millisecond, 5*time.Millisecond, 3*time.Millisecond)

	res, err := Run(NewRunner(clock), noop, 4, struct{}{})
	require.NoError(t, err)

	assert.Equal(t, 1*time.Millisecond, res.Min)
	assert.Equal(t, 3*time.Millisecond, res.Avg)
	assert.Equal(t, 5*time.Millisecond, res.Max)
	assert.Equal(t, len(clock.readings), clock.next, "every scripted reading should be consumed")
}

func TestRun_SingleIteration(t *testing.T) {
	clock := deltasClock(t, 7*time.Microsecond)

	res, err := Run(NewRunner(clock), noop, 1, struct{}{})
	require.NoError(t, err)

	assert.Equal(t, res.Min, res.Avg)
	assert.Equal(t, res.Avg, res.Max)
	assert.Equal(t, 7*time.Microsecond, res.Min)
}

func TestRun_IdenticalSamples(t *testing.T) {
	clock := deltasClock(t, time.Millisecond, time.Millisecond, time.Millisecond)

	res, err := Run(NewRunner(clock), noop, 3, struct{}{})
	require.NoError(t, err)
	assert.Equal(t, Result{Min: time.Millisecond, Avg: time.Millisecond, Max: time.Millisecond}, res)
}

func TestRun_ZeroDurationSamples(t *testing.T) {
	clock := deltasClock(t, 0, 0)

	res, err := Run(NewRunner(clock), noop, 2, struct{}{})
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
}

func TestRun_InvalidIterations(t *testing.T) {
	for _, n := range []int{0, -1, -100} {
		calls := 0
		op := func(struct{}) error {
			calls++
			return nil
		}

		_, err := Run(NewRunner(deltasClock(t)), op, n, struct{}{})
		require.ErrorIs(t, err, ErrInvalidIterations, "iterations=%d", n)
		assert.Zero(t, calls, "operation must not run for iterations=%d", n)
	}
}

func TestRun_FailureOnKthInvocation(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name       string
		iterations int
		failAt     int
	}{
		{name: "first", iterations: 5, failAt: 1},
		{name: "middle", iterations: 5, failAt: 3},
		{name: "last", iterations: 5, failAt: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			op := func(struct{}) error {
				calls++
				if calls == tt.failAt {
					return boom
				}
				return nil
			}

			deltas := make([]time.Duration, tt.iterations)
			for i := range deltas {
				deltas[i] = time.Millisecond
			}
			obs := &recordingObserver{}
			r := NewRunner(deltasClock(t, deltas...)).WithObserver(obs)

			res, err := Run(r, op, tt.iterations, struct{}{})
			require.Error(t, err)
			assert.Equal(t, Result{}, res)
			assert.ErrorIs(t, err, boom)

			var invErr *InvocationError
			require.ErrorAs(t, err, &invErr)
			assert.Equal(t, tt.failAt, invErr.Iteration)
			assert.Equal(t, tt.failAt, calls, "remaining invocations must be skipped")

			assert.Len(t, obs.samples, tt.failAt-1)
			assert.Empty(t, obs.results)
			assert.Len(t, obs.failures, 1)
		})
	}
}

func TestRun_AlwaysFailingWorkload(t *testing.T) {
	calls := 0
	op := func(struct{}) error {
		calls++
		return errors.New("always")
	}

	_, err := Run(&Runner{}, op, 5, struct{}{})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRun_PanicPropagates(t *testing.T) {
	op := func(struct{}) error { panic("workload exploded") }

	assert.PanicsWithValue(t, "workload exploded", func() {
		_, _ = Run(&Runner{}, op, 3, struct{}{})
	})
}

func TestRun_NegativeDeltaIsClockAnomaly(t *testing.T) {
	clock := &scriptedClock{t: t, readings: []time.Duration{
		10 * time.Millisecond, 12 * time.Millisecond,
		20 * time.Millisecond, 19 * time.Millisecond,
	}}
	obs := &recordingObserver{}

	res, err := Run(NewRunner(clock).WithObserver(obs), noop, 5, struct{}{})
	require.ErrorIs(t, err, ErrClockAnomaly)
	assert.Equal(t, Result{}, res)

	var anomaly *ClockAnomalyError
	require.ErrorAs(t, err, &anomaly)
	assert.Equal(t, 2, anomaly.Iteration)
	assert.Equal(t, -time.Millisecond, anomaly.Delta)

	assert.Equal(t, []time.Duration{2 * time.Millisecond}, obs.samples)
	assert.Len(t, obs.failures, 1)
}

func TestRun_PassesSameArgsEveryTime(t *testing.T) {
	type args struct {
		n    int
		name string
	}
	var seen []args
	op := func(a args) error {
		seen = append(seen, a)
		return nil
	}

	_, err := Run(&Runner{}, op, 3, args{n: 42, name: "x"})
	require.NoError(t, err)
	assert.Equal(t, []args{{42, "x"}, {42, "x"}, {42, "x"}}, seen)
}

func TestRun_NoopWorkloadRealClock(t *testing.T) {
	res, err := Run(nil, noop, 1000, struct{}{})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, res.Min, time.Duration(0))
	assert.LessOrEqual(t, res.Min, res.Avg)
	assert.LessOrEqual(t, res.Avg, res.Max)
}

func TestRun_BusyLoopWithinTolerance(t *testing.T) {
	const spin = 200 * time.Microsecond
	op := func(d time.Duration) error {
		start := time.Now()
		for time.Since(start) < d {
		}
		return nil
	}

	res, err := Run(NewRunner(NewMonotonicClock()), op, 50, spin)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, res.Min, spin)
	assert.LessOrEqual(t, res.Min, res.Avg)
	assert.LessOrEqual(t, res.Avg, res.Max)
	// Generous: scheduling noise on a loaded CI box can be large.
	assert.Less(t, res.Avg, 50*spin)
}

func TestWorkload_RunUsesLabel(t *testing.T) {
	obs := &recordingObserver{}
	w := NewWorkload("noop", noop, struct{}{})

	var c Case = w
	assert.Equal(t, "noop", c.Label())

	res, err := c.Run(NewRunner(deltasClock(t, time.Millisecond, 3*time.Millisecond)).WithObserver(obs), 2)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Millisecond, res.Avg)
	assert.Equal(t, []Result{res}, obs.results)
}

func TestResult_Milliseconds(t *testing.T) {
	r := Result{Min: 500 * time.Microsecond, Avg: time.Millisecond, Max: 2500 * time.Microsecond}
	minMs, avgMs, maxMs := r.Milliseconds()
	assert.InDelta(t, 0.5, minMs, 1e-9)
	assert.InDelta(t, 1.0, avgMs, 1e-9)
	assert.InDelta(t, 2.5, maxMs, 1e-9)
}
