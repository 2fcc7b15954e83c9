// Package workload defines the container operations that are benchmarked:
// bulk construction, sequential keyed reads, and existence-checked reads.
package workload

import (
	"errors"
	"fmt"

	"github.com/justjake/kvbench/pkg/container"
)

// ErrMissingKey is returned by a read workload when a key it expects is absent.
var ErrMissingKey = errors.New("missing key")

// sink keeps read results observable so the compiler cannot drop the loops.
var sink int

// Fill is the argument of CreateAndFill.
type Fill struct {
	Kind container.Kind
	N    int
}

// Read is the argument of the read workloads.
type Read struct {
	Container container.Container
	N         int
}

// CreateAndFill builds a new container and stores Key(i) -> i for i in [0, N).
func CreateAndFill(args Fill) error {
	c, err := container.New(args.Kind)
	if err != nil {
		return err
	}
	for i := 0; i < args.N; i++ {
		c.Set(container.Key(i), i)
	}
	sink = c.Len()
	return nil
}

// ReadSomeTimes sums the values stored under Key(i) for i in [0, N).
func ReadSomeTimes(args Read) error {
	sum := 0
	for i := 0; i < args.N; i++ {
		key := container.Key(i)
		v, ok := args.Container.Get(key)
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingKey, key)
		}
		sum += v
	}
	sink = sum
	return nil
}

// CheckAndReadSomeTimes sums the values of keys that are present, checking
// each key before reading it.
func CheckAndReadSomeTimes(args Read) error {
	sum := 0
	for i := 0; i < args.N; i++ {
		key := container.Key(i)
		if args.Container.Has(key) {
			v, _ := args.Container.Get(key)
			sum += v
		}
	}
	sink = sum
	return nil
}

// Prefill returns a container of the given kind holding N elements, for use
// as a read workload argument. It runs outside any timed region.
func Prefill(kind container.Kind, n int) (container.Container, error) {
	c, err := container.New(kind)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		c.Set(container.Key(i), i)
	}
	return c, nil
}
