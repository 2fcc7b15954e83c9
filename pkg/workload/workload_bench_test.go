package workload

import (
	"fmt"
	"testing"

	"github.com/justjake/kvbench/pkg/container"
)

// These benchmarks run the same workloads under `go test -bench` so results
// can be compared with kvbench's own bench.txt using benchstat.

var benchSizes = []int{100, 100_000}

func BenchmarkCreateAndFill(b *testing.B) {
	for _, kind := range container.Kinds() {
		for _, n := range benchSizes {
			b.Run(fmt.Sprintf("container=%s/n=%d", kind, n), func(b *testing.B) {
				args := Fill{Kind: kind, N: n}
				b.ReportAllocs()
				for b.Loop() {
					if err := CreateAndFill(args); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

func BenchmarkReadSomeTimes(b *testing.B) {
	benchRead(b, ReadSomeTimes)
}

func BenchmarkCheckAndReadSomeTimes(b *testing.B) {
	benchRead(b, CheckAndReadSomeTimes)
}

func benchRead(b *testing.B, op func(Read) error) {
	for _, kind := range container.Kinds() {
		for _, n := range benchSizes {
			b.Run(fmt.Sprintf("container=%s/n=%d", kind, n), func(b *testing.B) {
				c, err := Prefill(kind, n)
				if err != nil {
					b.Fatal(err)
				}
				args := Read{Container: c, N: n}
				b.ReportAllocs()
				for b.Loop() {
					if err := op(args); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}
