package report

import (
	"fmt"
	"runtime"
	"strings"
)

// GoBench returns results in the Go benchmark text format so benchstat can
// read them:
//
//	BenchmarkCreateAndFill/container=map/n=100 	     100	     12345 ns/op
//
// The reported ns/op is the average. Failed cases are omitted.
func GoBench(r *Results) string {
	var b strings.Builder

	fmt.Fprintf(&b, "goos: %s\n", r.Runner.GOOS)
	fmt.Fprintf(&b, "goarch: %s\n", r.Runner.GOARCH)
	b.WriteString("pkg: github.com/justjake/kvbench/pkg/workload\n")

	for _, g := range r.Groups {
		for _, c := range g.Cases {
			if c.Failed() {
				continue
			}
			fmt.Fprintf(&b, "%s \t%8d\t%10d ns/op\n", BenchmarkName(c), c.Iterations, c.Result.Avg.Nanoseconds())
		}
	}
	return b.String()
}

// BenchmarkName returns the benchstat name of a case. The GOMAXPROCS suffix
// matches what `go test -bench` would print.
func BenchmarkName(c CaseResult) string {
	name := fmt.Sprintf("Benchmark%s/container=%s/n=%d", c.Operation, c.Container, c.N)
	if procs := runtime.GOMAXPROCS(0); procs > 1 {
		name = fmt.Sprintf("%s-%d", name, procs)
	}
	return name
}
