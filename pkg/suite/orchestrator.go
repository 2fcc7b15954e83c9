// Package suite runs the workload catalogue through the benchmark runner,
// streams results to reporters, and writes the run's output directory.
package suite

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/justjake/kvbench/pkg/bench"
	"github.com/justjake/kvbench/pkg/observability"
	"github.com/justjake/kvbench/pkg/report"
	"github.com/justjake/kvbench/pkg/workload"
)

// Config configures an Orchestrator.
type Config struct {
	// Iterations is the number of timed invocations per case.
	Iterations int
	// Groups are the cases to run, in order.
	Groups []workload.Group
	// OutputDir, if set, is the parent directory for this run's output files.
	OutputDir string
	// ContinueOnError records failing cases and keeps going instead of
	// stopping the suite at the first failure.
	ContinueOnError bool
	// GitDir is the checkout whose git metadata is recorded. Default: ".".
	GitDir string
}

// Orchestrator runs a suite of benchmark cases.
type Orchestrator struct {
	Config   Config
	Runner   *bench.Runner
	Reporter report.Reporter
	Tracer   trace.Tracer
	Logger   *slog.Logger

	executionID string
	outputDir   string
}

// NewOrchestrator creates a new Orchestrator. runner and reporter may be nil.
func NewOrchestrator(cfg Config, runner *bench.Runner, reporter report.Reporter, logger *slog.Logger) *Orchestrator {
	if runner == nil {
		runner = bench.NewRunner(bench.NewMonotonicClock())
	}
	if reporter == nil {
		reporter = report.MultiReporter{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		Config:   cfg,
		Runner:   runner,
		Reporter: reporter,
		Tracer:   noop.NewTracerProvider().Tracer("kvbench"),
		Logger:   logger,
	}
}

// CaseError reports the case that stopped a suite.
type CaseError struct {
	Group string
	Case  string
	Err   error
}

func (e *CaseError) Error() string {
	return fmt.Sprintf("%s/%s: %v", e.Group, e.Case, e.Err)
}

func (e *CaseError) Unwrap() error {
	return e.Err
}

// Run executes the suite. The returned Results hold every case that ran,
// including the failing one when the suite stopped early, so callers can
// still write what was measured.
func (o *Orchestrator) Run(ctx context.Context) (*report.Results, error) {
	o.executionID = generateExecutionID()

	results := &report.Results{
		ExecutionID: o.executionID,
		Timestamp:   time.Now(),
		Runner:      o.runnerInfo(ctx),
		Iterations:  o.Config.Iterations,
		Groups:      make([]report.GroupResult, 0, len(o.Config.Groups)),
	}

	total := 0
	for _, g := range o.Config.Groups {
		total += len(g.Cases)
	}
	o.Logger.Info("starting benchmark suite",
		"execution_id", o.executionID,
		"groups", len(o.Config.Groups),
		"cases", total,
		"iterations", o.Config.Iterations)

	suiteAttrs := append([]attribute.KeyValue{
		attribute.Int(observability.AttrIterations, o.Config.Iterations),
		attribute.String("go.version", results.Runner.GoVersion),
	}, gitAttributes(results.Runner.Git)...)
	ctx, span := o.Tracer.Start(ctx, "kvbench.suite", trace.WithAttributes(suiteAttrs...))
	runErr := o.runGroups(ctx, results, total)
	if runErr != nil {
		observability.EndSpan(span, bench.Result{}, runErr)
	} else {
		span.End()
	}

	if err := o.Reporter.Flush(); err != nil {
		o.Logger.Warn("failed to flush reporter", "error", err)
	}

	if o.Config.OutputDir != "" {
		if err := o.writeOutput(results); err != nil {
			o.Logger.Error("failed to write output", "error", err)
		}
	}

	return results, runErr
}

func (o *Orchestrator) runGroups(ctx context.Context, results *report.Results, total int) error {
	done := 0
	for _, g := range o.Config.Groups {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := o.Reporter.Group(string(g.Name)); err != nil {
			o.Logger.Warn("reporter failed", "group", g.Name, "error", err)
		}
		gr := report.GroupResult{Name: string(g.Name)}
		results.Groups = append(results.Groups, gr)
		cur := &results.Groups[len(results.Groups)-1]

		for _, c := range g.Cases {
			if err := ctx.Err(); err != nil {
				return err
			}
			done++

			cr, err := o.runCase(ctx, g.Name, c, fmt.Sprintf("%d/%d", done, total))
			cur.Cases = append(cur.Cases, cr)
			if err != nil && !o.Config.ContinueOnError {
				return &CaseError{Group: string(g.Name), Case: c.Label(), Err: err}
			}
		}
	}
	return nil
}

func (o *Orchestrator) runCase(ctx context.Context, group workload.GroupName, c workload.Case, progress string) (report.CaseResult, error) {
	label := c.Label()
	cr := report.CaseResult{
		Label:      label,
		Operation:  c.Operation,
		Container:  string(c.Kind),
		N:          c.N,
		Iterations: o.Config.Iterations,
	}

	o.Logger.Debug("running case", "case", label, "progress", progress)

	_, span := o.Tracer.Start(ctx, "kvbench.case", trace.WithAttributes(
		attribute.String(observability.AttrCase, label),
		attribute.String(observability.AttrGroup, string(group)),
		attribute.String(observability.AttrContainer, string(c.Kind)),
		attribute.Int(observability.AttrSize, c.N),
		attribute.Int(observability.AttrIterations, o.Config.Iterations),
	))
	res, err := c.Run(o.Runner, o.Config.Iterations)
	observability.EndSpan(span, res, err)

	if err != nil {
		cr.Error = err.Error()
		o.Logger.Error("case failed", "case", label, "progress", progress, "error", err)
		if rerr := o.Reporter.Fail(label, err); rerr != nil {
			o.Logger.Warn("reporter failed", "case", label, "error", rerr)
		}
		return cr, err
	}

	cr.Result = &res
	o.Logger.Debug("case complete", "case", label, "min", res.Min, "avg", res.Avg, "max", res.Max)
	if rerr := o.Reporter.Report(label, res); rerr != nil {
		o.Logger.Warn("reporter failed", "case", label, "error", rerr)
	}
	return cr, nil
}

func (o *Orchestrator) runnerInfo(ctx context.Context) report.RunnerInfo {
	info := report.RunnerInfo{
		GoVersion: runtime.Version(),
		GOOS:      runtime.GOOS,
		GOARCH:    runtime.GOARCH,
	}
	dir := o.Config.GitDir
	if dir == "" {
		dir = "."
	}
	git, err := GetGitMetadata(ctx, dir)
	if err != nil {
		o.Logger.Debug("git metadata unavailable", "error", err)
	} else {
		info.Git = git
	}
	return info
}

// writeOutput writes results.json, BENCHMARK.md, bench.txt and suite.dot into
// a fresh directory under Config.OutputDir and points "latest" at it.
func (o *Orchestrator) writeOutput(results *report.Results) error {
	timestamp := results.Timestamp.Format("2006-01-02T15-04-05")
	o.outputDir = filepath.Join(o.Config.OutputDir, fmt.Sprintf("%s-%s", timestamp, o.executionID[:8]))

	if err := os.MkdirAll(o.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	data, err := report.JSON(results)
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	if err := os.WriteFile(filepath.Join(o.outputDir, "results.json"), data, 0644); err != nil {
		return err
	}

	if err := writeFile(filepath.Join(o.outputDir, "BENCHMARK.md"), report.Markdown(results)); err != nil {
		return err
	}

	if err := writeFile(filepath.Join(o.outputDir, "bench.txt"), report.GoBench(results)); err != nil {
		return err
	}

	dot, err := report.DOT(results)
	if err != nil {
		o.Logger.Warn("failed to build graph", "error", err)
	} else if err := writeFile(filepath.Join(o.outputDir, "suite.dot"), dot); err != nil {
		return err
	}

	if err := o.updateLatestSymlink(); err != nil {
		o.Logger.Warn("failed to update latest symlink", "error", err)
	}

	o.Logger.Info("wrote results", "path", o.outputDir)
	return nil
}

// updateLatestSymlink updates the "latest" symlink to point to this run.
func (o *Orchestrator) updateLatestSymlink() error {
	latestPath := filepath.Join(filepath.Dir(o.outputDir), "latest")

	// Remove existing symlink (ignore error if doesn't exist)
	_ = os.Remove(latestPath)

	return os.Symlink(filepath.Base(o.outputDir), latestPath)
}

// OutputDir returns the path to the output directory for this run, or "" if
// nothing was written.
func (o *Orchestrator) OutputDir() string {
	return o.outputDir
}

// ExecutionID returns the unique execution ID for this run.
func (o *Orchestrator) ExecutionID() string {
	return o.executionID
}

// generateExecutionID generates a unique execution ID.
func generateExecutionID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b) // crypto/rand.Read always succeeds on modern systems
	return hex.EncodeToString(b)
}

// writeFile is a helper to write a string to a file.
func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(strings.TrimSpace(content)+"\n"), 0644)
}
