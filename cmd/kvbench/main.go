// Command kvbench compares key-value container strategies: a dynamic property
// bag, a dedicated map, and a swiss table, for bulk construction, keyed reads
// and existence-checked reads.
//
// Usage:
//
//	kvbench                              # Run the default suite
//	kvbench -sizes 1000 -groups read     # Only sequential reads of 1000 keys
//	kvbench -config kvbench.json         # Load settings from a file
//	kvbench -output out/benchmarks       # Also write results.json, BENCHMARK.md, ...
package main

import (
	"context"
	_ "embed"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/justjake/kvbench/pkg/bench"
	"github.com/justjake/kvbench/pkg/config"
	"github.com/justjake/kvbench/pkg/observability"
	"github.com/justjake/kvbench/pkg/report"
	"github.com/justjake/kvbench/pkg/suite"
	"github.com/justjake/kvbench/pkg/workload"
)

const version = "0.1.0"

//go:embed README.md
var readmeMarkdown string

var bannerLines = []string{
	` _          _                     _     `,
	`| | ____ __| |__   ___ _ __   ___| |__  `,
	`| |/ /\ V /| '_ \ / _ \ '_ \ / __| '_ \ `,
	`|   <  \ / | |_) |  __/ | | | (__| | | |`,
	`|_|\_\  \_/ |_.__/ \___|_| |_|\___|_| |_|`,
}

// Banner rows fade from the fast color to the slow color of the result
// tables, top to bottom.
var (
	bannerTop, _    = colorful.Hex("#3CB371")
	bannerBottom, _ = colorful.Hex("#E9573F")
)

func printBanner(w io.Writer) {
	rows := make([]string, 0, len(bannerLines)+1)
	for i, line := range bannerLines {
		t := float64(i) / float64(len(bannerLines)-1)
		c := bannerTop.BlendLuv(bannerBottom, t).Clamped()
		rows = append(rows, lipgloss.NewStyle().
			Foreground(lipgloss.Color(c.Hex())).
			Bold(true).
			Render(line))
	}
	rows = append(rows, descStyle.Render(fmt.Sprintf("map vs property bag vs swiss table  v%s", version)))

	fmt.Fprintln(w, lipgloss.NewStyle().Padding(1, 2, 0).Render(lipgloss.JoinVertical(lipgloss.Left, rows...)))
	fmt.Fprintln(w)
}

var (
	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3CB371"))

	descStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	flagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E9573F")).
			Bold(true)
)

// usageSections groups flags for printUsage. Flags not listed here are
// printed under "Other".
var usageSections = []struct {
	title string
	flags []string
}{
	{"Suite", []string{"config", "iterations", "sizes", "containers", "groups", "continue-on-error"}},
	{"Output", []string{"format", "output", "json", "v", "help"}},
	{"Metrics", []string{"prometheus-listen"}},
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	printBanner(w)

	fmt.Fprintln(w, sectionStyle.Render("Usage"))
	fmt.Fprintf(w, "  %s [options]\n\n", fs.Name())

	printed := map[string]bool{}
	printFlag := func(f *flag.Flag) {
		printed[f.Name] = true
		argName, usage := flag.UnquoteUsage(f)
		name := "-" + f.Name
		if argName != "" {
			name += " " + argName
		}
		fmt.Fprintf(w, "  %s\n      %s\n", flagStyle.Render(name), usage)
	}

	for _, section := range usageSections {
		fmt.Fprintln(w, sectionStyle.Render(section.title))
		for _, name := range section.flags {
			if f := fs.Lookup(name); f != nil {
				printFlag(f)
			}
		}
		fmt.Fprintln(w)
	}

	var other []*flag.Flag
	fs.VisitAll(func(f *flag.Flag) {
		if !printed[f.Name] {
			other = append(other, f)
		}
	})
	if len(other) > 0 {
		fmt.Fprintln(w, sectionStyle.Render("Other"))
		for _, f := range other {
			printFlag(f)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, descStyle.Render("  kvbench -iterations 50 -sizes 100,1e4 -containers map,bag"))
	fmt.Fprintln(w, descStyle.Render("  Run 'kvbench -help' for full documentation."))
	fmt.Fprintln(w)
}

func printFullDocs() {
	out, err := report.RenderMarkdown(readmeMarkdown, report.TerminalWidth(os.Stdout, 80))
	if err != nil {
		// Fallback to raw markdown
		fmt.Println(readmeMarkdown)
		return
	}
	fmt.Print(out)
}

// cliFlags holds the command line. Only flags the user set are applied over
// the config file.
type cliFlags struct {
	fs *flag.FlagSet

	configPath      string
	iterations      int
	sizes           string
	containers      string
	groups          string
	format          string
	outputDir       string
	continueOnError bool
	promListen      string
	jsonLogs        bool
	verbose         bool
	showHelp        bool
}

func newCLIFlags(name string, output io.Writer) *cliFlags {
	f := &cliFlags{fs: flag.NewFlagSet(name, flag.ContinueOnError)}
	fs := f.fs
	fs.SetOutput(output)
	fs.StringVar(&f.configPath, "config", "", "path to kvbench.json config `file` (optional)")
	fs.IntVar(&f.iterations, "iterations", config.DefaultIterations, "timed invocations per case, at least 1")
	fs.StringVar(&f.sizes, "sizes", "", "comma-separated element `counts` (default 100,100000)")
	fs.StringVar(&f.containers, "containers", "", "comma-separated container `kinds`: map, bag, swiss (default all)")
	fs.StringVar(&f.groups, "groups", "", "comma-separated workload `groups`: create, read, check (default all)")
	fs.StringVar(&f.format, "format", "", "stdout `format`: auto, line, table, markdown (default auto)")
	fs.StringVar(&f.outputDir, "output", "", "`dir` for results.json, BENCHMARK.md, bench.txt and suite.dot")
	fs.BoolVar(&f.continueOnError, "continue-on-error", false, "record failing cases and keep going")
	fs.StringVar(&f.promListen, "prometheus-listen", "", "serve Prometheus metrics at `host:port/path` while running")
	fs.BoolVar(&f.jsonLogs, "json", false, "output logs in JSON format")
	fs.BoolVar(&f.verbose, "v", false, "log every case")
	fs.BoolVar(&f.showHelp, "help", false, "show full documentation")
	fs.Usage = func() { printUsage(output, fs) }
	return f
}

func (f *cliFlags) parse(args []string) error {
	return f.fs.Parse(args)
}

// apply copies the flags that were set on the command line into cfg.
// A list flag that is set but empty is an error rather than a request for
// the default.
func (f *cliFlags) apply(cfg *config.Config) error {
	var errs []error
	list := func(name, value string) []string {
		items := splitList(value)
		if len(items) == 0 {
			errs = append(errs, fmt.Errorf("-%s: no values given", name))
		}
		return items
	}

	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "iterations":
			n := f.iterations
			cfg.Iterations = &n
		case "sizes":
			if items := list(fl.Name, f.sizes); len(items) > 0 {
				parsed, err := parseInts(f.sizes)
				if err != nil {
					errs = append(errs, fmt.Errorf("-sizes: %w", err))
				}
				cfg.Sizes = parsed
			}
		case "containers":
			cfg.Containers = list(fl.Name, f.containers)
		case "groups":
			cfg.Groups = list(fl.Name, f.groups)
		case "format":
			cfg.Format = config.Format(f.format)
		case "output":
			cfg.OutputDir = f.outputDir
		case "continue-on-error":
			cfg.ContinueOnError = f.continueOnError
		case "prometheus-listen":
			cfg.Prometheus = config.ParsePrometheusListen(f.promListen)
		}
	})
	return errors.Join(errs...)
}

// loadConfig reads the config file, if any, applies the command line over it
// and validates the result.
func (f *cliFlags) loadConfig() (*config.Config, error) {
	cfg := &config.Config{}
	if f.configPath != "" {
		var err error
		cfg, err = config.ReadConfigFile(f.configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	if err := f.apply(cfg); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := newCLIFlags("kvbench", os.Stderr)
	if err := flags.parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if flags.showHelp {
		printFullDocs()
		return 0
	}

	// Logs go to stderr; stdout carries results.
	level := slog.LevelInfo
	if flags.verbose {
		level = slog.LevelDebug
	}
	var handler slog.Handler
	if flags.jsonLogs {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	cfg, err := flags.loadConfig()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return 2
	}

	opts, err := cfg.WorkloadOptions()
	if err != nil {
		logger.Error("invalid workload selection", "error", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received shutdown signal, stopping after the current case", "signal", sig)
		cancel()
	}()

	runner := bench.NewRunner(bench.NewMonotonicClock())

	if cfg.Prometheus != nil {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		metrics := observability.NewMetrics(reg, cfg.Prometheus.ExtraLabels)
		runner = runner.WithObserver(metrics)

		srv := observability.NewMetricsServer(cfg.Prometheus, reg, logger)
		if err := srv.Start(); err != nil {
			logger.Error("failed to start metrics server", "error", err)
			return 1
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("metrics server shutdown", "error", err)
			}
		}()
	}

	tp, err := observability.NewTracerProvider(ctx, cfg.OpenTelemetry, version)
	if err != nil {
		logger.Error("failed to set up tracing", "error", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracer shutdown", "error", err)
		}
	}()

	// Prefilling the read containers happens here, before any timing.
	catalogue, err := workload.Catalogue(opts)
	if err != nil {
		logger.Error("failed to build workloads", "error", err)
		return 1
	}

	stdoutFormat := cfg.GetFormat()
	if stdoutFormat == config.FormatAuto {
		stdoutFormat = config.FormatLine
		if report.IsTerminal(os.Stdout) {
			stdoutFormat = config.FormatTable
		}
	}

	var reporter report.Reporter
	switch stdoutFormat {
	case config.FormatTable:
		reporter = report.NewTableReporter(os.Stdout)
	case config.FormatLine:
		reporter = report.NewLineReporter(os.Stdout)
	default:
		// Markdown is rendered once the suite is done.
		reporter = report.MultiReporter{}
	}

	orchestrator := suite.NewOrchestrator(suite.Config{
		Iterations:      cfg.GetIterations(),
		Groups:          catalogue,
		OutputDir:       cfg.OutputDir,
		ContinueOnError: cfg.ContinueOnError,
		GitDir:          cfg.Dir(),
	}, runner, reporter, logger)
	if tp.Enabled() {
		orchestrator.Tracer = tp.Tracer("kvbench")
	}

	results, runErr := orchestrator.Run(ctx)

	if stdoutFormat == config.FormatMarkdown && results != nil {
		md := report.Markdown(results)
		out, err := report.RenderMarkdown(md, report.TerminalWidth(os.Stdout, 100))
		if err != nil {
			logger.Warn("failed to render markdown", "error", err)
			out = md
		}
		fmt.Print(out)
	}

	if runErr != nil {
		logger.Error("benchmark failed", "error", runErr)
		return 1
	}

	logger.Info("benchmark complete",
		"execution_id", orchestrator.ExecutionID(),
		"cases", results.Cases(),
		"failures", results.Failures())
	if dir := orchestrator.OutputDir(); dir != "" {
		logger.Info("results written", "output_dir", dir)
	}
	if results.Failures() > 0 {
		return 1
	}
	return 0
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseInts(s string) ([]int, error) {
	var out []int
	for _, part := range splitList(s) {
		// Accept the 1e5 style used for large sizes.
		f, err := strconv.ParseFloat(strings.ReplaceAll(part, "_", ""), 64)
		if err != nil || f != float64(int(f)) {
			return nil, fmt.Errorf("invalid size %q", part)
		}
		out = append(out, int(f))
	}
	return out, nil
}
