package report

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/justjake/kvbench/pkg/container"
)

// Markdown returns the BENCHMARK.md report for results.
func Markdown(r *Results) string {
	var b strings.Builder

	b.WriteString("# Benchmark Results\n\n")
	fmt.Fprintf(&b, "**Execution ID:** `%s`\n\n", r.ExecutionID)
	fmt.Fprintf(&b, "**Timestamp:** %s\n\n", r.Timestamp.Format(time.RFC3339))
	if g := r.Runner.Git; g != nil {
		fmt.Fprintf(&b, "**Git:** `%s`\n\n", g)
	}

	b.WriteString("## Configuration\n\n")
	b.WriteString("| Setting | Value |\n")
	b.WriteString("|---------|-------|\n")
	fmt.Fprintf(&b, "| Iterations | %d |\n", r.Iterations)
	fmt.Fprintf(&b, "| Cases | %d |\n", r.Cases())
	fmt.Fprintf(&b, "| Failures | %d |\n", r.Failures())
	fmt.Fprintf(&b, "| Go | %s %s/%s |\n", r.Runner.GoVersion, r.Runner.GOOS, r.Runner.GOARCH)
	b.WriteString("\n")

	if kinds := containerKinds(r); len(kinds) > 0 {
		b.WriteString("## Containers\n\n")
		for _, k := range kinds {
			fmt.Fprintf(&b, "- `%s`: %s\n", k, k.Describe())
		}
		b.WriteString("\n")
	}

	b.WriteString("Times are per invocation, in milliseconds.\n\n")

	for _, g := range r.Groups {
		fmt.Fprintf(&b, "## %s\n\n", g.Name)
		b.WriteString("| Case | min | avg | max |\n")
		b.WriteString("|------|-----|-----|-----|\n")
		for _, c := range g.Cases {
			if c.Failed() {
				fmt.Fprintf(&b, "| %s | error | %s | |\n", c.Label, escapeCell(c.Error))
				continue
			}
			minMs, avgMs, maxMs := c.Result.Milliseconds()
			fmt.Fprintf(&b, "| %s | %.4f | %.4f | %.4f |\n", c.Label, minMs, avgMs, maxMs)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// containerKinds returns the container kinds in r, in first-seen order.
func containerKinds(r *Results) []container.Kind {
	var kinds []container.Kind
	for _, g := range r.Groups {
		for _, c := range g.Cases {
			k := container.Kind(c.Container)
			if k != "" && !slices.Contains(kinds, k) {
				kinds = append(kinds, k)
			}
		}
	}
	return kinds
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// RenderMarkdown renders markdown for a terminal of the given width.
func RenderMarkdown(md string, width int) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return renderer.Render(md)
}
