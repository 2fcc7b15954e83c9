// Package report formats benchmark results for people and tools: console
// lines and tables, a markdown report, benchstat-compatible text, a graphviz
// comparison graph, and results.json.
package report

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/justjake/kvbench/pkg/bench"
)

// GitMetadata captures git state of the checkout running the suite.
type GitMetadata struct {
	SHA      string `json:"sha"`       // Full commit SHA
	ShortSHA string `json:"short_sha"` // First 7 chars of SHA
	Branch   string `json:"branch"`    // Current branch name
	Dirty    bool   `json:"dirty"`     // True if uncommitted changes
}

// String returns a human-readable summary of the git metadata.
func (g *GitMetadata) String() string {
	dirty := ""
	if g.Dirty {
		dirty = " (dirty)"
	}
	return fmt.Sprintf("%s@%s%s", g.Branch, g.ShortSHA, dirty)
}

// RunnerInfo describes the machine and build that produced the results.
type RunnerInfo struct {
	Git       *GitMetadata `json:"git,omitempty"`
	GoVersion string       `json:"go_version"`
	GOOS      string       `json:"goos"`
	GOARCH    string       `json:"goarch"`
}

// Results is the top-level structure for results.json.
type Results struct {
	ExecutionID string        `json:"execution_id"`
	Timestamp   time.Time     `json:"timestamp"`
	Runner      RunnerInfo    `json:"runner"`
	Iterations  int           `json:"iterations"`
	Groups      []GroupResult `json:"groups"`
}

// GroupResult contains results for a single workload group.
type GroupResult struct {
	Name  string       `json:"name"`
	Cases []CaseResult `json:"cases"`
}

// CaseResult contains the outcome of a single case. Exactly one of Result and
// Error is set.
type CaseResult struct {
	Label      string        `json:"label"`
	Operation  string        `json:"operation"`
	Container  string        `json:"container"`
	N          int           `json:"n"`
	Iterations int           `json:"iterations"`
	Result     *bench.Result `json:"result,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// Failed reports whether the case did not produce a result.
func (c CaseResult) Failed() bool {
	return c.Result == nil
}

// Cases returns the number of cases across all groups.
func (r *Results) Cases() int {
	n := 0
	for _, g := range r.Groups {
		n += len(g.Cases)
	}
	return n
}

// Failures returns the number of failed cases across all groups.
func (r *Results) Failures() int {
	n := 0
	for _, g := range r.Groups {
		for _, c := range g.Cases {
			if c.Failed() {
				n++
			}
		}
	}
	return n
}

// JSON encodes results as indented JSON.
func JSON(r *Results) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
