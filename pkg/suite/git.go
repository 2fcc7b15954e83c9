package suite

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/justjake/kvbench/pkg/report"
)

// errNoCommits is returned for a repository whose HEAD has no commit yet.
var errNoCommits = errors.New("repository has no commits")

// GetGitMetadata captures the commit, branch and dirty state of the checkout
// containing dir with a single `git status --porcelain=v2 --branch` call.
func GetGitMetadata(ctx context.Context, dir string) (*report.GitMetadata, error) {
	cmd := exec.CommandContext(ctx, "git", "-C", dir, "status", "--porcelain=v2", "--branch")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git status in %s: %w", dir, err)
	}
	return parseGitStatus(string(out))
}

// parseGitStatus reads porcelain v2 output. Header lines start with "# ";
// any other line is a changed or untracked path and marks the tree dirty.
func parseGitStatus(out string) (*report.GitMetadata, error) {
	meta := &report.GitMetadata{}
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		header, ok := strings.CutPrefix(line, "# ")
		if !ok {
			meta.Dirty = true
			continue
		}
		key, value, _ := strings.Cut(header, " ")
		switch key {
		case "branch.oid":
			if value == "(initial)" {
				return nil, errNoCommits
			}
			meta.SHA = value
			meta.ShortSHA = value[:min(7, len(value))]
		case "branch.head":
			// Detached checkouts report "(detached)".
			if value == "(detached)" {
				value = "HEAD"
			}
			meta.Branch = value
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if meta.SHA == "" {
		return nil, errors.New("git status: missing branch.oid header")
	}
	return meta, nil
}

// gitAttributes returns git metadata as span attributes.
func gitAttributes(g *report.GitMetadata) []attribute.KeyValue {
	if g == nil {
		return nil
	}
	return []attribute.KeyValue{
		attribute.String("git.sha", g.SHA),
		attribute.String("git.branch", g.Branch),
		attribute.Bool("git.dirty", g.Dirty),
	}
}
