package suite

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"

	"github.com/justjake/kvbench/pkg/report"
)

func TestParseGitStatus(t *testing.T) {
	const sha = "d2169b0f3c1e8a7b6d5c4e3f2a1b0c9d8e7f6a5b"
	tests := []struct {
		name    string
		out     string
		want    *report.GitMetadata
		wantErr bool
	}{
		{
			name: "clean",
			out:  "# branch.oid " + sha + "\n# branch.head main\n# branch.upstream origin/main\n# branch.ab +0 -0\n",
			want: &report.GitMetadata{SHA: sha, ShortSHA: "d2169b0", Branch: "main"},
		},
		{
			name: "modified",
			out:  "# branch.oid " + sha + "\n# branch.head feature/x\n1 .M N... 100644 100644 100644 aaa bbb pkg/bench/runner.go\n",
			want: &report.GitMetadata{SHA: sha, ShortSHA: "d2169b0", Branch: "feature/x", Dirty: true},
		},
		{
			name: "untracked",
			out:  "# branch.oid " + sha + "\n# branch.head main\n? notes.txt\n",
			want: &report.GitMetadata{SHA: sha, ShortSHA: "d2169b0", Branch: "main", Dirty: true},
		},
		{
			name: "detached",
			out:  "# branch.oid " + sha + "\n# branch.head (detached)\n",
			want: &report.GitMetadata{SHA: sha, ShortSHA: "d2169b0", Branch: "HEAD"},
		},
		{
			name: "short oid",
			out:  "# branch.oid abc\n# branch.head main\n",
			want: &report.GitMetadata{SHA: "abc", ShortSHA: "abc", Branch: "main"},
		},
		{
			name:    "no commits",
			out:     "# branch.oid (initial)\n# branch.head main\n",
			wantErr: true,
		},
		{
			name:    "no headers",
			out:     "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseGitStatus(tt.out)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetGitMetadata_Repository(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	git := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", append([]string{"-C", dir, "-c", "user.name=kvbench", "-c", "user.email=kvbench@example.com"}, args...)...)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	git("init", "-q", "-b", "bench")
	git("commit", "-q", "--allow-empty", "-m", "init")

	meta, err := GetGitMetadata(context.Background(), dir)
	require.NoError(t, err)
	assert.Len(t, meta.SHA, 40)
	assert.Equal(t, meta.SHA[:7], meta.ShortSHA)
	assert.Equal(t, "bench", meta.Branch)
	assert.False(t, meta.Dirty)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "results.json"), []byte("{}"), 0644))
	meta, err = GetGitMetadata(context.Background(), dir)
	require.NoError(t, err)
	assert.True(t, meta.Dirty)
}

func TestGetGitMetadata_NotARepository(t *testing.T) {
	_, err := GetGitMetadata(context.Background(), t.TempDir())
	assert.Error(t, err)
}

func TestGitAttributes(t *testing.T) {
	assert.Nil(t, gitAttributes(nil))

	attrs := gitAttributes(&report.GitMetadata{SHA: "abc", ShortSHA: "abc", Branch: "main", Dirty: true})
	assert.Equal(t, []attribute.KeyValue{
		attribute.String("git.sha", "abc"),
		attribute.String("git.branch", "main"),
		attribute.Bool("git.dirty", true),
	}, attrs)
}
