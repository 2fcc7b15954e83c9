package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/awalterschulze/gographviz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justjake/kvbench/pkg/bench"
)

func sampleResults() *Results {
	return &Results{
		ExecutionID: "0123456789abcdef",
		Timestamp:   time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC),
		Runner: RunnerInfo{
			Git:       &GitMetadata{SHA: "d2169b0aaaaaaaaa", ShortSHA: "d2169b0", Branch: "main"},
			GoVersion: "go1.25.5",
			GOOS:      "linux",
			GOARCH:    "amd64",
		},
		Iterations: 100,
		Groups: []GroupResult{
			{
				Name: "create",
				Cases: []CaseResult{
					{
						Label: "createAndFill map 100 records", Operation: "CreateAndFill",
						Container: "map", N: 100, Iterations: 100,
						Result: &bench.Result{Min: 2 * time.Microsecond, Avg: 4 * time.Microsecond, Max: 9 * time.Microsecond},
					},
					{
						Label: "createAndFill bag 100 records", Operation: "CreateAndFill",
						Container: "bag", N: 100, Iterations: 100,
						Result: &bench.Result{Min: 5 * time.Microsecond, Avg: 8 * time.Microsecond, Max: 20 * time.Microsecond},
					},
					{
						Label: "createAndFill swiss 100 records", Operation: "CreateAndFill",
						Container: "swiss", N: 100, Iterations: 100,
						Error: "invocation 3 failed: boom",
					},
				},
			},
		},
	}
}

func TestLineReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewLineReporter(&buf)

	require.NoError(t, r.Group("create"))
	require.NoError(t, r.Report("a", bench.Result{Min: 500 * time.Microsecond, Avg: time.Millisecond, Max: 2 * time.Millisecond}))
	require.NoError(t, r.Group("read"))
	require.NoError(t, r.Fail("b", errors.New("boom")))
	require.NoError(t, r.Flush())

	assert.Equal(t,
		"a => min: 0.5000; avg: 1.0000; max: 2.0000;\n"+
			"------------------------------\n"+
			"b => error: boom\n",
		buf.String())
}

func TestTableReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewTableReporter(&buf)

	require.NoError(t, r.Group("create"))
	require.NoError(t, r.Report("fast case", bench.Result{Min: time.Millisecond, Avg: time.Millisecond, Max: time.Millisecond}))
	require.NoError(t, r.Report("slow case", bench.Result{Min: time.Millisecond, Avg: 3 * time.Millisecond, Max: 4 * time.Millisecond}))
	require.NoError(t, r.Fail("broken case", errors.New("boom")))
	assert.Empty(t, buf.String(), "rows are buffered until the group ends")

	require.NoError(t, r.Group("read"))
	out := buf.String()
	assert.Contains(t, out, "create")
	assert.Contains(t, out, "fast case")
	assert.Contains(t, out, "3.00x")
	assert.Contains(t, out, "boom")

	require.NoError(t, r.Flush())
	assert.Equal(t, out, buf.String(), "empty group prints nothing")
}

func TestTint(t *testing.T) {
	fast := tint(10, 10, 20)
	slow := tint(20, 10, 20)
	assert.NotEqual(t, fast, slow)
	assert.Equal(t, fast, tint(7, 7, 7), "a single timing is treated as fastest")
	assert.Regexp(t, `^#[0-9a-f]{6}$`, slow)
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleResults())

	assert.True(t, strings.HasPrefix(md, "# Benchmark Results\n"))
	assert.Contains(t, md, "`0123456789abcdef`")
	assert.Contains(t, md, "main@d2169b0")
	assert.Contains(t, md, "| Iterations | 100 |")
	assert.Contains(t, md, "| Failures | 1 |")
	assert.Contains(t, md, "## Containers\n\n- `map`: map\n- `bag`: property bag\n- `swiss`: swiss map\n")
	assert.Contains(t, md, "## create")
	assert.Contains(t, md, "| createAndFill map 100 records | 0.0020 | 0.0040 | 0.0090 |")
	assert.Contains(t, md, "| createAndFill swiss 100 records | error | invocation 3 failed: boom | |")
}

func TestRenderMarkdown(t *testing.T) {
	out, err := RenderMarkdown("# Title\n\nsome text\n", 60)
	require.NoError(t, err)
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "some text")
}

func TestGoBench(t *testing.T) {
	out := GoBench(sampleResults())
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)

	assert.Equal(t, "goos: linux", lines[0])
	assert.Equal(t, "goarch: amd64", lines[1])
	assert.True(t, strings.HasPrefix(lines[3], "BenchmarkCreateAndFill/container=map/n=100"))
	assert.True(t, strings.HasSuffix(lines[3], "4000 ns/op"))
	assert.True(t, strings.HasPrefix(lines[4], "BenchmarkCreateAndFill/container=bag/n=100"))
	assert.NotContains(t, out, "swiss", "failed cases are omitted")

	fields := strings.Fields(lines[3])
	require.Len(t, fields, 4)
	assert.Equal(t, "100", fields[1])
}

func TestDOT(t *testing.T) {
	out, err := DOT(sampleResults())
	require.NoError(t, err)

	g, err := gographviz.Read([]byte(out))
	require.NoError(t, err)

	assert.Contains(t, g.SubGraphs.SubGraphs, "cluster_0")
	assert.Len(t, g.Nodes.Nodes, 3)

	edges := g.Edges.SrcToDsts["g0_c0"]["g0_c1"]
	require.Len(t, edges, 1, "fastest case points at the slower one")
	assert.Contains(t, edges[0].Attrs["label"], "2.00x")
	assert.Empty(t, g.Edges.SrcToDsts["g0_c0"]["g0_c2"], "failed cases get no edge")
}

func TestJSON(t *testing.T) {
	data, err := JSON(sampleResults())
	require.NoError(t, err)

	var decoded Results
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 3, decoded.Cases())
	assert.Equal(t, 1, decoded.Failures())
	assert.Equal(t, "invocation 3 failed: boom", decoded.Groups[0].Cases[2].Error)
	assert.Nil(t, decoded.Groups[0].Cases[2].Result)
}

func TestMultiReporter(t *testing.T) {
	var a, b bytes.Buffer
	m := MultiReporter{NewLineReporter(&a), NewLineReporter(&b)}

	require.NoError(t, m.Group("g"))
	require.NoError(t, m.Report("x", bench.Result{}))
	require.NoError(t, m.Fail("y", errors.New("bad")))
	require.NoError(t, m.Flush())

	assert.Equal(t, a.String(), b.String())
	assert.Contains(t, a.String(), "x => min: 0.0000")
}
