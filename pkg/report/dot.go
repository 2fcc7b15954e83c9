package report

import (
	"fmt"
	"strconv"

	"github.com/awalterschulze/gographviz"
)

const graphName = "kvbench"

// DOT returns a graphviz graph of results. Each group is a cluster with one
// node per case; within a group, an edge runs from the fastest case to every
// other case, labelled with how many times slower it is on average.
func DOT(r *Results) (string, error) {
	g := gographviz.NewGraph()
	if err := g.SetName(graphName); err != nil {
		return "", err
	}
	if err := g.SetDir(true); err != nil {
		return "", err
	}
	if err := g.AddAttr(graphName, "rankdir", "LR"); err != nil {
		return "", err
	}

	for gi, group := range r.Groups {
		cluster := fmt.Sprintf("cluster_%d", gi)
		if err := g.AddSubGraph(graphName, cluster, map[string]string{
			"label": strconv.Quote(group.Name),
		}); err != nil {
			return "", fmt.Errorf("group %s: %w", group.Name, err)
		}

		fastest := -1
		var lo, hi int64
		for ci, c := range group.Cases {
			if c.Failed() {
				continue
			}
			avg := int64(c.Result.Avg)
			if fastest < 0 || avg < lo {
				fastest, lo = ci, avg
			}
			if avg > hi {
				hi = avg
			}
		}

		for ci, c := range group.Cases {
			attrs := map[string]string{
				"shape": "box",
				"style": "filled",
			}
			if c.Failed() {
				attrs["label"] = strconv.Quote(c.Label + "\nerror: " + c.Error)
				attrs["fillcolor"] = strconv.Quote("#ff5f5f")
			} else {
				_, avgMs, _ := c.Result.Milliseconds()
				attrs["label"] = strconv.Quote(fmt.Sprintf("%s\navg %.4f ms", c.Label, avgMs))
				attrs["fillcolor"] = strconv.Quote(tint(c.Result.Avg, lo, hi))
			}
			if err := g.AddNode(cluster, nodeID(gi, ci), attrs); err != nil {
				return "", fmt.Errorf("case %s: %w", c.Label, err)
			}
		}

		if fastest < 0 || lo <= 0 {
			continue
		}
		for ci, c := range group.Cases {
			if ci == fastest || c.Failed() {
				continue
			}
			ratio := float64(c.Result.Avg) / float64(lo)
			if err := g.AddEdge(nodeID(gi, fastest), nodeID(gi, ci), true, map[string]string{
				"label": strconv.Quote(fmt.Sprintf("%.2fx", ratio)),
			}); err != nil {
				return "", fmt.Errorf("case %s: %w", c.Label, err)
			}
		}
	}

	return g.String(), nil
}

func nodeID(group, c int) string {
	return fmt.Sprintf("g%d_c%d", group, c)
}
