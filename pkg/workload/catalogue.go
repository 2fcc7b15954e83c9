package workload

import (
	"fmt"
	"slices"

	"github.com/justjake/kvbench/pkg/bench"
	"github.com/justjake/kvbench/pkg/container"
)

// GroupName identifies one of the workload groups.
type GroupName string

const (
	GroupCreate GroupName = "create"
	GroupRead   GroupName = "read"
	GroupCheck  GroupName = "check"
)

// GroupNames returns all groups in run order.
func GroupNames() []GroupName {
	return []GroupName{GroupCreate, GroupRead, GroupCheck}
}

// ParseGroupName validates a group name.
func ParseGroupName(s string) (GroupName, error) {
	g := GroupName(s)
	if slices.Contains(GroupNames(), g) {
		return g, nil
	}
	return "", fmt.Errorf("unknown workload group %q (expected one of %v)", s, GroupNames())
}

// Case is a benchmark case together with the coordinates used to name it in
// reports.
type Case struct {
	bench.Case
	Operation string         // e.g. "CreateAndFill"
	Kind      container.Kind // container under test
	N         int            // number of elements
}

// Group is a named list of cases reported together.
type Group struct {
	Name  GroupName
	Cases []Case
}

// Options selects which cases Catalogue builds.
type Options struct {
	Sizes  []int
	Kinds  []container.Kind
	Groups []GroupName
}

// Catalogue builds the selected groups. Read groups share prefilled
// containers, which are built here, before any timing starts.
func Catalogue(opts Options) ([]Group, error) {
	if len(opts.Sizes) == 0 {
		return nil, fmt.Errorf("no sizes selected")
	}
	if len(opts.Kinds) == 0 {
		return nil, fmt.Errorf("no container kinds selected")
	}
	groups := opts.Groups
	if len(groups) == 0 {
		groups = GroupNames()
	}

	type fillKey struct {
		kind container.Kind
		n    int
	}
	prefilled := map[fillKey]container.Container{}
	prefill := func(kind container.Kind, n int) (container.Container, error) {
		k := fillKey{kind, n}
		if c, ok := prefilled[k]; ok {
			return c, nil
		}
		c, err := Prefill(kind, n)
		if err != nil {
			return nil, err
		}
		prefilled[k] = c
		return c, nil
	}

	var out []Group
	for _, g := range groups {
		group := Group{Name: g}
		for _, n := range opts.Sizes {
			for _, kind := range opts.Kinds {
				c, err := buildCase(g, kind, n, prefill)
				if err != nil {
					return nil, err
				}
				group.Cases = append(group.Cases, c)
			}
		}
		out = append(out, group)
	}
	return out, nil
}

func buildCase(g GroupName, kind container.Kind, n int, prefill func(container.Kind, int) (container.Container, error)) (Case, error) {
	switch g {
	case GroupCreate:
		label := fmt.Sprintf("createAndFill %s %d records", kind, n)
		return Case{
			Case:      bench.NewWorkload(label, CreateAndFill, Fill{Kind: kind, N: n}),
			Operation: "CreateAndFill",
			Kind:      kind,
			N:         n,
		}, nil

	case GroupRead, GroupCheck:
		c, err := prefill(kind, n)
		if err != nil {
			return Case{}, err
		}
		args := Read{Container: c, N: n}
		if g == GroupRead {
			label := fmt.Sprintf("readSomeTimes %d times from %s size %d", n, kind, n)
			return Case{
				Case:      bench.NewWorkload(label, ReadSomeTimes, args),
				Operation: "ReadSomeTimes",
				Kind:      kind,
				N:         n,
			}, nil
		}
		label := fmt.Sprintf("checkAndReadSomeTimes %d times from %s size %d", n, kind, n)
		return Case{
			Case:      bench.NewWorkload(label, CheckAndReadSomeTimes, args),
			Operation: "CheckAndReadSomeTimes",
			Kind:      kind,
			N:         n,
		}, nil

	default:
		return Case{}, fmt.Errorf("unknown workload group %q", g)
	}
}
