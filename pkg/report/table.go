package report

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/term"

	"github.com/justjake/kvbench/pkg/bench"
)

var (
	groupTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00CED1"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#9B30FF")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F")).
			Padding(0, 1)

	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

// Endpoints of the avg column tint: fastest case in a group is fast, slowest is slow.
var (
	fastColor, _ = colorful.Hex("#3CB371")
	slowColor, _ = colorful.Hex("#E9573F")
)

type tableRow struct {
	label  string
	result bench.Result
	err    error
}

// TableReporter buffers a group and prints it as a styled table when the
// next group starts or on Flush.
type TableReporter struct {
	w     io.Writer
	group string
	rows  []tableRow
}

func NewTableReporter(w io.Writer) *TableReporter {
	return &TableReporter{w: w}
}

func (t *TableReporter) Group(name string) error {
	if err := t.Flush(); err != nil {
		return err
	}
	t.group = name
	return nil
}

func (t *TableReporter) Report(label string, r bench.Result) error {
	t.rows = append(t.rows, tableRow{label: label, result: r})
	return nil
}

func (t *TableReporter) Fail(label string, err error) error {
	t.rows = append(t.rows, tableRow{label: label, err: err})
	return nil
}

func (t *TableReporter) Flush() error {
	if len(t.rows) == 0 {
		return nil
	}
	out := renderTable(t.group, t.rows)
	t.rows = nil
	_, err := fmt.Fprintln(t.w, out)
	return err
}

// renderTable renders a group title and its rows. Rows that failed show
// their error in place of the timings.
func renderTable(group string, rows []tableRow) string {
	lo, hi := avgRange(rows)

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("case", "min (ms)", "avg (ms)", "max (ms)", "vs fastest")

	for _, r := range rows {
		if r.err != nil {
			tbl.Row(r.label, "error", r.err.Error(), "", "")
			continue
		}
		minMs, avgMs, maxMs := r.result.Milliseconds()
		ratio := ""
		if lo > 0 {
			ratio = fmt.Sprintf("%.2fx", float64(r.result.Avg)/float64(lo))
		}
		tbl.Row(
			r.label,
			fmt.Sprintf("%.4f", minMs),
			fmt.Sprintf("%.4f", avgMs),
			fmt.Sprintf("%.4f", maxMs),
			ratio,
		)
	}

	tbl.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		r := rows[row]
		if r.err != nil {
			return errorStyle
		}
		if col == 2 {
			return cellStyle.Foreground(lipgloss.Color(tint(r.result.Avg, lo, hi)))
		}
		return cellStyle
	})

	title := ""
	if group != "" {
		title = groupTitleStyle.Render(group) + "\n"
	}
	return title + tbl.String()
}

func avgRange(rows []tableRow) (lo, hi int64) {
	first := true
	for _, r := range rows {
		if r.err != nil {
			continue
		}
		avg := int64(r.result.Avg)
		if first || avg < lo {
			lo = avg
		}
		if first || avg > hi {
			hi = avg
		}
		first = false
	}
	return lo, hi
}

// tint returns a hex color between fastColor and slowColor for avg's position
// in [lo, hi].
func tint(avg time.Duration, lo, hi int64) string {
	t := 0.0
	if hi > lo {
		t = float64(int64(avg)-lo) / float64(hi-lo)
	}
	return fastColor.BlendLuv(slowColor, t).Clamped().Hex()
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the width of w if it is a terminal, otherwise def.
func TerminalWidth(w io.Writer, def int) int {
	f, ok := w.(*os.File)
	if !ok {
		return def
	}
	if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
		return width
	}
	return def
}
