package report

import (
	"errors"
	"fmt"
	"io"

	"github.com/justjake/kvbench/pkg/bench"
)

// Reporter receives results as the suite produces them.
type Reporter interface {
	// Group starts a new group of cases.
	Group(name string) error
	// Report emits the result of one case.
	Report(label string, r bench.Result) error
	// Fail emits a case that did not produce a result.
	Fail(label string, err error) error
	// Flush writes anything still buffered.
	Flush() error
}

// groupSeparator is printed between groups by LineReporter.
const groupSeparator = "------------------------------"

// LineReporter prints one line per case:
//
//	label => min: 0.0123; avg: 0.0150; max: 0.0420;
//
// Values are milliseconds.
type LineReporter struct {
	w      io.Writer
	groups int
}

func NewLineReporter(w io.Writer) *LineReporter {
	return &LineReporter{w: w}
}

func (l *LineReporter) Group(string) error {
	l.groups++
	if l.groups == 1 {
		return nil
	}
	_, err := fmt.Fprintln(l.w, groupSeparator)
	return err
}

func (l *LineReporter) Report(label string, r bench.Result) error {
	_, err := fmt.Fprintln(l.w, FormatLine(label, r))
	return err
}

func (l *LineReporter) Fail(label string, err error) error {
	_, werr := fmt.Fprintf(l.w, "%s => error: %v\n", label, err)
	return werr
}

func (l *LineReporter) Flush() error {
	return nil
}

// FormatLine formats a labelled result the way LineReporter prints it.
func FormatLine(label string, r bench.Result) string {
	minMs, avgMs, maxMs := r.Milliseconds()
	return fmt.Sprintf("%s => min: %.4f; avg: %.4f; max: %.4f;", label, minMs, avgMs, maxMs)
}

// MultiReporter fans out to several reporters. All reporters are called even
// if one fails; the errors are joined.
type MultiReporter []Reporter

func (m MultiReporter) Group(name string) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.Group(name))
	}
	return errors.Join(errs...)
}

func (m MultiReporter) Report(label string, res bench.Result) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.Report(label, res))
	}
	return errors.Join(errs...)
}

func (m MultiReporter) Fail(label string, err error) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.Fail(label, err))
	}
	return errors.Join(errs...)
}

func (m MultiReporter) Flush() error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.Flush())
	}
	return errors.Join(errs...)
}
