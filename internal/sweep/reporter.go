package sweep

import (
	"fmt"
	"io"
	"log/slog"
)

// StatusReporter is a sink for human-readable progress text. It is
// presentation-only; the sequencer never depends on what a reporter
// does with a message.
type StatusReporter interface {
	Report(msg string)
}

// WriterReporter writes each status line to an io.Writer
type WriterReporter struct {
	W io.Writer
}

func (r WriterReporter) Report(msg string) {
	fmt.Fprintln(r.W, msg)
}

// SlogReporter emits each status line at info level
type SlogReporter struct{}

func (SlogReporter) Report(msg string) {
	slog.Info(msg)
}

// MultiReporter fans a status line out to several reporters
func MultiReporter(reporters ...StatusReporter) StatusReporter {
	return multiReporter(reporters)
}

type multiReporter []StatusReporter

func (m multiReporter) Report(msg string) {
	for _, r := range m {
		r.Report(msg)
	}
}

type nopReporter struct{}

func (nopReporter) Report(string) {}
