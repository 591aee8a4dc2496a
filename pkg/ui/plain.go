package ui

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/user/remedgen/pkg/batch"
)

// PlainPrinter writes one line per finished task. It is used when stdout is
// not a terminal.
type PlainPrinter struct {
	out      io.Writer
	finished int
}

func NewPlainPrinter(out io.Writer) *PlainPrinter {
	return &PlainPrinter{out: out}
}

// Observe implements batch.Observer.
func (p *PlainPrinter) Observe(ev batch.Event) {
	if ev.Kind != batch.TaskFinished || ev.Outcome == nil {
		return
	}
	p.finished++

	o := ev.Outcome
	ts := ev.At.Format("15:04:05")
	name := filepath.Base(o.SourceFile)
	if o.OK() {
		fmt.Fprintf(p.out, "[%s] [%d/%d] ok   %s -> %s (%s)\n",
			ts, p.finished, ev.Total, name, o.OutputPath, o.GenerationTime.Round(100*time.Millisecond))
		return
	}
	fmt.Fprintf(p.out, "[%s] [%d/%d] fail %s: %v\n", ts, p.finished, ev.Total, name, o.Err)
}
