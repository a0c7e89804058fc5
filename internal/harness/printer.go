// Package harness holds the process-wide state a fio-style run needs, kept
// as an explicit value rather than package-level singletons.
package harness

import (
	"fmt"
	"io"
)

type printOp struct {
	text string
	done chan struct{}
}

// Printer serializes writes to an output stream from multiple goroutines.
// Concurrent workers and the builder all want to emit progress lines without
// interleaving mid-line, so every Send goes through one worker goroutine.
type Printer struct {
	incoming chan printOp
	w        io.Writer
}

// NewPrinter starts the printer's worker goroutine, writing to w.
func NewPrinter(w io.Writer) *Printer {
	p := &Printer{
		incoming: make(chan printOp, 64),
		w:        w,
	}
	go p.run()
	return p
}

func (p *Printer) run() {
	for op := range p.incoming {
		if op.done != nil {
			close(op.done)
			return
		}
		fmt.Fprint(p.w, op.text)
	}
}

// Send formats and queues a line for output. Safe for concurrent use.
func (p *Printer) Send(format string, a ...interface{}) {
	p.incoming <- printOp{text: fmt.Sprintf(format, a...)}
}

// Exit drains any queued output and stops the worker goroutine.
func (p *Printer) Exit() {
	done := make(chan struct{})
	p.incoming <- printOp{done: done}
	<-done
}

// ErrPrinter is a Printer pointed at the error stream; every line it emits
// carries the stable "fio:" prefix user-visible errors are required to have.
type ErrPrinter struct {
	*Printer
}

// NewErrPrinter starts an error-stream printer.
func NewErrPrinter(w io.Writer) *ErrPrinter {
	return &ErrPrinter{Printer: NewPrinter(w)}
}

// Send prefixes the formatted line with "fio: " before queuing it.
func (p *ErrPrinter) Send(format string, a ...interface{}) {
	p.Printer.Send("fio: "+format, a...)
}
