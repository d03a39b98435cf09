package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

// statusPrinter serializes output from the command goroutine and the
// dispatcher's delivery goroutine.
type statusPrinter struct {
	mu   sync.Mutex
	out  io.Writer
	ok   *color.Color
	fail *color.Color
	hint *color.Color
}

func newStatusPrinter(out io.Writer) *statusPrinter {
	return &statusPrinter{
		out:  out,
		ok:   color.New(color.FgGreen),
		fail: color.New(color.FgRed),
		hint: color.New(color.FgYellow),
	}
}

// Status prints a light status message. It matches light.StatusFunc.
func (p *statusPrinter) Status(msg string, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ok {
		p.ok.Fprintln(p.out, msg)
	} else {
		p.fail.Fprintln(p.out, msg)
	}
}

func (p *statusPrinter) Hintf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hint.Fprintf(p.out, format+"\n", args...)
}

func (p *statusPrinter) Printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format, args...)
}
