package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"issuegrid/internal/preflight"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const statusLabelWidth = 20

var statusStyles = map[statusKind]struct{ label, color string }{
	statusInfo:  {"INFO", ansiBlue},
	statusOK:    {"OK", ansiGreen},
	statusWarn:  {"WARN", ansiYellow},
	statusError: {"ERROR", ansiRed},
}

// statusPrinter writes labelled "[OK] detail" lines grouped under section
// headers, colored only when out is a terminal.
type statusPrinter struct {
	out      io.Writer
	colorize bool
	sections int
}

func newStatusPrinter(out io.Writer) *statusPrinter {
	return &statusPrinter{out: out, colorize: isTerminal(out)}
}

func (p *statusPrinter) section(title string) {
	if p.sections > 0 {
		fmt.Fprintln(p.out)
	}
	p.sections++
	header := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	fmt.Fprintln(p.out, p.paint(ansiBlue, header))
	fmt.Fprintln(p.out, p.paint(ansiBlue, strings.Repeat("-", len(header))))
}

func (p *statusPrinter) line(label string, kind statusKind, detail string) {
	style := statusStyles[kind]
	text := "[" + style.label + "]"
	if detail != "" {
		text += " " + detail
	}
	fmt.Fprintln(p.out, p.paint(style.color, fmt.Sprintf("  %-*s %s", statusLabelWidth, label+":", text)))
}

func (p *statusPrinter) checks(results []preflight.Result) {
	for _, r := range results {
		kind := statusOK
		if !r.Passed {
			kind = statusError
		}
		p.line(r.Name, kind, r.Detail)
	}
}

func (p *statusPrinter) paint(color, s string) string {
	if !p.colorize {
		return s
	}
	return color + s + ansiReset
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// relativeTime renders an API timestamp as "3 minutes ago". Empty values
// render as "never".
func relativeTime(value string) string {
	if value == "" {
		return "never"
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return value
	}
	return humanize.Time(t)
}
