// Package printer renders CLI output for the healthboard command.
//
// Colors come from github.com/fatih/color, which disables them when NO_COLOR
// is set or the output is not a terminal.
package printer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/jpalmerr/healthboard/client"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	bold   = color.New(color.Bold)
	faint  = color.New(color.FgHiBlack)
)

// Printer writes command output. Results go to out, errors to errOut.
type Printer struct {
	out     io.Writer
	errOut  io.Writer
	verbose bool
}

// New returns a Printer. With verbose, [Printer.Step] and
// [Printer.JSON] produce output; otherwise they are silent.
func New(out, errOut io.Writer, verbose bool) *Printer {
	return &Printer{out: out, errOut: errOut, verbose: verbose}
}

// Verbose reports whether verbose output is enabled.
func (p *Printer) Verbose() bool {
	return p.verbose
}

// Success prints a message in green with a checkmark.
func (p *Printer) Success(format string, a ...any) {
	green.Fprintf(p.out, "✓ %s\n", fmt.Sprintf(format, a...))
}

// Info prints a plain line.
func (p *Printer) Info(format string, a ...any) {
	fmt.Fprintf(p.out, format+"\n", a...)
}

// Warning prints a message in yellow.
func (p *Printer) Warning(format string, a ...any) {
	yellow.Fprintf(p.out, "! %s\n", fmt.Sprintf(format, a...))
}

// Step announces an operation in verbose mode.
func (p *Printer) Step(format string, a ...any) {
	if !p.verbose {
		return
	}
	cyan.Fprintf(p.out, "→ %s\n", fmt.Sprintf(format, a...))
}

// JSON pretty-prints v in verbose mode.
func (p *Printer) JSON(v any) {
	if !p.verbose {
		return
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return
	}
	fmt.Fprintln(p.out, string(data))
}

// Error prints err to errOut. API errors show the status code on the first
// line and the server's message below it.
func (p *Printer) Error(err error) {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		red.Fprintf(p.errOut, "Error: %d\n", apiErr.StatusCode)
		fmt.Fprintf(p.errOut, "  %s\n", apiErr.Message)
		return
	}
	red.Fprintf(p.errOut, "Error: %v\n", err)
}

// Board prints every category with its items, coloring statuses by the
// vocabulary. vocab may be nil.
func (p *Printer) Board(board client.Board, vocab client.Vocabulary) {
	if len(board) == 0 {
		faint.Fprintln(p.out, "The board is empty.")
		return
	}

	for i, category := range sortedKeys(board) {
		if i > 0 {
			fmt.Fprintln(p.out)
		}
		bold.Fprintln(p.out, category)

		items := board[category]
		if len(items) == 0 {
			faint.Fprintln(p.out, "  (no items)")
			continue
		}

		width := 0
		for name := range items {
			width = max(width, len(name))
		}
		for _, name := range sortedKeys(items) {
			p.item(name, items[name], vocab, width)
		}
	}
}

func (p *Printer) item(name string, rec client.Record, vocab client.Vocabulary, width int) {
	c := statusColor(rec.Status, vocab)
	fmt.Fprintf(p.out, "  %s %-*s  ", c.Sprint("●"), width, name)
	c.Fprintf(p.out, "%-9s", strings.ToUpper(rec.Status))
	if rec.Message != "" {
		fmt.Fprintf(p.out, "  %s", rec.Message)
	}
	if rec.URL != "" {
		faint.Fprintf(p.out, "  <%s>", rec.URL)
	}
	if rec.LastUpdated != "" {
		faint.Fprintf(p.out, "  (%s)", rec.LastUpdated)
	}
	fmt.Fprintln(p.out)
}

// Record prints one item after a change.
func (p *Printer) Record(category, item string, rec client.Record, vocab client.Vocabulary) {
	bold.Fprintln(p.out, category)
	p.item(item, rec, vocab, len(item))
}

// Statuses prints the status vocabulary.
func (p *Printer) Statuses(vocab client.Vocabulary) {
	if len(vocab) == 0 {
		faint.Fprintln(p.out, "No statuses defined.")
		return
	}

	width := 0
	for name := range vocab {
		width = max(width, len(name))
	}
	for _, name := range sortedKeys(vocab) {
		info := vocab[name]
		c := statusColor(name, vocab)
		fmt.Fprintf(p.out, "  %s %s", c.Sprint("●"), c.Sprintf("%-*s", width, name))
		if info.Description != "" {
			fmt.Fprintf(p.out, "  %s", info.Description)
		}
		fmt.Fprintln(p.out)
	}
}

// statusColor maps the vocabulary color of status to a terminal color.
func statusColor(status string, vocab client.Vocabulary) *color.Color {
	info, ok := vocab[strings.ToLower(status)]
	if !ok {
		return faint
	}
	switch strings.ToLower(info.Color) {
	case "green":
		return green
	case "orange", "yellow", "amber":
		return yellow
	case "red":
		return red
	case "blue":
		return cyan
	default:
		return faint
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
