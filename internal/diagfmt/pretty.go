// Package diagfmt renders diagnostics for the CLI.
package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"depyler/internal/diag"
	"depyler/internal/source"
)

// Opts controls pretty rendering.
type Opts struct {
	Color   bool
	Context bool // print the offending source line with a caret underline
}

var (
	errColor  = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow, color.Bold)
	infoColor = color.New(color.FgCyan)
	noteColor = color.New(color.FgBlue)
)

// Pretty writes diagnostics in a human-readable form:
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//	    <source line>
//	    ^~~~~
//
// The bag is expected to be sorted by the caller.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts Opts) {
	for _, d := range bag.Items() {
		writeHeading(w, fs, d, opts)
		if opts.Context {
			writeContext(w, fs, d.Primary)
		}
		for _, n := range d.Notes {
			start, _ := fs.Resolve(n.Span)
			f := fs.Get(n.Span.File)
			label := "note"
			if opts.Color {
				label = noteColor.Sprint(label)
			}
			fmt.Fprintf(w, "%s:%d:%d: %s: %s\n", f.Path, start.Line, start.Col, label, n.Msg)
		}
	}
}

func writeHeading(w io.Writer, fs *source.FileSet, d diag.Diagnostic, opts Opts) {
	start, _ := fs.Resolve(d.Primary)
	f := fs.Get(d.Primary.File)

	sev := d.Severity.String()
	if opts.Color {
		switch d.Severity {
		case diag.SevError:
			sev = errColor.Sprint(sev)
		case diag.SevWarning:
			sev = warnColor.Sprint(sev)
		default:
			sev = infoColor.Sprint(sev)
		}
	}
	fmt.Fprintf(w, "%s:%d:%d: %s %s: %s\n", f.Path, start.Line, start.Col, sev, d.Code, d.Message)
}

func writeContext(w io.Writer, fs *source.FileSet, sp source.Span) {
	start, end := fs.Resolve(sp)
	f := fs.Get(sp.File)
	line := f.Line(start.Line)
	if line == "" {
		return
	}
	fmt.Fprintf(w, "    %s\n", line)

	// Caret alignment must account for wide runes before the span start.
	prefix := line
	if int(start.Col-1) <= len(line) {
		prefix = line[:start.Col-1]
	}
	pad := runewidth.StringWidth(prefix)

	width := 1
	if end.Line == start.Line && end.Col > start.Col {
		seg := line
		if int(end.Col-1) <= len(line) {
			seg = line[start.Col-1 : end.Col-1]
		}
		if w := runewidth.StringWidth(seg); w > 0 {
			width = w
		}
	}
	fmt.Fprintf(w, "    %s^%s\n", strings.Repeat(" ", pad), strings.Repeat("~", width-1))
}

// Summary writes a one-line count summary, colorized when enabled.
func Summary(w io.Writer, bag *diag.Bag, opts Opts) {
	errs := bag.CountBySeverity(diag.SevError)
	warns := bag.CountBySeverity(diag.SevWarning)
	if errs == 0 && warns == 0 {
		return
	}
	msg := fmt.Sprintf("%d error(s), %d warning(s)", errs, warns)
	if opts.Color && errs > 0 {
		msg = errColor.Sprint(msg)
	} else if opts.Color {
		msg = warnColor.Sprint(msg)
	}
	fmt.Fprintln(w, msg)
}
