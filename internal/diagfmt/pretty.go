package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"injekt/internal/diag"
	"injekt/internal/source"
)

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем строку исходника с подчёркиванием ^~~~ по Span, затем Notes.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	p := printer{w: w, fs: fs, opts: opts}
	for _, d := range bag.Items() {
		p.diagnostic(d)
	}
}

type printer struct {
	w    io.Writer
	fs   *source.FileSet
	opts PrettyOpts
}

func (p printer) paint(c *color.Color, s string) string {
	if !p.opts.Color {
		return s
	}
	c.EnableColor()
	return c.Sprint(s)
}

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan, color.Bold)
	noteColor    = color.New(color.FgBlue)
	caretColor   = color.New(color.FgGreen, color.Bold)
)

func severityColor(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return errorColor
	case diag.SevWarning:
		return warningColor
	default:
		return infoColor
	}
}

func (p printer) diagnostic(d diag.Diagnostic) {
	head := fmt.Sprintf("%s %s: %s",
		p.paint(severityColor(d.Severity), d.Severity.String()),
		d.Code.ID(), d.Message)
	if loc, ok := p.location(d.Primary); ok {
		head = loc + ": " + head
	}
	fmt.Fprintln(p.w, head)
	p.excerpt(d.Primary, d.Severity)

	if !p.opts.ShowNotes && d.Code != diag.ObsTimings {
		return
	}
	for _, n := range d.Notes {
		line := p.paint(noteColor, "note") + ": " + n.Msg
		if loc, ok := p.location(n.Span); ok {
			line = "  " + loc + ": " + line
		} else {
			line = "  " + line
		}
		fmt.Fprintln(p.w, line)
	}
}

func (p printer) location(sp source.Span) (string, bool) {
	if !p.fs.Has(sp.File) {
		return "", false
	}
	return p.fs.Location(sp, p.opts.PathMode), true
}

// excerpt печатает строку исходника и каретку под span. Ширина считается
// через runewidth, чтобы каретка совпадала с широкими символами.
func (p printer) excerpt(sp source.Span, sev diag.Severity) {
	if !p.fs.Has(sp.File) {
		return
	}
	f := p.fs.Get(sp.File)
	start, end := p.fs.Resolve(sp)
	text := f.GetLine(start.Line)
	if text == "" {
		return
	}
	text = strings.ReplaceAll(text, "\t", " ")
	col := int(start.Col) - 1
	col = max(0, min(col, len(text)))
	underline := 1
	if end.Line == start.Line && end.Col > start.Col {
		underline = int(end.Col - start.Col)
	}
	underline = min(underline, max(1, len(text)-col))

	prefix := runewidth.StringWidth(text[:col])
	width := runewidth.StringWidth(text[col:min(len(text), col+underline)])
	if limit := int(p.opts.Width); limit > 0 && runewidth.StringWidth(text) > limit {
		text = runewidth.Truncate(text, limit, "...")
	}
	gutter := fmt.Sprintf("%4d | ", start.Line)
	fmt.Fprintln(p.w, gutter+text)
	marks := "^" + strings.Repeat("~", max(0, width-1))
	fmt.Fprintln(p.w, strings.Repeat(" ", len(gutter)+prefix)+p.paint(caretFor(sev), marks))
}

func caretFor(sev diag.Severity) *color.Color {
	if sev == diag.SevError {
		return errorColor
	}
	return caretColor
}
