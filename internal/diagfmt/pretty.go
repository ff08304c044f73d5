// Package diagfmt renders diagnostic bags for terminals and tools.
package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"fortio.org/safecast"
	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"waspy/internal/diag"
	"waspy/internal/source"
)

type palette struct {
	err, warn, info, loc, gutter, caret, note *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		loc:    color.New(color.Bold),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgRed, color.Bold),
		note:   color.New(color.FgCyan),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.loc, p.gutter, p.caret, p.note} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	}
	return p.info
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
//
//	<path>:<line>:<col>: <Kind> [<CODE>]: <Message>
//
// затем строку исходника с подчёркиванием ^~~~ по Span и Notes.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	for i, d := range bag.Items() {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := prettyOne(w, d, fs, opts, p); err != nil {
			return err
		}
	}
	return nil
}

func prettyOne(w io.Writer, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, p palette) error {
	var b strings.Builder
	f := fs.Get(d.Primary.File)
	var start, end source.LineCol
	if f != nil {
		start, end = fs.Resolve(d.Primary)
		b.WriteString(p.loc.Sprintf("%s:%d:%d:", formatPath(f, opts.PathMode, opts.BaseDir), start.Line, start.Col))
		b.WriteByte(' ')
	}
	b.WriteString(p.severity(d.Severity).Sprint(d.Kind().String()))
	fmt.Fprintf(&b, " [%s]: %s\n", d.Code.ID(), d.Message)

	if f != nil {
		writeSnippet(&b, f, start, end, opts.Context, p)
	}
	if opts.ShowNotes {
		for _, n := range d.Notes {
			b.WriteString(p.note.Sprint("  note: "))
			if nf := fs.Get(n.Span.File); nf != nil {
				ns, _ := fs.Resolve(n.Span)
				fmt.Fprintf(&b, "%s:%d:%d: ", formatPath(nf, opts.PathMode, opts.BaseDir), ns.Line, ns.Col)
			}
			b.WriteString(n.Msg)
			b.WriteByte('\n')
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeSnippet(b *strings.Builder, f *source.File, start, end source.LineCol, context int, p palette) {
	if start.Line == 0 {
		return
	}
	ctx := max(context, 0)
	first := max(int(start.Line)-ctx, 1)
	last := min(int(start.Line)+ctx, len(f.LineIdx)+1)
	width := len(strconv.FormatUint(uint64(last), 10))

	for n := first; n <= last; n++ {
		ln, err := safecast.Conv[uint32](n)
		if err != nil {
			return
		}
		text := expandTabs(f.GetLine(ln))
		if ln != start.Line && strings.TrimSpace(text) == "" {
			continue
		}
		b.WriteString(p.gutter.Sprintf(" %*d | ", width, ln))
		b.WriteString(text)
		b.WriteByte('\n')
		if ln != start.Line {
			continue
		}
		line := f.GetLine(ln)
		col := int(start.Col) - 1
		col = min(max(col, 0), len(line))
		stop := len(line)
		if end.Line == start.Line {
			stop = min(max(int(end.Col)-1, col), len(line))
		}
		pad := runewidth.StringWidth(expandTabs(line[:col]))
		span := max(runewidth.StringWidth(expandTabs(line[col:stop])), 1)
		b.WriteString(p.gutter.Sprintf(" %*s | ", width, ""))
		b.WriteString(strings.Repeat(" ", pad))
		b.WriteString(p.caret.Sprint("^" + strings.Repeat("~", span-1)))
		b.WriteByte('\n')
	}
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}

// Short prints one line per diagnostic: <path>:<line>:<col>: <Kind>: <Message>.
func Short(w io.Writer, bag *diag.Bag, fs *source.FileSet, mode PathMode, baseDir string) error {
	for _, d := range bag.Items() {
		loc := "<unknown>"
		if f := fs.Get(d.Primary.File); f != nil {
			start, _ := fs.Resolve(d.Primary)
			loc = fmt.Sprintf("%s:%d:%d", formatPath(f, mode, baseDir), start.Line, start.Col)
		}
		if _, err := fmt.Fprintf(w, "%s: %s\n", loc, d.Error()); err != nil {
			return err
		}
	}
	return nil
}
