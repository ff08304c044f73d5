package lexer

import (
	"waspy/internal/diag"
	"waspy/internal/source"
	"waspy/internal/token"
)

// indentLevel keeps both tab interpretations so ambiguous mixes can be rejected.
type indentLevel struct {
	col    int // tabs advance to the next multiple of 8
	altCol int // tabs count as one column
}

// Lexer turns source bytes into Python tokens, synthesizing NEWLINE, INDENT and DEDENT.
// It stops at the first error: the offending position yields token.Invalid and every
// later call returns EOF.
type Lexer struct {
	file   *source.File
	cursor Cursor
	opts   Options

	indents     []indentLevel
	depth       int // open brackets; newlines inside are ignored
	atLineStart bool
	fragment    bool

	pending []token.Token
	last    token.Kind
	done    bool
	failed  bool
}

// New creates a lexer over the whole file.
func New(file *source.File, opts Options) *Lexer {
	return &Lexer{
		file:        file,
		cursor:      NewCursor(file),
		opts:        opts,
		indents:     []indentLevel{{}},
		atLineStart: true,
	}
}

// NewFragment lexes the single-line expression in [start, end) of file.
// Used for replacement fields of f-strings: no NEWLINE or indentation tokens are produced.
func NewFragment(file *source.File, start, end uint32, opts Options) *Lexer {
	lx := New(file, opts)
	lx.cursor.Off = start
	lx.cursor.Limit = end
	lx.atLineStart = false
	lx.fragment = true
	lx.depth = 1
	return lx
}

// Failed reports whether a lexical error was seen.
func (lx *Lexer) Failed() bool {
	return lx.failed
}

// Next returns the next token. After EOF it keeps returning EOF.
func (lx *Lexer) Next() token.Token {
	for len(lx.pending) == 0 {
		lx.fill()
	}
	tok := lx.pending[0]
	lx.pending = lx.pending[1:]
	lx.last = tok.Kind
	return tok
}

// All drains the lexer up to EOF or the first error token.
func (lx *Lexer) All() []token.Token {
	var out []token.Token
	for {
		tok := lx.Next()
		out = append(out, tok)
		if tok.Kind == token.EOF || tok.Kind == token.Invalid {
			return out
		}
	}
}

func (lx *Lexer) push(tok token.Token) {
	lx.pending = append(lx.pending, tok)
}

func (lx *Lexer) emptySpan() source.Span {
	return source.Span{File: lx.file.ID, Start: lx.cursor.Off, End: lx.cursor.Off}
}

func (lx *Lexer) errorf(code diag.Code, sp source.Span, msg string) {
	if lx.failed {
		return
	}
	lx.failed = true
	lx.pending = lx.pending[:0]
	if lx.opts.Reporter != nil {
		diag.ReportError(lx.opts.Reporter, code, sp, msg).Emit()
	}
	lx.push(token.Token{Kind: token.Invalid, Span: sp})
}

func (lx *Lexer) fill() {
	if lx.done || lx.failed {
		lx.push(token.Token{Kind: token.EOF, Span: lx.emptySpan()})
		return
	}
	if lx.atLineStart && lx.depth == 0 {
		lx.indentation()
		if len(lx.pending) > 0 || lx.failed {
			return
		}
	}
	lx.skipBlanks()
	if lx.failed {
		return
	}
	if lx.cursor.EOF() {
		lx.finish()
		return
	}

	ch := lx.cursor.Peek()
	switch {
	case ch == '\n':
		start := lx.cursor.Mark()
		lx.cursor.Bump()
		if lx.depth > 0 {
			return
		}
		lx.atLineStart = true
		lx.push(token.Token{Kind: token.Newline, Span: lx.cursor.SpanFrom(start)})
	case ch == '#':
		lx.skipComment()
	case isIdentStartByte(ch) || ch >= 0x80:
		lx.push(lx.scanIdentOrString())
	case isDec(ch) || (ch == '.' && isDec(lx.cursor.PeekAt(1))):
		lx.push(lx.scanNumber())
	case ch == '"' || ch == '\'':
		lx.push(lx.scanString(lx.cursor.Mark(), stringPrefix{}))
	default:
		lx.push(lx.scanOperator())
	}
}

// finish emits the trailing NEWLINE, closes open blocks and produces EOF.
func (lx *Lexer) finish() {
	if !lx.fragment {
		switch lx.last {
		case token.Invalid, token.Newline, token.Indent, token.Dedent:
		default:
			lx.push(token.Token{Kind: token.Newline, Span: lx.emptySpan()})
		}
		for len(lx.indents) > 1 {
			lx.indents = lx.indents[:len(lx.indents)-1]
			lx.push(token.Token{Kind: token.Dedent, Span: lx.emptySpan()})
		}
	}
	lx.push(token.Token{Kind: token.EOF, Span: lx.emptySpan()})
	lx.done = true
}

// indentation measures the next logical line and emits INDENT/DEDENT tokens.
// Blank and comment-only lines are skipped entirely.
func (lx *Lexer) indentation() {
	var level indentLevel
	for {
		level = lx.measureIndent()
		if lx.cursor.EOF() {
			return
		}
		if ch := lx.cursor.Peek(); ch == '\n' {
			lx.cursor.Bump()
			continue
		} else if ch == '#' {
			lx.skipComment()
			continue
		}
		break
	}
	lx.atLineStart = false

	top := lx.indents[len(lx.indents)-1]
	switch {
	case level.col == top.col:
		if level.altCol != top.altCol {
			lx.errorf(diag.LexTabsMixed, lx.emptySpan(), "inconsistent use of tabs and spaces in indentation")
		}
	case level.col > top.col:
		if level.altCol <= top.altCol {
			lx.errorf(diag.LexTabsMixed, lx.emptySpan(), "inconsistent use of tabs and spaces in indentation")
			return
		}
		lx.indents = append(lx.indents, level)
		lx.push(token.Token{Kind: token.Indent, Span: lx.emptySpan()})
	default:
		for len(lx.indents) > 1 && lx.indents[len(lx.indents)-1].col > level.col {
			lx.indents = lx.indents[:len(lx.indents)-1]
			lx.push(token.Token{Kind: token.Dedent, Span: lx.emptySpan()})
		}
		top = lx.indents[len(lx.indents)-1]
		if top.col != level.col {
			lx.errorf(diag.LexBadIndent, lx.emptySpan(), "unindent does not match any outer indentation level")
			return
		}
		if top.altCol != level.altCol {
			lx.errorf(diag.LexTabsMixed, lx.emptySpan(), "inconsistent use of tabs and spaces in indentation")
		}
	}
}

func (lx *Lexer) measureIndent() indentLevel {
	var level indentLevel
	for !lx.cursor.EOF() {
		switch lx.cursor.Peek() {
		case ' ':
			level.col++
			level.altCol++
		case '\t':
			level.col = (level.col/8 + 1) * 8
			level.altCol++
		case '\f':
			level = indentLevel{}
		default:
			return level
		}
		lx.cursor.Bump()
	}
	return level
}

// skipBlanks skips spaces, tabs and backslash line continuations.
func (lx *Lexer) skipBlanks() {
	for !lx.cursor.EOF() {
		switch lx.cursor.Peek() {
		case ' ', '\t', '\f', '\r':
			lx.cursor.Bump()
		case '\\':
			if lx.cursor.PeekAt(1) != '\n' {
				start := lx.cursor.Mark()
				lx.cursor.Bump()
				lx.errorf(diag.LexUnknownChar, lx.cursor.SpanFrom(start), "unexpected character after line continuation character")
				return
			}
			lx.cursor.Bump()
			lx.cursor.Bump()
		default:
			return
		}
	}
}

func (lx *Lexer) skipComment() {
	for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
		lx.cursor.Bump()
	}
}
