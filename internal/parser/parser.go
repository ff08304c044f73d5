package parser

import (
	"waspy/internal/ast"
	"waspy/internal/diag"
	"waspy/internal/lexer"
	"waspy/internal/source"
	"waspy/internal/token"
)

type Options struct {
	Reporter diag.Reporter
}

type Result struct {
	Module *ast.Module
	// Failed is set when a syntax error was reported; Module is then partial.
	Failed bool
}

// bailout unwinds the parser after the first syntax error.
type bailout struct{}

// Parser holds the state for one file.
type Parser struct {
	file *source.File
	lx   *lexer.Lexer
	mod  *ast.Module
	opts Options

	tok      token.Token
	ahead    []token.Token
	lastSpan source.Span // span of the last consumed token

	loopDepth int
	funcDepth int
	failed    bool
}

// ParseFile parses a whole module. Parsing stops at the first syntax error.
func ParseFile(file *source.File, opts Options) (res Result) {
	mod := ast.NewModule(file.Name(), file.ID)
	p := newParser(file, lexer.New(file, lexer.Options{Reporter: opts.Reporter}), mod, opts)
	res.Module = mod
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			res.Failed = true
		}
	}()
	p.parseModule()
	return res
}

func newParser(file *source.File, lx *lexer.Lexer, mod *ast.Module, opts Options) *Parser {
	p := &Parser{file: file, lx: lx, mod: mod, opts: opts}
	p.tok = p.pull()
	return p
}

func (p *Parser) pull() token.Token {
	tok := p.lx.Next()
	if tok.Kind == token.Invalid {
		// the lexer has already reported the error
		p.failed = true
		panic(bailout{})
	}
	return tok
}

func (p *Parser) parseModule() {
	for !p.at(token.EOF) {
		if p.at(token.Newline) {
			p.advance()
			continue
		}
		p.mod.Body = append(p.mod.Body, p.parseStatement()...)
	}
}

func (p *Parser) at(k token.Kind) bool {
	return p.tok.Kind == k
}

// peek returns the token after the current one.
func (p *Parser) peek() token.Token {
	if len(p.ahead) == 0 {
		p.ahead = append(p.ahead, p.pull())
	}
	return p.ahead[0]
}

func (p *Parser) advance() token.Token {
	tok := p.tok
	p.lastSpan = tok.Span
	if len(p.ahead) > 0 {
		p.tok = p.ahead[0]
		p.ahead = p.ahead[1:]
	} else {
		p.tok = p.pull()
	}
	return tok
}

func (p *Parser) accept(k token.Kind) bool {
	if p.at(k) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(k token.Kind) token.Token {
	if !p.at(k) {
		p.errorf(diag.SynUnexpectedToken, p.tok.Span, "expected "+k.String()+", found "+p.describe(p.tok))
	}
	return p.advance()
}

func (p *Parser) describe(tok token.Token) string {
	switch tok.Kind {
	case token.Ident:
		return "identifier '" + tok.Text + "'"
	case token.IntLit, token.FloatLit:
		return "number " + tok.Text
	}
	return tok.Kind.String()
}

// spanFrom covers from start to the end of the last consumed token.
func (p *Parser) spanFrom(start source.Span) source.Span {
	return start.Cover(p.lastSpan)
}

// errorf reports the syntax error and aborts parsing.
func (p *Parser) errorf(code diag.Code, sp source.Span, msg string) {
	p.failed = true
	if p.opts.Reporter != nil {
		diag.ReportError(p.opts.Reporter, code, sp, msg).Emit()
	}
	panic(bailout{})
}

func (p *Parser) unsupported(sp source.Span, what string) {
	p.errorf(diag.SynUnsupported, sp, what+" is not supported")
}
