package lexer

import (
	"waspy/internal/diag"
	"waspy/internal/token"
)

// operator spellings, longest first within each leading byte
var operators = []struct {
	text string
	kind token.Kind
}{
	{"**=", token.PowAssign},
	{"//=", token.FloorAssign},
	{"<<=", token.ShlAssign},
	{">>=", token.ShrAssign},
	{"...", token.Ellipsis},
	{"**", token.StarStar},
	{"//", token.SlashSlash},
	{"<<", token.Shl},
	{">>", token.Shr},
	{"<=", token.LtEq},
	{">=", token.GtEq},
	{"==", token.EqEq},
	{"!=", token.BangEq},
	{"->", token.Arrow},
	{":=", token.Walrus},
	{"+=", token.PlusAssign},
	{"-=", token.MinusAssign},
	{"*=", token.StarAssign},
	{"/=", token.SlashAssign},
	{"%=", token.PercentAssign},
	{"&=", token.AmpAssign},
	{"|=", token.PipeAssign},
	{"^=", token.CaretAssign},
	{"@=", token.AtAssign},
	{"+", token.Plus},
	{"-", token.Minus},
	{"*", token.Star},
	{"/", token.Slash},
	{"%", token.Percent},
	{"@", token.At},
	{"&", token.Amp},
	{"|", token.Pipe},
	{"^", token.Caret},
	{"~", token.Tilde},
	{"<", token.Lt},
	{">", token.Gt},
	{"=", token.Assign},
	{"(", token.LParen},
	{")", token.RParen},
	{"[", token.LBracket},
	{"]", token.RBracket},
	{"{", token.LBrace},
	{"}", token.RBrace},
	{",", token.Comma},
	{":", token.Colon},
	{";", token.Semicolon},
	{".", token.Dot},
}

func (lx *Lexer) scanOperator() token.Token {
	start := lx.cursor.Mark()
	rest := lx.file.Content[lx.cursor.Off:lx.cursor.Limit]
	for _, op := range operators {
		if len(rest) < len(op.text) || string(rest[:len(op.text)]) != op.text {
			continue
		}
		lx.cursor.Off += uint32(len(op.text)) //nolint:gosec // operators are at most 3 bytes
		switch op.kind {
		case token.LParen, token.LBracket, token.LBrace:
			lx.depth++
		case token.RParen, token.RBracket, token.RBrace:
			if lx.depth > 0 && !(lx.fragment && lx.depth == 1) {
				lx.depth--
			}
		}
		return token.Token{Kind: op.kind, Span: lx.cursor.SpanFrom(start), Text: op.text}
	}
	_, size := lx.peekRune()
	if size == 0 {
		size = 1
	}
	lx.cursor.Off += size
	sp := lx.cursor.SpanFrom(start)
	lx.errorf(diag.LexUnknownChar, sp, "invalid character '"+string(lx.file.Content[sp.Start:sp.End])+"'")
	return token.Token{Kind: token.Invalid, Span: sp}
}
