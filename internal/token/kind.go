package token

// Kind represents the category of a source token.
type Kind uint8

const (
	Invalid Kind = iota
	EOF

	Newline
	Indent
	Dedent

	Ident
	IntLit
	FloatLit
	StringLit
	BytesLit
	FStringLit

	// keywords
	KwFalse
	KwNone
	KwTrue
	KwAnd
	KwAs
	KwAssert
	KwAsync
	KwAwait
	KwBreak
	KwClass
	KwContinue
	KwDef
	KwDel
	KwElif
	KwElse
	KwExcept
	KwFinally
	KwFor
	KwFrom
	KwGlobal
	KwIf
	KwImport
	KwIn
	KwIs
	KwLambda
	KwNonlocal
	KwNot
	KwOr
	KwPass
	KwRaise
	KwReturn
	KwTry
	KwWhile
	KwWith
	KwYield

	// operators and punctuation
	Plus        // +
	Minus       // -
	Star        // *
	StarStar    // **
	Slash       // /
	SlashSlash  // //
	Percent     // %
	At          // @
	Amp         // &
	Pipe        // |
	Caret       // ^
	Tilde       // ~
	Shl         // <<
	Shr         // >>
	Lt          // <
	Gt          // >
	LtEq        // <=
	GtEq        // >=
	EqEq        // ==
	BangEq      // !=
	Assign      // =
	Walrus      // :=
	PlusAssign  // +=
	MinusAssign // -=
	StarAssign  // *=
	SlashAssign // /=
	FloorAssign // //=
	PercentAssign
	PowAssign // **=
	AmpAssign
	PipeAssign
	CaretAssign
	ShlAssign
	ShrAssign
	AtAssign
	LParen
	RParen
	LBracket
	RBracket
	LBrace
	RBrace
	Comma
	Colon
	Semicolon
	Dot
	Arrow    // ->
	Ellipsis // ...
)

var kindNames = [...]string{
	Invalid:    "invalid token",
	EOF:        "end of file",
	Newline:    "newline",
	Indent:     "indent",
	Dedent:     "dedent",
	Ident:      "identifier",
	IntLit:     "integer literal",
	FloatLit:   "float literal",
	StringLit:  "string literal",
	BytesLit:   "bytes literal",
	FStringLit: "f-string",

	KwFalse:    "'False'",
	KwNone:     "'None'",
	KwTrue:     "'True'",
	KwAnd:      "'and'",
	KwAs:       "'as'",
	KwAssert:   "'assert'",
	KwAsync:    "'async'",
	KwAwait:    "'await'",
	KwBreak:    "'break'",
	KwClass:    "'class'",
	KwContinue: "'continue'",
	KwDef:      "'def'",
	KwDel:      "'del'",
	KwElif:     "'elif'",
	KwElse:     "'else'",
	KwExcept:   "'except'",
	KwFinally:  "'finally'",
	KwFor:      "'for'",
	KwFrom:     "'from'",
	KwGlobal:   "'global'",
	KwIf:       "'if'",
	KwImport:   "'import'",
	KwIn:       "'in'",
	KwIs:       "'is'",
	KwLambda:   "'lambda'",
	KwNonlocal: "'nonlocal'",
	KwNot:      "'not'",
	KwOr:       "'or'",
	KwPass:     "'pass'",
	KwRaise:    "'raise'",
	KwReturn:   "'return'",
	KwTry:      "'try'",
	KwWhile:    "'while'",
	KwWith:     "'with'",
	KwYield:    "'yield'",

	Plus:          "'+'",
	Minus:         "'-'",
	Star:          "'*'",
	StarStar:      "'**'",
	Slash:         "'/'",
	SlashSlash:    "'//'",
	Percent:       "'%'",
	At:            "'@'",
	Amp:           "'&'",
	Pipe:          "'|'",
	Caret:         "'^'",
	Tilde:         "'~'",
	Shl:           "'<<'",
	Shr:           "'>>'",
	Lt:            "'<'",
	Gt:            "'>'",
	LtEq:          "'<='",
	GtEq:          "'>='",
	EqEq:          "'=='",
	BangEq:        "'!='",
	Assign:        "'='",
	Walrus:        "':='",
	PlusAssign:    "'+='",
	MinusAssign:   "'-='",
	StarAssign:    "'*='",
	SlashAssign:   "'/='",
	FloorAssign:   "'//='",
	PercentAssign: "'%='",
	PowAssign:     "'**='",
	AmpAssign:     "'&='",
	PipeAssign:    "'|='",
	CaretAssign:   "'^='",
	ShlAssign:     "'<<='",
	ShrAssign:     "'>>='",
	AtAssign:      "'@='",
	LParen:        "'('",
	RParen:        "')'",
	LBracket:      "'['",
	RBracket:      "']'",
	LBrace:        "'{'",
	RBrace:        "'}'",
	Comma:         "','",
	Colon:         "':'",
	Semicolon:     "';'",
	Dot:           "'.'",
	Arrow:         "'->'",
	Ellipsis:      "'...'",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown token"
}

// IsKeyword reports whether k is a reserved word.
func (k Kind) IsKeyword() bool {
	return k >= KwFalse && k <= KwYield
}

// IsAugAssign reports whether k is an augmented assignment operator like '+='.
func (k Kind) IsAugAssign() bool {
	return k >= PlusAssign && k <= AtAssign
}
