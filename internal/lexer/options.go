package lexer

import "waspy/internal/diag"

type Options struct {
	// Reporter receives the first lexical error. May be nil.
	Reporter diag.Reporter
}
