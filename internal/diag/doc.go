// Package diag defines the diagnostic model shared by all compiler phases.
//
// A Diagnostic carries a severity, a numeric Code, a short message, the primary
// source span and optional notes. Codes are grouped in ranges and every range
// maps onto one user-visible error Kind:
//
//   - 1000-2999: SyntaxError (lexer and parser)
//   - 3000-3099: NameError (symbol resolution)
//   - 3100-3999: TypeError (type resolution and checking)
//   - 4000-4999: CodeGenError (code generation, emitted module limits)
//
// Phases emit through a Reporter (usually a BagReporter) and never format or
// print anything themselves; rendering lives in internal/diagfmt.
package diag
