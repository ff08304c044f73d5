package codegen

import (
	"fmt"

	"github.com/pkg/errors"

	"waspy/internal/diag"
	"waspy/internal/source"
)

// Error is a CodeGenError: the program is valid but does not fit the
// target limits. No module is produced.
type Error struct {
	Code diag.Code
	Func string
	Span source.Span
	Msg  string
}

func (e *Error) Error() string {
	if e.Func == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Func, e.Msg)
}

// Diagnostic converts e for the diagnostics bag.
func (e *Error) Diagnostic() diag.Diagnostic {
	return diag.NewError(e.Code, e.Span, e.Error())
}

func limitf(code diag.Code, fn string, span source.Span, format string, args ...any) *Error {
	return &Error{Code: code, Func: fn, Span: span, Msg: fmt.Sprintf(format, args...)}
}

// internalf reports a code generator defect with a stack.
func internalf(format string, args ...any) error {
	return errors.WithStack(&Error{Code: diag.GenInternal, Msg: fmt.Sprintf(format, args...)})
}
