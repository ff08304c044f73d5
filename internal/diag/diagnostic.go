package diag

import "waspy/internal/source"

type Note struct {
	Span source.Span
	Msg  string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
}

func New(sev Severity, code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
	}
}

func NewError(code Code, primary source.Span, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Span: sp, Msg: msg})
	return d
}

// Kind is shorthand for d.Code.Kind().
func (d Diagnostic) Kind() Kind {
	return d.Code.Kind()
}

// Error renders the diagnostic without source positions, e.g. "TypeError: cannot add int and str".
func (d Diagnostic) Error() string {
	return d.Kind().String() + ": " + d.Message
}
