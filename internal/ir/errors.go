package ir

import (
	"fmt"

	"github.com/pkg/errors"
)

// InternalError reports a compiler defect found while lowering or
// validating: the checked program was valid but the IR is not.
type InternalError struct {
	Func string
	err  error
}

func internalf(fn, format string, args ...any) error {
	return &InternalError{Func: fn, err: errors.Errorf(format, args...)}
}

func (e *InternalError) Error() string {
	if e.Func == "" {
		return "internal error: " + e.err.Error()
	}
	return fmt.Sprintf("internal error in %s: %s", e.Func, e.err.Error())
}

func (e *InternalError) Unwrap() error { return e.err }

// Format prints the stack of the defect with %+v.
func (e *InternalError) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		fmt.Fprintf(s, "%s\n%+v", e.Error(), e.err)
		return
	}
	fmt.Fprint(s, e.Error())
}
