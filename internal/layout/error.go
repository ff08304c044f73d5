package layout

import (
	"fmt"

	"waspy/internal/types"
)

// LayoutErrorKind enumerates types of layout calculation errors.
type LayoutErrorKind uint8

const (
	// LayoutErrNotRecord indicates an object layout request for a non-record type.
	LayoutErrNotRecord LayoutErrorKind = iota + 1
	LayoutErrNoField
	// LayoutErrTooLarge indicates an object that does not fit the 32-bit address space.
	LayoutErrTooLarge
)

// LayoutError represents an error during memory layout calculation.
type LayoutError struct {
	Kind  LayoutErrorKind
	Type  types.TypeID
	Field string // for LayoutErrNoField
	Err   error  // for LayoutErrTooLarge
}

func (e *LayoutError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case LayoutErrNotRecord:
		return fmt.Sprintf("type#%d is not a record", e.Type)
	case LayoutErrNoField:
		return fmt.Sprintf("record type#%d has no field %q", e.Type, e.Field)
	case LayoutErrTooLarge:
		return fmt.Sprintf("record type#%d is too large: %v", e.Type, e.Err)
	default:
		return fmt.Sprintf("layout error kind=%d type#%d", e.Kind, e.Type)
	}
}

func (e *LayoutError) Unwrap() error { return e.Err }
