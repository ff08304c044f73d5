// Package stdlib holds the shim contract: the fixed table of external module
// symbols (constants, functions, opaque types and their operators) that the
// resolver and code generator consult. Behaviour behind the table lives in the
// host; the compiler only ever sees signatures and constant values.
package stdlib
