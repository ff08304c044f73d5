package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
	// KindHeartbeat is a periodic liveness signal; it passes every level filter.
	KindHeartbeat
)

func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	case KindHeartbeat:
		return "heartbeat"
	default:
		return "unknown"
	}
}

// Scope indicates the granularity of an event, coarse scopes first.
type Scope uint8

const (
	// ScopeDriver covers CLI commands and whole builds.
	ScopeDriver Scope = iota + 1
	// ScopePass covers one phase of one module: parse, sema, lower, codegen.
	ScopePass
	// ScopeModule covers per-module bookkeeping such as the disk cache.
	ScopeModule
	ScopeNode // function and block level
	// ScopeProgram carries log records of a running program.
	ScopeProgram
)

func (s Scope) String() string {
	switch s {
	case ScopeDriver:
		return "driver"
	case ScopePass:
		return "pass"
	case ScopeModule:
		return "module"
	case ScopeNode:
		return "node"
	case ScopeProgram:
		return "program"
	default:
		return "unknown"
	}
}

// Event is one record of the stream. Modules compile concurrently, so
// Module rather than the goroutine identifies where an event belongs.
type Event struct {
	Time     time.Time
	Seq      uint64 // assigned by the tracer that stores the event
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 for root spans
	Module   string
	Name     string
	Detail   string
	// Elapsed is set on span ends.
	Elapsed time.Duration
	Extra   map[string]string
}
