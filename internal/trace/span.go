package trace

import (
	"sync/atomic"
	"time"
)

var (
	globalSeq   atomic.Uint64
	globalSpans atomic.Uint64
	openSpans   atomic.Int64
)

// NextSeq returns a monotonically increasing sequence number.
func NextSeq() uint64 {
	return globalSeq.Add(1)
}

// OpenSpans reports spans begun and not yet ended, across all tracers.
func OpenSpans() int64 {
	return openSpans.Load()
}

// Span tracks one logical operation. A span filtered out by the level
// still hands its tracer and module to children, so a module span hidden
// at LevelPhase does not hide the passes below it.
type Span struct {
	tracer  Tracer
	id      uint64
	parent  uint64
	module  string
	scope   Scope
	name    string
	started time.Time
	extra   map[string]string
	emitted bool
}

// Begin starts a span under parent (nil for a root span); the span inherits
// the module of parent.
func Begin(t Tracer, scope Scope, name string, parent *Span) *Span {
	module := ""
	if parent != nil {
		module = parent.module
	}
	return begin(t, scope, name, module, parent.ID())
}

// BeginModule starts the root span of one module's compilation.
func BeginModule(t Tracer, module string) *Span {
	return begin(t, ScopeModule, "compile", module, 0)
}

func begin(t Tracer, scope Scope, name, module string, parent uint64) *Span {
	if t == nil {
		t = Nop
	}
	s := &Span{tracer: t, parent: parent, module: module, scope: scope, name: name}
	if !t.Enabled() || !t.Level().ShouldEmit(scope) {
		// прозрачный span: дети цепляются к ближайшему видимому предку
		s.id = parent
		return s
	}
	s.id = globalSpans.Add(1)
	s.started = time.Now()
	s.emitted = true
	openSpans.Add(1)
	t.Emit(&Event{
		Time:     s.started,
		Kind:     KindSpanBegin,
		Scope:    scope,
		SpanID:   s.id,
		ParentID: parent,
		Module:   module,
		Name:     name,
	})
	return s
}

// Child starts a span below s.
func (s *Span) Child(scope Scope, name string) *Span {
	if s == nil {
		return Begin(Nop, scope, name, nil)
	}
	return Begin(s.tracer, scope, name, s)
}

// Point emits an instant event attached to s.
func (s *Span) Point(scope Scope, name, detail string) {
	if s == nil {
		return
	}
	emitPoint(s.tracer, scope, s.module, s.id, name, detail)
}

// End emits the end event and returns the duration.
func (s *Span) End(detail string) time.Duration {
	if s == nil || !s.emitted {
		return 0
	}
	s.emitted = false
	openSpans.Add(-1)
	dur := time.Since(s.started)
	s.tracer.Emit(&Event{
		Time:     time.Now(),
		Kind:     KindSpanEnd,
		Scope:    s.scope,
		SpanID:   s.id,
		ParentID: s.parent,
		Module:   s.module,
		Name:     s.name,
		Detail:   detail,
		Elapsed:  dur,
		Extra:    s.extra,
	})
	return dur
}

// WithExtra adds a key-value pair to the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if s == nil || !s.emitted {
		return s
	}
	if s.extra == nil {
		s.extra = make(map[string]string)
	}
	s.extra[key] = value
	return s
}

// ID returns the span ID, or the nearest emitted ancestor's for a filtered span.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

// Point emits an instant event outside any span.
func Point(t Tracer, scope Scope, name, detail string) {
	emitPoint(t, scope, "", 0, name, detail)
}

func emitPoint(t Tracer, scope Scope, module string, parent uint64, name, detail string) {
	if t == nil || !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return
	}
	t.Emit(&Event{
		Time:     time.Now(),
		Kind:     KindPoint,
		Scope:    scope,
		ParentID: parent,
		Module:   module,
		Name:     name,
		Detail:   detail,
	})
}
