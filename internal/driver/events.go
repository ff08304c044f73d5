package driver

import "time"

// Stage is one phase of a module compilation.
type Stage string

const (
	StageParse   Stage = "parse"
	StageSema    Stage = "sema"
	StageLower   Stage = "lower"
	StageCodegen Stage = "codegen"
)

// Stages lists the phases in pipeline order.
var Stages = []Stage{StageParse, StageSema, StageLower, StageCodegen}

// Status captures progress state within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	// StatusError covers both diagnostics and internal failures.
	StatusError Status = "error"
)

// Event reports progress for one module.
type Event struct {
	Module  string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
	// Cached is set on the done event of a cache hit.
	Cached bool
}

// ProgressSink consumes build events. Implementations must be safe for
// concurrent use: CompileAll reports from every worker.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// SinkFunc adapts a function to ProgressSink.
type SinkFunc func(Event)

func (f SinkFunc) OnEvent(evt Event) { f(evt) }

func emit(sink ProgressSink, evt Event) {
	if sink != nil {
		sink.OnEvent(evt)
	}
}
