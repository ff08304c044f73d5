// Package trace is the leveled event stream shared by the compiler and the
// programs it runs.
//
// The driver opens one span per phase and module:
//
//	waspy build --trace=- --trace-level=phase app.py
//
// Implementations:
//
//   - Nop: tracing disabled
//   - StreamTracer: writes every event as text or NDJSON
//   - RingTracer: keeps the last events for a crash dump
//   - MultiTracer: fans out to several tracers
//
// Scopes, coarse to fine: ScopeDriver (CLI commands), ScopePass (parse, sema,
// lower, codegen), ScopeModule (per-module work), ScopeNode.
// ScopeProgram carries the records a compiled program writes through the
// logging module when it runs under the reference host.
//
// The tracer travels through the pipeline in the context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	mod := trace.BeginModule(trace.FromContext(ctx), "app")
//	pass := mod.Child(trace.ScopePass, "parse")
//	pass.End("")
//	mod.End("")
package trace
