// Package driver runs the pipeline parse -> sema -> lower -> codegen over
// source modules. A module either produces a binary or diagnostics, never
// both; independent modules compile in parallel.
package driver

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"waspy/internal/ast"
	"waspy/internal/codegen"
	"waspy/internal/config"
	"waspy/internal/diag"
	"waspy/internal/ir"
	"waspy/internal/observ"
	"waspy/internal/parser"
	"waspy/internal/sema"
	"waspy/internal/source"
	"waspy/internal/stdlib"
	"waspy/internal/trace"
)

// DefaultMaxDiagnostics bounds the diagnostics kept per module.
const DefaultMaxDiagnostics = 100

// Input is one source module.
type Input struct {
	// Name is the module name; empty derives it from Path.
	Name string
	Path string
	Src  []byte
}

func (in Input) moduleName() string {
	if in.Name != "" {
		return in.Name
	}
	base := filepath.Base(in.Path)
	if base == "." || base == "/" || base == "" {
		return "main"
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

type Options struct {
	Config config.Config
	// Shims is the frozen contract shared by all modules; nil builds it
	// from Config.
	Shims          *stdlib.Registry
	MaxDiagnostics int
	Tracer         trace.Tracer
	Cache          *DiskCache
	Sink           ProgressSink
	// Jobs limits CompileAll workers; zero means GOMAXPROCS.
	Jobs int
	// KeepIR keeps the IR module in Result even when codegen fails.
	KeepIR bool
}

// DefaultOptions compile with config.Default.
func DefaultOptions() Options {
	return Options{Config: config.Default()}
}

func (o *Options) fill() error {
	if o.Tracer == nil {
		o.Tracer = trace.Nop
	}
	if o.MaxDiagnostics <= 0 {
		o.MaxDiagnostics = DefaultMaxDiagnostics
	}
	if o.Config.Build.MaxLocals == 0 {
		o.Config = config.Default()
	}
	if o.Shims == nil {
		r, err := o.Config.Registry()
		if err != nil {
			return fmt.Errorf("shim entries: %w", err)
		}
		o.Shims = r
	}
	if !o.Shims.Frozen() {
		return errors.New("driver: shim registry must be frozen")
	}
	return nil
}

// Result of one module. Exactly one of Wasm and an error diagnostic is set.
type Result struct {
	Name        string
	Path        string
	FileSet     *source.FileSet
	AST         *ast.Module
	Module      *ir.Module
	Wasm        []byte
	Metadata    *codegen.Metadata
	Diagnostics *diag.Bag
	Timing      observ.Report
	// Cached reports that Wasm came from the disk cache; AST and Module
	// are nil then.
	Cached bool
}

// Failed reports whether the module produced diagnostics instead of a binary.
func (r *Result) Failed() bool { return r.Wasm == nil }

// Compile runs every phase on in. The error is reserved for cancellation
// and compiler defects; problems in the program are diagnostics.
func Compile(ctx context.Context, in Input, opts Options) (*Result, error) {
	if err := opts.fill(); err != nil {
		return nil, err
	}
	return compile(ctx, in, &opts)
}

type compilation struct {
	ctx    context.Context
	opts   *Options
	res    *Result
	timer  *observ.Timer
	span   *trace.Span
	failed bool
}

func compile(ctx context.Context, in Input, opts *Options) (*Result, error) {
	name := in.moduleName()
	res := &Result{
		Name:        name,
		Path:        in.Path,
		FileSet:     source.NewFileSet(),
		Diagnostics: diag.NewBag(opts.MaxDiagnostics),
	}
	span := trace.BeginModule(opts.Tracer, name)
	c := &compilation{ctx: ctx, opts: opts, res: res, timer: observ.NewTimer(), span: span}
	err := c.run(in)
	if !res.Cached {
		res.Timing = c.timer.Report()
	}
	res.Diagnostics.Sort()
	switch {
	case err != nil:
		span.End("error")
		return nil, err
	case res.Failed():
		span.End(fmt.Sprintf("%d diagnostics", res.Diagnostics.Len()))
	case res.Cached:
		span.End("cached")
	default:
		span.End(fmt.Sprintf("%d bytes", len(res.Wasm)))
	}
	return res, nil
}

func (c *compilation) run(in Input) error {
	mainName := c.opts.Config.MainName(c.res.Name)
	gen := c.opts.Config.Build.Codegen()
	var key Digest
	if c.opts.Cache != nil {
		key = cacheKey(in.Src, mainName, gen, c.opts.Shims)
		if ok, err := c.lookup(key); ok || err != nil {
			return err
		}
	}

	path := in.Path
	if path == "" {
		path = c.res.Name + ".py"
	}
	file := c.res.FileSet.Get(c.res.FileSet.Add(path, in.Src, 0))
	reporter := diag.BagReporter{Bag: c.res.Diagnostics}

	var checked *sema.Result
	var out *codegen.Output
	steps := []struct {
		stage Stage
		fn    func() error
	}{
		{StageParse, func() error {
			pr := parser.ParseFile(file, parser.Options{Reporter: reporter})
			c.res.AST = pr.Module
			c.failed = pr.Failed
			return nil
		}},
		{StageSema, func() error {
			checked = sema.Check(c.res.AST, sema.Options{Reporter: reporter, Shims: c.opts.Shims, MainName: mainName})
			return nil
		}},
		{StageLower, func() error {
			m, err := ir.LowerModule(c.res.AST, checked)
			if err != nil {
				return err
			}
			if err := ir.Validate(m); err != nil {
				return err
			}
			c.res.Module = m
			return nil
		}},
		{StageCodegen, func() error {
			var err error
			out, err = codegen.Generate(c.res.Module, gen)
			var cg *codegen.Error
			if errors.As(err, &cg) && cg.Code != diag.GenInternal {
				c.res.Diagnostics.Add(cg.Diagnostic())
				return nil
			}
			return err
		}},
	}
	for _, step := range steps {
		if err := c.ctx.Err(); err != nil {
			return err
		}
		if err := c.phase(step.stage, step.fn); err != nil {
			return fmt.Errorf("%s: %s: %w", c.res.Name, step.stage, err)
		}
		if c.failed || c.res.Diagnostics.HasErrors() {
			if !c.opts.KeepIR {
				c.res.Module = nil
			}
			return nil
		}
	}

	c.res.Wasm = out.Wasm
	c.res.Metadata = out.Metadata
	if c.opts.Cache != nil {
		c.store(key)
	}
	return nil
}

func (c *compilation) phase(stage Stage, fn func() error) error {
	emit(c.opts.Sink, Event{Module: c.res.Name, Stage: stage, Status: StatusWorking})
	sp := c.span.Child(trace.ScopePass, string(stage))
	err := c.timer.Measure(string(stage), fn)
	if err != nil {
		sp.End("failed")
	} else {
		sp.End("")
	}
	return err
}

func (c *compilation) lookup(key Digest) (bool, error) {
	var p DiskPayload
	ok, err := c.opts.Cache.Get(key, &p)
	if err != nil {
		// испорченная запись кэша не мешает сборке
		c.span.Point(trace.ScopeModule, "cache", err.Error())
		return false, nil
	}
	if !ok {
		return false, nil
	}
	c.res.Wasm = p.Wasm
	c.res.Cached = true
	if len(p.Meta) > 0 {
		if meta, err := codegen.ParseMetadata(p.Meta); err == nil {
			c.res.Metadata = meta
		}
	}
	for i, name := range p.PhaseNames {
		if i < len(p.PhaseMS) {
			c.res.Timing.Phases = append(c.res.Timing.Phases, observ.PhaseReport{Name: name, DurationMS: p.PhaseMS[i], Note: "cached"})
		}
	}
	return true, nil
}

func (c *compilation) store(key Digest) {
	report := c.timer.Report()
	p := &DiskPayload{Name: c.res.Name, Path: c.res.Path, Wasm: c.res.Wasm}
	if c.res.Metadata != nil {
		meta, err := c.res.Metadata.Marshal()
		if err != nil {
			return
		}
		p.Meta = meta
	}
	for _, ph := range report.Phases {
		p.PhaseNames = append(p.PhaseNames, ph.Name)
		p.PhaseMS = append(p.PhaseMS, ph.DurationMS)
	}
	if err := c.opts.Cache.Put(key, p); err != nil {
		c.span.Point(trace.ScopeModule, "cache", err.Error())
	}
}

// elapsed is the wall time of a finished result.
func elapsed(r *Result) time.Duration {
	return time.Duration(r.Timing.TotalMS * float64(time.Millisecond))
}
