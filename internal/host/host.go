// Package host runs compiled modules under wazero. It provides the
// "waspy" service imports every program may use and the shim modules
// (math, os, re, datetime, logging and the rest) behind the stdlib
// contract.
package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/sys"

	"waspy/internal/codegen"
	"waspy/internal/rt"
	"waspy/internal/trace"
)

// GuestName is the module name the program is instantiated under.
const GuestName = "__main__"

// Options configure the environment a program sees.
type Options struct {
	Stdout io.Writer
	Stderr io.Writer
	// Tracer receives the records written through the logging module.
	Tracer trace.Tracer
	// Env replaces the process environment for os.getenv when non-nil.
	Env map[string]string
	// Seed initializes the random module.
	Seed int64
	// Now replaces the wall clock for datetime and time.
	Now func() time.Time
}

func (o *Options) fill() {
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	if o.Tracer == nil {
		o.Tracer = trace.Nop
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Exception is a Python exception that escaped to the host.
type Exception struct {
	Class   string
	Message string
}

func (e *Exception) Error() string {
	if e.Message == "" {
		return e.Class
	}
	return e.Class + ": " + e.Message
}

// ExitError reports a call to sys.exit.
type ExitError struct {
	Code uint32
}

func (e *ExitError) Error() string { return fmt.Sprintf("exit status %d", e.Code) }

// Instance is one instantiated program with its own memory and host state.
type Instance struct {
	opts    Options
	runtime wazero.Runtime
	mod     api.Module
	meta    *codegen.Metadata

	handles []any
	state   *state
}

// Load compiles and instantiates wasm. The module initializer runs before
// Load returns; an exception escaping it is reported as *Exception and
// sys.exit as *ExitError.
func Load(ctx context.Context, wasm []byte, opts Options) (*Instance, error) {
	opts.fill()
	r := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().WithCustomSections(true))
	in := &Instance{opts: opts, runtime: r, handles: []any{nil}}
	in.state = newState(in)
	if err := in.load(ctx, wasm); err != nil {
		_ = r.Close(ctx)
		return nil, err
	}
	return in, nil
}

func (in *Instance) load(ctx context.Context, bin []byte) error {
	compiled, err := in.runtime.CompileModule(ctx, bin)
	if err != nil {
		return fmt.Errorf("compile module: %w", err)
	}
	for _, sec := range compiled.CustomSections() {
		if sec.Name() == codegen.MetadataSection {
			if in.meta, err = codegen.ParseMetadata(sec.Data()); err != nil {
				return fmt.Errorf("read %s: %w", codegen.MetadataSection, err)
			}
		}
	}
	if in.meta == nil {
		return fmt.Errorf("module has no %s section", codegen.MetadataSection)
	}
	if err := in.instantiateImports(ctx, compiled); err != nil {
		return err
	}

	cfg := wazero.NewModuleConfig().WithName(GuestName).WithStartFunctions()
	if in.meta.Init == "_initialize" {
		cfg = cfg.WithStartFunctions("_initialize")
	}
	in.mod, err = in.runtime.InstantiateModule(ctx, compiled, cfg)
	if err != nil {
		return in.callError(err)
	}
	return in.pending(ctx)
}

// instantiateImports registers one host module per import module name.
func (in *Instance) instantiateImports(ctx context.Context, compiled wazero.CompiledModule) error {
	byModule := make(map[string][]api.FunctionDefinition)
	var order []string
	for _, def := range compiled.ImportedFunctions() {
		module, _, _ := def.Import()
		if _, seen := byModule[module]; !seen {
			order = append(order, module)
		}
		byModule[module] = append(byModule[module], def)
	}
	slices.Sort(order)
	for _, module := range order {
		b := in.runtime.NewHostModuleBuilder(module)
		for _, def := range byModule[module] {
			_, name, _ := def.Import()
			fn, err := in.hostFunc(module, name)
			if err != nil {
				return err
			}
			b.NewFunctionBuilder().
				WithGoModuleFunction(fn, def.ParamTypes(), def.ResultTypes()).
				WithName(name).
				Export(name)
		}
		if _, err := b.Instantiate(ctx); err != nil {
			return fmt.Errorf("instantiate host module %q: %w", module, err)
		}
	}
	return nil
}

func (in *Instance) hostFunc(module, name string) (api.GoModuleFunction, error) {
	if module == rt.HostModule {
		h, ok := rt.HostByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown host service %s.%s", module, name)
		}
		return in.service(h), nil
	}
	var sig *codegen.ImportMeta
	for i := range in.meta.Imports {
		if imp := &in.meta.Imports[i]; imp.Module == module && imp.Name == name {
			sig = imp
			break
		}
	}
	if sig == nil {
		return nil, fmt.Errorf("import %s.%s is missing from the module metadata", module, name)
	}
	return in.shim(sig), nil
}

// Metadata describes the loaded module.
func (in *Instance) Metadata() *codegen.Metadata { return in.meta }

// Call invokes an exported function. Arguments are converted from Go
// values by the declared parameter types: int64 (or int) for int, float64
// for float, bool, string, []byte, nil for None, []any for lists, Set for
// sets and *Object for class instances.
func (in *Instance) Call(ctx context.Context, name string, args ...any) (any, error) {
	exp, ok := in.meta.Export(name)
	if !ok {
		return nil, fmt.Errorf("no exported function %q", name)
	}
	if len(args) != len(exp.Params) {
		return nil, fmt.Errorf("%s takes %d arguments, got %d", name, len(exp.Params), len(args))
	}
	fn := in.mod.ExportedFunction(name)
	if fn == nil {
		return nil, fmt.Errorf("export %q is not a function", name)
	}
	m := in.memory(ctx, in.mod)
	params := make([]uint64, len(args))
	for i, a := range args {
		v, err := m.encode(a, exp.Params[i].Type)
		if err != nil {
			return nil, fmt.Errorf("%s: argument %s: %w", name, exp.Params[i].Name, err)
		}
		params[i] = v
	}
	res, err := fn.Call(ctx, params...)
	if err != nil {
		return nil, in.callError(err)
	}
	if err := in.pending(ctx); err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, nil
	}
	return m.decode(res[0], exp.Result.Type)
}

// pending turns a pending guest exception into *Exception and clears it.
func (in *Instance) pending(ctx context.Context) error {
	m := in.memory(ctx, in.mod)
	addr, err := m.callGuest("__waspy_exception")
	if err != nil || addr == 0 {
		return err
	}
	if _, err := m.callGuest("__waspy_clear_exception"); err != nil {
		return err
	}
	class, msg := m.exception(uint32(addr))
	return &Exception{Class: class, Message: msg}
}

func (in *Instance) callError(err error) error {
	var exit *sys.ExitError
	if errors.As(err, &exit) {
		return &ExitError{Code: exit.ExitCode()}
	}
	return fmt.Errorf("trap: %w", err)
}

// Close releases the runtime and every module in it.
func (in *Instance) Close(ctx context.Context) error {
	return in.runtime.Close(ctx)
}

// handle stores a host object and returns its handle.
func (in *Instance) handle(v any) uint32 {
	in.handles = append(in.handles, v)
	return uint32(len(in.handles) - 1) //nolint:gosec // handle count stays far below 2^32
}

func (in *Instance) object(h uint32) (any, bool) {
	if h == 0 || int(h) >= len(in.handles) {
		return nil, false
	}
	return in.handles[h], true
}
