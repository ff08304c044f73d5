package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/tetratelabs/wazero/api"

	"waspy/internal/codegen"
	"waspy/internal/layout"
	"waspy/internal/rt"
	"waspy/internal/sema"
)

// pyError is raised inside the program instead of failing the call.
type pyError struct {
	class uint32
	msg   string
}

func (e *pyError) Error() string {
	return sema.BuiltinExceptionNames()[e.class] + ": " + e.msg
}

func raisef(class uint32, format string, args ...any) error {
	return &pyError{class: class, msg: fmt.Sprintf(format, args...)}
}

func valueError(format string, args ...any) error {
	return raisef(sema.ClassValueError, format, args...)
}

// fail raises err in the program, or traps when err is a host failure.
func (m *memory) fail(err error, stack []uint64, results int) {
	var pe *pyError
	if !errors.As(err, &pe) {
		panic(err)
	}
	msg, serr := m.newStr(pe.msg)
	if serr != nil {
		panic(serr)
	}
	if _, serr := m.callGuest("__waspy_raise", uint64(pe.class), uint64(msg)); serr != nil {
		panic(serr)
	}
	if results > 0 {
		stack[0] = 0
	}
}

func (in *Instance) service(h rt.Host) api.GoModuleFunction {
	results := len(h.Spec().Results)
	return api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
		m := in.memory(ctx, mod)
		if err := in.serve(m, h, stack); err != nil {
			m.fail(err, stack, results)
		}
	})
}

func (in *Instance) serve(m *memory, h rt.Host, stack []uint64) error {
	switch h {
	case rt.HostWriteStr:
		return in.write(in.opts.Stdout, m.raw(uint32(stack[0])))
	case rt.HostWriteValue:
		v, err := m.dynamic(uint32(stack[0]))
		if err != nil {
			return err
		}
		return in.write(in.opts.Stdout, []byte(text(v, uint32(stack[1]) != 0)))
	case rt.HostStr:
		v, err := m.dynamic(uint32(stack[0]))
		if err != nil {
			return err
		}
		return m.result(stack, text(v, uint32(stack[1]) != 0))
	case rt.HostFloatToStr:
		return m.result(stack, FormatFloat(api.DecodeF64(stack[0])))
	case rt.HostStrToFloat:
		f, err := parseFloat(m.str(uint32(stack[0])))
		stack[0] = api.EncodeF64(f)
		return err
	case rt.HostFloatPow:
		f, err := floatPow(api.DecodeF64(stack[0]), api.DecodeF64(stack[1]))
		stack[0] = api.EncodeF64(f)
		return err
	case rt.HostRound:
		stack[0] = api.EncodeF64(roundDigits(api.DecodeF64(stack[0]), int64(stack[1]))) //nolint:gosec // i64 payload
		return nil
	case rt.HostExtCmp:
		order, err := in.compare(m, uint32(stack[0]), uint32(stack[1]))
		stack[0] = api.EncodeI32(order)
		return err
	}
	return fmt.Errorf("host service %s is not implemented", h)
}

func (in *Instance) write(w io.Writer, b []byte) error {
	_, err := w.Write(b)
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func (m *memory) result(stack []uint64, s string) error {
	p, err := m.newStr(s)
	stack[0] = uint64(p)
	return err
}

func text(v any, repr bool) string {
	if repr {
		return Repr(v)
	}
	return Str(v)
}

// parseFloat is float(str).
func parseFloat(s string) (float64, error) {
	t := strings.ToLower(strings.TrimSpace(s))
	sign := 1.0
	body := t
	if strings.HasPrefix(body, "-") {
		sign, body = -1, body[1:]
	} else {
		body = strings.TrimPrefix(body, "+")
	}
	switch body {
	case "inf", "infinity":
		return math.Inf(int(sign)), nil
	case "nan":
		return math.NaN(), nil
	}
	if body == "" || strings.ContainsAny(body, "xp_") || strings.HasPrefix(body, "+") || strings.HasPrefix(body, "-") {
		return 0, valueError("could not convert string to float: %s", quote(s))
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, valueError("could not convert string to float: %s", quote(s))
	}
	return f, nil
}

func floatPow(x, y float64) (float64, error) {
	switch {
	case x == 0 && y < 0:
		return 0, raisef(sema.ClassZeroDivisionError, "0.0 cannot be raised to a negative power")
	case x < 0 && !math.IsInf(x, 0) && y != math.Trunc(y) && !math.IsInf(y, 0):
		return 0, valueError("math domain error")
	}
	r := math.Pow(x, y)
	if math.IsInf(r, 0) && !math.IsInf(x, 0) && !math.IsInf(y, 0) {
		return 0, raisef(sema.ClassOverflowError, "(34, 'Numerical result out of range')")
	}
	return r, nil
}

// roundDigits is round(x, n) with ties to even on the decimal value.
func roundDigits(x float64, n int64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) || x == 0 {
		return x
	}
	switch {
	case n > 323:
		return x
	case n < -308:
		return math.Copysign(0, x)
	case n >= 0:
		f, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', int(n), 64), 64)
		if err != nil {
			return x
		}
		return f
	}
	p := math.Pow(10, float64(-n))
	return math.RoundToEven(x/p) * p
}

// ordered externals compare against values of their own type.
type ordered interface {
	compare(other any) (int, bool)
}

// compare orders two externals. Types without an order only support
// identity equality.
func (in *Instance) compare(m *memory, a, b uint32) (int32, error) {
	if a == 0 || b == 0 {
		if a == b {
			return 0, nil
		}
		return 1, nil
	}
	ha, hb := m.u32(a+layout.OffExternalHandle), m.u32(b+layout.OffExternalHandle)
	x, _ := in.object(ha)
	y, _ := in.object(hb)
	if c, ok := x.(ordered); ok {
		order, ok := c.compare(y)
		if !ok {
			return 0, raisef(sema.ClassTypeError, "cannot compare %s to %s", typeName(x), typeName(y))
		}
		return int32(order), nil //nolint:gosec // order is -1, 0 or 1
	}
	if ha == hb {
		return 0, nil
	}
	return 1, nil
}

type named interface {
	typeName() string
}

func typeName(v any) string {
	switch x := v.(type) {
	case named:
		return x.typeName()
	case nil:
		return "NoneType"
	case *Dict:
		return "dict"
	case Set:
		return "set"
	case []any:
		return "list"
	case string:
		return "str"
	case []byte:
		return "bytes"
	case bool:
		return "bool"
	case float64:
		return "float"
	case int64, int:
		return "int"
	case *Object:
		return x.Class
	}
	return fmt.Sprintf("%T", v)
}

// shimFunc implements one import of the stdlib contract on host values.
type shimFunc func(c *call, args []any) (any, error)

type call struct {
	ctx context.Context
	in  *Instance
	m   *memory
}

var shims = make(map[string]shimFunc)

func register(module, name string, fn shimFunc) {
	shims[module+":"+name] = fn
}

// Implemented reports whether the runtime serves module.name.
func Implemented(module, name string) bool {
	_, ok := shims[module+":"+name]
	return ok
}

func (in *Instance) shim(sig *codegen.ImportMeta) api.GoModuleFunction {
	fn, ok := shims[sig.Module+":"+sig.Name]
	results := 1
	if sig.Result.Type == "None" {
		results = 0
	}
	return api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
		m := in.memory(ctx, mod)
		if !ok {
			m.fail(raisef(sema.ClassNotImplementedError, "%s.%s is not available in this runtime", sig.Module, sig.Name), stack, results)
			return
		}
		args := make([]any, len(sig.Params))
		for i, p := range sig.Params {
			v, err := m.decode(stack[i], p.Type)
			if err != nil {
				panic(fmt.Errorf("%s.%s: argument %d: %w", sig.Module, sig.Name, i, err))
			}
			args[i] = v
		}
		res, err := fn(&call{ctx: ctx, in: in, m: m}, args)
		if err != nil {
			m.fail(err, stack, results)
			return
		}
		if results == 0 {
			return
		}
		v, err := m.encode(res, sig.Result.Type)
		if err != nil {
			panic(fmt.Errorf("%s.%s: result: %w", sig.Module, sig.Name, err))
		}
		stack[0] = v
	})
}
