package host

import (
	"context"
	"errors"
	"io/fs"
	"math"
	"math/rand/v2"
	"os"
	"path"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/tetratelabs/wazero/sys"

	"waspy/internal/layout"
	"waspy/internal/sema"
)

// state is the per-instance data behind the shims.
type state struct {
	rng     *rand.Rand
	started time.Time
	log     *logState
}

func newState(in *Instance) *state {
	return &state{
		rng:     newRand(in.opts.Seed),
		started: time.Now(),
		log:     newLogState(),
	}
}

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), 0x9e3779b97f4a7c15)) //nolint:gosec // seeded on purpose
}

func domainError() error { return valueError("math domain error") }

func mathFn(name string, fn func(x float64) (float64, error)) {
	register("math", name, func(_ *call, args []any) (any, error) {
		return fn(floatArg(args, 0))
	})
}

func pure(fn func(float64) float64) func(float64) (float64, error) {
	return func(x float64) (float64, error) {
		r := fn(x)
		if math.IsNaN(r) && !math.IsNaN(x) {
			return 0, domainError()
		}
		if math.IsInf(r, 0) && !math.IsInf(x, 0) {
			if x == 0 {
				return 0, domainError()
			}
			return 0, raisef(sema.ClassOverflowError, "math range error")
		}
		return r, nil
	}
}

// toIntegral converts a rounded float to int as int(x) does.
func toIntegral(x float64) (any, error) {
	switch {
	case math.IsNaN(x):
		return nil, valueError("cannot convert float NaN to integer")
	case math.IsInf(x, 0):
		return nil, raisef(sema.ClassOverflowError, "cannot convert float infinity to integer")
	case x >= math.MaxInt64 || x < math.MinInt64:
		return nil, raisef(sema.ClassOverflowError, "int too large to convert")
	}
	return int64(x), nil
}

func oserror(err error, p string) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return raisef(sema.ClassOSError, "[Errno 2] No such file or directory: %s", quote(p))
	case errors.Is(err, fs.ErrPermission):
		return raisef(sema.ClassOSError, "[Errno 13] Permission denied: %s", quote(p))
	}
	return raisef(sema.ClassOSError, "%v", err)
}

func init() {
	for name, fn := range map[string]func(float64) float64{
		"sqrt": math.Sqrt, "exp": math.Exp, "log10": math.Log10, "log2": math.Log2,
		"sin": math.Sin, "cos": math.Cos, "tan": math.Tan,
		"asin": math.Asin, "acos": math.Acos, "atan": math.Atan, "fabs": math.Abs,
		"degrees": func(x float64) float64 { return x * 180 / math.Pi },
		"radians": func(x float64) float64 { return x * math.Pi / 180 },
	} {
		mathFn(name, pure(fn))
	}
	for name, fn := range map[string]func(float64) float64{"floor": math.Floor, "ceil": math.Ceil, "trunc": math.Trunc} {
		register("math", name, func(_ *call, args []any) (any, error) { return toIntegral(fn(floatArg(args, 0))) })
	}
	register("math", "isnan", func(_ *call, args []any) (any, error) { return math.IsNaN(floatArg(args, 0)), nil })
	register("math", "isinf", func(_ *call, args []any) (any, error) { return math.IsInf(floatArg(args, 0), 0), nil })
	register("math", "isfinite", func(_ *call, args []any) (any, error) {
		x := floatArg(args, 0)
		return !math.IsNaN(x) && !math.IsInf(x, 0), nil
	})
	register("math", "log", func(_ *call, args []any) (any, error) {
		x, base := floatArg(args, 0), floatArg(args, 1)
		if x <= 0 || base <= 0 || base == 1 {
			return nil, domainError()
		}
		if base == math.E {
			return math.Log(x), nil
		}
		return math.Log(x) / math.Log(base), nil
	})
	register("math", "pow", func(_ *call, args []any) (any, error) {
		x, y := floatArg(args, 0), floatArg(args, 1)
		if x == 0 && y < 0 {
			return nil, domainError()
		}
		return floatPow(x, y)
	})
	register("math", "atan2", func(_ *call, args []any) (any, error) { return math.Atan2(floatArg(args, 0), floatArg(args, 1)), nil })
	register("math", "hypot", func(_ *call, args []any) (any, error) { return math.Hypot(floatArg(args, 0), floatArg(args, 1)), nil })
	register("math", "copysign", func(_ *call, args []any) (any, error) {
		return math.Copysign(floatArg(args, 0), floatArg(args, 1)), nil
	})
	register("math", "fmod", func(_ *call, args []any) (any, error) {
		x, y := floatArg(args, 0), floatArg(args, 1)
		if y == 0 || math.IsInf(x, 0) {
			return nil, domainError()
		}
		return math.Mod(x, y), nil
	})
	register("math", "gcd", func(_ *call, args []any) (any, error) {
		a, b := intArg(args, 0), intArg(args, 1)
		for b != 0 {
			a, b = b, a%b
		}
		if a < 0 {
			a = -a
		}
		return a, nil
	})
	register("math", "factorial", func(_ *call, args []any) (any, error) {
		n := intArg(args, 0)
		if n < 0 {
			return nil, valueError("factorial() not defined for negative values")
		}
		if n > 20 {
			return nil, raisef(sema.ClassOverflowError, "factorial(%d) does not fit in 64 bits", n)
		}
		r := int64(1)
		for i := int64(2); i <= n; i++ {
			r *= i
		}
		return r, nil
	})
	register("math", "isclose", func(_ *call, args []any) (any, error) {
		a, b := floatArg(args, 0), floatArg(args, 1)
		if a == b {
			return true, nil
		}
		if math.IsInf(a, 0) || math.IsInf(b, 0) {
			return false, nil
		}
		diff := math.Abs(a - b)
		return diff <= 1e-9*math.Abs(b) || diff <= 1e-9*math.Abs(a), nil
	})

	register("sys", "exit", func(c *call, args []any) (any, error) {
		code := uint32(intArg(args, 0)) //nolint:gosec // exit statuses wrap like the OS does
		_ = c.m.mod.CloseWithExitCode(c.ctx, code)
		panic(sys.NewExitError(code))
	})
	register("sys", "getrecursionlimit", func(*call, []any) (any, error) { return int64(1000), nil })
	register("sys", "getsizeof", func(c *call, args []any) (any, error) { return sizeOf(args[0]), nil })

	register("os", "getcwd", func(*call, []any) (any, error) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, oserror(err, ".")
		}
		return wd, nil
	})
	register("os", "getpid", func(*call, []any) (any, error) { return int64(os.Getpid()), nil })
	register("os", "getenv", func(c *call, args []any) (any, error) {
		if v, ok := c.in.getenv(strArg(args, 0)); ok {
			return v, nil
		}
		return strArg(args, 1), nil
	})
	register("os", "listdir", func(_ *call, args []any) (any, error) {
		p := strArg(args, 0)
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, oserror(err, p)
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		slices.Sort(names)
		return anyStrings(names), nil
	})
	register("os", "cpu_count", func(*call, []any) (any, error) { return int64(runtime.NumCPU()), nil })

	registerPath()

	register("random", "random", func(c *call, _ []any) (any, error) { return c.in.state.rng.Float64(), nil })
	register("random", "randint", func(c *call, args []any) (any, error) {
		a, b := intArg(args, 0), intArg(args, 1)
		if a > b {
			return nil, valueError("empty range for randrange() (%d, %d, %d)", a, b+1, b+1-a)
		}
		return a + c.in.state.rng.Int64N(b-a+1), nil
	})
	register("random", "uniform", func(c *call, args []any) (any, error) {
		a, b := floatArg(args, 0), floatArg(args, 1)
		return a + (b-a)*c.in.state.rng.Float64(), nil
	})
	register("random", "seed", func(c *call, args []any) (any, error) {
		c.in.state.rng = newRand(intArg(args, 0))
		return nil, nil
	})

	register("time", "time", func(c *call, _ []any) (any, error) {
		return float64(c.in.opts.Now().UnixNano()) / 1e9, nil
	})
	monotonic := func(c *call, _ []any) (any, error) { return time.Since(c.in.state.started).Seconds(), nil }
	register("time", "perf_counter", monotonic)
	register("time", "monotonic", monotonic)
	register("time", "sleep", func(c *call, args []any) (any, error) {
		secs := floatArg(args, 0)
		if secs < 0 {
			return nil, valueError("sleep length must be non-negative")
		}
		return nil, sleep(c.ctx, time.Duration(secs*float64(time.Second)))
	})
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (in *Instance) getenv(key string) (string, bool) {
	if in.opts.Env != nil {
		v, ok := in.opts.Env[key]
		return v, ok
	}
	return os.LookupEnv(key)
}

// sizeOf approximates sys.getsizeof of CPython 3.11 on 64-bit targets.
func sizeOf(v any) int64 {
	switch x := v.(type) {
	case nil:
		return 16
	case bool, int64:
		return 28
	case float64:
		return 24
	case string:
		return 49 + int64(len(x))
	case []byte:
		return 33 + int64(len(x))
	case []any:
		return 56 + 8*int64(len(x))
	case Set:
		return 216
	case *Object:
		return 48
	}
	return layout.ExternalSize + 40
}

// registerPath implements os.path with POSIX semantics.
func registerPath() {
	pathFn := func(name string, fn func(c *call, p string) (any, error)) {
		register("os.path", name, func(c *call, args []any) (any, error) { return fn(c, strArg(args, 0)) })
	}
	register("os.path", "join", func(_ *call, args []any) (any, error) {
		return joinPath(strArg(args, 0), strList(args, 1)...), nil
	})
	stat := func(p string) (fs.FileInfo, bool) {
		fi, err := os.Stat(p)
		return fi, err == nil
	}
	pathFn("exists", func(_ *call, p string) (any, error) { _, ok := stat(p); return ok, nil })
	pathFn("isfile", func(_ *call, p string) (any, error) { fi, ok := stat(p); return ok && fi.Mode().IsRegular(), nil })
	pathFn("isdir", func(_ *call, p string) (any, error) { fi, ok := stat(p); return ok && fi.IsDir(), nil })
	pathFn("isabs", func(_ *call, p string) (any, error) { return strings.HasPrefix(p, "/"), nil })
	pathFn("basename", func(_ *call, p string) (any, error) { return p[strings.LastIndexByte(p, '/')+1:], nil })
	pathFn("dirname", func(_ *call, p string) (any, error) { return dirname(p), nil })
	pathFn("normpath", func(_ *call, p string) (any, error) { return normpath(p), nil })
	pathFn("abspath", func(_ *call, p string) (any, error) {
		if !strings.HasPrefix(p, "/") {
			wd, err := os.Getwd()
			if err != nil {
				return nil, oserror(err, p)
			}
			p = joinPath(wd, p)
		}
		return normpath(p), nil
	})
	pathFn("expanduser", func(c *call, p string) (any, error) {
		if p != "~" && !strings.HasPrefix(p, "~/") {
			return p, nil
		}
		home, ok := c.in.getenv("HOME")
		if !ok {
			return p, nil
		}
		return strings.TrimSuffix(home, "/") + p[1:], nil
	})
	pathFn("getsize", func(_ *call, p string) (any, error) {
		fi, err := os.Stat(p)
		if err != nil {
			return nil, oserror(err, p)
		}
		return fi.Size(), nil
	})
}

// joinPath follows posixpath.join: an absolute part restarts the path.
func joinPath(first string, rest ...string) string {
	p := first
	for _, b := range rest {
		switch {
		case strings.HasPrefix(b, "/"):
			p = b
		case p == "" || strings.HasSuffix(p, "/"):
			p += b
		default:
			p += "/" + b
		}
	}
	return p
}

func dirname(p string) string {
	head := p[:strings.LastIndexByte(p, '/')+1]
	if head != "" && strings.Trim(head, "/") != "" {
		head = strings.TrimRight(head, "/")
	}
	return head
}

func normpath(p string) string {
	if p == "" {
		return "."
	}
	clean := path.Clean(p)
	// два ведущих слэша POSIX сохраняет
	if strings.HasPrefix(p, "//") && !strings.HasPrefix(p, "///") {
		return "/" + clean
	}
	return clean
}
