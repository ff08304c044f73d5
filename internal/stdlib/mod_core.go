package stdlib

import "math"

// registerBuiltins adds the methods of the builtin str and bytes types. They
// are served by the host like any other shim entry.
func registerBuiltins(r *Registry) {
	b := build(r, "builtins")
	s := b.typ("str", false)
	for _, name := range []string{"upper", "lower", "capitalize", "title", "swapcase"} {
		s.method(name, Str)
	}
	for _, name := range []string{"isdigit", "isalpha", "isalnum", "isspace", "isupper", "islower"} {
		s.method(name, Bool)
	}
	// an empty chars/sep argument selects whitespace
	s.method("strip", Str, opt("chars", Str, strv(""))).
		method("lstrip", Str, opt("chars", Str, strv(""))).
		method("rstrip", Str, opt("chars", Str, strv(""))).
		method("split", ListOf(Str), opt("sep", Str, strv(""))).
		method("join", Str, req("items", ListOf(Str))).
		method("startswith", Bool, req("prefix", Str)).
		method("endswith", Bool, req("suffix", Str)).
		method("find", Int, req("sub", Str)).
		method("count", Int, req("sub", Str)).
		method("replace", Str, req("old", Str), req("new", Str)).
		method("zfill", Str, req("width", Int)).
		method("center", Str, req("width", Int)).
		method("ljust", Str, req("width", Int)).
		method("rjust", Str, req("width", Int)).
		method("encode", Bytes)

	by := b.typ("bytes", false)
	by.method("decode", Str).
		method("hex", Str).
		method("upper", Bytes).
		method("lower", Bytes).
		method("startswith", Bool, req("prefix", Bytes)).
		method("endswith", Bool, req("suffix", Bytes))
}

func registerMath(r *Registry) {
	b := build(r, "math").
		constant("pi", floatv(math.Pi)).
		constant("e", floatv(math.E)).
		constant("tau", floatv(2*math.Pi)).
		constant("inf", floatv(math.Inf(1))).
		constant("nan", floatv(math.NaN()))
	for _, name := range []string{"sqrt", "exp", "log10", "log2", "sin", "cos", "tan", "asin", "acos", "atan", "fabs", "degrees", "radians"} {
		b.fn(name, Float, req("x", Float))
	}
	for _, name := range []string{"floor", "ceil", "trunc"} {
		b.fn(name, Int, req("x", Float))
	}
	for _, name := range []string{"isnan", "isinf", "isfinite"} {
		b.fn(name, Bool, req("x", Float))
	}
	b.fn("log", Float, req("x", Float), opt("base", Float, floatv(math.E))).
		fn("pow", Float, req("x", Float), req("y", Float)).
		fn("atan2", Float, req("y", Float), req("x", Float)).
		fn("hypot", Float, req("x", Float), req("y", Float)).
		fn("fmod", Float, req("x", Float), req("y", Float)).
		fn("copysign", Float, req("x", Float), req("y", Float)).
		fn("gcd", Int, req("a", Int), req("b", Int)).
		fn("factorial", Int, req("n", Int)).
		fn("isclose", Bool, req("a", Float), req("b", Float))
}

func registerSys(r *Registry) {
	build(r, "sys").
		constant("maxsize", intv(math.MaxInt64)).
		constant("platform", strv("wasm32")).
		constant("version", strv("3.11.0 (waspy)")).
		constant("byteorder", strv("little")).
		fn("exit", None, opt("code", Int, intv(0))).
		fn("getrecursionlimit", Int).
		fn("getsizeof", Int, req("obj", Any))
}

func registerOS(r *Registry) {
	build(r, "os").
		constant("name", strv("posix")).
		constant("sep", strv("/")).
		constant("altsep", strv("")).
		constant("linesep", strv("\n")).
		constant("pathsep", strv(":")).
		constant("devnull", strv("/dev/null")).
		constant("curdir", strv(".")).
		constant("pardir", strv("..")).
		constant("extsep", strv(".")).
		fn("getcwd", Str).
		fn("getpid", Int).
		fn("getenv", Str, req("key", Str), opt("default", Str, strv(""))).
		fn("listdir", ListOf(Str), opt("path", Str, strv("."))).
		fn("cpu_count", Int)

	build(r, "os.path").
		variadic("join", Str, req("path", Str), req("paths", Str)).
		fn("exists", Bool, req("path", Str)).
		fn("isfile", Bool, req("path", Str)).
		fn("isdir", Bool, req("path", Str)).
		fn("isabs", Bool, req("path", Str)).
		fn("basename", Str, req("path", Str)).
		fn("dirname", Str, req("path", Str)).
		fn("abspath", Str, req("path", Str)).
		fn("normpath", Str, req("path", Str)).
		fn("expanduser", Str, req("path", Str)).
		fn("getsize", Int, req("path", Str))
}

func registerRandom(r *Registry) {
	build(r, "random").
		fn("random", Float).
		fn("randint", Int, req("a", Int), req("b", Int)).
		fn("uniform", Float, req("a", Float), req("b", Float)).
		fn("seed", None, req("a", Int))
}

func registerJSON(r *Registry) {
	// indent < 0 selects the compact form
	build(r, "json").
		fn("loads", Any, req("s", Str)).
		fn("dumps", Str, req("obj", Any), opt("indent", Int, intv(-1)))
}

func registerTime(r *Registry) {
	build(r, "time").
		fn("time", Float).
		fn("perf_counter", Float).
		fn("monotonic", Float).
		fn("sleep", None, req("secs", Float))
}

// registerFunctional covers collections, itertools and functools. Their
// iterator and mapping APIs fall outside the closed type set; only the
// memoising decorators are usable, as identity decorators.
func registerFunctional(r *Registry) {
	build(r, "collections")
	build(r, "itertools")
	build(r, "functools").
		decorator("lru_cache").
		decorator("cache")
}
