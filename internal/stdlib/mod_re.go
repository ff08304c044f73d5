package stdlib

func registerRe(r *Registry) {
	const pattern TypeRef = "re.Pattern"
	const match TypeRef = "re.Match"
	b := build(r, "re")
	for _, f := range []struct {
		long, short string
		v           int64
	}{
		{"IGNORECASE", "I", 2}, {"MULTILINE", "M", 8}, {"DOTALL", "S", 16},
		{"VERBOSE", "X", 64}, {"ASCII", "A", 256},
	} {
		b.constant(f.long, intv(f.v)).constant(f.short, intv(f.v))
	}
	flags := opt("flags", Int, intv(0))
	// a Match result of 0 stands for None (no match)
	b.fn("compile", pattern, req("pattern", Str), flags).
		fn("search", match, req("pattern", Str), req("string", Str), flags).
		fn("match", match, req("pattern", Str), req("string", Str), flags).
		fn("fullmatch", match, req("pattern", Str), req("string", Str), flags).
		fn("findall", ListOf(Str), req("pattern", Str), req("string", Str), flags).
		fn("split", ListOf(Str), req("pattern", Str), req("string", Str), flags).
		fn("sub", Str, req("pattern", Str), req("repl", Str), req("string", Str), opt("count", Int, intv(0)), flags).
		fn("escape", Str, req("pattern", Str))

	b.typ("Pattern", false).
		method("search", match, req("string", Str)).
		method("match", match, req("string", Str)).
		method("fullmatch", match, req("string", Str)).
		method("findall", ListOf(Str), req("string", Str)).
		method("split", ListOf(Str), req("string", Str)).
		method("sub", Str, req("repl", Str), req("string", Str), opt("count", Int, intv(0))).
		attr("pattern", Str).
		attr("flags", Int)

	b.typ("Match", false).
		method("group", Str, opt("group", Int, intv(0))).
		method("start", Int, opt("group", Int, intv(0))).
		method("end", Int, opt("group", Int, intv(0))).
		method("groups", ListOf(Str)).
		attr("string", Str)
}
