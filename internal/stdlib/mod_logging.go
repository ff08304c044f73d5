package stdlib

func registerLogging(r *Registry) {
	const logger TypeRef = "logging.Logger"
	const handler TypeRef = "logging.StreamHandler"
	const formatter TypeRef = "logging.Formatter"
	b := build(r, "logging")
	for _, lvl := range []struct {
		name string
		v    int64
	}{
		{"NOTSET", 0}, {"DEBUG", 10}, {"INFO", 20}, {"WARNING", 30}, {"WARN", 30},
		{"ERROR", 40}, {"CRITICAL", 50}, {"FATAL", 50},
	} {
		b.constant(lvl.name, intv(lvl.v))
	}
	for _, name := range []string{"debug", "info", "warning", "warn", "error", "critical", "fatal", "exception"} {
		b.fn(name, None, req("msg", Str))
	}
	b.fn("log", None, req("level", Int), req("msg", Str)).
		fn("basicConfig", None, opt("level", Int, intv(30)), opt("format", Str, strv(""))).
		fn("setLevel", None, req("level", Int)).
		fn("disable", None, opt("level", Int, intv(50))).
		fn("getLogger", logger, opt("name", Str, strv("root")))

	lg := b.typ("Logger", false)
	for _, name := range []string{"debug", "info", "warning", "error", "critical", "exception"} {
		lg.method(name, None, req("msg", Str))
	}
	lg.method("log", None, req("level", Int), req("msg", Str)).
		method("setLevel", None, req("level", Int)).
		method("addHandler", None, req("handler", handler)).
		method("isEnabledFor", Bool, req("level", Int)).
		attr("name", Str).
		attr("level", Int)

	b.typ("StreamHandler", false).
		ctor().
		method("setLevel", None, req("level", Int)).
		method("setFormatter", None, req("fmt", formatter))
	b.typ("Formatter", false).
		ctor(opt("fmt", Str, strv("%(levelname)s:%(name)s:%(message)s")))
}
