package stdlib

func registerDatetime(r *Registry) {
	const (
		dt    TypeRef = "datetime.datetime"
		date  TypeRef = "datetime.date"
		tm    TypeRef = "datetime.time"
		delta TypeRef = "datetime.timedelta"
	)
	zero := intv(0)
	b := build(r, "datetime").
		constant("MINYEAR", intv(1)).
		constant("MAXYEAR", intv(9999))

	b.typ("datetime", true).
		ctor(req("year", Int), req("month", Int), req("day", Int),
			opt("hour", Int, zero), opt("minute", Int, zero), opt("second", Int, zero),
			opt("microsecond", Int, zero)).
		static("now", dt).
		static("today", dt).
		static("fromisoformat", dt, req("date_string", Str)).
		static("fromtimestamp", dt, req("timestamp", Float)).
		attr("year", Int).attr("month", Int).attr("day", Int).
		attr("hour", Int).attr("minute", Int).attr("second", Int).attr("microsecond", Int).
		method("isoformat", Str).
		method("strftime", Str, req("format", Str)).
		method("date", date).
		method("time", tm).
		method("timestamp", Float).
		method("weekday", Int).
		method("isoweekday", Int)

	b.typ("date", true).
		ctor(req("year", Int), req("month", Int), req("day", Int)).
		static("today", date).
		static("fromisoformat", date, req("date_string", Str)).
		attr("year", Int).attr("month", Int).attr("day", Int).
		method("isoformat", Str).
		method("strftime", Str, req("format", Str)).
		method("weekday", Int).
		method("isoweekday", Int).
		method("toordinal", Int)

	b.typ("time", true).
		ctor(opt("hour", Int, zero), opt("minute", Int, zero), opt("second", Int, zero),
			opt("microsecond", Int, zero)).
		attr("hour", Int).attr("minute", Int).attr("second", Int).attr("microsecond", Int).
		method("isoformat", Str).
		method("strftime", Str, req("format", Str))

	fzero := floatv(0)
	b.typ("timedelta", true).
		ctor(opt("days", Float, fzero), opt("seconds", Float, fzero), opt("microseconds", Float, fzero),
			opt("milliseconds", Float, fzero), opt("minutes", Float, fzero), opt("hours", Float, fzero),
			opt("weeks", Float, fzero)).
		attr("days", Int).attr("seconds", Int).attr("microseconds", Int).
		method("total_seconds", Float)

	// date/duration algebra
	r.operator("-", dt, dt, delta)
	r.operator("+", dt, delta, dt)
	r.operator("-", dt, delta, dt)
	r.operator("-", date, date, delta)
	r.operator("+", date, delta, date)
	r.operator("-", date, delta, date)
	r.operator("+", delta, delta, delta)
	r.operator("-", delta, delta, delta)
	r.operator("*", delta, Int, delta)
	r.operator("/", delta, Int, delta)
}
