package host

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"waspy/internal/sema"
)

// Naive date and time values. Wall clock fields are kept in UTC so the
// arithmetic never sees a zone offset.

const (
	usPerSecond = int64(1_000_000)
	usPerDay    = 86_400 * usPerSecond
	maxDays     = 999_999_999
)

var epoch1 = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC).Unix()

type dateTime struct{ t time.Time }

type date struct{ t time.Time }

type clock struct{ hour, minute, second, micro int64 }

type delta struct{ us int64 }

func (dateTime) typeName() string { return "datetime.datetime" }
func (date) typeName() string     { return "datetime.date" }
func (clock) typeName() string    { return "datetime.time" }
func (delta) typeName() string    { return "datetime.timedelta" }

// micros counts microseconds since 0001-01-01T00:00:00.
func micros(t time.Time) int64 {
	return (t.Unix()-epoch1)*usPerSecond + int64(t.Nanosecond()/1000)
}

func fromMicros(us int64) (time.Time, error) {
	sec := floorDiv(us, usPerSecond)
	t := time.Unix(epoch1+sec, (us-sec*usPerSecond)*1000).UTC()
	if t.Year() < 1 || t.Year() > 9999 {
		return time.Time{}, raisef(sema.ClassOverflowError, "date value out of range")
	}
	return t, nil
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func daysIn(year int64, month int64) int64 {
	return int64(time.Date(int(year), time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day())
}

func checkDate(y, m, d int64) error {
	switch {
	case y < 1 || y > 9999:
		return valueError("year %d is out of range", y)
	case m < 1 || m > 12:
		return valueError("month must be in 1..12")
	case d < 1 || d > daysIn(y, m):
		return valueError("day is out of range for month")
	}
	return nil
}

func checkClock(c clock) error {
	switch {
	case c.hour < 0 || c.hour > 23:
		return valueError("hour must be in 0..23")
	case c.minute < 0 || c.minute > 59:
		return valueError("minute must be in 0..59")
	case c.second < 0 || c.second > 59:
		return valueError("second must be in 0..59")
	case c.micro < 0 || c.micro > 999_999:
		return valueError("microsecond must be in 0..999999")
	}
	return nil
}

func newDateTime(y, m, d int64, c clock) (dateTime, error) {
	if err := checkDate(y, m, d); err != nil {
		return dateTime{}, err
	}
	if err := checkClock(c); err != nil {
		return dateTime{}, err
	}
	return dateTime{time.Date(int(y), time.Month(m), int(d), int(c.hour), int(c.minute), int(c.second), int(c.micro)*1000, time.UTC)}, nil
}

// naive drops the zone of a wall clock reading.
func naive(t time.Time) dateTime {
	t = t.Local().Round(time.Microsecond)
	return dateTime{time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)}
}

func (d dateTime) clock() clock {
	t := d.t
	return clock{int64(t.Hour()), int64(t.Minute()), int64(t.Second()), int64(t.Nanosecond() / 1000)}
}

func (d dateTime) date() date {
	return date{time.Date(d.t.Year(), d.t.Month(), d.t.Day(), 0, 0, 0, 0, time.UTC)}
}

func (d dateTime) pyStr() string  { return d.date().isoformat() + " " + d.clock().isoformat() }
func (d dateTime) pyRepr() string {
	t, c := d.t, d.clock()
	return fmt.Sprintf("datetime.datetime(%d, %d, %d, %s)", t.Year(), t.Month(), t.Day(), c.args())
}

func (d dateTime) compare(other any) (int, bool) {
	o, ok := other.(dateTime)
	return d.t.Compare(o.t), ok
}

func (d date) isoformat() string { return fmt.Sprintf("%04d-%02d-%02d", d.t.Year(), d.t.Month(), d.t.Day()) }
func (d date) pyStr() string     { return d.isoformat() }
func (d date) pyRepr() string {
	return fmt.Sprintf("datetime.date(%d, %d, %d)", d.t.Year(), d.t.Month(), d.t.Day())
}

func (d date) compare(other any) (int, bool) {
	o, ok := other.(date)
	return d.t.Compare(o.t), ok
}

func (d date) ordinal() int64 { return floorDiv(micros(d.t), usPerDay) + 1 }

func (c clock) isoformat() string {
	s := fmt.Sprintf("%02d:%02d:%02d", c.hour, c.minute, c.second)
	if c.micro != 0 {
		s += fmt.Sprintf(".%06d", c.micro)
	}
	return s
}

// args lists the fields for repr, dropping trailing zero seconds and
// microseconds.
func (c clock) args() string {
	fields := []int64{c.hour, c.minute, c.second, c.micro}
	n := len(fields)
	for n > 2 && fields[n-1] == 0 {
		n--
	}
	parts := make([]string, n)
	for i := range n {
		parts[i] = strconv.FormatInt(fields[i], 10)
	}
	return strings.Join(parts, ", ")
}

func (c clock) pyStr() string  { return c.isoformat() }
func (c clock) pyRepr() string { return "datetime.time(" + c.args() + ")" }
func (c clock) micros() int64 {
	return ((c.hour*60+c.minute)*60+c.second)*usPerSecond + c.micro
}

func (c clock) compare(other any) (int, bool) {
	o, ok := other.(clock)
	return cmpInt(c.micros(), o.micros()), ok
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func newDelta(us int64) (delta, error) {
	if days := floorDiv(us, usPerDay); days > maxDays || days < -maxDays {
		return delta{}, raisef(sema.ClassOverflowError, "days=%d; must have magnitude <= %d", days, maxDays)
	}
	return delta{us}, nil
}

func (d delta) parts() (days, seconds, micro int64) {
	days = floorDiv(d.us, usPerDay)
	rem := d.us - days*usPerDay
	return days, rem / usPerSecond, rem % usPerSecond
}

func (d delta) pyStr() string {
	days, secs, micro := d.parts()
	s := fmt.Sprintf("%d:%02d:%02d", secs/3600, secs/60%60, secs%60)
	if days != 0 {
		unit := "days"
		if days == 1 || days == -1 {
			unit = "day"
		}
		s = fmt.Sprintf("%d %s, %s", days, unit, s)
	}
	if micro != 0 {
		s += fmt.Sprintf(".%06d", micro)
	}
	return s
}

func (d delta) pyRepr() string {
	days, secs, micro := d.parts()
	var parts []string
	if days != 0 {
		parts = append(parts, fmt.Sprintf("days=%d", days))
	}
	if secs != 0 {
		parts = append(parts, fmt.Sprintf("seconds=%d", secs))
	}
	if micro != 0 {
		parts = append(parts, fmt.Sprintf("microseconds=%d", micro))
	}
	if len(parts) == 0 {
		return "datetime.timedelta(0)"
	}
	return "datetime.timedelta(" + strings.Join(parts, ", ") + ")"
}

func (d delta) compare(other any) (int, bool) {
	o, ok := other.(delta)
	return cmpInt(d.us, o.us), ok
}

var (
	weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	months   = []string{"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"}
)

func weekday(t time.Time) int64 { return int64((t.Weekday() + 6) % 7) }

// strftime supports the C89 directives plus %f.
func strftime(t time.Time, c clock, layout string) string {
	var sb strings.Builder
	for i := 0; i < len(layout); i++ {
		if layout[i] != '%' || i+1 == len(layout) {
			sb.WriteByte(layout[i])
			continue
		}
		i++
		switch layout[i] {
		case 'Y':
			fmt.Fprintf(&sb, "%04d", t.Year())
		case 'y':
			fmt.Fprintf(&sb, "%02d", t.Year()%100)
		case 'm':
			fmt.Fprintf(&sb, "%02d", int(t.Month()))
		case 'd':
			fmt.Fprintf(&sb, "%02d", t.Day())
		case 'H':
			fmt.Fprintf(&sb, "%02d", c.hour)
		case 'I':
			fmt.Fprintf(&sb, "%02d", (c.hour+11)%12+1)
		case 'p':
			if c.hour < 12 {
				sb.WriteString("AM")
			} else {
				sb.WriteString("PM")
			}
		case 'M':
			fmt.Fprintf(&sb, "%02d", c.minute)
		case 'S':
			fmt.Fprintf(&sb, "%02d", c.second)
		case 'f':
			fmt.Fprintf(&sb, "%06d", c.micro)
		case 'j':
			fmt.Fprintf(&sb, "%03d", t.YearDay())
		case 'a':
			sb.WriteString(weekdays[weekday(t)][:3])
		case 'A':
			sb.WriteString(weekdays[weekday(t)])
		case 'w':
			fmt.Fprintf(&sb, "%d", int(t.Weekday()))
		case 'b':
			sb.WriteString(months[t.Month()-1][:3])
		case 'B':
			sb.WriteString(months[t.Month()-1])
		case 'c':
			fmt.Fprintf(&sb, "%s %s %2d %02d:%02d:%02d %04d", weekdays[weekday(t)][:3], months[t.Month()-1][:3], t.Day(), c.hour, c.minute, c.second, t.Year())
		case 'x':
			fmt.Fprintf(&sb, "%02d/%02d/%02d", int(t.Month()), t.Day(), t.Year()%100)
		case 'X':
			fmt.Fprintf(&sb, "%02d:%02d:%02d", c.hour, c.minute, c.second)
		case 'z', 'Z':
		case '%':
			sb.WriteByte('%')
		default:
			sb.WriteByte('%')
			sb.WriteByte(layout[i])
		}
	}
	return sb.String()
}

// parseISO reads YYYY-MM-DD with an optional time part after 'T' or ' '.
func parseISO(s string, withTime bool) (dateTime, error) {
	bad := valueError("Invalid isoformat string: %s", quote(s))
	num := func(p string) (int64, bool) {
		if p == "" {
			return 0, false
		}
		for _, r := range p {
			if r < '0' || r > '9' {
				return 0, false
			}
		}
		n, err := strconv.ParseInt(p, 10, 64)
		return n, err == nil
	}
	datePart, timePart := s, ""
	if len(s) > 10 {
		if !withTime || (s[10] != 'T' && s[10] != ' ') {
			return dateTime{}, bad
		}
		datePart, timePart = s[:10], s[11:]
	}
	ymd := strings.Split(datePart, "-")
	if len(ymd) != 3 || len(ymd[0]) != 4 || len(ymd[1]) != 2 || len(ymd[2]) != 2 {
		return dateTime{}, bad
	}
	var f [3]int64
	for i, p := range ymd {
		n, ok := num(p)
		if !ok {
			return dateTime{}, bad
		}
		f[i] = n
	}
	var c clock
	if timePart != "" {
		main, frac, hasFrac := strings.Cut(timePart, ".")
		hms := strings.Split(main, ":")
		if len(hms) > 3 {
			return dateTime{}, bad
		}
		vals := []*int64{&c.hour, &c.minute, &c.second}
		for i, p := range hms {
			n, ok := num(p)
			if !ok || len(p) != 2 {
				return dateTime{}, bad
			}
			*vals[i] = n
		}
		if hasFrac {
			n, ok := num(frac)
			if !ok || len(frac) > 6 || len(hms) != 3 {
				return dateTime{}, bad
			}
			c.micro = n * int64(math.Pow10(6-len(frac)))
		}
	}
	dt, err := newDateTime(f[0], f[1], f[2], c)
	if err != nil {
		return dateTime{}, err
	}
	return dt, nil
}

func fromTimestamp(ts float64) (dateTime, error) {
	if math.IsNaN(ts) || math.IsInf(ts, 0) || math.Abs(ts) > 253402300799 {
		return dateTime{}, valueError("year is out of range")
	}
	sec := math.Floor(ts)
	us := math.RoundToEven((ts - sec) * 1e6)
	return naive(time.Unix(int64(sec), int64(us)*1000)), nil
}

func dtArg(args []any, i int) dateTime { v, _ := args[i].(dateTime); return v }
func dateArg(args []any, i int) date   { v, _ := args[i].(date); return v }
func clockArg(args []any, i int) clock { v, _ := args[i].(clock); return v }
func deltaArg(args []any, i int) delta { v, _ := args[i].(delta); return v }

func (d date) add(td delta) (any, error) {
	days, _, _ := td.parts()
	t, err := fromMicros(micros(d.t) + days*usPerDay)
	if err != nil {
		return nil, err
	}
	return date{t}, nil
}

func (d dateTime) add(us int64) (any, error) {
	t, err := fromMicros(micros(d.t) + us)
	if err != nil {
		return nil, err
	}
	return dateTime{t}, nil
}

func mulOverflows(a, b int64) bool {
	if a == 0 || b == 0 {
		return false
	}
	c := a * b
	return c/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64)
}

func init() {
	dt := func(name string, fn func(c *call, args []any) (any, error)) { register("datetime", name, fn) }

	dt("datetime", func(_ *call, a []any) (any, error) {
		return newDateTime(intArg(a, 0), intArg(a, 1), intArg(a, 2), clock{intArg(a, 3), intArg(a, 4), intArg(a, 5), intArg(a, 6)})
	})
	dt("datetime.now", func(c *call, _ []any) (any, error) { return naive(c.in.opts.Now()), nil })
	dt("datetime.today", func(c *call, _ []any) (any, error) { return naive(c.in.opts.Now()), nil })
	dt("datetime.fromisoformat", func(_ *call, a []any) (any, error) { return parseISO(strArg(a, 0), true) })
	dt("datetime.fromtimestamp", func(_ *call, a []any) (any, error) { return fromTimestamp(floatArg(a, 0)) })
	for name, get := range map[string]func(d dateTime) int64{
		"year":        func(d dateTime) int64 { return int64(d.t.Year()) },
		"month":       func(d dateTime) int64 { return int64(d.t.Month()) },
		"day":         func(d dateTime) int64 { return int64(d.t.Day()) },
		"hour":        func(d dateTime) int64 { return d.clock().hour },
		"minute":      func(d dateTime) int64 { return d.clock().minute },
		"second":      func(d dateTime) int64 { return d.clock().second },
		"microsecond": func(d dateTime) int64 { return d.clock().micro },
	} {
		dt("datetime."+name, func(_ *call, a []any) (any, error) { return get(dtArg(a, 0)), nil })
	}
	dt("datetime.isoformat", func(_ *call, a []any) (any, error) {
		d := dtArg(a, 0)
		return d.date().isoformat() + "T" + d.clock().isoformat(), nil
	})
	dt("datetime.strftime", func(_ *call, a []any) (any, error) {
		d := dtArg(a, 0)
		return strftime(d.t, d.clock(), strArg(a, 1)), nil
	})
	dt("datetime.date", func(_ *call, a []any) (any, error) { return dtArg(a, 0).date(), nil })
	dt("datetime.time", func(_ *call, a []any) (any, error) { return dtArg(a, 0).clock(), nil })
	dt("datetime.timestamp", func(_ *call, a []any) (any, error) {
		d := dtArg(a, 0)
		local := time.Date(d.t.Year(), d.t.Month(), d.t.Day(), d.t.Hour(), d.t.Minute(), d.t.Second(), d.t.Nanosecond(), time.Local)
		return float64(local.Unix()) + float64(local.Nanosecond())/1e9, nil
	})
	dt("datetime.weekday", func(_ *call, a []any) (any, error) { return weekday(dtArg(a, 0).t), nil })
	dt("datetime.isoweekday", func(_ *call, a []any) (any, error) { return weekday(dtArg(a, 0).t) + 1, nil })

	dt("date", func(_ *call, a []any) (any, error) {
		d, err := newDateTime(intArg(a, 0), intArg(a, 1), intArg(a, 2), clock{})
		if err != nil {
			return nil, err
		}
		return d.date(), nil
	})
	dt("date.today", func(c *call, _ []any) (any, error) { return naive(c.in.opts.Now()).date(), nil })
	dt("date.fromisoformat", func(_ *call, a []any) (any, error) {
		d, err := parseISO(strArg(a, 0), false)
		if err != nil {
			return nil, err
		}
		return d.date(), nil
	})
	dt("date.year", func(_ *call, a []any) (any, error) { return int64(dateArg(a, 0).t.Year()), nil })
	dt("date.month", func(_ *call, a []any) (any, error) { return int64(dateArg(a, 0).t.Month()), nil })
	dt("date.day", func(_ *call, a []any) (any, error) { return int64(dateArg(a, 0).t.Day()), nil })
	dt("date.isoformat", func(_ *call, a []any) (any, error) { return dateArg(a, 0).isoformat(), nil })
	dt("date.strftime", func(_ *call, a []any) (any, error) { return strftime(dateArg(a, 0).t, clock{}, strArg(a, 1)), nil })
	dt("date.weekday", func(_ *call, a []any) (any, error) { return weekday(dateArg(a, 0).t), nil })
	dt("date.isoweekday", func(_ *call, a []any) (any, error) { return weekday(dateArg(a, 0).t) + 1, nil })
	dt("date.toordinal", func(_ *call, a []any) (any, error) { return dateArg(a, 0).ordinal(), nil })

	dt("time", func(_ *call, a []any) (any, error) {
		c := clock{intArg(a, 0), intArg(a, 1), intArg(a, 2), intArg(a, 3)}
		if err := checkClock(c); err != nil {
			return nil, err
		}
		return c, nil
	})
	dt("time.hour", func(_ *call, a []any) (any, error) { return clockArg(a, 0).hour, nil })
	dt("time.minute", func(_ *call, a []any) (any, error) { return clockArg(a, 0).minute, nil })
	dt("time.second", func(_ *call, a []any) (any, error) { return clockArg(a, 0).second, nil })
	dt("time.microsecond", func(_ *call, a []any) (any, error) { return clockArg(a, 0).micro, nil })
	dt("time.isoformat", func(_ *call, a []any) (any, error) { return clockArg(a, 0).isoformat(), nil })
	dt("time.strftime", func(_ *call, a []any) (any, error) {
		return strftime(time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC), clockArg(a, 0), strArg(a, 1)), nil
	})

	dt("timedelta", func(_ *call, a []any) (any, error) {
		scale := []float64{float64(usPerDay), float64(usPerSecond), 1, 1000, 60 * float64(usPerSecond), 3600 * float64(usPerSecond), 7 * float64(usPerDay)}
		total := 0.0
		for i, s := range scale {
			total += floatArg(a, i) * s
		}
		total = math.RoundToEven(total)
		if math.IsNaN(total) || math.Abs(total) >= math.MaxInt64 {
			return nil, raisef(sema.ClassOverflowError, "timedelta out of range")
		}
		return newDelta(int64(total))
	})
	dt("timedelta.days", func(_ *call, a []any) (any, error) { d, _, _ := deltaArg(a, 0).parts(); return d, nil })
	dt("timedelta.seconds", func(_ *call, a []any) (any, error) { _, s, _ := deltaArg(a, 0).parts(); return s, nil })
	dt("timedelta.microseconds", func(_ *call, a []any) (any, error) { _, _, us := deltaArg(a, 0).parts(); return us, nil })
	dt("timedelta.total_seconds", func(_ *call, a []any) (any, error) {
		return float64(deltaArg(a, 0).us) / float64(usPerSecond), nil
	})

	dt("datetime.__sub__.datetime", func(_ *call, a []any) (any, error) {
		return newDelta(micros(dtArg(a, 0).t) - micros(dtArg(a, 1).t))
	})
	dt("datetime.__add__.timedelta", func(_ *call, a []any) (any, error) { return dtArg(a, 0).add(deltaArg(a, 1).us) })
	dt("datetime.__sub__.timedelta", func(_ *call, a []any) (any, error) { return dtArg(a, 0).add(-deltaArg(a, 1).us) })
	dt("date.__sub__.date", func(_ *call, a []any) (any, error) {
		return newDelta((dateArg(a, 0).ordinal() - dateArg(a, 1).ordinal()) * usPerDay)
	})
	dt("date.__add__.timedelta", func(_ *call, a []any) (any, error) { return dateArg(a, 0).add(deltaArg(a, 1)) })
	dt("date.__sub__.timedelta", func(_ *call, a []any) (any, error) {
		return dateArg(a, 0).add(delta{-deltaArg(a, 1).us})
	})
	dt("timedelta.__add__.timedelta", func(_ *call, a []any) (any, error) {
		return newDelta(deltaArg(a, 0).us + deltaArg(a, 1).us)
	})
	dt("timedelta.__sub__.timedelta", func(_ *call, a []any) (any, error) {
		return newDelta(deltaArg(a, 0).us - deltaArg(a, 1).us)
	})
	dt("timedelta.__mul__.int", func(_ *call, a []any) (any, error) {
		us, n := deltaArg(a, 0).us, intArg(a, 1)
		if mulOverflows(us, n) {
			return nil, raisef(sema.ClassOverflowError, "timedelta out of range")
		}
		return newDelta(us * n)
	})
	dt("timedelta.__truediv__.int", func(_ *call, a []any) (any, error) {
		us, n := deltaArg(a, 0).us, intArg(a, 1)
		if n == 0 {
			return nil, raisef(sema.ClassZeroDivisionError, "division by zero")
		}
		return newDelta(divRoundEven(us, n))
	})
}

// divRoundEven divides rounding half to even.
func divRoundEven(a, b int64) int64 {
	q := floorDiv(a, b)
	r := a - q*b
	// r has the sign of b
	twice := 2 * r
	if b < 0 {
		twice, b = -twice, -b
	}
	if twice > b || (twice == b && q%2 != 0) {
		q++
	}
	return q
}
