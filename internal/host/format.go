package host

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// pyValue is implemented by host objects with their own str and repr.
type pyValue interface {
	pyStr() string
	pyRepr() string
}

// FormatFloat renders f the way repr(float) does.
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'e', -1, 64)
	mant, exp, _ := strings.Cut(s, "e")
	e, _ := strconv.Atoi(exp)
	if e < -4 || e >= 16 {
		return mant + "e" + exp
	}
	s = strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}

// Str is str(v) for a host value.
func Str(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case *Object:
		if x.Exception {
			return x.Message
		}
	case pyValue:
		return x.pyStr()
	}
	return Repr(v)
}

// Repr is repr(v) for a host value.
func Repr(v any) string {
	var sb strings.Builder
	writeRepr(&sb, v)
	return sb.String()
}

func writeRepr(sb *strings.Builder, v any) {
	switch x := v.(type) {
	case nil:
		sb.WriteString("None")
	case bool:
		if x {
			sb.WriteString("True")
		} else {
			sb.WriteString("False")
		}
	case int64:
		sb.WriteString(strconv.FormatInt(x, 10))
	case int:
		sb.WriteString(strconv.Itoa(x))
	case float64:
		sb.WriteString(FormatFloat(x))
	case string:
		sb.WriteString(quote(x))
	case []byte:
		sb.WriteString(quoteBytes(x))
	case []any:
		sb.WriteByte('[')
		writeItems(sb, x)
		sb.WriteByte(']')
	case Set:
		if len(x) == 0 {
			sb.WriteString("set()")
			return
		}
		sb.WriteByte('{')
		writeItems(sb, x)
		sb.WriteByte('}')
	case *Dict:
		sb.WriteByte('{')
		for i, k := range x.Keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(quote(k))
			sb.WriteString(": ")
			writeRepr(sb, x.Values[k])
		}
		sb.WriteByte('}')
	case *Object:
		if x.Exception {
			sb.WriteString(x.Class)
			sb.WriteByte('(')
			if x.Message != "" {
				sb.WriteString(quote(x.Message))
			}
			sb.WriteByte(')')
			return
		}
		fmt.Fprintf(sb, "<%s.%s object at %#x>", GuestName, x.Class, x.Addr)
	case pyValue:
		sb.WriteString(x.pyRepr())
	default:
		fmt.Fprintf(sb, "<%T>", v)
	}
}

func writeItems(sb *strings.Builder, items []any) {
	for i, item := range items {
		if i > 0 {
			sb.WriteString(", ")
		}
		writeRepr(sb, item)
	}
}

// quote renders a str literal, preferring single quotes.
func quote(s string) string {
	q := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		q = '"'
	}
	var sb strings.Builder
	sb.WriteByte(q)
	for _, r := range s {
		switch {
		case r == rune(q) || r == '\\':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case r == '\n':
			sb.WriteString(`\n`)
		case r == '\r':
			sb.WriteString(`\r`)
		case r == '\t':
			sb.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&sb, `\x%02x`, r)
		case !unicode.IsPrint(r) && r > 0x7f:
			if r <= 0xffff {
				fmt.Fprintf(&sb, `\u%04x`, r)
			} else {
				fmt.Fprintf(&sb, `\U%08x`, r)
			}
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte(q)
	return sb.String()
}

func quoteBytes(b []byte) string {
	q := byte('\'')
	if strings.ContainsRune(string(b), '\'') && !strings.ContainsRune(string(b), '"') {
		q = '"'
	}
	var sb strings.Builder
	sb.WriteString("b")
	sb.WriteByte(q)
	for _, c := range b {
		switch {
		case c == q || c == '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case c == '\n':
			sb.WriteString(`\n`)
		case c == '\r':
			sb.WriteString(`\r`)
		case c == '\t':
			sb.WriteString(`\t`)
		case c < 0x20 || c >= 0x7f:
			fmt.Fprintf(&sb, `\x%02x`, c)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte(q)
	return sb.String()
}
