package host

import (
	"bytes"
	"encoding/hex"
	"strings"
	"unicode"
	"unicode/utf8"

	"waspy/internal/sema"
)

// Methods of the builtin str and bytes types.

func strMethod(name string, fn func(s string, args []any) (any, error)) {
	register("builtins", "str."+name, func(_ *call, args []any) (any, error) {
		s, _ := args[0].(string)
		return fn(s, args[1:])
	})
}

func bytesMethod(name string, fn func(b []byte, args []any) (any, error)) {
	register("builtins", "bytes."+name, func(_ *call, args []any) (any, error) {
		b, _ := args[0].([]byte)
		return fn(b, args[1:])
	})
}

func strArg(args []any, i int) string {
	s, _ := args[i].(string)
	return s
}

func intArg(args []any, i int) int64 {
	n, _ := toInt(args[i])
	return n
}

func floatArg(args []any, i int) float64 {
	if f, ok := args[i].(float64); ok {
		return f
	}
	return float64(intArg(args, i))
}

func strList(args []any, i int) []string {
	items, _ := toSlice(args[i])
	out := make([]string, 0, len(items))
	for _, it := range items {
		s, _ := it.(string)
		out = append(out, s)
	}
	return out
}

func anyStrings(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func runeLen(s string) int64 { return int64(utf8.RuneCountInString(s)) }

// cased reports whether s has a cased letter and pred holds for all of them.
func cased(s string, pred func(rune) bool) bool {
	seen := false
	for _, r := range s {
		if unicode.IsUpper(r) || unicode.IsLower(r) || unicode.IsTitle(r) {
			if !pred(r) {
				return false
			}
			seen = true
		}
	}
	return seen
}

func all(s string, pred func(rune) bool) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !pred(r) {
			return false
		}
	}
	return true
}

func capitalize(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[n:])
}

func title(s string) string {
	var sb strings.Builder
	prevCased := false
	for _, r := range s {
		if prevCased {
			sb.WriteRune(unicode.ToLower(r))
		} else {
			sb.WriteRune(unicode.ToTitle(r))
		}
		prevCased = unicode.IsLetter(r)
	}
	return sb.String()
}

func swapcase(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsUpper(r):
			return unicode.ToLower(r)
		case unicode.IsLower(r):
			return unicode.ToUpper(r)
		}
		return r
	}, s)
}

func pad(s string, left, right int64) string {
	return strings.Repeat(" ", int(left)) + s + strings.Repeat(" ", int(right))
}

func center(s string, width int64) string {
	n := runeLen(s)
	if width <= n {
		return s
	}
	total := width - n
	left := total/2 + (total & width & 1)
	return pad(s, left, total-left)
}

func zfill(s string, width int64) string {
	n := runeLen(s)
	if width <= n {
		return s
	}
	zeros := strings.Repeat("0", int(width-n))
	if s != "" && (s[0] == '+' || s[0] == '-') {
		return s[:1] + zeros + s[1:]
	}
	return zeros + s
}

// find returns the code point index of sub in s, or -1.
func find(s, sub string) int64 {
	i := strings.Index(s, sub)
	if i < 0 {
		return -1
	}
	return runeLen(s[:i])
}

func stripper(name string, trim func(string, string) string, space func(string) string) {
	strMethod(name, func(s string, args []any) (any, error) {
		chars := strArg(args, 0)
		if chars == "" {
			return space(s), nil
		}
		return trim(s, chars), nil
	})
}

func init() {
	strMethod("upper", func(s string, _ []any) (any, error) { return strings.ToUpper(s), nil })
	strMethod("lower", func(s string, _ []any) (any, error) { return strings.ToLower(s), nil })
	strMethod("capitalize", func(s string, _ []any) (any, error) { return capitalize(s), nil })
	strMethod("title", func(s string, _ []any) (any, error) { return title(s), nil })
	strMethod("swapcase", func(s string, _ []any) (any, error) { return swapcase(s), nil })

	strMethod("isdigit", func(s string, _ []any) (any, error) { return all(s, unicode.IsDigit), nil })
	strMethod("isalpha", func(s string, _ []any) (any, error) { return all(s, unicode.IsLetter), nil })
	strMethod("isalnum", func(s string, _ []any) (any, error) {
		return all(s, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsNumber(r) }), nil
	})
	strMethod("isspace", func(s string, _ []any) (any, error) { return all(s, unicode.IsSpace), nil })
	strMethod("isupper", func(s string, _ []any) (any, error) { return cased(s, unicode.IsUpper), nil })
	strMethod("islower", func(s string, _ []any) (any, error) { return cased(s, unicode.IsLower), nil })

	stripper("strip", strings.Trim, strings.TrimSpace)
	stripper("lstrip", strings.TrimLeft, func(s string) string { return strings.TrimLeftFunc(s, unicode.IsSpace) })
	stripper("rstrip", strings.TrimRight, func(s string) string { return strings.TrimRightFunc(s, unicode.IsSpace) })

	strMethod("split", func(s string, args []any) (any, error) {
		sep := strArg(args, 0)
		if sep == "" {
			return anyStrings(strings.Fields(s)), nil
		}
		return anyStrings(strings.Split(s, sep)), nil
	})
	strMethod("join", func(s string, args []any) (any, error) {
		return strings.Join(strList(args, 0), s), nil
	})
	strMethod("startswith", func(s string, args []any) (any, error) { return strings.HasPrefix(s, strArg(args, 0)), nil })
	strMethod("endswith", func(s string, args []any) (any, error) { return strings.HasSuffix(s, strArg(args, 0)), nil })
	strMethod("find", func(s string, args []any) (any, error) { return find(s, strArg(args, 0)), nil })
	strMethod("count", func(s string, args []any) (any, error) { return int64(strings.Count(s, strArg(args, 0))), nil })
	strMethod("replace", func(s string, args []any) (any, error) {
		return strings.ReplaceAll(s, strArg(args, 0), strArg(args, 1)), nil
	})
	strMethod("zfill", func(s string, args []any) (any, error) { return zfill(s, intArg(args, 0)), nil })
	strMethod("center", func(s string, args []any) (any, error) { return center(s, intArg(args, 0)), nil })
	strMethod("ljust", func(s string, args []any) (any, error) {
		w := intArg(args, 0)
		return pad(s, 0, max(w-runeLen(s), 0)), nil
	})
	strMethod("rjust", func(s string, args []any) (any, error) {
		w := intArg(args, 0)
		return pad(s, max(w-runeLen(s), 0), 0), nil
	})
	strMethod("encode", func(s string, _ []any) (any, error) { return []byte(s), nil })

	bytesMethod("decode", func(b []byte, _ []any) (any, error) {
		if !utf8.Valid(b) {
			at := 0
			for at < len(b) {
				r, n := utf8.DecodeRune(b[at:])
				if r == utf8.RuneError && n <= 1 {
					break
				}
				at += n
			}
			return nil, raisef(sema.ClassValueError, "'utf-8' codec can't decode byte 0x%02x in position %d: invalid start byte", b[at], at)
		}
		return string(b), nil
	})
	bytesMethod("hex", func(b []byte, _ []any) (any, error) { return hex.EncodeToString(b), nil })
	bytesMethod("upper", func(b []byte, _ []any) (any, error) { return asciiMap(b, 'a', 'z', -32), nil })
	bytesMethod("lower", func(b []byte, _ []any) (any, error) { return asciiMap(b, 'A', 'Z', 32), nil })
	bytesMethod("startswith", func(b []byte, args []any) (any, error) {
		p, _ := args[0].([]byte)
		return bytes.HasPrefix(b, p), nil
	})
	bytesMethod("endswith", func(b []byte, args []any) (any, error) {
		p, _ := args[0].([]byte)
		return bytes.HasSuffix(b, p), nil
	})
}

// asciiMap shifts the bytes in [lo, hi] by delta, leaving others intact.
func asciiMap(b []byte, lo, hi byte, delta int) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		if c >= lo && c <= hi {
			c = byte(int(c) + delta) //nolint:gosec // stays within ASCII letters
		}
		out[i] = c
	}
	return out
}
