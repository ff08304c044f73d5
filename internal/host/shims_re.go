package host

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"waspy/internal/sema"
)

// Flag values of the re module.
const (
	reIgnoreCase = 2
	reMultiline  = 8
	reDotAll     = 16
	reVerbose    = 64
)

type pattern struct {
	src   string
	flags int64
	re    *regexp.Regexp
}

func (p *pattern) typeName() string { return "re.Pattern" }
func (p *pattern) pyStr() string    { return p.pyRepr() }
func (p *pattern) pyRepr() string   { return "re.compile(" + quote(p.src) + ")" }

type match struct {
	s   string
	loc []int // byte offsets of the groups, -1 when a group did not take part
}

func (m *match) typeName() string { return "re.Match" }
func (m *match) pyStr() string    { return m.pyRepr() }
func (m *match) pyRepr() string {
	return fmt.Sprintf("<re.Match object; span=(%d, %d), match=%s>", m.pos(m.loc[0]), m.pos(m.loc[1]), quote(m.s[m.loc[0]:m.loc[1]]))
}

// pos converts a byte offset to a code point index.
func (m *match) pos(b int) int64 {
	if b < 0 {
		return -1
	}
	return int64(utf8.RuneCountInString(m.s[:b]))
}

func (m *match) group(g int64) (lo, hi int, err error) {
	if g < 0 || int(2*g+1) >= len(m.loc) {
		return 0, 0, raisef(sema.ClassIndexError, "no such group")
	}
	return m.loc[2*g], m.loc[2*g+1], nil
}

func (m *match) text(g int64) (string, error) {
	lo, hi, err := m.group(g)
	if err != nil || lo < 0 {
		return "", err
	}
	return m.s[lo:hi], nil
}

var reCache = struct {
	sync.Mutex
	m map[string]*regexp.Regexp
}{m: make(map[string]*regexp.Regexp)}

func cachedRegexp(expr string) (*regexp.Regexp, error) {
	reCache.Lock()
	defer reCache.Unlock()
	if re, ok := reCache.m[expr]; ok {
		return re, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	reCache.m[expr] = re
	return re, nil
}

// compilePattern translates flags into inline RE2 flags.
func compilePattern(src string, flags int64) (*pattern, error) {
	expr := src
	if flags&reVerbose != 0 {
		expr = stripVerbose(expr)
	}
	var inline string
	if flags&reIgnoreCase != 0 {
		inline += "i"
	}
	if flags&reMultiline != 0 {
		inline += "m"
	}
	if flags&reDotAll != 0 {
		inline += "s"
	}
	if inline != "" {
		expr = "(?" + inline + ")" + expr
	}
	re, err := cachedRegexp(expr)
	if err != nil {
		return nil, valueError("bad pattern %s: %v", quote(src), err)
	}
	return &pattern{src: src, flags: flags, re: re}, nil
}

// stripVerbose drops unescaped whitespace and comments outside classes.
func stripVerbose(src string) string {
	var sb strings.Builder
	inClass := false
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '\\' && i+1 < len(src):
			sb.WriteByte(c)
			i++
			sb.WriteByte(src[i])
			continue
		case c == '[':
			inClass = true
		case c == ']':
			inClass = false
		case !inClass && (c == ' ' || c == '\t' || c == '\n' || c == '\r'):
			continue
		case !inClass && c == '#':
			for i < len(src) && src[i] != '\n' {
				i++
			}
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// find runs search, match (anchored at the start) or fullmatch.
func (p *pattern) find(s string, mode string) *match {
	re := p.re
	if mode == "fullmatch" {
		var err error
		if re, err = cachedRegexp(`\A(?:` + p.re.String() + `)\z`); err != nil {
			return nil
		}
	}
	loc := re.FindStringSubmatchIndex(s)
	// the leftmost match starts at 0 whenever any match does
	if loc == nil || (mode == "match" && loc[0] != 0) {
		return nil
	}
	return &match{s: s, loc: loc}
}

func (p *pattern) findall(s string) []any {
	out := []any{}
	for _, loc := range p.re.FindAllStringSubmatchIndex(s, -1) {
		g := 0
		if len(loc) > 2 {
			g = 1
		}
		if loc[2*g] < 0 {
			out = append(out, "")
			continue
		}
		out = append(out, s[loc[2*g]:loc[2*g+1]])
	}
	return out
}

// split keeps the text of capturing groups between the pieces.
func (p *pattern) split(s string) []any {
	out := []any{}
	last := 0
	for _, loc := range p.re.FindAllStringSubmatchIndex(s, -1) {
		out = append(out, s[last:loc[0]])
		for g := 1; 2*g < len(loc); g++ {
			if loc[2*g] < 0 {
				out = append(out, "")
				continue
			}
			out = append(out, s[loc[2*g]:loc[2*g+1]])
		}
		last = loc[1]
	}
	return append(out, s[last:])
}

func (p *pattern) sub(repl, s string, count int64) string {
	tmpl := expandTemplate(repl)
	var sb strings.Builder
	last := 0
	for i, loc := range p.re.FindAllStringSubmatchIndex(s, -1) {
		if count > 0 && int64(i) >= count {
			break
		}
		sb.WriteString(s[last:loc[0]])
		sb.Write(p.re.ExpandString(nil, tmpl, s, loc))
		last = loc[1]
	}
	sb.WriteString(s[last:])
	return sb.String()
}

// expandTemplate converts \1 and \g<name> references to RE2 templates.
func expandTemplate(repl string) string {
	var sb strings.Builder
	for i := 0; i < len(repl); i++ {
		c := repl[i]
		switch {
		case c == '$':
			sb.WriteString("$$")
		case c == '\\' && i+1 < len(repl):
			i++
			switch d := repl[i]; {
			case d >= '0' && d <= '9':
				j := i
				for j < len(repl) && j-i < 2 && repl[j] >= '0' && repl[j] <= '9' {
					j++
				}
				sb.WriteString("${" + repl[i:j] + "}")
				i = j - 1
			case d == 'g' && i+1 < len(repl) && repl[i+1] == '<':
				end := strings.IndexByte(repl[i:], '>')
				if end < 0 {
					sb.WriteString(`\g`)
					continue
				}
				sb.WriteString("${" + repl[i+2:i+end] + "}")
				i += end
			case d == 'n':
				sb.WriteByte('\n')
			case d == 't':
				sb.WriteByte('\t')
			case d == '\\':
				sb.WriteByte('\\')
			default:
				sb.WriteByte('\\')
				sb.WriteByte(d)
			}
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func patternArg(args []any, i int) *pattern {
	p, _ := args[i].(*pattern)
	return p
}

func matchArg(args []any) *match {
	m, _ := args[0].(*match)
	return m
}

// found returns untyped nil for a failed search so the result encodes as None.
func found(m *match) any {
	if m == nil {
		return nil
	}
	return m
}

func init() {
	module := func(name string, fn func(p *pattern, args []any) (any, error), flagsAt int) {
		register("re", name, func(_ *call, args []any) (any, error) {
			p, err := compilePattern(strArg(args, 0), intArg(args, flagsAt))
			if err != nil {
				return nil, err
			}
			return fn(p, args[1:])
		})
	}
	method := func(name string, fn func(p *pattern, args []any) (any, error)) {
		register("re", "Pattern."+name, func(_ *call, args []any) (any, error) {
			return fn(patternArg(args, 0), args[1:])
		})
	}
	search := func(mode string) func(p *pattern, args []any) (any, error) {
		return func(p *pattern, args []any) (any, error) { return found(p.find(strArg(args, 0), mode)), nil }
	}
	for _, mode := range []string{"search", "match", "fullmatch"} {
		module(mode, search(mode), 2)
		method(mode, search(mode))
	}
	findall := func(p *pattern, args []any) (any, error) { return p.findall(strArg(args, 0)), nil }
	split := func(p *pattern, args []any) (any, error) { return p.split(strArg(args, 0)), nil }
	module("findall", findall, 2)
	method("findall", findall)
	module("split", split, 2)
	method("split", split)
	sub := func(p *pattern, args []any) (any, error) {
		return p.sub(strArg(args, 0), strArg(args, 1), intArg(args, 2)), nil
	}
	module("sub", sub, 4)
	method("sub", sub)

	register("re", "compile", func(_ *call, args []any) (any, error) {
		return compilePattern(strArg(args, 0), intArg(args, 1))
	})
	register("re", "escape", func(_ *call, args []any) (any, error) {
		return escapePattern(strArg(args, 0)), nil
	})
	register("re", "Pattern.pattern", func(_ *call, args []any) (any, error) { return patternArg(args, 0).src, nil })
	register("re", "Pattern.flags", func(_ *call, args []any) (any, error) { return patternArg(args, 0).flags, nil })

	register("re", "Match.group", func(_ *call, args []any) (any, error) {
		return matchArg(args).text(intArg(args, 1))
	})
	register("re", "Match.start", func(_ *call, args []any) (any, error) {
		m := matchArg(args)
		lo, _, err := m.group(intArg(args, 1))
		return m.pos(lo), err
	})
	register("re", "Match.end", func(_ *call, args []any) (any, error) {
		m := matchArg(args)
		_, hi, err := m.group(intArg(args, 1))
		return m.pos(hi), err
	})
	register("re", "Match.groups", func(_ *call, args []any) (any, error) {
		m := matchArg(args)
		out := []any{}
		for g := int64(1); int(2*g) < len(m.loc); g++ {
			s, _ := m.text(g)
			out = append(out, s)
		}
		return out, nil
	})
	register("re", "Match.string", func(_ *call, args []any) (any, error) { return matchArg(args).s, nil })
}

// escapePattern backslashes every character special to re.
func escapePattern(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r < utf8.RuneSelf && strings.ContainsRune(`()[]{}?*+-|^$\.&~# `+"\t\n\r\v\f", r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
