package host

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf16"

	"waspy/internal/sema"
)

func (d *Dict) typeName() string { return "dict" }

// decodeJSON reads one value keeping object keys in document order.
// Integers without a fraction or exponent stay int.
func decodeJSON(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	v, err := jsonValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, valueError("Extra data: line 1 column %d (char %d)", dec.InputOffset()+1, dec.InputOffset())
	}
	return v, nil
}

func jsonValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, jsonError(dec, err)
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '[':
			items := []any{}
			for dec.More() {
				v, err := jsonValue(dec)
				if err != nil {
					return nil, err
				}
				items = append(items, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, jsonError(dec, err)
			}
			return items, nil
		case '{':
			d := newDict()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, jsonError(dec, err)
				}
				key, _ := kt.(string)
				v, err := jsonValue(dec)
				if err != nil {
					return nil, err
				}
				d.set(key, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, jsonError(dec, err)
			}
			return d, nil
		}
		return nil, valueError("Expecting value: char %d", dec.InputOffset())
	case json.Number:
		if n, err := strconv.ParseInt(string(t), 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(string(t), 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return nil, valueError("invalid number %s", t)
		}
		return f, nil
	default:
		// string, bool or nil
		return t, nil
	}
}

func jsonError(dec *json.Decoder, err error) error {
	if errors.Is(err, io.EOF) {
		return valueError("Expecting value: line 1 column %d (char %d)", dec.InputOffset()+1, dec.InputOffset())
	}
	var syn *json.SyntaxError
	if errors.As(err, &syn) {
		return valueError("%s: char %d", syn.Error(), syn.Offset)
	}
	return valueError("%v", err)
}

// encodeJSON renders v like json.dumps with the default separators.
// A negative indent selects the single-line form.
func encodeJSON(v any, indent int64) (string, error) {
	var sb strings.Builder
	if err := writeJSON(&sb, v, indent, 0); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func writeJSON(sb *strings.Builder, v any, indent int64, depth int) error {
	newline := func(d int) {
		if indent >= 0 {
			sb.WriteByte('\n')
			sb.WriteString(strings.Repeat(" ", int(indent)*d))
		}
	}
	sep := ", "
	if indent >= 0 {
		sep = ","
	}
	switch x := v.(type) {
	case nil:
		sb.WriteString("null")
	case bool:
		sb.WriteString(strconv.FormatBool(x))
	case int64:
		sb.WriteString(strconv.FormatInt(x, 10))
	case float64:
		switch {
		case math.IsNaN(x):
			sb.WriteString("NaN")
		case math.IsInf(x, 1):
			sb.WriteString("Infinity")
		case math.IsInf(x, -1):
			sb.WriteString("-Infinity")
		default:
			sb.WriteString(FormatFloat(x))
		}
	case string:
		writeJSONString(sb, x)
	case []any:
		if len(x) == 0 {
			sb.WriteString("[]")
			return nil
		}
		sb.WriteByte('[')
		for i, item := range x {
			if i > 0 {
				sb.WriteString(sep)
			}
			newline(depth + 1)
			if err := writeJSON(sb, item, indent, depth+1); err != nil {
				return err
			}
		}
		newline(depth)
		sb.WriteByte(']')
	case *Dict:
		if len(x.Keys) == 0 {
			sb.WriteString("{}")
			return nil
		}
		sb.WriteByte('{')
		for i, k := range x.Keys {
			if i > 0 {
				sb.WriteString(sep)
			}
			newline(depth + 1)
			writeJSONString(sb, k)
			sb.WriteString(": ")
			if err := writeJSON(sb, x.Values[k], indent, depth+1); err != nil {
				return err
			}
		}
		newline(depth)
		sb.WriteByte('}')
	default:
		return raisef(sema.ClassTypeError, "Object of type %s is not JSON serializable", typeName(v))
	}
	return nil
}

// writeJSONString escapes like ensure_ascii=True.
func writeJSONString(sb *strings.Builder, s string) {
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		default:
			switch {
			case r < 0x20 || (r > 0x7e && r <= 0xffff):
				fmt.Fprintf(sb, `\u%04x`, r)
			case r > 0xffff:
				r1, r2 := utf16.EncodeRune(r)
				fmt.Fprintf(sb, `\u%04x\u%04x`, r1, r2)
			default:
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
}

func init() {
	register("json", "loads", func(_ *call, args []any) (any, error) {
		return decodeJSON(strArg(args, 0))
	})
	register("json", "dumps", func(_ *call, args []any) (any, error) {
		return encodeJSON(args[0], intArg(args, 1))
	})
}
