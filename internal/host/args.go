package host

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"waspy/internal/stdlib"
)

// ParseArg converts command-line text into a Call argument of the source
// type typ. Lists and sets are written as JSON arrays.
func ParseArg(s, typ string) (any, error) {
	switch typ {
	case "int":
		n, err := strconv.ParseInt(strings.TrimSpace(s), 0, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid int %q", s)
		}
		return n, nil
	case "float":
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float %q", s)
		}
		return f, nil
	case "bool":
		switch strings.TrimSpace(s) {
		case "True", "true", "1":
			return true, nil
		case "False", "false", "0":
			return false, nil
		}
		return nil, fmt.Errorf("invalid bool %q", s)
	case "str":
		return s, nil
	case "bytes":
		return []byte(s), nil
	case "None":
		return nil, nil
	}
	head, elem, ok := stdlib.TypeRef(typ).Container()
	if !ok {
		return nil, fmt.Errorf("cannot pass %s from the command line", typ)
	}
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, fmt.Errorf("%s argument must be a JSON array: %w", typ, err)
	}
	items := make([]any, len(raw))
	for i, r := range raw {
		text := string(r)
		if elem == "str" || elem == "bytes" {
			var str string
			if err := json.Unmarshal(r, &str); err != nil {
				return nil, fmt.Errorf("item %d: want a JSON string", i)
			}
			text = str
		}
		v, err := ParseArg(text, string(elem))
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		items[i] = v
	}
	if head == "set" {
		return Set(items), nil
	}
	return items, nil
}
