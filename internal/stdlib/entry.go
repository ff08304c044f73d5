package stdlib

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
)

// Entry is the TOML form of an extra shim symbol:
//
//	[[shim]]
//	module = "mylib"
//	name = "scale"
//	params = ["int", "float"]
//	result = "float"
type Entry struct {
	Module string   `toml:"module"`
	Name   string   `toml:"name"`
	Kind   string   `toml:"kind"` // func (default), const, decorator
	Params []string `toml:"params"`
	Result string   `toml:"result"`
	Value  any      `toml:"value"`
}

// Symbol converts the entry into a registry symbol.
func (e Entry) Symbol() (*Symbol, error) {
	sym := &Symbol{Module: e.Module, Name: e.Name}
	switch e.Kind {
	case "", "func":
		sym.Kind = SymFunc
		sym.Result = TypeRef(e.Result)
		if sym.Result == "" {
			sym.Result = None
		}
		for i, p := range e.Params {
			sym.Params = append(sym.Params, Param{Name: fmt.Sprintf("arg%d", i), Type: TypeRef(p)})
		}
	case "const":
		sym.Kind = SymConst
		switch v := e.Value.(type) {
		case int64:
			sym.Value = intv(v)
		case float64:
			sym.Value = floatv(v)
		case string:
			sym.Value = strv(v)
		case bool:
			sym.Value = boolv(v)
		default:
			return nil, fmt.Errorf("shim %s.%s: unsupported constant value %v", e.Module, e.Name, e.Value)
		}
		sym.Result = sym.Value.Type()
	case "decorator":
		sym.Kind = SymDecorator
		sym.Result = None
	default:
		return nil, fmt.Errorf("shim %s.%s: unknown kind %q", e.Module, e.Name, e.Kind)
	}
	return sym, nil
}

// AddEntries registers extension entries, reporting every bad entry.
func (r *Registry) AddEntries(entries []Entry) error {
	var errs []error
	for _, e := range entries {
		sym, err := e.Symbol()
		if err == nil {
			err = r.Add(sym)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type entryFile struct {
	Shim []Entry `toml:"shim"`
}

// LoadFile reads [[shim]] tables from a TOML file.
func LoadFile(path string) ([]Entry, error) {
	var f entryFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return f.Shim, nil
}

// ParseEntries decodes [[shim]] tables from TOML text.
func ParseEntries(text string) ([]Entry, error) {
	var f entryFile
	if _, err := toml.Decode(text, &f); err != nil {
		return nil, err
	}
	return f.Shim, nil
}
