package stdlib

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrFrozen is returned when a frozen registry is extended.
var ErrFrozen = errors.New("stdlib: registry is frozen")

// Registry is the shim contract table. It is populated up front and frozen
// before resolution starts; after Freeze it is safe for concurrent readers.
type Registry struct {
	modules   map[string]*Module
	types     map[TypeRef]*TypeDef
	operators []Operator
	frozen    bool
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		modules: make(map[string]*Module),
		types:   make(map[TypeRef]*TypeDef),
	}
}

// Default returns an unfrozen registry holding the built-in contract.
func Default() *Registry {
	r := New()
	registerBuiltins(r)
	registerMath(r)
	registerSys(r)
	registerOS(r)
	registerRandom(r)
	registerJSON(r)
	registerRe(r)
	registerDatetime(r)
	registerLogging(r)
	registerTime(r)
	registerFunctional(r)
	return r
}

// Freeze forbids further mutation and returns r.
func (r *Registry) Freeze() *Registry {
	r.frozen = true
	return r
}

func (r *Registry) Frozen() bool { return r.frozen }

// Module returns a shim module by its dotted import name.
func (r *Registry) Module(name string) (*Module, bool) {
	m, ok := r.modules[name]
	return m, ok
}

// Lookup finds a module-level member.
func (r *Registry) Lookup(module, name string) (*Symbol, bool) {
	m, ok := r.modules[module]
	if !ok {
		return nil, false
	}
	sym, ok := m.Members[name]
	return sym, ok
}

// TypeDef finds an external type (or a builtin receiver such as builtins.str).
func (r *Registry) TypeDef(ref TypeRef) (*TypeDef, bool) {
	def, ok := r.types[ref]
	return def, ok
}

// Method finds a method on the receiver type.
func (r *Registry) Method(recv TypeRef, name string) (*Symbol, bool) {
	def, ok := r.types[recv]
	if !ok {
		return nil, false
	}
	sym, ok := def.Methods[name]
	return sym, ok
}

// Attr finds an attribute getter on the receiver type.
func (r *Registry) Attr(recv TypeRef, name string) (*Symbol, bool) {
	def, ok := r.types[recv]
	if !ok {
		return nil, false
	}
	sym, ok := def.Attrs[name]
	return sym, ok
}

// Operator finds the rule for left op right.
func (r *Registry) Operator(op string, left, right TypeRef) (*Symbol, bool) {
	for _, rule := range r.operators {
		if rule.Op == op && rule.Left == left && rule.Right == right {
			return rule.Symbol, true
		}
	}
	return nil, false
}

// Modules lists module names in sorted order.
func (r *Registry) Modules() []string {
	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Symbols returns every callable or constant entry, sorted by qualified name.
func (r *Registry) Symbols() []*Symbol {
	var out []*Symbol
	for _, m := range r.modules {
		for _, sym := range m.Members {
			out = append(out, sym)
		}
	}
	for _, def := range r.types {
		if def.Ctor != nil {
			out = append(out, def.Ctor)
		}
		for _, group := range []map[string]*Symbol{def.Statics, def.Methods, def.Attrs} {
			for _, sym := range group {
				out = append(out, sym)
			}
		}
	}
	for _, rule := range r.operators {
		out = append(out, rule.Symbol)
	}
	slices.SortFunc(out, func(a, b *Symbol) int {
		return strings.Compare(a.Qualified(), b.Qualified())
	})
	return slices.CompactFunc(out, func(a, b *Symbol) bool { return a == b })
}

// Fingerprint hashes every signature so caches can be invalidated when the
// contract changes.
func (r *Registry) Fingerprint() string {
	h := sha256.New()
	for _, sym := range r.Symbols() {
		fmt.Fprintln(h, sym.Kind, sym.Signature())
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Add registers a module-level symbol, creating the module when needed.
func (r *Registry) Add(sym *Symbol) error {
	if r.frozen {
		return ErrFrozen
	}
	if sym == nil || sym.Module == "" || sym.Name == "" {
		return errors.New("stdlib: symbol needs a module and a name")
	}
	if err := checkRefs(sym); err != nil {
		return err
	}
	m := r.ensureModule(sym.Module)
	m.Members[sym.Name] = sym
	return nil
}

// AddType registers an external type.
func (r *Registry) AddType(def *TypeDef) error {
	if r.frozen {
		return ErrFrozen
	}
	for _, group := range []map[string]*Symbol{def.Statics, def.Methods, def.Attrs} {
		for _, sym := range group {
			if err := checkRefs(sym); err != nil {
				return err
			}
		}
	}
	if def.Module != "builtins" {
		r.ensureModule(def.Module).Types[def.Name] = def
	}
	r.types[def.Ref()] = def
	return nil
}

// AddOperator registers a binary operator over external operands.
func (r *Registry) AddOperator(op string, left, right, result TypeRef) error {
	if r.frozen {
		return ErrFrozen
	}
	module, lname, ok := left.External()
	if !ok {
		return fmt.Errorf("stdlib: operator %s needs an external left operand, got %s", op, left)
	}
	_, rname, ok := right.External()
	if !ok {
		rname = string(right)
	}
	sym := &Symbol{
		Module: module,
		Name:   lname + "." + dunder(op) + "." + rname,
		Kind:   SymFunc,
		Params: []Param{{Name: "a", Type: left}, {Name: "b", Type: right}},
		Result: result,
	}
	r.operators = append(r.operators, Operator{Op: op, Left: left, Right: right, Symbol: sym})
	return nil
}

func (r *Registry) ensureModule(name string) *Module {
	m, ok := r.modules[name]
	if !ok {
		m = newModule(name)
		r.modules[name] = m
	}
	return m
}

func checkRefs(sym *Symbol) error {
	for _, p := range sym.Params {
		if !p.Type.Valid() {
			return fmt.Errorf("stdlib: %s: bad parameter type %q", sym.Qualified(), p.Type)
		}
	}
	if sym.Kind == SymFunc && !sym.Result.Valid() {
		return fmt.Errorf("stdlib: %s: bad result type %q", sym.Qualified(), sym.Result)
	}
	return nil
}

func dunder(op string) string {
	switch op {
	case "+":
		return "__add__"
	case "-":
		return "__sub__"
	case "*":
		return "__mul__"
	case "/":
		return "__truediv__"
	default:
		return "__op__"
	}
}
