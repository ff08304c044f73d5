package stdlib

import "fmt"

func req(name string, t TypeRef) Param { return Param{Name: name, Type: t} }

func opt(name string, t TypeRef, def Const) Param {
	return Param{Name: name, Type: t, Default: &def}
}

func intv(v int64) Const     { return Const{Kind: ConstInt, Int: v} }
func floatv(v float64) Const { return Const{Kind: ConstFloat, Float: v} }
func strv(v string) Const    { return Const{Kind: ConstStr, Str: v} }
func boolv(v bool) Const     { return Const{Kind: ConstBool, Bool: v} }

// modBuilder keeps the built-in tables compact. The tables are static, so
// a registration failure is a programming error.
type modBuilder struct {
	r    *Registry
	name string
}

func build(r *Registry, module string) *modBuilder {
	r.ensureModule(module)
	return &modBuilder{r: r, name: module}
}

func must(err error) {
	if err != nil {
		panic(fmt.Errorf("stdlib: built-in table: %w", err))
	}
}

func (b *modBuilder) constant(name string, v Const) *modBuilder {
	must(b.r.Add(&Symbol{Module: b.name, Name: name, Kind: SymConst, Value: v, Result: v.Type()}))
	return b
}

func (b *modBuilder) fn(name string, result TypeRef, params ...Param) *modBuilder {
	must(b.r.Add(&Symbol{Module: b.name, Name: name, Kind: SymFunc, Params: params, Result: result}))
	return b
}

func (b *modBuilder) variadic(name string, result TypeRef, params ...Param) *modBuilder {
	must(b.r.Add(&Symbol{Module: b.name, Name: name, Kind: SymFunc, Params: params, Result: result, Variadic: true}))
	return b
}

func (b *modBuilder) decorator(name string) *modBuilder {
	must(b.r.Add(&Symbol{Module: b.name, Name: name, Kind: SymDecorator, Result: None}))
	return b
}

type typeBuilder struct {
	def *TypeDef
}

func (b *modBuilder) typ(name string, comparable bool) *typeBuilder {
	def := &TypeDef{
		Module:     b.name,
		Name:       name,
		Statics:    make(map[string]*Symbol),
		Methods:    make(map[string]*Symbol),
		Attrs:      make(map[string]*Symbol),
		Comparable: comparable,
	}
	must(b.r.AddType(def))
	return &typeBuilder{def: def}
}

func (t *typeBuilder) member(name string, result TypeRef, params []Param) *Symbol {
	sym := &Symbol{Module: t.def.Module, Name: t.def.Name + "." + name, Kind: SymFunc, Params: params, Result: result}
	must(checkRefs(sym))
	return sym
}

func (t *typeBuilder) ctor(params ...Param) *typeBuilder {
	sym := &Symbol{Module: t.def.Module, Name: t.def.Name, Kind: SymFunc, Params: params, Result: t.def.Ref()}
	must(checkRefs(sym))
	t.def.Ctor = sym
	return t
}

func (t *typeBuilder) static(name string, result TypeRef, params ...Param) *typeBuilder {
	t.def.Statics[name] = t.member(name, result, params)
	return t
}

func (t *typeBuilder) method(name string, result TypeRef, params ...Param) *typeBuilder {
	self := req("self", t.def.Ref())
	t.def.Methods[name] = t.member(name, result, append([]Param{self}, params...))
	return t
}

func (t *typeBuilder) attr(name string, result TypeRef) *typeBuilder {
	t.def.Attrs[name] = t.member(name, result, []Param{req("self", t.def.Ref())})
	return t
}

func (r *Registry) operator(op string, left, right, result TypeRef) {
	must(r.AddOperator(op, left, right, result))
}
