package rt

import "waspy/internal/wasm"

// HostModule is the import module of the host services every program may use.
const HostModule = "waspy"

// Host identifies a function the embedder provides under HostModule.
type Host uint8

const (
	// HostWriteStr prints a str object.
	HostWriteStr Host = iota
	// HostWriteValue prints any heap object; the flag selects repr.
	HostWriteValue
	// HostStr formats any heap object into a new str; the flag selects repr.
	HostStr
	HostFloatToStr
	HostStrToFloat
	HostFloatPow
	HostRound
	// HostExtCmp orders two host objects.
	HostExtCmp

	numHosts
)

var hostSpecs = [numHosts]Spec{
	HostWriteStr:   {Name: "write_str", Params: sig(i32)},
	HostWriteValue: {Name: "write_value", Params: sig(i32, i32)},
	HostStr:        {Name: "str", Params: sig(i32, i32), Results: sig(i32)},
	HostFloatToStr: {Name: "float_to_str", Params: sig(f64), Results: sig(i32)},
	HostStrToFloat: {Name: "str_to_float", Params: sig(i32), Results: sig(f64), MayRaise: true},
	HostFloatPow:   {Name: "float_pow", Params: sig(f64, f64), Results: sig(f64), MayRaise: true},
	HostRound:      {Name: "round", Params: sig(f64, i64), Results: sig(f64)},
	HostExtCmp:     {Name: "ext_cmp", Params: sig(i32, i32), Results: sig(i32), MayRaise: true},
}

func (h Host) Spec() Spec { return hostSpecs[h] }

func (h Host) String() string { return hostSpecs[h].Name }

func (h Host) Type() wasm.FuncType {
	s := hostSpecs[h]
	return wasm.FuncType{Params: s.Params, Results: s.Results}
}

// HostByName finds a host service by its import name.
func HostByName(name string) (Host, bool) {
	for h := range numHosts {
		if hostSpecs[h].Name == name {
			return h, true
		}
	}
	return 0, false
}

// Hosts lists every host service.
func Hosts() []Host {
	out := make([]Host, 0, numHosts)
	for h := range numHosts {
		out = append(out, h)
	}
	return out
}

// Funcs lists every runtime function.
func Funcs() []Func {
	out := make([]Func, 0, numFuncs)
	for f := range numFuncs {
		out = append(out, f)
	}
	return out
}
