package layout

// Target describes the ABI of the code generator's target.
//
// Only wasm32 is implemented: 32-bit linear memory addresses, 64-bit
// integers and floats, and 8-byte heap slots.
type Target struct {
	Triple   string // e.g. "wasm32-unknown-unknown"
	PtrSize  int    // bytes
	PtrAlign int    // bytes
	SlotSize int    // bytes per record field or container element
}

func Wasm32() Target {
	return Target{
		Triple:   "wasm32-unknown-unknown",
		PtrSize:  4,
		PtrAlign: 4,
		SlotSize: 8,
	}
}
