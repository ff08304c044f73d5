package wasm

// Opcode is a single-byte WebAssembly 1.0 instruction.
type Opcode byte

// control
const (
	OpUnreachable Opcode = 0x00
	OpNop         Opcode = 0x01
	OpBlock       Opcode = 0x02
	OpLoop        Opcode = 0x03
	OpIf          Opcode = 0x04
	OpElse        Opcode = 0x05
	OpEnd         Opcode = 0x0b
	OpBr          Opcode = 0x0c
	OpBrIf        Opcode = 0x0d
	OpBrTable     Opcode = 0x0e
	OpReturn      Opcode = 0x0f
	OpCall        Opcode = 0x10
	OpDrop        Opcode = 0x1a
	OpSelect      Opcode = 0x1b
)

// variables
const (
	OpLocalGet  Opcode = 0x20
	OpLocalSet  Opcode = 0x21
	OpLocalTee  Opcode = 0x22
	OpGlobalGet Opcode = 0x23
	OpGlobalSet Opcode = 0x24
)

// memory
const (
	OpI32Load    Opcode = 0x28
	OpI64Load    Opcode = 0x29
	OpF64Load    Opcode = 0x2b
	OpI32Load8U  Opcode = 0x2d
	OpI32Store   Opcode = 0x36
	OpI64Store   Opcode = 0x37
	OpF64Store   Opcode = 0x39
	OpI32Store8  Opcode = 0x3a
	OpMemorySize Opcode = 0x3f
	OpMemoryGrow Opcode = 0x40
)

// constants
const (
	OpI32Const Opcode = 0x41
	OpI64Const Opcode = 0x42
	OpF64Const Opcode = 0x44
)

// i32 comparison and arithmetic
const (
	OpI32Eqz  Opcode = 0x45
	OpI32Eq   Opcode = 0x46
	OpI32Ne   Opcode = 0x47
	OpI32LtS  Opcode = 0x48
	OpI32LtU  Opcode = 0x49
	OpI32GtS  Opcode = 0x4a
	OpI32GtU  Opcode = 0x4b
	OpI32LeS  Opcode = 0x4c
	OpI32LeU  Opcode = 0x4d
	OpI32GeS  Opcode = 0x4e
	OpI32GeU  Opcode = 0x4f
	OpI32Add  Opcode = 0x6a
	OpI32Sub  Opcode = 0x6b
	OpI32Mul  Opcode = 0x6c
	OpI32DivS Opcode = 0x6d
	OpI32DivU Opcode = 0x6e
	OpI32RemS Opcode = 0x6f
	OpI32RemU Opcode = 0x70
	OpI32And  Opcode = 0x71
	OpI32Or   Opcode = 0x72
	OpI32Xor  Opcode = 0x73
	OpI32Shl  Opcode = 0x74
	OpI32ShrS Opcode = 0x75
	OpI32ShrU Opcode = 0x76
)

// i64 comparison and arithmetic
const (
	OpI64Eqz  Opcode = 0x50
	OpI64Eq   Opcode = 0x51
	OpI64Ne   Opcode = 0x52
	OpI64LtS  Opcode = 0x53
	OpI64LtU  Opcode = 0x54
	OpI64GtS  Opcode = 0x55
	OpI64GtU  Opcode = 0x56
	OpI64LeS  Opcode = 0x57
	OpI64LeU  Opcode = 0x58
	OpI64GeS  Opcode = 0x59
	OpI64GeU  Opcode = 0x5a
	OpI64Add  Opcode = 0x7c
	OpI64Sub  Opcode = 0x7d
	OpI64Mul  Opcode = 0x7e
	OpI64DivS Opcode = 0x7f
	OpI64DivU Opcode = 0x80
	OpI64RemS Opcode = 0x81
	OpI64RemU Opcode = 0x82
	OpI64And  Opcode = 0x83
	OpI64Or   Opcode = 0x84
	OpI64Xor  Opcode = 0x85
	OpI64Shl  Opcode = 0x86
	OpI64ShrS Opcode = 0x87
	OpI64ShrU Opcode = 0x88
)

// f64 comparison and arithmetic
const (
	OpF64Eq      Opcode = 0x61
	OpF64Ne      Opcode = 0x62
	OpF64Lt      Opcode = 0x63
	OpF64Gt      Opcode = 0x64
	OpF64Le      Opcode = 0x65
	OpF64Ge      Opcode = 0x66
	OpF64Abs     Opcode = 0x99
	OpF64Neg     Opcode = 0x9a
	OpF64Ceil    Opcode = 0x9b
	OpF64Floor   Opcode = 0x9c
	OpF64Trunc   Opcode = 0x9d
	OpF64Nearest Opcode = 0x9e
	OpF64Sqrt    Opcode = 0x9f
	OpF64Add     Opcode = 0xa0
	OpF64Sub     Opcode = 0xa1
	OpF64Mul     Opcode = 0xa2
	OpF64Div     Opcode = 0xa3
	OpF64Min     Opcode = 0xa4
	OpF64Max     Opcode = 0xa5
)

// conversions
const (
	OpI32WrapI64        Opcode = 0xa7
	OpI64ExtendI32S     Opcode = 0xac
	OpI64ExtendI32U     Opcode = 0xad
	OpI64TruncF64S      Opcode = 0xb0
	OpF64ConvertI32U    Opcode = 0xb8
	OpF64ConvertI64S    Opcode = 0xb9
	OpI64ReinterpretF64 Opcode = 0xbd
	OpF64ReinterpretI64 Opcode = 0xbf
)

// Section ids.
const (
	sectionCustom   byte = 0
	sectionType     byte = 1
	sectionImport   byte = 2
	sectionFunc     byte = 3
	sectionMemory   byte = 5
	sectionGlobal   byte = 6
	sectionExport   byte = 7
	sectionStart    byte = 8
	sectionCode     byte = 10
	sectionData     byte = 11
	importKindFunc  byte = 0x00
	ExportFunc      byte = 0x00
	ExportMemory    byte = 0x02
	ExportGlobal    byte = 0x03
	funcTypeForm    byte = 0x60
	limitsMinOnly   byte = 0x00
	limitsMinAndMax byte = 0x01
)

// PageSize is the size of one linear memory page.
const PageSize = 65536
