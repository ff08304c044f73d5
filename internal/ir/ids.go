package ir

type FuncID int32
type BlockID int32
type LocalID int32
type GlobalID int32
type ImportID int32

const (
	NoFuncID   FuncID   = -1
	NoBlockID  BlockID  = -1
	NoLocalID  LocalID  = -1
	NoGlobalID GlobalID = -1
	NoImportID ImportID = -1
)
