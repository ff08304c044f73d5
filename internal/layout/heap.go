package layout

import "waspy/internal/types"

// Tag is the first word of every heap object. Container headers also use it
// to describe the kind of their elements.
type Tag uint32

const (
	TagDynamic  Tag = 0 // element slots hold references of mixed kinds
	TagNone     Tag = 1
	TagBool     Tag = 2
	TagInt      Tag = 3
	TagFloat    Tag = 4
	TagStr      Tag = 5
	TagBytes    Tag = 6
	TagList     Tag = 7
	TagSet      Tag = 8
	TagRecord   Tag = 9
	TagExternal Tag = 10
)

func (t Tag) String() string {
	switch t {
	case TagNone:
		return "None"
	case TagBool:
		return "bool"
	case TagInt:
		return "int"
	case TagFloat:
		return "float"
	case TagStr:
		return "str"
	case TagBytes:
		return "bytes"
	case TagList:
		return "list"
	case TagSet:
		return "set"
	case TagRecord:
		return "record"
	case TagExternal:
		return "external"
	default:
		return "any"
	}
}

// Header offsets, in bytes from the object address.
//
//	str, bytes   [tag][len][bytes...]
//	list, set    [tag][elem tag][len][cap][data ptr]
//	record       [tag][class id][field slots...]
//	box          [tag][pad][payload]
//	external     [tag][handle]
const (
	OffTag = 0

	OffStrLen  = 4
	OffStrData = 8

	OffSeqElem = 4
	OffSeqLen  = 8
	OffSeqCap  = 12
	OffSeqData = 16
	SeqHeader  = 20

	OffRecordClass  = 4
	OffRecordFields = 8

	OffBoxPayload = 8
	BoxSize       = 16

	OffExternalHandle = 4
	ExternalSize      = 8

	// OffExcMessage is the message field every exception record inherits
	// from BaseException.
	OffExcMessage = OffRecordFields

	// HeapAlign is the alignment of every allocation.
	HeapAlign = 8
)

// TagOf maps a value type to the tag used for it in container headers and boxes.
func TagOf(in *types.Interner, t types.TypeID) Tag {
	switch in.KindOf(t) {
	case types.KindNone:
		return TagNone
	case types.KindBool:
		return TagBool
	case types.KindInt:
		return TagInt
	case types.KindFloat:
		return TagFloat
	case types.KindStr:
		return TagStr
	case types.KindBytes:
		return TagBytes
	case types.KindList:
		return TagList
	case types.KindSet:
		return TagSet
	case types.KindRecord:
		return TagRecord
	case types.KindExternal:
		return TagExternal
	default:
		return TagDynamic
	}
}
