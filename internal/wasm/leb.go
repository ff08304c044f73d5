package wasm

import "fortio.org/safecast"

// AppendU32 appends the unsigned LEB128 encoding of v.
func AppendU32(out []byte, v uint32) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			return out
		}
	}
}

// AppendS32 appends the signed LEB128 encoding of v.
func AppendS32(out []byte, v int32) []byte {
	return AppendS64(out, int64(v))
}

// AppendS64 appends the signed LEB128 encoding of v.
func AppendS64(out []byte, v int64) []byte {
	more := true
	for more {
		b := byte(v & 0x7f)
		v >>= 7
		signBit := (b & 0x40) != 0
		more = !((v == 0 && !signBit) || (v == -1 && signBit))
		if more {
			b |= 0x80
		}
		out = append(out, b)
	}
	return out
}

// appendLen encodes a Go length as a u32 vector size.
func appendLen(out []byte, n int) ([]byte, error) {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		return out, err
	}
	return AppendU32(out, v), nil
}

func appendName(out []byte, s string) ([]byte, error) {
	out, err := appendLen(out, len(s))
	if err != nil {
		return out, err
	}
	return append(out, s...), nil
}
