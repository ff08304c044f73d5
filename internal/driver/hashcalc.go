package driver

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"waspy/internal/codegen"
	"waspy/internal/stdlib"
)

// Digest is a SHA-256 sum.
type Digest [sha256.Size]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// combineDigest: H(part1 || part2 ...), каждая часть с префиксом длины.
func combineDigest(parts ...[]byte) Digest {
	h := sha256.New()
	var n [8]byte
	for _, p := range parts {
		binary.LittleEndian.PutUint64(n[:], uint64(len(p)))
		_, _ = h.Write(n[:])
		_, _ = h.Write(p)
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// cacheKey covers everything that changes the produced binary: the source,
// the module name as __name__ sees it, generator options and the shim
// contract.
func cacheKey(src []byte, mainName string, opts codegen.Options, shims *stdlib.Registry) Digest {
	flags := []bool{opts.DebugNames, opts.Metadata, opts.Start}
	var b []byte
	b = binary.LittleEndian.AppendUint32(b, opts.MemoryPages)
	b = binary.LittleEndian.AppendUint32(b, opts.MaxMemoryPages)
	b = binary.LittleEndian.AppendUint64(b, uint64(opts.MaxLocals)) //nolint:gosec // hashed, sign irrelevant
	for _, f := range flags {
		if f {
			b = append(b, 1)
		} else {
			b = append(b, 0)
		}
	}
	return combineDigest(
		[]byte{byte(diskCacheSchemaVersion)},
		src,
		[]byte(mainName),
		b,
		[]byte(shims.Fingerprint()),
	)
}
