package plan

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Digest is a sha256 value, compatible with source.File.Hash.
type Digest [32]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// Combine hashes content || parts... Callers keep parts in a stable order.
func Combine(content Digest, parts ...Digest) Digest {
	h := sha256.New()
	_, _ = h.Write(content[:])
	for _, d := range parts {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// SchemaDigest identifies the plan format, so cached sets of an older
// schema miss instead of failing to decode.
func SchemaDigest() Digest {
	return sha256.Sum256([]byte("injekt-plan/" + strconv.Itoa(int(Schema))))
}

// KeyFor is the cache key of a world file's content.
func KeyFor(content Digest) Digest {
	return Combine(content, SchemaDigest())
}
