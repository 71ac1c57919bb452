// Package fingerprint provides the stable content hash used as the identity of
// HIR owners across compilation sessions.
//
// A Fingerprint is a SHA-256 digest over a deterministic, length-prefixed
// serialization. Identical inputs produce identical fingerprints on any
// machine and in any process, which is what lets incremental caches key on
// them.
package fingerprint

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
)

// Size is the width of a Fingerprint in bytes.
const Size = sha256.Size

// Fingerprint - фиксированный 256 битный хеш.
type Fingerprint [Size]byte

// Zero is the fingerprint of nothing. No Hasher ever produces it.
var Zero Fingerprint

// IsZero reports whether f is the zero value.
func (f Fingerprint) IsZero() bool {
	return f == Zero
}

// Hex returns the full lowercase hex encoding.
func (f Fingerprint) Hex() string {
	return hex.EncodeToString(f[:])
}

// Short returns the first 16 hex digits, enough for display.
func (f Fingerprint) Short() string {
	return hex.EncodeToString(f[:8])
}

func (f Fingerprint) String() string {
	return f.Short()
}

// Compare orders fingerprints bytewise.
func (f Fingerprint) Compare(other Fingerprint) int {
	return bytes.Compare(f[:], other[:])
}

// Combine строит H( f || other ); результат зависит от порядка аргументов.
func (f Fingerprint) Combine(other Fingerprint) Fingerprint {
	return Combine(f, other)
}

// Combine hashes the given fingerprints in order: H( first || rest[0] || rest[1] ... ).
// Swapping any two arguments changes the result.
func Combine(first Fingerprint, rest ...Fingerprint) Fingerprint {
	h := sha256.New()
	_, _ = h.Write([]byte{HashVersion, tagCombine})
	_, _ = h.Write(first[:])
	for _, d := range rest {
		_, _ = h.Write(d[:])
	}
	var out Fingerprint
	copy(out[:], h.Sum(nil))
	return out
}

// ParseHex decodes a fingerprint produced by Hex.
func ParseHex(s string) (Fingerprint, bool) {
	var out Fingerprint
	if hex.DecodedLen(len(s)) != Size {
		return out, false
	}
	if _, err := hex.Decode(out[:], []byte(s)); err != nil {
		return Zero, false
	}
	return out, true
}
