package fingerprint

import (
	"crypto/sha256"
	"encoding/binary"
	"hash"
)

// HashVersion is written first into every hash. Bump it whenever the
// serialization changes so old and new fingerprints never compare equal.
const HashVersion byte = 0x01

const (
	tagCombine byte = 0xF0
	tagDomain  byte = 0xF1
)

// Hasher serializes values into a running SHA-256 with fixed encoding
// conventions:
//   - integers: big-endian, fixed width
//   - strings and byte slices: uint32 big-endian length + bytes
//   - booleans: one byte (0/1)
//   - optional values: a presence byte, then the value
//
// Callers are responsible for writing a discriminating tag before each
// variant so that different shapes cannot produce the same byte stream.
type Hasher struct {
	h   hash.Hash
	buf [8]byte
}

// New starts a hasher in the given domain. The domain is written with a NUL
// separator so that "ab"+"c" and "a"+"bc" never collide.
func New(domain string) *Hasher {
	h := &Hasher{h: sha256.New()}
	_, _ = h.h.Write([]byte{HashVersion, tagDomain})
	_, _ = h.h.Write([]byte(domain))
	_, _ = h.h.Write([]byte{0x00})
	return h
}

// Tag writes a single discriminator byte.
func (h *Hasher) Tag(b byte) {
	h.buf[0] = b
	_, _ = h.h.Write(h.buf[:1])
}

func (h *Hasher) Bool(v bool) {
	if v {
		h.Tag(1)
		return
	}
	h.Tag(0)
}

func (h *Hasher) Uint8(v uint8) {
	h.Tag(v)
}

func (h *Hasher) Uint32(v uint32) {
	binary.BigEndian.PutUint32(h.buf[:4], v)
	_, _ = h.h.Write(h.buf[:4])
}

func (h *Hasher) Uint64(v uint64) {
	binary.BigEndian.PutUint64(h.buf[:8], v)
	_, _ = h.h.Write(h.buf[:8])
}

// Len writes a collection length. Lengths above 2^32-1 are not representable
// in any structure this package hashes.
func (h *Hasher) Len(n int) {
	h.Uint64(uint64(n))
}

func (h *Hasher) String(s string) {
	h.Len(len(s))
	_, _ = h.h.Write([]byte(s))
}

func (h *Hasher) Bytes(b []byte) {
	h.Len(len(b))
	_, _ = h.h.Write(b)
}

// Fingerprint folds an already computed fingerprint into the stream.
func (h *Hasher) Fingerprint(f Fingerprint) {
	_, _ = h.h.Write(f[:])
}

// Finish returns the fingerprint of everything written so far.
// The hasher may keep being written to afterwards.
func (h *Hasher) Finish() Fingerprint {
	var out Fingerprint
	copy(out[:], h.h.Sum(nil))
	return out
}

// Of is a shorthand for hashing a single string in a domain.
func Of(domain, s string) Fingerprint {
	h := New(domain)
	h.String(s)
	return h.Finish()
}
