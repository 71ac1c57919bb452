package fingerprint

import (
	"testing"
)

func TestHasherDeterministic(t *testing.T) {
	build := func() Fingerprint {
		h := New("test/v1")
		h.Tag(3)
		h.String("main")
		h.Uint32(7)
		h.Bool(true)
		return h.Finish()
	}
	if a, b := build(), build(); a != b {
		t.Fatalf("same input produced %s and %s", a, b)
	}
}

func TestHasherDomainSeparation(t *testing.T) {
	a := New("ab")
	a.String("c")
	b := New("a")
	b.String("bc")
	if a.Finish() == b.Finish() {
		t.Fatal("domain boundary must be unambiguous")
	}
}

func TestHasherLengthPrefix(t *testing.T) {
	a := New("d")
	a.String("ab")
	a.String("c")
	b := New("d")
	b.String("a")
	b.String("bc")
	if a.Finish() == b.Finish() {
		t.Fatal("string boundaries must be unambiguous")
	}
}

func TestCombineOrderSensitive(t *testing.T) {
	x := Of("t", "x")
	y := Of("t", "y")
	if Combine(x, y) == Combine(y, x) {
		t.Fatal("Combine must depend on argument order")
	}
	if x.Combine(y) != Combine(x, y) {
		t.Fatal("method and function forms must agree")
	}
	if Combine(x).IsZero() {
		t.Fatal("Combine must not produce Zero")
	}
}

func TestHexRoundTrip(t *testing.T) {
	f := Of("t", "hello")
	back, ok := ParseHex(f.Hex())
	if !ok || back != f {
		t.Fatalf("ParseHex(%s) = %s, %v", f.Hex(), back, ok)
	}
	if _, ok := ParseHex("abc"); ok {
		t.Fatal("short input must be rejected")
	}
	if len(f.Short()) != 16 {
		t.Fatalf("Short() = %q", f.Short())
	}
}
