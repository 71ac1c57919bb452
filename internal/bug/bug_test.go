package bug

import (
	"errors"
	"strings"
	"testing"

	"hirindex/internal/source"
)

type wrapped struct{ err error }

func (w *wrapped) Error() string { return "wrapped: " + w.err.Error() }
func (w *wrapped) Unwrap() error { return w.err }

func TestCatchReturnsICE(t *testing.T) {
	ice := Catch(func() {
		SpanBugf(source.Span{File: 1, Start: 3, End: 9}, "owner %d: local %d out of range", 4, 12)
	})
	if ice == nil {
		t.Fatal("expected an ICE")
	}
	if ice.Message != "owner 4: local 12 out of range" {
		t.Fatalf("message = %q", ice.Message)
	}
	if !strings.Contains(ice.Error(), "1:3-9") {
		t.Fatalf("span missing from %q", ice.Error())
	}
}

func TestCatchNil(t *testing.T) {
	if ice := Catch(func() {}); ice != nil {
		t.Fatalf("unexpected ICE %v", ice)
	}
}

func TestCatchRepanicsForeignPanics(t *testing.T) {
	defer func() {
		if r := recover(); r != "plain" {
			t.Fatalf("recovered %v", r)
		}
	}()
	Catch(func() { panic("plain") })
	t.Fatal("unreachable")
}

func TestWithFrameAppendsFrames(t *testing.T) {
	ice := Catch(func() {
		WithFrame("hir_owner(3)", func() {
			WithFrame("index_hir(3)", func() {
				Bugf("boom")
			})
		})
	})
	if ice == nil {
		t.Fatal("expected an ICE")
	}
	want := []string{"index_hir(3)", "hir_owner(3)"}
	if strings.Join(ice.Frames, ",") != strings.Join(want, ",") {
		t.Fatalf("frames = %v, want %v", ice.Frames, want)
	}
}

func TestCatchUnwrapsWrappedICE(t *testing.T) {
	orig := &ICE{Message: "inner"}
	ice := Catch(func() { panic(&wrapped{err: orig}) })
	if ice != orig {
		t.Fatalf("got %v", ice)
	}
	var target *ICE
	if !errors.As(&wrapped{err: orig}, &target) {
		t.Fatal("ICE must be usable with errors.As")
	}
}
