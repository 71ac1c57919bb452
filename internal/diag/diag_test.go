package diag

import (
	"strings"
	"testing"

	"hirindex/internal/source"
)

func TestBagSortAndDedup(t *testing.T) {
	bag := NewBag(0)
	r := &BagReporter{Bag: bag}
	r.Report(LowUnknownKey, SevWarning, source.Span{File: 1, Start: 10, End: 12}, "unknown key \"x\"", nil)
	r.Report(LowMalformedNode, SevError, source.Span{File: 1, Start: 2, End: 4}, "bad node", nil)
	r.Report(LowMalformedNode, SevError, source.Span{File: 1, Start: 2, End: 4}, "bad node", nil)

	bag.Dedup()
	bag.Sort()

	if bag.Len() != 2 {
		t.Fatalf("expected 2 diagnostics after dedup, got %d", bag.Len())
	}
	if bag.Items()[0].Code != LowMalformedNode {
		t.Fatalf("expected earliest span first, got %s", bag.Items()[0].Code.ID())
	}
	if !bag.HasErrors() || bag.HasICE() {
		t.Fatal("HasErrors/HasICE mismatch")
	}
}

func TestBagLimitAndMerge(t *testing.T) {
	a := NewBag(1)
	if !a.Add(NewError(LowMissingBody, source.DummySpan, "one")) {
		t.Fatal("first add must succeed")
	}
	if a.Add(NewError(LowMissingBody, source.DummySpan, "two")) {
		t.Fatal("limit must reject second add")
	}
	b := NewBag(0)
	b.Add(NewError(InternalCompilerError, source.DummySpan, "boom"))
	a.Merge(b)
	if a.Len() != 2 || !a.HasICE() {
		t.Fatalf("merge lost diagnostics: len=%d", a.Len())
	}
}

func TestFormatShort(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("crate.yaml", []byte("items:\n  - fn: main\n"))
	d := NewError(LowMalformedNode, source.Span{File: id, Start: 9, End: 11}, "fn needs a body").
		WithNote(source.DummySpan, "declared here")

	out := FormatShort([]Diagnostic{d}, fs, true)
	if !strings.HasPrefix(out, "crate.yaml:2:3: ERROR LOW3001 fn needs a body\n") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "note: <unknown>: declared here") {
		t.Fatalf("note missing:\n%s", out)
	}
}

func TestCodeIDs(t *testing.T) {
	cases := map[Code]string{
		IOLoadFileError:       "IO1001",
		CfgInvalidValue:       "CFG2002",
		LowDuplicateItem:      "LOW3003",
		InternalCompilerError: "ICE9001",
	}
	for code, want := range cases {
		if got := code.ID(); got != want {
			t.Errorf("%d.ID() = %q, want %q", code, got, want)
		}
	}
}
