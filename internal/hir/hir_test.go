package hir_test

import (
	"errors"
	"testing"

	"hirindex/internal/diag"
	"hirindex/internal/hir"
	"hirindex/internal/lowerfile"
	"hirindex/internal/source"
)

func lower(t *testing.T, src string) *hir.Crate {
	t.Helper()
	bag := diag.NewBag(0)
	c, err := lowerfile.LowerSource(source.NewFileSet(), "lib.yaml", []byte(src), &diag.BagReporter{Bag: bag})
	if err != nil {
		for _, d := range bag.Items() {
			t.Log(d.Message)
		}
		t.Fatalf("lower: %v", err)
	}
	return c
}

func owner(t *testing.T, c *hir.Crate, path string) (hir.DefID, hir.OwnerNode) {
	t.Helper()
	def, ok := c.Defs.Lookup(path)
	if !ok {
		t.Fatalf("no definition %s", path)
	}
	o, ok := c.Owner(def)
	if !ok {
		t.Fatalf("%s has no owner node", path)
	}
	return def, o
}

func TestDefPaths(t *testing.T) {
	defs := hir.NewDefinitions("demo", source.DummySpan)
	a := defs.Create(hir.CrateDefID, hir.DefPathData{Kind: hir.DataTypeNs, Name: "a"}, hir.DefKindMod, source.DummySpan, hir.RootExpn)
	f := defs.Create(a, hir.DefPathData{Kind: hir.DataValueNs, Name: "f"}, hir.DefKindFn, source.DummySpan, hir.RootExpn)
	c0 := defs.Create(f, hir.DefPathData{Kind: hir.DataClosure}, hir.DefKindClosure, source.DummySpan, hir.RootExpn)
	c1 := defs.Create(f, hir.DefPathData{Kind: hir.DataClosure}, hir.DefKindClosure, source.DummySpan, hir.RootExpn)
	i0 := defs.Create(a, hir.DefPathData{Kind: hir.DataImpl}, hir.DefKindImpl, source.DummySpan, hir.ExpnID(3))
	dup := defs.Create(a, hir.DefPathData{Kind: hir.DataValueNs, Name: "f"}, hir.DefKindFn, source.DummySpan, hir.RootExpn)

	tests := []struct {
		def  hir.DefID
		want string
	}{
		{hir.CrateDefID, "crate"},
		{a, "crate::a"},
		{f, "crate::a::f"},
		{c0, "crate::a::f::{closure#0}"},
		{c1, "crate::a::f::{closure#1}"},
		{i0, "crate::a::{impl#0}"},
		{dup, "crate::a::f#1"},
	}
	for _, tt := range tests {
		if got := defs.DefPath(tt.def); got != tt.want {
			t.Errorf("DefPath(%s) = %q, want %q", tt.def, got, tt.want)
		}
		if got, ok := defs.Lookup(tt.want); !ok || got != tt.def {
			t.Errorf("Lookup(%q) = %s, %v", tt.want, got, ok)
		}
	}

	if p, ok := defs.Parent(c1); !ok || p != f {
		t.Fatalf("Parent(closure) = %s, %v", p, ok)
	}
	if _, ok := defs.Parent(hir.CrateDefID); ok {
		t.Fatal("crate root must have no parent")
	}
	if defs.ExpansionThatDefined(i0) != 3 || defs.ExpansionThatDefined(f) != hir.RootExpn {
		t.Fatal("expansion not recorded")
	}
	if _, ok := defs.DefSpan(f); ok {
		t.Fatal("dummy span must read as absent")
	}
}

func TestDefPathHashStability(t *testing.T) {
	build := func(crate string, extra bool) (*hir.Definitions, hir.DefID) {
		defs := hir.NewDefinitions(crate, source.DummySpan)
		if extra {
			defs.Create(hir.CrateDefID, hir.DefPathData{Kind: hir.DataTypeNs, Name: "z"}, hir.DefKindMod, source.DummySpan, 0)
		}
		m := defs.Create(hir.CrateDefID, hir.DefPathData{Kind: hir.DataTypeNs, Name: "m"}, hir.DefKindMod, source.DummySpan, 0)
		return defs, defs.Create(m, hir.DefPathData{Kind: hir.DataValueNs, Name: "g"}, hir.DefKindFn, source.DummySpan, 0)
	}
	d1, g1 := build("demo", false)
	d2, g2 := build("demo", true)
	d3, g3 := build("other", false)

	if g1 == g2 {
		t.Fatal("test needs differing DefIDs")
	}
	if d1.DefPathHash(g1) != d2.DefPathHash(g2) {
		t.Fatal("DefPathHash must not depend on DefID numbering")
	}
	if d1.DefPathHash(g1) == d3.DefPathHash(g3) {
		t.Fatal("DefPathHash must depend on the crate name")
	}
}

func TestAttributeMap(t *testing.T) {
	var zero hir.AttributeMap
	if zero.Get(0) != nil || zero.Len() != 0 {
		t.Fatal("zero map must be empty")
	}
	inline := hir.Attribute{Name: hir.Ident{Name: 1}}
	cold := hir.Attribute{Name: hir.Ident{Name: 2}}
	m := hir.NewAttributeMap([]hir.AttrEntry{
		{Local: 7, Attrs: []hir.Attribute{cold}},
		{Local: 2, Attrs: nil},
		{Local: 0, Attrs: []hir.Attribute{inline, cold}},
	})
	if m.Len() != 2 {
		t.Fatalf("Len = %d, want 2", m.Len())
	}
	if got := m.Get(0); len(got) != 2 {
		t.Fatalf("Get(0) = %v", got)
	}
	if got := m.Get(7); len(got) != 1 || got[0] != cold {
		t.Fatalf("Get(7) = %v", got)
	}
	for _, id := range []hir.LocalID{1, 2, 8} {
		if got := m.Get(id); got != nil {
			t.Fatalf("Get(%d) = %v, want nil", id, got)
		}
	}
	if e := m.Entries(); e[0].Local != 0 || e[1].Local != 7 {
		t.Fatalf("entries out of order: %+v", e)
	}
}

func TestNewCrateValidatesOwners(t *testing.T) {
	defs := hir.NewDefinitions("v", source.DummySpan)
	f := defs.Create(hir.CrateDefID, hir.DefPathData{Kind: hir.DataValueNs, Name: "f"}, hir.DefKindFn, source.DummySpan, 0)
	strs := source.NewInterner()
	fn := &hir.Item{
		Def:  f,
		Kind: hir.ItemFn,
		Data: hir.FnData{Sig: hir.FnSig{Decl: &hir.FnDecl{}}, Body: &hir.Body{Value: &hir.Expr{Kind: hir.ExprTuple, Data: hir.TupleData{}}}},
	}
	mod := func(items ...*hir.Item) *hir.Item {
		return &hir.Item{Def: hir.CrateDefID, Kind: hir.ItemMod, Data: hir.ModData{Items: items}}
	}

	if _, err := hir.NewCrate("v", nil, defs, strs, nil); !errors.Is(err, hir.ErrNoRoot) {
		t.Fatalf("nil root: %v", err)
	}
	if _, err := hir.NewCrate("v", fn, defs, strs, nil); !errors.Is(err, hir.ErrNoRoot) {
		t.Fatalf("fn root: %v", err)
	}
	if _, err := hir.NewCrate("v", mod(fn, fn), defs, strs, nil); !errors.Is(err, hir.ErrDuplicateOwner) {
		t.Fatalf("duplicate owner: %v", err)
	}
	stray := &hir.Item{Def: 99, Kind: hir.ItemUse, Data: hir.UseData{}}
	if _, err := hir.NewCrate("v", mod(stray), defs, strs, nil); !errors.Is(err, hir.ErrUnknownDef) {
		t.Fatalf("unknown def: %v", err)
	}

	c, err := hir.NewCrate("v", mod(fn), defs, strs, nil)
	if err != nil {
		t.Fatalf("valid crate: %v", err)
	}
	if got := c.OwnerDefs(); len(got) != 2 || got[0] != hir.CrateDefID || got[1] != f {
		t.Fatalf("OwnerDefs = %v", got)
	}
}

func TestInspectOrder(t *testing.T) {
	c := lower(t, `
crate: order
items:
  - fn: f
    params: [{name: a, ty: u8}]
    body:
      - let: b
        init: {closure: [], body: a}
      - {semi: {binary: "+", lhs: a, rhs: 1}}
`)
	_, o := owner(t, c, "crate::f")
	var got []string
	var nested int
	hir.Inspect(o, hir.Inspector{
		Node: func(n, parent hir.Node) {
			got = append(got, n.NodeKind().String())
			if parent == nil && n != hir.Node(o) {
				t.Errorf("only the root has no parent")
			}
		},
		Nested: func(o hir.OwnerNode, at hir.Node) {
			nested++
			if at.NodeKind() != hir.NodeExpr {
				t.Errorf("closure reached from %s", at.NodeKind())
			}
		},
	})
	want := []string{
		"Item", "FnDecl", "Ty", // signature
		"Param", "Pat", // body params
		"Expr", "Block", "Stmt", "Local", "Pat", "Expr", // let b = closure
		"Stmt", "Expr", "Expr", "Expr", // a + 1
	}
	if len(got) != len(want) {
		t.Fatalf("visited %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("node %d is %s, want %s (all: %v)", i, got[i], want[i], got)
		}
	}
	if nested != 1 {
		t.Fatalf("nested owners = %d, want 1", nested)
	}
}

func TestRemapPath(t *testing.T) {
	hcx := &hir.HashingContext{Remap: []hir.PathRemap{
		{From: "/home/alice/src/", To: "/src/"},
		{From: "/home/", To: "/h/"},
	}}
	tests := []struct{ in, want string }{
		{"/home/alice/src/lib.yaml", "/src/lib.yaml"},
		{"/home/bob/lib.yaml", "/h/bob/lib.yaml"},
		{"/tmp/lib.yaml", "/tmp/lib.yaml"},
	}
	for _, tt := range tests {
		if got := hcx.RemapPath(tt.in); got != tt.want {
			t.Errorf("RemapPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNodeHashSpanSensitivity(t *testing.T) {
	a := lower(t, "crate: s\nitems:\n  - fn: f\n    ret: u8\n    body: 1\n")
	b := lower(t, "crate: s\nitems:\n  -   fn: f\n      ret: u8\n      body: 1\n")

	hashes := func(c *hir.Crate, spans bool) [2]string {
		_, o := owner(t, c, "crate::f")
		hcx := c.HashingContext(spans, nil)
		body := o.(*hir.Item).Data.(hir.FnData).Body
		return [2]string{hcx.NodeHash(o).Hex(), hcx.BodyHash(body).Hex()}
	}
	if hashes(a, false) != hashes(b, false) {
		t.Fatal("moving code must not change hashes when spans are off")
	}
	if hashes(a, true)[0] == hashes(b, true)[0] {
		t.Fatal("moving code must change the node hash when spans are on")
	}
}

func TestNodeHashExcludesBodyAndAttrs(t *testing.T) {
	base := lower(t, "crate: s\nitems:\n  - fn: f\n    body: 1\n")
	edited := lower(t, "crate: s\nitems:\n  - fn: f\n    body: 2\n")
	attr := lower(t, "crate: s\nitems:\n  - fn: f\n    attrs: [cold]\n    body: 1\n")

	node := func(c *hir.Crate) string {
		_, o := owner(t, c, "crate::f")
		return c.HashingContext(false, nil).NodeHash(o).Hex()
	}
	body := func(c *hir.Crate) string {
		_, o := owner(t, c, "crate::f")
		return c.HashingContext(false, nil).BodyHash(o.(*hir.Item).Data.(hir.FnData).Body).Hex()
	}
	if node(base) != node(edited) || node(base) != node(attr) {
		t.Fatal("node hash must ignore bodies and attributes")
	}
	if body(base) == body(edited) {
		t.Fatal("body hash must see the body edit")
	}
}
