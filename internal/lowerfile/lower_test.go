package lowerfile_test

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"hirindex/internal/diag"
	"hirindex/internal/hir"
	"hirindex/internal/hirmap"
	"hirindex/internal/lowerfile"
	"hirindex/internal/source"
)

func lowerString(t *testing.T, src string) (*hir.Crate, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag(0)
	c, err := lowerfile.LowerSource(source.NewFileSet(), "test.yaml", []byte(src), &diag.BagReporter{Bag: bag})
	if err != nil {
		t.Fatalf("lower: %v\n%v", err, messages(bag))
	}
	return c, bag
}

func lowerFailing(t *testing.T, src string) *diag.Bag {
	t.Helper()
	bag := diag.NewBag(0)
	_, err := lowerfile.LowerSource(source.NewFileSet(), "test.yaml", []byte(src), &diag.BagReporter{Bag: bag})
	if !errors.Is(err, lowerfile.ErrLowering) {
		t.Fatalf("expected ErrLowering, got %v", err)
	}
	return bag
}

func messages(bag *diag.Bag) string {
	var sb strings.Builder
	for _, d := range bag.Items() {
		sb.WriteString(d.Code.ID() + ": " + d.Message + "\n")
	}
	return sb.String()
}

func hasCode(bag *diag.Bag, code diag.Code) bool {
	for _, d := range bag.Items() {
		if d.Code == code {
			return true
		}
	}
	return false
}

func mustDef(t *testing.T, c *hir.Crate, path string) hir.DefID {
	t.Helper()
	def, ok := c.Defs.Lookup(path)
	if !ok {
		t.Fatalf("no definition %s", path)
	}
	return def
}

func item(t *testing.T, c *hir.Crate, path string) *hir.Item {
	t.Helper()
	o, ok := c.Owner(mustDef(t, c, path))
	if !ok {
		t.Fatalf("%s is not an owner", path)
	}
	it, ok := o.(*hir.Item)
	if !ok {
		t.Fatalf("%s is a %s, not an item", path, o.NodeKind())
	}
	return it
}

func TestLowerGoldenDump(t *testing.T) {
	files := source.NewFileSet()
	c, err := lowerfile.LowerFile(files, filepath.Join("testdata", "closure.yaml"), diag.NopReporter{})
	if err != nil {
		t.Fatalf("lower: %v", err)
	}
	hcx := c.HashingContext(false, nil)
	tree := hirmap.IndexTree(hcx, c.Root)

	var buf bytes.Buffer
	p := hir.NewPrinter(&buf, c)
	for _, def := range c.OwnerDefs() {
		if err := p.PrintOwner(def, tree[def]); err != nil {
			t.Fatalf("print: %v", err)
		}
	}

	// fingerprints are covered by hirmap tests
	var out strings.Builder
	for line := range strings.Lines(buf.String()) {
		if strings.HasPrefix(line, "  hash ") || strings.HasPrefix(line, "  node_hash ") {
			continue
		}
		out.WriteString(line)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "closure", []byte(out.String()))
}

func TestLowerShapesDefinitions(t *testing.T) {
	files := source.NewFileSet()
	bag := diag.NewBag(0)
	c, err := lowerfile.LowerFile(files, filepath.Join("testdata", "shapes.yaml"), &diag.BagReporter{Bag: bag})
	if err != nil {
		t.Fatalf("lower: %v\n%s", err, messages(bag))
	}

	tests := []struct {
		path string
		kind hir.DefKind
	}{
		{"crate", hir.DefKindMod},
		{"crate::geo", hir.DefKindMod},
		{"crate::geo::Circle", hir.DefKindStruct},
		{"crate::geo::Shape", hir.DefKindEnum},
		{"crate::geo::Area", hir.DefKindTrait},
		{"crate::geo::Area::area", hir.DefKindAssocFn},
		{"crate::geo::Area::SIDES", hir.DefKindAssocConst},
		{"crate::geo::{impl#0}", hir.DefKindImpl},
		{"crate::geo::{impl#0}::area", hir.DefKindAssocFn},
		{"crate::{extern#0}", hir.DefKindForeignMod},
		{"crate::{extern#0}::puts", hir.DefKindForeignFn},
		{"crate::{use#0}", hir.DefKindUse},
		{"crate::total", hir.DefKindFn},
		{"crate::total::helper", hir.DefKindFn},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			kind, ok := c.Defs.OptDefKind(mustDef(t, c, tt.path))
			if !ok || kind != tt.kind {
				t.Fatalf("kind = %s (%v), want %s", kind, ok, tt.kind)
			}
		})
	}

	root := c.Root
	if len(root.Attrs) != 1 || root.Attrs[0].Style != hir.AttrInner || root.Attrs[0].Args != `"geometry"` {
		t.Fatalf("crate attrs = %+v", root.Attrs)
	}
}

func TestLowerResolvesForwardReferences(t *testing.T) {
	c, _ := lowerString(t, `
crate: fwd
items:
  - fn: main
    body: {call: later, args: [1]}
  - fn: later
    params: [{name: v, ty: u8}]
    body: v
`)
	main := item(t, c, "crate::main")
	call := main.Data.(hir.FnData).Body.Value.Data.(hir.CallData)
	callee := call.Callee.Data.(hir.PathData).Path
	if callee.Res.Kind != hir.ResDef || callee.Res.Def != mustDef(t, c, "crate::later") {
		t.Fatalf("callee resolved to %+v", callee.Res)
	}

	later := item(t, c, "crate::later")
	v := later.Data.(hir.FnData).Body.Value.Data.(hir.PathData).Path
	if v.Res.Kind != hir.ResLocal {
		t.Fatalf("parameter use resolved to %+v", v.Res)
	}
	ty := later.Data.(hir.FnData).Sig.Decl.Inputs[0].Data.(hir.PathTyData).Path
	if ty.Res.Kind != hir.ResPrim {
		t.Fatalf("u8 resolved to %+v", ty.Res)
	}
}

func TestLowerPathsAcrossModules(t *testing.T) {
	c, _ := lowerString(t, `
crate: nav
items:
  - mod: a
    items:
      - const: K
        ty: u8
        value: 1
      - mod: b
        items:
          - fn: f
            body: super::K
  - fn: g
    body: crate::a::K
`)
	k := mustDef(t, c, "crate::a::K")
	for _, path := range []string{"crate::a::b::f", "crate::g"} {
		fn := item(t, c, path)
		p := fn.Data.(hir.FnData).Body.Value.Data.(hir.PathData).Path
		if p.Res.Kind != hir.ResDef || p.Res.Def != k {
			t.Fatalf("%s: path resolved to %+v, want %s", path, p.Res, k)
		}
	}
}

func TestLowerClosureDefParent(t *testing.T) {
	c, _ := lowerString(t, `
crate: cl
items:
  - fn: outer
    body:
      closure: []
      move: true
      body:
        closure: [x]
        body: x
`)
	outer := mustDef(t, c, "crate::outer")
	first := mustDef(t, c, "crate::outer::{closure#0}")
	second := mustDef(t, c, "crate::outer::{closure#0}::{closure#0}")
	if p, _ := c.Defs.Parent(first); p != outer {
		t.Fatalf("first closure parent = %s", p)
	}
	if p, _ := c.Defs.Parent(second); p != first {
		t.Fatalf("inner closure parent = %s", p)
	}
	cl := item(t, c, "crate::outer").Data.(hir.FnData).Body.Value.Data.(hir.ClosureData).Closure
	if !cl.Move || cl.Def != first {
		t.Fatalf("closure = %+v", cl)
	}
}

func TestLowerStructExpressionFields(t *testing.T) {
	c, _ := lowerString(t, `
crate: se
items:
  - struct: P
    fields: [{name: x, ty: i64}, {name: y, ty: i64}]
  - fn: mk
    ret: P
    body: {struct: P, fields: {x: 1, y: {field: x, of: {struct: P, fields: {x: 2, y: 3}}}}}
`)
	e := item(t, c, "crate::mk").Data.(hir.FnData).Body.Value
	if e.Kind != hir.ExprStruct {
		t.Fatalf("body is a %v, not a struct expression", e.Kind)
	}
	d := e.Data.(hir.StructExprData)
	if len(d.Fields) != 2 || d.Base != nil {
		t.Fatalf("struct expression = %+v", d)
	}
	want := []struct {
		name string
		kind hir.ExprKind
	}{{"x", hir.ExprLit}, {"y", hir.ExprField}}
	for i, f := range d.Fields {
		if c.Text(f.Name) != want[i].name || f.Value.Kind != want[i].kind {
			t.Errorf("field %d = %s: %v, want %s: %v", i, c.Text(f.Name), f.Value.Kind, want[i].name, want[i].kind)
		}
	}
}

func TestLowerRequiredTraitMethodKeepsParamNames(t *testing.T) {
	c, _ := lowerString(t, `
crate: tr
items:
  - trait: Greet
    items:
      - fn: greet
        params: [{name: who, ty: str}, {pat: _, ty: u8}]
      - fn: provided
        params: [{name: n, ty: u8}]
        body: n
`)
	o, _ := c.Owner(mustDef(t, c, "crate::Greet::greet"))
	req := o.(*hir.TraitItem).Data.(hir.TraitFnData)
	if !req.IsRequired() || len(req.ParamNames) != 2 {
		t.Fatalf("required method = %+v", req)
	}
	if c.Text(req.ParamNames[0]) != "who" || !req.ParamNames[1].IsEmpty() {
		t.Fatalf("param names = %q, %v", c.Text(req.ParamNames[0]), req.ParamNames[1])
	}

	o, _ = c.Owner(mustDef(t, c, "crate::Greet::provided"))
	prov := o.(*hir.TraitItem).Data.(hir.TraitFnData)
	if prov.IsRequired() || prov.ParamNames != nil {
		t.Fatalf("provided method = %+v", prov)
	}
}

func TestLowerBlockItemsAreOwnedByEnclosingFn(t *testing.T) {
	c, _ := lowerString(t, `
crate: blk
items:
  - fn: f
    body:
      - item: {struct: Local, fields: [u8]}
      - {semi: {call: g}}
      - item: {fn: g, body: 0}
`)
	f := mustDef(t, c, "crate::f")
	g := mustDef(t, c, "crate::f::g")
	if p, _ := c.Defs.Parent(g); p != f {
		t.Fatalf("block fn parent = %s, want %s", p, f)
	}
	stmts := item(t, c, "crate::f").Data.(hir.FnData).Body.Value.Data.(hir.BlockData).Block.Stmts
	call := stmts[1].Data.(hir.ExprStmtData).Expr.Data.(hir.CallData)
	if res := call.Callee.Data.(hir.PathData).Path.Res; res.Def != g {
		t.Fatalf("call to a later block item resolved to %+v", res)
	}
}

func TestLowerErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code diag.Code
	}{
		{"unknown key", "crate: x\nitems:\n  - fn: f\n    body: 1\n    colour: red\n", diag.LowUnknownKey},
		{"missing body", "crate: x\nitems:\n  - fn: f\n", diag.LowMissingBody},
		{"duplicate item", "crate: x\nitems:\n  - fn: f\n    body: 1\n  - fn: f\n    body: 2\n", diag.LowDuplicateItem},
		{"two kinds", "crate: x\nitems:\n  - {fn: f, struct: S}\n", diag.LowMalformedNode},
		{"bad yaml", "crate: [x\n", diag.LowUnexpectedSyntax},
		{"bad operator", "crate: x\nitems:\n  - fn: f\n    body: {binary: '<>', lhs: 1, rhs: 2}\n", diag.LowUnexpectedSyntax},
		{"foreign body", "crate: x\nitems:\n  - extern: C\n    items:\n      - {fn: f, body: 1}\n", diag.LowUnexpectedSyntax},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bag := lowerFailing(t, tt.src)
			if !hasCode(bag, tt.code) {
				t.Fatalf("expected %s, got:\n%s", tt.code.ID(), messages(bag))
			}
		})
	}
}

func TestLowerSpansPointIntoSource(t *testing.T) {
	src := "crate: sp\nitems:\n  - fn: answer\n    body: 42\n"
	c, _ := lowerString(t, src)
	it := item(t, c, "crate::answer")
	got := src[it.Ident.Span.Start:it.Ident.Span.End]
	if got != "answer" {
		t.Fatalf("ident span covers %q", got)
	}
	lit := it.Data.(hir.FnData).Body.Value
	if src[lit.Span.Start:lit.Span.End] != "42" {
		t.Fatalf("literal span covers %q", src[lit.Span.Start:lit.Span.End])
	}
}
