package hirmap_test

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"hirindex/internal/bug"
	"hirindex/internal/diag"
	"hirindex/internal/hir"
	"hirindex/internal/hirmap"
	"hirindex/internal/lowerfile"
	"hirindex/internal/query"
	"hirindex/internal/source"
	"hirindex/internal/testkit"
)

const closureSrc = `
crate: demo
items:
  - fn: apply
    attrs: [inline]
    params:
      - {name: x, ty: i32}
    ret: i32
    body:
      stmts:
        - let: f
          init:
            closure: [y]
            body: {binary: "+", lhs: y, rhs: x}
      expr: {call: f, args: [x]}
`

const libSrc = `
crate: lib
attrs: [no_std]
items:
  - mod: geo
    items:
      - struct: Point
        fields: [{name: x, ty: i64}, {name: y, ty: i64}]
      - trait: Norm
        items:
          - fn: norm
            params: [{name: self, ty: Self}, {name: scale, ty: i64}]
            ret: i64
      - impl: Norm
        for: Point
        items:
          - fn: norm
            params: [{name: self, ty: Self}, {pat: [a, b], ty: [i64, i64]}]
            ret: i64
            body: {binary: "+", lhs: a, rhs: b}
      - mod: inner
        items:
          - const: ZERO
            ty: i64
            value: 0
  - extern: C
    items:
      - fn: abs
        params: [{name: v, ty: i64}]
        ret: i64
  - fn: main
    body:
      - item: {fn: nested, body: 1}
      - {semi: {call: nested}}
`

func lower(t *testing.T, src string) *hir.Crate {
	t.Helper()
	bag := diag.NewBag(0)
	c, err := lowerfile.LowerSource(source.NewFileSet(), "lib.yaml", []byte(src), &diag.BagReporter{Bag: bag})
	if err != nil {
		for _, d := range bag.Items() {
			t.Log(d.Code.ID(), d.Message)
		}
		t.Fatalf("lower: %v", err)
	}
	return c
}

func newCtx(c *hir.Crate) *query.Ctx {
	var p query.Providers
	hirmap.Provide(&p)
	return query.NewCtx(context.Background(), &p, c, c.HashingContext(false, nil))
}

func def(t *testing.T, c *hir.Crate, path string) hir.DefID {
	t.Helper()
	d, ok := c.Defs.Lookup(path)
	if !ok {
		t.Fatalf("no definition %s", path)
	}
	return d
}

func ownerHashes(t *testing.T, src, path string) (hash, nodeHash string) {
	t.Helper()
	c := lower(t, src)
	nodes, ok := newCtx(c).HirOwnerNodes(def(t, c, path))
	if !ok {
		t.Fatalf("%s is not an owner", path)
	}
	return nodes.Hash().Hex(), nodes.NodeHash().Hex()
}

func TestIndexIsDeterministic(t *testing.T) {
	a, b := lower(t, libSrc), lower(t, libSrc)
	qa, qb := newCtx(a), newCtx(b)
	for _, d := range a.OwnerDefs() {
		na, _ := qa.HirOwnerNodes(d)
		nb, ok := qb.HirOwnerNodes(d)
		if !ok {
			t.Fatalf("%s missing from second crate", a.Defs.DefPath(d))
		}
		if na.Hash() != nb.Hash() || na.NodeHash() != nb.NodeHash() {
			t.Fatalf("%s: hashes differ between identical inputs", a.Defs.DefPath(d))
		}
	}
	if qa.CrateHash() != qb.CrateHash() {
		t.Fatal("crate hash differs between identical inputs")
	}
}

func TestHashSensitivity(t *testing.T) {
	base := "crate: s\nitems:\n  - fn: f\n    params: [{name: a, ty: u8}]\n    ret: u8\n    body: a\n"
	tests := []struct {
		name         string
		src          string
		nodeHashSame bool
	}{
		{"body edit", strings.Replace(base, "body: a", "body: {binary: '+', lhs: a, rhs: 1}", 1), true},
		{"param pattern edit", strings.Replace(base, "{name: a, ty: u8}", "{pat: _, ty: u8}", 1), true},
		{"attribute added", strings.Replace(base, "  - fn: f\n", "  - fn: f\n    attrs: [inline]\n", 1), true},
		{"signature edit", strings.Replace(base, "ret: u8", "ret: u16", 1), false},
	}
	h0, n0 := ownerHashes(t, base, "crate::f")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, n := ownerHashes(t, tt.src, "crate::f")
			if h == h0 {
				t.Fatal("owner hash did not change")
			}
			if (n == n0) != tt.nodeHashSame {
				t.Fatalf("node hash unchanged = %v, want %v", n == n0, tt.nodeHashSame)
			}
		})
	}
}

func TestOwnerIdentities(t *testing.T) {
	base := "crate: s\nitems:\n  - fn: f\n    params: [{name: a, ty: u8}]\n    ret: u8\n    body: a\n"
	identities := func(src string) (hir.Owner, *hir.OwnerNodes) {
		c := lower(t, src)
		q := newCtx(c)
		d := def(t, c, "crate::f")
		owner, ok := q.HirOwner(d)
		if !ok {
			t.Fatal("crate::f has no owner summary")
		}
		nodes, _ := q.HirOwnerNodes(d)
		if owner.StableFingerprint() != owner.NodeHash || owner.NodeHash != nodes.NodeHash() {
			t.Fatalf("owner identity %s, node hash %s", owner.StableFingerprint(), nodes.NodeHash())
		}
		if nodes.StableFingerprint() != nodes.Hash() {
			t.Fatalf("owner nodes identity %s, hash %s", nodes.StableFingerprint(), nodes.Hash())
		}
		return owner, nodes
	}

	o0, n0 := identities(base)
	o1, n1 := identities(strings.Replace(base, "body: a", "body: {binary: '+', lhs: a, rhs: 1}", 1))
	if o0.StableFingerprint() != o1.StableFingerprint() {
		t.Error("body edit changed the owner identity")
	}
	if n0.StableFingerprint() == n1.StableFingerprint() {
		t.Error("body edit kept the owner nodes identity")
	}
}

func TestSwappedNodesDoNotCollide(t *testing.T) {
	a, _ := ownerHashes(t, "crate: s\nitems:\n  - fn: f\n    body: {tuple: [1, x]}\n", "crate::f")
	b, _ := ownerHashes(t, "crate: s\nitems:\n  - fn: f\n    body: {tuple: [x, 1]}\n", "crate::f")
	if a == b {
		t.Fatal("swapping two nodes must change the owner hash")
	}
}

func TestLocalIDsAreDense(t *testing.T) {
	c := lower(t, libSrc)
	q := newCtx(c)
	for _, d := range c.OwnerDefs() {
		nodes, ok := q.HirOwnerNodes(d)
		if !ok {
			t.Fatalf("%s not indexed", c.Defs.DefPath(d))
		}
		var want hir.LocalID
		for id, pn := range nodes.Nodes {
			if id != want {
				t.Fatalf("%s: LocalID %d after %d", c.Defs.DefPath(d), id, want-1)
			}
			want++
			if id == hir.OwnerLocalID {
				if o, ok := pn.Node.(hir.OwnerNode); !ok || o.OwnerDef() != d {
					t.Fatalf("%s: LocalID 0 is not the owner node", c.Defs.DefPath(d))
				}
				continue
			}
			if pn.Parent >= id {
				t.Fatalf("%s: node %d has parent %d", c.Defs.DefPath(d), id, pn.Parent)
			}
		}
		if int(want) != nodes.Len() {
			t.Fatalf("%s: iterated %d of %d nodes", c.Defs.DefPath(d), want, nodes.Len())
		}
	}
}

func TestIndexedOwnersKeepLayout(t *testing.T) {
	for _, src := range []string{libSrc, closureSrc} {
		c := lower(t, src)
		q := newCtx(c)
		for _, d := range c.OwnerDefs() {
			ix, ok := q.IndexHir(d)
			if !ok {
				t.Fatalf("%s not indexed", c.Defs.DefPath(d))
			}
			if err := testkit.CheckOwnerInvariants(d, ix); err != nil {
				t.Fatalf("%s: %v", c.Defs.DefPath(d), err)
			}
		}
	}
}

func TestAttributesDefaultToEmpty(t *testing.T) {
	c := lower(t, closureSrc)
	q := newCtx(c)
	m := hirmap.New(q)
	apply := def(t, c, "crate::apply")

	attrs := m.Attrs(hir.OwnerHirID(apply))
	if len(attrs) != 1 || c.Text(attrs[0].Name) != "inline" {
		t.Fatalf("attrs of apply = %+v", attrs)
	}
	for _, id := range []hir.HirID{{Owner: apply, Local: 3}, {Owner: apply, Local: 400}, hir.CrateHirID} {
		if got := m.Attrs(id); len(got) != 0 {
			t.Fatalf("attrs of %s = %+v, want none", id, got)
		}
	}
}

func TestClosureScenario(t *testing.T) {
	c := lower(t, closureSrc)
	q := newCtx(c)
	m := hirmap.New(q)
	apply := def(t, c, "crate::apply")
	closure := def(t, c, "crate::apply::{closure#0}")

	ix, ok := q.IndexHir(apply)
	if !ok {
		t.Fatal("apply not indexed")
	}
	at, ok := ix.Parenting[closure]
	if !ok {
		t.Fatal("closure missing from the parenting table")
	}
	if at != 11 {
		t.Fatalf("closure attached at %d, want 11", at)
	}
	e, ok := m.Get(hir.HirID{Owner: apply, Local: at}).(*hir.Expr)
	if !ok || e.Kind != hir.ExprClosure {
		t.Fatalf("attachment point is %T", m.Get(hir.HirID{Owner: apply, Local: at}))
	}

	if got := q.HirOwnerParent(closure); got != (hir.HirID{Owner: apply, Local: 11}) {
		t.Fatalf("closure parent = %s", got)
	}
	cn, ok := q.HirOwnerNodes(closure)
	if !ok || cn.Root().OwnerDef() != closure {
		t.Fatal("closure has no OwnerNodes of its own")
	}
	if _, ok := cn.Body(hir.OwnerLocalID); !ok {
		t.Fatal("closure body is not in the sidecar")
	}

	// an edit confined to the closure body
	edited := strings.Replace(closureSrc, `lhs: y, rhs: x`, `lhs: y, rhs: 2`, 1)
	ec := lower(t, edited)
	eq := newCtx(ec)
	before, _ := q.HirOwnerNodes(apply)
	after, _ := eq.HirOwnerNodes(def(t, ec, "crate::apply"))
	if before.NodeHash() != after.NodeHash() {
		t.Fatal("enclosing fn node hash changed")
	}
	cb, _ := q.HirOwnerNodes(closure)
	ca, _ := eq.HirOwnerNodes(def(t, ec, "crate::apply::{closure#0}"))
	if cb.Hash() == ca.Hash() {
		t.Fatal("closure hash did not change")
	}
	if q.CrateHash() == eq.CrateHash() {
		t.Fatal("crate hash did not change")
	}
}

func TestOwnerParents(t *testing.T) {
	c := lower(t, libSrc)
	q := newCtx(c)
	m := hirmap.New(q)
	tests := []struct {
		owner, parent string
		module        string
	}{
		{"crate::geo", "crate", "crate"},
		{"crate::geo::Point", "crate::geo", "crate::geo"},
		{"crate::geo::Norm::norm", "crate::geo::Norm", "crate::geo"},
		{"crate::geo::{impl#0}::norm", "crate::geo::{impl#0}", "crate::geo"},
		{"crate::geo::inner::ZERO", "crate::geo::inner", "crate::geo::inner"},
		{"crate::{extern#0}::abs", "crate::{extern#0}", "crate"},
		{"crate::main::nested", "crate::main", "crate"},
	}
	for _, tt := range tests {
		t.Run(tt.owner, func(t *testing.T) {
			d := def(t, c, tt.owner)
			p := q.HirOwnerParent(d)
			if p.Owner != def(t, c, tt.parent) {
				t.Fatalf("parent owner = %s", c.Defs.DefPath(p.Owner))
			}
			if got := q.ParentModuleFromDefID(d); got != def(t, c, tt.module) {
				t.Fatalf("parent module = %s, want %s", c.Defs.DefPath(got), tt.module)
			}
		})
	}
	nested := q.HirOwnerParent(def(t, c, "crate::main::nested"))
	if st, ok := m.Get(nested).(*hir.Stmt); !ok || st.Kind != hir.StmtItem {
		t.Fatalf("block item attached at %s", nested)
	}
	if q.HirOwnerParent(hir.CrateDefID) != hir.CrateHirID {
		t.Fatal("crate root must be its own parent")
	}

	// the chain from a deep node ends at the crate root
	zero := hir.OwnerHirID(def(t, c, "crate::geo::inner::ZERO"))
	var chain []hir.HirID
	for p := range m.ParentIter(zero) {
		chain = append(chain, p)
	}
	if len(chain) == 0 || chain[len(chain)-1] != hir.CrateHirID {
		t.Fatalf("parent chain = %v", chain)
	}
}

func TestFnArgNames(t *testing.T) {
	c := lower(t, libSrc)
	q := newCtx(c)
	names := func(path string) []string {
		var out []string
		for _, id := range q.FnArgNames(def(t, c, path)) {
			out = append(out, c.Text(id))
		}
		return out
	}
	if got := names("crate::geo::Norm::norm"); !slices.Equal(got, []string{"self", "scale"}) {
		t.Fatalf("required method names = %q", got)
	}
	if got := names("crate::geo::{impl#0}::norm"); !slices.Equal(got, []string{"self", ""}) {
		t.Fatalf("impl method names = %q", got)
	}
	if got := names("crate::main"); len(got) != 0 {
		t.Fatalf("main names = %q", got)
	}

	ice := bug.Catch(func() { q.FnArgNames(def(t, c, "crate::geo::Point")) })
	if ice == nil {
		t.Fatal("fn_arg_names of a struct must be an internal error")
	}
	point := def(t, c, "crate::geo::Point")
	if !strings.Contains(ice.Message, "crate::geo::Point") {
		t.Fatalf("ICE does not name the definition: %s", ice.Message)
	}
	if frame := "fn_arg_names(" + strconv.FormatUint(uint64(point), 10) + ")"; !slices.Contains(ice.Frames, frame) {
		t.Fatalf("ICE frames = %v, want %s", ice.Frames, frame)
	}
}

func TestCrateHashIgnoresIndexingOrder(t *testing.T) {
	c := lower(t, libSrc)
	forward, reverse, parallel := newCtx(c), newCtx(c), newCtx(c)
	defs := c.OwnerDefs()

	for _, d := range defs {
		forward.IndexHir(d)
	}
	for _, d := range slices.Backward(defs) {
		reverse.IndexHir(d)
	}
	var wg sync.WaitGroup
	for _, d := range defs {
		wg.Go(func() { parallel.IndexHir(d) })
	}
	wg.Wait()

	want := forward.CrateHash()
	if reverse.CrateHash() != want || parallel.CrateHash() != want {
		t.Fatal("crate hash depends on indexing order")
	}
	if got := parallel.Computations("index_hir"); got != int64(len(defs)) {
		t.Fatalf("index_hir ran %d times for %d owners", got, len(defs))
	}
}

func TestModuleItems(t *testing.T) {
	c := lower(t, libSrc)
	q := newCtx(c)
	root := q.HirModuleItems(hir.CrateDefID)
	geo := def(t, c, "crate::geo")

	wantRoot := []hir.DefID{geo, def(t, c, "crate::{extern#0}"), def(t, c, "crate::main"), def(t, c, "crate::main::nested")}
	if !slices.Equal(root.Items, wantRoot) {
		t.Fatalf("root items = %v, want %v", root.Items, wantRoot)
	}
	if !slices.Equal(root.Submodules, []hir.DefID{geo}) {
		t.Fatalf("root submodules = %v", root.Submodules)
	}
	if !slices.Equal(root.ForeignItems, []hir.DefID{def(t, c, "crate::{extern#0}::abs")}) {
		t.Fatalf("root foreign items = %v", root.ForeignItems)
	}

	g := q.HirModuleItems(geo)
	if !slices.Equal(g.TraitItems, []hir.DefID{def(t, c, "crate::geo::Norm::norm")}) {
		t.Fatalf("geo trait items = %v", g.TraitItems)
	}
	if !slices.Equal(g.ImplItems, []hir.DefID{def(t, c, "crate::geo::{impl#0}::norm")}) {
		t.Fatalf("geo impl items = %v", g.ImplItems)
	}
	if !q.HirModuleItems(def(t, c, "crate::main")).Empty() {
		t.Fatal("a non-module has no items")
	}

	m := hirmap.New(q)
	if got := m.Modules(); len(got) != 3 {
		t.Fatalf("modules = %v", got)
	}
	var visited atomic.Int32
	err := m.ParForEachModule(context.Background(), 2, func(ctx context.Context, mod hir.DefID) error {
		visited.Add(1)
		return nil
	})
	if err != nil || visited.Load() != 3 {
		t.Fatalf("ParForEachModule visited %d modules, err %v", visited.Load(), err)
	}
}

func TestAllLocalTraitImpls(t *testing.T) {
	c := lower(t, libSrc)
	got := newCtx(c).AllLocalTraitImpls()
	if len(got) != 1 || got[0].Trait != def(t, c, "crate::geo::Norm") {
		t.Fatalf("trait impls = %+v", got)
	}
	if !slices.Equal(got[0].Impls, []hir.DefID{def(t, c, "crate::geo::{impl#0}")}) {
		t.Fatalf("impls = %v", got[0].Impls)
	}
}

func TestSpansAndKinds(t *testing.T) {
	c := lower(t, closureSrc)
	q := newCtx(c)
	apply := def(t, c, "crate::apply")
	if k, ok := q.OptDefKind(apply); !ok || k != hir.DefKindFn {
		t.Fatalf("kind = %s, %v", k, ok)
	}
	full := q.SourceSpan(apply)
	head := q.DefSpan(apply)
	if full.IsDummy() || head.IsDummy() {
		t.Fatal("spans missing")
	}
	if head.Start != full.Start || head.End >= full.End {
		t.Fatalf("head %s is not a prefix of %s", head, full)
	}
	if q.ExpnThatDefined(apply) != hir.RootExpn {
		t.Fatal("unexpected expansion")
	}
}

func TestMalformedTreeIsInternalError(t *testing.T) {
	c := lower(t, closureSrc)
	apply := def(t, c, "crate::apply")
	o, _ := c.Owner(apply)
	fn := o.(*hir.Item)
	data := fn.Data.(hir.FnData)
	data.Body = &hir.Body{Params: data.Body.Params}
	broken := &hir.Item{Def: fn.Def, Ident: fn.Ident, Kind: fn.Kind, Span: fn.Span, Data: data}

	hcx := c.HashingContext(false, nil)
	ice := bug.Catch(func() { hirmap.IndexOwner(hcx, apply, broken) })
	if ice == nil || !strings.Contains(ice.Message, "body value") {
		t.Fatalf("ICE = %v", ice)
	}
	ice = bug.Catch(func() { hirmap.IndexOwner(hcx, hir.CrateDefID, broken) })
	if ice == nil || !strings.Contains(ice.Message, "belongs to") {
		t.Fatalf("ICE = %v", ice)
	}
}
