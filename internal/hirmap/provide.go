package hirmap

import (
	"hirindex/internal/bug"
	"hirindex/internal/hir"
	"hirindex/internal/query"
	"hirindex/internal/source"
	"hirindex/internal/trace"
)

// Provide registers the HIR providers.
func Provide(p *query.Providers) {
	p.HirCrate = func(q *query.Ctx) *hir.Crate { return q.Input() }
	p.IndexHir = indexHir
	p.CrateHash = crateHash
	p.HirCrateModuleItems = func(q *query.Ctx) map[hir.DefID]*hir.ModuleItems {
		return CollectModuleItems(q.HirCrate())
	}
	p.HirModuleItems = func(q *query.Ctx, def hir.DefID) *hir.ModuleItems {
		if mi, ok := q.HirCrateModuleItems()[def]; ok {
			return mi
		}
		return &hir.ModuleItems{}
	}
	p.HirOwner = func(q *query.Ctx, def hir.DefID) (hir.Owner, bool) {
		ix, ok := q.IndexHir(def)
		if !ok {
			return hir.Owner{}, false
		}
		return hir.Owner{Node: ix.Nodes.Root(), NodeHash: ix.Nodes.NodeHash()}, true
	}
	p.HirOwnerNodes = func(q *query.Ctx, def hir.DefID) (*hir.OwnerNodes, bool) {
		ix, ok := q.IndexHir(def)
		if !ok {
			return nil, false
		}
		return ix.Nodes, true
	}
	p.HirOwnerParent = hirOwnerParent
	p.HirAttrs = func(q *query.Ctx, def hir.DefID) hir.AttributeMap {
		if ix, ok := q.IndexHir(def); ok {
			return ix.Attrs
		}
		return hir.AttributeMap{}
	}
	p.ParentModuleFromDefID = func(q *query.Ctx, def hir.DefID) hir.DefID {
		m := New(q)
		return m.LocalDefID(m.GetModuleParentNode(m.LocalDefIDToHirID(def)))
	}
	p.FnArgNames = fnArgNames
	p.OptDefKind = func(q *query.Ctx, def hir.DefID) (hir.DefKind, bool) {
		return New(q).OptDefKind(def)
	}
	p.SourceSpan = func(q *query.Ctx, def hir.DefID) source.Span {
		sp, _ := q.HirCrate().Defs.DefSpan(def)
		return sp
	}
	p.DefSpan = func(q *query.Ctx, def hir.DefID) source.Span {
		if sp, ok := New(q).SpanIfLocal(def); ok {
			return sp
		}
		return source.DummySpan
	}
	p.AllLocalTraitImpls = func(q *query.Ctx) []query.TraitImpls {
		return traitImpls(q.HirCrate())
	}
	p.ExpnThatDefined = func(q *query.Ctx, def hir.DefID) hir.ExpnID {
		return q.HirCrate().Defs.ExpansionThatDefined(def)
	}
}

func indexHir(q *query.Ctx, def hir.DefID) (*hir.IndexedHir, bool) {
	c := q.HirCrate()
	owner, ok := c.Owner(def)
	if !ok {
		return nil, false
	}
	span := trace.Begin(q.Tracer(), trace.ScopeOwner, "index "+c.Defs.DefPath(def), 0)
	ix := IndexOwner(q.Hashing(), def, owner)
	span.End(ix.Nodes.Hash().Short())
	return ix, true
}

// hirOwnerParent links an owner to the node of its definition parent that
// reaches it. Owners whose parent does not record them attach to the
// parent's owner node; the crate root attaches to itself.
func hirOwnerParent(q *query.Ctx, def hir.DefID) hir.HirID {
	parent, ok := q.HirCrate().Defs.Parent(def)
	if !ok {
		return hir.CrateHirID
	}
	id := hir.OwnerHirID(parent)
	if ix, ok := q.IndexHir(parent); ok {
		if local, ok := ix.Parenting[def]; ok {
			id.Local = local
		}
	}
	return id
}

func fnArgNames(q *query.Ctx, def hir.DefID) []hir.Ident {
	m := New(q)
	id := m.LocalDefIDToHirID(def)
	if body, ok := m.MaybeBodyOwnedBy(id); ok {
		return m.BodyParamNames(body)
	}
	if ti, ok := m.Get(id).(*hir.TraitItem); ok {
		if d, ok := ti.Data.(hir.TraitFnData); ok && d.IsRequired() {
			return d.ParamNames
		}
	}
	sp, _ := m.OptSpan(id)
	bug.SpanBugf(sp, "fn_arg_names: unexpected item %s", q.HirCrate().Defs.DefPath(def))
	return nil
}
