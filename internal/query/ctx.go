package query

import (
	"context"
	"strconv"

	"hirindex/internal/bug"
	"hirindex/internal/fingerprint"
	"hirindex/internal/hir"
	"hirindex/internal/source"
	"hirindex/internal/trace"
)

type unit struct{}

func fmtDef(d hir.DefID) string            { return strconv.FormatUint(uint64(d), 10) }
func fmtUnit(unit) string                  { return "" }
func defKey(d hir.DefID) (hir.DefID, bool) { return d, true }

// Ctx memoizes provider results for one session. It is safe for concurrent
// use; results are immutable once published.
type Ctx struct {
	providers *Providers
	crate     *hir.Crate
	hcx       *hir.HashingContext
	tracer    trace.Tracer
	rootSpan  uint64

	hirCrate              *Cache[unit, *hir.Crate]
	indexHir              *Cache[hir.DefID, opt[*hir.IndexedHir]]
	hirOwner              *Cache[hir.DefID, opt[hir.Owner]]
	hirOwnerNodes         *Cache[hir.DefID, opt[*hir.OwnerNodes]]
	hirOwnerParent        *Cache[hir.DefID, hir.HirID]
	hirAttrs              *Cache[hir.DefID, hir.AttributeMap]
	crateHash             *Cache[unit, fingerprint.Fingerprint]
	hirModuleItems        *Cache[hir.DefID, *hir.ModuleItems]
	hirCrateModuleItems   *Cache[unit, map[hir.DefID]*hir.ModuleItems]
	parentModuleFromDefID *Cache[hir.DefID, hir.DefID]
	fnArgNames            *Cache[hir.DefID, []hir.Ident]
	optDefKind            *Cache[hir.DefID, opt[hir.DefKind]]
	sourceSpan            *Cache[hir.DefID, source.Span]
	defSpan               *Cache[hir.DefID, source.Span]
	allLocalTraitImpls    *Cache[unit, []TraitImpls]
	expnThatDefined       *Cache[hir.DefID, hir.ExpnID]

	caches []invalidator
}

// NewCtx creates a query context over crate. The tracer and parent span
// are taken from ctx.
func NewCtx(ctx context.Context, p *Providers, crate *hir.Crate, hcx *hir.HashingContext) *Ctx {
	q := &Ctx{
		providers: p,
		crate:     crate,
		hcx:       hcx,
		tracer:    trace.FromContext(ctx),
		rootSpan:  trace.CurrentSpan(ctx),
	}
	q.hirCrate = register(q, newCache[unit, *hir.Crate]("hir_crate", fmtUnit, nil))
	q.indexHir = register(q, newCache[hir.DefID, opt[*hir.IndexedHir]]("index_hir", fmtDef, defKey))
	q.hirOwner = register(q, newCache[hir.DefID, opt[hir.Owner]]("hir_owner", fmtDef, defKey))
	q.hirOwnerNodes = register(q, newCache[hir.DefID, opt[*hir.OwnerNodes]]("hir_owner_nodes", fmtDef, defKey))
	q.hirOwnerParent = register(q, newCache[hir.DefID, hir.HirID]("hir_owner_parent", fmtDef, defKey))
	q.hirAttrs = register(q, newCache[hir.DefID, hir.AttributeMap]("hir_attrs", fmtDef, defKey))
	q.crateHash = register(q, newCache[unit, fingerprint.Fingerprint]("crate_hash", fmtUnit, nil))
	q.hirModuleItems = register(q, newCache[hir.DefID, *hir.ModuleItems]("hir_module_items", fmtDef, nil))
	q.hirCrateModuleItems = register(q, newCache[unit, map[hir.DefID]*hir.ModuleItems]("hir_crate_module_items", fmtUnit, nil))
	q.parentModuleFromDefID = register(q, newCache[hir.DefID, hir.DefID]("parent_module_from_def_id", fmtDef, nil))
	q.fnArgNames = register(q, newCache[hir.DefID, []hir.Ident]("fn_arg_names", fmtDef, defKey))
	q.optDefKind = register(q, newCache[hir.DefID, opt[hir.DefKind]]("opt_def_kind", fmtDef, defKey))
	q.sourceSpan = register(q, newCache[hir.DefID, source.Span]("source_span", fmtDef, defKey))
	q.defSpan = register(q, newCache[hir.DefID, source.Span]("def_span", fmtDef, defKey))
	q.allLocalTraitImpls = register(q, newCache[unit, []TraitImpls]("all_local_trait_impls", fmtUnit, nil))
	q.expnThatDefined = register(q, newCache[hir.DefID, hir.ExpnID]("expn_that_defined", fmtDef, defKey))
	return q
}

func register[K comparable, V any](q *Ctx, c *Cache[K, V]) *Cache[K, V] {
	q.caches = append(q.caches, c)
	return c
}

// Input returns the crate the context was created over. Providers use it
// to read lowering output; everyone else goes through HirCrate.
func (q *Ctx) Input() *hir.Crate { return q.crate }

// Hashing returns the session hashing context.
func (q *Ctx) Hashing() *hir.HashingContext { return q.hcx }

// Tracer returns the tracer the context emits query spans to.
func (q *Ctx) Tracer() trace.Tracer { return q.tracer }

// Reset drops every memoized result.
func (q *Ctx) Reset() {
	for _, c := range q.caches {
		c.reset()
	}
}

// Forget drops the results keyed by def and every crate-wide result. The
// parents of owners nested directly in def are read from def's parenting
// table, so they are dropped too.
func (q *Ctx) Forget(def hir.DefID) {
	for _, c := range q.caches {
		c.forget(def)
	}
	if q.crate == nil {
		return
	}
	q.hirOwnerParent.forgetWhere(func(owner hir.DefID) bool {
		return owner != def && q.enclosingOwner(owner) == def
	})
}

// enclosingOwner walks the definition parents of def up to the nearest
// owner. The crate root encloses itself.
func (q *Ctx) enclosingOwner(def hir.DefID) hir.DefID {
	if !q.crate.Defs.Has(def) {
		return def
	}
	p, ok := q.crate.Defs.Parent(def)
	for ok {
		if _, owner := q.crate.Owner(p); owner {
			return p
		}
		p, ok = q.crate.Defs.Parent(p)
	}
	return hir.CrateDefID
}

// Computations reports how many times the named provider ran.
func (q *Ctx) Computations(name string) int64 {
	for _, c := range q.caches {
		if n, ok := c.(interface {
			Name() string
			Computations() int64
		}); ok && n.Name() == name {
			return n.Computations()
		}
	}
	return 0
}

func missing(name string) {
	bug.Bugf("no provider registered for %s", name)
}

func (q *Ctx) HirCrate() *hir.Crate {
	return q.hirCrate.get(q, unit{}, func(unit) *hir.Crate {
		if q.providers.HirCrate == nil {
			missing("hir_crate")
		}
		return q.providers.HirCrate(q)
	})
}

func (q *Ctx) IndexHir(def hir.DefID) (*hir.IndexedHir, bool) {
	r := q.indexHir.get(q, def, func(def hir.DefID) opt[*hir.IndexedHir] {
		if q.providers.IndexHir == nil {
			missing("index_hir")
		}
		return some(q.providers.IndexHir(q, def))
	})
	return r.v, r.ok
}

func (q *Ctx) HirOwner(def hir.DefID) (hir.Owner, bool) {
	r := q.hirOwner.get(q, def, func(def hir.DefID) opt[hir.Owner] {
		if q.providers.HirOwner == nil {
			missing("hir_owner")
		}
		return some(q.providers.HirOwner(q, def))
	})
	return r.v, r.ok
}

func (q *Ctx) HirOwnerNodes(def hir.DefID) (*hir.OwnerNodes, bool) {
	r := q.hirOwnerNodes.get(q, def, func(def hir.DefID) opt[*hir.OwnerNodes] {
		if q.providers.HirOwnerNodes == nil {
			missing("hir_owner_nodes")
		}
		return some(q.providers.HirOwnerNodes(q, def))
	})
	return r.v, r.ok
}

func (q *Ctx) HirOwnerParent(def hir.DefID) hir.HirID {
	return q.hirOwnerParent.get(q, def, func(def hir.DefID) hir.HirID {
		if q.providers.HirOwnerParent == nil {
			missing("hir_owner_parent")
		}
		return q.providers.HirOwnerParent(q, def)
	})
}

func (q *Ctx) HirAttrs(def hir.DefID) hir.AttributeMap {
	return q.hirAttrs.get(q, def, func(def hir.DefID) hir.AttributeMap {
		if q.providers.HirAttrs == nil {
			missing("hir_attrs")
		}
		return q.providers.HirAttrs(q, def)
	})
}

func (q *Ctx) CrateHash() fingerprint.Fingerprint {
	return q.crateHash.get(q, unit{}, func(unit) fingerprint.Fingerprint {
		if q.providers.CrateHash == nil {
			missing("crate_hash")
		}
		return q.providers.CrateHash(q)
	})
}

func (q *Ctx) HirModuleItems(def hir.DefID) *hir.ModuleItems {
	return q.hirModuleItems.get(q, def, func(def hir.DefID) *hir.ModuleItems {
		if q.providers.HirModuleItems == nil {
			missing("hir_module_items")
		}
		return q.providers.HirModuleItems(q, def)
	})
}

func (q *Ctx) HirCrateModuleItems() map[hir.DefID]*hir.ModuleItems {
	return q.hirCrateModuleItems.get(q, unit{}, func(unit) map[hir.DefID]*hir.ModuleItems {
		if q.providers.HirCrateModuleItems == nil {
			missing("hir_crate_module_items")
		}
		return q.providers.HirCrateModuleItems(q)
	})
}

func (q *Ctx) ParentModuleFromDefID(def hir.DefID) hir.DefID {
	return q.parentModuleFromDefID.get(q, def, func(def hir.DefID) hir.DefID {
		if q.providers.ParentModuleFromDefID == nil {
			missing("parent_module_from_def_id")
		}
		return q.providers.ParentModuleFromDefID(q, def)
	})
}

func (q *Ctx) FnArgNames(def hir.DefID) []hir.Ident {
	return q.fnArgNames.get(q, def, func(def hir.DefID) []hir.Ident {
		if q.providers.FnArgNames == nil {
			missing("fn_arg_names")
		}
		return q.providers.FnArgNames(q, def)
	})
}

func (q *Ctx) OptDefKind(def hir.DefID) (hir.DefKind, bool) {
	r := q.optDefKind.get(q, def, func(def hir.DefID) opt[hir.DefKind] {
		if q.providers.OptDefKind == nil {
			missing("opt_def_kind")
		}
		return some(q.providers.OptDefKind(q, def))
	})
	return r.v, r.ok
}

func (q *Ctx) SourceSpan(def hir.DefID) source.Span {
	return q.sourceSpan.get(q, def, func(def hir.DefID) source.Span {
		if q.providers.SourceSpan == nil {
			missing("source_span")
		}
		return q.providers.SourceSpan(q, def)
	})
}

func (q *Ctx) DefSpan(def hir.DefID) source.Span {
	return q.defSpan.get(q, def, func(def hir.DefID) source.Span {
		if q.providers.DefSpan == nil {
			missing("def_span")
		}
		return q.providers.DefSpan(q, def)
	})
}

func (q *Ctx) AllLocalTraitImpls() []TraitImpls {
	return q.allLocalTraitImpls.get(q, unit{}, func(unit) []TraitImpls {
		if q.providers.AllLocalTraitImpls == nil {
			missing("all_local_trait_impls")
		}
		return q.providers.AllLocalTraitImpls(q)
	})
}

func (q *Ctx) ExpnThatDefined(def hir.DefID) hir.ExpnID {
	return q.expnThatDefined.get(q, def, func(def hir.DefID) hir.ExpnID {
		if q.providers.ExpnThatDefined == nil {
			missing("expn_that_defined")
		}
		return q.providers.ExpnThatDefined(q, def)
	})
}
