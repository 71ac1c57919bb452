package query

import (
	"hirindex/internal/fingerprint"
	"hirindex/internal/hir"
	"hirindex/internal/source"
)

// TraitImpls lists the local impls of one trait in traversal order.
type TraitImpls struct {
	Trait hir.DefID
	Impls []hir.DefID
}

// Providers is the registry of computations the Ctx memoizes. It is filled
// once at session start and must not change afterwards.
type Providers struct {
	HirCrate              func(q *Ctx) *hir.Crate
	IndexHir              func(q *Ctx, def hir.DefID) (*hir.IndexedHir, bool)
	HirOwner              func(q *Ctx, def hir.DefID) (hir.Owner, bool)
	HirOwnerNodes         func(q *Ctx, def hir.DefID) (*hir.OwnerNodes, bool)
	HirOwnerParent        func(q *Ctx, def hir.DefID) hir.HirID
	HirAttrs              func(q *Ctx, def hir.DefID) hir.AttributeMap
	CrateHash             func(q *Ctx) fingerprint.Fingerprint
	HirModuleItems        func(q *Ctx, def hir.DefID) *hir.ModuleItems
	HirCrateModuleItems   func(q *Ctx) map[hir.DefID]*hir.ModuleItems
	ParentModuleFromDefID func(q *Ctx, def hir.DefID) hir.DefID
	FnArgNames            func(q *Ctx, def hir.DefID) []hir.Ident
	OptDefKind            func(q *Ctx, def hir.DefID) (hir.DefKind, bool)
	SourceSpan            func(q *Ctx, def hir.DefID) source.Span
	DefSpan               func(q *Ctx, def hir.DefID) source.Span
	AllLocalTraitImpls    func(q *Ctx) []TraitImpls
	ExpnThatDefined       func(q *Ctx, def hir.DefID) hir.ExpnID
}
