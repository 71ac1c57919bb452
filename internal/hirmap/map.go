package hirmap

import (
	"context"
	"iter"
	"slices"

	"golang.org/x/sync/errgroup"

	"hirindex/internal/bug"
	"hirindex/internal/hir"
	"hirindex/internal/query"
	"hirindex/internal/source"
)

// Map navigates the HIR of a crate through the query context.
type Map struct {
	q *query.Ctx
}

func New(q *query.Ctx) Map { return Map{q: q} }

// Find returns the node at id.
func (m Map) Find(id hir.HirID) (hir.Node, bool) {
	nodes, ok := m.q.HirOwnerNodes(id.Owner)
	if !ok {
		return nil, false
	}
	return nodes.Node(id.Local)
}

// Get returns the node at id and raises an ICE when there is none.
func (m Map) Get(id hir.HirID) hir.Node {
	n, ok := m.Find(id)
	if !ok {
		bug.Bugf("no HIR node at %s", id)
	}
	return n
}

// FindParentNode returns the parent of id. Owners are linked to the node
// that reaches them in their lexical parent. The crate root has no parent.
func (m Map) FindParentNode(id hir.HirID) (hir.HirID, bool) {
	if id.IsOwner() {
		if id.Owner == hir.CrateDefID {
			return hir.HirID{}, false
		}
		return m.q.HirOwnerParent(id.Owner), true
	}
	nodes, ok := m.q.HirOwnerNodes(id.Owner)
	if !ok {
		return hir.HirID{}, false
	}
	return hir.HirID{Owner: id.Owner, Local: nodes.Parent(id.Local)}, true
}

// ParentIter yields the parents of id, innermost first, up to and including
// the crate root.
func (m Map) ParentIter(id hir.HirID) iter.Seq[hir.HirID] {
	return func(yield func(hir.HirID) bool) {
		cur := id
		for {
			p, ok := m.FindParentNode(cur)
			if !ok || !yield(p) {
				return
			}
			cur = p
		}
	}
}

// GetModuleParentNode returns the closest module enclosing id, not counting
// id itself.
func (m Map) GetModuleParentNode(id hir.HirID) hir.HirID {
	for p := range m.ParentIter(id) {
		if !p.IsOwner() {
			continue
		}
		if it, ok := m.Get(p).(*hir.Item); ok && it.Kind == hir.ItemMod {
			return p
		}
	}
	return hir.CrateHirID
}

// LocalDefIDToHirID returns the HirID of def's owner node.
func (m Map) LocalDefIDToHirID(def hir.DefID) hir.HirID { return hir.OwnerHirID(def) }

// LocalDefID returns the definition of an owner node.
func (m Map) LocalDefID(id hir.HirID) hir.DefID {
	if !id.IsOwner() {
		bug.Bugf("local_def_id: %s is not a definition", id)
	}
	return id.Owner
}

// MaybeBodyOwnedBy returns the id of the body owned by the node at id; a
// body is identified by its owning node.
func (m Map) MaybeBodyOwnedBy(id hir.HirID) (hir.HirID, bool) {
	nodes, ok := m.q.HirOwnerNodes(id.Owner)
	if !ok {
		return hir.HirID{}, false
	}
	if _, ok := nodes.Body(id.Local); !ok {
		return hir.HirID{}, false
	}
	return id, true
}

// Body returns the body owned by the node at id.
func (m Map) Body(id hir.HirID) *hir.Body {
	if nodes, ok := m.q.HirOwnerNodes(id.Owner); ok {
		if b, ok := nodes.Body(id.Local); ok {
			return b
		}
	}
	bug.Bugf("no body owned by %s", id)
	return nil
}

// BodyParamNames returns the identifier bound by each param of the body at
// id. Params that are not a plain binding yield an empty Ident.
func (m Map) BodyParamNames(id hir.HirID) []hir.Ident {
	b := m.Body(id)
	out := make([]hir.Ident, len(b.Params))
	for i, p := range b.Params {
		if name, ok := p.Pat.BindingName(); ok {
			out[i] = name
		}
	}
	return out
}

// Attrs returns the attributes of the node at id.
func (m Map) Attrs(id hir.HirID) []hir.Attribute {
	return m.q.HirAttrs(id.Owner).Get(id.Local)
}

// OptSpan returns the span of the node at id. Owners report their head:
// the signature of functions and closures, the contents of the crate root.
func (m Map) OptSpan(id hir.HirID) (source.Span, bool) {
	n, ok := m.Find(id)
	if !ok {
		return source.DummySpan, false
	}
	return headSpan(n), true
}

func headSpan(n hir.Node) source.Span {
	pick := func(head, full source.Span) source.Span {
		if head.IsDummy() {
			return full
		}
		return head
	}
	switch n := n.(type) {
	case *hir.Item:
		switch d := n.Data.(type) {
		case hir.FnData:
			return pick(d.Sig.Span, n.Span)
		case hir.ModData:
			if n.Def == hir.CrateDefID {
				return pick(d.Inner, n.Span)
			}
		}
	case *hir.TraitItem:
		if d, ok := n.Data.(hir.TraitFnData); ok {
			return pick(d.Sig.Span, n.Span)
		}
	case *hir.ImplItem:
		if d, ok := n.Data.(hir.ImplFnData); ok {
			return pick(d.Sig.Span, n.Span)
		}
	case *hir.Closure:
		if n.Decl != nil {
			return pick(n.Decl.Span, n.Span)
		}
	}
	return n.NodeSpan()
}

// SpanIfLocal returns the head span of def's owner node.
func (m Map) SpanIfLocal(def hir.DefID) (source.Span, bool) {
	return m.OptSpan(hir.OwnerHirID(def))
}

// OptDefKind returns the kind of def, false for synthetic definitions.
func (m Map) OptDefKind(def hir.DefID) (hir.DefKind, bool) {
	return m.q.HirCrate().Defs.OptDefKind(def)
}

// Modules returns every module of the crate in DefID order.
func (m Map) Modules() []hir.DefID {
	all := m.q.HirCrateModuleItems()
	mods := make([]hir.DefID, 0, len(all))
	for def := range all {
		mods = append(mods, def)
	}
	slices.Sort(mods)
	return mods
}

// ParForEachModule runs fn once per module on at most jobs goroutines and
// returns the first error. Modules are handed out in DefID order.
func (m Map) ParForEachModule(ctx context.Context, jobs int, fn func(ctx context.Context, mod hir.DefID) error) error {
	mods := m.Modules()
	if jobs <= 0 {
		jobs = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, max(len(mods), 1)))
	for _, mod := range mods {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, mod)
		})
	}
	return g.Wait()
}
