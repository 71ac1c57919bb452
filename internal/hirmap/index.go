// Package hirmap indexes lowered owners and answers HIR queries over them.
//
// IndexOwner flattens one owner into hir.OwnerNodes and computes its
// fingerprints. Provide registers the providers built on top of it with a
// query.Providers registry, and Map offers navigation over a query.Ctx.
package hirmap

import (
	"fortio.org/safecast"

	"hirindex/internal/bug"
	"hirindex/internal/hir"
)

type indexer struct {
	hcx   *hir.HashingContext
	owner hir.DefID
	root  hir.OwnerNode

	nodes      []hir.ParentedNode
	bodies     []*hir.Body
	attrs      []hir.AttrEntry
	parenting  map[hir.DefID]hir.LocalID
	nested     []hir.OwnerNode
	seen       map[hir.Node]hir.LocalID
	seenBodies map[*hir.Body]hir.LocalID
}

// IndexOwner numbers the nodes of the owner rooted at root, which must be
// the owner node of def. Nested owners are recorded in the parenting table
// but not indexed; see IndexTree.
//
// Malformed trees are lowering bugs and raise an ICE naming the owner and
// the offending LocalID.
func IndexOwner(hcx *hir.HashingContext, def hir.DefID, root hir.OwnerNode) *hir.IndexedHir {
	if root == nil {
		bug.Bugf("index %s: no owner node", hcx.Defs.DefPath(def))
	}
	if root.OwnerDef() != def {
		bug.SpanBugf(root.NodeSpan(), "index %s: root node belongs to %s",
			hcx.Defs.DefPath(def), hcx.Defs.DefPath(root.OwnerDef()))
	}
	ix := &indexer{
		hcx:        hcx,
		owner:      def,
		root:       root,
		parenting:  make(map[hir.DefID]hir.LocalID),
		seen:       make(map[hir.Node]hir.LocalID),
		seenBodies: make(map[*hir.Body]hir.LocalID),
	}
	ix.visit(root, hir.OwnerLocalID)

	attrs := hir.NewAttributeMap(ix.attrs)
	nodeHash := hcx.NodeHash(root)
	hash := hcx.OwnerHash(nodeHash, ix.nodes, ix.bodies, attrs)
	return &hir.IndexedHir{
		Nodes:     hir.NewOwnerNodes(ix.nodes, ix.bodies, hash, nodeHash),
		Attrs:     attrs,
		Parenting: ix.parenting,
		Nested:    ix.nested,
	}
}

// IndexTree indexes the owner rooted at root and, recursively, every
// nested owner discovered under it.
func IndexTree(hcx *hir.HashingContext, root hir.OwnerNode) map[hir.DefID]*hir.IndexedHir {
	out := make(map[hir.DefID]*hir.IndexedHir)
	var rec func(o hir.OwnerNode)
	rec = func(o hir.OwnerNode) {
		ix := IndexOwner(hcx, o.OwnerDef(), o)
		out[o.OwnerDef()] = ix
		for _, n := range ix.Nested {
			rec(n)
		}
	}
	rec(root)
	return out
}

func (ix *indexer) path() string { return ix.hcx.Defs.DefPath(ix.owner) }

func (ix *indexer) visit(n hir.Node, parent hir.LocalID) {
	id, err := safecast.Conv[hir.LocalID](len(ix.nodes))
	if err != nil {
		bug.SpanBugf(n.NodeSpan(), "index %s: too many nodes (%d)", ix.path(), len(ix.nodes))
	}
	if prev, dup := ix.seen[n]; dup {
		bug.SpanBugf(n.NodeSpan(), "index %s: %s reached twice, as local %d and %d",
			ix.path(), n.NodeKind(), prev, id)
	}
	if id != hir.OwnerLocalID {
		if _, ok := hir.AsOwner(n); ok {
			bug.SpanBugf(n.NodeSpan(), "index %s: owner node %s numbered as local %d",
				ix.path(), n.NodeKind(), id)
		}
	}
	ix.seen[n] = id
	ix.nodes = append(ix.nodes, hir.ParentedNode{Node: n, Parent: parent})
	if attrs := hir.NodeAttrs(n); len(attrs) > 0 {
		ix.attrs = append(ix.attrs, hir.AttrEntry{Local: id, Attrs: attrs})
	}

	v := childVisitor{ix: ix, at: n, id: id}
	hir.WalkChildren(n, v)
	if b := hir.OwnedBody(n); b != nil {
		if prev, dup := ix.seenBodies[b]; dup {
			bug.SpanBugf(n.NodeSpan(), "index %s: body of local %d is also owned by local %d",
				ix.path(), id, prev)
		}
		ix.seenBodies[b] = id
		for len(ix.bodies) <= int(id) {
			ix.bodies = append(ix.bodies, nil)
		}
		ix.bodies[id] = b
		hir.WalkBody(b, v)
	}
}

type childVisitor struct {
	ix *indexer
	at hir.Node
	id hir.LocalID
}

func (v childVisitor) Child(n hir.Node) { v.ix.visit(n, v.id) }

func (v childVisitor) Nested(o hir.OwnerNode) {
	ix := v.ix
	def := o.OwnerDef()
	parent, ok := ix.hcx.Defs.Parent(def)
	if !ok || parent != ix.owner {
		bug.SpanBugf(o.NodeSpan(), "index %s: nested owner %s at local %d has def parent %s",
			ix.path(), ix.hcx.Defs.DefPath(def), v.id, ix.hcx.Defs.DefPath(parent))
	}
	if prev, dup := ix.parenting[def]; dup {
		bug.SpanBugf(o.NodeSpan(), "index %s: nested owner %s attached at locals %d and %d",
			ix.path(), ix.hcx.Defs.DefPath(def), prev, v.id)
	}
	ix.parenting[def] = v.id
	ix.nested = append(ix.nested, o)
}

func (v childVisitor) Missing(what string) {
	bug.SpanBugf(v.at.NodeSpan(), "index %s: local %d (%s) has no %s",
		v.ix.path(), v.id, v.at.NodeKind(), what)
}
