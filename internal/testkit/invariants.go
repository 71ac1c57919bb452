// Package testkit holds structural checks shared by tests of the indexer
// and the driver.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"hirindex/internal/hir"
)

// CheckOwnerInvariants verifies the layout of one indexed owner:
//  1. LocalID 0 holds the owner node of def
//  2. every other node's parent precedes it
//  3. bodies sit on the node that owns them
//  4. attribute entries are sorted and point at existing nodes
//  5. every nested owner is parented to an existing node
func CheckOwnerInvariants(def hir.DefID, ix *hir.IndexedHir) error {
	if ix == nil || ix.Nodes == nil {
		return fmt.Errorf("owner %d: nil index", def)
	}
	n, err := safecast.Conv[hir.LocalID](ix.Nodes.Len())
	if err != nil {
		return fmt.Errorf("owner %d: node count overflow: %w", def, err)
	}
	if n == 0 {
		return fmt.Errorf("owner %d: no nodes", def)
	}

	for id, pn := range ix.Nodes.Nodes {
		if id == hir.OwnerLocalID {
			o, ok := hir.AsOwner(pn.Node)
			if !ok || o.OwnerDef() != def {
				return fmt.Errorf("owner %d: slot 0 holds a %s", def, pn.Node.NodeKind())
			}
			continue
		}
		if pn.Parent >= id {
			return fmt.Errorf("owner %d: node %d has parent %d", def, id, pn.Parent)
		}
	}

	for id, b := range ix.Nodes.Bodies {
		node, ok := ix.Nodes.Node(id)
		if !ok {
			return fmt.Errorf("owner %d: body on missing node %d", def, id)
		}
		if hir.OwnedBody(node) != b {
			return fmt.Errorf("owner %d: body at %d is not owned by its %s", def, id, node.NodeKind())
		}
	}

	prev := -1
	for _, e := range ix.Attrs.Entries() {
		if int(e.Local) <= prev {
			return fmt.Errorf("owner %d: attribute entries out of order at %d", def, e.Local)
		}
		prev = int(e.Local)
		if e.Local >= n {
			return fmt.Errorf("owner %d: attributes on missing node %d", def, e.Local)
		}
		if len(e.Attrs) == 0 {
			return fmt.Errorf("owner %d: empty attribute entry at %d", def, e.Local)
		}
	}

	for _, o := range ix.Nested {
		local, ok := ix.Parenting[o.OwnerDef()]
		if !ok {
			return fmt.Errorf("owner %d: nested owner %d has no parent", def, o.OwnerDef())
		}
		if local >= n {
			return fmt.Errorf("owner %d: nested owner %d parented to missing node %d", def, o.OwnerDef(), local)
		}
	}
	if len(ix.Parenting) != len(ix.Nested) {
		return fmt.Errorf("owner %d: %d parenting entries for %d nested owners", def, len(ix.Parenting), len(ix.Nested))
	}
	return nil
}
