// Package hir holds the indexed high-level IR of a crate.
//
// Lowering produces one tree per owner: a definition that roots its own
// subtree (an item, a trait, impl or foreign item, or a closure). The tree is
// plain pointers with no node ids. Indexing an owner flattens its tree into
// OwnerNodes, assigning dense LocalIDs in the order documented in walk.go,
// and computes two fingerprints: Hash over everything the owner contains and
// NodeHash over the owner node alone with bodies left out.
//
// Nodes are addressed by HirID, a pair of the owning DefID and a LocalID.
// LocalID 0 is always the owner node itself.
package hir

import "fmt"

// DefID identifies a definition within the crate.
type DefID uint32

// CrateDefID is the root module of the crate.
const CrateDefID DefID = 0

// LocalID indexes a node within its owner. Zero is the owner node.
type LocalID uint32

// OwnerLocalID is the LocalID of every owner's own node.
const OwnerLocalID LocalID = 0

// ExpnID identifies the macro expansion that produced a definition.
type ExpnID uint32

// RootExpn is the expansion of code written directly in source.
const RootExpn ExpnID = 0

// HirID addresses a single node: the owner it belongs to and its position
// inside that owner.
type HirID struct {
	Owner DefID
	Local LocalID
}

// CrateHirID is the node of the crate root module.
var CrateHirID = HirID{Owner: CrateDefID, Local: OwnerLocalID}

// OwnerHirID returns the HirID of def's own node.
func OwnerHirID(def DefID) HirID {
	return HirID{Owner: def, Local: OwnerLocalID}
}

// IsOwner reports whether id denotes an owner node.
func (id HirID) IsOwner() bool { return id.Local == OwnerLocalID }

func (id HirID) String() string {
	return fmt.Sprintf("%d.%d", id.Owner, id.Local)
}

func (id DefID) String() string {
	return fmt.Sprintf("DefID(%d)", uint32(id))
}
