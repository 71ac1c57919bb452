package hir

import (
	"sort"

	"fortio.org/safecast"

	"hirindex/internal/bug"
	"hirindex/internal/fingerprint"
)

// ParentedNode is a node with the LocalID of its parent in the same owner.
// The parent of LocalID 0 is meaningless and never read.
type ParentedNode struct {
	Node   Node
	Parent LocalID
}

// OwnerNodes is the indexed content of one owner.
type OwnerNodes struct {
	hash     fingerprint.Fingerprint
	nodeHash fingerprint.Fingerprint
	nodes    []ParentedNode
	bodies   []*Body
}

// NewOwnerNodes wraps indexer output. bodies is indexed by LocalID and may
// be shorter than nodes.
func NewOwnerNodes(nodes []ParentedNode, bodies []*Body, hash, nodeHash fingerprint.Fingerprint) *OwnerNodes {
	return &OwnerNodes{hash: hash, nodeHash: nodeHash, nodes: nodes, bodies: bodies}
}

// Hash covers every node, attribute and body of the owner.
func (o *OwnerNodes) Hash() fingerprint.Fingerprint { return o.hash }

// NodeHash covers the owner node only, bodies excluded.
func (o *OwnerNodes) NodeHash() fingerprint.Fingerprint { return o.nodeHash }

// StableFingerprint is the identity of o for dependency tracking.
func (o *OwnerNodes) StableFingerprint() fingerprint.Fingerprint { return o.hash }

// Len returns the number of nodes; LocalIDs are 0..Len()-1.
func (o *OwnerNodes) Len() int { return len(o.nodes) }

// Root returns the owner node.
func (o *OwnerNodes) Root() OwnerNode {
	if len(o.nodes) == 0 {
		bug.Bugf("owner nodes without a root")
	}
	root, ok := AsOwner(o.nodes[0].Node)
	if !ok {
		bug.SpanBugf(o.nodes[0].Node.NodeSpan(), "slot 0 holds a %s, not an owner", o.nodes[0].Node.NodeKind())
	}
	return root
}

// Node returns the node at id.
func (o *OwnerNodes) Node(id LocalID) (Node, bool) {
	if int(id) >= len(o.nodes) {
		return nil, false
	}
	return o.nodes[id].Node, true
}

// Parent returns the parent of the node at id. Asking for the parent of
// the owner node is a bug: owners are linked through the parenting table.
func (o *OwnerNodes) Parent(id LocalID) LocalID {
	if id == OwnerLocalID {
		bug.Bugf("parent of owner node requested")
	}
	if int(id) >= len(o.nodes) {
		bug.Bugf("parent of local %d requested, owner has %d nodes", id, len(o.nodes))
	}
	return o.nodes[id].Parent
}

// Body returns the body owned by the node at id.
func (o *OwnerNodes) Body(id LocalID) (*Body, bool) {
	if int(id) >= len(o.bodies) || o.bodies[id] == nil {
		return nil, false
	}
	return o.bodies[id], true
}

// Nodes yields every node in LocalID order.
func (o *OwnerNodes) Nodes(yield func(LocalID, ParentedNode) bool) {
	for i, pn := range o.nodes {
		id, err := safecast.Conv[LocalID](i)
		if err != nil || !yield(id, pn) {
			return
		}
	}
}

// Bodies yields every body in LocalID order of the owning node.
func (o *OwnerNodes) Bodies(yield func(LocalID, *Body) bool) {
	for i, b := range o.bodies {
		if b == nil {
			continue
		}
		id, err := safecast.Conv[LocalID](i)
		if err != nil || !yield(id, b) {
			return
		}
	}
}

// Owner is the summary of an owner: its node and NodeHash. Its identity
// is NodeHash alone, so it is unaffected by body edits.
type Owner struct {
	Node     OwnerNode
	NodeHash fingerprint.Fingerprint
}

func (o Owner) StableFingerprint() fingerprint.Fingerprint { return o.NodeHash }

// IndexedHir is the result of indexing one owner.
type IndexedHir struct {
	Nodes *OwnerNodes
	Attrs AttributeMap
	// Parenting maps each nested owner to the LocalID in this owner of the
	// node that reaches it.
	Parenting map[DefID]LocalID
	// Nested lists the nested owners in discovery order.
	Nested []OwnerNode
}

func (ix *IndexedHir) StableFingerprint() fingerprint.Fingerprint { return ix.Nodes.hash }

// AttrEntry is the attribute list of one node.
type AttrEntry struct {
	Local LocalID
	Attrs []Attribute
}

// AttributeMap maps LocalIDs to attribute lists. The zero value is empty.
type AttributeMap struct {
	entries []AttrEntry
}

// NewAttributeMap builds a map from entries, which are sorted by LocalID.
// Entries with no attributes are dropped.
func NewAttributeMap(entries []AttrEntry) AttributeMap {
	kept := make([]AttrEntry, 0, len(entries))
	for _, e := range entries {
		if len(e.Attrs) > 0 {
			kept = append(kept, e)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Local < kept[j].Local })
	return AttributeMap{entries: kept}
}

// Get returns the attributes of id, or nil.
func (m AttributeMap) Get(id LocalID) []Attribute {
	i := sort.Search(len(m.entries), func(i int) bool { return m.entries[i].Local >= id })
	if i < len(m.entries) && m.entries[i].Local == id {
		return m.entries[i].Attrs
	}
	return nil
}

// Len returns the number of nodes that carry attributes.
func (m AttributeMap) Len() int { return len(m.entries) }

// Entries returns the entries in LocalID order.
func (m AttributeMap) Entries() []AttrEntry { return m.entries }
