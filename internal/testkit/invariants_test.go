package testkit

import (
	"strings"
	"testing"

	"hirindex/internal/fingerprint"
	"hirindex/internal/hir"
)

func indexed(nodes []hir.ParentedNode, attrs []hir.AttrEntry) *hir.IndexedHir {
	return &hir.IndexedHir{
		Nodes:     hir.NewOwnerNodes(nodes, nil, fingerprint.Fingerprint{}, fingerprint.Fingerprint{}),
		Attrs:     hir.NewAttributeMap(attrs),
		Parenting: map[hir.DefID]hir.LocalID{},
	}
}

func TestCheckOwnerInvariants(t *testing.T) {
	root := &hir.Item{Def: 3}
	lit := &hir.Expr{}
	inline := []hir.Attribute{{}}

	tests := []struct {
		name    string
		def     hir.DefID
		ix      *hir.IndexedHir
		wantErr string
	}{
		{"valid", 3, indexed([]hir.ParentedNode{{Node: root}, {Node: lit, Parent: 0}}, []hir.AttrEntry{{Local: 1, Attrs: inline}}), ""},
		{"nil index", 3, nil, "nil index"},
		{"wrong owner", 4, indexed([]hir.ParentedNode{{Node: root}}, nil), "slot 0"},
		{"non-owner at slot 0", 3, indexed([]hir.ParentedNode{{Node: lit}}, nil), "slot 0"},
		{"forward parent", 3, indexed([]hir.ParentedNode{{Node: root}, {Node: lit, Parent: 1}}, nil), "has parent"},
		{"attrs on missing node", 3, indexed([]hir.ParentedNode{{Node: root}}, []hir.AttrEntry{{Local: 5, Attrs: inline}}), "missing node"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckOwnerInvariants(tt.def, tt.ix)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestCheckOwnerInvariantsNestedOwners(t *testing.T) {
	root := &hir.Item{Def: 1}
	child := &hir.Item{Def: 2}
	ix := indexed([]hir.ParentedNode{{Node: root}}, nil)
	ix.Nested = []hir.OwnerNode{child}
	if err := CheckOwnerInvariants(1, ix); err == nil {
		t.Fatal("nested owner without a parenting entry accepted")
	}
	ix.Parenting[2] = 0
	if err := CheckOwnerInvariants(1, ix); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
