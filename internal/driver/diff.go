package driver

import (
	"cmp"
	"slices"
	"strings"
)

// ChangeKind classifies one owner in a Diff.
type ChangeKind uint8

const (
	Added ChangeKind = iota + 1
	Removed
	// Changed owners kept their signature; only bodies or attributes moved.
	Changed
	// SignatureChanged owners have a different node hash.
	SignatureChanged
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Changed:
		return "changed"
	case SignatureChanged:
		return "signature"
	default:
		return "unknown"
	}
}

// Change is one owner that differs between two snapshots.
type Change struct {
	Path string
	Kind ChangeKind
}

// DiffReport lists the differences between two snapshots, sorted by path.
type DiffReport struct {
	Changes    []Change
	Unchanged  int
	CrateMoved bool
	// Incomparable is set when the snapshots were hashed with different
	// span settings; every owner then shows up as changed.
	Incomparable bool
}

// Count returns the number of changes of kind k.
func (r DiffReport) Count(k ChangeKind) int {
	n := 0
	for _, c := range r.Changes {
		if c.Kind == k {
			n++
		}
	}
	return n
}

// Empty reports whether nothing changed.
func (r DiffReport) Empty() bool { return len(r.Changes) == 0 && !r.CrateMoved }

// Diff compares prev against cur. A nil prev reports every owner as added.
func Diff(prev, cur *Snapshot) DiffReport {
	var rep DiffReport
	old := make(map[string]OwnerRecord)
	if prev != nil {
		for _, o := range prev.Owners {
			old[o.Path] = o
		}
		rep.CrateMoved = prev.CrateHash != cur.CrateHash
		rep.Incomparable = prev.HashSpans != cur.HashSpans
	} else {
		rep.CrateMoved = true
	}

	for _, o := range cur.Owners {
		p, ok := old[o.Path]
		delete(old, o.Path)
		switch {
		case !ok:
			rep.Changes = append(rep.Changes, Change{Path: o.Path, Kind: Added})
		case p.NodeHash != o.NodeHash || p.Kind != o.Kind:
			rep.Changes = append(rep.Changes, Change{Path: o.Path, Kind: SignatureChanged})
		case p.Hash != o.Hash:
			rep.Changes = append(rep.Changes, Change{Path: o.Path, Kind: Changed})
		default:
			rep.Unchanged++
		}
	}
	for path := range old {
		rep.Changes = append(rep.Changes, Change{Path: path, Kind: Removed})
	}
	slices.SortFunc(rep.Changes, func(a, b Change) int {
		return cmp.Or(strings.Compare(a.Path, b.Path), cmp.Compare(a.Kind, b.Kind))
	})
	return rep
}
