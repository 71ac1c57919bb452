package hirmap

import (
	"sort"

	"hirindex/internal/fingerprint"
	"hirindex/internal/hir"
	"hirindex/internal/query"
)

type ownerHash struct {
	path fingerprint.Fingerprint
	hash fingerprint.Fingerprint
}

// crateHash aggregates every owner hash keyed by DefPathHash, so the
// result does not depend on DefID numbering or on the order in which
// owners were indexed. Source file hashes and the crate name are mixed in.
func crateHash(q *query.Ctx) fingerprint.Fingerprint {
	c := q.HirCrate()
	hcx := q.Hashing()

	owners := make([]ownerHash, 0, c.Defs.Len())
	for _, def := range c.OwnerDefs() {
		nodes, ok := q.HirOwnerNodes(def)
		if !ok {
			continue
		}
		owners = append(owners, ownerHash{path: c.Defs.DefPathHash(def), hash: nodes.Hash()})
	}
	sort.Slice(owners, func(i, j int) bool { return owners[i].path.Compare(owners[j].path) < 0 })

	type fileHash struct {
		path string
		hash [32]byte
	}
	var files []fileHash
	if c.Files != nil {
		for _, f := range c.Files.Files() {
			files = append(files, fileHash{path: hcx.RemapPath(f.Path), hash: f.Hash})
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].path < files[j].path })

	h := fingerprint.New("hir.crate")
	h.String(c.Name)
	h.Len(len(owners))
	for _, o := range owners {
		h.Fingerprint(o.path)
		h.Fingerprint(o.hash)
	}
	h.Len(len(files))
	for _, f := range files {
		h.String(f.path)
		h.Bytes(f.hash[:])
	}
	return h.Finish()
}

// traitImpls groups the trait impls of the crate by trait. Impls keep
// traversal order; traits are sorted by DefID.
func traitImpls(c *hir.Crate) []query.TraitImpls {
	byTrait := make(map[hir.DefID][]hir.DefID)
	forEachOwner(c, func(o hir.OwnerNode) {
		it, ok := o.(*hir.Item)
		if !ok {
			return
		}
		d, ok := it.Data.(hir.ImplData)
		if !ok || d.Trait == nil || d.Trait.Res.Kind != hir.ResDef {
			return
		}
		byTrait[d.Trait.Res.Def] = append(byTrait[d.Trait.Res.Def], it.Def)
	})
	out := make([]query.TraitImpls, 0, len(byTrait))
	for trait, impls := range byTrait {
		out = append(out, query.TraitImpls{Trait: trait, Impls: impls})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Trait < out[j].Trait })
	return out
}
