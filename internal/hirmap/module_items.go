package hirmap

import "hirindex/internal/hir"

// CollectModuleItems partitions the crate by module in one traversal from
// the root. Every item lands in the Items of its closest enclosing module;
// module items are also listed in Submodules and partitioned on their own.
// All other owners are walked into, bodies included, so items declared in
// function bodies, closures and trait or impl members are found too.
func CollectModuleItems(c *hir.Crate) map[hir.DefID]*hir.ModuleItems {
	out := make(map[hir.DefID]*hir.ModuleItems)
	var collect func(mod *hir.Item)
	collect = func(mod *hir.Item) {
		mi := &hir.ModuleItems{}
		out[mod.Def] = mi

		var walk func(o hir.OwnerNode)
		classify := func(o hir.OwnerNode) {
			switch o := o.(type) {
			case *hir.Item:
				mi.Items = append(mi.Items, o.Def)
				if o.Kind == hir.ItemMod {
					mi.Submodules = append(mi.Submodules, o.Def)
					collect(o)
					return
				}
			case *hir.TraitItem:
				mi.TraitItems = append(mi.TraitItems, o.Def)
			case *hir.ImplItem:
				mi.ImplItems = append(mi.ImplItems, o.Def)
			case *hir.ForeignItem:
				mi.ForeignItems = append(mi.ForeignItems, o.Def)
			}
			walk(o)
		}
		walk = func(o hir.OwnerNode) {
			hir.Inspect(o, hir.Inspector{
				Nested: func(n hir.OwnerNode, _ hir.Node) { classify(n) },
			})
		}
		walk(mod)
	}
	collect(c.Root)
	return out
}

// forEachOwner calls fn for every owner of the crate in pre-order.
func forEachOwner(c *hir.Crate, fn func(o hir.OwnerNode)) {
	var rec func(o hir.OwnerNode)
	rec = func(o hir.OwnerNode) {
		fn(o)
		hir.Inspect(o, hir.Inspector{
			Nested: func(n hir.OwnerNode, _ hir.Node) { rec(n) },
		})
	}
	rec(c.Root)
}
