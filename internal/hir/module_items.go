package hir

// ModuleItems lists the definitions inside one module in traversal order,
// including items nested in bodies. Items holds every item; Submodules
// repeats the module items among them.
type ModuleItems struct {
	Submodules   []DefID
	Items        []DefID
	TraitItems   []DefID
	ImplItems    []DefID
	ForeignItems []DefID
}

// Empty reports whether the module contains nothing.
func (m *ModuleItems) Empty() bool {
	return m == nil || len(m.Items)+len(m.TraitItems)+len(m.ImplItems)+len(m.ForeignItems) == 0
}

// All returns every definition in the module: items, then trait, impl and
// foreign items.
func (m *ModuleItems) All() []DefID {
	if m == nil {
		return nil
	}
	out := make([]DefID, 0, len(m.Items)+len(m.TraitItems)+len(m.ImplItems)+len(m.ForeignItems))
	out = append(out, m.Items...)
	out = append(out, m.TraitItems...)
	out = append(out, m.ImplItems...)
	out = append(out, m.ForeignItems...)
	return out
}
