package hir

import (
	"errors"
	"fmt"
	"slices"

	"hirindex/internal/source"
)

var (
	ErrNoRoot         = errors.New("crate root must be a module item")
	ErrDuplicateOwner = errors.New("definition has more than one owner node")
	ErrUnknownDef     = errors.New("owner refers to an unknown definition")
)

// Crate is the output of lowering: the root module, every owner reachable
// from it, and the tables needed to hash them.
type Crate struct {
	Name    string
	Root    *Item
	Defs    *Definitions
	Strings *source.Interner
	Files   *source.FileSet

	owners []OwnerNode // indexed by DefID, nil for non-owners
}

// NewCrate validates the owner tree under root and builds the owner table.
func NewCrate(name string, root *Item, defs *Definitions, strs *source.Interner, files *source.FileSet) (*Crate, error) {
	if root == nil || root.Kind != ItemMod || root.Def != CrateDefID {
		return nil, ErrNoRoot
	}
	c := &Crate{
		Name:    name,
		Root:    root,
		Defs:    defs,
		Strings: strs,
		Files:   files,
		owners:  make([]OwnerNode, defs.Len()),
	}
	var err error
	var add func(o OwnerNode)
	add = func(o OwnerNode) {
		if err != nil {
			return
		}
		def := o.OwnerDef()
		if !defs.Has(def) {
			err = fmt.Errorf("%w: %d at %s", ErrUnknownDef, def, o.NodeSpan())
			return
		}
		if c.owners[def] != nil {
			err = fmt.Errorf("%w: %s", ErrDuplicateOwner, defs.DefPath(def))
			return
		}
		c.owners[def] = o
		Inspect(o, Inspector{
			Nested: func(nested OwnerNode, _ Node) { add(nested) },
		})
	}
	add(root)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Owner returns the owner node of def.
func (c *Crate) Owner(def DefID) (OwnerNode, bool) {
	if int(def) >= len(c.owners) || c.owners[def] == nil {
		return nil, false
	}
	return c.owners[def], true
}

// OwnerDefs returns every owner DefID in ascending order.
func (c *Crate) OwnerDefs() []DefID {
	out := make([]DefID, 0, len(c.owners))
	for def := range c.Defs.All {
		if int(def) < len(c.owners) && c.owners[def] != nil {
			out = append(out, def)
		}
	}
	slices.Sort(out)
	return out
}

// Text returns the string behind an identifier.
func (c *Crate) Text(id Ident) string {
	s, _ := c.Strings.Lookup(id.Name)
	return s
}

// HashingContext returns a context for this crate with the given options.
func (c *Crate) HashingContext(hashSpans bool, remap []PathRemap) *HashingContext {
	return &HashingContext{
		Defs:      c.Defs,
		Strings:   c.Strings,
		Files:     c.Files,
		HashSpans: hashSpans,
		Remap:     remap,
	}
}
