package hir

import (
	"fmt"
	"io"
	"slices"
	"strings"
)

// Printer dumps indexed owners to text.
type Printer struct {
	w     io.Writer
	crate *Crate
	err   error
}

// NewPrinter creates a printer resolving names through c.
func NewPrinter(w io.Writer, c *Crate) *Printer {
	return &Printer{w: w, crate: c}
}

func (p *Printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

// PrintOwner writes the node table, bodies, attributes and parenting of
// one indexed owner.
func (p *Printer) PrintOwner(def DefID, ix *IndexedHir) error {
	kind, _ := p.crate.Defs.OptDefKind(def)
	p.printf("owner %s (%s)\n", p.crate.Defs.DefPath(def), kind)
	p.printf("  hash      %s\n", ix.Nodes.Hash().Short())
	p.printf("  node_hash %s\n", ix.Nodes.NodeHash().Short())
	for id, pn := range ix.Nodes.Nodes {
		parent := "-"
		if id != OwnerLocalID {
			parent = fmt.Sprintf("%d", pn.Parent)
		}
		p.printf("  %3d ^%-3s %s\n", id, parent, p.Label(pn.Node))
	}
	for id, b := range ix.Nodes.Bodies {
		p.printf("  body @%d params=%d\n", id, len(b.Params))
	}
	for _, e := range ix.Attrs.Entries() {
		names := make([]string, 0, len(e.Attrs))
		for _, a := range e.Attrs {
			names = append(names, p.Attr(a))
		}
		p.printf("  attrs @%d %s\n", e.Local, strings.Join(names, " "))
	}
	nested := make([]DefID, 0, len(ix.Parenting))
	for d := range ix.Parenting {
		nested = append(nested, d)
	}
	slices.Sort(nested)
	for _, d := range nested {
		p.printf("  nested %s @%d\n", p.crate.Defs.DefPath(d), ix.Parenting[d])
	}
	return p.err
}

// Attr renders a as written in source, e.g. "#[inline]".
func (p *Printer) Attr(a Attribute) string {
	s := "#"
	if a.Style == AttrInner {
		s += "!"
	}
	s += "[" + p.crate.Text(a.Name)
	if a.Args != "" {
		s += "(" + a.Args + ")"
	}
	return s + "]"
}

func (p *Printer) path(pa Path) string {
	segs := make([]string, len(pa.Segments))
	for i, s := range pa.Segments {
		segs[i] = p.crate.Text(s)
	}
	return strings.Join(segs, "::")
}

func (p *Printer) quoted(id Ident) string {
	if id.IsEmpty() {
		return "_"
	}
	return fmt.Sprintf("%q", p.crate.Text(id))
}

// Label returns a one-line description of n.
func (p *Printer) Label(n Node) string {
	switch n := n.(type) {
	case *Item:
		return fmt.Sprintf("Item %s %s", n.Kind, p.quoted(n.Ident))
	case *TraitItem:
		return fmt.Sprintf("TraitItem %s %s", n.Kind, p.quoted(n.Ident))
	case *ImplItem:
		return fmt.Sprintf("ImplItem %s %s", n.Kind, p.quoted(n.Ident))
	case *ForeignItem:
		return fmt.Sprintf("ForeignItem %s %s", n.Kind, p.quoted(n.Ident))
	case *Closure:
		return fmt.Sprintf("Closure %s", p.crate.Defs.DefPath(n.Def))
	case *GenericParam:
		return fmt.Sprintf("GenericParam %s", p.quoted(n.Name))
	case *FieldDef:
		return fmt.Sprintf("FieldDef %s", p.quoted(n.Ident))
	case *Variant:
		return fmt.Sprintf("Variant %s", p.quoted(n.Ident))
	case *Ty:
		if d, ok := n.Data.(PathTyData); ok {
			return fmt.Sprintf("Ty Path %s", p.path(d.Path))
		}
		return "Ty " + n.Kind.String()
	case *Pat:
		if name, ok := n.BindingName(); ok {
			return fmt.Sprintf("Pat Binding %s", p.quoted(name))
		}
		return "Pat " + n.Kind.String()
	case *Expr:
		switch d := n.Data.(type) {
		case LitData:
			return fmt.Sprintf("Expr Lit %s", d.Lit.Text)
		case PathData:
			return fmt.Sprintf("Expr Path %s", p.path(d.Path))
		case BinaryData:
			return fmt.Sprintf("Expr Binary %s", d.Op)
		case UnaryData:
			return fmt.Sprintf("Expr Unary %s", d.Op)
		case MethodCallData:
			return fmt.Sprintf("Expr MethodCall %s", p.quoted(d.Method))
		case FieldData:
			return fmt.Sprintf("Expr Field %s", p.quoted(d.Name))
		}
		return "Expr " + n.Kind.String()
	case *Stmt:
		return "Stmt " + n.Kind.String()
	default:
		return n.NodeKind().String()
	}
}
