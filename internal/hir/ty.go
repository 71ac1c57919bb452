package hir

import "hirindex/internal/source"

// TyKind enumerates written type kinds.
type TyKind uint8

const (
	TyPath TyKind = iota
	TyRef
	TySlice
	TyArray
	TyTuple
	TyFnPtr
	TyNever
	// TyInfer is the `_` placeholder.
	TyInfer
)

func (k TyKind) String() string {
	switch k {
	case TyPath:
		return "Path"
	case TyRef:
		return "Ref"
	case TySlice:
		return "Slice"
	case TyArray:
		return "Array"
	case TyTuple:
		return "Tuple"
	case TyFnPtr:
		return "FnPtr"
	case TyNever:
		return "Never"
	case TyInfer:
		return "Infer"
	default:
		return "Unknown"
	}
}

// Ty is a type as written in source. Data is nil for TyNever and TyInfer.
type Ty struct {
	Kind TyKind
	Span source.Span
	Data TyData
}

// TyData is the interface for type-specific data.
type TyData interface {
	tyData()
}

type PathTyData struct {
	Path Path
}

func (PathTyData) tyData() {}

type RefTyData struct {
	Mutable bool
	Elem    *Ty
}

func (RefTyData) tyData() {}

type SliceTyData struct {
	Elem *Ty
}

func (SliceTyData) tyData() {}

// ArrayTyData holds data for TyArray. Len is a literal length.
type ArrayTyData struct {
	Elem *Ty
	Len  Lit
}

func (ArrayTyData) tyData() {}

type TupleTyData struct {
	Elems []*Ty
}

func (TupleTyData) tyData() {}

type FnPtrTyData struct {
	Decl *FnDecl
}

func (FnPtrTyData) tyData() {}

// PatKind enumerates pattern kinds.
type PatKind uint8

const (
	PatWild PatKind = iota
	// PatBinding binds a local, optionally with a `@ sub` pattern.
	PatBinding
	PatTuple
	PatTupleStruct
	PatPath
	PatLit
	PatOr
)

func (k PatKind) String() string {
	switch k {
	case PatWild:
		return "Wild"
	case PatBinding:
		return "Binding"
	case PatTuple:
		return "Tuple"
	case PatTupleStruct:
		return "TupleStruct"
	case PatPath:
		return "Path"
	case PatLit:
		return "Lit"
	case PatOr:
		return "Or"
	default:
		return "Unknown"
	}
}

// Pat is a pattern. Data is nil for PatWild.
type Pat struct {
	Kind PatKind
	Span source.Span
	Data PatData
}

// PatData is the interface for pattern-specific data.
type PatData interface {
	patData()
}

// BindingPatData holds data for PatBinding. Sub may be nil.
type BindingPatData struct {
	Name    Ident
	Mutable bool
	ByRef   bool
	Sub     *Pat
}

func (BindingPatData) patData() {}

type TuplePatData struct {
	Elems []*Pat
}

func (TuplePatData) patData() {}

type TupleStructPatData struct {
	Path  Path
	Elems []*Pat
}

func (TupleStructPatData) patData() {}

type PathPatData struct {
	Path Path
}

func (PathPatData) patData() {}

type LitPatData struct {
	Lit Lit
}

func (LitPatData) patData() {}

type OrPatData struct {
	Alts []*Pat
}

func (OrPatData) patData() {}

// BindingName returns the identifier bound by p when p is a plain binding.
func (p *Pat) BindingName() (Ident, bool) {
	if p == nil || p.Kind != PatBinding {
		return Ident{}, false
	}
	d, ok := p.Data.(BindingPatData)
	if !ok {
		return Ident{}, false
	}
	return d.Name, true
}

func (*Ty) NodeKind() NodeKind  { return NodeTy }
func (*Pat) NodeKind() NodeKind { return NodePat }

func (n *Ty) NodeSpan() source.Span  { return n.Span }
func (n *Pat) NodeSpan() source.Span { return n.Span }
