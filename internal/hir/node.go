package hir

import "hirindex/internal/source"

// NodeKind enumerates the node types that receive a LocalID.
type NodeKind uint8

const (
	NodeItem NodeKind = iota
	NodeTraitItem
	NodeImplItem
	NodeForeignItem
	NodeClosure
	NodeFnDecl
	NodeGenerics
	NodeGenericParam
	NodeFieldDef
	NodeVariant
	NodeTy
	NodeParam
	NodePat
	NodeExpr
	NodeArm
	NodeBlock
	NodeStmt
	NodeLocal
)

var nodeKindNames = [...]string{
	NodeItem:         "Item",
	NodeTraitItem:    "TraitItem",
	NodeImplItem:     "ImplItem",
	NodeForeignItem:  "ForeignItem",
	NodeClosure:      "Closure",
	NodeFnDecl:       "FnDecl",
	NodeGenerics:     "Generics",
	NodeGenericParam: "GenericParam",
	NodeFieldDef:     "FieldDef",
	NodeVariant:      "Variant",
	NodeTy:           "Ty",
	NodeParam:        "Param",
	NodePat:          "Pat",
	NodeExpr:         "Expr",
	NodeArm:          "Arm",
	NodeBlock:        "Block",
	NodeStmt:         "Stmt",
	NodeLocal:        "Local",
}

func (k NodeKind) String() string {
	if int(k) < len(nodeKindNames) {
		return nodeKindNames[k]
	}
	return "Unknown"
}

// IsOwner reports whether nodes of this kind root their own owner.
func (k NodeKind) IsOwner() bool { return k <= NodeClosure }

// Node is any HIR node that gets a LocalID.
type Node interface {
	NodeKind() NodeKind
	NodeSpan() source.Span
	hashStable(s *StableHasher)
}

// OwnerNode is a node that roots an owner.
type OwnerNode interface {
	Node
	OwnerDef() DefID
	OwnerIdent() Ident
}

// AsOwner returns n as an OwnerNode when it roots an owner.
func AsOwner(n Node) (OwnerNode, bool) {
	if n == nil || !n.NodeKind().IsOwner() {
		return nil, false
	}
	o, ok := n.(OwnerNode)
	return o, ok
}

// attrCarrier is implemented by nodes that can carry attributes.
type attrCarrier interface {
	NodeAttrs() []Attribute
}

// NodeAttrs returns the attributes lowering attached to n.
func NodeAttrs(n Node) []Attribute {
	if c, ok := n.(attrCarrier); ok {
		return c.NodeAttrs()
	}
	return nil
}

// Ident is an interned identifier with its span.
// The empty Ident has Name == source.NoStringID.
type Ident struct {
	Name source.StringID
	Span source.Span
}

func (id Ident) IsEmpty() bool { return id.Name == source.NoStringID }

// ResKind says what a path resolved to.
type ResKind uint8

const (
	ResErr ResKind = iota
	ResDef
	ResLocal
	ResPrim
)

// Res is the resolution of a path. Def is meaningful only for ResDef.
type Res struct {
	Kind ResKind
	Def  DefID
}

// Path is a resolved path such as `shapes::Circle`.
type Path struct {
	Segments []Ident
	Res      Res
	Span     source.Span
}

// AttrStyle distinguishes `#[a]` from `#![a]`.
type AttrStyle uint8

const (
	AttrOuter AttrStyle = iota
	AttrInner
)

// Attribute is a lowered attribute. Args holds the raw argument text.
type Attribute struct {
	Name  Ident
	Args  string
	Style AttrStyle
	Span  source.Span
}

// LitKind enumerates literal kinds.
type LitKind uint8

const (
	LitInt LitKind = iota
	LitFloat
	LitBool
	LitStr
	LitChar
)

func (k LitKind) String() string {
	switch k {
	case LitInt:
		return "int"
	case LitFloat:
		return "float"
	case LitBool:
		return "bool"
	case LitStr:
		return "str"
	case LitChar:
		return "char"
	default:
		return "unknown"
	}
}

// Lit is a literal value kept as source text.
type Lit struct {
	Kind LitKind
	Text string
	Span source.Span
}
