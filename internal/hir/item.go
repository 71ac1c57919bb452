package hir

import "hirindex/internal/source"

// ItemKind enumerates item kinds.
type ItemKind uint8

const (
	// ItemMod is a module; the crate root is one.
	ItemMod ItemKind = iota
	ItemFn
	ItemConst
	ItemStatic
	ItemStruct
	ItemEnum
	ItemTrait
	ItemImpl
	ItemTyAlias
	// ItemForeignMod is an `extern "ABI" { ... }` block.
	ItemForeignMod
	ItemUse
)

func (k ItemKind) String() string {
	switch k {
	case ItemMod:
		return "Mod"
	case ItemFn:
		return "Fn"
	case ItemConst:
		return "Const"
	case ItemStatic:
		return "Static"
	case ItemStruct:
		return "Struct"
	case ItemEnum:
		return "Enum"
	case ItemTrait:
		return "Trait"
	case ItemImpl:
		return "Impl"
	case ItemTyAlias:
		return "TyAlias"
	case ItemForeignMod:
		return "ForeignMod"
	case ItemUse:
		return "Use"
	default:
		return "Unknown"
	}
}

// Item is an owner defined at module level or inside a block.
type Item struct {
	Def   DefID
	Ident Ident
	Kind  ItemKind
	Span  source.Span
	Attrs []Attribute
	Data  ItemData // Kind-specific payload
}

// ItemData is the interface for item-specific data.
type ItemData interface {
	itemData()
}

// ModData holds data for ItemMod.
type ModData struct {
	Items []*Item
	Inner source.Span // span of the module contents
}

func (ModData) itemData() {}

// FnData holds data for ItemFn.
type FnData struct {
	Sig      FnSig
	Generics *Generics
	Body     *Body
}

func (FnData) itemData() {}

// ConstData holds data for ItemConst. Body is the initializer.
type ConstData struct {
	Ty   *Ty
	Body *Body
}

func (ConstData) itemData() {}

// StaticData holds data for ItemStatic.
type StaticData struct {
	Ty      *Ty
	Mutable bool
	Body    *Body
}

func (StaticData) itemData() {}

// StructData holds data for ItemStruct.
type StructData struct {
	Generics *Generics
	Fields   []*FieldDef
	Tuple    bool
}

func (StructData) itemData() {}

// EnumData holds data for ItemEnum.
type EnumData struct {
	Generics *Generics
	Variants []*Variant
}

func (EnumData) itemData() {}

// TraitData holds data for ItemTrait.
type TraitData struct {
	Generics *Generics
	Unsafe   bool
	Bounds   []Path
	Items    []*TraitItem
}

func (TraitData) itemData() {}

// ImplData holds data for ItemImpl. Trait is nil for inherent impls.
type ImplData struct {
	Generics *Generics
	Trait    *Path
	SelfTy   *Ty
	Items    []*ImplItem
}

func (ImplData) itemData() {}

// TyAliasData holds data for ItemTyAlias.
type TyAliasData struct {
	Generics *Generics
	Ty       *Ty
}

func (TyAliasData) itemData() {}

// ForeignModData holds data for ItemForeignMod.
type ForeignModData struct {
	ABI   string
	Items []*ForeignItem
}

func (ForeignModData) itemData() {}

// UseData holds data for ItemUse.
type UseData struct {
	Path Path
	Glob bool
}

func (UseData) itemData() {}

// FnHeader holds the qualifiers of a function signature.
type FnHeader struct {
	Unsafe bool
	Async  bool
	Const  bool
	ABI    string
}

// FnSig is a function signature. Decl is a node; the header is not.
type FnSig struct {
	Header FnHeader
	Decl   *FnDecl
	Span   source.Span
}

// FnDecl lists the parameter and return types. Output is nil for unit.
type FnDecl struct {
	Inputs   []*Ty
	Output   *Ty
	Variadic bool
	Span     source.Span
}

// GenericParamKind enumerates generic parameter kinds.
type GenericParamKind uint8

const (
	GenericLifetime GenericParamKind = iota
	GenericType
	GenericConst
)

// Generics is the generic parameter list of an item.
type Generics struct {
	Params []*GenericParam
	Span   source.Span
}

// GenericParam is one generic parameter. Ty is the type of a const param.
type GenericParam struct {
	Name    Ident
	Kind    GenericParamKind
	Bounds  []Path
	Ty      *Ty
	Default *Ty
	Span    source.Span
	Attrs   []Attribute
}

// FieldDef is a struct or variant field. Tuple fields have an empty Ident.
type FieldDef struct {
	Ident  Ident
	Ty     *Ty
	Public bool
	Span   source.Span
	Attrs  []Attribute
}

// Variant is an enum variant.
type Variant struct {
	Ident  Ident
	Fields []*FieldDef
	Span   source.Span
	Attrs  []Attribute
}

// TraitItemKind enumerates trait item kinds.
type TraitItemKind uint8

const (
	TraitItemConst TraitItemKind = iota
	TraitItemFn
	TraitItemType
)

func (k TraitItemKind) String() string {
	switch k {
	case TraitItemConst:
		return "Const"
	case TraitItemFn:
		return "Fn"
	case TraitItemType:
		return "Type"
	default:
		return "Unknown"
	}
}

// TraitItem is an owner declared inside a trait.
type TraitItem struct {
	Def      DefID
	Ident    Ident
	Kind     TraitItemKind
	Generics *Generics
	Span     source.Span
	Attrs    []Attribute
	Data     TraitItemData
}

// TraitItemData is the interface for trait-item-specific data.
type TraitItemData interface {
	traitItemData()
}

// TraitConstData holds data for TraitItemConst. Default may be nil.
type TraitConstData struct {
	Ty      *Ty
	Default *Body
}

func (TraitConstData) traitItemData() {}

// TraitFnData holds data for TraitItemFn. A required method has no Body and
// lists its parameter names in ParamNames; a provided method has a Body.
type TraitFnData struct {
	Sig        FnSig
	ParamNames []Ident
	Body       *Body
}

func (TraitFnData) traitItemData() {}

// IsRequired reports whether the method has no default body.
func (d TraitFnData) IsRequired() bool { return d.Body == nil }

// TraitTypeData holds data for TraitItemType.
type TraitTypeData struct {
	Bounds  []Path
	Default *Ty
}

func (TraitTypeData) traitItemData() {}

// ImplItemKind enumerates impl item kinds.
type ImplItemKind uint8

const (
	ImplItemConst ImplItemKind = iota
	ImplItemFn
	ImplItemType
)

func (k ImplItemKind) String() string {
	switch k {
	case ImplItemConst:
		return "Const"
	case ImplItemFn:
		return "Fn"
	case ImplItemType:
		return "Type"
	default:
		return "Unknown"
	}
}

// ImplItem is an owner declared inside an impl block.
type ImplItem struct {
	Def      DefID
	Ident    Ident
	Kind     ImplItemKind
	Generics *Generics
	Span     source.Span
	Attrs    []Attribute
	Data     ImplItemData
}

// ImplItemData is the interface for impl-item-specific data.
type ImplItemData interface {
	implItemData()
}

// ImplConstData holds data for ImplItemConst.
type ImplConstData struct {
	Ty   *Ty
	Body *Body
}

func (ImplConstData) implItemData() {}

// ImplFnData holds data for ImplItemFn.
type ImplFnData struct {
	Sig  FnSig
	Body *Body
}

func (ImplFnData) implItemData() {}

// ImplTypeData holds data for ImplItemType.
type ImplTypeData struct {
	Ty *Ty
}

func (ImplTypeData) implItemData() {}

// ForeignItemKind enumerates foreign item kinds.
type ForeignItemKind uint8

const (
	ForeignItemFn ForeignItemKind = iota
	ForeignItemStatic
	ForeignItemType
)

func (k ForeignItemKind) String() string {
	switch k {
	case ForeignItemFn:
		return "Fn"
	case ForeignItemStatic:
		return "Static"
	case ForeignItemType:
		return "Type"
	default:
		return "Unknown"
	}
}

// ForeignItem is an owner declared inside an extern block.
// Data is nil for ForeignItemType.
type ForeignItem struct {
	Def   DefID
	Ident Ident
	Kind  ForeignItemKind
	Span  source.Span
	Attrs []Attribute
	Data  ForeignItemData
}

// ForeignItemData is the interface for foreign-item-specific data.
type ForeignItemData interface {
	foreignItemData()
}

// ForeignFnData holds data for ForeignItemFn.
type ForeignFnData struct {
	Decl       *FnDecl
	ParamNames []Ident
	Generics   *Generics
}

func (ForeignFnData) foreignItemData() {}

// ForeignStaticData holds data for ForeignItemStatic.
type ForeignStaticData struct {
	Ty      *Ty
	Mutable bool
}

func (ForeignStaticData) foreignItemData() {}

// Closure is an owner introduced by a closure expression.
type Closure struct {
	Def  DefID
	Move bool
	Decl *FnDecl
	Body *Body
	Span source.Span
}

// Body is the executable content of a function, closure or initializer.
// It is stored in the owner's body sidecar, keyed by the LocalID of the
// node that owns it.
type Body struct {
	Params []*Param
	Value  *Expr
}

// Param is a body parameter pattern.
type Param struct {
	Pat   *Pat
	Span  source.Span
	Attrs []Attribute
}

func (*Item) NodeKind() NodeKind         { return NodeItem }
func (*TraitItem) NodeKind() NodeKind    { return NodeTraitItem }
func (*ImplItem) NodeKind() NodeKind     { return NodeImplItem }
func (*ForeignItem) NodeKind() NodeKind  { return NodeForeignItem }
func (*Closure) NodeKind() NodeKind      { return NodeClosure }
func (*FnDecl) NodeKind() NodeKind       { return NodeFnDecl }
func (*Generics) NodeKind() NodeKind     { return NodeGenerics }
func (*GenericParam) NodeKind() NodeKind { return NodeGenericParam }
func (*FieldDef) NodeKind() NodeKind     { return NodeFieldDef }
func (*Variant) NodeKind() NodeKind      { return NodeVariant }
func (*Param) NodeKind() NodeKind        { return NodeParam }

func (n *Item) NodeSpan() source.Span         { return n.Span }
func (n *TraitItem) NodeSpan() source.Span    { return n.Span }
func (n *ImplItem) NodeSpan() source.Span     { return n.Span }
func (n *ForeignItem) NodeSpan() source.Span  { return n.Span }
func (n *Closure) NodeSpan() source.Span      { return n.Span }
func (n *FnDecl) NodeSpan() source.Span       { return n.Span }
func (n *Generics) NodeSpan() source.Span     { return n.Span }
func (n *GenericParam) NodeSpan() source.Span { return n.Span }
func (n *FieldDef) NodeSpan() source.Span     { return n.Span }
func (n *Variant) NodeSpan() source.Span      { return n.Span }
func (n *Param) NodeSpan() source.Span        { return n.Span }

func (n *Item) OwnerDef() DefID        { return n.Def }
func (n *TraitItem) OwnerDef() DefID   { return n.Def }
func (n *ImplItem) OwnerDef() DefID    { return n.Def }
func (n *ForeignItem) OwnerDef() DefID { return n.Def }
func (n *Closure) OwnerDef() DefID     { return n.Def }

func (n *Item) OwnerIdent() Ident        { return n.Ident }
func (n *TraitItem) OwnerIdent() Ident   { return n.Ident }
func (n *ImplItem) OwnerIdent() Ident    { return n.Ident }
func (n *ForeignItem) OwnerIdent() Ident { return n.Ident }
func (n *Closure) OwnerIdent() Ident     { return Ident{Span: n.Span} }

func (n *Item) NodeAttrs() []Attribute         { return n.Attrs }
func (n *TraitItem) NodeAttrs() []Attribute    { return n.Attrs }
func (n *ImplItem) NodeAttrs() []Attribute     { return n.Attrs }
func (n *ForeignItem) NodeAttrs() []Attribute  { return n.Attrs }
func (n *GenericParam) NodeAttrs() []Attribute { return n.Attrs }
func (n *FieldDef) NodeAttrs() []Attribute     { return n.Attrs }
func (n *Variant) NodeAttrs() []Attribute      { return n.Attrs }
func (n *Param) NodeAttrs() []Attribute        { return n.Attrs }
