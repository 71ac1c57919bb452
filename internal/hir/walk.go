package hir

// LocalID order
//
// Indexing numbers the nodes of an owner in one pre-order walk:
//
//   - a node is numbered before any of its children;
//   - the children of a node are visited in the declaration order of the
//     fields of its type, slices element by element;
//   - a node that owns a body visits its own children first, then the body
//     params in order, then the body value. Body params and the value are
//     children of the owning node;
//   - nested owners (module items, trait, impl and foreign items, items
//     declared in blocks, closures) are not numbered in the enclosing owner.
//     The node that reaches them is their attachment point.
//
// Changing this order changes every fingerprint.

// ChildVisitor receives the direct children of a node from WalkChildren
// and WalkBody.
type ChildVisitor interface {
	// Child is called for each child node in LocalID order.
	Child(n Node)
	// Nested is called for each nested owner reached from the node.
	Nested(o OwnerNode)
	// Missing is called when a required child is nil.
	Missing(what string)
}

type walker struct {
	v ChildVisitor
}

func (w walker) ty(t *Ty) {
	if t != nil {
		w.v.Child(t)
	}
}

func (w walker) reqTy(t *Ty, what string) {
	if t == nil {
		w.v.Missing(what)
		return
	}
	w.v.Child(t)
}

func (w walker) pat(p *Pat, what string) {
	if p == nil {
		w.v.Missing(what)
		return
	}
	w.v.Child(p)
}

func (w walker) expr(e *Expr) {
	if e != nil {
		w.v.Child(e)
	}
}

func (w walker) reqExpr(e *Expr, what string) {
	if e == nil {
		w.v.Missing(what)
		return
	}
	w.v.Child(e)
}

func (w walker) exprs(es []*Expr, what string) {
	for _, e := range es {
		w.reqExpr(e, what)
	}
}

func (w walker) block(b *Block, what string, required bool) {
	if b == nil {
		if required {
			w.v.Missing(what)
		}
		return
	}
	w.v.Child(b)
}

func (w walker) generics(g *Generics) {
	if g != nil {
		w.v.Child(g)
	}
}

func (w walker) decl(d *FnDecl) {
	if d == nil {
		w.v.Missing("fn decl")
		return
	}
	w.v.Child(d)
}

func (w walker) fields(fs []*FieldDef) {
	for _, f := range fs {
		if f == nil {
			w.v.Missing("field")
			continue
		}
		w.v.Child(f)
	}
}

func (w walker) nested(o OwnerNode, isNil bool, what string) {
	if isNil {
		w.v.Missing(what)
		return
	}
	w.v.Nested(o)
}

// WalkChildren calls v for every direct child of n, excluding the body
// that n may own.
func WalkChildren(n Node, v ChildVisitor) {
	w := walker{v: v}
	switch n := n.(type) {
	case *Item:
		w.item(n)
	case *TraitItem:
		w.generics(n.Generics)
		switch d := n.Data.(type) {
		case TraitConstData:
			w.reqTy(d.Ty, "trait const type")
		case TraitFnData:
			w.decl(d.Sig.Decl)
		case TraitTypeData:
			w.ty(d.Default)
		default:
			v.Missing("trait item data")
		}
	case *ImplItem:
		w.generics(n.Generics)
		switch d := n.Data.(type) {
		case ImplConstData:
			w.reqTy(d.Ty, "impl const type")
		case ImplFnData:
			w.decl(d.Sig.Decl)
		case ImplTypeData:
			w.reqTy(d.Ty, "impl type")
		default:
			v.Missing("impl item data")
		}
	case *ForeignItem:
		switch d := n.Data.(type) {
		case ForeignFnData:
			w.decl(d.Decl)
			w.generics(d.Generics)
		case ForeignStaticData:
			w.reqTy(d.Ty, "foreign static type")
		case nil:
			if n.Kind != ForeignItemType {
				v.Missing("foreign item data")
			}
		}
	case *Closure:
		w.decl(n.Decl)
	case *FnDecl:
		for _, t := range n.Inputs {
			w.reqTy(t, "input type")
		}
		w.ty(n.Output)
	case *Generics:
		for _, p := range n.Params {
			if p == nil {
				v.Missing("generic param")
				continue
			}
			v.Child(p)
		}
	case *GenericParam:
		w.ty(n.Ty)
		w.ty(n.Default)
	case *FieldDef:
		w.reqTy(n.Ty, "field type")
	case *Variant:
		w.fields(n.Fields)
	case *Ty:
		w.tyChildren(n)
	case *Param:
		w.pat(n.Pat, "param pattern")
	case *Pat:
		w.patChildren(n)
	case *Expr:
		w.exprChildren(n)
	case *Arm:
		w.pat(n.Pat, "arm pattern")
		w.expr(n.Guard)
		w.reqExpr(n.Body, "arm body")
	case *Block:
		for _, s := range n.Stmts {
			if s == nil {
				v.Missing("statement")
				continue
			}
			v.Child(s)
		}
		w.expr(n.Expr)
	case *Stmt:
		switch d := n.Data.(type) {
		case LocalStmtData:
			if d.Local == nil {
				v.Missing("let")
				return
			}
			v.Child(d.Local)
		case ItemStmtData:
			w.nested(d.Item, d.Item == nil, "block item")
		case ExprStmtData:
			w.reqExpr(d.Expr, "statement expression")
		default:
			v.Missing("statement data")
		}
	case *Local:
		w.pat(n.Pat, "let pattern")
		w.ty(n.Ty)
		w.expr(n.Init)
		w.block(n.Else, "let else", false)
	}
}

func (w walker) item(n *Item) {
	switch d := n.Data.(type) {
	case ModData:
		for _, it := range d.Items {
			w.nested(it, it == nil, "module item")
		}
	case FnData:
		w.decl(d.Sig.Decl)
		w.generics(d.Generics)
	case ConstData:
		w.reqTy(d.Ty, "const type")
	case StaticData:
		w.reqTy(d.Ty, "static type")
	case StructData:
		w.generics(d.Generics)
		w.fields(d.Fields)
	case EnumData:
		w.generics(d.Generics)
		for _, vr := range d.Variants {
			if vr == nil {
				w.v.Missing("variant")
				continue
			}
			w.v.Child(vr)
		}
	case TraitData:
		w.generics(d.Generics)
		for _, it := range d.Items {
			w.nested(it, it == nil, "trait item")
		}
	case ImplData:
		w.generics(d.Generics)
		w.reqTy(d.SelfTy, "impl self type")
		for _, it := range d.Items {
			w.nested(it, it == nil, "impl item")
		}
	case TyAliasData:
		w.generics(d.Generics)
		w.reqTy(d.Ty, "aliased type")
	case ForeignModData:
		for _, it := range d.Items {
			w.nested(it, it == nil, "foreign item")
		}
	case UseData:
	default:
		w.v.Missing("item data")
	}
}

func (w walker) tyChildren(n *Ty) {
	switch d := n.Data.(type) {
	case RefTyData:
		w.reqTy(d.Elem, "referent type")
	case SliceTyData:
		w.reqTy(d.Elem, "slice element type")
	case ArrayTyData:
		w.reqTy(d.Elem, "array element type")
	case TupleTyData:
		for _, t := range d.Elems {
			w.reqTy(t, "tuple element type")
		}
	case FnPtrTyData:
		w.decl(d.Decl)
	}
}

func (w walker) patChildren(n *Pat) {
	switch d := n.Data.(type) {
	case BindingPatData:
		if d.Sub != nil {
			w.v.Child(d.Sub)
		}
	case TuplePatData:
		for _, p := range d.Elems {
			w.pat(p, "tuple element pattern")
		}
	case TupleStructPatData:
		for _, p := range d.Elems {
			w.pat(p, "tuple struct element pattern")
		}
	case OrPatData:
		for _, p := range d.Alts {
			w.pat(p, "or alternative")
		}
	}
}

func (w walker) exprChildren(n *Expr) {
	switch d := n.Data.(type) {
	case UnaryData:
		w.reqExpr(d.Operand, "operand")
	case BinaryData:
		w.reqExpr(d.Left, "left operand")
		w.reqExpr(d.Right, "right operand")
	case CallData:
		w.reqExpr(d.Callee, "callee")
		w.exprs(d.Args, "argument")
	case MethodCallData:
		w.reqExpr(d.Receiver, "receiver")
		w.exprs(d.Args, "argument")
	case FieldData:
		w.reqExpr(d.Object, "field object")
	case IndexData:
		w.reqExpr(d.Object, "indexed object")
		w.reqExpr(d.Index, "index")
	case TupleData:
		w.exprs(d.Elems, "tuple element")
	case ArrayData:
		w.exprs(d.Elems, "array element")
	case StructExprData:
		for _, f := range d.Fields {
			w.reqExpr(f.Value, "field value")
		}
		w.expr(d.Base)
	case IfData:
		w.reqExpr(d.Cond, "condition")
		w.block(d.Then, "then block", true)
		w.expr(d.Else)
	case MatchData:
		w.reqExpr(d.Scrutinee, "scrutinee")
		for _, a := range d.Arms {
			if a == nil {
				w.v.Missing("arm")
				continue
			}
			w.v.Child(a)
		}
	case LoopData:
		w.block(d.Body, "loop body", true)
	case BlockData:
		w.block(d.Block, "block", true)
	case AssignData:
		w.reqExpr(d.Lhs, "assignee")
		w.reqExpr(d.Rhs, "assigned value")
	case ReturnData:
		w.expr(d.Value)
	case BreakData:
		w.expr(d.Value)
	case ClosureData:
		w.nested(d.Closure, d.Closure == nil, "closure")
	case CastData:
		w.reqExpr(d.Expr, "cast operand")
		w.reqTy(d.Ty, "cast type")
	case RefData:
		w.reqExpr(d.Expr, "referent")
	case LitData, PathData, ContinueData, ConstBlockData:
	default:
		w.v.Missing("expression data")
	}
}

// OwnedBody returns the body n owns, or nil.
func OwnedBody(n Node) *Body {
	switch n := n.(type) {
	case *Item:
		switch d := n.Data.(type) {
		case FnData:
			return d.Body
		case ConstData:
			return d.Body
		case StaticData:
			return d.Body
		}
	case *TraitItem:
		switch d := n.Data.(type) {
		case TraitConstData:
			return d.Default
		case TraitFnData:
			return d.Body
		}
	case *ImplItem:
		switch d := n.Data.(type) {
		case ImplConstData:
			return d.Body
		case ImplFnData:
			return d.Body
		}
	case *Closure:
		return n.Body
	case *Expr:
		if d, ok := n.Data.(ConstBlockData); ok {
			return d.Body
		}
	}
	return nil
}

// WalkBody visits the params of b in order, then its value.
func WalkBody(b *Body, v ChildVisitor) {
	for _, p := range b.Params {
		if p == nil {
			v.Missing("body param")
			continue
		}
		v.Child(p)
	}
	if b.Value == nil {
		v.Missing("body value")
		return
	}
	v.Child(b.Value)
}

// Inspector receives every node of an owner from Inspect.
type Inspector struct {
	// Node is called for each node with its parent, nil for the root.
	Node func(n, parent Node)
	// Nested is called for each nested owner with the node that reaches it.
	Nested func(o OwnerNode, at Node)
	// Missing is called for nil required children.
	Missing func(at Node, what string)
}

type inspectVisitor struct {
	ins    *Inspector
	parent Node
}

func (iv inspectVisitor) Child(n Node) { inspect(n, iv.parent, iv.ins) }

func (iv inspectVisitor) Nested(o OwnerNode) {
	if iv.ins.Nested != nil {
		iv.ins.Nested(o, iv.parent)
	}
}

func (iv inspectVisitor) Missing(what string) {
	if iv.ins.Missing != nil {
		iv.ins.Missing(iv.parent, what)
	}
}

// Inspect walks every node of the owner rooted at root in LocalID order,
// bodies included, without entering nested owners.
func Inspect(root OwnerNode, ins Inspector) {
	inspect(root, nil, &ins)
}

func inspect(n, parent Node, ins *Inspector) {
	if ins.Node != nil {
		ins.Node(n, parent)
	}
	iv := inspectVisitor{ins: ins, parent: n}
	WalkChildren(n, iv)
	if b := OwnedBody(n); b != nil {
		WalkBody(b, iv)
	}
}
