package hir

import (
	"strings"

	"hirindex/internal/fingerprint"
	"hirindex/internal/source"
)

// PathRemap rewrites file path prefixes before they are hashed, so that
// builds in different checkouts agree.
type PathRemap struct {
	From string
	To   string
}

// HashingContext carries the session-wide rules for stable hashing.
//
// Identifiers are hashed by text, never by interner id. Definitions are
// hashed by DefPathHash, never by DefID. File names pass through Remap.
type HashingContext struct {
	Defs      *Definitions
	Strings   *source.Interner
	Files     *source.FileSet
	HashSpans bool
	Remap     []PathRemap
}

// RemapPath applies the first matching prefix rule to p.
func (hcx *HashingContext) RemapPath(p string) string {
	for _, r := range hcx.Remap {
		if r.From != "" && strings.HasPrefix(p, r.From) {
			return r.To + strings.TrimPrefix(p, r.From)
		}
	}
	return p
}

// StableHasher feeds HIR values into a fingerprint.Hasher under the rules
// of a HashingContext.
type StableHasher struct {
	hcx *HashingContext
	h   *fingerprint.Hasher
}

func (hcx *HashingContext) newHasher(domain string) *StableHasher {
	return &StableHasher{hcx: hcx, h: fingerprint.New(domain)}
}

const (
	tagAbsent byte = iota
	tagPresent
	tagDummySpan
	tagSpan
	tagNested
)

// NodeHash hashes the owner node deeply, with bodies left opaque and
// attributes excluded.
func (hcx *HashingContext) NodeHash(root OwnerNode) fingerprint.Fingerprint {
	s := hcx.newHasher("hir.node")
	s.node(root)
	return s.h.Finish()
}

// BodyHash hashes the params and value of b. Bodies nested in b are
// opaque; they are hashed on their own.
func (hcx *HashingContext) BodyHash(b *Body) fingerprint.Fingerprint {
	s := hcx.newHasher("hir.body")
	s.h.Len(len(b.Params))
	for _, p := range b.Params {
		s.node(p)
	}
	s.node(b.Value)
	return s.h.Finish()
}

// OwnerHash combines the pieces of an indexed owner into its full hash:
// the node hash, every body in LocalID order, the shape of the node array
// and the attributes.
func (hcx *HashingContext) OwnerHash(nodeHash fingerprint.Fingerprint, nodes []ParentedNode, bodies []*Body, attrs AttributeMap) fingerprint.Fingerprint {
	bh := hcx.newHasher("hir.bodies")
	for i, b := range bodies {
		if b == nil {
			continue
		}
		bh.h.Len(i)
		bh.h.Fingerprint(hcx.BodyHash(b))
	}

	sh := hcx.newHasher("hir.structure")
	sh.h.Len(len(nodes))
	for i, pn := range nodes {
		sh.h.Uint8(uint8(pn.Node.NodeKind()))
		if i > 0 {
			sh.h.Uint32(uint32(pn.Parent))
		}
	}

	ah := hcx.newHasher("hir.attrs")
	ah.h.Len(attrs.Len())
	for _, e := range attrs.Entries() {
		ah.h.Uint32(uint32(e.Local))
		ah.attrs(e.Attrs)
	}

	return fingerprint.Combine(nodeHash, bh.h.Finish(), sh.h.Finish(), ah.h.Finish())
}

func (s *StableHasher) span(sp source.Span) {
	if !s.hcx.HashSpans {
		return
	}
	if sp.IsDummy() {
		s.h.Tag(tagDummySpan)
		return
	}
	s.h.Tag(tagSpan)
	if f := s.hcx.Files.Get(sp.File); f != nil {
		s.h.String(s.hcx.RemapPath(f.Path))
	} else {
		s.h.String("")
	}
	s.h.Uint32(sp.Start)
	s.h.Uint32(sp.End)
}

func (s *StableHasher) ident(id Ident) {
	name, _ := s.hcx.Strings.Lookup(id.Name)
	s.h.String(name)
	s.span(id.Span)
}

func (s *StableHasher) idents(ids []Ident) {
	s.h.Len(len(ids))
	for _, id := range ids {
		s.ident(id)
	}
}

func (s *StableHasher) def(id DefID) {
	s.h.Fingerprint(s.hcx.Defs.DefPathHash(id))
}

func (s *StableHasher) path(p Path) {
	s.idents(p.Segments)
	s.h.Uint8(uint8(p.Res.Kind))
	if p.Res.Kind == ResDef {
		s.def(p.Res.Def)
	}
	s.span(p.Span)
}

func (s *StableHasher) paths(ps []Path) {
	s.h.Len(len(ps))
	for _, p := range ps {
		s.path(p)
	}
}

func (s *StableHasher) lit(l Lit) {
	s.h.Uint8(uint8(l.Kind))
	s.h.String(l.Text)
	s.span(l.Span)
}

func (s *StableHasher) attrs(as []Attribute) {
	s.h.Len(len(as))
	for _, a := range as {
		s.ident(a.Name)
		s.h.String(a.Args)
		s.h.Uint8(uint8(a.Style))
		s.span(a.Span)
	}
}

func (s *StableHasher) node(n Node) {
	s.h.Uint8(uint8(n.NodeKind()))
	n.hashStable(s)
}

// nested hashes a nested owner by identity only.
func (s *StableHasher) nested(o OwnerNode) {
	s.h.Tag(tagNested)
	s.def(o.OwnerDef())
}

// bodyRef records only whether a body is present.
func (s *StableHasher) bodyRef(b *Body) {
	s.h.Bool(b != nil)
}

func (s *StableHasher) opt(present bool, n Node) {
	if !present {
		s.h.Tag(tagAbsent)
		return
	}
	s.h.Tag(tagPresent)
	s.node(n)
}

func (s *StableHasher) optTy(t *Ty)             { s.opt(t != nil, t) }
func (s *StableHasher) optExpr(e *Expr)         { s.opt(e != nil, e) }
func (s *StableHasher) optBlock(b *Block)       { s.opt(b != nil, b) }
func (s *StableHasher) optGenerics(g *Generics) { s.opt(g != nil, g) }
func (s *StableHasher) optPat(p *Pat)           { s.opt(p != nil, p) }
func (s *StableHasher) optDecl(d *FnDecl)       { s.opt(d != nil, d) }

func (s *StableHasher) tys(ts []*Ty) {
	s.h.Len(len(ts))
	for _, t := range ts {
		s.optTy(t)
	}
}

func (s *StableHasher) exprs(es []*Expr) {
	s.h.Len(len(es))
	for _, e := range es {
		s.optExpr(e)
	}
}

func (s *StableHasher) pats(ps []*Pat) {
	s.h.Len(len(ps))
	for _, p := range ps {
		s.optPat(p)
	}
}

func (s *StableHasher) fields(fs []*FieldDef) {
	s.h.Len(len(fs))
	for _, f := range fs {
		s.opt(f != nil, f)
	}
}

func (s *StableHasher) sig(sig FnSig) {
	s.h.Bool(sig.Header.Unsafe)
	s.h.Bool(sig.Header.Async)
	s.h.Bool(sig.Header.Const)
	s.h.String(sig.Header.ABI)
	s.optDecl(sig.Decl)
	s.span(sig.Span)
}

func (n *Item) hashStable(s *StableHasher) {
	s.def(n.Def)
	s.ident(n.Ident)
	s.h.Uint8(uint8(n.Kind))
	s.span(n.Span)
	switch d := n.Data.(type) {
	case ModData:
		s.h.Len(len(d.Items))
		for _, it := range d.Items {
			s.nested(it)
		}
		s.span(d.Inner)
	case FnData:
		s.sig(d.Sig)
		s.optGenerics(d.Generics)
		s.bodyRef(d.Body)
	case ConstData:
		s.optTy(d.Ty)
		s.bodyRef(d.Body)
	case StaticData:
		s.optTy(d.Ty)
		s.h.Bool(d.Mutable)
		s.bodyRef(d.Body)
	case StructData:
		s.optGenerics(d.Generics)
		s.fields(d.Fields)
		s.h.Bool(d.Tuple)
	case EnumData:
		s.optGenerics(d.Generics)
		s.h.Len(len(d.Variants))
		for _, v := range d.Variants {
			s.opt(v != nil, v)
		}
	case TraitData:
		s.optGenerics(d.Generics)
		s.h.Bool(d.Unsafe)
		s.paths(d.Bounds)
		s.h.Len(len(d.Items))
		for _, it := range d.Items {
			s.nested(it)
		}
	case ImplData:
		s.optGenerics(d.Generics)
		s.h.Bool(d.Trait != nil)
		if d.Trait != nil {
			s.path(*d.Trait)
		}
		s.optTy(d.SelfTy)
		s.h.Len(len(d.Items))
		for _, it := range d.Items {
			s.nested(it)
		}
	case TyAliasData:
		s.optGenerics(d.Generics)
		s.optTy(d.Ty)
	case ForeignModData:
		s.h.String(d.ABI)
		s.h.Len(len(d.Items))
		for _, it := range d.Items {
			s.nested(it)
		}
	case UseData:
		s.path(d.Path)
		s.h.Bool(d.Glob)
	}
}

func (n *TraitItem) hashStable(s *StableHasher) {
	s.def(n.Def)
	s.ident(n.Ident)
	s.h.Uint8(uint8(n.Kind))
	s.optGenerics(n.Generics)
	s.span(n.Span)
	switch d := n.Data.(type) {
	case TraitConstData:
		s.optTy(d.Ty)
		s.bodyRef(d.Default)
	case TraitFnData:
		s.sig(d.Sig)
		s.idents(d.ParamNames)
		s.bodyRef(d.Body)
	case TraitTypeData:
		s.paths(d.Bounds)
		s.optTy(d.Default)
	}
}

func (n *ImplItem) hashStable(s *StableHasher) {
	s.def(n.Def)
	s.ident(n.Ident)
	s.h.Uint8(uint8(n.Kind))
	s.optGenerics(n.Generics)
	s.span(n.Span)
	switch d := n.Data.(type) {
	case ImplConstData:
		s.optTy(d.Ty)
		s.bodyRef(d.Body)
	case ImplFnData:
		s.sig(d.Sig)
		s.bodyRef(d.Body)
	case ImplTypeData:
		s.optTy(d.Ty)
	}
}

func (n *ForeignItem) hashStable(s *StableHasher) {
	s.def(n.Def)
	s.ident(n.Ident)
	s.h.Uint8(uint8(n.Kind))
	s.span(n.Span)
	switch d := n.Data.(type) {
	case ForeignFnData:
		s.optDecl(d.Decl)
		s.idents(d.ParamNames)
		s.optGenerics(d.Generics)
	case ForeignStaticData:
		s.optTy(d.Ty)
		s.h.Bool(d.Mutable)
	}
}

func (n *Closure) hashStable(s *StableHasher) {
	s.def(n.Def)
	s.h.Bool(n.Move)
	s.optDecl(n.Decl)
	s.bodyRef(n.Body)
	s.span(n.Span)
}

func (n *FnDecl) hashStable(s *StableHasher) {
	s.tys(n.Inputs)
	s.optTy(n.Output)
	s.h.Bool(n.Variadic)
	s.span(n.Span)
}

func (n *Generics) hashStable(s *StableHasher) {
	s.h.Len(len(n.Params))
	for _, p := range n.Params {
		s.opt(p != nil, p)
	}
	s.span(n.Span)
}

func (n *GenericParam) hashStable(s *StableHasher) {
	s.ident(n.Name)
	s.h.Uint8(uint8(n.Kind))
	s.paths(n.Bounds)
	s.optTy(n.Ty)
	s.optTy(n.Default)
	s.span(n.Span)
}

func (n *FieldDef) hashStable(s *StableHasher) {
	s.ident(n.Ident)
	s.optTy(n.Ty)
	s.h.Bool(n.Public)
	s.span(n.Span)
}

func (n *Variant) hashStable(s *StableHasher) {
	s.ident(n.Ident)
	s.fields(n.Fields)
	s.span(n.Span)
}

func (n *Param) hashStable(s *StableHasher) {
	s.optPat(n.Pat)
	s.span(n.Span)
}

func (n *Ty) hashStable(s *StableHasher) {
	s.h.Uint8(uint8(n.Kind))
	s.span(n.Span)
	switch d := n.Data.(type) {
	case PathTyData:
		s.path(d.Path)
	case RefTyData:
		s.h.Bool(d.Mutable)
		s.optTy(d.Elem)
	case SliceTyData:
		s.optTy(d.Elem)
	case ArrayTyData:
		s.optTy(d.Elem)
		s.lit(d.Len)
	case TupleTyData:
		s.tys(d.Elems)
	case FnPtrTyData:
		s.optDecl(d.Decl)
	}
}

func (n *Pat) hashStable(s *StableHasher) {
	s.h.Uint8(uint8(n.Kind))
	s.span(n.Span)
	switch d := n.Data.(type) {
	case BindingPatData:
		s.ident(d.Name)
		s.h.Bool(d.Mutable)
		s.h.Bool(d.ByRef)
		s.optPat(d.Sub)
	case TuplePatData:
		s.pats(d.Elems)
	case TupleStructPatData:
		s.path(d.Path)
		s.pats(d.Elems)
	case PathPatData:
		s.path(d.Path)
	case LitPatData:
		s.lit(d.Lit)
	case OrPatData:
		s.pats(d.Alts)
	}
}

func (n *Expr) hashStable(s *StableHasher) {
	s.h.Uint8(uint8(n.Kind))
	s.span(n.Span)
	switch d := n.Data.(type) {
	case LitData:
		s.lit(d.Lit)
	case PathData:
		s.path(d.Path)
	case UnaryData:
		s.h.Uint8(uint8(d.Op))
		s.optExpr(d.Operand)
	case BinaryData:
		s.h.Uint8(uint8(d.Op))
		s.optExpr(d.Left)
		s.optExpr(d.Right)
	case CallData:
		s.optExpr(d.Callee)
		s.exprs(d.Args)
	case MethodCallData:
		s.optExpr(d.Receiver)
		s.ident(d.Method)
		s.exprs(d.Args)
	case FieldData:
		s.optExpr(d.Object)
		s.ident(d.Name)
	case IndexData:
		s.optExpr(d.Object)
		s.optExpr(d.Index)
	case TupleData:
		s.exprs(d.Elems)
	case ArrayData:
		s.exprs(d.Elems)
	case StructExprData:
		s.path(d.Path)
		s.h.Len(len(d.Fields))
		for _, f := range d.Fields {
			s.ident(f.Name)
			s.optExpr(f.Value)
		}
		s.optExpr(d.Base)
	case IfData:
		s.optExpr(d.Cond)
		s.optBlock(d.Then)
		s.optExpr(d.Else)
	case MatchData:
		s.optExpr(d.Scrutinee)
		s.h.Len(len(d.Arms))
		for _, a := range d.Arms {
			s.opt(a != nil, a)
		}
	case LoopData:
		s.ident(d.Label)
		s.optBlock(d.Body)
	case BlockData:
		s.optBlock(d.Block)
	case AssignData:
		s.optExpr(d.Lhs)
		s.optExpr(d.Rhs)
	case ReturnData:
		s.optExpr(d.Value)
	case BreakData:
		s.ident(d.Label)
		s.optExpr(d.Value)
	case ContinueData:
		s.ident(d.Label)
	case ClosureData:
		if d.Closure != nil {
			s.nested(d.Closure)
		}
	case ConstBlockData:
		s.bodyRef(d.Body)
	case CastData:
		s.optExpr(d.Expr)
		s.optTy(d.Ty)
	case RefData:
		s.h.Bool(d.Mutable)
		s.optExpr(d.Expr)
	}
}

func (n *Arm) hashStable(s *StableHasher) {
	s.optPat(n.Pat)
	s.optExpr(n.Guard)
	s.optExpr(n.Body)
	s.span(n.Span)
}

func (n *Block) hashStable(s *StableHasher) {
	s.h.Len(len(n.Stmts))
	for _, st := range n.Stmts {
		s.opt(st != nil, st)
	}
	s.optExpr(n.Expr)
	s.h.Bool(n.Unsafe)
	s.span(n.Span)
}

func (n *Stmt) hashStable(s *StableHasher) {
	s.h.Uint8(uint8(n.Kind))
	s.span(n.Span)
	switch d := n.Data.(type) {
	case LocalStmtData:
		s.opt(d.Local != nil, d.Local)
	case ItemStmtData:
		if d.Item != nil {
			s.nested(d.Item)
		}
	case ExprStmtData:
		s.optExpr(d.Expr)
	}
}

func (n *Local) hashStable(s *StableHasher) {
	s.optPat(n.Pat)
	s.optTy(n.Ty)
	s.optExpr(n.Init)
	s.optBlock(n.Else)
	s.span(n.Span)
}
