package lowerfile

import (
	"strings"

	"gopkg.in/yaml.v3"

	"hirindex/internal/diag"
	"hirindex/internal/hir"
	"hirindex/internal/source"
)

type itemCtx uint8

const (
	ctxModule itemCtx = iota
	ctxBlock
	ctxTrait
	ctxImpl
	ctxExtern
)

var (
	itemKeys    = []string{"mod", "fn", "const", "static", "struct", "enum", "trait", "impl", "type", "extern", "use"}
	assocKeys   = []string{"fn", "const", "type"}
	foreignKeys = []string{"fn", "static", "type"}
)

func (c itemCtx) keys() []string {
	switch c {
	case ctxTrait, ctxImpl:
		return assocKeys
	case ctxExtern:
		return foreignKeys
	default:
		return itemKeys
	}
}

func (c itemCtx) what() string {
	switch c {
	case ctxTrait:
		return "trait item"
	case ctxImpl:
		return "impl item"
	case ctxExtern:
		return "foreign item"
	default:
		return "item"
	}
}

// decl is an item whose definition exists but whose HIR is not built yet.
// All module-level items are declared before any body is lowered so that
// paths can refer forward.
type decl struct {
	ctx      itemCtx
	f        *fields
	key      string
	val      *yaml.Node
	def      hir.DefID
	name     hir.Ident
	span     source.Span
	scope    *scope // scope seen by the item's contents
	children []*decl
}

type defShape struct {
	kind hir.DefKind
	data hir.DefPathDataKind
}

func shapeOf(ctx itemCtx, key string) defShape {
	switch ctx {
	case ctxTrait, ctxImpl:
		switch key {
		case "fn":
			return defShape{hir.DefKindAssocFn, hir.DataValueNs}
		case "const":
			return defShape{hir.DefKindAssocConst, hir.DataValueNs}
		default:
			return defShape{hir.DefKindAssocTy, hir.DataTypeNs}
		}
	case ctxExtern:
		switch key {
		case "fn":
			return defShape{hir.DefKindForeignFn, hir.DataValueNs}
		case "static":
			return defShape{hir.DefKindForeignStatic, hir.DataValueNs}
		default:
			return defShape{hir.DefKindForeignTy, hir.DataTypeNs}
		}
	}
	switch key {
	case "mod":
		return defShape{hir.DefKindMod, hir.DataTypeNs}
	case "fn":
		return defShape{hir.DefKindFn, hir.DataValueNs}
	case "const":
		return defShape{hir.DefKindConst, hir.DataValueNs}
	case "static":
		return defShape{hir.DefKindStatic, hir.DataValueNs}
	case "struct":
		return defShape{hir.DefKindStruct, hir.DataTypeNs}
	case "enum":
		return defShape{hir.DefKindEnum, hir.DataTypeNs}
	case "trait":
		return defShape{hir.DefKindTrait, hir.DataTypeNs}
	case "impl":
		return defShape{hir.DefKindImpl, hir.DataImpl}
	case "type":
		return defShape{hir.DefKindTyAlias, hir.DataTypeNs}
	case "extern":
		return defShape{hir.DefKindForeignMod, hir.DataForeignMod}
	default:
		return defShape{hir.DefKindUse, hir.DataUse}
	}
}

func (l *lowerer) lowerCrate(n *yaml.Node) *hir.Crate {
	f := l.fieldsOf(n, "crate")
	nameNode, _ := f.get("crate")
	name := l.str(nameNode, "crate name")
	if name == "" {
		l.errorf(diag.LowMalformedNode, l.span(n), "crate needs a name")
		name = "crate"
	}
	l.defs = hir.NewDefinitions(name, l.span(n))
	l.owner = hir.CrateDefID

	root := newScope(nil)
	root.module = true
	root.def = hir.CrateDefID

	attrNode, _ := f.get("attrs")
	itemsNode, _ := f.get("items")
	decls := l.declareList(l.seq(itemsNode, "items"), hir.CrateDefID, root, ctxModule)
	l.done(f, "crate")

	item := &hir.Item{
		Def:   hir.CrateDefID,
		Ident: l.identText(name, l.span(nameNode)),
		Kind:  hir.ItemMod,
		Span:  l.span(n),
		Attrs: l.attrs(attrNode, hir.AttrInner),
		Data:  hir.ModData{Items: l.lowerItems(decls), Inner: l.span(itemsNode)},
	}
	c, err := hir.NewCrate(name, item, l.defs, l.strings, l.files)
	if err != nil {
		l.errorf(diag.LowMalformedNode, l.span(n), "%v", err)
		return nil
	}
	return c
}

func (l *lowerer) declareList(nodes []*yaml.Node, parent hir.DefID, s *scope, ctx itemCtx) []*decl {
	out := make([]*decl, 0, len(nodes))
	for _, n := range nodes {
		if d := l.declare(n, parent, s, ctx); d != nil {
			out = append(out, d)
		}
	}
	return out
}

func (l *lowerer) declare(n *yaml.Node, parent hir.DefID, s *scope, ctx itemCtx) *decl {
	f := l.fieldsOf(n, ctx.what())
	key, val, ok := l.kind(f, ctx.what(), ctx.keys())
	if !ok {
		return nil
	}
	shape := shapeOf(ctx, key)
	d := &decl{ctx: ctx, f: f, key: key, val: val, span: l.span(n), scope: s}

	var name string
	switch shape.data {
	case hir.DataTypeNs, hir.DataValueNs:
		name = l.str(val, key+" name")
		if name == "" {
			l.errorf(diag.LowMalformedNode, l.span(n), "%s needs a name", key)
		}
		d.name = l.identText(name, l.span(val))
	case hir.DataUse:
		text := l.str(val, "use path")
		parts := strings.Split(text, "::")
		d.name = l.identText(parts[len(parts)-1], l.span(val))
	default:
		d.name = hir.Ident{Span: l.span(val)}
	}

	var expn hir.ExpnID
	if en, ok := f.get("expn"); ok {
		var v uint32
		if err := en.Decode(&v); err != nil {
			l.errorf(diag.LowMalformedNode, l.span(en), "expn must be an unsigned integer")
		}
		expn = hir.ExpnID(v)
	}

	d.def = l.defs.Create(parent, hir.DefPathData{Kind: shape.data, Name: name}, shape.kind, d.span, expn)
	if name != "" {
		if prev, dup := s.items[name]; dup && l.sameNamespace(prev, shape.data) {
			l.errorf(diag.LowDuplicateItem, d.span, "%q is defined more than once in this scope", name)
		}
		s.items[name] = d.def
		l.res.addMember(parent, name, d.def)
		if ctx == ctxExtern {
			if m := s.enclosingModule(); m != nil {
				l.res.addMember(m.def, name, d.def)
			}
		}
	}

	switch key {
	case "mod":
		inner := newScope(s)
		inner.module = true
		inner.def = d.def
		if m := s.enclosingModule(); m != nil {
			l.res.modParent[d.def] = m.def
		}
		d.scope = inner
		items, _ := f.get("items")
		d.children = l.declareList(l.seq(items, "items"), d.def, inner, ctxModule)
	case "trait", "impl":
		if ctx != ctxModule && ctx != ctxBlock {
			break
		}
		inner := newScope(s)
		inner.self, inner.hasSelf = d.def, true
		d.scope = inner
		child := ctxTrait
		if key == "impl" {
			child = ctxImpl
		}
		items, _ := f.get("items")
		d.children = l.declareList(l.seq(items, key+" items"), d.def, inner, child)
	case "extern":
		items, _ := f.get("items")
		d.children = l.declareList(l.seq(items, "foreign items"), d.def, s, ctxExtern)
	}
	return d
}

func (l *lowerer) sameNamespace(prev hir.DefID, data hir.DefPathDataKind) bool {
	return l.defs.DefKey(prev).Data.Kind == data
}

func (l *lowerer) lowerItems(ds []*decl) []*hir.Item {
	out := make([]*hir.Item, 0, len(ds))
	for _, d := range ds {
		out = append(out, l.lowerItem(d))
	}
	return out
}

// enter makes def the owner of closures and block items until the returned
// func is called.
func (l *lowerer) enter(def hir.DefID) func() {
	prev := l.owner
	l.owner = def
	return func() { l.owner = prev }
}

func (l *lowerer) lowerItem(d *decl) *hir.Item {
	defer l.enter(d.def)()
	f := d.f
	attrNode, _ := f.get("attrs")
	it := &hir.Item{Def: d.def, Ident: d.name, Span: d.span, Attrs: l.attrs(attrNode, hir.AttrOuter)}

	switch d.key {
	case "mod":
		it.Kind = hir.ItemMod
		items, _ := f.get("items")
		it.Data = hir.ModData{Items: l.lowerItems(d.children), Inner: l.span(items)}
	case "fn":
		it.Kind = hir.ItemFn
		gs, generics := l.genericsOf(f, d.scope)
		sig, _, body := l.fnParts(f, gs, d)
		if body == nil {
			l.errorf(diag.LowMissingBody, d.span, "function %q has no body", d.val.Value)
		}
		it.Data = hir.FnData{Sig: sig, Generics: generics, Body: body}
	case "const":
		it.Kind = hir.ItemConst
		ty, body := l.initializer(f, d, true)
		it.Data = hir.ConstData{Ty: ty, Body: body}
	case "static":
		it.Kind = hir.ItemStatic
		ty, body := l.initializer(f, d, true)
		it.Data = hir.StaticData{Ty: ty, Mutable: l.flag(f, "mut"), Body: body}
	case "struct":
		it.Kind = hir.ItemStruct
		gs, generics := l.genericsOf(f, d.scope)
		fieldsNode, _ := f.get("fields")
		it.Data = hir.StructData{Generics: generics, Fields: l.fieldDefs(fieldsNode, gs), Tuple: l.flag(f, "tuple")}
	case "enum":
		it.Kind = hir.ItemEnum
		gs, generics := l.genericsOf(f, d.scope)
		vs, _ := f.get("variants")
		it.Data = hir.EnumData{Generics: generics, Variants: l.variants(vs, gs)}
	case "trait":
		it.Kind = hir.ItemTrait
		_, generics := l.genericsOf(f, d.scope)
		bounds, _ := f.get("bounds")
		items := make([]*hir.TraitItem, 0, len(d.children))
		for _, c := range d.children {
			items = append(items, l.lowerTraitItem(c))
		}
		it.Data = hir.TraitData{Generics: generics, Unsafe: l.flag(f, "unsafe"), Bounds: l.paths(bounds, d.scope), Items: items}
	case "impl":
		it.Kind = hir.ItemImpl
		gs, generics := l.genericsOf(f, d.scope)
		var trait *hir.Path
		if !isNull(d.val) && d.val.Value != "" {
			p := l.path(d.val, d.scope, "impl trait")
			trait = &p
		}
		forNode, ok := f.get("for")
		if !ok {
			l.errorf(diag.LowMalformedNode, d.span, "impl needs a `for` type")
		}
		items := make([]*hir.ImplItem, 0, len(d.children))
		for _, c := range d.children {
			items = append(items, l.lowerImplItem(c))
		}
		it.Data = hir.ImplData{Generics: generics, Trait: trait, SelfTy: l.reqTy(forNode, gs, d.span, "impl self type"), Items: items}
	case "type":
		it.Kind = hir.ItemTyAlias
		gs, generics := l.genericsOf(f, d.scope)
		tyNode, _ := f.get("ty")
		it.Data = hir.TyAliasData{Generics: generics, Ty: l.reqTy(tyNode, gs, d.span, "aliased type")}
	case "extern":
		it.Kind = hir.ItemForeignMod
		items := make([]*hir.ForeignItem, 0, len(d.children))
		for _, c := range d.children {
			items = append(items, l.lowerForeignItem(c))
		}
		it.Data = hir.ForeignModData{ABI: l.str(d.val, "extern ABI"), Items: items}
	case "use":
		it.Kind = hir.ItemUse
		it.Data = hir.UseData{Path: l.path(d.val, d.scope, "use path"), Glob: l.flag(f, "glob")}
	}
	l.done(f, d.ctx.what())
	return it
}

func (l *lowerer) lowerTraitItem(d *decl) *hir.TraitItem {
	defer l.enter(d.def)()
	f := d.f
	attrNode, _ := f.get("attrs")
	gs, generics := l.genericsOf(f, d.scope)
	ti := &hir.TraitItem{Def: d.def, Ident: d.name, Generics: generics, Span: d.span, Attrs: l.attrs(attrNode, hir.AttrOuter)}
	switch d.key {
	case "fn":
		ti.Kind = hir.TraitItemFn
		sig, names, body := l.fnParts(f, gs, d)
		data := hir.TraitFnData{Sig: sig, Body: body}
		if body == nil {
			data.ParamNames = names
		}
		ti.Data = data
	case "const":
		ti.Kind = hir.TraitItemConst
		ty, body := l.initializer(f, d, false)
		ti.Data = hir.TraitConstData{Ty: ty, Default: body}
	case "type":
		ti.Kind = hir.TraitItemType
		bounds, _ := f.get("bounds")
		var def *hir.Ty
		if n, ok := f.get("default"); ok {
			def = l.ty(n, gs)
		}
		ti.Data = hir.TraitTypeData{Bounds: l.paths(bounds, gs), Default: def}
	}
	l.done(f, d.ctx.what())
	return ti
}

func (l *lowerer) lowerImplItem(d *decl) *hir.ImplItem {
	defer l.enter(d.def)()
	f := d.f
	attrNode, _ := f.get("attrs")
	gs, generics := l.genericsOf(f, d.scope)
	ii := &hir.ImplItem{Def: d.def, Ident: d.name, Generics: generics, Span: d.span, Attrs: l.attrs(attrNode, hir.AttrOuter)}
	switch d.key {
	case "fn":
		ii.Kind = hir.ImplItemFn
		sig, _, body := l.fnParts(f, gs, d)
		if body == nil {
			l.errorf(diag.LowMissingBody, d.span, "impl method %q has no body", d.val.Value)
		}
		ii.Data = hir.ImplFnData{Sig: sig, Body: body}
	case "const":
		ii.Kind = hir.ImplItemConst
		ty, body := l.initializer(f, d, true)
		ii.Data = hir.ImplConstData{Ty: ty, Body: body}
	case "type":
		ii.Kind = hir.ImplItemType
		tyNode, _ := f.get("ty")
		ii.Data = hir.ImplTypeData{Ty: l.reqTy(tyNode, gs, d.span, "associated type")}
	}
	l.done(f, d.ctx.what())
	return ii
}

func (l *lowerer) lowerForeignItem(d *decl) *hir.ForeignItem {
	defer l.enter(d.def)()
	f := d.f
	attrNode, _ := f.get("attrs")
	fi := &hir.ForeignItem{Def: d.def, Ident: d.name, Span: d.span, Attrs: l.attrs(attrNode, hir.AttrOuter)}
	switch d.key {
	case "fn":
		fi.Kind = hir.ForeignItemFn
		gs, generics := l.genericsOf(f, d.scope)
		sig, names, body := l.fnParts(f, gs, d)
		if body != nil {
			l.errorf(diag.LowUnexpectedSyntax, d.span, "foreign function cannot have a body")
		}
		fi.Data = hir.ForeignFnData{Decl: sig.Decl, ParamNames: names, Generics: generics}
	case "static":
		fi.Kind = hir.ForeignItemStatic
		tyNode, _ := f.get("ty")
		fi.Data = hir.ForeignStaticData{Ty: l.reqTy(tyNode, d.scope, d.span, "static type"), Mutable: l.flag(f, "mut")}
	case "type":
		fi.Kind = hir.ForeignItemType
	}
	l.done(f, d.ctx.what())
	return fi
}

// initializer lowers the `ty` and `value` keys of consts and statics.
func (l *lowerer) initializer(f *fields, d *decl, required bool) (*hir.Ty, *hir.Body) {
	tyNode, _ := f.get("ty")
	ty := l.reqTy(tyNode, d.scope, d.span, "constant type")
	valNode, ok := f.get("value")
	if !ok {
		if required {
			l.errorf(diag.LowMissingBody, d.span, "%s %q has no value", d.key, d.val.Value)
		}
		return ty, nil
	}
	bodyScope := newScope(d.scope)
	bodyScope.barrier = true
	return ty, &hir.Body{Value: l.expr(valNode, bodyScope)}
}

// fnParts lowers a function signature and, when present, its body. It
// also returns the identifier of each parameter, empty for patterns.
func (l *lowerer) fnParts(f *fields, s *scope, d *decl) (hir.FnSig, []hir.Ident, *hir.Body) {
	paramsNode, _ := f.get("params")
	retNode, hasRet := f.get("ret")
	bodyScope := newScope(s)

	var header hir.FnHeader
	if q, ok := f.get("qualifiers"); ok {
		for _, qn := range l.seq(q, "qualifiers") {
			switch l.str(qn, "qualifier") {
			case "unsafe":
				header.Unsafe = true
			case "async":
				header.Async = true
			case "const":
				header.Const = true
			default:
				l.errorf(diag.LowUnexpectedSyntax, l.span(qn), "unknown qualifier %q", qn.Value)
			}
		}
	}
	if abi, ok := f.get("abi"); ok {
		header.ABI = l.str(abi, "abi")
	}

	ps := l.seq(paramsNode, "params")
	decl := &hir.FnDecl{Span: l.span(paramsNode)}
	params := make([]*hir.Param, 0, len(ps))
	names := make([]hir.Ident, 0, len(ps))
	for _, pn := range ps {
		param, name, ty := l.param(pn, s, bodyScope, true)
		decl.Inputs = append(decl.Inputs, ty)
		params = append(params, param)
		names = append(names, name)
	}
	if f.has("variadic") {
		decl.Variadic = l.flag(f, "variadic")
	}
	if hasRet && !isNull(retNode) {
		decl.Output = l.ty(retNode, s)
		decl.Span = cover(decl.Span, l.span(retNode))
	}
	if decl.Span.IsDummy() {
		decl.Span = l.span(d.val)
	}

	sig := hir.FnSig{Header: header, Decl: decl, Span: source.Span{File: l.file, Start: d.span.Start, End: decl.Span.End}}
	if sig.Span.End < sig.Span.Start {
		sig.Span.End = d.span.End
	}

	bodyNode, ok := f.get("body")
	if !ok {
		return sig, names, nil
	}
	return sig, names, &hir.Body{Params: params, Value: l.expr(bodyNode, bodyScope)}
}

// param lowers `{name: x, ty: T}` or `{pat: P, ty: T}`. Closures may write
// a bare name and leave the type out.
func (l *lowerer) param(n *yaml.Node, tyScope, bodyScope *scope, needTy bool) (*hir.Param, hir.Ident, *hir.Ty) {
	sp := l.span(n)
	if n.Kind == yaml.ScalarNode {
		if needTy {
			l.errorf(diag.LowMalformedNode, sp, "parameter %q needs a type", n.Value)
		}
		pat := l.bindingPat(n, bodyScope)
		name, _ := pat.BindingName()
		return &hir.Param{Pat: pat, Span: sp}, name, &hir.Ty{Kind: hir.TyInfer, Span: sp}
	}

	f := l.fieldsOf(n, "parameter")
	var pat *hir.Pat
	var name hir.Ident
	if nn, ok := f.get("name"); ok {
		pat = l.bindingPat(nn, bodyScope)
		name, _ = pat.BindingName()
	} else if pn, ok := f.get("pat"); ok {
		pat = l.pat(pn, bodyScope)
		name = hir.Ident{Span: pat.Span}
	} else {
		l.errorf(diag.LowMalformedNode, sp, "parameter needs a name or a pattern")
		pat = &hir.Pat{Kind: hir.PatWild, Span: sp}
	}

	var ty *hir.Ty
	if tn, ok := f.get("ty"); ok {
		ty = l.ty(tn, tyScope)
	} else {
		if needTy {
			l.errorf(diag.LowMalformedNode, sp, "parameter needs a type")
		}
		ty = &hir.Ty{Kind: hir.TyInfer, Span: sp}
	}
	attrNode, _ := f.get("attrs")
	l.done(f, "parameter")
	return &hir.Param{Pat: pat, Span: sp, Attrs: l.attrs(attrNode, hir.AttrOuter)}, name, ty
}

// cover is Span.Cover that treats the dummy span as empty.
func cover(a, b source.Span) source.Span {
	switch {
	case a.IsDummy():
		return b
	case b.IsDummy():
		return a
	}
	return a.Cover(b)
}
