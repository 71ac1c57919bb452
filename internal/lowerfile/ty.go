package lowerfile

import (
	"strings"

	"gopkg.in/yaml.v3"

	"hirindex/internal/diag"
	"hirindex/internal/hir"
	"hirindex/internal/source"
)

var tyKeys = []string{"ref", "slice", "array", "tuple", "fn", "path"}

// ty lowers a written type. Scalars are paths, except `!` (never), `_`
// (inferred) and `()` (the unit tuple).
func (l *lowerer) ty(n *yaml.Node, s *scope) *hir.Ty {
	sp := l.span(n)
	if n == nil {
		return &hir.Ty{Kind: hir.TyInfer, Span: sp}
	}
	if n.Kind == yaml.ScalarNode {
		switch n.Value {
		case "!":
			return &hir.Ty{Kind: hir.TyNever, Span: sp}
		case "_":
			return &hir.Ty{Kind: hir.TyInfer, Span: sp}
		case "()":
			return &hir.Ty{Kind: hir.TyTuple, Span: sp, Data: hir.TupleTyData{}}
		}
		return &hir.Ty{Kind: hir.TyPath, Span: sp, Data: hir.PathTyData{Path: l.path(n, s, "type")}}
	}
	if n.Kind == yaml.SequenceNode {
		return &hir.Ty{Kind: hir.TyTuple, Span: sp, Data: hir.TupleTyData{Elems: l.tys(n, s)}}
	}

	f := l.fieldsOf(n, "type")
	key, val, ok := l.kind(f, "type", tyKeys)
	if !ok {
		return &hir.Ty{Kind: hir.TyInfer, Span: sp}
	}
	var t *hir.Ty
	switch key {
	case "ref":
		t = &hir.Ty{Kind: hir.TyRef, Span: sp, Data: hir.RefTyData{Mutable: l.flag(f, "mut"), Elem: l.ty(val, s)}}
	case "slice":
		t = &hir.Ty{Kind: hir.TySlice, Span: sp, Data: hir.SliceTyData{Elem: l.ty(val, s)}}
	case "array":
		lenNode, ok := f.get("len")
		if !ok {
			l.errorf(diag.LowMalformedNode, sp, "array type needs a `len`")
		}
		t = &hir.Ty{Kind: hir.TyArray, Span: sp, Data: hir.ArrayTyData{Elem: l.ty(val, s), Len: l.lit(lenNode)}}
	case "tuple":
		t = &hir.Ty{Kind: hir.TyTuple, Span: sp, Data: hir.TupleTyData{Elems: l.tys(val, s)}}
	case "fn":
		decl := &hir.FnDecl{Inputs: l.tys(val, s), Span: sp}
		if ret, ok := f.get("ret"); ok && !isNull(ret) {
			decl.Output = l.ty(ret, s)
		}
		decl.Variadic = l.flag(f, "variadic")
		t = &hir.Ty{Kind: hir.TyFnPtr, Span: sp, Data: hir.FnPtrTyData{Decl: decl}}
	case "path":
		t = &hir.Ty{Kind: hir.TyPath, Span: sp, Data: hir.PathTyData{Path: l.path(val, s, "type")}}
	}
	l.done(f, "type")
	return t
}

func (l *lowerer) tys(n *yaml.Node, s *scope) []*hir.Ty {
	items := l.seq(n, "type list")
	out := make([]*hir.Ty, 0, len(items))
	for _, it := range items {
		out = append(out, l.ty(it, s))
	}
	return out
}

// reqTy is ty for positions where a type must be written.
func (l *lowerer) reqTy(n *yaml.Node, s *scope, at source.Span, what string) *hir.Ty {
	if n == nil {
		l.errorf(diag.LowMalformedNode, at, "missing %s", what)
		return &hir.Ty{Kind: hir.TyInfer, Span: at}
	}
	return l.ty(n, s)
}

func (l *lowerer) paths(n *yaml.Node, s *scope) []hir.Path {
	items := l.seq(n, "path list")
	if len(items) == 0 {
		return nil
	}
	out := make([]hir.Path, 0, len(items))
	for _, it := range items {
		out = append(out, l.path(it, s, "bound"))
	}
	return out
}

// attrs lowers `name(args)` scalars or `{name, args}` mappings.
func (l *lowerer) attrs(n *yaml.Node, style hir.AttrStyle) []hir.Attribute {
	items := l.seq(n, "attrs")
	if len(items) == 0 {
		return nil
	}
	out := make([]hir.Attribute, 0, len(items))
	for _, it := range items {
		sp := l.span(it)
		var name, args string
		if it.Kind == yaml.ScalarNode {
			name = it.Value
			if open := strings.IndexByte(name, '('); open >= 0 && strings.HasSuffix(name, ")") {
				name, args = name[:open], name[open+1:len(name)-1]
			}
		} else {
			f := l.fieldsOf(it, "attribute")
			nn, _ := f.get("name")
			name = l.str(nn, "attribute name")
			if an, ok := f.get("args"); ok {
				args = l.str(an, "attribute args")
			}
			l.done(f, "attribute")
		}
		name = strings.TrimSpace(name)
		if name == "" {
			l.errorf(diag.LowMalformedNode, sp, "attribute needs a name")
			continue
		}
		out = append(out, hir.Attribute{Name: l.identText(name, sp), Args: args, Style: style, Span: sp})
	}
	return out
}

// genericsOf lowers the `generics` key of f and returns the scope in which
// the item's signature sees its parameters.
func (l *lowerer) genericsOf(f *fields, s *scope) (*scope, *hir.Generics) {
	inner := newScope(s)
	inner.barrier = true
	n, ok := f.get("generics")
	if !ok {
		return inner, nil
	}
	items := l.seq(n, "generics")
	g := &hir.Generics{Params: make([]*hir.GenericParam, 0, len(items)), Span: l.span(n)}
	for _, it := range items {
		sp := l.span(it)
		if it.Kind == yaml.ScalarNode {
			gp := &hir.GenericParam{Name: l.identText(it.Value, sp), Kind: hir.GenericType, Span: sp}
			if strings.HasPrefix(it.Value, "'") {
				gp.Kind = hir.GenericLifetime
			}
			inner.bind(it.Value)
			g.Params = append(g.Params, gp)
			continue
		}
		pf := l.fieldsOf(it, "generic parameter")
		nn, _ := pf.get("name")
		name := l.str(nn, "generic parameter name")
		gp := &hir.GenericParam{Name: l.identText(name, l.span(nn)), Kind: hir.GenericType, Span: sp}
		if strings.HasPrefix(name, "'") {
			gp.Kind = hir.GenericLifetime
		}
		inner.bind(name)
		if cn, ok := pf.get("const"); ok {
			gp.Kind = hir.GenericConst
			gp.Ty = l.ty(cn, inner)
		}
		bn, _ := pf.get("bounds")
		gp.Bounds = l.paths(bn, inner)
		if dn, ok := pf.get("default"); ok {
			gp.Default = l.ty(dn, inner)
		}
		an, _ := pf.get("attrs")
		gp.Attrs = l.attrs(an, hir.AttrOuter)
		l.done(pf, "generic parameter")
		g.Params = append(g.Params, gp)
	}
	return inner, g
}

// fieldDefs lowers struct or variant fields. A field without a name is a
// tuple field.
func (l *lowerer) fieldDefs(n *yaml.Node, s *scope) []*hir.FieldDef {
	items := l.seq(n, "fields")
	out := make([]*hir.FieldDef, 0, len(items))
	for _, it := range items {
		sp := l.span(it)
		if it.Kind == yaml.ScalarNode {
			// a bare type is a tuple field
			out = append(out, &hir.FieldDef{Ident: hir.Ident{Span: sp}, Ty: l.ty(it, s), Span: sp})
			continue
		}
		f := l.fieldsOf(it, "field")
		fd := &hir.FieldDef{Ident: hir.Ident{Span: sp}, Span: sp}
		if nn, ok := f.get("name"); ok {
			fd.Ident = l.ident(nn)
		}
		tn, _ := f.get("ty")
		fd.Ty = l.reqTy(tn, s, sp, "field type")
		fd.Public = l.flag(f, "pub")
		an, _ := f.get("attrs")
		fd.Attrs = l.attrs(an, hir.AttrOuter)
		l.done(f, "field")
		out = append(out, fd)
	}
	return out
}

func (l *lowerer) variants(n *yaml.Node, s *scope) []*hir.Variant {
	items := l.seq(n, "variants")
	out := make([]*hir.Variant, 0, len(items))
	for _, it := range items {
		sp := l.span(it)
		if it.Kind == yaml.ScalarNode {
			out = append(out, &hir.Variant{Ident: l.ident(it), Span: sp})
			continue
		}
		f := l.fieldsOf(it, "variant")
		nn, ok := f.get("name")
		if !ok {
			l.errorf(diag.LowMalformedNode, sp, "variant needs a name")
		}
		v := &hir.Variant{Ident: l.ident(nn), Span: sp}
		fn, _ := f.get("fields")
		v.Fields = l.fieldDefs(fn, s)
		an, _ := f.get("attrs")
		v.Attrs = l.attrs(an, hir.AttrOuter)
		l.done(f, "variant")
		out = append(out, v)
	}
	return out
}
