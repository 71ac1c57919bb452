package lowerfile

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"hirindex/internal/diag"
	"hirindex/internal/hir"
	"hirindex/internal/source"
)

var exprKeys = []string{
	"lit", "path", "unary", "binary", "call", "method", "field", "index",
	"tuple", "array", "struct", "if", "match", "loop", "block", "assign",
	"return", "break", "continue", "closure", "const", "cast", "ref",
}

var (
	stmtKeys = []string{"let", "item", "expr", "semi"}
	patKeys  = []string{"bind", "tuple", "ctor", "path", "lit", "or"}
	unOps    = map[string]hir.UnOp{"-": hir.UnNeg, "!": hir.UnNot, "*": hir.UnDeref}
)

func (l *lowerer) lit(n *yaml.Node) hir.Lit {
	sp := l.span(n)
	if n == nil || n.Kind != yaml.ScalarNode {
		l.errorf(diag.LowMalformedNode, sp, "literal must be a scalar")
		return hir.Lit{Kind: hir.LitInt, Text: "0", Span: sp}
	}
	switch {
	case n.Style&yaml.DoubleQuotedStyle != 0:
		return hir.Lit{Kind: hir.LitStr, Text: n.Value, Span: sp}
	case n.Style&yaml.SingleQuotedStyle != 0:
		if utf8.RuneCountInString(n.Value) != 1 {
			l.errorf(diag.LowMalformedNode, sp, "char literal %q must hold one character", n.Value)
		}
		return hir.Lit{Kind: hir.LitChar, Text: n.Value, Span: sp}
	}
	switch n.ShortTag() {
	case "!!int":
		return hir.Lit{Kind: hir.LitInt, Text: n.Value, Span: sp}
	case "!!float":
		return hir.Lit{Kind: hir.LitFloat, Text: n.Value, Span: sp}
	case "!!bool":
		return hir.Lit{Kind: hir.LitBool, Text: n.Value, Span: sp}
	}
	return hir.Lit{Kind: hir.LitStr, Text: n.Value, Span: sp}
}

func isLitScalar(n *yaml.Node) bool {
	if n.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0 {
		return true
	}
	switch n.ShortTag() {
	case "!!int", "!!float", "!!bool":
		return true
	}
	return false
}

func hasKey(n *yaml.Node, keys ...string) bool {
	if n == nil || n.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if slices.Contains(keys, n.Content[i].Value) {
			return true
		}
	}
	return false
}

func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

// expr lowers an expression. A plain scalar is a path, a quoted or typed
// scalar is a literal and a list is a block.
func (l *lowerer) expr(n *yaml.Node, s *scope) *hir.Expr {
	sp := l.span(n)
	switch {
	case isNull(n):
		return &hir.Expr{Kind: hir.ExprTuple, Span: sp, Data: hir.TupleData{}}
	case n.Kind == yaml.ScalarNode && isLitScalar(n):
		return &hir.Expr{Kind: hir.ExprLit, Span: sp, Data: hir.LitData{Lit: l.lit(n)}}
	case n.Kind == yaml.ScalarNode:
		return &hir.Expr{Kind: hir.ExprPath, Span: sp, Data: hir.PathData{Path: l.path(n, s, "expression")}}
	case n.Kind == yaml.SequenceNode:
		return &hir.Expr{Kind: hir.ExprBlock, Span: sp, Data: hir.BlockData{Block: l.block(n, s)}}
	case n.Kind != yaml.MappingNode:
		l.errorf(diag.LowUnexpectedSyntax, sp, "unexpected expression node")
		return &hir.Expr{Kind: hir.ExprTuple, Span: sp, Data: hir.TupleData{}}
	}

	if !hasKey(n, exprKeys...) && hasKey(n, "stmts", "expr") {
		return &hir.Expr{Kind: hir.ExprBlock, Span: sp, Data: hir.BlockData{Block: l.blockOf(l.fieldsOf(n, "block"), s, sp)}}
	}
	f := l.fieldsOf(n, "expression")
	key, val, ok := l.kind(f, "expression", exprKeys)
	if !ok {
		return &hir.Expr{Kind: hir.ExprTuple, Span: sp, Data: hir.TupleData{}}
	}
	an, _ := f.get("attrs")
	e := &hir.Expr{Span: sp, Attrs: l.attrs(an, hir.AttrOuter)}
	sub := func(key string) *hir.Expr {
		n, ok := f.get(key)
		if !ok {
			l.errorf(diag.LowMalformedNode, sp, "%s expression needs `%s`", e.Kind, key)
			return &hir.Expr{Kind: hir.ExprTuple, Span: sp, Data: hir.TupleData{}}
		}
		return l.expr(n, s)
	}
	optSub := func(key string) *hir.Expr {
		if n, ok := f.get(key); ok && !isNull(n) {
			return l.expr(n, s)
		}
		return nil
	}
	label := func() hir.Ident {
		if n, ok := f.get("label"); ok {
			return l.ident(n)
		}
		return hir.Ident{}
	}

	switch key {
	case "lit":
		e.Kind = hir.ExprLit
		e.Data = hir.LitData{Lit: l.lit(val)}
	case "path":
		e.Kind = hir.ExprPath
		e.Data = hir.PathData{Path: l.path(val, s, "expression")}
	case "unary":
		e.Kind = hir.ExprUnary
		op, ok := unOps[l.str(val, "unary operator")]
		if !ok {
			l.errorf(diag.LowUnexpectedSyntax, l.span(val), "unknown unary operator %q", val.Value)
		}
		e.Data = hir.UnaryData{Op: op, Operand: sub("expr")}
	case "binary":
		e.Kind = hir.ExprBinary
		op, ok := hir.ParseBinOp(l.str(val, "binary operator"))
		if !ok {
			l.errorf(diag.LowUnexpectedSyntax, l.span(val), "unknown binary operator %q", val.Value)
		}
		e.Data = hir.BinaryData{Op: op, Left: sub("lhs"), Right: sub("rhs")}
	case "call":
		e.Kind = hir.ExprCall
		an, _ := f.get("args")
		e.Data = hir.CallData{Callee: l.expr(val, s), Args: l.exprs(an, s)}
	case "method":
		e.Kind = hir.ExprMethodCall
		an, _ := f.get("args")
		e.Data = hir.MethodCallData{Receiver: sub("recv"), Method: l.ident(val), Args: l.exprs(an, s)}
	case "field":
		e.Kind = hir.ExprField
		e.Data = hir.FieldData{Object: sub("of"), Name: l.ident(val)}
	case "index":
		e.Kind = hir.ExprIndex
		e.Data = hir.IndexData{Object: l.expr(val, s), Index: sub("at")}
	case "tuple":
		e.Kind = hir.ExprTuple
		e.Data = hir.TupleData{Elems: l.exprs(val, s)}
	case "array":
		e.Kind = hir.ExprArray
		e.Data = hir.ArrayData{Elems: l.exprs(val, s)}
	case "struct":
		e.Kind = hir.ExprStruct
		d := hir.StructExprData{Path: l.path(val, s, "struct path"), Base: optSub("base")}
		if fn, ok := f.get("fields"); ok {
			if fn.Kind != yaml.MappingNode {
				l.errorf(diag.LowMalformedNode, l.span(fn), "struct fields must be a mapping")
			} else {
				for i := 0; i+1 < len(fn.Content); i += 2 {
					d.Fields = append(d.Fields, hir.StructExprField{Name: l.ident(fn.Content[i]), Value: l.expr(fn.Content[i+1], s)})
				}
			}
		}
		e.Data = d
	case "if":
		e.Kind = hir.ExprIf
		then, ok := f.get("then")
		if !ok {
			l.errorf(diag.LowMalformedNode, sp, "if expression needs `then`")
		}
		e.Data = hir.IfData{Cond: l.expr(val, s), Then: l.block(then, s), Else: optSub("else")}
	case "match":
		e.Kind = hir.ExprMatch
		an, _ := f.get("arms")
		e.Data = hir.MatchData{Scrutinee: l.expr(val, s), Arms: l.arms(an, s)}
	case "loop":
		e.Kind = hir.ExprLoop
		e.Data = hir.LoopData{Label: label(), Body: l.block(val, s)}
	case "block":
		e.Kind = hir.ExprBlock
		b := l.block(val, s)
		if l.flag(f, "unsafe") {
			b.Unsafe = true
		}
		e.Data = hir.BlockData{Block: b}
	case "assign":
		e.Kind = hir.ExprAssign
		e.Data = hir.AssignData{Lhs: l.expr(val, s), Rhs: sub("value")}
	case "return":
		e.Kind = hir.ExprReturn
		var v *hir.Expr
		if !isNull(val) {
			v = l.expr(val, s)
		}
		e.Data = hir.ReturnData{Value: v}
	case "break":
		e.Kind = hir.ExprBreak
		var v *hir.Expr
		if !isNull(val) {
			v = l.expr(val, s)
		}
		e.Data = hir.BreakData{Label: label(), Value: v}
	case "continue":
		e.Kind = hir.ExprContinue
		var lb hir.Ident
		if !isNull(val) {
			lb = l.ident(val)
		}
		e.Data = hir.ContinueData{Label: lb}
	case "closure":
		e.Kind = hir.ExprClosure
		e.Data = hir.ClosureData{Closure: l.closure(f, val, s, sp)}
	case "const":
		e.Kind = hir.ExprConstBlock
		e.Data = hir.ConstBlockData{Body: &hir.Body{Value: l.expr(val, newScope(s))}}
	case "cast":
		e.Kind = hir.ExprCast
		tn, ok := f.get("to")
		if !ok {
			l.errorf(diag.LowMalformedNode, sp, "cast expression needs `to`")
		}
		e.Data = hir.CastData{Expr: l.expr(val, s), Ty: l.reqTy(tn, s, sp, "cast type")}
	case "ref":
		e.Kind = hir.ExprRef
		e.Data = hir.RefData{Mutable: l.flag(f, "mut"), Expr: l.expr(val, s)}
	}
	l.done(f, e.Kind.String()+" expression")
	return e
}

func (l *lowerer) exprs(n *yaml.Node, s *scope) []*hir.Expr {
	items := l.seq(n, "expression list")
	out := make([]*hir.Expr, 0, len(items))
	for _, it := range items {
		out = append(out, l.expr(it, s))
	}
	return out
}

// closure lowers `closure: [params]` with its `body`, `ret` and `move`
// keys. The closure gets its own definition under the current owner.
func (l *lowerer) closure(f *fields, params *yaml.Node, s *scope, sp source.Span) *hir.Closure {
	def := l.defs.Create(l.owner, hir.DefPathData{Kind: hir.DataClosure}, hir.DefKindClosure, sp, 0)
	defer l.enter(def)()

	bodyScope := newScope(s)
	ps := l.seq(params, "closure params")
	decl := &hir.FnDecl{Span: l.span(params)}
	body := &hir.Body{Params: make([]*hir.Param, 0, len(ps))}
	for _, pn := range ps {
		param, _, ty := l.param(pn, s, bodyScope, false)
		decl.Inputs = append(decl.Inputs, ty)
		body.Params = append(body.Params, param)
	}
	if rn, ok := f.get("ret"); ok && !isNull(rn) {
		decl.Output = l.ty(rn, s)
		decl.Span = cover(decl.Span, l.span(rn))
	}
	if decl.Span.IsDummy() {
		decl.Span = sp
	}
	bn, ok := f.get("body")
	if !ok {
		l.errorf(diag.LowMissingBody, sp, "closure has no body")
	}
	body.Value = l.expr(bn, bodyScope)
	return &hir.Closure{Def: def, Move: l.flag(f, "move"), Decl: decl, Body: body, Span: sp}
}

func (l *lowerer) arms(n *yaml.Node, s *scope) []*hir.Arm {
	items := l.seq(n, "match arms")
	out := make([]*hir.Arm, 0, len(items))
	for _, it := range items {
		sp := l.span(it)
		f := l.fieldsOf(it, "match arm")
		armScope := newScope(s)
		pn, ok := f.get("pat")
		if !ok {
			l.errorf(diag.LowMalformedNode, sp, "match arm needs `pat`")
		}
		arm := &hir.Arm{Pat: l.pat(pn, armScope), Span: sp}
		if gn, ok := f.get("guard"); ok && !isNull(gn) {
			arm.Guard = l.expr(gn, armScope)
		}
		bn, ok := f.get("body")
		if !ok {
			l.errorf(diag.LowMalformedNode, sp, "match arm needs `body`")
		}
		arm.Body = l.expr(bn, armScope)
		an, _ := f.get("attrs")
		arm.Attrs = l.attrs(an, hir.AttrOuter)
		l.done(f, "match arm")
		out = append(out, arm)
	}
	return out
}

// block lowers a list of statements, a `{stmts, expr, unsafe}` mapping or
// a single expression used as the block's value.
func (l *lowerer) block(n *yaml.Node, s *scope) *hir.Block {
	sp := l.span(n)
	switch {
	case n == nil || isNull(n):
		return &hir.Block{Span: sp}
	case n.Kind == yaml.SequenceNode:
		inner := newScope(s)
		return &hir.Block{Stmts: l.stmts(n.Content, inner), Span: sp}
	case n.Kind == yaml.MappingNode && !hasKey(n, exprKeys...) && hasKey(n, "stmts", "expr"):
		return l.blockOf(l.fieldsOf(n, "block"), s, sp)
	}
	return &hir.Block{Expr: l.expr(n, s), Span: sp}
}

func (l *lowerer) blockOf(f *fields, s *scope, sp source.Span) *hir.Block {
	inner := newScope(s)
	b := &hir.Block{Span: sp, Unsafe: l.flag(f, "unsafe")}
	if sn, ok := f.get("stmts"); ok {
		b.Stmts = l.stmts(l.seq(sn, "stmts"), inner)
	}
	if en, ok := f.get("expr"); ok && !isNull(en) {
		b.Expr = l.expr(en, inner)
	}
	l.done(f, "block")
	return b
}

// stmts lowers the statements of one block. Items are declared first so
// that the whole block can name them.
func (l *lowerer) stmts(nodes []*yaml.Node, s *scope) []*hir.Stmt {
	items := make(map[*yaml.Node]*decl)
	for _, n := range nodes {
		in := mappingValue(n, "item")
		if in == nil {
			continue
		}
		if d := l.declare(in, l.owner, s, ctxBlock); d != nil {
			items[n] = d
		}
	}

	out := make([]*hir.Stmt, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, l.stmt(n, s, items))
	}
	return out
}

func (l *lowerer) stmt(n *yaml.Node, s *scope, items map[*yaml.Node]*decl) *hir.Stmt {
	sp := l.span(n)
	if n.Kind != yaml.MappingNode {
		return &hir.Stmt{Kind: hir.StmtSemi, Span: sp, Data: hir.ExprStmtData{Expr: l.expr(n, s)}}
	}
	if !hasKey(n, stmtKeys...) {
		return &hir.Stmt{Kind: hir.StmtSemi, Span: sp, Data: hir.ExprStmtData{Expr: l.expr(n, s)}}
	}
	f := l.fieldsOf(n, "statement")
	key, val, ok := l.kind(f, "statement", stmtKeys)
	if !ok {
		return &hir.Stmt{Kind: hir.StmtSemi, Span: sp, Data: hir.ExprStmtData{Expr: &hir.Expr{Kind: hir.ExprTuple, Span: sp, Data: hir.TupleData{}}}}
	}
	an, _ := f.get("attrs")
	st := &hir.Stmt{Span: sp, Attrs: l.attrs(an, hir.AttrOuter)}
	switch key {
	case "let":
		st.Kind = hir.StmtLocal
		local := &hir.Local{Span: sp}
		if tn, ok := f.get("ty"); ok {
			local.Ty = l.ty(tn, s)
		}
		if in, ok := f.get("init"); ok {
			local.Init = l.expr(in, s)
		}
		if en, ok := f.get("else"); ok {
			if local.Init == nil {
				l.errorf(diag.LowMalformedNode, l.span(en), "let-else needs `init`")
			}
			local.Else = l.block(en, s)
		}
		// the pattern binds after the initializer is lowered
		local.Pat = l.pat(val, s)
		st.Data = hir.LocalStmtData{Local: local}
	case "item":
		st.Kind = hir.StmtItem
		d, ok := items[n]
		if !ok {
			// declare failed and already reported
			l.errorf(diag.LowMalformedNode, sp, "invalid block item")
			return &hir.Stmt{Kind: hir.StmtSemi, Span: sp, Data: hir.ExprStmtData{Expr: &hir.Expr{Kind: hir.ExprTuple, Span: sp, Data: hir.TupleData{}}}}
		}
		st.Data = hir.ItemStmtData{Item: l.lowerItem(d)}
	case "expr":
		st.Kind = hir.StmtExpr
		st.Data = hir.ExprStmtData{Expr: l.expr(val, s)}
	case "semi":
		st.Kind = hir.StmtSemi
		st.Data = hir.ExprStmtData{Expr: l.expr(val, s)}
	}
	l.done(f, "statement")
	return st
}

// pat lowers a pattern and binds the names it introduces in s.
func (l *lowerer) pat(n *yaml.Node, s *scope) *hir.Pat {
	sp := l.span(n)
	if n == nil || isNull(n) {
		return &hir.Pat{Kind: hir.PatWild, Span: sp}
	}
	switch n.Kind {
	case yaml.ScalarNode:
		switch {
		case n.Value == "_" && !isLitScalar(n):
			return &hir.Pat{Kind: hir.PatWild, Span: sp}
		case isLitScalar(n):
			return &hir.Pat{Kind: hir.PatLit, Span: sp, Data: hir.LitPatData{Lit: l.lit(n)}}
		case l.isPathPat(n.Value, s):
			return &hir.Pat{Kind: hir.PatPath, Span: sp, Data: hir.PathPatData{Path: l.path(n, s, "pattern")}}
		}
		return l.bindingPat(n, s)
	case yaml.SequenceNode:
		return &hir.Pat{Kind: hir.PatTuple, Span: sp, Data: hir.TuplePatData{Elems: l.pats(n, s)}}
	case yaml.MappingNode:
	default:
		l.errorf(diag.LowUnexpectedSyntax, sp, "unexpected pattern node")
		return &hir.Pat{Kind: hir.PatWild, Span: sp}
	}

	f := l.fieldsOf(n, "pattern")
	key, val, ok := l.kind(f, "pattern", patKeys)
	if !ok {
		return &hir.Pat{Kind: hir.PatWild, Span: sp}
	}
	var p *hir.Pat
	switch key {
	case "bind":
		d := hir.BindingPatData{Name: l.ident(val), Mutable: l.flag(f, "mut"), ByRef: l.flag(f, "ref")}
		if sn, ok := f.get("sub"); ok {
			d.Sub = l.pat(sn, s)
		}
		s.bind(val.Value)
		p = &hir.Pat{Kind: hir.PatBinding, Span: sp, Data: d}
	case "tuple":
		p = &hir.Pat{Kind: hir.PatTuple, Span: sp, Data: hir.TuplePatData{Elems: l.pats(val, s)}}
	case "ctor":
		en, _ := f.get("elems")
		p = &hir.Pat{Kind: hir.PatTupleStruct, Span: sp, Data: hir.TupleStructPatData{Path: l.path(val, s, "pattern"), Elems: l.pats(en, s)}}
	case "path":
		p = &hir.Pat{Kind: hir.PatPath, Span: sp, Data: hir.PathPatData{Path: l.path(val, s, "pattern")}}
	case "lit":
		p = &hir.Pat{Kind: hir.PatLit, Span: sp, Data: hir.LitPatData{Lit: l.lit(val)}}
	case "or":
		p = &hir.Pat{Kind: hir.PatOr, Span: sp, Data: hir.OrPatData{Alts: l.pats(val, s)}}
	}
	l.done(f, "pattern")
	return p
}

func (l *lowerer) pats(n *yaml.Node, s *scope) []*hir.Pat {
	items := l.seq(n, "patterns")
	out := make([]*hir.Pat, 0, len(items))
	for _, it := range items {
		out = append(out, l.pat(it, s))
	}
	return out
}

func (l *lowerer) bindingPat(n *yaml.Node, s *scope) *hir.Pat {
	name := l.str(n, "binding")
	if name == "" {
		l.errorf(diag.LowMalformedNode, l.span(n), "binding needs a name")
	}
	s.bind(name)
	return &hir.Pat{Kind: hir.PatBinding, Span: l.span(n), Data: hir.BindingPatData{Name: l.ident(n)}}
}

// isPathPat reports whether a bare pattern name refers to a definition
// (a unit struct, a variant or a constant) rather than binding a local.
func (l *lowerer) isPathPat(name string, s *scope) bool {
	if strings.Contains(name, "::") {
		return true
	}
	r, _ := utf8.DecodeRuneInString(name)
	if !unicode.IsUpper(r) {
		return false
	}
	return l.res.resolve(s, []string{name}).Kind == hir.ResDef
}
