package lowerfile

import (
	"strings"

	"gopkg.in/yaml.v3"

	"hirindex/internal/diag"
	"hirindex/internal/hir"
)

var primitives = map[string]bool{
	"bool": true, "char": true, "str": true,
	"i8": true, "i16": true, "i32": true, "i64": true, "i128": true, "isize": true,
	"u8": true, "u16": true, "u32": true, "u64": true, "u128": true, "usize": true,
	"f32": true, "f64": true,
}

// scope is one level of lexical name lookup. Module scopes carry the
// module's items; block scopes carry items declared in the block and the
// locals bound so far.
type scope struct {
	parent  *scope
	module  bool
	def     hir.DefID // module def for module scopes
	items   map[string]hir.DefID
	locals  map[string]bool
	self    hir.DefID
	hasSelf bool
	// barrier hides the locals of enclosing scopes, as at an item boundary.
	barrier bool
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, items: make(map[string]hir.DefID), locals: make(map[string]bool)}
}

func (s *scope) bind(name string) {
	if name != "" && name != "_" {
		s.locals[name] = true
	}
}

func (s *scope) enclosingModule() *scope {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.module {
			return cur
		}
	}
	return nil
}

func (s *scope) lookupLocal(name string) bool {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.locals[name] {
			return true
		}
		if cur.module || cur.barrier {
			return false
		}
	}
	return false
}

func (s *scope) lookupItem(name string) (hir.DefID, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if def, ok := cur.items[name]; ok {
			return def, true
		}
	}
	return 0, false
}

func (s *scope) selfDef() (hir.DefID, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.hasSelf {
			return cur.self, true
		}
	}
	return 0, false
}

// resolver holds the member tables used to follow multi-segment paths.
type resolver struct {
	members   map[hir.DefID]map[string]hir.DefID
	modParent map[hir.DefID]hir.DefID
}

func newResolver() *resolver {
	return &resolver{
		members:   make(map[hir.DefID]map[string]hir.DefID),
		modParent: make(map[hir.DefID]hir.DefID),
	}
}

func (r *resolver) addMember(parent hir.DefID, name string, def hir.DefID) {
	m := r.members[parent]
	if m == nil {
		m = make(map[string]hir.DefID)
		r.members[parent] = m
	}
	m[name] = def
}

// resolve resolves a path given as `a::b::c`. Segments past a definition
// without members (an enum variant, an associated item) resolve to the
// last definition found.
func (r *resolver) resolve(s *scope, segs []string) hir.Res {
	if len(segs) == 0 {
		return hir.Res{Kind: hir.ResErr}
	}
	first := segs[0]
	if len(segs) == 1 {
		if s.lookupLocal(first) {
			return hir.Res{Kind: hir.ResLocal}
		}
	}

	var def hir.DefID
	switch {
	case first == "crate":
		def = hir.CrateDefID
	case first == "self" && len(segs) > 1:
		m := s.enclosingModule()
		if m == nil {
			return hir.Res{Kind: hir.ResErr}
		}
		def = m.def
	case first == "super":
		m := s.enclosingModule()
		if m == nil {
			return hir.Res{Kind: hir.ResErr}
		}
		p, ok := r.modParent[m.def]
		if !ok {
			return hir.Res{Kind: hir.ResErr}
		}
		def = p
	case first == "Self":
		d, ok := s.selfDef()
		if !ok {
			return hir.Res{Kind: hir.ResErr}
		}
		def = d
	default:
		d, ok := s.lookupItem(first)
		if !ok {
			if len(segs) == 1 && primitives[first] {
				return hir.Res{Kind: hir.ResPrim}
			}
			return hir.Res{Kind: hir.ResErr}
		}
		def = d
	}

	for _, seg := range segs[1:] {
		next, ok := r.members[def][seg]
		if !ok {
			break
		}
		def = next
	}
	return hir.Res{Kind: hir.ResDef, Def: def}
}

// path lowers a `a::b::c` scalar into a resolved path.
func (l *lowerer) path(n *yaml.Node, s *scope, what string) hir.Path {
	text := l.str(n, what)
	sp := l.span(n)
	if text == "" {
		l.errorf(diag.LowMalformedNode, sp, "%s: empty path", what)
		return hir.Path{Span: sp, Res: hir.Res{Kind: hir.ResErr}}
	}
	parts := strings.Split(text, "::")
	segs := make([]hir.Ident, len(parts))
	for i, p := range parts {
		segs[i] = l.identText(p, sp)
	}
	return hir.Path{Segments: segs, Res: l.res.resolve(s, parts), Span: sp}
}
