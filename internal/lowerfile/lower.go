// Package lowerfile lowers a YAML description of a crate into HIR.
//
// It stands in for a real front end: each YAML mapping names one item,
// expression, statement, pattern or type by a kind key, and lowering
// creates the definitions, resolves paths with a light lexical scope and
// keeps spans pointing back into the YAML file.
//
//	crate: demo
//	items:
//	  - fn: add
//	    params: [{name: a, ty: i32}, {name: b, ty: i32}]
//	    ret: i32
//	    body: {binary: "+", lhs: a, rhs: b}
//
// See testdata/ for the full format.
package lowerfile

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"fortio.org/safecast"
	"gopkg.in/yaml.v3"

	"hirindex/internal/diag"
	"hirindex/internal/hir"
	"hirindex/internal/source"
)

// ErrLowering is returned when the file had errors. Details are reported
// through the diag.Reporter.
var ErrLowering = errors.New("lowering failed")

type lowerer struct {
	files   *source.FileSet
	file    source.FileID
	rep     diag.Reporter
	strings *source.Interner
	defs    *hir.Definitions
	res     *resolver
	errors  int

	// owner is the definition new block items and closures belong to.
	owner hir.DefID
}

// LowerFile loads path into files and lowers it.
func LowerFile(files *source.FileSet, path string, rep diag.Reporter) (*hir.Crate, error) {
	id, err := files.Load(path)
	if err != nil {
		rep.Report(diag.IOLoadFileError, diag.SevError, source.DummySpan, err.Error(), nil)
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return Lower(files, id, rep)
}

// LowerSource adds content as a virtual file and lowers it.
func LowerSource(files *source.FileSet, name string, content []byte, rep diag.Reporter) (*hir.Crate, error) {
	return Lower(files, files.AddVirtual(name, content), rep)
}

// Lower lowers the YAML file id of files into a crate.
func Lower(files *source.FileSet, id source.FileID, rep diag.Reporter) (*hir.Crate, error) {
	f := files.Get(id)
	if f == nil {
		return nil, fmt.Errorf("lower: unknown file %d", id)
	}
	if rep == nil {
		rep = diag.NopReporter{}
	}
	l := &lowerer{
		files:   files,
		file:    id,
		rep:     rep,
		strings: source.NewInterner(),
		res:     newResolver(),
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(f.Content, &doc); err != nil {
		l.errorf(diag.LowUnexpectedSyntax, source.Span{File: id}, "invalid YAML: %v", err)
		return nil, ErrLowering
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 {
		l.errorf(diag.LowMalformedNode, source.Span{File: id}, "expected a single YAML document")
		return nil, ErrLowering
	}

	crate := l.lowerCrate(doc.Content[0])
	if l.errors > 0 {
		return nil, ErrLowering
	}
	return crate, nil
}

func (l *lowerer) errorf(code diag.Code, sp source.Span, format string, args ...any) {
	l.errors++
	l.rep.Report(code, diag.SevError, sp, fmt.Sprintf(format, args...), nil)
}

func (l *lowerer) warnf(code diag.Code, sp source.Span, format string, args ...any) {
	l.rep.Report(code, diag.SevWarning, sp, fmt.Sprintf(format, args...), nil)
}

func (l *lowerer) offset(line, col int) uint32 {
	ln, err := safecast.Conv[uint32](line)
	if err != nil {
		return 0
	}
	cl, err := safecast.Conv[uint32](col)
	if err != nil {
		return 0
	}
	return l.files.Offset(l.file, source.LineCol{Line: ln, Col: cl})
}

// span covers n and everything nested in it. yaml.v3 records only start
// positions, so the end is taken from the last scalar inside n.
func (l *lowerer) span(n *yaml.Node) source.Span {
	if n == nil {
		return source.DummySpan
	}
	start := l.offset(n.Line, n.Column)
	end := l.nodeEnd(n)
	if end < start {
		end = start
	}
	return source.Span{File: l.file, Start: start, End: end}
}

func (l *lowerer) nodeEnd(n *yaml.Node) uint32 {
	switch n.Kind {
	case yaml.ScalarNode:
		width := len(n.Value)
		if n.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0 {
			width += 2
		}
		w, err := safecast.Conv[uint32](width)
		if err != nil {
			w = 0
		}
		return l.offset(n.Line, n.Column) + w
	case yaml.AliasNode:
		return l.offset(n.Line, n.Column) + 1
	default:
		end := l.offset(n.Line, n.Column)
		for _, c := range n.Content {
			if e := l.nodeEnd(c); e > end {
				end = e
			}
		}
		return end
	}
}

func (l *lowerer) ident(n *yaml.Node) hir.Ident {
	if n == nil || n.Kind != yaml.ScalarNode || n.Value == "" {
		return hir.Ident{Span: l.span(n)}
	}
	return hir.Ident{Name: l.strings.Intern(n.Value), Span: l.span(n)}
}

func (l *lowerer) identText(s string, sp source.Span) hir.Ident {
	if s == "" {
		return hir.Ident{Span: sp}
	}
	return hir.Ident{Name: l.strings.Intern(s), Span: sp}
}

// fields is a checked view of a mapping node. Keys that are never read are
// reported by done.
type fields struct {
	node *yaml.Node
	keys []string
	vals map[string]*yaml.Node
	kns  map[string]*yaml.Node
	used map[string]bool
}

func (l *lowerer) fieldsOf(n *yaml.Node, what string) *fields {
	f := &fields{
		node: n,
		vals: make(map[string]*yaml.Node),
		kns:  make(map[string]*yaml.Node),
		used: make(map[string]bool),
	}
	if n == nil || n.Kind != yaml.MappingNode {
		l.errorf(diag.LowMalformedNode, l.span(n), "%s must be a mapping", what)
		return f
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if _, dup := f.vals[k.Value]; dup {
			l.errorf(diag.LowMalformedNode, l.span(k), "duplicate key %q in %s", k.Value, what)
			continue
		}
		f.keys = append(f.keys, k.Value)
		f.vals[k.Value] = v
		f.kns[k.Value] = k
	}
	return f
}

func (f *fields) get(key string) (*yaml.Node, bool) {
	v, ok := f.vals[key]
	if ok {
		f.used[key] = true
	}
	return v, ok
}

func (f *fields) has(key string) bool {
	_, ok := f.vals[key]
	return ok
}

// kind finds the single key of f that is one of candidates.
func (l *lowerer) kind(f *fields, what string, candidates []string) (string, *yaml.Node, bool) {
	var found []string
	for _, k := range f.keys {
		if slices.Contains(candidates, k) {
			found = append(found, k)
		}
	}
	switch len(found) {
	case 1:
		v, _ := f.get(found[0])
		return found[0], v, true
	case 0:
		l.errorf(diag.LowMalformedNode, l.span(f.node), "%s needs one of: %s", what, strings.Join(candidates, ", "))
	default:
		l.errorf(diag.LowMalformedNode, l.span(f.node), "%s has several kinds: %s", what, strings.Join(found, ", "))
	}
	return "", nil, false
}

func (l *lowerer) done(f *fields, what string) {
	for _, k := range f.keys {
		if !f.used[k] {
			l.errorf(diag.LowUnknownKey, l.span(f.kns[k]), "unknown key %q in %s", k, what)
		}
	}
}

func (l *lowerer) seq(n *yaml.Node, what string) []*yaml.Node {
	if n == nil || n.ShortTag() == "!!null" {
		return nil
	}
	if n.Kind != yaml.SequenceNode {
		l.errorf(diag.LowMalformedNode, l.span(n), "%s must be a list", what)
		return nil
	}
	return n.Content
}

func (l *lowerer) str(n *yaml.Node, what string) string {
	if n == nil || n.ShortTag() == "!!null" {
		return ""
	}
	if n.Kind != yaml.ScalarNode {
		l.errorf(diag.LowMalformedNode, l.span(n), "%s must be a scalar", what)
		return ""
	}
	return n.Value
}

func (l *lowerer) flag(f *fields, key string) bool {
	n, ok := f.get(key)
	if !ok {
		return false
	}
	var b bool
	if err := n.Decode(&b); err != nil {
		l.errorf(diag.LowMalformedNode, l.span(n), "%s must be true or false", key)
	}
	return b
}

func isNull(n *yaml.Node) bool {
	return n == nil || (n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null")
}
