package hir

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"hirindex/internal/bug"
	"hirindex/internal/fingerprint"
	"hirindex/internal/source"
)

// DefKind classifies a definition.
type DefKind uint8

const (
	// DefKindNone marks synthetic definitions with no kind of their own.
	DefKindNone DefKind = iota
	DefKindMod
	DefKindFn
	DefKindConst
	DefKindStatic
	DefKindStruct
	DefKindEnum
	DefKindTrait
	DefKindImpl
	DefKindTyAlias
	DefKindForeignMod
	DefKindUse
	// DefKindAssocFn is a function inside a trait or an impl.
	DefKindAssocFn
	DefKindAssocConst
	DefKindAssocTy
	DefKindForeignFn
	DefKindForeignStatic
	DefKindForeignTy
	DefKindClosure
)

var defKindNames = [...]string{
	DefKindNone:          "none",
	DefKindMod:           "mod",
	DefKindFn:            "fn",
	DefKindConst:         "const",
	DefKindStatic:        "static",
	DefKindStruct:        "struct",
	DefKindEnum:          "enum",
	DefKindTrait:         "trait",
	DefKindImpl:          "impl",
	DefKindTyAlias:       "type",
	DefKindForeignMod:    "extern",
	DefKindUse:           "use",
	DefKindAssocFn:       "assoc fn",
	DefKindAssocConst:    "assoc const",
	DefKindAssocTy:       "assoc type",
	DefKindForeignFn:     "foreign fn",
	DefKindForeignStatic: "foreign static",
	DefKindForeignTy:     "foreign type",
	DefKindClosure:       "closure",
}

func (k DefKind) String() string {
	if int(k) < len(defKindNames) {
		return defKindNames[k]
	}
	return "unknown"
}

// DefPathDataKind is the namespace component of a def path segment.
type DefPathDataKind uint8

const (
	DataCrateRoot DefPathDataKind = iota
	DataTypeNs
	DataValueNs
	DataImpl
	DataForeignMod
	DataUse
	DataClosure
)

// DefPathData is one segment of a def path. Anonymous segments have no name.
type DefPathData struct {
	Kind DefPathDataKind
	Name string
}

func (d DefPathData) String() string {
	switch d.Kind {
	case DataCrateRoot:
		return "crate"
	case DataImpl:
		return "{impl}"
	case DataForeignMod:
		return "{extern}"
	case DataUse:
		return "{use}"
	case DataClosure:
		return "{closure}"
	default:
		return d.Name
	}
}

// DefKey locates a definition relative to its parent. Disambiguator tells
// apart siblings with equal data, in creation order.
type DefKey struct {
	Parent        DefID
	HasParent     bool
	Data          DefPathData
	Disambiguator uint32
}

type defEntry struct {
	key  DefKey
	kind DefKind
	span source.Span
	expn ExpnID
	hash fingerprint.Fingerprint
}

type siblingKey struct {
	parent DefID
	data   DefPathData
}

// Definitions is the table of every definition in the crate. Lowering fills
// it with Create; it is read-only afterwards.
type Definitions struct {
	crateName string
	defs      []defEntry
	next      map[siblingKey]uint32
	byPath    map[string]DefID
}

// NewDefinitions creates the table with the crate root module as CrateDefID.
func NewDefinitions(crateName string, rootSpan source.Span) *Definitions {
	d := &Definitions{
		crateName: crateName,
		next:      make(map[siblingKey]uint32),
		byPath:    make(map[string]DefID),
	}
	key := DefKey{Data: DefPathData{Kind: DataCrateRoot}}
	h := fingerprint.New("hir.defpath")
	h.String(crateName)
	hashDefKey(h, key)
	d.defs = append(d.defs, defEntry{key: key, kind: DefKindMod, span: rootSpan, hash: h.Finish()})
	d.byPath["crate"] = CrateDefID
	return d
}

// Create registers a new definition under parent and returns its id.
func (d *Definitions) Create(parent DefID, data DefPathData, kind DefKind, span source.Span, expn ExpnID) DefID {
	if int(parent) >= len(d.defs) {
		bug.SpanBugf(span, "create def %q: unknown parent %d", data, parent)
	}
	id, err := safecast.Conv[DefID](len(d.defs))
	if err != nil {
		bug.SpanBugf(span, "create def %q: definition table overflow", data)
	}
	sk := siblingKey{parent: parent, data: data}
	dis := d.next[sk]
	d.next[sk] = dis + 1

	key := DefKey{Parent: parent, HasParent: true, Data: data, Disambiguator: dis}
	h := fingerprint.New("hir.defpath")
	h.Bytes(d.defs[parent].hash[:])
	hashDefKey(h, key)
	d.defs = append(d.defs, defEntry{key: key, kind: kind, span: span, expn: expn, hash: h.Finish()})
	d.byPath[d.DefPath(id)] = id
	return id
}

func hashDefKey(h *fingerprint.Hasher, key DefKey) {
	h.Uint8(uint8(key.Data.Kind))
	h.String(key.Data.Name)
	h.Uint32(key.Disambiguator)
}

// Len returns the number of definitions including the crate root.
func (d *Definitions) Len() int { return len(d.defs) }

// CrateName returns the name the table was created with.
func (d *Definitions) CrateName() string { return d.crateName }

func (d *Definitions) entry(id DefID) *defEntry {
	if int(id) >= len(d.defs) {
		bug.Bugf("unknown definition %d (table has %d)", id, len(d.defs))
	}
	return &d.defs[id]
}

// Has reports whether id names a definition.
func (d *Definitions) Has(id DefID) bool { return int(id) < len(d.defs) }

func (d *Definitions) DefKey(id DefID) DefKey { return d.entry(id).key }

// Parent returns the definition parent. The crate root has none.
func (d *Definitions) Parent(id DefID) (DefID, bool) {
	k := d.entry(id).key
	return k.Parent, k.HasParent
}

// OptDefKind returns the kind of id; false for synthetic definitions.
func (d *Definitions) OptDefKind(id DefID) (DefKind, bool) {
	if !d.Has(id) {
		return DefKindNone, false
	}
	k := d.defs[id].kind
	return k, k != DefKindNone
}

// DefSpan returns the span recorded at creation, or false when lowering
// had none.
func (d *Definitions) DefSpan(id DefID) (source.Span, bool) {
	if !d.Has(id) {
		return source.DummySpan, false
	}
	sp := d.defs[id].span
	return sp, !sp.IsDummy()
}

func (d *Definitions) ExpansionThatDefined(id DefID) ExpnID {
	if !d.Has(id) {
		return RootExpn
	}
	return d.defs[id].expn
}

// DefPathHash is the stable identity of id across compilation sessions.
// It depends only on the crate name and the chain of DefKeys to the root.
func (d *Definitions) DefPathHash(id DefID) fingerprint.Fingerprint {
	return d.entry(id).hash
}

// DefPath renders the path of id, e.g. "crate::shapes::{impl#0}::area".
func (d *Definitions) DefPath(id DefID) string {
	var segs []string
	for {
		k := d.entry(id).key
		seg := k.Data.String()
		if k.HasParent && (k.Data.Name == "" || k.Disambiguator > 0) {
			seg = fmt.Sprintf("%s#%d", strings.TrimSuffix(seg, "}"), k.Disambiguator)
			if k.Data.Name == "" {
				seg += "}"
			}
		}
		segs = append(segs, seg)
		if !k.HasParent {
			break
		}
		id = k.Parent
	}
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	return strings.Join(segs, "::")
}

// Lookup finds a definition by its DefPath.
func (d *Definitions) Lookup(path string) (DefID, bool) {
	id, ok := d.byPath[path]
	return id, ok
}

// All yields every DefID in creation order.
func (d *Definitions) All(yield func(DefID) bool) {
	for i := range d.defs {
		id, err := safecast.Conv[DefID](i)
		if err != nil || !yield(id) {
			return
		}
	}
}
