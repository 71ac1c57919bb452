package driver

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"hirindex/internal/bug"
	"hirindex/internal/config"
	"hirindex/internal/hir"
	"hirindex/internal/hirmap"
	"hirindex/internal/lowerfile"
	"hirindex/internal/query"
)

const geoSrc = `
crate: geo
items:
  - struct: Point
    fields: [{name: x, ty: i64}, {name: y, ty: i64}]
  - fn: dist
    attrs: [inline]
    params: [{name: a, ty: Point}, {name: b, ty: Point}]
    ret: i64
    body: {binary: "-", lhs: {field: x, of: a}, rhs: {field: x, of: b}}
  - fn: origin
    ret: i64
    body: 0
  - mod: util
    items:
      - const: ONE
        ty: i64
        value: 1
`

func newSession(t *testing.T, jobs int, src string) *Session {
	t.Helper()
	cfg := config.Default()
	cfg.Driver.Jobs = jobs
	s := NewSession(context.Background(), cfg)
	t.Cleanup(s.Close)
	if err := s.LoadSource(context.Background(), "geo.yaml", []byte(src)); err != nil {
		for _, d := range s.Bag.Items() {
			t.Log(d.Code.ID(), d.Message)
		}
		t.Fatalf("load: %v", err)
	}
	return s
}

func snapshot(t *testing.T, s *Session) *Snapshot {
	t.Helper()
	owners, err := s.IndexAll(context.Background())
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	fp, err := s.CrateHash()
	if err != nil {
		t.Fatalf("crate hash: %v", err)
	}
	return NewSnapshot(s.ID.String(), s.Crate().Name, s.Config.Hashing.Spans, fp, owners)
}

func TestIndexAllSummaries(t *testing.T) {
	s := newSession(t, 4, geoSrc)
	owners, err := s.IndexAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(owners) != len(s.Crate().OwnerDefs()) {
		t.Fatalf("got %d summaries for %d owners", len(owners), len(s.Crate().OwnerDefs()))
	}
	if !slices.IsSortedFunc(owners, func(a, b OwnerSummary) int { return int(a.Def) - int(b.Def) }) {
		t.Fatal("summaries are not in DefID order")
	}
	root := owners[0]
	if root.Def != hir.CrateDefID || root.Parent != hir.CrateHirID || root.Kind != hir.DefKindMod {
		t.Fatalf("root summary = %+v", root)
	}
	for _, o := range owners {
		if o.Hash.IsZero() || o.NodeHash.IsZero() || o.Nodes == 0 {
			t.Errorf("%s: empty summary %+v", o.Path, o)
		}
	}
	if n := s.Query().Computations("index_hir"); n != int64(len(owners)) {
		t.Fatalf("index_hir ran %d times for %d owners", n, len(owners))
	}
}

func TestIndexAllIgnoresJobCount(t *testing.T) {
	one := snapshot(t, newSession(t, 1, geoSrc))
	many := snapshot(t, newSession(t, 8, geoSrc))
	if one.CrateHash != many.CrateHash {
		t.Fatal("crate hash depends on the job count")
	}
	if !slices.Equal(one.Owners, many.Owners) {
		t.Fatal("owner records depend on the job count")
	}
}

func TestDiffClassifiesOwners(t *testing.T) {
	prev := snapshot(t, newSession(t, 2, geoSrc))

	edited := strings.NewReplacer(
		// body edit
		`body: 0`, `body: 7`,
		// signature edit
		`ret: i64
    body: {binary`, `ret: i32
    body: {binary`,
		// removal and addition
		`const: ONE`, `const: TWO`,
	).Replace(geoSrc)
	cur := snapshot(t, newSession(t, 2, edited))

	rep := Diff(prev, cur)
	want := []Change{
		{Path: "crate::dist", Kind: SignatureChanged},
		{Path: "crate::origin", Kind: Changed},
		// the module lists its items by definition
		{Path: "crate::util", Kind: SignatureChanged},
		{Path: "crate::util::ONE", Kind: Removed},
		{Path: "crate::util::TWO", Kind: Added},
	}
	if !slices.Equal(rep.Changes, want) {
		t.Fatalf("changes = %+v, want %+v", rep.Changes, want)
	}
	if !rep.CrateMoved || rep.Incomparable {
		t.Fatalf("report = %+v", rep)
	}
	if rep.Count(Added) != 1 || rep.Unchanged == 0 {
		t.Fatalf("report = %+v", rep)
	}

	same := Diff(cur, snapshot(t, newSession(t, 2, edited)))
	if !same.Empty() {
		t.Fatalf("identical input reported %+v", same.Changes)
	}
	if first := Diff(nil, cur); first.Count(Added) != len(cur.Owners) {
		t.Fatalf("first run reported %+v", first.Changes)
	}
}

func TestDiskCacheRoundTrip(t *testing.T) {
	c, err := OpenDiskCache(t.TempDir(), "hirindex")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok, err := c.Get("geo"); ok || err != nil {
		t.Fatalf("empty cache: ok=%v err=%v", ok, err)
	}

	snap := snapshot(t, newSession(t, 2, geoSrc))
	if err := c.Put(snap); err != nil {
		t.Fatal(err)
	}
	got, ok, err := c.Get("geo")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.CrateHash != snap.CrateHash || got.Session != snap.Session || !slices.Equal(got.Owners, snap.Owners) {
		t.Fatal("snapshot changed on disk")
	}

	snap.Schema++
	if err := c.Put(snap); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.Get("geo"); ok {
		t.Fatal("snapshot from another schema must be ignored")
	}

	if err := c.DropAll(); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.Get("geo"); ok {
		t.Fatal("DropAll kept the snapshot")
	}
}

func TestManifestIsCanonical(t *testing.T) {
	a := snapshot(t, newSession(t, 1, geoSrc))
	b := snapshot(t, newSession(t, 4, geoSrc))
	if a.Session == b.Session {
		t.Fatal("sessions should have distinct ids")
	}

	var bufA, bufB bytes.Buffer
	if err := WriteManifest(&bufA, a); err != nil {
		t.Fatal(err)
	}
	if err := WriteManifest(&bufB, b); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(bufA.Bytes(), bufB.Bytes()) {
		t.Fatal("manifests of the same crate differ")
	}

	back, err := UnmarshalManifest(bufA.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if back.CrateHash != a.CrateHash || back.Session != "" || !slices.Equal(back.Owners, a.Owners) {
		t.Fatalf("round trip = %+v", back)
	}
}

func TestLoadErrorsLandInBag(t *testing.T) {
	s := NewSession(context.Background(), config.Default())
	defer s.Close()
	err := s.LoadSource(context.Background(), "bad.yaml", []byte("crate: bad\nitems:\n  - fn: f\n"))
	if !errors.Is(err, lowerfile.ErrLowering) {
		t.Fatalf("err = %v", err)
	}
	if !s.Bag.HasErrors() || s.Bag.HasICE() {
		t.Fatal("expected a user error in the bag")
	}
	if _, err := s.IndexAll(context.Background()); !errors.Is(err, ErrNoCrate) {
		t.Fatalf("IndexAll without crate: %v", err)
	}
}

func TestGuardRecordsICE(t *testing.T) {
	s := newSession(t, 1, geoSrc)
	err := s.Guard(func() { bug.Bugf("owner %d has no root", 3) })
	var ice *bug.ICE
	if !errors.As(err, &ice) || ice.Message != "owner 3 has no root" {
		t.Fatalf("err = %v", err)
	}
	if !s.Bag.HasICE() {
		t.Fatal("ICE not recorded")
	}
}

func TestResolve(t *testing.T) {
	s := newSession(t, 1, geoSrc)
	def, err := s.Resolve("crate::util::ONE")
	if err != nil {
		t.Fatal(err)
	}
	if kind, _ := s.Query().OptDefKind(def); kind != hir.DefKindConst {
		t.Fatalf("kind = %v", kind)
	}
	if _, err := s.Resolve("crate::nope"); !errors.Is(err, ErrUnknownPath) {
		t.Fatalf("err = %v", err)
	}
}

func TestPhasesAreObservedAndTimed(t *testing.T) {
	cfg := config.Default()
	s := NewSession(context.Background(), cfg)
	defer s.Close()
	var events []string
	s.Observer = func(ev PhaseEvent) {
		status := "start"
		if ev.Status == PhaseEnd {
			status = "end"
		}
		events = append(events, ev.Name+":"+status)
	}
	if err := s.LoadSource(context.Background(), "geo.yaml", []byte(geoSrc)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.IndexAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	want := []string{"load:start", "load:end", "index:start", "index:end"}
	if !slices.Equal(events, want) {
		t.Fatalf("events = %v", events)
	}

	s.AppendTimings()
	items := s.Bag.Items()
	last := items[len(items)-1]
	if last.Code.ID() != "OBS8001" || len(last.Notes) != 1 || !strings.Contains(last.Notes[0].Msg, `"index"`) {
		t.Fatalf("timing diagnostic = %+v", last)
	}
}

func TestIndexAllReportsProgress(t *testing.T) {
	s := newSession(t, 3, geoSrc)
	owners := len(s.Crate().OwnerDefs())
	ch := make(chan ProgressEvent, 2*owners)
	s.Progress = ChannelSink{Ch: ch}
	if _, err := s.IndexAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	close(ch)

	status := make(map[string]OwnerStatus)
	for ev := range ch {
		if prev, ok := status[ev.Path]; ok && prev != OwnerIndexing {
			t.Fatalf("%s: %v after %v", ev.Path, ev.Status, prev)
		}
		status[ev.Path] = ev.Status
	}
	if len(status) != owners {
		t.Fatalf("progress for %d of %d owners", len(status), owners)
	}
	for path, st := range status {
		if st != OwnerDone {
			t.Errorf("%s ended as %v", path, st)
		}
	}
}

// breakOwner rebuilds the query context of s so that indexing path raises
// an ICE.
func breakOwner(t *testing.T, s *Session, path string) {
	t.Helper()
	broken, err := s.Resolve(path)
	if err != nil {
		t.Fatal(err)
	}
	p := &query.Providers{}
	hirmap.Provide(p)
	index := p.IndexHir
	p.IndexHir = func(q *query.Ctx, def hir.DefID) (*hir.IndexedHir, bool) {
		if def == broken {
			bug.Bugf("%s has no root", path)
		}
		return index(q, def)
	}
	s.q = query.NewCtx(context.Background(), p, s.crate, s.q.Hashing())
}

func TestIndexAllChargesICEToItsOwner(t *testing.T) {
	s := newSession(t, 1, geoSrc)
	breakOwner(t, s, "crate::dist")
	total := len(s.Crate().OwnerDefs())
	ch := make(chan ProgressEvent, 2*total)
	s.Progress = ChannelSink{Ch: ch}

	owners, err := s.IndexAll(context.Background())
	close(ch)
	var ice *bug.ICE
	if !errors.As(err, &ice) || !strings.Contains(ice.Message, "crate::dist") {
		t.Fatalf("err = %v", err)
	}
	if !s.Bag.HasICE() {
		t.Fatal("ICE not recorded")
	}

	var failed []string
	for ev := range ch {
		if ev.Status == OwnerFailed {
			failed = append(failed, ev.Path)
		}
	}
	if !slices.Equal(failed, []string{"crate::dist"}) {
		t.Fatalf("reported failed: %v", failed)
	}
	if len(owners) != total-1 {
		t.Fatalf("got %d summaries, want %d", len(owners), total-1)
	}
	for _, o := range owners {
		if o.Path == "crate::dist" || o.Hash.IsZero() {
			t.Errorf("unexpected summary %+v", o)
		}
	}
}

func TestIndexAllSkipsOwnersAfterCancel(t *testing.T) {
	s := newSession(t, 1, geoSrc)
	ch := make(chan ProgressEvent, 2*len(s.Crate().OwnerDefs()))
	s.Progress = ChannelSink{Ch: ch}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	owners, err := s.IndexAll(ctx)
	close(ch)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if len(owners) != 0 {
		t.Fatalf("indexed %d owners after cancel", len(owners))
	}
	for ev := range ch {
		t.Errorf("skipped owner reported %s as %v", ev.Path, ev.Status)
	}
	if s.Bag.HasICE() {
		t.Fatal("cancel recorded as ICE")
	}
}

func TestSummariesUseStableFingerprints(t *testing.T) {
	s := newSession(t, 2, geoSrc)
	owners, err := s.IndexAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for _, o := range owners {
		owner, _ := s.Query().HirOwner(o.Def)
		nodes, _ := s.Query().HirOwnerNodes(o.Def)
		if o.NodeHash != owner.StableFingerprint() || o.Hash != nodes.StableFingerprint() {
			t.Errorf("%s: summary %+v does not match owner identities", o.Path, o)
		}
	}
}
