package driver

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"hirindex/internal/bug"
	"hirindex/internal/fingerprint"
	"hirindex/internal/hir"
)

// OwnerSummary describes one indexed owner.
type OwnerSummary struct {
	Def  hir.DefID
	Path string
	Kind hir.DefKind
	// Hash is the identity of the owner nodes, NodeHash that of the owner.
	Hash     fingerprint.Fingerprint
	NodeHash fingerprint.Fingerprint
	Nodes    int
	Parent   hir.HirID
}

// IndexAll indexes every owner of the loaded crate with at most
// Config.Jobs() workers and returns the summaries in DefID order.
//
// An ICE is charged to the owner that raised it: it is recorded in the bag,
// the owner is left out of the result and the others are still indexed.
// The ICEs are joined into the returned error. Owners not yet started when
// ctx is cancelled are skipped.
func (s *Session) IndexAll(ctx context.Context) ([]OwnerSummary, error) {
	if s.crate == nil {
		return nil, ErrNoCrate
	}
	owners := s.crate.OwnerDefs()
	done := s.phase("index")

	// каждая горутина пишет только в свой индекс
	results := make([]OwnerSummary, len(owners))
	ices := make([]*bug.ICE, len(owners))
	indexed := make([]bool, len(owners))

	var g errgroup.Group
	g.SetLimit(min(s.Config.Jobs(), max(len(owners), 1)))
	for i, def := range owners {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			path := s.crate.Defs.DefPath(def)
			s.emit(path, OwnerIndexing)
			if ice := bug.Catch(func() { results[i] = s.summarize(def) }); ice != nil {
				ices[i] = ice
				s.emit(path, OwnerFailed)
				return nil
			}
			indexed[i] = true
			s.emit(path, OwnerDone)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // workers never return an error
	done(len(owners))

	out := make([]OwnerSummary, 0, len(owners))
	var errs []error
	for i := range owners {
		if ices[i] != nil {
			s.ReportICE(ices[i])
			errs = append(errs, ices[i])
		}
		if indexed[i] {
			out = append(out, results[i])
		}
	}
	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return out, fmt.Errorf("index %s: %w", s.crate.Name, err)
	}
	return out, nil
}

func (s *Session) summarize(def hir.DefID) OwnerSummary {
	nodes, ok := s.q.HirOwnerNodes(def)
	if !ok {
		bug.Bugf("owner %s was not indexed", s.crate.Defs.DefPath(def))
	}
	owner, _ := s.q.HirOwner(def)
	kind, _ := s.q.OptDefKind(def)
	return OwnerSummary{
		Def:      def,
		Path:     s.crate.Defs.DefPath(def),
		Kind:     kind,
		Hash:     nodes.StableFingerprint(),
		NodeHash: owner.StableFingerprint(),
		Nodes:    nodes.Len(),
		Parent:   s.q.HirOwnerParent(def),
	}
}

// CrateHash computes the crate fingerprint. Owners not yet indexed are
// indexed on demand.
func (s *Session) CrateHash() (fingerprint.Fingerprint, error) {
	var fp fingerprint.Fingerprint
	err := s.Guard(func() {
		done := s.phase("crate_hash")
		fp = s.q.CrateHash()
		done(len(s.crate.OwnerDefs()))
	})
	return fp, err
}
