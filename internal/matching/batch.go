package matching

import (
	"context"
	"runtime"

	"github.com/spigell/talent-matcher/internal/talent"
	"golang.org/x/sync/errgroup"
)

// ScoreAll rescores every candidate against req in parallel. Results keep the
// order of candidates. Once ctx is done no further pairs are started and the
// context error is returned.
func (m *Matcher) ScoreAll(ctx context.Context, req *talent.Requirement, candidates []*talent.Candidate, workers int) ([]*talent.ScoredCandidate, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	out := make([]*talent.ScoredCandidate, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, cand := range candidates {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = &talent.ScoredCandidate{Candidate: cand, Result: m.Match(req, cand)}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// ScorePool rescores candidates and returns them as a pool for req.
func (m *Matcher) ScorePool(ctx context.Context, req *talent.Requirement, candidates []*talent.Candidate, workers int) (*talent.Pool, error) {
	items, err := m.ScoreAll(ctx, req, candidates, workers)
	if err != nil {
		return nil, err
	}
	return &talent.Pool{RequirementID: req.ID, Items: items}, nil
}
