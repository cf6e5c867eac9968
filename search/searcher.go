package search

import (
	"github.com/stormgo/golucene/index"
)

// IndexSearcher runs queries against a reader (one segment or a
// multi-segment MultiReader), computing collection-wide weights once and
// scoring each segment independently (§4.K, glossary "IndexSearcher").
type IndexSearcher struct {
	Reader     index.IndexReader
	Similarity Similarity
	// Executor, when set, makes SearchParallel fan one task out per leaf
	// instead of walking leaves in sequence (§4.M, §5 "parallel
	// multi-searcher fans out one task per sub-searcher and awaits all").
	Executor *Executor
}

func NewIndexSearcher(reader index.IndexReader) *IndexSearcher {
	return &IndexSearcher{Reader: reader, Similarity: DefaultSimilarity{}}
}

// newStatelessSearcher builds a searcher over a single leaf, used
// internally by filters rewriting a wrapped Query into a Bits without
// going through the caller's top-level IndexSearcher (its Similarity
// cancels out anyway, since QueryWrapperFilter discards scores).
func newStatelessSearcher(reader index.IndexReader) *IndexSearcher {
	return NewIndexSearcher(reader)
}

func (s *IndexSearcher) docFreq(term index.Term) (int, error) {
	if df, ok := s.Reader.(docFreqer); ok {
		return df.DocFreq(term)
	}
	return 0, nil
}

// rewrite repeatedly rewrites q against the searcher's reader until it
// reaches a fixed point (§8 property 6: rewriting a query already at its
// fixed point returns it unchanged).
func (s *IndexSearcher) rewrite(q Query) (Query, error) {
	for {
		rq, err := q.Rewrite(s.Reader)
		if err != nil {
			return nil, err
		}
		if rq == q {
			return rq, nil
		}
		q = rq
	}
}

// createNormalizedWeight rewrites q to its fixed point, builds its Weight,
// and folds in query normalization (§4.I: score = tf*idf^2*norm*boost;
// QueryNorm is the last factor, applied once per query rather than per
// clause).
func (s *IndexSearcher) createNormalizedWeight(q Query) (Weight, error) {
	rq, err := s.rewrite(q)
	if err != nil {
		return nil, err
	}
	w, err := rq.CreateWeight(s)
	if err != nil {
		return nil, err
	}
	norm := s.Similarity.QueryNorm(w.ValueForNormalization())
	w.Normalize(norm, rq.Boost())
	return w, nil
}

// Search runs q over every leaf of the searcher's reader and returns the
// top n hits by score, ties broken by ascending doc-id (§4.K
// TopScoreDocCollector).
func (s *IndexSearcher) Search(q Query, n int) (*TopDocs, error) {
	w, err := s.createNormalizedWeight(q)
	if err != nil {
		return nil, err
	}
	collector := NewTopScoreDocCollector(n)
	for _, ctx := range s.Reader.Leaves() {
		ar, ok := ctx.Reader().(index.AtomicReader)
		if !ok {
			continue
		}
		sc, err := w.Scorer(ctx, true, true, ar.LiveDocs())
		if err != nil {
			return nil, err
		}
		if sc == nil {
			continue
		}
		collector.SetScorer(sc)
		if err := collectAll(collector, sc, ctx.DocBase); err != nil {
			return nil, err
		}
	}
	return collector.TopDocs(), nil
}

// SearchSorted runs q and ranks the top n hits by sortFields instead of
// score (§4.K TopFieldCollector).
func (s *IndexSearcher) SearchSorted(q Query, n int, sortFields []SortField) (*TopDocs, error) {
	w, err := s.createNormalizedWeight(q)
	if err != nil {
		return nil, err
	}
	dr, ok := s.Reader.(documentReader)
	if !ok {
		return nil, nil
	}
	collector := NewTopFieldCollector(dr, n, sortFields)
	for _, ctx := range s.Reader.Leaves() {
		ar, ok := ctx.Reader().(index.AtomicReader)
		if !ok {
			continue
		}
		sc, err := w.Scorer(ctx, true, false, ar.LiveDocs())
		if err != nil {
			return nil, err
		}
		if sc == nil {
			continue
		}
		collector.SetScorer(sc)
		if err := collectAll(collector, sc, ctx.DocBase); err != nil {
			return nil, err
		}
	}
	return collector.TopDocs()
}

// SearchParallel is Search's multi-segment fan-out counterpart: each leaf
// is scored into its own TopScoreDocCollector by a task on s.Executor (or a
// freshly built DefaultExecutorSize pool if none is set), and the per-leaf
// TopDocs are merged once every task completes (§4.M, §5).
func (s *IndexSearcher) SearchParallel(q Query, n int) (*TopDocs, error) {
	w, err := s.createNormalizedWeight(q)
	if err != nil {
		return nil, err
	}
	leaves := s.Reader.Leaves()
	partials := make([]*TopDocs, len(leaves))
	tasks := make([]func() error, len(leaves))
	for i, ctx := range leaves {
		i, ctx := i, ctx
		tasks[i] = func() error {
			ar, ok := ctx.Reader().(index.AtomicReader)
			if !ok {
				return nil
			}
			sc, err := w.Scorer(ctx, true, true, ar.LiveDocs())
			if err != nil {
				return err
			}
			if sc == nil {
				return nil
			}
			collector := NewTopScoreDocCollector(n)
			collector.SetScorer(sc)
			if err := collectAll(collector, sc, ctx.DocBase); err != nil {
				return err
			}
			partials[i] = collector.TopDocs()
			return nil
		}
	}
	exec := s.Executor
	if exec == nil {
		exec = NewExecutor(DefaultExecutorSize)
	}
	if err := exec.run(tasks); err != nil {
		return nil, err
	}
	return mergeTopDocs(partials, n), nil
}

// mergeTopDocs combines per-leaf TopDocs (already individually truncated to
// n and individually sorted) into one overall top-n result, the same
// merge step Search's single sequential TopScoreDocCollector performs
// incrementally one leaf at a time.
func mergeTopDocs(partials []*TopDocs, n int) *TopDocs {
	merged := NewTopScoreDocCollector(n)
	out := &TopDocs{}
	for _, td := range partials {
		if td == nil {
			continue
		}
		out.TotalHits += td.TotalHits
		if td.MaxScore > out.MaxScore {
			out.MaxScore = td.MaxScore
		}
		for _, sd := range td.ScoreDocs {
			merged.push(sd)
		}
	}
	out.ScoreDocs = merged.TopDocs().ScoreDocs
	return out
}

// Collect runs q over every leaf and feeds every matching doc (translated
// to top-level doc-ids) to collector, for callers that want every hit
// rather than a bounded top-K (§4.K HitCollector).
func (s *IndexSearcher) Collect(q Query, collector Collector) error {
	w, err := s.createNormalizedWeight(q)
	if err != nil {
		return err
	}
	for _, ctx := range s.Reader.Leaves() {
		ar, ok := ctx.Reader().(index.AtomicReader)
		if !ok {
			continue
		}
		sc, err := w.Scorer(ctx, true, false, ar.LiveDocs())
		if err != nil {
			return err
		}
		if sc == nil {
			continue
		}
		collector.SetScorer(sc)
		if err := collectAll(collector, sc, ctx.DocBase); err != nil {
			return err
		}
	}
	return nil
}
