package search

import (
	"github.com/stormgo/golucene/index"
	"github.com/stormgo/golucene/util"
)

// Filter produces a per-segment doc-id set, independent of any scoring
// (§4.H ConstantScoreQuery/FilteredQuery). Unlike a Query it never
// contributes to the score.
type Filter interface {
	Bits(ctx index.AtomicReaderContext) (util.Bits, error)
}

// QueryWrapperFilter runs a Query's unscored match set and materializes it
// as a Bits, the standard way to turn a query into a filter (§4.H).
type QueryWrapperFilter struct {
	Query Query
}

func NewQueryWrapperFilter(q Query) *QueryWrapperFilter { return &QueryWrapperFilter{Query: q} }

func (f *QueryWrapperFilter) Bits(ctx index.AtomicReaderContext) (util.Bits, error) {
	w, err := f.Query.CreateWeight(newStatelessSearcher(ctx.Reader()))
	if err != nil {
		return nil, err
	}
	w.Normalize(1, 1)
	sc, err := w.Scorer(ctx, true, false, nil)
	if err != nil || sc == nil {
		return util.NewLiveBits(0), err
	}
	return materializeBits(sc, ctx.Reader().MaxDoc())
}

// multiTermFilter backs ConstantScoreAutoRewrite's large-cardinality path:
// rather than building one clause per matching term, it unions their
// postings directly into a bitset the first time a segment needs it
// (§4.J "a filter-backed fallback avoids materializing a clause per
// term").
type multiTermFilter struct {
	query *MultiTermQuery
}

func (f *multiTermFilter) Bits(ctx index.AtomicReaderContext) (util.Bits, error) {
	ar, ok := ctx.Reader().(index.AtomicReader)
	if !ok {
		return util.NewLiveBits(0), nil
	}
	maxDoc := ar.MaxDoc()
	bits := util.NewEmptyBits(maxDoc)
	terms := ar.Terms(f.query.FieldName)
	if terms == nil {
		return bits, nil
	}
	te := terms.Iterator()
	for {
		text, ok, err := te.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if !f.query.matchesTerm(text) {
			continue
		}
		de, err := te.Docs(nil, nil, false)
		if err != nil {
			return nil, err
		}
		for {
			d, err := de.NextDoc()
			if err != nil {
				return nil, err
			}
			if d == index.NO_MORE_DOCS {
				break
			}
			bits.Set(d)
		}
	}
	return bits, nil
}

// materializeBits drains a Scorer's doc-id stream into a Bits, used where
// a filter's contract requires a random-access set rather than a stream
// (§4.H).
func materializeBits(sc Scorer, maxDoc int) (util.Bits, error) {
	bits := util.NewEmptyBits(maxDoc)
	for {
		d, err := sc.NextDoc()
		if err != nil {
			return nil, err
		}
		if d == index.NO_MORE_DOCS {
			break
		}
		bits.Set(d)
	}
	return bits, nil
}
