package search

import (
	"github.com/stormgo/golucene/index"
	"github.com/stormgo/golucene/util"
)

// Weight is a query's per-searcher precomputation (§4.I, glossary
// "Weight"): collection-wide statistics (idf, query norm) that do not
// depend on any one segment. Scorer binds that precomputation to one
// segment's postings.
type Weight interface {
	Query() Query
	// ValueForNormalization returns this weight's contribution to the
	// overall query's sum-of-squared-weights, consumed by
	// Similarity.QueryNorm.
	ValueForNormalization() float32
	// Normalize folds the query-wide norm and any outer boost into this
	// weight's per-term weight.
	Normalize(norm, topLevelBoost float32)
	// Scorer builds a Scorer bound to ctx's segment, or (nil, nil) if the
	// query cannot match anything in this segment (e.g. the term is
	// altogether absent).
	Scorer(ctx index.AtomicReaderContext, scoreDocsInOrder, topScorer bool, liveDocs util.Bits) (Scorer, error)
}

// docFreqer and normsReader are narrow structural interfaces used to
// pull statistics out of whatever concrete index.IndexReader/AtomicReader
// the searcher was opened with, without requiring index's reader
// interfaces themselves to grow search-only methods.
type docFreqer interface {
	DocFreq(term index.Term) (int, error)
}

type normsReader interface {
	Norm(field string, docID int) float32
}

func readerNorm(ar index.AtomicReader, field string, docID int) float32 {
	if nr, ok := ar.(normsReader); ok {
		return nr.Norm(field, docID)
	}
	return 1
}

// ---- TermWeight ----

type TermWeight struct {
	query      *TermQuery
	similarity Similarity
	idf        float32
	queryNorm  float32
	queryWeight float32
	value      float32
}

func newTermWeight(s *IndexSearcher, q *TermQuery) (Weight, error) {
	docFreq, err := s.docFreq(q.Term)
	if err != nil {
		return nil, err
	}
	sim := s.Similarity
	idf := sim.Idf(docFreq, maxInt(s.Reader.MaxDoc(), 1))
	w := &TermWeight{query: q, similarity: sim, idf: idf, queryNorm: 1}
	w.queryWeight = idf * q.Boost()
	w.value = w.queryWeight * w.queryWeight
	return w, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func (w *TermWeight) Query() Query                        { return w.query }
func (w *TermWeight) ValueForNormalization() float32       { return w.value }
func (w *TermWeight) Normalize(norm, topLevelBoost float32) {
	w.queryNorm = norm * topLevelBoost
	w.queryWeight = w.idf * w.query.Boost() * w.queryNorm
}

func (w *TermWeight) Scorer(ctx index.AtomicReaderContext, _, _ bool, liveDocs util.Bits) (Scorer, error) {
	ar, ok := ctx.Reader().(index.AtomicReader)
	if !ok {
		return nil, nil
	}
	terms := ar.Terms(w.query.Term.Field)
	if terms == nil {
		return nil, nil
	}
	te := terms.Iterator()
	found, err := te.SeekExact(w.query.Term.Text)
	if err != nil || !found {
		return nil, err
	}
	de, err := te.Docs(liveDocs, nil, true)
	if err != nil {
		return nil, err
	}
	return &TermScorer{weight: w, reader: ar, docsEnum: de, doc: -1}, nil
}

// ---- PhraseWeight ----

type PhraseWeight struct {
	query      *PhraseQuery
	similarity Similarity
	idf        float32
	queryNorm  float32
	value      float32
}

func newPhraseWeight(s *IndexSearcher, q *PhraseQuery) (Weight, error) {
	sim := s.Similarity
	var idfSum float32
	for _, t := range q.Terms {
		df, err := s.docFreq(index.NewTerm(q.FieldName, t))
		if err != nil {
			return nil, err
		}
		idfSum += sim.Idf(df, maxInt(s.Reader.MaxDoc(), 1))
	}
	w := &PhraseWeight{query: q, similarity: sim, idf: idfSum, queryNorm: 1}
	qw := idfSum * q.Boost()
	w.value = qw * qw
	return w, nil
}

func (w *PhraseWeight) Query() Query                  { return w.query }
func (w *PhraseWeight) ValueForNormalization() float32 { return w.value }
func (w *PhraseWeight) Normalize(norm, topLevelBoost float32) {
	w.queryNorm = norm * topLevelBoost
}

func (w *PhraseWeight) Scorer(ctx index.AtomicReaderContext, _, _ bool, liveDocs util.Bits) (Scorer, error) {
	ar, ok := ctx.Reader().(index.AtomicReader)
	if !ok {
		return nil, nil
	}
	terms := ar.Terms(w.query.FieldName)
	if terms == nil {
		return nil, nil
	}
	postings := make([]phrasePosting, 0, len(w.query.Terms))
	for i, t := range w.query.Terms {
		te := terms.Iterator()
		found, err := te.SeekExact(t)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, nil // a required term is absent from this segment: no match
		}
		dpe, err := te.DocsAndPositions(liveDocs, nil)
		if err != nil {
			return nil, err
		}
		if dpe == nil {
			return nil, nil
		}
		postings = append(postings, phrasePosting{dpe: dpe, offset: w.query.Positions[i]})
	}
	if w.query.Slop == 0 {
		return &ExactPhraseScorer{weight: w, postings: postings, reader: ar, doc: -1}, nil
	}
	return &SloppyPhraseScorer{weight: w, postings: postings, reader: ar, slop: w.query.Slop, doc: -1}, nil
}

// ---- BooleanWeight ----

type BooleanWeight struct {
	query    *BooleanQuery
	searcher *IndexSearcher
	subs     []Weight
}

func newBooleanWeight(s *IndexSearcher, q *BooleanQuery) (Weight, error) {
	w := &BooleanWeight{query: q, searcher: s}
	for _, c := range q.Clauses {
		sw, err := c.Query.CreateWeight(s)
		if err != nil {
			return nil, err
		}
		w.subs = append(w.subs, sw)
	}
	return w, nil
}

func (w *BooleanWeight) Query() Query { return w.query }

func (w *BooleanWeight) ValueForNormalization() float32 {
	var sum float32
	for i, c := range w.query.Clauses {
		if c.Occur == MustNot {
			continue
		}
		sum += w.subs[i].ValueForNormalization()
	}
	return sum
}

func (w *BooleanWeight) Normalize(norm, topLevelBoost float32) {
	for i := range w.subs {
		w.subs[i].Normalize(norm, topLevelBoost*w.query.Boost())
	}
}

func (w *BooleanWeight) Scorer(ctx index.AtomicReaderContext, inOrder, topScorer bool, liveDocs util.Bits) (Scorer, error) {
	var must, should, mustNot []Scorer
	for i, c := range w.query.Clauses {
		sc, err := w.subs[i].Scorer(ctx, inOrder, false, liveDocs)
		if err != nil {
			return nil, err
		}
		switch c.Occur {
		case Must:
			if sc == nil {
				return nil, nil // a required clause cannot match: whole query cannot match
			}
			must = append(must, sc)
		case MustNot:
			if sc != nil {
				mustNot = append(mustNot, sc)
			}
		default:
			if sc != nil {
				should = append(should, sc)
			}
		}
	}
	if len(must) == 0 && len(should) == 0 {
		return nil, nil
	}
	return NewBooleanScorer2(must, should, mustNot, w.query.MinShouldMatch), nil
}

// ---- ConstantScoreWeight ----

type ConstantScoreWeight struct {
	query *ConstantScoreQuery
	inner Weight
	boost float32
}

func newConstantScoreWeight(s *IndexSearcher, q *ConstantScoreQuery) (Weight, error) {
	w := &ConstantScoreWeight{query: q}
	if q.Inner != nil {
		iw, err := q.Inner.CreateWeight(s)
		if err != nil {
			return nil, err
		}
		w.inner = iw
	}
	return w, nil
}

func (w *ConstantScoreWeight) Query() Query                  { return w.query }
func (w *ConstantScoreWeight) ValueForNormalization() float32 { return w.query.Boost() * w.query.Boost() }
func (w *ConstantScoreWeight) Normalize(norm, topLevelBoost float32) {
	w.boost = w.query.Boost() * norm * topLevelBoost
	if w.inner != nil {
		w.inner.Normalize(1, 1) // inner scores are discarded; its norm is irrelevant
	}
}

func (w *ConstantScoreWeight) Scorer(ctx index.AtomicReaderContext, inOrder, topScorer bool, liveDocs util.Bits) (Scorer, error) {
	if w.inner != nil {
		inner, err := w.inner.Scorer(ctx, inOrder, topScorer, liveDocs)
		if err != nil || inner == nil {
			return nil, err
		}
		return &ConstantScoreScorer{inner: inner, boost: w.boost}, nil
	}
	if w.query.Filter == nil {
		return nil, nil
	}
	bits, err := w.query.Filter.Bits(ctx)
	if err != nil || bits == nil {
		return nil, err
	}
	return &bitsScorer{bits: bits, boost: w.boost, doc: -1}, nil
}

// ---- FilteredWeight ----

type FilteredWeight struct {
	query *FilteredQuery
	inner Weight
}

func newFilteredWeight(s *IndexSearcher, q *FilteredQuery) (Weight, error) {
	iw, err := q.Inner.CreateWeight(s)
	if err != nil {
		return nil, err
	}
	return &FilteredWeight{query: q, inner: iw}, nil
}

func (w *FilteredWeight) Query() Query                  { return w.query }
func (w *FilteredWeight) ValueForNormalization() float32 { return w.inner.ValueForNormalization() }
func (w *FilteredWeight) Normalize(norm, topLevelBoost float32) {
	w.inner.Normalize(norm, topLevelBoost)
}

func (w *FilteredWeight) Scorer(ctx index.AtomicReaderContext, inOrder, topScorer bool, liveDocs util.Bits) (Scorer, error) {
	inner, err := w.inner.Scorer(ctx, inOrder, topScorer, liveDocs)
	if err != nil || inner == nil {
		return nil, err
	}
	bits, err := w.query.Filter.Bits(ctx)
	if err != nil || bits == nil {
		return nil, err
	}
	return &FilteredScorer{inner: inner, bits: bits}, nil
}

// ---- PayloadTermWeight ----

type PayloadTermWeight struct {
	query      *PayloadTermQuery
	similarity Similarity
	idf        float32
	queryNorm  float32
	boost      float32
}

func newPayloadTermWeight(s *IndexSearcher, q *PayloadTermQuery) (Weight, error) {
	df, err := s.docFreq(q.Term)
	if err != nil {
		return nil, err
	}
	sim := s.Similarity
	w := &PayloadTermWeight{query: q, similarity: sim, queryNorm: 1, boost: q.Boost()}
	w.idf = sim.Idf(df, maxInt(s.Reader.MaxDoc(), 1))
	return w, nil
}

func (w *PayloadTermWeight) Query() Query { return w.query }
func (w *PayloadTermWeight) ValueForNormalization() float32 {
	qw := w.idf * w.boost
	return qw * qw
}
func (w *PayloadTermWeight) Normalize(norm, topLevelBoost float32) {
	w.queryNorm = norm * topLevelBoost
}

func (w *PayloadTermWeight) Scorer(ctx index.AtomicReaderContext, _, _ bool, liveDocs util.Bits) (Scorer, error) {
	ar, ok := ctx.Reader().(index.AtomicReader)
	if !ok {
		return nil, nil
	}
	terms := ar.Terms(w.query.Term.Field)
	if terms == nil {
		return nil, nil
	}
	te := terms.Iterator()
	found, err := te.SeekExact(w.query.Term.Text)
	if err != nil || !found {
		return nil, err
	}
	dpe, err := te.DocsAndPositions(liveDocs, nil)
	if err != nil || dpe == nil {
		return nil, err
	}
	fn := w.query.Function
	if fn == nil {
		fn = MaxPayloadFunction{}
	}
	return &PayloadTermScorer{weight: w, reader: ar, dpe: dpe, fn: fn, doc: -1}, nil
}
