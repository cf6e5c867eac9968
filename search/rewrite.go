package search

import (
	"fmt"
	"sort"

	"github.com/stormgo/golucene/index"
)

// RewriteMethod turns a MultiTermQuery's enumerated matching terms into a
// concrete, scorable query (§4.J). Term enumeration itself
// (collectMatchingTerms) is shared; methods differ only in what they build
// from the matches.
type RewriteMethod interface {
	Rewrite(reader index.IndexReader, q *MultiTermQuery) (Query, error)
}

type termFreqPair struct {
	term    string
	docFreq int
}

// leafReaders returns reader's per-segment AtomicReaders, whether reader
// is itself one segment or a MultiReader over several (§4.J rewrite must
// see every segment's term dictionary, not just one).
func leafReaders(reader index.IndexReader) []index.AtomicReader {
	if ar, ok := reader.(index.AtomicReader); ok {
		return []index.AtomicReader{ar}
	}
	if mr, ok := reader.(*index.MultiReader); ok {
		subs := mr.SegmentReaders()
		out := make([]index.AtomicReader, len(subs))
		for i, sr := range subs {
			out[i] = sr
		}
		return out
	}
	return nil
}

// collectMatchingTerms walks every segment's term dictionary for
// q.FieldName, keeping the terms q.matchesTerm accepts and summing their
// docFreq across segments.
func collectMatchingTerms(reader index.IndexReader, q *MultiTermQuery) ([]termFreqPair, error) {
	byTerm := map[string]int{}
	for _, ar := range leafReaders(reader) {
		terms := ar.Terms(q.FieldName)
		if terms == nil {
			continue
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
			if q.matchesTerm(text) {
				byTerm[text] += te.DocFreq()
			}
		}
	}
	out := make([]termFreqPair, 0, len(byTerm))
	for t, df := range byTerm {
		out = append(out, termFreqPair{term: t, docFreq: df})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].term < out[j].term })
	return out, nil
}

// ---- ScoringBooleanQueryRewrite ----

// ScoringBooleanQueryRewrite expands to one SHOULD TermQuery per matching
// term, scored normally (§4.J). It fails the way BooleanQuery itself does
// when the match set is too large to safely build.
type ScoringBooleanQueryRewrite struct{}

func (ScoringBooleanQueryRewrite) Rewrite(reader index.IndexReader, q *MultiTermQuery) (Query, error) {
	matches, err := collectMatchingTerms(reader, q)
	if err != nil {
		return nil, err
	}
	if len(matches) > MaxClauseCount {
		return nil, fmt.Errorf("rewritten query would have %d clauses, over the %d limit", len(matches), MaxClauseCount)
	}
	bq := NewBooleanQuery()
	bq.SetBoost(q.Boost())
	for _, m := range matches {
		bq.Add(NewTermQuery(index.NewTerm(q.FieldName, m.term)), Should)
	}
	return bq, nil
}

// ---- TopTermsScoringBooleanQueryRewrite ----

// TopTermsScoringBooleanQueryRewrite keeps only the Size highest-docFreq
// matches, each clause's boost scaled by its share of the top match's
// docFreq (§4.J), bounding the rewritten query's clause count regardless
// of how many dictionary terms match.
type TopTermsScoringBooleanQueryRewrite struct{ Size int }

func (m TopTermsScoringBooleanQueryRewrite) Rewrite(reader index.IndexReader, q *MultiTermQuery) (Query, error) {
	top, maxDF, err := topMatches(reader, q, m.Size)
	if err != nil {
		return nil, err
	}
	bq := NewBooleanQuery()
	bq.SetBoost(q.Boost())
	for _, t := range top {
		tq := NewTermQuery(index.NewTerm(q.FieldName, t.term))
		if maxDF > 0 {
			tq.SetBoost(float32(t.docFreq) / float32(maxDF))
		}
		bq.Add(tq, Should)
	}
	return bq, nil
}

// ---- TopTermsBoostOnlyBooleanQueryRewrite ----

// TopTermsBoostOnlyBooleanQueryRewrite is TopTermsScoringBooleanQueryRewrite
// with each clause wrapped in ConstantScoreQuery, so a match's docFreq-
// derived boost is the whole score rather than a TF-IDF factor (§4.J).
type TopTermsBoostOnlyBooleanQueryRewrite struct{ Size int }

func (m TopTermsBoostOnlyBooleanQueryRewrite) Rewrite(reader index.IndexReader, q *MultiTermQuery) (Query, error) {
	top, maxDF, err := topMatches(reader, q, m.Size)
	if err != nil {
		return nil, err
	}
	bq := NewBooleanQuery()
	bq.SetBoost(q.Boost())
	for _, t := range top {
		tq := NewTermQuery(index.NewTerm(q.FieldName, t.term))
		csq := NewConstantScoreQuery(tq)
		if maxDF > 0 {
			csq.SetBoost(float32(t.docFreq) / float32(maxDF))
		}
		bq.Add(csq, Should)
	}
	return bq, nil
}

func topMatches(reader index.IndexReader, q *MultiTermQuery, size int) ([]termFreqPair, int, error) {
	matches, err := collectMatchingTerms(reader, q)
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].docFreq > matches[j].docFreq })
	if size <= 0 || size > len(matches) {
		size = len(matches)
	}
	top := matches[:size]
	maxDF := 0
	for _, t := range top {
		if t.docFreq > maxDF {
			maxDF = t.docFreq
		}
	}
	return top, maxDF, nil
}

// ---- ConstantScoreAutoRewrite ----

// rewriteTermCountCutoff and rewriteDocCountPercent are the original's
// named thresholds (§8 end-to-end scenario #5 exercises the cutoff
// decision): once the matching term count exceeds rewriteTermCountCutoff,
// or the summed docFreq across matches ("docsVisited") exceeds
// docCountPercent·maxDoc, switch to a single filter built once over every
// matching term's postings instead of expanding term-by-term.
const (
	rewriteTermCountCutoff = 350
	rewriteDocCountPercent = 0.001
)

type ConstantScoreAutoRewrite struct{}

func (ConstantScoreAutoRewrite) Rewrite(reader index.IndexReader, q *MultiTermQuery) (Query, error) {
	matches, err := collectMatchingTerms(reader, q)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return NewBooleanQuery(), nil
	}
	docCountCutoff := int(float64(maxInt(reader.MaxDoc(), 1)) * rewriteDocCountPercent)
	docsVisited := 0
	for _, m := range matches {
		docsVisited += m.docFreq
	}
	if len(matches) > rewriteTermCountCutoff || docsVisited > docCountCutoff {
		csq := NewConstantScoreFilterQuery(&multiTermFilter{query: q})
		csq.SetBoost(q.Boost())
		return csq, nil
	}
	bq := NewBooleanQuery()
	for _, m := range matches {
		bq.Add(NewTermQuery(index.NewTerm(q.FieldName, m.term)), Should)
	}
	csq := NewConstantScoreQuery(bq)
	csq.SetBoost(q.Boost())
	return csq, nil
}
