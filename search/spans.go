package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/stormgo/golucene/index"
	"github.com/stormgo/golucene/util"
)

// Spans walks one segment's position spans in increasing (docId, start)
// order, exposing the occurrence a span query matched rather than just a
// doc (§4.H, §4.I "Spans iterator exposing (docId, start, end,
// payloads)"). Next/Advance follow the same DONE-is-idempotent contract
// as Scorer.
type Spans interface {
	Next() (bool, error)
	Advance(target int) (bool, error)
	Doc() int
	Start() int
	End() int
	Payload() [][]byte
}

// SpanQuery is a Query that also exposes its match positions, letting it
// nest inside SpanNear/Or/Not/First/PositionRange/PayloadCheck (§4.H).
type SpanQuery interface {
	Query
	GetSpans(ctx index.AtomicReaderContext, liveDocs util.Bits) (Spans, error)
}

func rewriteSpanClause(r index.IndexReader, q SpanQuery) (SpanQuery, bool, error) {
	rq, err := q.Rewrite(r)
	if err != nil {
		return nil, false, err
	}
	sq, ok := rq.(SpanQuery)
	if !ok {
		return nil, false, fmt.Errorf("span clause rewrote to a non-span query")
	}
	return sq, sq != q, nil
}

// ---- occurrence / shared span-combinator plumbing ----

type occurrence struct {
	start, end int
	payload    [][]byte
}

// collectDocOccurrences drains every remaining span on doc from s
// (assumed already positioned there) into a slice, in increasing-start
// order.
func collectDocOccurrences(s Spans, doc int) ([]occurrence, error) {
	var out []occurrence
	for s.Doc() == doc {
		out = append(out, occurrence{start: s.Start(), end: s.End(), payload: s.Payload()})
		ok, err := s.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
	}
	return out, nil
}

// syncSpansDoc advances every sub to the first doc >= from that all of
// them agree on (the span-granularity analogue of ConjunctionScorer's
// lockstep advance).
func syncSpansDoc(subs []Spans, from int) (int, bool, error) {
	if len(subs) == 0 {
		return 0, false, nil
	}
	candidate := from
	for {
		agree := true
		for _, s := range subs {
			if s.Doc() < candidate {
				ok, err := s.Advance(candidate)
				if err != nil {
					return 0, false, err
				}
				if !ok {
					return 0, false, nil
				}
			}
			if s.Doc() != candidate {
				if s.Doc() > candidate {
					candidate = s.Doc()
				}
				agree = false
			}
		}
		if agree {
			return candidate, true, nil
		}
	}
}

// ---- SpanTermQuery ----

type SpanTermQuery struct {
	baseQuery
	Term index.Term
}

func NewSpanTermQuery(term index.Term) *SpanTermQuery {
	return &SpanTermQuery{Term: term, baseQuery: baseQuery{boost: 1}}
}

func (q *SpanTermQuery) Field() string                               { return q.Term.Field }
func (q *SpanTermQuery) ExtractTerms() []index.Term                  { return []index.Term{q.Term} }
func (q *SpanTermQuery) Rewrite(index.IndexReader) (Query, error)    { return q, nil }
func (q *SpanTermQuery) String(string) string                        { return "spanTerm(" + q.Term.String() + ")" }
func (q *SpanTermQuery) CreateWeight(s *IndexSearcher) (Weight, error) { return newSpanWeight(s, q) }

func (q *SpanTermQuery) GetSpans(ctx index.AtomicReaderContext, liveDocs util.Bits) (Spans, error) {
	ar, ok := ctx.Reader().(index.AtomicReader)
	if !ok {
		return nil, nil
	}
	terms := ar.Terms(q.Term.Field)
	if terms == nil {
		return nil, nil
	}
	te := terms.Iterator()
	found, err := te.SeekExact(q.Term.Text)
	if err != nil || !found {
		return nil, err
	}
	dpe, err := te.DocsAndPositions(liveDocs, nil)
	if err != nil || dpe == nil {
		return nil, err
	}
	return &termSpans{dpe: dpe, doc: -1}, nil
}

type termSpans struct {
	dpe       index.DocsAndPositionsEnum
	doc       int
	remaining int
	start, end int
}

func (s *termSpans) Doc() int   { return s.doc }
func (s *termSpans) Start() int { return s.start }
func (s *termSpans) End() int   { return s.end }
func (s *termSpans) Payload() [][]byte {
	p := s.dpe.Payload()
	if p == nil {
		return nil
	}
	return [][]byte{p}
}

func (s *termSpans) Next() (bool, error) {
	for {
		if s.remaining > 0 {
			pos, err := s.dpe.NextPosition()
			if err != nil {
				return false, err
			}
			s.start, s.end = pos, pos+1
			s.remaining--
			return true, nil
		}
		d, err := s.dpe.NextDoc()
		if err != nil {
			return false, err
		}
		if d == index.NO_MORE_DOCS {
			s.doc = index.NO_MORE_DOCS
			return false, nil
		}
		s.doc = d
		s.remaining = s.dpe.Freq()
	}
}

func (s *termSpans) Advance(target int) (bool, error) {
	d, err := s.dpe.Advance(target)
	if err != nil {
		return false, err
	}
	if d == index.NO_MORE_DOCS {
		s.doc = index.NO_MORE_DOCS
		return false, nil
	}
	s.doc = d
	s.remaining = s.dpe.Freq()
	return s.Next()
}

// ---- SpanNearQuery ----

// SpanNearQuery matches when every clause's span occurs in the same doc
// within Slop total position gap, in clause order when InOrder (§4.H,
// §4.I). Matching materializes each doc's per-clause occurrences and
// searches combinations directly; this trades the original's incremental
// cell-queue (unordered) / linked-list (ordered) algorithms for a
// simpler brute-force search over small per-doc occurrence counts,
// documented here since it changes the algorithmic complexity (not the
// matching semantics) from the original.
type SpanNearQuery struct {
	baseQuery
	Clauses []SpanQuery
	Slop    int
	InOrder bool
}

func NewSpanNearQuery(clauses []SpanQuery, slop int, inOrder bool) *SpanNearQuery {
	return &SpanNearQuery{Clauses: clauses, Slop: slop, InOrder: inOrder, baseQuery: baseQuery{boost: 1}}
}

func (q *SpanNearQuery) Field() string {
	if len(q.Clauses) == 0 {
		return ""
	}
	return q.Clauses[0].Field()
}

func (q *SpanNearQuery) ExtractTerms() []index.Term {
	var out []index.Term
	for _, c := range q.Clauses {
		out = append(out, c.ExtractTerms()...)
	}
	return out
}

func (q *SpanNearQuery) Rewrite(r index.IndexReader) (Query, error) {
	changed := false
	rewritten := make([]SpanQuery, len(q.Clauses))
	for i, c := range q.Clauses {
		sq, diff, err := rewriteSpanClause(r, c)
		if err != nil {
			return nil, err
		}
		if diff {
			changed = true
		}
		rewritten[i] = sq
	}
	if !changed {
		return q, nil
	}
	return &SpanNearQuery{Clauses: rewritten, Slop: q.Slop, InOrder: q.InOrder, baseQuery: q.baseQuery}, nil
}

func (q *SpanNearQuery) String(field string) string {
	parts := make([]string, len(q.Clauses))
	for i, c := range q.Clauses {
		parts[i] = c.String(field)
	}
	return fmt.Sprintf("spanNear([%s], %d, %v)", strings.Join(parts, ", "), q.Slop, q.InOrder)
}

func (q *SpanNearQuery) CreateWeight(s *IndexSearcher) (Weight, error) { return newSpanWeight(s, q) }

func (q *SpanNearQuery) GetSpans(ctx index.AtomicReaderContext, liveDocs util.Bits) (Spans, error) {
	subs := make([]Spans, len(q.Clauses))
	for i, c := range q.Clauses {
		sp, err := c.GetSpans(ctx, liveDocs)
		if err != nil {
			return nil, err
		}
		if sp == nil {
			return nil, nil
		}
		subs[i] = sp
	}
	return newNearSpans(subs, q.InOrder, q.Slop), nil
}

type nearSpans struct {
	subs    []Spans
	ordered bool
	slop    int
	matches []occurrence
	mi      int
	doc     int
	start, end int
	payload [][]byte
}

func newNearSpans(subs []Spans, ordered bool, slop int) *nearSpans {
	return &nearSpans{subs: subs, ordered: ordered, slop: slop, doc: -1, mi: -1}
}

func (s *nearSpans) Doc() int          { return s.doc }
func (s *nearSpans) Start() int        { return s.start }
func (s *nearSpans) End() int          { return s.end }
func (s *nearSpans) Payload() [][]byte { return s.payload }

func (s *nearSpans) applyMatch() {
	m := s.matches[s.mi]
	s.start, s.end, s.payload = m.start, m.end, m.payload
}

func (s *nearSpans) Next() (bool, error) {
	if s.mi+1 < len(s.matches) {
		s.mi++
		s.applyMatch()
		return true, nil
	}
	return s.advanceDoc(s.doc + 1)
}

func (s *nearSpans) Advance(target int) (bool, error) { return s.advanceDoc(target) }

func (s *nearSpans) advanceDoc(from int) (bool, error) {
	for {
		doc, ok, err := syncSpansDoc(s.subs, from)
		if err != nil {
			return false, err
		}
		if !ok {
			s.doc = index.NO_MORE_DOCS
			return false, nil
		}
		perClause := make([][]occurrence, len(s.subs))
		for i, sub := range s.subs {
			occs, err := collectDocOccurrences(sub, doc)
			if err != nil {
				return false, err
			}
			perClause[i] = occs
		}
		matches := findNearMatches(perClause, s.ordered, s.slop)
		if len(matches) > 0 {
			s.doc = doc
			s.matches = matches
			s.mi = 0
			s.applyMatch()
			return true, nil
		}
		from = doc + 1
	}
}

// findNearMatches enumerates every combination of one occurrence per
// clause and keeps those within slop, sorted by start (and then end) so
// callers see them in position order.
func findNearMatches(perClause [][]occurrence, ordered bool, slop int) []occurrence {
	n := len(perClause)
	if n == 0 {
		return nil
	}
	for _, occs := range perClause {
		if len(occs) == 0 {
			return nil
		}
	}
	var results []occurrence
	if ordered {
		combo := make([]occurrence, n)
		var rec func(idx, prevEnd int)
		rec = func(idx, prevEnd int) {
			if idx == n {
				first, last := combo[0], combo[n-1]
				if last.end-first.start-n <= slop {
					results = append(results, mergeOccurrences(combo))
				}
				return
			}
			for _, occ := range perClause[idx] {
				if idx > 0 && occ.start < prevEnd {
					continue
				}
				combo[idx] = occ
				rec(idx+1, occ.end)
			}
		}
		rec(0, -1)
	} else {
		combo := make([]occurrence, n)
		var rec func(idx int)
		rec = func(idx int) {
			if idx == n {
				minStart, maxEnd := combo[0].start, combo[0].end
				for _, c := range combo[1:] {
					if c.start < minStart {
						minStart = c.start
					}
					if c.end > maxEnd {
						maxEnd = c.end
					}
				}
				if maxEnd-minStart-n <= slop {
					results = append(results, mergeOccurrences(combo))
				}
				return
			}
			for _, occ := range perClause[idx] {
				combo[idx] = occ
				rec(idx + 1)
			}
		}
		rec(0)
	}
	if len(results) == 0 {
		return nil
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].start != results[j].start {
			return results[i].start < results[j].start
		}
		return results[i].end < results[j].end
	})
	return results
}

func mergeOccurrences(combo []occurrence) occurrence {
	minStart, maxEnd := combo[0].start, combo[0].end
	var payload [][]byte
	for _, c := range combo {
		if c.start < minStart {
			minStart = c.start
		}
		if c.end > maxEnd {
			maxEnd = c.end
		}
		payload = append(payload, c.payload...)
	}
	return occurrence{start: minStart, end: maxEnd, payload: payload}
}

// ---- SpanOrQuery ----

type SpanOrQuery struct {
	baseQuery
	Clauses []SpanQuery
}

func NewSpanOrQuery(clauses []SpanQuery) *SpanOrQuery {
	return &SpanOrQuery{Clauses: clauses, baseQuery: baseQuery{boost: 1}}
}

func (q *SpanOrQuery) Field() string {
	if len(q.Clauses) == 0 {
		return ""
	}
	return q.Clauses[0].Field()
}

func (q *SpanOrQuery) ExtractTerms() []index.Term {
	var out []index.Term
	for _, c := range q.Clauses {
		out = append(out, c.ExtractTerms()...)
	}
	return out
}

func (q *SpanOrQuery) Rewrite(r index.IndexReader) (Query, error) {
	changed := false
	rewritten := make([]SpanQuery, len(q.Clauses))
	for i, c := range q.Clauses {
		sq, diff, err := rewriteSpanClause(r, c)
		if err != nil {
			return nil, err
		}
		if diff {
			changed = true
		}
		rewritten[i] = sq
	}
	if !changed {
		return q, nil
	}
	return &SpanOrQuery{Clauses: rewritten, baseQuery: q.baseQuery}, nil
}

func (q *SpanOrQuery) String(field string) string {
	parts := make([]string, len(q.Clauses))
	for i, c := range q.Clauses {
		parts[i] = c.String(field)
	}
	return "spanOr([" + strings.Join(parts, ", ") + "])"
}

func (q *SpanOrQuery) CreateWeight(s *IndexSearcher) (Weight, error) { return newSpanWeight(s, q) }

func (q *SpanOrQuery) GetSpans(ctx index.AtomicReaderContext, liveDocs util.Bits) (Spans, error) {
	subs := make([]Spans, 0, len(q.Clauses))
	for _, c := range q.Clauses {
		sp, err := c.GetSpans(ctx, liveDocs)
		if err != nil {
			return nil, err
		}
		if sp != nil {
			subs = append(subs, sp)
		}
	}
	if len(subs) == 0 {
		return nil, nil
	}
	return newOrSpans(subs), nil
}

type orSpans struct {
	subs    []Spans
	primed  []bool
	more    []bool
	lastIdx int
	doc     int
	start, end int
	payload [][]byte
}

func newOrSpans(subs []Spans) *orSpans {
	return &orSpans{subs: subs, primed: make([]bool, len(subs)), more: make([]bool, len(subs)), lastIdx: -1, doc: -1}
}

func (s *orSpans) Doc() int          { return s.doc }
func (s *orSpans) Start() int        { return s.start }
func (s *orSpans) End() int          { return s.end }
func (s *orSpans) Payload() [][]byte { return s.payload }

func (s *orSpans) ensurePrimed(i int) error {
	if s.primed[i] {
		return nil
	}
	ok, err := s.subs[i].Next()
	if err != nil {
		return err
	}
	s.more[i] = ok
	s.primed[i] = true
	return nil
}

func (s *orSpans) Next() (bool, error) {
	for i := range s.subs {
		if err := s.ensurePrimed(i); err != nil {
			return false, err
		}
	}
	if s.lastIdx >= 0 && s.more[s.lastIdx] {
		ok, err := s.subs[s.lastIdx].Next()
		if err != nil {
			return false, err
		}
		s.more[s.lastIdx] = ok
	}
	return s.pickMin()
}

func (s *orSpans) Advance(target int) (bool, error) {
	for i := range s.subs {
		if err := s.ensurePrimed(i); err != nil {
			return false, err
		}
		if s.more[i] && s.subs[i].Doc() < target {
			ok, err := s.subs[i].Advance(target)
			if err != nil {
				return false, err
			}
			s.more[i] = ok
		}
	}
	return s.pickMin()
}

func (s *orSpans) pickMin() (bool, error) {
	best := -1
	for i := range s.subs {
		if !s.more[i] {
			continue
		}
		if best == -1 || lessDocStart(s.subs[i].Doc(), s.subs[i].Start(), s.subs[best].Doc(), s.subs[best].Start()) {
			best = i
		}
	}
	if best == -1 {
		s.doc = index.NO_MORE_DOCS
		return false, nil
	}
	s.lastIdx = best
	s.doc = s.subs[best].Doc()
	s.start = s.subs[best].Start()
	s.end = s.subs[best].End()
	s.payload = s.subs[best].Payload()
	return true, nil
}

func lessDocStart(d1, st1, d2, st2 int) bool {
	if d1 != d2 {
		return d1 < d2
	}
	return st1 < st2
}

// ---- SpanNotQuery ----

// SpanNotQuery matches Include's spans that do not positionally overlap
// any of Exclude's spans in the same doc (§4.H).
type SpanNotQuery struct {
	baseQuery
	Include SpanQuery
	Exclude SpanQuery
}

func NewSpanNotQuery(include, exclude SpanQuery) *SpanNotQuery {
	return &SpanNotQuery{Include: include, Exclude: exclude, baseQuery: baseQuery{boost: 1}}
}

func (q *SpanNotQuery) Field() string              { return q.Include.Field() }
func (q *SpanNotQuery) ExtractTerms() []index.Term { return q.Include.ExtractTerms() }
func (q *SpanNotQuery) Rewrite(r index.IndexReader) (Query, error) {
	inc, incChanged, err := rewriteSpanClause(r, q.Include)
	if err != nil {
		return nil, err
	}
	exc, excChanged, err := rewriteSpanClause(r, q.Exclude)
	if err != nil {
		return nil, err
	}
	if !incChanged && !excChanged {
		return q, nil
	}
	return &SpanNotQuery{Include: inc, Exclude: exc, baseQuery: q.baseQuery}, nil
}
func (q *SpanNotQuery) String(field string) string {
	return "spanNot(" + q.Include.String(field) + ", " + q.Exclude.String(field) + ")"
}
func (q *SpanNotQuery) CreateWeight(s *IndexSearcher) (Weight, error) { return newSpanWeight(s, q) }

func (q *SpanNotQuery) GetSpans(ctx index.AtomicReaderContext, liveDocs util.Bits) (Spans, error) {
	inc, err := q.Include.GetSpans(ctx, liveDocs)
	if err != nil || inc == nil {
		return nil, err
	}
	exc, err := q.Exclude.GetSpans(ctx, liveDocs)
	if err != nil {
		return nil, err
	}
	if exc == nil {
		return inc, nil
	}
	return &notSpans{include: inc, exclude: exc, excludeDoc: -1}, nil
}

type notSpans struct {
	include     Spans
	exclude     Spans
	excludeOccs []occurrence
	excludeDoc  int
}

func (s *notSpans) Doc() int          { return s.include.Doc() }
func (s *notSpans) Start() int        { return s.include.Start() }
func (s *notSpans) End() int          { return s.include.End() }
func (s *notSpans) Payload() [][]byte { return s.include.Payload() }

func (s *notSpans) loadExcludeFor(doc int) error {
	if s.excludeDoc == doc {
		return nil
	}
	if s.exclude.Doc() < doc {
		ok, err := s.exclude.Advance(doc)
		if err != nil {
			return err
		}
		if !ok {
			s.excludeOccs = nil
			s.excludeDoc = doc
			return nil
		}
	}
	if s.exclude.Doc() != doc {
		s.excludeOccs = nil
		s.excludeDoc = doc
		return nil
	}
	occs, err := collectDocOccurrences(s.exclude, doc)
	if err != nil {
		return err
	}
	s.excludeOccs = occs
	s.excludeDoc = doc
	return nil
}

func (s *notSpans) overlaps(start, end int) bool {
	for _, o := range s.excludeOccs {
		if start < o.end && o.start < end {
			return true
		}
	}
	return false
}

func (s *notSpans) Next() (bool, error) {
	for {
		ok, err := s.include.Next()
		if err != nil || !ok {
			return ok, err
		}
		if err := s.loadExcludeFor(s.include.Doc()); err != nil {
			return false, err
		}
		if !s.overlaps(s.include.Start(), s.include.End()) {
			return true, nil
		}
	}
}

func (s *notSpans) Advance(target int) (bool, error) {
	ok, err := s.include.Advance(target)
	if err != nil || !ok {
		return ok, err
	}
	if err := s.loadExcludeFor(s.include.Doc()); err != nil {
		return false, err
	}
	if !s.overlaps(s.include.Start(), s.include.End()) {
		return true, nil
	}
	return s.Next()
}

// ---- SpanFirstQuery ----

// SpanFirstQuery restricts Match's spans to those ending at or before
// position End (§4.H: matches occurring within the document's first End
// positions).
type SpanFirstQuery struct {
	baseQuery
	Match SpanQuery
	End   int
}

func NewSpanFirstQuery(match SpanQuery, end int) *SpanFirstQuery {
	return &SpanFirstQuery{Match: match, End: end, baseQuery: baseQuery{boost: 1}}
}

func (q *SpanFirstQuery) Field() string              { return q.Match.Field() }
func (q *SpanFirstQuery) ExtractTerms() []index.Term { return q.Match.ExtractTerms() }
func (q *SpanFirstQuery) Rewrite(r index.IndexReader) (Query, error) {
	m, changed, err := rewriteSpanClause(r, q.Match)
	if err != nil {
		return nil, err
	}
	if !changed {
		return q, nil
	}
	return &SpanFirstQuery{Match: m, End: q.End, baseQuery: q.baseQuery}, nil
}
func (q *SpanFirstQuery) String(field string) string {
	return fmt.Sprintf("spanFirst(%s, %d)", q.Match.String(field), q.End)
}
func (q *SpanFirstQuery) CreateWeight(s *IndexSearcher) (Weight, error) { return newSpanWeight(s, q) }

func (q *SpanFirstQuery) GetSpans(ctx index.AtomicReaderContext, liveDocs util.Bits) (Spans, error) {
	inner, err := q.Match.GetSpans(ctx, liveDocs)
	if err != nil || inner == nil {
		return nil, err
	}
	return &firstSpans{inner: inner, limit: q.End}, nil
}

type firstSpans struct {
	inner Spans
	limit int
}

func (s *firstSpans) Doc() int          { return s.inner.Doc() }
func (s *firstSpans) Start() int        { return s.inner.Start() }
func (s *firstSpans) End() int          { return s.inner.End() }
func (s *firstSpans) Payload() [][]byte { return s.inner.Payload() }

func (s *firstSpans) Next() (bool, error) {
	return s.skipToValid(s.inner.Next)
}
func (s *firstSpans) Advance(target int) (bool, error) {
	return s.skipToValid(func() (bool, error) { return s.inner.Advance(target) })
}
func (s *firstSpans) skipToValid(step func() (bool, error)) (bool, error) {
	ok, err := step()
	for ok && err == nil && s.inner.End() > s.limit {
		ok, err = s.inner.Next()
	}
	return ok, err
}

// ---- SpanPositionRangeQuery ----

// SpanPositionRangeQuery restricts Match's spans to those whose start and
// end both fall within [Min, Max) (§4.H).
type SpanPositionRangeQuery struct {
	baseQuery
	Match    SpanQuery
	Min, Max int
}

func NewSpanPositionRangeQuery(match SpanQuery, min, max int) *SpanPositionRangeQuery {
	return &SpanPositionRangeQuery{Match: match, Min: min, Max: max, baseQuery: baseQuery{boost: 1}}
}

func (q *SpanPositionRangeQuery) Field() string              { return q.Match.Field() }
func (q *SpanPositionRangeQuery) ExtractTerms() []index.Term { return q.Match.ExtractTerms() }
func (q *SpanPositionRangeQuery) Rewrite(r index.IndexReader) (Query, error) {
	m, changed, err := rewriteSpanClause(r, q.Match)
	if err != nil {
		return nil, err
	}
	if !changed {
		return q, nil
	}
	return &SpanPositionRangeQuery{Match: m, Min: q.Min, Max: q.Max, baseQuery: q.baseQuery}, nil
}
func (q *SpanPositionRangeQuery) String(field string) string {
	return fmt.Sprintf("spanPosRange(%s, %d, %d)", q.Match.String(field), q.Min, q.Max)
}
func (q *SpanPositionRangeQuery) CreateWeight(s *IndexSearcher) (Weight, error) {
	return newSpanWeight(s, q)
}

func (q *SpanPositionRangeQuery) GetSpans(ctx index.AtomicReaderContext, liveDocs util.Bits) (Spans, error) {
	inner, err := q.Match.GetSpans(ctx, liveDocs)
	if err != nil || inner == nil {
		return nil, err
	}
	return &rangeSpans{inner: inner, min: q.Min, max: q.Max}, nil
}

type rangeSpans struct {
	inner    Spans
	min, max int
}

func (s *rangeSpans) Doc() int          { return s.inner.Doc() }
func (s *rangeSpans) Start() int        { return s.inner.Start() }
func (s *rangeSpans) End() int          { return s.inner.End() }
func (s *rangeSpans) Payload() [][]byte { return s.inner.Payload() }
func (s *rangeSpans) valid() bool       { return s.inner.Start() >= s.min && s.inner.End() <= s.max }

func (s *rangeSpans) Next() (bool, error) { return s.skipToValid(s.inner.Next) }
func (s *rangeSpans) Advance(target int) (bool, error) {
	return s.skipToValid(func() (bool, error) { return s.inner.Advance(target) })
}
func (s *rangeSpans) skipToValid(step func() (bool, error)) (bool, error) {
	ok, err := step()
	for ok && err == nil && !s.valid() {
		ok, err = s.inner.Next()
	}
	return ok, err
}

// ---- SpanPayloadCheckQuery ----

// SpanPayloadCheckQuery restricts Match's spans to those whose payload
// sequence equals Payloads byte-for-byte (§4.H, §4.I "payload-check
// enforces byte-equality against a reference list").
type SpanPayloadCheckQuery struct {
	baseQuery
	Match    SpanQuery
	Payloads [][]byte
}

func NewSpanPayloadCheckQuery(match SpanQuery, payloads [][]byte) *SpanPayloadCheckQuery {
	return &SpanPayloadCheckQuery{Match: match, Payloads: payloads, baseQuery: baseQuery{boost: 1}}
}

func (q *SpanPayloadCheckQuery) Field() string              { return q.Match.Field() }
func (q *SpanPayloadCheckQuery) ExtractTerms() []index.Term { return q.Match.ExtractTerms() }
func (q *SpanPayloadCheckQuery) Rewrite(r index.IndexReader) (Query, error) {
	m, changed, err := rewriteSpanClause(r, q.Match)
	if err != nil {
		return nil, err
	}
	if !changed {
		return q, nil
	}
	return &SpanPayloadCheckQuery{Match: m, Payloads: q.Payloads, baseQuery: q.baseQuery}, nil
}
func (q *SpanPayloadCheckQuery) String(field string) string {
	return "spanPayloadCheck(" + q.Match.String(field) + ")"
}
func (q *SpanPayloadCheckQuery) CreateWeight(s *IndexSearcher) (Weight, error) {
	return newSpanWeight(s, q)
}

func (q *SpanPayloadCheckQuery) GetSpans(ctx index.AtomicReaderContext, liveDocs util.Bits) (Spans, error) {
	inner, err := q.Match.GetSpans(ctx, liveDocs)
	if err != nil || inner == nil {
		return nil, err
	}
	return &payloadCheckSpans{inner: inner, refs: q.Payloads}, nil
}

type payloadCheckSpans struct {
	inner Spans
	refs  [][]byte
}

func (s *payloadCheckSpans) Doc() int          { return s.inner.Doc() }
func (s *payloadCheckSpans) Start() int        { return s.inner.Start() }
func (s *payloadCheckSpans) End() int          { return s.inner.End() }
func (s *payloadCheckSpans) Payload() [][]byte { return s.inner.Payload() }

func (s *payloadCheckSpans) valid() bool {
	pls := s.inner.Payload()
	if len(pls) != len(s.refs) {
		return false
	}
	for i, p := range pls {
		if !bytesEqual(p, s.refs[i]) {
			return false
		}
	}
	return true
}

func (s *payloadCheckSpans) Next() (bool, error) { return s.skipToValid(s.inner.Next) }
func (s *payloadCheckSpans) Advance(target int) (bool, error) {
	return s.skipToValid(func() (bool, error) { return s.inner.Advance(target) })
}
func (s *payloadCheckSpans) skipToValid(step func() (bool, error)) (bool, error) {
	ok, err := step()
	for ok && err == nil && !s.valid() {
		ok, err = s.inner.Next()
	}
	return ok, err
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ---- SpanWeight / SpanScorer ----

// SpanWeight is shared by every SpanQuery variant: term weighting for a
// span query works the same regardless of which combinator produced the
// spans (§4.I).
type SpanWeight struct {
	query      SpanQuery
	similarity Similarity
	idf        float32
	queryNorm  float32
	value      float32
}

func newSpanWeight(s *IndexSearcher, q SpanQuery) (Weight, error) {
	terms := q.ExtractTerms()
	sim := s.Similarity
	var idfSum float32
	for _, t := range terms {
		df, err := s.docFreq(t)
		if err != nil {
			return nil, err
		}
		idfSum += sim.Idf(df, maxInt(s.Reader.MaxDoc(), 1))
	}
	if len(terms) == 0 {
		idfSum = 1
	}
	w := &SpanWeight{query: q, similarity: sim, idf: idfSum, queryNorm: 1}
	qw := idfSum * q.Boost()
	w.value = qw * qw
	return w, nil
}

func (w *SpanWeight) Query() Query                  { return w.query }
func (w *SpanWeight) ValueForNormalization() float32 { return w.value }
func (w *SpanWeight) Normalize(norm, topLevelBoost float32) {
	w.queryNorm = norm * topLevelBoost
}

func (w *SpanWeight) Scorer(ctx index.AtomicReaderContext, _, _ bool, liveDocs util.Bits) (Scorer, error) {
	spans, err := w.query.GetSpans(ctx, liveDocs)
	if err != nil || spans == nil {
		return nil, err
	}
	ar, _ := ctx.Reader().(index.AtomicReader)
	return &SpanScorer{weight: w, spans: spans, reader: ar, doc: -1}, nil
}

// SpanScorer adapts a Spans iterator to the Scorer contract, counting how
// many spans land on each doc as its term-frequency-like factor (§4.I).
type SpanScorer struct {
	weight      *SpanWeight
	spans       Spans
	reader      index.AtomicReader
	doc         int
	freq        int
	initialized bool
	more        bool
}

func (s *SpanScorer) DocID() int { return s.doc }

func (s *SpanScorer) NextDoc() (int, error) {
	if !s.initialized {
		s.initialized = true
		ok, err := s.spans.Next()
		if err != nil {
			return 0, err
		}
		s.more = ok
	}
	return s.advanceDoc()
}

func (s *SpanScorer) Advance(target int) (int, error) {
	if !s.initialized {
		s.initialized = true
		ok, err := s.spans.Advance(target)
		if err != nil {
			return 0, err
		}
		s.more = ok
		return s.advanceDoc()
	}
	for s.more && s.spans.Doc() < target {
		ok, err := s.spans.Advance(target)
		if err != nil {
			return 0, err
		}
		s.more = ok
	}
	return s.advanceDoc()
}

func (s *SpanScorer) advanceDoc() (int, error) {
	if !s.more {
		s.doc = index.NO_MORE_DOCS
		return s.doc, nil
	}
	d := s.spans.Doc()
	count := 0
	for s.more && s.spans.Doc() == d {
		count++
		ok, err := s.spans.Next()
		if err != nil {
			return 0, err
		}
		s.more = ok
	}
	s.doc = d
	s.freq = count
	return d, nil
}

func (s *SpanScorer) Freq() (int, error) { return s.freq, nil }

func (s *SpanScorer) Score() (float32, error) {
	tf := s.weight.similarity.Tf(float32(s.freq))
	idf := s.weight.idf
	norm := decodeNorm(readerNorm(s.reader, s.weight.query.Field(), s.doc))
	return tf * idf * idf * s.weight.queryNorm * norm * s.weight.query.Boost(), nil
}

// RewriteAsSpanQuery expands a MultiTermQuery the way span rewrite does
// (§4.J "Span rewrite: analogous, but emits SpanOr of SpanTerm clauses so
// the result can nest inside other span queries"), letting a
// fuzzy/wildcard/prefix/range/regexp pattern sit inside a SpanNearQuery
// or other combinator.
func RewriteAsSpanQuery(reader index.IndexReader, q *MultiTermQuery) (SpanQuery, error) {
	matches, err := collectMatchingTerms(reader, q)
	if err != nil {
		return nil, err
	}
	clauses := make([]SpanQuery, len(matches))
	for i, m := range matches {
		clauses[i] = NewSpanTermQuery(index.NewTerm(q.FieldName, m.term))
	}
	sq := NewSpanOrQuery(clauses)
	sq.SetBoost(q.Boost())
	return sq, nil
}
