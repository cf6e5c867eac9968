package search

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/stormgo/golucene/index"
)

// Query is the common contract every tagged query variant implements
// (§4.H). Rewrite may return the query itself (a fixed point, §8 property
// 6); CreateWeight binds the query to one searcher's collection
// statistics, producing the per-searcher state a Scorer is built from.
type Query interface {
	Field() string
	ExtractTerms() []index.Term
	Rewrite(reader index.IndexReader) (Query, error)
	CreateWeight(searcher *IndexSearcher) (Weight, error)
	String(field string) string
	Boost() float32
	SetBoost(b float32)
}

// baseQuery factors out the boost storage every concrete query embeds,
// the way the teacher's structs share small embedded bases instead of a
// deep class hierarchy (§9: "avoid virtual hierarchies beyond one level").
type baseQuery struct {
	boost float32
}

func (b *baseQuery) Boost() float32    { return orOne(b.boost) }
func (b *baseQuery) SetBoost(v float32) { b.boost = v }

func orOne(b float32) float32 {
	if b == 0 {
		return 1
	}
	return b
}

// ---- TermQuery ----

type TermQuery struct {
	baseQuery
	Term index.Term
}

func NewTermQuery(term index.Term) *TermQuery { return &TermQuery{Term: term, baseQuery: baseQuery{boost: 1}} }

func (q *TermQuery) Field() string                 { return q.Term.Field }
func (q *TermQuery) ExtractTerms() []index.Term    { return []index.Term{q.Term} }
func (q *TermQuery) Rewrite(index.IndexReader) (Query, error) { return q, nil }
func (q *TermQuery) String(field string) string {
	if field == q.Term.Field {
		return q.Term.Text
	}
	return q.Term.String()
}
func (q *TermQuery) CreateWeight(s *IndexSearcher) (Weight, error) { return newTermWeight(s, q) }

// ---- PhraseQuery ----

// PhraseQuery matches terms[i] at positions[i] in the stored position
// stream, exact when Slop == 0 and sloppy (allowing a bounded total
// position shift) otherwise (§4.H, §4.I ExactPhraseScorer/SloppyPhraseScorer).
type PhraseQuery struct {
	baseQuery
	FieldName string
	Terms     []string
	Positions []int
	Slop      int
}

func NewPhraseQuery(field string, terms []string) *PhraseQuery {
	positions := make([]int, len(terms))
	for i := range terms {
		positions[i] = i
	}
	return &PhraseQuery{FieldName: field, Terms: terms, Positions: positions, baseQuery: baseQuery{boost: 1}}
}

func (q *PhraseQuery) Field() string { return q.FieldName }
func (q *PhraseQuery) ExtractTerms() []index.Term {
	out := make([]index.Term, len(q.Terms))
	for i, t := range q.Terms {
		out[i] = index.NewTerm(q.FieldName, t)
	}
	return out
}
func (q *PhraseQuery) Rewrite(index.IndexReader) (Query, error) { return q, nil }
func (q *PhraseQuery) String(string) string {
	return fmt.Sprintf("%s:\"%s\"~%d", q.FieldName, strings.Join(q.Terms, " "), q.Slop)
}
func (q *PhraseQuery) CreateWeight(s *IndexSearcher) (Weight, error) { return newPhraseWeight(s, q) }

// ---- BooleanQuery ----

type Occur int

const (
	Should Occur = iota
	Must
	MustNot
)

type BooleanClause struct {
	Query Query
	Occur Occur
}

// BooleanQuery combines clauses under MUST/SHOULD/MUST_NOT (§4.H); a clause
// count above MaxClauseCount fails fast, matching the original's guard
// against runaway multi-term expansions.
type BooleanQuery struct {
	baseQuery
	Clauses        []BooleanClause
	MinShouldMatch int
}

const MaxClauseCount = 1024

func NewBooleanQuery() *BooleanQuery { return &BooleanQuery{baseQuery: baseQuery{boost: 1}} }

func (q *BooleanQuery) Add(clause Query, occur Occur) *BooleanQuery {
	q.Clauses = append(q.Clauses, BooleanClause{Query: clause, Occur: occur})
	return q
}

func (q *BooleanQuery) Field() string {
	if len(q.Clauses) == 0 {
		return ""
	}
	return q.Clauses[0].Query.Field()
}

func (q *BooleanQuery) ExtractTerms() []index.Term {
	var out []index.Term
	for _, c := range q.Clauses {
		out = append(out, c.Query.ExtractTerms()...)
	}
	return out
}

func (q *BooleanQuery) Rewrite(r index.IndexReader) (Query, error) {
	if len(q.Clauses) > MaxClauseCount {
		return nil, fmt.Errorf("too many boolean clauses: %d > %d", len(q.Clauses), MaxClauseCount)
	}
	changed := false
	rewritten := &BooleanQuery{baseQuery: q.baseQuery, MinShouldMatch: q.MinShouldMatch}
	for _, c := range q.Clauses {
		rq, err := c.Query.Rewrite(r)
		if err != nil {
			return nil, err
		}
		if rq != c.Query {
			changed = true
		}
		rewritten.Clauses = append(rewritten.Clauses, BooleanClause{Query: rq, Occur: c.Occur})
	}
	if !changed {
		return q, nil
	}
	return rewritten, nil
}

func (q *BooleanQuery) String(field string) string {
	var sb strings.Builder
	for i, c := range q.Clauses {
		if i > 0 {
			sb.WriteString(" ")
		}
		switch c.Occur {
		case Must:
			sb.WriteString("+")
		case MustNot:
			sb.WriteString("-")
		}
		sb.WriteString(c.Query.String(field))
	}
	return sb.String()
}

func (q *BooleanQuery) CreateWeight(s *IndexSearcher) (Weight, error) { return newBooleanWeight(s, q) }

// ---- ConstantScoreQuery ----

// ConstantScoreQuery strips its inner query's per-document scores, scoring
// every match at Boost() instead (§4.H).
type ConstantScoreQuery struct {
	baseQuery
	Inner  Query
	Filter Filter
}

func NewConstantScoreQuery(inner Query) *ConstantScoreQuery {
	return &ConstantScoreQuery{Inner: inner, baseQuery: baseQuery{boost: 1}}
}

func NewConstantScoreFilterQuery(f Filter) *ConstantScoreQuery {
	return &ConstantScoreQuery{Filter: f, baseQuery: baseQuery{boost: 1}}
}

func (q *ConstantScoreQuery) Field() string {
	if q.Inner != nil {
		return q.Inner.Field()
	}
	return ""
}
func (q *ConstantScoreQuery) ExtractTerms() []index.Term {
	if q.Inner != nil {
		return q.Inner.ExtractTerms()
	}
	return nil
}
func (q *ConstantScoreQuery) Rewrite(r index.IndexReader) (Query, error) {
	if q.Inner == nil {
		return q, nil
	}
	rq, err := q.Inner.Rewrite(r)
	if err != nil {
		return nil, err
	}
	if rq == q.Inner {
		return q, nil
	}
	return &ConstantScoreQuery{Inner: rq, baseQuery: q.baseQuery}, nil
}
func (q *ConstantScoreQuery) String(field string) string {
	if q.Inner != nil {
		return "ConstantScore(" + q.Inner.String(field) + ")"
	}
	return "ConstantScore(filter)"
}
func (q *ConstantScoreQuery) CreateWeight(s *IndexSearcher) (Weight, error) {
	return newConstantScoreWeight(s, q)
}

// ---- FilteredQuery ----

// FilteredQuery intersects a docId set (Filter) with an inner query's
// matches (§4.H).
type FilteredQuery struct {
	baseQuery
	Inner  Query
	Filter Filter
}

func NewFilteredQuery(inner Query, f Filter) *FilteredQuery {
	return &FilteredQuery{Inner: inner, Filter: f, baseQuery: baseQuery{boost: 1}}
}

func (q *FilteredQuery) Field() string              { return q.Inner.Field() }
func (q *FilteredQuery) ExtractTerms() []index.Term { return q.Inner.ExtractTerms() }
func (q *FilteredQuery) Rewrite(r index.IndexReader) (Query, error) {
	rq, err := q.Inner.Rewrite(r)
	if err != nil {
		return nil, err
	}
	if rq == q.Inner {
		return q, nil
	}
	return &FilteredQuery{Inner: rq, Filter: q.Filter, baseQuery: q.baseQuery}, nil
}
func (q *FilteredQuery) String(field string) string {
	return "Filtered(" + q.Inner.String(field) + ")"
}
func (q *FilteredQuery) CreateWeight(s *IndexSearcher) (Weight, error) {
	return newFilteredWeight(s, q)
}

// ---- MultiTermQuery ----

type MultiTermKind int

const (
	MultiTermFuzzy MultiTermKind = iota
	MultiTermWildcard
	MultiTermPrefix
	MultiTermRange
	MultiTermRegexp
)

// MultiTermQuery is an unbounded-term-set query (§4.H "kind ∈ {fuzzy,
// wildcard, prefix, range, regex}"); Rewrite expands it into a concrete
// BooleanQuery or ConstantScoreQuery via RewriteMethod (§4.J).
type MultiTermQuery struct {
	baseQuery
	Kind          MultiTermKind
	FieldName     string
	Text          string // fuzzy/wildcard/prefix/regex pattern text
	Min, Max      string // range bounds; empty means unbounded
	MinInclusive  bool
	MaxInclusive  bool
	MaxEdits      int // fuzzy query's Levenshtein distance bound
	RewriteMethod RewriteMethod
}

func NewFuzzyQuery(field, text string, maxEdits int) *MultiTermQuery {
	return &MultiTermQuery{
		Kind: MultiTermFuzzy, FieldName: field, Text: text, MaxEdits: maxEdits,
		baseQuery: baseQuery{boost: 1}, RewriteMethod: TopTermsScoringBooleanQueryRewrite{Size: 50},
	}
}

func NewWildcardQuery(field, pattern string) *MultiTermQuery {
	return &MultiTermQuery{
		Kind: MultiTermWildcard, FieldName: field, Text: pattern,
		baseQuery: baseQuery{boost: 1}, RewriteMethod: ConstantScoreAutoRewrite{},
	}
}

func NewPrefixQuery(field, prefix string) *MultiTermQuery {
	return &MultiTermQuery{
		Kind: MultiTermPrefix, FieldName: field, Text: prefix,
		baseQuery: baseQuery{boost: 1}, RewriteMethod: ConstantScoreAutoRewrite{},
	}
}

func NewRangeQuery(field, min, max string, minInclusive, maxInclusive bool) *MultiTermQuery {
	return &MultiTermQuery{
		Kind: MultiTermRange, FieldName: field, Min: min, Max: max,
		MinInclusive: minInclusive, MaxInclusive: maxInclusive,
		baseQuery: baseQuery{boost: 1}, RewriteMethod: ConstantScoreAutoRewrite{},
	}
}

// GetMax returns the configured upper bound. SPEC_FULL's Open Question #2
// notes the original `NumericRangeFilter::getMax` bug (returning min); this
// port returns the actual configured max.
func (q *MultiTermQuery) GetMax() string { return q.Max }

func NewRegexpQuery(field, pattern string) *MultiTermQuery {
	return &MultiTermQuery{
		Kind: MultiTermRegexp, FieldName: field, Text: pattern,
		baseQuery: baseQuery{boost: 1}, RewriteMethod: ConstantScoreAutoRewrite{},
	}
}

func (q *MultiTermQuery) Field() string              { return q.FieldName }
func (q *MultiTermQuery) ExtractTerms() []index.Term { return nil }

func (q *MultiTermQuery) String(string) string {
	switch q.Kind {
	case MultiTermFuzzy:
		return fmt.Sprintf("%s:%s~%d", q.FieldName, q.Text, q.MaxEdits)
	case MultiTermWildcard:
		return fmt.Sprintf("%s:%s", q.FieldName, q.Text)
	case MultiTermPrefix:
		return fmt.Sprintf("%s:%s*", q.FieldName, q.Text)
	case MultiTermRange:
		return fmt.Sprintf("%s:[%s TO %s]", q.FieldName, q.Min, q.Max)
	default:
		return fmt.Sprintf("%s:/%s/", q.FieldName, q.Text)
	}
}

// Rewrite expands this MultiTermQuery's matching terms against reader into
// a concrete query via RewriteMethod (§4.J). Enumeration itself (deciding
// which dictionary terms match) is the same regardless of method; only the
// method decides what to build from the matches.
func (q *MultiTermQuery) Rewrite(r index.IndexReader) (Query, error) {
	method := q.RewriteMethod
	if method == nil {
		method = ConstantScoreAutoRewrite{}
	}
	return method.Rewrite(r, q)
}

func (q *MultiTermQuery) CreateWeight(*IndexSearcher) (Weight, error) {
	return nil, fmt.Errorf("MultiTermQuery must be rewritten before CreateWeight (got kind %v)", q.Kind)
}

// matchesTerm reports whether text matches this MultiTermQuery's pattern,
// the enumeration predicate every RewriteMethod shares.
func (q *MultiTermQuery) matchesTerm(text string) bool {
	switch q.Kind {
	case MultiTermPrefix:
		return strings.HasPrefix(text, q.Text)
	case MultiTermWildcard:
		return wildcardMatch(q.Text, text)
	case MultiTermFuzzy:
		return levenshtein(q.Text, text) <= q.MaxEdits
	case MultiTermRange:
		if q.Min != "" {
			if q.MinInclusive {
				if text < q.Min {
					return false
				}
			} else if text <= q.Min {
				return false
			}
		}
		if q.Max != "" {
			if q.MaxInclusive {
				if text > q.Max {
					return false
				}
			} else if text >= q.Max {
				return false
			}
		}
		return true
	case MultiTermRegexp:
		re, err := regexp.Compile(q.Text)
		if err != nil {
			return false
		}
		return re.MatchString(text)
	}
	return false
}

// wildcardMatch implements '?' (any one char) and '*' (any run) glob
// matching over term text, the classic WildcardQuery semantics.
func wildcardMatch(pattern, text string) bool {
	return wildcardMatchRunes([]rune(pattern), []rune(text))
}

func wildcardMatchRunes(p, t []rune) bool {
	if len(p) == 0 {
		return len(t) == 0
	}
	switch p[0] {
	case '*':
		for i := 0; i <= len(t); i++ {
			if wildcardMatchRunes(p[1:], t[i:]) {
				return true
			}
		}
		return false
	case '?':
		if len(t) == 0 {
			return false
		}
		return wildcardMatchRunes(p[1:], t[1:])
	default:
		if len(t) == 0 || t[0] != p[0] {
			return false
		}
		return wildcardMatchRunes(p[1:], t[1:])
	}
}

// levenshtein computes the classic edit distance, used by FuzzyQuery's
// term enumeration.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur := make([]int, len(rb)+1)
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min3(cur[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev = cur
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// ---- PayloadTermQuery ----

// PayloadTermQuery matches one term, folding each occurrence's payload
// bytes into the score via Function (§4.I PayloadTermScorer, SPEC_FULL's
// supplemented payload-scoring contrib; §8 end-to-end scenario #4).
type PayloadTermQuery struct {
	baseQuery
	Term     index.Term
	Function PayloadFunction
}

func NewPayloadTermQuery(term index.Term, fn PayloadFunction) *PayloadTermQuery {
	return &PayloadTermQuery{Term: term, Function: fn, baseQuery: baseQuery{boost: 1}}
}

func (q *PayloadTermQuery) Field() string                 { return q.Term.Field }
func (q *PayloadTermQuery) ExtractTerms() []index.Term    { return []index.Term{q.Term} }
func (q *PayloadTermQuery) Rewrite(index.IndexReader) (Query, error) { return q, nil }
func (q *PayloadTermQuery) String(string) string          { return "payload(" + q.Term.String() + ")" }
func (q *PayloadTermQuery) CreateWeight(s *IndexSearcher) (Weight, error) {
	return newPayloadTermWeight(s, q)
}
