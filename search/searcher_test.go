package search

import (
	"fmt"
	"testing"

	"github.com/stormgo/golucene/index"
	"github.com/stormgo/golucene/store"
)

func buildTestIndex(t *testing.T, docs [][2]string) index.IndexReader {
	t.Helper()
	dir := store.NewRAMDirectory()
	w, err := index.OpenIndexWriter(dir, index.NewWriterConfig(index.WhitespaceLowercaseAnalyzer{}))
	if err != nil {
		t.Fatalf("open writer: %v", err)
	}
	for _, d := range docs {
		doc := index.NewDocument()
		doc.Add(index.StringField("id", d[0]))
		doc.Add(index.TextField("body", d[1]))
		if err := w.AddDocument(doc); err != nil {
			t.Fatalf("add document: %v", err)
		}
	}
	if err := w.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	r, err := index.OpenDirectoryReader(dir)
	if err != nil {
		t.Fatalf("open reader: %v", err)
	}
	return r
}

// §8 scenario: term query ranks matching docs by TF-IDF, highest first.
func TestSearchTermQueryTopN(t *testing.T) {
	reader := buildTestIndex(t, [][2]string{
		{"1", "the quick brown fox"},
		{"2", "the quick quick fox jumps"},
		{"3", "a lazy dog sleeps"},
	})
	s := NewIndexSearcher(reader)
	td, err := s.Search(NewTermQuery(index.NewTerm("body", "quick")), 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if td.TotalHits != 2 {
		t.Fatalf("expected 2 hits, got %d", td.TotalHits)
	}
	if len(td.ScoreDocs) != 2 {
		t.Fatalf("expected 2 score docs, got %d", len(td.ScoreDocs))
	}
	if td.ScoreDocs[0].Score < td.ScoreDocs[1].Score {
		t.Fatalf("expected descending score order, got %v", td.ScoreDocs)
	}
}

// §8 scenario #1: exact and sloppy phrase matching.
func TestSearchPhraseQuery(t *testing.T) {
	reader := buildTestIndex(t, [][2]string{
		{"1", "quick brown fox"},
		{"2", "quick lazy brown fox"},
		{"3", "brown quick fox"},
	})
	s := NewIndexSearcher(reader)

	exact := NewPhraseQuery("body", []string{"quick", "brown"})
	td, err := s.Search(exact, 10)
	if err != nil {
		t.Fatalf("search exact phrase: %v", err)
	}
	if td.TotalHits != 1 {
		t.Fatalf("expected 1 exact phrase hit, got %d: %+v", td.TotalHits, td.ScoreDocs)
	}

	sloppy := NewPhraseQuery("body", []string{"quick", "brown"})
	sloppy.Slop = 1
	td, err = s.Search(sloppy, 10)
	if err != nil {
		t.Fatalf("search sloppy phrase: %v", err)
	}
	if td.TotalHits != 2 {
		t.Fatalf("expected 2 sloppy phrase hits (slop=1), got %d: %+v", td.TotalHits, td.ScoreDocs)
	}
}

// §8: BooleanQuery combines MUST/SHOULD/MUST_NOT clauses.
func TestSearchBooleanQuery(t *testing.T) {
	reader := buildTestIndex(t, [][2]string{
		{"1", "quick brown fox"},
		{"2", "quick brown dog"},
		{"3", "slow brown fox"},
		{"4", "quick silver fox"},
	})
	s := NewIndexSearcher(reader)

	bq := NewBooleanQuery()
	bq.Add(NewTermQuery(index.NewTerm("body", "quick")), Must)
	bq.Add(NewTermQuery(index.NewTerm("body", "fox")), Must)
	bq.Add(NewTermQuery(index.NewTerm("body", "dog")), MustNot)
	td, err := s.Search(bq, 10)
	if err != nil {
		t.Fatalf("search boolean: %v", err)
	}
	if td.TotalHits != 2 {
		t.Fatalf("expected 2 hits (docs 1 and 4), got %d: %+v", td.TotalHits, td.ScoreDocs)
	}
}

// §8 scenario #5: ConstantScoreAutoRewrite on a 3-doc index. The two
// matching terms visit 2 docs, past the doc-count cutoff (0.1% of 3 rounds
// to 0), so the filter-backed form is used; it must match every doc whose
// field has a term with the prefix.
func TestConstantScoreAutoRewritePrefix(t *testing.T) {
	reader := buildTestIndex(t, [][2]string{
		{"1", "apple aardvark"},
		{"2", "apricot banana"},
		{"3", "cherry date"},
	})
	s := NewIndexSearcher(reader)
	q := NewPrefixQuery("body", "ap")
	td, err := s.Search(q, 10)
	if err != nil {
		t.Fatalf("search prefix: %v", err)
	}
	if td.TotalHits != 2 {
		t.Fatalf("expected 2 hits for prefix ap (docs 1 and 2), got %d: %+v", td.TotalHits, td.ScoreDocs)
	}
}

// §8 scenario #6: segments_N round-trip across writer commit and reader open.
func TestSegmentsRoundTrip(t *testing.T) {
	dir := store.NewRAMDirectory()
	w, err := index.OpenIndexWriter(dir, index.NewWriterConfig(index.WhitespaceLowercaseAnalyzer{}))
	if err != nil {
		t.Fatalf("open writer: %v", err)
	}
	doc := index.NewDocument()
	doc.Add(index.StringField("id", "1"))
	doc.Add(index.TextField("body", "hello world"))
	if err := w.AddDocument(doc); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := w.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	r, err := index.OpenDirectoryReader(dir)
	if err != nil {
		t.Fatalf("reopen after commit: %v", err)
	}
	if r.MaxDoc() != 1 {
		t.Fatalf("expected 1 doc after reopen, got %d", r.MaxDoc())
	}
	s := NewIndexSearcher(r)
	td, err := s.Search(NewTermQuery(index.NewTerm("body", "hello")), 10)
	if err != nil {
		t.Fatalf("search after reopen: %v", err)
	}
	if td.TotalHits != 1 {
		t.Fatalf("expected 1 hit after reopen, got %d", td.TotalHits)
	}
}

// §4.J/§8 scenario #5: once the matching term count passes
// rewriteTermCountCutoff, ConstantScoreAutoRewrite must switch to the
// filter-backed form instead of expanding a clause per term.
func TestConstantScoreAutoRewriteSwitchesToFilterPastCutoff(t *testing.T) {
	docs := make([][2]string, rewriteTermCountCutoff+1)
	for i := range docs {
		docs[i] = [2]string{fmt.Sprintf("%d", i), fmt.Sprintf("ap%03d", i)}
	}
	reader := buildTestIndex(t, docs)
	s := NewIndexSearcher(reader)
	q := NewPrefixQuery("body", "ap")

	rq, err := s.rewrite(q)
	if err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	csq, ok := rq.(*ConstantScoreQuery)
	if !ok {
		t.Fatalf("rewritten query is %T, want *ConstantScoreQuery", rq)
	}
	if csq.Filter == nil {
		t.Fatalf("expected the filter-backed fallback (Filter set), got Inner=%v Filter=%v — still expanding past the cutoff", csq.Inner, csq.Filter)
	}

	td, err := s.Search(q, len(docs))
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if td.TotalHits != len(docs) {
		t.Fatalf("expected %d hits, got %d", len(docs), td.TotalHits)
	}
}

// §4.M/§5: SearchParallel fans one task per leaf out over Executor and
// merges the per-leaf top-n back into one ranked result, matching
// sequential Search's output.
func TestSearchParallel(t *testing.T) {
	reader := buildTestIndex(t, [][2]string{
		{"1", "the quick brown fox"},
		{"2", "the quick quick fox jumps"},
		{"3", "a lazy dog sleeps"},
	})
	s := NewIndexSearcher(reader)
	s.Executor = NewExecutor(2)
	q := NewTermQuery(index.NewTerm("body", "quick"))

	want, err := s.Search(q, 10)
	if err != nil {
		t.Fatalf("sequential search: %v", err)
	}
	got, err := s.SearchParallel(q, 10)
	if err != nil {
		t.Fatalf("parallel search: %v", err)
	}
	if got.TotalHits != want.TotalHits {
		t.Fatalf("parallel TotalHits = %d, want %d", got.TotalHits, want.TotalHits)
	}
	if len(got.ScoreDocs) != len(want.ScoreDocs) {
		t.Fatalf("parallel ScoreDocs len = %d, want %d", len(got.ScoreDocs), len(want.ScoreDocs))
	}
	for i := range want.ScoreDocs {
		if got.ScoreDocs[i].Doc != want.ScoreDocs[i].Doc {
			t.Fatalf("parallel ScoreDocs[%d] = %+v, want %+v", i, got.ScoreDocs[i], want.ScoreDocs[i])
		}
	}
}

// Payload-weighted scoring (§8 scenario #4): BoostingTermSimilarity
// neutralizes tf/idf/queryNorm, leaving the payload function's aggregate
// times the field's length norm as the score.
func TestPayloadTermQueryScoring(t *testing.T) {
	reader := buildTestIndex(t, [][2]string{
		{"1", "alpha beta"},
	})
	s := NewIndexSearcher(reader)
	s.Similarity = BoostingTermSimilarity{}
	q := NewPayloadTermQuery(index.NewTerm("body", "alpha"), MaxPayloadFunction{})
	td, err := s.Search(q, 10)
	if err != nil {
		t.Fatalf("search payload term: %v", err)
	}
	if td.TotalHits != 1 {
		t.Fatalf("expected 1 hit, got %d", td.TotalHits)
	}
}
