package search

import (
	"testing"

	"github.com/stormgo/golucene/index"
)

// fakeScorer walks a fixed, sorted doc-id list with a constant score, for
// exercising scorer combinators without building a real segment.
type fakeScorer struct {
	docs  []int
	score float32
	i     int
}

func newFakeScorer(docs []int, score float32) *fakeScorer { return &fakeScorer{docs: docs, score: score, i: -1} }

func (f *fakeScorer) DocID() int {
	if f.i < 0 {
		return -1
	}
	if f.i >= len(f.docs) {
		return index.NO_MORE_DOCS
	}
	return f.docs[f.i]
}

func (f *fakeScorer) NextDoc() (int, error) {
	f.i++
	return f.DocID(), nil
}

func (f *fakeScorer) Advance(target int) (int, error) {
	for f.i < len(f.docs) && f.DocID() < target {
		f.i++
	}
	return f.DocID(), nil
}

func (f *fakeScorer) Score() (float32, error) { return f.score, nil }
func (f *fakeScorer) Freq() (int, error)       { return 1, nil }

// BooleanScorer (the windowed variant) isn't wired as IndexSearcher's
// default (BooleanWeight.Scorer always builds BooleanScorer2), so it is
// exercised here directly against fake scorers instead of through a real
// search.
func TestBooleanScorerWindowed(t *testing.T) {
	required := []Scorer{newFakeScorer([]int{1, 5, 9, 3000}, 1)}
	optional := []Scorer{newFakeScorer([]int{1, 9, 3000, 3001}, 2)}
	prohibited := []Scorer{newFakeScorer([]int{5}, 0)}

	bs := NewBooleanScorer(required, optional, prohibited, 0)

	var got []int
	for {
		d, err := bs.NextDoc()
		if err != nil {
			t.Fatalf("NextDoc: %v", err)
		}
		if d == index.NO_MORE_DOCS {
			break
		}
		got = append(got, d)
	}

	// doc 5 is excluded by the prohibited clause despite matching required.
	want := []int{1, 9, 3000}
	if len(got) != len(want) {
		t.Fatalf("got docs %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got docs %v, want %v", got, want)
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Fatalf("BooleanScorer must yield strictly increasing doc-ids, got %v", got)
		}
	}
}

func TestBooleanScorerAdvance(t *testing.T) {
	required := []Scorer{newFakeScorer([]int{0, 4, 10, 2500}, 1)}
	bs := NewBooleanScorer(required, nil, nil, 0)
	d, err := bs.Advance(5)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if d != 10 {
		t.Fatalf("Advance(5) = %d, want 10", d)
	}
}

func buildSpanTestIndex(t *testing.T) index.IndexReader {
	return buildTestIndex(t, [][2]string{
		{"1", "the quick brown fox jumps over the lazy dog"},
		{"2", "the fox quick jumps"},
		{"3", "a completely unrelated sentence"},
	})
}

// SpanNearQuery (ordered) matches "quick" followed closely by "fox".
func TestSpanNearOrdered(t *testing.T) {
	reader := buildSpanTestIndex(t)
	s := NewIndexSearcher(reader)
	near := NewSpanNearQuery([]SpanQuery{
		NewSpanTermQuery(index.NewTerm("body", "quick")),
		NewSpanTermQuery(index.NewTerm("body", "fox")),
	}, 1, true)
	td, err := s.Search(near, 10)
	if err != nil {
		t.Fatalf("search span near ordered: %v", err)
	}
	if td.TotalHits != 1 {
		t.Fatalf("expected 1 ordered near hit (doc 1: quick brown fox), got %d: %+v", td.TotalHits, td.ScoreDocs)
	}
}

// Unordered near matches both "quick fox" and "fox quick" arrangements.
func TestSpanNearUnordered(t *testing.T) {
	reader := buildSpanTestIndex(t)
	s := NewIndexSearcher(reader)
	near := NewSpanNearQuery([]SpanQuery{
		NewSpanTermQuery(index.NewTerm("body", "quick")),
		NewSpanTermQuery(index.NewTerm("body", "fox")),
	}, 1, false)
	td, err := s.Search(near, 10)
	if err != nil {
		t.Fatalf("search span near unordered: %v", err)
	}
	if td.TotalHits != 2 {
		t.Fatalf("expected 2 unordered near hits (docs 1 and 2), got %d: %+v", td.TotalHits, td.ScoreDocs)
	}
}

func TestSpanOrQuery(t *testing.T) {
	reader := buildSpanTestIndex(t)
	s := NewIndexSearcher(reader)
	or := NewSpanOrQuery([]SpanQuery{
		NewSpanTermQuery(index.NewTerm("body", "dog")),
		NewSpanTermQuery(index.NewTerm("body", "unrelated")),
	})
	td, err := s.Search(or, 10)
	if err != nil {
		t.Fatalf("search span or: %v", err)
	}
	if td.TotalHits != 2 {
		t.Fatalf("expected 2 hits (docs 1 and 3), got %d: %+v", td.TotalHits, td.ScoreDocs)
	}
}

func TestSpanFirstQuery(t *testing.T) {
	reader := buildSpanTestIndex(t)
	s := NewIndexSearcher(reader)
	// "the" occurs at position 0 in doc 1 and doc 2; restrict to the first
	// position only.
	first := NewSpanFirstQuery(NewSpanTermQuery(index.NewTerm("body", "the")), 1)
	td, err := s.Search(first, 10)
	if err != nil {
		t.Fatalf("search span first: %v", err)
	}
	if td.TotalHits != 2 {
		t.Fatalf("expected 2 hits, got %d: %+v", td.TotalHits, td.ScoreDocs)
	}
}
