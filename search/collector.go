package search

import "github.com/stormgo/golucene/index"

// Collector receives every matching top-level doc-id from a search pass,
// already translated out of per-segment doc-ids (§4.K). SetScorer is
// called once per segment before its matches are delivered, letting a
// collector that needs per-doc scores pull them from the live scorer.
type Collector interface {
	SetScorer(scorer Scorer)
	Collect(doc int) error
}

// collectAll drains sc's remaining matches into collector, translating
// each segment-local doc-id to a top-level one via docBase (§4.K, §2
// component E's doc-id remapping).
func collectAll(collector Collector, sc Scorer, docBase int) error {
	for {
		d, err := sc.NextDoc()
		if err != nil {
			return err
		}
		if d == index.NO_MORE_DOCS {
			return nil
		}
		if err := collector.Collect(d + docBase); err != nil {
			return err
		}
	}
}

// ScoreDoc is one ranked hit (§4.K).
type ScoreDoc struct {
	Doc   int
	Score float32
}

// TopDocs is a bounded top-K result, plus the total number of matches
// actually seen (which can exceed len(ScoreDocs) when K truncates the
// result, §4.K).
type TopDocs struct {
	TotalHits int
	MaxScore  float32
	ScoreDocs []ScoreDoc
}

// TopScoreDocCollector keeps the top n hits by score (ties broken by
// ascending doc-id) using a small bounded min-heap, the classic way to
// avoid sorting every match (§4.K).
type TopScoreDocCollector struct {
	n         int
	scorer    Scorer
	totalHits int
	maxScore  float32
	heap      []ScoreDoc // min-heap on (score asc, doc desc) so heap[0] is the weakest kept hit
}

func NewTopScoreDocCollector(n int) *TopScoreDocCollector {
	return &TopScoreDocCollector{n: n}
}

func (c *TopScoreDocCollector) SetScorer(scorer Scorer) { c.scorer = scorer }

func (c *TopScoreDocCollector) Collect(doc int) error {
	score, err := c.scorer.Score()
	if err != nil {
		return err
	}
	c.totalHits++
	if score > c.maxScore {
		c.maxScore = score
	}
	sd := ScoreDoc{Doc: doc, Score: score}
	if len(c.heap) < c.n {
		c.heap = append(c.heap, sd)
		c.siftUp(len(c.heap) - 1)
		return nil
	}
	if c.n == 0 || !outranks(sd, c.heap[0]) {
		return nil
	}
	c.heap[0] = sd
	c.siftDown(0)
	return nil
}

// push inserts an already-scored ScoreDoc directly into the heap, for
// callers (mergeTopDocs) combining several leaves' finished TopDocs rather
// than collecting live doc hits off a Scorer.
func (c *TopScoreDocCollector) push(sd ScoreDoc) {
	c.totalHits++
	if sd.Score > c.maxScore {
		c.maxScore = sd.Score
	}
	if len(c.heap) < c.n {
		c.heap = append(c.heap, sd)
		c.siftUp(len(c.heap) - 1)
		return
	}
	if c.n == 0 || !outranks(sd, c.heap[0]) {
		return
	}
	c.heap[0] = sd
	c.siftDown(0)
}

// outranks reports whether candidate ranks strictly above the current
// weakest kept hit (higher score, or equal score and lower doc-id), i.e.
// collecting it would improve the top-n set.
func outranks(candidate, weakest ScoreDoc) bool {
	if candidate.Score != weakest.Score {
		return candidate.Score > weakest.Score
	}
	return candidate.Doc < weakest.Doc
}

// less reports whether a is weaker than b under the heap's ordering
// (lower score is weaker; equal score, higher doc-id is weaker — so the
// heap root is always the current weakest survivor).
func less(a, b ScoreDoc) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.Doc > b.Doc
}

func (c *TopScoreDocCollector) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !less(c.heap[i], c.heap[parent]) {
			break
		}
		c.heap[i], c.heap[parent] = c.heap[parent], c.heap[i]
		i = parent
	}
}

func (c *TopScoreDocCollector) siftDown(i int) {
	n := len(c.heap)
	for {
		l, r := 2*i+1, 2*i+2
		smallest := i
		if l < n && less(c.heap[l], c.heap[smallest]) {
			smallest = l
		}
		if r < n && less(c.heap[r], c.heap[smallest]) {
			smallest = r
		}
		if smallest == i {
			return
		}
		c.heap[i], c.heap[smallest] = c.heap[smallest], c.heap[i]
		i = smallest
	}
}

// TopDocs drains the heap into a descending-score (ascending-doc on ties)
// ScoreDoc slice.
func (c *TopScoreDocCollector) TopDocs() *TopDocs {
	out := make([]ScoreDoc, len(c.heap))
	copy(out, c.heap)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0; j-- {
			if out[j].Score > out[j-1].Score || (out[j].Score == out[j-1].Score && out[j].Doc < out[j-1].Doc) {
				out[j], out[j-1] = out[j-1], out[j]
			} else {
				break
			}
		}
	}
	return &TopDocs{TotalHits: c.totalHits, MaxScore: c.maxScore, ScoreDocs: out}
}

// HitCollector gathers every matching doc unbounded, for callers that
// want the full match set rather than a ranked top-K (§4.K).
type HitCollector struct {
	scorer Scorer
	Docs   []ScoreDoc
}

func NewHitCollector() *HitCollector { return &HitCollector{} }

func (c *HitCollector) SetScorer(scorer Scorer) { c.scorer = scorer }

func (c *HitCollector) Collect(doc int) error {
	score, err := c.scorer.Score()
	if err != nil {
		return err
	}
	c.Docs = append(c.Docs, ScoreDoc{Doc: doc, Score: score})
	return nil
}

// documentReader is the narrow interface TopFieldCollector needs to pull
// a sort field's stored value; both SegmentReader and the MultiReader
// implement it.
type documentReader interface {
	Document(docID int, visitor index.StoredFieldVisitor) error
}

// SortField names one stored field to sort by, in ascending order unless
// Reverse (§4.K TopFieldCollector).
type SortField struct {
	Field   string
	Reverse bool
}

// FieldComparator compares two docs' values for one SortField, stored
// fields being plain strings in this port (§3's data model has no
// separate typed doc-values store).
type FieldComparator struct {
	sf     SortField
	reader documentReader
}

func (c *FieldComparator) value(doc int) (string, error) {
	v := index.NewDocumentStoredFieldVisitor()
	if err := c.reader.Document(doc, v); err != nil {
		return "", err
	}
	f, _ := v.Doc.Get(c.sf.Field)
	return f.Value, nil
}

// compare returns <0, 0, >0 as a sorts before b, honoring Reverse.
func (c *FieldComparator) compare(a, b int) (int, error) {
	va, err := c.value(a)
	if err != nil {
		return 0, err
	}
	vb, err := c.value(b)
	if err != nil {
		return 0, err
	}
	cmp := 0
	switch {
	case va < vb:
		cmp = -1
	case va > vb:
		cmp = 1
	}
	if c.sf.Reverse {
		cmp = -cmp
	}
	return cmp, nil
}

// TopFieldCollector orders hits by a cascade of FieldComparators (later
// fields break ties left by earlier ones), falling back to ascending doc-id
// (§4.K). It keeps every collected doc rather than a bounded heap — a
// deliberate simplification over TopScoreDocCollector's incremental
// heap, since a multi-key field comparison isn't a simple numeric
// ordering a heap's sift can cheaply re-run; this port sorts once at
// TopDocs() time instead.
type TopFieldCollector struct {
	n       int
	scorer  Scorer
	fields  []SortField
	reader  documentReader
	docs    []int
	scores  map[int]float32
}

func NewTopFieldCollector(reader documentReader, n int, fields []SortField) *TopFieldCollector {
	return &TopFieldCollector{n: n, fields: fields, reader: reader, scores: map[int]float32{}}
}

func (c *TopFieldCollector) SetScorer(scorer Scorer) { c.scorer = scorer }

func (c *TopFieldCollector) Collect(doc int) error {
	score, err := c.scorer.Score()
	if err != nil {
		return err
	}
	c.docs = append(c.docs, doc)
	c.scores[doc] = score
	return nil
}

func (c *TopFieldCollector) TopDocs() (*TopDocs, error) {
	comparators := make([]*FieldComparator, len(c.fields))
	for i, sf := range c.fields {
		comparators[i] = &FieldComparator{sf: sf, reader: c.reader}
	}
	docs := append([]int(nil), c.docs...)
	var sortErr error
	for i := 1; i < len(docs); i++ {
		for j := i; j > 0; j-- {
			less, err := docLess(docs[j], docs[j-1], comparators)
			if err != nil {
				sortErr = err
				break
			}
			if !less {
				break
			}
			docs[j], docs[j-1] = docs[j-1], docs[j]
		}
		if sortErr != nil {
			break
		}
	}
	if sortErr != nil {
		return nil, sortErr
	}
	n := c.n
	if n <= 0 || n > len(docs) {
		n = len(docs)
	}
	out := make([]ScoreDoc, n)
	for i := 0; i < n; i++ {
		out[i] = ScoreDoc{Doc: docs[i], Score: c.scores[docs[i]]}
	}
	return &TopDocs{TotalHits: len(c.docs), ScoreDocs: out}, nil
}

func docLess(a, b int, comparators []*FieldComparator) (bool, error) {
	for _, fc := range comparators {
		cmp, err := fc.compare(a, b)
		if err != nil {
			return false, err
		}
		if cmp != 0 {
			return cmp < 0, nil
		}
	}
	return a < b, nil
}
