package search

import (
	"github.com/stormgo/golucene/index"
	"github.com/stormgo/golucene/util"
)

// Scorer walks a query's matching doc-ids in strictly increasing order,
// scoring each one (§4.I). It is the runtime counterpart of Weight, bound
// to one segment's postings.
type Scorer interface {
	DocID() int
	NextDoc() (int, error)
	Advance(target int) (int, error)
	Score() (float32, error)
	Freq() (int, error)
}

// ---- TermScorer ----

type TermScorer struct {
	weight   *TermWeight
	reader   index.AtomicReader
	docsEnum index.DocsEnum
	doc      int
}

func (s *TermScorer) DocID() int { return s.doc }

func (s *TermScorer) NextDoc() (int, error) {
	d, err := s.docsEnum.NextDoc()
	s.doc = d
	return d, err
}

func (s *TermScorer) Advance(target int) (int, error) {
	d, err := s.docsEnum.Advance(target)
	s.doc = d
	return d, err
}

func (s *TermScorer) Freq() (int, error) { return s.docsEnum.Freq(), nil }

func (s *TermScorer) Score() (float32, error) {
	freq := float32(s.docsEnum.Freq())
	tf := s.weight.similarity.Tf(freq)
	norm := decodeNorm(readerNorm(s.reader, s.weight.query.Term.Field, s.doc))
	// queryWeight already carries idf*boost*queryNorm; the second idf
	// factor makes the score tf * idf^2 * norm * boost (times queryNorm).
	return tf * s.weight.queryWeight * s.weight.idf * norm, nil
}

// decodeNorm turns the single encoded norm byte back into a length-
// normalization multiplier. Field norms are stored pre-encoded (util's
// byte-float encoding, §4.D); a missing field (norm 0) is treated as
// unnormalized (1.0) rather than zeroing out every score.
func decodeNorm(raw float32) float32 {
	if raw == 0 {
		return 1
	}
	return raw
}

// ---- ConjunctionScorer ----

// ConjunctionScorer matches only docs present in every sub-scorer,
// advancing the whole set in lockstep toward the largest current doc-id
// seen (§4.I).
type ConjunctionScorer struct {
	scorers []Scorer
	doc     int
}

func NewConjunctionScorer(scorers []Scorer) *ConjunctionScorer {
	return &ConjunctionScorer{scorers: scorers, doc: -1}
}

func (c *ConjunctionScorer) DocID() int { return c.doc }

func (c *ConjunctionScorer) NextDoc() (int, error) {
	if len(c.scorers) == 0 {
		c.doc = index.NO_MORE_DOCS
		return c.doc, nil
	}
	d, err := c.scorers[0].NextDoc()
	if err != nil {
		return 0, err
	}
	return c.settle(d)
}

func (c *ConjunctionScorer) Advance(target int) (int, error) {
	if len(c.scorers) == 0 {
		c.doc = index.NO_MORE_DOCS
		return c.doc, nil
	}
	d, err := c.scorers[0].Advance(target)
	if err != nil {
		return 0, err
	}
	return c.settle(d)
}

func (c *ConjunctionScorer) settle(candidate int) (int, error) {
	for {
		if candidate == index.NO_MORE_DOCS {
			c.doc = index.NO_MORE_DOCS
			return c.doc, nil
		}
		agree := true
		for i := 1; i < len(c.scorers); i++ {
			d, err := c.scorers[i].Advance(candidate)
			if err != nil {
				return 0, err
			}
			if d != candidate {
				candidate = d
				agree = false
				break
			}
		}
		if agree {
			c.doc = candidate
			return candidate, nil
		}
		d0, err := c.scorers[0].Advance(candidate)
		if err != nil {
			return 0, err
		}
		candidate = d0
	}
}

func (c *ConjunctionScorer) Freq() (int, error) { return len(c.scorers), nil }

func (c *ConjunctionScorer) Score() (float32, error) {
	var sum float32
	for _, s := range c.scorers {
		sc, err := s.Score()
		if err != nil {
			return 0, err
		}
		sum += sc
	}
	return sum, nil
}

// ---- DisjunctionSumScorer ----

// DisjunctionSumScorer matches any doc reached by at least minShouldMatch
// of its sub-scorers, summing their scores (§4.I).
type DisjunctionSumScorer struct {
	subScorers     []Scorer
	minShouldMatch int
	doc            int
	curScore       float32
	curFreq        int
}

func NewDisjunctionSumScorer(scorers []Scorer, minShouldMatch int) *DisjunctionSumScorer {
	return &DisjunctionSumScorer{subScorers: scorers, minShouldMatch: minShouldMatch, doc: -1}
}

func (d *DisjunctionSumScorer) DocID() int { return d.doc }

func (d *DisjunctionSumScorer) NextDoc() (int, error) { return d.advance(d.doc + 1) }
func (d *DisjunctionSumScorer) Advance(target int) (int, error) { return d.advance(target) }

func (d *DisjunctionSumScorer) threshold() int {
	if d.minShouldMatch <= 0 {
		return 1
	}
	return d.minShouldMatch
}

func (d *DisjunctionSumScorer) advance(target int) (int, error) {
	if target < 0 {
		target = 0
	}
	for {
		best := index.NO_MORE_DOCS
		for _, s := range d.subScorers {
			cur := s.DocID()
			if cur < target {
				nd, err := s.Advance(target)
				if err != nil {
					return 0, err
				}
				cur = nd
			}
			if cur < best {
				best = cur
			}
		}
		if best == index.NO_MORE_DOCS {
			d.doc = index.NO_MORE_DOCS
			return d.doc, nil
		}
		var sum float32
		matched := 0
		for _, s := range d.subScorers {
			if s.DocID() == best {
				sc, err := s.Score()
				if err != nil {
					return 0, err
				}
				sum += sc
				matched++
			}
		}
		if matched >= d.threshold() {
			d.doc = best
			d.curScore = sum
			d.curFreq = matched
			return best, nil
		}
		target = best + 1
	}
}

func (d *DisjunctionSumScorer) Score() (float32, error) { return d.curScore, nil }
func (d *DisjunctionSumScorer) Freq() (int, error)      { return d.curFreq, nil }

// ---- BooleanScorer2 (in-order) ----

// BooleanScorer2 drives a MUST/SHOULD/MUST_NOT combination in strict
// increasing doc-id order: required clauses form the conjunction driver
// (or, absent any, the should clauses form a minShouldMatch disjunction),
// prohibited clauses veto candidates, and should clauses add their score
// opportunistically on top of a required match (§4.I).
type BooleanScorer2 struct {
	must, should, mustNot []Scorer
	driver                Scorer
	doc                   int
	curScore              float32
}

func NewBooleanScorer2(must, should, mustNot []Scorer, minShouldMatch int) *BooleanScorer2 {
	b := &BooleanScorer2{must: must, should: should, mustNot: mustNot, doc: -1}
	if len(must) > 0 {
		b.driver = NewConjunctionScorer(must)
	} else {
		msm := minShouldMatch
		if msm <= 0 {
			msm = 1
		}
		b.driver = NewDisjunctionSumScorer(should, msm)
	}
	return b
}

func (b *BooleanScorer2) DocID() int         { return b.doc }
func (b *BooleanScorer2) Freq() (int, error) { return 1, nil }
func (b *BooleanScorer2) Score() (float32, error) { return b.curScore, nil }

func (b *BooleanScorer2) NextDoc() (int, error) {
	d, err := b.driver.NextDoc()
	if err != nil {
		return 0, err
	}
	return b.settle(d)
}

func (b *BooleanScorer2) Advance(target int) (int, error) {
	d, err := b.driver.Advance(target)
	if err != nil {
		return 0, err
	}
	return b.settle(d)
}

func (b *BooleanScorer2) settle(d int) (int, error) {
	for {
		if d == index.NO_MORE_DOCS {
			b.doc = index.NO_MORE_DOCS
			return b.doc, nil
		}
		prohibited, err := b.isProhibited(d)
		if err != nil {
			return 0, err
		}
		if prohibited {
			nd, err := b.driver.NextDoc()
			if err != nil {
				return 0, err
			}
			d = nd
			continue
		}
		score, err := b.driver.Score()
		if err != nil {
			return 0, err
		}
		if len(b.must) > 0 {
			for _, s := range b.should {
				sd := s.DocID()
				if sd < d {
					sd, err = s.Advance(d)
					if err != nil {
						return 0, err
					}
				}
				if sd == d {
					sc, err := s.Score()
					if err != nil {
						return 0, err
					}
					score += sc
				}
			}
		}
		b.doc = d
		b.curScore = score
		return d, nil
	}
}

func (b *BooleanScorer2) isProhibited(d int) (bool, error) {
	for _, s := range b.mustNot {
		sd := s.DocID()
		if sd < d {
			nd, err := s.Advance(d)
			if err != nil {
				return false, err
			}
			sd = nd
		}
		if sd == d {
			return true, nil
		}
	}
	return false, nil
}

// ---- BooleanScorer (windowed) ----

// booleanScorerWindowSize bounds the bucket table a window-based scan
// builds per pass (§4.I: "an alternative windowed scorer trades strict
// ordering for fewer per-doc virtual calls when the collector doesn't
// need order"). This port always materializes a window's matches in
// doc-id order before yielding them, so BooleanScorer still satisfies the
// Scorer contract's increasing-doc-id invariant; only the windowed
// *construction* of a pass differs from BooleanScorer2; it exists as a
// documented alternate scoring path, not as the default (IndexSearcher
// always builds BooleanScorer2, matching every collector in this port
// requiring in-order delivery).
const booleanScorerWindowSize = 2048

type boolBucket struct {
	score      float32
	reqMatched int
	optMatched int
	prohibited bool
}

type BooleanScorer struct {
	required, optional, prohibited []Scorer
	minShouldMatch                 int
	base                           int // base of the window b.queue's offsets are relative to
	nextBase                       int // base of the next window to fill, or -1 once exhausted
	queue                          []int
	scores                         map[int]float32
	qi                             int
	doc                            int
	curScore                       float32
}

func NewBooleanScorer(required, optional, prohibited []Scorer, minShouldMatch int) *BooleanScorer {
	return &BooleanScorer{required: required, optional: optional, prohibited: prohibited, minShouldMatch: minShouldMatch, doc: -1, nextBase: 0}
}

func (b *BooleanScorer) DocID() int              { return b.doc }
func (b *BooleanScorer) Freq() (int, error)       { return 1, nil }
func (b *BooleanScorer) Score() (float32, error)  { return b.curScore, nil }

func (b *BooleanScorer) NextDoc() (int, error) {
	for {
		if b.qi < len(b.queue) {
			off := b.queue[b.qi]
			b.qi++
			b.doc = b.base + off
			b.curScore = b.scores[off]
			return b.doc, nil
		}
		if b.nextBase < 0 {
			b.doc = index.NO_MORE_DOCS
			return b.doc, nil
		}
		if err := b.fillWindow(b.nextBase); err != nil {
			return 0, err
		}
	}
}

func (b *BooleanScorer) Advance(target int) (int, error) {
	for {
		d, err := b.NextDoc()
		if err != nil || d == index.NO_MORE_DOCS || d >= target {
			return d, err
		}
	}
}

func (b *BooleanScorer) fillWindow(base int) error {
	buckets := make(map[int]*boolBucket, booleanScorerWindowSize/4)
	top := base + booleanScorerWindowSize
	next := index.NO_MORE_DOCS

	mark := func(s Scorer, kind int) error {
		d := s.DocID()
		if d < base {
			nd, err := s.Advance(base)
			if err != nil {
				return err
			}
			d = nd
		}
		for d < top && d != index.NO_MORE_DOCS {
			idx := d - base
			bk := buckets[idx]
			if bk == nil {
				bk = &boolBucket{}
				buckets[idx] = bk
			}
			switch kind {
			case 0:
				sc, err := s.Score()
				if err != nil {
					return err
				}
				bk.reqMatched++
				bk.score += sc
			case 1:
				sc, err := s.Score()
				if err != nil {
					return err
				}
				bk.optMatched++
				bk.score += sc
			case 2:
				bk.prohibited = true
			}
			nd, err := s.NextDoc()
			if err != nil {
				return err
			}
			d = nd
		}
		if d != index.NO_MORE_DOCS && d < next {
			next = d
		}
		return nil
	}

	for _, s := range b.required {
		if err := mark(s, 0); err != nil {
			return err
		}
	}
	for _, s := range b.optional {
		if err := mark(s, 1); err != nil {
			return err
		}
	}
	for _, s := range b.prohibited {
		if err := mark(s, 2); err != nil {
			return err
		}
	}

	msm := b.minShouldMatch
	if msm <= 0 {
		msm = 1
	}
	needOptional := len(b.required) == 0

	b.queue = b.queue[:0]
	b.scores = make(map[int]float32, len(buckets))
	for idx, bk := range buckets {
		if bk.prohibited {
			continue
		}
		if len(b.required) > 0 && bk.reqMatched != len(b.required) {
			continue
		}
		if needOptional && bk.optMatched < msm {
			continue
		}
		b.queue = append(b.queue, idx)
		b.scores[idx] = bk.score
	}
	sortInts(b.queue)
	b.qi = 0
	b.base = base

	if next == index.NO_MORE_DOCS {
		b.nextBase = -1
	} else {
		b.nextBase = next
	}
	return nil
}

func sortInts(s []int) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

// ---- Phrase scorers ----

type phrasePosting struct {
	dpe    index.DocsAndPositionsEnum
	offset int
}

// ExactPhraseScorer requires every term to occur at exactly its query
// offset relative to a shared base position (§4.I).
type ExactPhraseScorer struct {
	weight   *PhraseWeight
	postings []phrasePosting
	reader   index.AtomicReader
	doc      int
	freq     int
}

func (s *ExactPhraseScorer) DocID() int { return s.doc }

func (s *ExactPhraseScorer) NextDoc() (int, error) { return s.advance(s.doc + 1) }
func (s *ExactPhraseScorer) Advance(target int) (int, error) { return s.advance(target) }

func (s *ExactPhraseScorer) advance(target int) (int, error) {
	for {
		doc, err := s.syncTo(target)
		if err != nil {
			return 0, err
		}
		if doc == index.NO_MORE_DOCS {
			s.doc = doc
			return doc, nil
		}
		freq, err := s.phraseFreq()
		if err != nil {
			return 0, err
		}
		if freq > 0 {
			s.doc = doc
			s.freq = freq
			return doc, nil
		}
		target = doc + 1
	}
}

func (s *ExactPhraseScorer) syncTo(target int) (int, error) {
	if len(s.postings) == 0 {
		return index.NO_MORE_DOCS, nil
	}
	d, err := s.postings[0].dpe.Advance(target)
	if err != nil {
		return 0, err
	}
	for {
		if d == index.NO_MORE_DOCS {
			return d, nil
		}
		agree := true
		for i := 1; i < len(s.postings); i++ {
			nd, err := s.postings[i].dpe.Advance(d)
			if err != nil {
				return 0, err
			}
			if nd != d {
				d = nd
				agree = false
				break
			}
		}
		if agree {
			return d, nil
		}
		nd, err := s.postings[0].dpe.Advance(d)
		if err != nil {
			return 0, err
		}
		d = nd
	}
}

func (s *ExactPhraseScorer) phraseFreq() (int, error) {
	curs := make([]int, len(s.postings))
	remaining := make([]int, len(s.postings))
	for i, p := range s.postings {
		remaining[i] = p.dpe.Freq()
		if remaining[i] == 0 {
			return 0, nil
		}
		pos, err := p.dpe.NextPosition()
		if err != nil {
			return 0, err
		}
		curs[i] = pos - p.offset
		remaining[i]--
	}

	freq := 0
loop:
	for {
		maxPos := curs[0]
		for _, c := range curs[1:] {
			if c > maxPos {
				maxPos = c
			}
		}
		for i := range curs {
			for curs[i] < maxPos {
				if remaining[i] == 0 {
					break loop
				}
				pos, err := s.postings[i].dpe.NextPosition()
				if err != nil {
					return 0, err
				}
				curs[i] = pos - s.postings[i].offset
				remaining[i]--
			}
		}
		allEqual := true
		for _, c := range curs {
			if c != maxPos {
				allEqual = false
				break
			}
		}
		if allEqual {
			freq++
			canAdvance := true
			for _, r := range remaining {
				if r == 0 {
					canAdvance = false
					break
				}
			}
			if !canAdvance {
				break
			}
			for i := range curs {
				pos, err := s.postings[i].dpe.NextPosition()
				if err != nil {
					return 0, err
				}
				curs[i] = pos - s.postings[i].offset
				remaining[i]--
			}
			continue
		}
		minIdx := 0
		for i := 1; i < len(curs); i++ {
			if curs[i] < curs[minIdx] {
				minIdx = i
			}
		}
		if remaining[minIdx] == 0 {
			break
		}
		pos, err := s.postings[minIdx].dpe.NextPosition()
		if err != nil {
			return 0, err
		}
		curs[minIdx] = pos - s.postings[minIdx].offset
		remaining[minIdx]--
	}
	return freq, nil
}

func (s *ExactPhraseScorer) Freq() (int, error) { return s.freq, nil }

func (s *ExactPhraseScorer) Score() (float32, error) {
	tf := s.weight.similarity.Tf(float32(s.freq))
	norm := decodeNorm(readerNorm(s.reader, s.weight.query.FieldName, s.doc))
	idf := s.weight.idf
	return tf * idf * idf * s.weight.queryNorm * norm * s.weight.query.Boost(), nil
}

// SloppyPhraseScorer allows terms to appear out of their exact query
// offsets as long as the total positional span stays within slop,
// scoring each qualifying span via Similarity.SloppyFreq (§4.I). The
// span metric used here is the adjusted-position spread (max-min across
// all terms' current offset-adjusted positions); this is a simplified
// stand-in for the shift-sum metric of the original contrib's
// PhrasePositions repeat-handling, equivalent for two-term phrases
// without repeated terms (§8 scenario #1) but not identical for 3+ term
// phrases with repeats.
type SloppyPhraseScorer struct {
	weight   *PhraseWeight
	postings []phrasePosting
	reader   index.AtomicReader
	slop     int
	doc      int
	freq     float32
}

func (s *SloppyPhraseScorer) DocID() int { return s.doc }

func (s *SloppyPhraseScorer) NextDoc() (int, error) { return s.advance(s.doc + 1) }
func (s *SloppyPhraseScorer) Advance(target int) (int, error) { return s.advance(target) }

func (s *SloppyPhraseScorer) advance(target int) (int, error) {
	for {
		doc, err := s.syncTo(target)
		if err != nil {
			return 0, err
		}
		if doc == index.NO_MORE_DOCS {
			s.doc = doc
			return doc, nil
		}
		freq, err := s.phraseFreq()
		if err != nil {
			return 0, err
		}
		if freq > 0 {
			s.doc = doc
			s.freq = freq
			return doc, nil
		}
		target = doc + 1
	}
}

func (s *SloppyPhraseScorer) syncTo(target int) (int, error) {
	if len(s.postings) == 0 {
		return index.NO_MORE_DOCS, nil
	}
	d, err := s.postings[0].dpe.Advance(target)
	if err != nil {
		return 0, err
	}
	for {
		if d == index.NO_MORE_DOCS {
			return d, nil
		}
		agree := true
		for i := 1; i < len(s.postings); i++ {
			nd, err := s.postings[i].dpe.Advance(d)
			if err != nil {
				return 0, err
			}
			if nd != d {
				d = nd
				agree = false
				break
			}
		}
		if agree {
			return d, nil
		}
		nd, err := s.postings[0].dpe.Advance(d)
		if err != nil {
			return 0, err
		}
		d = nd
	}
}

func (s *SloppyPhraseScorer) phraseFreq() (float32, error) {
	curs := make([]int, len(s.postings))
	remaining := make([]int, len(s.postings))
	for i, p := range s.postings {
		remaining[i] = p.dpe.Freq()
		if remaining[i] == 0 {
			return 0, nil
		}
		pos, err := p.dpe.NextPosition()
		if err != nil {
			return 0, err
		}
		curs[i] = pos - p.offset
		remaining[i]--
	}

	var total float32
	for {
		minPos, maxPos := curs[0], curs[0]
		for _, c := range curs[1:] {
			if c < minPos {
				minPos = c
			}
			if c > maxPos {
				maxPos = c
			}
		}
		distance := maxPos - minPos
		if distance <= s.slop {
			total += s.weight.similarity.SloppyFreq(distance)
			canAdvance := true
			for _, r := range remaining {
				if r == 0 {
					canAdvance = false
					break
				}
			}
			if !canAdvance {
				break
			}
			for i := range curs {
				pos, err := s.postings[i].dpe.NextPosition()
				if err != nil {
					return 0, err
				}
				curs[i] = pos - s.postings[i].offset
				remaining[i]--
			}
			continue
		}
		minIdx := 0
		for i := 1; i < len(curs); i++ {
			if curs[i] < curs[minIdx] {
				minIdx = i
			}
		}
		if remaining[minIdx] == 0 {
			break
		}
		pos, err := s.postings[minIdx].dpe.NextPosition()
		if err != nil {
			return 0, err
		}
		curs[minIdx] = pos - s.postings[minIdx].offset
		remaining[minIdx]--
	}
	return total, nil
}

func (s *SloppyPhraseScorer) Freq() (int, error) { return int(s.freq + 0.5), nil }

func (s *SloppyPhraseScorer) Score() (float32, error) {
	tf := s.weight.similarity.Tf(s.freq)
	norm := decodeNorm(readerNorm(s.reader, s.weight.query.FieldName, s.doc))
	idf := s.weight.idf
	return tf * idf * idf * s.weight.queryNorm * norm * s.weight.query.Boost(), nil
}

// ---- Payload scorer ----

// PayloadTermScorer folds each occurrence's payload byte into the score
// through a PayloadFunction (§4.I, "Supplemented features").
type PayloadTermScorer struct {
	weight *PayloadTermWeight
	reader index.AtomicReader
	dpe    index.DocsAndPositionsEnum
	fn     PayloadFunction
	doc    int
	freq   int
	payloadScore float32
}

func (s *PayloadTermScorer) DocID() int { return s.doc }

func (s *PayloadTermScorer) NextDoc() (int, error) {
	d, err := s.dpe.NextDoc()
	if err != nil {
		return 0, err
	}
	s.doc = d
	if d != index.NO_MORE_DOCS {
		if err := s.computePayload(); err != nil {
			return 0, err
		}
	}
	return d, nil
}

func (s *PayloadTermScorer) Advance(target int) (int, error) {
	d, err := s.dpe.Advance(target)
	if err != nil {
		return 0, err
	}
	s.doc = d
	if d != index.NO_MORE_DOCS {
		if err := s.computePayload(); err != nil {
			return 0, err
		}
	}
	return d, nil
}

func (s *PayloadTermScorer) computePayload() error {
	freq := s.dpe.Freq()
	var score float32
	numSeen := 0
	for i := 0; i < freq; i++ {
		if _, err := s.dpe.NextPosition(); err != nil {
			return err
		}
		payload := s.dpe.Payload()
		if payload != nil {
			v := s.weight.similarity.ScorePayload(payload)
			score = s.fn.CurrentScore(numSeen, score, v)
			numSeen++
		}
	}
	s.freq = freq
	s.payloadScore = s.fn.DocScore(numSeen, score)
	return nil
}

func (s *PayloadTermScorer) Freq() (int, error) { return s.freq, nil }

func (s *PayloadTermScorer) Score() (float32, error) {
	tf := s.weight.similarity.Tf(float32(s.freq))
	idf := s.weight.idf
	norm := decodeNorm(readerNorm(s.reader, s.weight.query.Term.Field, s.doc))
	return tf * idf * idf * s.payloadScore * s.weight.queryNorm * s.weight.boost * norm, nil
}

// ---- Constant-score / filtered wrappers ----

// ConstantScoreScorer replaces an inner scorer's per-doc score with a
// fixed boost, keeping its doc-id iteration (§4.H ConstantScoreQuery).
type ConstantScoreScorer struct {
	inner Scorer
	boost float32
}

func (s *ConstantScoreScorer) DocID() int                  { return s.inner.DocID() }
func (s *ConstantScoreScorer) NextDoc() (int, error)       { return s.inner.NextDoc() }
func (s *ConstantScoreScorer) Advance(t int) (int, error)  { return s.inner.Advance(t) }
func (s *ConstantScoreScorer) Freq() (int, error)          { return s.inner.Freq() }
func (s *ConstantScoreScorer) Score() (float32, error)     { return s.boost, nil }

// bitsScorer turns a filter's live-doc-style bitset directly into a
// constant-score Scorer, for ConstantScoreQuery wrapping a bare Filter
// with no inner Query.
type bitsScorer struct {
	bits  util.Bits
	boost float32
	doc   int
}

func (s *bitsScorer) DocID() int { return s.doc }

func (s *bitsScorer) NextDoc() (int, error) { return s.Advance(s.doc + 1) }

func (s *bitsScorer) Advance(target int) (int, error) {
	for d := target; d < s.bits.Len(); d++ {
		if s.bits.Get(d) {
			s.doc = d
			return d, nil
		}
	}
	s.doc = index.NO_MORE_DOCS
	return s.doc, nil
}

func (s *bitsScorer) Freq() (int, error)      { return 1, nil }
func (s *bitsScorer) Score() (float32, error) { return s.boost, nil }

// FilteredScorer restricts an inner scorer's doc-id stream to those set
// in a filter's bits (§4.H FilteredQuery).
type FilteredScorer struct {
	inner Scorer
	bits  util.Bits
}

func (s *FilteredScorer) DocID() int { return s.inner.DocID() }

func (s *FilteredScorer) NextDoc() (int, error) {
	d, err := s.inner.NextDoc()
	if err != nil {
		return 0, err
	}
	return s.skipToMatch(d)
}

func (s *FilteredScorer) Advance(target int) (int, error) {
	d, err := s.inner.Advance(target)
	if err != nil {
		return 0, err
	}
	return s.skipToMatch(d)
}

func (s *FilteredScorer) skipToMatch(d int) (int, error) {
	for d != index.NO_MORE_DOCS && !s.bits.Get(d) {
		nd, err := s.inner.NextDoc()
		if err != nil {
			return 0, err
		}
		d = nd
	}
	return d, nil
}

func (s *FilteredScorer) Freq() (int, error)      { return s.inner.Freq() }
func (s *FilteredScorer) Score() (float32, error) { return s.inner.Score() }
