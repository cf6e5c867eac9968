// Package search implements §4.H-§4.K of the spec: the query tree, the
// scorer tree that mirrors it, rewrite methods for multi-term queries, and
// the priority-queue collectors that turn a scorer's (docId, score) stream
// into ranked top-K hits.
package search

import "math"

// Similarity is the pluggable scoring model a Weight/Scorer pair consults
// for term weighting, query normalization and sloppy-phrase distance decay
// (§4.I, §9's DefaultSimilarity reference). The core ships the classic
// TF-IDF model (DefaultSimilarity) plus BoostingTermSimilarity, a payload-
// aware variant grounded in the original contrib tree (SPEC_FULL's
// "Supplemented features").
type Similarity interface {
	// Tf turns a raw term frequency into the term-frequency factor of the
	// score (sqrt(freq) in the classic model).
	Tf(freq float32) float32
	// Idf turns (docFreq, numDocs) into the inverse-document-frequency
	// factor, squared once in TermScorer and once in Weight normalization
	// per the classic vector-space formula.
	Idf(docFreq, numDocs int) float32
	// QueryNorm normalizes a query's sum-of-squared clause weights so that
	// scores across different queries are roughly comparable.
	QueryNorm(sumOfSquaredWeights float32) float32
	// SloppyFreq turns a sloppy phrase match's total position distance into
	// a frequency-like factor, decaying as distance grows (§4.I
	// SloppyPhraseScorer).
	SloppyFreq(distance int) float32
	// ScorePayload lets a payload-aware query fold a per-occurrence payload
	// byte slice into the score; DefaultSimilarity ignores it (returns 1).
	ScorePayload(payload []byte) float32
}

// DefaultSimilarity is the classic Lucene TF-IDF vector-space model (§4.I:
// "score = tf(freq) * idf^2 * norm * boost").
type DefaultSimilarity struct{}

func (DefaultSimilarity) Tf(freq float32) float32 { return float32(math.Sqrt(float64(freq))) }

func (DefaultSimilarity) Idf(docFreq, numDocs int) float32 {
	return float32(math.Log(float64(numDocs)/float64(docFreq+1)) + 1.0)
}

func (DefaultSimilarity) QueryNorm(sumOfSquaredWeights float32) float32 {
	if sumOfSquaredWeights <= 0 {
		return 1
	}
	return float32(1.0 / math.Sqrt(float64(sumOfSquaredWeights)))
}

func (DefaultSimilarity) SloppyFreq(distance int) float32 {
	return 1.0 / float32(distance+1)
}

func (DefaultSimilarity) ScorePayload(payload []byte) float32 { return 1.0 }

// PayloadFunction combines the payload scores seen across a document's
// matching positions into one per-document factor (§4.J "Supplemented
// features": BoostingTermSimilarity + PayloadTermQuery). The three
// implementations mirror the original contrib's Max/Average/Min variants.
type PayloadFunction interface {
	// CurrentScore folds one more occurrence's payload score into the
	// running aggregate; numSeen is the count of occurrences folded in so
	// far, not counting this one.
	CurrentScore(numSeen int, currentScore, payload float32) float32
	// DocScore finalizes the aggregate into the document's payload factor.
	DocScore(numSeen int, payloadScore float32) float32
}

type MaxPayloadFunction struct{}

func (MaxPayloadFunction) CurrentScore(numSeen int, currentScore, payload float32) float32 {
	if numSeen == 0 || payload > currentScore {
		return payload
	}
	return currentScore
}
func (MaxPayloadFunction) DocScore(numSeen int, payloadScore float32) float32 { return payloadScore }

type MinPayloadFunction struct{}

func (MinPayloadFunction) CurrentScore(numSeen int, currentScore, payload float32) float32 {
	if numSeen == 0 || payload < currentScore {
		return payload
	}
	return currentScore
}
func (MinPayloadFunction) DocScore(numSeen int, payloadScore float32) float32 { return payloadScore }

type AveragePayloadFunction struct{}

func (AveragePayloadFunction) CurrentScore(numSeen int, currentScore, payload float32) float32 {
	return currentScore + payload
}
func (AveragePayloadFunction) DocScore(numSeen int, payloadScore float32) float32 {
	if numSeen == 0 {
		return 0
	}
	return payloadScore / float32(numSeen)
}

// BoostingTermSimilarity is the payload-scoring Similarity named by
// SPEC_FULL's supplemented-features section and exercised by §8 end-to-end
// scenario #4: it neutralizes the classic tf/idf/queryNorm factors (all
// 1.0) and decodes each payload as its first byte's value. The field's
// stored length norm is not neutralized: a PayloadTermQuery's score is the
// payload function's aggregate times that norm (and the query boost).
type BoostingTermSimilarity struct{}

func (BoostingTermSimilarity) Tf(freq float32) float32                  { return 1 }
func (BoostingTermSimilarity) Idf(docFreq, numDocs int) float32         { return 1 }
func (BoostingTermSimilarity) QueryNorm(sumOfSquaredWeights float32) float32 { return 1 }
func (BoostingTermSimilarity) SloppyFreq(distance int) float32         { return 1.0 / float32(distance+1) }
func (BoostingTermSimilarity) ScorePayload(payload []byte) float32 {
	if len(payload) == 0 {
		return 0
	}
	return float32(payload[0])
}
