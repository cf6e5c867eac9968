package index

import (
	"math"
	"sort"

	"github.com/stormgo/golucene/util"
)

// docState is the partially-built in-memory segment accumulated by
// IndexWriter.AddDocument calls between flushes, mirroring the teacher's
// DocumentsWriter/TermsHash buffering (§4.F) but flattened: this port
// tokenizes and buffers a whole segment's worth of documents in memory,
// then flushes every file format in one pass (RAM-buffered indexing,
// not incremental flush-by-size).
type docState struct {
	fis  *FieldInfos
	docs []*Document

	// perFieldPostings[fieldName][termText] accumulates postings in
	// document order; flush sorts both the term and (already sorted) doc
	// axis to produce the final postings/term-dict files.
	perFieldPostings map[string]map[string][]bufferedPosting
	perFieldNorms    map[string]map[int]byte // fieldName -> docID -> encoded norm
}

func newDocState() *docState {
	return &docState{
		fis:              NewFieldInfos(),
		perFieldPostings: make(map[string]map[string][]bufferedPosting),
		perFieldNorms:    make(map[string]map[int]byte),
	}
}

// addDocument tokenizes doc's indexed fields with analyzer and buffers its
// stored fields/postings/norms under docID (§4.F's DocInverter + TermsHash
// + DocFieldProcessor rolled into one method, since this simplified chain
// needs no incremental flush).
func (ds *docState) addDocument(docID int, doc *Document, analyzer Analyzer) {
	ds.docs = append(ds.docs, doc)

	for _, f := range doc.Fields {
		fi := ds.fis.AddOrUpdate(f.Name, f.Indexed, f.Tokenized, f.Stored, f.IndexOptions, f.OmitNorms)
		if !f.Indexed {
			continue
		}
		var occurrences []struct {
			Term    string
			Pos     int
			Payload []byte
		}
		if f.Tokenized {
			occurrences = analyzeField(analyzer, f.Value)
		} else {
			occurrences = append(occurrences, struct {
				Term    string
				Pos     int
				Payload []byte
			}{Term: f.Value, Pos: 0})
		}
		byTerm, ok := ds.perFieldPostings[f.Name]
		if !ok {
			byTerm = make(map[string][]bufferedPosting)
			ds.perFieldPostings[f.Name] = byTerm
		}
		positionsByTerm := make(map[string][]int)
		payloadsByTerm := make(map[string][][]byte)
		for _, occ := range occurrences {
			positionsByTerm[occ.Term] = append(positionsByTerm[occ.Term], occ.Pos)
			payloadsByTerm[occ.Term] = append(payloadsByTerm[occ.Term], occ.Payload)
		}
		var sortedTerms []string
		for t := range positionsByTerm {
			sortedTerms = append(sortedTerms, t)
		}
		sort.Strings(sortedTerms)
		for _, t := range sortedTerms {
			positions := positionsByTerm[t]
			bp := bufferedPosting{doc: docID, freq: len(positions)}
			if fi.HasPositions() {
				bp.positions = positions
				bp.payloads = payloadsByTerm[t]
			}
			byTerm[t] = append(byTerm[t], bp)
		}

		if !f.OmitNorms {
			byDoc, ok := ds.perFieldNorms[f.Name]
			if !ok {
				byDoc = make(map[int]byte)
				ds.perFieldNorms[f.Name] = byDoc
			}
			byDoc[docID] = encodeFieldNorm(len(occurrences))
		}
	}
}

// encodeFieldNorm quantizes a field's token count into the single-byte norm
// encoding (§3's norm scheme), using 1/sqrt(n) as the length-normalization
// factor the way the teacher's DefaultSimilarity.lengthNorm does.
func encodeFieldNorm(numTerms int) byte {
	if numTerms == 0 {
		return util.EncodeNormValue(0)
	}
	return util.EncodeNormValue(float32(1.0 / math.Sqrt(float64(numTerms))))
}
