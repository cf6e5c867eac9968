package index

import (
	"io"

	"github.com/stormgo/golucene/util"
)

// Fields exposes the per-field Terms of one AtomicReader (§4.D).
type Fields interface {
	Terms(field string) Terms
	Names() []string
}

// Terms is the dictionary of terms indexed under one field.
type Terms interface {
	Iterator() TermsEnum
	DocFreq(text string) (int, error)
	SumDocFreq() (int64, error)
	DocCount() (int, error)
	SumTotalTermFreq() (int64, error)
}

// TermsEnum walks a field's term dictionary in sorted order and opens
// postings for the term it is currently positioned on (§4.C).
type TermsEnum interface {
	// Next advances to the next term, returning ("", false) at the end.
	Next() (string, bool, error)
	// SeekExact positions the enumerator exactly on text, or reports a miss.
	SeekExact(text string) (bool, error)
	Term() string
	DocFreq() int
	TotalTermFreq() int64
	// Docs returns a postings iterator over the current term; reuse may be
	// nil or a previously returned DocsEnum of the right kind.
	Docs(liveDocs util.Bits, reuse DocsEnum, needFreqs bool) (DocsEnum, error)
	DocsAndPositions(liveDocs util.Bits, reuse DocsAndPositionsEnum) (DocsAndPositionsEnum, error)
}

const NO_MORE_DOCS = 1<<31 - 1

// DocsEnum walks a posting list's (docId, freq) pairs in increasing docId
// order (§4.D).
type DocsEnum interface {
	io.Closer
	DocID() int
	Freq() int
	NextDoc() (int, error)
	Advance(target int) (int, error)
}

// DocsAndPositionsEnum additionally exposes per-occurrence positions and
// payloads within the current document.
type DocsAndPositionsEnum interface {
	DocsEnum
	NextPosition() (int, error)
	StartOffset() int
	EndOffset() int
	Payload() []byte
}
