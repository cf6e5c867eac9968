package index

import (
	"github.com/stormgo/golucene/store"
)

// MultiReader presents N segment readers as one logical reader, translating
// doc-ids by segment-base offsets (§2 component E, §4.E). It embeds
// BaseCompositeReader, which already does the doc-id remapping; MultiReader
// only pins the SegmentInfos generation it was opened at so that Close
// releases every underlying SegmentReader together.
type MultiReader struct {
	*BaseCompositeReader
	sis *SegmentInfos
}

// OpenDirectoryReader discovers the latest segments_<gen> file in dir (by
// directory listing, per §6) and opens every segment it names, returning a
// single logical reader over all of them. An open reader pins the
// generation it was opened at (§3 Lifecycle): files referenced by that
// generation stay valid for as long as this reader (or any reader derived
// from it) remains open.
func OpenDirectoryReader(dir store.Directory) (*MultiReader, error) {
	sis, err := ReadLatestSegmentInfos(dir)
	if err != nil {
		return nil, err
	}
	return openMultiReader(dir, sis)
}

func openMultiReader(dir store.Directory, sis *SegmentInfos) (*MultiReader, error) {
	subs := make([]IndexReader, 0, len(sis.Segments))
	for _, si := range sis.Segments {
		sr, err := OpenSegmentReader(dir, si)
		if err != nil {
			for _, opened := range subs {
				opened.Close()
			}
			return nil, err
		}
		subs = append(subs, sr)
	}
	mr := &MultiReader{sis: sis}
	mr.BaseCompositeReader = newBaseCompositeReader(mr, subs)
	return mr, nil
}

func (r *MultiReader) getSequentialSubReaders() []IndexReader {
	return r.BaseCompositeReader.getSequentialSubReaders()
}

func (r *MultiReader) doClose() error {
	var firstErr error
	for _, sub := range r.getSequentialSubReaders() {
		if err := sub.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// SegmentReaders exposes the underlying per-segment readers in order, used
// by the search package to build one AtomicReaderContext per segment and by
// the merge path to read postings back out of already-flushed segments.
func (r *MultiReader) SegmentReaders() []*SegmentReader {
	subs := r.getSequentialSubReaders()
	out := make([]*SegmentReader, len(subs))
	for i, s := range subs {
		out[i] = s.(*SegmentReader)
	}
	return out
}
