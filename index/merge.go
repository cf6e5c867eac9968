package index

import (
	"sort"

	"github.com/stormgo/golucene/store"
)

// MergeSegments merges sources into one new segment named name, building a
// remapped FieldInfos (union of field names, fresh dense numbering) and
// closing the doc-id gaps left by deleted documents (§4.G "Merging").
// Postings, stored fields and norms are all re-keyed through a per-source
// oldDocID -> newDocID table; sources are read but never modified (§3:
// "a segment file, once written, is never modified").
func MergeSegments(dir store.Directory, name string, sources []*SegmentInfo) (*SegmentInfo, error) {
	readers := make([]*SegmentReader, len(sources))
	for i, si := range sources {
		sr, err := OpenSegmentReader(dir, si)
		if err != nil {
			for j := 0; j < i; j++ {
				readers[j].Close()
			}
			return nil, err
		}
		readers[i] = sr
	}
	defer func() {
		for _, r := range readers {
			r.Close()
		}
	}()

	fisList := make([]*FieldInfos, len(readers))
	for i, r := range readers {
		fisList[i] = r.fis
	}
	mergedFis := MergeFieldInfos(fisList...)
	if err := mergedFis.WriteFieldInfos(dir, name); err != nil {
		return nil, err
	}

	remaps, newDocCount := buildDocIDRemaps(readers)

	if err := mergeStoredFields(dir, name, readers, remaps); err != nil {
		return nil, err
	}
	if err := mergeNorms(dir, name, readers, remaps, mergedFis, newDocCount); err != nil {
		return nil, err
	}
	if err := mergePostings(dir, name, readers, remaps, mergedFis); err != nil {
		return nil, err
	}

	return &SegmentInfo{Name: name, DocCount: newDocCount, DelGen: -1}, nil
}

// buildDocIDRemaps assigns each live doc in each source a dense, strictly
// increasing new doc-id in source order; a deleted doc maps to -1 (§4.G:
// "rewriting doc-ids using per-segment base offsets that skip deleted
// docs").
func buildDocIDRemaps(readers []*SegmentReader) ([][]int, int) {
	remaps := make([][]int, len(readers))
	next := 0
	for i, r := range readers {
		remap := make([]int, r.info.DocCount)
		for old := 0; old < r.info.DocCount; old++ {
			if r.liveDocs == nil || r.liveDocs.Get(old) {
				remap[old] = next
				next++
			} else {
				remap[old] = -1
			}
		}
		remaps[i] = remap
	}
	return remaps, next
}

func mergeStoredFields(dir store.Directory, name string, readers []*SegmentReader, remaps [][]int) error {
	sfw, err := NewStoredFieldsWriter(dir, name)
	if err != nil {
		return err
	}
	for i, r := range readers {
		for old := 0; old < r.info.DocCount; old++ {
			if remaps[i][old] < 0 {
				continue
			}
			v := NewDocumentStoredFieldVisitor()
			if err := r.Document(old, v); err != nil {
				return err
			}
			if err := sfw.StartDocument(v.Doc.Fields); err != nil {
				return err
			}
		}
	}
	return sfw.Finish()
}

func mergeNorms(dir store.Directory, name string, readers []*SegmentReader, remaps [][]int, mergedFis *FieldInfos, newDocCount int) error {
	nw := NewNormsWriter()
	for _, mfi := range mergedFis.List() {
		if mfi.OmitNorms {
			continue
		}
		for i, r := range readers {
			srcFi := r.fis.FieldInfo(mfi.Name)
			if srcFi == nil {
				continue
			}
			for old := 0; old < r.info.DocCount; old++ {
				newID := remaps[i][old]
				if newID < 0 {
					continue
				}
				nw.SetNorm(mfi.Number, newID, r.norms.NormByte(srcFi.Number, old))
			}
		}
	}
	return nw.Flush(dir, name, newDocCount)
}

func mergePostings(dir store.Directory, name string, readers []*SegmentReader, remaps [][]int, mergedFis *FieldInfos) error {
	needsPositions := false
	for _, fi := range mergedFis.List() {
		if fi.HasPositions() {
			needsPositions = true
		}
	}
	frqOut, err := dir.CreateOutput(name + ".frq")
	if err != nil {
		return err
	}
	var proxOut store.IndexOutput
	if needsPositions {
		proxOut, err = dir.CreateOutput(name + ".prx")
		if err != nil {
			return err
		}
	}
	pw := NewPostingsWriter(frqOut, proxOut, needsPositions)

	for _, mfi := range mergedFis.List() {
		tdw := NewTermsDictWriter()
		for _, mt := range mergeFieldPostings(readers, remaps, mfi.Name, mfi.HasPositions()) {
			ti, err := pw.WriteTerm(mt.postings)
			if err != nil {
				return err
			}
			tdw.AddTerm(mt.text, ti)
		}
		if err := tdw.Flush(dir, name, mfi.Number); err != nil {
			return err
		}
	}
	if err := frqOut.Close(); err != nil {
		return err
	}
	if proxOut != nil {
		return proxOut.Close()
	}
	return nil
}

type mergedTerm struct {
	text     string
	postings []bufferedPosting
}

type mergeCursor struct {
	enum TermsEnum
	term string
	ok   bool
	idx  int
}

// mergeFieldPostings k-way merges every reader's already-sorted term
// dictionary for fieldName, re-keying doc-ids through remap and dropping
// deleted docs entirely (§4.G: "merge-sort term streams from the N
// segments, consolidating docFreq and rewriting doc-ids"). This re-parses
// and re-encodes postings rather than copying freq/prox bytes verbatim;
// the teacher's "byte-for-byte where possible" fast path is not attempted
// here since this port's postings format has no per-block alignment that
// would make a byte copy cheaper than a decode/re-encode pass.
func mergeFieldPostings(readers []*SegmentReader, remaps [][]int, fieldName string, wantPositions bool) []mergedTerm {
	var cursors []*mergeCursor
	for i, r := range readers {
		terms := r.Terms(fieldName)
		if terms == nil {
			continue
		}
		te := terms.Iterator()
		text, ok, _ := te.Next()
		if !ok {
			continue
		}
		cursors = append(cursors, &mergeCursor{enum: te, term: text, ok: true, idx: i})
	}

	var out []mergedTerm
	for len(cursors) > 0 {
		least := cursors[0].term
		for _, c := range cursors[1:] {
			if c.term < least {
				least = c.term
			}
		}

		var postings []bufferedPosting
		for _, c := range cursors {
			if c.term != least {
				continue
			}
			postings = append(postings, readTermPostings(readers[c.idx], remaps[c.idx], c.enum, wantPositions)...)
		}
		sort.Slice(postings, func(i, j int) bool { return postings[i].doc < postings[j].doc })
		out = append(out, mergedTerm{text: least, postings: postings})

		var alive []*mergeCursor
		for _, c := range cursors {
			if c.term == least {
				text, ok, _ := c.enum.Next()
				c.term, c.ok = text, ok
			}
			if c.ok {
				alive = append(alive, c)
			}
		}
		cursors = alive
	}
	return out
}

func readTermPostings(r *SegmentReader, remap []int, enum TermsEnum, wantPositions bool) []bufferedPosting {
	var de DocsEnum
	var dpe DocsAndPositionsEnum
	var err error
	if wantPositions {
		dpe, err = enum.DocsAndPositions(r.liveDocs, nil)
		de = dpe
	} else {
		de, err = enum.Docs(r.liveDocs, nil, true)
	}
	if err != nil || de == nil {
		return nil
	}

	var out []bufferedPosting
	for {
		doc, err := de.NextDoc()
		if err != nil || doc == NO_MORE_DOCS {
			break
		}
		newID := remap[doc]
		if newID < 0 {
			continue
		}
		bp := bufferedPosting{doc: newID, freq: de.Freq()}
		if wantPositions && dpe != nil {
			for p := 0; p < de.Freq(); p++ {
				pos, err := dpe.NextPosition()
				if err != nil {
					break
				}
				bp.positions = append(bp.positions, pos)
				bp.payloads = append(bp.payloads, dpe.Payload())
			}
		}
		out = append(out, bp)
	}
	return out
}
