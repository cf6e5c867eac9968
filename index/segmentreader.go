package index

import (
	"github.com/stormgo/golucene/store"
	"github.com/stormgo/golucene/util"
)

// SegmentReader is the concrete AtomicReader for a single on-disk segment,
// opening its .fnm/.tis/.tii/.frq/.prx/.nrm/.fdt/.fdx files the way the
// teacher's SegmentReader wires together its per-file sub-readers, but
// pointed at this port's simplified per-field term dictionary and postings
// format (§4.B, §4.C, §4.D, §4.E).
type SegmentReader struct {
	*AtomicReaderImpl

	dir     store.Directory
	info    *SegmentInfo
	fis     *FieldInfos
	liveDocs util.Bits

	frq, prx store.IndexInput
	termsByField map[string]*TermsDictReader

	norms  *NormsReader
	stored *StoredFieldsReader
}

// OpenSegmentReader opens every file belonging to info (§6's file set for
// one segment). The freq/prox streams are opened once per segment and
// shared (cloned) across every field's TermsDictReader, matching how a
// single .frq/.prx pair spans all fields in the classic layout.
func OpenSegmentReader(dir store.Directory, info *SegmentInfo) (*SegmentReader, error) {
	fis, err := ReadFieldInfos(dir, info.Name)
	if err != nil {
		return nil, err
	}

	var frq, prx store.IndexInput
	if dir.Exists(info.Name + ".frq") {
		frq, err = dir.OpenInput(info.Name + ".frq")
		if err != nil {
			return nil, err
		}
	}
	if dir.Exists(info.Name + ".prx") {
		prx, err = dir.OpenInput(info.Name + ".prx")
		if err != nil {
			return nil, err
		}
	}

	termsByField := make(map[string]*TermsDictReader, fis.Size())
	for _, fi := range fis.List() {
		tr, err := OpenTermsDictReader(dir, info.Name, fi.Number)
		if err != nil {
			return nil, err
		}
		tr.SetPostingsStreams(frq, prx)
		termsByField[fi.Name] = tr
	}

	norms, err := OpenNormsReader(dir, info.Name, info.DocCount)
	if err != nil {
		return nil, err
	}

	stored, err := OpenStoredFieldsReader(dir, info.Name, fis)
	if err != nil {
		return nil, err
	}

	liveDocs, err := openLiveDocs(dir, info)
	if err != nil {
		return nil, err
	}

	sr := &SegmentReader{
		dir: dir, info: info, fis: fis,
		liveDocs:     liveDocs,
		frq:          frq,
		prx:          prx,
		termsByField: termsByField,
		norms:        norms,
		stored:       stored,
	}
	sr.AtomicReaderImpl = newAtomicReader(sr)
	sr.AtomicReaderImpl.ARFieldsReader = sr
	return sr, nil
}

// openLiveDocs loads segment+".del" (a serialized roaring bitmap of deleted
// docs) when DelGen indicates deletions exist; otherwise every doc is live.
func openLiveDocs(dir store.Directory, info *SegmentInfo) (util.Bits, error) {
	if info.DelGen < 0 {
		return util.NewLiveBits(info.DocCount), nil
	}
	delFile := info.Name + ".del"
	if !dir.Exists(delFile) {
		return util.NewLiveBits(info.DocCount), nil
	}
	in, err := dir.OpenInput(delFile)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	n, err := in.ReadVInt()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if err := in.ReadBytes(buf); err != nil {
		return nil, err
	}
	bm, err := util.RoaringFromBytes(buf)
	if err != nil {
		return nil, err
	}
	return util.NewDeletedBits(bm, info.DocCount), nil
}

func (r *SegmentReader) NumDocs() int {
	if r.liveDocs == nil {
		return r.info.DocCount
	}
	if rb, ok := r.liveDocs.(*util.RoaringBits); ok {
		return rb.Cardinality()
	}
	count := 0
	for i := 0; i < r.info.DocCount; i++ {
		if r.liveDocs.Get(i) {
			count++
		}
	}
	return count
}

func (r *SegmentReader) MaxDoc() int { return r.info.DocCount }

func (r *SegmentReader) doClose() error {
	if r.frq != nil {
		r.frq.Close()
	}
	if r.prx != nil {
		r.prx.Close()
	}
	if r.stored != nil {
		r.stored.Close()
	}
	return nil
}

func (r *SegmentReader) LiveDocs() util.Bits { return r.liveDocs }

func (r *SegmentReader) Fields() Fields { return segmentFields{r} }

func (r *SegmentReader) Terms(field string) Terms {
	tr, ok := r.termsByField[field]
	if !ok {
		return nil
	}
	return tr
}

func (r *SegmentReader) Document(docID int, visitor StoredFieldVisitor) error {
	return r.stored.VisitDocument(docID, visitor)
}

func (r *SegmentReader) Norm(field string, docID int) float32 {
	fi := r.fis.FieldInfo(field)
	if fi == nil || fi.OmitNorms {
		return 1
	}
	return r.norms.Norm(fi.Number, docID)
}

// segmentFields adapts SegmentReader to the Fields interface without
// exposing the termsByField map directly.
type segmentFields struct{ r *SegmentReader }

func (f segmentFields) Terms(field string) Terms { return f.r.Terms(field) }
func (f segmentFields) Names() []string          { return f.r.fis.Names() }
