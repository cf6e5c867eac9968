package index

import (
	"bytes"
	"sort"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/blevesearch/vellum"

	"github.com/stormgo/golucene/codec"
	"github.com/stormgo/golucene/store"
	"github.com/stormgo/golucene/util"
)

const (
	termDictCodecName = "TermDict"
	termDictFormat    = 0
	termDictCacheSize = 1024
)

// termDictEntry is what TermInfo lookups feed into the FST as a single
// uint64 output value: an ordinal into the side table of TermInfos, since
// vellum's FST maps byte keys to a single integer, not an arbitrary struct
// (§4.C: "the term dictionary" need not be BlockTree-shaped to satisfy the
// spec's Terms/TermsEnum contract).
type termDictEntry struct {
	text string
	info TermInfo
}

// TermsDictWriter builds one field's FST (term bytes -> ordinal) plus the
// parallel TermInfo table, backed by github.com/blevesearch/vellum the way
// go-mizu's search blueprint and the bluge/zap segment format in the
// example pack do (builder.Insert(key, ordinal), then Close()).
type TermsDictWriter struct {
	entries []termDictEntry
}

func NewTermsDictWriter() *TermsDictWriter { return &TermsDictWriter{} }

// AddTerm must be called in ascending term-text order, matching how the
// in-memory postings hash is flushed (§4.F).
func (w *TermsDictWriter) AddTerm(text string, info TermInfo) {
	w.entries = append(w.entries, termDictEntry{text: text, info: info})
}

// Flush writes fieldNumber's FST and TermInfo table to the per-field files
// named by termDictFileName(segment, fieldNumber, "tis"/"tii") (reusing the
// teacher's two-file naming even though this simplified writer keeps one dense table rather than a block-skip index).
func (w *TermsDictWriter) Flush(dir store.Directory, segment string, fieldNumber int) error {
	if len(w.entries) == 0 {
		return nil
	}
	sort.Slice(w.entries, func(i, j int) bool { return w.entries[i].text < w.entries[j].text })

	var fstBuf bytes.Buffer
	builder, err := vellum.New(&fstBuf, nil)
	if err != nil {
		return err
	}
	for i, e := range w.entries {
		if err := builder.Insert([]byte(e.text), uint64(i)); err != nil {
			return err
		}
	}
	if err := builder.Close(); err != nil {
		return err
	}

	out, err := dir.CreateOutput(termDictFileName(segment, fieldNumber, "tis"))
	if err != nil {
		return err
	}
	cout := codec.NewChecksumOutput(out)
	if err := codec.WriteHeader(cout, termDictCodecName, termDictFormat); err != nil {
		return err
	}
	if err := cout.WriteVInt(int32(len(w.entries))); err != nil {
		return err
	}
	for _, e := range w.entries {
		if err := cout.WriteString(e.text); err != nil {
			return err
		}
		if err := cout.WriteVInt(int32(e.info.DocFreq)); err != nil {
			return err
		}
		if err := cout.WriteVLong(e.info.FreqPointer); err != nil {
			return err
		}
		if err := cout.WriteVLong(e.info.ProxPointer); err != nil {
			return err
		}
		if err := cout.WriteVLong(e.info.SkipOffset); err != nil {
			return err
		}
	}
	if err := cout.WriteFooter(); err != nil {
		return err
	}
	if err := cout.Close(); err != nil {
		return err
	}

	fstOut, err := dir.CreateOutput(termDictFileName(segment, fieldNumber, "tii"))
	if err != nil {
		return err
	}
	if err := fstOut.WriteVInt(int32(fstBuf.Len())); err != nil {
		return err
	}
	if err := fstOut.WriteBytes(fstBuf.Bytes()); err != nil {
		return err
	}
	return fstOut.Close()
}

func termDictFileName(segment string, fieldNumber int, ext string) string {
	return segment + "_" + strconv.Itoa(fieldNumber) + "." + ext
}

// TermsDictReader resolves terms for one field against the FST, backed by
// the parallel TermInfo table, with an LRU memoizing recent ordinal
// lookups the way a hot query workload would repeatedly re-seek the same
// few terms (§4.C; cache grounded on github.com/hashicorp/golang-lru/v2,
// as wired by several pack examples alongside bounded in-memory indices).
type TermsDictReader struct {
	fst     *vellum.FST
	infos   []termDictEntry
	cache   *lru.Cache[string, int]
	segment string
	field   int
	frq     store.IndexInput
	prx     store.IndexInput
}

// SetPostingsStreams wires in the segment's shared .frq/.prx IndexInputs
// (one pair per segment, not per field, per §3's layout) so Docs/
// DocsAndPositions can clone a private seek position for each enum.
func (r *TermsDictReader) SetPostingsStreams(frq, prx store.IndexInput) {
	r.frq = frq
	r.prx = prx
}

func OpenTermsDictReader(dir store.Directory, segment string, fieldNumber int) (*TermsDictReader, error) {
	tisName := termDictFileName(segment, fieldNumber, "tis")
	if !dir.Exists(tisName) {
		return &TermsDictReader{segment: segment, field: fieldNumber}, nil
	}
	in, err := dir.OpenInput(tisName)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	if _, err := codec.CheckHeader(in, termDictCodecName, termDictFormat, termDictFormat); err != nil {
		return nil, err
	}
	count, err := in.ReadVInt()
	if err != nil {
		return nil, err
	}
	entries := make([]termDictEntry, 0, count)
	for i := int32(0); i < count; i++ {
		text, err := in.ReadString()
		if err != nil {
			return nil, err
		}
		docFreq, err := in.ReadVInt()
		if err != nil {
			return nil, err
		}
		freqFP, err := in.ReadVLong()
		if err != nil {
			return nil, err
		}
		proxFP, err := in.ReadVLong()
		if err != nil {
			return nil, err
		}
		skipOff, err := in.ReadVLong()
		if err != nil {
			return nil, err
		}
		entries = append(entries, termDictEntry{
			text: text,
			info: TermInfo{DocFreq: int(docFreq), FreqPointer: freqFP, ProxPointer: proxFP, SkipOffset: skipOff},
		})
	}

	fstIn, err := dir.OpenInput(termDictFileName(segment, fieldNumber, "tii"))
	if err != nil {
		return nil, err
	}
	defer fstIn.Close()
	fstLen, err := fstIn.ReadVInt()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, fstLen)
	if err := fstIn.ReadBytes(buf); err != nil {
		return nil, err
	}
	fst, err := vellum.Load(buf)
	if err != nil {
		return nil, err
	}
	cache, err := lru.New[string, int](termDictCacheSize)
	if err != nil {
		return nil, err
	}
	return &TermsDictReader{fst: fst, infos: entries, cache: cache, segment: segment, field: fieldNumber}, nil
}

func (r *TermsDictReader) DocFreq(text string) (int, error) {
	ti, ok, err := r.lookup(text)
	if err != nil || !ok {
		return 0, err
	}
	return ti.DocFreq, nil
}

func (r *TermsDictReader) SumDocFreq() (int64, error) {
	var total int64
	for _, e := range r.infos {
		total += int64(e.info.DocFreq)
	}
	return total, nil
}

func (r *TermsDictReader) DocCount() (int, error) { return len(r.infos), nil }

func (r *TermsDictReader) SumTotalTermFreq() (int64, error) { return -1, nil }

func (r *TermsDictReader) lookup(text string) (TermInfo, bool, error) {
	if r.fst == nil {
		return TermInfo{}, false, nil
	}
	if ord, ok := r.cache.Get(text); ok {
		util.Logger.Debugf("term dict cache hit for %q in segment %v field %v", text, r.segment, r.field)
		return r.infos[ord].info, true, nil
	}
	util.Logger.Debugf("seeking %q in FST for segment %v field %v", text, r.segment, r.field)
	val, exists, err := r.fst.Get([]byte(text))
	if err != nil {
		return TermInfo{}, false, err
	}
	if !exists {
		util.Logger.Debugf("term %q not found in segment %v field %v", text, r.segment, r.field)
		return TermInfo{}, false, nil
	}
	r.cache.Add(text, int(val))
	return r.infos[val].info, true, nil
}

func (r *TermsDictReader) Iterator() TermsEnum {
	return &fstTermsEnum{r: r, pos: -1}
}

// fstTermsEnum satisfies index.TermsEnum by walking the dense, sorted
// TermInfo table directly (cheaper than re-deriving order from the FST's
// own iterator, which yields the same sequence since entries were inserted
// in sorted order) and only consults the FST/cache for SeekExact.
type fstTermsEnum struct {
	r   *TermsDictReader
	pos int
}

func (e *fstTermsEnum) Next() (string, bool, error) {
	e.pos++
	if e.pos >= len(e.r.infos) {
		return "", false, nil
	}
	return e.r.infos[e.pos].text, true, nil
}

func (e *fstTermsEnum) SeekExact(text string) (bool, error) {
	_, ok, err := e.r.lookup(text)
	if err != nil || !ok {
		return false, err
	}
	lo, hi := 0, len(e.r.infos)
	for lo < hi {
		mid := (lo + hi) / 2
		if e.r.infos[mid].text < text {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	e.pos = lo
	return true, nil
}

func (e *fstTermsEnum) Term() string {
	if e.pos < 0 || e.pos >= len(e.r.infos) {
		return ""
	}
	return e.r.infos[e.pos].text
}

func (e *fstTermsEnum) current() (TermInfo, bool) {
	if e.pos < 0 || e.pos >= len(e.r.infos) {
		return TermInfo{}, false
	}
	return e.r.infos[e.pos].info, true
}

func (e *fstTermsEnum) DocFreq() int {
	ti, ok := e.current()
	if !ok {
		return 0
	}
	return ti.DocFreq
}

func (e *fstTermsEnum) TotalTermFreq() int64 { return -1 }

func (e *fstTermsEnum) Docs(liveDocs util.Bits, reuse DocsEnum, needFreqs bool) (DocsEnum, error) {
	ti, ok := e.current()
	if !ok {
		return nil, util.CorruptIndexError("Docs called with no current term", nil)
	}
	return newSegmentDocsEnum(e.r.docsSource(), e.r.posSource(), ti, liveDocs, needFreqs, false), nil
}

func (e *fstTermsEnum) DocsAndPositions(liveDocs util.Bits, reuse DocsAndPositionsEnum) (DocsAndPositionsEnum, error) {
	ti, ok := e.current()
	if !ok {
		return nil, util.CorruptIndexError("DocsAndPositions called with no current term", nil)
	}
	return newSegmentDocsEnum(e.r.docsSource(), e.r.posSource(), ti, liveDocs, true, true), nil
}

// docsSource/posSource are filled in by SegmentReader after open, since the
// shared per-segment .frq/.prx IndexInputs must be cloned per enum (each
// DocsEnum seeks independently) but the TermsDictReader itself only deals
// in term->TermInfo resolution.
func (r *TermsDictReader) docsSource() store.IndexInput { return r.frqClone() }
func (r *TermsDictReader) posSource() store.IndexInput  { return r.prxClone() }

func (r *TermsDictReader) frqClone() store.IndexInput {
	if r.frq == nil {
		return nil
	}
	return r.frq.Clone()
}

func (r *TermsDictReader) prxClone() store.IndexInput {
	if r.prx == nil {
		return nil
	}
	return r.prx.Clone()
}
