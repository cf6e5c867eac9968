package index

import (
	"sort"

	"github.com/stormgo/golucene/codec"
	"github.com/stormgo/golucene/store"
	"github.com/stormgo/golucene/util"
)

const (
	normsCodecName   = "Norms"
	normsFormatStart = 0
)

// NormsWriter accumulates one encoded byte per doc for every field that
// does not omit norms, then flushes a single combined .nrm file (§3, §6:
// "hasSingleNormFile").
type NormsWriter struct {
	perField map[int][]byte // fieldNumber -> maxDoc bytes
}

func NewNormsWriter() *NormsWriter {
	return &NormsWriter{perField: make(map[int][]byte)}
}

// SetNorm records the norm byte for (fieldNumber, docID), growing the
// per-field slice as needed so docs never touching this field default to
// zero (the same convention Similarity.decodeNormValue(0) == 0.0 relies on).
func (w *NormsWriter) SetNorm(fieldNumber, docID int, encoded byte) {
	buf := w.perField[fieldNumber]
	if docID >= len(buf) {
		grown := make([]byte, docID+1)
		copy(grown, buf)
		buf = grown
	}
	buf[docID] = encoded
	w.perField[fieldNumber] = buf
}

func (w *NormsWriter) Flush(dir store.Directory, segment string, maxDoc int) error {
	out, err := dir.CreateOutput(segment + ".nrm")
	if err != nil {
		return err
	}
	cout := codec.NewChecksumOutput(out)
	if err := codec.WriteHeader(cout, normsCodecName, normsFormatStart); err != nil {
		return err
	}
	fieldNums := make([]int, 0, len(w.perField))
	for n := range w.perField {
		fieldNums = append(fieldNums, n)
	}
	sort.Ints(fieldNums)
	if err := cout.WriteVInt(int32(len(fieldNums))); err != nil {
		return err
	}
	for _, n := range fieldNums {
		if err := cout.WriteVInt(int32(n)); err != nil {
			return err
		}
		buf := w.perField[n]
		padded := make([]byte, maxDoc)
		copy(padded, buf)
		if err := cout.WriteBytes(padded); err != nil {
			return err
		}
	}
	if err := cout.WriteFooter(); err != nil {
		return err
	}
	return cout.Close()
}

// NormsReader exposes the decoded norm value for (field, doc) from an
// already-loaded .nrm file; each field's maxDoc bytes are small enough to
// load entirely into memory on open, matching the teacher's eager-load
// style elsewhere in this package.
type NormsReader struct {
	byField map[int][]byte
}

// OpenNormsReader reads segment+".nrm"; maxDoc must be the segment's
// document count, since each field's byte run has that fixed width and
// the format itself carries no redundant length prefix for it.
func OpenNormsReader(dir store.Directory, segment string, maxDoc int) (*NormsReader, error) {
	if !dir.Exists(segment + ".nrm") {
		return &NormsReader{byField: map[int][]byte{}}, nil
	}
	in, err := dir.OpenInput(segment + ".nrm")
	if err != nil {
		return nil, err
	}
	defer in.Close()
	if _, err := codec.CheckHeader(in, normsCodecName, normsFormatStart, normsFormatStart); err != nil {
		return nil, err
	}
	numFields, err := in.ReadVInt()
	if err != nil {
		return nil, err
	}
	byField := make(map[int][]byte, numFields)
	for i := int32(0); i < numFields; i++ {
		fn, err := in.ReadVInt()
		if err != nil {
			return nil, err
		}
		buf := make([]byte, maxDoc)
		if maxDoc > 0 {
			if err := in.ReadBytes(buf); err != nil {
				return nil, err
			}
		}
		byField[int(fn)] = buf
	}
	return &NormsReader{byField: byField}, nil
}

func (r *NormsReader) Norm(fieldNumber, docID int) float32 {
	buf := r.byField[fieldNumber]
	if docID < 0 || docID >= len(buf) {
		return 0
	}
	return util.DecodeNormValue(buf[docID])
}

// NormByte returns the raw encoded norm byte for (fieldNumber, docID),
// used by the segment merger to carry norms across without a decode/
// re-encode round trip (§4.G: "Concatenate stored-fields and norms with
// the same doc-id remapping").
func (r *NormsReader) NormByte(fieldNumber, docID int) byte {
	buf := r.byField[fieldNumber]
	if docID < 0 || docID >= len(buf) {
		return 0
	}
	return buf[docID]
}
