package index

import (
	"github.com/stormgo/golucene/codec"
	"github.com/stormgo/golucene/store"
)

const (
	fieldsCodecName   = "StoredFields"
	fieldsFormatStart = 0
	fieldsIndexCodec  = "StoredFieldsIndex"
)

// StoredFieldVisitor is called once per stored field of a retrieved
// document; returning StoredFieldNo or StoredFieldStop from NeedsField
// lets the caller skip fields it has no interest in (each doc's .fdt
// record is a field count followed by (name, value) string pairs).
type StoredFieldVisitor interface {
	NeedsField(fi *FieldInfo) StoredFieldStatus
	StringField(fi *FieldInfo, value string)
}

type StoredFieldStatus int

const (
	StoredFieldYes StoredFieldStatus = iota
	StoredFieldNo
	StoredFieldStop
)

// DocumentStoredFieldVisitor collects every stored field into a Document,
// the common case used by IndexSearcher.Document.
type DocumentStoredFieldVisitor struct {
	Doc *Document
}

func NewDocumentStoredFieldVisitor() *DocumentStoredFieldVisitor {
	return &DocumentStoredFieldVisitor{Doc: NewDocument()}
}

func (v *DocumentStoredFieldVisitor) NeedsField(fi *FieldInfo) StoredFieldStatus {
	return StoredFieldYes
}

func (v *DocumentStoredFieldVisitor) StringField(fi *FieldInfo, value string) {
	v.Doc.Add(StoredField(fi.Name, value))
}

// StoredFieldsWriter appends one doc's stored fields to the segment's .fdt
// file and records its byte offset in the parallel .fdx index, so that
// retrieval is a single seek (§3, §4.F "PerDocBuffer").
type StoredFieldsWriter struct {
	fieldsOut *codec.ChecksumOutput
	indexOut  *codec.ChecksumOutput
	numDocs   int
}

func NewStoredFieldsWriter(dir store.Directory, segment string) (*StoredFieldsWriter, error) {
	fdt, err := dir.CreateOutput(segment + ".fdt")
	if err != nil {
		return nil, err
	}
	fieldsOut := codec.NewChecksumOutput(fdt)
	if err := codec.WriteHeader(fieldsOut, fieldsCodecName, fieldsFormatStart); err != nil {
		return nil, err
	}
	fdx, err := dir.CreateOutput(segment + ".fdx")
	if err != nil {
		return nil, err
	}
	indexOut := codec.NewChecksumOutput(fdx)
	if err := codec.WriteHeader(indexOut, fieldsIndexCodec, fieldsFormatStart); err != nil {
		return nil, err
	}
	return &StoredFieldsWriter{fieldsOut: fieldsOut, indexOut: indexOut}, nil
}

// StartDocument records the current .fdt offset for the next doc and must
// be called once per doc-id in increasing order, even for docs with no
// stored fields, so the .fdx index remains one entry per doc (§4.F).
func (w *StoredFieldsWriter) StartDocument(fields []Field) error {
	if err := w.indexOut.WriteLong(w.fieldsOut.FilePointer()); err != nil {
		return err
	}
	var stored []Field
	for _, f := range fields {
		if f.Stored {
			stored = append(stored, f)
		}
	}
	if err := w.fieldsOut.WriteVInt(int32(len(stored))); err != nil {
		return err
	}
	for _, f := range stored {
		// The field is written by name (length-prefixed) rather than by
		// field number, so StoredFieldsWriter needs no live FieldInfos.
		if err := w.fieldsOut.WriteString(f.Name); err != nil {
			return err
		}
		if err := w.fieldsOut.WriteString(f.Value); err != nil {
			return err
		}
	}
	w.numDocs++
	return nil
}

func (w *StoredFieldsWriter) Finish() error {
	if err := w.fieldsOut.WriteFooter(); err != nil {
		return err
	}
	if err := w.indexOut.WriteFooter(); err != nil {
		return err
	}
	if err := w.fieldsOut.Close(); err != nil {
		return err
	}
	return w.indexOut.Close()
}

// StoredFieldsReader opens a segment's .fdt/.fdx pair for random-access
// per-doc retrieval.
type StoredFieldsReader struct {
	fieldsIn      store.IndexInput
	indexIn       store.IndexInput
	fis           *FieldInfos
	indexBodyBase int64
}

func OpenStoredFieldsReader(dir store.Directory, segment string, fis *FieldInfos) (*StoredFieldsReader, error) {
	fdt, err := dir.OpenInput(segment + ".fdt")
	if err != nil {
		return nil, err
	}
	if _, err := codec.CheckHeader(fdt, fieldsCodecName, fieldsFormatStart, fieldsFormatStart); err != nil {
		return nil, err
	}
	fdx, err := dir.OpenInput(segment + ".fdx")
	if err != nil {
		return nil, err
	}
	if _, err := codec.CheckHeader(fdx, fieldsIndexCodec, fieldsFormatStart, fieldsFormatStart); err != nil {
		return nil, err
	}
	return &StoredFieldsReader{fieldsIn: fdt, indexIn: fdx, fis: fis, indexBodyBase: fdx.FilePointer()}, nil
}

func (r *StoredFieldsReader) VisitDocument(docID int, visitor StoredFieldVisitor) error {
	if err := r.indexIn.Seek(r.indexBodyBase + int64(docID)*8); err != nil {
		return err
	}
	offset, err := r.indexIn.ReadLong()
	if err != nil {
		return err
	}
	if err := r.fieldsIn.Seek(offset); err != nil {
		return err
	}
	numFields, err := r.fieldsIn.ReadVInt()
	if err != nil {
		return err
	}
	for i := int32(0); i < numFields; i++ {
		name, err := r.fieldsIn.ReadString()
		if err != nil {
			return err
		}
		value, err := r.fieldsIn.ReadString()
		if err != nil {
			return err
		}
		fi := r.fis.FieldInfo(name)
		if fi == nil {
			fi = &FieldInfo{Name: name, Stored: true}
		}
		status := visitor.NeedsField(fi)
		if status == StoredFieldStop {
			return nil
		}
		if status == StoredFieldYes {
			visitor.StringField(fi, value)
		}
	}
	return nil
}

func (r *StoredFieldsReader) Close() error {
	err1 := r.fieldsIn.Close()
	err2 := r.indexIn.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
