package index

import (
	"sort"

	"github.com/stormgo/golucene/codec"
	"github.com/stormgo/golucene/store"
)

const (
	fieldInfosCodecName   = "FieldInfos"
	fieldInfosFormatStart = 0
)

// IndexOptions controls how much of the inverted index a field populates,
// mirroring the omits-term-frequencies-and-positions / stores-positions /
// stores-offsets flags from §3.
type IndexOptions int

const (
	// DOCS_ONLY records only which documents contain the term (§3:
	// "omits-term-frequencies-and-positions").
	DOCS_ONLY IndexOptions = iota
	DOCS_AND_FREQS
	DOCS_AND_FREQS_AND_POSITIONS
	DOCS_AND_FREQS_AND_POSITIONS_AND_OFFSETS
)

// FieldInfo is one segment's record for a single field name: its dense
// field number, and the flags from §3's Field-info data model.
type FieldInfo struct {
	Name             string
	Number           int
	Indexed          bool
	Tokenized        bool
	Stored           bool
	StoreTermVectors bool
	StorePositions   bool
	StoreOffsets     bool
	OmitNorms        bool
	IndexOptions     IndexOptions
}

func (fi *FieldInfo) OmitsTermFreqAndPositions() bool { return fi.IndexOptions == DOCS_ONLY }
func (fi *FieldInfo) HasPositions() bool {
	return fi.IndexOptions >= DOCS_AND_FREQS_AND_POSITIONS
}
func (fi *FieldInfo) HasOffsets() bool {
	return fi.IndexOptions == DOCS_AND_FREQS_AND_POSITIONS_AND_OFFSETS
}

// FieldInfos is the per-segment field-name → FieldInfo table (the .fnm
// file's in-memory form). Field numbers are dense and stable within a
// segment; they are renumbered on merge (§3).
type FieldInfos struct {
	byNumber []*FieldInfo
	byName   map[string]*FieldInfo
}

func NewFieldInfos() *FieldInfos {
	return &FieldInfos{byName: make(map[string]*FieldInfo)}
}

// AddOrUpdate returns the FieldInfo for name, creating one with the next
// dense number if this is the first time name has been seen in this
// segment, otherwise merging in any newly-observed flags (a field can be
// indexed in one document and only stored in another).
func (fis *FieldInfos) AddOrUpdate(name string, indexed, tokenized, stored bool, opts IndexOptions, omitNorms bool) *FieldInfo {
	if fi, ok := fis.byName[name]; ok {
		fi.Indexed = fi.Indexed || indexed
		fi.Tokenized = fi.Tokenized || tokenized
		fi.Stored = fi.Stored || stored
		if opts > fi.IndexOptions {
			fi.IndexOptions = opts
		}
		fi.OmitNorms = fi.OmitNorms || omitNorms
		fi.StorePositions = fi.StorePositions || fi.HasPositions()
		fi.StoreOffsets = fi.StoreOffsets || fi.HasOffsets()
		return fi
	}
	fi := &FieldInfo{
		Name:           name,
		Number:         len(fis.byNumber),
		Indexed:        indexed,
		Tokenized:      tokenized,
		Stored:         stored,
		IndexOptions:   opts,
		OmitNorms:      omitNorms,
		StorePositions: opts >= DOCS_AND_FREQS_AND_POSITIONS,
		StoreOffsets:   opts == DOCS_AND_FREQS_AND_POSITIONS_AND_OFFSETS,
	}
	fis.byNumber = append(fis.byNumber, fi)
	fis.byName[name] = fi
	return fi
}

func (fis *FieldInfos) FieldInfo(name string) *FieldInfo { return fis.byName[name] }
func (fis *FieldInfos) FieldInfoByNumber(n int) *FieldInfo {
	if n < 0 || n >= len(fis.byNumber) {
		return nil
	}
	return fis.byNumber[n]
}
func (fis *FieldInfos) Size() int { return len(fis.byNumber) }

// Names returns field names sorted lexicographically, the order §4.C's
// term dictionary groups fields in.
func (fis *FieldInfos) Names() []string {
	names := make([]string, 0, len(fis.byName))
	for n := range fis.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (fis *FieldInfos) List() []*FieldInfo { return fis.byNumber }

// fieldInfoFlags packs the per-field booleans into a single byte for the
// .fnm file, the way the teacher's codec packs similar flag sets (§3).
func fieldInfoFlags(fi *FieldInfo) byte {
	var b byte
	if fi.Indexed {
		b |= 1 << 0
	}
	if fi.Tokenized {
		b |= 1 << 1
	}
	if fi.Stored {
		b |= 1 << 2
	}
	if fi.StoreTermVectors {
		b |= 1 << 3
	}
	if fi.StorePositions {
		b |= 1 << 4
	}
	if fi.StoreOffsets {
		b |= 1 << 5
	}
	if fi.OmitNorms {
		b |= 1 << 6
	}
	return b
}

func fieldInfoFromFlags(name string, number int, b byte, opts IndexOptions) *FieldInfo {
	return &FieldInfo{
		Name:             name,
		Number:           number,
		Indexed:          b&(1<<0) != 0,
		Tokenized:        b&(1<<1) != 0,
		Stored:           b&(1<<2) != 0,
		StoreTermVectors: b&(1<<3) != 0,
		StorePositions:   b&(1<<4) != 0,
		StoreOffsets:     b&(1<<5) != 0,
		OmitNorms:        b&(1<<6) != 0,
		IndexOptions:     opts,
	}
}

// WriteFieldInfos persists fis to segment+".fnm" (§3, §6).
func (fis *FieldInfos) WriteFieldInfos(dir store.Directory, segment string) error {
	out, err := dir.CreateOutput(segment + ".fnm")
	if err != nil {
		return err
	}
	cout := codec.NewChecksumOutput(out)
	if err := codec.WriteHeader(cout, fieldInfosCodecName, fieldInfosFormatStart); err != nil {
		return err
	}
	if err := cout.WriteVInt(int32(len(fis.byNumber))); err != nil {
		return err
	}
	for _, fi := range fis.byNumber {
		if err := cout.WriteString(fi.Name); err != nil {
			return err
		}
		if err := cout.WriteVInt(int32(fi.Number)); err != nil {
			return err
		}
		if err := cout.WriteByte(fieldInfoFlags(fi)); err != nil {
			return err
		}
		if err := cout.WriteByte(byte(fi.IndexOptions)); err != nil {
			return err
		}
	}
	if err := cout.WriteFooter(); err != nil {
		return err
	}
	return cout.Close()
}

// ReadFieldInfos loads segment+".fnm" (§3, §6).
func ReadFieldInfos(dir store.Directory, segment string) (*FieldInfos, error) {
	in, err := dir.OpenInput(segment + ".fnm")
	if err != nil {
		return nil, err
	}
	defer in.Close()
	if _, err := codec.CheckHeader(in, fieldInfosCodecName, fieldInfosFormatStart, fieldInfosFormatStart); err != nil {
		return nil, err
	}
	count, err := in.ReadVInt()
	if err != nil {
		return nil, err
	}
	fis := NewFieldInfos()
	byNumber := make([]*FieldInfo, count)
	byName := make(map[string]*FieldInfo, count)
	for i := int32(0); i < count; i++ {
		name, err := in.ReadString()
		if err != nil {
			return nil, err
		}
		number, err := in.ReadVInt()
		if err != nil {
			return nil, err
		}
		flags, err := in.ReadByte()
		if err != nil {
			return nil, err
		}
		optsByte, err := in.ReadByte()
		if err != nil {
			return nil, err
		}
		fi := fieldInfoFromFlags(name, int(number), flags, IndexOptions(optsByte))
		byNumber[number] = fi
		byName[name] = fi
	}
	fis.byNumber = byNumber
	fis.byName = byName
	return fis, nil
}

// MergeFieldInfos builds a fresh, densely-renumbered FieldInfos that is
// the union of several segments' field names (§4.G: "Build a remapped
// FieldInfos (union of field names; fresh dense numbering)").
func MergeFieldInfos(sources ...*FieldInfos) *FieldInfos {
	merged := NewFieldInfos()
	names := make(map[string]bool)
	var order []string
	for _, src := range sources {
		for _, name := range src.Names() {
			if !names[name] {
				names[name] = true
				order = append(order, name)
			}
		}
	}
	sort.Strings(order)
	for _, name := range order {
		var fi *FieldInfo
		for _, src := range sources {
			if f := src.FieldInfo(name); f != nil {
				fi = f
			}
		}
		merged.AddOrUpdate(name, fi.Indexed, fi.Tokenized, fi.Stored, fi.IndexOptions, fi.OmitNorms)
	}
	return merged
}
