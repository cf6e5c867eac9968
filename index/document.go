package index

// Field is one named value attached to a Document, carrying the flags from
// §3's data model. A field may be indexed (tokenized and inverted), stored
// (kept verbatim for retrieval), or both.
type Field struct {
	Name             string
	Value            string
	Indexed          bool
	Tokenized        bool
	Stored           bool
	StoreTermVectors bool
	OmitNorms        bool
	Boost            float32
	IndexOptions     IndexOptions
}

// TextField returns an indexed, tokenized, unstored field — the common
// case for full-text body fields.
func TextField(name, value string) Field {
	return Field{
		Name: name, Value: value,
		Indexed: true, Tokenized: true,
		Boost:        1.0,
		IndexOptions: DOCS_AND_FREQS_AND_POSITIONS,
	}
}

// StringField returns an indexed-but-not-tokenized field, used for exact-
// match identifiers; it is also stored by default.
func StringField(name, value string) Field {
	return Field{
		Name: name, Value: value,
		Indexed: true, Tokenized: false, Stored: true,
		Boost:        1.0,
		IndexOptions: DOCS_ONLY,
	}
}

// StoredField returns a field that is retrievable but not indexed.
func StoredField(name, value string) Field {
	return Field{Name: name, Value: value, Stored: true, Boost: 1.0}
}

// Document is an ordered sequence of fields (§3), built by the caller and
// consumed by the indexing chain.
type Document struct {
	Fields []Field
}

func NewDocument() *Document { return &Document{} }

func (d *Document) Add(f Field) *Document {
	d.Fields = append(d.Fields, f)
	return d
}

// Get returns the first field with the given name, or the zero Field and
// false if none is present.
func (d *Document) Get(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// GetValues returns every value stored under name, in field order — a
// document may repeat a field name (e.g. a multi-valued field).
func (d *Document) GetValues(name string) []string {
	var vals []string
	for _, f := range d.Fields {
		if f.Name == name {
			vals = append(vals, f.Value)
		}
	}
	return vals
}
