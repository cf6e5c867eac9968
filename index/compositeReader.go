package index

import (
	"bytes"
	"container/list"
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/stormgo/golucene/util"
)

type CompositeReaderPart interface {
	getSequentialSubReaders() []IndexReader
}

type CompositeReader interface {
	IndexReader
	CompositeReaderPart
}

type CompositeReaderImpl struct {
	*IndexReaderImpl
	CompositeReaderPart
	readerContext *CompositeReaderContext // lazy load
}

func newCompositeReader(self CompositeReader) *CompositeReaderImpl {
	return &CompositeReaderImpl{
		IndexReaderImpl:     newIndexReader(self),
		CompositeReaderPart: self,
	}
}

func (r *CompositeReaderImpl) String() string {
	var buf bytes.Buffer
	class := reflect.TypeOf(r.IndexReader).Name()
	if class != "" {
		buf.WriteString(class)
	} else {
		buf.WriteString("CompositeReader")
	}
	buf.WriteString("(")
	subReaders := r.getSequentialSubReaders()
	for i, v := range subReaders {
		if i > 0 {
			buf.WriteString(" ")
		}
		fmt.Fprintf(&buf, "%v", v)
	}
	buf.WriteString(")")
	return buf.String()
}

func (r *CompositeReaderImpl) Context() IndexReaderContext {
	r.ensureOpen()
	util.Logger.Debugf("obtaining context for %v", r.IndexReader)
	// lazy init without thread safety for perf reasons: building the context
	// twice does not hurt, it's immutable once built.
	if r.readerContext == nil {
		r.readerContext = newCompositeReaderContext(r.IndexReader.(CompositeReader))
	}
	return r.readerContext
}

type CompositeReaderContext struct {
	*IndexReaderContextImpl
	children []IndexReaderContext
	leaves   *list.List // operated by builder
	reader   CompositeReader
}

func newCompositeReaderContext(r CompositeReader) *CompositeReaderContext {
	return newCompositeReaderContextBuilder(r).build()
}

func newCompositeReaderContext3(reader CompositeReader,
	children []IndexReaderContext, leaves *list.List) *CompositeReaderContext {
	return newCompositeReaderContext6(nil, reader, 0, 0, children, leaves)
}

func newCompositeReaderContext5(parent *CompositeReaderContext, reader CompositeReader,
	ordInParent, docBaseInParent int, children []IndexReaderContext) *CompositeReaderContext {
	return newCompositeReaderContext6(parent, reader, ordInParent, docBaseInParent, children, list.New())
}

func newCompositeReaderContext6(parent *CompositeReaderContext,
	reader CompositeReader,
	ordInParent, docBaseInParent int,
	children []IndexReaderContext,
	leaves *list.List) *CompositeReaderContext {
	ans := &CompositeReaderContext{}
	ans.IndexReaderContextImpl = newIndexReaderContext(parent, ordInParent, docBaseInParent)
	ans.children = children
	ans.leaves = leaves
	ans.reader = reader
	return ans
}

func (ctx *CompositeReaderContext) Leaves() []AtomicReaderContext {
	if !ctx.isTopLevel {
		panic("This is not a top-level context.")
	}
	ans := make([]AtomicReaderContext, 0, ctx.leaves.Len())
	for e := ctx.leaves.Front(); e != nil; e = e.Next() {
		ans = append(ans, e.Value.(AtomicReaderContext))
	}
	return ans
}

func (ctx *CompositeReaderContext) Children() []IndexReaderContext { return ctx.children }
func (ctx *CompositeReaderContext) Reader() IndexReader            { return ctx.reader }
func (ctx *CompositeReaderContext) String() string                 { return "CompositeReaderContext" }

type CompositeReaderContextBuilder struct {
	reader      CompositeReader
	leaves      *list.List
	leafDocBase int
}

func newCompositeReaderContextBuilder(r CompositeReader) CompositeReaderContextBuilder {
	return CompositeReaderContextBuilder{reader: r, leaves: list.New()}
}

func (b *CompositeReaderContextBuilder) build() *CompositeReaderContext {
	return b.build4(nil, b.reader, 0, 0).(*CompositeReaderContext)
}

func (b *CompositeReaderContextBuilder) build4(parent *CompositeReaderContext,
	reader IndexReader, ord, docBase int) IndexReaderContext {
	util.Logger.Debugf("building context from %v (parent=%v, ord=%v, docBase=%v)", reader, parent, ord, docBase)
	if ar, ok := reader.(AtomicReader); ok {
		util.Logger.Debug("atomic reader detected")
		ctx := newAtomicReaderContext(parent, ar, ord, docBase, b.leaves.Len(), b.leafDocBase)
		b.leaves.PushBack(*ctx)
		b.leafDocBase += reader.MaxDoc()
		return ctx
	}
	cr := reader.(CompositeReader)
	sequentialSubReaders := cr.getSequentialSubReaders()
	util.Logger.Debugf("composite reader detected: %v sub readers found", len(sequentialSubReaders))
	children := make([]IndexReaderContext, len(sequentialSubReaders))
	var newParent *CompositeReaderContext
	if parent == nil {
		newParent = newCompositeReaderContext3(cr, children, b.leaves)
	} else {
		newParent = newCompositeReaderContext5(parent, cr, ord, docBase, children)
	}
	newDocBase := 0
	for i, sub := range sequentialSubReaders {
		children[i] = b.build4(newParent, sub, i, newDocBase)
		newDocBase += sub.MaxDoc()
	}
	return newParent
}

var EMPTY_ARRAY = []ReaderSlice{}

type ReaderSlice struct {
	start, length, readerIndex int
}

func (rs ReaderSlice) String() string {
	return fmt.Sprintf("slice start=%v length=%v readerIndex=%v", rs.start, rs.length, rs.readerIndex)
}

// BaseCompositeReader presents N sub-readers (segment readers, or nested
// composite readers) as one logical reader, translating doc-ids by
// segment-base offsets (§2 component E, "Multi-reader").
type BaseCompositeReader struct {
	*CompositeReaderImpl
	subReaders     []IndexReader
	starts         []int
	maxDoc         int
	numDocs        int
	subReadersList []IndexReader
}

func newBaseCompositeReader(self IndexReader, readers []IndexReader) *BaseCompositeReader {
	util.Logger.Debugf("initializing base composite reader with %v sub readers", len(readers))
	ans := &BaseCompositeReader{}
	ans.CompositeReaderImpl = newCompositeReader(self.(CompositeReader))
	ans.subReaders = readers
	ans.subReadersList = make([]IndexReader, len(readers))
	copy(ans.subReadersList, readers)
	ans.starts = make([]int, len(readers)+1)
	var maxDoc, numDocs int
	for i, r := range readers {
		ans.starts[i] = maxDoc
		maxDoc += r.MaxDoc()
		if maxDoc < 0 {
			panic(fmt.Sprintf("too many documents, composite IndexReaders cannot exceed %v", math.MaxInt32))
		}
		numDocs += r.NumDocs()
		r.registerParentReader(ans)
	}
	ans.starts[len(readers)] = maxDoc
	ans.maxDoc = maxDoc
	ans.numDocs = numDocs
	util.Logger.Debugf("obtained %v docs (max %v)", numDocs, maxDoc)
	return ans
}

func (r *BaseCompositeReader) Document(docID int, visitor StoredFieldVisitor) error {
	r.ensureOpen()
	i := r.readerIndex(docID)
	sr, ok := r.subReaders[i].(*SegmentReader)
	if !ok {
		return nil
	}
	return sr.Document(docID-r.starts[i], visitor)
}

func (r *BaseCompositeReader) NumDocs() int { return r.numDocs }
func (r *BaseCompositeReader) MaxDoc() int  { return r.maxDoc }

func (r *BaseCompositeReader) DocFreq(term Term) (int, error) {
	var total int
	for _, sub := range r.subReaders {
		ar := sub.(AtomicReader)
		n, err := ar.DocFreq(term)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func (r *BaseCompositeReader) TotalTermFreq(term Term) (int64, error) {
	var total int64
	for _, sub := range r.subReaders {
		ar := sub.(AtomicReader)
		n, err := ar.TotalTermFreq(term)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func (r *BaseCompositeReader) SumDocFreq(field string) (int64, error) {
	var total int64
	for _, sub := range r.subReaders {
		ar := sub.(AtomicReader)
		n, err := ar.SumDocFreq(field)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func (r *BaseCompositeReader) DocCount(field string) (int, error) {
	var total int
	for _, sub := range r.subReaders {
		ar := sub.(AtomicReader)
		n, err := ar.DocCount(field)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func (r *BaseCompositeReader) SumTotalTermFreq(field string) (int64, error) {
	var total int64
	for _, sub := range r.subReaders {
		ar := sub.(AtomicReader)
		n, err := ar.SumTotalTermFreq(field)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func (r *BaseCompositeReader) readerIndex(docID int) int {
	if docID < 0 || docID >= r.maxDoc {
		panic(fmt.Sprintf("docID must be [0, %v) (got docID=%v)", r.maxDoc, docID))
	}
	return subIndex(docID, r.starts)
}

func (r *BaseCompositeReader) readerBase(readerIndex int) int {
	return r.starts[readerIndex]
}

func (r *BaseCompositeReader) getSequentialSubReaders() []IndexReader { return r.subReadersList }

// subIndex finds which sub-reader a global docID falls into given the
// starts array (starts[i] is the first global docID of sub-reader i,
// starts[len(starts)-1] is the composite maxDoc).
func subIndex(docID int, starts []int) int {
	hi := len(starts) - 2
	i := sort.Search(hi+1, func(i int) bool { return starts[i] > docID })
	return i - 1
}
