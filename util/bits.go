package util

import "github.com/RoaringBitmap/roaring"

// Bits is a random-access boolean set over doc-ids, used for live-docs
// (not-deleted) checks and for Filtered query doc-id sets (§3, §4.H).
type Bits interface {
	Get(index int) bool
	Len() int
}

// RoaringBits adapts a Roaring bitmap to Bits. The deletion bitset (.del
// file, §3) and Filtered's doc-id set (§4.H) are both sparse boolean sets
// over a possibly large doc-id space, which is exactly what Roaring is
// built for — see SPEC_FULL's domain-stack table.
type RoaringBits struct {
	bitmap *roaring.Bitmap
	length int
	// liveMeansSet controls polarity: true for a live-docs set (bit present
	// = not deleted), false for a deleted-docs set (bit present = deleted,
	// Get returns the negation).
	liveMeansSet bool
}

// NewLiveBits returns a Bits where every doc in [0,length) is live (no
// deletions yet); deletions are recorded by flipping bits to absent.
func NewLiveBits(length int) *RoaringBits {
	bm := roaring.New()
	if length > 0 {
		bm.AddRange(0, uint64(length))
	}
	return &RoaringBits{bitmap: bm, length: length, liveMeansSet: true}
}

// NewDeletedBits wraps an existing Roaring bitmap of deleted doc-ids.
func NewDeletedBits(deleted *roaring.Bitmap, length int) *RoaringBits {
	return &RoaringBits{bitmap: deleted, length: length, liveMeansSet: false}
}

func (b *RoaringBits) Get(index int) bool {
	set := b.bitmap.Contains(uint32(index))
	if b.liveMeansSet {
		return set
	}
	return !set
}

func (b *RoaringBits) Len() int { return b.length }

// Delete marks a doc-id as deleted regardless of polarity.
func (b *RoaringBits) Delete(docID int) {
	if b.liveMeansSet {
		b.bitmap.Remove(uint32(docID))
	} else {
		b.bitmap.Add(uint32(docID))
	}
}

// NewEmptyBits returns a Bits over [0,length) with every bit initially
// false; Set marks individual doc-ids present. Used to materialize a
// search-time doc-id stream (a Scorer's matches, a filter's matching set)
// into a random-access set.
func NewEmptyBits(length int) *RoaringBits {
	return &RoaringBits{bitmap: roaring.New(), length: length, liveMeansSet: true}
}

// Set marks docID present, the Get-true counterpart to Delete.
func (b *RoaringBits) Set(docID int) {
	if b.liveMeansSet {
		b.bitmap.Add(uint32(docID))
	} else {
		b.bitmap.Remove(uint32(docID))
	}
}

// Cardinality returns the number of live docs in [0,Len()).
func (b *RoaringBits) Cardinality() int {
	if b.liveMeansSet {
		return int(b.bitmap.GetCardinality())
	}
	return b.length - int(b.bitmap.GetCardinality())
}

// RoaringFromBytes deserializes a Roaring bitmap previously written via
// DeletedBitmap().ToBytes(), used when loading a segment's .del file.
func RoaringFromBytes(buf []byte) (*roaring.Bitmap, error) {
	bm := roaring.New()
	if _, err := bm.FromBuffer(buf); err != nil {
		return nil, err
	}
	return bm, nil
}

// DeletedBitmap returns the underlying deleted-doc bitmap, materializing one
// from a live-set if needed. Used when persisting the .del file.
func (b *RoaringBits) DeletedBitmap() *roaring.Bitmap {
	if !b.liveMeansSet {
		return b.bitmap.Clone()
	}
	all := roaring.New()
	if b.length > 0 {
		all.AddRange(0, uint64(b.length))
	}
	all.AndNot(b.bitmap)
	return all
}
