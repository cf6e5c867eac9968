package index

import (
	"bytes"
	"encoding/binary"

	"github.com/stormgo/golucene/store"
	"github.com/stormgo/golucene/util"
)

// Skip-list constants (§3, §9's open question: the window/skip sizes are
// treated as internal, not externally contractual).
const (
	skipInterval  = 16
	maxSkipLevels = 10
)

// skipPoint is one landmark recorded while writing a term's postings: the
// docId it was recorded after, and the freq/prox file offsets of the next
// posting to read after jumping here (§3 "Skip list").
type skipPoint struct {
	doc    int
	freqFP int64
	proxFP int64
}

// buildSkipLevels derives skipInterval^(level+1)-spaced skip points for
// each level from the level-0 candidates (sampled every skipInterval
// postings while the term's postings were written). Level k keeps every
// skipInterval-th entry of level k-1, capped at maxSkipLevels.
func buildSkipLevels(candidates []skipPoint) [][]skipPoint {
	if len(candidates) == 0 {
		return nil
	}
	levels := [][]skipPoint{candidates}
	for len(levels) < maxSkipLevels {
		prev := levels[len(levels)-1]
		if len(prev) < skipInterval {
			break
		}
		var next []skipPoint
		for i := skipInterval - 1; i < len(prev); i += skipInterval {
			next = append(next, prev[i])
		}
		if len(next) == 0 {
			break
		}
		levels = append(levels, next)
	}
	return levels
}

// childPtrWidth is fixed (not VLong) so that writing a placeholder index
// and later patching in the resolved absolute offset never changes an
// entry's byte length — which would invalidate every offset computed
// before the patch.
const childPtrWidth = 8

func writeSkipEntry(buf *bytes.Buffer, e skipPoint, childPtr int64, hasChild bool) error {
	if err := util.WriteVInt(buf, int32(e.doc)); err != nil {
		return err
	}
	if err := util.WriteVLong(buf, e.freqFP); err != nil {
		return err
	}
	if err := util.WriteVLong(buf, e.proxFP); err != nil {
		return err
	}
	if hasChild {
		var b [childPtrWidth]byte
		binary.BigEndian.PutUint64(b[:], uint64(childPtr))
		buf.Write(b[:])
	}
	return nil
}

// writeSkipData serializes levels (lowest first) into out, preceded by a
// header giving each level's entry count and absolute file-offset base —
// computed here while everything is still in memory, so a reader never
// has to scan to discover where a level begins (§4.D: "advance descends
// the skip-list top-down").
func writeSkipData(out store.IndexOutput, levels [][]skipPoint) error {
	levelBufs := make([]*bytes.Buffer, len(levels))
	offsetsByLevel := make([][]int64, len(levels))

	buf0 := &bytes.Buffer{}
	offsets0 := make([]int64, len(levels[0]))
	for i, e := range levels[0] {
		offsets0[i] = int64(buf0.Len())
		if err := writeSkipEntry(buf0, e, 0, false); err != nil {
			return err
		}
	}
	levelBufs[0] = buf0
	offsetsByLevel[0] = offsets0

	for lvl := 1; lvl < len(levels); lvl++ {
		buf := &bytes.Buffer{}
		offsets := make([]int64, len(levels[lvl]))
		below := offsetsByLevel[lvl-1]
		for i, e := range levels[lvl] {
			childIdx := (i+1)*skipInterval - 1
			if childIdx >= len(below) {
				childIdx = len(below) - 1
			}
			// Placeholder: the below-level *index*, patched to an absolute
			// file offset once every level's base is fixed (see below).
			offsets[i] = int64(buf.Len())
			if err := writeSkipEntry(buf, e, int64(childIdx), true); err != nil {
				return err
			}
		}
		levelBufs[lvl] = buf
		offsetsByLevel[lvl] = offsets
	}

	if err := out.WriteVInt(int32(len(levels))); err != nil {
		return err
	}
	var relBase []int64
	var running int64
	for _, b := range levelBufs {
		relBase = append(relBase, running)
		running += int64(b.Len())
	}
	totalLen := running
	for lvl := range levels {
		if err := out.WriteVInt(int32(len(levels[lvl]))); err != nil {
			return err
		}
		if err := out.WriteVLong(relBase[lvl]); err != nil {
			return err
		}
	}
	if err := out.WriteVLong(totalLen); err != nil {
		return err
	}
	bodyBase := out.FilePointer()

	// Patch each level>0's child-index placeholder into an absolute file
	// offset now that bodyBase and every level's relBase are fixed. The
	// fixed-width child pointer field means this never changes any
	// buffer's length.
	for lvl := 1; lvl < len(levels); lvl++ {
		below := offsetsByLevel[lvl-1]
		buf := levelBufs[lvl].Bytes()
		for i := range levels[lvl] {
			entryStart := offsetsByLevel[lvl][i]
			r := bytes.NewReader(buf[entryStart:])
			if _, err := util.ReadVInt(r); err != nil {
				return err
			}
			if _, err := util.ReadVLong(r); err != nil {
				return err
			}
			if _, err := util.ReadVLong(r); err != nil {
				return err
			}
			// The child-pointer field is the last childPtrWidth bytes of
			// this entry; everything before it was just consumed above.
			consumed := int64(len(buf[entryStart:])) - int64(r.Len())
			placeholderOff := entryStart + consumed
			placeholder := int64(binary.BigEndian.Uint64(buf[placeholderOff : placeholderOff+childPtrWidth]))
			abs := bodyBase + relBase[lvl-1] + below[placeholder]
			binary.BigEndian.PutUint64(buf[placeholderOff:placeholderOff+childPtrWidth], uint64(abs))
		}
	}

	for _, b := range levelBufs {
		if err := out.WriteBytes(b.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

// skipReader descends a skip structure written by writeSkipData, starting
// from the section's base offset (freqPointer + TermInfo.SkipOffset).
type skipReader struct {
	in        store.IndexInput
	numLevels int
	counts    []int
	base      []int64 // absolute file offset of each level's first entry
	end       []int64 // absolute file offset just past each level's region
}

func openSkipReader(in store.IndexInput, sectionBeg int64) (*skipReader, error) {
	if err := in.Seek(sectionBeg); err != nil {
		return nil, err
	}
	n, err := in.ReadVInt()
	if err != nil {
		return nil, err
	}
	numLevels := int(n)
	counts := make([]int, numLevels)
	relBase := make([]int64, numLevels)
	for i := 0; i < numLevels; i++ {
		c, err := in.ReadVInt()
		if err != nil {
			return nil, err
		}
		counts[i] = int(c)
		b, err := in.ReadVLong()
		if err != nil {
			return nil, err
		}
		relBase[i] = b
	}
	totalLen, err := in.ReadVLong()
	if err != nil {
		return nil, err
	}
	bodyBase := in.FilePointer()
	base := make([]int64, numLevels)
	end := make([]int64, numLevels)
	for i := range base {
		base[i] = bodyBase + relBase[i]
		if i+1 < numLevels {
			end[i] = bodyBase + relBase[i+1]
		} else {
			end[i] = bodyBase + totalLen
		}
	}
	return &skipReader{in: in, numLevels: numLevels, counts: counts, base: base, end: end}, nil
}

func (sr *skipReader) readEntryAt(pos int64, hasChild bool) (doc int, freqFP, proxFP, childPtr, next int64, err error) {
	if err = sr.in.Seek(pos); err != nil {
		return
	}
	d, err := sr.in.ReadVInt()
	if err != nil {
		return
	}
	doc = int(d)
	freqFP, err = sr.in.ReadVLong()
	if err != nil {
		return
	}
	proxFP, err = sr.in.ReadVLong()
	if err != nil {
		return
	}
	if hasChild {
		var b [childPtrWidth]byte
		if err = sr.in.ReadBytes(b[:]); err != nil {
			return
		}
		childPtr = int64(binary.BigEndian.Uint64(b[:]))
	}
	next = sr.in.FilePointer()
	return
}

// FindSkip descends from the top level looking for the furthest skip point
// with doc < target, returning its (doc, freqFP, proxFP); ok is false if no
// skip point qualifies (caller should linear-scan from the term's start).
func (sr *skipReader) FindSkip(target int) (doc int, freqFP, proxFP int64, ok bool, err error) {
	if sr.numLevels == 0 {
		return 0, 0, 0, false, nil
	}
	lvl := sr.numLevels - 1
	cur := sr.base[lvl]
	for lvl >= 0 {
		hasChild := lvl > 0
		var lastDoc int
		var lastFreqFP, lastProxFP, lastChild int64
		lastSet := false
		for cur < sr.end[lvl] {
			var d int
			var ffp, pfp, cp, next int64
			d, ffp, pfp, cp, next, err = sr.readEntryAt(cur, hasChild)
			if err != nil {
				return
			}
			if d >= target {
				break
			}
			lastDoc, lastFreqFP, lastProxFP, lastChild = d, ffp, pfp, cp
			lastSet = true
			cur = next
		}
		if lastSet {
			doc, freqFP, proxFP = lastDoc, lastFreqFP, lastProxFP
			ok = true
			if lvl == 0 {
				break
			}
			cur = lastChild
			lvl--
			continue
		}
		// Nothing at this level precedes target. If a higher level already
		// matched, that landmark is the answer; otherwise the denser level
		// below may still hold an earlier skip point, so search it from its
		// first entry.
		if ok || lvl == 0 {
			break
		}
		lvl--
		cur = sr.base[lvl]
	}
	return
}
