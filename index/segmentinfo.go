package index

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/stormgo/golucene/codec"
	"github.com/stormgo/golucene/store"
	"github.com/stormgo/golucene/util"
)

const (
	segmentsCodecName   = "Segments"
	segmentsFormatStart = 0
)

// SegmentInfo is one segment's descriptor inside segments_<gen> (§3, §6).
type SegmentInfo struct {
	Name              string
	DocCount          int
	DelGen            int64 // -1 means no deletions yet
	IsCompoundFile    bool
	HasSingleNormFile bool
	Diagnostics       map[string]string
}

// SegmentInfos is the ordered collection of segment descriptors plus the
// version/generation counters persisted as segments_<gen> (§3, §6).
type SegmentInfos struct {
	Version     int64
	Generation  int64
	NameCounter int64
	Segments    []*SegmentInfo
}

func NewSegmentInfos() *SegmentInfos {
	// Generation starts at 0 so the first Write() increments to 1, producing
	// "segments_1" — gen 0 would collide with FileNameFromGeneration's
	// legacy "no suffix" case, which IsSegmentsFile doesn't recognize.
	return &SegmentInfos{Generation: 0}
}

// NextSegmentName returns a fresh, monotonically increasing segment name
// ("_0", "_1", ...) and advances the counter (§4.G step 1).
func (sis *SegmentInfos) NextSegmentName() string {
	name := "_" + strconv.FormatInt(sis.NameCounter, 36)
	sis.NameCounter++
	return name
}

func (sis *SegmentInfos) TotalDocCount() int {
	var total int
	for _, si := range sis.Segments {
		total += si.DocCount
	}
	return total
}

// Write persists segments_<nextGen> atomically from dir's perspective: the
// file is written whole under a fresh name, then segments.gen is rewritten
// as a hint (§6: "authoritative source is still the directory listing").
func (sis *SegmentInfos) Write(dir store.Directory) (string, error) {
	sis.Generation++
	sis.Version++
	fileName := util.FileNameFromGeneration(util.SEGMENTS, "", sis.Generation)

	out, err := dir.CreateOutput(fileName)
	if err != nil {
		return "", err
	}
	cout := codec.NewChecksumOutput(out)
	if err := codec.WriteHeader(cout, segmentsCodecName, segmentsFormatStart); err != nil {
		return "", err
	}
	if err := cout.WriteLong(sis.Version); err != nil {
		return "", err
	}
	if err := cout.WriteLong(sis.NameCounter); err != nil {
		return "", err
	}
	if err := cout.WriteInt(int32(len(sis.Segments))); err != nil {
		return "", err
	}
	for _, si := range sis.Segments {
		if err := writeSegmentInfo(cout, si); err != nil {
			return "", err
		}
	}
	if err := cout.WriteFooter(); err != nil {
		return "", err
	}
	if err := cout.Close(); err != nil {
		return "", err
	}

	genOut, err := dir.CreateOutput(util.SEGMENTS_GEN)
	if err == nil {
		genOut.WriteInt(-20) // legacy hint-file format marker
		genOut.WriteLong(sis.Generation)
		genOut.WriteLong(sis.Generation)
		genOut.Close()
	}
	return fileName, nil
}

func writeSegmentInfo(out *codec.ChecksumOutput, si *SegmentInfo) error {
	if err := out.WriteString(si.Name); err != nil {
		return err
	}
	if err := out.WriteVInt(int32(si.DocCount)); err != nil {
		return err
	}
	if err := out.WriteLong(si.DelGen); err != nil {
		return err
	}
	if err := out.WriteByte(boolByte(si.IsCompoundFile)); err != nil {
		return err
	}
	if err := out.WriteByte(boolByte(si.HasSingleNormFile)); err != nil {
		return err
	}
	return out.WriteStringStringMap(si.Diagnostics)
}

func readSegmentInfo(in store.IndexInput) (*SegmentInfo, error) {
	name, err := in.ReadString()
	if err != nil {
		return nil, err
	}
	docCount, err := in.ReadVInt()
	if err != nil {
		return nil, err
	}
	delGen, err := in.ReadLong()
	if err != nil {
		return nil, err
	}
	isCompound, err := in.ReadByte()
	if err != nil {
		return nil, err
	}
	hasSingleNorm, err := in.ReadByte()
	if err != nil {
		return nil, err
	}
	diag, err := in.ReadStringStringMap()
	if err != nil {
		return nil, err
	}
	return &SegmentInfo{
		Name:              name,
		DocCount:          int(docCount),
		DelGen:            delGen,
		IsCompoundFile:    isCompound != 0,
		HasSingleNormFile: hasSingleNorm != 0,
		Diagnostics:       diag,
	}, nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// ReadLatestSegmentInfos discovers and reads the highest-generation
// segments_<gen> file in dir by directory listing (§6: the hint file
// segments.gen is never trusted on its own).
func ReadLatestSegmentInfos(dir store.Directory) (*SegmentInfos, error) {
	names, err := dir.List()
	if err != nil {
		return nil, err
	}
	var best string
	var bestGen int64 = -1
	for _, n := range names {
		if !util.IsSegmentsFile(n) {
			continue
		}
		gen, err := util.ParseGeneration(n)
		if err != nil {
			continue
		}
		if gen > bestGen {
			bestGen = gen
			best = n
		}
	}
	if best == "" {
		return nil, util.FileNotFoundError("no segments_N file found")
	}
	return ReadSegmentInfos(dir, best)
}

func ReadSegmentInfos(dir store.Directory, fileName string) (*SegmentInfos, error) {
	in, err := dir.OpenInput(fileName)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	if _, err := codec.CheckHeader(in, segmentsCodecName, segmentsFormatStart, segmentsFormatStart); err != nil {
		return nil, err
	}
	version, err := in.ReadLong()
	if err != nil {
		return nil, err
	}
	nameCounter, err := in.ReadLong()
	if err != nil {
		return nil, err
	}
	count, err := in.ReadInt()
	if err != nil {
		return nil, err
	}
	segs := make([]*SegmentInfo, 0, count)
	for i := int32(0); i < count; i++ {
		si, err := readSegmentInfo(in)
		if err != nil {
			return nil, err
		}
		segs = append(segs, si)
	}
	gen, err := util.ParseGeneration(fileName)
	if err != nil {
		return nil, fmt.Errorf("segments file name %q: %w", fileName, err)
	}
	return &SegmentInfos{
		Version:     version,
		Generation:  gen,
		NameCounter: nameCounter,
		Segments:    segs,
	}, nil
}

// SortedSegmentNames returns segment names in a stable order, useful for
// deterministic merge selection.
func (sis *SegmentInfos) SortedSegmentNames() []string {
	names := make([]string, len(sis.Segments))
	for i, si := range sis.Segments {
		names[i] = si.Name
	}
	sort.Strings(names)
	return names
}
