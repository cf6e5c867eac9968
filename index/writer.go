package index

import (
	"strings"
	"time"

	"github.com/stormgo/golucene/store"
	"github.com/stormgo/golucene/util"
)

const writeLockName = "write.lock"

// IndexCommit is one past segments_<gen> generation a DeletionPolicy can
// choose to keep or reclaim (§4.L). Grounded on
// original_source/include/SnapshotDeletionPolicy.h's IndexCommit/
// MyCommitPoint pair, trimmed to the fields this port's policies need.
type IndexCommit struct {
	dir              store.Directory
	generation       int64
	segmentsFileName string
	deleted          bool
	pinned           bool
}

func (c *IndexCommit) Generation() int64       { return c.generation }
func (c *IndexCommit) SegmentsFileName() string { return c.segmentsFileName }
func (c *IndexCommit) IsDeleted() bool          { return c.deleted }

// Delete reclaims this commit's segments_<gen> file, unless it is pinned
// by a snapshot (§4.L "Snapshot policy additionally pins the most recent
// commit on demand, preventing its collection until explicitly released").
func (c *IndexCommit) Delete() error {
	if c.pinned || c.deleted {
		return nil
	}
	c.deleted = true
	return c.dir.DeleteFile(c.segmentsFileName)
}

// DeletionPolicy decides which past commit generations an IndexWriter may
// remove once a newer commit succeeds (§4.L). It is invoked with every
// known commit on writer open and after every commit; the commits it
// chooses to reclaim are removed by calling Delete() on them.
type DeletionPolicy interface {
	OnCommit(commits []*IndexCommit)
	OnInit(commits []*IndexCommit)
}

// KeepOnlyLastCommitDeletionPolicy deletes every commit but the newest,
// matching the teacher's default.
type KeepOnlyLastCommitDeletionPolicy struct{}

func (KeepOnlyLastCommitDeletionPolicy) OnInit(commits []*IndexCommit) {}

func (KeepOnlyLastCommitDeletionPolicy) OnCommit(commits []*IndexCommit) {
	if len(commits) == 0 {
		return
	}
	for _, c := range commits[:len(commits)-1] {
		c.Delete()
	}
}

// SnapshotDeletionPolicy wraps another policy, pinning the most recently
// committed generation against deletion until Release is called (§4.L).
// Grounded on original_source/include/SnapshotDeletionPolicy.h.
type SnapshotDeletionPolicy struct {
	primary    DeletionPolicy
	lastCommit *IndexCommit // most recently seen commit, a Snapshot() candidate
	snapshot   *IndexCommit // the commit currently pinned, or nil if none
}

func NewSnapshotDeletionPolicy(primary DeletionPolicy) *SnapshotDeletionPolicy {
	return &SnapshotDeletionPolicy{primary: primary}
}

func (p *SnapshotDeletionPolicy) OnInit(commits []*IndexCommit) {
	p.primary.OnInit(commits)
	if len(commits) > 0 {
		p.lastCommit = commits[len(commits)-1]
	}
}

func (p *SnapshotDeletionPolicy) OnCommit(commits []*IndexCommit) {
	p.primary.OnCommit(commits)
	if len(commits) > 0 {
		p.lastCommit = commits[len(commits)-1]
	}
}

// Snapshot pins the most recent commit so no DeletionPolicy.OnCommit call
// can reclaim it until Release is called. Returns the pinned commit. Only
// one snapshot may be held at a time, matching the original's single
// "_snapshot" slot.
func (p *SnapshotDeletionPolicy) Snapshot() (*IndexCommit, error) {
	if p.snapshot != nil {
		return nil, util.IllegalArgumentError("snapshot is already held; call Release first")
	}
	if p.lastCommit == nil {
		return nil, util.IllegalArgumentError("no commit exists yet to snapshot")
	}
	p.lastCommit.pinned = true
	p.snapshot = p.lastCommit
	return p.snapshot, nil
}

// Release un-pins the currently held snapshot, if any, letting a future
// OnCommit reclaim it.
func (p *SnapshotDeletionPolicy) Release() {
	if p.snapshot != nil {
		p.snapshot.pinned = false
		p.snapshot = nil
	}
}

// WriterConfig bundles the knobs an IndexWriter needs (§4.F, §4.L, §7's
// lock-retry note), analogous to the teacher's IndexWriterConfig.
type WriterConfig struct {
	Analyzer           Analyzer
	DeletionPolicy     DeletionPolicy
	LockObtainTimeout  time.Duration
}

func NewWriterConfig(analyzer Analyzer) *WriterConfig {
	return &WriterConfig{
		Analyzer:          analyzer,
		DeletionPolicy:    KeepOnlyLastCommitDeletionPolicy{},
		LockObtainTimeout: 5 * time.Second,
	}
}

// IndexWriter accumulates documents into an in-memory segment and flushes
// it on Commit (§4.F, §4.L). A broken writer (one that hit an I/O error)
// fails fast on every subsequent call, per §7's propagation rule.
type IndexWriter struct {
	dir     store.Directory
	cfg     *WriterConfig
	lock    store.Lock
	sis     *SegmentInfos
	buffer  *docState
	nextDocID int
	broken  error
	commits []*IndexCommit // every generation still known to the writer, oldest first
}

// OpenIndexWriter obtains dir's write lock (retrying per cfg's timeout) and
// loads (or creates) segments_<gen> (§7: "Lock-obtain is retried up to a
// configured interval before surfacing").
func OpenIndexWriter(dir store.Directory, cfg *WriterConfig) (*IndexWriter, error) {
	lock := dir.MakeLock(writeLockName)
	deadline := time.Now().Add(cfg.LockObtainTimeout)
	var obtained bool
	var err error
	for {
		obtained, err = lock.Obtain()
		if err != nil {
			return nil, err
		}
		if obtained {
			break
		}
		if time.Now().After(deadline) {
			return nil, util.LockObtainFailedError("could not obtain write lock on " + writeLockName)
		}
		time.Sleep(10 * time.Millisecond)
	}

	sis, err := ReadLatestSegmentInfos(dir)
	if err != nil {
		sis = NewSegmentInfos()
	}
	w := &IndexWriter{dir: dir, cfg: cfg, lock: lock, sis: sis, buffer: newDocState()}
	if sis.Generation > 0 {
		w.commits = []*IndexCommit{{
			dir:              dir,
			generation:       sis.Generation,
			segmentsFileName: util.FileNameFromGeneration(util.SEGMENTS, "", sis.Generation),
		}}
	}
	cfg.DeletionPolicy.OnInit(w.commits)
	return w, nil
}

func (w *IndexWriter) AddDocument(doc *Document) error {
	if w.broken != nil {
		return w.broken
	}
	w.buffer.addDocument(w.nextDocID, doc, w.cfg.Analyzer)
	w.nextDocID++
	return nil
}

// Flush writes the buffered documents as one new segment, without touching
// segments_<gen> (§4.F: flush produces files; commit publishes them).
func (w *IndexWriter) Flush() (*SegmentInfo, error) {
	if w.broken != nil {
		return nil, w.broken
	}
	if w.nextDocID == 0 {
		return nil, nil
	}
	name := w.sis.NextSegmentName()
	util.Logger.Debugf("flushing %v buffered docs to segment %v", w.nextDocID, name)
	si, err := flushSegment(w.dir, name, w.buffer, w.nextDocID)
	if err != nil {
		w.broken = err
		return nil, err
	}
	w.sis.Segments = append(w.sis.Segments, si)
	w.buffer = newDocState()
	w.nextDocID = 0
	return si, nil
}

// Commit flushes any buffered documents, then persists segments_<gen> so
// readers can discover the new state (§4.L, §6).
func (w *IndexWriter) Commit() error {
	if w.broken != nil {
		return w.broken
	}
	if _, err := w.Flush(); err != nil {
		return err
	}
	fileName, err := w.sis.Write(w.dir)
	if err != nil {
		w.broken = err
		return err
	}
	w.recordCommit(fileName)
	return nil
}

func (w *IndexWriter) Close() error {
	return w.lock.Release()
}

// MergeAll collapses every segment currently in sis into a single new
// segment and publishes the result (§4.G "Merging"). This port runs a
// single merge-everything policy rather than the teacher's tiered
// size-bucketed selection (§9 names per-thread/global-singleton concerns
// to simplify, not merge-policy selection specifically, but a full tiered
// policy adds no new spec-required behavior over "merge preserves
// semantics", §8 property 8, so the simplification is taken here and
// recorded in DESIGN.md).
func (w *IndexWriter) MergeAll() error {
	if w.broken != nil {
		return w.broken
	}
	if len(w.sis.Segments) < 2 {
		return nil
	}
	name := w.sis.NextSegmentName()
	util.Logger.Debugf("merging %v segments into %v", len(w.sis.Segments), name)
	merged, err := MergeSegments(w.dir, name, w.sis.Segments)
	if err != nil {
		w.broken = err
		return err
	}
	old := w.sis.Segments
	w.sis.Segments = []*SegmentInfo{merged}
	fileName, err := w.sis.Write(w.dir)
	if err != nil {
		w.broken = err
		return err
	}
	w.recordCommit(fileName)
	for _, si := range old {
		util.Logger.Debugf("deleting superseded segment %v", si.Name)
		deleteSegmentFiles(w.dir, si.Name)
	}
	return nil
}

// recordCommit appends the generation just written as a new IndexCommit,
// asks cfg.DeletionPolicy which of the known commits to reclaim, and drops
// every commit the policy actually deleted from w.commits (§4.L: invoked
// "after every commit").
func (w *IndexWriter) recordCommit(fileName string) {
	w.commits = append(w.commits, &IndexCommit{
		dir:              w.dir,
		generation:       w.sis.Generation,
		segmentsFileName: fileName,
	})
	w.cfg.DeletionPolicy.OnCommit(w.commits)
	kept := w.commits[:0]
	for _, c := range w.commits {
		if !c.IsDeleted() {
			kept = append(kept, c)
		}
	}
	w.commits = kept
}

// deleteSegmentFiles removes every file belonging to segment (every
// extension from §6's per-segment table, plus this port's per-field
// "_<fieldNumber>.tis"/".tii" term-dict files), best-effort per §4.A's
// idempotent Delete contract.
func deleteSegmentFiles(dir store.Directory, segment string) {
	names, err := dir.List()
	if err != nil {
		return
	}
	for _, n := range names {
		if strings.HasPrefix(n, segment+".") || strings.HasPrefix(n, segment+"_") {
			dir.DeleteFile(n)
		}
	}
}

// flushSegment writes one segment's full file set from buffered doc state
// (§4.F/§4.G's "flush" step, collapsed into a single pass since this port
// buffers a whole segment before writing rather than incrementally).
func flushSegment(dir store.Directory, name string, ds *docState, numDocs int) (*SegmentInfo, error) {
	if err := ds.fis.WriteFieldInfos(dir, name); err != nil {
		return nil, err
	}

	needsPositions := false
	for _, fi := range ds.fis.List() {
		if fi.HasPositions() {
			needsPositions = true
		}
	}

	var frqOut, proxOut store.IndexOutput
	frqOut, err := dir.CreateOutput(name + ".frq")
	if err != nil {
		return nil, err
	}
	if needsPositions {
		proxOut, err = dir.CreateOutput(name + ".prx")
		if err != nil {
			return nil, err
		}
	}
	pw := NewPostingsWriter(frqOut, proxOut, needsPositions)

	for _, fi := range ds.fis.List() {
		byTerm := ds.perFieldPostings[fi.Name]
		tdw := NewTermsDictWriter()
		var terms []string
		for t := range byTerm {
			terms = append(terms, t)
		}
		sortStringsAsc(terms)
		for _, t := range terms {
			ti, err := pw.WriteTerm(byTerm[t])
			if err != nil {
				return nil, err
			}
			tdw.AddTerm(t, ti)
		}
		if err := tdw.Flush(dir, name, fi.Number); err != nil {
			return nil, err
		}
	}
	if err := frqOut.Close(); err != nil {
		return nil, err
	}
	if proxOut != nil {
		if err := proxOut.Close(); err != nil {
			return nil, err
		}
	}

	nw := NewNormsWriter()
	for fieldName, byDoc := range ds.perFieldNorms {
		fi := ds.fis.FieldInfo(fieldName)
		for docID, norm := range byDoc {
			nw.SetNorm(fi.Number, docID, norm)
		}
	}
	if err := nw.Flush(dir, name, numDocs); err != nil {
		return nil, err
	}

	sfw, err := NewStoredFieldsWriter(dir, name)
	if err != nil {
		return nil, err
	}
	for _, doc := range ds.docs {
		if err := sfw.StartDocument(doc.Fields); err != nil {
			return nil, err
		}
	}
	if err := sfw.Finish(); err != nil {
		return nil, err
	}

	return &SegmentInfo{Name: name, DocCount: numDocs, DelGen: -1}, nil
}

func sortStringsAsc(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}
