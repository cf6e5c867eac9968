package index

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stormgo/golucene/store"
)

func addOneDoc(t *testing.T, w *IndexWriter, id string) {
	t.Helper()
	doc := NewDocument()
	doc.Add(StringField("id", id))
	doc.Add(TextField("body", "hello world"))
	require.NoError(t, w.AddDocument(doc))
}

// §4.L: KeepOnlyLastCommitDeletionPolicy reclaims every generation but the
// newest after each commit.
func TestKeepOnlyLastCommitDeletionPolicyReclaimsOldGenerations(t *testing.T) {
	dir := store.NewRAMDirectory()
	w, err := OpenIndexWriter(dir, NewWriterConfig(WhitespaceLowercaseAnalyzer{}))
	require.NoError(t, err)

	addOneDoc(t, w, "1")
	require.NoError(t, w.Commit())
	addOneDoc(t, w, "2")
	require.NoError(t, w.Commit())
	addOneDoc(t, w, "3")
	require.NoError(t, w.Commit())
	require.NoError(t, w.Close())

	names, err := dir.List()
	require.NoError(t, err)
	segFiles := 0
	for _, n := range names {
		if n == "segments_1" || n == "segments_2" {
			t.Fatalf("expected generation %v to be reclaimed, found %v", n, names)
		}
		if n == "segments_3" {
			segFiles++
		}
	}
	require.Equal(t, 1, segFiles, "expected only the newest generation to survive: %v", names)
}

// §4.L: a pinned snapshot survives the deletion policy pass that runs on
// the next commit; releasing it lets a later commit reclaim it.
func TestSnapshotDeletionPolicyPinAndRelease(t *testing.T) {
	dir := store.NewRAMDirectory()
	snap := NewSnapshotDeletionPolicy(KeepOnlyLastCommitDeletionPolicy{})
	cfg := NewWriterConfig(WhitespaceLowercaseAnalyzer{})
	cfg.DeletionPolicy = snap
	w, err := OpenIndexWriter(dir, cfg)
	require.NoError(t, err)

	addOneDoc(t, w, "1")
	require.NoError(t, w.Commit())

	pinned, err := snap.Snapshot()
	require.NoError(t, err)
	require.EqualValues(t, 1, pinned.Generation())
	require.True(t, dir.Exists(pinned.SegmentsFileName()))

	addOneDoc(t, w, "2")
	require.NoError(t, w.Commit())

	require.True(t, dir.Exists(pinned.SegmentsFileName()), "pinned generation must survive a later commit")
	require.False(t, pinned.IsDeleted())

	snap.Release()
	addOneDoc(t, w, "3")
	require.NoError(t, w.Commit())

	require.False(t, dir.Exists(pinned.SegmentsFileName()), "released generation must be reclaimed by the next commit")
	require.NoError(t, w.Close())
}
