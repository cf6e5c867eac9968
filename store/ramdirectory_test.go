package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRAMDirectoryRoundTrip(t *testing.T) {
	dir := NewRAMDirectory()

	out, err := dir.CreateOutput("_0.fnm")
	require.NoError(t, err)
	require.NoError(t, out.WriteVInt(300))
	require.NoError(t, out.WriteVLong(54048498881988565))
	require.NoError(t, out.WriteInt(-7))
	require.NoError(t, out.WriteLong(1 << 40))
	require.NoError(t, out.WriteString("body"))
	require.NoError(t, out.WriteStringStringMap(map[string]string{"a": "1", "b": "2"}))
	require.NoError(t, out.Close())

	require.True(t, dir.Exists("_0.fnm"))
	length, err := dir.Length("_0.fnm")
	require.NoError(t, err)
	require.Greater(t, length, int64(0))

	in, err := dir.OpenInput("_0.fnm")
	require.NoError(t, err)
	defer in.Close()

	vi, err := in.ReadVInt()
	require.NoError(t, err)
	require.EqualValues(t, 300, vi)

	vl, err := in.ReadVLong()
	require.NoError(t, err)
	require.EqualValues(t, 54048498881988565, vl)

	i32, err := in.ReadInt()
	require.NoError(t, err)
	require.EqualValues(t, -7, i32)

	i64, err := in.ReadLong()
	require.NoError(t, err)
	require.EqualValues(t, 1<<40, i64)

	s, err := in.ReadString()
	require.NoError(t, err)
	require.Equal(t, "body", s)

	m, err := in.ReadStringStringMap()
	require.NoError(t, err)
	require.Equal(t, map[string]string{"a": "1", "b": "2"}, m)
}

func TestRAMDirectoryCloneIndependentPosition(t *testing.T) {
	dir := NewRAMDirectory()
	out, err := dir.CreateOutput("x")
	require.NoError(t, err)
	require.NoError(t, out.WriteBytes([]byte{1, 2, 3, 4, 5}))
	require.NoError(t, out.Close())

	in, err := dir.OpenInput("x")
	require.NoError(t, err)
	b, err := in.ReadByte()
	require.NoError(t, err)
	require.EqualValues(t, 1, b)

	clone := in.Clone()
	cb, err := clone.ReadByte()
	require.NoError(t, err)
	require.EqualValues(t, 2, cb)

	// original's position must be unaffected by reads on the clone
	b2, err := in.ReadByte()
	require.NoError(t, err)
	require.EqualValues(t, 2, b2)
}

func TestRAMDirectoryDeleteIsIdempotent(t *testing.T) {
	dir := NewRAMDirectory()
	require.NoError(t, dir.DeleteFile("missing"))
	out, err := dir.CreateOutput("y")
	require.NoError(t, err)
	require.NoError(t, out.Close())
	require.NoError(t, dir.DeleteFile("y"))
	require.NoError(t, dir.DeleteFile("y"))
	require.False(t, dir.Exists("y"))
}

func TestRAMDirectoryLockIsExclusive(t *testing.T) {
	dir := NewRAMDirectory()
	l1 := dir.MakeLock("write.lock")
	l2 := dir.MakeLock("write.lock")

	ok, err := l1.Obtain()
	require.NoError(t, err)
	require.True(t, ok)

	ok2, err := l2.Obtain()
	require.NoError(t, err)
	require.False(t, ok2)

	require.NoError(t, l1.Release())

	ok3, err := l2.Obtain()
	require.NoError(t, err)
	require.True(t, ok3)
}
