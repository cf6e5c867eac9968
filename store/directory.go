// Package store implements §4.A of the spec: a byte-addressable file store
// (Directory) with typed reads/writes (IndexInput/IndexOutput), and
// advisory locks. Segments, once written, are read through this contract
// only — every concrete backend (RAM, mmap, plain files) is an
// implementation of the same interface.
package store

import (
	"io"
	"time"

	"github.com/stormgo/golucene/util"
)

// Directory maps file names to byte blobs (§4.A).
type Directory interface {
	// List returns the set of file names currently present.
	List() ([]string, error)
	// Exists reports whether name is present.
	Exists(name string) bool
	// Length returns the byte length of name, or a FileNotFound error.
	Length(name string) (int64, error)
	// CreateOutput opens name for writing, truncated to zero length.
	CreateOutput(name string) (IndexOutput, error)
	// OpenInput opens name for random-access reading, or a FileNotFound
	// error if absent.
	OpenInput(name string) (IndexInput, error)
	// DeleteFile removes name; idempotent, best-effort.
	DeleteFile(name string) error
	// MakeLock returns a named advisory mutex for name, honoured only
	// within this process unless the backing store supports OS-level
	// locks.
	MakeLock(name string) Lock
	io.Closer
}

// Lock is a named advisory mutex (§4.M). Obtain is non-blocking; callers
// wanting to wait retry themselves (index.OpenIndexWriter polls every 10ms
// until index.WriterConfig.LockObtainTimeout has passed).
type Lock interface {
	Obtain() (bool, error)
	Release() error
	IsLocked() bool
}

// IndexInput is a random-access reader over one file, with the typed reads
// named in §4.A layered on top of raw byte access.
type IndexInput interface {
	io.Closer
	ReadByte() (byte, error)
	ReadBytes(buf []byte) error
	Seek(pos int64) error
	FilePointer() int64
	Length() int64
	// Clone returns an independent IndexInput sharing the same underlying
	// bytes but with its own file pointer — used so concurrent readers
	// (e.g. per-term postings iterators) don't fight over position.
	Clone() IndexInput

	ReadInt() (int32, error)
	ReadLong() (int64, error)
	ReadVInt() (int32, error)
	ReadVLong() (int64, error)
	ReadString() (string, error)
	ReadStringStringMap() (map[string]string, error)
}

// IndexOutput is a sequential, append-only writer over one file.
type IndexOutput interface {
	io.Closer
	WriteByte(b byte) error
	WriteBytes(buf []byte) error
	FilePointer() int64

	WriteInt(v int32) error
	WriteLong(v int64) error
	WriteVInt(v int32) error
	WriteVLong(v int64) error
	WriteString(s string) error
	WriteStringStringMap(m map[string]string) error
}

// Modified reports a file's last-write time, when the backend can supply
// one. Not all Directory implementations support this; callers treat a
// zero time as "unknown" rather than failing.
type ModifiedDirectory interface {
	Modified(name string) (time.Time, error)
}

// FileNotFound constructs the typed error OpenInput/Length should return
// when name is absent.
func FileNotFound(name string) error { return util.FileNotFoundError(name) }
