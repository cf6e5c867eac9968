package store

import (
	"os"
	"path/filepath"
	"time"
)

// FSDirectory is a plain-file Directory backend: each named file is one OS
// file under root. It's the straightforward concrete backend; MmapDirectory
// is the mmap-go-backed alternative for read-mostly workloads (§1 says only
// the Directory contract is core scope, so this and MmapDirectory exist as
// illustrative backends, not an exhaustive set).
type FSDirectory struct {
	root string
}

func NewFSDirectory(root string) (*FSDirectory, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &FSDirectory{root: root}, nil
}

func (d *FSDirectory) path(name string) string { return filepath.Join(d.root, name) }

func (d *FSDirectory) List() ([]string, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func (d *FSDirectory) Exists(name string) bool {
	_, err := os.Stat(d.path(name))
	return err == nil
}

func (d *FSDirectory) Length(name string) (int64, error) {
	fi, err := os.Stat(d.path(name))
	if err != nil {
		return 0, FileNotFound(name)
	}
	return fi.Size(), nil
}

func (d *FSDirectory) Modified(name string) (time.Time, error) {
	fi, err := os.Stat(d.path(name))
	if err != nil {
		return time.Time{}, FileNotFound(name)
	}
	return fi.ModTime(), nil
}

func (d *FSDirectory) CreateOutput(name string) (IndexOutput, error) {
	f, err := os.OpenFile(d.path(name), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &fsOutput{f: f}, nil
}

func (d *FSDirectory) OpenInput(name string) (IndexInput, error) {
	f, err := os.Open(d.path(name))
	if err != nil {
		return nil, FileNotFound(name)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &fsInput{f: f, length: fi.Size()}, nil
}

func (d *FSDirectory) DeleteFile(name string) error {
	err := os.Remove(d.path(name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (d *FSDirectory) MakeLock(name string) Lock {
	return &fsLock{path: d.path(name) + ".lock"}
}

func (d *FSDirectory) Close() error { return nil }

type fsOutput struct {
	f   *os.File
	pos int64
}

func (o *fsOutput) WriteByte(b byte) error {
	if _, err := o.f.Write([]byte{b}); err != nil {
		return err
	}
	o.pos++
	return nil
}

func (o *fsOutput) WriteBytes(buf []byte) error {
	n, err := o.f.Write(buf)
	o.pos += int64(n)
	return err
}

func (o *fsOutput) FilePointer() int64 { return o.pos }
func (o *fsOutput) Close() error       { return o.f.Close() }

func (o *fsOutput) WriteInt(v int32) error                        { return writeInt32BE(o, v) }
func (o *fsOutput) WriteLong(v int64) error                       { return writeInt64BE(o, v) }
func (o *fsOutput) WriteVInt(v int32) error                       { return writeVInt(o, v) }
func (o *fsOutput) WriteVLong(v int64) error                      { return writeVLong(o, v) }
func (o *fsOutput) WriteString(s string) error                    { return writeStringTo(o, s) }
func (o *fsOutput) WriteStringStringMap(m map[string]string) error { return writeStringStringMapTo(o, m) }

type fsInput struct {
	f      *os.File
	length int64
	pos    int64
}

func (i *fsInput) ReadByte() (byte, error) {
	var buf [1]byte
	if _, err := i.f.ReadAt(buf[:], i.pos); err != nil {
		return 0, err
	}
	i.pos++
	return buf[0], nil
}

func (i *fsInput) ReadBytes(buf []byte) error {
	n, err := i.f.ReadAt(buf, i.pos)
	i.pos += int64(n)
	return err
}

func (i *fsInput) Seek(pos int64) error { i.pos = pos; return nil }
func (i *fsInput) FilePointer() int64   { return i.pos }
func (i *fsInput) Length() int64        { return i.length }
func (i *fsInput) Close() error         { return i.f.Close() }

func (i *fsInput) Clone() IndexInput {
	return &fsInput{f: i.f, length: i.length, pos: i.pos}
}

func (i *fsInput) ReadInt() (int32, error)   { return readInt32BE(i) }
func (i *fsInput) ReadLong() (int64, error)  { return readInt64BE(i) }
func (i *fsInput) ReadVInt() (int32, error)  { return readVInt(i) }
func (i *fsInput) ReadVLong() (int64, error) { return readVLong(i) }
func (i *fsInput) ReadString() (string, error) { return readStringFrom(i) }
func (i *fsInput) ReadStringStringMap() (map[string]string, error) {
	return readStringStringMapFrom(i)
}

// fsLock is a write.lock implemented with exclusive file creation — the
// only OS-level lock among the backends (§4.A: "honoured only within the
// same process unless the backing store supports OS locks").
type fsLock struct {
	path string
	f    *os.File
}

func (l *fsLock) Obtain() (bool, error) {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if os.IsExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	l.f = f
	return true, nil
}

func (l *fsLock) Release() error {
	if l.f == nil {
		return nil
	}
	l.f.Close()
	err := os.Remove(l.path)
	l.f = nil
	return err
}

func (l *fsLock) IsLocked() bool {
	_, err := os.Stat(l.path)
	return err == nil
}
