package store

import (
	"os"
	"path/filepath"

	mmap "github.com/blevesearch/mmap-go"
)

// MmapDirectory opens committed segment files read-only via mmap (writes
// still go through a plain os.File, since a segment file is append-only
// until it is closed and never touched again, per §3's immutability
// invariant — there is nothing to gain by mmap'ing a write path). This is
// the backend of choice for a reader that reopens an already-committed
// generation without copying segment bytes into the Go heap.
type MmapDirectory struct {
	root string
}

func NewMmapDirectory(root string) (*MmapDirectory, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &MmapDirectory{root: root}, nil
}

func (d *MmapDirectory) path(name string) string { return filepath.Join(d.root, name) }

func (d *MmapDirectory) List() ([]string, error) {
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

func (d *MmapDirectory) Exists(name string) bool {
	_, err := os.Stat(d.path(name))
	return err == nil
}

func (d *MmapDirectory) Length(name string) (int64, error) {
	fi, err := os.Stat(d.path(name))
	if err != nil {
		return 0, FileNotFound(name)
	}
	return fi.Size(), nil
}

func (d *MmapDirectory) CreateOutput(name string) (IndexOutput, error) {
	f, err := os.OpenFile(d.path(name), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &fsOutput{f: f}, nil
}

func (d *MmapDirectory) OpenInput(name string) (IndexInput, error) {
	f, err := os.Open(d.path(name))
	if err != nil {
		return nil, FileNotFound(name)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if fi.Size() == 0 {
		// mmap-go refuses to map a zero-length file; an empty IndexInput
		// needs no backing map at all.
		f.Close()
		return &mmapInput{data: nil}, nil
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &mmapInput{f: f, mmap: m, data: []byte(m)}, nil
}

func (d *MmapDirectory) DeleteFile(name string) error {
	err := os.Remove(d.path(name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (d *MmapDirectory) MakeLock(name string) Lock {
	return &fsLock{path: d.path(name) + ".lock"}
}

func (d *MmapDirectory) Close() error { return nil }

// mmapInput is a zero-copy random-access reader over a memory-mapped file.
type mmapInput struct {
	f    *os.File
	mmap mmap.MMap
	data []byte
	pos  int64
}

func (i *mmapInput) ReadByte() (byte, error) {
	if i.pos >= int64(len(i.data)) {
		return 0, FileNotFound("<eof>")
	}
	b := i.data[i.pos]
	i.pos++
	return b, nil
}

func (i *mmapInput) ReadBytes(buf []byte) error {
	if i.pos+int64(len(buf)) > int64(len(i.data)) {
		return FileNotFound("<eof>")
	}
	copy(buf, i.data[i.pos:i.pos+int64(len(buf))])
	i.pos += int64(len(buf))
	return nil
}

func (i *mmapInput) Seek(pos int64) error { i.pos = pos; return nil }
func (i *mmapInput) FilePointer() int64   { return i.pos }
func (i *mmapInput) Length() int64        { return int64(len(i.data)) }

func (i *mmapInput) Close() error {
	var err error
	if i.mmap != nil {
		err = i.mmap.Unmap()
	}
	if i.f != nil {
		if cerr := i.f.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (i *mmapInput) Clone() IndexInput {
	return &mmapInput{data: i.data, pos: i.pos}
}

func (i *mmapInput) ReadInt() (int32, error)   { return readInt32BE(i) }
func (i *mmapInput) ReadLong() (int64, error)  { return readInt64BE(i) }
func (i *mmapInput) ReadVInt() (int32, error)  { return readVInt(i) }
func (i *mmapInput) ReadVLong() (int64, error) { return readVLong(i) }
func (i *mmapInput) ReadString() (string, error) { return readStringFrom(i) }
func (i *mmapInput) ReadStringStringMap() (map[string]string, error) {
	return readStringStringMapFrom(i)
}
