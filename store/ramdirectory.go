package store

import (
	"sync"
	"time"

	"github.com/stormgo/golucene/util"
)

// ramFile is the in-memory backing store for one file: a growable list of
// fixed-size buffers, mirroring the original's RAMFile (see
// original_source/include/RAMFile.h) rather than one contiguous []byte, so
// that growing a file under concurrent reads never reallocates bytes a
// reader already has a pointer into.
const ramBufferSize = 16 * 1024

type ramFile struct {
	mu       sync.RWMutex
	buffers  [][]byte
	length   int64
	modified time.Time
}

func newRAMFile() *ramFile {
	return &ramFile{modified: time.Time{}}
}

func (f *ramFile) bufferFor(index int) []byte {
	for index >= len(f.buffers) {
		f.buffers = append(f.buffers, make([]byte, ramBufferSize))
	}
	return f.buffers[index]
}

// RAMDirectory is an in-memory Directory — the primary backend used by
// tests and by any caller that doesn't need durability across process
// restarts.
type RAMDirectory struct {
	mu    sync.RWMutex
	files map[string]*ramFile
	locks map[string]*memLock
}

func NewRAMDirectory() *RAMDirectory {
	return &RAMDirectory{
		files: make(map[string]*ramFile),
		locks: make(map[string]*memLock),
	}
}

func (d *RAMDirectory) List() ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.files))
	for name := range d.files {
		names = append(names, name)
	}
	return names, nil
}

func (d *RAMDirectory) Exists(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.files[name]
	return ok
}

func (d *RAMDirectory) Length(name string) (int64, error) {
	d.mu.RLock()
	f, ok := d.files[name]
	d.mu.RUnlock()
	if !ok {
		return 0, FileNotFound(name)
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.length, nil
}

func (d *RAMDirectory) Modified(name string) (time.Time, error) {
	d.mu.RLock()
	f, ok := d.files[name]
	d.mu.RUnlock()
	if !ok {
		return time.Time{}, FileNotFound(name)
	}
	return f.modified, nil
}

func (d *RAMDirectory) CreateOutput(name string) (IndexOutput, error) {
	f := newRAMFile()
	d.mu.Lock()
	d.files[name] = f
	d.mu.Unlock()
	return &ramOutput{file: f}, nil
}

func (d *RAMDirectory) OpenInput(name string) (IndexInput, error) {
	d.mu.RLock()
	f, ok := d.files[name]
	d.mu.RUnlock()
	if !ok {
		return nil, FileNotFound(name)
	}
	return &ramInput{file: f}, nil
}

func (d *RAMDirectory) DeleteFile(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.files, name)
	return nil
}

func (d *RAMDirectory) MakeLock(name string) Lock {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.locks[name]
	if !ok {
		l = &memLock{}
		d.locks[name] = l
	}
	return l
}

func (d *RAMDirectory) Close() error { return nil }

// ramOutput is a sequential writer into a ramFile.
type ramOutput struct {
	file *ramFile
	pos  int64
}

func (o *ramOutput) WriteByte(b byte) error {
	o.file.mu.Lock()
	defer o.file.mu.Unlock()
	buf := o.file.bufferFor(int(o.pos / ramBufferSize))
	buf[o.pos%ramBufferSize] = b
	o.pos++
	if o.pos > o.file.length {
		o.file.length = o.pos
	}
	o.file.modified = time.Now()
	return nil
}

func (o *ramOutput) WriteBytes(buf []byte) error {
	for _, b := range buf {
		if err := o.WriteByte(b); err != nil {
			return err
		}
	}
	return nil
}

func (o *ramOutput) FilePointer() int64 { return o.pos }
func (o *ramOutput) Close() error       { return nil }

func (o *ramOutput) WriteInt(v int32) error                       { return writeInt32BE(o, v) }
func (o *ramOutput) WriteLong(v int64) error                      { return writeInt64BE(o, v) }
func (o *ramOutput) WriteVInt(v int32) error                      { return writeVInt(o, v) }
func (o *ramOutput) WriteVLong(v int64) error                     { return writeVLong(o, v) }
func (o *ramOutput) WriteString(s string) error                   { return writeStringTo(o, s) }
func (o *ramOutput) WriteStringStringMap(m map[string]string) error {
	return writeStringStringMapTo(o, m)
}

// ramInput is a random-access reader over a ramFile.
type ramInput struct {
	file *ramFile
	pos  int64
}

func (i *ramInput) ReadByte() (byte, error) {
	i.file.mu.RLock()
	defer i.file.mu.RUnlock()
	if i.pos >= i.file.length {
		return 0, util.IOError("read past EOF", nil)
	}
	buf := i.file.buffers[i.pos/ramBufferSize]
	b := buf[i.pos%ramBufferSize]
	i.pos++
	return b, nil
}

func (i *ramInput) ReadBytes(buf []byte) error {
	for n := 0; n < len(buf); n++ {
		b, err := i.ReadByte()
		if err != nil {
			return err
		}
		buf[n] = b
	}
	return nil
}

func (i *ramInput) Seek(pos int64) error {
	i.pos = pos
	return nil
}

func (i *ramInput) FilePointer() int64 { return i.pos }
func (i *ramInput) Length() int64      { return i.file.length }
func (i *ramInput) Close() error       { return nil }

func (i *ramInput) Clone() IndexInput {
	return &ramInput{file: i.file, pos: i.pos}
}

func (i *ramInput) ReadInt() (int32, error)   { return readInt32BE(i) }
func (i *ramInput) ReadLong() (int64, error)  { return readInt64BE(i) }
func (i *ramInput) ReadVInt() (int32, error)  { return readVInt(i) }
func (i *ramInput) ReadVLong() (int64, error) { return readVLong(i) }
func (i *ramInput) ReadString() (string, error) { return readStringFrom(i) }
func (i *ramInput) ReadStringStringMap() (map[string]string, error) {
	return readStringStringMapFrom(i)
}

// memLock is an in-process advisory lock (honoured only within this
// process, per §4.A — RAMDirectory never spans processes anyway).
type memLock struct {
	mu     sync.Mutex
	locked bool
}

func (l *memLock) Obtain() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locked {
		return false, nil
	}
	l.locked = true
	return true, nil
}

func (l *memLock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.locked = false
	return nil
}

func (l *memLock) IsLocked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.locked
}
