package codec

import (
	"encoding/binary"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/stormgo/golucene/store"
	"github.com/stormgo/golucene/util"
)

// footerMagic prefixes the checksum tail so a reader can tell a footer is
// actually present before trusting the digest that follows it.
const footerMagic int32 = -1071082520

// ChecksumOutput wraps an IndexOutput so every byte written also feeds a
// running xxhash64 digest; WriteFooter persists that digest as the
// "checksum tail" §6 names for segments_<gen> and, by the same mechanism,
// any other segment file that wants one.
type ChecksumOutput struct {
	store.IndexOutput
	digest *xxhash.Digest
}

func NewChecksumOutput(out store.IndexOutput) *ChecksumOutput {
	return &ChecksumOutput{IndexOutput: out, digest: xxhash.New()}
}

func (c *ChecksumOutput) WriteByte(b byte) error {
	c.digest.Write([]byte{b})
	return c.IndexOutput.WriteByte(b)
}

func (c *ChecksumOutput) WriteBytes(buf []byte) error {
	c.digest.Write(buf)
	return c.IndexOutput.WriteBytes(buf)
}

// WriteInt, WriteLong, WriteVInt, WriteVLong, WriteString and
// WriteStringStringMap all route through WriteByte/WriteBytes above rather
// than the embedded IndexOutput's own typed writers — the embedded ones
// would bypass the digest entirely, silently producing a checksum that
// doesn't cover everything written.
func (c *ChecksumOutput) WriteInt(v int32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(v))
	return c.WriteBytes(buf[:])
}

func (c *ChecksumOutput) WriteLong(v int64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	return c.WriteBytes(buf[:])
}

func (c *ChecksumOutput) WriteVInt(v int32) error  { return util.WriteVInt(c, v) }
func (c *ChecksumOutput) WriteVLong(v int64) error { return util.WriteVLong(c, v) }

func (c *ChecksumOutput) WriteString(s string) error {
	if err := c.WriteVInt(int32(len(s))); err != nil {
		return err
	}
	if len(s) == 0 {
		return nil
	}
	return c.WriteBytes([]byte(s))
}

func (c *ChecksumOutput) WriteStringStringMap(m map[string]string) error {
	if err := c.WriteInt(int32(len(m))); err != nil {
		return err
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := c.WriteString(k); err != nil {
			return err
		}
		if err := c.WriteString(m[k]); err != nil {
			return err
		}
	}
	return nil
}

// Checksum returns the running xxhash64 digest of everything written so
// far through WriteByte/WriteBytes.
func (c *ChecksumOutput) Checksum() uint64 { return c.digest.Sum64() }

// WriteFooter writes the footer magic followed by the running checksum.
func (c *ChecksumOutput) WriteFooter() error {
	if err := c.IndexOutput.WriteInt(footerMagic); err != nil {
		return err
	}
	return c.IndexOutput.WriteLong(int64(c.Checksum()))
}

// VerifyFooter recomputes the digest of everything in in except its last
// 12 bytes (magic + checksum) and compares it against the stored checksum.
func VerifyFooter(in store.IndexInput) error {
	total := in.Length()
	if total < 12 {
		return util.CorruptIndexError("file too short for checksum footer", nil)
	}
	clone := in.Clone()
	if err := clone.Seek(0); err != nil {
		return err
	}
	body := make([]byte, total-12)
	if err := clone.ReadBytes(body); err != nil {
		return err
	}
	magic, err := clone.ReadInt()
	if err != nil {
		return err
	}
	if magic != footerMagic {
		return util.CorruptIndexError("missing checksum footer magic", nil)
	}
	stored, err := clone.ReadLong()
	if err != nil {
		return err
	}
	if actual := xxhash.Sum64(body); uint64(stored) != actual {
		return util.CorruptIndexError("checksum footer mismatch", nil)
	}
	return nil
}
