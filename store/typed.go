package store

import (
	"encoding/binary"

	"github.com/stormgo/golucene/util"
)

// The functions below implement the typed reads/writes named in §4.A in
// terms of each backend's raw ReadByte/ReadBytes/WriteByte/WriteBytes, so
// RAMDirectory, FSDirectory and MmapDirectory share one encoding instead of
// three copies of it.

func readInt32BE(in IndexInput) (int32, error) {
	var buf [4]byte
	if err := in.ReadBytes(buf[:]); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(buf[:])), nil
}

func writeInt32BE(out IndexOutput, v int32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(v))
	return out.WriteBytes(buf[:])
}

func readInt64BE(in IndexInput) (int64, error) {
	var buf [8]byte
	if err := in.ReadBytes(buf[:]); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(buf[:])), nil
}

func writeInt64BE(out IndexOutput, v int64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	return out.WriteBytes(buf[:])
}

func readVInt(in IndexInput) (int32, error)   { return util.ReadVInt(in) }
func writeVInt(out IndexOutput, v int32) error { return util.WriteVInt(out, v) }
func readVLong(in IndexInput) (int64, error)  { return util.ReadVLong(in) }
func writeVLong(out IndexOutput, v int64) error { return util.WriteVLong(out, v) }

func readStringFrom(in IndexInput) (string, error) {
	n, err := readVInt(in)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	buf := make([]byte, n)
	if err := in.ReadBytes(buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func writeStringTo(out IndexOutput, s string) error {
	if err := writeVInt(out, int32(len(s))); err != nil {
		return err
	}
	if len(s) == 0 {
		return nil
	}
	return out.WriteBytes([]byte(s))
}

func readStringStringMapFrom(in IndexInput) (map[string]string, error) {
	n, err := readInt32BE(in)
	if err != nil {
		return nil, err
	}
	m := make(map[string]string, n)
	for i := int32(0); i < n; i++ {
		k, err := readStringFrom(in)
		if err != nil {
			return nil, err
		}
		v, err := readStringFrom(in)
		if err != nil {
			return nil, err
		}
		m[k] = v
	}
	return m, nil
}

func writeStringStringMapTo(out IndexOutput, m map[string]string) error {
	if err := writeInt32BE(out, int32(len(m))); err != nil {
		return err
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	for _, k := range keys {
		if err := writeStringTo(out, k); err != nil {
			return err
		}
		if err := writeStringTo(out, m[k]); err != nil {
			return err
		}
	}
	return nil
}
