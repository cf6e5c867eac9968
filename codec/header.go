// Package codec implements the small framing used by the field-infos,
// stored-fields, norms, term-dictionary and segments_N files: a
// magic/codec-name/version header, and a checksum footer (§6). Readers call
// CheckHeader on open, and a bad header is surfaced as CorruptIndex (§7).
// VerifyFooter checks the footer, but no reader in this module calls it, so
// the checksum is written and not checked when a file is opened.
package codec

import (
	"github.com/stormgo/golucene/store"
	"github.com/stormgo/golucene/util"
)

// CODEC_MAGIC prefixes every header so a reader can immediately tell a
// random file from one of ours, instead of discovering corruption many
// fields later.
const CODEC_MAGIC int32 = 0x3FD76C17

// WriteHeader writes the magic, codec name and version at the current
// position of out.
func WriteHeader(out store.IndexOutput, codecName string, version int32) error {
	if err := out.WriteInt(CODEC_MAGIC); err != nil {
		return err
	}
	if err := out.WriteString(codecName); err != nil {
		return err
	}
	return out.WriteInt(version)
}

// CheckHeader reads a header written by WriteHeader and verifies the codec
// name matches and the version falls within [minVersion, maxVersion];
// returns the version found. A magic or name mismatch is CorruptIndex; a
// version outside range is also CorruptIndex (§7: "declining version
// numbers" is one of the named corruption symptoms).
func CheckHeader(in store.IndexInput, codecName string, minVersion, maxVersion int32) (int32, error) {
	magic, err := in.ReadInt()
	if err != nil {
		return 0, err
	}
	if magic != CODEC_MAGIC {
		return 0, util.CorruptIndexError("codec header mismatch: invalid magic", nil)
	}
	actualName, err := in.ReadString()
	if err != nil {
		return 0, err
	}
	if actualName != codecName {
		return 0, util.CorruptIndexError("codec mismatch: expected "+codecName+" got "+actualName, nil)
	}
	version, err := in.ReadInt()
	if err != nil {
		return 0, err
	}
	if version < minVersion || version > maxVersion {
		return 0, util.CorruptIndexError("codec version out of range", nil)
	}
	return version, nil
}
