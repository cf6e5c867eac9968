package util

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

const (
	// SEGMENTS is the base name of the commit-generation file, written as
	// "segments_<gen>" with gen base-36 encoded (§6).
	SEGMENTS = "segments"
	// SEGMENTS_GEN is the small hint file ("segments.gen") recording the
	// current generation; the directory listing remains authoritative.
	SEGMENTS_GEN = "segments.gen"
)

func FileNameFromGeneration(base, ext string, gen int64) string {
	// log.Printf("Filename from generation: %v, %v, %v", base, ext, gen)
	switch {
	case gen == -1:
		return ""
	case gen == 0:
		return SegmentFileName(base, "", ext)
	default:
		// assert gen > 0
		var buffer bytes.Buffer
		fmt.Fprintf(&buffer, "%v_%v", base, strconv.FormatInt(gen, 36))
		if len(ext) > 0 {
			buffer.WriteString(".")
			buffer.WriteString(ext)
		}
		return buffer.String()
	}
}

func SegmentFileName(name, suffix, ext string) string {
	if len(ext) > 0 || len(suffix) > 0 {
		// assert ext[0] != '.'
		var buffer bytes.Buffer
		buffer.WriteString(name)
		if len(suffix) > 0 {
			buffer.WriteString("_")
			buffer.WriteString(suffix)
		}
		if len(ext) > 0 {
			buffer.WriteString(".")
			buffer.WriteString(ext)
		}
		return buffer.String()
	}
	return name
}

func indexOfSegmentName(filename string) int {
	// If it is a .del file, there's an '_' after the first character
	if idx := strings.Index(filename[1:], "_"); idx >= 0 {
		return idx + 1
	}
	// If it's not, strip everything that's before the '.'
	return strings.Index(filename, ".")
}

func StripSegmentName(filename string) string {
	if idx := indexOfSegmentName(filename); idx != -1 {
		return filename[idx:]
	}
	return filename
}

func ParseSegmentName(filename string) string {
	if idx := indexOfSegmentName(filename); idx != -1 {
		return filename[0:idx]
	}
	return filename
}

func StripExtension(filename string) string {
	if idx := strings.Index(filename, "."); idx != -1 {
		return filename[0:idx]
	}
	return filename
}

// IsSegmentsFile reports whether filename looks like "segments_<gen>"
// (not the small "segments.gen" hint file).
func IsSegmentsFile(filename string) bool {
	return strings.HasPrefix(filename, SEGMENTS+"_")
}

// ParseGeneration extracts the base-36 generation counter from a
// "segments_<gen>" file name. Returns an error if filename isn't of that
// shape.
func ParseGeneration(filename string) (int64, error) {
	if !IsSegmentsFile(filename) {
		return 0, fmt.Errorf("not a segments file: %v", filename)
	}
	return strconv.ParseInt(filename[len(SEGMENTS)+1:], 36, 64)
}

