package utils

import (
	"bytes"
	"unicode/utf8"
)

// SniffLength defines the number of bytes inspected when classifying a file as text or binary.
const SniffLength = 8000

// maxIncompleteSequence is the longest UTF-8 prefix that may be cut by a bounded read.
const maxIncompleteSequence = utf8.UTFMax - 1

// IsBinary reports whether data does not decode as UTF-8 text or contains a NUL byte.
// When truncated is true data is a prefix of a longer file and an incomplete
// multi-byte sequence at its very end is not treated as a decoding failure.
func IsBinary(data []byte, truncated bool) bool {
	if len(data) == 0 {
		return false
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return true
	}
	if utf8.Valid(data) {
		return false
	}
	if !truncated {
		return true
	}
	for trim := 1; trim <= maxIncompleteSequence && trim <= len(data); trim++ {
		head := data[:len(data)-trim]
		tail := data[len(data)-trim:]
		if utf8.Valid(head) && !utf8.FullRune(tail) {
			return false
		}
	}
	return true
}
