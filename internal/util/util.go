// Package util provides content digests and clock helpers shared by the
// archive store and the command line.
package util

import (
	"encoding/hex"
	"time"

	"lukechampine.com/blake3"
)

// NowMs returns the current time in milliseconds since epoch.
func NowMs() int64 {
	return time.Now().UnixMilli()
}

// Blake3Hash computes a BLAKE3 hash of the input and returns it as bytes.
func Blake3Hash(data []byte) []byte {
	hash := blake3.Sum256(data)
	return hash[:]
}

// ShortHex returns the first n hex digits of digest, for display.
func ShortHex(digest []byte, n int) string {
	s := hex.EncodeToString(digest)
	if len(s) > n {
		return s[:n]
	}
	return s
}
