package ir

import (
	"fmt"

	"github.com/cespare/xxhash"
)

// ShortHash returns a compact 64-bit hash of a position fingerprint.
// It is used as an indexed lookup column and for display; the full
// fingerprint remains the identity.
func ShortHash(fingerprint string) uint64 {
	return xxhash.Sum64String(fingerprint)
}

// ShortHashHex returns ShortHash formatted as 16 hex digits.
func ShortHashHex(fingerprint string) string {
	return fmt.Sprintf("%016x", ShortHash(fingerprint))
}
