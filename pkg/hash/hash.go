package hash

import (
	"crypto/sha256"
	"encoding/hex"
)

// SHA256Hex returns the hex-encoded SHA256 hash of the input string.
func SHA256Hex(input string) string {
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:])
}

// ShortHex returns the first n characters of SHA256Hex(input).
// Used for log correlation without storing raw identifiers.
func ShortHex(input string, n int) string {
	full := SHA256Hex(input)
	if n > len(full) {
		return full
	}
	return full[:n]
}

// SessionKey derives a fixed-length key from an opaque client session ID.
// View de-duplication markers are stored under this key so arbitrary
// client-supplied session strings never reach the cache layer verbatim.
func SessionKey(sessionID string) string {
	return ShortHex(sessionID, 32)
}
