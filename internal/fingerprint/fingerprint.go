package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
)

// Size is the length of a fingerprint in hex characters.
const Size = sha256.Size * 2

// Sum returns the lowercase hex SHA-256 digest of content.
func Sum(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}

// String is Sum for text payloads.
func String(content string) string {
	return Sum([]byte(content))
}
