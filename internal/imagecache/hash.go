package imagecache

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentHash returns the lowercase hex SHA-256 digest of data.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
