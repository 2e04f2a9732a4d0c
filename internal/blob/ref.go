// Package blob names payload bytes by content.
package blob

import (
	"encoding/hex"
	"regexp"

	"github.com/zeebo/blake3"
)

var refPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// Ref returns the content address of data: the hex BLAKE3-256 digest.
func Ref(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ValidRef reports whether ref has the shape Ref produces.
func ValidRef(ref string) bool {
	return refPattern.MatchString(ref)
}
