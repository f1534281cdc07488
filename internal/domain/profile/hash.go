// Package profile canonicalizes tag sets into deduplicated tag profiles.
package profile

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"
)

// hashSeparator joins sorted ids before hashing. Tag ids never contain it.
const hashSeparator = ","

// Canonical returns the sorted, de-duplicated form of a tag id set.
func Canonical(tagIDs []string) []string {
	out := slices.Clone(tagIDs)
	slices.Sort(out)
	return slices.Compact(out)
}

// Hash returns the content address of a tag id set: hex SHA-256 over the
// canonical ids. It does not depend on input order or repetition.
func Hash(tagIDs []string) string {
	sum := sha256.Sum256([]byte(strings.Join(Canonical(tagIDs), hashSeparator)))
	return hex.EncodeToString(sum[:])
}
