package pagecache

import (
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"
)

// maxNameLength keeps multi page file names below common file system limits.
const maxNameLength = 200

// sequenceKey encodes a page sequence as given: "2,0,0".
func sequenceKey(indices []int) string {
	parts := make([]string, len(indices))
	for i, index := range indices {
		parts[i] = strconv.Itoa(index)
	}
	return strings.Join(parts, ",")
}

func singlePageName(index int) string {
	return fmt.Sprintf("single_page_%d.pdf", index)
}

// multiPageName returns the file name for a page sequence. Long sequences
// are shortened to their bounds, length and a digest of the full key.
func multiPageName(indices []int) string {
	key := sequenceKey(indices)
	name := "multi_page_" + key + ".pdf"
	if len(name) <= maxNameLength {
		return name
	}
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("multi_page_%d-%d_%dp_%x.pdf",
		indices[0], indices[len(indices)-1], len(indices), sum[:8])
}
