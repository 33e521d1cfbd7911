package review

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// syntheticIDPrefixRunes bounds how much body text feeds the id hash. Long
// reviews get re-rendered with different truncation across passes; hashing a
// fixed prefix keeps the id stable anyway.
const syntheticIDPrefixRunes = 64

// SyntheticID derives a stable review identifier from visible content when
// the source exposes no native id. The same (author, raw date, body prefix)
// always hashes to the same id, so re-collection over re-rendered content
// never creates a duplicate record.
func SyntheticID(author, rawDate, text string) string {
	prefix := []rune(strings.TrimSpace(text))
	if len(prefix) > syntheticIDPrefixRunes {
		prefix = prefix[:syntheticIDPrefixRunes]
	}

	h := sha256.New()
	h.Write([]byte(strings.TrimSpace(strings.ToLower(author))))
	h.Write([]byte{0})
	h.Write([]byte(strings.TrimSpace(rawDate)))
	h.Write([]byte{0})
	h.Write([]byte(string(prefix)))

	return "synth-" + hex.EncodeToString(h.Sum(nil))[:16]
}
