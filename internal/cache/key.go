package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"io"
	"sort"

	"github.com/mvp-joe/modforge/internal/bundle"
)

// Fingerprint returns a content key for a bundle: SHA-256 over every path and
// its content, in path order. Two bundles with the same files always share a
// fingerprint regardless of insertion order.
func Fingerprint(b *bundle.Bundle, salt string) string {
	entries := b.Entries()
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	h := sha256.New()
	writeField(h, []byte(salt))
	for _, e := range entries {
		writeField(h, []byte(e.Path))
		writeField(h, e.Content)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// writeField length-prefixes data so ("ab","c") and ("a","bc") differ.
func writeField(h io.Writer, data []byte) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(data)))
	h.Write(n[:])
	h.Write(data)
}
