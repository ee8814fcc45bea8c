// Package bundle models the directory-style source bundle of a single
// component and knows how to find its base file and text sources.
package bundle

import (
	"bytes"
	"path"
	"slices"
	"sort"
	"strings"
	"unicode/utf8"
)

// Entry is a single file in a bundle.
type Entry struct {
	Path    string
	Content []byte
}

// Bundle is an ordered mapping from slash-separated path to file content.
// Keys are unique; re-adding a path replaces its content in place.
type Bundle struct {
	entries []Entry
	index   map[string]int
}

// New creates an empty bundle.
func New() *Bundle {
	return &Bundle{index: make(map[string]int)}
}

// FromMap builds a bundle from a path→content map, ordered by path.
func FromMap(files map[string]string) *Bundle {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	b := New()
	for _, p := range paths {
		b.Add(p, []byte(files[p]))
	}
	return b
}

// Add inserts or replaces a file.
func (b *Bundle) Add(p string, content []byte) {
	p = normalize(p)
	if i, ok := b.index[p]; ok {
		b.entries[i].Content = content
		return
	}
	b.index[p] = len(b.entries)
	b.entries = append(b.entries, Entry{Path: p, Content: content})
}

// Get returns the content stored at path.
func (b *Bundle) Get(p string) ([]byte, bool) {
	i, ok := b.index[normalize(p)]
	if !ok {
		return nil, false
	}
	return b.entries[i].Content, true
}

// Len returns the number of files in the bundle.
func (b *Bundle) Len() int {
	return len(b.entries)
}

// Entries returns the files in insertion order.
func (b *Bundle) Entries() []Entry {
	return slices.Clone(b.entries)
}

// Paths returns the file paths in insertion order.
func (b *Bundle) Paths() []string {
	paths := make([]string, len(b.entries))
	for i, e := range b.entries {
		paths[i] = e.Path
	}
	return paths
}

// SourceEntry is a bundle file as seen by the compiler.
type SourceEntry struct {
	Path    string
	Content string
	IsText  bool
}

// SourceEntries returns every file with its path made relative to prefix.
// Files outside prefix are skipped.
func (b *Bundle) SourceEntries(prefix string) []SourceEntry {
	out := make([]SourceEntry, 0, len(b.entries))
	for _, e := range b.entries {
		if !strings.HasPrefix(e.Path, prefix) {
			continue
		}
		out = append(out, SourceEntry{
			Path:    e.Path[len(prefix):],
			Content: string(e.Content),
			IsText:  IsText(e.Content),
		})
	}
	return out
}

// Sources returns the text-bearing files keyed by prefix-relative path.
func (b *Bundle) Sources(prefix string) map[string]string {
	sources := make(map[string]string, len(b.entries))
	for _, se := range b.SourceEntries(prefix) {
		if se.IsText {
			sources[se.Path] = se.Content
		}
	}
	return sources
}

// IsText reports whether content looks like text: valid UTF-8 with no NUL bytes.
func IsText(content []byte) bool {
	return utf8.Valid(content) && bytes.IndexByte(content, 0) < 0
}

func normalize(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	if p == "" {
		return p
	}
	return path.Clean(p)
}
