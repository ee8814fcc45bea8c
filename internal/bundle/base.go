package bundle

import (
	"errors"
	"strings"

	"github.com/mvp-joe/modforge/internal/definition"
)

// BaseExtensions are the base file extensions in order of preference.
var BaseExtensions = []string{".js", ".ts"}

var (
	// ErrNoBaseFile indicates the bundle lacks a file named after the component.
	ErrNoBaseFile = errors.New("no base file")

	// ErrShallowPath indicates the base file path has fewer than three segments.
	ErrShallowPath = errors.New("base file path has fewer than three segments")
)

// Base describes where a component's base file lives inside its bundle.
type Base struct {
	// Path is the full bundle path of the base file.
	Path string
	// ComponentPath is Path with the bundle prefix stripped: "<ns>/<name>/<file>".
	ComponentPath string
	// Prefix is everything before ComponentPath, including the trailing slash.
	Prefix string
}

// LocateBase finds the base file for desc: "<prefix>/<ns>/<name>/<name>.js",
// falling back to the other BaseExtensions.
func LocateBase(desc definition.Descriptor, b *Bundle) (Base, error) {
	p, ok := findBase(desc, b)
	if !ok {
		return Base{}, ErrNoBaseFile
	}

	componentPath, ok := ComponentPath(p)
	if !ok {
		return Base{}, ErrShallowPath
	}

	return Base{
		Path:          p,
		ComponentPath: componentPath,
		Prefix:        p[:len(p)-len(componentPath)],
	}, nil
}

func findBase(desc definition.Descriptor, b *Bundle) (string, bool) {
	dir := desc.Namespace + "/" + desc.Name + "/"
	for _, ext := range BaseExtensions {
		rel := dir + desc.Name + ext
		for _, p := range b.Paths() {
			if p == rel || strings.HasSuffix(p, "/"+rel) {
				return p, true
			}
		}
	}

	// Single-segment layouts ("<name>.js" alone) are still a base file, but
	// too shallow to derive a component path from.
	for _, ext := range BaseExtensions {
		if _, ok := b.Get(desc.Name + ext); ok {
			return desc.Name + ext, true
		}
	}
	return "", false
}

// ComponentPath keeps the last three segments of p ("<ns>/<name>/<file>").
// It reports false when p has fewer than three segments.
func ComponentPath(p string) (string, bool) {
	segments := strings.Split(strings.TrimPrefix(p, "/"), "/")
	if len(segments) < 3 {
		return "", false
	}
	return strings.Join(segments[len(segments)-3:], "/"), true
}

// CustomElementName derives "<ns>-<name>" from a component path, or "" when
// the path has fewer than three segments.
func CustomElementName(componentPath string) string {
	segments := strings.Split(componentPath, "/")
	if len(segments) > 2 {
		return segments[0] + "-" + segments[1]
	}
	return ""
}
