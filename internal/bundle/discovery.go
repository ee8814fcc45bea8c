package bundle

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/mvp-joe/modforge/internal/definition"
)

// DefaultIgnore are the patterns skipped when none are configured.
var DefaultIgnore = []string{
	"node_modules/**",
	"**/__tests__/**",
	"**/*.test.js",
	".git/**",
	".modforge/**",
}

// compiledPattern holds both the pattern string and compiled glob. rootGlob
// is set for "**/" patterns so they also match at the walk root.
type compiledPattern struct {
	pattern  string
	glob     glob.Glob
	rootGlob glob.Glob
}

// Matcher decides whether a relative path is ignored.
type Matcher struct {
	patterns []compiledPattern
}

// NewMatcher compiles ignore glob patterns ("**" crosses directories).
func NewMatcher(patterns []string) (*Matcher, error) {
	m := &Matcher{}
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", pattern, err)
		}
		cp := compiledPattern{pattern: pattern, glob: g}
		if strings.HasPrefix(pattern, "**/") {
			if cp.rootGlob, err = glob.Compile(strings.TrimPrefix(pattern, "**/"), '/'); err != nil {
				return nil, fmt.Errorf("invalid ignore pattern %q: %w", pattern, err)
			}
		}
		m.patterns = append(m.patterns, cp)
	}
	return m, nil
}

// Ignored checks a slash-separated path relative to the walk root. A
// directory also matches patterns of the form "dir/**".
func (m *Matcher) Ignored(relPath string) bool {
	if m == nil {
		return false
	}
	for _, candidate := range []string{relPath, relPath + "/**"} {
		for _, cp := range m.patterns {
			if cp.glob.Match(candidate) {
				return true
			}
			if cp.rootGlob != nil && cp.rootGlob.Match(candidate) {
				return true
			}
		}
	}
	return false
}

// LoadDir reads every non-ignored file under dir into a bundle keyed by
// absolute slash path.
func LoadDir(dir string, ignore *Matcher) (*Bundle, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	b := New()
	err = filepath.WalkDir(abs, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(abs, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && ignore.Ignored(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if ignore.Ignored(rel) {
			return nil
		}

		content, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p, err)
		}
		b.Add(filepath.ToSlash(p), content)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return b, nil
}

// Component is a component directory found by Discover.
type Component struct {
	Dir        string
	Descriptor definition.Descriptor
}

// Discover walks root and returns every "<ns>/<name>/" directory that holds a
// base file named after it, sorted by directory.
func Discover(root string, ignore *Matcher) ([]Component, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}

	var components []Component
	err = filepath.WalkDir(abs, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() || p == abs {
			return nil
		}

		rel, err := filepath.Rel(abs, p)
		if err != nil {
			return err
		}
		if ignore.Ignored(filepath.ToSlash(rel)) {
			return filepath.SkipDir
		}

		name := filepath.Base(p)
		namespace := filepath.Base(filepath.Dir(p))
		if filepath.Dir(p) == abs {
			// Directly under root: this is a namespace, not a component.
			return nil
		}
		if !hasBaseFile(p, name) {
			return nil
		}

		components = append(components, Component{
			Dir:        p,
			Descriptor: definition.NewModuleDescriptor(namespace, name),
		})
		return filepath.SkipDir
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(components, func(i, j int) bool {
		return components[i].Dir < components[j].Dir
	})
	return components, nil
}

func hasBaseFile(dir, name string) bool {
	for _, ext := range BaseExtensions {
		info, err := os.Stat(filepath.Join(dir, name+ext))
		if err == nil && !info.IsDir() {
			return true
		}
	}
	return false
}

// ComponentDir returns the "<ns>/<name>" directory containing file, searching
// upwards from the file for a directory whose base file matches its name.
// It is used to map watcher events back to components.
func ComponentDir(file string) (string, bool) {
	dir := filepath.Dir(file)
	for i := 0; i < 4 && dir != filepath.Dir(dir); i++ {
		if hasBaseFile(dir, filepath.Base(dir)) {
			return dir, true
		}
		dir = filepath.Dir(dir)
	}
	return "", false
}

// ComponentAt treats dir as a "<ns>/<name>" component directory without
// checking for a base file.
func ComponentAt(dir string) (Component, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Component{}, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	name := filepath.Base(abs)
	namespace := filepath.Base(filepath.Dir(abs))
	if name == string(filepath.Separator) || namespace == string(filepath.Separator) || namespace == "." {
		return Component{}, fmt.Errorf("%s is not inside a namespace directory", dir)
	}
	return Component{Dir: abs, Descriptor: definition.NewModuleDescriptor(namespace, name)}, nil
}

// IsComponentDir reports whether dir holds a base file named after itself.
func IsComponentDir(dir string) bool {
	return hasBaseFile(dir, filepath.Base(dir))
}
