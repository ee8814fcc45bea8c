// Package access decides which namespaces are internal to the platform.
package access

import (
	"fmt"

	"github.com/gobwas/glob"

	"github.com/mvp-joe/modforge/internal/definition"
)

// Classifier reports whether a namespace belongs to the platform itself.
// Implementations must be safe for concurrent use and free of side effects.
type Classifier interface {
	IsInternalNamespace(namespace string) bool
}

// GlobClassifier treats namespaces matching any of its patterns as internal.
type GlobClassifier struct {
	patterns []glob.Glob
}

// NewGlobClassifier compiles namespace patterns such as "ui" or "force*".
func NewGlobClassifier(patterns []string) (*GlobClassifier, error) {
	c := &GlobClassifier{}
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid internal namespace pattern %q: %w", p, err)
		}
		c.patterns = append(c.patterns, g)
	}
	return c, nil
}

// IsInternalNamespace implements Classifier.
func (c *GlobClassifier) IsInternalNamespace(namespace string) bool {
	for _, g := range c.patterns {
		if g.Match(namespace) {
			return true
		}
	}
	return false
}

// LevelFor maps a namespace to its access level.
func LevelFor(c Classifier, namespace string) definition.Access {
	if c != nil && c.IsInternalNamespace(namespace) {
		return definition.AccessInternal
	}
	return definition.AccessPublic
}
