// Package definition holds the immutable definition model produced by the
// module compiler: descriptors, access levels, support levels, and the
// ModuleDef record itself.
package definition

import (
	"fmt"
	"strings"
)

// DefaultPrefix is the descriptor prefix used for module definitions.
const DefaultPrefix = "markup"

// DefType identifies the kind of definition a descriptor refers to.
type DefType string

const (
	// DefTypeModule is a module-style (custom element) component.
	DefTypeModule DefType = "MODULE"
)

// Descriptor identifies a definition by namespace and name. It marshals to
// JSON as its qualified name.
type Descriptor struct {
	Prefix    string
	Namespace string
	Name      string
	DefType   DefType
}

// NewModuleDescriptor creates a module descriptor with the default prefix.
func NewModuleDescriptor(namespace, name string) Descriptor {
	return Descriptor{
		Prefix:    DefaultPrefix,
		Namespace: namespace,
		Name:      name,
		DefType:   DefTypeModule,
	}
}

// ParseDescriptor parses "ns:name" or "prefix://ns:name" into a module descriptor.
func ParseDescriptor(s string) (Descriptor, error) {
	prefix := DefaultPrefix
	rest := strings.TrimSpace(s)
	if i := strings.Index(rest, "://"); i >= 0 {
		prefix = rest[:i]
		rest = rest[i+3:]
	}

	ns, name, ok := strings.Cut(rest, ":")
	if !ok || ns == "" || name == "" || prefix == "" {
		return Descriptor{}, fmt.Errorf("invalid descriptor %q: expected namespace:name", s)
	}
	if strings.ContainsAny(name, ":/") || strings.Contains(ns, "/") {
		return Descriptor{}, fmt.Errorf("invalid descriptor %q: unexpected separator", s)
	}

	d := NewModuleDescriptor(ns, name)
	d.Prefix = prefix
	return d, nil
}

// DescriptorName returns "namespace:name", used as the element tag name.
func (d Descriptor) DescriptorName() string {
	return d.Namespace + ":" + d.Name
}

// QualifiedName returns the fully qualified name, e.g. "markup://ui:button".
func (d Descriptor) QualifiedName() string {
	prefix := d.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return prefix + "://" + d.DescriptorName()
}

// String implements fmt.Stringer.
func (d Descriptor) String() string {
	return d.QualifiedName()
}

// IsZero reports whether the descriptor is unset.
func (d Descriptor) IsZero() bool {
	return d.Namespace == "" && d.Name == ""
}
