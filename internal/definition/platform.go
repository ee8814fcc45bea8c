package definition

import (
	"maps"
	"slices"
	"sort"
)

// PlatformDef is the capability shared by every component kind that can be
// placed on the platform: attributes, version gating, targets, and support.
type PlatformDef interface {
	Descriptor() Descriptor
	Attributes() map[string]AttributeDef
	Attribute(name string) (AttributeDef, bool)
	MinVersion() (float64, bool)
	Targets() []string
	Support() SupportLevel
}

// platformDef is the frozen platform metadata embedded in concrete definitions.
type platformDef struct {
	attributes map[string]AttributeDef
	minVersion *float64
	targets    []string
	support    SupportLevel
}

// Attributes returns a copy of the attribute map. Never nil.
func (p *platformDef) Attributes() map[string]AttributeDef {
	return maps.Clone(p.attributes)
}

// Attribute looks up a single attribute by name.
func (p *platformDef) Attribute(name string) (AttributeDef, bool) {
	a, ok := p.attributes[name]
	return a, ok
}

// MinVersion returns the minimum API version a consumer must be at, if set.
func (p *platformDef) MinVersion() (float64, bool) {
	if p.minVersion == nil {
		return 0, false
	}
	return *p.minVersion, true
}

// Targets returns the sorted target set.
func (p *platformDef) Targets() []string {
	return slices.Clone(p.targets)
}

func (p *platformDef) Support() SupportLevel {
	return p.support
}

// platformDefBuilder stages platform metadata before a definition is frozen.
// The zero value is not usable; embed one created by newPlatformDefBuilder.
type platformDefBuilder struct {
	attributes map[string]AttributeDef
	minVersion *float64
	targets    map[string]struct{}
	support    SupportLevel
}

func newPlatformDefBuilder() platformDefBuilder {
	return platformDefBuilder{
		attributes: make(map[string]AttributeDef),
		targets:    make(map[string]struct{}),
		support:    SupportProto,
	}
}

// addAttribute adds or replaces an attribute.
func (b *platformDefBuilder) addAttribute(attr AttributeDef) {
	b.attributes[attr.Name] = attr
}

// setAttributes replaces all attributes. A nil map clears them.
func (b *platformDefBuilder) setAttributes(attrs map[string]AttributeDef) {
	clear(b.attributes)
	for name, attr := range attrs {
		b.attributes[name] = attr
	}
}

func (b *platformDefBuilder) setMinVersion(v float64) {
	b.minVersion = &v
}

func (b *platformDefBuilder) addTarget(target string) {
	b.targets[target] = struct{}{}
}

func (b *platformDefBuilder) setTargets(targets []string) {
	clear(b.targets)
	for _, t := range targets {
		b.targets[t] = struct{}{}
	}
}

// setSupport ignores the empty level so an unset value keeps the PROTO default.
func (b *platformDefBuilder) setSupport(level SupportLevel) {
	if level != "" {
		b.support = level
	}
}

func (b *platformDefBuilder) freeze() platformDef {
	targets := make([]string, 0, len(b.targets))
	for t := range b.targets {
		targets = append(targets, t)
	}
	sort.Strings(targets)

	var minVersion *float64
	if b.minVersion != nil {
		v := *b.minVersion
		minVersion = &v
	}

	return platformDef{
		attributes: maps.Clone(b.attributes),
		minVersion: minVersion,
		targets:    targets,
		support:    b.support,
	}
}
