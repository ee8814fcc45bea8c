package definition

import (
	"encoding/json"
	"slices"
)

// ModuleDef is the compiled, immutable definition of a module component.
// Use ModuleDefBuilder to construct one.
type ModuleDef struct {
	platformDef

	descriptor        Descriptor
	tagName           string
	location          Location
	access            Access
	path              string
	customElementName string
	compiledCode      string
	dependencies      []string
	ownHash           string
}

var _ PlatformDef = (*ModuleDef)(nil)

func (m *ModuleDef) Descriptor() Descriptor { return m.descriptor }
func (m *ModuleDef) TagName() string        { return m.tagName }
func (m *ModuleDef) Location() Location     { return m.location }
func (m *ModuleDef) Access() Access         { return m.access }

// Path is the full path of the base source file.
func (m *ModuleDef) Path() string { return m.path }

// CustomElementName is "namespace-name", or empty when the component path is too shallow.
func (m *ModuleDef) CustomElementName() string { return m.customElementName }

// CompiledCode is the registration-wrapped module code.
func (m *ModuleDef) CompiledCode() string { return m.compiledCode }

// Dependencies returns the modules imported from outside the bundle.
func (m *ModuleDef) Dependencies() []string { return slices.Clone(m.dependencies) }

// OwnHash is the content hash over the qualified name and compiled code.
func (m *ModuleDef) OwnHash() string { return m.ownHash }

// Equal reports whether two definitions share descriptor and hash.
func (m *ModuleDef) Equal(other *ModuleDef) bool {
	if m == nil || other == nil {
		return m == other
	}
	return m.descriptor == other.descriptor && m.ownHash == other.ownHash
}

type moduleDefJSON struct {
	Descriptor        Descriptor              `json:"descriptor"`
	TagName           string                  `json:"tag_name"`
	Location          Location                `json:"location"`
	Access            Access                  `json:"access"`
	Path              string                  `json:"path"`
	CustomElementName string                  `json:"custom_element_name"`
	CompiledCode      string                  `json:"compiled_code"`
	Dependencies      []string                `json:"dependencies"`
	OwnHash           string                  `json:"own_hash"`
	Attributes        map[string]AttributeDef `json:"attributes,omitempty"`
	MinVersion        *float64                `json:"min_version,omitempty"`
	Targets           []string                `json:"targets,omitempty"`
	Support           SupportLevel            `json:"support"`
}

// MarshalJSON implements json.Marshaler.
func (m *ModuleDef) MarshalJSON() ([]byte, error) {
	deps := m.dependencies
	if deps == nil {
		deps = []string{}
	}
	return json.Marshal(moduleDefJSON{
		Descriptor:        m.descriptor,
		TagName:           m.tagName,
		Location:          m.location,
		Access:            m.access,
		Path:              m.path,
		CustomElementName: m.customElementName,
		CompiledCode:      m.compiledCode,
		Dependencies:      deps,
		OwnHash:           m.ownHash,
		Attributes:        m.attributes,
		MinVersion:        m.minVersion,
		Targets:           m.targets,
		Support:           m.support,
	})
}

// ModuleDefBuilder stages a ModuleDef. Build copies everything it holds, so
// the builder can be reused or discarded without affecting the result.
type ModuleDefBuilder struct {
	platformDefBuilder

	descriptor        Descriptor
	tagName           string
	location          Location
	access            Access
	path              string
	customElementName string
	compiledCode      string
	dependencies      []string
	ownHash           string
}

// NewModuleDefBuilder returns a builder with PUBLIC access and PROTO support.
func NewModuleDefBuilder() *ModuleDefBuilder {
	return &ModuleDefBuilder{
		platformDefBuilder: newPlatformDefBuilder(),
		access:             AccessPublic,
		location:           Location{Line: -1},
	}
}

func (b *ModuleDefBuilder) SetDescriptor(d Descriptor) *ModuleDefBuilder {
	b.descriptor = d
	return b
}

func (b *ModuleDefBuilder) SetTagName(name string) *ModuleDefBuilder {
	b.tagName = name
	return b
}

func (b *ModuleDefBuilder) SetLocation(loc Location) *ModuleDefBuilder {
	b.location = loc
	return b
}

func (b *ModuleDefBuilder) SetAccess(a Access) *ModuleDefBuilder {
	b.access = a
	return b
}

func (b *ModuleDefBuilder) SetPath(path string) *ModuleDefBuilder {
	b.path = path
	return b
}

func (b *ModuleDefBuilder) SetCustomElementName(name string) *ModuleDefBuilder {
	b.customElementName = name
	return b
}

func (b *ModuleDefBuilder) SetCompiledCode(code string) *ModuleDefBuilder {
	b.compiledCode = code
	return b
}

func (b *ModuleDefBuilder) SetDependencies(deps []string) *ModuleDefBuilder {
	b.dependencies = slices.Clone(deps)
	return b
}

func (b *ModuleDefBuilder) SetOwnHash(hash string) *ModuleDefBuilder {
	b.ownHash = hash
	return b
}

func (b *ModuleDefBuilder) AddAttribute(attr AttributeDef) *ModuleDefBuilder {
	b.addAttribute(attr)
	return b
}

// SetAttributes replaces all attributes; nil clears them.
func (b *ModuleDefBuilder) SetAttributes(attrs map[string]AttributeDef) *ModuleDefBuilder {
	b.setAttributes(attrs)
	return b
}

func (b *ModuleDefBuilder) SetMinVersion(v float64) *ModuleDefBuilder {
	b.setMinVersion(v)
	return b
}

func (b *ModuleDefBuilder) AddTarget(target string) *ModuleDefBuilder {
	b.addTarget(target)
	return b
}

func (b *ModuleDefBuilder) SetTargets(targets []string) *ModuleDefBuilder {
	b.setTargets(targets)
	return b
}

// SetSupport sets the support level. An empty level is ignored.
func (b *ModuleDefBuilder) SetSupport(level SupportLevel) *ModuleDefBuilder {
	b.setSupport(level)
	return b
}

// Build freezes the staged values into a ModuleDef.
func (b *ModuleDefBuilder) Build() *ModuleDef {
	deps := slices.Clone(b.dependencies)
	if deps == nil {
		deps = []string{}
	}
	return &ModuleDef{
		platformDef:       b.freeze(),
		descriptor:        b.descriptor,
		tagName:           b.tagName,
		location:          b.location,
		access:            b.access,
		path:              b.path,
		customElementName: b.customElementName,
		compiledCode:      b.compiledCode,
		dependencies:      deps,
		ownHash:           b.ownHash,
	}
}
