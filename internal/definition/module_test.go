package definition

// Test Plan for the definition model:
// - ParseDescriptor accepts "ns:name" and "prefix://ns:name", rejects malformed input
// - QualifiedName/DescriptorName render the expected forms
// - Builder defaults: PUBLIC access, PROTO support, unknown line
// - Build freezes: mutating builder or returned slices does not affect the def
// - SetSupport("") keeps the current level, SetAttributes(nil) clears
// - Equal is driven by descriptor + hash
// - MarshalJSON renders the descriptor as its qualified name

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDescriptor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		expected  Descriptor
		expectErr bool
	}{
		{
			name:     "namespace and name",
			input:    "ui:button",
			expected: NewModuleDescriptor("ui", "button"),
		},
		{
			name:     "qualified",
			input:    "markup://foo:barWidget",
			expected: NewModuleDescriptor("foo", "barWidget"),
		},
		{
			name:     "custom prefix",
			input:    "js://foo:bar",
			expected: Descriptor{Prefix: "js", Namespace: "foo", Name: "bar", DefType: DefTypeModule},
		},
		{name: "missing colon", input: "foo", expectErr: true},
		{name: "empty name", input: "foo:", expectErr: true},
		{name: "empty namespace", input: ":bar", expectErr: true},
		{name: "extra separator", input: "foo:bar:baz", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseDescriptor(tt.input)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestDescriptorNames(t *testing.T) {
	t.Parallel()

	d := NewModuleDescriptor("foo", "bar")
	assert.Equal(t, "foo:bar", d.DescriptorName())
	assert.Equal(t, "markup://foo:bar", d.QualifiedName())
	assert.Equal(t, "markup://foo:bar", d.String())
	assert.False(t, d.IsZero())
	assert.True(t, Descriptor{}.IsZero())
}

func TestModuleDefBuilder_Defaults(t *testing.T) {
	t.Parallel()

	def := NewModuleDefBuilder().Build()

	assert.Equal(t, AccessPublic, def.Access())
	assert.Equal(t, SupportProto, def.Support())
	assert.Equal(t, -1, def.Location().Line)
	assert.NotNil(t, def.Dependencies())
	assert.Empty(t, def.Dependencies())
	assert.Empty(t, def.Targets())
	_, ok := def.MinVersion()
	assert.False(t, ok)
}

func TestModuleDefBuilder_Freezes(t *testing.T) {
	t.Parallel()

	deps := []string{"lwc", "ui/button"}
	b := NewModuleDefBuilder().
		SetDescriptor(NewModuleDescriptor("foo", "bar")).
		SetDependencies(deps).
		AddTarget("app").
		AddAttribute(AttributeDef{Name: "label", Type: "String"})

	def := b.Build()

	// Mutate everything the caller still holds
	deps[0] = "mutated"
	b.AddTarget("home").AddAttribute(AttributeDef{Name: "size", Type: "Integer"})
	def.Dependencies()[1] = "also mutated"
	def.Attributes()["label"] = AttributeDef{Name: "label", Type: "Boolean"}

	assert.Equal(t, []string{"lwc", "ui/button"}, def.Dependencies())
	assert.Equal(t, []string{"app"}, def.Targets())
	attr, ok := def.Attribute("label")
	require.True(t, ok)
	assert.Equal(t, "String", attr.Type)
	_, ok = def.Attribute("size")
	assert.False(t, ok)
}

func TestModuleDefBuilder_PlatformMetadata(t *testing.T) {
	t.Parallel()

	b := NewModuleDefBuilder().
		SetSupport(SupportGA).
		SetSupport("").
		SetMinVersion(41.0).
		SetTargets([]string{"record", "app", "record"}).
		AddAttribute(AttributeDef{Name: "a"}).
		SetAttributes(nil)

	def := b.Build()

	assert.Equal(t, SupportGA, def.Support())
	v, ok := def.MinVersion()
	require.True(t, ok)
	assert.Equal(t, 41.0, v)
	assert.Equal(t, []string{"app", "record"}, def.Targets())
	assert.Empty(t, def.Attributes())
}

func TestModuleDef_Equal(t *testing.T) {
	t.Parallel()

	desc := NewModuleDescriptor("foo", "bar")
	a := NewModuleDefBuilder().SetDescriptor(desc).SetOwnHash("h1").SetPath("/a").Build()
	b := NewModuleDefBuilder().SetDescriptor(desc).SetOwnHash("h1").SetPath("/b").Build()
	c := NewModuleDefBuilder().SetDescriptor(desc).SetOwnHash("h2").Build()

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))
}

func TestModuleDef_MarshalJSON(t *testing.T) {
	t.Parallel()

	def := NewModuleDefBuilder().
		SetDescriptor(NewModuleDescriptor("foo", "bar")).
		SetTagName("foo:bar").
		SetCustomElementName("foo-bar").
		SetAccess(AccessInternal).
		SetOwnHash("abc").
		Build()

	data, err := json.Marshal(def)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "markup://foo:bar", decoded["descriptor"])
	assert.Equal(t, "INTERNAL", decoded["access"])
	assert.Equal(t, "foo-bar", decoded["custom_element_name"])
	assert.Equal(t, []any{}, decoded["dependencies"])
	assert.Equal(t, "PROTO", decoded["support"])
}

func TestParseSupportLevel(t *testing.T) {
	t.Parallel()

	level, err := ParseSupportLevel(" beta ")
	require.NoError(t, err)
	assert.Equal(t, SupportBeta, level)

	_, err = ParseSupportLevel("stable")
	assert.Error(t, err)
}
