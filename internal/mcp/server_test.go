package mcp

// Test Plan for the MCP server:
// - NewServer requires a compiler and registers the store tools only with a store
// - compile_module returns the definition JSON, reports compile failures as tool
//   errors, and requires a path
// - get_definition prefers the cache, falls back to storage, omits code unless
//   include_code is set (coerced from a string), and reports unknown modules
// - list_definitions filters by namespace
// - module_dependents accepts a JSON-encoded array and returns an entry per specifier
// - bindArguments coerces string-typed arguments

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/modforge/internal/cache"
	"github.com/mvp-joe/modforge/internal/definition"
	"github.com/mvp-joe/modforge/internal/storage"
)

type mockCompiler struct {
	dir string
	def *definition.ModuleDef
	err error
}

func (m *mockCompiler) CompileDir(ctx context.Context, dir string) (*definition.ModuleDef, error) {
	m.dir = dir
	return m.def, m.err
}

func sampleDef(ns, name string, deps ...string) *definition.ModuleDef {
	return definition.NewModuleDefBuilder().
		SetDescriptor(definition.NewModuleDescriptor(ns, name)).
		SetPath(ns + "/" + name + "/" + name + ".js").
		SetAccess(definition.AccessPublic).
		SetCompiledCode("function() { REGISTER('markup://" + ns + ":" + name + "', [], function(){}) }").
		SetDependencies(deps).
		SetOwnHash("hash-" + name).
		Build()
}

func newStore(t *testing.T, defs ...*definition.ModuleDef) *storage.DefinitionReader {
	t.Helper()
	db := storage.NewTestDB(t)
	w := storage.NewDefinitionWriter(db)
	for _, def := range defs {
		require.NoError(t, w.WriteDefinition("", def, "fp"))
	}
	return storage.NewDefinitionReader(db)
}

func call(t *testing.T, handler toolHandler, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: args},
	}
	result, err := handler(context.Background(), request)
	require.NoError(t, err, "should not return system error")
	require.NotNil(t, result)
	return result
}

func text(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	content, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok, "should be text content")
	return content.Text
}

func TestNewServer(t *testing.T) {
	t.Parallel()

	_, err := NewServer(ServerConfig{})
	assert.Error(t, err)

	listTools := func(s *Server) string {
		msg := s.MCP().HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
		data, err := json.Marshal(msg)
		require.NoError(t, err)
		return string(data)
	}

	bare, err := NewServer(ServerConfig{Compiler: &mockCompiler{}})
	require.NoError(t, err)
	tools := listTools(bare)
	assert.Contains(t, tools, "compile_module")
	assert.Contains(t, tools, "get_definition")
	assert.NotContains(t, tools, "list_definitions")

	full, err := NewServer(ServerConfig{Compiler: &mockCompiler{}, Store: newStore(t)})
	require.NoError(t, err)
	tools = listTools(full)
	assert.Contains(t, tools, "list_definitions")
	assert.Contains(t, tools, "module_dependents")
}

func TestCompileModuleHandler(t *testing.T) {
	t.Parallel()

	comp := &mockCompiler{def: sampleDef("c", "card", "lwc")}
	result := call(t, createCompileModuleHandler(comp), map[string]any{"path": "/src/modules/c/card"})

	assert.False(t, result.IsError)
	assert.Equal(t, "/src/modules/c/card", comp.dir)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(text(t, result)), &got))
	assert.Equal(t, "hash-card", got["own_hash"])
	assert.Equal(t, []any{"lwc"}, got["dependencies"])
	assert.Contains(t, got["compiled_code"], "markup://c:card")
}

func TestCompileModuleHandler_Errors(t *testing.T) {
	t.Parallel()

	failing := &mockCompiler{err: errors.New("markup://c:card: Unexpected token (3:4)")}
	result := call(t, createCompileModuleHandler(failing), map[string]any{"path": "/src/c/card"})
	assert.True(t, result.IsError)
	assert.Contains(t, text(t, result), "Unexpected token")

	result = call(t, createCompileModuleHandler(&mockCompiler{}), map[string]any{})
	assert.True(t, result.IsError)
	assert.Contains(t, text(t, result), "path parameter is required")
}

func TestGetDefinitionHandler(t *testing.T) {
	t.Parallel()

	lookup, err := cache.New(16)
	require.NoError(t, err)
	t.Cleanup(lookup.Close)

	cached := sampleDef("c", "card")
	lookup.Put(cached, "fp")
	store := newStore(t, sampleDef("c", "list", "c/card"))
	handler := createGetDefinitionHandler(lookup, store)

	t.Run("from cache", func(t *testing.T) {
		t.Parallel()

		result := call(t, handler, map[string]any{"descriptor": "c:card"})
		require.False(t, result.IsError)

		var got DefinitionSummary
		require.NoError(t, json.Unmarshal([]byte(text(t, result)), &got))
		assert.Equal(t, "markup://c:card", got.Descriptor)
		assert.Equal(t, "hash-card", got.OwnHash)
		assert.NotContains(t, text(t, result), "compiled_code")
	})

	t.Run("from storage with code", func(t *testing.T) {
		t.Parallel()

		result := call(t, handler, map[string]any{"descriptor": "markup://c:list", "include_code": "true"})
		require.False(t, result.IsError)
		assert.Contains(t, text(t, result), `"compiled_code"`)
		assert.Contains(t, text(t, result), `"c/card"`)
	})

	t.Run("unknown", func(t *testing.T) {
		t.Parallel()

		result := call(t, handler, map[string]any{"descriptor": "c:missing"})
		assert.True(t, result.IsError)
		assert.Contains(t, text(t, result), "no definition for markup://c:missing")
	})

	t.Run("bad descriptor", func(t *testing.T) {
		t.Parallel()

		result := call(t, handler, map[string]any{"descriptor": "nocolon"})
		assert.True(t, result.IsError)
	})
}

func TestGetDefinitionHandler_NoBackends(t *testing.T) {
	t.Parallel()

	result := call(t, createGetDefinitionHandler(nil, nil), map[string]any{"descriptor": "c:card"})
	assert.True(t, result.IsError)
}

func TestListDefinitionsHandler(t *testing.T) {
	t.Parallel()

	store := newStore(t, sampleDef("c", "card"), sampleDef("c", "list"), sampleDef("ui", "button"))
	handler := createListDefinitionsHandler(store)

	tests := []struct {
		name      string
		namespace string
		want      []string
	}{
		{"all", "", []string{"markup://c:card", "markup://c:list", "markup://ui:button"}},
		{"one namespace", "ui", []string{"markup://ui:button"}},
		{"empty namespace", "none", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			args := map[string]any{}
			if tt.namespace != "" {
				args["namespace"] = tt.namespace
			}
			result := call(t, handler, args)
			require.False(t, result.IsError)

			var resp ListDefinitionsResponse
			require.NoError(t, json.Unmarshal([]byte(text(t, result)), &resp))
			names := make([]string, 0, len(resp.Definitions))
			for _, d := range resp.Definitions {
				names = append(names, d.Descriptor)
			}
			assert.ElementsMatch(t, tt.want, names)
			assert.Equal(t, len(tt.want), resp.Total)
		})
	}
}

func TestDependentsHandler(t *testing.T) {
	t.Parallel()

	store := newStore(t,
		sampleDef("c", "card", "lwc"),
		sampleDef("c", "list", "c/card", "lwc"),
	)
	handler := createDependentsHandler(store)

	result := call(t, handler, map[string]any{"specifiers": `["c/card", "lwc", "nothing"]`})
	require.False(t, result.IsError)

	var got map[string][]string
	require.NoError(t, json.Unmarshal([]byte(text(t, result)), &got))
	assert.Equal(t, []string{"markup://c:list"}, got["c/card"])
	assert.ElementsMatch(t, []string{"markup://c:card", "markup://c:list"}, got["lwc"])
	assert.Empty(t, got["nothing"])

	result = call(t, handler, map[string]any{})
	assert.True(t, result.IsError)
}

func TestBindArguments(t *testing.T) {
	t.Parallel()

	type args struct {
		Name  string   `json:"name"`
		Limit int      `json:"limit"`
		Tags  []string `json:"tags"`
		Deep  bool     `json:"deep"`
	}

	tests := []struct {
		name string
		raw  map[string]any
		want args
	}{
		{"native types", map[string]any{"name": "x", "limit": float64(3), "tags": []any{"a"}, "deep": true},
			args{Name: "x", Limit: 3, Tags: []string{"a"}, Deep: true}},
		{"stringly typed", map[string]any{"limit": "7", "tags": `["a","b"]`, "deep": "true"},
			args{Limit: 7, Tags: []string{"a", "b"}, Deep: true}},
		{"comma list", map[string]any{"tags": "a,b"},
			args{Tags: []string{"a", "b"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			request := mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: tt.raw}}
			var got args
			require.NoError(t, bindArguments(request, &got))
			assert.Equal(t, tt.want, got)
		})
	}
}
