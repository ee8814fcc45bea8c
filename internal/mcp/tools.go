package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/modforge/internal/definition"
	"github.com/mvp-joe/modforge/internal/storage"
)

type toolHandler = func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

// CompileModuleRequest is the compile_module argument set.
type CompileModuleRequest struct {
	Path string `json:"path"`
}

// GetDefinitionRequest is the get_definition argument set.
type GetDefinitionRequest struct {
	Descriptor  string `json:"descriptor"`
	IncludeCode bool   `json:"include_code"`
}

// ListDefinitionsRequest is the list_definitions argument set.
type ListDefinitionsRequest struct {
	Namespace string `json:"namespace"`
}

// DependentsRequest is the module_dependents argument set.
type DependentsRequest struct {
	Specifiers []string `json:"specifiers"`
}

// DefinitionSummary is a definition without its compiled code.
type DefinitionSummary struct {
	Descriptor   string                  `json:"descriptor"`
	Access       definition.Access       `json:"access"`
	Support      definition.SupportLevel `json:"support"`
	Path         string                  `json:"path"`
	Dependencies []string                `json:"dependencies"`
	OwnHash      string                  `json:"own_hash"`
}

// ListDefinitionsResponse is returned by list_definitions.
type ListDefinitionsResponse struct {
	Definitions []DefinitionSummary `json:"definitions"`
	Total       int                 `json:"total"`
}

func summarize(def *definition.ModuleDef) DefinitionSummary {
	return DefinitionSummary{
		Descriptor:   def.Descriptor().QualifiedName(),
		Access:       def.Access(),
		Support:      def.Support(),
		Path:         def.Path(),
		Dependencies: def.Dependencies(),
		OwnHash:      def.OwnHash(),
	}
}

// AddCompileModuleTool registers compile_module.
func AddCompileModuleTool(s *server.MCPServer, compiler ComponentCompiler) {
	tool := mcp.NewTool(
		"compile_module",
		mcp.WithDescription("Compile one component directory (<root>/<namespace>/<name>) into a module definition. Returns the definition as JSON, including the wrapped compiled code and its hash."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Component directory, absolute or relative to the server's working directory")),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createCompileModuleHandler(compiler))
}

func createCompileModuleHandler(compiler ComponentCompiler) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var req CompileModuleRequest
		if err := bindArguments(request, &req); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}
		if req.Path == "" {
			return mcp.NewToolResultError("path parameter is required"), nil
		}

		dir, err := filepath.Abs(req.Path)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid path: %v", err)), nil
		}

		def, err := compiler.CompileDir(ctx, dir)
		if err != nil {
			// Compile failures are results for the caller, not protocol errors.
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(def)
	}
}

// AddGetDefinitionTool registers get_definition.
func AddGetDefinitionTool(s *server.MCPServer, lookup Lookup, store DefinitionStore) {
	tool := mcp.NewTool(
		"get_definition",
		mcp.WithDescription("Look up a compiled module definition by descriptor, checking the in-memory cache before the definition database."),
		mcp.WithString("descriptor",
			mcp.Required(),
			mcp.Description("Module descriptor, e.g. 'c:card' or 'markup://c:card'")),
		mcp.WithBoolean("include_code",
			mcp.Description("Include the compiled code (default: false)")),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, createGetDefinitionHandler(lookup, store))
}

func createGetDefinitionHandler(lookup Lookup, store DefinitionStore) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var req GetDefinitionRequest
		if err := bindArguments(request, &req); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}
		desc, err := definition.ParseDescriptor(req.Descriptor)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		def, err := findDefinition(desc, lookup, store)
		if err != nil {
			return nil, err
		}
		if def == nil {
			return mcp.NewToolResultError(fmt.Sprintf("no definition for %s", desc.QualifiedName())), nil
		}

		if req.IncludeCode {
			return jsonResult(def)
		}
		return jsonResult(summarize(def))
	}
}

func findDefinition(desc definition.Descriptor, lookup Lookup, store DefinitionStore) (*definition.ModuleDef, error) {
	if lookup != nil {
		if def, ok := lookup.Get(desc); ok {
			return def, nil
		}
	}
	if store == nil {
		return nil, nil
	}
	stored, err := store.Get(desc)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", desc.QualifiedName(), err)
	}
	if stored == nil {
		return nil, nil
	}
	return stored.Definition, nil
}

// AddListDefinitionsTool registers list_definitions.
func AddListDefinitionsTool(s *server.MCPServer, store DefinitionStore) {
	tool := mcp.NewTool(
		"list_definitions",
		mcp.WithDescription("List stored module definitions, optionally limited to one namespace. Compiled code is omitted."),
		mcp.WithString("namespace",
			mcp.Description("Namespace to list (default: all)")),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, createListDefinitionsHandler(store))
}

func createListDefinitionsHandler(store DefinitionStore) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var req ListDefinitionsRequest
		if err := bindArguments(request, &req); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}

		stored, err := store.List(req.Namespace)
		if err != nil {
			return nil, fmt.Errorf("failed to list definitions: %w", err)
		}

		resp := ListDefinitionsResponse{Definitions: make([]DefinitionSummary, 0, len(stored))}
		for _, sd := range stored {
			resp.Definitions = append(resp.Definitions, summarize(sd.Definition))
		}
		resp.Total = len(resp.Definitions)
		return jsonResult(resp)
	}
}

// AddDependentsTool registers module_dependents.
func AddDependentsTool(s *server.MCPServer, store DefinitionStore) {
	tool := mcp.NewTool(
		"module_dependents",
		mcp.WithDescription("Find stored modules that import any of the given specifiers, e.g. 'lwc' or 'c/card'."),
		mcp.WithArray("specifiers",
			mcp.Required(),
			mcp.Description("Import specifiers to look up"),
			mcp.WithStringItems()),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, createDependentsHandler(store))
}

func createDependentsHandler(store DefinitionStore) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var req DependentsRequest
		if err := bindArguments(request, &req); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}
		if len(req.Specifiers) == 0 {
			return mcp.NewToolResultError("specifiers parameter is required"), nil
		}

		out := make(map[string][]string, len(req.Specifiers))
		for _, spec := range req.Specifiers {
			names, err := store.Dependents(spec)
			if err != nil {
				return nil, fmt.Errorf("failed to find dependents of %s: %w", spec, err)
			}
			if names == nil {
				names = []string{}
			}
			out[spec] = names
		}
		return jsonResult(out)
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

var _ DefinitionStore = (*storage.DefinitionReader)(nil)
