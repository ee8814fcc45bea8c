package compiler

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

const (
	bundleNamespace = "modforge-bundle"
	outputFile      = "module.js"
)

// EsbuildOptions configures the esbuild engine.
type EsbuildOptions struct {
	Minify bool
	// Target is the esbuild language target, e.g. "es2017". Empty means es2017.
	Target string
}

// EsbuildCompiler compiles bundles with esbuild's Go API. Sources are served
// from memory; relative imports resolve inside the bundle and bare imports are
// left external and reported as dependencies.
type EsbuildCompiler struct {
	opts EsbuildOptions
}

// NewEsbuildCompiler creates an esbuild-backed compiler.
func NewEsbuildCompiler(opts EsbuildOptions) *EsbuildCompiler {
	return &EsbuildCompiler{opts: opts}
}

// Compile implements Compiler. esbuild itself is reentrant, so no pooling.
func (c *EsbuildCompiler) Compile(ctx context.Context, entry string, sources map[string]string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, ok := sources[entry]; !ok {
		return nil, fmt.Errorf("entry %s is not among the bundle sources", entry)
	}

	target, err := parseTarget(c.opts.Target)
	if err != nil {
		return nil, err
	}

	result := api.Build(api.BuildOptions{
		EntryPoints:       []string{entry},
		Bundle:            true,
		Write:             false,
		Outfile:           outputFile,
		Format:            api.FormatCommonJS,
		Platform:          api.PlatformNeutral,
		Target:            target,
		MinifyWhitespace:  c.opts.Minify,
		MinifySyntax:      c.opts.Minify,
		MinifyIdentifiers: c.opts.Minify,
		Metafile:          true,
		LogLevel:          api.LogLevelSilent,
		Plugins:           []api.Plugin{bundleFS(sources)},
	})

	if len(result.Errors) > 0 {
		return nil, &BuildError{Messages: formatMessages(result.Errors)}
	}
	if len(result.OutputFiles) == 0 {
		return nil, fmt.Errorf("esbuild produced no output for %s", entry)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	deps, err := externalImports(result.Metafile)
	if err != nil {
		return nil, err
	}

	return &Result{
		Code:         wrapAMD(string(result.OutputFiles[0].Contents), deps),
		Dependencies: deps,
	}, nil
}

// BuildError carries esbuild's diagnostics.
type BuildError struct {
	Messages []string
}

func (e *BuildError) Error() string {
	return "build failed: " + strings.Join(e.Messages, "; ")
}

func formatMessages(msgs []api.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.Location != nil {
			out = append(out, fmt.Sprintf("%s:%d:%d: %s", m.Location.File, m.Location.Line, m.Location.Column, m.Text))
			continue
		}
		out = append(out, m.Text)
	}
	return out
}

func parseTarget(target string) (api.Target, error) {
	switch strings.ToLower(target) {
	case "", "es2017":
		return api.ES2017, nil
	case "es2015":
		return api.ES2015, nil
	case "es2018":
		return api.ES2018, nil
	case "es2019":
		return api.ES2019, nil
	case "es2020":
		return api.ES2020, nil
	case "es2021":
		return api.ES2021, nil
	case "es2022":
		return api.ES2022, nil
	case "esnext":
		return api.ESNext, nil
	default:
		return 0, fmt.Errorf("unsupported esbuild target %q", target)
	}
}

// bundleFS serves the sources map to esbuild as a virtual filesystem.
func bundleFS(sources map[string]string) api.Plugin {
	return api.Plugin{
		Name: "modforge-bundle",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: ".*"},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					if args.Kind == api.ResolveEntryPoint {
						return api.OnResolveResult{Path: args.Path, Namespace: bundleNamespace}, nil
					}
					if !isRelative(args.Path) {
						return api.OnResolveResult{Path: args.Path, External: true}, nil
					}
					resolved, ok := resolveRelative(sources, args.Importer, args.Path)
					if !ok {
						return api.OnResolveResult{}, fmt.Errorf("cannot resolve %q from %s", args.Path, args.Importer)
					}
					return api.OnResolveResult{Path: resolved, Namespace: bundleNamespace}, nil
				})

			build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: bundleNamespace},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					content, ok := sources[args.Path]
					if !ok {
						return api.OnLoadResult{}, fmt.Errorf("%s is not in the bundle", args.Path)
					}
					return api.OnLoadResult{
						Contents: &content,
						Loader:   loaderFor(args.Path),
					}, nil
				})
		},
	}
}

func isRelative(spec string) bool {
	return strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../")
}

var resolveExtensions = []string{"", ".js", ".ts", ".html", ".css", "/index.js"}

func resolveRelative(sources map[string]string, importer, spec string) (string, bool) {
	base := path.Join(path.Dir(importer), spec)
	for _, ext := range resolveExtensions {
		if _, ok := sources[base+ext]; ok {
			return base + ext, true
		}
	}
	return "", false
}

func loaderFor(p string) api.Loader {
	switch path.Ext(p) {
	case ".js", ".mjs":
		return api.LoaderJS
	case ".ts":
		return api.LoaderTS
	case ".json":
		return api.LoaderJSON
	default:
		// Templates, styles and anything else are imported as strings.
		return api.LoaderText
	}
}

// metafile is the subset of esbuild's metafile JSON read by the compiler.
type metafile struct {
	Outputs map[string]metafileOutput `json:"outputs"`
}

type metafileOutput struct {
	Imports []metafileImport `json:"imports"`
}

type metafileImport struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external,omitempty"`
}

// externalImports lists external import paths in first-seen order.
func externalImports(raw string) ([]string, error) {
	deps := []string{}
	if raw == "" {
		return deps, nil
	}

	var meta metafile
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, fmt.Errorf("failed to parse esbuild metafile: %w", err)
	}

	seen := make(map[string]bool)
	for _, out := range meta.Outputs {
		for _, imp := range out.Imports {
			if imp.External && !seen[imp.Path] {
				seen[imp.Path] = true
				deps = append(deps, imp.Path)
			}
		}
	}
	return deps, nil
}

// wrapAMD turns esbuild's CommonJS output into an AMD define call whose
// factory receives the external dependencies in order.
func wrapAMD(code string, deps []string) string {
	depList, _ := json.Marshal(deps)

	var sb strings.Builder
	sb.WriteString("define(")
	sb.Write(depList)
	sb.WriteString(", function(")
	for i := range deps {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "__dep%d", i)
	}
	sb.WriteString(") {\nvar __deps = {")
	for i, dep := range deps {
		if i > 0 {
			sb.WriteString(", ")
		}
		key, _ := json.Marshal(dep)
		fmt.Fprintf(&sb, "%s: __dep%d", key, i)
	}
	sb.WriteString("};\n")
	sb.WriteString("var require = function(id) { return __deps[id]; };\n")
	sb.WriteString("var module = { exports: {} }, exports = module.exports;\n")
	sb.WriteString(code)
	if !strings.HasSuffix(code, "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString("return module.exports;\n})")
	return sb.String()
}
