package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mvp-joe/modforge/internal/definition"
	"github.com/mvp-joe/modforge/internal/watcher"
)

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printDefinition(out io.Writer, def *definition.ModuleDef, withCode bool) {
	deps := def.Dependencies()
	depList := "(none)"
	if len(deps) > 0 {
		depList = strings.Join(deps, ", ")
	}

	fmt.Fprintln(out, def.Descriptor().QualifiedName())
	fmt.Fprintf(out, "  Access:       %s\n", def.Access())
	fmt.Fprintf(out, "  Support:      %s\n", def.Support())
	fmt.Fprintf(out, "  Path:         %s\n", def.Path())
	if name := def.CustomElementName(); name != "" {
		fmt.Fprintf(out, "  Element:      %s\n", name)
	}
	fmt.Fprintf(out, "  Dependencies: %s\n", depList)
	fmt.Fprintf(out, "  Hash:         %s\n", def.OwnHash())
	if withCode {
		fmt.Fprintln(out)
		fmt.Fprintln(out, def.CompiledCode())
	}
}

func printWatchResult(out io.Writer, r watcher.Result) {
	name := r.Descriptor.DescriptorName()
	switch {
	case r.Removed:
		fmt.Fprintf(out, "- %s removed\n", name)
	case r.Err != nil:
		fmt.Fprintf(out, "✗ %s: %v\n", name, r.Err)
	default:
		fmt.Fprintf(out, "✓ %s %s\n", name, shortHash(r.Definition.OwnHash()))
	}
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
