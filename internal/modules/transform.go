package modules

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/mvp-joe/modforge/internal/definition"
)

// DefaultRegistryFunction is the runtime call that registers a module factory.
const DefaultRegistryFunction = "$A.componentService.addModule"

// amdPrefix is the token every compiled module must start with.
const amdPrefix = "define("

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// ProcessCompiledCode swaps the leading AMD "define(" for a registration call
// and wraps the result in a function:
//
//	function() { <registryFn>('<qualified name>', <rest of compiled code> }
//
// The rest of the code, including the closing of the define call, is kept
// verbatim and never parsed.
func ProcessCompiledCode(registryFn string, desc definition.Descriptor, code string) (string, error) {
	if !strings.HasPrefix(code, amdPrefix) {
		return "", &UnexpectedCompilerOutputError{Descriptor: desc}
	}

	var sb strings.Builder
	sb.Grow(len(code) + len(registryFn) + 64)
	sb.WriteString("function() { ")
	sb.WriteString(registryFn)
	sb.WriteString("('")
	sb.WriteString(quoteEscaper.Replace(desc.QualifiedName()))
	sb.WriteString("', ")
	sb.WriteString(code[len(amdPrefix):])
	sb.WriteString(" }")
	return sb.String(), nil
}

// OwnHash returns the SHA-256 hex digest of the qualified name followed by the code.
func OwnHash(desc definition.Descriptor, code string) string {
	h := sha256.New()
	h.Write([]byte(desc.QualifiedName()))
	h.Write([]byte(code))
	return hex.EncodeToString(h.Sum(nil))
}
