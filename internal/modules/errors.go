package modules

import (
	"fmt"

	"github.com/mvp-joe/modforge/internal/definition"
)

// MissingBaseFileError means the bundle has no source file named after the
// component, or the file sits too shallow to derive a component path.
type MissingBaseFileError struct {
	Descriptor definition.Descriptor
	Location   definition.Location
	Err        error
}

func (e *MissingBaseFileError) Error() string {
	return fmt.Sprintf("no base file for %s", e.Descriptor)
}

func (e *MissingBaseFileError) Unwrap() error { return e.Err }

// NamingRule identifies which folder naming convention was violated.
type NamingRule string

const (
	RuleNamespaceLowercase NamingRule = "namespace-lowercase"
	RuleNamespaceNoHyphen  NamingRule = "namespace-no-hyphen"
	RuleNameLowercase      NamingRule = "name-lowercase"
)

// InvalidNamingError reports a namespace or name folder that cannot produce a
// valid custom element tag.
type InvalidNamingError struct {
	Descriptor definition.Descriptor
	Location   definition.Location
	Rule       NamingRule
	Segment    string
}

func (e *InvalidNamingError) Error() string {
	switch e.Rule {
	case RuleNamespaceLowercase:
		return "use lowercase for module folder names, not " + e.Segment
	case RuleNamespaceNoHyphen:
		return "namespace cannot have a hyphen, not " + e.Segment
	case RuleNameLowercase:
		return "use lowercase and hyphens for module file names, not " + e.Segment
	default:
		return fmt.Sprintf("invalid module naming (%s): %s", e.Rule, e.Segment)
	}
}

// CompileError wraps any failure of the external compiler, including timeouts.
type CompileError struct {
	Descriptor definition.Descriptor
	Location   definition.Location
	Err        error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Descriptor, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// UnexpectedCompilerOutputError means the compiler broke its output contract:
// the code does not start with an AMD define call.
type UnexpectedCompilerOutputError struct {
	Descriptor definition.Descriptor
	Location   definition.Location
}

func (e *UnexpectedCompilerOutputError) Error() string {
	return fmt.Sprintf("%s: compiled code does not start with AMD 'define'", e.Descriptor)
}
