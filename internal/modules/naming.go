package modules

import (
	"strings"
	"unicode"
)

// ValidateNaming checks the "<ns>/<name>/<file>" component path against the
// custom element naming conventions. Paths with fewer than three segments are
// not checked. The first failing rule is returned; Descriptor and Location are
// left for the caller to fill in.
func ValidateNaming(componentPath string) *InvalidNamingError {
	segments := strings.Split(componentPath, "/")
	if len(segments) <= 2 {
		return nil
	}
	namespace, name := segments[0], segments[1]

	if hasUpper(namespace) {
		return &InvalidNamingError{Rule: RuleNamespaceLowercase, Segment: namespace}
	}
	if strings.Contains(namespace, "-") {
		return &InvalidNamingError{Rule: RuleNamespaceNoHyphen, Segment: namespace}
	}
	if hasUpper(name) {
		return &InvalidNamingError{Rule: RuleNameLowercase, Segment: name}
	}
	return nil
}

func hasUpper(s string) bool {
	return strings.IndexFunc(s, unicode.IsUpper) >= 0
}
