package definition

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Access is the visibility level of a definition.
type Access string

const (
	AccessInternal Access = "INTERNAL"
	AccessPublic   Access = "PUBLIC"
)

// IsValid checks if the access level is known.
func (a Access) IsValid() bool {
	return a == AccessInternal || a == AccessPublic
}

// SupportLevel describes how stable a platform definition is.
type SupportLevel string

const (
	SupportProto      SupportLevel = "PROTO"
	SupportDeprecated SupportLevel = "DEPRECATED"
	SupportBeta       SupportLevel = "BETA"
	SupportGA         SupportLevel = "GA"
)

// ParseSupportLevel parses a case-insensitive support level name.
func ParseSupportLevel(s string) (SupportLevel, error) {
	switch level := SupportLevel(strings.ToUpper(strings.TrimSpace(s))); level {
	case SupportProto, SupportDeprecated, SupportBeta, SupportGA:
		return level, nil
	default:
		return "", fmt.Errorf("unknown support level %q", s)
	}
}

// Location points at the source of a definition. Line is -1 when unknown.
type Location struct {
	File string `json:"file"`
	Line int    `json:"line"`
}

// NewLocation returns a location with an unknown line.
func NewLocation(file string) Location {
	return Location{File: file, Line: -1}
}

func (l Location) String() string {
	if l.Line < 0 {
		return l.File
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// AttributeDef describes a single public attribute of a platform definition.
type AttributeDef struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Default     string `json:"default,omitempty"`
	Required    bool   `json:"required,omitempty"`
	Description string `json:"description,omitempty"`
}

// MarshalJSON renders descriptors as their qualified name.
func (d Descriptor) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.QualifiedName())
}

// UnmarshalJSON accepts the qualified name form written by MarshalJSON.
func (d *Descriptor) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDescriptor(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
