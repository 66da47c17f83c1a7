package domain

import (
	"fmt"
	"regexp"
)

// Tool describes a callable MCP tool exposed by the server.
// The declared input schema and the argument validator are both derived from
// Args, so they cannot disagree.
type Tool struct {
	// Name MUST be unique within the MCP server.
	Name string `json:"name"`

	// Description is shown to the calling agent to decide when to use the tool.
	Description string `json:"description"`

	// Args declares every argument the tool accepts.
	Args []ArgSpec `json:"args"`

	// Endpoints lists every API operation the tool may call.
	Endpoints []Endpoint `json:"endpoints"`
}

// ArgType is the JSON type of a tool argument.
type ArgType string

const (
	ArgString  ArgType = "string"
	ArgInteger ArgType = "integer"
	ArgNumber  ArgType = "number"
	ArgBoolean ArgType = "boolean"
	ArgArray   ArgType = "array" // array of strings
)

// ArgSpec declares a single tool argument.
type ArgSpec struct {
	Name        string  `json:"name"`
	Type        ArgType `json:"type"`
	Description string  `json:"description,omitempty"`
	Required    bool    `json:"required,omitempty"`

	// Min and Max bound numeric arguments (inclusive).
	Min *float64 `json:"minimum,omitempty"`
	Max *float64 `json:"maximum,omitempty"`

	// MinItems and MaxItems bound array arguments; 0 means unbounded.
	MinItems int `json:"min_items,omitempty"`
	MaxItems int `json:"max_items,omitempty"`

	// Enum restricts string arguments to a fixed set of values.
	Enum []string `json:"enum,omitempty"`

	// Default is applied when the argument is absent. Its Go type must match
	// Type: string, int, float64, bool or []string.
	Default any `json:"default,omitempty"`
}

// Bound is a convenience for populating ArgSpec.Min and ArgSpec.Max.
func Bound(v float64) *float64 { return &v }

var toolNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// Validate checks that the tool definition is well-formed. It is run once at
// startup for every registered tool.
func (t Tool) Validate() error {
	if !toolNamePattern.MatchString(t.Name) {
		return fmt.Errorf("tool name %q must match %s", t.Name, toolNamePattern)
	}
	if t.Description == "" {
		return fmt.Errorf("tool %q: description must not be empty", t.Name)
	}
	if len(t.Endpoints) == 0 {
		return fmt.Errorf("tool %q: at least one endpoint is required", t.Name)
	}
	seen := make(map[string]bool, len(t.Args))
	for _, a := range t.Args {
		if seen[a.Name] {
			return fmt.Errorf("tool %q: duplicate argument %q", t.Name, a.Name)
		}
		seen[a.Name] = true
		if err := a.validate(); err != nil {
			return fmt.Errorf("tool %q: %w", t.Name, err)
		}
	}
	return nil
}

func (a ArgSpec) validate() error {
	if a.Name == "" {
		return fmt.Errorf("argument with empty name")
	}
	switch a.Type {
	case ArgString, ArgInteger, ArgNumber, ArgBoolean, ArgArray:
	default:
		return fmt.Errorf("argument %q: unknown type %q", a.Name, a.Type)
	}
	if a.Min != nil && a.Max != nil && *a.Min > *a.Max {
		return fmt.Errorf("argument %q: minimum %v exceeds maximum %v", a.Name, *a.Min, *a.Max)
	}
	if (a.Min != nil || a.Max != nil) && a.Type != ArgInteger && a.Type != ArgNumber {
		return fmt.Errorf("argument %q: bounds are only allowed on numeric arguments", a.Name)
	}
	if len(a.Enum) > 0 && a.Type != ArgString {
		return fmt.Errorf("argument %q: enum is only allowed on string arguments", a.Name)
	}
	if a.MaxItems > 0 && a.MinItems > a.MaxItems {
		return fmt.Errorf("argument %q: min_items %d exceeds max_items %d", a.Name, a.MinItems, a.MaxItems)
	}
	if a.Required && a.Default != nil {
		return fmt.Errorf("argument %q: required arguments cannot have a default", a.Name)
	}
	if a.Default != nil {
		v, err := a.coerce(a.Default)
		if err != nil {
			return fmt.Errorf("argument %q: invalid default: %w", a.Name, err)
		}
		if err := a.check(v); err != nil {
			return fmt.Errorf("argument %q: invalid default: %w", a.Name, err)
		}
	}
	return nil
}
