package usecase

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/i2y/scholarmcp/internal/domain"
)

// BuildMCPTool derives the MCP input schema from the tool's argument specs,
// the same specs domain.ValidateArgs enforces at call time.
func BuildMCPTool(t domain.Tool) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(t.Description)}
	for _, a := range t.Args {
		props := []mcp.PropertyOption{}
		if a.Description != "" {
			props = append(props, mcp.Description(a.Description))
		}
		if a.Required {
			props = append(props, mcp.Required())
		}

		switch a.Type {
		case domain.ArgString:
			if len(a.Enum) > 0 {
				props = append(props, mcp.Enum(a.Enum...))
			}
			if s, ok := a.Default.(string); ok {
				props = append(props, mcp.DefaultString(s))
			}
			opts = append(opts, mcp.WithString(a.Name, props...))

		case domain.ArgInteger, domain.ArgNumber:
			props = append(props, numericProps(a)...)
			opts = append(opts, mcp.WithNumber(a.Name, props...))

		case domain.ArgBoolean:
			if b, ok := a.Default.(bool); ok {
				props = append(props, mcp.DefaultBool(b))
			}
			opts = append(opts, mcp.WithBoolean(a.Name, props...))

		case domain.ArgArray:
			props = append(props, mcp.WithStringItems())
			if a.MinItems > 0 {
				props = append(props, mcp.MinItems(a.MinItems))
			}
			if a.MaxItems > 0 {
				props = append(props, mcp.MaxItems(a.MaxItems))
			}
			opts = append(opts, mcp.WithArray(a.Name, props...))
		}
	}
	return mcp.NewTool(t.Name, opts...)
}

func numericProps(a domain.ArgSpec) []mcp.PropertyOption {
	var props []mcp.PropertyOption
	if a.Type == domain.ArgInteger {
		props = append(props, schemaType("integer"))
	}
	if a.Min != nil {
		props = append(props, mcp.Min(*a.Min))
	}
	if a.Max != nil {
		props = append(props, mcp.Max(*a.Max))
	}
	switch d := a.Default.(type) {
	case int:
		props = append(props, mcp.DefaultNumber(float64(d)))
	case float64:
		props = append(props, mcp.DefaultNumber(d))
	}
	return props
}

// schemaType overrides the JSON schema type; mcp-go has no integer helper.
func schemaType(typ string) mcp.PropertyOption {
	return func(schema map[string]any) {
		schema["type"] = typ
	}
}
