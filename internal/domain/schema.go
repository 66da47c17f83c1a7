package domain

import (
	"errors"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// Schema returns the JSON schema a coerced value of the argument must satisfy.
func (a ArgSpec) Schema() *openapi3.Schema {
	var s *openapi3.Schema
	switch a.Type {
	case ArgString:
		s = openapi3.NewStringSchema()
		if len(a.Enum) > 0 {
			enum := make([]any, len(a.Enum))
			for i, e := range a.Enum {
				enum[i] = e
			}
			s.WithEnum(enum...)
		}
	case ArgInteger:
		s = openapi3.NewIntegerSchema()
	case ArgNumber:
		s = openapi3.NewFloat64Schema()
	case ArgBoolean:
		s = openapi3.NewBoolSchema()
	case ArgArray:
		s = openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema())
		if a.MinItems > 0 {
			s.WithMinItems(int64(a.MinItems))
		}
		if a.MaxItems > 0 {
			s.WithMaxItems(int64(a.MaxItems))
		}
	default:
		s = openapi3.NewSchema()
	}
	if a.Min != nil {
		s.WithMin(*a.Min)
	}
	if a.Max != nil {
		s.WithMax(*a.Max)
	}
	s.Description = a.Description
	return s
}

// ArgsSchema returns the object schema of a whole argument set.
func ArgsSchema(specs []ArgSpec) *openapi3.Schema {
	obj := openapi3.NewObjectSchema()
	for _, spec := range specs {
		obj.WithProperty(spec.Name, spec.Schema())
		if spec.Required {
			obj.Required = append(obj.Required, spec.Name)
		}
	}
	return obj
}

// jsonValue converts a coerced value back to the shapes encoding/json
// produces, which is what openapi3.Schema.VisitJSON expects.
func jsonValue(v any) any {
	switch x := v.(type) {
	case int:
		return float64(x)
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out
	case Args:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = jsonValue(val)
		}
		return out
	}
	return v
}

// schemaError turns a VisitJSON failure into a validation Error naming the
// offending argument. The schema error stays reachable through errors.As.
func schemaError(arg string, err error) *Error {
	var se *openapi3.SchemaError
	if !errors.As(err, &se) {
		return &Error{Kind: KindValidation, Message: fmt.Sprintf("argument %q: %v", arg, err), Err: err}
	}
	if ptr := se.JSONPointer(); arg == "" && len(ptr) > 0 {
		arg = ptr[0]
	}
	return &Error{Kind: KindValidation, Message: fmt.Sprintf("argument %q: %s", arg, se.Reason), Err: err}
}
