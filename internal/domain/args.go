package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Args holds tool arguments that passed validation, normalised to
// string, int, float64, bool or []string according to their ArgSpec.
type Args map[string]any

// String returns the string argument name, or "" if absent.
func (a Args) String(name string) string {
	s, _ := a[name].(string)
	return s
}

// Int returns the integer argument name and whether it was set.
func (a Args) Int(name string) (int, bool) {
	n, ok := a[name].(int)
	return n, ok
}

// Float returns the number argument name and whether it was set.
func (a Args) Float(name string) (float64, bool) {
	f, ok := a[name].(float64)
	return f, ok
}

// Bool returns the boolean argument name, or false if absent.
func (a Args) Bool(name string) bool {
	b, _ := a[name].(bool)
	return b
}

// Strings returns the array argument name, or nil if absent.
func (a Args) Strings(name string) []string {
	s, _ := a[name].([]string)
	return s
}

// ValidateArgs coerces raw caller arguments to their declared types, applies
// defaults and validates the result against ArgsSchema(specs). It returns the
// normalised values. Arguments not declared in specs
// are ignored. Any failure is a KindValidation *Error.
func ValidateArgs(specs []ArgSpec, raw map[string]any) (Args, error) {
	out := make(Args, len(specs))
	for _, spec := range specs {
		v, present := raw[spec.Name]
		if present && v == nil {
			present = false
		}
		if !present {
			if spec.Required {
				return nil, NewValidationError("argument %q is required", spec.Name)
			}
			if spec.Default != nil {
				d, err := spec.coerce(spec.Default)
				if err != nil {
					return nil, NewValidationError("argument %q: invalid default: %v", spec.Name, err)
				}
				out[spec.Name] = d
			}
			continue
		}

		val, err := spec.coerce(v)
		if err != nil {
			return nil, NewValidationError("argument %q: %v", spec.Name, err)
		}
		if spec.Required && spec.Type == ArgString && strings.TrimSpace(val.(string)) == "" {
			return nil, NewValidationError("argument %q must not be empty", spec.Name)
		}
		out[spec.Name] = val
	}

	// Range, enum and item-count constraints, plus defaults, are checked in
	// one pass against the derived object schema.
	if err := ArgsSchema(specs).VisitJSON(jsonValue(out)); err != nil {
		return nil, schemaError("", err)
	}
	return out, nil
}

// coerce converts a decoded JSON value to the Go type for a.Type. Numeric and
// boolean values sent as strings are accepted since some hosts stringify them.
func (a ArgSpec) coerce(v any) (any, error) {
	switch a.Type {
	case ArgString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", v)
		}
		return s, nil

	case ArgInteger:
		f, err := toFloat(v)
		if err != nil {
			return nil, err
		}
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("expected integer, got %v", v)
		}
		if f > math.MaxInt32 || f < math.MinInt32 {
			return nil, fmt.Errorf("integer %v out of range", v)
		}
		return int(f), nil

	case ArgNumber:
		return toFloat(v)

	case ArgBoolean:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			parsed, err := strconv.ParseBool(strings.TrimSpace(b))
			if err != nil {
				return nil, fmt.Errorf("expected boolean, got %q", b)
			}
			return parsed, nil
		default:
			return nil, fmt.Errorf("expected boolean, got %T", v)
		}

	case ArgArray:
		switch items := v.(type) {
		case []string:
			return slices.Clone(items), nil
		case []any:
			out := make([]string, 0, len(items))
			for i, item := range items {
				s, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("item %d: expected string, got %T", i, item)
				}
				out = append(out, s)
			}
			return out, nil
		default:
			return nil, fmt.Errorf("expected array of strings, got %T", v)
		}
	}
	return nil, fmt.Errorf("unknown type %q", a.Type)
}

// check validates a coerced value against the argument's schema.
func (a ArgSpec) check(v any) error {
	if err := a.Schema().VisitJSON(jsonValue(v)); err != nil {
		var se *openapi3.SchemaError
		if errors.As(err, &se) {
			return errors.New(se.Reason)
		}
		return err
	}
	return nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("expected number, got %q", n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}
