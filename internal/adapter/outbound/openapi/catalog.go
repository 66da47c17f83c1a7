// Package openapi holds the catalog of Semantic Scholar operations the server
// is allowed to call, described as an embedded OpenAPI document.
package openapi

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/i2y/scholarmcp/internal/domain"
)

//go:embed catalog.yaml
var catalogYAML []byte

var placeholderPattern = regexp.MustCompile(`\{([^}]+)\}`)

type operation struct {
	endpoint    domain.Endpoint
	pathParams  []string
	queryParams map[string]bool
}

// Catalog implements usecase.EndpointCatalog over an OpenAPI document.
// It is immutable after construction and safe for concurrent use.
type Catalog struct {
	doc    *openapi3.T
	ops    map[string]operation
	logger *slog.Logger
}

// LoadCatalog loads the embedded Semantic Scholar catalog.
func LoadCatalog(ctx context.Context, logger *slog.Logger) (*Catalog, error) {
	return NewCatalog(ctx, catalogYAML, logger)
}

// NewCatalog parses and validates an OpenAPI document. Every operation must
// have an operationId and must declare each path placeholder as a path
// parameter.
func NewCatalog(ctx context.Context, data []byte, logger *slog.Logger) (*Catalog, error) {
	log := logger.With("component", "openapi_catalog")

	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse endpoint catalog: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid endpoint catalog: %w", err)
	}

	c := &Catalog{doc: doc, ops: map[string]operation{}, logger: log}
	for path, item := range doc.Paths.Map() {
		for method, op := range item.Operations() {
			if op.OperationID == "" {
				return nil, fmt.Errorf("catalog operation %s %s has no operationId", method, path)
			}
			entry := operation{
				endpoint:    domain.Endpoint{Name: op.OperationID, Method: method, Path: path},
				queryParams: map[string]bool{},
			}
			declaredPath := map[string]bool{}
			for _, params := range []openapi3.Parameters{item.Parameters, op.Parameters} {
				for _, ref := range params {
					if ref == nil || ref.Value == nil {
						continue
					}
					switch ref.Value.In {
					case openapi3.ParameterInPath:
						declaredPath[ref.Value.Name] = true
					case openapi3.ParameterInQuery:
						entry.queryParams[ref.Value.Name] = true
					}
				}
			}
			for _, m := range placeholderPattern.FindAllStringSubmatch(path, -1) {
				if !declaredPath[m[1]] {
					return nil, fmt.Errorf("catalog operation %s: path parameter %q is not declared", op.OperationID, m[1])
				}
				entry.pathParams = append(entry.pathParams, m[1])
			}
			c.ops[opKey(method, path)] = entry
		}
	}

	log.Debug("Endpoint catalog loaded", slog.Int("operation_count", len(c.ops)))
	return c, nil
}

func opKey(method, path string) string {
	return strings.ToUpper(method) + " " + path
}

// Known returns a validation error unless ep names a catalogued operation
// with the same method and path template.
func (c *Catalog) Known(ep domain.Endpoint) error {
	op, ok := c.ops[opKey(ep.Method, ep.Path)]
	if !ok {
		return domain.NewValidationError("unknown endpoint %s %s", ep.Method, ep.Path)
	}
	if op.endpoint.Name != ep.Name {
		return domain.NewValidationError("endpoint %s %s is %q, not %q", ep.Method, ep.Path, op.endpoint.Name, ep.Name)
	}
	return nil
}

// CheckRequest verifies that req targets a known operation and only uses
// query parameters that operation declares.
func (c *Catalog) CheckRequest(req domain.RequestDescriptor) error {
	if err := c.Known(req.Endpoint); err != nil {
		return err
	}
	op := c.ops[opKey(req.Endpoint.Method, req.Endpoint.Path)]
	for name := range req.Query {
		if !op.queryParams[name] {
			return domain.NewValidationError("endpoint %s does not accept query parameter %q", op.endpoint.Name, name)
		}
	}
	return nil
}

// PathParams returns the path placeholders of ep in template order.
func (c *Catalog) PathParams(ep domain.Endpoint) []string {
	return slices.Clone(c.ops[opKey(ep.Method, ep.Path)].pathParams)
}

// ServerURL returns the first server URL declared by the document.
func (c *Catalog) ServerURL() string {
	if len(c.doc.Servers) == 0 {
		return ""
	}
	return c.doc.Servers[0].URL
}
