package s2client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/i2y/scholarmcp/internal/domain"
)

// buildURL substitutes the catalogued path parameters and appends the
// encoded query.
func (c *Client) buildURL(req domain.RequestDescriptor) (string, error) {
	names := c.catalog.PathParams(req.Endpoint)
	path := req.Endpoint.Path
	for _, name := range names {
		v := strings.TrimSpace(req.PathParams[name])
		if v == "" {
			return "", domain.NewValidationError("missing path parameter %q for %s", name, req.Endpoint.Name)
		}
		for _, seg := range strings.Split(v, "/") {
			if seg == "." || seg == ".." {
				return "", domain.NewValidationError("path parameter %q must not contain relative segments", name)
			}
		}
		path = strings.ReplaceAll(path, "{"+name+"}", escapePathValue(v))
	}
	for name := range req.PathParams {
		if !slices.Contains(names, name) {
			return "", domain.NewValidationError("unexpected path parameter %q for %s", name, req.Endpoint.Name)
		}
	}

	target := strings.TrimRight(c.base.String(), "/") + path
	query, err := encodeQuery(req.Query)
	if err != nil {
		return "", err
	}
	if query != "" {
		target += "?" + query
	}
	return target, nil
}

// escapePathValue escapes a path parameter segment by segment so prefixed
// identifiers such as "DOI:10.18653/v1/N18-3011" keep their slashes.
func escapePathValue(v string) string {
	segs := strings.Split(v, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

// encodeQuery serialises query values. Lists are comma-joined, which is how
// the API expects multi-valued parameters such as fields. Empty values are
// dropped.
func encodeQuery(q map[string]any) (string, error) {
	vals := url.Values{}
	for k, v := range q {
		s, err := queryValue(v)
		if err != nil {
			return "", domain.NewValidationError("query parameter %q: %v", k, err)
		}
		if s == "" {
			continue
		}
		vals.Set(k, s)
	}
	return vals.Encode(), nil
}

func queryValue(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(x), nil
	case []string:
		items := make([]string, 0, len(x))
		for _, item := range x {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return strings.Join(items, ","), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}

func methodAllowsBody(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch
}

// encodeBody returns the JSON body for req, or nil when there is none.
func encodeBody(req domain.RequestDescriptor) ([]byte, error) {
	if req.Body == nil {
		return nil, nil
	}
	if !methodAllowsBody(req.Endpoint.Method) {
		return nil, domain.NewValidationError("%s %s does not take a request body", req.Endpoint.Method, req.Endpoint.Name)
	}
	data, err := json.Marshal(req.Body)
	if err != nil {
		return nil, domain.NewValidationError("request body for %s: %v", req.Endpoint.Name, err)
	}
	return data, nil
}
