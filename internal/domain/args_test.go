package domain_test

import (
	"errors"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i2y/scholarmcp/internal/domain"
)

func searchSpecs() []domain.ArgSpec {
	return []domain.ArgSpec{
		{Name: "keyword", Type: domain.ArgString, Required: true},
		{Name: "limit", Type: domain.ArgInteger, Min: domain.Bound(1), Max: domain.Bound(100), Default: 10},
		{Name: "sort_by", Type: domain.ArgString, Enum: []string{"relevance", "citationCount", "year"}, Default: "relevance"},
		{Name: "include_citations", Type: domain.ArgBoolean, Default: true},
		{Name: "paper_ids", Type: domain.ArgArray, MaxItems: 2},
		{Name: "year_from", Type: domain.ArgInteger},
	}
}

func TestValidateArgs(t *testing.T) {
	tests := []struct {
		name    string
		raw     map[string]any
		want    domain.Args
		wantErr string
	}{
		{
			name: "Defaults applied",
			raw:  map[string]any{"keyword": "quantum computing"},
			want: domain.Args{"keyword": "quantum computing", "limit": 10, "sort_by": "relevance", "include_citations": true},
		},
		{
			name: "JSON numbers and arrays normalised",
			raw:  map[string]any{"keyword": "x", "limit": 25.0, "paper_ids": []any{"a", "b"}, "year_from": 2020.0},
			want: domain.Args{"keyword": "x", "limit": 25, "sort_by": "relevance", "include_citations": true, "paper_ids": []string{"a", "b"}, "year_from": 2020},
		},
		{
			name: "Stringified scalars accepted",
			raw:  map[string]any{"keyword": "x", "limit": "5", "include_citations": "false"},
			want: domain.Args{"keyword": "x", "limit": 5, "sort_by": "relevance", "include_citations": false},
		},
		{
			name: "Null treated as absent",
			raw:  map[string]any{"keyword": "x", "year_from": nil},
			want: domain.Args{"keyword": "x", "limit": 10, "sort_by": "relevance", "include_citations": true},
		},
		{
			name: "Unknown arguments ignored",
			raw:  map[string]any{"keyword": "x", "extra": "ignored"},
			want: domain.Args{"keyword": "x", "limit": 10, "sort_by": "relevance", "include_citations": true},
		},
		{name: "Missing required", raw: map[string]any{}, wantErr: `argument "keyword" is required`},
		{name: "Blank required string", raw: map[string]any{"keyword": "   "}, wantErr: `argument "keyword" must not be empty`},
		{name: "Wrong type", raw: map[string]any{"keyword": 42.0}, wantErr: "expected string"},
		{name: "Below minimum", raw: map[string]any{"keyword": "x", "limit": 0.0}, wantErr: `argument "limit": number must be at least 1`},
		{name: "Above maximum", raw: map[string]any{"keyword": "x", "limit": 101.0}, wantErr: `argument "limit": number must be at most 100`},
		{name: "Fractional integer", raw: map[string]any{"keyword": "x", "limit": 2.5}, wantErr: "expected integer"},
		{name: "Enum mismatch", raw: map[string]any{"keyword": "x", "sort_by": "date"}, wantErr: `argument "sort_by": value is not one of the allowed values`},
		{name: "Too many items", raw: map[string]any{"keyword": "x", "paper_ids": []any{"a", "b", "c"}}, wantErr: `argument "paper_ids": maximum number of items is 2`},
		{name: "Non-string item", raw: map[string]any{"keyword": "x", "paper_ids": []any{"a", 1.0}}, wantErr: "item 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.ValidateArgs(searchSpecs(), tt.raw)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Equal(t, domain.KindValidation, domain.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestArgsAccessors(t *testing.T) {
	args := domain.Args{"s": "v", "n": 3, "f": 1.5, "b": true, "l": []string{"x"}}

	assert.Equal(t, "v", args.String("s"))
	assert.Equal(t, "", args.String("missing"))
	n, ok := args.Int("n")
	assert.True(t, ok)
	assert.Equal(t, 3, n)
	_, ok = args.Int("missing")
	assert.False(t, ok)
	f, ok := args.Float("f")
	assert.True(t, ok)
	assert.Equal(t, 1.5, f)
	assert.True(t, args.Bool("b"))
	assert.False(t, args.Bool("missing"))
	assert.Equal(t, []string{"x"}, args.Strings("l"))
	assert.Nil(t, args.Strings("missing"))
}

func TestValidateArgs_SchemaErrorIsReachable(t *testing.T) {
	_, err := domain.ValidateArgs(searchSpecs(), map[string]any{"keyword": "x", "limit": "500"})
	require.Error(t, err)

	var se *openapi3.SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, []string{"limit"}, se.JSONPointer())
	assert.Equal(t, "maximum", se.SchemaField)
}

func TestArgsSchema(t *testing.T) {
	schema := domain.ArgsSchema(searchSpecs())

	assert.True(t, schema.Type.Is(openapi3.TypeObject))
	assert.Equal(t, []string{"keyword"}, schema.Required)
	require.Len(t, schema.Properties, 6)

	limit := schema.Properties["limit"].Value
	assert.True(t, limit.Type.Is(openapi3.TypeInteger))
	require.NotNil(t, limit.Min)
	require.NotNil(t, limit.Max)
	assert.Equal(t, 1.0, *limit.Min)
	assert.Equal(t, 100.0, *limit.Max)

	assert.Equal(t, []any{"relevance", "citationCount", "year"}, schema.Properties["sort_by"].Value.Enum)

	ids := schema.Properties["paper_ids"].Value
	assert.True(t, ids.Type.Is(openapi3.TypeArray))
	require.NotNil(t, ids.MaxItems)
	assert.Equal(t, uint64(2), *ids.MaxItems)
	assert.True(t, ids.Items.Value.Type.Is(openapi3.TypeString))

	// The schema accepts exactly what ValidateArgs produces.
	args, err := domain.ValidateArgs(searchSpecs(), map[string]any{"keyword": "x", "paper_ids": []any{"a"}})
	require.NoError(t, err)
	assert.NoError(t, schema.VisitJSON(map[string]any{
		"keyword": "x", "limit": float64(args["limit"].(int)), "sort_by": "relevance",
		"include_citations": true, "paper_ids": []any{"a"},
	}))
}
