package schema

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/tools"
)

func weatherInputs() tools.ToolInputOutputSchema {
	return tools.ToolInputOutputSchema{
		Type: "object",
		Properties: map[string]any{
			"city":  map[string]any{"type": "string", "description": "City name"},
			"days":  map[string]any{"type": "integer"},
			"units": map[string]any{"type": []any{"string", "null"}},
			"tags":  map[string]any{"type": "array", "items": map[string]any{"type": "integer"}},
			"extra": map[string]any{},
		},
		Required: []string{"city"},
	}
}

func TestTranslateType(t *testing.T) {
	cases := map[string]FieldType{
		"string":  TypeString,
		"integer": TypeInteger,
		"number":  TypeNumber,
		"boolean": TypeBoolean,
		"array":   TypeArray,
		"object":  TypeObject,
		"date":    TypeAny,
		"":        TypeAny,
	}
	for in, want := range cases {
		assert.Equal(t, want, TranslateType(in), in)
	}
}

func TestBuild_Object(t *testing.T) {
	s, err := Build(weatherInputs(), "WeatherInput")
	require.NoError(t, err)

	assert.Equal(t, "WeatherInput", s.Name())
	var names []string
	for _, f := range s.Fields() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"city", "days", "extra", "tags", "units"}, names)
	assert.Equal(t, []string{"city"}, s.RequiredFields())

	city, ok := s.Field("city")
	require.True(t, ok)
	assert.Equal(t, Field{Name: "city", Type: TypeString, Required: true, Description: "City name"}, city)

	units, _ := s.Field("units")
	assert.Equal(t, TypeString, units.Type)
	assert.True(t, units.Nullable)

	tags, _ := s.Field("tags")
	assert.Equal(t, TypeArray, tags.Type)
	assert.Equal(t, TypeInteger, tags.Items)

	extra, _ := s.Field("extra")
	assert.Equal(t, TypeAny, extra.Type)

	_, ok = s.Field("nope")
	assert.False(t, ok)
}

func TestBuild_EmptyAndNonObject(t *testing.T) {
	s, err := Build(tools.ToolInputOutputSchema{}, "EmptyInput")
	require.NoError(t, err)
	assert.Empty(t, s.Fields())
	assert.Equal(t, []string{}, s.RequiredFields())

	s, err = Build(tools.ToolInputOutputSchema{Type: "array"}, "ListInput")
	require.NoError(t, err)
	require.Len(t, s.Fields(), 1)
	assert.Equal(t, Field{Name: ValueField, Type: TypeArray, Items: TypeString, Required: true}, s.Fields()[0])
}

func TestBuild_Malformed(t *testing.T) {
	cases := []struct {
		name string
		in   tools.ToolInputOutputSchema
		path string
	}{
		{"property not object", tools.ToolInputOutputSchema{Type: "object", Properties: map[string]any{"a": "string"}}, "properties.a"},
		{"type not string", tools.ToolInputOutputSchema{Type: "object", Properties: map[string]any{"a": map[string]any{"type": 3}}}, "properties.a.type"},
		{"type list entry", tools.ToolInputOutputSchema{Type: "object", Properties: map[string]any{"a": map[string]any{"type": []any{"string", 1}}}}, "properties.a.type[1]"},
		{"items not object", tools.ToolInputOutputSchema{Type: "object", Properties: map[string]any{"a": map[string]any{"type": "array", "items": "string"}}}, "properties.a.items"},
		{"description", tools.ToolInputOutputSchema{Type: "object", Properties: map[string]any{"a": map[string]any{"description": 1}}}, "properties.a.description"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build(tc.in, "X")
			var se *SchemaError
			require.True(t, errors.As(err, &se), "got %v", err)
			assert.Equal(t, tc.path, se.Path)
		})
	}
}

func TestValidate(t *testing.T) {
	s, err := Build(weatherInputs(), "WeatherInput")
	require.NoError(t, err)

	args, err := s.Validate(map[string]any{"city": "Paris", "days": float64(3), "tags": []any{"1", 2.0}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"city": "Paris", "days": int64(3), "tags": []any{int64(1), int64(2)}}, args.Present())

	units := args["units"]
	assert.False(t, units.IsSet())
	_, ok := args.Get("units")
	assert.False(t, ok)
	v, ok := args.Get("city")
	assert.True(t, ok)
	assert.Equal(t, "Paris", v)

	args, err = s.Validate(map[string]any{"city": "Rome", "units": nil, "days": nil})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"city": "Rome", "units": nil}, args.Present())
}

func TestValidate_Rejects(t *testing.T) {
	s, err := Build(weatherInputs(), "WeatherInput")
	require.NoError(t, err)

	cases := []struct {
		name  string
		args  map[string]any
		field string
	}{
		{"missing required", map[string]any{}, "city"},
		{"null required", map[string]any{"city": nil}, "city"},
		{"wrong type", map[string]any{"city": 12}, "city"},
		{"fractional integer", map[string]any{"city": "x", "days": 1.5}, "days"},
		{"bool as integer", map[string]any{"city": "x", "days": true}, "days"},
		{"bad item", map[string]any{"city": "x", "tags": []any{"a"}}, "tags"},
		{"not a list", map[string]any{"city": "x", "tags": "a,b"}, "tags"},
		{"unknown key", map[string]any{"city": "x", "country": "FR"}, "country"},
		{"octal string", map[string]any{"city": "x", "days": "010"}, "days"},
		{"hex string", map[string]any{"city": "x", "days": "0x1F"}, "days"},
		{"float above int64", map[string]any{"city": "x", "days": 1e20}, "days"},
		{"float at 2^63", map[string]any{"city": "x", "days": float64(math.MaxInt64)}, "days"},
		{"uint above int64", map[string]any{"city": "x", "days": uint64(math.MaxUint64)}, "days"},
		{"NaN integer", map[string]any{"city": "x", "days": math.NaN()}, "days"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Validate(tc.args)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, "WeatherInput", ve.Schema)
			assert.True(t, ve.Has(tc.field), ve.Error())
		})
	}
}

func TestValidate_NumbersAndObjects(t *testing.T) {
	s, err := Build(tools.ToolInputOutputSchema{
		Type: "object",
		Properties: map[string]any{
			"i": map[string]any{"type": "integer"},
			"n": map[string]any{"type": "number"},
			"o": map[string]any{"type": "object"},
		},
	}, "NumericInput")
	require.NoError(t, err)

	accepted := []struct {
		args map[string]any
		want map[string]any
	}{
		{map[string]any{"i": "-42"}, map[string]any{"i": int64(-42)}},
		{map[string]any{"i": " 7 "}, map[string]any{"i": int64(7)}},
		{map[string]any{"i": uint64(5)}, map[string]any{"i": int64(5)}},
		{map[string]any{"i": int64(math.MaxInt64)}, map[string]any{"i": int64(math.MaxInt64)}},
		{map[string]any{"i": float64(-(1 << 63))}, map[string]any{"i": int64(math.MinInt64)}},
		{map[string]any{"n": "1e3"}, map[string]any{"n": 1000.0}},
		{map[string]any{"o": map[any]any{"k": 1}}, map[string]any{"o": map[string]any{"k": 1}}},
		{map[string]any{"o": map[string]string{"k": "v"}}, map[string]any{"o": map[string]any{"k": "v"}}},
	}
	for _, tc := range accepted {
		args, err := s.Validate(tc.args)
		require.NoError(t, err, "%v", tc.args)
		assert.Equal(t, tc.want, args.Present())
	}

	rejected := []map[string]any{
		{"n": "NaN"},
		{"n": "Inf"},
		{"n": "-Infinity"},
		{"n": math.Inf(1)},
		{"n": true},
		{"o": `{"k":1}`},
		{"o": map[any]any{1: "x"}},
	}
	for _, args := range rejected {
		_, err := s.Validate(args)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve, "%v", args)
	}
}

func TestBuild_IgnoresUndeclaredRequired(t *testing.T) {
	in := tools.ToolInputOutputSchema{
		Type:       "object",
		Properties: map[string]any{"a": map[string]any{"type": "string"}},
		Required:   []string{"a", "ghost"},
	}
	s, err := Build(in, "X")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, s.RequiredFields())
	assert.Equal(t, []string{"ghost"}, UndeclaredRequired(in))

	_, err = s.Validate(map[string]any{"a": "x"})
	assert.NoError(t, err)
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	s, err := Build(weatherInputs(), "WeatherInput")
	require.NoError(t, err)
	_, err = s.Validate(map[string]any{"days": "soon", "zzz": 1})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Problems, 3)
	assert.Contains(t, err.Error(), "3 validation errors for WeatherInput")
}

func TestValidate_Coercion(t *testing.T) {
	s, err := Build(tools.ToolInputOutputSchema{
		Type: "object",
		Properties: map[string]any{
			"n":        map[string]any{"type": "number"},
			"b":        map[string]any{"type": "boolean"},
			"o":        map[string]any{"type": "object"},
			"i":        map[string]any{"type": "integer"},
			"anything": map[string]any{"type": "whatever"},
		},
	}, "CoerceInput")
	require.NoError(t, err)

	args, err := s.Validate(map[string]any{
		"n":        "2.5",
		"b":        "true",
		"o":        map[string]any{"k": "v"},
		"i":        "42",
		"anything": []int{1},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"n":        2.5,
		"b":        true,
		"o":        map[string]any{"k": "v"},
		"i":        int64(42),
		"anything": []int{1},
	}, args.Present())

	_, err = s.Validate(map[string]any{"b": 1})
	assert.Error(t, err)
	_, err = s.Validate(map[string]any{"o": []any{}})
	assert.Error(t, err)
}

func TestJSONSchema(t *testing.T) {
	s, err := Build(weatherInputs(), "WeatherInput")
	require.NoError(t, err)

	js := s.JSONSchema()
	assert.Equal(t, "object", js["type"])
	assert.Equal(t, "WeatherInput", js["title"])
	assert.Equal(t, []string{"city"}, js["required"])
	props := js["properties"].(map[string]any)
	assert.Equal(t, map[string]any{"type": "string", "description": "City name"}, props["city"])
	assert.Equal(t, map[string]any{"type": []any{"string", "null"}}, props["units"])
	assert.Equal(t, map[string]any{"type": "array", "items": map[string]any{"type": "integer"}}, props["tags"])
	assert.Equal(t, map[string]any{}, props["extra"])
}
