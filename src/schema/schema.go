// Package schema turns the JSON-Schema input description of a UTCP tool into an
// argument record that can be introspected and used to validate call arguments.
package schema

import (
	"fmt"
	"sort"

	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/tools"
)

// FieldType is the translated type of a single argument.
type FieldType string

const (
	TypeString  FieldType = "string"  // Go string
	TypeInteger FieldType = "integer" // int64
	TypeNumber  FieldType = "number"  // float64
	TypeBoolean FieldType = "boolean" // bool
	TypeArray   FieldType = "array"   // []any
	TypeObject  FieldType = "object"  // map[string]any
	TypeAny     FieldType = "any"
)

// ValueField is the single field of a record built from a non-object schema.
const ValueField = "value"

// TranslateType maps a JSON-Schema type name onto a FieldType. Unknown names yield TypeAny.
func TranslateType(jsonType string) FieldType {
	switch jsonType {
	case "string":
		return TypeString
	case "integer":
		return TypeInteger
	case "number":
		return TypeNumber
	case "boolean":
		return TypeBoolean
	case "array":
		return TypeArray
	case "object":
		return TypeObject
	default:
		return TypeAny
	}
}

// Field is one argument of an ArgsSchema.
type Field struct {
	Name        string
	Type        FieldType
	Items       FieldType // element type of TypeArray fields
	Required    bool
	Nullable    bool
	Description string
}

// ArgsSchema is the argument record of a tool.
type ArgsSchema struct {
	name   string
	fields []Field
	index  map[string]int
}

// UndeclaredRequired lists the required names of an object schema that have no
// property. Build ignores them.
func UndeclaredRequired(in tools.ToolInputOutputSchema) []string {
	if in.Type != "" && in.Type != "object" {
		return nil
	}
	var out []string
	for _, name := range in.Required {
		if _, ok := in.Properties[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}

// Build translates in into an ArgsSchema named typeName.
func Build(in tools.ToolInputOutputSchema, typeName string) (*ArgsSchema, error) {
	s := &ArgsSchema{name: typeName, index: map[string]int{}}

	if in.Type != "" && in.Type != "object" {
		f := Field{Name: ValueField, Type: TranslateType(in.Type), Required: true, Description: in.Description}
		if f.Type == TypeArray {
			items, err := itemsType(in.Items, "items")
			if err != nil {
				return nil, err
			}
			f.Items = items
		}
		s.add(f)
		return s, nil
	}

	required := make(map[string]bool, len(in.Required))
	for _, name := range in.Required {
		required[name] = true
	}

	names := make([]string, 0, len(in.Properties))
	for name := range in.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		f, err := buildField(name, in.Properties[name])
		if err != nil {
			return nil, err
		}
		f.Required = required[name]
		s.add(f)
	}
	return s, nil
}

func (s *ArgsSchema) add(f Field) {
	s.index[f.Name] = len(s.fields)
	s.fields = append(s.fields, f)
}

func buildField(name string, raw any) (Field, error) {
	path := "properties." + name
	prop, ok := raw.(map[string]any)
	if !ok {
		return Field{}, &SchemaError{Path: path, Msg: fmt.Sprintf("property schema must be an object, got %T", raw)}
	}
	f := Field{Name: name}
	typ, nullable, err := parseType(prop["type"], path+".type")
	if err != nil {
		return Field{}, err
	}
	f.Type, f.Nullable = typ, nullable

	if d, ok := prop["description"]; ok && d != nil {
		desc, ok := d.(string)
		if !ok {
			return Field{}, &SchemaError{Path: path + ".description", Msg: "must be a string"}
		}
		f.Description = desc
	}

	if f.Type == TypeArray {
		var items map[string]any
		if raw, ok := prop["items"]; ok && raw != nil {
			items, ok = raw.(map[string]any)
			if !ok {
				return Field{}, &SchemaError{Path: path + ".items", Msg: "must be an object"}
			}
		}
		if f.Items, err = itemsType(items, path+".items"); err != nil {
			return Field{}, err
		}
	}
	return f, nil
}

// parseType accepts a type name or a list of names; "null" in a list marks the field nullable.
func parseType(raw any, path string) (FieldType, bool, error) {
	switch t := raw.(type) {
	case nil:
		return TypeAny, false, nil
	case string:
		if t == "null" {
			return TypeAny, true, nil
		}
		return TranslateType(t), false, nil
	case []any:
		typ, nullable := TypeAny, false
		picked := false
		for i, e := range t {
			name, ok := e.(string)
			if !ok {
				return "", false, &SchemaError{Path: fmt.Sprintf("%s[%d]", path, i), Msg: "must be a string"}
			}
			if name == "null" {
				nullable = true
				continue
			}
			if !picked {
				typ, picked = TranslateType(name), true
			}
		}
		return typ, nullable, nil
	case []string:
		anys := make([]any, len(t))
		for i := range t {
			anys[i] = t[i]
		}
		return parseType(anys, path)
	default:
		return "", false, &SchemaError{Path: path, Msg: fmt.Sprintf("must be a string or a list of strings, got %T", raw)}
	}
}

// itemsType reads the element type of an array schema; it defaults to TypeString.
func itemsType(items map[string]any, path string) (FieldType, error) {
	if items == nil {
		return TypeString, nil
	}
	raw, ok := items["type"]
	if !ok || raw == nil {
		return TypeString, nil
	}
	typ, _, err := parseType(raw, path+".type")
	if err != nil {
		return "", err
	}
	return typ, nil
}

// Name is the type name the record was built with.
func (s *ArgsSchema) Name() string { return s.name }

// Fields returns the fields in declaration order (property names sorted).
func (s *ArgsSchema) Fields() []Field {
	return append([]Field(nil), s.fields...)
}

// Field looks a field up by name.
func (s *ArgsSchema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// RequiredFields lists the names of mandatory fields.
func (s *ArgsSchema) RequiredFields() []string {
	out := []string{}
	for _, f := range s.fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

// JSONSchema renders the record back to a JSON-Schema object.
func (s *ArgsSchema) JSONSchema() map[string]any {
	props := make(map[string]any, len(s.fields))
	for _, f := range s.fields {
		p := map[string]any{}
		switch {
		case f.Type == TypeAny:
		case f.Nullable:
			p["type"] = []any{string(f.Type), "null"}
		default:
			p["type"] = string(f.Type)
		}
		if f.Type == TypeArray && f.Items != TypeAny {
			p["items"] = map[string]any{"type": string(f.Items)}
		}
		if f.Description != "" {
			p["description"] = f.Description
		}
		props[f.Name] = p
	}
	return map[string]any{
		"type":       "object",
		"title":      s.name,
		"properties": props,
		"required":   s.RequiredFields(),
	}
}

// Validate checks args against the record and returns the coerced arguments.
// Unknown keys, missing required keys and type mismatches are all reported in
// a single *ValidationError.
func (s *ArgsSchema) Validate(args map[string]any) (Args, error) {
	out := make(Args, len(s.fields))
	var problems []FieldError

	for _, f := range s.fields {
		raw, ok := args[f.Name]
		if !ok || (raw == nil && !f.Required && !f.Nullable) {
			if f.Required {
				problems = append(problems, FieldError{Field: f.Name, Reason: "field required"})
				continue
			}
			out[f.Name] = Absent()
			continue
		}
		v, err := coerce(f, raw)
		if err != nil {
			problems = append(problems, FieldError{Field: f.Name, Reason: err.Error()})
			continue
		}
		out[f.Name] = Set(v)
	}

	var unknown []string
	for k := range args {
		if _, ok := s.index[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		problems = append(problems, FieldError{Field: k, Reason: "extra fields not permitted"})
	}

	if len(problems) > 0 {
		return nil, &ValidationError{Schema: s.name, Problems: problems}
	}
	return out, nil
}
