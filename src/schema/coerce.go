package schema

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// coerce converts raw to the Go representation of f's type. Numeric strings are
// accepted for numbers and "true"/"false" strings for booleans; booleans are never
// accepted as numbers.
func coerce(f Field, raw any) (any, error) {
	if raw == nil {
		if f.Nullable || f.Type == TypeAny {
			return nil, nil
		}
		return nil, errors.New("must not be null")
	}
	return coerceTo(f.Type, f.Items, raw)
}

func coerceTo(typ, items FieldType, raw any) (any, error) {
	switch typ {
	case TypeAny:
		return raw, nil
	case TypeString:
		switch v := raw.(type) {
		case string:
			return v, nil
		case []byte:
			return string(v), nil
		}
	case TypeInteger:
		return toInteger(raw)
	case TypeNumber:
		return toNumber(raw)
	case TypeBoolean:
		switch v := raw.(type) {
		case bool:
			return v, nil
		case string:
			if b, err := cast.ToBoolE(v); err == nil {
				return b, nil
			}
		}
	case TypeObject:
		if m, ok := toObject(raw); ok {
			return m, nil
		}
	case TypeArray:
		return coerceList(items, raw)
	}
	return nil, fmt.Errorf("expected %s, got %s", typ, describe(raw))
}

// Integers must fit int64. Strings are read as base 10 only.
func toInteger(raw any) (any, error) {
	switch v := raw.(type) {
	case bool:
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("expected integer, got string %q", v)
		}
		return n, nil
	case float64:
		return floatToInteger(v)
	case float32:
		return floatToInteger(float64(v))
	case uint:
		return uintToInteger(uint64(v))
	case uint64:
		return uintToInteger(v)
	default:
		if n, err := cast.ToInt64E(raw); err == nil {
			return n, nil
		}
	}
	return nil, fmt.Errorf("expected integer, got %s", describe(raw))
}

func floatToInteger(f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil, fmt.Errorf("expected integer, got fractional number %v", f)
	}
	if f < -(1<<63) || f >= 1<<63 {
		return nil, fmt.Errorf("integer %v out of range", f)
	}
	return int64(f), nil
}

func uintToInteger(u uint64) (any, error) {
	if u > math.MaxInt64 {
		return nil, fmt.Errorf("integer %d out of range", u)
	}
	return int64(u), nil
}

// Numbers must be finite so they survive JSON encoding.
func toNumber(raw any) (any, error) {
	if _, isBool := raw.(bool); isBool {
		return nil, fmt.Errorf("expected number, got %s", describe(raw))
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil {
		return nil, fmt.Errorf("expected number, got %s", describe(raw))
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("expected finite number, got %v", raw)
	}
	return f, nil
}

// toObject accepts maps with string keys, including the map[any]any form YAML decoders produce.
func toObject(raw any) (map[string]any, bool) {
	if m, ok := raw.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Map {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k := iter.Key()
		if k.Kind() == reflect.Interface {
			k = k.Elem()
		}
		if k.Kind() != reflect.String {
			return nil, false
		}
		out[k.String()] = iter.Value().Interface()
	}
	return out, true
}

func coerceList(items FieldType, raw any) (any, error) {
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("expected array, got %s", describe(raw))
	}
	if _, isBytes := raw.([]byte); isBytes {
		return nil, fmt.Errorf("expected array, got %s", describe(raw))
	}
	out := make([]any, rv.Len())
	for i := range out {
		e := rv.Index(i).Interface()
		if e == nil {
			out[i] = nil
			continue
		}
		v, err := coerceTo(items, TypeString, e)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func describe(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "number"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	}
	return fmt.Sprintf("%T", v)
}
