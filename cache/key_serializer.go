package cache

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// KeySeparator defines the delimiter used between cache key segments.
const KeySeparator = "::"

// defaultKeySerializer renders each argument by kind. Keys are stable across
// runs except for functions and channels, which are rendered by address.
type defaultKeySerializer struct{}

// NewDefaultKeySerializer creates a new instance of the default key serializer.
func NewDefaultKeySerializer() KeySerializer {
	return defaultKeySerializer{}
}

// SerializeKey joins method and the rendered args with KeySeparator.
func (s defaultKeySerializer) SerializeKey(method string, args ...any) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, method)
	for _, arg := range args {
		parts = append(parts, s.value(reflect.ValueOf(arg)))
	}
	return strings.Join(parts, KeySeparator)
}

func (s defaultKeySerializer) value(v reflect.Value) string {
	if !v.IsValid() {
		return "nil"
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return "nil"
		}
		return s.value(v.Elem())
	case reflect.Func, reflect.Chan:
		if v.IsNil() {
			return "nil"
		}
		return fmt.Sprintf("%s:%#x", v.Kind(), v.Pointer())
	case reflect.Slice:
		if v.IsNil() {
			return "slice:nil"
		}
		return "slice" + s.elements(v)
	case reflect.Array:
		return "array" + s.elements(v)
	case reflect.Map:
		if v.IsNil() {
			return "map:nil"
		}
		return s.mapValue(v)
	case reflect.Struct:
		return s.jsonValue(v)
	default:
		return fmt.Sprint(v.Interface())
	}
}

func (s defaultKeySerializer) elements(v reflect.Value) string {
	parts := make([]string, v.Len())
	for i := range parts {
		parts[i] = s.value(v.Index(i))
	}
	return fmt.Sprintf("[%d]:{%s}", len(parts), strings.Join(parts, ","))
}

func (s defaultKeySerializer) mapValue(v reflect.Value) string {
	pairs := make([]string, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		pairs = append(pairs, s.value(iter.Key())+"="+s.value(iter.Value()))
	}
	sort.Strings(pairs)
	return fmt.Sprintf("map[%d]:{%s}", len(pairs), strings.Join(pairs, ","))
}

func (s defaultKeySerializer) jsonValue(v reflect.Value) string {
	if !v.CanInterface() {
		return "struct:" + v.Type().String()
	}
	data, err := json.Marshal(v.Interface())
	if err != nil {
		return "struct:" + v.Type().String()
	}
	return "json:" + string(data)
}
