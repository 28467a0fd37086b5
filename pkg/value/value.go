// Package value is the in-memory JSON model shared by the workbench.
//
// Objects decoded by pkg/loader are *Object values, which remember key
// insertion order. Plain map[string]any values are accepted everywhere too;
// their keys are visited in sorted order so output stays deterministic.
package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Object is a JSON object that keeps keys in insertion order.
type Object = orderedmap.OrderedMap[string, any]

// NewObject returns an empty ordered object.
func NewObject() *Object {
	return orderedmap.New[string, any]()
}

// ObjectOf builds an ordered object from alternating key/value arguments.
// It panics on an odd argument count or a non-string key, so keys should be
// literals.
func ObjectOf(kv ...any) *Object {
	if len(kv)%2 != 0 {
		panic("value.ObjectOf: odd number of arguments")
	}
	obj := NewObject()
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("value.ObjectOf: key %v is not a string", kv[i]))
		}
		obj.Set(key, kv[i+1])
	}
	return obj
}

// Kind is the JSON type of a value.
type Kind string

const (
	KindObject  Kind = "object"
	KindArray   Kind = "array"
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindNull    Kind = "null"
)

// KindOf classifies v. nil is checked before the container cases so a nil
// map or slice is still null.
func KindOf(v any) Kind {
	if v == nil {
		return KindNull
	}
	switch t := v.(type) {
	case *Object:
		if t == nil {
			return KindNull
		}
		return KindObject
	case map[string]any:
		if t == nil {
			return KindNull
		}
		return KindObject
	case []any:
		if t == nil {
			return KindNull
		}
		return KindArray
	case string:
		return KindString
	case bool:
		return KindBoolean
	}
	if _, ok := ToFloat(v); ok {
		return KindNumber
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() { //nolint:exhaustive // only containers matter past this point
	case reflect.Map:
		if rv.IsNil() {
			return KindNull
		}
		return KindObject
	case reflect.Slice:
		if rv.IsNil() {
			return KindNull
		}
		return KindArray
	case reflect.Array:
		return KindArray
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return KindNull
		}
		return KindOf(rv.Elem().Interface())
	}
	return KindString
}

// IsObject reports whether v is a JSON object.
func IsObject(v any) bool { return KindOf(v) == KindObject }

// IsArray reports whether v is a JSON array.
func IsArray(v any) bool { return KindOf(v) == KindArray }

// IsContainer reports whether v is an object or an array.
func IsContainer(v any) bool {
	k := KindOf(v)
	return k == KindObject || k == KindArray
}

// Entry is one key/value pair of an object.
type Entry struct {
	Key   string
	Value any
}

// Entries returns the members of an object in enumeration order: insertion
// order for *Object, sorted keys for Go maps. ok is false for non-objects.
func Entries(v any) ([]Entry, bool) {
	switch t := v.(type) {
	case *Object:
		if t == nil {
			return nil, false
		}
		out := make([]Entry, 0, t.Len())
		for pair := t.Oldest(); pair != nil; pair = pair.Next() {
			out = append(out, Entry{Key: pair.Key, Value: pair.Value})
		}
		return out, true
	case map[string]any:
		if t == nil {
			return nil, false
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]Entry, 0, len(keys))
		for _, k := range keys {
			out = append(out, Entry{Key: k, Value: t[k]})
		}
		return out, true
	}

	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Map || rv.IsNil() {
		return nil, false
	}
	out := make([]Entry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out = append(out, Entry{Key: fmt.Sprint(iter.Key().Interface()), Value: iter.Value().Interface()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, true
}

// Elements returns the items of an array. ok is false for non-arrays.
func Elements(v any) ([]any, bool) {
	if arr, ok := v.([]any); ok {
		return arr, arr != nil
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, false
	}
	switch rv.Kind() { //nolint:exhaustive // only sequences are arrays
	case reflect.Slice:
		if rv.IsNil() {
			return nil, false
		}
	case reflect.Array:
	default:
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// ToFloat converts any Go numeric value to float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// FormatNumber renders f the way ECMAScript's Number#toString does:
// integers without a fraction, exponent form outside [1e-6, 1e21).
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mant, exp, _ := strings.Cut(s, "e")
		sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")
		if digits == "" {
			digits = "0"
		}
		return mant + "e" + sign + digits
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// String renders a scalar the way String(x) would in a browser; objects and
// arrays render as compact JSON.
func String(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format(time.RFC3339Nano)
	}
	if f, ok := ToFloat(v); ok {
		return FormatNumber(f)
	}
	if KindOf(v) == KindNull {
		return "null"
	}
	if IsContainer(v) {
		if b, err := Marshal(v); err == nil {
			return string(b)
		}
	}
	return fmt.Sprint(v)
}

// Marshal encodes v as compact JSON, keeping object key order.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// MarshalIndent encodes v as two-space indented JSON.
func MarshalIndent(v any) ([]byte, error) {
	compact, err := Marshal(v)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", "  "); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// ToPlain returns a deep copy of v in which ordered objects are replaced by
// map[string]any, for collaborators that only understand Go maps.
func ToPlain(v any) any {
	if entries, ok := Entries(v); ok {
		out := make(map[string]any, len(entries))
		for _, e := range entries {
			out[e.Key] = ToPlain(e.Value)
		}
		return out
	}
	if items, ok := Elements(v); ok {
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = ToPlain(item)
		}
		return out
	}
	return v
}

// Normalize converts decoder output into the workbench model: maps become
// *Object with sorted keys, every number becomes float64, times become
// RFC 3339 strings.
func Normalize(v any) any {
	switch t := v.(type) {
	case nil, string, bool, float64:
		return v
	case *Object:
		out := NewObject()
		for pair := t.Oldest(); pair != nil; pair = pair.Next() {
			out.Set(pair.Key, Normalize(pair.Value))
		}
		return out
	case time.Time:
		return t.Format(time.RFC3339Nano)
	}
	if f, ok := ToFloat(v); ok {
		return f
	}
	if entries, ok := Entries(v); ok {
		out := NewObject()
		for _, e := range entries {
			out.Set(e.Key, Normalize(e.Value))
		}
		return out
	}
	if items, ok := Elements(v); ok {
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = Normalize(item)
		}
		return out
	}
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return v
}

// Ref identifies a container instance for cycle detection.
type Ref struct {
	ptr uintptr
	n   int
}

// Identity returns the identity of an object or non-empty array. Scalars
// and empty arrays have none because they cannot close a cycle.
func Identity(v any) (Ref, bool) {
	if v == nil {
		return Ref{}, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() { //nolint:exhaustive // only reference kinds can form cycles
	case reflect.Map, reflect.Ptr:
		if rv.IsNil() {
			return Ref{}, false
		}
		return Ref{ptr: rv.Pointer()}, true
	case reflect.Slice:
		if rv.Len() == 0 {
			return Ref{}, false
		}
		return Ref{ptr: rv.Pointer(), n: rv.Len()}, true
	}
	return Ref{}, false
}
