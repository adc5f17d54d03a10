package utils

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/asaidimu/go-tableview/core/schema"
)

// StructToRecord converts a struct into a flat Record.
//
// The struct is marshaled to JSON, so `json` tags name the fields and
// omitempty is honored, and the result is flattened: nested structs become
// delimiter-joined keys. Because of the JSON round trip numbers come back as
// float64 and times as RFC 3339 strings.
//
// Example:
//
//	type Account struct {
//		Name string `json:"Name"`
//	}
//	type Opportunity struct {
//		ID      string  `json:"Id"`
//		Account Account `json:"Account"`
//	}
//	r, err := StructToRecord(Opportunity{ID: "001", Account: Account{Name: "Acme"}}, "")
//	// r is schema.Record{"Id": "001", "Account.Name": "Acme"}
func StructToRecord[T any](record T, delimiter string) (schema.Record, error) {
	val := reflect.ValueOf(record)
	if !val.IsValid() {
		return nil, fmt.Errorf("input record cannot be nil")
	}
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil, fmt.Errorf("input record cannot be a nil pointer to a struct")
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil, fmt.Errorf("input record must be a struct or a pointer to a struct, got %s", val.Kind())
	}

	jsonBytes, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("StructToRecord: failed to marshal input record to JSON: %w", err)
	}
	var nested map[string]any
	if err := json.Unmarshal(jsonBytes, &nested); err != nil {
		return nil, fmt.Errorf("StructToRecord: failed to unmarshal JSON to map: %w", err)
	}
	return schema.Flatten(nested, delimiter), nil
}

// RecordToStruct is the inverse of StructToRecord: delimiter-joined keys are
// nested again and the result is decoded into a new T.
func RecordToStruct[T any](record schema.Record, delimiter string) (T, error) {
	var zero T
	if record == nil {
		return zero, fmt.Errorf("RecordToStruct: input record cannot be nil")
	}

	typ := reflect.TypeOf(zero)
	if typ != nil && typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ == nil || typ.Kind() != reflect.Struct {
		return zero, fmt.Errorf("RecordToStruct: generic type T must be a struct type (or pointer to struct)")
	}

	nested, err := Unflatten(record, delimiter)
	if err != nil {
		return zero, fmt.Errorf("RecordToStruct: %w", err)
	}
	jsonBytes, err := json.Marshal(nested)
	if err != nil {
		return zero, fmt.Errorf("RecordToStruct: failed to marshal record to JSON: %w", err)
	}

	var result T
	if err := json.Unmarshal(jsonBytes, &result); err != nil {
		return zero, fmt.Errorf("RecordToStruct: failed to unmarshal JSON to target struct: %w", err)
	}
	return result, nil
}

// Unflatten rebuilds nested objects from delimiter-joined keys. It fails when a
// key is used both as a value and as a parent, e.g. "a" and "a.b".
func Unflatten(record schema.Record, delimiter string) (map[string]any, error) {
	if delimiter == "" {
		delimiter = schema.DefaultDelimiter
	}
	out := make(map[string]any, len(record))
	// Sorted keys make the conflict reported deterministic.
	for _, key := range record.Fields() {
		parts := strings.Split(key, delimiter)
		node := out
		for i, part := range parts[:len(parts)-1] {
			child, exists := node[part]
			if !exists {
				next := make(map[string]any)
				node[part] = next
				node = next
				continue
			}
			next, ok := child.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("key %q conflicts with value at %q", key, strings.Join(parts[:i+1], delimiter))
			}
			node = next
		}
		leaf := parts[len(parts)-1]
		if _, exists := node[leaf]; exists {
			return nil, fmt.Errorf("key %q conflicts with a nested object", key)
		}
		node[leaf] = record[key]
	}
	return out, nil
}
