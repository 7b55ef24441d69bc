// Copyright (c) Microsoft. All rights reserved.

package agentframework

import (
	"encoding/json"
	"reflect"
	"strconv"
	"strings"
)

// SchemaFor derives a JSON Schema for T from its json and jsonschema struct
// tags. Supported jsonschema keys: description, required, enum (values
// separated by |), minimum, maximum. A description may contain commas as
// long as no comma is followed by one of those keys.
func SchemaFor[T any]() json.RawMessage {
	t := reflect.TypeOf((*T)(nil)).Elem()
	b, _ := json.Marshal(schemaOf(t))
	return b
}

func schemaOf(t reflect.Type) map[string]any {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Bool:
		return map[string]any{"type": "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]any{"type": "integer"}
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}
	case reflect.Slice, reflect.Array:
		return map[string]any{"type": "array", "items": schemaOf(t.Elem())}
	case reflect.Map:
		s := map[string]any{"type": "object"}
		if t.Key().Kind() == reflect.String {
			s["additionalProperties"] = schemaOf(t.Elem())
		}
		return s
	case reflect.Struct:
		return structSchema(t)
	default:
		return map[string]any{"type": "string"}
	}
}

func structSchema(t reflect.Type) map[string]any {
	props := map[string]any{}
	var required []string

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, skip := jsonName(f)
		if skip {
			continue
		}
		prop := schemaOf(f.Type)
		for _, part := range splitSchemaTag(f.Tag.Get("jsonschema")) {
			key, val, _ := strings.Cut(strings.TrimSpace(part), "=")
			switch key {
			case "description":
				prop["description"] = val
			case "required":
				required = append(required, name)
			case "enum":
				var vals []any
				for _, v := range strings.Split(val, "|") {
					vals = append(vals, strings.TrimSpace(v))
				}
				prop["enum"] = vals
			case "minimum", "maximum":
				if n, err := strconv.ParseFloat(val, 64); err == nil {
					prop[key] = n
				}
			}
		}
		props[name] = prop
	}

	s := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

var schemaTagKeys = []string{"description", "required", "enum", "minimum", "maximum"}

// splitSchemaTag splits a jsonschema tag at commas that start a known key,
// so descriptions may contain commas.
func splitSchemaTag(tag string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(tag); i++ {
		if tag[i] == ',' && startsWithKey(strings.TrimLeft(tag[i+1:], " ")) {
			parts = append(parts, tag[start:i])
			start = i + 1
		}
	}
	return append(parts, tag[start:])
}

func startsWithKey(s string) bool {
	for _, k := range schemaTagKeys {
		if rest, ok := strings.CutPrefix(s, k); ok && (rest == "" || rest[0] == '=' || rest[0] == ',') {
			return true
		}
	}
	return false
}

func jsonName(f reflect.StructField) (string, bool) {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", true
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		name = f.Name
	}
	return name, false
}
