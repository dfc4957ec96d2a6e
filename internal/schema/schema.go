// Package schema builds JSON schemas from Go structs and validates values
// against JSON schemas. Tool arguments and structured model responses share
// these helpers.
package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/kaptinlin/jsonschema"
)

// ValidationError reports a value that does not satisfy its schema.
type ValidationError struct {
	Schema  string `json:"schema,omitempty"` // Schema title or owner (tool / format name)
	Message string `json:"message"`          // Validator output
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if e.Schema == "" {
		return fmt.Sprintf("schema validation failed: %s", e.Message)
	}
	return fmt.Sprintf("schema validation failed for %s: %s", e.Schema, e.Message)
}

// Validator is a compiled schema. It is safe for concurrent use.
type Validator struct {
	name   string
	schema *jsonschema.Schema
}

// Compile compiles a JSON schema expressed as a Go map. name labels
// validation errors.
func Compile(name string, s map[string]any) (*Validator, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal schema %s: %w", name, err)
	}
	compiled, err := jsonschema.NewCompiler().Compile(raw)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return &Validator{name: name, schema: compiled}, nil
}

// Validate checks value against the compiled schema.
func (v *Validator) Validate(value any) error {
	result := v.schema.Validate(value)
	if result.IsValid() {
		return nil
	}
	return &ValidationError{Schema: v.name, Message: fmt.Sprintf("%v", result.Error())}
}

// FromStruct creates a JSON schema from a Go struct using reflection.
// Exported fields become properties named after their json tag; fields that
// are neither pointers nor omitempty are required. A "description" struct tag
// is copied into the property schema.
func FromStruct(structType any) map[string]any {
	t := reflect.TypeOf(structType)
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t == nil || t.Kind() != reflect.Struct {
		return map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		}
	}

	properties := make(map[string]any)
	required := make([]string, 0)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		fieldName := field.Name
		if jsonTag != "" {
			parts := strings.Split(jsonTag, ",")
			if parts[0] != "" {
				fieldName = parts[0]
			}
		}

		fieldSchema := map[string]any{
			"type": jsonType(field.Type),
		}

		if description := field.Tag.Get("description"); description != "" {
			fieldSchema["description"] = description
		}

		properties[fieldName] = fieldSchema

		if !hasOmitEmpty(jsonTag) && field.Type.Kind() != reflect.Ptr {
			required = append(required, fieldName)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}

	if len(required) > 0 {
		schema["required"] = required
	}

	return schema
}

// jsonType returns the JSON schema type for a given Go type.
func jsonType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Ptr:
		return jsonType(t.Elem())
	default:
		return "string"
	}
}

// hasOmitEmpty checks if a JSON tag has the "omitempty" option.
func hasOmitEmpty(tag string) bool {
	parts := strings.Split(tag, ",")
	for _, part := range parts[1:] {
		if strings.TrimSpace(part) == "omitempty" {
			return true
		}
	}
	return false
}
