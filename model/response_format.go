package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hupe1980/agentgraph/internal/schema"
)

// ResponseFormat requests a structured response matching Schema.
type ResponseFormat struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Schema      map[string]any `json:"schema" yaml:"schema"`
	Strict      bool           `json:"strict,omitempty" yaml:"strict,omitempty"`
}

// NewResponseFormatFromStruct derives the schema from a Go struct.
func NewResponseFormatFromStruct(name string, structType any) *ResponseFormat {
	return &ResponseFormat{Name: name, Schema: schema.FromStruct(structType)}
}

// Parse decodes raw JSON (optionally wrapped in a markdown code fence) and
// validates it against the schema.
func (f ResponseFormat) Parse(raw string) (any, error) {
	var value any
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &value); err != nil {
		return nil, fmt.Errorf("decode structured response %s: %w", f.Name, err)
	}
	if err := f.Validate(value); err != nil {
		return nil, err
	}
	return value, nil
}

// Validate checks an already decoded value against the schema.
func (f ResponseFormat) Validate(value any) error {
	if len(f.Schema) == 0 {
		return nil
	}
	v, err := schema.Compile(f.Name, f.Schema)
	if err != nil {
		return err
	}
	return v.Validate(value)
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
