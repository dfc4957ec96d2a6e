package middleware

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/hupe1980/agentgraph/agent"
	"github.com/hupe1980/agentgraph/model"
)

// PromptTemplate renders the system prompt of every model request from a
// text/template. The template sees:
//
//	.SystemPrompt   the prompt of the incoming request
//	.Values         middleware-declared state values
//	.MessageCount   transcript length
//	.Vars           static variables given at construction
type PromptTemplate struct {
	agent.Base
	name string
	tmpl *template.Template
	vars map[string]any
}

// PromptData is the template input.
type PromptData struct {
	SystemPrompt string
	Values       map[string]any
	MessageCount int
	Vars         map[string]any
}

// NewPromptTemplate parses text and returns the middleware.
func NewPromptTemplate(name, text string, vars map[string]any) (*PromptTemplate, error) {
	tmpl, err := template.New(name).Funcs(funcMap).Option("missingkey=zero").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template %s: %w", name, err)
	}
	return &PromptTemplate{name: name, tmpl: tmpl, vars: vars}, nil
}

var funcMap = template.FuncMap{
	"default": func(defaultVal any, val any) any {
		if val == nil || val == "" {
			return defaultVal
		}
		return val
	},
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
	"title": func(s string) string {
		if len(s) == 0 {
			return s
		}
		return strings.ToUpper(string(s[0])) + strings.ToLower(s[1:])
	},
	"join": func(sep string, items []any) string {
		strItems := make([]string, len(items))
		for i, item := range items {
			strItems[i] = fmt.Sprintf("%v", item)
		}
		return strings.Join(strItems, sep)
	},
}

// Name implements agent.Middleware.
func (m *PromptTemplate) Name() string { return m.name }

// Capabilities implements agent.Middleware.
func (m *PromptTemplate) Capabilities() agent.Capabilities {
	return agent.Capabilities{Hooks: agent.HookModifyModelRequest}
}

// Render executes the template for a request and state.
func (m *PromptTemplate) Render(req model.Request, state agent.State) (string, error) {
	var buf bytes.Buffer
	err := m.tmpl.Execute(&buf, PromptData{
		SystemPrompt: req.SystemPrompt,
		Values:       state.Values,
		MessageCount: len(state.Messages),
		Vars:         m.vars,
	})
	if err != nil {
		return "", fmt.Errorf("render prompt template %s: %w", m.name, err)
	}
	return buf.String(), nil
}

// ModifyModelRequest implements agent.Middleware.
func (m *PromptTemplate) ModifyModelRequest(_ context.Context, req model.Request, state agent.State) (model.Request, error) {
	prompt, err := m.Render(req, state)
	if err != nil {
		return model.Request{}, err
	}
	return req.WithSystemPrompt(prompt), nil
}
