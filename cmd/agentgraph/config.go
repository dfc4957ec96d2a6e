package main

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/agentgraph/internal/tracing"
)

// Config is the YAML pipeline file.
type Config struct {
	Name           string              `yaml:"name"`
	SystemPrompt   string              `yaml:"system_prompt"`
	Model          ModelConfig         `yaml:"model"`
	Tools          []ToolConfig        `yaml:"tools"`
	Middleware     []MiddlewareConfig  `yaml:"middleware"`
	ResponseFormat *ResponseFormatSpec `yaml:"response_format"`
	Runner         RunnerConfig        `yaml:"runner"`
	Logger         LoggerConfig        `yaml:"logger"`
	Tracer         tracing.Config      `yaml:"tracer"`
}

// ModelConfig selects a provider and model.
type ModelConfig struct {
	Provider    string  `yaml:"provider"` // openai, anthropic or mock
	Name        string  `yaml:"name"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int64   `yaml:"max_tokens"`
	APIKey      string  `yaml:"api_key"` // expanded from the environment
}

// ToolConfig enables a built-in tool.
type ToolConfig struct {
	Name         string `yaml:"name"`
	ReturnDirect bool   `yaml:"return_direct"`
}

// MiddlewareConfig declares one built-in middleware.
type MiddlewareConfig struct {
	Type      string         `yaml:"type"` // model_call_limit, dynamic_model, prompt_template
	Name      string         `yaml:"name"`
	MaxCalls  int            `yaml:"max_calls"`
	Threshold int            `yaml:"threshold"`
	Complex   *ModelConfig   `yaml:"complex"`
	Template  string         `yaml:"template"`
	Vars      map[string]any `yaml:"vars"`
}

// ResponseFormatSpec requests structured output.
type ResponseFormatSpec struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Schema      map[string]any `yaml:"schema"`
	Strict      bool           `yaml:"strict"`
}

// RunnerConfig bounds a run.
type RunnerConfig struct {
	MaxSteps    int `yaml:"max_steps"`
	MaxParallel int `yaml:"max_parallel_tools"`
}

// LoggerConfig configures structured logging.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults returns the configuration used for unset fields.
func Defaults() *Config {
	return &Config{
		Name:   "agent",
		Model:  ModelConfig{Provider: "mock", Temperature: 0.7, MaxTokens: 4096},
		Runner: RunnerConfig{MaxSteps: 50, MaxParallel: 4},
		Logger: LoggerConfig{Level: "info", Format: "text"},
		Tracer: tracing.Config{Exporter: "noop"},
	}
}

// Load reads a pipeline file, applies environment overrides and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a pipeline file from memory.
func Parse(data []byte) (*Config, error) {
	cfg := Defaults()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	ApplyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnvOverrides lets AGENTGRAPH_* variables override file settings and
// expands environment references in API keys.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("AGENTGRAPH_MODEL_PROVIDER"); v != "" {
		cfg.Model.Provider = v
	}
	if v := os.Getenv("AGENTGRAPH_MODEL_NAME"); v != "" {
		cfg.Model.Name = v
	}
	if v := os.Getenv("AGENTGRAPH_LOGGER_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("AGENTGRAPH_TRACER_ENABLED"); v == "true" {
		cfg.Tracer.Enabled = true
	}
	if v := os.Getenv("AGENTGRAPH_TRACER_EXPORTER"); v != "" {
		cfg.Tracer.Exporter = v
	}

	cfg.Model.APIKey = os.ExpandEnv(cfg.Model.APIKey)
	for i := range cfg.Middleware {
		if c := cfg.Middleware[i].Complex; c != nil {
			c.APIKey = os.ExpandEnv(c.APIKey)
		}
	}
}

// ValidationError accumulates config validation errors.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return "config validation failed:\n  - " + strings.Join(v.Errors, "\n  - ")
}

// HasErrors reports whether any validation errors have been recorded.
func (v *ValidationError) HasErrors() bool { return len(v.Errors) > 0 }

// Add records a formatted validation error.
func (v *ValidationError) Add(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

var (
	providers       = []string{"openai", "anthropic", "mock"}
	middlewareTypes = []string{"model_call_limit", "dynamic_model", "prompt_template"}
)

// Validate checks cfg for structural correctness. Pipeline topology problems
// (duplicate names, unknown jump targets) are reported later by the assembler.
func Validate(cfg *Config) error {
	ve := &ValidationError{}

	validateModel("model", cfg.Model, ve)

	for i, t := range cfg.Tools {
		if !slices.Contains(builtinToolNames(), t.Name) {
			ve.Add("tools[%d]: unknown tool %q (available: %s)", i, t.Name, strings.Join(builtinToolNames(), ", "))
		}
	}

	for i, mw := range cfg.Middleware {
		field := fmt.Sprintf("middleware[%d]", i)
		if !slices.Contains(middlewareTypes, mw.Type) {
			ve.Add("%s: unknown type %q", field, mw.Type)
			continue
		}
		switch mw.Type {
		case "model_call_limit":
			if mw.MaxCalls < 1 {
				ve.Add("%s: max_calls must be >= 1", field)
			}
		case "dynamic_model":
			if mw.Complex == nil {
				ve.Add("%s: complex model is required", field)
			} else {
				validateModel(field+".complex", *mw.Complex, ve)
			}
		case "prompt_template":
			if mw.Template == "" {
				ve.Add("%s: template is required", field)
			}
		}
	}

	if rf := cfg.ResponseFormat; rf != nil {
		if rf.Name == "" {
			ve.Add("response_format: name is required")
		}
		if len(rf.Schema) == 0 {
			ve.Add("response_format: schema is required")
		}
	}

	if cfg.Runner.MaxSteps < 0 {
		ve.Add("runner.max_steps must be >= 0")
	}

	switch cfg.Logger.Format {
	case "text", "json":
	default:
		ve.Add("logger.format must be text or json, got %q", cfg.Logger.Format)
	}

	if ve.HasErrors() {
		return ve
	}
	return nil
}

func validateModel(field string, m ModelConfig, ve *ValidationError) {
	if !slices.Contains(providers, m.Provider) {
		ve.Add("%s.provider: unknown provider %q (available: %s)", field, m.Provider, strings.Join(providers, ", "))
	}
	if m.Temperature < 0 || m.Temperature > 2 {
		ve.Add("%s.temperature must be within [0, 2]", field)
	}
}
