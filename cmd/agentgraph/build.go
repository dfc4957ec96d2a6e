package main

import (
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hupe1980/agentgraph/agent"
	"github.com/hupe1980/agentgraph/logging"
	"github.com/hupe1980/agentgraph/middleware"
	"github.com/hupe1980/agentgraph/model"
	anthropicmodel "github.com/hupe1980/agentgraph/model/anthropic"
	openaimodel "github.com/hupe1980/agentgraph/model/openai"
)

func buildModel(c ModelConfig) (model.Model, error) {
	switch c.Provider {
	case "openai":
		var clientOpts []option.RequestOption
		if c.APIKey != "" {
			clientOpts = append(clientOpts, option.WithAPIKey(c.APIKey))
		}
		client := openai.NewClient(clientOpts...)
		return openaimodel.NewModelFromClient(&client, func(o *openaimodel.Options) {
			if c.Name != "" {
				o.Model = c.Name
			}
			o.Temperature = c.Temperature
			if c.MaxTokens > 0 {
				o.MaxCompletionTokens = c.MaxTokens
			}
		}), nil
	case "anthropic":
		return anthropicmodel.NewModel(func(o *anthropicmodel.Options) {
			if c.Name != "" {
				o.Model = anthropic.Model(c.Name)
			}
			o.Temperature = c.Temperature
			if c.MaxTokens > 0 {
				o.MaxTokens = c.MaxTokens
			}
			o.APIKey = c.APIKey
		}), nil
	case "mock":
		name := c.Name
		if name == "" {
			name = "mock"
		}
		return model.NewMockStructuredModel(name, "mock"), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", c.Provider)
	}
}

func buildMiddleware(cfgs []MiddlewareConfig, llm model.Model) ([]agent.Middleware, error) {
	out := make([]agent.Middleware, 0, len(cfgs))
	for i, c := range cfgs {
		name := c.Name
		if name == "" {
			name = fmt.Sprintf("%s_%d", c.Type, i)
		}

		switch c.Type {
		case "model_call_limit":
			out = append(out, middleware.NewModelCallLimit(name, c.MaxCalls))
		case "dynamic_model":
			complexModel, err := buildModel(*c.Complex)
			if err != nil {
				return nil, fmt.Errorf("middleware %s: %w", name, err)
			}
			out = append(out, middleware.NewDynamicModel(name, llm, complexModel, c.Threshold))
		case "prompt_template":
			pt, err := middleware.NewPromptTemplate(name, c.Template, c.Vars)
			if err != nil {
				return nil, err
			}
			out = append(out, pt)
		default:
			return nil, fmt.Errorf("middleware %s: unknown type %q", name, c.Type)
		}
	}
	return out, nil
}

func buildPipeline(cfg *Config, logger logging.Logger) (*agent.Pipeline, error) {
	llm, err := buildModel(cfg.Model)
	if err != nil {
		return nil, err
	}

	tools, err := buildTools(cfg.Tools, logger)
	if err != nil {
		return nil, err
	}

	mws, err := buildMiddleware(cfg.Middleware, llm)
	if err != nil {
		return nil, err
	}

	var rf *model.ResponseFormat
	if spec := cfg.ResponseFormat; spec != nil {
		rf = &model.ResponseFormat{
			Name:        spec.Name,
			Description: spec.Description,
			Schema:      spec.Schema,
			Strict:      spec.Strict,
		}
	}

	return agent.Assemble(llm, func(o *agent.Options) {
		o.Name = cfg.Name
		o.SystemPrompt = cfg.SystemPrompt
		o.Tools = tools
		o.Middleware = mws
		o.ResponseFormat = rf
		o.MaxParallelTools = cfg.Runner.MaxParallel
		o.Logger = logger
	})
}

func buildLogger(c LoggerConfig) (logging.Logger, error) {
	level, err := logging.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewSlogLogger(level, c.Format, false), nil
}
