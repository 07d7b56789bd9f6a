// Package advisor answers questions about the farm through an LLM,
// primed with the current save state and recent diary history.
package advisor

import (
	"context"
	"fmt"

	"github.com/cexll/agentsdk-go/pkg/api"
	"github.com/cexll/agentsdk-go/pkg/model"

	"github.com/ryanckelly/farmhand/internal/config"
)

// Runtime is the slice of the agent runtime the advisor needs; tests
// substitute a fake.
type Runtime interface {
	Run(ctx context.Context, req api.Request) (*api.Response, error)
	Close()
}

type runtimeWrapper struct {
	rt *api.Runtime
}

func (r *runtimeWrapper) Run(ctx context.Context, req api.Request) (*api.Response, error) {
	return r.rt.Run(ctx, req)
}

func (r *runtimeWrapper) Close() {
	r.rt.Close()
}

// RuntimeFactory creates a Runtime with the given system prompt.
type RuntimeFactory func(cfg *config.Config, systemPrompt string) (Runtime, error)

// DefaultRuntimeFactory builds the real agentsdk-go runtime with the
// provider selected in config.
func DefaultRuntimeFactory(cfg *config.Config, systemPrompt string) (Runtime, error) {
	if cfg.Advisor.Provider.APIKey == "" {
		return nil, fmt.Errorf("API key not set. Run 'farmhand onboard' or set FARMHAND_API_KEY / ANTHROPIC_API_KEY")
	}

	var provider api.ModelFactory
	switch cfg.Advisor.Provider.Type {
	case "openai":
		provider = &model.OpenAIProvider{
			APIKey:    cfg.Advisor.Provider.APIKey,
			BaseURL:   cfg.Advisor.Provider.BaseURL,
			ModelName: cfg.Advisor.Model,
			MaxTokens: cfg.Advisor.MaxTokens,
		}
	default:
		provider = &model.AnthropicProvider{
			APIKey:    cfg.Advisor.Provider.APIKey,
			BaseURL:   cfg.Advisor.Provider.BaseURL,
			ModelName: cfg.Advisor.Model,
			MaxTokens: cfg.Advisor.MaxTokens,
		}
	}

	rt, err := api.New(context.Background(), api.Options{
		ProjectRoot:  cfg.Paths.DataDir,
		ModelFactory: provider,
		SystemPrompt: systemPrompt,
	})
	if err != nil {
		return nil, fmt.Errorf("create runtime: %w", err)
	}
	return &runtimeWrapper{rt: rt}, nil
}

// Advisor holds a running runtime for one CLI invocation.
type Advisor struct {
	rt Runtime
}

// New builds an advisor from the factory; pass nil for the default.
func New(cfg *config.Config, systemPrompt string, factory RuntimeFactory) (*Advisor, error) {
	if factory == nil {
		factory = DefaultRuntimeFactory
	}
	rt, err := factory(cfg, systemPrompt)
	if err != nil {
		return nil, err
	}
	return &Advisor{rt: rt}, nil
}

// Ask sends one question and returns the model's answer.
func (a *Advisor) Ask(ctx context.Context, question string) (string, error) {
	resp, err := a.rt.Run(ctx, api.Request{
		Prompt:    question,
		SessionID: "farmhand-advisor",
	})
	if err != nil {
		return "", fmt.Errorf("advisor: %w", err)
	}
	if resp == nil || resp.Result == nil {
		return "", nil
	}
	return resp.Result.Output, nil
}

// Close releases the underlying runtime.
func (a *Advisor) Close() {
	a.rt.Close()
}
