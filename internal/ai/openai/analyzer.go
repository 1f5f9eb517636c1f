package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/songzhibin97/tokensim/internal/ai"
	"github.com/songzhibin97/tokensim/internal/engine"
)

// OpenAIAnalyzer implements the Analyzer interface using any OpenAI compatible chat API
type OpenAIAnalyzer struct {
	client *openai.Client
	model  string
}

// NewOpenAIAnalyzer creates a new analyzer. An empty baseURL targets api.openai.com.
func NewOpenAIAnalyzer(apiKey, baseURL, model string) *OpenAIAnalyzer {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if model == "" {
		model = openai.GPT4o // 默认使用GPT-4o
	}
	return &OpenAIAnalyzer{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// SummarizeSimulation implements the Analyzer interface
func (a *OpenAIAnalyzer) SummarizeSimulation(ctx context.Context, sim *engine.Simulation) (*ai.Summary, error) {
	prompt, err := ai.BuildPrompt(sim)
	if err != nil {
		return nil, err
	}

	resp, err := a.createChatCompletion(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize simulation: %w", err)
	}

	return ai.ParseSummary(resp)
}

// createChatCompletion is a helper function to make chat API calls
func (a *OpenAIAnalyzer) createChatCompletion(ctx context.Context, prompt string) (string, error) {
	resp, err := a.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: a.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: ai.SystemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3, // 使用较低的temperature以获得更稳定的输出
		},
	)
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}

	return resp.Choices[0].Message.Content, nil
}

var _ ai.Analyzer = (*OpenAIAnalyzer)(nil)
