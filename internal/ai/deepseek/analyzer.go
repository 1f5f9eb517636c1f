package deepseek

import (
	"github.com/songzhibin97/tokensim/internal/ai/openai"
)

const (
	defaultAPIEndpoint = "https://api.deepseek.com/v1"
	defaultModel       = "deepseek-chat"
)

// NewDeepSeekAnalyzer creates an analyzer backed by the DeepSeek chat API,
// which speaks the OpenAI wire format.
func NewDeepSeekAnalyzer(apiKey, endpoint, model string) *openai.OpenAIAnalyzer {
	if endpoint == "" {
		endpoint = defaultAPIEndpoint
	}
	if model == "" {
		model = defaultModel
	}
	return openai.NewOpenAIAnalyzer(apiKey, endpoint, model)
}
