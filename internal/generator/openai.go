package generator

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/conneroisu/jsxlive/internal/config"
	jsxerrors "github.com/conneroisu/jsxlive/internal/errors"
)

// OpenAI talks to the Chat Completions API. With a base URL it serves any
// compatible endpoint, including a local Ollama.
type OpenAI struct {
	client openai.Client
	cfg    config.GeneratorConfig
}

// NewOpenAI creates a Chat Completions generator.
func NewOpenAI(cfg config.GeneratorConfig) *OpenAI {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &OpenAI{client: openai.NewClient(opts...), cfg: cfg}
}

// Name implements Generator.
func (g *OpenAI) Name() string {
	if g.cfg.Provider == "" {
		return config.ProviderOpenAI
	}

	return g.cfg.Provider
}

// Generate implements Generator.
func (g *OpenAI) Generate(ctx context.Context, req Request) (*Result, error) {
	messages := []openai.ChatCompletionMessageParamUnion{openai.SystemMessage(SystemPrompt)}
	for _, turn := range recentHistory(req.History) {
		if turn.Role == RoleAssistant {
			messages = append(messages, openai.AssistantMessage(turn.Content))
		} else {
			messages = append(messages, openai.UserMessage(turn.Content))
		}
	}
	messages = append(messages, openai.UserMessage(userPrompt(req)))

	params := openai.ChatCompletionNewParams{
		Model:       g.cfg.Model,
		Messages:    messages,
		Temperature: openai.Float(g.cfg.Temperature),
	}
	if g.cfg.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(g.cfg.MaxTokens))
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, jsxerrors.NewGeneratorError(jsxerrors.ErrCodeGeneratorFailed,
			g.Name()+" request failed", err).WithContext("model", g.cfg.Model)
	}
	if len(resp.Choices) == 0 {
		return nil, jsxerrors.NewGeneratorError(jsxerrors.ErrCodeEmptyResponse,
			g.Name()+" returned no choices", nil)
	}

	return finish(g.Name(), resp.Choices[0].Message.Content, req.Current)
}
