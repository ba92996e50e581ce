package generator

import (
	"context"

	"google.golang.org/genai"

	"github.com/conneroisu/jsxlive/internal/config"
	jsxerrors "github.com/conneroisu/jsxlive/internal/errors"
)

// Gemini talks to the Gemini API.
type Gemini struct {
	client *genai.Client
	cfg    config.GeneratorConfig
}

// NewGemini creates a Gemini generator.
func NewGemini(ctx context.Context, cfg config.GeneratorConfig) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, jsxerrors.NewGeneratorError(jsxerrors.ErrCodeGeneratorFailed,
			"failed to create gemini client", err)
	}

	return &Gemini{client: client, cfg: cfg}, nil
}

// Name implements Generator.
func (g *Gemini) Name() string { return config.ProviderGemini }

// Generate implements Generator.
func (g *Gemini) Generate(ctx context.Context, req Request) (*Result, error) {
	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	var contents []*genai.Content
	for _, turn := range recentHistory(req.History) {
		role := genai.Role(genai.RoleUser)
		if turn.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(userPrompt(req), genai.RoleUser))

	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr(float32(g.cfg.Temperature)),
	}
	if g.cfg.MaxTokens > 0 {
		genCfg.MaxOutputTokens = int32(g.cfg.MaxTokens)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.cfg.Model, contents, genCfg)
	if err != nil {
		return nil, jsxerrors.NewGeneratorError(jsxerrors.ErrCodeGeneratorFailed,
			"gemini request failed", err).WithContext("model", g.cfg.Model)
	}

	return finish(g.Name(), resp.Text(), req.Current)
}
