// Package generator turns chat turns into components. A provider sends the
// conversation to a language model and the reply is mined for one jsx and one
// css fenced block.
package generator

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/conneroisu/jsxlive/internal/config"
	jsxerrors "github.com/conneroisu/jsxlive/internal/errors"
	"github.com/conneroisu/jsxlive/internal/types"
)

// Roles of a conversation turn.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// historyWindow caps how many earlier turns are sent with a request.
const historyWindow = 10

// SystemPrompt instructs the model to answer in the shape Extract reads.
const SystemPrompt = `You are an expert React developer who builds single, self-contained UI components.

Answer every request with:
1. One or two sentences describing what you built or changed.
2. Exactly one fenced code block tagged jsx containing a complete function component.
3. Exactly one fenced code block tagged css containing all styles for it.

Rules for the component:
- Define it as a named function component (for example "function PricingCard(props)").
- Use React hooks through the React global (React.useState), no other libraries.
- Style with className and the css block only; every styled element gets a descriptive class.
- Make it responsive and accessible, with hover and focus states.
- When a current component is provided, modify it instead of starting over.`

// Turn is one earlier message of the conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one generation request.
type Request struct {
	Prompt  string
	History []Turn
	Current types.GeneratedComponent
}

// Result is the model reply and the component it produced.
type Result struct {
	Reply     string
	Component types.GeneratedComponent
	// Changed is false when the reply carried no component code.
	Changed bool
}

// Generator produces components from chat requests.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req Request) (*Result, error)
}

// New creates the generator for cfg. It returns nil, nil when no provider is
// configured.
func New(ctx context.Context, cfg config.GeneratorConfig) (Generator, error) {
	switch cfg.Provider {
	case config.ProviderNone:
		return nil, nil
	case config.ProviderOpenAI:
		if cfg.APIKey == "" {
			cfg.APIKey = os.Getenv("OPENAI_API_KEY")
		}

		return NewOpenAI(cfg), nil
	case config.ProviderOllama:
		if cfg.APIKey == "" {
			cfg.APIKey = "ollama"
		}

		return NewOpenAI(cfg), nil
	case config.ProviderGemini:
		if cfg.APIKey == "" {
			cfg.APIKey = firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY")
		}

		return NewGemini(ctx, cfg)
	default:
		return nil, jsxerrors.NewConfigError(jsxerrors.ErrCodeConfigInvalid,
			fmt.Sprintf("unknown generator provider %q", cfg.Provider))
	}
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}

	return ""
}

// userPrompt folds the current component into the prompt text.
func userPrompt(req Request) string {
	if req.Current.IsEmpty() {
		return req.Prompt
	}

	var b strings.Builder
	b.WriteString("Current component:\n\n```jsx\n")
	b.WriteString(strings.TrimSpace(req.Current.JSX))
	b.WriteString("\n```\n\n```css\n")
	b.WriteString(strings.TrimSpace(req.Current.CSS))
	b.WriteString("\n```\n\nRequest: ")
	b.WriteString(req.Prompt)

	return b.String()
}

func recentHistory(history []Turn) []Turn {
	if len(history) > historyWindow {
		return history[len(history)-historyWindow:]
	}

	return history
}

// finish builds the result for reply. A reply without a css block keeps the
// previous stylesheet.
func finish(provider, reply string, current types.GeneratedComponent) (*Result, error) {
	if strings.TrimSpace(reply) == "" {
		return nil, jsxerrors.NewGeneratorError(jsxerrors.ErrCodeEmptyResponse,
			provider+" returned an empty reply", nil)
	}

	extracted := Extract(reply)
	result := &Result{Reply: reply, Component: current}
	if extracted.JSX == "" {
		return result, nil
	}

	result.Changed = true
	result.Component = types.GeneratedComponent{
		JSX:          extracted.JSX,
		CSS:          current.CSS,
		LastModified: time.Now(),
	}
	if extracted.CSS != "" {
		result.Component.CSS = extracted.CSS
	}

	return result, nil
}
