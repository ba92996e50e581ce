package generator

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

	transcriptPolicy = func() *bluemonday.Policy {
		p := bluemonday.UGCPolicy()
		p.AllowAttrs("class").Matching(regexp.MustCompile(`^language-[\w-]+$`)).OnElements("code")

		return p
	}()
)

var fenceLanguages = map[string]string{
	"jsx":        "jsx",
	"tsx":        "jsx",
	"js":         "jsx",
	"javascript": "jsx",
	"react":      "jsx",
	"css":        "css",
	"json":       "json",
}

// Extracted holds the code blocks found in a reply.
type Extracted struct {
	JSX string
	CSS string
}

// Extract pulls the first jsx-like and the first css fenced block out of a
// markdown reply. Replies without fences may carry a JSON object with jsx and
// css fields instead.
func Extract(reply string) Extracted {
	src := []byte(reply)
	doc := markdown.Parser().Parse(text.NewReader(src))

	var out Extracted
	var jsonBlocks []string

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		block, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		kind := fenceLanguages[strings.ToLower(string(block.Language(src)))]
		body := blockText(block, src)
		switch {
		case kind == "jsx" && out.JSX == "":
			out.JSX = body
		case kind == "css" && out.CSS == "":
			out.CSS = body
		case kind == "json":
			jsonBlocks = append(jsonBlocks, body)
		}

		return ast.WalkSkipChildren, nil
	})

	if out.JSX != "" {
		return out
	}

	for _, candidate := range append(jsonBlocks, reply) {
		if parsed, ok := extractJSON(candidate); ok {
			if out.CSS != "" && parsed.CSS == "" {
				parsed.CSS = out.CSS
			}

			return parsed
		}
	}

	return out
}

func blockText(block *ast.FencedCodeBlock, src []byte) string {
	var buf bytes.Buffer
	lines := block.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}

	return strings.TrimSpace(buf.String())
}

func extractJSON(s string) (Extracted, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return Extracted{}, false
	}

	var payload struct {
		JSX string `json:"jsx"`
		CSS string `json:"css"`
	}
	if err := json.Unmarshal([]byte(s[start:end+1]), &payload); err != nil {
		return Extracted{}, false
	}
	if strings.TrimSpace(payload.JSX) == "" {
		return Extracted{}, false
	}

	return Extracted{JSX: strings.TrimSpace(payload.JSX), CSS: strings.TrimSpace(payload.CSS)}, true
}

// RenderMarkdown renders an assistant reply as sanitized HTML for the
// transcript.
func RenderMarkdown(reply string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(reply), &buf); err != nil {
		return "", err
	}

	return string(transcriptPolicy.SanitizeBytes(buf.Bytes())), nil
}
