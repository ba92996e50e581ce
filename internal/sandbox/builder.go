// Package sandbox assembles the self-contained documents the preview iframe
// executes: runtime libraries, the component stylesheet, the normalized
// component source, the resolver/invoker harness and the interaction
// instrumentation.
//
// Building is pure string assembly: the same component and options always
// produce the same document.
package sandbox

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"strings"
	"text/template"

	"github.com/conneroisu/jsxlive/internal/mockdata"
	"github.com/conneroisu/jsxlive/internal/normalize"
	"github.com/conneroisu/jsxlive/internal/protocol"
	"github.com/conneroisu/jsxlive/internal/resolve"
	"github.com/conneroisu/jsxlive/internal/types"
)

// DefaultRuntimeScripts are the pinned React, ReactDOM and Babel builds.
var DefaultRuntimeScripts = []string{
	"https://unpkg.com/react@18.3.1/umd/react.production.min.js",
	"https://unpkg.com/react-dom@18.3.1/umd/react-dom.production.min.js",
	"https://unpkg.com/@babel/standalone@7.26.4/babel.min.js",
}

// InspectedStyles are the computed style properties reported with every
// selection.
var InspectedStyles = []string{
	"backgroundColor", "color", "fontSize", "fontWeight", "fontFamily",
	"lineHeight", "textAlign", "padding", "margin", "borderRadius",
	"borderWidth", "borderStyle", "borderColor", "width", "height", "display",
}

// Marker classes applied inside the sandbox.
const (
	SelectableClass = "preview-selectable"
	SelectedClass   = "preview-selected"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_$][\w$]*$`)

// Options are the display options that affect a build.
type Options struct {
	ShowGrid   bool
	Generation string
}

// Document is one built sandbox document.
type Document struct {
	Generation    string
	HTML          string
	ComponentName string
	Detector      string
	// Empty is set when there was no component source to render.
	Empty bool
	// Steps lists the normalization steps that changed the source.
	Steps []string
}

// Builder builds sandbox documents.
type Builder struct {
	normalizer     *normalize.Pipeline
	resolver       *resolve.Chain
	props          *mockdata.PropSet
	runtimeScripts []string
	page           *template.Template
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithRuntimeScripts replaces the runtime library URLs.
func WithRuntimeScripts(urls ...string) BuilderOption {
	return func(b *Builder) {
		if len(urls) > 0 {
			b.runtimeScripts = append([]string(nil), urls...)
		}
	}
}

// WithProps replaces the placeholder props.
func WithProps(props *mockdata.PropSet) BuilderOption {
	return func(b *Builder) {
		if props != nil {
			b.props = props
		}
	}
}

// WithResolver replaces the component name detectors.
func WithResolver(chain *resolve.Chain) BuilderOption {
	return func(b *Builder) {
		if chain != nil {
			b.resolver = chain
		}
	}
}

// WithNormalizer replaces the normalization pipeline.
func WithNormalizer(p *normalize.Pipeline) BuilderOption {
	return func(b *Builder) {
		if p != nil {
			b.normalizer = p
		}
	}
}

// NewBuilder creates a builder with the default pipeline, detectors,
// placeholder props and runtime scripts.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		normalizer:     normalize.New(),
		resolver:       resolve.NewChain(),
		props:          mockdata.Defaults(),
		runtimeScripts: append([]string(nil), DefaultRuntimeScripts...),
	}
	for _, opt := range opts {
		opt(b)
	}

	b.page = template.Must(template.New("page").Funcs(template.FuncMap{
		"json": toJSON,
	}).Parse(pageTemplate))

	return b
}

type pageData struct {
	Title           string
	Generation      string
	RuntimeScripts  []string
	PageStyle       string
	CSS             string
	AffordanceStyle string
	Empty           bool
	Source          string
	ComponentName   string
	PropsJSON       string
	Callbacks       []string
	InspectedStyles []string
	SelectableClass string
	SelectedClass   string
	Limits          protocol.Limits
}

// Build assembles the document for component.
func (b *Builder) Build(component types.GeneratedComponent, opts Options) (Document, error) {
	doc := Document{
		Generation: opts.Generation,
		Empty:      component.IsEmpty(),
	}

	data := pageData{
		Title:           "jsxlive preview",
		Generation:      opts.Generation,
		PageStyle:       pageStyle(opts.ShowGrid),
		CSS:             escapeStyle(component.CSS),
		AffordanceStyle: affordanceStyle,
		Empty:           doc.Empty,
		SelectableClass: SelectableClass,
		SelectedClass:   SelectedClass,
		Limits:          protocol.PayloadLimits,
	}

	if !doc.Empty {
		source, steps := b.normalizer.NormalizeWithTrace(component.JSX)
		doc.Steps = steps

		if name, detector, ok := b.resolver.Detect(source); ok && identifierRe.MatchString(name) {
			doc.ComponentName = name
			doc.Detector = detector
			data.Title = name + " - jsxlive preview"
		}

		propsJSON, err := b.props.JSON()
		if err != nil {
			return Document{}, err
		}

		data.RuntimeScripts = b.runtimeScripts
		data.Source = escapeScript(source)
		data.ComponentName = doc.ComponentName
		data.PropsJSON = escapeScript(propsJSON)
		data.Callbacks = b.props.Callbacks()
		if data.Callbacks == nil {
			data.Callbacks = []string{}
		}
		data.InspectedStyles = InspectedStyles
	}

	data.Title = html.EscapeString(data.Title)

	var buf bytes.Buffer
	if err := b.page.Execute(&buf, data); err != nil {
		return Document{}, fmt.Errorf("failed to render sandbox document: %w", err)
	}
	doc.HTML = buf.String()

	return doc, nil
}

// RuntimeScripts returns the configured runtime library URLs.
func (b *Builder) RuntimeScripts() []string {
	return append([]string(nil), b.runtimeScripts...)
}

func pageStyle(showGrid bool) string {
	if showGrid {
		return gridPageStyle
	}

	return plainPageStyle
}

var (
	styleCloseRe  = regexp.MustCompile(`(?i)</style`)
	scriptCloseRe = regexp.MustCompile(`(?i)</script`)
)

// escapeStyle keeps stylesheet text from closing the style element early.
func escapeStyle(css string) string {
	return styleCloseRe.ReplaceAllString(css, `<\/style`)
}

// escapeScript keeps inline script text from closing the script element
// early or opening an HTML comment.
func escapeScript(src string) string {
	src = scriptCloseRe.ReplaceAllStringFunc(src, func(m string) string {
		return `<\/` + m[2:]
	})

	return strings.ReplaceAll(src, "<!--", `<\!--`)
}

func toJSON(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}

	return escapeScript(string(data)), nil
}
