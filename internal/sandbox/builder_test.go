package sandbox

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/jsxlive/internal/mockdata"
	"github.com/conneroisu/jsxlive/internal/protocol"
	"github.com/conneroisu/jsxlive/internal/types"
)

const productCard = `import React from 'react';

export default function ProductCard({ title }) {
  return <div className="product-card"><h2>{title}</h2></div>;
}`

func TestBuildEmptyComponent(t *testing.T) {
	b := NewBuilder()

	tests := []struct {
		name      string
		component types.GeneratedComponent
	}{
		{name: "no source", component: types.GeneratedComponent{}},
		{name: "whitespace only", component: types.GeneratedComponent{JSX: "  \n\t"}},
		{name: "css without jsx", component: types.GeneratedComponent{CSS: ".card { color: red; }"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := b.Build(tt.component, Options{Generation: "g1"})
			require.NoError(t, err)
			assert.True(t, doc.Empty)
			assert.Empty(t, doc.ComponentName)

			report, err := Inspect(doc.HTML)
			require.NoError(t, err)
			assert.Equal(t, "empty", report.Placeholder)
			assert.Zero(t, report.BabelScripts)
			assert.Zero(t, report.PlainScripts)
			assert.Empty(t, report.RuntimeScripts)
			assert.True(t, report.HasRoot)
			assert.Contains(t, doc.HTML, "Component Preview")
			assert.Contains(t, doc.HTML, "Start a conversation with AI to generate your component")
			if tt.component.CSS != "" {
				assert.Contains(t, doc.HTML, tt.component.CSS)
			}
		})
	}
}

func TestBuildComponent(t *testing.T) {
	b := NewBuilder()
	component := types.GeneratedComponent{
		JSX: productCard,
		CSS: ".product-card { padding: 16px; }",
	}

	doc, err := b.Build(component, Options{Generation: "01J0GEN"})
	require.NoError(t, err)

	assert.False(t, doc.Empty)
	assert.Equal(t, "ProductCard", doc.ComponentName)
	assert.Equal(t, "function", doc.Detector)
	assert.Equal(t, "01J0GEN", doc.Generation)
	assert.Contains(t, doc.Steps, "strip-imports")
	assert.Contains(t, doc.Steps, "strip-exports")

	report, err := Inspect(doc.HTML)
	require.NoError(t, err)
	assert.Equal(t, DefaultRuntimeScripts, report.RuntimeScripts)
	assert.Equal(t, 1, report.BabelScripts)
	assert.Equal(t, 1, report.PlainScripts)
	assert.Equal(t, "01J0GEN", report.Generation)
	assert.Equal(t, "ProductCard - jsxlive preview", report.Title)
	assert.True(t, report.HasRoot)
	require.Len(t, report.Styles, 1)
	assert.Contains(t, report.Styles[0], ".product-card { padding: 16px; }")
	assert.Contains(t, report.Styles[0], ".preview-selectable")
	assert.Contains(t, report.Styles[0], ".preview-selected")

	assert.NotContains(t, doc.HTML, "import React")
	assert.NotContains(t, doc.HTML, "export default")
	assert.Contains(t, doc.HTML, "function ProductCard({ title })")
	assert.Contains(t, doc.HTML, "typeof ProductCard === 'function' ? ProductCard : null")
	assert.Contains(t, doc.HTML, `var generation = "01J0GEN";`)
}

func TestBuildIsDeterministic(t *testing.T) {
	b := NewBuilder()
	component := types.GeneratedComponent{JSX: productCard, CSS: ".product-card {}"}
	opts := Options{Generation: "g", ShowGrid: true}

	first, err := b.Build(component, opts)
	require.NoError(t, err)
	second, err := b.Build(component, opts)
	require.NoError(t, err)

	assert.Equal(t, first.HTML, second.HTML)
}

func TestBuildGridOption(t *testing.T) {
	b := NewBuilder()
	component := types.GeneratedComponent{JSX: productCard}

	withGrid, err := b.Build(component, Options{ShowGrid: true})
	require.NoError(t, err)
	withoutGrid, err := b.Build(component, Options{})
	require.NoError(t, err)

	assert.Contains(t, withGrid.HTML, "radial-gradient")
	assert.Contains(t, withGrid.HTML, "background-size: 20px 20px")
	assert.NotContains(t, withoutGrid.HTML, "radial-gradient")
}

func TestBuildArrowComponent(t *testing.T) {
	b := NewBuilder()
	src := "const Widget = ({label}) => <button>{label}</button>;"

	doc, err := b.Build(types.GeneratedComponent{JSX: src}, Options{})
	require.NoError(t, err)

	assert.Equal(t, "Widget", doc.ComponentName)
	assert.Contains(t, doc.HTML, "function Widget(props) {\n  const {label} = props;\n  return <button>{label}</button>;\n}")
	assert.Contains(t, doc.Steps, "arrow-components")
}

func TestBuildUnresolvedComponent(t *testing.T) {
	b := NewBuilder()

	doc, err := b.Build(types.GeneratedComponent{JSX: "const x = 1;"}, Options{})
	require.NoError(t, err)

	assert.False(t, doc.Empty)
	assert.Empty(t, doc.ComponentName)
	assert.Contains(t, doc.HTML, "var __jsxliveResolved = null;")
	assert.Contains(t, doc.HTML, "Component could not be rendered")
	assert.Contains(t, doc.HTML, "runtime.announceReady()")
}

func TestBuildEscapesEmbeddedClosers(t *testing.T) {
	b := NewBuilder()
	component := types.GeneratedComponent{
		JSX: "function Card() { const s = '</script><b>'; return <div>{s}</div>; }",
		CSS: ".card::after { content: '</style>'; }",
	}

	doc, err := b.Build(component, Options{})
	require.NoError(t, err)

	report, err := Inspect(doc.HTML)
	require.NoError(t, err)
	assert.Equal(t, 1, report.BabelScripts)
	require.Len(t, report.Styles, 1)
	assert.Contains(t, report.Styles[0], `<\/style>`)
	assert.Contains(t, doc.HTML, `'<\/script><b>'`)
}

func TestBuildPlaceholderProps(t *testing.T) {
	props := mockdata.Defaults()
	props.Set("title", "Custom Title")
	props.AddCallback("onSubmit")
	b := NewBuilder(WithProps(props), WithRuntimeScripts("/static/react.js"))

	doc, err := b.Build(types.GeneratedComponent{JSX: productCard}, Options{})
	require.NoError(t, err)

	assert.Contains(t, doc.HTML, `"title":"Custom Title"`)
	assert.Contains(t, doc.HTML, `"onSubmit"`)
	assert.Equal(t, []string{"/static/react.js"}, b.RuntimeScripts())

	report, err := Inspect(doc.HTML)
	require.NoError(t, err)
	assert.Equal(t, []string{"/static/react.js"}, report.RuntimeScripts)
}

func TestInstrumentationScript(t *testing.T) {
	b := NewBuilder()

	doc, err := b.Build(types.GeneratedComponent{JSX: productCard}, Options{Generation: "g"})
	require.NoError(t, err)

	for _, want := range []string{
		"document.addEventListener('click'",
		"var target = event.target;",
		"event.preventDefault();",
		"event.stopPropagation();",
		"type: 'ELEMENT_SELECTED'",
		"data.type === 'CLEAR_SELECTION'",
		"type: 'PREVIEW_READY'",
		"type: 'PREVIEW_ERROR'",
		"addEventListener('unhandledrejection'",
		"error: clip(describeError(err, fallback), limits.error)",
		"message.stack = clip(err.stack, limits.stack)",
		"className: runtime.clip(className, runtime.limits.className)",
		fmt.Sprintf(`"error":%d`, protocol.PayloadLimits.Error),
		fmt.Sprintf(`"stack":%d`, protocol.PayloadLimits.Stack),
	} {
		assert.Contains(t, doc.HTML, want)
	}

	for _, prop := range InspectedStyles {
		assert.Contains(t, doc.HTML, `"`+prop+`"`)
	}

	plain := strings.Index(doc.HTML, "window.__jsxlive = {")
	babel := strings.Index(doc.HTML, `type="text/babel"`)
	require.NotEqual(t, -1, plain)
	require.NotEqual(t, -1, babel)
	assert.Less(t, plain, babel)
}
