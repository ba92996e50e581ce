//go:build property

package stylesheet

import (
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var (
	genProperty = gen.OneConstOf(
		"backgroundColor", "color", "fontSize", "padding", "margin",
		"borderRadius", "borderWidth", "borderColor", "width", "height",
		"textAlign", "fontWeight",
	)
	genRawValue = gen.OneGenOf(
		gen.IntRange(0, 400).Map(strconv.Itoa),
		gen.OneConstOf("auto", "center", "bold", "#ff0000", "rgb(1, 2, 3)", "50%"),
	)
	genStylesheet = gen.OneConstOf(
		"",
		".box { padding: 4px; }",
		".card {\n  color: red;\n}\n.box {\n  margin: 0;\n  margin: 2px;\n}",
		"@media (max-width: 600px) { .box { color: blue; } }",
		"/* generated */\n.title { font-size: 12px }",
		".card { color: red;",
		".box { padding: 4px;",
		"@media (max-width: 600px) { .box { color: blue;",
		".title { content: \"abc",
		".title { content: 'a\\",
		"/* open comment\n.box { margin: 0; }",
		".box { margin: 0; } }",
		"}{",
	)
)

func TestApplyProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	parameters.Rng.Seed(4242)

	properties := gopter.NewProperties(parameters)

	properties.Property("applying an edit twice equals applying it once", prop.ForAll(
		func(css, className, property, raw string) bool {
			once := Apply(css, className, property, raw)

			return Apply(once, className, property, raw) == once
		},
		genStylesheet,
		gen.Identifier(),
		genProperty,
		genRawValue,
	))

	properties.Property("the edited class declares the property exactly once", prop.ForAll(
		func(css, property, raw string) bool {
			out := Apply(css, "box", property, raw)
			name, value := Declaration(property, raw)

			rule, ok := FindRule(out, "box")
			if !ok {
				return false
			}

			count := 0
			for _, d := range parseDeclarations(rule.Body) {
				if d.Name == name {
					count++
					if d.Value != value {
						return false
					}
				}
			}

			return count == 1
		},
		genStylesheet,
		genProperty,
		genRawValue,
	))

	properties.TestingRun(t)
}
