package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/jsxlive/internal/types"
)

func fieldValues(p Panel) map[string]string {
	out := make(map[string]string, len(p.Fields))
	for _, f := range p.Fields {
		out[f.Property] = f.Value
	}

	return out
}

func TestPanelValues(t *testing.T) {
	tests := []struct {
		name   string
		sel    types.SelectedElement
		target string
		want   map[string]string
	}{
		{
			name: "computed styles",
			sel: types.SelectedElement{
				TagName:   "BUTTON",
				ClassName: "btn primary",
				ComputedStyles: types.StyleMap{
					"backgroundColor": "rgb(59, 130, 246)",
					"color":           "rgba(255, 255, 255, 1)",
					"fontSize":        "14.5px",
					"padding":         "0px",
					"borderRadius":    "6px",
					"textAlign":       "center",
					"fontWeight":      "600",
					"width":           "auto",
					"height":          "40px",
				},
			},
			target: ".btn",
			want: map[string]string{
				"backgroundColor": "#3b82f6",
				"color":           "#ffffff",
				"fontSize":        "14",
				"padding":         "0",
				"borderRadius":    "6",
				"textAlign":       "center",
				"fontWeight":      "600",
				"width":           "auto",
				"height":          "40",
				"margin":          "0",
				"borderWidth":     "0",
				"borderColor":     "#000000",
			},
		},
		{
			name: "defaults",
			sel: types.SelectedElement{
				TagName: "SPAN",
				ComputedStyles: types.StyleMap{
					"backgroundColor": "rgba(0, 0, 0, 0)",
				},
			},
			want: map[string]string{
				"backgroundColor": "#ffffff",
				"color":           "#000000",
				"fontSize":        "16",
				"padding":         "8",
				"margin":          "0",
				"borderRadius":    "4",
				"borderWidth":     "0",
				"borderColor":     "#000000",
				"width":           "auto",
				"height":          "auto",
				"textAlign":       "left",
				"fontWeight":      "normal",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			panel := PanelValues(tt.sel)
			assert.Equal(t, tt.want, fieldValues(panel))
			assert.Equal(t, tt.target, panel.Target)
			assert.Equal(t, tt.target != "", panel.Editable)
		})
	}
}

func TestPanelFieldRanges(t *testing.T) {
	panel := PanelValues(types.SelectedElement{TagName: "DIV", ClassName: "box"})

	byName := make(map[string]Field)
	for _, f := range panel.Fields {
		byName[f.Property] = f
	}

	require.Contains(t, byName, "fontSize")
	assert.Equal(t, FieldRange, byName["fontSize"].Kind)
	assert.Equal(t, 8, byName["fontSize"].Min)
	assert.Equal(t, 72, byName["fontSize"].Max)
	assert.Len(t, byName["textAlign"].Choices, 4)
	assert.Equal(t, "div", panel.TagName)
}

func TestElementPrompt(t *testing.T) {
	sel := types.SelectedElement{TagName: "BUTTON", ClassName: "cta"}

	got := ElementPrompt(sel, "  make it larger ")

	assert.Equal(t, `Update the button element with className "cta" to: make it larger`, got)
}
