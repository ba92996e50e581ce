package bridge

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/conneroisu/jsxlive/internal/stylesheet"
	"github.com/conneroisu/jsxlive/internal/types"
)

// FieldKind selects the editor control for a panel field.
type FieldKind string

const (
	FieldColor  FieldKind = "color"
	FieldRange  FieldKind = "range"
	FieldSelect FieldKind = "select"
	FieldText   FieldKind = "text"
)

// Choice is one option of a select field.
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Field is one editable property in the panel.
type Field struct {
	Property string    `json:"property"`
	Label    string    `json:"label"`
	Kind     FieldKind `json:"kind"`
	Value    string    `json:"value"`
	Min      int       `json:"min,omitempty"`
	Max      int       `json:"max,omitempty"`
	Choices  []Choice  `json:"choices,omitempty"`
}

// Panel holds the editor defaults for the selected element.
type Panel struct {
	TagName     string  `json:"tagName"`
	ClassName   string  `json:"className"`
	Target      string  `json:"target,omitempty"`
	Editable    bool    `json:"editable"`
	TextContent string  `json:"textContent,omitempty"`
	Fields      []Field `json:"fields"`
}

type fieldSpec struct {
	property string
	label    string
	kind     FieldKind
	fallback string
	min, max int
	choices  []Choice
}

var panelFields = []fieldSpec{
	{property: "backgroundColor", label: "Background", kind: FieldColor, fallback: "#ffffff"},
	{property: "color", label: "Text Color", kind: FieldColor, fallback: "#000000"},
	{property: "fontSize", label: "Font Size", kind: FieldRange, fallback: "16", min: 8, max: 72},
	{property: "fontWeight", label: "Font Weight", kind: FieldSelect, fallback: "normal", choices: []Choice{
		{"normal", "Normal"}, {"bold", "Bold"}, {"lighter", "Light"},
		{"100", "100"}, {"400", "400"}, {"600", "600"}, {"700", "700"}, {"900", "900"},
	}},
	{property: "textAlign", label: "Text Align", kind: FieldSelect, fallback: "left", choices: []Choice{
		{"left", "Left"}, {"center", "Center"}, {"right", "Right"}, {"justify", "Justify"},
	}},
	{property: "padding", label: "Padding", kind: FieldRange, fallback: "8", min: 0, max: 100},
	{property: "margin", label: "Margin", kind: FieldRange, fallback: "0", min: 0, max: 100},
	{property: "borderRadius", label: "Border Radius", kind: FieldRange, fallback: "4", min: 0, max: 50},
	{property: "borderWidth", label: "Border Width", kind: FieldRange, fallback: "0", min: 0, max: 10},
	{property: "borderColor", label: "Border Color", kind: FieldColor, fallback: "#000000"},
	{property: "width", label: "Width", kind: FieldText, fallback: "auto"},
	{property: "height", label: "Height", kind: FieldText, fallback: "auto"},
}

// PanelValues converts the computed styles of sel into editor defaults:
// colors become #rrggbb and lengths lose their unit.
func PanelValues(sel types.SelectedElement) Panel {
	panel := Panel{
		TagName:     strings.ToLower(sel.TagName),
		ClassName:   sel.ClassName,
		TextContent: sel.TextContent,
		Fields:      make([]Field, 0, len(panelFields)),
	}
	if class := sel.PrimaryClass(); class != "" {
		panel.Target = "." + class
		panel.Editable = true
	}

	for _, spec := range panelFields {
		panel.Fields = append(panel.Fields, Field{
			Property: spec.property,
			Label:    spec.label,
			Kind:     spec.kind,
			Value:    fieldValue(spec, sel.ComputedStyles[spec.property]),
			Min:      spec.min,
			Max:      spec.max,
			Choices:  spec.choices,
		})
	}

	return panel
}

func fieldValue(spec fieldSpec, computed string) string {
	computed = strings.TrimSpace(computed)

	switch spec.kind {
	case FieldColor:
		if hex, ok := stylesheet.RGBToHex(computed); ok {
			return hex
		}
	case FieldRange:
		if n, ok := stylesheet.LeadingInt(computed); ok {
			return strconv.Itoa(n)
		}
	case FieldSelect:
		if computed != "" {
			return computed
		}
	case FieldText:
		if computed == "auto" {
			return "auto"
		}
		if n, ok := stylesheet.LeadingInt(computed); ok {
			return strconv.Itoa(n)
		}
	}

	return spec.fallback
}

// ElementPrompt scopes a free-form instruction to the selected element.
func ElementPrompt(sel types.SelectedElement, instruction string) string {
	return fmt.Sprintf("Update the %s element with className %q to: %s",
		strings.ToLower(sel.TagName), sel.ClassName, strings.TrimSpace(instruction))
}
