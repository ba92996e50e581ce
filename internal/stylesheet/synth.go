// Package stylesheet rewrites machine-authored CSS text in response to
// property edits made on a selected element.
//
// Rules are matched by their exact class selector with a small tokenizer
// that understands comments, strings and nested blocks; there is no full
// CSS parser. Only the first rule for a class is ever mutated.
package stylesheet

import (
	"regexp"
	"strings"
)

// pixelProperties take a px suffix when given a bare number.
var pixelProperties = map[string]bool{
	"font-size":     true,
	"padding":       true,
	"margin":        true,
	"border-radius": true,
	"border-width":  true,
	"width":         true,
	"height":        true,
}

var bareNumberRe = regexp.MustCompile(`^-?(?:\d+\.?\d*|\.\d+)$`)

// KebabCase converts a logical property name such as fontSize into its CSS
// declaration name. Names that are already kebab-case pass through.
func KebabCase(property string) string {
	property = strings.TrimSpace(property)

	var b strings.Builder
	for i, r := range property {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r + ('a' - 'A'))

			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}

// FormatValue formats rawValue for the given property: bare numbers get a
// px suffix for size-like properties, everything else is kept verbatim.
func FormatValue(property, rawValue string) string {
	value := strings.TrimSpace(rawValue)
	if pixelProperties[KebabCase(property)] && bareNumberRe.MatchString(value) {
		return value + "px"
	}

	return value
}

// Declaration returns the CSS declaration name and formatted value.
func Declaration(property, rawValue string) (string, string) {
	return KebabCase(property), FormatValue(property, rawValue)
}

// Apply sets property to rawValue for the rule `.className` in css.
//
// An empty stylesheet becomes a single new rule. Otherwise the first rule
// whose selector is exactly `.className` is updated in place, or has the
// declaration appended; if no such rule exists a new one is appended at the
// end. Applying the same edit twice yields the same text as applying it once.
//
// An empty rawValue removes the declaration from the rule, if present.
// A truncated stylesheet is closed first, so the edit never lands inside an
// unterminated string, comment or block.
func Apply(css, className, property, rawValue string) string {
	name, value := Declaration(property, rawValue)
	className = strings.TrimPrefix(strings.TrimSpace(className), ".")
	if name == "" || className == "" {
		return css
	}
	css = closeOpen(css)

	if strings.TrimSpace(css) == "" {
		if value == "" {
			return css
		}

		return newRule(className, name, value)
	}

	rule, ok := FindRule(css, className)
	if !ok {
		if value == "" {
			return css
		}

		return strings.TrimRight(css, " \t\r\n") + "\n\n" + newRule(className, name, value)
	}

	body := setDeclaration(rule.Body, name, value)

	return css[:rule.Open+1] + body + css[rule.Close:]
}

// Declarations returns the declarations of the first `.className` rule.
// Later duplicates of a property win, as they would in the browser.
func Declarations(css, className string) map[string]string {
	rule, ok := FindRule(css, strings.TrimPrefix(className, "."))
	if !ok {
		return nil
	}

	out := make(map[string]string)
	for _, d := range parseDeclarations(rule.Body) {
		if d.Name != "" {
			out[d.Name] = d.Value
		}
	}

	return out
}

func newRule(className, name, value string) string {
	return "." + className + " {\n  " + name + ": " + value + ";\n}"
}

// setDeclaration rewrites a rule body so it declares name exactly once.
// The first existing declaration is replaced in place and any later
// duplicates are dropped; a missing declaration is appended.
func setDeclaration(body, name, value string) string {
	decls := parseDeclarations(body)

	var matches []declaration
	for _, d := range decls {
		if d.Name == name {
			matches = append(matches, d)
		}
	}

	if len(matches) == 0 {
		if value == "" {
			return body
		}

		return appendDeclaration(body, name, value)
	}

	// Edit back to front so earlier offsets stay valid.
	for i := len(matches) - 1; i >= 1; i-- {
		body = removeDeclaration(body, matches[i])
	}

	first := matches[0]
	if value == "" {
		return removeDeclaration(body, first)
	}

	return body[:first.Start] + name + ": " + value + body[first.End:]
}

func removeDeclaration(body string, d declaration) string {
	end := d.End
	if d.Semi >= 0 {
		end = d.Semi + 1
	}

	return body[:d.segStart] + body[end:]
}

func appendDeclaration(body, name, value string) string {
	trimmed := strings.TrimRight(body, " \t\r\n")

	var b strings.Builder
	b.WriteString(trimmed)
	if strings.TrimSpace(trimmed) != "" && !strings.HasSuffix(trimmed, ";") {
		b.WriteByte(';')
	}
	b.WriteString("\n  ")
	b.WriteString(name)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteString(";\n")

	return b.String()
}
