// Package mockdata supplies the representative placeholder props a resolved
// component is invoked with in the preview sandbox.
package mockdata

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// PlaceholderImage is an inline SVG so previews never fetch images.
const PlaceholderImage = "data:image/svg+xml;charset=utf-8," +
	"%3Csvg xmlns='http://www.w3.org/2000/svg' width='600' height='400'%3E" +
	"%3Crect width='100%25' height='100%25' fill='%23e5e7eb'/%3E" +
	"%3Ctext x='50%25' y='50%25' fill='%236b7280' font-family='sans-serif' font-size='24' " +
	"text-anchor='middle' dominant-baseline='middle'%3EPreview%3C/text%3E%3C/svg%3E"

// Record is one row of the sample data array.
type Record struct {
	ID    int    `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Value int    `json:"value" yaml:"value"`
}

// DefaultCallbacks are the prop names given no-op function stubs.
var DefaultCallbacks = []string{"onClick", "onToggle"}

// PropSet is the set of placeholder values plus the callback names that get
// no-op stubs in the sandbox.
type PropSet struct {
	values    map[string]interface{}
	callbacks []string
}

// Defaults returns the standard placeholder props.
func Defaults() *PropSet {
	return &PropSet{
		values: map[string]interface{}{
			"title":       "Sample Title",
			"subtitle":    "A short supporting subtitle",
			"description": "This is a sample description used to preview the component.",
			"image":       PlaceholderImage,
			"imageSrc":    PlaceholderImage,
			"text":        "Sample text",
			"content":     "Sample content for the preview.",
			"name":        "Jane Doe",
			"value":       "42",
			"label":       "Label",
			"placeholder": "Type something...",
			"children":    "Preview content",
			"data": []Record{
				{ID: 1, Name: "Item One", Value: 120},
				{ID: 2, Name: "Item Two", Value: 80},
				{ID: 3, Name: "Item Three", Value: 45},
			},
		},
		callbacks: append([]string(nil), DefaultCallbacks...),
	}
}

// Set overrides a value. A nil value is replaced with a guess based on the
// prop name.
func (p *PropSet) Set(name string, value interface{}) {
	if value == nil {
		value = GuessValue(name)
	}
	p.values[name] = value
}

// AddCallback registers another prop name that receives a no-op stub.
func (p *PropSet) AddCallback(name string) {
	for _, c := range p.callbacks {
		if c == name {
			return
		}
	}
	p.callbacks = append(p.callbacks, name)
	delete(p.values, name)
}

// Merge applies overrides on top of the current values.
func (p *PropSet) Merge(overrides map[string]interface{}) *PropSet {
	for name, value := range overrides {
		if isCallbackName(name) {
			p.AddCallback(name)

			continue
		}
		p.Set(name, value)
	}

	return p
}

// Value returns the placeholder for name.
func (p *PropSet) Value(name string) (interface{}, bool) {
	v, ok := p.values[name]

	return v, ok
}

// Names returns all data prop names in sorted order.
func (p *PropSet) Names() []string {
	names := make([]string, 0, len(p.values))
	for name := range p.values {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Callbacks returns the callback prop names in sorted order.
func (p *PropSet) Callbacks() []string {
	out := append([]string(nil), p.callbacks...)
	sort.Strings(out)

	return out
}

// JSON renders the data values as a JSON object with sorted keys.
func (p *PropSet) JSON() (string, error) {
	data, err := json.Marshal(p.values)
	if err != nil {
		return "", fmt.Errorf("failed to encode placeholder props: %w", err)
	}

	return string(data), nil
}

// LoadOverrides reads a YAML mapping of prop names to placeholder values.
func LoadOverrides(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read props file %s: %w", path, err)
	}

	overrides := make(map[string]interface{})
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("invalid YAML in props file %s: %w", path, err)
	}

	return overrides, nil
}

// Load returns the defaults merged with the overrides file at path, if any.
func Load(path string) (*PropSet, error) {
	props := Defaults()
	if path == "" {
		return props, nil
	}

	overrides, err := LoadOverrides(path)
	if err != nil {
		return nil, err
	}

	return props.Merge(overrides), nil
}

func isCallbackName(name string) bool {
	return len(name) > 2 && strings.HasPrefix(name, "on") &&
		name[2] >= 'A' && name[2] <= 'Z'
}

// GuessValue picks a placeholder for an unknown prop from its name.
func GuessValue(name string) interface{} {
	lower := strings.ToLower(name)

	switch {
	case containsAny(lower, "email", "mail"):
		return "jane.doe@example.com"
	case containsAny(lower, "url", "link", "href"):
		return "#"
	case containsAny(lower, "image", "avatar", "src", "logo", "photo"):
		return PlaceholderImage
	case containsAny(lower, "count", "total", "price", "amount", "quantity", "age"):
		return 42
	case containsAny(lower, "items", "rows", "list", "options", "records"):
		return Defaults().values["data"]
	case strings.HasPrefix(lower, "is") || strings.HasPrefix(lower, "has") ||
		containsAny(lower, "active", "enabled", "visible", "open", "selected", "disabled"):
		return false
	case containsAny(lower, "color", "colour", "background"):
		return "#3b82f6"
	case containsAny(lower, "date", "time", "created", "updated"):
		return "2024-01-15"
	}

	return cases.Title(language.English).String("sample " + splitCamel(name))
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}

	return false
}

// splitCamel turns "buttonText" into "button text".
func splitCamel(name string) string {
	var b strings.Builder
	for i, r := range name {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}

	return strings.ToLower(b.String())
}
