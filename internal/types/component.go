// Package types provides common type definitions used throughout jsxlive.
// This package contains shared types to avoid circular dependencies between packages.
package types

import (
	"strings"
	"time"
)

// GeneratedComponent is the jsx/css pair owned by the active session. It is
// replaced wholesale on every AI turn or user edit.
type GeneratedComponent struct {
	// JSX is the component source as produced by the model or loaded from disk
	JSX string `json:"jsx" yaml:"jsx"`
	// CSS is the stylesheet text inlined into every sandbox document
	CSS string `json:"css" yaml:"css"`
	// LastModified records when either field last changed
	LastModified time.Time `json:"lastModified" yaml:"last_modified"`
}

// IsEmpty reports whether there is no component source to render.
func (c GeneratedComponent) IsEmpty() bool {
	return strings.TrimSpace(c.JSX) == ""
}

// SameSource reports whether two components carry identical jsx and css.
func (c GeneratedComponent) SameSource(other GeneratedComponent) bool {
	return c.JSX == other.JSX && c.CSS == other.CSS
}

// StyleMap holds the resolved computed style values reported for an element,
// keyed by camelCase property name.
type StyleMap map[string]string

// SelectedElement describes the element the user last clicked in the preview.
type SelectedElement struct {
	// Type is the element's type attribute, or its lowercase tag name
	Type string `json:"type"`
	// TagName is the upper-case DOM tag name
	TagName string `json:"tagName"`
	// ClassName is the class attribute without the preview marker classes
	ClassName string `json:"className"`
	// ComputedStyles holds resolved style values for the editable properties
	ComputedStyles StyleMap `json:"computedStyles"`
	// TextContent is a trimmed excerpt of the element text, when present
	TextContent string `json:"textContent,omitempty"`
}

// PrimaryClass returns the first class token, which property edits target.
func (s SelectedElement) PrimaryClass() string {
	fields := strings.Fields(s.ClassName)
	if len(fields) == 0 {
		return ""
	}

	return fields[0]
}

// PropertyEditRequest is issued by the property panel for the current selection.
type PropertyEditRequest struct {
	Property string `json:"property"`
	RawValue string `json:"rawValue"`
}

// Validate checks that the request names a property.
func (r PropertyEditRequest) Validate() error {
	if strings.TrimSpace(r.Property) == "" {
		return errEmptyProperty
	}

	return nil
}

type validationError string

func (e validationError) Error() string { return string(e) }

const errEmptyProperty = validationError("property name is required")
